package engine

import (
	"context"
	"sort"

	"github.com/bedquiltdb/bedquilt/query"
	"github.com/bedquiltdb/bedquilt/store"
	"github.com/bedquiltdb/bedquilt/value"
)

// FindOptions controls the cursor pipeline's sort/skip/limit/projection
// stages (§4.E). A zero value means "no sort, no skip, no limit, no
// projection" — i.e. every matching document, in insertion order.
type FindOptions struct {
	Sort    value.Value // sort spec document, or Null for none
	Skip    int
	Limit   int // 0 means unlimited
	Project value.Value // array of field names, or Null for the whole document
}

// Find runs the cursor pipeline: resolve collection, compile and apply
// the query predicate, sort, skip, limit, and finally project, in that
// order (§4.E), matching the teacher's own select pipeline staging
// (atomicbase api/data/queries.go selectJSON: filter -> order -> limit ->
// offset -> projection).
func (e *Engine) Find(ctx context.Context, collection string, q value.Value, opts FindOptions) ([]value.Value, error) {
	ex := e.Store.Conn()
	missing, err := e.collectionMissing(ctx, ex, collection)
	if err != nil {
		return nil, err
	}
	if missing {
		return []value.Value{}, nil
	}
	cq, err := query.Compile(q)
	if err != nil {
		return nil, err
	}
	cs, err := query.CompileSort(opts.Sort)
	if err != nil {
		return nil, err
	}
	fields, err := compileProjection(opts.Project)
	if err != nil {
		return nil, err
	}

	var docs []query.Doc
	err = e.Store.Iterate(ctx, ex, collection, func(row store.DocRow) (bool, error) {
		docVal, perr := value.FromJSON([]byte(row.Doc))
		if perr != nil {
			return false, perr
		}
		if cq.Match(docVal) {
			docs = append(docs, query.Doc{Body: docVal, Created: row.Created, Updated: row.Updated})
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if len(cs) > 0 {
		sort.SliceStable(docs, func(i, j int) bool {
			return cs.Compare(docs[i], docs[j]) < 0
		})
	}

	docs = applySkipLimit(docs, opts.Skip, opts.Limit)

	out := make([]value.Value, len(docs))
	for i, d := range docs {
		out[i] = project(d.Body, fields)
	}
	return out, nil
}

// FindOne returns the first document (in the pipeline's resulting order)
// matching q, or ok=false if none did.
func (e *Engine) FindOne(ctx context.Context, collection string, q value.Value, opts FindOptions) (value.Value, bool, error) {
	opts.Limit = 1
	results, err := e.Find(ctx, collection, q, opts)
	if err != nil || len(results) == 0 {
		return value.Null, false, err
	}
	return results[0], true, nil
}

// FindOneByID fetches a single document by its _id, applying the same
// projection rule as Find/FindOne.
func (e *Engine) FindOneByID(ctx context.Context, collection, id string, project value.Value) (value.Value, bool, error) {
	ex := e.Store.Conn()
	missing, err := e.collectionMissing(ctx, ex, collection)
	if err != nil || missing {
		return value.Null, false, err
	}
	row, ok, err := e.Store.Get(ctx, ex, collection, id)
	if err != nil || !ok {
		return value.Null, false, err
	}
	docVal, err := value.FromJSON([]byte(row.Doc))
	if err != nil {
		return value.Null, false, err
	}
	fields, err := compileProjection(project)
	if err != nil {
		return value.Null, false, err
	}
	return project(docVal, fields), true, nil
}

// Count reports how many documents in collection match q.
func (e *Engine) Count(ctx context.Context, collection string, q value.Value) (int, error) {
	ex := e.Store.Conn()
	missing, err := e.collectionMissing(ctx, ex, collection)
	if err != nil {
		return 0, err
	}
	if missing {
		return 0, nil
	}
	cq, err := query.Compile(q)
	if err != nil {
		return 0, err
	}
	n := 0
	err = e.Store.Iterate(ctx, ex, collection, func(row store.DocRow) (bool, error) {
		docVal, perr := value.FromJSON([]byte(row.Doc))
		if perr != nil {
			return false, perr
		}
		if cq.Match(docVal) {
			n++
		}
		return true, nil
	})
	return n, err
}

// Distinct returns the distinct values found at path across every
// document matching q. A document where path is absent contributes a
// single Null element to the result, the same as any other distinct
// value (§4.E), so a mix of missing and present values collapses
// missingness to one null entry rather than being dropped. Results are
// returned in first-seen order.
func (e *Engine) Distinct(ctx context.Context, collection, path string, q value.Value) ([]value.Value, error) {
	ex := e.Store.Conn()
	missing, err := e.collectionMissing(ctx, ex, collection)
	if err != nil {
		return nil, err
	}
	if missing {
		return []value.Value{}, nil
	}
	cq, err := query.Compile(q)
	if err != nil {
		return nil, err
	}
	p := value.ParsePath(path)

	var out []value.Value
	err = e.Store.Iterate(ctx, ex, collection, func(row store.DocRow) (bool, error) {
		docVal, perr := value.FromJSON([]byte(row.Doc))
		if perr != nil {
			return false, perr
		}
		if !cq.Match(docVal) {
			return true, nil
		}
		v, present := value.Resolve(docVal, p)
		if !present {
			v = value.Null
		}
		for _, seen := range out {
			if value.Equal(seen, v) {
				return true, nil
			}
		}
		out = append(out, v)
		return true, nil
	})
	return out, err
}

func applySkipLimit(docs []query.Doc, skip, limit int) []query.Doc {
	if skip > 0 {
		if skip >= len(docs) {
			return nil
		}
		docs = docs[skip:]
	}
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs
}

// compileProjection parses a projection spec (an array of dotted field
// names) into the list of field names to retain; non-string entries are
// ignored. A Null spec means "project nothing away": the whole document
// is returned.
func compileProjection(spec value.Value) ([]string, error) {
	if spec.IsNull() {
		return nil, nil
	}
	if spec.Kind() != value.KindArray {
		return nil, nil
	}
	fields := make([]string, 0, len(spec.Array()))
	for _, f := range spec.Array() {
		if f.Kind() == value.KindString {
			fields = append(fields, f.String())
		}
	}
	return fields, nil
}

// project returns doc restricted to the given field names, always keeping
// _id the way a document store's projection conventionally does, or doc
// unchanged if fields is empty. A dotted name is resolved as a path and
// its value stored in the result under the dotted name itself as one key.
func project(doc value.Value, fields []string) value.Value {
	if len(fields) == 0 || doc.Kind() != value.KindObject {
		return doc
	}
	out := value.NewObject()
	if idVal, ok := doc.Object().Get("_id"); ok {
		out.Set("_id", idVal)
	}
	for _, f := range fields {
		if f == "_id" {
			continue
		}
		if v, ok := value.ResolveDotted(doc, f); ok {
			out.Set(f, v)
		}
	}
	return value.ObjectValue(out)
}
