package engine

import (
	"context"

	"github.com/bedquiltdb/bedquilt/bedqerr"
	"github.com/bedquiltdb/bedquilt/query"
	"github.com/bedquiltdb/bedquilt/store"
	"github.com/bedquiltdb/bedquilt/value"
)

// normalizeID validates or generates the document's _id, returning it
// alongside whether it was supplied by the caller (§4.G, I2: ids are
// opaque strings; the engine never imposes ordering on them).
func normalizeID(doc value.Value) (string, bool, error) {
	idVal, present := doc.Object().Get("_id")
	if !present {
		id, err := store.GenerateID()
		return id, false, err
	}
	if idVal.Kind() != value.KindString || idVal.String() == "" {
		return "", false, bedqerr.TypeErr("_id must be a non-empty string")
	}
	return idVal.String(), true, nil
}

// withMeta returns a copy of doc with _id/created/updated set, preserving
// every other field and its relative order.
func withMeta(doc value.Value, id, created, updated string) value.Value {
	out := value.NewObject()
	out.Set("_id", value.String(id))
	for _, k := range doc.Object().Keys() {
		if k == "_id" || k == "created" || k == "updated" {
			continue
		}
		v, _ := doc.Object().Get(k)
		out.Set(k, v)
	}
	out.Set("created", value.String(created))
	out.Set("updated", value.String(updated))
	return value.ObjectValue(out)
}

func (e *Engine) checkConstraints(ctx context.Context, ex store.Executor, collection string, doc value.Value) error {
	set, err := e.loadConstraintSet(ctx, ex, collection)
	if err != nil {
		return err
	}
	return set.CheckAll(doc)
}

// Insert adds a new document to collection, assigning _id if the caller
// didn't supply one, and stamping created/updated to the current time
// (§4.G). It fails with bedqerr.ErrDuplicateKey if _id already exists.
func (e *Engine) Insert(ctx context.Context, collection string, doc value.Value) (value.Value, error) {
	if doc.Kind() != value.KindObject {
		return value.Null, bedqerr.TypeErr("document must be an object, got %s", doc.Kind().TypeName())
	}
	ex := e.Store.Conn()
	if err := e.createCollectionIfAbsent(ctx, ex, collection); err != nil {
		return value.Null, err
	}

	id, _, err := normalizeID(doc)
	if err != nil {
		return value.Null, err
	}
	now := nowRFC3339()
	final := withMeta(doc, id, now, now)

	if err := e.checkConstraints(ctx, ex, collection, final); err != nil {
		return value.Null, err
	}

	raw, err := final.MarshalJSON()
	if err != nil {
		return value.Null, err
	}
	if err := e.Store.Put(ctx, ex, collection, store.DocRow{ID: id, Doc: string(raw), Created: now, Updated: now}); err != nil {
		return value.Null, err
	}
	return final, nil
}

// Save inserts doc if its _id is new (or absent), or replaces the
// existing document with the same _id, preserving its original created
// time and stamping a fresh updated time (§4.G save/upsert semantics).
func (e *Engine) Save(ctx context.Context, collection string, doc value.Value) (value.Value, error) {
	if doc.Kind() != value.KindObject {
		return value.Null, bedqerr.TypeErr("document must be an object, got %s", doc.Kind().TypeName())
	}
	ex := e.Store.Conn()
	if err := e.createCollectionIfAbsent(ctx, ex, collection); err != nil {
		return value.Null, err
	}

	id, hadID, err := normalizeID(doc)
	if err != nil {
		return value.Null, err
	}

	created := nowRFC3339()
	if hadID {
		if existing, ok, err := e.Store.Get(ctx, ex, collection, id); err != nil {
			return value.Null, err
		} else if ok {
			created = existing.Created
		}
	}
	updated := nowRFC3339()
	final := withMeta(doc, id, created, updated)

	if err := e.checkConstraints(ctx, ex, collection, final); err != nil {
		return value.Null, err
	}

	raw, err := final.MarshalJSON()
	if err != nil {
		return value.Null, err
	}
	if err := e.Store.Upsert(ctx, ex, collection, store.DocRow{ID: id, Doc: string(raw), Created: created, Updated: updated}); err != nil {
		return value.Null, err
	}
	return final, nil
}

// Remove deletes every document in collection matching q, returning how
// many were removed. An empty/absent query matches every document,
// which is a legal (if dangerous) removal of everything in the
// collection — bedquilt does not guard against it (§4.G).
func (e *Engine) Remove(ctx context.Context, collection string, q value.Value) (int, error) {
	ids, err := e.matchingIDs(ctx, collection, q, 0)
	if err != nil {
		return 0, err
	}
	ex := e.Store.Conn()
	n := 0
	for _, id := range ids {
		ok, err := e.Store.Delete(ctx, ex, collection, id)
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

// RemoveOne deletes the first document (in insertion order) matching q,
// returning the removed document and whether anything matched (§4.G; the
// insertion-order tie-break resolves the open question of which document
// "first" refers to when several match).
func (e *Engine) RemoveOne(ctx context.Context, collection string, q value.Value) (value.Value, bool, error) {
	ids, err := e.matchingIDs(ctx, collection, q, 1)
	if err != nil {
		return value.Null, false, err
	}
	if len(ids) == 0 {
		return value.Null, false, nil
	}
	return e.removeByID(ctx, collection, ids[0])
}

// RemoveOneByID deletes the document with the given _id, if present. A
// missing collection returns 0/false rather than an error (§7).
func (e *Engine) RemoveOneByID(ctx context.Context, collection, id string) (value.Value, bool, error) {
	ex := e.Store.Conn()
	missing, err := e.collectionMissing(ctx, ex, collection)
	if err != nil || missing {
		return value.Null, false, err
	}
	return e.removeByID(ctx, collection, id)
}

func (e *Engine) removeByID(ctx context.Context, collection, id string) (value.Value, bool, error) {
	ex := e.Store.Conn()
	row, ok, err := e.Store.Get(ctx, ex, collection, id)
	if err != nil || !ok {
		return value.Null, false, err
	}
	docVal, err := value.FromJSON([]byte(row.Doc))
	if err != nil {
		return value.Null, false, err
	}
	if _, err := e.Store.Delete(ctx, ex, collection, id); err != nil {
		return value.Null, false, err
	}
	return docVal, true, nil
}

// matchingIDs compiles q and collects the ids of matching documents in
// insertion order, stopping early once limit ids are collected (limit <=
// 0 means unlimited). A missing collection yields no ids, not an error
// (§7), so remove/remove_one report 0 against it.
func (e *Engine) matchingIDs(ctx context.Context, collection string, q value.Value, limit int) ([]string, error) {
	ex := e.Store.Conn()
	missing, err := e.collectionMissing(ctx, ex, collection)
	if err != nil || missing {
		return nil, err
	}
	cq, err := query.Compile(q)
	if err != nil {
		return nil, err
	}

	var ids []string
	err = e.Store.Iterate(ctx, ex, collection, func(row store.DocRow) (bool, error) {
		docVal, perr := value.FromJSON([]byte(row.Doc))
		if perr != nil {
			return false, perr
		}
		if cq.Match(docVal) {
			ids = append(ids, row.ID)
			if limit > 0 && len(ids) >= limit {
				return false, nil
			}
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
