// Package engine orchestrates the query compiler, constraint engine, and
// persistence substrate into the document-collection operations bedquilt
// exposes (§4.E-H): insert, save, find, count, distinct, remove, and
// collection/constraint lifecycle. It plays the role the teacher's
// data.queries.go (SelectJSON/InsertJSON/UpdateJSON/DeleteJSON) plays for
// atomicbase, but evaluates queries in Go over value.Value documents
// instead of compiling them to SQL.
package engine

import (
	"context"
	"time"

	"github.com/bedquiltdb/bedquilt/store"
)

// Engine is the top-level handle documents and collections are operated
// on through.
type Engine struct {
	Store store.Store
}

// New wraps a store.Store as an Engine.
func New(s store.Store) *Engine {
	return &Engine{Store: s}
}

// nowRFC3339 stamps created/updated times in sortable ISO-8601 form, so
// the synthetic $created/$updated sort keys can compare lexicographically
// (query/sort.go). The fraction is always nine digits wide, so string
// order matches time order.
func nowRFC3339() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}

// createCollectionIfAbsent implicitly declares name if it hasn't been
// created yet, the "insert creates its collection on demand" rule
// (§4.G/§4.H) shared by Insert, Save, and AddConstraint.
func (e *Engine) createCollectionIfAbsent(ctx context.Context, ex store.Executor, name string) error {
	ok, err := e.Store.CollectionExists(ctx, ex, name)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return e.Store.CreateCollection(ctx, ex, name)
}

// collectionMissing reports whether name is undeclared. Read-style
// operations (find/count/distinct/remove) treat a missing collection as
// "no data" and return early with an empty/zero result rather than an
// error (§4.H, §7: "reads against missing collections are not errors").
func (e *Engine) collectionMissing(ctx context.Context, ex store.Executor, name string) (bool, error) {
	ok, err := e.Store.CollectionExists(ctx, ex, name)
	if err != nil {
		return false, err
	}
	return !ok, nil
}
