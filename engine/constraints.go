package engine

import (
	"context"

	"github.com/bedquiltdb/bedquilt/constraint"
	"github.com/bedquiltdb/bedquilt/store"
	"github.com/bedquiltdb/bedquilt/value"
)

// loadConstraintSet reads and recompiles every constraint declared
// against collection. Constraints are stored as JSON declaration text
// (store.ConstraintRow.Doc) and recompiled on each write rather than
// cached, mirroring the teacher's preference for schema reads straight
// from the catalog over an in-process cache for anything but the hot
// relational schema path (atomicbase api/data/schema_cache.go is the
// one place that cache pays for itself; constraint sets are small and
// written rarely enough that it isn't needed here).
func (e *Engine) loadConstraintSet(ctx context.Context, ex store.Executor, collection string) (*constraint.Set, error) {
	rows, err := e.Store.ListConstraints(ctx, ex, collection)
	if err != nil {
		return nil, err
	}
	set := constraint.NewSet()
	for _, r := range rows {
		doc, err := value.FromJSON([]byte(r.Doc))
		if err != nil {
			return nil, err
		}
		c, err := constraint.Compile(doc)
		if err != nil {
			return nil, err
		}
		set.Add(c)
	}
	return set, nil
}

// AddConstraint declares a new constraint against collection (§4.F/I3).
// The returned bool reports whether the constraint was newly added: a
// repeat declaration of an identically named constraint is a no-op that
// reports false rather than persisting a duplicate. If existing
// documents already violate the constraint, the declaration is rejected
// and nothing is persisted — constraints are not retroactively enforced
// by rewriting prior data (I4), so the only way to guarantee the
// invariant holds is to refuse to declare it over data that already
// breaks it.
func (e *Engine) AddConstraint(ctx context.Context, collection string, doc value.Value) (constraint.Constraint, bool, error) {
	if err := e.createCollectionIfAbsent(ctx, e.Store.Conn(), collection); err != nil {
		return constraint.Constraint{}, false, err
	}
	c, err := constraint.Compile(doc)
	if err != nil {
		return constraint.Constraint{}, false, err
	}

	set, err := e.loadConstraintSet(ctx, e.Store.Conn(), collection)
	if err != nil {
		return constraint.Constraint{}, false, err
	}
	if !set.Add(c) {
		return c, false, nil
	}

	violation := error(nil)
	err = e.Store.Iterate(ctx, e.Store.Conn(), collection, func(row store.DocRow) (bool, error) {
		docVal, perr := value.FromJSON([]byte(row.Doc))
		if perr != nil {
			return false, perr
		}
		if cerr := c.Check(docVal); cerr != nil {
			violation = cerr
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return constraint.Constraint{}, false, err
	}
	if violation != nil {
		return constraint.Constraint{}, false, violation
	}

	raw, err := doc.MarshalJSON()
	if err != nil {
		return constraint.Constraint{}, false, err
	}
	if err := e.Store.PutConstraint(ctx, e.Store.Conn(), store.ConstraintRow{
		Collection: collection,
		Name:       c.Name,
		Doc:        string(raw),
	}); err != nil {
		return constraint.Constraint{}, false, err
	}
	return c, true, nil
}

// RemoveConstraint drops the constraint named by spec, a constraint
// declaration document of the same shape add_constraint accepts (§6): it
// is compiled to its canonical name the same way AddConstraint compiles
// one to declare it. A missing collection reports false rather than an
// error (§7).
func (e *Engine) RemoveConstraint(ctx context.Context, collection string, spec value.Value) (bool, error) {
	missing, err := e.collectionMissing(ctx, e.Store.Conn(), collection)
	if err != nil || missing {
		return false, err
	}
	c, err := constraint.Compile(spec)
	if err != nil {
		return false, err
	}
	return e.Store.DropConstraint(ctx, e.Store.Conn(), collection, c.Name)
}

// ListConstraints returns every constraint declared against collection,
// or an empty list for a missing collection (§7).
func (e *Engine) ListConstraints(ctx context.Context, collection string) ([]constraint.Constraint, error) {
	missing, err := e.collectionMissing(ctx, e.Store.Conn(), collection)
	if err != nil {
		return nil, err
	}
	if missing {
		return nil, nil
	}
	set, err := e.loadConstraintSet(ctx, e.Store.Conn(), collection)
	if err != nil {
		return nil, err
	}
	return set.List(), nil
}
