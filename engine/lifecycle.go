package engine

import (
	"context"
	"unicode"

	"github.com/bedquiltdb/bedquilt/bedqerr"
)

// ValidateCollectionName enforces the collection-naming rule from §3: a
// lowercase letter or underscore, followed by any number of lowercase
// letters, digits, or underscores, matching the teacher's own identifier
// rule (atomicbase api/tools/validation.go ValidateIdentifier) narrowed
// to the lowercase-only convention bedquilt collection names use.
func ValidateCollectionName(name string) error {
	if name == "" {
		return bedqerr.InvalidIdentifierErr(name)
	}
	for i, r := range name {
		switch {
		case r == '_':
		case i == 0 && unicode.IsLower(r):
		case i > 0 && (unicode.IsLower(r) || unicode.IsDigit(r)):
		default:
			return bedqerr.InvalidIdentifierErr(name)
		}
	}
	return nil
}

// CreateCollection declares a new collection, returning true if it was
// newly created or false if it already existed (§4.H).
func (e *Engine) CreateCollection(ctx context.Context, name string) (bool, error) {
	if err := ValidateCollectionName(name); err != nil {
		return false, err
	}
	ex := e.Store.Conn()
	exists, err := e.Store.CollectionExists(ctx, ex, name)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := e.Store.CreateCollection(ctx, ex, name); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteCollection drops a collection and every constraint declared
// against it, returning true if it existed or false if it was already
// absent (§4.H).
func (e *Engine) DeleteCollection(ctx context.Context, name string) (bool, error) {
	ex := e.Store.Conn()
	exists, err := e.Store.CollectionExists(ctx, ex, name)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	if err := e.Store.DropCollection(ctx, ex, name); err != nil {
		return false, err
	}
	return true, nil
}

// ListCollections returns every declared collection name.
func (e *Engine) ListCollections(ctx context.Context) ([]string, error) {
	return e.Store.ListCollections(ctx, e.Store.Conn())
}

// CollectionExists reports whether name has been declared.
func (e *Engine) CollectionExists(ctx context.Context, name string) (bool, error) {
	return e.Store.CollectionExists(ctx, e.Store.Conn(), name)
}
