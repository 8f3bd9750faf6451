package store

import (
	"context"
	"testing"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateListDropCollection(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	ex := s.Conn()

	if err := s.CreateCollection(ctx, ex, "widgets"); err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	// Idempotent: creating the same collection twice must not error.
	if err := s.CreateCollection(ctx, ex, "widgets"); err != nil {
		t.Fatalf("CreateCollection (repeat): %v", err)
	}

	ok, err := s.CollectionExists(ctx, ex, "widgets")
	if err != nil || !ok {
		t.Fatalf("CollectionExists = %v, %v; want true, nil", ok, err)
	}

	names, err := s.ListCollections(ctx, ex)
	if err != nil || len(names) != 1 || names[0] != "widgets" {
		t.Fatalf("ListCollections = %v, %v", names, err)
	}

	if err := s.DropCollection(ctx, ex, "widgets"); err != nil {
		t.Fatalf("DropCollection: %v", err)
	}
	ok, err = s.CollectionExists(ctx, ex, "widgets")
	if err != nil || ok {
		t.Fatalf("CollectionExists after drop = %v, %v; want false, nil", ok, err)
	}
}

func TestPutGetDuplicateKey(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	ex := s.Conn()
	s.CreateCollection(ctx, ex, "widgets")

	row := DocRow{ID: "abc123", Doc: `{"_id":"abc123","name":"gizmo"}`, Created: "2024-01-01T00:00:00Z", Updated: "2024-01-01T00:00:00Z"}
	if err := s.Put(ctx, ex, "widgets", row); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := s.Put(ctx, ex, "widgets", row); err == nil {
		t.Fatalf("expected duplicate key error on second Put")
	}

	got, ok, err := s.Get(ctx, ex, "widgets", "abc123")
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v, %v", got, ok, err)
	}
	if got.Doc != row.Doc {
		t.Errorf("Get doc = %s, want %s", got.Doc, row.Doc)
	}

	_, ok, err = s.Get(ctx, ex, "widgets", "missing")
	if err != nil || ok {
		t.Fatalf("Get for missing id = %v, %v; want false, nil", ok, err)
	}
}

func TestUpsertIterateDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	ex := s.Conn()
	s.CreateCollection(ctx, ex, "widgets")

	s.Upsert(ctx, ex, "widgets", DocRow{ID: "a", Doc: `{"n":1}`, Created: "t0", Updated: "t0"})
	s.Upsert(ctx, ex, "widgets", DocRow{ID: "b", Doc: `{"n":2}`, Created: "t0", Updated: "t0"})
	s.Upsert(ctx, ex, "widgets", DocRow{ID: "a", Doc: `{"n":99}`, Created: "t0", Updated: "t1"})

	var seen []string
	err := s.Iterate(ctx, ex, "widgets", func(r DocRow) (bool, error) {
		seen = append(seen, r.ID+":"+r.Doc)
		return true, nil
	})
	if err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("Iterate visited %d rows, want 2 (upsert on existing id replaces, not appends): %v", len(seen), seen)
	}

	ok, err := s.Delete(ctx, ex, "widgets", "a")
	if err != nil || !ok {
		t.Fatalf("Delete = %v, %v; want true, nil", ok, err)
	}
	ok, err = s.Delete(ctx, ex, "widgets", "a")
	if err != nil || ok {
		t.Fatalf("Delete (already removed) = %v, %v; want false, nil", ok, err)
	}
}

func TestConstraintPersistence(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	ex := s.Conn()
	s.CreateCollection(ctx, ex, "widgets")

	row := ConstraintRow{Collection: "widgets", Name: "name:$required", Doc: `{"name":{"$required":true}}`}
	if err := s.PutConstraint(ctx, ex, row); err != nil {
		t.Fatalf("PutConstraint: %v", err)
	}
	// Re-declaring under the same name replaces rather than duplicates.
	if err := s.PutConstraint(ctx, ex, row); err != nil {
		t.Fatalf("PutConstraint (repeat): %v", err)
	}

	list, err := s.ListConstraints(ctx, ex, "widgets")
	if err != nil || len(list) != 1 {
		t.Fatalf("ListConstraints = %v, %v; want 1 entry", list, err)
	}

	ok, err := s.DropConstraint(ctx, ex, "widgets", "name:$required")
	if err != nil || !ok {
		t.Fatalf("DropConstraint = %v, %v; want true, nil", ok, err)
	}
	ok, err = s.DropConstraint(ctx, ex, "widgets", "name:$required")
	if err != nil || ok {
		t.Fatalf("DropConstraint (already gone) = %v, %v; want false, nil", ok, err)
	}
}

func TestTransactionRollback(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	s.CreateCollection(ctx, s.Conn(), "widgets")

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := s.Put(ctx, tx, "widgets", DocRow{ID: "x", Doc: `{}`, Created: "t0", Updated: "t0"}); err != nil {
		t.Fatalf("Put in tx: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	_, ok, err := s.Get(ctx, s.Conn(), "widgets", "x")
	if err != nil || ok {
		t.Fatalf("Get after rollback = %v, %v; want false, nil", ok, err)
	}
}
