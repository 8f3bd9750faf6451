package engine

import (
	"context"
	"testing"

	"github.com/bedquiltdb/bedquilt/store"
	"github.com/bedquiltdb/bedquilt/value"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	s, err := store.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s)
}

func mustValue(t *testing.T, json string) value.Value {
	t.Helper()
	v, err := value.FromJSON([]byte(json))
	if err != nil {
		t.Fatalf("FromJSON(%s): %v", json, err)
	}
	return v
}

func TestCollectionLifecycle(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	created, err := e.CreateCollection(ctx, "widgets")
	if err != nil || !created {
		t.Fatalf("CreateCollection = %v, %v", created, err)
	}
	created, err = e.CreateCollection(ctx, "widgets")
	if err != nil || created {
		t.Fatalf("CreateCollection (already present) = %v, %v, want false", created, err)
	}
	if err := ValidateCollectionName("Bad-Name"); err == nil {
		t.Errorf("expected invalid name to be rejected")
	}
	if _, err := e.CreateCollection(ctx, "Bad-Name"); err == nil {
		t.Errorf("expected CreateCollection to reject an invalid name")
	}

	names, err := e.ListCollections(ctx)
	if err != nil || len(names) != 1 || names[0] != "widgets" {
		t.Fatalf("ListCollections = %v, %v", names, err)
	}

	deleted, err := e.DeleteCollection(ctx, "widgets")
	if err != nil || !deleted {
		t.Fatalf("DeleteCollection = %v, %v", deleted, err)
	}
	deleted, err = e.DeleteCollection(ctx, "widgets")
	if err != nil || deleted {
		t.Fatalf("DeleteCollection (already absent) = %v, %v, want false", deleted, err)
	}
	ok, err := e.CollectionExists(ctx, "widgets")
	if err != nil || ok {
		t.Fatalf("CollectionExists after delete = %v, %v", ok, err)
	}
}

func TestInsertAssignsIDAndTimestamps(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	e.CreateCollection(ctx, "widgets")

	doc, err := e.Insert(ctx, "widgets", mustValue(t, `{"name":"gizmo"}`))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	id, ok := doc.Object().Get("_id")
	if !ok || id.Kind() != value.KindString || id.String() == "" {
		t.Fatalf("expected a generated _id, got %v", doc)
	}
	if _, ok := doc.Object().Get("created"); !ok {
		t.Errorf("expected created to be stamped")
	}
	if _, ok := doc.Object().Get("updated"); !ok {
		t.Errorf("expected updated to be stamped")
	}

	// Explicit _id honored, and re-inserting it fails.
	doc2, err := e.Insert(ctx, "widgets", mustValue(t, `{"_id":"fixed1","name":"sprocket"}`))
	if err != nil {
		t.Fatalf("Insert with explicit _id: %v", err)
	}
	if s, _ := doc2.Object().Get("_id"); s.String() != "fixed1" {
		t.Errorf("expected explicit _id to be honored, got %v", s)
	}
	if _, err := e.Insert(ctx, "widgets", mustValue(t, `{"_id":"fixed1","name":"dup"}`)); err == nil {
		t.Errorf("expected duplicate _id insert to fail")
	}
}

func TestSaveUpsertPreservesCreated(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	e.CreateCollection(ctx, "widgets")

	first, err := e.Save(ctx, "widgets", mustValue(t, `{"_id":"a","name":"one"}`))
	if err != nil {
		t.Fatalf("Save (insert path): %v", err)
	}
	created1, _ := first.Object().Get("created")

	second, err := e.Save(ctx, "widgets", mustValue(t, `{"_id":"a","name":"two"}`))
	if err != nil {
		t.Fatalf("Save (update path): %v", err)
	}
	created2, _ := second.Object().Get("created")
	if created1.String() != created2.String() {
		t.Errorf("expected created to be preserved across save: %v vs %v", created1, created2)
	}
	name, _ := second.Object().Get("name")
	if name.String() != "two" {
		t.Errorf("expected save to replace the document body")
	}
}

func TestFindWithQuerySortSkipLimit(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	e.CreateCollection(ctx, "widgets")
	e.Insert(ctx, "widgets", mustValue(t, `{"name":"a","score":3}`))
	e.Insert(ctx, "widgets", mustValue(t, `{"name":"b","score":1}`))
	e.Insert(ctx, "widgets", mustValue(t, `{"name":"c","score":2}`))

	results, err := e.Find(ctx, "widgets", mustValue(t, `{}`), FindOptions{
		Sort: mustValue(t, `[{"score":1}]`),
	})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Find returned %d docs, want 3", len(results))
	}
	order := []string{}
	for _, r := range results {
		n, _ := r.Object().Get("name")
		order = append(order, n.String())
	}
	want := []string{"b", "c", "a"}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("sort order = %v, want %v", order, want)
		}
	}

	limited, err := e.Find(ctx, "widgets", mustValue(t, `{}`), FindOptions{
		Sort: mustValue(t, `[{"score":1}]`), Skip: 1, Limit: 1,
	})
	if err != nil || len(limited) != 1 {
		t.Fatalf("Find with skip/limit = %v, %v", limited, err)
	}
	n, _ := limited[0].Object().Get("name")
	if n.String() != "c" {
		t.Errorf("Find with skip=1 limit=1 = %s, want c", n.String())
	}
}

func TestFindOneByID(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	e.CreateCollection(ctx, "widgets")
	inserted, _ := e.Insert(ctx, "widgets", mustValue(t, `{"name":"gizmo"}`))
	idVal, _ := inserted.Object().Get("_id")

	doc, ok, err := e.FindOneByID(ctx, "widgets", idVal.String(), value.Null)
	if err != nil || !ok {
		t.Fatalf("FindOneByID = %v, %v, %v", doc, ok, err)
	}
	_, ok, err = e.FindOneByID(ctx, "widgets", "does-not-exist", value.Null)
	if err != nil || ok {
		t.Fatalf("FindOneByID for missing id = %v, %v", ok, err)
	}
}

func TestCountAndDistinct(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	e.CreateCollection(ctx, "widgets")
	e.Insert(ctx, "widgets", mustValue(t, `{"color":"red"}`))
	e.Insert(ctx, "widgets", mustValue(t, `{"color":"blue"}`))
	e.Insert(ctx, "widgets", mustValue(t, `{"color":"red"}`))
	e.Insert(ctx, "widgets", mustValue(t, `{}`))

	n, err := e.Count(ctx, "widgets", mustValue(t, `{}`))
	if err != nil || n != 4 {
		t.Fatalf("Count = %d, %v, want 4", n, err)
	}

	n, err = e.Count(ctx, "widgets", mustValue(t, `{"color":"red"}`))
	if err != nil || n != 2 {
		t.Fatalf("Count(color=red) = %d, %v, want 2", n, err)
	}

	colors, err := e.Distinct(ctx, "widgets", "color", mustValue(t, `{}`))
	if err != nil || len(colors) != 3 {
		t.Fatalf("Distinct = %v, %v, want 2 distinct values plus one null for the missing-color document", colors, err)
	}
}

func TestRemoveAndRemoveOne(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	e.CreateCollection(ctx, "widgets")
	e.Insert(ctx, "widgets", mustValue(t, `{"_id":"a","kind":"x"}`))
	e.Insert(ctx, "widgets", mustValue(t, `{"_id":"b","kind":"x"}`))
	e.Insert(ctx, "widgets", mustValue(t, `{"_id":"c","kind":"y"}`))

	doc, ok, err := e.RemoveOne(ctx, "widgets", mustValue(t, `{"kind":"x"}`))
	if err != nil || !ok {
		t.Fatalf("RemoveOne = %v, %v, %v", doc, ok, err)
	}
	id, _ := doc.Object().Get("_id")
	if id.String() != "a" {
		t.Errorf("RemoveOne should remove the first-inserted match, got %s", id.String())
	}

	n, err := e.Remove(ctx, "widgets", mustValue(t, `{"kind":"x"}`))
	if err != nil || n != 1 {
		t.Fatalf("Remove = %d, %v, want 1 remaining match", n, err)
	}

	count, _ := e.Count(ctx, "widgets", mustValue(t, `{}`))
	if count != 1 {
		t.Fatalf("expected 1 document left, got %d", count)
	}
}

func TestRemoveOneByID(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	e.CreateCollection(ctx, "widgets")
	e.Insert(ctx, "widgets", mustValue(t, `{"_id":"a"}`))

	_, ok, err := e.RemoveOneByID(ctx, "widgets", "a")
	if err != nil || !ok {
		t.Fatalf("RemoveOneByID = %v, %v", ok, err)
	}
	_, ok, err = e.RemoveOneByID(ctx, "widgets", "a")
	if err != nil || ok {
		t.Fatalf("RemoveOneByID (already gone) = %v, %v", ok, err)
	}
}

func TestConstraintEnforcementAndNonRetroactivity(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	e.CreateCollection(ctx, "widgets")

	// A document that will later violate a not-yet-declared constraint.
	e.Insert(ctx, "widgets", mustValue(t, `{"_id":"pre-existing"}`))

	// Declaring $required against data that already violates it is
	// rejected outright (I4: no retroactive rewrite to "fix" old rows).
	if _, _, err := e.AddConstraint(ctx, "widgets", mustValue(t, `{"name":{"$required":true}}`)); err == nil {
		t.Fatalf("expected AddConstraint to reject a constraint violated by existing data")
	}

	e.Remove(ctx, "widgets", mustValue(t, `{}`))

	c, added, err := e.AddConstraint(ctx, "widgets", mustValue(t, `{"name":{"$required":true}}`))
	if err != nil || !added {
		t.Fatalf("AddConstraint over an empty collection = %v, %v, %v", c, added, err)
	}

	// Declaring the same constraint again is idempotent (I3/S4): it must
	// report false rather than persisting a duplicate.
	_, added, err = e.AddConstraint(ctx, "widgets", mustValue(t, `{"name":{"$required":true}}`))
	if err != nil || added {
		t.Fatalf("repeat AddConstraint = %v, %v, want false", added, err)
	}

	if _, err := e.Insert(ctx, "widgets", mustValue(t, `{"color":"red"}`)); err == nil {
		t.Fatalf("expected insert without required field to be rejected")
	}
	if _, err := e.Insert(ctx, "widgets", mustValue(t, `{"name":"ok"}`)); err != nil {
		t.Fatalf("expected insert satisfying the constraint to succeed: %v", err)
	}

	list, err := e.ListConstraints(ctx, "widgets")
	if err != nil || len(list) != 1 || list[0].Name != c.Name {
		t.Fatalf("ListConstraints = %v, %v", list, err)
	}

	ok, err := e.RemoveConstraint(ctx, "widgets", mustValue(t, `{"name":{"$required":true}}`))
	if err != nil || !ok {
		t.Fatalf("RemoveConstraint = %v, %v", ok, err)
	}
	// Removing again is idempotent and reports false.
	ok, err = e.RemoveConstraint(ctx, "widgets", mustValue(t, `{"name":{"$required":true}}`))
	if err != nil || ok {
		t.Fatalf("repeat RemoveConstraint = %v, %v, want false", ok, err)
	}
	if _, err := e.Insert(ctx, "widgets", mustValue(t, `{"color":"blue"}`)); err != nil {
		t.Fatalf("expected insert to succeed once the constraint is dropped: %v", err)
	}
}

func TestMissingCollectionReadsAreEmptyNotErrors(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	docs, err := e.Find(ctx, "ghost", mustValue(t, `{}`), FindOptions{})
	if err != nil || len(docs) != 0 {
		t.Fatalf("Find on missing collection = %v, %v, want empty/no error", docs, err)
	}
	_, ok, err := e.FindOneByID(ctx, "ghost", "x", value.Null)
	if err != nil || ok {
		t.Fatalf("FindOneByID on missing collection = %v, %v, want false/no error", ok, err)
	}
	n, err := e.Count(ctx, "ghost", mustValue(t, `{}`))
	if err != nil || n != 0 {
		t.Fatalf("Count on missing collection = %d, %v, want 0", n, err)
	}
	vals, err := e.Distinct(ctx, "ghost", "x", mustValue(t, `{}`))
	if err != nil || len(vals) != 0 {
		t.Fatalf("Distinct on missing collection = %v, %v, want empty", vals, err)
	}
	removed, err := e.Remove(ctx, "ghost", mustValue(t, `{}`))
	if err != nil || removed != 0 {
		t.Fatalf("Remove on missing collection = %d, %v, want 0", removed, err)
	}
	_, ok, err = e.RemoveOne(ctx, "ghost", mustValue(t, `{}`))
	if err != nil || ok {
		t.Fatalf("RemoveOne on missing collection = %v, %v, want false", ok, err)
	}
	_, ok, err = e.RemoveOneByID(ctx, "ghost", "x")
	if err != nil || ok {
		t.Fatalf("RemoveOneByID on missing collection = %v, %v, want false", ok, err)
	}
	list, err := e.ListConstraints(ctx, "ghost")
	if err != nil || len(list) != 0 {
		t.Fatalf("ListConstraints on missing collection = %v, %v, want empty", list, err)
	}
	rm, err := e.RemoveConstraint(ctx, "ghost", mustValue(t, `{"x":{"$required":true}}`))
	if err != nil || rm {
		t.Fatalf("RemoveConstraint on missing collection = %v, %v, want false", rm, err)
	}

	// insert and add_constraint both create the collection on demand.
	if _, err := e.Insert(ctx, "ghost", mustValue(t, `{"a":1}`)); err != nil {
		t.Fatalf("Insert should create the collection on demand: %v", err)
	}
	exists, err := e.CollectionExists(ctx, "ghost")
	if err != nil || !exists {
		t.Fatalf("CollectionExists after implicit create = %v, %v", exists, err)
	}

	if _, _, err := e.AddConstraint(ctx, "phantom", mustValue(t, `{"a":{"$required":true}}`)); err != nil {
		t.Fatalf("AddConstraint should create the collection on demand: %v", err)
	}
	exists, err = e.CollectionExists(ctx, "phantom")
	if err != nil || !exists {
		t.Fatalf("CollectionExists after AddConstraint = %v, %v", exists, err)
	}
}
