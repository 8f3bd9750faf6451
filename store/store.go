// Package store defines the persistence substrate interface (§6) and a
// SQLite-backed implementation of it. The abstraction follows the
// teacher's Executor interface pattern (atomicbase api/data/types.go):
// query code is written once against an interface satisfied by both
// *sql.DB and *sql.Tx, so the same code runs standalone or inside a
// transaction.
package store

import "context"

// Executor is satisfied by both *sql.DB and *sql.Tx, letting store code
// run unchanged whether or not it is inside a transaction.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) Row
	QueryContext(ctx context.Context, query string, args ...any) (Rows, error)
}

// Result mirrors database/sql.Result.
type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}

// Row mirrors database/sql.Row's Scan method.
type Row interface {
	Scan(dest ...any) error
}

// Rows mirrors the subset of database/sql.Rows store code needs.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DocRow is one stored document row: its engine-managed identity and
// timestamps alongside the raw JSON document body (§6).
type DocRow struct {
	ID      string
	Doc     string // canonical JSON text, as produced by value.Value.MarshalJSON
	Created string
	Updated string
}

// ConstraintRow is one persisted constraint declaration (§4.F/§6).
type ConstraintRow struct {
	Collection string
	Name       string
	Doc        string // the constraint declaration document, as JSON text
}

// Store is the substrate abstraction every engine operation is built on
// top of (§6): collection lifecycle, document CRUD, constraint
// persistence, and transactions. Id generation is not part of the
// interface; it is the package-level GenerateID. A concrete Store need
// not be SQLite — any backend able to hold a primary-keyed JSON blob per
// document can implement it.
type Store interface {
	// Collection lifecycle.
	CreateCollection(ctx context.Context, ex Executor, name string) error
	DropCollection(ctx context.Context, ex Executor, name string) error
	ListCollections(ctx context.Context, ex Executor) ([]string, error)
	CollectionExists(ctx context.Context, ex Executor, name string) (bool, error)

	// Document operations. Put inserts, failing if id already exists;
	// Upsert inserts or replaces; Get fetches one document by id; Iterate
	// streams every document in the collection to fn until it returns
	// false or an error; Delete removes the document with the given id
	// and reports whether it was present.
	Put(ctx context.Context, ex Executor, collection string, row DocRow) error
	Upsert(ctx context.Context, ex Executor, collection string, row DocRow) error
	Get(ctx context.Context, ex Executor, collection, id string) (DocRow, bool, error)
	Iterate(ctx context.Context, ex Executor, collection string, fn func(DocRow) (bool, error)) error
	Delete(ctx context.Context, ex Executor, collection, id string) (bool, error)

	// Constraint persistence.
	PutConstraint(ctx context.Context, ex Executor, row ConstraintRow) error
	DropConstraint(ctx context.Context, ex Executor, collection, name string) (bool, error)
	ListConstraints(ctx context.Context, ex Executor, collection string) ([]ConstraintRow, error)

	// Transactions.
	Begin(ctx context.Context) (Tx, error)

	// Conn returns the non-transactional top-level Executor, for
	// operations that don't need transactional isolation.
	Conn() Executor
}

// Tx is an in-flight transaction: it implements Executor for use by the
// methods above, plus Commit/Rollback.
type Tx interface {
	Executor
	Commit() error
	Rollback() error
}
