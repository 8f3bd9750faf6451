package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/bedquiltdb/bedquilt/bedqerr"
	_ "github.com/mattn/go-sqlite3"
)

// Catalog table names, following the teacher's internal-table naming
// convention (atomicbase api/data/constants.go InternalTablePrefix,
// ReservedTableDatabases/Templates) but renamed for this domain.
const (
	CollectionsTable = "bedquilt_collections"
	ConstraintsTable = "bedquilt_constraints"
)

// rawExecutor is the subset of database/sql that *sql.DB and *sql.Tx both
// already implement verbatim, with no adapter needed.
type rawExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// sqlExecutor adapts a rawExecutor (either *sql.DB or *sql.Tx) to the
// store.Executor interface.
type sqlExecutor struct{ raw rawExecutor }

func (e sqlExecutor) ExecContext(ctx context.Context, query string, args ...any) (Result, error) {
	return e.raw.ExecContext(ctx, query, args...)
}
func (e sqlExecutor) QueryRowContext(ctx context.Context, query string, args ...any) Row {
	return e.raw.QueryRowContext(ctx, query, args...)
}
func (e sqlExecutor) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	return e.raw.QueryContext(ctx, query, args...)
}

// asRaw unwraps the Executor passed by engine code back to the concrete
// *sql.DB/*sql.Tx, which CreateCollection and DropCollection use to run
// their DDL and catalog statements directly.
func asRaw(ex Executor) (rawExecutor, error) {
	if se, ok := ex.(sqlExecutor); ok {
		return se.raw, nil
	}
	return nil, bedqerr.TypeErr("executor not produced by store.SQLiteStore")
}

// SQLiteStore is the concrete, single-process substrate implementation:
// one SQLite table per collection, matching the teacher's per-database
// SQLite file layout (atomicbase api/data/base.go initPrimaryDB), with a
// catalog table tracking collection names and another tracking declared
// constraints (renamed from the teacher's atomicbase_-prefixed catalog
// tables to this domain's bedquilt_ prefix).
type SQLiteStore struct {
	db *sql.DB
}

// Open creates (if necessary) and opens the SQLite file at path,
// ensuring the catalog tables exist.
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	s := &SQLiteStore{db: db}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Conn exposes the top-level store.Executor over the whole database, for
// operations that don't need a transaction.
func (s *SQLiteStore) Conn() Executor { return sqlExecutor{raw: s.db} }

func (s *SQLiteStore) init(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			name TEXT PRIMARY KEY,
			created TEXT NOT NULL
		)`, CollectionsTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			collection TEXT NOT NULL,
			name TEXT NOT NULL,
			doc TEXT NOT NULL,
			PRIMARY KEY (collection, name)
		)`, ConstraintsTable),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init catalog: %w", err)
		}
	}
	return nil
}

func collectionTableName(name string) string {
	return "doc_" + name
}

// CreateCollection creates the backing table for name if it does not
// already exist, and records it in the catalog. Idempotent (I3-style
// idempotence extended to collection lifecycle, §4.H).
func (s *SQLiteStore) CreateCollection(ctx context.Context, ex Executor, name string) error {
	raw, err := asRaw(ex)
	if err != nil {
		return err
	}
	table := collectionTableName(name)
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		_id TEXT PRIMARY KEY,
		doc TEXT NOT NULL,
		created TEXT NOT NULL,
		updated TEXT NOT NULL
	)`, table)
	if _, err := raw.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	_, err = raw.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (name, created) VALUES (?, datetime('now')) ON CONFLICT(name) DO NOTHING`, CollectionsTable),
		name)
	return err
}

// DropCollection removes a collection's backing table, its catalog
// entry, and any constraints declared against it.
func (s *SQLiteStore) DropCollection(ctx context.Context, ex Executor, name string) error {
	raw, err := asRaw(ex)
	if err != nil {
		return err
	}
	if _, err := raw.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, collectionTableName(name))); err != nil {
		return err
	}
	if _, err := raw.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE name = ?`, CollectionsTable), name); err != nil {
		return err
	}
	_, err = raw.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE collection = ?`, ConstraintsTable), name)
	return err
}

// ListCollections returns every declared collection name.
func (s *SQLiteStore) ListCollections(ctx context.Context, ex Executor) ([]string, error) {
	rows, err := ex.QueryContext(ctx, fmt.Sprintf(`SELECT name FROM %s ORDER BY name`, CollectionsTable))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// CollectionExists reports whether name has been declared.
func (s *SQLiteStore) CollectionExists(ctx context.Context, ex Executor, name string) (bool, error) {
	var n int
	err := ex.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE name = ?`, CollectionsTable), name).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Put inserts row, failing with bedqerr.ErrDuplicateKey if its id is
// already present in the collection.
func (s *SQLiteStore) Put(ctx context.Context, ex Executor, collection string, row DocRow) error {
	_, err := ex.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (_id, doc, created, updated) VALUES (?, ?, ?, ?)`, collectionTableName(collection)),
		row.ID, row.Doc, row.Created, row.Updated)
	if err != nil {
		if isUniqueViolation(err) {
			return bedqerr.DuplicateKeyErr(collection, row.ID)
		}
		return err
	}
	return nil
}

// Upsert inserts row, replacing any existing document with the same id.
func (s *SQLiteStore) Upsert(ctx context.Context, ex Executor, collection string, row DocRow) error {
	_, err := ex.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (_id, doc, created, updated) VALUES (?, ?, ?, ?)
			ON CONFLICT(_id) DO UPDATE SET doc = excluded.doc, updated = excluded.updated`,
			collectionTableName(collection)),
		row.ID, row.Doc, row.Created, row.Updated)
	return err
}

// Get fetches the document with the given id.
func (s *SQLiteStore) Get(ctx context.Context, ex Executor, collection, id string) (DocRow, bool, error) {
	var row DocRow
	row.ID = id
	err := ex.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT doc, created, updated FROM %s WHERE _id = ?`, collectionTableName(collection)), id).
		Scan(&row.Doc, &row.Created, &row.Updated)
	if err == sql.ErrNoRows {
		return DocRow{}, false, nil
	}
	if err != nil {
		return DocRow{}, false, err
	}
	return row, true, nil
}

// Iterate streams every document in collection to fn, in insertion
// order, stopping early if fn returns false or an error.
func (s *SQLiteStore) Iterate(ctx context.Context, ex Executor, collection string, fn func(DocRow) (bool, error)) error {
	// Ordered by SQLite's implicit rowid, which only ever grows on
	// insert and is untouched by an UPDATE (upsert's ON CONFLICT branch),
	// giving a stable insertion-order iteration independent of the
	// opaque, randomly generated _id text (store/id.go).
	rows, err := ex.QueryContext(ctx,
		fmt.Sprintf(`SELECT _id, doc, created, updated FROM %s ORDER BY rowid`, collectionTableName(collection)))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var r DocRow
		if err := rows.Scan(&r.ID, &r.Doc, &r.Created, &r.Updated); err != nil {
			return err
		}
		keepGoing, err := fn(r)
		if err != nil {
			return err
		}
		if !keepGoing {
			break
		}
	}
	return rows.Err()
}

// Delete removes the document with the given id, reporting whether it
// was present.
func (s *SQLiteStore) Delete(ctx context.Context, ex Executor, collection, id string) (bool, error) {
	res, err := ex.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE _id = ?`, collectionTableName(collection)), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PutConstraint persists a constraint declaration, replacing any prior
// declaration under the same name (declare is idempotent, I3).
func (s *SQLiteStore) PutConstraint(ctx context.Context, ex Executor, row ConstraintRow) error {
	_, err := ex.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (collection, name, doc) VALUES (?, ?, ?)
			ON CONFLICT(collection, name) DO UPDATE SET doc = excluded.doc`, ConstraintsTable),
		row.Collection, row.Name, row.Doc)
	return err
}

// DropConstraint removes a declared constraint, reporting whether it was
// present.
func (s *SQLiteStore) DropConstraint(ctx context.Context, ex Executor, collection, name string) (bool, error) {
	res, err := ex.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE collection = ? AND name = ?`, ConstraintsTable), collection, name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListConstraints returns every constraint declared against collection.
func (s *SQLiteStore) ListConstraints(ctx context.Context, ex Executor, collection string) ([]ConstraintRow, error) {
	rows, err := ex.QueryContext(ctx,
		fmt.Sprintf(`SELECT collection, name, doc FROM %s WHERE collection = ? ORDER BY name`, ConstraintsTable), collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ConstraintRow
	for rows.Next() {
		var r ConstraintRow
		if err := rows.Scan(&r.Collection, &r.Name, &r.Doc); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// sqlTx adapts *sql.Tx to store.Tx.
type sqlTx struct {
	sqlExecutor
	tx *sql.Tx
}

func (t sqlTx) Commit() error   { return t.tx.Commit() }
func (t sqlTx) Rollback() error { return t.tx.Rollback() }

// Begin starts a new transaction.
func (s *SQLiteStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return sqlTx{sqlExecutor: sqlExecutor{raw: tx}, tx: tx}, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
