// Package bedqerr defines the sentinel errors shared by every bedquilt
// core package, following the same sentinel-plus-constructor idiom the
// rest of the stack uses for API errors.
package bedqerr

import (
	"errors"
	"fmt"
)

// Error codes for API/SDK consumption. Stable, suitable for programmatic
// error handling by callers of the HTTP wire binding.
const (
	CodeCompileError        = "COMPILE_ERROR"
	CodeTypeError           = "TYPE_ERROR"
	CodeDuplicateKey        = "DUPLICATE_KEY"
	CodeConstraintViolation = "CONSTRAINT_VIOLATION"
	CodeInvalidIdentifier   = "INVALID_IDENTIFIER"
	CodeSubstrateError      = "SUBSTRATE_ERROR"
)

// Sentinel errors. Wrap these with fmt.Errorf("%w: ...") for context;
// callers match with errors.Is.
var (
	// ErrCompile covers unknown operators, ill-formed operator arguments,
	// bad sort entries, and non-string collection names.
	ErrCompile = errors.New("compile error")

	// ErrType covers non-string _id, non-object document, non-object query.
	ErrType = errors.New("type error")

	// ErrDuplicateKey is raised by insert when _id already exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrConstraintViolation is raised when a write violates an active
	// constraint, or when add_constraint is attempted against data that
	// already violates it.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrInvalidIdentifier covers malformed collection names.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrMissingWhereClause mirrors the teacher's own guard against
	// unbounded destructive writes; bedquilt's remove/remove_one never
	// need it (empty query matches everything, which is legal here), but
	// the sentinel is kept for callers that want an opt-in guard.
	ErrMissingWhereClause = errors.New("query required")
)

// CompileErr wraps a compile-time failure with context.
func CompileErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCompile, fmt.Sprintf(format, args...))
}

// TypeErr wraps a type-mismatch failure with context.
func TypeErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrType, fmt.Sprintf(format, args...))
}

// DuplicateKeyErr reports an _id collision within a collection.
func DuplicateKeyErr(collection, id string) error {
	return fmt.Errorf("%w: _id %q already exists in collection %q", ErrDuplicateKey, id, collection)
}

// ConstraintViolationErr reports which constraint rejected a write.
func ConstraintViolationErr(constraintName string) error {
	return fmt.Errorf("%w: %s", ErrConstraintViolation, constraintName)
}

// InvalidIdentifierErr reports a malformed collection name.
func InvalidIdentifierErr(name string) error {
	return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
}
