package query

import "github.com/bedquiltdb/bedquilt/value"

// Operator names recognized by the query compiler (§4.B).
const (
	OpEq     = "$eq"
	OpNotEq  = "$noteq"
	OpGt     = "$gt"
	OpGte    = "$gte"
	OpLt     = "$lt"
	OpLte    = "$lte"
	OpIn     = "$in"
	OpNotIn  = "$notin"
	OpExists = "$exists"
	OpType   = "$type"
	OpLike   = "$like"
	OpRegex  = "$regex"

	// OpAnd/OpOr are the expansion beyond spec.md's core operator set
	// (§4.B [EXPANSION]): a top-level boolean combinator over an array of
	// sub-query documents.
	OpAnd = "$and"
	OpOr  = "$or"
)

// IsOperatorKey reports whether k is "$"-prefixed. It does not check that
// the operator is a recognized one; compileOperator does that.
func IsOperatorKey(k string) bool {
	return len(k) > 0 && k[0] == '$'
}

// Clause is one compiled operator predicate: an operator applied to the
// value found at Path within a candidate document.
type Clause struct {
	Path value.Path
	Op   string
	Arg  value.Value
}

// Predicate is anything that can be evaluated against a candidate document.
// CompiledQuery, Clause, and the $and/$or combinators all implement it.
type Predicate interface {
	Match(doc value.Value) bool
}
