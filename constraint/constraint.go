// Package constraint compiles and enforces per-collection document
// constraints (§4.F): $required, $notNull, and $type. A constraint
// declaration is walked to the same rules as a query document (§4.B): the
// top-level object maps each dotted field path to a single-key object
// naming the operator, e.g. {"name":{"$required":true}}. It reuses the
// query package's leaf-walking idiom (itself generalized from the
// teacher's buildFilterClause operator dispatch) but over a disjoint,
// smaller operator set, since constraints describe invariants a document
// must hold rather than a match against a candidate.
package constraint

import (
	"fmt"

	"github.com/bedquiltdb/bedquilt/bedqerr"
	"github.com/bedquiltdb/bedquilt/value"
)

// Operator names recognized by the constraint compiler. These are
// disjoint from the query package's operator set: a constraint describes
// a property every document in a collection must hold, not a filter
// condition for matching documents.
const (
	OpRequired = "$required"
	OpNotNull  = "$notNull"
	OpType     = "$type"
)

// Constraint is one compiled, declared constraint: an operator applied to
// the field at Path. Name is the canonical "path:operator" identifier
// used for declare/drop/list and for attributing a violation to a
// specific constraint (§4.F).
type Constraint struct {
	Name string
	Path value.Path
	Op   string
	Arg  value.Value // only set for $type; its TypeName argument
}

// CanonicalName derives the stable, deterministic constraint name from
// its path and operator, independent of how many constraints exist or
// the order they were declared in (§4.F).
func CanonicalName(path value.Path, op string) string {
	return fmt.Sprintf("%s:%s", path.String(), op)
}

// Compile parses a single constraint declaration document of the shape
// {"a.b": {"$required": true}} or {"a.b": {"$type": "string"}} — a
// single dotted field path mapped to a single-key object naming the
// operator, matching how declare_constraint is invoked one constraint at
// a time (§4.F) and how the query compiler walks a field to an operator
// leaf (query.Compile).
func Compile(doc value.Value) (Constraint, error) {
	if doc.Kind() != value.KindObject || doc.Object().Len() != 1 {
		return Constraint{}, bedqerr.CompileErr("constraint document must have exactly one field path key")
	}

	pathKey := doc.Object().Keys()[0]
	if pathKey == "" {
		return Constraint{}, bedqerr.CompileErr("constraint document requires a non-empty field path")
	}
	leaf, _ := doc.Object().Get(pathKey)
	if leaf.Kind() != value.KindObject || leaf.Object().Len() != 1 {
		return Constraint{}, bedqerr.CompileErr("constraint at %q must name exactly one of %s, %s, %s", pathKey, OpRequired, OpNotNull, OpType)
	}

	op := leaf.Object().Keys()[0]
	arg, _ := leaf.Object().Get(op)
	path := value.ParsePath(pathKey)

	switch op {
	case OpRequired, OpNotNull:
		if !arg.Truthy() {
			return Constraint{}, bedqerr.CompileErr("%s must be declared with a truthy value", op)
		}
	case OpType:
		if arg.Kind() != value.KindString || !value.ValidTypeName(arg.String()) {
			return Constraint{}, bedqerr.CompileErr("%s requires one of the six type names", op)
		}
	default:
		return Constraint{}, bedqerr.CompileErr("unknown constraint operator %s at %q", op, pathKey)
	}

	return Constraint{
		Name: CanonicalName(path, op),
		Path: path,
		Op:   op,
		Arg:  arg,
	}, nil
}

// Check evaluates c against doc, returning nil if doc satisfies the
// constraint or a violation error naming c.Name otherwise (§4.F).
func (c Constraint) Check(doc value.Value) error {
	if c.satisfied(doc) {
		return nil
	}
	return bedqerr.ConstraintViolationErr(c.Name)
}

func (c Constraint) satisfied(doc value.Value) bool {
	v, present := value.Resolve(doc, c.Path)
	switch c.Op {
	case OpRequired:
		return present
	case OpNotNull:
		return present && !v.IsNull()
	case OpType:
		// An absent path satisfies $type: it only constrains the value's
		// type when the field is present at all (§4.F).
		if !present {
			return true
		}
		return v.Kind().TypeName() == c.Arg.String()
	default:
		return false
	}
}
