// Package query implements the bedquilt query language: compiling a JSON
// query document into a predicate tree (§4.B), evaluating it against a
// candidate document (§4.C), and compiling/applying sort specifications
// (§4.D). The operator switch here is a direct generalization of the
// teacher's buildFilterClause operator dispatch (atomicbase
// api/data/query_json.go), reworked to evaluate in-process over
// value.Value instead of emitting SQL fragments.
package query

import (
	"github.com/bedquiltdb/bedquilt/bedqerr"
	"github.com/bedquiltdb/bedquilt/value"
)

// CompiledQuery is the compiled form of a query document: a structural
// match residual plus an ordered list of operator clauses, per §4.B.
// BoolOps holds any top-level $and/$or combinators (§4.B [EXPANSION]).
type CompiledQuery struct {
	Skeleton *value.Object
	Clauses  []Clause
	BoolOps  []boolOp
}

type boolOp struct {
	op   string // OpAnd or OpOr
	subs []CompiledQuery
}

// Compile parses a query document into a CompiledQuery. An unknown
// "$"-operator, or an ill-formed operator argument, is a compile error.
func Compile(doc value.Value) (CompiledQuery, error) {
	if doc.IsNull() {
		return CompiledQuery{}, nil
	}
	if doc.Kind() != value.KindObject {
		return CompiledQuery{}, bedqerr.TypeErr("query document must be an object, got %s", doc.Kind().TypeName())
	}

	cq := CompiledQuery{}
	skeleton := value.NewObject()

	for _, key := range doc.Object().Keys() {
		v, _ := doc.Object().Get(key)

		if key == OpAnd || key == OpOr {
			sub, err := compileBoolOp(key, v)
			if err != nil {
				return CompiledQuery{}, err
			}
			cq.BoolOps = append(cq.BoolOps, sub)
			continue
		}

		if err := compileField(&cq, skeleton, value.Path{key}, key, v); err != nil {
			return CompiledQuery{}, err
		}
	}

	if skeleton.Len() > 0 {
		cq.Skeleton = skeleton
	}
	return cq, nil
}

// compileField handles one key/value pair found while walking the query
// document, deciding whether it is an operator leaf, a nested document to
// recurse into (which may itself mix plain fields with operator-valued
// ones at any depth), or a scalar/array structural match leaf.
func compileField(cq *CompiledQuery, skeleton *value.Object, path value.Path, key string, v value.Value) error {
	if v.Kind() == value.KindObject && v.Object().Len() > 0 {
		if allOperatorKeys(v.Object()) {
			for _, opKey := range v.Object().Keys() {
				argVal, _ := v.Object().Get(opKey)
				clause, err := compileOperator(path, opKey, argVal)
				if err != nil {
					return err
				}
				cq.Clauses = append(cq.Clauses, clause)
			}
			return nil
		}

		// A nested document: walk its own fields, which may themselves
		// be operator leaves, further nested documents, or structural
		// matches, each at its own path.
		nestedSkeleton := value.NewObject()
		for _, k := range v.Object().Keys() {
			inner, _ := v.Object().Get(k)
			if IsOperatorKey(k) {
				// An operator key mixed alongside plain fields in the
				// same object constrains the parent path, not a child.
				clause, err := compileOperator(path, k, inner)
				if err != nil {
					return err
				}
				cq.Clauses = append(cq.Clauses, clause)
				continue
			}
			if err := compileField(cq, nestedSkeleton, append(clonePath(path), k), k, inner); err != nil {
				return err
			}
		}
		if nestedSkeleton.Len() > 0 {
			setAtPath(skeleton, path, value.ObjectValue(nestedSkeleton))
		}
		return nil
	}

	// Scalar, array, null, or empty-object leaf: exact structural match.
	setAtPath(skeleton, path, v)
	return nil
}

// setAtPath writes v into skeleton under the last segment of path; no
// intermediate objects are created. Only the leaf segment matters here
// because compileField pairs each nesting level with its own
// nestedSkeleton, so skeleton is already the object for path's parent; at
// the top level path has exactly one segment.
func setAtPath(skeleton *value.Object, path value.Path, v value.Value) {
	if len(path) == 0 {
		return
	}
	skeleton.Set(path[len(path)-1], v)
}

func allOperatorKeys(o *value.Object) bool {
	for _, k := range o.Keys() {
		if !IsOperatorKey(k) {
			return false
		}
	}
	return true
}

func compileBoolOp(op string, v value.Value) (boolOp, error) {
	if v.Kind() != value.KindArray {
		return boolOp{}, bedqerr.CompileErr("%s requires an array of query documents", op)
	}
	result := boolOp{op: op}
	for _, sub := range v.Array() {
		compiled, err := Compile(sub)
		if err != nil {
			return boolOp{}, err
		}
		result.subs = append(result.subs, compiled)
	}
	return result, nil
}

// compileOperator validates and compiles a single "$operator": argument
// pair found at path.
func compileOperator(path value.Path, op string, arg value.Value) (Clause, error) {
	switch op {
	case OpEq, OpNotEq, OpGt, OpGte, OpLt, OpLte:
		return Clause{Path: clonePath(path), Op: op, Arg: arg}, nil
	case OpIn, OpNotIn:
		if arg.Kind() != value.KindArray {
			return Clause{}, bedqerr.CompileErr("%s requires an array argument at %s", op, path.String())
		}
		return Clause{Path: clonePath(path), Op: op, Arg: arg}, nil
	case OpExists:
		if arg.Kind() != value.KindBool {
			return Clause{}, bedqerr.CompileErr("%s requires a boolean argument at %s", op, path.String())
		}
		return Clause{Path: clonePath(path), Op: op, Arg: arg}, nil
	case OpType:
		if arg.Kind() != value.KindString || !value.ValidTypeName(arg.String()) {
			return Clause{}, bedqerr.CompileErr("%s requires one of the six type names at %s", op, path.String())
		}
		return Clause{Path: clonePath(path), Op: op, Arg: arg}, nil
	case OpLike:
		if arg.Kind() != value.KindString {
			return Clause{}, bedqerr.CompileErr("%s requires a string pattern at %s", op, path.String())
		}
		if _, err := compileLike(arg.String()); err != nil {
			return Clause{}, bedqerr.CompileErr("%s invalid pattern at %s: %v", op, path.String(), err)
		}
		return Clause{Path: clonePath(path), Op: op, Arg: arg}, nil
	case OpRegex:
		if arg.Kind() != value.KindString {
			return Clause{}, bedqerr.CompileErr("%s requires a string pattern at %s", op, path.String())
		}
		if _, err := compileRegex(arg.String()); err != nil {
			return Clause{}, bedqerr.CompileErr("%s invalid pattern at %s: %v", op, path.String(), err)
		}
		return Clause{Path: clonePath(path), Op: op, Arg: arg}, nil
	default:
		return Clause{}, bedqerr.CompileErr("unknown operator %s at %s", op, path.String())
	}
}

func clonePath(p value.Path) value.Path {
	out := make(value.Path, len(p))
	copy(out, p)
	return out
}
