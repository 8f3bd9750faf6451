package query

import "github.com/bedquiltdb/bedquilt/value"

// Match reports whether doc satisfies q: its structural skeleton (if
// any), every compiled clause, and every $and/$or combinator (§4.B/§4.C).
func (q CompiledQuery) Match(doc value.Value) bool {
	if doc.Kind() != value.KindObject {
		return false
	}
	if q.Skeleton != nil && !containsSkeleton(doc, q.Skeleton) {
		return false
	}
	for _, c := range q.Clauses {
		if !c.Match(doc) {
			return false
		}
	}
	for _, b := range q.BoolOps {
		if !b.Match(doc) {
			return false
		}
	}
	return true
}

func (b boolOp) Match(doc value.Value) bool {
	switch b.op {
	case OpAnd:
		for _, sub := range b.subs {
			if !sub.Match(doc) {
				return false
			}
		}
		return true
	case OpOr:
		for _, sub := range b.subs {
			if sub.Match(doc) {
				return true
			}
		}
		return len(b.subs) == 0
	default:
		return false
	}
}

// containsSkeleton reports whether doc structurally contains skeleton:
// every key in skeleton must be present in doc, with nested-object
// skeleton values recursed into (partial containment) and every other
// value compared by Equal (exact match), matching the teacher's
// containment style for its own JSON-equality filter clauses.
func containsSkeleton(doc value.Value, skeleton *value.Object) bool {
	if doc.Kind() != value.KindObject {
		return false
	}
	for _, key := range skeleton.Keys() {
		skelVal, _ := skeleton.Get(key)
		docVal, ok := doc.Object().Get(key)
		if !ok {
			return false
		}
		if skelVal.Kind() == value.KindObject && skelVal.Object().Len() > 0 {
			if !containsSkeleton(docVal, skelVal.Object()) {
				return false
			}
			continue
		}
		if !value.Equal(skelVal, docVal) {
			return false
		}
	}
	return true
}

// Match evaluates a single compiled clause against doc.
func (c Clause) Match(doc value.Value) bool {
	v, present := value.Resolve(doc, c.Path)

	switch c.Op {
	case OpEq:
		return present && value.Equal(v, c.Arg)
	case OpNotEq:
		return !present || !value.Equal(v, c.Arg)
	case OpGt:
		cmp, ok := value.OrderedCompare(v, c.Arg)
		return present && ok && cmp > 0
	case OpGte:
		cmp, ok := value.OrderedCompare(v, c.Arg)
		return present && ok && cmp >= 0
	case OpLt:
		cmp, ok := value.OrderedCompare(v, c.Arg)
		return present && ok && cmp < 0
	case OpLte:
		cmp, ok := value.OrderedCompare(v, c.Arg)
		return present && ok && cmp <= 0
	case OpIn:
		if !present {
			return false
		}
		for _, el := range c.Arg.Array() {
			if value.Equal(v, el) {
				return true
			}
		}
		return false
	case OpNotIn:
		if !present {
			return true
		}
		for _, el := range c.Arg.Array() {
			if value.Equal(v, el) {
				return false
			}
		}
		return true
	case OpExists:
		return present == c.Arg.Bool()
	case OpType:
		want := c.Arg.String()
		if want == "null" {
			return present && v.IsNull()
		}
		return present && v.Kind().TypeName() == want
	case OpLike:
		if !present || v.Kind() != value.KindString {
			return false
		}
		re, err := compileLike(c.Arg.String())
		if err != nil {
			return false
		}
		return re.MatchString(v.String())
	case OpRegex:
		if !present || v.Kind() != value.KindString {
			return false
		}
		re, err := compileRegex(c.Arg.String())
		if err != nil {
			return false
		}
		return re.MatchString(v.String())
	default:
		return false
	}
}
