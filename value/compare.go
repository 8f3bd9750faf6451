package value

import (
	"encoding/json"
	"math/big"
)

// Equal reports deep structural equality, with Number comparing by
// numeric value (not textual form) per §4.A.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		ra, aok := asRat(a.num)
		rb, bok := asRat(b.num)
		if !aok || !bok {
			return string(a.num) == string(b.num)
		}
		return ra.Cmp(rb) == 0
	case KindString:
		return a.s == b.s
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if a.obj.Len() != b.obj.Len() {
			return false
		}
		for _, k := range a.obj.Keys() {
			av, _ := a.obj.Get(k)
			bv, ok := b.obj.Get(k)
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func asRat(n json.Number) (*big.Rat, bool) {
	r := new(big.Rat)
	_, ok := r.SetString(string(n))
	return r, ok
}

// kindRank implements the total cross-type order from §4.D:
// null < boolean < number < string < array < object.
func kindRank(k Kind) int {
	switch k {
	case KindNull:
		return 0
	case KindBool:
		return 1
	case KindNumber:
		return 2
	case KindString:
		return 3
	case KindArray:
		return 4
	case KindObject:
		return 5
	default:
		return 6
	}
}

// Compare returns -1, 0, or 1 for a total order over Values, used by the
// sort comparator's tiebreaking (§4.D). It is defined for every pair: it
// never panics and never returns an ambiguous result.
func Compare(a, b Value) int {
	if a.kind != b.kind {
		ra, rb := kindRank(a.kind), kindRank(b.kind)
		switch {
		case ra < rb:
			return -1
		case ra > rb:
			return 1
		default:
			return 0
		}
	}
	switch a.kind {
	case KindNull:
		return 0
	case KindBool:
		if a.b == b.b {
			return 0
		}
		if !a.b {
			return -1
		}
		return 1
	case KindNumber:
		ra, aok := asRat(a.num)
		rb, bok := asRat(b.num)
		if !aok || !bok {
			return compareStrings(string(a.num), string(b.num))
		}
		return ra.Cmp(rb)
	case KindString:
		return compareStrings(a.s, b.s)
	case KindArray:
		n := len(a.arr)
		if len(b.arr) < n {
			n = len(b.arr)
		}
		for i := 0; i < n; i++ {
			if c := Compare(a.arr[i], b.arr[i]); c != 0 {
				return c
			}
		}
		return compareInts(len(a.arr), len(b.arr))
	case KindObject:
		ak, bk := a.obj.SortedKeys(), b.obj.SortedKeys()
		n := len(ak)
		if len(bk) < n {
			n = len(bk)
		}
		for i := 0; i < n; i++ {
			if c := compareStrings(ak[i], bk[i]); c != 0 {
				return c
			}
			av, _ := a.obj.Get(ak[i])
			bv, _ := b.obj.Get(bk[i])
			if c := Compare(av, bv); c != 0 {
				return c
			}
		}
		return compareInts(len(ak), len(bk))
	default:
		return 0
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// OrderedCompare implements §4.A's <,>,<=,>= rule: defined only when both
// sides resolve to Number or both to String; any other pairing yields
// false for every comparison operator. ok reports whether the comparison
// is defined at all; cmp is meaningful only when ok is true.
func OrderedCompare(a, b Value) (cmp int, ok bool) {
	if a.kind != b.kind {
		return 0, false
	}
	switch a.kind {
	case KindNumber:
		ra, aok := asRat(a.num)
		rb, bok := asRat(b.num)
		if !aok || !bok {
			return 0, false
		}
		return ra.Cmp(rb), true
	case KindString:
		return compareStrings(a.s, b.s), true
	default:
		return 0, false
	}
}
