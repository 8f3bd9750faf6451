package query

import (
	"github.com/bedquiltdb/bedquilt/bedqerr"
	"github.com/bedquiltdb/bedquilt/value"
)

// SortKeyCreated and SortKeyUpdated are the synthetic sort keys bound to
// the engine-managed created/updated timestamps rather than a path inside
// the document body (§4.D). They sort lexicographically, since the
// engine stamps these fields in sortable ISO-8601 form (engine/engine.go).
const (
	SortKeyCreated = "$created"
	SortKeyUpdated = "$updated"
)

// SortKey is one compiled key of a multi-key sort spec: a document path
// (or one of the two synthetic keys) plus a direction.
type SortKey struct {
	Path      value.Path
	Synthetic string // "" for an ordinary path, else SortKeyCreated/SortKeyUpdated
	Desc      bool
}

// CompiledSort is an ordered list of SortKeys, applied left to right with
// the cross-type ordering rule from §4.D breaking same-path comparisons.
// Documents equal on every key compare as 0; no further tie-break is
// applied.
type CompiledSort []SortKey

// Doc bundles a document with the engine-managed metadata the synthetic
// sort keys address. The synthetic keys read the created/updated values
// stored alongside the document body; the engine also writes copies of
// them into the body as "created"/"updated" fields, which the synthetic
// keys do not consult.
type Doc struct {
	Body    value.Value
	Created string
	Updated string
}

// CompileSort parses a sort spec: a JSON array of single-key objects
// (§4.D), each mapping one key (a dotted path, or one of the synthetic
// "$created"/"$updated" names) to a direction of 1 (ascending) or -1
// (descending). Array order fixes the multi-key tie-breaking order, since
// a plain JSON object's key order is not something a caller across the
// wire can be relied on to control.
func CompileSort(spec value.Value) (CompiledSort, error) {
	if spec.IsNull() {
		return nil, nil
	}
	if spec.Kind() != value.KindArray {
		return nil, bedqerr.TypeErr("sort spec must be an array of single-key objects, got %s", spec.Kind().TypeName())
	}

	var out CompiledSort
	for _, elem := range spec.Array() {
		if elem.Kind() != value.KindObject || elem.Object().Len() != 1 {
			return nil, bedqerr.CompileErr("each sort spec element must be a single-key object")
		}
		key := elem.Object().Keys()[0]
		dirVal, _ := elem.Object().Get(key)
		if dirVal.Kind() != value.KindNumber {
			return nil, bedqerr.CompileErr("sort direction for %q must be 1 or -1", key)
		}
		n := dirVal.Number()
		desc := n == "-1"
		if !desc && n != "1" {
			return nil, bedqerr.CompileErr("sort direction for %q must be 1 or -1", key)
		}

		sk := SortKey{Desc: desc}
		switch key {
		case SortKeyCreated, SortKeyUpdated:
			sk.Synthetic = key
		default:
			sk.Path = value.ParsePath(key)
		}
		out = append(out, sk)
	}
	return out, nil
}

// Compare implements the multi-key comparator: keys are applied in
// order, and the first non-zero comparison decides.
func (cs CompiledSort) Compare(a, b Doc) int {
	for _, k := range cs {
		c := k.compareOne(a, b)
		if c != 0 {
			if k.Desc {
				return -c
			}
			return c
		}
	}
	return 0
}

// compareOne ranks a field absent from a document body strictly after
// every present value, in ascending order (§4.D: "missing-last"),
// distinct from an explicit present null (which still ranks via the
// ordinary cross-type kind ordering, lowest among present values).
func (k SortKey) compareOne(a, b Doc) int {
	switch k.Synthetic {
	case SortKeyCreated:
		return compareStringsPublic(a.Created, b.Created)
	case SortKeyUpdated:
		return compareStringsPublic(a.Updated, b.Updated)
	default:
		av, aok := value.Resolve(a.Body, k.Path)
		bv, bok := value.Resolve(b.Body, k.Path)
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		default:
			return value.Compare(av, bv)
		}
	}
}

func compareStringsPublic(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
