package value

import "strings"

// Path is an ordered sequence of object keys (a dotted path). Resolving a
// path against a Value walks objects key by key; arrays are never indexed
// by a path segment in this engine (§3).
type Path []string

// ParsePath splits a dotted path string ("a.b.c") into its segments.
func ParsePath(dotted string) Path {
	if dotted == "" {
		return nil
	}
	return Path(strings.Split(dotted, "."))
}

// String renders the path back to dotted form.
func (p Path) String() string { return strings.Join([]string(p), ".") }

// Resolve walks v by p, returning the value found and true, or the Null
// value and false if any intermediate segment is missing or not an
// object ("absent", distinct from a present Null per §3).
func Resolve(v Value, p Path) (Value, bool) {
	cur := v
	for _, seg := range p {
		if cur.Kind() != KindObject {
			return Null, false
		}
		next, ok := cur.Object().Get(seg)
		if !ok {
			return Null, false
		}
		cur = next
	}
	return cur, true
}

// ResolveDotted is a convenience wrapper around ParsePath + Resolve.
func ResolveDotted(v Value, dotted string) (Value, bool) {
	return Resolve(v, ParsePath(dotted))
}
