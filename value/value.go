// Package value implements the canonical tagged JSON value used throughout
// bedquilt: the query compiler, predicate evaluator, sort comparator, and
// constraint engine all operate on value.Value rather than raw
// encoding/json output, so that object key order and numeric text are
// preserved end to end.
package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// TypeName returns the $type name for a Kind. These six strings are the
// only valid observable type-tag names ($type operator, constraint $type).
func (k Kind) TypeName() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// ValidTypeName reports whether s is one of the six $type tag names.
func ValidTypeName(s string) bool {
	switch s {
	case "null", "boolean", "number", "string", "array", "object":
		return true
	default:
		return false
	}
}

// Value is the canonical tagged JSON value. The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	num  json.Number
	s    string
	arr  []Value
	obj  *Object
}

// Null is the canonical null value.
var Null = Value{kind: KindNull}

// Bool constructs a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number constructs a number value from its literal decimal text.
func Number(n json.Number) Value { return Value{kind: KindNumber, num: n} }

// NumberFromInt constructs a number value from an int.
func NumberFromInt(n int) Value { return Value{kind: KindNumber, num: json.Number(fmt.Sprintf("%d", n))} }

// String constructs a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array constructs an array value.
func Array(items []Value) Value { return Value{kind: KindArray, arr: items} }

// ObjectValue constructs an object value from an already-built Object.
func ObjectValue(o *Object) Value { return Value{kind: KindObject, obj: o} }

// Kind returns the tagged kind of v.
func (v Value) Kind() Kind { return v.kind }

// Bool returns the boolean payload; only meaningful when Kind() == KindBool.
func (v Value) Bool() bool { return v.b }

// Number returns the numeric literal text; only meaningful when Kind() == KindNumber.
func (v Value) Number() json.Number { return v.num }

// String returns the string payload; only meaningful when Kind() == KindString.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return string(v.num)
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNull:
		return "null"
	default:
		return ""
	}
}

// Array returns the element slice; only meaningful when Kind() == KindArray.
func (v Value) Array() []Value { return v.arr }

// Object returns the ordered object; only meaningful when Kind() == KindObject.
func (v Value) Object() *Object { return v.obj }

// IsNull reports whether v is the Null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Truthy reports whether v counts as "truthy" for declarations such as the
// constraint $notNull operator, which the original accepts any non-falsy
// argument for (e.g. the number 1), not just the literal boolean true.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindNumber:
		f, err := v.num.Float64()
		return err == nil && f != 0
	case KindString:
		return v.s != ""
	case KindArray:
		return len(v.arr) > 0
	case KindObject:
		return v.obj.Len() > 0
	default:
		return false
	}
}

// Object is an ordered map from string key to Value, preserving insertion
// order the way a JSON object's source order is preserved.
type Object struct {
	keys  []string
	index map[string]int
	vals  []Value
}

// NewObject returns an empty ordered object.
func NewObject() *Object {
	return &Object{index: make(map[string]int)}
}

// Set inserts or updates a key, preserving first-insertion order.
func (o *Object) Set(key string, v Value) {
	if i, ok := o.index[key]; ok {
		o.vals[i] = v
		return
	}
	o.index[key] = len(o.keys)
	o.keys = append(o.keys, key)
	o.vals = append(o.vals, v)
}

// Get returns the value for key and whether it was present.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Null, false
	}
	i, ok := o.index[key]
	if !ok {
		return Null, false
	}
	return o.vals[i], true
}

// Keys returns the object's keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return o.keys
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// SortedKeys returns a copy of Keys sorted lexicographically, used when
// objects must compare as a tiebreaker (§4.D).
func (o *Object) SortedKeys() []string {
	ks := append([]string(nil), o.Keys()...)
	sort.Strings(ks)
	return ks
}

// FromJSON decodes raw JSON bytes into a Value, preserving object key
// order and numeric literal text (via json.Decoder.UseNumber).
func FromJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Null, err
	}
	return fromAny(raw), nil
}

// FromAny converts a value produced by encoding/json (with UseNumber) —
// typically map[string]any / []any / json.Number / string / bool / nil —
// into a Value. Plain Go types (int, float64, etc.) are also accepted for
// programmatic construction in tests and internal callers.
func FromAny(a any) Value { return fromAny(a) }

func fromAny(a any) Value {
	switch t := a.(type) {
	case nil:
		return Null
	case bool:
		return Bool(t)
	case json.Number:
		return Number(t)
	case float64:
		return Number(json.Number(trimFloat(t)))
	case int:
		return NumberFromInt(t)
	case int64:
		return Value{kind: KindNumber, num: json.Number(fmt.Sprintf("%d", t))}
	case string:
		return String(t)
	case []any:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = fromAny(e)
		}
		return Array(items)
	case []Value:
		return Array(t)
	case map[string]any:
		obj := NewObject()
		for _, k := range orderedKeysOf(t) {
			obj.Set(k, fromAny(t[k]))
		}
		return ObjectValue(obj)
	case *Object:
		return ObjectValue(t)
	case Value:
		return t
	default:
		// Fall back to a round-trip through encoding/json for any other
		// marshalable Go type (structs, etc.).
		b, err := json.Marshal(a)
		if err != nil {
			return Null
		}
		v, err := FromJSON(b)
		if err != nil {
			return Null
		}
		return v
	}
}

// orderedKeysOf has no real order for a plain map[string]any (Go maps are
// unordered); callers that need document key order preserved end to end
// should build Values via FromJSON, not via a pre-built map[string]any.
// This sorts for determinism only.
func orderedKeysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func trimFloat(f float64) string {
	return big.NewFloat(f).Text('g', -1)
}

// ToAny converts a Value back into the plain Go representation
// (map[string]any / []any / json.Number / ...) accepted by encoding/json.
func (v Value) ToAny() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.ToAny()
		}
		return out
	case KindObject:
		out := make(map[string]any, v.obj.Len())
		for _, k := range v.obj.Keys() {
			val, _ := v.obj.Get(k)
			out[k] = val.ToAny()
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler, preserving object key order.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		if v.b {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case KindNumber:
		if v.num == "" {
			return []byte("0"), nil
		}
		return []byte(v.num), nil
	case KindString:
		return json.Marshal(v.s)
	case KindArray:
		buf := []byte{'['}
		for i, e := range v.arr {
			if i > 0 {
				buf = append(buf, ',')
			}
			b, err := e.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf = append(buf, b...)
		}
		buf = append(buf, ']')
		return buf, nil
	case KindObject:
		buf := []byte{'{'}
		for i, k := range v.obj.Keys() {
			if i > 0 {
				buf = append(buf, ',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf = append(buf, kb...)
			buf = append(buf, ':')
			val, _ := v.obj.Get(k)
			vb, err := val.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf = append(buf, vb...)
		}
		buf = append(buf, '}')
		return buf, nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler via FromJSON so that object key
// order and numeric literal text survive round-tripping through storage.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := FromJSON(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

