// Package value defines the semi-structured value universe that Tendril
// patterns match against: null, primitives, ordered sequences, unordered
// mappings, and sets.
package value

import (
	"math"
	"sort"
)

// Kind identifies the tag of a Value's sum type.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindString
	KindBool
	KindArray
	KindObject
	KindSet
)

// String returns a human-readable name for the kind, used in diagnostics.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "boolean"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindSet:
		return "set"
	default:
		return "unknown"
	}
}

// Value is a tagged union over null/number/string/bool/array/object/set.
// Only one of the typed fields is meaningful for a given Kind.
type Value struct {
	kind   Kind
	num    float64
	str    string
	boo    bool
	arr    []Value
	obj    *Object
	set    []Value
}

// Null is the singular null value.
var Null = Value{kind: KindNull}

// Number constructs a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// String constructs a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Bool constructs a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, boo: b} }

// Array constructs an ordered-sequence value. The slice is retained, not copied.
func Array(items []Value) Value { return Value{kind: KindArray, arr: items} }

// Obj constructs a mapping value from an already-built Object.
func Obj(o *Object) Value { return Value{kind: KindObject, obj: o} }

// SetOf constructs an unordered-set value from its members.
func SetOf(members []Value) Value { return Value{kind: KindSet, set: members} }

// Kind returns the value's tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsNumber returns the numeric payload; only meaningful when Kind()==KindNumber.
func (v Value) AsNumber() float64 { return v.num }

// AsString returns the string payload; only meaningful when Kind()==KindString.
func (v Value) AsString() string { return v.str }

// AsBool returns the boolean payload; only meaningful when Kind()==KindBool.
func (v Value) AsBool() bool { return v.boo }

// AsArray returns the backing slice; only meaningful when Kind()==KindArray.
func (v Value) AsArray() []Value { return v.arr }

// AsObject returns the backing Object; only meaningful when Kind()==KindObject.
func (v Value) AsObject() *Object { return v.obj }

// AsSet returns the backing member slice; only meaningful when Kind()==KindSet.
func (v Value) AsSet() []Value { return v.set }

// Object is an unordered string-keyed mapping that remembers insertion
// order so iteration is deterministic and reproducible.
type Object struct {
	keys   []string
	values map[string]Value
}

// NewObject builds an Object from an ordered list of keys and their values.
// keys must not contain duplicates.
func NewObject(keys []string, values map[string]Value) *Object {
	return &Object{keys: append([]string(nil), keys...), values: values}
}

// EmptyObject returns a fresh, empty Object.
func EmptyObject() *Object {
	return &Object{values: map[string]Value{}}
}

// Keys returns the keys in insertion order. The returned slice must not be mutated.
func (o *Object) Keys() []string { return o.keys }

// Len returns the number of keys.
func (o *Object) Len() int { return len(o.keys) }

// Get looks up a key, reporting whether it is present.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

// With returns a shallow clone of o with key set to v (insertion order
// preserved; a new key is appended at the end). The receiver is untouched.
func (o *Object) With(key string, v Value) *Object {
	next := &Object{
		keys:   append([]string(nil), o.keys...),
		values: make(map[string]Value, len(o.values)+1),
	}
	for k, val := range o.values {
		next.values[k] = val
	}
	if _, existed := o.values[key]; !existed {
		next.keys = append(next.keys, key)
	}
	next.values[key] = v
	return next
}

// WithKeys returns a shallow clone of o containing only the given keys,
// preserving their relative insertion order. Used to build residual
// submappings.
func (o *Object) WithKeys(keys map[string]bool) *Object {
	next := &Object{values: make(map[string]Value, len(keys))}
	for _, k := range o.keys {
		if keys[k] {
			next.keys = append(next.keys, k)
			next.values[k] = o.values[k]
		}
	}
	return next
}

// Equal reports structural equality between two values using SameValueZero
// numeric comparison: +0 == -0, and NaN == NaN.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindNumber:
		return sameValueZero(a.num, b.num)
	case KindString:
		return a.str == b.str
	case KindBool:
		return a.boo == b.boo
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
		for _, k := range a.obj.keys {
			av := a.obj.values[k]
			bv, ok := b.obj.Get(k)
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case KindSet:
		return setEqual(a.set, b.set)
	}
	return false
}

func sameValueZero(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}

// setEqual compares two sets for equality as unordered multisets of
// structurally-distinct values.
func setEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, av := range a {
		found := false
		for j, bv := range b {
			if used[j] {
				continue
			}
			if Equal(av, bv) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// SortedKeys returns a sorted copy of an Object's keys — used only by
// diagnostics/formatting, never by the match engine.
func SortedKeys(o *Object) []string {
	out := append([]string(nil), o.keys...)
	sort.Strings(out)
	return out
}
