// Package value defines the dynamic tree every configuration source produces.
//
// A Value is a closed tagged union over seven variants: None, Bool, Int64,
// Float64, String, Array and Map. Values are immutable once built; the
// constructors copy the collections they receive and the accessors hand out
// copies, so a Value can be shared freely between accumulators.
package value

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the active variant of a Value.
type Kind uint8

const (
	KindNone Kind = iota
	KindBool
	KindInt64
	KindFloat64
	KindString
	KindArray
	KindMap
)

var kindNames = [...]string{
	KindNone:    "none",
	KindBool:    "bool",
	KindInt64:   "int64",
	KindFloat64: "float64",
	KindString:  "string",
	KindArray:   "array",
	KindMap:     "map",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// IsScalar reports whether the kind carries a single primitive payload.
func (k Kind) IsScalar() bool {
	switch k {
	case KindBool, KindInt64, KindFloat64, KindString:
		return true
	default:
		return false
	}
}

// Value is a single datum of the configuration tree. The zero Value is None.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []Value
	m    map[string]Value
}

// None returns the absent marker.
func None() Value { return Value{} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Int64(i int64) Value { return Value{kind: KindInt64, i: i} }

func Float64(f float64) Value { return Value{kind: KindFloat64, f: f} }

func String(s string) Value { return Value{kind: KindString, s: s} }

// Array builds a sequence value. The items are copied.
func Array(items ...Value) Value {
	arr := make([]Value, len(items))
	copy(arr, items)
	return Value{kind: KindArray, arr: arr}
}

// Map builds a mapping value. The entries are copied.
func Map(entries map[string]Value) Value {
	m := make(map[string]Value, len(entries))
	for k, v := range entries {
		m[k] = v
	}
	return Value{kind: KindMap, m: m}
}

// Kind returns the active variant.
func (v Value) Kind() Kind { return v.kind }

// IsNone reports whether v is the absent marker.
func (v Value) IsNone() bool { return v.kind == KindNone }

func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, mismatch(KindBool, v)
	}
	return v.b, nil
}

func (v Value) AsInt64() (int64, error) {
	if v.kind != KindInt64 {
		return 0, mismatch(KindInt64, v)
	}
	return v.i, nil
}

func (v Value) AsFloat64() (float64, error) {
	if v.kind != KindFloat64 {
		return 0, mismatch(KindFloat64, v)
	}
	return v.f, nil
}

func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", mismatch(KindString, v)
	}
	return v.s, nil
}

// AsArray returns a copy of the sequence items.
func (v Value) AsArray() ([]Value, error) {
	if v.kind != KindArray {
		return nil, mismatch(KindArray, v)
	}
	out := make([]Value, len(v.arr))
	copy(out, v.arr)
	return out, nil
}

// AsMap returns a copy of the mapping entries.
func (v Value) AsMap() (map[string]Value, error) {
	if v.kind != KindMap {
		return nil, mismatch(KindMap, v)
	}
	out := make(map[string]Value, len(v.m))
	for k, e := range v.m {
		out[k] = e
	}
	return out, nil
}

// AsVariant interprets v as a tagged-union selection. A String names a
// variant without payload; a Map with exactly one entry names a variant and
// carries its payload. Every other shape yields ErrNotVariant.
func (v Value) AsVariant() (name string, payload Value, hasPayload bool, err error) {
	switch v.kind {
	case KindString:
		return v.s, None(), false, nil
	case KindMap:
		if len(v.m) != 1 {
			return "", None(), false, ErrNotVariant
		}
		for k, p := range v.m {
			return k, p, true, nil
		}
	}
	return "", None(), false, ErrNotVariant
}

// Len returns the number of items of an Array or entries of a Map, 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindMap:
		return len(v.m)
	default:
		return 0
	}
}

// Get returns the entry stored under key when v is a Map.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap {
		return None(), false
	}
	e, ok := v.m[key]
	return e, ok
}

// Index returns the item at position i when v is an Array.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return None(), false
	}
	return v.arr[i], true
}

// Keys returns the keys of a Map in lexical order.
func (v Value) Keys() []string {
	if v.kind != KindMap {
		return nil
	}
	keys := make([]string, 0, len(v.m))
	for k := range v.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Interface converts v into the generic host tree: bool, int64, float64,
// string, []any, map[string]any or nil.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt64:
		return v.i
	case KindFloat64:
		return v.f
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, e := range v.m {
			out[k] = e.Interface()
		}
		return out
	default:
		return nil
	}
}

// Equal reports deep equality. NaN floats compare equal to each other.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNone:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt64:
		return v.i == o.i
	case KindFloat64:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindString:
		return v.s == o.s
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, e := range v.m {
			other, ok := o.m[k]
			if !ok || !e.Equal(other) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders v for diagnostics.
func (v Value) String() string {
	var sb strings.Builder
	v.write(&sb)
	return sb.String()
}

func (v Value) write(sb *strings.Builder) {
	switch v.kind {
	case KindNone:
		sb.WriteString("<NULL>")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindInt64:
		sb.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat64:
		sb.WriteString(formatFloat(v.f))
	case KindString:
		sb.WriteString(strconv.Quote(v.s))
	case KindArray:
		sb.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				sb.WriteString(", ")
			}
			item.write(sb)
		}
		sb.WriteByte(']')
	case KindMap:
		sb.WriteByte('{')
		for i, k := range v.Keys() {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString(" => ")
			v.m[k].write(sb)
		}
		sb.WriteByte('}')
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return s
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
