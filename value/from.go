package value

import (
	"encoding"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"
)

var (
	valueType = reflect.TypeOf(Value{})
	timeType  = reflect.TypeOf(time.Time{})
)

// From converts a host value into a Value tree. Collections are converted
// recursively; nil and nil pointers become None. Structs that render as text
// (time.Time, TOML local dates) become String.
func From(in any) (Value, error) {
	switch v := in.(type) {
	case nil:
		return None(), nil
	case Value:
		return v, nil
	case bool:
		return Bool(v), nil
	case int:
		return Int64(int64(v)), nil
	case int64:
		return Int64(v), nil
	case float64:
		return Float64(v), nil
	case string:
		return String(v), nil
	case map[string]any:
		return fromStringMap(v, "")
	case []any:
		return fromAnySlice(v, "")
	}
	return fromReflect(reflect.ValueOf(in), "")
}

// MustFrom is like From but panics when the input cannot be converted. It
// is meant for literals in code and tests.
func MustFrom(in any) Value {
	v, err := From(in)
	if err != nil {
		panic(err)
	}
	return v
}

func fromStringMap(in map[string]any, path string) (Value, error) {
	m := make(map[string]Value, len(in))
	for k, item := range in {
		conv, err := fromAny(item, join(path, k))
		if err != nil {
			return None(), err
		}
		m[k] = conv
	}
	return Value{kind: KindMap, m: m}, nil
}

func fromAnySlice(in []any, path string) (Value, error) {
	arr := make([]Value, len(in))
	for i, item := range in {
		conv, err := fromAny(item, index(path, i))
		if err != nil {
			return None(), err
		}
		arr[i] = conv
	}
	return Value{kind: KindArray, arr: arr}, nil
}

func fromAny(in any, path string) (Value, error) {
	switch v := in.(type) {
	case nil:
		return None(), nil
	case map[string]any:
		return fromStringMap(v, path)
	case []any:
		return fromAnySlice(v, path)
	}
	return fromReflect(reflect.ValueOf(in), path)
}

func fromReflect(rv reflect.Value, path string) (Value, error) {
	if !rv.IsValid() {
		return None(), nil
	}
	if rv.Type() == valueType {
		return rv.Interface().(Value), nil
	}
	if rv.Type() == timeType {
		return String(rv.Interface().(time.Time).Format(time.RFC3339Nano)), nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return None(), &ConversionError{
				Path:   path,
				Type:   rv.Type().String(),
				Reason: strconv.FormatUint(u, 10) + " overflows int64",
			}
		}
		return Int64(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return Float64(rv.Float()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return None(), nil
		}
		return fromReflect(rv.Elem(), path)
	case reflect.Slice:
		if rv.IsNil() {
			return Value{kind: KindArray, arr: []Value{}}, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return String(string(rv.Bytes())), nil
		}
		fallthrough
	case reflect.Array:
		arr := make([]Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			conv, err := fromReflect(rv.Index(i), index(path, i))
			if err != nil {
				return None(), err
			}
			arr[i] = conv
		}
		return Value{kind: KindArray, arr: arr}, nil
	case reflect.Map:
		m := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := mapKey(iter.Key())
			conv, err := fromReflect(iter.Value(), join(path, key))
			if err != nil {
				return None(), err
			}
			m[key] = conv
		}
		return Value{kind: KindMap, m: m}, nil
	}

	if rv.Kind() == reflect.Struct && rv.CanInterface() {
		switch t := rv.Interface().(type) {
		case encoding.TextMarshaler:
			text, err := t.MarshalText()
			if err != nil {
				return None(), &ConversionError{Path: path, Type: rv.Type().String(), Reason: err.Error()}
			}
			return String(string(text)), nil
		case fmt.Stringer:
			return String(t.String()), nil
		}
	}

	return None(), &ConversionError{Path: path, Type: rv.Type().String()}
}

func mapKey(k reflect.Value) string {
	for k.Kind() == reflect.Interface && !k.IsNil() {
		k = k.Elem()
	}
	if k.Kind() == reflect.String {
		return k.String()
	}
	return fmt.Sprint(k.Interface())
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func index(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}
