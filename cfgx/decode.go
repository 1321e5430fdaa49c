package cfgx

import (
	"math"
	"reflect"
	"sort"
	"strconv"

	"github.com/go-viper/mapstructure/v2"
	"github.com/goliatone/go-confmerge/value"
)

// Source is the request surface the decoder drives while walking a
// destination type. value.Value is its only implementation in this module;
// custom Unmarshaler types receive it to pull their own content.
type Source interface {
	Kind() value.Kind
	IsNone() bool
	AsBool() (bool, error)
	AsInt64() (int64, error)
	AsFloat64() (float64, error)
	AsString() (string, error)
	AsArray() ([]value.Value, error)
	AsMap() (map[string]value.Value, error)
	AsVariant() (name string, payload value.Value, hasPayload bool, err error)
	Interface() any
}

var _ Source = value.Value{}

// Unmarshaler lets a type take over its own materialization.
type Unmarshaler interface {
	UnmarshalConfig(src Source) error
}

var valueType = reflect.TypeOf(value.Value{})

// decoder materializes a value tree into a reflect destination. It never
// widens scalars: each destination kind accepts exactly one variant.
type decoder struct {
	tagName string
	strict  bool
	hook    mapstructure.DecodeHookFunc
}

func (d *decoder) decode(path string, src Source, dst reflect.Value, seeded bool) error {
	t := dst.Type()

	if seeded && src.IsNone() {
		return nil
	}

	if t == valueType {
		v, ok := src.(value.Value)
		if !ok {
			conv, err := value.From(src.Interface())
			if err != nil {
				return &DecodeError{Path: path, Reason: ReasonUnsupported, Expected: t.String(), Err: err}
			}
			v = conv
		}
		dst.Set(reflect.ValueOf(v))
		return nil
	}

	if dst.CanAddr() {
		switch target := dst.Addr().Interface().(type) {
		case Unmarshaler:
			if err := target.UnmarshalConfig(src); err != nil {
				return &DecodeError{Path: path, Reason: ReasonUnmarshal, Expected: t.String(), Err: err}
			}
			return nil
		case optional:
			return d.decodeOptional(path, src, target)
		}
	}

	if def, ok := enums.lookup(t); ok {
		return d.decodeEnum(path, def, src, dst)
	}

	if t.Kind() == reflect.Pointer {
		if src.IsNone() {
			dst.Set(reflect.Zero(t))
			return nil
		}
		if seeded && !dst.IsNil() {
			return d.decode(path, src, dst.Elem(), true)
		}
		ptr := reflect.New(t.Elem())
		if err := d.decode(path, src, ptr.Elem(), false); err != nil {
			return err
		}
		dst.Set(ptr)
		return nil
	}

	src, handled, err := d.runHook(path, src, dst)
	if err != nil || handled {
		return err
	}

	switch t.Kind() {
	case reflect.Bool:
		b, err := src.AsBool()
		if err != nil {
			return typeMismatch(path, err)
		}
		dst.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := src.AsInt64()
		if err != nil {
			return typeMismatch(path, err)
		}
		if dst.OverflowInt(i) {
			return overflow(path, t, strconv.FormatInt(i, 10))
		}
		dst.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		i, err := src.AsInt64()
		if err != nil {
			return typeMismatch(path, err)
		}
		if i < 0 || dst.OverflowUint(uint64(i)) {
			return overflow(path, t, strconv.FormatInt(i, 10))
		}
		dst.SetUint(uint64(i))
	case reflect.Float32, reflect.Float64:
		f, err := src.AsFloat64()
		if err != nil {
			return typeMismatch(path, err)
		}
		if !math.IsInf(f, 0) && !math.IsNaN(f) && dst.OverflowFloat(f) {
			return overflow(path, t, strconv.FormatFloat(f, 'g', -1, 64))
		}
		dst.SetFloat(f)
	case reflect.String:
		s, err := src.AsString()
		if err != nil {
			return typeMismatch(path, err)
		}
		dst.SetString(s)
	case reflect.Interface:
		if t.NumMethod() != 0 {
			return unsupported(path, t)
		}
		if src.IsNone() {
			dst.Set(reflect.Zero(t))
			return nil
		}
		dst.Set(reflect.ValueOf(src.Interface()))
	case reflect.Slice:
		return d.decodeSlice(path, src, dst)
	case reflect.Array:
		return d.decodeArray(path, src, dst)
	case reflect.Map:
		return d.decodeMap(path, src, dst, seeded)
	case reflect.Struct:
		return d.decodeStruct(path, src, dst, seeded)
	default:
		return unsupported(path, t)
	}
	return nil
}

// runHook offers scalar leaves to the decode hooks. A hook result assignable
// to the destination is stored directly; a result of the same type as the
// input replaces the source and the strict rules continue with it.
func (d *decoder) runHook(path string, src Source, dst reflect.Value) (Source, bool, error) {
	if d.hook == nil || !src.Kind().IsScalar() {
		return src, false, nil
	}
	from := reflect.ValueOf(src.Interface())
	out, err := mapstructure.DecodeHookExec(d.hook, from, dst)
	if err != nil {
		return src, true, &DecodeError{Path: path, Reason: ReasonHook, Expected: dst.Type().String(), Actual: src.Kind().String(), Err: err}
	}
	if out == nil {
		return src, false, nil
	}
	rv := reflect.ValueOf(out)
	if rv.Type() == from.Type() {
		conv, err := value.From(out)
		if err != nil {
			return src, false, nil
		}
		return conv, false, nil
	}
	if rv.Type().AssignableTo(dst.Type()) {
		dst.Set(rv)
		return src, true, nil
	}
	if rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Type().AssignableTo(dst.Type()) {
		dst.Set(rv.Elem())
		return src, true, nil
	}
	return src, false, nil
}

func (d *decoder) decodeOptional(path string, src Source, target optional) error {
	if src.IsNone() {
		target.optionalUnset()
		return nil
	}
	elem := reflect.New(target.optionalElem()).Elem()
	if err := d.decode(path, src, elem, false); err != nil {
		return err
	}
	target.optionalSet(elem)
	return nil
}

func (d *decoder) decodeSlice(path string, src Source, dst reflect.Value) error {
	items, err := src.AsArray()
	if err != nil {
		return typeMismatch(path, err)
	}
	out := reflect.MakeSlice(dst.Type(), len(items), len(items))
	for i, item := range items {
		if err := d.decode(indexPath(path, i), item, out.Index(i), false); err != nil {
			return err
		}
	}
	dst.Set(out)
	return nil
}

func (d *decoder) decodeArray(path string, src Source, dst reflect.Value) error {
	items, err := src.AsArray()
	if err != nil {
		return typeMismatch(path, err)
	}
	if len(items) != dst.Len() {
		return &DecodeError{
			Path:     path,
			Reason:   ReasonLength,
			Expected: strconv.Itoa(dst.Len()),
			Actual:   strconv.Itoa(len(items)),
		}
	}
	out := reflect.New(dst.Type()).Elem()
	for i, item := range items {
		if err := d.decode(indexPath(path, i), item, out.Index(i), false); err != nil {
			return err
		}
	}
	dst.Set(out)
	return nil
}

func (d *decoder) decodeMap(path string, src Source, dst reflect.Value, seeded bool) error {
	t := dst.Type()
	if t.Key().Kind() != reflect.String {
		return unsupported(path, t)
	}
	entries, err := src.AsMap()
	if err != nil {
		return typeMismatch(path, err)
	}

	out := reflect.MakeMapWithSize(t, len(entries))
	if seeded && !dst.IsNil() {
		iter := dst.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), iter.Value())
		}
	}
	for _, key := range sortedKeys(entries) {
		elem := reflect.New(t.Elem()).Elem()
		if err := d.decode(joinPath(path, key), entries[key], elem, false); err != nil {
			return err
		}
		out.SetMapIndex(reflect.ValueOf(key).Convert(t.Key()), elem)
	}
	dst.Set(out)
	return nil
}

func (d *decoder) decodeStruct(path string, src Source, dst reflect.Value, seeded bool) error {
	entries, err := src.AsMap()
	if err != nil {
		return typeMismatch(path, err)
	}
	used := make(map[string]struct{}, len(entries))
	if err := d.fillStruct(path, entries, dst, seeded, used); err != nil {
		return err
	}
	if !d.strict {
		return nil
	}
	for _, key := range sortedKeys(entries) {
		if _, ok := used[key]; !ok {
			return &DecodeError{Path: joinPath(path, key), Reason: ReasonUnknownField, Actual: key}
		}
	}
	return nil
}

func (d *decoder) fillStruct(path string, entries map[string]value.Value, dst reflect.Value, seeded bool, used map[string]struct{}) error {
	plan := planFor(dst.Type(), d.tagName)
	for _, fp := range plan.fields {
		field := dst.Field(fp.index)

		if fp.squash {
			target, childSeeded := field, seeded
			if field.Kind() == reflect.Pointer {
				if field.IsNil() {
					field.Set(reflect.New(field.Type().Elem()))
					childSeeded = false
				}
				target = field.Elem()
			}
			if err := d.fillStruct(path, entries, target, childSeeded, used); err != nil {
				return err
			}
			continue
		}

		key, found := "", false
		for _, candidate := range fp.keys {
			if _, ok := entries[candidate]; !ok {
				continue
			}
			if found && candidate != key {
				return &DecodeError{Path: joinPath(path, candidate), Reason: ReasonDuplicateField, Expected: fp.name}
			}
			key, found = candidate, true
			used[candidate] = struct{}{}
		}

		switch {
		case found:
			if err := d.decode(joinPath(path, key), entries[key], field, seeded); err != nil {
				return err
			}
		case seeded:
			// keep the value seeded by the defaults stage
		case fp.def != nil:
			if err := d.decode(joinPath(path, fp.name), defaultLiteral(*fp.def, field.Type()), field, false); err != nil {
				return err
			}
		case absentIsNone(field.Type()):
			if err := d.decode(joinPath(path, fp.name), value.None(), field, false); err != nil {
				return err
			}
		case fp.optional:
		default:
			return &DecodeError{Path: joinPath(path, fp.name), Reason: ReasonMissingField, Expected: fp.name}
		}
	}
	return nil
}

func (d *decoder) decodeEnum(path string, def *enumDef, src Source, dst reflect.Value) error {
	name, payload, hasPayload, err := src.AsVariant()
	if err != nil {
		return &DecodeError{Path: path, Reason: ReasonEnumStructure, Enum: def.name, Actual: describeShape(src), Err: err}
	}
	variant, ok := def.variants[name]
	if !ok {
		return &DecodeError{Path: path, Reason: ReasonUnknownVariant, Enum: def.name, Variant: name}
	}

	if variant.unit && hasPayload && !payload.IsNone() {
		return &DecodeError{Path: joinPath(path, name), Reason: ReasonTypeMismatch, Enum: def.name, Variant: name, Expected: "unit", Actual: payload.Kind().String()}
	}
	if def.strings {
		dst.SetString(name)
		return nil
	}
	if !hasPayload && !variant.unit {
		return &DecodeError{Path: path, Reason: ReasonMissingPayload, Enum: def.name, Variant: name}
	}

	elem := reflect.New(variant.typ).Elem()
	if hasPayload && !variant.unit {
		if err := d.decode(joinPath(path, name), payload, elem, false); err != nil {
			return err
		}
	}
	if variant.pointer {
		ptr := reflect.New(variant.typ)
		ptr.Elem().Set(elem)
		dst.Set(ptr)
		return nil
	}
	dst.Set(elem)
	return nil
}

// defaultLiteral reads a default tag in terms of the field it fills: string
// fields take the text as is and float fields accept whole numbers.
func defaultLiteral(literal string, t reflect.Type) value.Value {
	for {
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
			continue
		}
		if isOptional(t) {
			t = reflect.New(t).Interface().(optional).optionalElem()
			continue
		}
		break
	}
	if t == valueType {
		return value.Coerce(literal)
	}
	switch t.Kind() {
	case reflect.String:
		return value.String(literal)
	case reflect.Float32, reflect.Float64:
		if f, err := strconv.ParseFloat(literal, 64); err == nil {
			return value.Float64(f)
		}
	}
	return value.Coerce(literal)
}

// absentIsNone reports whether a missing key can be satisfied by None.
func absentIsNone(t reflect.Type) bool {
	return t.Kind() == reflect.Pointer || t == valueType || isOptional(t)
}

func describeShape(src Source) string {
	if src.Kind() == value.KindMap {
		if m, err := src.AsMap(); err == nil {
			return "map with " + strconv.Itoa(len(m)) + " entries"
		}
	}
	return src.Kind().String()
}

func overflow(path string, t reflect.Type, actual string) error {
	return &DecodeError{Path: path, Reason: ReasonOverflow, Expected: t.String(), Actual: actual}
}

func unsupported(path string, t reflect.Type) error {
	return &DecodeError{Path: path, Reason: ReasonUnsupported, Expected: t.String()}
}

func sortedKeys(m map[string]value.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
