package cfgx

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/goliatone/go-confmerge/value"
)

// Preprocessor functions transform the tree before decoding begins.
type Preprocessor func(value.Value) (value.Value, error)

// StringTransformer rewrites a single string leaf.
type StringTransformer func(string) (string, error)

func TrimSpace(s string) (string, error) { return strings.TrimSpace(s), nil }

func ToLower(s string) (string, error) { return strings.ToLower(s), nil }

func ToUpper(s string) (string, error) { return strings.ToUpper(s), nil }

// PreprocessMerge deep merges the provided sources into the input tree. Sources
// can be value.Value trees, maps or structs; later sources override earlier
// ones, nested maps merge key by key, and None never overrides a value.
func PreprocessMerge(sources ...any) Preprocessor {
	return func(input value.Value) (value.Value, error) {
		base := input
		if base.IsNone() {
			base = value.Map(nil)
		}
		for idx, src := range sources {
			tree, err := toTree(src)
			if err != nil {
				return value.None(), fmt.Errorf("cfgx: merge source %d: %w", idx, err)
			}
			base = mergeIgnoringNone(base, tree)
		}
		return base, nil
	}
}

// PreprocessTransformStrings applies the transformers, in order, to every
// string leaf of the tree.
func PreprocessTransformStrings(fns ...StringTransformer) Preprocessor {
	return func(input value.Value) (value.Value, error) {
		return transformStrings(input, "", fns)
	}
}

func transformStrings(v value.Value, path string, fns []StringTransformer) (value.Value, error) {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.AsString()
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			next, err := fn(s)
			if err != nil {
				return value.None(), fmt.Errorf("cfgx: transform %s: %w", displayPath(path), err)
			}
			s = next
		}
		return value.String(s), nil
	case value.KindArray:
		items, _ := v.AsArray()
		for i, item := range items {
			out, err := transformStrings(item, indexPath(path, i), fns)
			if err != nil {
				return value.None(), err
			}
			items[i] = out
		}
		return value.Array(items...), nil
	case value.KindMap:
		entries, _ := v.AsMap()
		for _, k := range sortedKeys(entries) {
			out, err := transformStrings(entries[k], joinPath(path, k), fns)
			if err != nil {
				return value.None(), err
			}
			entries[k] = out
		}
		return value.Map(entries), nil
	default:
		return v, nil
	}
}

// toTree converts a merge source into a value tree. Structs go through
// mapstructure so the config tag names the resulting keys.
func toTree(src any) (value.Value, error) {
	switch v := src.(type) {
	case nil:
		return value.None(), nil
	case value.Value:
		return v, nil
	}
	rv := reflect.ValueOf(src)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return value.None(), nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return value.From(src)
	}

	out := map[string]any{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: DefaultTagName,
		Result:  &out,
	})
	if err != nil {
		return value.None(), err
	}
	if err := dec.Decode(rv.Interface()); err != nil {
		return value.None(), err
	}
	return value.From(out)
}

func mergeIgnoringNone(dst, src value.Value) value.Value {
	if src.IsNone() {
		return dst
	}
	if dst.Kind() != value.KindMap || src.Kind() != value.KindMap {
		return src
	}
	out, _ := dst.AsMap()
	incoming, _ := src.AsMap()
	for k, v := range incoming {
		if existing, ok := out[k]; ok {
			out[k] = mergeIgnoringNone(existing, v)
			continue
		}
		if !v.IsNone() {
			out[k] = v
		}
	}
	return value.Map(out)
}

func displayPath(path string) string {
	if path == "" {
		return "<root>"
	}
	return path
}
