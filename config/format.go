package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"
	"github.com/tidwall/gjson"

	"github.com/goliatone/go-confmerge/value"
)

// Format names a file syntax.
type Format string

const (
	FormatJSON   Format = "json"
	FormatTOML   Format = "toml"
	FormatYAML   Format = "yaml"
	FormatDotenv Format = "dotenv"
)

func (f Format) String() string {
	return string(f)
}

func (f Format) Valid() error {
	switch f {
	case FormatJSON, FormatTOML, FormatYAML, FormatDotenv:
		return nil
	default:
		return errors.New("invalid config file format", errors.CategoryValidation).
			WithTextCode("INVALID_FILE_FORMAT").
			WithMetadata(map[string]any{
				"format": string(f),
				"valid_formats": []string{
					string(FormatJSON),
					string(FormatTOML),
					string(FormatYAML),
					string(FormatDotenv),
				},
			})
	}
}

// Parser returns the koanf parser for f. It panics on an invalid format;
// call Valid first for untrusted input.
func (f Format) Parser() koanf.Parser {
	switch f {
	case FormatJSON:
		return JSONParser()
	case FormatTOML:
		return toml.Parser()
	case FormatYAML:
		return yaml.Parser()
	case FormatDotenv:
		return DotenvParser()
	default:
		panic(fmt.Errorf("invalid config file format: %s", f))
	}
}

// structured reports whether documents of this format feed the structured
// accumulator.
func (f Format) structured() bool {
	return f != FormatDotenv
}

func (f Format) errorKind() ErrorKind {
	switch f {
	case FormatJSON:
		return KindJSON
	case FormatTOML:
		return KindTOML
	case FormatYAML:
		return KindYAML
	case FormatDotenv:
		return KindEnv
	default:
		return KindParse
	}
}

// InferFormat picks a format from the file name. Unknown extensions fall
// back to the first default, or JSON.
func InferFormat(path string, defaultFormat ...Format) Format {
	base := filepath.Base(path)
	if base == ".env" || strings.HasPrefix(base, ".env.") {
		return FormatDotenv
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".env":
		return FormatDotenv
	}

	if len(defaultFormat) > 0 {
		return defaultFormat[0]
	}

	return FormatJSON
}

type jsonParser struct{}

// JSONParser returns a JSON parser that keeps the integer/float distinction
// of number literals: 1 decodes to int64, 1.0 and 1e3 to float64.
func JSONParser() koanf.Parser {
	return jsonParser{}
}

func (jsonParser) Unmarshal(b []byte) (map[string]any, error) {
	if !gjson.ValidBytes(b) {
		// the stdlib backed parser reports the offending offset
		if _, err := json.Parser().Unmarshal(b); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("invalid JSON document")
	}

	doc := gjson.ParseBytes(b)
	if !doc.IsObject() {
		return nil, fmt.Errorf("document root must be an object, found %s", jsonKind(doc))
	}
	out, _ := jsonValue(doc).(map[string]any)
	return out, nil
}

func (jsonParser) Marshal(m map[string]any) ([]byte, error) {
	return json.Parser().Marshal(m)
}

func jsonValue(r gjson.Result) any {
	switch r.Type {
	case gjson.True, gjson.False:
		return r.Bool()
	case gjson.Number:
		if !strings.ContainsAny(r.Raw, ".eE") {
			if i, err := strconv.ParseInt(r.Raw, 10, 64); err == nil {
				return i
			}
		}
		return r.Num
	case gjson.String:
		return r.Str
	case gjson.JSON:
		if r.IsArray() {
			items := []any{}
			r.ForEach(func(_, item gjson.Result) bool {
				items = append(items, jsonValue(item))
				return true
			})
			return items
		}
		entries := map[string]any{}
		r.ForEach(func(key, item gjson.Result) bool {
			entries[key.Str] = jsonValue(item)
			return true
		})
		return entries
	default:
		return nil
	}
}

func jsonKind(r gjson.Result) string {
	switch {
	case r.IsArray():
		return "array"
	case r.Type == gjson.Null:
		return "null"
	case r.Type == gjson.String:
		return "string"
	case r.Type == gjson.Number:
		return "number"
	default:
		return "boolean"
	}
}

type dotenvParser struct{}

// DotenvParser reads KEY=value documents. Every value is scalar-coerced, so
// PORT=8080 yields an int64.
func DotenvParser() koanf.Parser {
	return dotenvParser{}
}

func (dotenvParser) Unmarshal(b []byte) (map[string]any, error) {
	raw, err := godotenv.UnmarshalBytes(b)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = value.Coerce(v).Interface()
	}
	return out, nil
}

func (dotenvParser) Marshal(m map[string]any) ([]byte, error) {
	flat := make(map[string]string, len(m))
	for k, v := range m {
		conv, err := value.From(v)
		if err != nil {
			return nil, err
		}
		if !conv.Kind().IsScalar() && !conv.IsNone() {
			return nil, fmt.Errorf("dotenv cannot represent %s value for key %q", conv.Kind(), k)
		}
		flat[k] = renderScalar(conv)
	}
	out, err := godotenv.Marshal(flat)
	if err != nil {
		return nil, err
	}
	return []byte(out + "\n"), nil
}

func renderScalar(v value.Value) string {
	switch v.Kind() {
	case value.KindNone:
		return ""
	case value.KindString:
		s, _ := v.AsString()
		return s
	default:
		return v.String()
	}
}
