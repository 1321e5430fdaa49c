package config

import (
	goerrors "errors"
	"fmt"
	"io/fs"
	"reflect"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/spf13/pflag"

	"github.com/goliatone/go-confmerge/koanf/providers/env"
	"github.com/goliatone/go-confmerge/value"
)

// WithValues inserts every top-level entry of values into the plain group.
// Keys are taken verbatim, dots included.
func (c Config) WithValues(values map[string]any) Config {
	if c.err != nil {
		return c
	}
	if values == nil {
		values = map[string]any{}
	}
	raw, err := confmap.Provider(values, "").Read()
	if err != nil {
		return c.fail(newConfigError(KindParse, "values: "+err.Error(), err, nil))
	}
	return c.insertMap(false, "values", raw)
}

// WithStruct inserts the exported fields of v into the plain group, keyed by
// their config tag or field name.
func (c Config) WithStruct(v any) Config {
	if c.err != nil {
		return c
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			break
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return c.fail(newConfigError(KindParse, fmt.Sprintf("struct source must be a struct, got %T", v), nil, nil))
	}

	raw, err := structs.Provider(rv.Interface(), DefaultTagName).Read()
	if err != nil {
		return c.fail(newConfigError(KindParse, "struct: "+err.Error(), err, nil))
	}
	return c.insertMap(false, "struct:"+rv.Type().String(), raw)
}

// WithEnv reads a dotenv file into the plain group.
func (c Config) WithEnv(path string) Config {
	return c.withFile(path, FormatDotenv, false)
}

// WithJSON reads a JSON document into the structured group.
func (c Config) WithJSON(path string) Config {
	return c.withFile(path, FormatJSON, false)
}

// WithTOML reads a TOML document into the structured group.
func (c Config) WithTOML(path string) Config {
	return c.withFile(path, FormatTOML, false)
}

// WithYAML reads a YAML document into the structured group.
func (c Config) WithYAML(path string) Config {
	return c.withFile(path, FormatYAML, false)
}

// WithFile reads path using the format inferred from its name.
func (c Config) WithFile(path string) Config {
	return c.withFile(path, InferFormat(path), false)
}

// WithOptionalFile is WithFile, except a missing file is skipped.
func (c Config) WithOptionalFile(path string) Config {
	return c.withFile(path, InferFormat(path), true)
}

func (c Config) withFile(path string, format Format, optional bool) Config {
	if c.err != nil {
		return c
	}
	c = c.ensure()

	raw, err := file.Provider(path).ReadBytes()
	if err != nil {
		if optional && goerrors.Is(err, fs.ErrNotExist) {
			c.logger.Debug("optional file not found", "path", path)
			return c
		}
		return c.fail(fileError(path, err))
	}

	parsed, err := format.Parser().Unmarshal(raw)
	if err != nil {
		return c.fail(formatError(format, path, err))
	}

	source := format.String() + ":" + path
	tree, err := value.From(parsed)
	if err != nil {
		return c.fail(formatError(format, path, err))
	}
	entries, _ := tree.AsMap()
	return c.apply(format.structured(), source, sortedEntries(entries))
}

// WithFlags inserts the flags that were set on the command line into the
// structured group. Dotted flag names nest, so --server.port=80 yields
// server: {port: 80}.
func (c Config) WithFlags(flags *pflag.FlagSet) Config {
	if c.err != nil {
		return c
	}
	if flags == nil {
		return c.fail(newConfigError(KindParse, "flag set cannot be nil", nil, nil))
	}
	raw, err := posflag.Provider(flags, DefaultDelimiter, nil).Read()
	if err != nil {
		return c.fail(newConfigError(KindParse, "flags: "+err.Error(), err, nil))
	}
	return c.insertMap(true, "flags", raw)
}

// WithEnvTree reads the environment variables starting with prefix into the
// structured group as a tree. The prefix is stripped, names are lowercased
// and delim separates levels: with prefix APP_ and delim __,
// APP_DB__PORT=5432 yields db: {port: 5432}.
func (c Config) WithEnvTree(prefix, delim string) Config {
	if c.err != nil {
		return c
	}

	prv := env.ProviderWithValue(prefix, delim, func(key, raw string) (string, any) {
		return strings.ToLower(strings.TrimPrefix(key, prefix)), value.Coerce(raw).Interface()
	})
	if c.environ != nil {
		prv.WithEnviron(c.environ)
	}

	doc, err := prv.ReadBytes()
	if err != nil {
		return c.fail(newConfigError(KindParse, "env not passed as key=val format", err, nil))
	}
	parsed, err := JSONParser().Unmarshal(doc)
	if err != nil {
		return c.fail(newConfigError(KindParse, "env tree: "+err.Error(), err, nil))
	}
	return c.insertMap(true, "env:"+prefix, parsed)
}
