package env

import (
	"os"
	"sort"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/tidwall/sjson"
)

// Env implements an environment variables provider.
type Env struct {
	prefix  string
	delim   string
	cb      func(key string, value string) (string, any)
	environ []string
	out     string
}

// Provider returns an environment variables provider.
//
// Read returns the variables as a flat map keyed by variable name, which is
// what the plain accumulator consumes. ReadBytes returns a JSON document
// where the nesting hierarchy of keys is defined by delim, with support for
// arrays:
//
//	APP_DATABASE__0__PASSWORD=password_1
//	APP_DATABASE__1__PASSWORD=password_2
//
// becomes {"APP_DATABASE":[{"PASSWORD":"password_1"},{"PASSWORD":"password_2"}]}.
//
// If prefix is specified (case-sensitive), only the env vars with
// the prefix are captured. cb is an optional callback that takes
// a string and returns a string (the env variable name) in case
// transformations have to be applied, for instance, to lowercase
// everything, strip prefixes and replace _ with . etc.
// If the callback returns an empty string, the variable will be
// ignored.
func Provider(prefix, delim string, cb func(s string) string) *Env {
	e := &Env{
		prefix: prefix,
		delim:  delim,
	}
	if cb != nil {
		e.cb = func(key string, value string) (string, any) {
			return cb(key), value
		}
	}
	return e
}

// ProviderWithValue works exactly the same as Provider except the callback
// takes a (key, value) with the variable name and value and allows you
// to modify both. This is how typed values (coerced scalars, slices) end
// up in the output instead of raw strings.
func ProviderWithValue(prefix, delim string, cb func(key string, value string) (string, any)) *Env {
	return &Env{
		prefix: prefix,
		delim:  delim,
		cb:     cb,
	}
}

// WithEnviron reads from the given KEY=value list instead of os.Environ.
func (e *Env) WithEnviron(environ []string) *Env {
	e.environ = append([]string{}, environ...)
	return e
}

type entry struct {
	key   string
	value any
}

// collect returns the captured variables sorted by key.
func (e *Env) collect() ([]entry, error) {
	environ := e.environ
	if environ == nil {
		environ = os.Environ()
	}

	entries := make([]entry, 0, len(environ))
	for _, kv := range environ {
		// Windows keeps per-drive working directories as "=C:=C:\dir".
		if strings.HasPrefix(kv, "=") {
			continue
		}
		name, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, errors.New("environment entry is not in key=value format", errors.CategoryBadInput).
				WithTextCode("ENV_MALFORMED_ENTRY").
				WithMetadata(map[string]any{
					"entry": kv,
				})
		}
		if e.prefix != "" && !strings.HasPrefix(name, e.prefix) {
			continue
		}

		var (
			key   string
			value any
		)

		// If there's a transformation callback,
		// run it through every key/value.
		if e.cb != nil {
			key, value = e.cb(name, raw)
			// If the callback blanked the key, it should be omitted
			if key == "" {
				continue
			}
		} else {
			key = name
			value = raw
		}
		entries = append(entries, entry{key: key, value: value})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].key < entries[j].key
	})
	return entries, nil
}

// Read returns the captured variables as a flat map.
func (e *Env) Read() (map[string]any, error) {
	entries, err := e.collect()
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(entries))
	for _, en := range entries {
		out[en.key] = en.value
	}
	return out, nil
}

// ReadBytes returns the captured variables as a nested JSON document.
func (e *Env) ReadBytes() ([]byte, error) {
	entries, err := e.collect()
	if err != nil {
		return nil, err
	}

	e.out = "{}"
	for _, en := range entries {
		if err := e.set(en.key, en.value); err != nil {
			return []byte{}, errors.Wrap(err, errors.CategoryBadInput, "failed to nest environment variable").
				WithTextCode("ENV_NEST_FAILED").
				WithMetadata(map[string]any{
					"key": en.key,
				})
		}
	}

	return []byte(e.out), nil
}

func (e *Env) set(key string, value any) error {
	path := key
	if e.delim != "" {
		path = strings.Replace(key, e.delim, ".", -1)
	}
	out, err := sjson.Set(e.out, path, value)
	if err != nil {
		return err
	}

	e.out = out

	return nil
}
