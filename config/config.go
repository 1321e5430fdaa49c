package config

import (
	goerrors "errors"
	"fmt"

	"github.com/goliatone/go-confmerge/cfgx"
	"github.com/goliatone/go-confmerge/koanf/providers/env"
	"github.com/goliatone/go-confmerge/logger"
	"github.com/goliatone/go-confmerge/solvers"
	"github.com/goliatone/go-confmerge/value"
)

var (
	DefaultDelimiter    = "."
	DefaultTagName      = cfgx.DefaultTagName
	DefaultSolverPasses = 1
)

// Config is one assembly session. Every With method returns an updated copy
// and leaves the receiver untouched, so a Config can be branched freely.
//
// The first failure is kept: once Err is non-nil every later With call is a
// no-op and Build reports that failure.
type Config struct {
	plain        *accumulator
	structured   *accumulator
	overwrite    bool
	prefix       string
	err          error
	logger       logger.Logger
	environ      []string
	skipEnviron  bool
	solvers      []solvers.Solver
	solverPasses int
	sources      []string
}

// New starts a session whose plain group holds the process environment,
// each value scalar-coerced.
func New(opts ...Option) Config {
	c := Config{
		plain:        newAccumulator(),
		structured:   newAccumulator(),
		logger:       logger.Nop(),
		solverPasses: DefaultSolverPasses,
	}

	for i, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&c); err != nil {
			return c.fail(newConfigError(KindBuild, fmt.Sprintf("invalid option %d: %v", i, err), err, map[string]any{
				"option_index": i,
			}))
		}
	}

	if c.skipEnviron {
		return c
	}
	return c.seedEnvironment()
}

func (c Config) seedEnvironment() Config {
	prv := env.ProviderWithValue("", "", func(key, raw string) (string, any) {
		return key, value.Coerce(raw)
	})
	if c.environ != nil {
		prv.WithEnviron(c.environ)
	}

	raw, err := prv.Read()
	if err != nil {
		return c.fail(newConfigError(KindParse, "env not passed as key=val format", err, nil))
	}
	return c.insertMap(false, "environment", raw)
}

// ensure makes the zero Config usable.
func (c Config) ensure() Config {
	if c.plain == nil {
		c.plain = newAccumulator()
	}
	if c.structured == nil {
		c.structured = newAccumulator()
	}
	if c.logger == nil {
		c.logger = logger.Nop()
	}
	return c
}

func (c Config) fail(err *ConfigError) Config {
	c = c.ensure()
	if c.err != nil {
		return c
	}
	c.err = err
	c.logger.Error("config source failed", "kind", err.Kind.String(), "error", err)
	return c
}

// insertMap converts a provider map and applies it in lexical key order.
func (c Config) insertMap(structured bool, source string, raw map[string]any) Config {
	converted := make(map[string]value.Value, len(raw))
	for k, v := range raw {
		if vv, ok := v.(value.Value); ok {
			converted[k] = vv
			continue
		}
		conv, err := value.From(v)
		if err != nil {
			return c.fail(newConfigError(KindParse, fmt.Sprintf("%s: %v", source, err), err, map[string]any{
				"key":    k,
				"source": source,
			}))
		}
		converted[k] = conv
	}
	return c.apply(structured, source, sortedEntries(converted))
}

// apply inserts entries into one group under the current overwrite policy.
// A duplicate abandons the whole source.
func (c Config) apply(structured bool, source string, entries []entry) Config {
	c = c.ensure()
	if c.err != nil {
		return c
	}

	group := "plain"
	acc := c.plain
	if structured {
		group = "structured"
		acc = c.structured
	}

	next := acc.clone()
	for _, e := range entries {
		if !next.insert(e.key, e.value, c.overwrite) {
			return c.fail(duplicateKeyError(e.key, source))
		}
	}

	if structured {
		c.structured = next
	} else {
		c.plain = next
	}
	c.sources = append(c.sources[:len(c.sources):len(c.sources)], source)
	c.logger.Debug("source applied", "source", source, "group", group, "entries", len(entries))
	return c
}

// WithValue inserts one programmatic entry into the plain group.
func (c Config) WithValue(key string, v any) Config {
	if c.err != nil {
		return c
	}
	conv, err := value.From(v)
	if err != nil {
		return c.fail(newConfigError(KindParse, fmt.Sprintf("value for key %s: %v", key, err), err, map[string]any{
			"key": key,
		}))
	}
	return c.apply(false, "value:"+key, []entry{{key: key, value: conv}})
}

// WithOverwrite lets later entries replace earlier ones for the rest of the
// session. It cannot be turned off.
func (c Config) WithOverwrite() Config {
	if c.err != nil {
		return c
	}
	c.overwrite = true
	return c
}

// WithEnvPrefix keeps, at finalization, only plain entries whose key starts
// with prefix. Structured entries are never filtered.
func (c Config) WithEnvPrefix(prefix string) Config {
	if c.err != nil {
		return c
	}
	c.prefix = prefix
	return c
}

// WithSolvers replaces the solver list, allowing explicit ordering.
func (c Config) WithSolvers(slvrs ...solvers.Solver) Config {
	if c.err != nil {
		return c
	}
	c.solvers = append([]solvers.Solver{}, slvrs...)
	return c
}

// WithDefaultSolvers installs the variables, URI and expression solvers.
func (c Config) WithDefaultSolvers() Config {
	return c.WithSolvers(
		solvers.NewVariablesSolver("${", "}"),
		solvers.NewURISolver("@", "://"),
		solvers.NewExpressionSolver("{{", "}}"),
	)
}

// WithSolverPasses sets the maximum number of solver passes (minimum 1).
func (c Config) WithSolverPasses(passes int) Config {
	if c.err != nil {
		return c
	}
	if passes < 1 {
		passes = 1
	}
	c.solverPasses = passes
	return c
}

// Err returns the recorded failure, if any.
func (c Config) Err() error {
	return c.err
}

// Sources lists the applied sources in order.
func (c Config) Sources() []string {
	return append([]string{}, c.sources...)
}

// Tree finalizes the session: prefix filtering, cross-group duplicate
// detection, flattening with structured entries on top, then solvers.
func (c Config) Tree() (value.Value, error) {
	c = c.ensure()
	if c.err != nil {
		return value.None(), c.err
	}

	plain := c.plain
	if c.prefix != "" {
		plain = plain.retainPrefix(c.prefix)
	}

	if !c.overwrite {
		for _, k := range plain.keys {
			if c.structured.has(k) {
				err := duplicateKeyError(k, "finalize")
				c.logger.Error("cross group duplicate", "key", k)
				return value.None(), err
			}
		}
	}

	merged := make(map[string]value.Value, plain.len()+c.structured.len())
	for _, k := range plain.keys {
		merged[k], _ = plain.get(k)
	}
	for _, k := range c.structured.keys {
		merged[k], _ = c.structured.get(k)
	}
	tree := value.Map(merged)

	if len(c.solvers) > 0 {
		solved, err := solvers.Apply(tree, c.solverPasses, c.solvers...)
		if err != nil {
			return value.None(), newConfigError(KindBuild, "solving references: "+err.Error(), err, nil)
		}
		tree = solved
	}

	c.logger.Debug("config finalized", "keys", tree.Len(), "sources", len(c.sources))
	return tree, nil
}

// Decode finalizes the session into out, which must be a non-nil pointer.
func (c Config) Decode(out any) error {
	tree, err := c.Tree()
	if err != nil {
		return err
	}
	if err := cfgx.Decode(tree, out); err != nil {
		return materializeError(err)
	}
	return nil
}

// Build finalizes c and materializes the tree into T.
func Build[T any](c Config, opts ...cfgx.Option[T]) (T, error) {
	var zero T
	tree, err := c.Tree()
	if err != nil {
		return zero, err
	}
	out, err := cfgx.Build[T](tree, opts...)
	if err != nil {
		return zero, materializeError(err)
	}
	return out, nil
}

// materializeError reports field scoped decode failures as KindSerde and
// everything else as KindBuild.
func materializeError(err error) error {
	var de *cfgx.DecodeError
	if goerrors.As(err, &de) && de.Path != "" {
		return newConfigError(KindSerde, de.Error(), err, map[string]any{
			"path":   de.Path,
			"reason": string(de.Reason),
		})
	}
	return newConfigError(KindBuild, err.Error(), err, nil)
}
