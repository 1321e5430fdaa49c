package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-confmerge/cfgx"
	"github.com/goliatone/go-confmerge/logger"
	"github.com/goliatone/go-confmerge/solvers"
	"github.com/goliatone/go-confmerge/value"
)

type serverConfig struct {
	Host    string        `config:"host"`
	Timeout time.Duration `config:"timeout"`
}

type databaseConfig struct {
	Host     string   `config:"host"`
	Port     int      `config:"port"`
	Pool     int      `config:"pool"`
	Replicas []string `config:"replicas"`
}

type appConfig struct {
	Name     string         `config:"name"`
	Port     int            `config:"port"`
	Ratio    float64        `config:"ratio"`
	Tags     []string       `config:"tags"`
	Server   serverConfig   `config:"server"`
	Database databaseConfig `config:"database"`
	LogLevel string         `config:"LOG_LEVEL"`
	Workers  int            `config:"WORKERS"`
}

func fixture(name string) string {
	return filepath.Join("testdata", name)
}

func emptyEnv() Option {
	return WithEnviron([]string{})
}

func mustTree(t *testing.T, c Config) value.Value {
	t.Helper()
	tree, err := c.Tree()
	if err != nil {
		t.Fatalf("Tree failed: %v", err)
	}
	return tree
}

func lookup(t *testing.T, tree value.Value, path string) value.Value {
	t.Helper()
	v, ok := value.Lookup(tree, path)
	if !ok {
		t.Fatalf("expected %q in tree %s", path, tree)
	}
	return v
}

func TestNewSeedsEnvironment(t *testing.T) {
	c := New(WithEnviron([]string{"PORT=8080", "NAME=svc", "DEBUG=true", "RATIO=0.5", "EMPTY="}))

	tree := mustTree(t, c)

	assert.Equal(t, value.Int64(8080), lookup(t, tree, "PORT"))
	assert.Equal(t, value.String("svc"), lookup(t, tree, "NAME"))
	assert.Equal(t, value.Bool(true), lookup(t, tree, "DEBUG"))
	assert.Equal(t, value.Float64(0.5), lookup(t, tree, "RATIO"))
	assert.Equal(t, value.String(""), lookup(t, tree, "EMPTY"))
	assert.Equal(t, []string{"environment"}, c.Sources())
}

func TestNewSeedsProcessEnvironment(t *testing.T) {
	t.Setenv("CONFMERGE_TEST_WORKERS", "12")

	tree := mustTree(t, New())

	assert.Equal(t, value.Int64(12), lookup(t, tree, "CONFMERGE_TEST_WORKERS"))
}

func TestNewMalformedEnvironment(t *testing.T) {
	c := New(WithEnviron([]string{"GOOD=1", "BROKEN"}))

	err := c.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
	assert.Equal(t, "[CONFIG][ERROR] Parsing error: env not passed as key=val format", err.Error())
}

func TestWithoutEnvironment(t *testing.T) {
	t.Setenv("CONFMERGE_TEST_SKIPPED", "1")

	tree := mustTree(t, New(WithoutEnvironment()))

	assert.Equal(t, 0, tree.Len())
	assert.Equal(t, value.KindMap, tree.Kind())
}

func TestZeroConfigIsUsable(t *testing.T) {
	var c Config
	tree := mustTree(t, c.WithValue("a", 1))

	assert.Equal(t, value.Int64(1), lookup(t, tree, "a"))
}

func TestNilLoggerOption(t *testing.T) {
	c := New(emptyEnv(), WithLogger(nil))

	require.Error(t, c.Err())
	assert.True(t, errors.Is(c.Err(), ErrBuild))
	assert.Contains(t, c.Err().Error(), "invalid option 1")
}

func TestDuplicateKeyRejected(t *testing.T) {
	c := New(emptyEnv()).
		WithValue("a", 1).
		WithValue("a", 2)

	err := c.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateKey))
	assert.Equal(t, "[CONFIG][ERROR] Duplicate key: a", err.Error())

	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "a", ce.Key)

	var payload *goerrors.Error
	assert.True(t, errors.As(err, &payload))

	_, err = c.Tree()
	assert.True(t, errors.Is(err, ErrDuplicateKey))
}

func TestDuplicateAgainstEnvironment(t *testing.T) {
	c := New(WithEnviron([]string{"HOME=/root"})).WithValue("HOME", "/tmp")

	assert.True(t, errors.Is(c.Err(), ErrDuplicateKey))
}

func TestOverwriteKeepsLatest(t *testing.T) {
	c := New(emptyEnv()).
		WithOverwrite().
		WithValue("a", 1).
		WithValue("b", 2).
		WithValue("a", 3)

	tree := mustTree(t, c)

	assert.Equal(t, value.Int64(3), lookup(t, tree, "a"))
	assert.Equal(t, value.Int64(2), lookup(t, tree, "b"))
	assert.Equal(t, []string{"a", "b"}, c.plain.keys)
}

func TestOverwriteOnlyAffectsLaterInserts(t *testing.T) {
	c := New(emptyEnv()).
		WithValue("a", 1).
		WithValue("a", 2).
		WithOverwrite()

	assert.True(t, errors.Is(c.Err(), ErrDuplicateKey))
}

func TestDuplicateAbandonsSource(t *testing.T) {
	c := New(emptyEnv()).
		WithValue("z", 1).
		WithValues(map[string]any{"b": 2, "z": 3})

	assert.True(t, errors.Is(c.Err(), ErrDuplicateKey))
	assert.False(t, c.plain.has("b"))
	assert.Equal(t, []string{"environment", "value:z"}, c.Sources())
}

func TestCrossGroupDuplicate(t *testing.T) {
	base := New(emptyEnv()).WithValue("name", "svc")

	c := base.WithJSON(fixture("app.json"))

	// app.json also defines name, but the json entries live in the
	// structured group so the clash only surfaces at finalization.
	require.NoError(t, c.Err())
	_, err := c.Tree()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateKey))
	assert.Equal(t, "[CONFIG][ERROR] Duplicate key: name", err.Error())
}

func TestStructuredBeatsPlainUnderOverwrite(t *testing.T) {
	jsonFirst := New(emptyEnv()).
		WithOverwrite().
		WithJSON(fixture("app.json")).
		WithValue("name", "programmatic")

	valueFirst := New(emptyEnv()).
		WithOverwrite().
		WithValue("name", "programmatic").
		WithJSON(fixture("app.json"))

	for name, c := range map[string]Config{"json first": jsonFirst, "value first": valueFirst} {
		t.Run(name, func(t *testing.T) {
			tree := mustTree(t, c)
			assert.Equal(t, value.String("confmerge"), lookup(t, tree, "name"))
		})
	}
}

func TestEnvPrefixFiltersPlainOnly(t *testing.T) {
	c := New(WithEnviron([]string{"APP_PORT=80", "APP_NAME=svc", "OTHER=1"})).
		WithValue("extra", true).
		WithYAML(fixture("database.yaml")).
		WithEnvPrefix("APP_")

	tree := mustTree(t, c)

	assert.ElementsMatch(t, []string{"APP_NAME", "APP_PORT", "database"}, tree.Keys())
}

func TestEnvPrefixAvoidsCrossGroupClash(t *testing.T) {
	c := New(WithEnviron([]string{"database=ignored", "APP_MODE=prod"})).
		WithYAML(fixture("database.yaml")).
		WithEnvPrefix("APP_")

	tree := mustTree(t, c)

	assert.Equal(t, value.String("prod"), lookup(t, tree, "APP_MODE"))
	assert.Equal(t, value.String("db.local"), lookup(t, tree, "database.host"))
}

func TestFirstFailureWins(t *testing.T) {
	c := New(emptyEnv()).
		WithValue("a", 1).
		WithJSON(fixture("missing.json")).
		WithJSON(fixture("broken.json")).
		WithValue("b", 2)

	err := c.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFile))
	assert.False(t, errors.Is(err, ErrJSON))
	assert.Equal(t, []string{"environment", "value:a"}, c.Sources())

	_, buildErr := Build[map[string]any](c)
	assert.Same(t, err, buildErr)
}

func TestValueSemantics(t *testing.T) {
	base := New(emptyEnv()).WithValue("a", 1)

	left := base.WithValue("b", "left")
	right := base.WithValue("b", "right")
	broken := base.WithValue("a", 2)

	assert.Equal(t, value.String("left"), lookup(t, mustTree(t, left), "b"))
	assert.Equal(t, value.String("right"), lookup(t, mustTree(t, right), "b"))
	assert.Error(t, broken.Err())

	baseTree := mustTree(t, base)
	assert.Equal(t, []string{"a"}, baseTree.Keys())
	assert.NoError(t, base.Err())
}

func TestWithJSONKeepsNumberKinds(t *testing.T) {
	tree := mustTree(t, New(emptyEnv()).WithJSON(fixture("app.json")))

	assert.Equal(t, value.Int64(8080), lookup(t, tree, "port"))
	assert.Equal(t, value.Float64(1.0), lookup(t, tree, "ratio"))
	assert.Equal(t, value.Array(value.String("edge"), value.String("blue")), lookup(t, tree, "tags"))
	assert.Equal(t, value.String("30s"), lookup(t, tree, "server.timeout"))
}

func TestWithYAMLAndTOML(t *testing.T) {
	tree := mustTree(t, New(emptyEnv()).
		WithYAML(fixture("database.yaml")).
		WithTOML(fixture("cache.toml")))

	assert.Equal(t, value.Int64(5432), lookup(t, tree, "database.port"))
	assert.Equal(t, value.String("db-2.local"), lookup(t, tree, "database.replicas[1]"))
	assert.Equal(t, value.Bool(true), lookup(t, tree, "cache.enabled"))
	assert.Equal(t, value.Int64(30), lookup(t, tree, "cache.ttl"))
	assert.Equal(t, value.Float64(0.75), lookup(t, tree, "cache.ratio"))
}

func TestWithTOMLDates(t *testing.T) {
	tree := mustTree(t, New(emptyEnv()).WithTOML(fixture("schedule.toml")))

	assert.Equal(t, value.String("1979-05-27T07:32:00"), lookup(t, tree, "schedule.started"))
	assert.Equal(t, value.String("1979-05-27"), lookup(t, tree, "schedule.day"))
	assert.Equal(t, value.String("07:32:00"), lookup(t, tree, "schedule.at"))
	assert.Equal(t, value.String("1979-05-27T07:32:00Z"), lookup(t, tree, "schedule.released"))

	type schedule struct {
		Day      string    `config:"day"`
		Released time.Time `config:"released"`
	}
	got, err := Build[struct {
		Schedule schedule `config:"schedule"`
	}](New(emptyEnv()).WithTOML(fixture("schedule.toml")))
	require.NoError(t, err)
	assert.Equal(t, "1979-05-27", got.Schedule.Day)
	assert.True(t, got.Schedule.Released.Equal(time.Date(1979, 5, 27, 7, 32, 0, 0, time.UTC)))
}

func TestWithEnvFile(t *testing.T) {
	c := New(emptyEnv()).WithEnv(fixture(".env"))
	tree := mustTree(t, c)

	assert.Equal(t, value.String("debug"), lookup(t, tree, "LOG_LEVEL"))
	assert.Equal(t, value.Int64(4), lookup(t, tree, "WORKERS"))
	assert.Equal(t, value.Float64(0.5), lookup(t, tree, "RATE"))
	assert.Equal(t, value.Bool(true), lookup(t, tree, "VERBOSE"))
	assert.Equal(t, []string{"environment", "dotenv:" + fixture(".env")}, c.Sources())
}

func TestWithEnvFileClashesWithEnvironment(t *testing.T) {
	c := New(WithEnviron([]string{"WORKERS=1"})).WithEnv(fixture(".env"))

	assert.True(t, errors.Is(c.Err(), ErrDuplicateKey))
}

func TestFileErrors(t *testing.T) {
	cases := []struct {
		name   string
		build  func(Config) Config
		target error
		prefix string
		detail string
	}{
		{
			name:   "missing file",
			build:  func(c Config) Config { return c.WithJSON(fixture("missing.json")) },
			target: ErrFile,
			prefix: "[CONFIG][ERROR] File error: ",
		},
		{
			name:   "directory",
			build:  func(c Config) Config { return c.WithTOML("testdata") },
			target: ErrFile,
			prefix: "[CONFIG][ERROR] File error: ",
		},
		{
			name:   "broken json",
			build:  func(c Config) Config { return c.WithJSON(fixture("broken.json")) },
			target: ErrJSON,
			prefix: "[CONFIG][ERROR] Json parsing error: " + fixture("broken.json") + ": ",
		},
		{
			name:   "json array root",
			build:  func(c Config) Config { return c.WithJSON(fixture("list.json")) },
			target: ErrJSON,
			prefix: "[CONFIG][ERROR] Json parsing error: ",
			detail: "document root must be an object, found array",
		},
		{
			name:   "broken yaml",
			build:  func(c Config) Config { return c.WithYAML(fixture("broken.yaml")) },
			target: ErrYAML,
			prefix: "[CONFIG][ERROR] Yaml parsing error: ",
		},
		{
			name:   "broken toml",
			build:  func(c Config) Config { return c.WithTOML(fixture("broken.toml")) },
			target: ErrTOML,
			prefix: "[CONFIG][ERROR] Toml parsing error: ",
		},
		{
			name:   "broken dotenv",
			build:  func(c Config) Config { return c.WithEnv(fixture("broken.env")) },
			target: ErrEnv,
			prefix: "[CONFIG][ERROR] Env parsing error: ",
			detail: "unexpected character",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := tc.build(New(emptyEnv()))

			err := c.Err()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, tc.target) {
				t.Fatalf("expected %v kind, got %v", tc.target.(*ConfigError).Kind, err)
			}
			if !strings.HasPrefix(err.Error(), tc.prefix) {
				t.Fatalf("expected prefix %q, got %q", tc.prefix, err.Error())
			}
			if tc.detail != "" && !strings.Contains(err.Error(), tc.detail) {
				t.Fatalf("expected %q in %q", tc.detail, err.Error())
			}
		})
	}
}

func TestFileErrorUnwrapsToOS(t *testing.T) {
	err := New(emptyEnv()).WithFile(fixture("missing.yaml")).Err()

	assert.True(t, errors.Is(err, os.ErrNotExist))

	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, fixture("missing.yaml"), ce.Path)
}

func TestWithOptionalFile(t *testing.T) {
	c := New(emptyEnv()).
		WithOptionalFile(fixture("missing.toml")).
		WithOptionalFile(fixture("cache.toml"))

	tree := mustTree(t, c)
	assert.Equal(t, []string{"cache"}, tree.Keys())
	assert.Equal(t, []string{"environment", "toml:" + fixture("cache.toml")}, c.Sources())

	broken := New(emptyEnv()).WithOptionalFile(fixture("broken.toml"))
	assert.True(t, errors.Is(broken.Err(), ErrTOML))
}

func TestWithFileInfersFormat(t *testing.T) {
	c := New(emptyEnv()).
		WithFile(fixture("app.json")).
		WithFile(fixture("database.yaml")).
		WithFile(fixture("cache.toml")).
		WithFile(fixture(".env"))

	tree := mustTree(t, c)

	assert.ElementsMatch(t, []string{
		"name", "port", "ratio", "tags", "server", "database", "cache",
		"LOG_LEVEL", "WORKERS", "RATE", "VERBOSE",
	}, tree.Keys())
	assert.Equal(t, "yaml:"+fixture("database.yaml"), c.Sources()[2])
}

func TestWithFileWritten(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env.local")
	require.NoError(t, os.WriteFile(path, []byte("TOKEN=\"abc def\"\nRETRIES=3\n"), 0o600))

	tree := mustTree(t, New(emptyEnv()).WithFile(path))

	assert.Equal(t, value.String("abc def"), lookup(t, tree, "TOKEN"))
	assert.Equal(t, value.Int64(3), lookup(t, tree, "RETRIES"))
}

func TestWithValues(t *testing.T) {
	c := New(emptyEnv()).WithValues(map[string]any{
		"db.host": "localhost",
		"limits":  map[string]any{"max": 10},
		"ids":     []int{1, 2},
	})

	tree := mustTree(t, c)

	v, ok := tree.Get("db.host")
	require.True(t, ok)
	assert.Equal(t, value.String("localhost"), v)
	assert.Equal(t, value.Int64(10), lookup(t, tree, "limits.max"))
	assert.Equal(t, value.Array(value.Int64(1), value.Int64(2)), lookup(t, tree, "ids"))

	assert.NoError(t, New(emptyEnv()).WithValues(nil).Err())
}

func TestWithStruct(t *testing.T) {
	type limits struct {
		Max int `config:"max"`
	}
	type defaults struct {
		Name   string `config:"name"`
		Limits limits `config:"limits"`
		Plain  bool
	}

	for name, src := range map[string]any{"value": defaults{Name: "svc", Limits: limits{Max: 3}}, "pointer": &defaults{Name: "svc", Limits: limits{Max: 3}}} {
		t.Run(name, func(t *testing.T) {
			c := New(emptyEnv()).WithStruct(src)
			tree := mustTree(t, c)

			assert.Equal(t, value.String("svc"), lookup(t, tree, "name"))
			assert.Equal(t, value.Int64(3), lookup(t, tree, "limits.max"))
			assert.Equal(t, value.Bool(false), lookup(t, tree, "Plain"))
			assert.Equal(t, "struct:config.defaults", c.Sources()[1])
		})
	}
}

func TestWithStructRejectsNonStruct(t *testing.T) {
	var nilPtr *serverConfig
	for name, src := range map[string]any{"map": map[string]any{}, "nil pointer": nilPtr, "int": 1} {
		t.Run(name, func(t *testing.T) {
			err := New(emptyEnv()).WithStruct(src).Err()
			assert.True(t, errors.Is(err, ErrParse))
			assert.Contains(t, err.Error(), "struct source must be a struct")
		})
	}
}

func TestWithValueConversionFailure(t *testing.T) {
	err := New(emptyEnv()).WithValue("ch", make(chan int)).Err()

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
	assert.Contains(t, err.Error(), "value for key ch")
}

func TestWithFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("server.port", 80, "port")
	fs.String("mode", "dev", "mode")
	fs.StringSlice("peers", nil, "peers")
	require.NoError(t, fs.Parse([]string{"--server.port=9000", "--peers=a,b"}))

	tree := mustTree(t, New(emptyEnv()).WithFlags(fs))

	assert.Equal(t, value.Int64(9000), lookup(t, tree, "server.port"))
	assert.Equal(t, value.Array(value.String("a"), value.String("b")), lookup(t, tree, "peers"))
	_, ok := tree.Get("mode")
	assert.False(t, ok, "unchanged flags are not sources")

	assert.True(t, errors.Is(New(emptyEnv()).WithFlags(nil).Err(), ErrParse))
}

func TestWithEnvTree(t *testing.T) {
	c := New(WithEnviron([]string{
		"APP_DB__PORT=5432",
		"APP_DB__HOST=db.local",
		"APP_MODE=prod",
		"HOME=/root",
	})).
		WithEnvPrefix("HOME").
		WithEnvTree("APP_", "__")

	tree := mustTree(t, c)

	assert.Equal(t, value.Int64(5432), lookup(t, tree, "db.port"))
	assert.Equal(t, value.String("db.local"), lookup(t, tree, "db.host"))
	assert.Equal(t, value.String("prod"), lookup(t, tree, "mode"))
	assert.Equal(t, value.String("/root"), lookup(t, tree, "HOME"))
	assert.Equal(t, "env:APP_", c.Sources()[1])
}

func TestSolversRunAfterMerge(t *testing.T) {
	c := New(emptyEnv()).
		WithValue("host", "db.local").
		WithValue("port", 5432).
		WithValue("dsn", "postgres://${host}:${port}/app").
		WithValue("target", "${port}").
		WithDefaultSolvers()

	tree := mustTree(t, c)

	assert.Equal(t, value.String("postgres://db.local:5432/app"), lookup(t, tree, "dsn"))
	assert.Equal(t, value.Int64(5432), lookup(t, tree, "target"))
}

func TestSolverPasses(t *testing.T) {
	base := New(emptyEnv()).
		WithValue("a", "${b}").
		WithValue("b", "${c}").
		WithValue("c", "final").
		WithDefaultSolvers()

	one := mustTree(t, base)
	assert.Equal(t, value.String("${c}"), lookup(t, one, "a"))

	three := mustTree(t, base.WithSolverPasses(3))
	assert.Equal(t, value.String("final"), lookup(t, three, "a"))
}

func TestSolverFailureIsBuildError(t *testing.T) {
	failing := solvers.SolverFunc(func(value.Value) (value.Value, error) {
		return value.None(), errors.New("boom")
	})
	c := New(emptyEnv()).
		WithValue("a", 1).
		WithSolvers(failing)

	_, err := c.Tree()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBuild))
	assert.True(t, strings.HasPrefix(err.Error(), "[CONFIG][ERROR] Failed building config: solving references"))
}

func TestBuild(t *testing.T) {
	c := New(WithEnviron([]string{"UNRELATED=1"})).
		WithJSON(fixture("app.json")).
		WithYAML(fixture("database.yaml")).
		WithEnv(fixture(".env"))

	cfg, err := Build[appConfig](c)
	require.NoError(t, err)

	assert.Equal(t, appConfig{
		Name:  "confmerge",
		Port:  8080,
		Ratio: 1.0,
		Tags:  []string{"edge", "blue"},
		Server: serverConfig{
			Host:    "localhost",
			Timeout: 30 * time.Second,
		},
		Database: databaseConfig{
			Host:     "db.local",
			Port:     5432,
			Pool:     10,
			Replicas: []string{"db-1.local", "db-2.local"},
		},
		LogLevel: "debug",
		Workers:  4,
	}, cfg)
}

func TestBuildWithOptions(t *testing.T) {
	type limits struct {
		Name    string                `config:"name"`
		Retries cfgx.Optional[int]    `config:"retries"`
		Mode    string                `config:"mode" default:"safe"`
		Extra   cfgx.Optional[string] `config:"extra"`
	}

	c := New(emptyEnv()).WithValue("name", "  svc  ").WithValue("retries", 3)

	out, err := Build[limits](c, cfgx.WithTransformStrings[limits](cfgx.TrimSpace))
	require.NoError(t, err)

	assert.Equal(t, "svc", out.Name)
	assert.Equal(t, cfgx.Optional[int]{V: 3, Valid: true}, out.Retries)
	assert.Equal(t, "safe", out.Mode)
	assert.False(t, out.Extra.Valid)
}

func TestBuildSerdeErrors(t *testing.T) {
	t.Run("missing field", func(t *testing.T) {
		c := New(emptyEnv()).WithJSON(fixture("app.json"))

		_, err := Build[appConfig](c)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrSerde))

		var ce *ConfigError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, "database", ce.Path)
		assert.True(t, strings.HasPrefix(err.Error(), "[CONFIG][ERROR] Deserialization error: database"))
	})

	t.Run("type mismatch", func(t *testing.T) {
		type portOnly struct {
			Port int `config:"port"`
		}
		c := New(emptyEnv()).WithValue("port", "eighty")

		_, err := Build[portOnly](c)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrSerde))

		var de *cfgx.DecodeError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, cfgx.ReasonTypeMismatch, de.Reason)
	})

	t.Run("no widening", func(t *testing.T) {
		type ratioOnly struct {
			Ratio float64 `config:"ratio"`
		}
		c := New(emptyEnv()).WithValue("ratio", 1)

		_, err := Build[ratioOnly](c)
		assert.True(t, errors.Is(err, ErrSerde))
	})
}

func TestBuildValidatorFailureIsBuildError(t *testing.T) {
	type named struct {
		Name string `config:"name"`
	}
	c := New(emptyEnv()).WithValue("name", "")

	_, err := Build[named](c, cfgx.WithValidatorFunc(func(n named) error {
		if n.Name == "" {
			return errors.New("name is required")
		}
		return nil
	}))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBuild))
	assert.True(t, errors.Is(err, cfgx.ErrValidate))
	assert.Contains(t, err.Error(), "name is required")
}

func TestDecode(t *testing.T) {
	c := New(emptyEnv()).WithTOML(fixture("cache.toml"))

	var out struct {
		Cache struct {
			Enabled bool    `config:"enabled"`
			TTL     int     `config:"ttl"`
			Ratio   float64 `config:"ratio"`
		} `config:"cache"`
	}
	require.NoError(t, c.Decode(&out))
	assert.True(t, out.Cache.Enabled)
	assert.Equal(t, 30, out.Cache.TTL)
	assert.Equal(t, 0.75, out.Cache.Ratio)

	var m map[string]any
	require.NoError(t, c.Decode(&m))
	assert.Contains(t, m, "cache")
}

func TestLoggerReceivesSourceEvents(t *testing.T) {
	var buf bytes.Buffer
	lgr := logger.NewDefaultLoggerTo("config", &buf)

	c := New(WithoutEnvironment(), WithLogger(lgr)).
		WithValue("a", 1).
		WithValue("a", 2)

	require.Error(t, c.Err())
	out := buf.String()
	assert.Contains(t, out, "source applied")
	assert.Contains(t, out, "value:a")
	assert.Contains(t, out, "config source failed")
}
