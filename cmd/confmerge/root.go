package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-confmerge/config"
	"github.com/goliatone/go-confmerge/logger"
	"github.com/goliatone/go-confmerge/value"
)

// sourceFlags are the persistent flags every subcommand assembles from.
type sourceFlags struct {
	envFiles      []string
	jsonFiles     []string
	yamlFiles     []string
	tomlFiles     []string
	files         []string
	optionalFiles []string
	set           []string
	envTree       string
	envTreeDelim  string
	prefix        string
	overwrite     bool
	noEnviron     bool
	solve         bool
	passes        int
	verbose       bool
}

func NewRootCommand(version string) *cobra.Command {
	flags := &sourceFlags{}

	rootCmd := &cobra.Command{
		Use:   "confmerge",
		Short: "Assemble configuration from env, files and overrides",
		Long: `confmerge merges the process environment, dotenv files, JSON, YAML and
TOML documents and explicit overrides into one configuration tree.

Sources are applied in this order: environment, --env-file, --set, --json,
--yaml, --toml, --file, --optional-file, --env-tree. A key defined twice is an
error unless --overwrite is given. Entries from structured documents win over
environment style entries.

Example:
  confmerge dump --env-file .env --yaml config.yaml --format toml
  confmerge get database.port --file config.json --prefix APP_`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringArrayVar(&flags.envFiles, "env-file", nil, "dotenv file (repeatable)")
	pf.StringArrayVar(&flags.jsonFiles, "json", nil, "JSON document (repeatable)")
	pf.StringArrayVar(&flags.yamlFiles, "yaml", nil, "YAML document (repeatable)")
	pf.StringArrayVar(&flags.tomlFiles, "toml", nil, "TOML document (repeatable)")
	pf.StringArrayVar(&flags.files, "file", nil, "document, format inferred from the name (repeatable)")
	pf.StringArrayVar(&flags.optionalFiles, "optional-file", nil, "like --file, skipped when missing (repeatable)")
	pf.StringArrayVar(&flags.set, "set", nil, "KEY=VALUE override, value coerced to bool, int or float (repeatable)")
	pf.StringVar(&flags.envTree, "env-tree", "", "read variables with this prefix as a nested tree")
	pf.StringVar(&flags.envTreeDelim, "env-tree-delim", "__", "level separator for --env-tree")
	pf.StringVar(&flags.prefix, "prefix", "", "keep only environment style keys with this prefix")
	pf.BoolVar(&flags.overwrite, "overwrite", false, "let later sources replace earlier keys")
	pf.BoolVar(&flags.noEnviron, "no-environ", false, "do not seed from the process environment")
	pf.BoolVar(&flags.solve, "solve", false, "resolve ${var}, @file:// and {{ expr }} references")
	pf.IntVar(&flags.passes, "passes", 1, "maximum reference resolution passes")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log every applied source to stderr")

	rootCmd.AddCommand(newDumpCommand(flags))
	rootCmd.AddCommand(newGetCommand(flags))
	rootCmd.AddCommand(newSourcesCommand(flags))

	return rootCmd
}

// assemble builds the Config described by the flags.
func (f *sourceFlags) assemble(cmd *cobra.Command) (config.Config, error) {
	var opts []config.Option
	if f.noEnviron {
		opts = append(opts, config.WithoutEnvironment())
	}
	if f.verbose {
		w := zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: "15:04:05"}
		opts = append(opts, config.WithLogger(logger.NewDefaultLoggerTo("confmerge", w)))
	}

	c := config.New(opts...)
	if f.overwrite {
		c = c.WithOverwrite()
	}
	if f.prefix != "" {
		c = c.WithEnvPrefix(f.prefix)
	}

	for _, path := range f.envFiles {
		c = c.WithEnv(path)
	}
	for _, kv := range f.set {
		key, raw, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return c, fmt.Errorf("invalid --set %q, expected KEY=VALUE", kv)
		}
		c = c.WithValue(key, value.Coerce(raw))
	}
	for _, path := range f.jsonFiles {
		c = c.WithJSON(path)
	}
	for _, path := range f.yamlFiles {
		c = c.WithYAML(path)
	}
	for _, path := range f.tomlFiles {
		c = c.WithTOML(path)
	}
	for _, path := range f.files {
		c = c.WithFile(path)
	}
	for _, path := range f.optionalFiles {
		c = c.WithOptionalFile(path)
	}
	if f.envTree != "" {
		c = c.WithEnvTree(f.envTree, f.envTreeDelim)
	}
	if f.solve {
		c = c.WithDefaultSolvers().WithSolverPasses(f.passes)
	}

	return c, c.Err()
}

func (f *sourceFlags) tree(cmd *cobra.Command) (value.Value, error) {
	c, err := f.assemble(cmd)
	if err != nil {
		return value.None(), err
	}
	return c.Tree()
}
