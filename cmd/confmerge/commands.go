package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"github.com/goliatone/go-confmerge/config"
	"github.com/goliatone/go-confmerge/value"
)

func newDumpCommand(flags *sourceFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the merged configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := config.Format(format)
			if err := f.Valid(); err != nil {
				return err
			}

			tree, err := flags.tree(cmd)
			if err != nil {
				return err
			}

			m, _ := tree.Interface().(map[string]any)
			out, err := f.Parser().Marshal(m)
			if err != nil {
				return fmt.Errorf("render %s: %w", f, err)
			}
			if f == config.FormatJSON {
				out = pretty.Pretty(out)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", string(config.FormatJSON), "output format: json, yaml, toml or dotenv")
	return cmd
}

func newGetCommand(flags *sourceFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one value of the merged configuration",
		Long: `Print one value of the merged configuration. Nested values are addressed
with dots and indexes, for example database.replicas[0]. A top-level key that
itself contains dots is matched first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := flags.tree(cmd)
			if err != nil {
				return err
			}

			v, ok := value.Lookup(tree, args[0])
			if !ok {
				return fmt.Errorf("key %q not found", args[0])
			}

			switch v.Kind() {
			case value.KindMap, value.KindArray:
				b, err := json.Marshal(v.Interface())
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(pretty.Pretty(b))
				return err
			case value.KindString:
				s, _ := v.AsString()
				fmt.Fprintln(cmd.OutOrStdout(), s)
			case value.KindNone:
				fmt.Fprintln(cmd.OutOrStdout())
			default:
				fmt.Fprintln(cmd.OutOrStdout(), v.String())
			}
			return nil
		},
	}
}

func newSourcesCommand(flags *sourceFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the sources that were applied, in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.assemble(cmd)
			if err != nil {
				return err
			}
			if _, err := c.Tree(); err != nil {
				return err
			}
			for _, src := range c.Sources() {
				fmt.Fprintln(cmd.OutOrStdout(), src)
			}
			return nil
		},
	}
}
