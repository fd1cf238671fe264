package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/CaliLuke/go-entity/schema"
)

func (a *app) genCmd() *cobra.Command {
	cfg := schema.DefaultConfig()
	var outFile string

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate Go code that registers the schema entities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := schema.Load(a.cfg.Schema.Path)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if outFile != "" {
				f, err := os.Create(outFile)
				if err != nil {
					return errors.Wrap(err, "creating output")
				}
				defer func() { _ = f.Close() }()
				w = f
			}
			if err := schema.Render(w, s, cfg); err != nil {
				return errors.Wrap(err, "rendering")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", "", "output Go file (default: stdout)")
	cmd.Flags().StringVar(&cfg.PackageName, "pkg", cfg.PackageName, "package name for generated code")
	cmd.Flags().StringVar(&cfg.ModulePath, "entity-import", cfg.ModulePath, "import path of the entity package")
	cmd.Flags().BoolVar(&cfg.UseAcronyms, "acronyms", cfg.UseAcronyms, "apply Go naming conventions for acronyms (ID, URL, etc.)")
	cmd.Flags().BoolVar(&cfg.AttributeConstants, "attribute-constants", cfg.AttributeConstants, "generate a name constant per attribute")
	cmd.Flags().StringVar(&cfg.SchemaVersion, "schema-version", "", "schema version string (included in generated header)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the entityc version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "entityc %s\n", version)
		},
	}
}
