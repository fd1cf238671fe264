// entityc loads entity schemas, validates records against them and stores
// records through the sqlite adapter.
//
// Usage:
//
//	entityc tree [--attributes]
//	entityc validate <entity> <records.yaml>
//	entityc save <entity> <records.yaml>
//	entityc get <entity> <id>
//	entityc list <entity>
//	entityc delete <entity> <id>
//	entityc gen [--pkg models] [--out entities_gen.go]
//	entityc version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/CaliLuke/go-entity/adapters/sqlite"
	"github.com/CaliLuke/go-entity/entity"
	"github.com/CaliLuke/go-entity/internal/config"
	"github.com/CaliLuke/go-entity/internal/logging"
	"github.com/CaliLuke/go-entity/schema"
)

const version = "0.1.0"

// app carries the state shared by the subcommands of one invocation.
type app struct {
	configFile string
	schemaPath string

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	root := newRootCmd()
	root.SetContext(ctx)

	err := root.Execute()
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "entityc",
		Short:         "entityc works with entity schemas and their records",
		Long:          "entityc loads .ent and YAML entity schemas, prints the specialization tree, validates records and persists them in SQLite.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configFile)
			if err != nil {
				return errors.Wrap(err, "loading config")
			}
			if a.schemaPath != "" {
				cfg.Schema.Path = a.schemaPath
			}
			logger, err := logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return err
			}
			a.cfg, a.logger = cfg, logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default: entityc.yaml in . or $HOME/.entityc)")
	root.PersistentFlags().StringVarP(&a.schemaPath, "schema", "s", "", "schema file or directory (overrides schema.path)")

	root.AddCommand(
		a.treeCmd(),
		a.validateCmd(),
		a.saveCmd(),
		a.getCmd(),
		a.listCmd(),
		a.deleteCmd(),
		a.genCmd(),
		versionCmd(),
	)
	return root
}

// loadTree parses the configured schema into a fresh tree.
func (a *app) loadTree() (*entity.Tree, error) {
	s, err := schema.Load(a.cfg.Schema.Path)
	if err != nil {
		return nil, err
	}
	tree := entity.NewTree(entity.WithLogger(a.logger))
	if _, err := s.Apply(tree); err != nil {
		return nil, err
	}
	a.logger.Debug("schema loaded",
		zap.String("path", a.cfg.Schema.Path),
		zap.Int("entities", tree.Len()-1),
	)
	return tree, nil
}

// openStore opens the sqlite adapter and registers it on tree under the
// configured name and, when that differs, the default adapter name.
func (a *app) openStore(ctx context.Context, tree *entity.Tree) (*sqlite.Adapter, error) {
	store, err := sqlite.Open(ctx, a.cfg.Adapter.DSN,
		sqlite.WithName(a.cfg.Adapter.Name),
		sqlite.WithLogger(a.logger),
	)
	if err != nil {
		return nil, err
	}
	names := []string{a.cfg.Adapter.Name}
	if a.cfg.Adapter.Name != entity.DefaultAdapterName {
		names = append(names, entity.DefaultAdapterName)
	}
	for _, name := range names {
		if err := tree.RegisterAdapter(name, store); err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	return store, nil
}

// lookupClass returns the class called name, rejecting the root.
func lookupClass(tree *entity.Tree, name string) (*entity.Class, error) {
	c, ok := tree.Lookup(name)
	if !ok || c.IsRoot() {
		return nil, errors.WithStack(&entity.EntityNotFoundError{Name: name})
	}
	return c, nil
}
