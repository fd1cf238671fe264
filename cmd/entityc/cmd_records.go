package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/CaliLuke/go-entity/entity"
)

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [entity] [records.yaml]",
		Short: "Validate records against an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := a.loadTree()
			if err != nil {
				return err
			}
			c, err := lookupClass(tree, args[0])
			if err != nil {
				return err
			}
			recs, err := readRecords(args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			invalid := 0
			for i, rec := range recs {
				inst, err := buildInstance(c, rec)
				if err == nil {
					err = inst.Validate()
				}
				if err != nil {
					invalid++
					fmt.Fprintf(out, "record %d: invalid: %v\n", i+1, err)
					continue
				}
				fmt.Fprintf(out, "record %d: ok\n", i+1)
			}
			if invalid > 0 {
				return errors.Newf("%d of %d records invalid", invalid, len(recs))
			}
			return nil
		},
	}
}

func (a *app) saveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save [entity] [records.yaml]",
		Short: "Validate records and store them",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tree, err := a.loadTree()
			if err != nil {
				return err
			}
			c, err := lookupClass(tree, args[0])
			if err != nil {
				return err
			}
			recs, err := readRecords(args[1])
			if err != nil {
				return err
			}
			store, err := a.openStore(ctx, tree)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			for i, rec := range recs {
				inst, err := buildInstance(c, rec)
				if err != nil {
					return errors.Wrapf(err, "record %d", i+1)
				}
				if err := inst.Save(ctx); err != nil {
					return errors.Wrapf(err, "record %d", i+1)
				}
				fmt.Fprintln(cmd.OutOrStdout(), inst.ID())
			}
			a.logger.Info("records saved", zap.String("entity", c.Name()), zap.Int("count", len(recs)))
			return nil
		},
	}
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [entity] [id]",
		Short: "Print a stored record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tree, err := a.loadTree()
			if err != nil {
				return err
			}
			c, err := lookupClass(tree, args[0])
			if err != nil {
				return err
			}
			store, err := a.openStore(ctx, tree)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			inst, err := store.Find(ctx, c, args[1])
			if err != nil {
				return err
			}
			return writeDocs(cmd.OutOrStdout(), []*entity.Instance{inst})
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [entity]",
		Short: "Print every stored record of an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tree, err := a.loadTree()
			if err != nil {
				return err
			}
			c, err := lookupClass(tree, args[0])
			if err != nil {
				return err
			}
			store, err := a.openStore(ctx, tree)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			insts, err := store.List(ctx, c)
			if err != nil {
				return err
			}
			return writeDocs(cmd.OutOrStdout(), insts)
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [entity] [id]",
		Short: "Delete a stored record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tree, err := a.loadTree()
			if err != nil {
				return err
			}
			c, err := lookupClass(tree, args[0])
			if err != nil {
				return err
			}
			store, err := a.openStore(ctx, tree)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			inst, err := store.Find(ctx, c, args[1])
			if err != nil {
				return err
			}
			if err := inst.Delete(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %s\n", inst.Entity().Name(), inst.ID())
			return nil
		},
	}
}
