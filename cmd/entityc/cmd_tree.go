package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CaliLuke/go-entity/entity"
)

func (a *app) treeCmd() *cobra.Command {
	var showAttributes bool

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the specialization tree of the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := a.loadTree()
			if err != nil {
				return err
			}
			return printTree(cmd.OutOrStdout(), tree, showAttributes)
		},
	}

	cmd.Flags().BoolVarP(&showAttributes, "attributes", "a", false, "list the attributes declared by each entity")
	return cmd
}

func printTree(w io.Writer, tree *entity.Tree, showAttributes bool) error {
	return tree.Walk(func(c *entity.Class, depth int) error {
		indent := strings.Repeat("  ", depth)
		var flags []string
		if c.IsAbstract() {
			flags = append(flags, "abstract")
		}
		if !c.IsRoot() && (c.General().IsRoot() || c.AdapterName() != c.General().AdapterName()) {
			flags = append(flags, "adapter="+c.AdapterName())
		}
		line := indent + c.Name()
		if len(flags) > 0 {
			line += " (" + strings.Join(flags, ", ") + ")"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		if !showAttributes {
			return nil
		}
		for _, attr := range c.Specification().Attributes().All() {
			if _, err := fmt.Fprintf(w, "%s  - %s\n", indent, describeAttribute(attr)); err != nil {
				return err
			}
		}
		return nil
	})
}

func describeAttribute(attr *entity.Attribute) string {
	typ := attr.Type()
	if k, ok := attr.Kind().(*entity.AssociationKind); ok {
		typ = "-> " + k.Target()
	}
	s := fmt.Sprintf("%s: %s [%s]", attr.Name(), typ, attr.Multiplicity())
	if d := attr.Default(); d != nil {
		s += fmt.Sprintf(" = %v", d)
	}
	return s
}
