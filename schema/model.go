// Package schema loads entity declarations from schema files and applies
// them to an entity tree. Two formats are supported: the .ent DSL and YAML.
package schema

import (
	"sort"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/CaliLuke/go-entity/entity"
)

// ParsedSchema holds the entity declarations of one or more schema files in
// declaration order.
type ParsedSchema struct {
	// Entities is a list of all entity declarations in the schema.
	Entities []EntitySpec
}

// EntitySpec describes one entity declaration.
type EntitySpec struct {
	// Name is the name of the entity.
	Name string
	// Parent is the name of the general entity; empty means the root.
	Parent string
	// Abstract indicates whether the entity is declared abstract.
	Abstract bool
	// DataName is the storage name of the entity.
	DataName DataNameSpec
	// Adapter is the adapter name declared with @adapter.
	Adapter string
	// Attributes is the entity's own attributes.
	Attributes []AttributeSpec
	// Line is the source line of the declaration, zero when unknown.
	Line int
}

// AttributeSpec describes one attribute declaration.
type AttributeSpec struct {
	// Name is the attribute name.
	Name string
	// Type is a kind name or, for associations, an entity name.
	Type string
	// Multiplicity is one of "1", "0..1", "1..*" or "*"; empty means "1".
	Multiplicity string
	// Default is the default literal, valid when HasDefault is set.
	Default    any
	HasDefault bool
	// DataName is the storage name of the attribute.
	DataName DataNameSpec
}

// DataNameSpec is a storage name: a single name or a per-adapter mapping.
type DataNameSpec struct {
	Single     string
	PerAdapter map[string]string
}

// IsZero reports whether no data name was declared.
func (d DataNameSpec) IsZero() bool { return d.Single == "" && len(d.PerAdapter) == 0 }

func (d DataNameSpec) value() any {
	switch {
	case d.Single != "":
		return d.Single
	case len(d.PerAdapter) > 0:
		return d.PerAdapter
	}
	return nil
}

// Lookup returns the declaration of the entity called name.
func (s *ParsedSchema) Lookup(name string) (*EntitySpec, bool) {
	for i := range s.Entities {
		if s.Entities[i].Name == name {
			return &s.Entities[i], true
		}
	}
	return nil, false
}

// Merge appends the declarations of other. Entity names must stay unique.
func (s *ParsedSchema) Merge(other *ParsedSchema) error {
	if other == nil {
		return nil
	}
	for _, e := range other.Entities {
		if _, ok := s.Lookup(e.Name); ok {
			return errors.WithStack(&entity.DuplicateNameError{Name: e.Name, Context: "entity"})
		}
		s.Entities = append(s.Entities, e)
	}
	return nil
}

// Order returns the declarations sorted so that every entity follows its
// parent when the parent is declared in the schema. Declaration order is
// kept otherwise. Duplicate names and inheritance cycles fail.
func (s *ParsedSchema) Order() ([]EntitySpec, error) {
	byName := make(map[string]int, len(s.Entities))
	for i, e := range s.Entities {
		if _, ok := byName[e.Name]; ok {
			return nil, errors.WithStack(&entity.DuplicateNameError{Name: e.Name, Context: "entity"})
		}
		byName[e.Name] = i
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(s.Entities))
	out := make([]EntitySpec, 0, len(s.Entities))

	var visit func(i int, path []string) error
	visit = func(i int, path []string) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			return errors.Newf("schema: inheritance cycle %v", append(path, s.Entities[i].Name))
		}
		state[i] = visiting
		e := s.Entities[i]
		if p, ok := byName[e.Parent]; ok {
			if err := visit(p, append(path, e.Name)); err != nil {
				return err
			}
		}
		state[i] = done
		out = append(out, e)
		return nil
	}
	for i := range s.Entities {
		if err := visit(i, nil); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Apply specifies every entity of the schema on tree, parents first. Every
// declaration is checked before anything is specified: an unknown parent, a
// name already present in tree or an invalid attribute leaves tree
// unchanged. The returned classes follow the applied order.
func (s *ParsedSchema) Apply(tree *entity.Tree) ([]*entity.Class, error) {
	ordered, err := s.Order()
	if err != nil {
		return nil, err
	}

	declared := make(map[string]bool, len(ordered))
	for _, e := range ordered {
		declared[e.Name] = true
	}
	for _, e := range ordered {
		if e.Parent == "" || declared[e.Parent] {
			continue
		}
		if _, ok := tree.Lookup(e.Parent); !ok {
			return nil, errors.Wrapf(&entity.EntityNotFoundError{Name: e.Parent}, "schema: parent of %q (line %d)", e.Name, e.Line)
		}
	}
	for _, e := range ordered {
		if _, ok := tree.Lookup(e.Name); ok {
			return nil, errors.Wrapf(&entity.DuplicateNameError{Name: e.Name, Context: "entity"}, "schema: entity %q (line %d)", e.Name, e.Line)
		}
		if _, err := entity.NewSpecification(e.Config()); err != nil {
			return nil, errors.Wrapf(err, "schema: entity %q (line %d)", e.Name, e.Line)
		}
	}

	classes := make([]*entity.Class, 0, len(ordered))
	for _, e := range ordered {
		general := tree.Root()
		if e.Parent != "" {
			g, ok := tree.Lookup(e.Parent)
			if !ok {
				return classes, errors.WithStack(&entity.EntityNotFoundError{Name: e.Parent})
			}
			general = g
		}
		c, err := general.Specify(e.Config())
		if err != nil {
			return classes, errors.Wrapf(err, "schema: entity %q (line %d)", e.Name, e.Line)
		}
		classes = append(classes, c)
	}
	tree.Logger().Debug("schema applied", zap.Strings("entities", s.Names()))
	return classes, nil
}

// Config converts the declaration to a specification config.
func (e EntitySpec) Config() entity.SpecificationConfig {
	attrs := make([]entity.Descriptor, 0, len(e.Attributes))
	for _, a := range e.Attributes {
		d := entity.Descriptor{
			Name:         a.Name,
			Type:         a.Type,
			Multiplicity: a.Multiplicity,
			DataName:     a.DataName.value(),
		}
		if a.HasDefault {
			d.Default = a.Default
		}
		attrs = append(attrs, d)
	}
	return entity.SpecificationConfig{
		Name:        e.Name,
		Attributes:  attrs,
		IsAbstract:  e.Abstract,
		DataName:    e.DataName.value(),
		AdapterName: e.Adapter,
	}
}

// Names returns the sorted entity names of the schema.
func (s *ParsedSchema) Names() []string {
	names := make([]string, 0, len(s.Entities))
	for _, e := range s.Entities {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}
