// Package entity is a schema-driven object model. Entity classes are
// declared by specializing the root class of a Tree with a Specification
// (name, attributes, methods and flags) and form a single-rooted
// generalization tree. Each class carries the consolidated attributes and
// methods of its ancestors, registers itself on every ancestor, and builds
// instances whose values are validated per attribute kind and multiplicity.
//
// A minimal schema:
//
//	person, err := entity.Specify("Person", map[string]any{
//		"name": "String",
//		"tags": entity.Descriptor{Type: "String", Multiplicity: "*"},
//	})
//	if err != nil {
//		return err
//	}
//	newPerson, _ := person.New()
//	p, _ := newPerson(map[string]any{"name": "Ada"})
//	err = p.Validate()
//
// Attribute types name a registered Kind ("Object", "String", "Boolean",
// "Number", "Integer", "Date"). Any other type name declares an association
// to the entity of that name, resolved on first use.
//
// Persistence goes through an Adapter registered on the tree under the
// class's adapter name.
package entity
