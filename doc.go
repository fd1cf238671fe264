// Package goentity provides entity classes for Go: declared attributes with
// kinds and multiplicities, behavior methods, and a single-inheritance
// specialization tree with validated instances and pluggable persistence.
//
// The module is organized into these packages:
//
//   - [github.com/CaliLuke/go-entity/entity]: attributes, specifications, the specialization tree, instances and the adapter contract
//   - [github.com/CaliLuke/go-entity/classes]: generalization of static members between classes
//   - [github.com/CaliLuke/go-entity/schema]: .ent and YAML schema loading, and Go code generation from schemas
//   - [github.com/CaliLuke/go-entity/adapters/sqlite]: adapter storing instances in SQLite
//
// The entityc command (cmd/entityc) loads a schema, prints the tree, and
// validates and stores records from YAML files.
package goentity
