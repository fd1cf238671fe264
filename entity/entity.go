package entity

import (
	"sort"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/CaliLuke/go-entity/classes"
)

// Static property keys set on every class node.
const (
	staticAdapterName = "adapterName"
	staticDataName    = "dataName"
)

// Class is one entity class of a Tree. Classes are created by Specify and
// live as long as their tree. All exported accessors return values that
// cannot be used to modify the class.
type Class struct {
	tree       *Tree
	node       *classes.Class
	spec       *Specification
	general    *Class
	attributes *AttributeCollection
	methods    *MethodCollection

	// guarded by tree.mu
	direct map[string]*Class
	all    map[string]*Class
}

func newRootClass(t *Tree) *Class {
	spec := &Specification{
		name:       RootName,
		attributes: (&AttributeCollection{byName: map[string]*Attribute{}}).freeze(),
		methods:    &MethodCollection{byName: map[string]Method{}},
		isAbstract: true,
		dataName:   DataName{single: RootName},
	}
	return &Class{
		tree: t,
		node: classes.MustNew(RootName, map[string]any{
			staticAdapterName: DefaultAdapterName,
			staticDataName:    spec.dataName,
		}),
		spec:       spec,
		attributes: spec.attributes,
		methods:    spec.methods,
		direct:     map[string]*Class{},
		all:        map[string]*Class{},
	}
}

// Specify creates a specialization of c. args take any shape accepted by
// ParseSpecification. The new class inherits c's attributes and methods;
// its own declarations override inherited ones of the same name.
func (c *Class) Specify(args ...any) (*Class, error) {
	spec, err := ParseSpecification(args...)
	if err != nil {
		return nil, err
	}
	if spec.name == "" {
		return nil, assertf("entity name is required when specifying an entity")
	}
	if err := ValidateIdentifier(spec.name, "entity"); err != nil {
		return nil, errors.WithStack(err)
	}

	t := c.tree
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.byName[spec.name]; ok {
		return nil, errors.WithStack(&DuplicateNameError{Name: spec.name, Context: "entity"})
	}

	attrs := c.attributes.clone()
	for _, a := range spec.attributes.All() {
		attrs.set(a)
	}
	methods := c.methods
	for _, name := range spec.methods.Names() {
		fn, _ := spec.methods.Get(name)
		if methods.Has(name) {
			methods = methods.override(name, fn)
			continue
		}
		if methods, err = Concat(methods, fn, name); err != nil {
			return nil, err
		}
	}

	statics := map[string]any{staticDataName: spec.dataName}
	if spec.adapterName != "" {
		statics[staticAdapterName] = spec.adapterName
	}
	node, err := classes.New(spec.name, statics)
	if err != nil {
		return nil, err
	}
	if err := classes.Generalize(c.node, node); err != nil {
		return nil, err
	}

	s := &Class{
		tree:       t,
		node:       node,
		spec:       spec,
		general:    c,
		attributes: attrs.freeze(),
		methods:    methods,
		direct:     map[string]*Class{},
		all:        map[string]*Class{},
	}

	for _, a := range spec.attributes.All() {
		if ak, ok := a.kind.(*AssociationKind); ok {
			if err := ak.ref.attach(t); err != nil {
				return nil, errors.Wrapf(err, "entity %q attribute %q", spec.name, a.name)
			}
		}
	}

	t.byName[s.Name()] = s
	c.direct[s.Name()] = s
	for a := c; a != nil; a = a.general {
		a.all[s.Name()] = s
	}

	t.logger.Debug("entity specified",
		zap.String("entity", s.Name()),
		zap.String("general", c.Name()),
		zap.Strings("attributes", attrs.Names()),
		zap.Strings("methods", methods.Names()),
	)
	return s, nil
}

// Name returns the class name.
func (c *Class) Name() string { return c.spec.name }

// Tree returns the tree the class belongs to.
func (c *Class) Tree() *Tree { return c.tree }

// General returns the immediate general class, or nil for the root.
func (c *Class) General() *Class { return c.general }

// IsRoot reports whether c is the root of its tree.
func (c *Class) IsRoot() bool { return c.general == nil }

// Node returns the class node in the generalization chain.
func (c *Class) Node() *classes.Class { return c.node }

// Specification returns the class's own specification.
func (c *Class) Specification() *Specification { return c.spec }

// Attributes returns the consolidated attributes: inherited ones first,
// own ones appended, overrides at the inherited position. The collection is
// frozen.
func (c *Class) Attributes() *AttributeCollection { return c.attributes }

// Methods returns the consolidated methods.
func (c *Class) Methods() *MethodCollection { return c.methods }

// IsAbstract reports whether the class was declared abstract.
func (c *Class) IsAbstract() bool { return c.spec.isAbstract }

// AdapterName returns the name of the adapter instances of c persist
// through. It is inherited from the general class unless declared.
func (c *Class) AdapterName() string {
	v, _ := c.node.Static(staticAdapterName)
	s, _ := v.(string)
	return s
}

// DataName returns the storage name of the class for an adapter, falling
// back to the class name.
func (c *Class) DataName(adapterName string) string {
	if n, ok := c.spec.dataName.For(adapterName); ok {
		return n
	}
	return c.Name()
}

// DirectSpecializations returns a snapshot of the immediate specializations.
func (c *Class) DirectSpecializations() Registry {
	c.tree.mu.RLock()
	defer c.tree.mu.RUnlock()
	return newRegistry(c.direct)
}

// Specializations returns a snapshot of all transitive specializations.
func (c *Class) Specializations() Registry {
	c.tree.mu.RLock()
	defer c.tree.mu.RUnlock()
	return newRegistry(c.all)
}

// GetSpecialization returns c itself when name is c's name, or the
// transitive specialization called name.
func (c *Class) GetSpecialization(name string) (*Class, error) {
	if name == c.Name() {
		return c, nil
	}
	c.tree.mu.RLock()
	defer c.tree.mu.RUnlock()
	s, ok := c.all[name]
	if !ok {
		return nil, errors.WithStack(&EntityNotFoundError{Name: name})
	}
	return s, nil
}

// Ancestors returns the general classes of c, nearest first.
func (c *Class) Ancestors() []*Class {
	var out []*Class
	for a := c.general; a != nil; a = a.general {
		out = append(out, a)
	}
	return out
}

// IsGeneralOf reports whether c is a proper ancestor of o.
func (c *Class) IsGeneralOf(o *Class) bool {
	if o == nil {
		return false
	}
	return classes.IsGeneral(c.node, o.node)
}

// IsSpecificOf reports whether o is a proper ancestor of c.
func (c *Class) IsSpecificOf(o *Class) bool {
	return o != nil && o.IsGeneralOf(c)
}

// Factory builds instances of one class. Each values map is applied in
// order; attributes left unset receive their default value.
type Factory func(values ...map[string]any) (*Instance, error)

// New returns a factory for c or, when a name is given, for c's
// specialization of that name. Abstract classes other than the root cannot
// be instantiated.
func (c *Class) New(name ...string) (Factory, error) {
	if len(name) > 1 {
		return nil, assertf("invalid arguments length when creating a factory for %q (it has to be passed 0 or 1 arguments)", c.Name())
	}
	target := c
	if len(name) == 1 {
		var err error
		if target, err = c.GetSpecialization(name[0]); err != nil {
			return nil, err
		}
	}
	if target.IsAbstract() && !target.IsRoot() {
		return nil, assertf("entity %q is abstract and cannot be instantiated", target.Name())
	}
	return func(values ...map[string]any) (*Instance, error) {
		return target.newInstance(values...)
	}, nil
}

// MustNew is like New followed by a call to the factory; it panics on error.
func (c *Class) MustNew(values ...map[string]any) *Instance {
	f, err := c.New()
	if err != nil {
		panic(err)
	}
	inst, err := f(values...)
	if err != nil {
		panic(err)
	}
	return inst
}

func (c *Class) walk(depth int, fn func(*Class, int) error) error {
	if err := fn(c, depth); err != nil {
		return err
	}
	children := c.DirectSpecializations().All()
	for _, child := range children {
		if err := child.walk(depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

// Registry is an immutable snapshot of a class registry keyed by name.
type Registry struct {
	names  []string
	byName map[string]*Class
}

func newRegistry(m map[string]*Class) Registry {
	r := Registry{byName: make(map[string]*Class, len(m))}
	for k, v := range m {
		r.byName[k] = v
		r.names = append(r.names, k)
	}
	sort.Strings(r.names)
	return r
}

// Get returns the class called name.
func (r Registry) Get(name string) (*Class, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Has reports whether name is present.
func (r Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Names returns the sorted class names.
func (r Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of classes.
func (r Registry) Len() int { return len(r.names) }

// All returns the classes sorted by name.
func (r Registry) All() []*Class {
	out := make([]*Class, len(r.names))
	for i, n := range r.names {
		out[i] = r.byName[n]
	}
	return out
}
