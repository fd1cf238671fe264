package entity

import (
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/CaliLuke/go-entity/classes"
)

// AssociationClass is the kind class shared by every association attribute.
var AssociationClass = func() *classes.Class {
	c := classes.MustNew("Association", nil)
	if err := classes.Generalize(AttributeClass, c); err != nil {
		panic(err)
	}
	return c
}()

var associationKeys = []string{"name", "entity", "Entity", "multiplicity", "default", "dataName"}

// AssociationKind is the kind of an attribute whose values are instances of
// another entity. Each association attribute owns its kind, which holds the
// target reference.
type AssociationKind struct {
	ref *entityRef
}

// entityRef is a resolved-or-pending reference to an entity class. A pending
// reference holds only a name and resolves it on first use.
type entityRef struct {
	mu    sync.Mutex
	name  string
	class *Class
	tree  *Tree
}

func (r *entityRef) resolve() (*Class, error) {
	r.mu.Lock()
	c, bound, name := r.class, r.tree, r.name
	r.mu.Unlock()
	if c != nil {
		return c, nil
	}

	tree := bound
	if tree == nil {
		tree = Default()
	}
	c, ok := tree.Lookup(name)
	if !ok {
		return nil, errors.WithStack(&EntityNotFoundError{Name: name})
	}

	r.mu.Lock()
	if r.tree != bound {
		r.mu.Unlock()
		return r.resolve()
	}
	if r.class == nil {
		r.class = c
	}
	c = r.class
	r.mu.Unlock()
	return c, nil
}

// attach binds the reference to the tree of the class that declares the
// attribute. A reference already bound to another tree is rejected.
func (r *entityRef) attach(t *Tree) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bound := r.tree
	if r.class != nil {
		bound = r.class.tree
	}
	if bound != nil && bound != t {
		return assertf("association to %q is already bound to another tree", r.name)
	}
	r.tree = t
	return nil
}

func (r *entityRef) targetName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.class != nil {
		return r.class.Name()
	}
	return r.name
}

// NewAssociationAttribute creates an association attribute. args is either
// a single Descriptor or map[string]any whose "entity" (or "Entity") key
// names the target, or the positional form
// (name, entity, multiplicity?, default?, dataName?).
func NewAssociationAttribute(args ...any) (*Attribute, error) {
	if len(args) == 0 || len(args) > 5 {
		return nil, assertf("invalid arguments length when creating an Association attribute (it has to be passed from 1 to 5 arguments)")
	}
	if len(args) == 1 {
		d, err := descriptorFromValue(args[0], associationKeys)
		if err != nil {
			return nil, err
		}
		var target any
		switch t := d.Type.(type) {
		case entityTarget:
			target = t.v
		case *Class, string:
			target = t
		}
		if target == nil {
			return nil, assertf(`property "entity" or "Entity" is required when creating an Association attribute`)
		}
		return newAssociation(d, target)
	}

	name, ok := args[0].(string)
	if !ok {
		return nil, assertf(`invalid argument "name" when creating an Association attribute (it has to be a string)`)
	}
	d := Descriptor{Name: name}
	rest := args[2:]
	if len(rest) > 0 {
		m, err := multiplicityArg(rest[0])
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %q", name)
		}
		d.Multiplicity = m
	}
	if len(rest) > 1 {
		d.Default = rest[1]
	}
	if len(rest) > 2 {
		d.DataName = rest[2]
	}
	return newAssociation(d, args[1])
}

func newAssociation(d Descriptor, target any) (*Attribute, error) {
	ref := &entityRef{}
	switch t := target.(type) {
	case string:
		if t == "" {
			return nil, assertf(`invalid argument "entity" when creating an Association attribute called %q (it has to be a non-empty string)`, d.Name)
		}
		ref.name = t
	case *Class:
		if t == nil {
			return nil, assertf(`invalid argument "entity" when creating an Association attribute called %q (nil class)`, d.Name)
		}
		ref.name = t.Name()
		ref.class = t
	default:
		return nil, assertf(`invalid argument "entity" when creating an Association attribute called %q (it has to be an entity name or class)`, d.Name)
	}
	return newAttribute(&AssociationKind{ref: ref}, d)
}

// Name returns "Association".
func (k *AssociationKind) Name() string { return AssociationClass.Name() }

// Class returns AssociationClass.
func (k *AssociationKind) Class() *classes.Class { return AssociationClass }

// Target returns the target entity name without resolving it.
func (k *AssociationKind) Target() string { return k.ref.targetName() }

// Entity resolves and returns the target class.
func (k *AssociationKind) Entity() (*Class, error) { return k.ref.resolve() }

// ValidateValue accepts an instance of the target entity or of one of its
// specializations. New or modified instances are validated in turn.
func (k *AssociationKind) ValidateValue(v any) error {
	inst, ok := v.(*Instance)
	if !ok || inst == nil {
		return errors.Newf("this attribute's value should be an instance of %s", k.ref.targetName())
	}
	target, err := k.ref.resolve()
	if err != nil {
		return err
	}
	if inst.class != target && !target.IsGeneralOf(inst.class) {
		return errors.Newf("this attribute's value should be an instance of %s", target.Name())
	}
	if !inst.IsDirty() {
		return nil
	}
	return inst.Validate()
}

// DataValue maps an instance to its ID.
func (k *AssociationKind) DataValue(v any) (any, error) {
	switch inst := v.(type) {
	case *Instance:
		return inst.ID(), nil
	case string:
		return inst, nil
	}
	return nil, errors.Newf("cannot store %T as a reference to %s", v, k.ref.targetName())
}

// ParseDataValue maps a stored ID to a clean instance of the target that
// holds only its ID. Adapters hydrate it on demand.
func (k *AssociationKind) ParseDataValue(v any) (any, error) {
	id, ok := v.(string)
	if !ok {
		return nil, errors.Newf("cannot parse %T as a reference to %s", v, k.ref.targetName())
	}
	target, err := k.ref.resolve()
	if err != nil {
		return nil, err
	}
	return target.Restore(id, nil)
}
