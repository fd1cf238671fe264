package entity

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Instance is one record of an entity class. An Instance is not safe for
// concurrent use.
type Instance struct {
	class  *Class
	id     string
	values map[string]any
	isNew  bool
	dirty  map[string]bool

	validating bool
}

func (c *Class) newInstance(values ...map[string]any) (*Instance, error) {
	inst := &Instance{
		class:  c,
		id:     uuid.NewString(),
		values: make(map[string]any, c.attributes.Len()),
		isNew:  true,
		dirty:  map[string]bool{},
	}
	for _, m := range values {
		for _, k := range sortedKeys(m) {
			if err := inst.Set(k, m[k]); err != nil {
				return nil, err
			}
		}
	}
	for _, a := range c.attributes.All() {
		if _, ok := inst.values[a.Name()]; ok {
			continue
		}
		if a.def == nil {
			continue
		}
		inst.values[a.Name()] = a.GetDefaultValue(inst)
		inst.dirty[a.Name()] = true
	}
	return inst, nil
}

// Restore builds a clean, persisted instance of c from stored values.
// Adapters use it to materialize records; values are not defaulted.
func (c *Class) Restore(id string, values map[string]any) (*Instance, error) {
	if id == "" {
		return nil, assertf("an id is required to restore an instance of %q", c.Name())
	}
	inst := &Instance{
		class:  c,
		id:     id,
		values: make(map[string]any, c.attributes.Len()),
		dirty:  map[string]bool{},
	}
	if err := inst.Hydrate(values); err != nil {
		return nil, err
	}
	return inst, nil
}

// Entity returns the class of the instance.
func (i *Instance) Entity() *Class { return i.class }

// General returns the general class of the instance's class.
func (i *Instance) General() *Class { return i.class.General() }

// ID returns the instance identifier.
func (i *Instance) ID() string { return i.id }

// Get returns the value of an attribute, or nil when unset.
func (i *Instance) Get(name string) any { return i.values[name] }

// Lookup returns the value of an attribute and whether it is set.
func (i *Instance) Lookup(name string) (any, bool) {
	v, ok := i.values[name]
	return v, ok
}

// Set assigns an attribute value and marks it dirty. The attribute must be
// declared on the instance's class.
func (i *Instance) Set(name string, value any) error {
	if !i.class.attributes.Has(name) {
		return assertf("entity %q has no attribute %q", i.class.Name(), name)
	}
	i.values[name] = value
	i.dirty[name] = true
	return nil
}

// Hydrate assigns stored values without marking them dirty.
func (i *Instance) Hydrate(values map[string]any) error {
	for _, k := range sortedKeys(values) {
		if !i.class.attributes.Has(k) {
			return assertf("entity %q has no attribute %q", i.class.Name(), k)
		}
		i.values[k] = values[k]
	}
	return nil
}

// Values returns a copy of the attribute values.
func (i *Instance) Values() map[string]any {
	out := make(map[string]any, len(i.values))
	for k, v := range i.values {
		out[k] = v
	}
	return out
}

// Validate checks every attribute in declaration order and returns the first
// failure as a *ValidationError.
func (i *Instance) Validate() error {
	if i.validating {
		return nil
	}
	i.validating = true
	defer func() { i.validating = false }()

	for _, a := range i.class.attributes.All() {
		if err := a.Validate(i); err != nil {
			return err
		}
	}
	return nil
}

// IsValid reports whether Validate succeeds.
func (i *Instance) IsValid() bool { return i.Validate() == nil }

// Call invokes a method of the instance's class.
func (i *Instance) Call(method string, args ...any) (any, error) {
	return i.CallAs(i.class, method, args...)
}

// CallAs invokes the method as bound on class c, which must be the
// instance's class or one of its ancestors. It is how an overriding method
// reaches the inherited implementation.
func (i *Instance) CallAs(c *Class, method string, args ...any) (any, error) {
	if c == nil || (c != i.class && !c.IsGeneralOf(i.class)) {
		return nil, assertf("entity %q is not a generalization of %q", className(c), i.class.Name())
	}
	fn, ok := c.methods.Get(method)
	if !ok {
		return nil, assertf("entity %q has no method %q", c.Name(), method)
	}
	return fn(i, args...)
}

func className(c *Class) string {
	if c == nil {
		return "<nil>"
	}
	return c.Name()
}

// IsNew reports whether the instance has never been saved or restored.
func (i *Instance) IsNew() bool { return i.isNew }

// IsDirty reports whether the instance is new or has unsaved changes.
func (i *Instance) IsDirty() bool { return i.isNew || len(i.dirty) > 0 }

// DirtyAttributes returns the sorted names of attributes changed since the
// last Clean.
func (i *Instance) DirtyAttributes() []string {
	out := make([]string, 0, len(i.dirty))
	for k := range i.dirty {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Clean forgets pending changes.
func (i *Instance) Clean() {
	i.dirty = map[string]bool{}
}

// Save validates the instance and inserts it through the class adapter.
func (i *Instance) Save(ctx context.Context) error {
	if err := i.Validate(); err != nil {
		return err
	}
	name, a, err := i.class.adapterFor()
	if err != nil {
		return err
	}
	if err := a.InsertObject(ctx, i); err != nil {
		return errors.WithStack(&AdapterError{Adapter: name, Operation: "insert " + i.class.Name(), Cause: err})
	}
	i.isNew = false
	i.Clean()
	i.class.tree.logger.Debug("instance saved",
		zap.String("entity", i.class.Name()),
		zap.String("id", i.id),
		zap.String("adapter", name),
	)
	return nil
}

// Delete removes the instance through the class adapter.
func (i *Instance) Delete(ctx context.Context) error {
	if i.isNew {
		return assertf("instance %s of %q was never saved", i.id, i.class.Name())
	}
	name, a, err := i.class.adapterFor()
	if err != nil {
		return err
	}
	if err := a.DeleteObject(ctx, i); err != nil {
		return errors.WithStack(&AdapterError{Adapter: name, Operation: "delete " + i.class.Name(), Cause: err})
	}
	i.class.tree.logger.Debug("instance deleted",
		zap.String("entity", i.class.Name()),
		zap.String("id", i.id),
		zap.String("adapter", name),
	)
	return nil
}

// Load fetches one attribute value through the class adapter.
func (i *Instance) Load(ctx context.Context, attribute string) error {
	attr, ok := i.class.attributes.Get(attribute)
	if !ok {
		return assertf("entity %q has no attribute %q", i.class.Name(), attribute)
	}
	name, a, err := i.class.adapterFor()
	if err != nil {
		return err
	}
	if err := a.LoadAttribute(ctx, i, attr); err != nil {
		return errors.WithStack(&AdapterError{Adapter: name, Operation: "load " + i.class.Name() + "." + attribute, Cause: err})
	}
	return nil
}
