package entity

import (
	"github.com/cockroachdb/errors"
)

// Method is an entity method. self is the receiving instance.
type Method func(self *Instance, args ...any) (any, error)

// MethodCollection is an immutable ordered mapping from method name to
// Method.
type MethodCollection struct {
	order  []string
	byName map[string]Method
}

// NewMethodCollection builds a collection from nil, an *MethodCollection,
// a map[string]Method or a map[string]any whose values are methods. Map
// entries are inserted in sorted key order.
func NewMethodCollection(raw any) (*MethodCollection, error) {
	c := &MethodCollection{byName: map[string]Method{}}
	switch v := raw.(type) {
	case nil:
	case *MethodCollection:
		if v != nil {
			return v, nil
		}
	case map[string]Method:
		for _, k := range sortedKeys(v) {
			if err := c.add(k, v[k]); err != nil {
				return nil, err
			}
		}
	case map[string]any:
		for _, k := range sortedKeys(v) {
			fn, ok := toMethod(v[k])
			if !ok {
				return nil, assertf("invalid method %q of type %T (it has to be a function)", k, v[k])
			}
			if err := c.add(k, fn); err != nil {
				return nil, err
			}
		}
	default:
		return nil, assertf("invalid methods of type %T (it has to be a method collection or a map of functions)", raw)
	}
	return c, nil
}

func toMethod(v any) (Method, bool) {
	switch fn := v.(type) {
	case Method:
		return fn, fn != nil
	case func(*Instance, ...any) (any, error):
		return fn, fn != nil
	}
	return nil, false
}

func (c *MethodCollection) add(name string, fn Method) error {
	if name == "" {
		return assertf("invalid method name (it has to be a non-empty string)")
	}
	if fn == nil {
		return assertf("invalid method %q (it has to be a function)", name)
	}
	if _, ok := c.byName[name]; ok {
		return errors.WithStack(&DuplicateNameError{Name: name, Context: "method"})
	}
	c.byName[name] = fn
	c.order = append(c.order, name)
	return nil
}

// Concat returns a new collection holding base's methods followed by fn
// under name. base is not modified. A name already present in base fails.
func Concat(base *MethodCollection, fn Method, name string) (*MethodCollection, error) {
	out := base.clone()
	if err := out.add(name, fn); err != nil {
		return nil, err
	}
	return out, nil
}

// override returns a new collection where name is bound to fn, keeping the
// position of an inherited binding.
func (c *MethodCollection) override(name string, fn Method) *MethodCollection {
	out := c.clone()
	if _, ok := out.byName[name]; !ok {
		out.order = append(out.order, name)
	}
	out.byName[name] = fn
	return out
}

func (c *MethodCollection) clone() *MethodCollection {
	out := &MethodCollection{byName: make(map[string]Method, c.Len())}
	if c == nil {
		return out
	}
	out.order = append(out.order, c.order...)
	for k, v := range c.byName {
		out.byName[k] = v
	}
	return out
}

// Len returns the number of methods.
func (c *MethodCollection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Names returns method names in insertion order.
func (c *MethodCollection) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Get returns the method called name.
func (c *MethodCollection) Get(name string) (Method, bool) {
	if c == nil {
		return nil, false
	}
	fn, ok := c.byName[name]
	return fn, ok
}

// Has reports whether a method called name exists.
func (c *MethodCollection) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}
