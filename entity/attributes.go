package entity

import (
	"sort"

	"github.com/cockroachdb/errors"
)

// AttributeCollection is an ordered, duplicate-free set of attributes keyed
// by name. Collections owned by a Specification or Class are frozen.
type AttributeCollection struct {
	order  []string
	byName map[string]*Attribute
	frozen bool
}

// NewAttributeCollection builds a collection from nil, an
// *AttributeCollection, a slice of attributes or descriptors, or a map from
// attribute name to attribute or descriptor. Map entries are added in sorted
// key order.
func NewAttributeCollection(raw any) (*AttributeCollection, error) {
	c := &AttributeCollection{byName: map[string]*Attribute{}}
	switch v := raw.(type) {
	case nil:
	case *AttributeCollection:
		if v != nil {
			for _, a := range v.All() {
				if err := c.Add(a); err != nil {
					return nil, err
				}
			}
		}
	case []*Attribute:
		for _, a := range v {
			if err := c.Add(a); err != nil {
				return nil, err
			}
		}
	case []Descriptor:
		for _, d := range v {
			if err := c.Add(d); err != nil {
				return nil, err
			}
		}
	case []any:
		for _, item := range v {
			if err := c.Add(item); err != nil {
				return nil, err
			}
		}
	case map[string]*Attribute:
		for _, k := range sortedKeys(v) {
			if err := c.Add(v[k], k); err != nil {
				return nil, err
			}
		}
	case map[string]Descriptor:
		for _, k := range sortedKeys(v) {
			if err := c.Add(v[k], k); err != nil {
				return nil, err
			}
		}
	case map[string]any:
		for _, k := range sortedKeys(v) {
			if err := c.Add(v[k], k); err != nil {
				return nil, err
			}
		}
	default:
		return nil, assertf("invalid attributes of type %T (it has to be an attribute collection, an array or a map of attributes)", raw)
	}
	return c, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Add resolves attr and appends it. When name is given it supplies the
// attribute name for descriptors and must match the name of a pre-built
// attribute. A string descriptor is a type name: Add(map key, "String").
func (c *AttributeCollection) Add(attr any, name ...string) error {
	if c.frozen {
		return assertf("attribute collection is read-only")
	}
	if len(name) > 1 {
		return assertf("invalid arguments length when adding an attribute (it has to be passed 1 or 2 arguments)")
	}
	var n string
	if len(name) == 1 {
		n = name[0]
		if n == "" {
			return assertf("invalid attribute name (it has to be a non-empty string)")
		}
	}

	a, err := resolveNamed(attr, n)
	if err != nil {
		return err
	}
	if _, ok := c.byName[a.Name()]; ok {
		return errors.WithStack(&DuplicateNameError{Name: a.Name(), Context: "attribute"})
	}
	c.byName[a.Name()] = a
	c.order = append(c.order, a.Name())
	return nil
}

func resolveNamed(attr any, name string) (*Attribute, error) {
	if name == "" {
		return Resolve(attr)
	}
	switch v := attr.(type) {
	case *Attribute:
		if v != nil && v.Name() != name {
			return nil, assertf("attribute %q cannot be added under the name %q", v.Name(), name)
		}
		return Resolve(v)
	case Descriptor:
		if v.Name != "" && v.Name != name {
			return nil, assertf("attribute %q cannot be added under the name %q", v.Name, name)
		}
		v.Name = name
		return resolveDescriptor(v)
	case *Descriptor:
		if v == nil {
			return nil, assertf("invalid attribute descriptor (nil)")
		}
		return resolveNamed(*v, name)
	case map[string]any:
		if raw, ok := v["name"]; ok {
			if s, _ := raw.(string); s != name {
				return nil, assertf("attribute %v cannot be added under the name %q", raw, name)
			}
		}
		m := make(map[string]any, len(v)+1)
		for k, val := range v {
			m[k] = val
		}
		m["name"] = name
		return Resolve(m)
	case string, Kind, *Class:
		return resolveDescriptor(Descriptor{Name: name, Type: v})
	}
	return nil, assertf("invalid attribute %q of type %T (it has to be an attribute or an object)", name, attr)
}

// Len returns the number of attributes.
func (c *AttributeCollection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Names returns the attribute names in insertion order.
func (c *AttributeCollection) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Get returns the attribute called name.
func (c *AttributeCollection) Get(name string) (*Attribute, bool) {
	if c == nil {
		return nil, false
	}
	a, ok := c.byName[name]
	return a, ok
}

// Has reports whether an attribute called name exists.
func (c *AttributeCollection) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// All returns the attributes in insertion order.
func (c *AttributeCollection) All() []*Attribute {
	if c == nil {
		return nil
	}
	out := make([]*Attribute, len(c.order))
	for i, n := range c.order {
		out[i] = c.byName[n]
	}
	return out
}

// IsFrozen reports whether Add is disabled.
func (c *AttributeCollection) IsFrozen() bool { return c != nil && c.frozen }

func (c *AttributeCollection) freeze() *AttributeCollection {
	c.frozen = true
	return c
}

// clone returns an unfrozen copy.
func (c *AttributeCollection) clone() *AttributeCollection {
	out := &AttributeCollection{byName: make(map[string]*Attribute, c.Len())}
	if c == nil {
		return out
	}
	out.order = append(out.order, c.order...)
	for k, v := range c.byName {
		out.byName[k] = v
	}
	return out
}

// set replaces an existing attribute in place or appends a new one.
func (c *AttributeCollection) set(a *Attribute) {
	if _, ok := c.byName[a.Name()]; !ok {
		c.order = append(c.order, a.Name())
	}
	c.byName[a.Name()] = a
}
