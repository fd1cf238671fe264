// Package classes provides the generalization primitive used to link entity
// classes and attribute kinds into single-inheritance chains.
//
// A Class is a named node with an optional general (parent) class and a set
// of static properties. Generalize links a specific class under a general one
// and copies the general's statics onto the specific class at the time of the
// call. Later changes to the general's statics are not propagated.
package classes

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
)

// ErrInvalidClass is returned when a nil class is passed where a class is required.
var ErrInvalidClass = errors.New("classes: invalid class")

// Class is a node in a single-inheritance chain.
type Class struct {
	name string

	mu      sync.RWMutex
	general *Class
	statics map[string]any
}

// New creates a root class with the given static properties. The statics map
// is copied.
func New(name string, statics map[string]any) (*Class, error) {
	if name == "" {
		return nil, errors.Wrap(ErrInvalidClass, "class name is required")
	}
	c := &Class{name: name, statics: make(map[string]any, len(statics))}
	for k, v := range statics {
		c.statics[k] = v
	}
	return c, nil
}

// MustNew is like New but panics on error. It is intended for package-level
// class declarations.
func MustNew(name string, statics map[string]any) *Class {
	c, err := New(name, statics)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the class name.
func (c *Class) Name() string { return c.name }

// General returns the immediate general class, or nil for a root.
func (c *Class) General() *Class {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.general
}

// Static returns a static property.
func (c *Class) Static(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.statics[key]
	return v, ok
}

// SetStatic sets a static property on this class only.
func (c *Class) SetStatic(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statics[key] = value
}

// StaticNames returns the sorted names of the static properties.
func (c *Class) StaticNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.statics))
	for k := range c.statics {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Generalize makes general the general class of specific and copies the
// general's static properties onto specific. Statics already defined on
// specific are kept.
func Generalize(general, specific *Class) error {
	if general == nil {
		return errors.Wrap(ErrInvalidClass, `invalid argument "general" when generalizing classes`)
	}
	if specific == nil {
		return errors.Wrap(ErrInvalidClass, `invalid argument "specific" when generalizing classes`)
	}
	if general == specific || IsGeneral(specific, general) {
		return errors.Newf("classes: generalizing %q under %q would create a cycle", specific.name, general.name)
	}

	snapshot := make(map[string]any)
	general.mu.RLock()
	for k, v := range general.statics {
		snapshot[k] = v
	}
	general.mu.RUnlock()

	specific.mu.Lock()
	defer specific.mu.Unlock()
	if specific.general != nil {
		return errors.Newf("classes: %q is already specialized from %q", specific.name, specific.general.name)
	}
	specific.general = general
	for k, v := range snapshot {
		if _, ok := specific.statics[k]; !ok {
			specific.statics[k] = v
		}
	}
	return nil
}

// IsGeneral reports whether general is a proper ancestor of specific.
func IsGeneral(general, specific *Class) bool {
	if general == nil || specific == nil {
		return false
	}
	for c := specific.General(); c != nil; c = c.General() {
		if c == general {
			return true
		}
	}
	return false
}
