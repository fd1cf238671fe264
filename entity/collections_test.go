package entity

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAttributeCollection_Shapes(t *testing.T) {
	name := MustNewAttribute(StringKind, "name")
	age := MustNewAttribute(IntegerKind, "age", "0..1")

	tests := []struct {
		name  string
		raw   any
		names []string
	}{
		{"nil", nil, nil},
		{"attributes", []*Attribute{name, age}, []string{"name", "age"}},
		{"descriptors", []Descriptor{{Name: "name", Type: "String"}, {Name: "age", Type: "Integer"}}, []string{"name", "age"}},
		{"mixed slice", []any{name, map[string]any{"name": "age", "type": "Integer"}}, []string{"name", "age"}},
		{"map of attributes", map[string]*Attribute{"name": name, "age": age}, []string{"age", "name"}},
		{"map of type names", map[string]any{"name": "String", "age": "Integer"}, []string{"age", "name"}},
		{"map of descriptors", map[string]Descriptor{"name": {Type: "String"}, "age": {Type: "Integer"}}, []string{"age", "name"}},
		{"map of objects", map[string]any{"name": map[string]any{"type": "String"}, "age": map[string]any{"type": "Integer"}}, []string{"age", "name"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewAttributeCollection(tt.raw)
			require.NoError(t, err)
			if tt.names == nil {
				assert.Equal(t, 0, c.Len())
				return
			}
			assert.Equal(t, tt.names, c.Names())
			a, ok := c.Get("age")
			require.True(t, ok)
			assert.Same(t, IntegerKind, a.Kind())
		})
	}
}

func TestNewAttributeCollection_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{"scalar", 42},
		{"duplicate", []any{map[string]any{"name": "a"}, map[string]any{"name": "a"}}},
		{"key mismatch", map[string]*Attribute{"b": MustNewAttribute(StringKind, "a")}},
		{"bad item", []any{12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAttributeCollection(tt.raw)
			require.Error(t, err)
			assert.True(t, IsAssertion(err))
		})
	}
}

func TestAttributeCollection_Add(t *testing.T) {
	c, err := NewAttributeCollection(nil)
	require.NoError(t, err)

	require.NoError(t, c.Add(MustNewAttribute(StringKind, "a")))
	require.NoError(t, c.Add(map[string]any{"type": "Boolean"}, "b"))
	require.NoError(t, c.Add("Number", "c"))
	assert.Equal(t, []string{"a", "b", "c"}, c.Names())

	err = c.Add(map[string]any{"name": "a", "type": "String"})
	var dn *DuplicateNameError
	require.True(t, errors.As(err, &dn))
	assert.Equal(t, "a", dn.Name)

	assert.Error(t, c.Add(MustNewAttribute(StringKind, "x"), "y"))
	assert.Error(t, c.Add(MustNewAttribute(StringKind, "x"), "y", "z"))
	assert.Equal(t, 3, c.Len())
}

func TestAttributeCollection_FrozenRejectsAdd(t *testing.T) {
	spec, err := NewSpecification(SpecificationConfig{Name: "Frozen", Attributes: map[string]any{"a": "String"}})
	require.NoError(t, err)

	attrs := spec.Attributes()
	require.True(t, attrs.IsFrozen())
	err = attrs.Add(MustNewAttribute(StringKind, "b"))
	require.Error(t, err)
	assert.True(t, IsAssertion(err))
	assert.Equal(t, []string{"a"}, attrs.Names())

	names := attrs.Names()
	names[0] = "mutated"
	assert.Equal(t, []string{"a"}, attrs.Names())
}

func noop(*Instance, ...any) (any, error) { return nil, nil }

func TestNewMethodCollection(t *testing.T) {
	c, err := NewMethodCollection(map[string]any{"b": noop, "a": Method(noop)})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, c.Names())

	c, err = NewMethodCollection(map[string]Method{"x": noop})
	require.NoError(t, err)
	assert.True(t, c.Has("x"))

	_, err = NewMethodCollection(map[string]any{"a": "not a function"})
	assert.True(t, IsAssertion(err))
	_, err = NewMethodCollection(map[string]any{"a": nil})
	assert.True(t, IsAssertion(err))
	_, err = NewMethodCollection([]any{noop})
	assert.True(t, IsAssertion(err))
}

func TestConcat_DoesNotMutateBase(t *testing.T) {
	base, err := NewMethodCollection(map[string]any{"a": noop, "b": noop})
	require.NoError(t, err)

	out, err := Concat(base, noop, "m")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, base.Names())
	assert.False(t, base.Has("m"))
	assert.Equal(t, []string{"a", "b", "m"}, out.Names())

	_, err = Concat(base, noop, "a")
	var dn *DuplicateNameError
	require.True(t, errors.As(err, &dn))

	_, err = Concat(base, nil, "z")
	assert.True(t, IsAssertion(err))
	_, err = Concat(base, noop, "")
	assert.True(t, IsAssertion(err))

	empty, err := Concat(nil, noop, "first")
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, empty.Names())
}
