package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsReservedWord(t *testing.T) {
	for _, w := range []string{"save", "validate", "isValid", "delete", "adapter", "Entity", "General", "adapterName", "isNew", "isDirty", "clean", "id"} {
		assert.True(t, IsReservedWord(w), w)
	}
	for _, w := range []string{"name", "ID", "entity", "Save", ""} {
		assert.False(t, IsReservedWord(w), w)
	}
}

func TestValidateIdentifier(t *testing.T) {
	valid := []string{"Person", "_hidden", "a1", "Ünïcode"}
	for _, n := range valid {
		assert.NoError(t, ValidateIdentifier(n, "entity"), n)
	}

	invalid := []string{"", "1abc", "with space", "dash-ed", "dot.ted"}
	for _, n := range invalid {
		err := ValidateIdentifier(n, "entity")
		assert.Error(t, err, n)
		assert.True(t, IsAssertion(err), n)
	}
}

func TestParseMultiplicity(t *testing.T) {
	tests := []struct {
		in         string
		required   bool
		collection bool
	}{
		{"1", true, false},
		{"0..1", false, false},
		{"1..*", true, true},
		{"*", false, true},
	}
	for _, tt := range tests {
		m, err := ParseMultiplicity(tt.in)
		assert.NoError(t, err)
		assert.Equal(t, tt.required, m.Required(), tt.in)
		assert.Equal(t, tt.collection, m.IsCollection(), tt.in)
		assert.Equal(t, tt.in, m.String())
	}
	for _, bad := range []string{"", "0", "2", "0..*", "many"} {
		_, err := ParseMultiplicity(bad)
		assert.True(t, IsAssertion(err), bad)
	}
}

func TestDataName(t *testing.T) {
	d, err := NewDataName(map[string]string{"b": "x", "a": "y"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, d.Adapters())
	assert.False(t, d.IsZero())

	zero, err := NewDataName(nil)
	assert.NoError(t, err)
	assert.True(t, zero.IsZero())
	_, ok := zero.For("a")
	assert.False(t, ok)

	_, err = NewDataName(map[string]any{"a": 1})
	assert.True(t, IsAssertion(err))
	_, err = NewDataName(map[string]string{"a": ""})
	assert.True(t, IsAssertion(err))
}
