package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CaliLuke/go-entity/entity"
)

const testYAML = `
entities:
  - name: Animal
    abstract: true
    dataName: animals
    attributes:
      - name: name
        type: String
      - name: legs
        type: Integer
        multiplicity: "0..1"
        default: 4
  - name: Dog
    sub: Animal
    adapter: sqlite
    dataName:
      sqlite: dogs
    attributes:
      - name: tricks
        type: String
        multiplicity: "*"
        default: [sit, roll]
        dataName:
          sqlite: trick_list
      - name: owner
        type: Person
        multiplicity: "0..1"
  - name: Person
`

func TestParseYAML(t *testing.T) {
	schema, err := ParseYAML([]byte(testYAML))
	require.NoError(t, err)
	require.Len(t, schema.Entities, 3)

	animal := schema.Entities[0]
	assert.True(t, animal.Abstract)
	assert.Equal(t, "animals", animal.DataName.Single)
	legs := animal.Attributes[1]
	assert.True(t, legs.HasDefault)
	assert.Equal(t, int64(4), legs.Default)

	dog := schema.Entities[1]
	assert.Equal(t, "Animal", dog.Parent)
	assert.Equal(t, "sqlite", dog.Adapter)
	assert.Equal(t, "dogs", dog.DataName.PerAdapter["sqlite"])
	tricks := dog.Attributes[0]
	assert.Equal(t, []any{"sit", "roll"}, tricks.Default)
	assert.Equal(t, "trick_list", tricks.DataName.PerAdapter["sqlite"])
}

func TestParseYAML_ApplyWithForwardReference(t *testing.T) {
	schema, err := ParseYAML([]byte(testYAML))
	require.NoError(t, err)
	tree := entity.NewTree()
	_, err = schema.Apply(tree)
	require.NoError(t, err)

	dog, _ := tree.Lookup("Dog")
	owner, _ := dog.Attributes().Get("owner")
	target, err := owner.Entity()
	require.NoError(t, err)
	assert.Equal(t, "Person", target.Name())

	f, err := dog.New()
	require.NoError(t, err)
	d, err := f(map[string]any{"name": "rex"})
	require.NoError(t, err)
	assert.NoError(t, d.Validate())
	assert.Equal(t, int64(4), d.Get("legs"))
}

func TestParseYAML_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown field", "entities:\n  - name: A\n    color: red\n"},
		{"bad data name", "entities:\n  - name: A\n    dataName: [a, b]\n"},
		{"not yaml", "entities: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.input))
			assert.Error(t, err)
		})
	}

	schema, err := ParseYAML(nil)
	require.NoError(t, err)
	assert.Empty(t, schema.Entities)
}
