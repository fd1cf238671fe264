package entity

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAttribute_Shapes(t *testing.T) {
	tests := []struct {
		name string
		args []any
		want Multiplicity
		dn   string
	}{
		{"positional name", []any{"title"}, One, "title"},
		{"positional full", []any{"title", "0..1", "none", "title_col"}, ZeroOrOne, "title_col"},
		{"descriptor", []any{Descriptor{Name: "title", Multiplicity: "*"}}, Many, "title"},
		{"descriptor pointer", []any{&Descriptor{Name: "title", DataName: "t"}}, One, "t"},
		{"object", []any{map[string]any{"name": "title", "multiplicity": "1..*"}}, OneOrMore, "title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAttribute(StringKind, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, "title", a.Name())
			assert.Equal(t, tt.want, a.Multiplicity())
			assert.Equal(t, "String", a.Type())
			assert.Equal(t, tt.dn, a.GetDataName("any"))
		})
	}
}

func TestNewAttribute_Errors(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		args []any
	}{
		{"no args", StringKind, nil},
		{"too many args", StringKind, []any{"a", "1", nil, "x", "extra"}},
		{"non-string name", StringKind, []any{42, "1"}},
		{"empty name", StringKind, []any{Descriptor{}}},
		{"reserved name", StringKind, []any{"save"}},
		{"reserved id", StringKind, []any{map[string]any{"name": "id"}}},
		{"bad multiplicity", StringKind, []any{"a", "2"}},
		{"unknown property", StringKind, []any{map[string]any{"name": "a", "foo": 1}}},
		{"type on concrete kind", StringKind, []any{Descriptor{Name: "a", Type: "Boolean"}}},
		{"non-string multiplicity", StringKind, []any{map[string]any{"name": "a", "multiplicity": 1}}},
		{"bad data name", StringKind, []any{"a", "1", nil, 12}},
		{"abstract nil kind", nil, []any{"a"}},
		{"abstract base kind", AttributeKind, []any{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAttribute(tt.kind, tt.args...)
			require.Error(t, err)
			assert.True(t, IsAssertion(err), "expected assertion error, got %v", err)
		})
	}
}

func TestNewAttribute_ReservedWordsAreCaseSensitive(t *testing.T) {
	_, err := NewAttribute(StringKind, "Save")
	require.NoError(t, err)

	for word := range ReservedWords {
		_, err := NewAttribute(StringKind, word)
		var rw *ReservedWordError
		require.True(t, errors.As(err, &rw), "word %q", word)
		assert.Equal(t, word, rw.Word)
	}
}

func TestAttribute_GetDefaultValue(t *testing.T) {
	lit := MustNewAttribute(StringKind, "a", "0..1", "fixed")
	assert.Equal(t, "fixed", lit.GetDefaultValue(nil))

	tree := NewTree()
	c, err := tree.Root().Specify("Thing", []any{
		Descriptor{Name: "first", Type: "String"},
		Descriptor{Name: "second", Type: "String", Default: DefaultFunc(func(inst *Instance) any {
			return "after " + inst.Get("first").(string)
		})},
	})
	require.NoError(t, err)
	inst := c.MustNew(map[string]any{"first": "one"})
	assert.Equal(t, "after one", inst.Get("second"))
}

func validationErr(t *testing.T, err error) *ValidationError {
	t.Helper()
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	return ve
}

func TestAttribute_Validate(t *testing.T) {
	tree := NewTree()
	c, err := tree.Root().Specify("Box", []any{
		MustNewAttribute(ObjectKind, "one", "1"),
		MustNewAttribute(ObjectKind, "opt", "0..1"),
		MustNewAttribute(ObjectKind, "many", "*"),
		MustNewAttribute(ObjectKind, "some", "1..*"),
	})
	require.NoError(t, err)
	attr := func(name string) *Attribute {
		a, ok := c.Attributes().Get(name)
		require.True(t, ok)
		return a
	}
	build := func(values map[string]any) *Instance {
		f, err := c.New()
		require.NoError(t, err)
		inst, err := f(values)
		require.NoError(t, err)
		return inst
	}

	t.Run("required absent", func(t *testing.T) {
		inst := build(nil)
		ve := validationErr(t, attr("one").Validate(inst))
		assert.Equal(t, "this attribute is required", ve.Message)
		assert.Equal(t, "Box", ve.Entity)
		assert.Equal(t, "one", ve.Attribute)

		ve = validationErr(t, attr("some").Validate(inst))
		assert.Equal(t, "this attribute is required", ve.Message)
	})

	t.Run("optional absent", func(t *testing.T) {
		inst := build(nil)
		assert.NoError(t, attr("opt").Validate(inst))
		assert.NoError(t, attr("many").Validate(inst))
	})

	t.Run("single value wrong kind", func(t *testing.T) {
		inst := build(map[string]any{"opt": 5})
		ve := validationErr(t, attr("opt").Validate(inst))
		assert.Equal(t, "opt", ve.Attribute)
		assert.Nil(t, ve.Position)
	})

	t.Run("collection not an array", func(t *testing.T) {
		inst := build(map[string]any{"many": map[string]any{}})
		ve := validationErr(t, attr("many").Validate(inst))
		assert.Equal(t, "value should be an Array", ve.Message)
	})

	t.Run("nil elements skipped", func(t *testing.T) {
		inst := build(map[string]any{"many": []any{map[string]any{}, nil, []int{2}}})
		assert.NoError(t, attr("many").Validate(inst))
	})

	t.Run("element failure carries index", func(t *testing.T) {
		inst := build(map[string]any{"many": []any{map[string]any{}, nil, 2}})
		ve := validationErr(t, attr("many").Validate(inst))
		require.NotNil(t, ve.Position)
		assert.Equal(t, 2, *ve.Position)
		assert.Contains(t, ve.Error(), "position 2")
	})

	t.Run("object kind rejects scalars", func(t *testing.T) {
		inst := build(map[string]any{"many": []any{1, nil, 2}})
		ve := validationErr(t, attr("many").Validate(inst))
		assert.Equal(t, 0, *ve.Position)
	})

	t.Run("empty one or more", func(t *testing.T) {
		inst := build(map[string]any{"some": []any{}})
		ve := validationErr(t, attr("some").Validate(inst))
		assert.Equal(t, "value should be a non empty Array", ve.Message)

		inst = build(map[string]any{"some": []any{nil}})
		ve = validationErr(t, attr("some").Validate(inst))
		assert.Equal(t, "value should be a non empty Array", ve.Message)
	})
}

func TestAttribute_ValidateValueByKind(t *testing.T) {
	tests := []struct {
		kind  Kind
		ok    []any
		notOk []any
	}{
		{StringKind, []any{"", "x"}, []any{1, true}},
		{BooleanKind, []any{true, false}, []any{"true", 0}},
		{NumberKind, []any{1, 1.5, int64(3), uint8(1)}, []any{"1", true}},
		{IntegerKind, []any{1, 2.0, int32(4)}, []any{1.5, "1"}},
		{DateKind, []any{time.Now()}, []any{"2024-01-01"}},
		{ObjectKind, []any{map[string]any{}, []any{}, struct{}{}}, []any{1, "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.kind.Name(), func(t *testing.T) {
			a := MustNewAttribute(tt.kind, "v")
			for _, v := range tt.ok {
				assert.NoError(t, a.ValidateValue(v), "%v", v)
			}
			for _, v := range tt.notOk {
				assert.Error(t, a.ValidateValue(v), "%v", v)
			}
		})
	}
	assert.Error(t, AttributeKind.ValidateValue("anything"))
}

func TestAttribute_GetDataName(t *testing.T) {
	single := MustNewAttribute(StringKind, "a", "1", nil, "col_a")
	assert.Equal(t, "col_a", single.GetDataName("sqlite"))
	assert.Equal(t, "col_a", single.GetDataName(""))

	perAdapter := MustNewAttribute(StringKind, map[string]any{
		"name":     "a",
		"dataName": map[string]any{"sqlite": "sq_a"},
	})
	assert.Equal(t, "sq_a", perAdapter.GetDataName("sqlite"))
	assert.Equal(t, "a", perAdapter.GetDataName("mongo"))

	plain := MustNewAttribute(StringKind, "a")
	assert.Equal(t, "a", plain.GetDataName("sqlite"))
}

func TestAttribute_DataNameIsCopied(t *testing.T) {
	src := map[string]string{"sqlite": "x"}
	a := MustNewAttribute(StringKind, Descriptor{Name: "a", DataName: src})
	src["sqlite"] = "y"
	assert.Equal(t, "x", a.GetDataName("sqlite"))

	m := a.DataName().Map()
	m["sqlite"] = "z"
	assert.Equal(t, "x", a.GetDataName("sqlite"))
}

func TestAttribute_DataValueRoundTrip(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)
	a := MustNewAttribute(DateKind, "at", "*")
	stored, err := a.GetDataValue([]any{ts, nil})
	require.NoError(t, err)
	assert.Equal(t, []any{"2025-03-01T12:30:00Z", nil}, stored)

	parsed, err := a.ParseDataValue(stored)
	require.NoError(t, err)
	got := parsed.([]any)
	assert.True(t, ts.Equal(got[0].(time.Time)))

	n := MustNewAttribute(IntegerKind, "n")
	v, err := n.ParseDataValue(int8(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)

	v, err = n.GetDataValue(nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestResolve(t *testing.T) {
	a, err := Resolve(map[string]any{"name": "x"})
	require.NoError(t, err)
	assert.Same(t, ObjectKind, a.Kind())

	a, err = Resolve(Descriptor{Name: "x", Type: "Boolean"})
	require.NoError(t, err)
	assert.Same(t, BooleanKind, a.Kind())

	a, err = Resolve(Descriptor{Name: "x", Type: IntegerKind})
	require.NoError(t, err)
	assert.Same(t, IntegerKind, a.Kind())

	prebuilt := MustNewAttribute(StringKind, "y")
	a, err = Resolve(prebuilt)
	require.NoError(t, err)
	assert.Same(t, prebuilt, a)

	_, err = Resolve(Descriptor{Name: "x", Type: 12})
	assert.True(t, IsAssertion(err))

	_, err = Resolve("x")
	assert.True(t, IsAssertion(err))
}

func TestResolve_UnknownTypeIsLazyAssociation(t *testing.T) {
	ResetDefault()
	t.Cleanup(func() { ResetDefault() })

	a, err := Resolve(map[string]any{"name": "owner", "type": "UnknownType"})
	require.NoError(t, err)
	require.True(t, a.IsAssociation())
	assert.Equal(t, "UnknownType", a.Kind().(*AssociationKind).Target())

	_, err = a.Entity()
	var nf *EntityNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "UnknownType", nf.Name)

	target, err := Specify("UnknownType")
	require.NoError(t, err)
	got, err := a.Entity()
	require.NoError(t, err)
	assert.Same(t, target, got)
}

func TestNewAssociationAttribute(t *testing.T) {
	tree := NewTree()
	author, err := tree.Root().Specify("Author")
	require.NoError(t, err)

	a, err := NewAssociationAttribute("author", author, "0..1")
	require.NoError(t, err)
	assert.Equal(t, ZeroOrOne, a.Multiplicity())
	got, err := a.Entity()
	require.NoError(t, err)
	assert.Same(t, author, got)

	a, err = NewAssociationAttribute(map[string]any{"name": "writer", "Entity": "Author"})
	require.NoError(t, err)
	assert.Equal(t, "Author", a.Kind().(*AssociationKind).Target())

	_, err = NewAssociationAttribute(map[string]any{"name": "writer"})
	assert.True(t, IsAssertion(err))
	_, err = NewAssociationAttribute(map[string]any{"name": "writer", "entity": "Author", "type": "X"})
	assert.True(t, IsAssertion(err))
	_, err = NewAssociationAttribute("writer", 12)
	assert.True(t, IsAssertion(err))
}

func TestAssociation_Validate(t *testing.T) {
	tree := NewTree()
	person, err := tree.Root().Specify("Person", []any{
		Descriptor{Name: "name", Type: "String"},
		Descriptor{Name: "friends", Type: "Person", Multiplicity: "*"},
	})
	require.NoError(t, err)
	employee, err := person.Specify("Employee")
	require.NoError(t, err)
	other, err := tree.Root().Specify("Other")
	require.NoError(t, err)

	alice := person.MustNew(map[string]any{"name": "alice"})
	bob := employee.MustNew(map[string]any{"name": "bob"})

	require.NoError(t, alice.Set("friends", []any{bob}))
	assert.NoError(t, alice.Validate())

	t.Run("wrong class", func(t *testing.T) {
		require.NoError(t, alice.Set("friends", []any{other.MustNew()}))
		ve := validationErr(t, alice.Validate())
		assert.Equal(t, "friends", ve.Attribute)
		assert.Equal(t, 0, *ve.Position)
	})

	t.Run("nested failure keeps message", func(t *testing.T) {
		broken := person.MustNew()
		require.NoError(t, alice.Set("friends", []any{bob, broken}))
		ve := validationErr(t, alice.Validate())
		assert.Equal(t, "this attribute is required", ve.Message)
		assert.Equal(t, "friends", ve.Attribute)
		assert.Equal(t, 1, *ve.Position)
	})

	t.Run("cycles terminate", func(t *testing.T) {
		require.NoError(t, alice.Set("friends", []any{bob}))
		require.NoError(t, bob.Set("friends", []any{alice}))
		assert.NoError(t, alice.Validate())
	})

	t.Run("data value is id", func(t *testing.T) {
		a, _ := person.Attributes().Get("friends")
		v, err := a.GetDataValue([]any{bob})
		require.NoError(t, err)
		assert.Equal(t, []any{bob.ID()}, v)

		parsed, err := a.ParseDataValue(v)
		require.NoError(t, err)
		ref := parsed.([]any)[0].(*Instance)
		assert.Equal(t, bob.ID(), ref.ID())
		assert.False(t, ref.IsDirty())
	})
}

func TestAttribute_DefaultCollectionsAreCopied(t *testing.T) {
	tree := NewTree()
	tags, err := NewAttribute(ObjectKind, "tags", "*", []any{"a", map[string]any{"k": "v"}})
	require.NoError(t, err)
	c, err := tree.Root().Specify(SpecificationConfig{Name: "Note", Attributes: []*Attribute{tags}})
	require.NoError(t, err)

	i1 := c.MustNew()
	i2 := c.MustNew()
	v1 := i1.Get("tags").([]any)
	v1[0] = "changed"
	v1[1].(map[string]any)["k"] = "changed"

	want := []any{"a", map[string]any{"k": "v"}}
	assert.Equal(t, want, i2.Get("tags"))
	assert.Equal(t, want, tags.Default())

	d := tags.Default().([]any)
	d[0] = "changed"
	assert.Equal(t, want, tags.Default())
	assert.Equal(t, want, c.MustNew().Get("tags"))
}

func TestNewAttribute_InvalidIdentifier(t *testing.T) {
	for _, name := range []string{"a b", "1st", "first-name", "x.y"} {
		t.Run(name, func(t *testing.T) {
			_, err := NewAttribute(StringKind, name)
			require.Error(t, err)
			var ie *InvalidIdentifierError
			assert.True(t, errors.As(err, &ie))
			assert.True(t, IsAssertion(err))
		})
	}

	_, err := Resolve(map[string]any{"name": "has space", "type": "String"})
	assert.True(t, IsAssertion(err))
	_, err = NewAssociationAttribute("a b", "Target")
	assert.True(t, IsAssertion(err))
}
