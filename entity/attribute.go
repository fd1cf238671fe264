package entity

import (
	"reflect"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/CaliLuke/go-entity/classes"
)

// DefaultFunc computes an attribute default for a new instance.
type DefaultFunc func(inst *Instance) any

// Descriptor is the structured form of an attribute declaration.
//
// Type is a kind name ("String", "Boolean", ...), a Kind, or a *Class. A name
// that matches no registered kind declares an association to the entity of
// that name.
type Descriptor struct {
	Name         string
	Type         any
	Multiplicity string
	Default      any
	DataName     any
}

// Attribute is an immutable description of one entity field.
type Attribute struct {
	name         string
	kind         Kind
	multiplicity Multiplicity
	def          any
	dataName     DataName
}

var attributeKeys = []string{"name", "multiplicity", "default", "dataName"}

// NewAttribute creates an attribute of the given concrete kind. args is either
// a single Descriptor or map[string]any, or the positional form
// (name, multiplicity?, default?, dataName?). Descriptors passed to a concrete
// kind must not set a type.
func NewAttribute(kind Kind, args ...any) (*Attribute, error) {
	if err := checkConcreteKind(kind); err != nil {
		return nil, err
	}
	d, err := descriptorFromArgs(kind.Name(), args)
	if err != nil {
		return nil, err
	}
	if d.Type != nil {
		return nil, assertf(`property "type" cannot be set when creating a %s attribute called %q`, kind.Name(), d.Name)
	}
	return newAttribute(kind, d)
}

// MustNewAttribute is like NewAttribute but panics on error.
func MustNewAttribute(kind Kind, args ...any) *Attribute {
	a, err := NewAttribute(kind, args...)
	if err != nil {
		panic(err)
	}
	return a
}

func checkConcreteKind(kind Kind) error {
	if kind == nil || kind == AttributeKind {
		return assertf("Attribute is abstract and has to be created through a concrete attribute kind")
	}
	if !classes.IsGeneral(AttributeClass, kind.Class()) {
		return assertf("attribute kind %q has to be a specialization of Attribute", kind.Name())
	}
	return nil
}

func descriptorFromArgs(kindName string, args []any) (Descriptor, error) {
	if len(args) == 0 || len(args) > 4 {
		return Descriptor{}, assertf("invalid arguments length when creating a %s attribute (it has to be passed from 1 to 4 arguments)", kindName)
	}
	if len(args) == 1 {
		if _, ok := args[0].(string); !ok {
			return descriptorFromValue(args[0], attributeKeys)
		}
	}

	name, ok := args[0].(string)
	if !ok {
		return Descriptor{}, assertf(`invalid argument "name" when creating a %s attribute (it has to be a string)`, kindName)
	}
	d := Descriptor{Name: name}
	if len(args) > 1 {
		m, err := multiplicityArg(args[1])
		if err != nil {
			return Descriptor{}, errors.Wrapf(err, "attribute %q", name)
		}
		d.Multiplicity = m
	}
	if len(args) > 2 {
		d.Default = args[2]
	}
	if len(args) > 3 {
		d.DataName = args[3]
	}
	return d, nil
}

func multiplicityArg(v any) (string, error) {
	switch m := v.(type) {
	case string:
		return m, nil
	case Multiplicity:
		return string(m), nil
	}
	return "", assertf(`invalid argument "multiplicity" (it has to be a string)`)
}

// descriptorFromValue normalizes a Descriptor, *Descriptor or object map.
// Map keys outside allowed are rejected.
func descriptorFromValue(v any, allowed []string) (Descriptor, error) {
	switch d := v.(type) {
	case Descriptor:
		return d, nil
	case *Descriptor:
		if d == nil {
			return Descriptor{}, assertf("invalid attribute descriptor (nil)")
		}
		return *d, nil
	case map[string]any:
		return descriptorFromMap(d, allowed)
	case nil:
		return Descriptor{}, assertf("invalid attribute descriptor (nil)")
	}
	return Descriptor{}, assertf("invalid attribute descriptor of type %T (it has to be an object or a string)", v)
}

func descriptorFromMap(m map[string]any, allowed []string) (Descriptor, error) {
	var d Descriptor
	raw, ok := m["name"]
	if !ok {
		return d, assertf(`property "name" is required when creating an attribute`)
	}
	name, ok := raw.(string)
	if !ok {
		return d, assertf(`invalid property "name" when creating an attribute (it has to be a string)`)
	}
	d.Name = name

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !contains(allowed, k) {
			return d, assertf("invalid property %q when creating an attribute called %q (valid properties are %v)", k, name, allowed)
		}
	}

	if raw, ok := m["multiplicity"]; ok {
		ms, err := multiplicityArg(raw)
		if err != nil {
			return d, errors.Wrapf(err, "attribute %q", name)
		}
		d.Multiplicity = ms
	}
	d.Type = m["type"]
	d.Default = m["default"]
	d.DataName = m["dataName"]
	if e, ok := m["entity"]; ok {
		d.Type = entityTarget{e}
	} else if e, ok := m["Entity"]; ok {
		d.Type = entityTarget{e}
	}
	return d, nil
}

// entityTarget marks a descriptor type given through the "entity" key.
type entityTarget struct{ v any }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func newAttribute(kind Kind, d Descriptor) (*Attribute, error) {
	if d.Name == "" {
		return nil, assertf("name is required when creating an attribute")
	}
	if err := ValidateIdentifier(d.Name, "attribute"); err != nil {
		return nil, errors.WithStack(err)
	}
	if IsReservedWord(d.Name) {
		return nil, errors.WithStack(&ReservedWordError{Word: d.Name, Context: "attribute"})
	}
	m := One
	if d.Multiplicity != "" {
		var err error
		if m, err = ParseMultiplicity(d.Multiplicity); err != nil {
			return nil, errors.Wrapf(err, "attribute %q", d.Name)
		}
	}
	dn, err := NewDataName(d.DataName)
	if err != nil {
		return nil, errors.Wrapf(err, "attribute %q", d.Name)
	}
	return &Attribute{
		name:         d.Name,
		kind:         kind,
		multiplicity: m,
		def:          cloneValue(d.Default),
		dataName:     dn,
	}, nil
}

// Resolve builds an attribute from a declaration. An *Attribute is returned
// unchanged. For descriptors, the type is looked up in the kind registry
// (default "Object"); an unknown type name declares an association whose
// target entity is that name, resolved lazily.
func Resolve(descriptor any) (*Attribute, error) {
	if a, ok := descriptor.(*Attribute); ok {
		if a == nil {
			return nil, assertf("invalid attribute (nil)")
		}
		return a, nil
	}
	d, err := descriptorFromValue(descriptor, []string{"name", "type", "multiplicity", "default", "dataName", "entity", "Entity"})
	if err != nil {
		return nil, err
	}
	return resolveDescriptor(d)
}

func resolveDescriptor(d Descriptor) (*Attribute, error) {
	switch t := d.Type.(type) {
	case nil:
		return newAttribute(ObjectKind, d)
	case entityTarget:
		return newAssociation(d, t.v)
	case *Class:
		return newAssociation(d, t)
	case Kind:
		if err := checkConcreteKind(t); err != nil {
			return nil, err
		}
		return newAttribute(t, d)
	case string:
		if t == "" {
			return newAttribute(ObjectKind, d)
		}
		kind, err := LookupKind(t)
		if err != nil {
			if errors.Is(err, errTypeNotFound) {
				return newAssociation(d, t)
			}
			return nil, err
		}
		return newAttribute(kind, d)
	}
	return nil, assertf(`invalid property "type" when creating an attribute called %q (it has to be a string)`, d.Name)
}

// Name returns the attribute name.
func (a *Attribute) Name() string { return a.name }

// Kind returns the attribute kind.
func (a *Attribute) Kind() Kind { return a.kind }

// Type returns the kind name.
func (a *Attribute) Type() string { return a.kind.Name() }

// Multiplicity returns the attribute multiplicity.
func (a *Attribute) Multiplicity() Multiplicity { return a.multiplicity }

// Default returns the default expression: a literal or a DefaultFunc.
// Slice and map literals are returned as copies.
func (a *Attribute) Default() any { return cloneValue(a.def) }

// DataName returns the storage name mapping.
func (a *Attribute) DataName() DataName { return a.dataName }

// IsAssociation reports whether the attribute references another entity.
func (a *Attribute) IsAssociation() bool {
	_, ok := a.kind.(*AssociationKind)
	return ok
}

// Entity returns the target class of an association attribute, resolving the
// entity name on first use.
func (a *Attribute) Entity() (*Class, error) {
	ak, ok := a.kind.(*AssociationKind)
	if !ok {
		return nil, assertf("attribute %q is not an association", a.name)
	}
	return ak.Entity()
}

// GetDefaultValue evaluates the default expression for inst.
func (a *Attribute) GetDefaultValue(inst *Instance) any {
	switch f := a.def.(type) {
	case DefaultFunc:
		return f(inst)
	case func(*Instance) any:
		return f(inst)
	case func() any:
		return f()
	}
	return cloneValue(a.def)
}

// cloneValue deep-copies slices and maps so that a literal default is never
// shared between instances. Other values are returned as is.
func cloneValue(v any) any {
	if v == nil {
		return nil
	}
	return cloneReflect(reflect.ValueOf(v)).Interface()
}

func cloneReflect(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		c := cloneReflect(v.Elem())
		out := reflect.New(v.Type()).Elem()
		out.Set(c)
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(cloneReflect(v.Index(i)))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneReflect(iter.Value()))
		}
		return out
	}
	return v
}

// ValidateValue validates one non-nil value against the attribute kind.
func (a *Attribute) ValidateValue(value any) error {
	return a.kind.ValidateValue(value)
}

// Validate checks the value inst holds for this attribute against the
// attribute multiplicity and kind.
func (a *Attribute) Validate(inst *Instance) error {
	entityName := ""
	if inst != nil && inst.class != nil {
		entityName = inst.class.Name()
	}
	var value any
	if inst != nil {
		value = inst.Get(a.name)
	}

	if isAbsent(value) {
		if a.multiplicity.Required() {
			return &ValidationError{Message: "this attribute is required", Entity: entityName, Attribute: a.name}
		}
		return nil
	}

	if !a.multiplicity.IsCollection() {
		if err := a.ValidateValue(value); err != nil {
			return newValidationError(err, entityName, a.name, nil)
		}
		return nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return &ValidationError{Message: "value should be an Array", Entity: entityName, Attribute: a.name}
	}
	present := 0
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i).Interface()
		if isAbsent(elem) {
			continue
		}
		present++
		if err := a.ValidateValue(elem); err != nil {
			pos := i
			return newValidationError(err, entityName, a.name, &pos)
		}
	}
	if a.multiplicity == OneOrMore && present == 0 {
		return &ValidationError{Message: "value should be a non empty Array", Entity: entityName, Attribute: a.name}
	}
	return nil
}

// GetDataName returns the storage field name for the given adapter.
func (a *Attribute) GetDataName(adapterName string) string {
	if n, ok := a.dataName.For(adapterName); ok {
		return n
	}
	return a.name
}

// GetDataValue converts an in-memory value to its storage form. Elements of
// multi-valued attributes are converted one by one.
func (a *Attribute) GetDataValue(value any) (any, error) {
	if isAbsent(value) {
		return nil, nil
	}
	if a.multiplicity.IsCollection() {
		return mapElements(value, a.kind.DataValue)
	}
	return a.kind.DataValue(value)
}

// ParseDataValue converts a stored value to its in-memory form.
func (a *Attribute) ParseDataValue(value any) (any, error) {
	if isAbsent(value) {
		return nil, nil
	}
	if a.multiplicity.IsCollection() {
		return mapElements(value, a.kind.ParseDataValue)
	}
	return a.kind.ParseDataValue(value)
}

func mapElements(value any, fn func(any) (any, error)) (any, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fn(value)
	}
	out := make([]any, rv.Len())
	for i := range out {
		elem := rv.Index(i).Interface()
		if isAbsent(elem) {
			continue
		}
		v, err := fn(elem)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		out[i] = v
	}
	return out, nil
}

func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func:
		return rv.IsNil()
	}
	return false
}
