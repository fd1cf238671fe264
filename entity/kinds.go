package entity

import (
	"math"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/CaliLuke/go-entity/classes"
)

// Kind is the behavior of one attribute type. Concrete kinds validate single
// values and convert them between their in-memory and storage forms.
type Kind interface {
	// Name is the type name used in descriptors, e.g. "String".
	Name() string
	// Class is the kind's node under AttributeClass.
	Class() *classes.Class
	// ValidateValue checks one non-nil value.
	ValidateValue(value any) error
	// DataValue converts a value to its storage representation.
	DataValue(value any) (any, error)
	// ParseDataValue converts a stored value back to its in-memory form.
	ParseDataValue(value any) (any, error)
}

// AttributeClass is the abstract root of every attribute kind.
var AttributeClass = classes.MustNew("Attribute", nil)

type baseKind struct{}

// AttributeKind is the abstract base kind. It cannot be used to construct
// attributes and its ValidateValue always fails.
var AttributeKind Kind = baseKind{}

func (baseKind) Name() string          { return "Attribute" }
func (baseKind) Class() *classes.Class { return AttributeClass }
func (baseKind) ValidateValue(any) error {
	return errors.New(`function "ValidateValue" has to be implemented by the attribute kind`)
}
func (baseKind) DataValue(v any) (any, error)      { return v, nil }
func (baseKind) ParseDataValue(v any) (any, error) { return v, nil }

// ScalarKind is a Kind built from plain functions. Nil conversion functions
// mean identity.
type ScalarKind struct {
	class    *classes.Class
	validate func(any) error
	toData   func(any) (any, error)
	fromData func(any) (any, error)
}

// NewScalarKind creates a kind named name specialized from AttributeClass.
func NewScalarKind(name string, validate func(any) error, toData, fromData func(any) (any, error)) (*ScalarKind, error) {
	if validate == nil {
		return nil, assertf("kind %q needs a validate function", name)
	}
	c, err := classes.New(name, nil)
	if err != nil {
		return nil, err
	}
	if err := classes.Generalize(AttributeClass, c); err != nil {
		return nil, err
	}
	return &ScalarKind{class: c, validate: validate, toData: toData, fromData: fromData}, nil
}

func mustScalarKind(name string, validate func(any) error, toData, fromData func(any) (any, error)) *ScalarKind {
	k, err := NewScalarKind(name, validate, toData, fromData)
	if err != nil {
		panic(err)
	}
	return k
}

func (k *ScalarKind) Name() string          { return k.class.Name() }
func (k *ScalarKind) Class() *classes.Class { return k.class }

func (k *ScalarKind) ValidateValue(v any) error { return k.validate(v) }

func (k *ScalarKind) DataValue(v any) (any, error) {
	if k.toData == nil {
		return v, nil
	}
	return k.toData(v)
}

func (k *ScalarKind) ParseDataValue(v any) (any, error) {
	if k.fromData == nil {
		return v, nil
	}
	return k.fromData(v)
}

// Built-in scalar kinds.
var (
	ObjectKind  = mustScalarKind("Object", validateObject, nil, nil)
	StringKind  = mustScalarKind("String", validateString, nil, nil)
	BooleanKind = mustScalarKind("Boolean", validateBoolean, nil, nil)
	NumberKind  = mustScalarKind("Number", validateNumber, nil, nil)
	IntegerKind = mustScalarKind("Integer", validateInteger, nil, parseInteger)
	DateKind    = mustScalarKind("Date", validateDate, dateToData, parseDate)
)

func validateObject(v any) error {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Struct, reflect.Slice, reflect.Array:
		return nil
	case reflect.Ptr, reflect.Interface:
		if !reflect.ValueOf(v).IsNil() {
			return nil
		}
	}
	return errors.New("this attribute's value should be an object")
}

func validateString(v any) error {
	if _, ok := v.(string); !ok {
		return errors.New("this attribute's value should be a string")
	}
	return nil
}

func validateBoolean(v any) error {
	if _, ok := v.(bool); !ok {
		return errors.New("this attribute's value should be a boolean")
	}
	return nil
}

func isNumber(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func validateNumber(v any) error {
	if !isNumber(v) {
		return errors.New("this attribute's value should be a number")
	}
	return nil
}

func validateInteger(v any) error {
	if !isNumber(v) {
		return errors.New("this attribute's value should be an integer")
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Float32 || rv.Kind() == reflect.Float64 {
		f := rv.Float()
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return errors.New("this attribute's value should be an integer")
		}
	}
	return nil
}

// parseInteger normalizes stored numbers, which codecs may decode as any
// numeric width, to int64.
func parseInteger(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return int64(rv.Float()), nil
	}
	return nil, errors.Newf("cannot parse %T as an integer", v)
}

func validateDate(v any) error {
	if _, ok := v.(time.Time); !ok {
		return errors.New("this attribute's value should be a date")
	}
	return nil
}

func dateToData(v any) (any, error) {
	t, ok := v.(time.Time)
	if !ok {
		return v, nil
	}
	return t.UTC().Format(time.RFC3339Nano), nil
}

func parseDate(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return t, nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return nil, errors.Wrapf(err, "parse date %q", t)
		}
		return parsed, nil
	}
	return nil, errors.Newf("cannot parse %T as a date", v)
}

var (
	kindsMu sync.RWMutex
	kinds   = map[string]Kind{}
)

func init() {
	for _, k := range []Kind{ObjectKind, StringKind, BooleanKind, NumberKind, IntegerKind, DateKind} {
		if err := RegisterKind(k); err != nil {
			panic(err)
		}
	}
}

// RegisterKind makes a kind available to Resolve under its name. The kind's
// class must be a specialization of AttributeClass.
func RegisterKind(k Kind) error {
	if k == nil {
		return assertf("cannot register a nil attribute kind")
	}
	if !classes.IsGeneral(AttributeClass, k.Class()) {
		return assertf("attribute kind %q has to be a specialization of Attribute", k.Name())
	}
	kindsMu.Lock()
	defer kindsMu.Unlock()
	if _, ok := kinds[k.Name()]; ok {
		return &DuplicateNameError{Name: k.Name(), Context: "attribute kind"}
	}
	kinds[k.Name()] = k
	return nil
}

// LookupKind returns the registered kind for a type name.
func LookupKind(name string) (Kind, error) {
	if name == "" {
		return nil, assertf("empty attribute type name")
	}
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	k, ok := kinds[name]
	if !ok {
		return nil, errors.Wrapf(errTypeNotFound, "type %q", name)
	}
	return k, nil
}

// KindNames returns the sorted names of all registered kinds.
func KindNames() []string {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	names := make([]string, 0, len(kinds))
	for n := range kinds {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
