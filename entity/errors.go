package entity

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// errTypeNotFound signals that a type name has no registered attribute kind.
// Resolve uses it to fall back to an association attribute.
var errTypeNotFound = errors.New("attribute kind not found")

// AssertionError is returned when a constructor or engine operation receives
// malformed input: wrong argument count or type, reserved or duplicate names,
// unknown properties, invalid multiplicity. It always indicates a programming
// mistake in a schema definition.
type AssertionError struct {
	Message string
}

// Error returns the error message for AssertionError.
func (e *AssertionError) Error() string {
	return e.Message
}

func assertf(format string, args ...any) error {
	return errors.WithStack(&AssertionError{Message: fmt.Sprintf(format, args...)})
}

// ValidationError is returned when the data held by an instance violates its
// schema. Position is set for elements of multi-valued attributes.
type ValidationError struct {
	Message   string
	Entity    string
	Attribute string
	Position  *int
	Cause     error
}

// Error returns the error message for ValidationError.
func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	var ctx []string
	if e.Entity != "" {
		ctx = append(ctx, fmt.Sprintf("entity %q", e.Entity))
	}
	if e.Attribute != "" {
		ctx = append(ctx, fmt.Sprintf("attribute %q", e.Attribute))
	}
	if e.Position != nil {
		ctx = append(ctx, fmt.Sprintf("position %d", *e.Position))
	}
	if len(ctx) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(ctx, ", "))
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap returns the underlying cause of the ValidationError.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// newValidationError wraps cause with entity and attribute context. The
// message of a nested ValidationError is kept as-is.
func newValidationError(cause error, entity, attribute string, position *int) *ValidationError {
	msg := cause.Error()
	var ve *ValidationError
	if errors.As(cause, &ve) {
		msg = ve.Message
	}
	return &ValidationError{
		Message:   msg,
		Entity:    entity,
		Attribute: attribute,
		Position:  position,
		Cause:     cause,
	}
}

// EntityNotFoundError is returned when a referenced entity name is not
// registered in the generalization tree.
type EntityNotFoundError struct {
	Name string
}

// Error returns the error message for EntityNotFoundError.
func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("entity %q not found", e.Name)
}

// ReservedWordError is returned when a reserved word is used as an attribute name.
type ReservedWordError struct {
	Word    string
	Context string
}

// Error returns the error message for ReservedWordError.
func (e *ReservedWordError) Error() string {
	return fmt.Sprintf("%q is a reserved word and cannot be used as %s name", e.Word, e.Context)
}

// DuplicateNameError is returned when a name is already taken in the scope
// where it is being declared.
type DuplicateNameError struct {
	Name    string
	Context string
}

// Error returns the error message for DuplicateNameError.
func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicated %s name %q", e.Context, e.Name)
}

// AdapterError is returned when a persistence adapter fails or is missing.
type AdapterError struct {
	Adapter   string
	Operation string
	Cause     error
}

// Error returns the error message for AdapterError.
func (e *AdapterError) Error() string {
	return fmt.Sprintf("adapter %q %s: %v", e.Adapter, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause of the AdapterError.
func (e *AdapterError) Unwrap() error {
	return e.Cause
}

// IsAssertion reports whether err is, or wraps, a precondition failure.
func IsAssertion(err error) bool {
	var ae *AssertionError
	var rw *ReservedWordError
	var dn *DuplicateNameError
	var ie *InvalidIdentifierError
	return errors.As(err, &ae) || errors.As(err, &rw) || errors.As(err, &dn) || errors.As(err, &ie)
}
