package entity

import (
	"fmt"
	"unicode"
)

// ReservedWords is the set of names an attribute cannot take because
// instances and classes already use them.
var ReservedWords = map[string]bool{
	"save": true, "validate": true, "isValid": true, "delete": true,
	"adapter": true, "adapterName": true,
	"Entity": true, "General": true,
	"isNew": true, "isDirty": true, "clean": true,
	"id": true,
}

// IsReservedWord returns true if name is reserved. The check is case-sensitive.
func IsReservedWord(name string) bool {
	return ReservedWords[name]
}

// ValidateIdentifier checks that a name is a valid entity identifier.
// Valid identifiers start with a letter or underscore and continue with
// letters, digits or underscores.
func ValidateIdentifier(name, context string) error {
	if name == "" {
		return assertf("empty %s name", context)
	}
	for i, r := range name {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return &InvalidIdentifierError{
					Name:    name,
					Context: context,
					Reason:  fmt.Sprintf("must start with a letter or underscore, got %q", r),
				}
			}
		} else if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return &InvalidIdentifierError{
				Name:    name,
				Context: context,
				Reason:  fmt.Sprintf("invalid character %q at position %d", r, i),
			}
		}
	}
	return nil
}

// InvalidIdentifierError is returned when a name contains characters
// not allowed in identifiers.
type InvalidIdentifierError struct {
	Name    string
	Context string
	Reason  string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid %s name %q: %s", e.Context, e.Name, e.Reason)
}
