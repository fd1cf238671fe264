package entity

// Multiplicity is the cardinality constraint of an attribute value.
type Multiplicity string

const (
	// One requires exactly one value.
	One Multiplicity = "1"
	// ZeroOrOne allows an absent or single value.
	ZeroOrOne Multiplicity = "0..1"
	// OneOrMore requires a non-empty array.
	OneOrMore Multiplicity = "1..*"
	// Many allows an array of any length.
	Many Multiplicity = "*"
)

// ParseMultiplicity parses one of "1", "0..1", "1..*" or "*".
func ParseMultiplicity(s string) (Multiplicity, error) {
	switch m := Multiplicity(s); m {
	case One, ZeroOrOne, OneOrMore, Many:
		return m, nil
	}
	return "", assertf(`invalid multiplicity %q (valid values are "1", "0..1", "1..*" and "*")`, s)
}

// Required reports whether an absent value is an error.
func (m Multiplicity) Required() bool {
	return m == One || m == OneOrMore
}

// IsCollection reports whether the value is expected to be an array.
func (m Multiplicity) IsCollection() bool {
	return m == Many || m == OneOrMore
}

func (m Multiplicity) String() string { return string(m) }
