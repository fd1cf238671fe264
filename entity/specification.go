package entity

import (
	"sort"

	"github.com/cockroachdb/errors"
)

// SpecificationConfig is the typed input of NewSpecification. Attributes and
// Methods take any shape accepted by NewAttributeCollection and
// NewMethodCollection.
type SpecificationConfig struct {
	Name        string
	Attributes  any
	Methods     any
	IsAbstract  bool
	DataName    any
	AdapterName string
}

// Flags are the optional fourth positional argument of ParseSpecification.
type Flags struct {
	IsAbstract  bool
	DataName    any
	AdapterName string
}

// Specification is the validated, immutable declaration of one entity.
type Specification struct {
	name        string
	attributes  *AttributeCollection
	methods     *MethodCollection
	isAbstract  bool
	dataName    DataName
	adapterName string
}

var specificationKeys = []string{"name", "attributes", "methods", "isAbstract", "dataName", "adapterName"}

// NewSpecification validates cfg and builds a Specification. DataName
// defaults to the entity name.
func NewSpecification(cfg SpecificationConfig) (*Specification, error) {
	if cfg.Name != "" {
		if err := ValidateIdentifier(cfg.Name, "entity"); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	attrs, err := NewAttributeCollection(cfg.Attributes)
	if err != nil {
		return nil, errors.Wrapf(err, "entity %q attributes", cfg.Name)
	}
	methods, err := NewMethodCollection(cfg.Methods)
	if err != nil {
		return nil, errors.Wrapf(err, "entity %q methods", cfg.Name)
	}
	dn, err := NewDataName(cfg.DataName)
	if err != nil {
		return nil, errors.Wrapf(err, "entity %q", cfg.Name)
	}
	if dn.IsZero() && cfg.Name != "" {
		dn = DataName{single: cfg.Name}
	}
	if cfg.AdapterName != "" {
		if err := ValidateIdentifier(cfg.AdapterName, "adapter"); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	return &Specification{
		name:        cfg.Name,
		attributes:  attrs.freeze(),
		methods:     methods,
		isAbstract:  cfg.IsAbstract,
		dataName:    dn,
		adapterName: cfg.AdapterName,
	}, nil
}

// ParseSpecification normalizes the flexible argument shapes into a
// Specification: a *Specification (returned as-is), a SpecificationConfig,
// a map[string]any, a name string, or the positional form
// (name, attributes, methods, flags).
func ParseSpecification(args ...any) (*Specification, error) {
	if len(args) == 0 {
		return nil, assertf("an entity specification is required")
	}
	if len(args) > 4 {
		return nil, assertf("invalid arguments length when creating an entity specification (it has to be passed from 1 to 4 arguments)")
	}
	if len(args) == 1 {
		switch v := args[0].(type) {
		case *Specification:
			if v == nil {
				return nil, assertf("invalid entity specification (nil)")
			}
			return v, nil
		case SpecificationConfig:
			return NewSpecification(v)
		case *SpecificationConfig:
			if v == nil {
				return nil, assertf("invalid entity specification (nil)")
			}
			return NewSpecification(*v)
		case map[string]any:
			cfg, err := configFromMap(v)
			if err != nil {
				return nil, err
			}
			return NewSpecification(cfg)
		case string:
			return NewSpecification(SpecificationConfig{Name: v})
		}
		return nil, assertf("invalid entity specification of type %T", args[0])
	}

	name, ok := args[0].(string)
	if !ok {
		return nil, assertf(`invalid argument "name" when creating an entity specification (it has to be a string)`)
	}
	cfg := SpecificationConfig{Name: name, Attributes: args[1]}
	if len(args) > 2 {
		cfg.Methods = args[2]
	}
	if len(args) > 3 {
		if err := applyFlags(&cfg, args[3]); err != nil {
			return nil, err
		}
	}
	return NewSpecification(cfg)
}

func applyFlags(cfg *SpecificationConfig, raw any) error {
	switch f := raw.(type) {
	case nil:
		return nil
	case Flags:
		cfg.IsAbstract, cfg.DataName, cfg.AdapterName = f.IsAbstract, f.DataName, f.AdapterName
		return nil
	case *Flags:
		if f != nil {
			cfg.IsAbstract, cfg.DataName, cfg.AdapterName = f.IsAbstract, f.DataName, f.AdapterName
		}
		return nil
	case map[string]any:
		for _, k := range sortedKeys(f) {
			if err := setFlag(cfg, k, f[k]); err != nil {
				return err
			}
		}
		return nil
	}
	return assertf(`invalid argument "flags" of type %T when creating an entity specification`, raw)
}

func setFlag(cfg *SpecificationConfig, key string, v any) error {
	switch key {
	case "isAbstract":
		b, ok := v.(bool)
		if !ok {
			return assertf(`invalid property "isAbstract" (it has to be a boolean)`)
		}
		cfg.IsAbstract = b
	case "dataName":
		cfg.DataName = v
	case "adapterName":
		s, ok := v.(string)
		if !ok {
			return assertf(`invalid property "adapterName" (it has to be a string)`)
		}
		cfg.AdapterName = s
	default:
		return assertf("invalid flag %q (valid flags are isAbstract, dataName and adapterName)", key)
	}
	return nil
}

func configFromMap(m map[string]any) (SpecificationConfig, error) {
	var cfg SpecificationConfig
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := m[k]
		switch k {
		case "name":
			s, ok := v.(string)
			if !ok {
				return cfg, assertf(`invalid property "name" when creating an entity specification (it has to be a string)`)
			}
			cfg.Name = s
		case "attributes":
			cfg.Attributes = v
		case "methods":
			cfg.Methods = v
		case "isAbstract", "dataName", "adapterName":
			if err := setFlag(&cfg, k, v); err != nil {
				return cfg, err
			}
		default:
			return cfg, assertf("invalid property %q when creating an entity specification (valid properties are %v)", k, specificationKeys)
		}
	}
	return cfg, nil
}

// Name returns the entity name.
func (s *Specification) Name() string { return s.name }

// Attributes returns the entity's own attributes. The collection is frozen.
func (s *Specification) Attributes() *AttributeCollection { return s.attributes }

// Methods returns the entity's own methods.
func (s *Specification) Methods() *MethodCollection { return s.methods }

// IsAbstract reports whether the entity cannot be instantiated.
func (s *Specification) IsAbstract() bool { return s.isAbstract }

// DataName returns the entity storage name mapping.
func (s *Specification) DataName() DataName { return s.dataName }

// AdapterName returns the declared adapter name, empty when inherited.
func (s *Specification) AdapterName() string { return s.adapterName }
