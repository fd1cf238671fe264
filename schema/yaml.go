package schema

import (
	"bytes"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// yamlFile is the YAML schema layout:
//
//	entities:
//	  - name: Person
//	    abstract: true
//	    dataName: people
//	    attributes:
//	      - {name: name, type: String}
//	      - {name: tags, type: String, multiplicity: "*"}
//	  - name: Employee
//	    sub: Person
type yamlFile struct {
	Entities []yamlEntity `yaml:"entities"`
}

type yamlEntity struct {
	Name       string          `yaml:"name"`
	Sub        string          `yaml:"sub,omitempty"`
	Abstract   bool            `yaml:"abstract,omitempty"`
	DataName   yaml.Node       `yaml:"dataName,omitempty"`
	Adapter    string          `yaml:"adapter,omitempty"`
	Attributes []yamlAttribute `yaml:"attributes,omitempty"`
}

type yamlAttribute struct {
	Name         string    `yaml:"name"`
	Type         string    `yaml:"type,omitempty"`
	Multiplicity string    `yaml:"multiplicity,omitempty"`
	Default      yaml.Node `yaml:"default,omitempty"`
	DataName     yaml.Node `yaml:"dataName,omitempty"`
}

// ParseYAML parses a YAML schema document.
func ParseYAML(data []byte) (*ParsedSchema, error) {
	var f yamlFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "parse yaml schema")
	}

	out := &ParsedSchema{}
	for _, ye := range f.Entities {
		dn, err := yamlDataName(&ye.DataName)
		if err != nil {
			return nil, errors.Wrapf(err, "entity %q", ye.Name)
		}
		spec := EntitySpec{
			Name:     ye.Name,
			Parent:   ye.Sub,
			Abstract: ye.Abstract,
			DataName: dn,
			Adapter:  ye.Adapter,
		}
		for _, ya := range ye.Attributes {
			adn, err := yamlDataName(&ya.DataName)
			if err != nil {
				return nil, errors.Wrapf(err, "attribute %s.%s", ye.Name, ya.Name)
			}
			as := AttributeSpec{
				Name:         ya.Name,
				Type:         ya.Type,
				Multiplicity: ya.Multiplicity,
				DataName:     adn,
			}
			if !ya.Default.IsZero() {
				var v any
				if err := ya.Default.Decode(&v); err != nil {
					return nil, errors.Wrapf(err, "default of %s.%s", ye.Name, ya.Name)
				}
				as.Default, as.HasDefault = normalizeYAML(v), true
			}
			spec.Attributes = append(spec.Attributes, as)
		}
		out.Entities = append(out.Entities, spec)
	}
	return out, nil
}

// ParseYAMLFile reads and parses a YAML schema file.
func ParseYAMLFile(path string) (*ParsedSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read schema")
	}
	return ParseYAML(data)
}

func yamlDataName(n *yaml.Node) (DataNameSpec, error) {
	switch n.Kind {
	case 0:
		return DataNameSpec{}, nil
	case yaml.ScalarNode:
		return DataNameSpec{Single: n.Value}, nil
	case yaml.MappingNode:
		m := map[string]string{}
		if err := n.Decode(&m); err != nil {
			return DataNameSpec{}, err
		}
		return DataNameSpec{PerAdapter: m}, nil
	}
	return DataNameSpec{}, errors.Newf("line %d: dataName has to be a string or a mapping", n.Line)
}

// normalizeYAML converts yaml integers to int64 so defaults match the values
// produced by the .ent parser.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case []any:
		for i := range t {
			t[i] = normalizeYAML(t[i])
		}
		return t
	}
	return v
}
