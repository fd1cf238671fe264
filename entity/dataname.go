package entity

import (
	"sort"
)

// DataName maps an attribute or entity to its storage name. It is either a
// single name used by every adapter or a per-adapter map.
type DataName struct {
	single     string
	perAdapter map[string]string
}

// NewDataName builds a DataName from a string, a map[string]string, a
// map[string]any with string values, or nil.
func NewDataName(v any) (DataName, error) {
	switch d := v.(type) {
	case nil:
		return DataName{}, nil
	case DataName:
		return d.clone(), nil
	case string:
		return DataName{single: d}, nil
	case map[string]string:
		m := make(map[string]string, len(d))
		for k, n := range d {
			if n == "" {
				return DataName{}, assertf("invalid data name for adapter %q (it has to be a non-empty string)", k)
			}
			m[k] = n
		}
		return DataName{perAdapter: m}, nil
	case map[string]any:
		m := make(map[string]string, len(d))
		for k, raw := range d {
			n, ok := raw.(string)
			if !ok || n == "" {
				return DataName{}, assertf("invalid data name for adapter %q (it has to be a non-empty string)", k)
			}
			m[k] = n
		}
		return DataName{perAdapter: m}, nil
	}
	return DataName{}, assertf("invalid data name of type %T (it has to be a string or a map of adapter names to strings)", v)
}

// For returns the storage name for adapterName. A single name applies to
// every adapter.
func (d DataName) For(adapterName string) (string, bool) {
	if d.single != "" {
		return d.single, true
	}
	n, ok := d.perAdapter[adapterName]
	return n, ok
}

// IsZero reports whether no storage name was declared.
func (d DataName) IsZero() bool {
	return d.single == "" && len(d.perAdapter) == 0
}

// Single returns the adapter-independent name, if any.
func (d DataName) Single() string { return d.single }

// Map returns a copy of the per-adapter names.
func (d DataName) Map() map[string]string {
	if d.perAdapter == nil {
		return nil
	}
	m := make(map[string]string, len(d.perAdapter))
	for k, v := range d.perAdapter {
		m[k] = v
	}
	return m
}

// Adapters returns the sorted adapter names of a per-adapter mapping.
func (d DataName) Adapters() []string {
	names := make([]string, 0, len(d.perAdapter))
	for k := range d.perAdapter {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (d DataName) clone() DataName {
	return DataName{single: d.single, perAdapter: d.Map()}
}
