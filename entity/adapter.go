package entity

import (
	"context"
)

// Adapter persists entity instances. Implementations map attributes to
// storage fields through Attribute.GetDataName, GetDataValue and
// ParseDataValue, and classes to collections through Class.DataName.
type Adapter interface {
	// LoadAttribute fetches the stored value of attr for inst and hydrates it.
	LoadAttribute(ctx context.Context, inst *Instance, attr *Attribute) error
	// InsertObject stores inst, replacing a previous version with the same ID.
	InsertObject(ctx context.Context, inst *Instance) error
	// DeleteObject removes inst from storage.
	DeleteObject(ctx context.Context, inst *Instance) error
}

// adapterFor returns the adapter configured for c in its tree.
func (c *Class) adapterFor() (string, Adapter, error) {
	name := c.AdapterName()
	a, err := c.tree.Adapter(name)
	if err != nil {
		return name, nil, err
	}
	return name, a, nil
}
