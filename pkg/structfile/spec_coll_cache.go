package structfile

import "sync"

// SpecCollCache persists the mount state (cache dir and dirty flag) of struct
// files between descriptor lifetimes. The catalog collection stor implements it.
type SpecCollCache interface {
	// GetSpecColl returns nil, nil when nothing is recorded for collection.
	GetSpecColl(collection string) (*SpecColl, error)
	SaveSpecColl(sc *SpecColl) error
}

type InMemorySpecCollCache struct {
	entries sync.Map // map[collection]SpecColl
}

func NewInMemorySpecCollCache() *InMemorySpecCollCache {
	return &InMemorySpecCollCache{}
}

func (c *InMemorySpecCollCache) GetSpecColl(collection string) (*SpecColl, error) {
	v, ok := c.entries.Load(collection)
	if !ok {
		return nil, nil
	}

	sc := v.(SpecColl)
	return &sc, nil
}

func (c *InMemorySpecCollCache) SaveSpecColl(sc *SpecColl) error {
	c.entries.Store(sc.Collection, *sc)
	return nil
}
