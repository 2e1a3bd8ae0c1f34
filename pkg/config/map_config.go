package config

import (
	"fmt"
	"sync"
)

// MapConfig serves keys from memory. Tests use it in place of a dotenv file.
type MapConfig struct {
	keyReader
	values sync.Map
}

func NewMapConfig(entries map[string]string) *MapConfig {
	c := &MapConfig{}
	c.keyReader = keyReader{lookup: c.get}

	for key, value := range entries {
		c.values.Store(key, value)
	}

	return c
}

// Set adds or replaces key.
func (c *MapConfig) Set(key, value string) {
	c.values.Store(key, value)
}

func (c *MapConfig) LoadFromPath(path string) error {
	return fmt.Errorf("MapConfig cannot load '%s'", path)
}

func (c *MapConfig) Load() error {
	return nil
}

func (c *MapConfig) get(key string) string {
	if v, ok := c.values.Load(key); ok {
		return v.(string)
	}

	return ""
}
