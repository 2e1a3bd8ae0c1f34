package config

import (
	"strconv"

	"github.com/apex/log"
)

// Configer is the key/value view mcbund and the clients read settings through.
type Configer interface {
	LoadFromPath(path string) error
	Load() error
	GetKey(key string) string
	MustGetKey(key string) string
	GetKeyWithDefault(key, defaultValue string) string
	GetIntKey(key string) int
	MustGetIntKey(key string) int
	GetIntKeyWithDefault(key string, defaultValue int) int
}

// keyReader implements the typed accessors of Configer on top of a single
// string lookup. An empty value counts as unset.
type keyReader struct {
	lookup func(key string) string
}

func (r keyReader) GetKey(key string) string {
	return r.lookup(key)
}

func (r keyReader) MustGetKey(key string) string {
	val := r.lookup(key)
	if val == "" {
		log.Fatalf("Missing required config key '%s'", key)
	}

	return val
}

func (r keyReader) GetKeyWithDefault(key, defaultValue string) string {
	if val := r.lookup(key); val != "" {
		return val
	}

	return defaultValue
}

func (r keyReader) GetIntKey(key string) int {
	return r.GetIntKeyWithDefault(key, 0)
}

func (r keyReader) MustGetIntKey(key string) int {
	n, err := strconv.Atoi(r.lookup(key))
	if err != nil {
		log.Fatalf("Config key '%s' is missing or not an int: %s", key, err)
	}

	return n
}

func (r keyReader) GetIntKeyWithDefault(key string, defaultValue int) int {
	n, err := strconv.Atoi(r.lookup(key))
	if err != nil {
		return defaultValue
	}

	return n
}
