package config

import (
	"github.com/spf13/viper"
)

// ViperConfig reads keys from a YAML/TOML/JSON config file. Environment
// variables with the same name override file values.
type ViperConfig struct {
	keyReader
	v    *viper.Viper
	path string
}

func NewViperConfig(path string) *ViperConfig {
	v := viper.New()
	v.AutomaticEnv()
	return &ViperConfig{keyReader: keyReader{lookup: v.GetString}, v: v, path: path}
}

func (c *ViperConfig) LoadFromPath(path string) error {
	c.path = path
	return c.Load()
}

func (c *ViperConfig) Load() error {
	if c.path == "" {
		return nil
	}

	c.v.SetConfigFile(c.path)
	return c.v.ReadInConfig()
}

// Set is used by tests and command line flags to inject a value.
func (c *ViperConfig) Set(key, value string) {
	c.v.Set(key, value)
}
