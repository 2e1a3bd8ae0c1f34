package config

import (
	"os"

	"github.com/subosito/gotenv"
)

// DotenvConfig loads a dotenv file into the process environment and reads keys
// from there. Variables already set in the environment win over the file.
type DotenvConfig struct {
	keyReader
	DotenvPath string
}

func NewDotenvConfig(path string) *DotenvConfig {
	return &DotenvConfig{keyReader: keyReader{lookup: os.Getenv}, DotenvPath: path}
}

func (c *DotenvConfig) LoadFromPath(path string) error {
	c.DotenvPath = path
	return c.Load()
}

func (c *DotenvConfig) Load() error {
	return gotenv.Load(c.DotenvPath)
}
