package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
)

// MustLoadFromMCDotenv loads the dotenv file named by MC_DOTENV_PATH, installs it
// as the package config and returns it. A missing MC_DOTENV_PATH leaves the process
// environment as the only source of keys.
func MustLoadFromMCDotenv() Configer {
	c := NewDotenvConfig(os.Getenv("MC_DOTENV_PATH"))
	if c.DotenvPath != "" {
		if err := c.Load(); err != nil {
			log.Fatalf("Loading dotenv file %s failed: %s", c.DotenvPath, err)
		}
	}

	SetConfig(c)
	return c
}

// MustLoadFromFile picks the loader from the path: an empty path falls back to
// MC_DOTENV_PATH, a .env file is read with gotenv and anything else with viper.
func MustLoadFromFile(path string) Configer {
	if path == "" {
		return MustLoadFromMCDotenv()
	}

	var c Configer
	if isDotenvPath(path) {
		c = NewDotenvConfig(path)
	} else {
		c = NewViperConfig(path)
	}

	if err := c.Load(); err != nil {
		log.Fatalf("Loading config file %s failed: %s", path, err)
	}

	SetConfig(c)
	return c
}

func isDotenvPath(path string) bool {
	base := filepath.Base(path)
	return base == "env" || strings.HasSuffix(base, ".env")
}
