// Package bunutil implements the ibun and iphybun client utilities on top of
// the mcbund HTTP API.
package bunutil

import (
	"os"
	"path"

	"github.com/materials-commons/mcbun/pkg/config"
	"github.com/mitchellh/go-homedir"
)

const DefaultEnvPath = "~/.mcbun/env"

// Env is the client environment: which server to talk to and as whom.
type Env struct {
	ServerURL       string
	Zone            string
	User            string
	Cwd             string
	DefaultResource string
	AuthToken       string
}

// LoadEnv reads the dotenv file at envPath, DefaultEnvPath when empty. A
// missing file is not an error, the process environment is used on its own.
// Variables already set in the environment win over the file.
func LoadEnv(envPath string) (*Env, error) {
	if envPath == "" {
		envPath = DefaultEnvPath
	}

	expanded, err := homedir.Expand(envPath)
	if err != nil {
		return nil, usageErrorf("cannot resolve %s: %s", envPath, err)
	}

	c := config.NewDotenvConfig(expanded)
	if _, err := os.Stat(expanded); err == nil {
		if err := c.Load(); err != nil {
			return nil, usageErrorf("reading %s failed: %s", expanded, err)
		}
	}

	return EnvFromConfig(c)
}

func EnvFromConfig(c config.Configer) (*Env, error) {
	env := &Env{
		ServerURL:       c.GetKey("MCBUN_SERVER_URL"),
		Zone:            c.GetKey("MCBUN_ZONE"),
		User:            c.GetKey("MCBUN_USER"),
		Cwd:             c.GetKey("MCBUN_CWD"),
		DefaultResource: c.GetKey("MCBUN_DEFAULT_RESOURCE"),
		AuthToken:       c.GetKey("MCBUN_AUTH_TOKEN"),
	}

	switch {
	case env.ServerURL == "":
		return nil, usageErrorf("MCBUN_SERVER_URL is not set")
	case env.Zone == "":
		return nil, usageErrorf("MCBUN_ZONE is not set")
	}

	if env.Cwd == "" && env.User != "" {
		env.Cwd = path.Join("/", env.Zone, "home", env.User)
	}

	return env, nil
}
