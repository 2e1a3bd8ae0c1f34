package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultMaxSubFiles = 512
	DefaultMaxBundleGB = 4
)

var validate = validator.New()

// ServerConfig is the typed view of the keys mcbund reads.
type ServerConfig struct {
	Host        string            `validate:"required"`
	Listen      string            `validate:"required"`
	Zone        string            `validate:"required"`
	Peers       map[string]string `validate:"dive,keys,required,endkeys,url"`
	HostAliases []string
	MaxSubFiles int    `validate:"gte=1"`
	MaxBundleGB int    `validate:"gte=1"`
	LogLevel    string `validate:"omitempty,oneof=debug info warn error fatal"`
	SqlitePath  string
	AuthToken   string

	// DefaultResource receives struct files bundled without an explicit resource.
	DefaultResource string
}

// LoadServerConfig reads the MCBUN_* keys from c.
func LoadServerConfig(c Configer) (*ServerConfig, error) {
	cfg := &ServerConfig{
		Host:        c.GetKey("MCBUN_HOST"),
		Listen:      c.GetKeyWithDefault("MCBUN_LISTEN", ":1247"),
		Zone:        c.GetKey("MCBUN_ZONE"),
		MaxSubFiles: c.GetIntKeyWithDefault("MCBUN_MAX_SUBFILES", DefaultMaxSubFiles),
		MaxBundleGB: c.GetIntKeyWithDefault("MCBUN_MAX_BUNDLE_GB", DefaultMaxBundleGB),
		LogLevel:    strings.ToLower(c.GetKey("MCBUN_LOG_LEVEL")),
		SqlitePath:  c.GetKey("MCBUN_DB_SQLITE"),
		AuthToken:   c.GetKey("MCBUN_AUTH_TOKEN"),

		DefaultResource: c.GetKey("MCBUN_DEFAULT_RESOURCE"),
	}

	peers, err := ParsePeers(c.GetKey("MCBUN_PEERS"))
	if err != nil {
		return nil, err
	}
	cfg.Peers = peers

	for _, alias := range strings.Split(c.GetKey("MCBUN_HOST_ALIASES"), ",") {
		if alias = strings.TrimSpace(alias); alias != "" {
			cfg.HostAliases = append(cfg.HostAliases, alias)
		}
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, formatValidationError(err)
	}

	return cfg, nil
}

// ParsePeers parses "name=url,name=url".
func ParsePeers(s string) (map[string]string, error) {
	peers := make(map[string]string)
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, url, found := strings.Cut(entry, "=")
		if !found || name == "" || url == "" {
			return nil, fmt.Errorf("bad MCBUN_PEERS entry '%s', expected name=url", entry)
		}

		peers[strings.TrimSpace(name)] = strings.TrimSpace(url)
	}

	return peers, nil
}

func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)", e.Namespace(), e.Tag(), e.Value())
	}

	return err
}
