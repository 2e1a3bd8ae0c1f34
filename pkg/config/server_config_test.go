package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadServerConfig(t *testing.T) {
	var tests = []struct {
		name       string
		entries    map[string]string
		shouldFail bool
		check      func(t *testing.T, cfg *ServerConfig)
	}{
		{
			name: "defaults applied",
			entries: map[string]string{
				"MCBUN_HOST": "srv1",
				"MCBUN_ZONE": "tempZone",
			},
			check: func(t *testing.T, cfg *ServerConfig) {
				require.Equal(t, ":1247", cfg.Listen)
				require.Equal(t, DefaultMaxSubFiles, cfg.MaxSubFiles)
				require.Equal(t, DefaultMaxBundleGB, cfg.MaxBundleGB)
				require.Empty(t, cfg.Peers)
			},
		},
		{
			name: "peers and aliases parsed",
			entries: map[string]string{
				"MCBUN_HOST":             "srv1",
				"MCBUN_ZONE":             "tempZone",
				"MCBUN_PEERS":            "srv2=http://srv2:1247, srv3=http://srv3:1247",
				"MCBUN_HOST_ALIASES":     "localhost, srv1.example.org",
				"MCBUN_LOG_LEVEL":        "DEBUG",
				"MCBUN_DEFAULT_RESOURCE": "demoResc",
			},
			check: func(t *testing.T, cfg *ServerConfig) {
				require.Equal(t, "http://srv2:1247", cfg.Peers["srv2"])
				require.Equal(t, "http://srv3:1247", cfg.Peers["srv3"])
				require.Equal(t, []string{"localhost", "srv1.example.org"}, cfg.HostAliases)
				require.Equal(t, "debug", cfg.LogLevel)
				require.Equal(t, "demoResc", cfg.DefaultResource)
			},
		},
		{
			name:       "missing zone",
			entries:    map[string]string{"MCBUN_HOST": "srv1"},
			shouldFail: true,
		},
		{
			name: "bad peer entry",
			entries: map[string]string{
				"MCBUN_HOST":  "srv1",
				"MCBUN_ZONE":  "tempZone",
				"MCBUN_PEERS": "srv2",
			},
			shouldFail: true,
		},
		{
			name: "peer url must be a url",
			entries: map[string]string{
				"MCBUN_HOST":  "srv1",
				"MCBUN_ZONE":  "tempZone",
				"MCBUN_PEERS": "srv2=not a url",
			},
			shouldFail: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := LoadServerConfig(NewMapConfig(test.entries))
			if test.shouldFail {
				require.Error(t, err)
				return
			}

			require.NoErrorf(t, err, "LoadServerConfig failed: %s", err)
			test.check(t, cfg)
		})
	}
}

func TestViperConfigReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcbund.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mcbun_host: srv9\nmcbun_max_subfiles: 64\n"), 0644))

	c := NewViperConfig(path)
	require.NoError(t, c.Load())
	require.Equal(t, "srv9", c.GetKey("MCBUN_HOST"))
	require.Equal(t, 64, c.GetIntKey("MCBUN_MAX_SUBFILES"))
	require.Equal(t, 7, c.GetIntKeyWithDefault("MCBUN_MISSING", 7))
	require.Equal(t, "x", c.GetKeyWithDefault("MCBUN_MISSING", "x"))
}

func TestIsDotenvPath(t *testing.T) {
	require.True(t, isDotenvPath("/etc/mcbun/.env"))
	require.True(t, isDotenvPath("/home/u/.mcbun/env"))
	require.False(t, isDotenvPath("/etc/mcbun/mcbund.yaml"))
}

func TestMapConfigKeys(t *testing.T) {
	c := NewMapConfig(map[string]string{"MCBUN_MAX_SUBFILES": "12", "MCBUN_LISTEN": "not-int"})
	c.Set("MCBUN_HOST", "srv1")

	require.Equal(t, "srv1", c.GetKey("MCBUN_HOST"))
	require.Equal(t, "", c.GetKey("MCBUN_ZONE"))
	require.Equal(t, 12, c.GetIntKey("MCBUN_MAX_SUBFILES"))
	require.Equal(t, 0, c.GetIntKey("MCBUN_LISTEN"))
	require.Equal(t, 4, c.GetIntKeyWithDefault("MCBUN_LISTEN", 4))
	require.Error(t, c.LoadFromPath("/etc/mcbun/.env"))
}

func TestDotenvConfigEnvironmentWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MCBUN_TEST_HOST=fromfile\nMCBUN_TEST_ZONE=fileZone\n"), 0644))
	t.Setenv("MCBUN_TEST_HOST", "fromenv")

	c := MustLoadFromFile(path)
	t.Cleanup(func() {
		_ = os.Unsetenv("MCBUN_TEST_ZONE")
		SetConfig(NewDotenvConfig(""))
	})

	require.Same(t, c, GetConfig())
	require.Equal(t, "fromenv", c.GetKey("MCBUN_TEST_HOST"))
	require.Equal(t, "fileZone", c.GetKey("MCBUN_TEST_ZONE"))
}
