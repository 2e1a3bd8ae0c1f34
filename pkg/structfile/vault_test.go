package structfile

import (
	"path/filepath"
	"testing"

	"github.com/materials-commons/mcbun/pkg/rerr"
	"github.com/stretchr/testify/require"
)

func TestConfine(t *testing.T) {
	vault := t.TempDir()
	vaults := VaultMap{"demoResc": vault, "noVault": "", "relVault": "vault"}
	inside := filepath.Join(vault, "home", "rods", "a.tar")

	tests := []struct {
		name     string
		sc       SpecColl
		code     rerr.Status
		expected string
	}{
		{name: "inside", sc: SpecColl{PhyPath: inside, Resource: "demoResc"}, expected: inside},
		{name: "cleaned", sc: SpecColl{PhyPath: vault + "/home/./rods//a.tar", Resource: "demoResc"}, expected: inside},
		{name: "outside", sc: SpecColl{PhyPath: "/etc/a.tar", Resource: "demoResc"}, code: rerr.SysStructFilePathErr},
		{name: "escapes", sc: SpecColl{PhyPath: vault + "/home/../../a.tar", Resource: "demoResc"}, code: rerr.SysStructFilePathErr},
		{name: "vault itself", sc: SpecColl{PhyPath: vault, Resource: "demoResc"}, code: rerr.SysStructFilePathErr},
		{name: "sibling prefix", sc: SpecColl{PhyPath: vault + "x/a.tar", Resource: "demoResc"}, code: rerr.SysStructFilePathErr},
		{name: "relative", sc: SpecColl{PhyPath: "home/a.tar", Resource: "demoResc"}, code: rerr.SysStructFilePathErr},
		{name: "no resource", sc: SpecColl{PhyPath: inside}, code: rerr.SysStructFilePathErr},
		{name: "unknown resource", sc: SpecColl{PhyPath: inside, Resource: "otherResc"}, code: rerr.CatNoRowsFound},
		{name: "empty vault", sc: SpecColl{PhyPath: inside, Resource: "noVault"}, code: rerr.SysStructFilePathErr},
		{name: "relative vault", sc: SpecColl{PhyPath: inside, Resource: "relVault"}, code: rerr.SysStructFilePathErr},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			sc := test.sc
			sc.Collection = "/tempZone/home/rods/a"
			sc.CacheDir = "/tmp/anywhere"
			sc.CacheDirty = true

			err := Confine(&sc, vaults)
			if test.code != 0 {
				require.Equal(t, test.code, rerr.Code(err))
				return
			}

			require.NoError(t, err)
			require.Equal(t, test.expected, sc.PhyPath)
			require.Empty(t, sc.CacheDir)
			require.False(t, sc.CacheDirty)
		})
	}
}

func TestConfineExtract(t *testing.T) {
	vault := t.TempDir()
	vaults := VaultMap{"demoResc": vault}
	phy := filepath.Join(vault, "a.tar")

	sc := &SpecColl{Collection: "/tempZone/home/rods/a", PhyPath: phy, CacheDir: phy + ".dir", Resource: "demoResc"}
	require.NoError(t, ConfineExtract(sc, vaults))
	require.Equal(t, phy+".dir", sc.CacheDir)

	sc = &SpecColl{Collection: "/tempZone/home/rods/a", PhyPath: phy, CacheDir: "/tmp/out", Resource: "demoResc"}
	require.Equal(t, rerr.SysStructFilePathErr, rerr.Code(ConfineExtract(sc, vaults)))

	sc = &SpecColl{Collection: "/tempZone/home/rods/a", PhyPath: phy, Resource: "demoResc"}
	require.Equal(t, rerr.SysStructFilePathErr, rerr.Code(ConfineExtract(sc, vaults)))
}
