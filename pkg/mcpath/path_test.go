package mcpath

import (
	"path/filepath"
	"testing"

	"github.com/materials-commons/mcbun/pkg/rerr"
	"github.com/stretchr/testify/require"
)

func TestZone(t *testing.T) {
	tests := []struct {
		logical  string
		zone     string
		relative string
	}{
		{logical: "/tempZone/home/rods", zone: "tempZone", relative: "home/rods"},
		{logical: "/tempZone", zone: "tempZone", relative: ""},
		{logical: "/tempZone/", zone: "tempZone", relative: ""},
		{logical: "tempZone/a/b/", zone: "tempZone", relative: "a/b"},
	}

	for _, test := range tests {
		t.Run(test.logical, func(t *testing.T) {
			require.Equal(t, test.zone, Zone(test.logical))
			require.Equal(t, test.relative, ZoneRelative(test.logical))
		})
	}
}

func TestRelPath(t *testing.T) {
	rel, err := RelPath("/z/home/rods", "/z/home/rods/a/b.txt")
	require.NoError(t, err)
	require.Equal(t, "a/b.txt", rel)

	rel, err = RelPath("/z/home/rods/", "/z/home/rods")
	require.NoError(t, err)
	require.Equal(t, "", rel)

	_, err = RelPath("/z/home/rods", "/z/home/rodsx/a")
	require.Equal(t, rerr.SysInvalidFilePath, rerr.Code(err))

	require.True(t, IsUnder("/z/home", "/z/home/rods"))
	require.False(t, IsUnder("/z/home/rods", "/z/home"))
}

func TestVaultAndBundlePaths(t *testing.T) {
	require.Equal(t, filepath.Join("/vault", "home", "rods", "a.txt"), VaultPath("/vault", "/tempZone/home/rods/a.txt"))
	require.Equal(t, "/tempZone/bundle/home/rods/data.123", BundlePath("/tempZone/home/rods/data", "123"))
}

func TestIsTrashOrBundle(t *testing.T) {
	tests := []struct {
		logical string
		want    bool
	}{
		{"/tempZone/trash/home/rods/x", true},
		{"/tempZone/bundle/home/rods/data.1", true},
		{"/tempZone/bundle", true},
		{"/tempZone/home/rods/bundle", false},
		{"/tempZone/home/trash", false},
	}

	for _, test := range tests {
		require.Equalf(t, test.want, IsTrashOrBundle(test.logical), "IsTrashOrBundle(%s)", test.logical)
	}
}

func TestZoneParser(t *testing.T) {
	p := NewZoneParser("tempZone", "/tempZone/home/rods")

	lp, err := p.Parse("data/a.txt")
	require.NoError(t, err)
	require.Equal(t, "/tempZone/home/rods/data/a.txt", lp.FullPath())
	require.Equal(t, "/tempZone/home/rods/data", lp.Collection())
	require.Equal(t, "a.txt", lp.Name())
	require.Equal(t, "tempZone", lp.Zone())

	lp, err = p.Parse("/tempZone/home/rods/../x/")
	require.NoError(t, err)
	require.Equal(t, "/tempZone/home/x", lp.FullPath())

	_, err = p.Parse("/otherZone/home")
	require.Equal(t, rerr.SysInvalidFilePath, rerr.Code(err))

	_, err = p.Parse("")
	require.Error(t, err)
}
