package mcpath

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/materials-commons/mcbun/pkg/rerr"
)

// BundleCollName is the reserved collection under each zone holding bundle archives.
const BundleCollName = "bundle"

const trashCollName = "trash"

// Zone returns the first element of an absolute logical path.
func Zone(logical string) string {
	p := strings.TrimPrefix(path.Clean(logical), "/")
	if i := strings.IndexByte(p, '/'); i != -1 {
		return p[:i]
	}

	return p
}

// ZoneRelative strips the zone, returning the remainder without a leading slash.
func ZoneRelative(logical string) string {
	p := strings.TrimPrefix(path.Clean(logical), "/")
	if i := strings.IndexByte(p, '/'); i != -1 {
		return p[i+1:]
	}

	return ""
}

func Join(coll string, elem ...string) string {
	return path.Join(append([]string{coll}, elem...)...)
}

// RelPath returns logical relative to coll, or an error when it is not under coll.
func RelPath(coll, logical string) (string, error) {
	coll = path.Clean(coll)
	logical = path.Clean(logical)
	switch {
	case logical == coll:
		return "", nil
	case strings.HasPrefix(logical, coll+"/"):
		return logical[len(coll)+1:], nil
	default:
		return "", rerr.New(rerr.SysInvalidFilePath, "%s is not under %s", logical, coll)
	}
}

// IsUnder reports whether logical is coll or a descendant of it.
func IsUnder(coll, logical string) bool {
	_, err := RelPath(coll, logical)
	return err == nil
}

// VaultPath maps a logical path to its physical location in a resource vault.
// The zone is dropped, so /tempZone/home/rods/a lands at <vault>/home/rods/a.
func VaultPath(vault, logical string) string {
	return filepath.Join(vault, filepath.FromSlash(ZoneRelative(logical)))
}

// BundlePath returns the logical path of a bundle archive for coll:
// /<zone>/bundle/<coll without zone>.<suffix>.
func BundlePath(coll, suffix string) string {
	return "/" + path.Join(Zone(coll), BundleCollName, ZoneRelative(coll)) + "." + suffix
}

// IsTrashOrBundle reports whether logical lies in a zone's trash or bundle collection.
func IsTrashOrBundle(logical string) bool {
	rel := ZoneRelative(logical)
	top := rel
	if i := strings.IndexByte(rel, '/'); i != -1 {
		top = rel[:i]
	}

	return top == trashCollName || top == BundleCollName
}
