package structfile

import (
	"path/filepath"
	"strings"

	"github.com/materials-commons/mcbun/pkg/rerr"
)

// VaultResolver returns the vault directory of a storage resource.
type VaultResolver interface {
	VaultPath(resource string) (string, error)
}

// VaultMap is a fixed resource to vault table.
type VaultMap map[string]string

func (m VaultMap) VaultPath(resource string) (string, error) {
	vault, ok := m[resource]
	if !ok {
		return "", rerr.New(rerr.CatNoRowsFound, "no resource named %s", resource)
	}

	return vault, nil
}

// Confine checks a mount received from another process. The archive must lie
// inside the vault of sc.Resource. The cache directory and dirty flag are
// server state, so any values sent with the request are dropped and later
// recovered from the held descriptor or the catalog.
func Confine(sc *SpecColl, vaults VaultResolver) error {
	vault, err := resolveVault(sc, vaults)
	if err != nil {
		return err
	}

	phyPath, err := inVault(vault, sc.PhyPath)
	if err != nil {
		return err
	}

	sc.PhyPath = phyPath
	sc.CacheDir, sc.CacheDirty = "", false
	return nil
}

// ConfineExtract is Confine for extract requests, where CacheDir names the
// extraction target. Both paths must lie inside the vault.
func ConfineExtract(sc *SpecColl, vaults VaultResolver) error {
	vault, err := resolveVault(sc, vaults)
	if err != nil {
		return err
	}

	phyPath, err := inVault(vault, sc.PhyPath)
	if err != nil {
		return err
	}

	cacheDir, err := inVault(vault, sc.CacheDir)
	if err != nil {
		return err
	}

	sc.PhyPath, sc.CacheDir, sc.CacheDirty = phyPath, cacheDir, false
	return nil
}

func resolveVault(sc *SpecColl, vaults VaultResolver) (string, error) {
	if err := checkSpecColl(sc); err != nil {
		return "", err
	}

	if sc.Resource == "" {
		return "", rerr.New(rerr.SysStructFilePathErr, "struct file %s names no resource", sc.PhyPath)
	}

	vault, err := vaults.VaultPath(sc.Resource)
	if err != nil {
		return "", err
	}

	if vault == "" || !filepath.IsAbs(vault) {
		return "", rerr.New(rerr.SysStructFilePathErr, "resource %s has no usable vault", sc.Resource)
	}

	return filepath.Clean(vault), nil
}

// inVault returns the cleaned p when it is strictly below vault.
func inVault(vault, p string) (string, error) {
	if p == "" || !filepath.IsAbs(p) {
		return "", rerr.New(rerr.SysStructFilePathErr, "'%s' is not an absolute path", p)
	}

	p = filepath.Clean(p)
	rel, err := filepath.Rel(vault, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", rerr.New(rerr.SysStructFilePathErr, "%s is outside vault %s", p, vault)
	}

	return p, nil
}
