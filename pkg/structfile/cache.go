package structfile

import (
	"fmt"
	"math/rand"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/materials-commons/mcbun/pkg/rerr"
)

const maxCacheDirAttempts = 1000

// makeCacheDir creates <phyPath>.cacheDir<N> using the first free N.
func makeCacheDir(phyPath string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(phyPath), 0750); err != nil {
		return "", rerr.Unix(rerr.UnixFileMkdirErr, err)
	}

	for n := 0; n < maxCacheDirAttempts; n++ {
		dir := fmt.Sprintf("%s.cacheDir%d", phyPath, n)
		err := os.Mkdir(dir, 0750)
		switch {
		case err == nil:
			return dir, nil
		case os.IsExist(err):
			continue
		default:
			return "", rerr.Unix(rerr.UnixFileMkdirErr, err)
		}
	}

	return "", rerr.New(rerr.UnixFileMkdirErr, "no free cache directory name for %s", phyPath)
}

// MakeStagingDir creates dir for staging struct file members. When dir is
// already in use a random numeric suffix is appended.
func MakeStagingDir(dir string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(dir), 0750); err != nil {
		return "", rerr.Unix(rerr.UnixFileMkdirErr, err)
	}

	if err := os.Mkdir(dir, 0750); err == nil {
		return dir, nil
	}

	dir = fmt.Sprintf("%s.%d", dir, rand.Uint32())
	if err := os.Mkdir(dir, 0750); err != nil {
		return "", rerr.Unix(rerr.UnixFileMkdirErr, err)
	}

	return dir, nil
}

// cachePath maps a logical sub-file path to its location in the cache. The
// mounted collection prefix is replaced by the cache directory. rel is the
// slash separated path inside the archive, "" for the archive root.
func cachePath(sc *SpecColl, subFilePath string) (p string, rel string, err error) {
	coll := strings.TrimSuffix(sc.Collection, "/")
	switch {
	case subFilePath == coll:
		rel = ""
	case strings.HasPrefix(subFilePath, coll+"/"):
		rel = path.Clean(subFilePath[len(coll)+1:])
	default:
		return "", "", rerr.New(rerr.SysStructFilePathErr, "%s is not under mounted collection %s", subFilePath, sc.Collection)
	}

	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", "", rerr.New(rerr.SysStructFilePathErr, "%s escapes mounted collection %s", subFilePath, sc.Collection)
	}

	if rel == "." {
		rel = ""
	}

	return filepath.Join(sc.CacheDir, filepath.FromSlash(rel)), rel, nil
}

func isEmptyDir(dir string) (bool, error) {
	f, err := os.Open(dir)
	if err != nil {
		return false, err
	}
	defer f.Close()

	names, err := f.Readdirnames(1)
	if len(names) == 0 {
		return true, nil
	}

	return false, err
}

func toStatResult(fi os.FileInfo) *StatResult {
	return &StatResult{
		Name:    fi.Name(),
		Size:    fi.Size(),
		Mode:    uint32(fi.Mode()),
		ModTime: fi.ModTime(),
		IsDir:   fi.IsDir(),
	}
}
