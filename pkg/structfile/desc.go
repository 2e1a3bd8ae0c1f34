package structfile

import (
	"os"

	"github.com/materials-commons/mcbun/pkg/fdtable"
)

const (
	NumStructFileDesc = 16
	NumSubFileDesc    = 1024
)

// Desc is a slot in the struct file descriptor table. Holding a slot for a
// physical path is what makes a caller the single writer of that archive.
type Desc struct {
	SpecColl SpecColl
	OpenCnt  int
	DataType string
}

// subPath maps subFilePath, given relative to a mount of the archive at coll,
// into the cache. Mounts of one archive at different collections share it.
func (desc *Desc) subPath(coll, subFilePath string) (string, string, error) {
	mount := desc.SpecColl
	mount.Collection = coll
	return cachePath(&mount, subFilePath)
}

// DescTable is the bounded table of open struct files.
type DescTable = fdtable.Table[*Desc]

func NewDescTable() *DescTable {
	return fdtable.New[*Desc](NumStructFileDesc)
}

type subDesc struct {
	structIdx int
	file      *os.File
	isDir     bool
}
