package structfile

import (
	"context"

	"github.com/materials-commons/mcbun/pkg/rerr"
)

// Driver implements the sub-file primitives and the whole archive lifecycle
// for one archive format.
type Driver interface {
	Type() Type

	Create(ctx context.Context, sf *SubFile) (int, error)
	Open(ctx context.Context, sf *SubFile) (int, error)
	Read(ctx context.Context, fd int, length int) ([]byte, error)
	Write(ctx context.Context, fd int, data []byte) (int, error)
	Close(ctx context.Context, fd int) error
	Unlink(ctx context.Context, sf *SubFile) error
	Stat(ctx context.Context, sf *SubFile) (*StatResult, error)
	Fstat(ctx context.Context, fd int) (*StatResult, error)
	Lseek(ctx context.Context, fd int, offset int64, whence int) (int64, error)
	Rename(ctx context.Context, sf *SubFile, newPath string) error
	Mkdir(ctx context.Context, sf *SubFile) error
	Rmdir(ctx context.Context, sf *SubFile) error
	Opendir(ctx context.Context, sf *SubFile) (int, error)
	// Readdir returns nil once the directory is exhausted.
	Readdir(ctx context.Context, fd int) (*DirEntry, error)
	Closedir(ctx context.Context, fd int) error
	Truncate(ctx context.Context, sf *SubFile) error

	Sync(ctx context.Context, sc *SpecColl, flags SyncFlags) error
	Extract(ctx context.Context, sc *SpecColl) error
}

// Registry maps archive types to drivers.
type Registry struct {
	drivers map[Type]Driver
}

func NewRegistry(drivers ...Driver) *Registry {
	r := &Registry{drivers: make(map[Type]Driver)}
	for _, d := range drivers {
		r.drivers[d.Type()] = d
	}

	return r
}

// Lookup fails with SYS_UNMATCHED_SPEC_COLL_TYPE for a type with no driver.
func (r *Registry) Lookup(t Type) (Driver, error) {
	d, ok := r.drivers[t]
	if !ok {
		return nil, rerr.New(rerr.SysUnmatchedSpecCollType, "no struct file driver for type %s", t)
	}

	return d, nil
}
