package structfile

import (
	"fmt"
	"time"
)

// Type tags the archive format of a struct file.
type Type int

const (
	NoneType Type = iota
	HAAWType
	TarType
)

func (t Type) String() string {
	switch t {
	case NoneType:
		return "none"
	case HAAWType:
		return "haaw"
	case TarType:
		return "tar"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// HostAddr names the server that owns a resource. An empty HostName is
// the local server.
type HostAddr struct {
	HostName string `json:"host_name"`
	ZoneName string `json:"zone_name,omitempty"`
}

// SpecColl describes a struct file mounted at a collection.
type SpecColl struct {
	Collection string `json:"collection" validate:"required"`
	ObjPath    string `json:"obj_path"`
	Type       Type   `json:"type"`
	PhyPath    string `json:"phy_path" validate:"required"`
	CacheDir   string `json:"cache_dir"`
	CacheDirty bool   `json:"cache_dirty"`
	Resource   string `json:"resource"`
	DataType   string `json:"data_type"`
}

// SubFile addresses one entry inside a mounted struct file. SubFilePath is a
// logical path under SpecColl.Collection.
type SubFile struct {
	Addr        HostAddr  `json:"addr"`
	SubFilePath string    `json:"sub_file_path" validate:"required"`
	Mode        uint32    `json:"mode"`
	Flags       int       `json:"flags"`
	Offset      int64     `json:"offset"`
	SpecColl    *SpecColl `json:"spec_coll" validate:"required"`
}

// FdRequest carries the descriptor based operations: read, write, close,
// fstat, lseek, readdir and closedir.
type FdRequest struct {
	Addr   HostAddr `json:"addr"`
	Type   Type     `json:"type"`
	Fd     int      `json:"fd"`
	Len    int      `json:"len,omitempty"`
	Offset int64    `json:"offset,omitempty"`
	Whence int      `json:"whence,omitempty"`
	Data   []byte   `json:"data,omitempty"`
}

type RenameRequest struct {
	SubFile *SubFile `json:"sub_file" validate:"required"`
	NewPath string   `json:"new_path" validate:"required"`
}

type SyncFlags struct {
	// NoRegCollInfo skips persisting the mount state to the catalog.
	NoRegCollInfo bool `json:"no_reg_coll_info,omitempty"`
	// PurgeCache removes the cache directory once the archive is written.
	PurgeCache bool `json:"purge_cache,omitempty"`
	// DeleteStructFile drops the cache without writing the archive.
	DeleteStructFile bool `json:"delete_struct_file,omitempty"`
}

type SyncRequest struct {
	Addr     HostAddr  `json:"addr"`
	SpecColl *SpecColl `json:"spec_coll" validate:"required"`
	Flags    SyncFlags `json:"flags"`
}

type ExtractRequest struct {
	Addr     HostAddr  `json:"addr"`
	SpecColl *SpecColl `json:"spec_coll" validate:"required"`
}

type StatResult struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	Mode    uint32    `json:"mode"`
	ModTime time.Time `json:"mod_time"`
	IsDir   bool      `json:"is_dir"`
}

type DirEntry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size"`
}
