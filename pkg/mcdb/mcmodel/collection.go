package mcmodel

import (
	"path"
	"time"
)

// Collection is a catalog collection. The struct file columns are set while an
// archive is mounted at the collection.
type Collection struct {
	ID         int    `json:"id"`
	Path       string `json:"path" gorm:"uniqueIndex;size:1024"`
	ParentPath string `json:"parent_path" gorm:"index;size:1024"`
	OwnerName  string `json:"owner_name"`

	SpecCollType      int    `json:"spec_coll_type"`
	StructFileObjPath string `json:"struct_file_obj_path"`
	StructFilePhyPath string `json:"struct_file_phy_path"`
	CacheDir          string `json:"cache_dir"`
	CacheDirty        bool   `json:"cache_dirty"`
	Resource          string `json:"resource"`
	DataType          string `json:"data_type"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Collection) TableName() string {
	return "collections"
}

func (c Collection) Name() string {
	return path.Base(c.Path)
}

// IsMounted reports whether a struct file is mounted at the collection.
func (c Collection) IsMounted() bool {
	return c.SpecCollType != 0 && c.StructFilePhyPath != ""
}
