package mcmodel

import "time"

const (
	ResourceClassCache   = "cache"
	ResourceClassArchive = "archive"
	ResourceClassBundle  = "bundle"
	ResourceClassGroup   = "group"
)

// BundleResourceName marks a replica whose bytes live inside a bundle archive.
const BundleResourceName = "bundleResc"

// Resource is a storage resource. A resource group is a Resource with class
// "group"; its members carry the group's name in GroupName.
type Resource struct {
	ID        int       `json:"id"`
	Name      string    `json:"name" gorm:"uniqueIndex;size:250"`
	Class     string    `json:"class"`
	Host      string    `json:"host"`
	VaultPath string    `json:"vault_path"`
	GroupName string    `json:"group_name" gorm:"index;size:250"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Resource) TableName() string {
	return "resources"
}

func (r Resource) IsCache() bool {
	return r.Class == ResourceClassCache
}

func (r Resource) IsGroup() bool {
	return r.Class == ResourceClassGroup
}
