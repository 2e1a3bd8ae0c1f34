package mcmodel

import "time"

const (
	ReplicaStale = 0
	ReplicaGood  = 1
)

// Replica is one physical copy of a data object. A bundled replica has
// ResourceName BundleResourceName and a PhyPath holding the logical path of
// its bundle archive.
type Replica struct {
	ID           int       `json:"id"`
	UUID         string    `json:"uuid"`
	DataObjectID int       `json:"data_object_id" gorm:"index"`
	ReplNum      int       `json:"repl_num"`
	ResourceName string    `json:"resource_name"`
	PhyPath      string    `json:"phy_path"`
	Size         int64     `json:"size"`
	Status       int       `json:"status"`
	Checksum     string    `json:"checksum"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Replica) TableName() string {
	return "replicas"
}

func (r Replica) IsBundled() bool {
	return r.ResourceName == BundleResourceName
}

func (r Replica) IsGood() bool {
	return r.Status == ReplicaGood
}
