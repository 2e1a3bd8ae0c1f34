package mcmodel

import "time"

type DataObject struct {
	ID           int         `json:"id"`
	UUID         string      `json:"uuid"`
	CollectionID int         `json:"collection_id"`
	Collection   *Collection `json:"collection" gorm:"foreignKey:CollectionID;references:ID"`
	Name         string      `json:"name"`
	Path         string      `json:"path" gorm:"uniqueIndex;size:1024"`
	DataType     string      `json:"data_type"`
	Size         int64       `json:"size"`
	Checksum     string      `json:"checksum"`
	OwnerName    string      `json:"owner_name"`
	Replicas     []Replica   `json:"replicas" gorm:"foreignKey:DataObjectID;references:ID"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (DataObject) TableName() string {
	return "data_objects"
}

// GoodReplica returns the first good replica, preferring one on resource when
// it is non-empty. Bundled replicas are never returned.
func (o DataObject) GoodReplica(resource string) *Replica {
	for i := range o.Replicas {
		r := &o.Replicas[i]
		if !r.IsGood() || r.IsBundled() {
			continue
		}

		if resource == "" || r.ResourceName == resource {
			return r
		}
	}

	return nil
}

func (o DataObject) IsBundled() bool {
	for _, r := range o.Replicas {
		if r.IsBundled() {
			return true
		}
	}

	return false
}
