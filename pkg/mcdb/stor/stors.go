package stor

import (
	"github.com/materials-commons/mcbun/pkg/mcdb/mcmodel"
	"github.com/materials-commons/mcbun/pkg/structfile"
	"gorm.io/gorm"
)

type ResourceStor interface {
	CreateResource(resc *mcmodel.Resource) (*mcmodel.Resource, error)
	GetResourceByName(name string) (*mcmodel.Resource, error)
	ListGroupMembers(group string) ([]mcmodel.Resource, error)
	VaultPath(name string) (string, error)
}

type CollectionStor interface {
	structfile.SpecCollCache
	GetCollectionByPath(path string) (*mcmodel.Collection, error)
	GetOrCreateCollectionPath(path, owner string) (*mcmodel.Collection, error)
	ListDataObjectsUnder(path string) ([]mcmodel.DataObject, error)
}

type DataObjectStor interface {
	GetDataObjectByPath(path string) (*mcmodel.DataObject, error)
	RegisterDataObject(reg *Registration) (*mcmodel.DataObject, error)
	BulkRegister(regs []*Registration) ([]*mcmodel.DataObject, error)
	UpdateReplicaContent(replica *mcmodel.Replica, size int64, checksum string) error
	RegisterBundle(reg *BundleRegistration) (*mcmodel.DataObject, error)
	RenameDataObject(obj *mcmodel.DataObject, newPath string) error
	MoveToTrash(obj *mcmodel.DataObject) error
	UnlinkDataObject(obj *mcmodel.DataObject, force bool) error
	ReplaceDataObject(old *mcmodel.DataObject, reg *Registration) (*mcmodel.DataObject, error)
}

// Registration describes a new data object with a single good replica.
type Registration struct {
	Path     string
	DataType string
	Size     int64
	Checksum string
	Owner    string
	Resource string
	PhyPath  string
}

// BundleRegistration describes a bundle archive and the data objects packed
// into it.
type BundleRegistration struct {
	Registration
	MemberIDs []int
}

type Stors struct {
	ResourceStor   ResourceStor
	CollectionStor CollectionStor
	DataObjectStor DataObjectStor
}

func NewGormStors(db *gorm.DB) *Stors {
	return &Stors{
		ResourceStor:   NewGormResourceStor(db),
		CollectionStor: NewGormCollectionStor(db),
		DataObjectStor: NewGormDataObjectStor(db),
	}
}
