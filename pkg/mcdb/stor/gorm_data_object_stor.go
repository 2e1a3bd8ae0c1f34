package stor

import (
	"errors"
	"path"

	"github.com/apex/log"
	"github.com/hashicorp/go-uuid"
	"github.com/materials-commons/mcbun/pkg/mcdb/mcmodel"
	"github.com/materials-commons/mcbun/pkg/mcpath"
	"github.com/materials-commons/mcbun/pkg/rerr"
	"gorm.io/gorm"
)

type GormDataObjectStor struct {
	db *gorm.DB
}

func NewGormDataObjectStor(db *gorm.DB) *GormDataObjectStor {
	return &GormDataObjectStor{db: db}
}

func (s *GormDataObjectStor) GetDataObjectByPath(p string) (*mcmodel.DataObject, error) {
	var obj mcmodel.DataObject
	err := s.db.Preload("Replicas", func(db *gorm.DB) *gorm.DB { return db.Order("repl_num") }).
		Preload("Collection").
		Where("path = ?", path.Clean(p)).
		First(&obj).Error
	if err != nil {
		return nil, dbErr(err, "data object %s", p)
	}

	return &obj, nil
}

// RegisterDataObject creates the data object and its first replica. The
// collection path is created as needed. An existing object fails with
// CAT_NAME_EXISTS_AS_DATAOBJ.
func (s *GormDataObjectStor) RegisterDataObject(reg *Registration) (*mcmodel.DataObject, error) {
	var obj *mcmodel.DataObject
	err := WithTxRetry(s.db, func(tx *gorm.DB) error {
		var err error
		obj, err = registerDataObject(tx, reg)
		return err
	})

	return obj, err
}

// BulkRegister registers all of regs in one transaction. Nothing is registered
// when any of them fails.
func (s *GormDataObjectStor) BulkRegister(regs []*Registration) ([]*mcmodel.DataObject, error) {
	var objs []*mcmodel.DataObject
	err := WithTxRetry(s.db, func(tx *gorm.DB) error {
		objs = make([]*mcmodel.DataObject, 0, len(regs))
		for _, reg := range regs {
			obj, err := registerDataObject(tx, reg)
			if err != nil {
				return err
			}
			objs = append(objs, obj)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return objs, nil
}

func registerDataObject(tx *gorm.DB, reg *Registration) (*mcmodel.DataObject, error) {
	p := path.Clean(reg.Path)
	var count int64
	if err := tx.Model(&mcmodel.DataObject{}).Where("path = ?", p).Count(&count).Error; err != nil {
		return nil, dbErr(err, "lookup %s", p)
	}

	if count != 0 {
		return nil, rerr.New(rerr.CatNameExistsAsDataObj, "%s already exists", p)
	}

	coll, err := getOrCreateCollectionPath(tx, path.Dir(p), reg.Owner)
	if err != nil {
		return nil, err
	}

	if coll.IsMounted() {
		return nil, rerr.New(rerr.SysStructFileInMountedColl, "%s is a mounted collection", coll.Path)
	}

	obj := &mcmodel.DataObject{
		CollectionID: coll.ID,
		Name:         path.Base(p),
		Path:         p,
		DataType:     reg.DataType,
		Size:         reg.Size,
		Checksum:     reg.Checksum,
		OwnerName:    reg.Owner,
	}

	if obj.UUID, err = uuid.GenerateUUID(); err != nil {
		return nil, err
	}

	if err := tx.Create(obj).Error; err != nil {
		return nil, dbErr(err, "create data object %s", p)
	}

	replica, err := addReplica(tx, obj.ID, 0, reg.Resource, reg.PhyPath, reg.Size, reg.Checksum)
	if err != nil {
		return nil, err
	}

	obj.Collection = coll
	obj.Replicas = []mcmodel.Replica{*replica}
	return obj, nil
}

func addReplica(tx *gorm.DB, dataObjectID, replNum int, resc, phyPath string, size int64, checksum string) (*mcmodel.Replica, error) {
	replica := &mcmodel.Replica{
		DataObjectID: dataObjectID,
		ReplNum:      replNum,
		ResourceName: resc,
		PhyPath:      phyPath,
		Size:         size,
		Status:       mcmodel.ReplicaGood,
		Checksum:     checksum,
	}

	var err error
	if replica.UUID, err = uuid.GenerateUUID(); err != nil {
		return nil, err
	}

	if err := tx.Create(replica).Error; err != nil {
		return nil, dbErr(err, "create replica of data object %d", dataObjectID)
	}

	return replica, nil
}

// UpdateReplicaContent records new content for a replica and its data object.
func (s *GormDataObjectStor) UpdateReplicaContent(replica *mcmodel.Replica, size int64, checksum string) error {
	return WithTxRetry(s.db, func(tx *gorm.DB) error {
		err := tx.Model(replica).Select("Size", "Checksum", "Status").
			Updates(&mcmodel.Replica{Size: size, Checksum: checksum, Status: mcmodel.ReplicaGood}).Error
		if err != nil {
			return dbErr(err, "update replica %d", replica.ID)
		}

		err = tx.Model(&mcmodel.DataObject{ID: replica.DataObjectID}).Select("Size", "Checksum").
			Updates(&mcmodel.DataObject{Size: size, Checksum: checksum}).Error
		return dbErr(err, "update data object %d", replica.DataObjectID)
	})
}

// RegisterBundle registers the bundle archive and adds a bundleResc replica
// pointing at it to every member, all in one transaction.
func (s *GormDataObjectStor) RegisterBundle(reg *BundleRegistration) (*mcmodel.DataObject, error) {
	var bundle *mcmodel.DataObject
	err := WithTxRetry(s.db, func(tx *gorm.DB) error {
		var err error
		if bundle, err = registerDataObject(tx, &reg.Registration); err != nil {
			return err
		}

		for _, id := range reg.MemberIDs {
			var maxReplNum int
			err := tx.Model(&mcmodel.Replica{}).
				Where("data_object_id = ?", id).
				Select("COALESCE(MAX(repl_num), -1)").
				Scan(&maxReplNum).Error
			if err != nil {
				return dbErr(err, "replicas of data object %d", id)
			}

			var obj mcmodel.DataObject
			if err := tx.First(&obj, id).Error; err != nil {
				return dbErr(err, "bundle member %d", id)
			}

			if _, err := addReplica(tx, id, maxReplNum+1, mcmodel.BundleResourceName, bundle.Path, obj.Size, obj.Checksum); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	log.Infof("Registered bundle %s with %d members", bundle.Path, len(reg.MemberIDs))
	return bundle, nil
}

// RenameDataObject moves obj to newPath. Objects with a bundled replica cannot
// be renamed.
func (s *GormDataObjectStor) RenameDataObject(obj *mcmodel.DataObject, newPath string) error {
	if obj.IsBundled() {
		return rerr.New(rerr.CantRmMvBundleType, "%s has a bundled replica", obj.Path)
	}

	return s.move(obj, path.Clean(newPath))
}

// MoveToTrash moves obj under the zone's trash collection.
func (s *GormDataObjectStor) MoveToTrash(obj *mcmodel.DataObject) error {
	if obj.IsBundled() {
		return rerr.New(rerr.SysCantMvBundleDataToTrash, "%s has a bundled replica", obj.Path)
	}

	return s.move(obj, "/"+mcpath.Join(mcpath.Zone(obj.Path), "trash", mcpath.ZoneRelative(obj.Path)))
}

func (s *GormDataObjectStor) move(obj *mcmodel.DataObject, newPath string) error {
	return WithTxRetry(s.db, func(tx *gorm.DB) error {
		var existing mcmodel.DataObject
		err := tx.Where("path = ?", newPath).First(&existing).Error
		switch {
		case err == nil:
			return rerr.New(rerr.CatNameExistsAsDataObj, "%s already exists", newPath)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return dbErr(err, "lookup %s", newPath)
		}

		coll, err := getOrCreateCollectionPath(tx, path.Dir(newPath), obj.OwnerName)
		if err != nil {
			return err
		}

		err = tx.Model(obj).Select("CollectionID", "Name", "Path").
			Updates(&mcmodel.DataObject{CollectionID: coll.ID, Name: path.Base(newPath), Path: newPath}).Error
		if err != nil {
			return dbErr(err, "move %s", obj.Path)
		}

		obj.CollectionID, obj.Collection = coll.ID, coll
		obj.Name, obj.Path = path.Base(newPath), newPath
		return nil
	})
}

// UnlinkDataObject removes obj and its replicas from the catalog. A bundled
// object is only removed when force is set.
func (s *GormDataObjectStor) UnlinkDataObject(obj *mcmodel.DataObject, force bool) error {
	if obj.IsBundled() && !force {
		return rerr.New(rerr.CantRmMvBundleType, "%s has a bundled replica, use force to remove it", obj.Path)
	}

	return WithTxRetry(s.db, func(tx *gorm.DB) error {
		return deleteDataObject(tx, obj)
	})
}

// ReplaceDataObject removes old and registers reg in its place in one
// transaction. An object with a bundled replica cannot be replaced.
func (s *GormDataObjectStor) ReplaceDataObject(old *mcmodel.DataObject, reg *Registration) (*mcmodel.DataObject, error) {
	if old.IsBundled() {
		return nil, rerr.New(rerr.CantRmMvBundleType, "%s has a bundled replica and cannot be replaced", old.Path)
	}

	var obj *mcmodel.DataObject
	err := WithTxRetry(s.db, func(tx *gorm.DB) error {
		if err := deleteDataObject(tx, old); err != nil {
			return err
		}

		var err error
		obj, err = registerDataObject(tx, reg)
		return err
	})

	if err != nil {
		return nil, err
	}

	return obj, nil
}

func deleteDataObject(tx *gorm.DB, obj *mcmodel.DataObject) error {
	if err := tx.Where("data_object_id = ?", obj.ID).Delete(&mcmodel.Replica{}).Error; err != nil {
		return dbErr(err, "delete replicas of %s", obj.Path)
	}

	return dbErr(tx.Delete(&mcmodel.DataObject{}, obj.ID).Error, "delete %s", obj.Path)
}
