package stor

import (
	"errors"
	"path"
	"sort"
	"strings"

	"github.com/materials-commons/mcbun/pkg/mcdb/mcmodel"
	"github.com/materials-commons/mcbun/pkg/mcpath"
	"github.com/materials-commons/mcbun/pkg/rerr"
	"github.com/materials-commons/mcbun/pkg/structfile"
	"gorm.io/gorm"
)

type GormCollectionStor struct {
	db *gorm.DB
}

func NewGormCollectionStor(db *gorm.DB) *GormCollectionStor {
	return &GormCollectionStor{db: db}
}

func (s *GormCollectionStor) GetCollectionByPath(p string) (*mcmodel.Collection, error) {
	var coll mcmodel.Collection
	if err := s.db.Where("path = ?", path.Clean(p)).First(&coll).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, rerr.New(rerr.CatUnknownCollection, "collection %s does not exist", p)
		}
		return nil, dbErr(err, "collection %s", p)
	}

	return &coll, nil
}

// GetOrCreateCollectionPath returns the collection at p, creating it and any
// missing parents below the zone.
func (s *GormCollectionStor) GetOrCreateCollectionPath(p, owner string) (*mcmodel.Collection, error) {
	var coll *mcmodel.Collection
	err := WithTxRetry(s.db, func(tx *gorm.DB) error {
		var err error
		coll, err = getOrCreateCollectionPath(tx, p, owner)
		return err
	})

	return coll, err
}

func getOrCreateCollectionPath(tx *gorm.DB, p, owner string) (*mcmodel.Collection, error) {
	p = path.Clean(p)
	if !strings.HasPrefix(p, "/") || p == "/" {
		return nil, rerr.New(rerr.SysInvalidFilePath, "invalid collection path '%s'", p)
	}

	var coll mcmodel.Collection
	parent := ""
	current := ""
	for _, elem := range strings.Split(strings.TrimPrefix(p, "/"), "/") {
		current = current + "/" + elem
		coll = mcmodel.Collection{}
		err := tx.Where(mcmodel.Collection{Path: current}).
			Attrs(mcmodel.Collection{ParentPath: parent, OwnerName: owner}).
			FirstOrCreate(&coll).Error
		if err != nil {
			return nil, dbErr(err, "create collection %s", current)
		}

		if coll.IsMounted() && current != p {
			return nil, rerr.New(rerr.SysStructFileInMountedColl, "%s is inside the mounted collection %s", p, current)
		}
		parent = current
	}

	return &coll, nil
}

// ListDataObjectsUnder returns every data object in p and its sub-collections
// ordered by collection path, then name, with replicas loaded.
func (s *GormCollectionStor) ListDataObjectsUnder(p string) ([]mcmodel.DataObject, error) {
	p = path.Clean(p)
	var objs []mcmodel.DataObject
	err := s.db.Select("data_objects.*").
		Preload("Replicas", func(db *gorm.DB) *gorm.DB { return db.Order("repl_num") }).
		Preload("Collection").
		Joins("JOIN collections ON collections.id = data_objects.collection_id").
		Where("collections.path = ? OR collections.path LIKE ?", p, p+"/%").
		Order("collections.path").
		Order("data_objects.name").
		Find(&objs).Error
	if err != nil {
		return nil, dbErr(err, "data objects under %s", p)
	}

	// LIKE treats '_' and '%' in p as wildcards.
	filtered := objs[:0]
	for _, obj := range objs {
		if obj.Collection != nil && mcpath.IsUnder(p, obj.Collection.Path) {
			filtered = append(filtered, obj)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		ci, cj := filtered[i].Collection.Path, filtered[j].Collection.Path
		if ci != cj {
			return ci < cj
		}
		return filtered[i].Name < filtered[j].Name
	})

	return filtered, nil
}

// GetSpecColl returns the struct file mounted at collection, or nil when the
// collection is missing or has nothing mounted.
func (s *GormCollectionStor) GetSpecColl(collection string) (*structfile.SpecColl, error) {
	coll, err := s.GetCollectionByPath(collection)
	switch {
	case rerr.Is(err, rerr.CatUnknownCollection):
		return nil, nil
	case err != nil:
		return nil, err
	case !coll.IsMounted():
		return nil, nil
	}

	return &structfile.SpecColl{
		Collection: coll.Path,
		ObjPath:    coll.StructFileObjPath,
		Type:       structfile.Type(coll.SpecCollType),
		PhyPath:    coll.StructFilePhyPath,
		CacheDir:   coll.CacheDir,
		CacheDirty: coll.CacheDirty,
		Resource:   coll.Resource,
		DataType:   coll.DataType,
	}, nil
}

// SaveSpecColl records the mount state of sc on its collection.
func (s *GormCollectionStor) SaveSpecColl(sc *structfile.SpecColl) error {
	return WithTxRetry(s.db, func(tx *gorm.DB) error {
		coll, err := getOrCreateCollectionPath(tx, sc.Collection, "")
		if err != nil {
			return err
		}

		return tx.Model(coll).Select("SpecCollType", "StructFileObjPath", "StructFilePhyPath",
			"CacheDir", "CacheDirty", "Resource", "DataType").
			Updates(&mcmodel.Collection{
				SpecCollType:      int(sc.Type),
				StructFileObjPath: sc.ObjPath,
				StructFilePhyPath: sc.PhyPath,
				CacheDir:          sc.CacheDir,
				CacheDirty:        sc.CacheDirty,
				Resource:          sc.Resource,
				DataType:          sc.DataType,
			}).Error
	})
}
