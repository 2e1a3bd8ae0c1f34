package stor

import (
	"log"
	"os"
	"testing"
	"time"

	"github.com/materials-commons/mcbun/pkg/mcdb"
	"github.com/materials-commons/mcbun/pkg/mcdb/mcmodel"
	"github.com/materials-commons/mcbun/pkg/rerr"
	"github.com/materials-commons/mcbun/pkg/structfile"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func mustSetupCatalog(t *testing.T) *Stors {
	db, err := gorm.Open(sqlite.Open(mcdb.SqliteInMemoryDSN), &gorm.Config{
		Logger: logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
		}),
	})
	require.NoErrorf(t, err, "Failed to open db: %s", err)

	sqlitedb, err := db.DB()
	require.NoErrorf(t, err, "Failed to get sqlite handle: %s", err)
	sqlitedb.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlitedb.Close() })

	require.NoError(t, mcdb.RunMigrations(db))
	return NewGormStors(db)
}

func register(t *testing.T, s *Stors, p string, size int64) *mcmodel.DataObject {
	obj, err := s.DataObjectStor.RegisterDataObject(&Registration{
		Path:     p,
		Size:     size,
		Owner:    "rods",
		Resource: "demoResc",
		PhyPath:  "/vault" + p,
	})
	require.NoErrorf(t, err, "RegisterDataObject(%s) failed: %s", p, err)
	return obj
}

func TestGormResourceStor(t *testing.T) {
	s := mustSetupCatalog(t)

	for _, r := range []mcmodel.Resource{
		{Name: "grp", Class: mcmodel.ResourceClassGroup},
		{Name: "cache2", Class: mcmodel.ResourceClassCache, GroupName: "grp"},
		{Name: "cache1", Class: mcmodel.ResourceClassCache, GroupName: "grp"},
		{Name: "demoResc", Class: mcmodel.ResourceClassArchive, VaultPath: "/var/lib/mcbun/vault"},
	} {
		r := r
		_, err := s.ResourceStor.CreateResource(&r)
		require.NoError(t, err)
	}

	resc, err := s.ResourceStor.GetResourceByName("grp")
	require.NoError(t, err)
	require.True(t, resc.IsGroup())

	members, err := s.ResourceStor.ListGroupMembers("grp")
	require.NoError(t, err)
	require.Len(t, members, 2)
	require.Equal(t, "cache1", members[0].Name)

	_, err = s.ResourceStor.GetResourceByName("missing")
	require.Equal(t, rerr.CatNoRowsFound, rerr.Code(err))

	vault, err := s.ResourceStor.VaultPath("demoResc")
	require.NoError(t, err)
	require.Equal(t, "/var/lib/mcbun/vault", vault)

	_, err = s.ResourceStor.VaultPath("missing")
	require.Equal(t, rerr.CatNoRowsFound, rerr.Code(err))
}

func TestGormCollectionStor_PathsAndListing(t *testing.T) {
	s := mustSetupCatalog(t)

	coll, err := s.CollectionStor.GetOrCreateCollectionPath("/tempZone/home/rods/data", "rods")
	require.NoError(t, err)
	require.Equal(t, "/tempZone/home/rods", coll.ParentPath)

	parent, err := s.CollectionStor.GetCollectionByPath("/tempZone/home")
	require.NoError(t, err)
	require.Equal(t, "/tempZone", parent.ParentPath)

	_, err = s.CollectionStor.GetCollectionByPath("/tempZone/nope")
	require.Equal(t, rerr.CatUnknownCollection, rerr.Code(err))

	register(t, s, "/tempZone/home/rods/data/b.txt", 2)
	register(t, s, "/tempZone/home/rods/data/a.txt", 1)
	register(t, s, "/tempZone/home/rods/data/sub/c.txt", 3)
	register(t, s, "/tempZone/home/rods/data_x/d.txt", 4)

	objs, err := s.CollectionStor.ListDataObjectsUnder("/tempZone/home/rods/data")
	require.NoError(t, err)

	var paths []string
	for _, obj := range objs {
		paths = append(paths, obj.Path)
		require.Len(t, obj.Replicas, 1)
	}
	require.Equal(t, []string{
		"/tempZone/home/rods/data/a.txt",
		"/tempZone/home/rods/data/b.txt",
		"/tempZone/home/rods/data/sub/c.txt",
	}, paths)
}

func TestGormCollectionStor_SpecColl(t *testing.T) {
	s := mustSetupCatalog(t)
	coll := "/tempZone/home/rods/mnt"

	sc, err := s.CollectionStor.GetSpecColl(coll)
	require.NoError(t, err)
	require.Nil(t, sc)

	want := &structfile.SpecColl{
		Collection: coll,
		ObjPath:    "/tempZone/home/rods/mnt.tar",
		Type:       structfile.TarType,
		PhyPath:    "/vault/home/rods/mnt.tar",
		CacheDir:   "/vault/home/rods/mnt.tar.cacheDir0",
		CacheDirty: true,
		Resource:   "cacheResc",
		DataType:   "tar file",
	}
	require.NoError(t, s.CollectionStor.SaveSpecColl(want))

	sc, err = s.CollectionStor.GetSpecColl(coll)
	require.NoError(t, err)
	require.Equal(t, want, sc)

	_, err = s.DataObjectStor.RegisterDataObject(&Registration{Path: coll + "/x", Resource: "demoResc"})
	require.Equal(t, rerr.SysStructFileInMountedColl, rerr.Code(err))

	_, err = s.CollectionStor.GetOrCreateCollectionPath(coll+"/sub", "rods")
	require.Equal(t, rerr.SysStructFileInMountedColl, rerr.Code(err))

	want.Type = structfile.NoneType
	want.PhyPath = ""
	require.NoError(t, s.CollectionStor.SaveSpecColl(want))
	sc, err = s.CollectionStor.GetSpecColl(coll)
	require.NoError(t, err)
	require.Nil(t, sc)
}

func TestGormDataObjectStor_Register(t *testing.T) {
	s := mustSetupCatalog(t)
	obj := register(t, s, "/tempZone/home/rods/a.txt", 5)
	require.NotEmpty(t, obj.UUID)

	_, err := s.DataObjectStor.RegisterDataObject(&Registration{Path: "/tempZone/home/rods/a.txt"})
	require.Equal(t, rerr.CatNameExistsAsDataObj, rerr.Code(err))

	_, err = s.DataObjectStor.BulkRegister([]*Registration{
		{Path: "/tempZone/home/rods/b.txt", Resource: "demoResc"},
		{Path: "/tempZone/home/rods/a.txt", Resource: "demoResc"},
	})
	require.Equal(t, rerr.CatNameExistsAsDataObj, rerr.Code(err))

	_, err = s.DataObjectStor.GetDataObjectByPath("/tempZone/home/rods/b.txt")
	require.Equal(t, rerr.CatNoRowsFound, rerr.Code(err), "bulk registration must be all or nothing")

	objs, err := s.DataObjectStor.BulkRegister([]*Registration{
		{Path: "/tempZone/home/rods/b.txt", Resource: "demoResc"},
		{Path: "/tempZone/home/rods/c.txt", Resource: "demoResc"},
	})
	require.NoError(t, err)
	require.Len(t, objs, 2)

	require.NoError(t, s.DataObjectStor.UpdateReplicaContent(&obj.Replicas[0], 9, "sum"))
	obj, err = s.DataObjectStor.GetDataObjectByPath("/tempZone/home/rods/a.txt")
	require.NoError(t, err)
	require.Equal(t, int64(9), obj.Size)
	require.Equal(t, "sum", obj.Replicas[0].Checksum)
}

func TestGormDataObjectStor_Bundle(t *testing.T) {
	s := mustSetupCatalog(t)
	a := register(t, s, "/tempZone/home/rods/data/a.txt", 1)
	b := register(t, s, "/tempZone/home/rods/data/b.txt", 2)

	bundle, err := s.DataObjectStor.RegisterBundle(&BundleRegistration{
		Registration: Registration{
			Path:     "/tempZone/bundle/home/rods/data.1",
			Size:     2048,
			Resource: "cacheResc",
			PhyPath:  "/cache/bundle/home/rods/data.1",
		},
		MemberIDs: []int{a.ID, b.ID},
	})
	require.NoError(t, err)

	for _, p := range []string{a.Path, b.Path} {
		obj, err := s.DataObjectStor.GetDataObjectByPath(p)
		require.NoError(t, err)
		require.Len(t, obj.Replicas, 2)
		require.Equal(t, mcmodel.BundleResourceName, obj.Replicas[1].ResourceName)
		require.Equal(t, bundle.Path, obj.Replicas[1].PhyPath)
		require.Equal(t, 1, obj.Replicas[1].ReplNum)
		require.True(t, obj.IsBundled())

		err = s.DataObjectStor.RenameDataObject(obj, p+".new")
		require.Equal(t, rerr.CantRmMvBundleType, rerr.Code(err))

		err = s.DataObjectStor.MoveToTrash(obj)
		require.Equal(t, rerr.SysCantMvBundleDataToTrash, rerr.Code(err))

		err = s.DataObjectStor.UnlinkDataObject(obj, false)
		require.Equal(t, rerr.CantRmMvBundleType, rerr.Code(err))
	}

	obj, err := s.DataObjectStor.GetDataObjectByPath(a.Path)
	require.NoError(t, err)
	require.NoError(t, s.DataObjectStor.UnlinkDataObject(obj, true))
	_, err = s.DataObjectStor.GetDataObjectByPath(a.Path)
	require.Equal(t, rerr.CatNoRowsFound, rerr.Code(err))
}

func TestGormDataObjectStor_Replace(t *testing.T) {
	s := mustSetupCatalog(t)
	old := register(t, s, "/tempZone/home/rods/data.tar", 10)

	obj, err := s.DataObjectStor.ReplaceDataObject(old, &Registration{
		Path:     old.Path,
		DataType: "zstdTar",
		Size:     20,
		Checksum: "sum",
		Resource: "demoResc",
		PhyPath:  "/vault/home/rods/data.tar",
	})
	require.NoError(t, err)

	got, err := s.DataObjectStor.GetDataObjectByPath(old.Path)
	require.NoError(t, err)
	require.Equal(t, obj.ID, got.ID)
	require.Equal(t, int64(20), got.Size)
	require.Equal(t, "zstdTar", got.DataType)
	require.Len(t, got.Replicas, 1)
	require.Equal(t, "/vault/home/rods/data.tar", got.Replicas[0].PhyPath)

	member := register(t, s, "/tempZone/home/rods/data/a.txt", 1)
	_, err = s.DataObjectStor.RegisterBundle(&BundleRegistration{
		Registration: Registration{
			Path:     "/tempZone/bundle/home/rods/data.1",
			Size:     2048,
			Resource: "cacheResc",
			PhyPath:  "/cache/bundle/home/rods/data.1",
		},
		MemberIDs: []int{member.ID},
	})
	require.NoError(t, err)

	member, err = s.DataObjectStor.GetDataObjectByPath(member.Path)
	require.NoError(t, err)
	_, err = s.DataObjectStor.ReplaceDataObject(member, &Registration{Path: member.Path, Resource: "demoResc", PhyPath: "/vault/x"})
	require.Equal(t, rerr.CantRmMvBundleType, rerr.Code(err))
	_, err = s.DataObjectStor.GetDataObjectByPath(member.Path)
	require.NoError(t, err)
}

func TestGormDataObjectStor_Move(t *testing.T) {
	s := mustSetupCatalog(t)
	obj := register(t, s, "/tempZone/home/rods/a.txt", 1)
	register(t, s, "/tempZone/home/rods/b.txt", 1)

	err := s.DataObjectStor.RenameDataObject(obj, "/tempZone/home/rods/b.txt")
	require.Equal(t, rerr.CatNameExistsAsDataObj, rerr.Code(err))

	require.NoError(t, s.DataObjectStor.RenameDataObject(obj, "/tempZone/home/rods/d/a2.txt"))
	require.Equal(t, "a2.txt", obj.Name)

	require.NoError(t, s.DataObjectStor.MoveToTrash(obj))
	moved, err := s.DataObjectStor.GetDataObjectByPath("/tempZone/trash/home/rods/d/a2.txt")
	require.NoError(t, err)
	require.Equal(t, obj.ID, moved.ID)
}
