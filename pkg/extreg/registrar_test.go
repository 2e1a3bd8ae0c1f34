package extreg

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/materials-commons/mcbun/pkg/api"
	"github.com/materials-commons/mcbun/pkg/dispatch"
	"github.com/materials-commons/mcbun/pkg/mcdb"
	"github.com/materials-commons/mcbun/pkg/mcdb/mcmodel"
	"github.com/materials-commons/mcbun/pkg/mcdb/stor"
	"github.com/materials-commons/mcbun/pkg/mcpath"
	"github.com/materials-commons/mcbun/pkg/rerr"
	"github.com/materials-commons/mcbun/pkg/structfile"
	"github.com/materials-commons/mcbun/pkg/structfile/archive"
	"github.com/materials-commons/mcbun/pkg/subfile"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const home = "/tempZone/home/rods"

type registrarTestCase struct {
	*testing.T
	ctx       context.Context
	stors     *stor.Stors
	registrar *Registrar
	vault     string
}

func newRegistrarTestCase(t *testing.T) *registrarTestCase {
	db, err := gorm.Open(sqlite.Open(mcdb.SqliteInMemoryDSN), &gorm.Config{
		Logger: logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
		}),
	})
	require.NoErrorf(t, err, "Failed to open db: %s", err)

	sqlitedb, err := db.DB()
	require.NoError(t, err)
	sqlitedb.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlitedb.Close() })
	require.NoError(t, mcdb.RunMigrations(db))

	stors := stor.NewGormStors(db)
	vault := t.TempDir()
	_, err = stors.ResourceStor.CreateResource(&mcmodel.Resource{Name: "demoResc", Class: mcmodel.ResourceClassArchive, VaultPath: vault})
	require.NoError(t, err)

	d := dispatch.New(dispatch.NewHostTable("tempZone", "local", nil, nil))
	subfiles := subfile.NewService(d, structfile.NewRegistry(structfile.NewTarDriver(stors.CollectionStor)))

	return &registrarTestCase{
		T:         t,
		ctx:       context.Background(),
		stors:     stors,
		registrar: NewRegistrar(stors, subfiles, d, "demoResc"),
		vault:     vault,
	}
}

// putObject writes content into the vault and registers it at logical.
func (tc *registrarTestCase) putObject(logical, content string) *mcmodel.DataObject {
	phy := mcpath.VaultPath(tc.vault, logical)
	require.NoError(tc.T, os.MkdirAll(filepath.Dir(phy), 0750))
	require.NoError(tc.T, os.WriteFile(phy, []byte(content), 0640))

	obj, err := tc.stors.DataObjectStor.RegisterDataObject(&stor.Registration{
		Path:     logical,
		Size:     int64(len(content)),
		Owner:    "rods",
		Resource: "demoResc",
		PhyPath:  phy,
	})
	require.NoErrorf(tc.T, err, "RegisterDataObject(%s) failed: %s", logical, err)
	return obj
}

// putArchive builds a tar of files and registers it at logical.
func (tc *registrarTestCase) putArchive(logical string, files map[string]string) {
	src := filepath.Join(tc.TempDir(), "src")
	require.NoError(tc.T, os.MkdirAll(src, 0750))
	for rel, content := range files {
		p := filepath.Join(src, filepath.FromSlash(rel))
		require.NoError(tc.T, os.MkdirAll(filepath.Dir(p), 0750))
		require.NoError(tc.T, os.WriteFile(p, []byte(content), 0640))
	}

	phy := mcpath.VaultPath(tc.vault, logical)
	_, err := archive.Write(tc.ctx, src, phy, archive.DataTypeTar)
	require.NoError(tc.T, err)

	fi, err := os.Stat(phy)
	require.NoError(tc.T, err)
	_, err = tc.stors.DataObjectStor.RegisterDataObject(&stor.Registration{
		Path:     logical,
		DataType: archive.DataTypeTar,
		Size:     fi.Size(),
		Owner:    "rods",
		Resource: "demoResc",
		PhyPath:  phy,
	})
	require.NoError(tc.T, err)
}

func (tc *registrarTestCase) content(logical string) string {
	obj, err := tc.stors.DataObjectStor.GetDataObjectByPath(logical)
	require.NoErrorf(tc.T, err, "GetDataObjectByPath(%s) failed: %s", logical, err)
	replica := obj.GoodReplica("demoResc")
	require.NotNil(tc.T, replica)

	b, err := os.ReadFile(replica.PhyPath)
	require.NoError(tc.T, err)
	require.Equal(tc.T, int64(len(b)), obj.Size)
	return string(b)
}

func TestExtractAndRegister_SkipsExistingWithoutForce(t *testing.T) {
	tc := newRegistrarTestCase(t)
	tc.putArchive(home+"/mybundle.tar", map[string]string{"a.txt": "new a", "sub/b.txt": "new b"})
	tc.putObject(home+"/target/a.txt", "old a")

	req := &api.ExtAndRegRequest{ObjPath: home + "/mybundle.tar", Collection: home + "/target", User: "rods"}
	result, err := tc.registrar.ExtractAndRegister(tc.ctx, req)
	require.NoErrorf(t, err, "ExtractAndRegister failed: %s", err)
	require.Equal(t, &api.ExtAndRegResult{Registered: 1, Skipped: 1, Collections: 1}, result)

	require.Equal(t, "old a", tc.content(home+"/target/a.txt"))
	require.Equal(t, "new b", tc.content(home+"/target/sub/b.txt"))

	_, err = os.Stat(mcpath.VaultPath(tc.vault, home+"/mybundle.tar.dir"))
	require.True(t, os.IsNotExist(err), "staging directory must be removed")

	req.Force = true
	result, err = tc.registrar.ExtractAndRegister(tc.ctx, req)
	require.NoError(t, err)
	require.Equal(t, 2, result.Overwritten)
	require.Equal(t, "new a", tc.content(home+"/target/a.txt"))
}

func TestExtractAndRegister_Bulk(t *testing.T) {
	tc := newRegistrarTestCase(t)
	files := make(map[string]string)
	for i := 0; i < 2*BulkBatchSize+7; i++ {
		files[fmt.Sprintf("f%03d.txt", i)] = fmt.Sprintf("content %d", i)
	}
	tc.putArchive(home+"/many.tar", files)
	tc.putObject(home+"/dest/f010.txt", "taken")

	result, err := tc.registrar.ExtractAndRegister(tc.ctx, &api.ExtAndRegRequest{
		ObjPath:    home + "/many.tar",
		Collection: home + "/dest",
		Bulk:       true,
		User:       "rods",
	})
	require.NoError(t, err)
	require.Equal(t, len(files)-1, result.Registered)
	require.Equal(t, 1, result.Skipped)

	objs, err := tc.stors.CollectionStor.ListDataObjectsUnder(home + "/dest")
	require.NoError(t, err)
	require.Len(t, objs, len(files))
	require.Equal(t, "content 99", tc.content(home+"/dest/f099.txt"))
}

func TestExtractAndRegister_Errors(t *testing.T) {
	tc := newRegistrarTestCase(t)
	tc.putArchive(home+"/b.tar", map[string]string{"a.txt": "a"})
	require.NoError(t, tc.stors.CollectionStor.SaveSpecColl(&structfile.SpecColl{
		Collection: home + "/mounted",
		Type:       structfile.TarType,
		PhyPath:    "/somewhere/m.tar",
	}))

	tests := []struct {
		name string
		req  *api.ExtAndRegRequest
		code rerr.Status
	}{
		{
			name: "missing struct file",
			req:  &api.ExtAndRegRequest{ObjPath: home + "/none.tar", Collection: home + "/t"},
			code: rerr.CatNoRowsFound,
		},
		{
			name: "no replica on resource",
			req:  &api.ExtAndRegRequest{ObjPath: home + "/b.tar", Collection: home + "/t", Resource: "otherResc"},
			code: rerr.CatNoRowsFound,
		},
		{
			name: "cross zone",
			req:  &api.ExtAndRegRequest{ObjPath: home + "/b.tar", Collection: "/otherZone/home/rods/t"},
			code: rerr.SysInvalidFilePath,
		},
		{
			name: "mounted target",
			req:  &api.ExtAndRegRequest{ObjPath: home + "/b.tar", Collection: home + "/mounted"},
			code: rerr.SysStructFileInMountedColl,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := tc.registrar.ExtractAndRegister(tc.ctx, test.req)
			require.Equal(t, test.code, rerr.Code(err))
		})
	}
}

func TestBundleCollection_RoundTrip(t *testing.T) {
	tc := newRegistrarTestCase(t)
	tc.putObject(home+"/data/a.txt", "alpha")
	tc.putObject(home+"/data/sub/b.txt", "beta")

	req := &api.BundleRequest{ObjPath: home + "/data.tar", Collection: home + "/data", User: "rods"}
	result, err := tc.registrar.BundleCollection(tc.ctx, req)
	require.NoErrorf(t, err, "BundleCollection failed: %s", err)
	require.Equal(t, 2, result.Members)

	bundle, err := tc.stors.DataObjectStor.GetDataObjectByPath(home + "/data.tar")
	require.NoError(t, err)
	require.Equal(t, result.Size, bundle.Size)
	require.NotEmpty(t, bundle.Checksum)

	_, err = tc.registrar.BundleCollection(tc.ctx, req)
	require.Equal(t, rerr.CatNameExistsAsDataObj, rerr.Code(err))

	req.Force = true
	req.DataType = archive.DataTypeZstdTar
	_, err = tc.registrar.BundleCollection(tc.ctx, req)
	require.NoError(t, err)

	_, err = tc.registrar.ExtractAndRegister(tc.ctx, &api.ExtAndRegRequest{
		ObjPath:    home + "/data.tar",
		Collection: home + "/restored",
		User:       "rods",
	})
	require.NoError(t, err)
	require.Equal(t, "alpha", tc.content(home+"/restored/a.txt"))
	require.Equal(t, "beta", tc.content(home+"/restored/sub/b.txt"))
}

func TestBundleCollection_FailedForceKeepsExisting(t *testing.T) {
	tc := newRegistrarTestCase(t)
	tc.putObject(home+"/data/a.txt", "alpha")
	tc.putObject(home+"/data/b.txt", "beta")

	req := &api.BundleRequest{ObjPath: home + "/data.tar", Collection: home + "/data", User: "rods"}
	_, err := tc.registrar.BundleCollection(tc.ctx, req)
	require.NoError(t, err)

	before, err := tc.stors.DataObjectStor.GetDataObjectByPath(home + "/data.tar")
	require.NoError(t, err)
	phy := before.GoodReplica("demoResc").PhyPath
	contents, err := os.ReadFile(phy)
	require.NoError(t, err)

	// c.txt is cataloged but its file is gone, so staging the rebuild fails.
	c := tc.putObject(home+"/data/c.txt", "gamma")
	cPhy := c.GoodReplica("demoResc").PhyPath
	require.NoError(t, os.Remove(cPhy))

	req.Force = true
	_, err = tc.registrar.BundleCollection(tc.ctx, req)
	require.Error(t, err)
	require.True(t, rerr.IsNotFound(err), "unexpected error %s", err)

	after, err := tc.stors.DataObjectStor.GetDataObjectByPath(home + "/data.tar")
	require.NoError(t, err)
	require.Equal(t, before.ID, after.ID)
	require.Equal(t, before.Checksum, after.Checksum)

	b, err := os.ReadFile(phy)
	require.NoError(t, err)
	require.Equal(t, contents, b)
	require.Equal(t, []string{"data.tar"}, tarSiblings(t, phy))

	require.NoError(t, os.WriteFile(cPhy, []byte("gamma"), 0640))
	result, err := tc.registrar.BundleCollection(tc.ctx, req)
	require.NoError(t, err)
	require.Equal(t, 3, result.Members)

	replaced, err := tc.stors.DataObjectStor.GetDataObjectByPath(home + "/data.tar")
	require.NoError(t, err)
	require.NotEqual(t, before.Checksum, replaced.Checksum)
	require.Equal(t, phy, replaced.GoodReplica("demoResc").PhyPath)
	require.Equal(t, []string{"data.tar"}, tarSiblings(t, phy))
}

func TestBundleCollection_BundledTargetNotReplaced(t *testing.T) {
	tc := newRegistrarTestCase(t)
	tc.putObject(home+"/data/a.txt", "alpha")
	obj := tc.putObject(home+"/data.tar", "old")

	_, err := tc.stors.DataObjectStor.RegisterBundle(&stor.BundleRegistration{
		Registration: stor.Registration{
			Path:     "/tempZone/bundle/home/rods/data.1",
			Size:     1024,
			Owner:    "rods",
			Resource: "demoResc",
			PhyPath:  mcpath.VaultPath(tc.vault, "/tempZone/bundle/home/rods/data.1"),
		},
		MemberIDs: []int{obj.ID},
	})
	require.NoError(t, err)

	_, err = tc.registrar.BundleCollection(tc.ctx, &api.BundleRequest{ObjPath: home + "/data.tar", Collection: home + "/data", Force: true})
	require.Equal(t, rerr.CantRmMvBundleType, rerr.Code(err))
	require.Equal(t, "old", tc.content(home+"/data.tar"))
}

// tarSiblings lists the entries next to phy that share its name as a prefix.
func tarSiblings(t *testing.T, phy string) []string {
	entries, err := os.ReadDir(filepath.Dir(phy))
	require.NoError(t, err)

	var names []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), filepath.Base(phy)) {
			names = append(names, entry.Name())
		}
	}
	return names
}

func TestBundleCollection_Errors(t *testing.T) {
	tc := newRegistrarTestCase(t)
	tc.putObject(home+"/data/a.txt", "alpha")

	_, err := tc.registrar.BundleCollection(tc.ctx, &api.BundleRequest{ObjPath: home + "/data/self.tar", Collection: home + "/data"})
	require.Equal(t, rerr.SysInvalidFilePath, rerr.Code(err))

	_, err = tc.registrar.BundleCollection(tc.ctx, &api.BundleRequest{ObjPath: home + "/x.tar", Collection: home + "/nope"})
	require.Equal(t, rerr.CatUnknownCollection, rerr.Code(err))

	_, err = tc.registrar.BundleCollection(tc.ctx, &api.BundleRequest{ObjPath: home + "/x.tar", Collection: home + "/data", Resource: "missingResc"})
	require.Equal(t, rerr.CatNoRowsFound, rerr.Code(err))
}
