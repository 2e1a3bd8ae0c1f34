package mcdb

import (
	"path/filepath"
	"testing"

	"github.com/materials-commons/mcbun/pkg/mcdb/mcmodel"
	"github.com/materials-commons/mcbun/pkg/tutil"
	"github.com/stretchr/testify/require"
)

func TestConnectSqlite(t *testing.T) {
	db, err := ConnectSqlite(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoErrorf(t, err, "ConnectSqlite failed: %s", err)

	resc := mcmodel.Resource{Name: "demoResc", Class: mcmodel.ResourceClassArchive, Host: "srv1", VaultPath: "/var/lib/vault"}
	require.NoError(t, db.Create(&resc).Error)

	var found mcmodel.Resource
	require.NoError(t, db.Where("name = ?", "demoResc").First(&found).Error)
	require.Equal(t, resc.ID, found.ID)
}

func TestMustConnectToDB(t *testing.T) {
	tutil.SkipUnlessIntegration(t)

	db := MustConnectToDB()
	require.NoError(t, RunMigrations(db))

	var count int64
	require.NoError(t, db.Model(&mcmodel.Resource{}).Count(&count).Error)
}
