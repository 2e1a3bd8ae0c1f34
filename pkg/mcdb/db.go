package mcdb

import (
	"fmt"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/materials-commons/mcbun/pkg/mcdb/mcmodel"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SqliteInMemoryDSN is a private in memory database. Callers must limit the
// pool to one connection or each connection sees its own empty database.
const SqliteInMemoryDSN = "file::memory:"

func MakeDSNFromEnv() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		os.Getenv("DB_USERNAME"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_DATABASE"))
}

const maxDBRetries = 5

var gormConfig = &gorm.Config{
	Logger: logger.Default.LogMode(logger.Silent),
}

// MustConnectToDB will attempt to connect to the catalog database maxDBRetries times. If it isn't successful
// after that number of retries then it will call log.Fatalf(), which will cause the server to exit.
// Between retry attempts it will sleep for 3 seconds.
func MustConnectToDB() *gorm.DB {
	var (
		err error
		db  *gorm.DB
	)

	retryCount := 1
	for {
		db, err = gorm.Open(mysql.Open(MakeDSNFromEnv()), gormConfig)
		switch {
		case err == nil:
			return db
		case retryCount >= maxDBRetries:
			log.Fatalf("Failed to open catalog db (%s@%s): %s", os.Getenv("DB_DATABASE"), os.Getenv("DB_HOST"), err)
		default:
			log.Warnf("Catalog db not reachable (attempt %d of %d): %s", retryCount, maxDBRetries, err)
			retryCount++
			time.Sleep(3 * time.Second)
		}
	}
}

// ConnectSqlite opens a sqlite catalog at path and migrates it. It is used for
// single host deployments and tests.
func ConnectSqlite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// sqlite allows a single writer.
	sqlDB.SetMaxOpenConns(1)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations creates or updates the catalog tables.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&mcmodel.Resource{},
		&mcmodel.Collection{},
		&mcmodel.DataObject{},
		&mcmodel.Replica{},
	)
}
