package core

import (
	"os"
	"strconv"
	"strings"

	"buildhealth/internal/blob"
)

// StorageDriver identifies a result store backend.
type StorageDriver string

const (
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// Config gathers the environment settings for Open.
type Config struct {
	StorageDriver StorageDriver
	SQLitePath    string
	PostgresDSN   string
	// PostgresApplySchema bootstraps the schema on an empty database.
	PostgresApplySchema bool
	PostgresMaxConns    int

	BlobDriver blob.Driver
	BlobFSRoot string
}

// LoadConfig reads the BUILDHEALTH_* environment. Defaults to sqlite and the
// filesystem blob driver when unset.
//
//	BUILDHEALTH_STORAGE_DRIVER: sqlite|postgres (default sqlite)
//	BUILDHEALTH_SQLITE_PATH: path to sqlite file (default ./buildhealth.db)
//	BUILDHEALTH_POSTGRES_DSN: postgres DSN when driver=postgres
//	BUILDHEALTH_POSTGRES_APPLY_SCHEMA: true to run the bundled DDL on open
//	BUILDHEALTH_POSTGRES_MAX_CONNS: pool bound, one connection per request
//	BUILDHEALTH_BLOB_DRIVER: fs|s3|memory (default fs)
//	BUILDHEALTH_BLOB_FS_ROOT: metadata tree root when driver=fs (default ./systems)
func LoadConfig() Config {
	cfg := Config{
		StorageDriver: StorageDriver(strings.ToLower(os.Getenv("BUILDHEALTH_STORAGE_DRIVER"))),
		SQLitePath:    os.Getenv("BUILDHEALTH_SQLITE_PATH"),
		PostgresDSN:   os.Getenv("BUILDHEALTH_POSTGRES_DSN"),
		BlobDriver:    blob.Driver(strings.ToLower(os.Getenv("BUILDHEALTH_BLOB_DRIVER"))),
		BlobFSRoot:    os.Getenv("BUILDHEALTH_BLOB_FS_ROOT"),
	}
	if cfg.StorageDriver == "" {
		cfg.StorageDriver = StorageSQLite
	}
	if cfg.BlobDriver == "" {
		cfg.BlobDriver = blob.DriverFilesystem
	}
	if v, err := strconv.ParseBool(os.Getenv("BUILDHEALTH_POSTGRES_APPLY_SCHEMA")); err == nil {
		cfg.PostgresApplySchema = v
	}
	if n, err := strconv.Atoi(os.Getenv("BUILDHEALTH_POSTGRES_MAX_CONNS")); err == nil && n > 0 {
		cfg.PostgresMaxConns = n
	}
	return cfg
}
