package blob

import (
	"context"
	"fmt"
	"os"
)

// Open selects a blob.Store implementation using environment variables.
//
//	BUILDHEALTH_BLOB_DRIVER: fs|s3|memory (default fs)
//	BUILDHEALTH_BLOB_FS_ROOT: directory root when driver=fs (default ./systems)
//	(S3 specific variables documented in internal/infra/blob/s3)
func Open(ctx context.Context) (Store, error) {
	return OpenDriver(ctx, Driver(os.Getenv("BUILDHEALTH_BLOB_DRIVER")), os.Getenv("BUILDHEALTH_BLOB_FS_ROOT"))
}

// OpenDriver constructs the named driver. An empty driver selects the filesystem.
func OpenDriver(ctx context.Context, driver Driver, fsRoot string) (Store, error) {
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(fsRoot)
	case DriverS3:
		return OpenFromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
