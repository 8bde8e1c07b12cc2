package blob

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestOpenDefaultsToFilesystem(t *testing.T) {
	t.Setenv("BUILDHEALTH_BLOB_DRIVER", "")
	t.Setenv("BUILDHEALTH_BLOB_FS_ROOT", t.TempDir())
	store, err := Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("expected fs driver, got %s", store.Driver())
	}
}

func TestOpenDriverMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := OpenDriver(ctx, DriverMemory, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := store.Put(ctx, "sys1/readme.html", strings.NewReader("<p>hi</p>"), PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Head(ctx, "sys1/thumb.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenDriverRejectsUnknown(t *testing.T) {
	if _, err := OpenDriver(context.Background(), Driver("ftp"), ""); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestOpenDriverS3RequiresBucket(t *testing.T) {
	t.Setenv("BUILDHEALTH_BLOB_S3_BUCKET", "")
	if _, err := OpenDriver(context.Background(), DriverS3, ""); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}

func TestMockS3SatisfiesStore(t *testing.T) {
	var store Store = NewMockS3ForTests()
	if store.Driver() != DriverS3 {
		t.Fatalf("unexpected driver %s", store.Driver())
	}
}
