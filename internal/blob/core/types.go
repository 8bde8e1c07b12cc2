// Package core defines the blob abstractions that back per-system metadata
// snapshots. Keys are slash separated, namespaced by system name
// (e.g. "fly_genome/metadata.yaml").
package core

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a concrete blob storage backend implementation.
type Driver string

const (
	// DriverFilesystem reads snapshots from a local directory tree.
	DriverFilesystem Driver = "fs" // local filesystem (default)
	// DriverS3 reads snapshots from an S3 / MinIO compatible bucket.
	DriverS3 Driver = "s3"
	// DriverMemory keeps snapshots in process memory.
	DriverMemory Driver = "memory" // tests
)

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// SignedURLOptions holds options for generating a pre-signed URL.
type SignedURLOptions struct {
	Method string        // only GET is supported
	Expiry time.Duration // default 15m
}

// Info describes a stored blob.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// Store is the content store holding metadata snapshots.
//
// Put replaces any existing blob at key as a whole: readers observe either the
// previous snapshot or the new one, never a partial write. Get and Head return
// an error matching ErrNotFound when the key is absent.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	PresignURL(ctx context.Context, key string, opts SignedURLOptions) (string, error)
	Driver() Driver
}

var (
	// ErrUnsupported is returned when an optional capability is not available.
	ErrUnsupported = errors.New("blobstore: unsupported operation")
	// ErrNotFound is returned by Get and Head for absent keys.
	ErrNotFound = errors.New("blobstore: not found")
)
