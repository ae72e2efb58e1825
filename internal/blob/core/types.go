// Package core defines the blob storage contract used to hold listing images
// outside the key-value store.
package core

import (
	"context"
	"errors"
	"time"
)

// Driver identifies a concrete blob storage backend implementation.
type Driver string

const (
	// DriverFilesystem represents the local filesystem implementation.
	DriverFilesystem Driver = "fs"
	// DriverS3 represents an S3 / MinIO compatible implementation.
	DriverS3 Driver = "s3"
	// DriverMemory represents an in-memory implementation typically used in tests.
	DriverMemory Driver = "memory"
)

// Info describes a stored image.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size_bytes"`
	ContentType  string    `json:"content_type,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Store is the minimal S3-like surface the image offloader needs.
type Store interface {
	// Put stores data at key. MUST fail if the key already exists.
	Put(ctx context.Context, key string, data []byte, contentType string) (Info, error)
	// Get returns metadata and the full payload.
	Get(ctx context.Context, key string) (Info, []byte, error)
	// Delete removes a blob. Returns (false, nil) if not found.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns blobs whose key has prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	// URL returns an address consumers can render for key.
	URL(ctx context.Context, key string) (string, error)
	// Driver returns the configured backend driver.
	Driver() Driver
}

// DefaultURLExpiry bounds presigned URLs when a driver signs them.
const DefaultURLExpiry = 7 * 24 * time.Hour

// ErrExists is returned by Put when the key is already taken.
var ErrExists = errors.New("blobstore: key already exists")

// ErrNotFound is returned by Get for missing keys.
var ErrNotFound = errors.New("blobstore: key not found")
