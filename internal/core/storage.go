package core

import (
	"context"
	"fmt"

	"rentapp/internal/blob"
	"rentapp/internal/kv"
)

// StorageOptions selects the key-value and image backends.
type StorageOptions struct {
	KV   kv.Options
	Blob blob.Options
}

// Open opens the configured backends and returns a service over them. The
// image store is only installed when a blob driver is configured.
func Open(ctx context.Context, storage StorageOptions, opts ...Option) (*Service, error) {
	store, err := kv.Open(ctx, storage.KV)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	images, err := blob.Open(ctx, storage.Blob)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open image store: %w", err)
	}
	if images != nil {
		opts = append(opts[:len(opts):len(opts)], WithImageStore(images))
	}
	return NewService(store, opts...), nil
}
