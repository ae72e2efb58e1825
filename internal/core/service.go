// Package core implements the property repository and the per-user derived
// sets (bookmarks, follow-up, closed) over a key-value store.
package core

import (
	"rentapp/internal/blob"
	"rentapp/internal/kv"
)

// Service wires the repository and managers over one store with shared
// options.
type Service struct {
	store     kv.Store
	images    blob.Store
	registry  *KeyRegistry
	props     *Repository
	bookmarks *Bookmarks
	pipeline  *Pipeline
}

// NewService constructs the repository, bookmarks and pipeline over store.
func NewService(store kv.Store, opts ...Option) *Service {
	o := buildOptions(opts)
	registry := NewKeyRegistry(store)
	repo := NewRepository(store, opts...)
	return &Service{
		store:     store,
		images:    o.images,
		registry:  registry,
		props:     repo,
		bookmarks: NewBookmarks(store, repo, registry, opts...),
		pipeline:  NewPipeline(store, repo, registry, opts...),
	}
}

// Properties returns the listing repository.
func (s *Service) Properties() *Repository { return s.props }

// Bookmarks returns the bookmark manager.
func (s *Service) Bookmarks() *Bookmarks { return s.bookmarks }

// Pipeline returns the follow-up/closed manager.
func (s *Service) Pipeline() *Pipeline { return s.pipeline }

// Registry returns the per-user key registry.
func (s *Service) Registry() *KeyRegistry { return s.registry }

// Store returns the underlying key-value store.
func (s *Service) Store() kv.Store { return s.store }

// Images returns the configured image store, nil when offloading is disabled.
func (s *Service) Images() blob.Store { return s.images }

// Close releases the key-value store.
func (s *Service) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}
