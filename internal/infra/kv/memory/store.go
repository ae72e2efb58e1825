// Package memory implements an in-memory kv Store for tests and ephemeral runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"rentapp/internal/kv/core"
)

// Store implements core.Store backed by process memory.
type Store struct {
	mu     sync.RWMutex
	vals   map[string]string
	closed bool
}

// New returns an empty in-memory store.
func New() *Store { return &Store{vals: make(map[string]string)} }

// Driver returns the kv driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Get returns the value stored at key.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, core.ErrClosed
	}
	v, ok := s.vals[key]
	return v, ok, nil
}

// Set stores value at key.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.ErrClosed
	}
	s.vals[key] = value
	return nil
}

// Remove deletes key if present.
func (s *Store) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.ErrClosed
	}
	delete(s.vals, key)
	return nil
}

// Size sums key and value lengths.
func (s *Store) Size(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, core.ErrClosed
	}
	var total int64
	for k, v := range s.vals {
		total += int64(len(k) + len(v))
	}
	return total, nil
}

// Keys returns every stored key in ascending order. Used by tests to inspect state.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.vals))
	for k := range s.vals {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Close marks the store closed; later calls return core.ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
