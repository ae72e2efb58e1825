// Package memory keeps blobs in process memory. Used by tests and by the CLI
// when no durable image store is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"rentapp/internal/blob/core"
)

type object struct {
	info core.Info
	data []byte
}

// Store implements core.Store on a guarded map.
type Store struct {
	mu   sync.RWMutex
	objs map[string]object
	now  func() time.Time
}

// New returns an empty in-memory blob store.
func New() *Store {
	return &Store{objs: make(map[string]object), now: func() time.Time { return time.Now().UTC() }}
}

// Driver reports core.DriverMemory.
func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Put copies data under key. Existing keys are never overwritten.
func (s *Store) Put(_ context.Context, key string, data []byte, contentType string) (core.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objs[key]; ok {
		return core.Info{}, fmt.Errorf("%w: %s", core.ErrExists, key)
	}
	info := core.Info{Key: key, Size: int64(len(data)), ContentType: contentType, LastModified: s.now()}
	s.objs[key] = object{info: info, data: append([]byte(nil), data...)}
	return info, nil
}

// Get returns a copy of the payload stored at key.
func (s *Store) Get(_ context.Context, key string) (core.Info, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objs[key]
	if !ok {
		return core.Info{}, nil, fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	return obj.info, append([]byte(nil), obj.data...), nil
}

// Delete removes key and reports whether it existed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objs[key]; !ok {
		return false, nil
	}
	delete(s.objs, key)
	return true, nil
}

// List returns entries under prefix sorted by key.
func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Info, 0, len(s.objs))
	for k, obj := range s.objs {
		if strings.HasPrefix(k, prefix) {
			out = append(out, obj.info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// URL returns a memory:// address; it is only meaningful inside the process.
func (s *Store) URL(_ context.Context, key string) (string, error) {
	return "memory://" + key, nil
}
