package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"rentapp/internal/kv"
	"rentapp/pkg/domain"
)

// RegistryEntry records one per-user list key and the list it belongs to.
type RegistryEntry struct {
	List string `json:"list"`
	Key  string `json:"key"`
}

// KeyRegistry is a persisted index of every per-user list key written. Bulk
// operations enumerate it instead of scanning storage by key prefix.
type KeyRegistry struct {
	mu    sync.Mutex
	store kv.Store
}

// NewKeyRegistry returns a registry persisted in store under RegistryKey.
func NewKeyRegistry(store kv.Store) *KeyRegistry {
	return &KeyRegistry{store: store}
}

func (r *KeyRegistry) load(ctx context.Context) ([]RegistryEntry, error) {
	var entries []RegistryEntry
	if _, err := readJSON(ctx, r.store, RegistryKey, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Register records key under list. Already registered keys cost one read.
func (r *KeyRegistry) Register(ctx context.Context, list, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, err := r.load(ctx)
	if err != nil && !errors.Is(err, domain.ErrCorruptData) {
		return err
	}
	for _, e := range entries {
		if e.Key == key {
			return nil
		}
	}
	entries = append(entries, RegistryEntry{List: list, Key: key})
	return writeJSON(ctx, r.store, RegistryKey, entries)
}

// Keys returns the keys registered under list, sorted.
func (r *KeyRegistry) Keys(ctx context.Context, list string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		if e.List == list {
			keys = append(keys, e.Key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Entries returns every registered entry.
func (r *KeyRegistry) Entries(ctx context.Context) ([]RegistryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// Forget drops keys from the registry. Unknown keys are ignored.
func (r *KeyRegistry) Forget(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	drop := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, err := r.load(ctx)
	if err != nil && !errors.Is(err, domain.ErrCorruptData) {
		return err
	}
	kept := make([]RegistryEntry, 0, len(entries))
	for _, e := range entries {
		if _, ok := drop[e.Key]; !ok {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(entries) && err == nil {
		return nil
	}
	if err := writeJSON(ctx, r.store, RegistryKey, kept); err != nil {
		return fmt.Errorf("forget keys: %w", err)
	}
	return nil
}
