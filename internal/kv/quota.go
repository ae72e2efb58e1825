package kv

import (
	"context"
	"fmt"
	"sync"

	"rentapp/pkg/domain"
)

// QuotaStore rejects writes that would push the wrapped store past a byte
// budget, mirroring the quota errors browsers raise for local storage.
type QuotaStore struct {
	Store
	mu    sync.Mutex
	limit int64
}

// WithQuota wraps store with a byte budget.
func WithQuota(store Store, limit int64) *QuotaStore {
	return &QuotaStore{Store: store, limit: limit}
}

// Limit returns the configured budget in bytes.
func (q *QuotaStore) Limit() int64 { return q.limit }

// Set writes value unless the resulting total would exceed the budget.
func (q *QuotaStore) Set(ctx context.Context, key, value string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	total, err := q.Store.Size(ctx)
	if err != nil {
		return fmt.Errorf("measure store: %w", err)
	}
	prev, ok, err := q.Store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if ok {
		total -= int64(len(key) + len(prev))
	}
	next := total + int64(len(key)+len(value))
	if next > q.limit {
		return fmt.Errorf("write %s (%d bytes, budget %d): %w", key, next, q.limit, domain.ErrQuotaExceeded)
	}
	return q.Store.Set(ctx, key, value)
}
