package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rentapp/internal/catalog"
	"rentapp/internal/kv"
	"rentapp/pkg/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type captureLogger struct {
	mu    sync.Mutex
	calls []string
}

func (c *captureLogger) record(level, msg string) {
	c.mu.Lock()
	c.calls = append(c.calls, level+":"+msg)
	c.mu.Unlock()
}

func (c *captureLogger) Debug(msg string, _ ...any) { c.record("d", msg) }
func (c *captureLogger) Info(msg string, _ ...any)  { c.record("i", msg) }
func (c *captureLogger) Warn(msg string, _ ...any)  { c.record("w", msg) }
func (c *captureLogger) Error(msg string, _ ...any) { c.record("e", msg) }

func (c *captureLogger) has(entry string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, call := range c.calls {
		if call == entry {
			return true
		}
	}
	return false
}

// flakyStore fails selected operations of the wrapped store.
type flakyStore struct {
	kv.Store
	getErr error
	setErr error
}

func (f *flakyStore) Get(ctx context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	return f.Store.Get(ctx, key)
}

func (f *flakyStore) Set(ctx context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.Store.Set(ctx, key, value)
}

var seedProperties = []domain.StaticProperty{
	{ID: "s1", Title: "Seed flat", Location: "Masaki, Dar es Salaam", Description: "Seed", Price: 900000, Images: []string{"/a.jpg"}, Bedrooms: 2, Bathrooms: 1, Area: 70},
	{ID: "s2", Title: "Seed house", Location: "Njiro, Arusha", Description: "Seed", Price: 600000, Bedrooms: 3, Bathrooms: 2, Area: 140},
}

func newMemoryStore(t *testing.T) kv.Store {
	t.Helper()
	store, err := kv.Open(context.Background(), kv.Options{Driver: kv.DriverMemory})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testOptions(clock Clock, extra ...Option) []Option {
	return append([]Option{WithClock(clock), WithCatalog(catalog.Fixed(seedProperties...))}, extra...)
}

func newTestService(t *testing.T, clock Clock, extra ...Option) *Service {
	t.Helper()
	return NewService(newMemoryStore(t), testOptions(clock, extra...)...)
}

func submission(mods ...func(*domain.SubmittedProperty)) domain.SubmittedProperty {
	p := domain.SubmittedProperty{
		PropertyType: "2-bdrm-apartment",
		Status:       domain.StatusAvailable,
		Region:       "arusha",
		Ward:         "sakina",
		Price:        "500,000",
		PaymentPlan:  domain.Plan6,
	}
	for _, mod := range mods {
		mod(&p)
	}
	return p
}

func ownedBy(owner string) func(*domain.SubmittedProperty) {
	return func(p *domain.SubmittedProperty) { p.OwnerID = owner }
}

type eventLog struct {
	mu     sync.Mutex
	events []domain.Event
}

func record(n *Notifier) *eventLog {
	l := &eventLog{}
	n.Subscribe(func(ev domain.Event) {
		l.mu.Lock()
		l.events = append(l.events, ev)
		l.mu.Unlock()
	})
	return l
}

func (l *eventLog) names() []domain.EventName {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.EventName, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.Name)
	}
	return out
}

func ids(list []domain.DisplayProperty) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, p.ID)
	}
	return out
}
