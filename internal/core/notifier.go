package core

import (
	"sort"
	"sync"

	"rentapp/pkg/domain"
)

// Listener receives events synchronously on the publishing goroutine.
type Listener func(domain.Event)

// Notifier is the subscription point owned by each manager.
type Notifier struct {
	mu   sync.RWMutex
	next int
	subs map[int]Listener
}

// NewNotifier returns a notifier with no subscribers.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]Listener)}
}

// Subscribe registers fn and returns a function that removes it.
func (n *Notifier) Subscribe(fn Listener) (unsubscribe func()) {
	n.mu.Lock()
	id := n.next
	n.next++
	n.subs[id] = fn
	n.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
		})
	}
}

// Publish delivers ev to every subscriber in subscription order. Listeners
// may subscribe or unsubscribe while being called.
func (n *Notifier) Publish(ev domain.Event) {
	n.mu.RLock()
	ids := make([]int, 0, len(n.subs))
	for id := range n.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, n.subs[id])
	}
	n.mu.RUnlock()
	for _, fn := range listeners {
		fn(ev)
	}
}

// Len reports the number of active subscribers.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}
