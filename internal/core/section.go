package core

import "sync"

// lockedSection serializes a manager's read-modify-write cycles.
type lockedSection struct{ mu sync.Mutex }

func (s *lockedSection) run(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}
