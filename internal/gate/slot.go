package gate

import (
	"context"
	"sync"
)

// Slot publishes a Gate exactly once. Readers block until publication.
type Slot struct {
	ready chan struct{}
	once  sync.Once
	gate  *Gate
}

// NewSlot creates an unpublished slot.
func NewSlot() *Slot {
	return &Slot{ready: make(chan struct{})}
}

// Publish stores g and wakes all readers. Returns false if already published.
func (s *Slot) Publish(g *Gate) bool {
	published := false
	s.once.Do(func() {
		s.gate = g
		close(s.ready)
		published = true
	})
	return published
}

// Published reports whether a gate has been stored.
func (s *Slot) Published() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// Await blocks until the gate is published or ctx is done.
func (s *Slot) Await(ctx context.Context) (*Gate, error) {
	select {
	case <-s.ready:
		return s.gate, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
