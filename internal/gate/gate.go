// Package gate provides the barriers that sequence scan batches:
// a counting Gate drained by per-event decrements, a single-use Signal
// guarding completion callbacks, and a one-shot Slot publishing a batch's gate.
package gate

import (
	"context"
	"sync"
	"sync/atomic"
)

// Gate is a counting barrier. It is drained once the count reaches zero.
type Gate struct {
	remaining atomic.Int64
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a gate expecting n decrements. n <= 0 yields a drained gate.
func New(n int) *Gate {
	g := &Gate{done: make(chan struct{})}
	if n <= 0 {
		g.close()
		return g
	}
	g.remaining.Store(int64(n))
	return g
}

// Decrement lowers the count by one. Calls past zero are no-ops.
func (g *Gate) Decrement() {
	for {
		cur := g.remaining.Load()
		if cur <= 0 {
			return
		}
		if g.remaining.CompareAndSwap(cur, cur-1) {
			if cur == 1 {
				g.close()
			}
			return
		}
	}
}

// ForceDrain drops the count to zero, releasing all waiters.
func (g *Gate) ForceDrain() {
	g.remaining.Store(0)
	g.close()
}

// Remaining returns the outstanding count.
func (g *Gate) Remaining() int {
	return int(g.remaining.Load())
}

// Drained returns a channel closed when the gate reaches zero.
func (g *Gate) Drained() <-chan struct{} {
	return g.done
}

// Wait blocks until the gate drains or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Gate) close() {
	g.closeOnce.Do(func() { close(g.done) })
}
