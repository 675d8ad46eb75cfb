package chain

import (
	"context"

	"github.com/kailas-cloud/termgen/internal/domain/event"
)

// Dispatcher executes a chain for each event on a worker pool.
type Dispatcher struct {
	chain  *Chain
	pool   *Pool
	params event.Params
}

// NewDispatcher creates a dispatcher. The pool is owned by the caller.
func NewDispatcher(c *Chain, pool *Pool, params event.Params) *Dispatcher {
	return &Dispatcher{chain: c, pool: pool, params: params}
}

// Dispatch schedules ev. done is always called, including when scheduling fails.
func (d *Dispatcher) Dispatch(ctx context.Context, ev event.Record, done Completion) {
	err := d.pool.Submit(ctx, func() {
		d.chain.Execute(ctx, d.params, ev, done)
	})
	if err != nil && done != nil {
		done(err)
	}
}
