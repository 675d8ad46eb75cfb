// Package chain runs every event through an ordered list of handlers.
package chain

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/termgen/internal/domain/event"
)

// Request is the per-event state passed along the chain.
// Scratch carries values produced by earlier handlers (e.g. resolved ids).
type Request struct {
	Params  event.Params
	Event   event.Record
	Scratch map[string]any
}

// Handler processes one event. A non-nil error stops the chain.
type Handler interface {
	Handle(ctx context.Context, req *Request) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req *Request) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, req *Request) error { return f(ctx, req) }

// Completion receives the outcome of one chain execution.
type Completion func(err error)

// Chain is an ordered, immutable list of handlers.
type Chain struct {
	handlers []Handler
}

// New creates a chain.
func New(handlers ...Handler) *Chain {
	hs := make([]Handler, len(handlers))
	copy(hs, handlers)
	return &Chain{handlers: hs}
}

// Len returns the number of handlers.
func (c *Chain) Len() int { return len(c.handlers) }

// Execute pushes ev through every handler and then calls done exactly once,
// with the first handler error or a recovered panic.
func (c *Chain) Execute(ctx context.Context, params event.Params, ev event.Record, done Completion) {
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
		if done != nil {
			done(err)
		}
	}()

	req := &Request{Params: params, Event: ev, Scratch: make(map[string]any)}
	for i, h := range c.handlers {
		if err = ctx.Err(); err != nil {
			return
		}
		if err = h.Handle(ctx, req); err != nil {
			err = fmt.Errorf("handler %d: %w", i, err)
			return
		}
	}
}
