package termgen

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/termgen/internal/domain/event"
	"github.com/kailas-cloud/termgen/internal/domain/scan"
	"github.com/kailas-cloud/termgen/internal/domain/termvector"
	"github.com/kailas-cloud/termgen/internal/gate"
	"github.com/kailas-cloud/termgen/internal/metrics"
)

// Batch tracks the events of one submitted page.
// Its gate is published once extraction has built the full event list.
type Batch struct {
	seq  int
	slot *gate.Slot
}

func newBatch(seq int) *Batch {
	return &Batch{seq: seq, slot: gate.NewSlot()}
}

// Seq returns the 1-based page number of the batch.
func (b *Batch) Seq() int { return b.seq }

// Wait blocks until the batch gate is published and drained.
func (b *Batch) Wait(ctx context.Context) error {
	g, err := b.slot.Await(ctx)
	if err != nil {
		return err
	}
	return g.Wait(ctx)
}

// Drained reports whether the gate is published and at zero, without blocking.
func (b *Batch) Drained() bool {
	if !b.slot.Published() {
		return false
	}
	g, _ := b.slot.Await(context.Background())
	return g.Remaining() == 0
}

func (b *Batch) publish(g *gate.Gate) {
	b.slot.Publish(g)
}

// fail waits for the gate to be published and forces it to zero.
func (b *Batch) fail(ctx context.Context) {
	g, err := b.slot.Await(ctx)
	if err != nil {
		return
	}
	g.ForceDrain()
}

// Fetcher issues one bulk term vector lookup per page and dispatches the extracted events.
type Fetcher struct {
	src        TermVectorSource
	extractor  *Extractor
	dispatcher Dispatcher
	opts       Options
	logger     *zap.Logger
	now        func() time.Time
	inflight   sync.WaitGroup
}

// NewFetcher creates a fetcher.
func NewFetcher(src TermVectorSource, dispatcher Dispatcher, opts Options, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()
	return &Fetcher{
		src:        src,
		extractor:  NewExtractor(opts.Fields, opts.Names, logger),
		dispatcher: dispatcher,
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the capture time source.
func (f *Fetcher) WithClock(now func() time.Time) *Fetcher {
	if now != nil {
		f.now = now
	}
	return f
}

// Submit starts the lookup for ids asynchronously and returns the batch handle.
func (f *Fetcher) Submit(ctx context.Context, seq int, ids []string, mapping scan.IDMapping) *Batch {
	b := newBatch(seq)
	f.inflight.Add(1)
	go func() {
		defer f.inflight.Done()
		f.process(ctx, b, ids, mapping)
	}()
	return b
}

// Wait blocks until every submitted lookup has finished dispatching its events, or ctx is done.
func (f *Fetcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		f.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Fetcher) process(ctx context.Context, b *Batch, ids []string, mapping scan.IDMapping) {
	log := f.logger.With(zap.Int("page", b.seq), zap.Int("docs", len(ids)))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Batch processing panicked", zap.Any("panic", r), zap.Stack("stacktrace"))
			b.publish(gate.New(0))
			b.fail(ctx)
		}
	}()

	res, err := f.src.TermVectors(ctx, termvector.Request{
		Index:  f.opts.Index,
		Type:   f.opts.Type,
		IDs:    ids,
		Fields: f.opts.Fields,
	})
	if err != nil {
		if ctx.Err() != nil {
			log.Debug("Term vector lookup interrupted", zap.Error(err))
		} else {
			log.Error("Failed to fetch term vectors", zap.Error(err))
			metrics.BatchFailuresTotal.Inc()
		}
		b.publish(gate.New(0))
		b.fail(ctx)
		return
	}

	events, g := f.extractor.Extract(res, mapping, f.now())
	b.publish(g)
	log.Debug("Extracted events", zap.Int("events", len(events)))

	for _, ev := range events {
		f.dispatch(ctx, ev, g, log)
	}
}

// dispatch sends ev down the chain; success and error paths share one
// single-use signal, so the gate is decremented exactly once per event.
func (f *Fetcher) dispatch(ctx context.Context, ev event.Record, g *gate.Gate, log *zap.Logger) {
	sig := gate.NewSignal(func(err error) {
		if err != nil {
			log.Warn("Event dispatch failed",
				zap.String("user", ev.UserID()),
				zap.String("item", ev.ItemID()),
				zap.Error(err),
			)
			metrics.EventsCompletedTotal.WithLabelValues("error").Inc()
		} else {
			metrics.EventsCompletedTotal.WithLabelValues("ok").Inc()
		}
		g.Decrement()
	})
	f.dispatcher.Dispatch(ctx, ev, sig.Fire)
}
