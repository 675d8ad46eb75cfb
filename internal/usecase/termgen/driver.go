package termgen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/termgen/internal/domain"
	"github.com/kailas-cloud/termgen/internal/domain/scan"
	"github.com/kailas-cloud/termgen/internal/metrics"
)

// State is the scan driver state.
type State int32

// Driver states. The open call returns only a cursor, so the driver moves
// AwaitingCursor -> AwaitingPage before the first page arrives.
const (
	StateAwaitingCursor State = iota
	StateAwaitingPage
	StateDraining
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAwaitingCursor:
		return "awaiting_cursor"
	case StateAwaitingPage:
		return "awaiting_page"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Stats summarizes a finished run.
type Stats struct {
	Pages int
	Hits  int
}

type advanceResult struct {
	page scan.Page
	next scan.Cursor
	err  error
}

// Driver walks the scan cursor and feeds every page to the fetcher,
// keeping at most one undrained batch in flight.
type Driver struct {
	src     CursorSource
	fetcher *Fetcher
	opts    Options
	logger  *zap.Logger

	state atomic.Int32
	stats Stats

	mu   sync.Mutex
	last *Batch // most recently submitted batch, awaited by Drain
}

// NewDriver creates a driver.
func NewDriver(src CursorSource, fetcher *Fetcher, opts Options, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{src: src, fetcher: fetcher, opts: opts.withDefaults(), logger: logger}
}

// State returns the current state. Safe for concurrent use.
func (d *Driver) State() State {
	return State(d.state.Load())
}

// Stats returns the counters of the last run. Call after Run returns.
func (d *Driver) Stats() Stats {
	return d.stats
}

// Run scans the whole collection and blocks until the scan completes or fails.
// Cursor failures are returned; cancellation of ctx is a soft stop and returns nil.
func (d *Driver) Run(ctx context.Context) error {
	if err := d.opts.Validate(); err != nil {
		return err
	}

	d.stats = Stats{}
	d.setLast(nil)
	d.setState(StateAwaitingCursor)
	log := d.logger.With(zap.String("index", d.opts.Index), zap.String("type", d.opts.Type))

	cur, err := d.src.OpenScan(ctx, d.opts.scanRequest())
	if err != nil {
		d.setState(StateDone)
		if ctx.Err() != nil {
			return d.interrupted(log, ctx.Err())
		}
		log.Error("Failed to open scan", zap.Error(err))
		return fmt.Errorf("open scan: %w", wrapScanErr(err))
	}

	d.setState(StateAwaitingPage)
	pending := d.advance(ctx, cur)

	var prev *Batch
	for {
		var res advanceResult
		select {
		case res = <-pending:
		case <-ctx.Done():
			d.setState(StateDone)
			return d.interrupted(log, ctx.Err())
		}

		if res.err != nil {
			d.setState(StateDone)
			if ctx.Err() != nil {
				return d.interrupted(log, ctx.Err())
			}
			log.Error("Failed to advance scan cursor",
				zap.Int("pages", d.stats.Pages), zap.Error(res.err))
			return fmt.Errorf("advance cursor after page %d: %w", d.stats.Pages, wrapScanErr(res.err))
		}

		if prev != nil {
			d.setState(StateDraining)
			start := time.Now()
			if err := prev.Wait(ctx); err != nil {
				d.setState(StateDone)
				return d.interrupted(log, err)
			}
			metrics.GateWaitDuration.Observe(time.Since(start).Seconds())
		}

		if res.page.IsEmpty() {
			d.setState(StateDone)
			log.Info("Scan finished", zap.Int("pages", d.stats.Pages), zap.Int("hits", d.stats.Hits))
			return nil
		}

		d.stats.Pages++
		d.stats.Hits += res.page.Len()
		metrics.PagesTotal.Inc()
		metrics.HitsTotal.Add(float64(res.page.Len()))

		prev = d.fetcher.Submit(ctx, d.stats.Pages, res.page.IDs(), res.page.IDMapping())
		d.setLast(prev)
		pending = d.advance(ctx, res.next)
		d.setState(StateAwaitingPage)
	}
}

// Drain waits for the batch still in flight when Run returned, which happens
// after a cursor failure or a soft stop. Call it before closing the dispatch
// pool or the store.
func (d *Driver) Drain(ctx context.Context) error {
	d.mu.Lock()
	last := d.last
	d.mu.Unlock()

	if last != nil {
		if err := last.Wait(ctx); err != nil {
			return fmt.Errorf("drain page %d: %w", last.Seq(), err)
		}
	}
	if err := d.fetcher.Wait(ctx); err != nil {
		return fmt.Errorf("drain fetcher: %w", err)
	}
	return nil
}

func (d *Driver) setLast(b *Batch) {
	d.mu.Lock()
	d.last = b
	d.mu.Unlock()
}

// advance issues the next cursor read without waiting for it.
func (d *Driver) advance(ctx context.Context, cur scan.Cursor) <-chan advanceResult {
	ch := make(chan advanceResult, 1)
	go func() {
		page, next, err := d.src.Advance(ctx, cur, d.opts.KeepAlive)
		ch <- advanceResult{page: page, next: next, err: err}
	}()
	return ch
}

func (d *Driver) interrupted(log *zap.Logger, err error) error {
	log.Debug("Interrupted", zap.Int("pages", d.stats.Pages), zap.Error(err))
	return nil
}

func (d *Driver) setState(s State) {
	d.state.Store(int32(s))
	metrics.DriverState.Set(float64(s))
}

func wrapScanErr(err error) error {
	if errors.Is(err, domain.ErrScanFailed) || errors.Is(err, domain.ErrInvalidConfig) ||
		errors.Is(err, domain.ErrCursorExpired) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrScanFailed, err)
}
