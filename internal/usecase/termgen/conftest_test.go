package termgen

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/termgen/internal/chain"
	"github.com/kailas-cloud/termgen/internal/domain/event"
	"github.com/kailas-cloud/termgen/internal/domain/scan"
	"github.com/kailas-cloud/termgen/internal/domain/termvector"
)

// stubSource serves pages in order; advance n (1-based) returns pages[n-1]
// and the empty page after the last one.
type stubSource struct {
	mu         sync.Mutex
	pages      [][]scan.Hit
	openErr    error
	failAt     int // advance call that fails, 0 = never
	advanceErr error
	advances   int
	requests   []scan.Request
	keepAlives []time.Duration
	advanced   chan int
}

func newStubSource(pages ...[]scan.Hit) *stubSource {
	return &stubSource{pages: pages, advanced: make(chan int, 64)}
}

func (s *stubSource) OpenScan(_ context.Context, req scan.Request) (scan.Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.openErr != nil {
		return scan.Cursor{}, s.openErr
	}
	return scan.NewCursor(req.Index, "0", req.Size), nil
}

func (s *stubSource) Advance(
	_ context.Context, cur scan.Cursor, keepAlive time.Duration,
) (scan.Page, scan.Cursor, error) {
	s.mu.Lock()
	s.advances++
	n := s.advances
	s.keepAlives = append(s.keepAlives, keepAlive)
	s.mu.Unlock()
	s.advanced <- n

	if s.failAt != 0 && n == s.failAt {
		return scan.Page{}, scan.Cursor{}, s.advanceErr
	}
	next := scan.NewCursor(cur.Index(), fmt.Sprint(n), cur.Size())
	if n-1 < len(s.pages) {
		return scan.NewPage(s.pages[n-1]), next, nil
	}
	return scan.Page{}, next, nil
}

func (s *stubSource) advanceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advances
}

// stubTermVectors answers lookups with fn and records every request.
type stubTermVectors struct {
	mu     sync.Mutex
	calls  []termvector.Request
	fn     func(req termvector.Request) (termvector.Result, error)
	called chan termvector.Request
}

func newStubTermVectors(fn func(req termvector.Request) (termvector.Result, error)) *stubTermVectors {
	return &stubTermVectors{fn: fn, called: make(chan termvector.Request, 64)}
}

func (s *stubTermVectors) TermVectors(_ context.Context, req termvector.Request) (termvector.Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	s.called <- req
	return s.fn(req)
}

func (s *stubTermVectors) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// recordingDispatcher completes every event asynchronously, optionally
// waiting for hold to close and optionally firing done twice.
type recordingDispatcher struct {
	mu         sync.Mutex
	events     []event.Record
	err        error
	hold       chan struct{}
	doubleFire bool
}

func (d *recordingDispatcher) Dispatch(_ context.Context, ev event.Record, done chain.Completion) {
	d.mu.Lock()
	d.events = append(d.events, ev)
	hold := d.hold
	d.mu.Unlock()

	go func() {
		if hold != nil {
			<-hold
		}
		done(d.err)
		if d.doubleFire {
			done(fmt.Errorf("second completion"))
		}
	}()
}

func (d *recordingDispatcher) recorded() []event.Record {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]event.Record, len(d.events))
	copy(out, d.events)
	return out
}

func testOptions() Options {
	return Options{
		Index:     "articles",
		Type:      "article",
		Fields:    []string{"title", "body"},
		PageSize:  2,
		KeepAlive: time.Minute,
	}
}

func fixedClock() time.Time {
	return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
}

func item(id string, fields ...termvector.FieldTerms) termvector.Item {
	return termvector.NewItem("articles", "article", id, fields)
}

func field(name string, terms ...termvector.Term) termvector.FieldTerms {
	return termvector.FieldTerms{Field: name, Terms: terms}
}

func term(text string, freq int) termvector.Term {
	return termvector.Term{Text: text, Freq: freq}
}

func newTestDriver(
	t *testing.T, src *stubSource, tv *stubTermVectors, disp Dispatcher,
) *Driver {
	t.Helper()
	opts := testOptions()
	fetcher := NewFetcher(tv, disp, opts, nil).WithClock(fixedClock)
	return NewDriver(src, fetcher, opts, nil)
}

// runWithTimeout fails the test if Run does not return in time.
func runWithTimeout(t *testing.T, ctx context.Context, d *Driver) error {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(ctx) }()
	select {
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
		return nil
	}
}
