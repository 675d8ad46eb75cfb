package termgen

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kailas-cloud/termgen/internal/chain"
	"github.com/kailas-cloud/termgen/internal/domain"
	"github.com/kailas-cloud/termgen/internal/domain/event"
	"github.com/kailas-cloud/termgen/internal/domain/scan"
	"github.com/kailas-cloud/termgen/internal/domain/termvector"
)

// oneTermPerDoc answers every requested id with a single title term.
func oneTermPerDoc(req termvector.Request) (termvector.Result, error) {
	items := make([]termvector.Item, 0, len(req.IDs))
	for _, id := range req.IDs {
		items = append(items, item(id, field("title", term("word", 1))))
	}
	return termvector.Result{Items: items}, nil
}

func hits(pairs ...string) []scan.Hit {
	out := make([]scan.Hit, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, scan.Hit{ID: pairs[i], ExternalID: pairs[i+1]})
	}
	return out
}

func TestRun_SinglePageRoundTrip(t *testing.T) {
	src := newStubSource(hits("article:1", "u1", "article:2", "u2"))
	tv := newStubTermVectors(oneTermPerDoc)
	disp := &recordingDispatcher{}
	d := newTestDriver(t, src, tv, disp)

	if err := runWithTimeout(t, context.Background(), d); err != nil {
		t.Fatalf("Run: %v", err)
	}

	events := disp.recorded()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	users := map[string]bool{}
	for _, ev := range events {
		users[ev.UserID()] = true
		if ev.ItemID() != "word" {
			t.Errorf("item = %q", ev.ItemID())
		}
		if v, ok := ev.Value(event.DefaultFieldNames()); !ok || v != 1 {
			t.Errorf("value = %v, %v", v, ok)
		}
		if ts, ok := ev.Timestamp(event.DefaultFieldNames()); !ok || !ts.Equal(fixedClock()) {
			t.Errorf("timestamp = %v, %v", ts, ok)
		}
	}
	if !users["u1"] || !users["u2"] {
		t.Errorf("users = %v", users)
	}

	if got := src.advanceCount(); got != 2 {
		t.Errorf("advances = %d, want 2", got)
	}
	if got := tv.callCount(); got != 1 {
		t.Errorf("term vector calls = %d, want 1", got)
	}
	if d.State() != StateDone {
		t.Errorf("state = %v", d.State())
	}
	if s := d.Stats(); s.Pages != 1 || s.Hits != 2 {
		t.Errorf("stats = %+v", s)
	}
}

func TestRun_EmptyFirstPage(t *testing.T) {
	src := newStubSource()
	tv := newStubTermVectors(oneTermPerDoc)
	disp := &recordingDispatcher{}
	d := newTestDriver(t, src, tv, disp)

	if err := runWithTimeout(t, context.Background(), d); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if tv.callCount() != 0 {
		t.Error("term vectors must not be requested for an empty collection")
	}
	if len(disp.recorded()) != 0 {
		t.Error("no events expected")
	}
	if src.advanceCount() != 1 {
		t.Errorf("advances = %d, want 1", src.advanceCount())
	}
}

func TestRun_AlwaysFailingLookupTerminates(t *testing.T) {
	src := newStubSource(
		hits("article:1", "u1"),
		hits("article:2", "u2"),
		hits("article:3", "u3"),
	)
	tv := newStubTermVectors(func(termvector.Request) (termvector.Result, error) {
		return termvector.Result{}, errors.New("timeout")
	})
	disp := &recordingDispatcher{}
	d := newTestDriver(t, src, tv, disp)

	if err := runWithTimeout(t, context.Background(), d); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if tv.callCount() != 3 {
		t.Errorf("term vector calls = %d, want 3", tv.callCount())
	}
	if len(disp.recorded()) != 0 {
		t.Error("no events expected")
	}
}

func TestRun_FailedItemProducesNoEvents(t *testing.T) {
	src := newStubSource(hits("article:1", "u1", "article:2", "u2"))
	tv := newStubTermVectors(func(req termvector.Request) (termvector.Result, error) {
		return termvector.Result{Items: []termvector.Item{
			termvector.NewFailedItem("articles", "article", "article:1", domain.ErrDocumentNotFound),
			item("article:2", field("body", term("cursor", 3))),
		}}, nil
	})
	disp := &recordingDispatcher{}
	d := newTestDriver(t, src, tv, disp)

	if err := runWithTimeout(t, context.Background(), d); err != nil {
		t.Fatalf("Run: %v", err)
	}
	events := disp.recorded()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].UserID() != "u2" {
		t.Errorf("user = %q", events[0].UserID())
	}
}

func TestRun_NextPageWaitsForDrain(t *testing.T) {
	src := newStubSource(hits("article:1", "u1"), hits("article:2", "u2"))
	tv := newStubTermVectors(oneTermPerDoc)
	hold := make(chan struct{})
	disp := &recordingDispatcher{hold: hold}
	d := newTestDriver(t, src, tv, disp)

	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(context.Background()) }()

	<-tv.called
	// the advance for page 2 is issued while page 1 is still held
	for n := range src.advanced {
		if n == 2 {
			break
		}
	}

	time.Sleep(50 * time.Millisecond)
	if got := tv.callCount(); got != 1 {
		t.Fatalf("page 2 looked up before page 1 drained: %d calls", got)
	}
	if d.State() != StateDraining {
		t.Errorf("state = %v, want draining", d.State())
	}

	close(hold)
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	if tv.callCount() != 2 {
		t.Errorf("term vector calls = %d, want 2", tv.callCount())
	}
}

func TestRun_OpenFailure(t *testing.T) {
	src := newStubSource()
	src.openErr = errors.New("connection refused")
	tv := newStubTermVectors(oneTermPerDoc)
	d := newTestDriver(t, src, tv, &recordingDispatcher{})

	err := runWithTimeout(t, context.Background(), d)
	if !errors.Is(err, domain.ErrScanFailed) {
		t.Fatalf("err = %v, want ErrScanFailed", err)
	}
	if src.advanceCount() != 0 {
		t.Error("no advance expected after a failed open")
	}
}

func TestRun_AdvanceFailure(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantIs  error
		wantNot error
	}{
		{"generic", errors.New("broken pipe"), domain.ErrScanFailed, nil},
		{"expired", domain.ErrCursorExpired, domain.ErrCursorExpired, domain.ErrScanFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newStubSource(hits("article:1", "u1"), hits("article:2", "u2"))
			src.failAt = 2
			src.advanceErr = tt.err
			tv := newStubTermVectors(oneTermPerDoc)
			d := newTestDriver(t, src, tv, &recordingDispatcher{})

			err := runWithTimeout(t, context.Background(), d)
			if !errors.Is(err, tt.wantIs) {
				t.Fatalf("err = %v, want %v", err, tt.wantIs)
			}
			if tt.wantNot != nil && errors.Is(err, tt.wantNot) {
				t.Errorf("err = %v, must not wrap %v", err, tt.wantNot)
			}
			if d.State() != StateDone {
				t.Errorf("state = %v", d.State())
			}
		})
	}
}

func TestRun_AllHandlersFailing(t *testing.T) {
	src := newStubSource(
		hits("article:1", "u1", "article:2", "u2"),
		hits("article:3", "u3"),
	)
	tv := newStubTermVectors(oneTermPerDoc)

	var calls atomic.Int32
	c := chain.New(chain.HandlerFunc(func(context.Context, *chain.Request) error {
		calls.Add(1)
		return errors.New("store down")
	}))
	pool := chain.NewPool(2)
	defer pool.Close()
	disp := chain.NewDispatcher(c, pool, event.NewParams(nil))
	d := newTestDriver(t, src, tv, disp)

	if err := runWithTimeout(t, context.Background(), d); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("handler calls = %d, want 3", got)
	}
}

func TestDrain_FinishesSubmittedPageAfterCursorFailure(t *testing.T) {
	src := newStubSource(hits("article:1", "u1", "article:2", "u2"))
	src.failAt = 2
	src.advanceErr = errors.New("cursor gone")
	tv := newStubTermVectors(func(req termvector.Request) (termvector.Result, error) {
		time.Sleep(100 * time.Millisecond)
		return oneTermPerDoc(req)
	})

	var handled atomic.Int32
	c := chain.New(chain.HandlerFunc(func(context.Context, *chain.Request) error {
		handled.Add(1)
		return nil
	}))
	pool := chain.NewPool(2)
	disp := chain.NewDispatcher(c, pool, event.NewParams(nil))
	d := newTestDriver(t, src, tv, disp)

	if err := runWithTimeout(t, context.Background(), d); !errors.Is(err, domain.ErrScanFailed) {
		t.Fatalf("Run err = %v, want ErrScanFailed", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Drain(ctx); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	pool.Close()

	if got := handled.Load(); got != 2 {
		t.Errorf("handled = %d, want 2", got)
	}
}

func TestDrain_NothingSubmitted(t *testing.T) {
	src := newStubSource()
	d := newTestDriver(t, src, newStubTermVectors(oneTermPerDoc), &recordingDispatcher{})

	if err := d.Drain(context.Background()); err != nil {
		t.Fatalf("Drain before Run: %v", err)
	}
	if err := runWithTimeout(t, context.Background(), d); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := d.Drain(context.Background()); err != nil {
		t.Fatalf("Drain after empty scan: %v", err)
	}
}

func TestRun_CancelWhileDraining(t *testing.T) {
	src := newStubSource(hits("article:1", "u1"), hits("article:2", "u2"))
	tv := newStubTermVectors(oneTermPerDoc)
	disp := &recordingDispatcher{hold: make(chan struct{})}
	d := newTestDriver(t, src, tv, disp)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-tv.called
		cancel()
	}()

	if err := runWithTimeout(t, ctx, d); err != nil {
		t.Fatalf("Run after cancel = %v, want nil", err)
	}
	if d.State() != StateDone {
		t.Errorf("state = %v", d.State())
	}
	if tv.callCount() != 1 {
		t.Errorf("term vector calls = %d, want 1", tv.callCount())
	}
}

func TestRun_InvalidOptions(t *testing.T) {
	src := newStubSource()
	tv := newStubTermVectors(oneTermPerDoc)
	opts := testOptions()
	opts.Fields = nil
	d := NewDriver(src, NewFetcher(tv, &recordingDispatcher{}, opts, nil), opts, nil)

	err := d.Run(context.Background())
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
	if len(src.requests) != 0 {
		t.Error("scan must not be opened with invalid options")
	}
}

func TestRun_ScanRequestAndKeepAlive(t *testing.T) {
	src := newStubSource(hits("article:1", "u1"), hits("article:2", "u2"))
	tv := newStubTermVectors(oneTermPerDoc)
	d := newTestDriver(t, src, tv, &recordingDispatcher{})

	if err := runWithTimeout(t, context.Background(), d); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(src.requests) != 1 {
		t.Fatalf("open calls = %d", len(src.requests))
	}
	req := src.requests[0]
	if req.Index != "articles" || req.Type != "article" || req.IDField != scan.DefaultIDField ||
		req.Size != 2 || req.KeepAlive != time.Minute {
		t.Errorf("scan request = %+v", req)
	}
	if len(src.keepAlives) != 3 {
		t.Fatalf("advances = %d, want 3", len(src.keepAlives))
	}
	for i, ka := range src.keepAlives {
		if ka != time.Minute {
			t.Errorf("advance %d keepAlive = %v", i+1, ka)
		}
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateAwaitingCursor: "awaiting_cursor",
		StateAwaitingPage:   "awaiting_page",
		StateDraining:       "draining",
		StateDone:           "done",
		State(42):           "state(42)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int32(s), got, want)
		}
	}
}
