package termgen

import (
	"context"
	"time"

	"github.com/kailas-cloud/termgen/internal/chain"
	"github.com/kailas-cloud/termgen/internal/domain/event"
	"github.com/kailas-cloud/termgen/internal/domain/scan"
	"github.com/kailas-cloud/termgen/internal/domain/termvector"
)

// CursorSource opens and advances a paginated scan.
type CursorSource interface {
	// OpenScan returns a cursor; it never returns documents.
	OpenScan(ctx context.Context, req scan.Request) (scan.Cursor, error)
	// Advance returns the next page and the cursor to use afterwards,
	// refreshing the server-side state for keepAlive.
	Advance(ctx context.Context, cur scan.Cursor, keepAlive time.Duration) (scan.Page, scan.Cursor, error)
}

// TermVectorSource performs the bulk term frequency lookup for one page.
type TermVectorSource interface {
	TermVectors(ctx context.Context, req termvector.Request) (termvector.Result, error)
}

// Dispatcher pushes one event through the handler chain and reports the outcome via done.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev event.Record, done chain.Completion)
}
