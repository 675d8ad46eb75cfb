// Package source reads documents and their term frequencies from a RediSearch index.
package source

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/kailas-cloud/termgen/internal/db"
	"github.com/kailas-cloud/termgen/internal/domain"
	"github.com/kailas-cloud/termgen/internal/domain/scan"
	"github.com/kailas-cloud/termgen/internal/domain/termvector"
)

const releaseTimeout = 2 * time.Second

// store is the consumer interface for scans and document reads (ISP).
type store interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	OpenCursor(ctx context.Context, q *db.CursorQuery) (*db.CursorPage, error)
	ReadCursor(ctx context.Context, index string, cursorID int64, count int) (*db.CursorPage, error)
	DeleteCursor(ctx context.Context, index string, cursorID int64) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// analyzer turns field text into ordered term frequencies.
type analyzer interface {
	TermFrequencies(text string) []termvector.Term
}

// Repo implements the cursor and term vector sources of the termgen use case.
type Repo struct {
	store    store
	analyzer analyzer

	mu       sync.RWMutex
	idFields map[string]string // index -> external id field of the open scan
}

// New creates a source repository.
func New(s store, a analyzer) *Repo {
	return &Repo{store: s, analyzer: a, idFields: make(map[string]string)}
}

// OpenScan starts a match-all aggregation over the documents of req.Type.
// The rows of the initial reply are held in the cursor and returned by the first Advance.
func (r *Repo) OpenScan(ctx context.Context, req scan.Request) (scan.Cursor, error) {
	idField := req.IDField
	if idField == "" {
		idField = scan.DefaultIDField
	}

	exists, err := r.store.IndexExists(ctx, req.Index)
	if err != nil {
		return scan.Cursor{}, fmt.Errorf("probe index %s: %w", req.Index, err)
	}
	if !exists {
		return scan.Cursor{}, fmt.Errorf("index %q not found: %w", req.Index, domain.ErrInvalidConfig)
	}

	q, err := db.NewAggregate(req.Index).
		Load(db.KeyField, idField).
		KeyPrefix(keyPrefix(req.Type)).
		WithCursor(req.Size, req.KeepAlive).
		Build()
	if err != nil {
		return scan.Cursor{}, fmt.Errorf("build scan query: %w: %w", domain.ErrInvalidConfig, err)
	}

	page, err := r.store.OpenCursor(ctx, q)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return scan.Cursor{}, fmt.Errorf("index %q not found: %w", req.Index, domain.ErrInvalidConfig)
		}
		return scan.Cursor{}, fmt.Errorf("open cursor on %s: %w", req.Index, err)
	}

	r.mu.Lock()
	r.idFields[req.Index] = idField
	r.mu.Unlock()

	first := scan.NewPage(toHits(page.Rows, idField))
	return scan.NewCursor(req.Index, token(page.CursorID), req.Size).WithPending(first), nil
}

// Advance returns the next non-empty page, or the empty page once the cursor is exhausted.
// The idle timeout is fixed when the scan is opened; every read restarts it.
func (r *Repo) Advance(ctx context.Context, cur scan.Cursor, _ time.Duration) (scan.Page, scan.Cursor, error) {
	if page, next, ok := cur.TakePending(); ok && !page.IsEmpty() {
		return page, next, nil
	} else if ok {
		cur = next
	}
	if cur.Exhausted() {
		return scan.Page{}, cur, nil
	}

	id, err := strconv.ParseInt(cur.Token(), 10, 64)
	if err != nil {
		return scan.Page{}, cur, fmt.Errorf("%w: bad cursor token %q", domain.ErrScanFailed, cur.Token())
	}
	idField := r.idField(cur.Index())

	// FILTER is applied per chunk, so a read may return no matching rows
	// while the cursor still has data.
	for {
		page, err := r.store.ReadCursor(ctx, cur.Index(), id, cur.Size())
		if err != nil {
			if errors.Is(err, db.ErrCursorNotFound) {
				return scan.Page{}, cur, fmt.Errorf("read cursor %d: %w", id, domain.ErrCursorExpired)
			}
			if ctx.Err() != nil {
				r.release(ctx, cur.Index(), id)
			}
			return scan.Page{}, cur, fmt.Errorf("read cursor %d: %w", id, err)
		}

		next := scan.NewCursor(cur.Index(), token(page.CursorID), cur.Size())
		hits := toHits(page.Rows, idField)
		if len(hits) > 0 || page.Exhausted() {
			return scan.NewPage(hits), next, nil
		}
		id = page.CursorID
	}
}

// TermVectors reads the requested documents in one pipeline and analyses the requested fields.
// Missing documents become per-document failures.
func (r *Repo) TermVectors(ctx context.Context, req termvector.Request) (termvector.Result, error) {
	if len(req.IDs) == 0 {
		return termvector.Result{}, nil
	}

	docs, err := r.store.HGetAllMulti(ctx, req.IDs)
	if err != nil {
		return termvector.Result{}, fmt.Errorf("fetch %d documents: %w", len(req.IDs), err)
	}
	if len(docs) != len(req.IDs) {
		return termvector.Result{}, fmt.Errorf("fetch documents: got %d replies for %d ids", len(docs), len(req.IDs))
	}

	items := make([]termvector.Item, len(req.IDs))
	for i, id := range req.IDs {
		doc := docs[i]
		if len(doc) == 0 {
			items[i] = termvector.NewFailedItem(req.Index, req.Type, id, domain.ErrDocumentNotFound)
			continue
		}
		items[i] = termvector.NewItem(req.Index, req.Type, id, r.analyzeFields(doc, req.Fields))
	}
	return termvector.Result{Items: items}, nil
}

func (r *Repo) analyzeFields(doc map[string]string, fields []string) []termvector.FieldTerms {
	out := make([]termvector.FieldTerms, 0, len(fields))
	for _, name := range fields {
		text, ok := doc[name]
		if !ok {
			continue
		}
		terms := r.analyzer.TermFrequencies(text)
		if len(terms) == 0 {
			continue
		}
		out = append(out, termvector.FieldTerms{Field: name, Terms: terms})
	}
	return out
}

func (r *Repo) idField(index string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if f, ok := r.idFields[index]; ok {
		return f
	}
	return scan.DefaultIDField
}

// release drops an abandoned server-side cursor; it would otherwise live until its idle timeout.
func (r *Repo) release(ctx context.Context, index string, id int64) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	_ = r.store.DeleteCursor(ctx, index, id)
}

func toHits(rows []map[string]string, idField string) []scan.Hit {
	hits := make([]scan.Hit, 0, len(rows))
	for _, row := range rows {
		key := row[db.KeyField]
		if key == "" {
			continue
		}
		hits = append(hits, scan.Hit{ID: key, ExternalID: row[idField]})
	}
	return hits
}

func token(cursorID int64) string {
	if cursorID == 0 {
		return ""
	}
	return strconv.FormatInt(cursorID, 10)
}

func keyPrefix(typ string) string {
	return typ + ":"
}
