// Package export appends every dispatched event to a parquet file.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/termgen/internal/chain"
)

// Row is one exported event.
type Row struct {
	UserID      string `parquet:"user_id"`
	ItemID      string `parquet:"item_id"`
	Value       int64  `parquet:"value"`
	TimestampMs int64  `parquet:"timestamp_ms"`
}

// Writer is a chain handler that buffers events as parquet rows.
// It is safe for concurrent use by chain workers.
type Writer struct {
	mu     sync.Mutex
	w      *parquet.GenericWriter[Row]
	closer io.Closer
	rows   int
	closed bool
}

// NewWriter writes rows to out. Close flushes the footer; out is not closed.
func NewWriter(out io.Writer) *Writer {
	return &Writer{w: parquet.NewGenericWriter[Row](out)}
}

// Create opens path for writing, truncating an existing file.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	w := NewWriter(f)
	w.closer = f
	return w, nil
}

// Handle implements chain.Handler.
func (w *Writer) Handle(_ context.Context, req *chain.Request) error {
	names := req.Params.FieldNames()
	value, _ := req.Event.Value(names)
	ts, _ := req.Event.Timestamp(names)

	row := Row{
		UserID:      req.Event.UserID(),
		ItemID:      req.Event.ItemID(),
		Value:       int64(value),
		TimestampMs: ts.UnixMilli(),
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errors.New("export: writer closed")
	}
	if _, err := w.w.Write([]Row{row}); err != nil {
		return fmt.Errorf("export: write row: %w", err)
	}
	w.rows++
	return nil
}

// Rows returns the number of rows written so far.
func (w *Writer) Rows() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}

// Close flushes buffered rows and the file footer. Repeated calls are no-ops.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	err := w.w.Close()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("export: close: %w", err)
	}
	return nil
}
