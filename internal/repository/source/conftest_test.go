package source

import (
	"context"
	"testing"

	"github.com/kailas-cloud/termgen/internal/analysis"
	"github.com/kailas-cloud/termgen/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	indexExistsFn  func(ctx context.Context, name string) (bool, error)
	openCursorFn   func(ctx context.Context, q *db.CursorQuery) (*db.CursorPage, error)
	readCursorFn   func(ctx context.Context, index string, cursorID int64, count int) (*db.CursorPage, error)
	deleteCursorFn func(ctx context.Context, index string, cursorID int64) error
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return true, nil
}

func (m *mockStore) OpenCursor(ctx context.Context, q *db.CursorQuery) (*db.CursorPage, error) {
	if m.openCursorFn != nil {
		return m.openCursorFn(ctx, q)
	}
	return &db.CursorPage{}, nil
}

func (m *mockStore) ReadCursor(ctx context.Context, index string, cursorID int64, count int) (*db.CursorPage, error) {
	if m.readCursorFn != nil {
		return m.readCursorFn(ctx, index, cursorID, count)
	}
	return &db.CursorPage{}, nil
}

func (m *mockStore) DeleteCursor(ctx context.Context, index string, cursorID int64) error {
	if m.deleteCursorFn != nil {
		return m.deleteCursorFn(ctx, index, cursorID)
	}
	return nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return make([]map[string]string, len(keys)), nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, analysis.New(analysis.Options{})), ms
}

func row(key, id string) map[string]string {
	return map[string]string{db.KeyField: key, "id": id}
}
