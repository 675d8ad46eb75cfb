package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade; consumers use narrow sub-interfaces
type Store interface {
	Pinger
	HashStore
	KVStore
	IndexManager
	CursorReader
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	// HGet returns ErrKeyNotFound when the key or the field is absent.
	HGet(ctx context.Context, key, field string) (string, error)
	// HSetNX reports whether the field was created.
	HSetNX(ctx context.Context, key, field, value string) (bool, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	// HGetAllMulti returns one map per key in order; a missing key yields an empty map.
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// KVStore provides simple key-value operations.
type KVStore interface {
	// IncrBy atomically increments key and returns the new value.
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
}

// IndexManager provides FT index lookups.
type IndexManager interface {
	IndexExists(ctx context.Context, name string) (bool, error)
}

// CursorReader pages through FT.AGGREGATE results with a server-side cursor.
type CursorReader interface {
	// OpenCursor runs the aggregation and returns its first rows and cursor id.
	OpenCursor(ctx context.Context, q *CursorQuery) (*CursorPage, error)
	// ReadCursor returns the next rows; ErrCursorNotFound when the cursor expired.
	ReadCursor(ctx context.Context, index string, cursorID int64, count int) (*CursorPage, error)
	DeleteCursor(ctx context.Context, index string, cursorID int64) error
}
