package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound    = errors.New("db: key not found")
	ErrIndexNotFound  = errors.New("db: index not found")
	ErrCursorNotFound = errors.New("db: cursor not found")
)

// Op constants map to Redis command names for error context.
const (
	OpPing       = "PING"
	OpIndexInfo  = "FT.INFO"
	OpAggregate  = "FT.AGGREGATE"
	OpCursorRead = "FT.CURSOR READ"
	OpCursorDel  = "FT.CURSOR DEL"
	OpHGet       = "HGET"
	OpHGetAll    = "HGETALL"
	OpHSet       = "HSET"
	OpHSetNX     = "HSETNX"
	OpIncrBy     = "INCRBY"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
