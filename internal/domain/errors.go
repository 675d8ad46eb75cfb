package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig signals a missing or malformed setting detected before the scan starts.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrCursorExpired signals that the server-side scan state is gone (keep-alive elapsed).
	ErrCursorExpired = errors.New("cursor expired")
	// ErrScanFailed signals a failure opening or advancing the scan cursor.
	ErrScanFailed = errors.New("scan failed")
	// ErrDocumentNotFound signals a requested document absent from the store.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrMissingID signals a scanned document without an external user id.
	ErrMissingID = errors.New("missing external id")
	// ErrMalformedTermVector signals a term vector that cannot be converted into events.
	ErrMalformedTermVector = errors.New("malformed term vector")
)

// ItemFailure is a per-document failure inside an otherwise successful term vector batch.
type ItemFailure struct {
	Index string
	Type  string
	ID    string
	Err   error
}

func (e *ItemFailure) Error() string {
	return fmt.Sprintf("[%s/%s/%s] %v", e.Index, e.Type, e.ID, e.Err)
}

func (e *ItemFailure) Unwrap() error { return e.Err }
