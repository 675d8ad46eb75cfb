package logger

import (
	"crypto/rand"
	"sync"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewRunID returns a lexicographically sortable id for one job run.
func NewRunID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}

// WithRunID returns a child logger tagged with run_id.
func WithRunID(l *zap.Logger, runID string) *zap.Logger {
	return l.With(zap.String("run_id", runID))
}
