package logger

import (
	"context"

	"go.uber.org/zap"
)

type (
	loggerKey struct{}
	runIDKey  struct{}
)

// ContextWithLogger stores a logger in the context.
func ContextWithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the context logger, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// ContextWithRunID stores the run id and tags the context logger with it.
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	ctx = context.WithValue(ctx, runIDKey{}, runID)
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		ctx = ContextWithLogger(ctx, WithRunID(l, runID))
	}
	return ctx
}

// RunIDFromContext returns the run id, or "".
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
