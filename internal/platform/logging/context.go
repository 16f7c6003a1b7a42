package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Attribute keys carried by request-scoped loggers.
const (
	KeyRequestID     = "request_id"
	KeyCorrelationID = "correlation_id"
	KeySessionID     = "session_id"
	KeyTraceID       = "trace_id"
)

type ctxKey struct{}

var defaultLogger atomic.Pointer[slog.Logger]

func init() {
	defaultLogger.Store(slog.Default())
}

// FromContext returns the logger stored in ctx, or the process default.
func FromContext(ctx context.Context) *slog.Logger {
	return FromContextOr(ctx, defaultLogger.Load())
}

// FromContextOr returns the logger stored in ctx, or fallback when none was stored.
func FromContextOr(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
			return logger
		}
	}

	return fallback
}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// WithAttrs returns ctx carrying the context logger extended by attrs.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}

	return WithContext(ctx, FromContext(ctx).With(args...))
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return WithAttrs(ctx, slog.String(KeyRequestID, id))
}

func WithCorrelationID(ctx context.Context, id string) context.Context {
	return WithAttrs(ctx, slog.String(KeyCorrelationID, id))
}

// WithSessionID tags log lines with the browsing session, which is what ties
// a random pick to the later current-quote lookups.
func WithSessionID(ctx context.Context, id string) context.Context {
	return WithAttrs(ctx, slog.String(KeySessionID, id))
}

func WithTraceID(ctx context.Context, id string) context.Context {
	return WithAttrs(ctx, slog.String(KeyTraceID, id))
}

// SetDefault replaces the fallback logger and the slog default.
func SetDefault(logger *slog.Logger) {
	defaultLogger.Store(logger)
	slog.SetDefault(logger)
}
