package middleware

import "context"

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyCorrelationID
	ctxKeySessionID
)

// RequestIDFromContext returns the request ID stored by the RequestID middleware.
func RequestIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxKeyRequestID)
}

// CorrelationIDFromContext returns the correlation ID stored by the CorrelationID middleware.
func CorrelationIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxKeyCorrelationID)
}

// SessionIDFromContext returns the browsing session stored by the SessionID middleware.
func SessionIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxKeySessionID)
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyCorrelationID, id)
}

func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeySessionID, id)
}

// stringFromContext tolerates a nil ctx so adapters can call it from
// background work.
func stringFromContext(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(key).(string)

	return id
}

func enrichers(fns ...func(ctx context.Context, id string) context.Context) []func(context.Context, string) context.Context {
	return fns
}
