// Package middleware provides the gin middleware chain of the quote service.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/quotebook/internal/platform/logging"
)

const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"

	// HeaderSessionID identifies the browsing session across requests.
	// Session-scoped state such as the last shown quote is keyed by it.
	HeaderSessionID = "X-Session-ID"

	// Gin context keys under which the IDs are stored.
	ContextKeyRequestID     = "request_id"
	ContextKeyCorrelationID = "correlation_id"
	ContextKeySessionID     = "session_id"
)

// maxIDLength bounds caller-supplied IDs.
const maxIDLength = 128

type idSpec struct {
	header    string
	key       string
	enrichers []func(ctx context.Context, id string) context.Context
}

// RequestID tags each request with the caller's X-Request-ID or a fresh UUID.
func RequestID() gin.HandlerFunc {
	return idMiddleware(idSpec{
		header:    HeaderRequestID,
		key:       ContextKeyRequestID,
		enrichers: enrichers(logging.WithRequestID, ContextWithRequestID),
	})
}

// CorrelationID propagates or originates X-Correlation-ID. Unlike the request
// ID it spans every call made for one user action, including the remote push.
func CorrelationID() gin.HandlerFunc {
	return idMiddleware(idSpec{
		header:    HeaderCorrelationID,
		key:       ContextKeyCorrelationID,
		enrichers: enrichers(logging.WithCorrelationID, ContextWithCorrelationID),
	})
}

// SessionID reads X-Session-ID or starts a new session. The ID is echoed so
// clients can send it back.
func SessionID() gin.HandlerFunc {
	return idMiddleware(idSpec{
		header:    HeaderSessionID,
		key:       ContextKeySessionID,
		enrichers: enrichers(logging.WithSessionID, ContextWithSessionID),
	})
}

func GetRequestID(c *gin.Context) string     { return ginString(c, ContextKeyRequestID) }
func GetCorrelationID(c *gin.Context) string { return ginString(c, ContextKeyCorrelationID) }
func GetSessionID(c *gin.Context) string     { return ginString(c, ContextKeySessionID) }

// idMiddleware accepts a caller-supplied ID only if it is short, printable
// ASCII, since it is echoed in a header and written to logs. Anything else is
// replaced by a fresh UUID.
func idMiddleware(spec idSpec) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(spec.header)
		if !validID(id) {
			id = uuid.NewString()
		}

		c.Set(spec.key, id)
		c.Header(spec.header, id)

		ctx := c.Request.Context()
		for _, enrich := range spec.enrichers {
			ctx = enrich(ctx, id)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func validID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}

	for i := range len(id) {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}

	return true
}

func ginString(c *gin.Context, key string) string {
	v, _ := c.Get(key)
	s, _ := v.(string)

	return s
}
