package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// syncBuffer is a goroutine-safe log sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

// records decodes every JSON log line written so far.
func (b *syncBuffer) records(t *testing.T) []map[string]any {
	t.Helper()

	b.mu.Lock()
	defer b.mu.Unlock()

	var out []map[string]any

	for _, line := range strings.Split(strings.TrimSpace(b.buf.String()), "\n") {
		if line == "" {
			continue
		}

		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}

	return out
}

func newCaptureLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

func TestIDMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		middleware gin.HandlerFunc
		header     string
		get        func(*gin.Context) string
	}{
		{"request id", RequestID(), HeaderRequestID, GetRequestID},
		{"correlation id", CorrelationID(), HeaderCorrelationID, GetCorrelationID},
		{"session id", SessionID(), HeaderSessionID, GetSessionID},
	}

	for _, tt := range tests {
		t.Run(tt.name+" generated when absent", func(t *testing.T) {
			t.Parallel()

			var captured string

			router := gin.New()
			router.Use(tt.middleware)
			router.GET("/test", func(c *gin.Context) {
				captured = tt.get(c)
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

			assert.Len(t, captured, 36)
			assert.Equal(t, captured, w.Header().Get(tt.header))
		})

		t.Run(tt.name+" passed through when present", func(t *testing.T) {
			t.Parallel()

			var captured string

			router := gin.New()
			router.Use(tt.middleware)
			router.GET("/test", func(c *gin.Context) {
				captured = tt.get(c)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set(tt.header, "existing-123")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, "existing-123", captured)
			assert.Equal(t, "existing-123", w.Header().Get(tt.header))
		})

		t.Run(tt.name+" replaced when oversized", func(t *testing.T) {
			t.Parallel()

			var captured string

			router := gin.New()
			router.Use(tt.middleware)
			router.GET("/test", func(c *gin.Context) {
				captured = tt.get(c)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set(tt.header, strings.Repeat("x", maxIDLength+1))

			router.ServeHTTP(httptest.NewRecorder(), req)

			assert.Len(t, captured, 36)
		})

		t.Run(tt.name+" replaced when not printable", func(t *testing.T) {
			t.Parallel()

			var captured string

			router := gin.New()
			router.Use(tt.middleware)
			router.GET("/test", func(c *gin.Context) {
				captured = tt.get(c)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set(tt.header, "has space")

			router.ServeHTTP(httptest.NewRecorder(), req)

			assert.Len(t, captured, 36)
			assert.NotEqual(t, "has space", captured)
		})
	}
}

func TestIDMiddleware_PopulatesRequestContext(t *testing.T) {
	t.Parallel()

	var requestID, correlationID, sessionID string

	router := gin.New()
	router.Use(RequestID(), CorrelationID(), SessionID())
	router.GET("/test", func(c *gin.Context) {
		requestID = RequestIDFromContext(c.Request.Context())
		correlationID = CorrelationIDFromContext(c.Request.Context())
		sessionID = SessionIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	req.Header.Set(HeaderCorrelationID, "corr-1")
	req.Header.Set(HeaderSessionID, "sess-1")

	router.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "req-1", requestID)
	assert.Equal(t, "corr-1", correlationID)
	assert.Equal(t, "sess-1", sessionID)
}

func TestGetters_WithoutMiddleware(t *testing.T) {
	t.Parallel()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Empty(t, GetRequestID(c))
	assert.Empty(t, GetCorrelationID(c))
	assert.Empty(t, GetSessionID(c))

	c.Set(ContextKeySessionID, 42)
	assert.Empty(t, GetSessionID(c), "non-string values are ignored")
}

func TestLogging_IncludesRequestScopedIDs(t *testing.T) {
	t.Parallel()

	logger, buf := newCaptureLogger()

	router := gin.New()
	router.Use(Logger(logger), RequestID(), SessionID(), Logging(logger))
	router.GET("/api/v1/quotes/random", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes/random?category=wisdom", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	req.Header.Set(HeaderSessionID, "sess-7")

	router.ServeHTTP(httptest.NewRecorder(), req)

	records := buf.records(t)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "request completed", rec["msg"])
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, "req-42", rec["request_id"])
	assert.Equal(t, "sess-7", rec["session_id"])
	assert.Equal(t, "/api/v1/quotes/random?category=wisdom", rec["path"])
	assert.EqualValues(t, http.StatusOK, rec["status"])
}

func TestLogging_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusNotFound, "WARN"},
		{http.StatusServiceUnavailable, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			t.Parallel()

			logger, buf := newCaptureLogger()

			router := gin.New()
			router.Use(Logging(logger))
			router.GET("/api/test", func(c *gin.Context) { c.Status(tt.status) })

			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/test", nil))

			records := buf.records(t)
			require.Len(t, records, 1)
			assert.Equal(t, tt.level, records[0]["level"])
		})
	}
}

func TestLogging_SkipsProbesAndSkipPaths(t *testing.T) {
	t.Parallel()

	logger, buf := newCaptureLogger()

	router := gin.New()
	router.Use(Logging(logger, "/metrics"))
	router.GET("/-/ready", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/-/ready", "/metrics"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.Empty(t, buf.records(t))
}

func TestRecovery(t *testing.T) {
	t.Parallel()

	t.Run("normal request passes through", func(t *testing.T) {
		t.Parallel()

		router := gin.New()
		router.Use(Recovery(slog.New(slog.NewTextHandler(io.Discard, nil))))
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("panicking handler returns 500 envelope", func(t *testing.T) {
		t.Parallel()

		logger, buf := newCaptureLogger()

		router := gin.New()
		router.Use(Recovery(logger))
		router.GET("/test", func(_ *gin.Context) { panic("something went wrong") })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)

		var body dto.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, dto.ErrorCodeInternal, body.Error.Code)

		records := buf.records(t)
		require.Len(t, records, 1)
		assert.Equal(t, "panic recovered", records[0]["msg"])
		assert.Equal(t, "something went wrong", records[0]["error"])
		assert.Contains(t, records[0]["stack"], "panic")
	})
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	t.Run("sets context deadline", func(t *testing.T) {
		t.Parallel()

		var hasDeadline bool

		router := gin.New()
		router.Use(Timeout(5 * time.Second))
		router.GET("/test", func(c *gin.Context) {
			_, hasDeadline = c.Request.Context().Deadline()
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, hasDeadline, "context should have deadline")
	})

	t.Run("answers with timeout envelope when nothing was written", func(t *testing.T) {
		t.Parallel()

		router := gin.New()
		router.Use(Timeout(10 * time.Millisecond))
		router.GET("/slow", func(c *gin.Context) {
			<-c.Request.Context().Done()
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))

		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrorCodeTimeout)
	})

	t.Run("keeps a response the handler already wrote", func(t *testing.T) {
		t.Parallel()

		router := gin.New()
		router.Use(Timeout(10 * time.Millisecond))
		router.GET("/slow", func(c *gin.Context) {
			<-c.Request.Context().Done()
			c.String(http.StatusServiceUnavailable, "gave up")
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "gave up", w.Body.String())
	})
}
