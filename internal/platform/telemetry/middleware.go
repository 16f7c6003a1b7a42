package telemetry

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quotebook/internal/platform/logging"
)

const (
	instrumentationName = "github.com/jsamuelsen/quotebook/telemetry"

	// HeaderTraceID carries the server span's trace ID back to the caller.
	HeaderTraceID = "X-Trace-ID"
)

// serverMetrics holds HTTP server instruments.
type serverMetrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
	activeRequests  metric.Int64UpDownCounter
}

func newServerMetrics() (*serverMetrics, error) {
	meter := otel.Meter(instrumentationName)

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"http.server.request.total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	return &serverMetrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		activeRequests:  activeRequests,
	}, nil
}

// Middleware returns the server telemetry chain: otelgin tracing followed by
// request metrics. The trace ID is echoed in X-Trace-ID and attached to the
// request logger.
func Middleware(serviceName string) []gin.HandlerFunc {
	return []gin.HandlerFunc{otelgin.Middleware(serviceName), requestMetrics()}
}

func requestMetrics() gin.HandlerFunc {
	metrics, err := newServerMetrics()
	if err != nil {
		otel.Handle(err)
	}

	return func(c *gin.Context) {
		start := time.Now()

		if sc := trace.SpanFromContext(c.Request.Context()).SpanContext(); sc.HasTraceID() {
			traceID := sc.TraceID().String()
			c.Header(HeaderTraceID, traceID)
			c.Request = c.Request.WithContext(logging.WithTraceID(c.Request.Context(), traceID))
		}

		if metrics == nil {
			c.Next()
			return
		}

		active := metric.WithAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", c.FullPath()),
		)

		metrics.activeRequests.Add(c.Request.Context(), 1, active)
		defer metrics.activeRequests.Add(c.Request.Context(), -1, active)

		c.Next()

		attrs := metric.WithAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", c.FullPath()),
			attribute.Int("http.status_code", c.Writer.Status()),
		)
		metrics.requestDuration.Record(c.Request.Context(), time.Since(start).Seconds(), attrs)
		metrics.requestTotal.Add(c.Request.Context(), 1, attrs)
	}
}
