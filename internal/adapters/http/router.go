package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotebook/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotebook/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default timeout for API requests.
const DefaultRequestTimeout = 15 * time.Second

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// Logger is the structured logger for request logging.
	Logger *slog.Logger

	// ServiceName names the server spans.
	ServiceName string

	// HealthHandler handles health check endpoints.
	HealthHandler *handlers.HealthHandler

	// QuoteHandler serves the quote API and the page. Optional.
	QuoteHandler *handlers.QuoteHandler

	// Timeout is the API request timeout.
	Timeout time.Duration
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery - catch panics first
//  2. Logger - seed the request logger
//  3. Request, correlation and session IDs
//  4. OpenTelemetry - tracing and metrics
//  5. Logging - request logging (skips /-/ endpoints)
//  6. Timeout - API routes only
//
// Route groups:
//   - /-/ (internal): health, build info, metrics
//   - /api/v1/: quote API
//   - /: HTML page of the session's current quote
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.Logger(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		middleware.SessionID(),
	)
	engine.Use(telemetry.Middleware(cfg.ServiceName)...)
	engine.Use(middleware.Logging(cfg.Logger))

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	if cfg.QuoteHandler == nil {
		return
	}

	apiV1 := engine.Group("/api/v1")
	if cfg.Timeout > 0 {
		apiV1.Use(middleware.Timeout(cfg.Timeout))
	}

	cfg.QuoteHandler.RegisterQuoteRoutes(apiV1)
	cfg.QuoteHandler.RegisterPageRoute(engine)
}
