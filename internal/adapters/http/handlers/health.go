// Package handlers provides HTTP request handlers for the service.
package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jsamuelsen/quotebook/internal/app"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// BuildInfo is injected with ldflags at build time.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
}

func NewBuildInfo(version, commit, buildTime string) BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
}

// CollectionReporter summarizes the loaded quote collection.
type CollectionReporter interface {
	Len() int
	Categories() []string
}

// SyncReporter exposes the most recent successful sync.
type SyncReporter interface {
	LastResult() (app.SyncResult, bool)
}

// HealthOption customizes a HealthHandler.
type HealthOption func(*HealthHandler)

// WithCollection adds a collection summary to readiness responses.
func WithCollection(c CollectionReporter) HealthOption {
	return func(h *HealthHandler) { h.collection = c }
}

// WithLastSync adds the time and outcome of the last sync to readiness responses.
func WithLastSync(s SyncReporter) HealthOption {
	return func(h *HealthHandler) { h.sync = s }
}

// HealthHandler serves the /-/ probe, build and metrics endpoints.
type HealthHandler struct {
	registry   ports.HealthRegistry
	buildInfo  BuildInfo
	gatherer   prometheus.Gatherer
	collection CollectionReporter
	sync       SyncReporter
}

// NewHealthHandler creates a health handler. A nil gatherer serves the
// default Prometheus registry.
func NewHealthHandler(registry ports.HealthRegistry, buildInfo BuildInfo, gatherer prometheus.Gatherer, opts ...HealthOption) *HealthHandler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	h := &HealthHandler{
		registry:  registry,
		buildInfo: buildInfo,
		gatherer:  gatherer,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

type livenessResponse struct {
	Status string `json:"status"`
}

type collectionSummary struct {
	Quotes     int        `json:"quotes"`
	Categories int        `json:"categories"`
	LastSync   *time.Time `json:"lastSync,omitempty"`
	LastFetch  *int       `json:"lastFetched,omitempty"`
}

type readinessResponse struct {
	Status     string                        `json:"status"`
	Checks     map[string]*ports.CheckResult `json:"checks,omitempty"`
	Collection *collectionSummary            `json:"collection,omitempty"`
}

// Liveness handles GET /-/live. It never checks dependencies.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, livenessResponse{Status: "ok"})
}

// Readiness handles GET /-/ready. An unreachable remote only degrades the
// result and still answers 200; a failed storage check answers 503.
func (h *HealthHandler) Readiness(c *gin.Context) {
	result := h.registry.CheckAll(c.Request.Context())

	resp := readinessResponse{
		Status:     string(result.Status),
		Checks:     result.Checks,
		Collection: h.summary(),
	}

	code := http.StatusOK
	if result.Status == ports.HealthStatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, resp)
}

func (h *HealthHandler) summary() *collectionSummary {
	if h.collection == nil && h.sync == nil {
		return nil
	}

	s := &collectionSummary{}

	if h.collection != nil {
		s.Quotes = h.collection.Len()
		s.Categories = len(h.collection.Categories())
	}

	if h.sync != nil {
		if last, ok := h.sync.LastResult(); ok {
			s.LastSync = &last.At
			s.LastFetch = &last.Fetched
		}
	}

	return s
}

// BuildInfoHandler handles GET /-/build.
func (h *HealthHandler) BuildInfoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.buildInfo)
}

func (h *HealthHandler) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})
}

// RegisterHealthRoutes registers live, ready, build and metrics on rg.
func (h *HealthHandler) RegisterHealthRoutes(rg *gin.RouterGroup) {
	rg.GET("/live", h.Liveness)
	rg.GET("/ready", h.Readiness)
	rg.GET("/build", h.BuildInfoHandler)
	rg.GET("/metrics", gin.WrapH(h.MetricsHandler()))
}

// RegisterHealthRoutesOnEngine mounts the health routes under /-.
func (h *HealthHandler) RegisterHealthRoutesOnEngine(engine *gin.Engine) {
	h.RegisterHealthRoutes(engine.Group("/-"))
}
