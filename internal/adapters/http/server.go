// Package http provides the HTTP adapter layer using Gin.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotebook/internal/platform/config"
)

// Server serves the quote API on a gin engine and drains in-flight requests
// on shutdown.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	listener   net.Listener
	config     *config.ServerConfig
	logger     *slog.Logger
}

// New creates a server; nothing is bound until Listen or Run.
func New(cfg *config.ServerConfig, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(maxBodySize(cfg.MaxRequestSize))

	return &Server{
		engine: engine,
		httpServer: &http.Server{
			Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		config: cfg,
		logger: logger,
	}
}

// Engine returns the gin engine for route registration.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Listen binds the configured address. Port 0 picks a free port, which Addr
// then reports.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("http server listen on %s: %w", s.httpServer.Addr, err)
	}

	s.listener = ln

	return nil
}

// Addr returns the bound address after Listen, otherwise the configured one.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}

	return s.httpServer.Addr
}

// Run serves until ctx is canceled, then shuts down within the configured
// shutdown timeout. A serve failure ends Run early with that error.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "starting HTTP server",
		slog.String("addr", s.Addr()),
		slog.Duration("read_timeout", s.config.ReadTimeout),
		slog.Duration("write_timeout", s.config.WriteTimeout),
	)

	errCh := make(chan error, 1)
	go func() {
		err := s.httpServer.Serve(s.listener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
	defer cancel()

	s.logger.InfoContext(ctx, "shutting down HTTP server")

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	s.logger.InfoContext(ctx, "HTTP server stopped")

	return <-errCh
}

// maxBodySize caps request bodies; reads past the limit fail with
// *http.MaxBytesError, which dto maps to 413.
func maxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
