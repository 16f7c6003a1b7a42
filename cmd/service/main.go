// Package main is the entry point for the quotebook HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/quotebook/internal/adapters/clients"
	"github.com/jsamuelsen/quotebook/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quotebook/internal/adapters/http"
	"github.com/jsamuelsen/quotebook/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotebook/internal/adapters/render"
	"github.com/jsamuelsen/quotebook/internal/adapters/storage"
	"github.com/jsamuelsen/quotebook/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quotebook/internal/app"
	"github.com/jsamuelsen/quotebook/internal/platform/config"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
	"github.com/jsamuelsen/quotebook/internal/platform/metrics"
	"github.com/jsamuelsen/quotebook/internal/platform/telemetry"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the service.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Determine profile from environment
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// 2. Load and validate configuration (fail fast)
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 3. Initialize logging
	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("storage", cfg.Storage.Driver),
	)

	// 4. Initialize telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		Insecure:     cfg.Telemetry.Insecure,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	// 5. Open storage and load the collection
	recorder := metrics.New(prometheus.DefaultRegisterer)

	handle, err := storage.Open(ctx, storage.Options{
		Driver:     cfg.Storage.Driver,
		Dir:        cfg.Storage.Dir,
		SQLitePath: cfg.Storage.SQLitePath,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}

	defer func() {
		if closeErr := handle.Close(); closeErr != nil {
			logger.Error("storage close error", slog.Any("error", closeErr))
		}
	}()

	board := app.NewStatusBoard(app.StatusBoardConfig{
		TTL:      cfg.Status.TTL,
		Capacity: cfg.Status.Capacity,
	})

	store := app.NewQuoteStore(app.QuoteStoreConfig{
		Storage:  handle.Store,
		Sessions: memory.NewSessionStore(cfg.Session.TTL, time.Now),
		Notifier: board,
		Metrics:  recorder,
		Logger:   logger,
	})

	// A failed save of the defaults leaves them in memory; the service still starts.
	if err := store.Load(ctx); err != nil {
		logger.Warn("default quotes not persisted", slog.Any("error", err))
	}

	// 6. Create health registry
	healthRegistry := ports.NewHealthRegistry()

	if err := healthRegistry.Register(handle.Health); err != nil {
		return fmt.Errorf("registering storage health check: %w", err)
	}

	// 7. Remote collaborator and syncer
	var syncer *app.Syncer

	if cfg.Sync.Enabled {
		syncer, err = newSyncer(cfg, logger, store, board, recorder, healthRegistry)
		if err != nil {
			return err
		}
	}

	// 8. Create handlers
	buildInfo := handlers.NewBuildInfo(Version, Commit, BuildTime)
	healthOpts := []handlers.HealthOption{handlers.WithCollection(store)}

	quoteCfg := handlers.QuoteHandlerConfig{
		Store:    store,
		Status:   board,
		Renderer: render.HTML{},
	}
	if syncer != nil {
		quoteCfg.Syncer = syncer
		healthOpts = append(healthOpts, handlers.WithLastSync(syncer))
	}

	healthHandler := handlers.NewHealthHandler(healthRegistry, buildInfo, prometheus.DefaultGatherer, healthOpts...)

	quoteHandler := handlers.NewQuoteHandler(quoteCfg)

	// 9. Create HTTP server and router
	server := http.New(&cfg.Server, logger)

	http.SetupRouter(server.Engine(), http.RouterConfig{
		Logger:        logger,
		ServiceName:   cfg.Telemetry.ServiceName,
		HealthHandler: healthHandler,
		QuoteHandler:  quoteHandler,
		Timeout:       cfg.Server.RequestTimeout,
	})

	// 10. Run everything until a signal arrives or a component fails
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return server.Run(gctx) })

	if syncer != nil {
		g.Go(func() error { return syncer.Run(gctx) })
	}

	if cfg.Storage.Watch && handle.Watcher != nil {
		g.Go(func() error {
			return handle.Watcher.Watch(gctx, func(key string) {
				if key != ports.SlotQuotes {
					return
				}

				if err := store.Reload(gctx); err != nil {
					logger.WarnContext(gctx, "reload after external change failed", slog.Any("error", err))
				}
			})
		})
	}

	err = g.Wait()

	logger.Info("shutdown complete")

	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

// newSyncer builds the placeholder client and a syncer that pushes every added quote.
func newSyncer(
	cfg *config.Config,
	logger *slog.Logger,
	store *app.QuoteStore,
	board *app.StatusBoard,
	recorder *metrics.Recorder,
	registry *ports.DefaultHealthRegistry,
) (*app.Syncer, error) {
	httpClient, err := clients.New(&clients.Config{
		BaseURL:     cfg.Services.Remote.BaseURL,
		ServiceName: cfg.Services.Remote.Name,
		Timeout:     cfg.Client.Timeout,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating HTTP client: %w", err)
	}

	remote := acl.NewPlaceholderClient(acl.PlaceholderClientConfig{
		Client: httpClient,
		Logger: logger,
	})

	// The remote is optional for readiness: quotes are served without it.
	if err := registry.RegisterOptional(remote); err != nil {
		return nil, fmt.Errorf("registering remote health check: %w", err)
	}

	syncer := app.NewSyncer(app.SyncerConfig{
		Remote:      remote,
		Store:       store,
		Notifier:    board,
		Metrics:     recorder,
		Logger:      logger,
		Interval:    cfg.Sync.Interval,
		FetchLimit:  cfg.Sync.FetchLimit,
		Marker:      cfg.Sync.Marker,
		OnStartup:   cfg.Sync.OnStartup,
		PushTimeout: cfg.Sync.PushTimeout,
	})

	store.OnAdd(syncer.PushAsync)

	return syncer, nil
}
