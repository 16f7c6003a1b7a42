package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

const (
	// DefaultSyncInterval is the period between scheduled fetches.
	DefaultSyncInterval = 30 * time.Second

	// DefaultFetchLimit caps how many remote items are taken per fetch.
	DefaultFetchLimit = 5

	// DefaultPushTimeout bounds a single best-effort push.
	DefaultPushTimeout = 10 * time.Second
)

var tracer = otel.Tracer("github.com/jsamuelsen/quotebook/app")

var (
	// ErrSyncerRunning is returned by Start when the loop is already running.
	ErrSyncerRunning = errors.New("syncer already running")

	// ErrSyncerStopped is returned by Start after Stop was called.
	ErrSyncerStopped = errors.New("syncer stopped")
)

// SyncResult describes one completed fetch-and-merge cycle.
type SyncResult struct {
	Fetched int         `json:"fetched"`
	Merge   MergeResult `json:"merge"`
	At      time.Time   `json:"at"`
}

// Syncer periodically reconciles the QuoteStore with the remote collaborator
// and pushes newly added quotes. Remote data wins: every sync replaces all
// quotes tagged with the sync marker category.
//
// Failures are logged, counted and posted to the notifier. They never stop the
// schedule; the next tick is the retry.
type Syncer struct {
	remote   ports.RemoteSync
	store    *QuoteStore
	notifier ports.Notifier
	metrics  ports.Metrics
	logger   *slog.Logger

	interval    time.Duration
	limit       int
	marker      string
	onStartup   bool
	pushTimeout time.Duration

	mu         sync.Mutex
	running    bool
	stopped    bool
	loopCancel context.CancelFunc
	pushCtx    context.Context
	pushCancel context.CancelFunc
	wg         sync.WaitGroup
	last       *SyncResult
}

// SyncerConfig contains the dependencies and schedule of a Syncer.
// Remote and Store are required; zero values select the defaults.
type SyncerConfig struct {
	Remote   ports.RemoteSync
	Store    *QuoteStore
	Notifier ports.Notifier
	Metrics  ports.Metrics
	Logger   *slog.Logger

	Interval    time.Duration
	FetchLimit  int
	Marker      string
	OnStartup   bool
	PushTimeout time.Duration
}

// NewSyncer creates a stopped Syncer.
func NewSyncer(cfg SyncerConfig) *Syncer {
	if cfg.Remote == nil {
		panic("app.NewSyncer: Remote is required")
	}

	if cfg.Store == nil {
		panic("app.NewSyncer: Store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Metrics == nil {
		cfg.Metrics = ports.NopMetrics{}
	}

	if cfg.Interval <= 0 {
		cfg.Interval = DefaultSyncInterval
	}

	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = DefaultFetchLimit
	}

	if cfg.Marker == "" {
		cfg.Marker = domain.SyncCategory
	}

	if cfg.PushTimeout <= 0 {
		cfg.PushTimeout = DefaultPushTimeout
	}

	pushCtx, pushCancel := context.WithCancel(context.Background())

	return &Syncer{
		remote:      cfg.Remote,
		store:       cfg.Store,
		notifier:    cfg.Notifier,
		metrics:     cfg.Metrics,
		logger:      logger.With(slog.String("component", "app.Syncer")),
		interval:    cfg.Interval,
		limit:       cfg.FetchLimit,
		marker:      cfg.Marker,
		onStartup:   cfg.OnStartup,
		pushTimeout: cfg.PushTimeout,
		pushCtx:     pushCtx,
		pushCancel:  pushCancel,
	}
}

// Start launches the periodic loop. The loop ends when ctx is canceled or Stop is called.
func (s *Syncer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrSyncerStopped
	}

	if s.running {
		return ErrSyncerRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.loopCancel = cancel
	s.running = true

	s.wg.Go(func() { s.loop(loopCtx) })

	s.logger.InfoContext(ctx, "sync scheduled",
		slog.Duration("interval", s.interval),
		slog.Int("limit", s.limit),
		slog.String("marker", s.marker),
	)

	return nil
}

// Run starts the loop and blocks until ctx is canceled, then stops and waits
// for in-flight work. It fits an errgroup alongside the HTTP server.
func (s *Syncer) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	s.Stop()

	return nil
}

// Stop cancels the loop and waits for it to return. Pushes already queued get
// up to the push timeout to finish before they are cancelled.
// It is safe to call more than once.
func (s *Syncer) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.running = false

	if s.loopCancel != nil {
		s.loopCancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	drain := time.NewTimer(s.pushTimeout)
	defer drain.Stop()

	select {
	case <-done:
	case <-drain.C:
		s.pushCancel()
		<-done
	}

	s.pushCancel()
}

func (s *Syncer) loop(ctx context.Context) {
	if s.onStartup {
		s.scheduledSync(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scheduledSync(ctx)
		}
	}
}

// scheduledSync discards the result; SyncNow has already reported it.
func (s *Syncer) scheduledSync(ctx context.Context) {
	_, _ = s.SyncNow(ctx)
}

// SyncNow fetches remote quotes and merges them into the store.
// The error is informational: the store is left untouched when the fetch fails.
func (s *Syncer) SyncNow(ctx context.Context) (SyncResult, error) {
	ctx, span := tracer.Start(ctx, "quotebook.sync", trace.WithAttributes(
		attribute.Int("sync.fetch_limit", s.limit),
		attribute.String("sync.category", s.marker),
	))
	defer span.End()

	logger := logging.FromContextOr(ctx, s.logger)
	start := time.Now()

	fetched, err := s.remote.FetchQuotes(ctx, s.limit)
	if err != nil {
		s.metrics.SyncCompleted("failure", time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")

		if ctx.Err() != nil {
			return SyncResult{}, fmt.Errorf("syncing quotes: %w", err)
		}

		logger.WarnContext(ctx, "sync fetch failed", slog.Any("error", err))
		s.notify(ports.StatusWarning, "Sync failed. Will retry on the next cycle.")

		return SyncResult{}, fmt.Errorf("syncing quotes: %w", err)
	}

	if len(fetched) > s.limit {
		fetched = fetched[:s.limit]
	}

	for i := range fetched {
		fetched[i].Category = s.marker
	}

	merge := s.store.ReplaceCategory(ctx, s.marker, fetched)
	result := SyncResult{Fetched: len(fetched), Merge: merge, At: time.Now()}

	span.SetAttributes(
		attribute.Int("sync.fetched", result.Fetched),
		attribute.Int("sync.dropped", merge.Dropped),
		attribute.Int("sync.added", merge.Added),
		attribute.Int("sync.total", merge.Total),
	)

	s.mu.Lock()
	s.last = &result
	s.mu.Unlock()

	s.metrics.SyncCompleted("success", time.Since(start))
	s.notify(ports.StatusInfo, fmt.Sprintf("Quotes synced with server (%d received).", len(fetched)))

	return result, nil
}

// LastResult returns the most recent successful sync, if any.
func (s *Syncer) LastResult() (SyncResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil {
		return SyncResult{}, false
	}

	return *s.last, true
}

// PushAsync sends quote to the remote in the background. The push is best effort:
// its outcome is logged and never affects the local collection. After Stop it is a no-op.
func (s *Syncer) PushAsync(quote domain.Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	s.wg.Go(func() { s.push(quote) })
}

func (s *Syncer) push(quote domain.Quote) {
	ctx, cancel := context.WithTimeout(s.pushCtx, s.pushTimeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "quotebook.push", trace.WithAttributes(
		attribute.String("quote.category", quote.Category),
	))
	defer span.End()

	receipt, err := s.remote.PushQuote(ctx, quote)
	if err != nil {
		s.metrics.PushCompleted("failure")
		span.RecordError(err)
		span.SetStatus(codes.Error, "push failed")

		if errors.Is(err, context.Canceled) {
			s.logger.DebugContext(ctx, "push cancelled by shutdown", slog.Any("error", err))
			return
		}

		s.logger.WarnContext(ctx, "push failed", slog.Any("error", err))
		s.notify(ports.StatusWarning, "Could not send the new quote to the server.")

		return
	}

	s.metrics.PushCompleted("success")
	span.SetAttributes(attribute.Int("push.remote_id", receipt.RemoteID))
	s.logger.InfoContext(ctx, "quote pushed",
		slog.Int("remote_id", receipt.RemoteID),
		slog.Int("status", receipt.Status),
	)
}

func (s *Syncer) notify(level ports.StatusLevel, message string) {
	if s.notifier != nil {
		s.notifier.Post(level, message)
	}
}
