// Package app contains application services that orchestrate use cases.
// QuoteStore owns the quote collection; every mutation goes through its methods
// and is mirrored to the injected KeyValueStore.
package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// QuoteStore holds the in-memory quote collection and persists it after every mutation.
type QuoteStore struct {
	mu     sync.RWMutex
	quotes []domain.Quote
	onAdd  func(domain.Quote)

	storage  ports.KeyValueStore
	sessions ports.SessionStore
	notifier ports.Notifier
	metrics  ports.Metrics
	executor *Executor
	logger   *slog.Logger
	intn     func(n int) int
}

// QuoteStoreConfig contains the dependencies of a QuoteStore.
// Storage is required; everything else is optional.
type QuoteStoreConfig struct {
	Storage  ports.KeyValueStore
	Sessions ports.SessionStore
	Notifier ports.Notifier
	Metrics  ports.Metrics
	Logger   *slog.Logger

	// Intn picks random indexes. Defaults to math/rand/v2.IntN.
	Intn func(n int) int
}

// MergeResult reports the effect of a ReplaceCategory call.
type MergeResult struct {
	Dropped int `json:"dropped"`
	Added   int `json:"added"`
	Total   int `json:"total"`
}

// NewQuoteStore creates an empty store. Call Load before serving requests.
func NewQuoteStore(cfg QuoteStoreConfig) *QuoteStore {
	if cfg.Storage == nil {
		panic("app.NewQuoteStore: Storage is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Metrics == nil {
		cfg.Metrics = ports.NopMetrics{}
	}

	if cfg.Intn == nil {
		cfg.Intn = rand.IntN
	}

	return &QuoteStore{
		storage:  cfg.Storage,
		sessions: cfg.Sessions,
		notifier: cfg.Notifier,
		metrics:  cfg.Metrics,
		executor: NewExecutor(logger),
		logger:   logger.With(slog.String("component", "app.QuoteStore")),
		intn:     cfg.Intn,
	}
}

// OnAdd registers a hook invoked with every quote added through Add.
// The hook runs outside the store lock.
func (s *QuoteStore) OnAdd(hook func(domain.Quote)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onAdd = hook
}

// Load reads the collection from storage. An absent, malformed or wrongly shaped
// slot is replaced by the default collection, which is persisted immediately.
// The returned error only reports a failure to persist those defaults.
func (s *QuoteStore) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	quotes, err := s.read(ctx)
	if err == nil {
		s.quotes = quotes
		s.metrics.CollectionSize(len(quotes))
		s.log(ctx).InfoContext(ctx, "quotes loaded", slog.Int("count", len(quotes)))

		return nil
	}

	if domain.IsNotFound(err) {
		s.log(ctx).InfoContext(ctx, "no stored quotes, seeding defaults")
	} else {
		s.log(ctx).WarnContext(ctx, "stored quotes unusable, falling back to defaults", slog.Any("error", err))
		s.notify(ports.StatusWarning, "Stored quotes were unreadable; restored the default quotes.")
	}

	s.quotes = domain.DefaultQuotes()
	s.metrics.CollectionSize(len(s.quotes))

	return s.persist(ctx, s.quotes)
}

// Reload re-reads the collection after storage changed outside this process.
// Unlike Load it keeps the current collection when the slot is unusable.
func (s *QuoteStore) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	quotes, err := s.read(ctx)
	if err != nil {
		s.log(ctx).WarnContext(ctx, "reload skipped", slog.Any("error", err))
		return err
	}

	s.quotes = quotes
	s.metrics.CollectionSize(len(quotes))
	s.log(ctx).DebugContext(ctx, "quotes reloaded", slog.Int("count", len(quotes)))

	return nil
}

// read fetches and decodes the quotes slot. Caller holds the lock.
func (s *QuoteStore) read(ctx context.Context) ([]domain.Quote, error) {
	raw, err := s.storage.Get(ctx, ports.SlotQuotes)
	if err != nil {
		return nil, err
	}

	if err := validateCollection([]byte(raw)); err != nil {
		return nil, domain.NewStorageError("deserialize", ports.SlotQuotes, err)
	}

	var items []map[string]any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, domain.NewStorageError("deserialize", ports.SlotQuotes, err)
	}

	quotes := make([]domain.Quote, 0, len(items))
	for _, fields := range items {
		quotes = append(quotes, quoteFromFields(fields))
	}

	return quotes, nil
}

// quoteFromFields builds a quote from a shape-checked object. A category that
// is not a string counts as absent.
func quoteFromFields(fields map[string]any) domain.Quote {
	text, _ := fields["text"].(string)
	category, _ := fields["category"].(string)

	return domain.Quote{Text: text, Category: domain.NormalizeCategory(category)}
}

// persist writes quotes to the quotes slot. Caller holds the write lock.
func (s *QuoteStore) persist(ctx context.Context, quotes []domain.Quote) error {
	if quotes == nil {
		quotes = []domain.Quote{}
	}

	data, err := json.Marshal(quotes)
	if err != nil {
		return s.storageFailed(ctx, domain.NewStorageError("serialize", ports.SlotQuotes, err))
	}

	if err := s.storage.Set(ctx, ports.SlotQuotes, string(data)); err != nil {
		if !domain.IsStorage(err) {
			err = domain.NewStorageError("save", ports.SlotQuotes, err)
		}

		return s.storageFailed(ctx, err)
	}

	return nil
}

func (s *QuoteStore) storageFailed(ctx context.Context, err error) error {
	op := "save"

	var storageErr *domain.StorageError
	if errors.As(err, &storageErr) {
		op = storageErr.Op
	}

	s.metrics.StorageFailed(op)
	s.log(ctx).ErrorContext(ctx, "failed to persist quotes", slog.Any("error", err))
	s.notify(ports.StatusError, "Could not save quotes.")

	return err
}

// All returns a copy of the full collection.
func (s *QuoteStore) All() []domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.quotes)
}

// Len returns the number of stored quotes.
func (s *QuoteStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.quotes)
}

// List returns the quotes in category. Unknown categories list nothing.
func (s *QuoteStore) List(category string) []domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.Filter(s.quotes, category)
}

// Random picks a quote from the pool selected by category, falling back to the
// persisted selection when category is blank. The pick is remembered for sessionID.
// The boolean is false when the pool is empty.
func (s *QuoteStore) Random(ctx context.Context, sessionID, category string) (domain.Quote, bool) {
	category = s.effectiveCategory(ctx, category)

	s.mu.RLock()
	pool := domain.Filter(s.quotes, category)
	s.mu.RUnlock()

	quote, ok := domain.PickRandomWith(pool, s.intn)
	if !ok {
		s.log(ctx).DebugContext(ctx, "empty pool", slog.String("category", category))
		return domain.Quote{}, false
	}

	s.remember(ctx, sessionID, quote)

	return quote, true
}

// Current returns the quote last shown to sessionID when it is still in the
// collection and fits the requested category, otherwise it behaves like Random.
// A remembered quote that left the collection is forgotten.
func (s *QuoteStore) Current(ctx context.Context, sessionID, category string) (domain.Quote, bool) {
	if last, ok := s.recall(ctx, sessionID); ok {
		s.mu.RLock()
		present := slices.Contains(s.quotes, last)
		s.mu.RUnlock()

		category = s.effectiveCategory(ctx, category)

		switch {
		case !present:
			s.forget(ctx, sessionID)
		case domain.IsAll(category) || last.InCategory(category):
			return last, true
		}
	}

	return s.Random(ctx, sessionID, category)
}

func (s *QuoteStore) effectiveCategory(ctx context.Context, category string) string {
	if strings.TrimSpace(category) != "" {
		return category
	}

	return s.SelectedCategory(ctx)
}

func (s *QuoteStore) remember(ctx context.Context, sessionID string, quote domain.Quote) {
	if s.sessions == nil || sessionID == "" {
		return
	}

	data, err := json.Marshal(quote)
	if err != nil {
		return
	}

	if err := s.sessions.Set(ctx, sessionID, ports.SlotLastQuote, string(data)); err != nil {
		s.log(ctx).WarnContext(ctx, "failed to remember last quote", slog.Any("error", err))
	}
}

func (s *QuoteStore) forget(ctx context.Context, sessionID string) {
	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		s.log(ctx).WarnContext(ctx, "failed to clear session", slog.Any("error", err))
	}
}

func (s *QuoteStore) recall(ctx context.Context, sessionID string) (domain.Quote, bool) {
	if s.sessions == nil || sessionID == "" {
		return domain.Quote{}, false
	}

	raw, err := s.sessions.Get(ctx, sessionID, ports.SlotLastQuote)
	if err != nil {
		return domain.Quote{}, false
	}

	var quote domain.Quote
	if err := json.Unmarshal([]byte(raw), &quote); err != nil || strings.TrimSpace(quote.Text) == "" {
		return domain.Quote{}, false
	}

	return quote, true
}

// Add appends a quote and persists the collection. Empty text is rejected with a
// ValidationError and leaves the collection unchanged. A failed save is reported
// but does not undo the add.
func (s *QuoteStore) Add(ctx context.Context, text, category string) (domain.Quote, error) {
	quote, err := domain.NewQuote(text, category)
	if err != nil {
		return domain.Quote{}, err
	}

	s.mu.Lock()
	s.quotes = append(s.quotes, quote)
	_ = s.persist(ctx, s.quotes)
	hook := s.onAdd
	size := len(s.quotes)
	s.mu.Unlock()

	s.metrics.QuotesAdded("add", 1)
	s.metrics.CollectionSize(size)
	s.log(ctx).InfoContext(ctx, "quote added", slog.String("category", quote.Category))

	if hook != nil {
		hook(quote)
	}

	return quote, nil
}

// Export returns the full collection as a two-space indented JSON array.
func (s *QuoteStore) Export(ctx context.Context) ([]byte, error) {
	quotes := s.All()
	if quotes == nil {
		quotes = []domain.Quote{}
	}

	data, err := json.MarshalIndent(quotes, "", "  ")
	if err != nil {
		return nil, domain.NewStorageError("serialize", ports.SlotQuotes, err)
	}

	s.log(ctx).DebugContext(ctx, "quotes exported", slog.Int("count", len(quotes)))

	return data, nil
}

// Import appends every valid quote found in a JSON array and persists the result.
// Elements that are not objects with a string text are dropped silently, as are
// blank texts. The collection is untouched when the payload is rejected or
// cannot be saved. A valid array without usable entries imports nothing.
func (s *QuoteStore) Import(ctx context.Context, r io.Reader) (int, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.NewValidationError("file", "could not read file"), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	count, err := Execute(ctx, s.executor, s.importOperation(), raw)
	if err != nil {
		return 0, err
	}

	if count == 0 {
		s.notify(ports.StatusWarning, "No valid quotes found in the file.")
		return 0, nil
	}

	s.metrics.QuotesAdded("import", count)
	s.metrics.CollectionSize(len(s.quotes))
	s.notify(ports.StatusInfo, fmt.Sprintf("Imported %d quotes.", count))

	return count, nil
}

// importOperation runs with the write lock held.
func (s *QuoteStore) importOperation() Operation[[]byte, []domain.Quote, []domain.Quote, int] {
	return Operation[[]byte, []domain.Quote, []domain.Quote, int]{
		Name: "import_quotes",
		Validate: func(_ context.Context, raw []byte) error {
			var doc any
			if err := json.Unmarshal(raw, &doc); err != nil {
				return domain.NewValidationError("file", "invalid JSON")
			}

			if _, ok := doc.([]any); !ok {
				return domain.NewValidationErrorWithValue("file", "must be a JSON array of quote objects", jsonKind(doc))
			}

			return nil
		},
		Perform: func(ctx context.Context, raw []byte) ([]domain.Quote, error) {
			var items []any
			if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&items); err != nil {
				return nil, err
			}

			survivors := make([]domain.Quote, 0, len(items))
			for i, item := range items {
				if err := validateItem(item); err != nil {
					s.log(ctx).DebugContext(ctx, "dropping import entry", slog.Int("index", i), slog.Any("error", err))
					continue
				}

				fields, _ := item.(map[string]any)
				text, _ := fields["text"].(string)
				category, _ := fields["category"].(string)

				quote, err := domain.NewQuote(text, category)
				if err != nil {
					continue
				}

				survivors = append(survivors, quote)
			}

			return survivors, nil
		},
		Verify: func(_ context.Context, _ []byte, survivors []domain.Quote) ([]domain.Quote, error) {
			for _, q := range survivors {
				if q.Text == "" || q.Category == "" {
					return nil, fmt.Errorf("import produced incomplete quote %q", q.Text)
				}
			}

			return survivors, nil
		},
		Archive: func(ctx context.Context, _ []byte, survivors []domain.Quote) error {
			if len(survivors) == 0 {
				return nil
			}

			next := append(slices.Clone(s.quotes), survivors...)
			if err := s.persist(ctx, next); err != nil {
				return err
			}

			s.quotes = next

			return nil
		},
		Respond: func(_ context.Context, _ []byte, survivors []domain.Quote) (int, error) {
			return len(survivors), nil
		},
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return "array"
	}
}

// Categories returns the distinct categories of the collection.
func (s *QuoteStore) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.Categories(s.quotes)
}

// CategoryOptions returns the filter options including the "all" sentinel.
func (s *QuoteStore) CategoryOptions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.CategoryOptions(s.quotes)
}

// SelectedCategory returns the persisted filter, or "all" when it is absent,
// unreadable or no longer matches any quote.
func (s *QuoteStore) SelectedCategory(ctx context.Context) string {
	raw, err := s.storage.Get(ctx, ports.SlotSelectedCategory)
	if err != nil {
		if !domain.IsNotFound(err) {
			s.log(ctx).WarnContext(ctx, "failed to read selected category", slog.Any("error", err))
		}

		return domain.CategoryAll
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.ResolveCategory(s.quotes, raw)
}

// SelectCategory persists the filter as given. Stale values are tolerated on read.
func (s *QuoteStore) SelectCategory(ctx context.Context, category string) (string, error) {
	category = strings.TrimSpace(category)
	if domain.IsAll(category) {
		category = domain.CategoryAll
	}

	if err := s.storage.Set(ctx, ports.SlotSelectedCategory, category); err != nil {
		if !domain.IsStorage(err) {
			err = domain.NewStorageError("save", ports.SlotSelectedCategory, err)
		}

		s.metrics.StorageFailed("save")

		return "", fmt.Errorf("selecting category: %w", err)
	}

	s.log(ctx).DebugContext(ctx, "category selected", slog.String("category", category))

	return category, nil
}

// ReplaceCategory drops every quote in marker (case-insensitive) and appends
// fetched in its place. Quotes carry no identity, so this is a wholesale
// replacement rather than a per-quote reconciliation.
func (s *QuoteStore) ReplaceCategory(ctx context.Context, marker string, fetched []domain.Quote) MergeResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := slices.DeleteFunc(slices.Clone(s.quotes), func(q domain.Quote) bool {
		return q.InCategory(marker)
	})

	result := MergeResult{
		Dropped: len(s.quotes) - len(kept),
		Added:   len(fetched),
	}

	s.quotes = append(kept, fetched...)
	result.Total = len(s.quotes)

	_ = s.persist(ctx, s.quotes)

	s.metrics.QuotesAdded("sync", len(fetched))
	s.metrics.CollectionSize(result.Total)
	s.log(ctx).InfoContext(ctx, "synced category replaced",
		slog.String("category", marker),
		slog.Int("dropped", result.Dropped),
		slog.Int("added", result.Added),
	)

	return result
}

func (s *QuoteStore) notify(level ports.StatusLevel, message string) {
	if s.notifier != nil {
		s.notifier.Post(level, message)
	}
}

func (s *QuoteStore) log(ctx context.Context) *slog.Logger {
	return logging.FromContextOr(ctx, s.logger)
}
