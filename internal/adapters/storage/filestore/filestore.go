// Package filestore keeps each storage slot in its own file inside a directory.
//
// Writes go through a temporary file and a rename, so readers in other
// processes never observe a partially written slot. Watch reports slots that
// another process rewrote, which lets the service pick up changes made by the CLI.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

var validKey = regexp.MustCompile(`^[a-z0-9_]+$`)

// DefaultDebounce is how long a slot must stay quiet before Watch reports it.
const DefaultDebounce = 100 * time.Millisecond

// Store is a directory-backed KeyValueStore.
type Store struct {
	dir      string
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	written map[string]string
}

// Config configures a Store.
type Config struct {
	// Dir holds one file per slot. Created when missing.
	Dir string

	// Debounce coalesces bursts of events on one slot. Defaults to DefaultDebounce.
	Debounce time.Duration

	Logger *slog.Logger
}

// New creates a Store rooted at cfg.Dir.
func New(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("filestore: directory is required")
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create dir: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Store{
		dir:      cfg.Dir,
		debounce: debounce,
		logger:   logger.With(slog.String("component", "filestore")),
		written:  make(map[string]string),
	}, nil
}

// Dir returns the directory holding the slot files.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", domain.NewValidationErrorWithValue("key", "must be lowercase letters, digits or underscores", key)
	}

	return filepath.Join(s.dir, key), nil
}

// Get implements ports.KeyValueStore.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	path, err := s.path(key)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", domain.NewNotFoundError("slot", key)
		}

		return "", domain.NewStorageError("load", key, err)
	}

	return string(data), nil
}

// Set implements ports.KeyValueStore.
func (s *Store) Set(_ context.Context, key, value string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeAtomic(s.dir, path, []byte(value)); err != nil {
		return domain.NewStorageError("save", key, err)
	}

	s.written[key] = value

	return nil
}

func writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}

	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// Delete implements ports.KeyValueStore.
func (s *Store) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return domain.NewStorageError("delete", key, err)
	}

	delete(s.written, key)

	return nil
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string {
	return "storage"
}

// Check implements ports.HealthChecker.
func (s *Store) Check(context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("storage dir unavailable: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("storage path %q is not a directory", s.dir)
	}

	return nil
}

// Watch implements ports.ChangeWatcher. Writes made through this Store are not
// reported. Events on a slot are held until it has been quiet for the debounce
// window, so a burst of writes is reported once.
func (s *Store) Watch(ctx context.Context, onChange func(key string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("filestore: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("filestore: watch %s: %w", s.dir, err)
	}

	s.logger.DebugContext(ctx, "watching storage dir", slog.String("dir", s.dir))

	settle := time.NewTicker(max(s.debounce/2, 10*time.Millisecond))
	defer settle.Stop()

	pending := make(map[string]pendingEvent)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if slotEvent(event) {
				pending[event.Name] = pendingEvent{event: event, at: time.Now()}
			}

		case now := <-settle.C:
			for name, p := range pending {
				if now.Sub(p.at) < s.debounce {
					continue
				}

				delete(pending, name)

				if key, changed := s.external(p.event); changed {
					s.logger.InfoContext(ctx, "slot changed externally", slog.String("slot", key))
					onChange(key)
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			s.logger.WarnContext(ctx, "watcher error", slog.Any("error", err))
		}
	}
}

type pendingEvent struct {
	event fsnotify.Event
	at    time.Time
}

// slotEvent filters out chmod events and temporary files.
func slotEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	key := filepath.Base(event.Name)

	return !strings.HasPrefix(key, ".") && validKey.MatchString(key)
}

// external reports whether event left a slot with content this Store did not write.
func (s *Store) external(event fsnotify.Event) (string, bool) {
	key := filepath.Base(event.Name)

	data, err := os.ReadFile(event.Name)

	s.mu.Lock()
	defer s.mu.Unlock()

	last, known := s.written[key]

	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || !known {
			return "", false
		}

		delete(s.written, key)

		return key, true
	}

	if known && last == string(data) {
		return "", false
	}

	s.written[key] = string(data)

	return key, true
}
