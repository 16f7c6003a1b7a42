// Package storage selects and opens a KeyValueStore adapter by driver name.
//
// Drivers:
//   - file: one file per slot in a directory; reports external changes.
//   - sqlite: a single kv table in a SQLite database.
//   - memory: process-local, for tests and ephemeral runs.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/jsamuelsen/quotebook/internal/adapters/storage/filestore"
	"github.com/jsamuelsen/quotebook/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quotebook/internal/adapters/storage/sqlite"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// Driver names accepted by Open.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Options selects and configures the adapter.
type Options struct {
	Driver string

	// Dir is the data directory. The file driver keeps its slots here and the
	// sqlite driver defaults its database file to Dir/quotebook.db.
	Dir string

	// SQLitePath overrides the sqlite database location.
	SQLitePath string

	Logger *slog.Logger
}

// Handle is an opened store. Watcher is nil when the driver cannot report changes.
type Handle struct {
	Store   ports.KeyValueStore
	Health  ports.HealthChecker
	Watcher ports.ChangeWatcher
	close   func() error
}

// Close releases the underlying resources.
func (h *Handle) Close() error {
	if h.close == nil {
		return nil
	}

	return h.close()
}

// Open creates the adapter named by opts.Driver.
func Open(ctx context.Context, opts Options) (*Handle, error) {
	switch opts.Driver {
	case DriverFile, "":
		store, err := filestore.New(filestore.Config{Dir: opts.Dir, Logger: opts.Logger})
		if err != nil {
			return nil, err
		}

		return &Handle{Store: store, Health: store, Watcher: store}, nil

	case DriverSQLite:
		path := opts.SQLitePath
		if path == "" {
			path = filepath.Join(opts.Dir, "quotebook.db")
		}

		store, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, err
		}

		return &Handle{Store: store, Health: store, close: store.Close}, nil

	case DriverMemory:
		store := memory.New()

		return &Handle{Store: store, Health: store}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
