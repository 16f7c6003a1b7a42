//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotebook/internal/adapters/storage"
	"github.com/jsamuelsen/quotebook/internal/adapters/storage/sqlite"
	"github.com/jsamuelsen/quotebook/internal/app"
	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/platform/config"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// openFromConfig wires storage the way the service does, from a config directory.
func openFromConfig(t *testing.T, dir string) (*config.Config, *storage.Handle, *app.QuoteStore) {
	t.Helper()

	cfg, err := config.LoadFrom(dir, "integration")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	handle, err := storage.Open(context.Background(), storage.Options{
		Driver:     cfg.Storage.Driver,
		Dir:        cfg.Storage.Dir,
		SQLitePath: cfg.Storage.SQLitePath,
		Logger:     discardLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = handle.Close() })

	store := app.NewQuoteStore(app.QuoteStoreConfig{Storage: handle.Store, Logger: discardLogger()})
	require.NoError(t, store.Load(context.Background()))

	return cfg, handle, store
}

func writeProfile(t *testing.T, dir, yaml string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "integration.yaml"), []byte(yaml), 0o600))
}

func TestStorage_DriversPersistAcrossRestarts_Integration(t *testing.T) {
	for _, driver := range []string{storage.DriverFile, storage.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			dir := t.TempDir()
			writeProfile(t, dir, "storage:\n  driver: "+driver+"\n  dir: "+filepath.Join(dir, "data")+"\n")

			_, handle, store := openFromConfig(t, dir)

			_, err := store.Add(context.Background(), "persisted", "Durable")
			require.NoError(t, err)

			_, err = store.SelectCategory(context.Background(), "Durable")
			require.NoError(t, err)

			require.NoError(t, handle.Close())

			_, _, reopened := openFromConfig(t, dir)

			assert.Len(t, reopened.All(), 4)
			assert.Contains(t, reopened.All(), domain.Quote{Text: "persisted", Category: "Durable"})
			assert.Equal(t, "Durable", reopened.SelectedCategory(context.Background()))
		})
	}
}

func TestStorage_MemoryDriverStartsFresh_Integration(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "storage:\n  driver: memory\n")

	_, handle, store := openFromConfig(t, dir)
	assert.Nil(t, handle.Watcher)

	_, err := store.Add(context.Background(), "ephemeral", "")
	require.NoError(t, err)

	_, _, fresh := openFromConfig(t, dir)
	assert.Equal(t, domain.DefaultQuotes(), fresh.All())
}

func TestStorage_EnvOverridesDriver_Integration(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "storage:\n  driver: file\n")

	t.Setenv("APP_STORAGE_DRIVER", "sqlite")
	t.Setenv("APP_STORAGE_SQLITE__PATH", filepath.Join(dir, "quotes.db"))

	cfg, handle, _ := openFromConfig(t, dir)

	assert.Equal(t, storage.DriverSQLite, cfg.Storage.Driver)
	assert.IsType(t, &sqlite.Store{}, handle.Store)
	assert.FileExists(t, filepath.Join(dir, "quotes.db"))
}

func TestStorage_MalformedSlotFallsBackToDefaults_Integration(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	writeProfile(t, dir, "storage:\n  driver: file\n  dir: "+dataDir+"\n")

	require.NoError(t, os.MkdirAll(dataDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, ports.SlotQuotes), []byte(`{"not":"a list"}`), 0o600))

	_, _, store := openFromConfig(t, dir)

	assert.Equal(t, domain.DefaultQuotes(), store.All())

	raw, err := os.ReadFile(filepath.Join(dataDir, ports.SlotQuotes))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "invent it")
}

// A second process writing the slot is picked up through the watcher.
func TestStorage_WatchReloadsExternalWrites_Integration(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	writeProfile(t, dir, "storage:\n  driver: file\n  dir: "+dataDir+"\n  watch: true\n")

	cfg, handle, store := openFromConfig(t, dir)
	require.True(t, cfg.Storage.Watch)
	require.NotNil(t, handle.Watcher)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Go(func() {
		_ = handle.Watcher.Watch(ctx, func(key string) {
			if key == ports.SlotQuotes {
				_ = store.Reload(ctx)
			}
		})
	})

	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	_, _, other := openFromConfig(t, dir)
	_, err := other.Add(context.Background(), "from another process", "Elsewhere")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(store.All()) == 4
	}, 3*time.Second, 20*time.Millisecond)

	assert.Contains(t, store.All(), domain.Quote{Text: "from another process", Category: "Elsewhere"})
}
