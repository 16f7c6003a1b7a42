package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// TestLoad_DefaultValues tests the defaults() map without any YAML files.
func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, "quotebook", cfg.App.Name)
	assert.Equal(t, "dev", cfg.App.Version)
	assert.Equal(t, "local", cfg.App.Environment)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, "./data", cfg.Storage.Dir)
	assert.True(t, cfg.Storage.Watch)
	assert.True(t, cfg.Sync.Enabled)
	assert.True(t, cfg.Sync.OnStartup)
	assert.Equal(t, DefaultSyncFetchLimit, cfg.Sync.FetchLimit)
	assert.Equal(t, DefaultSyncMarker, cfg.Sync.Marker)
	assert.Equal(t, DefaultStatusCapacity, cfg.Status.Capacity)
	assert.Equal(t, "https://jsonplaceholder.typicode.com", cfg.Services.Remote.BaseURL)
	assert.Equal(t, "placeholder-api", cfg.Services.Remote.Name)

	require.NoError(t, cfg.Validate())
}

// TestLoad_DurationParsing tests that duration strings are parsed correctly.
func TestLoad_DurationParsing(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 10*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 30*time.Second, cfg.Sync.Interval)
	assert.Equal(t, 10*time.Second, cfg.Sync.PushTimeout)
	assert.Equal(t, 10*time.Second, cfg.Status.TTL)
}

func TestLoad_FilePrecedence(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "configs", "base.yaml"), `
server:
  port: 9000
storage:
  driver: sqlite
log:
  level: warn
`)
	writeFile(t, filepath.Join(dir, "configs", "dev.yaml"), `
server:
  port: 9100
`)

	cfg, err := LoadFrom(dir, "dev")
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, "profile overrides base")
	assert.Equal(t, "sqlite", cfg.Storage.Driver, "base overrides defaults")
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "configs", "base.yaml"), "server:\n  port: 9000\n")

	t.Setenv("APP_SERVER_PORT", "9090")
	t.Setenv("APP_LOG_LEVEL", "error")
	t.Setenv("APP_SYNC_FETCH__LIMIT", "12")
	t.Setenv("APP_SYNC_MARKER", "remote")
	t.Setenv("APP_TELEMETRY_ENABLED", "true")

	cfg, err := LoadFrom(dir, "")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, 12, cfg.Sync.FetchLimit)
	assert.Equal(t, "remote", cfg.Sync.Marker)
	assert.True(t, cfg.Telemetry.Enabled)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "APP_STATUS_CAPACITY=7\nAPP_STORAGE_DRIVER=memory\n")

	// Real environment wins over .env.
	t.Setenv("APP_STORAGE_DRIVER", "sqlite")
	t.Cleanup(func() { _ = os.Unsetenv("APP_STATUS_CAPACITY") })

	cfg, err := LoadFrom(dir, "")
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Status.Capacity)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
}

func TestLoad_NonExistentProfile(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "nonexistent")
	require.NoError(t, err)

	assert.Equal(t, "quotebook", cfg.App.Name)
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "configs", "base.yaml"), "server: [port\n")

	_, err := LoadFrom(dir, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading base config")
}

func TestLoad_UsesWorkingDirectory(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "quotebook", cfg.App.Name)
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"APP_SERVER_PORT":           "server.port",
		"APP_SYNC_FETCH__LIMIT":     "sync.fetch_limit",
		"APP_SERVICES_REMOTE_NAME":  "services.remote.name",
		"APP_LOG_FILE_MAX__BACKUPS": "log.file.max_backups",
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, envKey(in))
		})
	}
}
