// Package config provides configuration loading and management using koanf.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Default configuration values.
const (
	// DefaultServerPort is the default HTTP server port.
	DefaultServerPort = 8080

	// DefaultMaxRequestSize is the default maximum request body size (1MB).
	// It also bounds import uploads.
	DefaultMaxRequestSize = 1 << 20

	// DefaultSyncFetchLimit is how many remote posts a sync keeps.
	DefaultSyncFetchLimit = 5

	// DefaultSyncMarker is the category given to remote quotes.
	DefaultSyncMarker = "server"

	// DefaultStatusCapacity bounds the status board.
	DefaultStatusCapacity = 20

	// DefaultLogFileMaxSizeMB is the default max log file size in megabytes.
	DefaultLogFileMaxSizeMB = 100

	// DefaultLogFileMaxBackups is the default number of old log files to retain.
	DefaultLogFileMaxBackups = 3

	// DefaultLogFileMaxAgeDays is the default max days to retain old log files.
	DefaultLogFileMaxAgeDays = 28

	// EnvPrefix marks environment variables that override configuration.
	EnvPrefix = "APP_"
)

// Config is the root configuration structure.
type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Client    ClientConfig    `koanf:"client"`
	Storage   StorageConfig   `koanf:"storage"`
	Session   SessionConfig   `koanf:"session"`
	Sync      SyncConfig      `koanf:"sync"`
	Status    StatusConfig    `koanf:"status"`
	Services  ServicesConfig  `koanf:"services"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	Name        string `koanf:"name"        validate:"required"`
	Version     string `koanf:"version"     validate:"required"`
	Environment string `koanf:"environment" validate:"required,oneof=local dev qa prod test"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"             validate:"required,min=1,max=65535"`
	Host            string        `koanf:"host"             validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"required,min=1s"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"required,min=1s"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"required,min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required,min=1s"`
	RequestTimeout  time.Duration `koanf:"request_timeout"  validate:"required,min=100ms"`
	MaxRequestSize  int64         `koanf:"max_request_size" validate:"required,min=1"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string        `koanf:"level"  validate:"required,oneof=trace debug info warn error"`
	Format string        `koanf:"format" validate:"required,oneof=json text pretty"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig contains rolling log file settings.
type LogFileConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"        validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"    validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"     validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// TelemetryConfig contains OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"      validate:"required_if=Enabled true"`
	Insecure     bool    `koanf:"insecure"`
	ServiceName  string  `koanf:"service_name"  validate:"required_if=Enabled true"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"min=0,max=1"`
}

// ClientConfig contains HTTP client settings for the remote collaborator.
// There is no retry section: each call is a single attempt.
type ClientConfig struct {
	Timeout time.Duration `koanf:"timeout" validate:"required,min=100ms"`
}

// StorageConfig selects the durable slot store.
type StorageConfig struct {
	Driver     string `koanf:"driver"      validate:"required,oneof=file sqlite memory"`
	Dir        string `koanf:"dir"         validate:"required_unless=Driver memory"`
	SQLitePath string `koanf:"sqlite_path"`

	// Watch reloads the collection when another process rewrites the quotes slot.
	// Only the file driver reports changes.
	Watch bool `koanf:"watch"`
}

// SessionConfig contains per-session storage settings.
type SessionConfig struct {
	TTL time.Duration `koanf:"ttl" validate:"required,min=1s"`
}

// SyncConfig contains the remote sync schedule.
type SyncConfig struct {
	Enabled     bool          `koanf:"enabled"`
	Interval    time.Duration `koanf:"interval"     validate:"required_if=Enabled true,omitempty,min=1s"`
	FetchLimit  int           `koanf:"fetch_limit"  validate:"omitempty,min=1,max=100"`
	OnStartup   bool          `koanf:"on_startup"`
	PushTimeout time.Duration `koanf:"push_timeout" validate:"omitempty,min=100ms"`
	Marker      string        `koanf:"marker"       validate:"omitempty,max=64"` // category given to remote quotes
}

// StatusConfig contains status board settings.
type StatusConfig struct {
	TTL      time.Duration `koanf:"ttl"      validate:"required,min=1s"`
	Capacity int           `koanf:"capacity" validate:"required,min=1,max=1000"`
}

// ServicesConfig contains configuration for downstream services.
type ServicesConfig struct {
	Remote ServiceEndpointConfig `koanf:"remote"`
}

// ServiceEndpointConfig contains configuration for a downstream service endpoint.
type ServiceEndpointConfig struct {
	BaseURL string `koanf:"base_url" validate:"required,url"`
	Name    string `koanf:"name"     validate:"required"`
}

// defaults returns the default configuration values.
func defaults() map[string]any {
	return map[string]any{
		"app.name":        "quotebook",
		"app.version":     "dev",
		"app.environment": "local",

		"server.port":             DefaultServerPort,
		"server.host":             "0.0.0.0",
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "10s",
		"server.request_timeout":  "15s",
		"server.max_request_size": DefaultMaxRequestSize,

		"log.level":            "info",
		"log.format":           "json",
		"log.file.enabled":     false,
		"log.file.path":        "./logs/quotebook.log",
		"log.file.max_size":    DefaultLogFileMaxSizeMB,
		"log.file.max_backups": DefaultLogFileMaxBackups,
		"log.file.max_age":     DefaultLogFileMaxAgeDays,
		"log.file.compress":    true,

		"telemetry.enabled":       false,
		"telemetry.endpoint":      "",
		"telemetry.insecure":      false,
		"telemetry.service_name":  "quotebook",
		"telemetry.sampling_rate": 1.0,

		"client.timeout": "10s",

		"storage.driver":      "file",
		"storage.dir":         "./data",
		"storage.sqlite_path": "",
		"storage.watch":       true,

		"session.ttl": "30m",

		"sync.enabled":      true,
		"sync.interval":     "30s",
		"sync.fetch_limit":  DefaultSyncFetchLimit,
		"sync.on_startup":   true,
		"sync.push_timeout": "10s",
		"sync.marker":       DefaultSyncMarker,

		"status.ttl":      "10s",
		"status.capacity": DefaultStatusCapacity,

		"services.remote.base_url": "https://jsonplaceholder.typicode.com",
		"services.remote.name":     "placeholder-api",
	}
}

// Load loads configuration from the working directory. See LoadFrom.
func Load(profile string) (*Config, error) {
	return LoadFrom(".", profile)
}

// LoadFrom loads configuration rooted at dir with the following precedence
// (highest to lowest):
//  1. Environment variables (APP_ prefix), including those from dir/.env
//  2. Profile config file (dir/configs/{profile}.yaml)
//  3. Base config file (dir/configs/base.yaml)
//  4. Default values
//
// Variables already set in the environment win over .env entries.
func LoadFrom(dir, profile string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(dir, ".env")); err != nil {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	k := koanf.New(".")

	err := k.Load(confmap.Provider(defaults(), "."), nil)
	if err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	err = loadFileIfExists(k, filepath.Join(dir, "configs", "base.yaml"))
	if err != nil {
		return nil, fmt.Errorf("loading base config: %w", err)
	}

	if profile != "" {
		err := loadFileIfExists(k, filepath.Join(dir, "configs", profile+".yaml"))
		if err != nil {
			return nil, fmt.Errorf("loading profile config %q: %w", profile, err)
		}
	}

	err = k.Load(env.Provider(EnvPrefix, ".", envKey), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config

	err = k.Unmarshal("", &cfg)
	if err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

// envKey maps APP_SERVER_PORT to server.port. Keys whose own name contains an
// underscore use a double underscore: APP_SYNC_FETCH__LIMIT is sync.fetch_limit.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	key = strings.ReplaceAll(key, "__", "\x00")
	key = strings.ReplaceAll(key, "_", ".")

	return strings.ReplaceAll(key, "\x00", "_")
}

// loadDotEnv exports the entries of path into the process environment.
// A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return godotenv.Load(path)
}

// loadFileIfExists loads a YAML config file if it exists.
// Returns nil if the file doesn't exist, error only for parse/read failures.
func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return k.Load(file.Provider(path), yaml.Parser())
}
