package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/m-mizutani/masq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	return entry
}

func TestFromContext(t *testing.T) {
	custom := discard()

	assert.Same(t, defaultLogger.Load(), FromContext(nil)) //nolint:staticcheck // nil guard
	assert.Same(t, defaultLogger.Load(), FromContext(context.Background()))
	assert.Equal(t, custom, FromContext(WithContext(context.Background(), custom)))
}

func TestFromContextOr(t *testing.T) {
	custom := discard()
	fallback := discard()

	assert.Equal(t, fallback, FromContextOr(context.Background(), fallback))
	assert.Equal(t, fallback, FromContextOr(nil, fallback)) //nolint:staticcheck // nil guard
	assert.Equal(t, custom, FromContextOr(WithContext(context.Background(), custom), fallback))
}

func TestContextIDs(t *testing.T) {
	var buf bytes.Buffer

	ctx := WithContext(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))
	ctx = WithRequestID(ctx, "req-123")
	ctx = WithTraceID(ctx, "trace-456")
	ctx = WithCorrelationID(ctx, "corr-789")
	ctx = WithSessionID(ctx, "sess-abc")

	FromContext(ctx).InfoContext(ctx, "with ids")

	entry := decode(t, &buf)
	assert.Equal(t, "req-123", entry["request_id"])
	assert.Equal(t, "trace-456", entry["trace_id"])
	assert.Equal(t, "corr-789", entry["correlation_id"])
	assert.Equal(t, "sess-abc", entry["session_id"])
}

func TestWithAttrs(t *testing.T) {
	var buf bytes.Buffer

	ctx := WithContext(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))
	ctx = WithAttrs(ctx, slog.String("category", "Life"), slog.Int("quotes", 3))

	FromContext(ctx).InfoContext(ctx, "attrs")

	entry := decode(t, &buf)
	assert.Equal(t, "Life", entry["category"])
	assert.InDelta(t, 3, entry["quotes"], 0)
}

func TestSetDefault(t *testing.T) {
	original := defaultLogger.Load()
	t.Cleanup(func() { SetDefault(original) })

	custom := discard()
	SetDefault(custom)

	assert.Equal(t, custom, FromContext(context.Background()))
}

func TestNew(t *testing.T) {
	assert.NotNil(t, New(&Config{Level: "info", Format: "json", Service: "quotebook"}))
}

func TestNewWithWriter_Formats(t *testing.T) {
	tests := []struct {
		name   string
		format string
		isJSON bool
	}{
		{name: "json", format: "json", isJSON: true},
		{name: "empty defaults to json", format: "", isJSON: true},
		{name: "text", format: "text"},
		{name: "pretty", format: "pretty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			logger := NewWithWriter(&Config{
				Level:   "debug",
				Format:  tt.format,
				Service: "quotebook",
				Version: "1.2.3",
			}, &buf)

			logger.Info("quote added", slog.String("category", "life"))

			assert.Contains(t, buf.String(), "quote added")

			if tt.isJSON {
				entry := decode(t, &buf)
				assert.Equal(t, "quotebook", entry["service_name"])
				assert.Equal(t, "1.2.3", entry["service_version"])
				assert.Equal(t, "life", entry["category"])
			}
		})
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	logger := NewWithWriter(&Config{Level: "warn", Format: "json"}, &buf)
	logger.Info("hidden")
	logger.Log(context.Background(), LevelTrace, "also hidden")

	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewWithWriter_TraceLevel(t *testing.T) {
	var buf bytes.Buffer

	logger := NewWithWriter(&Config{Level: "trace", Format: "json"}, &buf)
	logger.Log(context.Background(), LevelTrace, "wire dump")

	assert.Contains(t, buf.String(), "wire dump")
}

func TestNewWithWriter_FileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "quotebook.log")

	var buf bytes.Buffer

	logger := NewWithWriter(&Config{
		Level:  "info",
		Format: "pretty",
		File: FileConfig{
			Enabled:    true,
			Path:       logFile,
			MaxSizeMB:  1,
			MaxBackups: 1,
			MaxAgeDays: 1,
		},
	}, &buf)

	logger.Info("sync completed")

	assert.Contains(t, buf.String(), "sync completed")

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"sync completed"`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"trace", LevelTrace},
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestSlogToCharmLevel(t *testing.T) {
	tests := []struct {
		input    slog.Level
		expected log.Level
	}{
		{LevelTrace, log.DebugLevel},
		{slog.LevelDebug, log.DebugLevel},
		{slog.LevelInfo, log.InfoLevel},
		{slog.LevelWarn, log.WarnLevel},
		{slog.LevelError, log.ErrorLevel},
		{slog.Level(12), log.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, slogToCharmLevel(tt.input))
		})
	}
}

func TestMultiHandler(t *testing.T) {
	var debugBuf, infoBuf bytes.Buffer

	multi := NewMultiHandler(
		slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)

	assert.True(t, multi.Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, multi.Enabled(context.Background(), LevelTrace))

	logger := slog.New(multi).With(slog.String("component", "test")).WithGroup("store")

	logger.Info("loaded", slog.Int("count", 3))
	assert.Contains(t, debugBuf.String(), `"store":{"count":3}`)
	assert.Contains(t, infoBuf.String(), `"component":"test"`)

	debugBuf.Reset()
	infoBuf.Reset()

	logger.Debug("details")
	assert.Contains(t, debugBuf.String(), "details")
	assert.Empty(t, infoBuf.String())
}

func TestNewReplaceAttr(t *testing.T) {
	tests := []struct {
		field  string
		value  string
		redact bool
	}{
		{"password", "hunter2", true},
		{"token", "tok-123", true},
		{"api_key", "key-123", true},
		{"authorization", "Bearer abc123xyz", true},
		{"secret_config", "sensitive-data", true},
		{"header", "Basic dXNlcjpwYXNz", true},
		{"category", "inspiration", false},
		{"text", "Life is what happens", false},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			var buf bytes.Buffer

			logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{ReplaceAttr: NewReplaceAttr()}))
			logger.Info("test", slog.String(tt.field, tt.value))

			assert.Contains(t, buf.String(), tt.field)

			if tt.redact {
				assert.NotContains(t, buf.String(), tt.value)
			} else {
				assert.Contains(t, buf.String(), tt.value)
			}
		})
	}
}

func TestNewReplaceAttr_CustomOptions(t *testing.T) {
	var buf bytes.Buffer

	replaceAttr := NewReplaceAttr(masq.WithFieldName("remote_user"))
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{ReplaceAttr: replaceAttr}))
	logger.Info("push", slog.String("remote_user", "alice"))

	assert.NotContains(t, buf.String(), "alice")
}
