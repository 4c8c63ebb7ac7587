package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Format: "json", Service: "pathfinder", Writer: &buf})

	l.Debug("hidden")
	l.Info("search finished", "algorithm", "theta")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "search finished", entry["msg"])
	assert.Equal(t, "pathfinder", entry["service"])
	assert.Equal(t, "theta", entry["algorithm"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", Format: "text", Writer: &buf})

	l.Debug("expanding", "node", 7)

	assert.Contains(t, buf.String(), "node=7")
}

func TestInitWithConfig_FileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "test.log")

	InitWithConfig(Config{Level: "info", Format: "json", Output: "file", FilePath: logPath})
	Info("file message")

	_, err := os.Stat(logPath)
	assert.NoError(t, err)
}

func TestInit(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		Init(level)
		require.NotNil(t, Log)
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	Log = New(Config{Writer: &buf})

	ctx := ContextWithRequestID(context.Background(), "req-123")
	WithContext(ctx, "grid", "8x8").Info("request")

	assert.Equal(t, "req-123", RequestIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
	assert.Contains(t, buf.String(), `"grid":"8x8"`)
}

func TestFieldHelpers(t *testing.T) {
	var buf bytes.Buffer
	Log = New(Config{Writer: &buf})

	WithRequestID("abc").Info("one")
	WithAlgorithm("jps").Info("two")
	Warn("three", "k", "v")

	out := buf.String()
	assert.Contains(t, out, `"request_id":"abc"`)
	assert.Contains(t, out, `"algorithm":"jps"`)
	assert.Contains(t, out, `"level":"WARN"`)
}
