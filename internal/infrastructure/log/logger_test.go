package log

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvLevel, EnvFormat, EnvOutput, EnvAddSource, EnvMode,
		"LOG_LEVEL", "LOG_FORMAT", "LOG_OUTPUT", "LOG_ADD_SOURCE", "ENV"} {
		t.Setenv(k, "")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for input, want := range tests {
		assert.Equal(t, want, parseLevel(input), input)
	}
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearEnv(t)
		cfg := NewConfigFromEnv()
		assert.Equal(t, &Config{Level: "info", Format: "console", Output: "stdout"}, cfg)
	})

	t.Run("prefixed variables win over fallbacks", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LOG_LEVEL", "error")
		t.Setenv(EnvLevel, "warn")
		t.Setenv("LOG_FORMAT", "json")

		cfg := NewConfigFromEnv()
		assert.Equal(t, "warn", cfg.Level)
		assert.Equal(t, "json", cfg.Format)
	})

	t.Run("development mode", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(EnvMode, "Development")
		t.Setenv(EnvLevel, "error")
		t.Setenv(EnvFormat, "json")

		cfg := NewConfigFromEnv()
		assert.Equal(t, "debug", cfg.Level)
		assert.Equal(t, "console", cfg.Format)
		assert.True(t, cfg.AddSource)
	})
}

func TestParseBool(t *testing.T) {
	assert.True(t, parseBool("true", false))
	assert.False(t, parseBool("0", true))
	assert.True(t, parseBool("nope", true))
	assert.False(t, parseBool("", false))
}

func TestInit_DebugMode(t *testing.T) {
	Init(&Config{Level: "debug", Format: "console", Output: "stderr"})
	assert.True(t, IsDebugMode())
	assert.NotNil(t, GetLogger())

	Init(&Config{Level: "info", Format: "console", Output: "stdout"})
	assert.False(t, IsDebugMode())
}

func TestInit_UnknownOutputFallsBack(t *testing.T) {
	Init(&Config{Level: "info", Output: "syslog"})
	assert.NotNil(t, NewModuleLogger("test", "fallback"))
	Init(&Config{Level: "info", Format: "console", Output: "stdout"})
}

func TestInit_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edachat.log")

	Init(&Config{Level: "info", Format: "json", Output: "file:" + path})
	NewModuleLogger("conversation", "turn").Info("written to file", "session_id", "s-1")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
	assert.Contains(t, string(data), ServiceName)
	assert.Contains(t, string(data), `"module":"conversation"`)

	Init(&Config{Level: "info", Format: "console", Output: "stdout"})
}

func TestLogCtxFromContext(t *testing.T) {
	ctx := WithSessionID(WithRequestID(context.Background(), "req-1"), "sess-1")

	attrs := LogCtxFromContext(ctx)
	require.Len(t, attrs, 2)
	assert.Equal(t, "req-1", attrs[0].Value.String())
	assert.Equal(t, "sess-1", attrs[1].Value.String())
}
