package handler

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsoleHandler_PrefixAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewConsoleHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})).
		With("module", "agent", "component", "coordinator")

	logger.Info("routed", "agent", "BOTH")

	out := buf.String()
	assert.Contains(t, out, "[agent/coordinator] routed")
	assert.Contains(t, out, "  agent=BOTH")
	assert.NotContains(t, out, "module=")
}

func TestConsoleHandler_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewConsoleHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestConsoleHandler_Group(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewConsoleHandler(&buf, nil)).WithGroup("exec")

	logger.Info("done", "steps", 42)

	assert.Contains(t, buf.String(), "exec.steps=42")
}
