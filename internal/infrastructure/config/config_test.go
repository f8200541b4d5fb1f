package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	ResetDataDir()
	t.Setenv(EnvDataDir, t.TempDir())
	for _, k := range []string{EnvHTTPPort, EnvLLMAPIKey, EnvLLMBaseURL, EnvLLMModel, EnvDBPath, EnvInboxDir, "GOOGLE_API_KEY", "OPENAI_API_KEY"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Cleanup(ResetDataDir)
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":19970", cfg.Server.HTTPPort)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Execution.Timeout)
	assert.Equal(t, uint64(50_000_000), cfg.Execution.MaxSteps)
	assert.Equal(t, int64(200*1024*1024), cfg.Upload.MaxBytes)
	assert.Equal(t, 30, cfg.Summary.MaxColumns)
	assert.Equal(t, 3, cfg.Summary.SampleRows)
	assert.Equal(t, filepath.Join(GetDataDir(), "edachat.db"), cfg.Database.Path)
}

func TestLoad_EnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv(EnvHTTPPort, ":29970")
	t.Setenv(EnvLLMModel, "gpt-4o-mini")
	t.Setenv("EDACHAT_EXECUTION_MAX_STEPS", "1000")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":29970", cfg.Server.HTTPPort)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, uint64(1000), cfg.Execution.MaxSteps)
}

func TestLoad_APIKeyFallback(t *testing.T) {
	isolate(t)
	t.Setenv("GOOGLE_API_KEY", "google-key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "google-key", cfg.LLM.APIKey)
}

func TestLoad_File(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
execution:
  timeout: 2s
summary:
  max_columns: 10
database:
  enabled: false
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Execution.Timeout)
	assert.Equal(t, 10, cfg.Summary.MaxColumns)
	assert.False(t, cfg.Database.Enabled)
	assert.Empty(t, cfg.Database.Path)
}

func TestValidate_Rejects(t *testing.T) {
	cfg := Default()
	cfg.Server.HTTPPort = "8080"
	cfg.Execution.MaxSteps = 0

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTPPort")
	assert.Contains(t, err.Error(), "MaxSteps")
}

func TestValidate_SummaryCaps(t *testing.T) {
	cfg := Default()
	cfg.Summary.MaxColumns = 31
	cfg.Summary.SampleRows = 4

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MaxColumns")
	assert.Contains(t, err.Error(), "SampleRows")

	cfg.Summary.MaxColumns = 30
	cfg.Summary.SampleRows = 3
	assert.NoError(t, Validate(cfg))
}

func TestValidate_InboxRequiresDir(t *testing.T) {
	cfg := Default()
	cfg.Inbox.Enabled = true

	require.Error(t, Validate(cfg))

	cfg.Inbox.Dir = t.TempDir()
	assert.NoError(t, Validate(cfg))
}

func TestMasked(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKey = "sk-abcdef1234"

	masked := cfg.Masked()

	assert.Equal(t, "*********1234", masked.LLM.APIKey)
	assert.Equal(t, "sk-abcdef1234", cfg.LLM.APIKey)
}
