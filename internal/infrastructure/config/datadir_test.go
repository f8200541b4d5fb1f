package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDataDir(t *testing.T) {
	t.Cleanup(ResetDataDir)

	t.Run("home fallback", func(t *testing.T) {
		ResetDataDir()
		t.Setenv(EnvDataDir, "")

		home, err := os.UserHomeDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, DefaultDataDirName), GetDataDir())
	})

	t.Run("override is resolved once", func(t *testing.T) {
		ResetDataDir()
		t.Setenv(EnvDataDir, "/srv/edachat")
		assert.Equal(t, "/srv/edachat", GetDataDir())

		t.Setenv(EnvDataDir, "/elsewhere")
		assert.Equal(t, "/srv/edachat", GetDataDir())

		ResetDataDir()
		assert.Equal(t, "/elsewhere", GetDataDir())
	})
}

func TestNewConfig_ReadsDataDirFile(t *testing.T) {
	dir := t.TempDir()
	ResetDataDir()
	t.Cleanup(ResetDataDir)
	t.Setenv(EnvDataDir, dir)

	yaml := "server:\n  http_port: \":20001\"\ndatabase:\n  enabled: false\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(yaml), 0o644))

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, ":20001", cfg.Server.HTTPPort)
	assert.False(t, cfg.Database.Enabled)
	assert.Empty(t, cfg.Database.Path)
}
