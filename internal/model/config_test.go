package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	def := DefaultAppConfig()
	assert.Equal(t, def.API.BaseURL, cfg.API.BaseURL)
	assert.Equal(t, "keyring", cfg.Credential.Backend)
	assert.Equal(t, "due_date", cfg.Display.DefaultSort)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoadConfigReadsFileAndTrimsBaseURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "api:\n  base_url: https://tasks.example.com/api/\n  timeout_sec: 5\nlog:\n  level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://tasks.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 5, cfg.API.TimeoutSec)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "keyring", cfg.Credential.Backend)
}

func TestLoadConfigEnvironmentOverride(t *testing.T) {
	t.Setenv("TASKBOARD_API_BASE_URL", "http://override:9000/api")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://override:9000/api", cfg.API.BaseURL)
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unclosed"), 0o600))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "reading config")
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultAppConfig()
	cfg.API.BaseURL = "http://127.0.0.1:8000/api"
	cfg.API.TimeoutSec = 12
	cfg.Credential.Backend = "memory"
	cfg.Display.DefaultSort = "priority"

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.API, loaded.API)
	assert.Equal(t, "memory", loaded.Credential.Backend)
	assert.Equal(t, "priority", loaded.Display.DefaultSort)
}
