package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_PATH", path)
}

func TestLoadAppliesDefaults(t *testing.T) {
	writeConfig(t, `
app:
  name: sync-engine
backend:
  base_url: http://localhost:9000
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sync-engine", cfg.App.Name)
	assert.Equal(t, 5*time.Second, cfg.Poller.Interval)
	assert.Equal(t, 60*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Backend.AuthTimeout)
	assert.Equal(t, 5*time.Second, cfg.Assess.ErrorDisplayWindow)
	assert.Equal(t, "docsync:documents", cfg.Redis.Keyspace)
}

func TestLoadParsesDurations(t *testing.T) {
	writeConfig(t, `
backend:
  base_url: http://localhost:9000
  timeout: 30s
poller:
  interval: 2s
  refresh_on_start: true
redis:
  enabled: true
  host: localhost
  port: 6379
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Poller.Interval)
	assert.True(t, cfg.Poller.RefreshOnStart)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	assert.Error(t, err)
}
