package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "backend:\n  host: 0.0.0.0\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 9400, cfg.HTTP.Port)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, 30*time.Second, cfg.Command.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Command.RetryInterval)
	assert.Equal(t, 3, cfg.Command.MaxRetries)
	assert.Equal(t, 3, cfg.Restart.MaxAttempts)
	assert.Equal(t, 20*time.Second, cfg.Restart.Cooldown)
	assert.Equal(t, time.Minute, cfg.Backup.CheckInterval)
	assert.Equal(t, "servermon", cfg.JWT.Issuer)
	assert.Equal(t, 60, cfg.JWT.ExpMin)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `backend:
  port: 8080
  db:
    driver: mysql
    host: db.internal
    name: monitoring
  jwt:
    secret: super-secret
    exp_min: 15
  command:
    timeout_sec: 10
    max_retries: 5
  redis:
    enabled: true
    addr: cache:6379
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, "monitoring", cfg.DB.Name)
	assert.Equal(t, "super-secret", cfg.JWT.Secret)
	assert.Equal(t, 15, cfg.JWT.ExpMin)
	assert.Equal(t, 10*time.Second, cfg.Command.Timeout)
	assert.Equal(t, 5, cfg.Command.MaxRetries)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
