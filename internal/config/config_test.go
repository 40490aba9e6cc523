package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	t.Setenv("TEST_REDIS_PASSWORD", "hunter2")
	yaml := `
database:
  path: ` + filepath.Join(dir, "data", "test.db") + `
redis:
  address: "127.0.0.1:6379"
  password: "${TEST_REDIS_PASSWORD}"
  key: "offline_tent_manager_v1"
  strict_corruption: true
tenant: "camp-a"
auth:
  token_url: "https://id.example.com/token"
  sign_in_rate: 2
backup:
  enabled: true
  interval_hours: 6
  retention_days: 7
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:6379", cfg.Redis.Address)
	assert.Equal(t, "hunter2", cfg.Redis.Password, "env placeholders are expanded")
	assert.True(t, cfg.Redis.StrictCorruption)
	assert.Equal(t, "camp-a", cfg.Tenant)
	assert.Equal(t, "https://id.example.com/token", cfg.Auth.TokenURL)
	assert.Equal(t, 6, cfg.Backup.IntervalHours)
	assert.DirExists(t, filepath.Join(dir, "data"), "database directory is created")
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "data/campmgr.db", cfg.Database.Path)
	assert.Equal(t, "default", cfg.Tenant)
	assert.Equal(t, 24.0, cfg.BackupInterval().Hours())
	assert.Equal(t, 14.0*24, cfg.BackupRetention().Hours())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
