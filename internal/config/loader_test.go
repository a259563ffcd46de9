package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5*time.Second, cfg.Database.LockTimeout)
	assert.Equal(t, 3, cfg.Import.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Import.BackoffUnit)
	assert.Equal(t, 5, cfg.Sheets.MaxAttempts)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("database:\n  host: db.internal\n  port: 6543\nimport:\n  backoff_unit: 1s\nlog:\n  format: json\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

	t.Setenv("PERMITS_DATABASE_PASSWORD", "s3cret")
	t.Setenv("PERMITS_IMPORT_MAX_ATTEMPTS", "7")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, 7, cfg.Import.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Import.BackoffUnit)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadRejectsZeroAttempts(t *testing.T) {
	t.Setenv("PERMITS_IMPORT_MAX_ATTEMPTS", "0")

	_, err := Load(t.TempDir())
	assert.Error(t, err)
}
