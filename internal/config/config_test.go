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
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.HeaderLines)
	assert.Equal(t, 2500, cfg.MaxPoints)
	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "geolife.yml")
	content := `
dataset_root: /data/geolife/Data
labeled_ids_path: /data/geolife/labeled_ids.txt
max_points: 1000
log_level: DEBUG
cache_ttl: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("DB_PATH", "/tmp/override.db")
	t.Setenv("FILEPATH_ACTIVITY_IDS", "/tmp/ids.db")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/geolife/Data", cfg.DatasetRoot)
	assert.Equal(t, "/data/geolife/labeled_ids.txt", cfg.LabeledIDsPath)
	assert.Equal(t, 1000, cfg.MaxPoints)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, "/tmp/override.db", cfg.DBPath)
	assert.Equal(t, "/tmp/ids.db", cfg.ActivityIDsPath)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("MAX_POINTS", "0")
	_, err := Load("")
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}
