package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadPath(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	assert.Equal(t, defaultWorkers, cfg.Extraction.Workers)
	assert.Equal(t, 30*time.Second, cfg.Extraction.AssetTimeout())
	assert.Equal(t, 6, cfg.Extraction.MaxIFDDepth)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
        "extraction": {"workers": 8, "asset_timeout_seconds": 5, "keep_unknown_tags": true},
        "logging": {"level": "debug"},
        "paths": {"staging_dir": "/mnt/staging"}
    }`), 0o644))

	cfg, err := LoadPath(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Extraction.Workers)
	assert.Equal(t, 5*time.Second, cfg.Extraction.AssetTimeout())
	assert.True(t, cfg.Extraction.KeepUnknownTags)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/mnt/staging", cfg.Paths.StagingDir)
	// Untouched sections keep their defaults.
	assert.Equal(t, 6, cfg.Extraction.MaxIFDDepth)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadHonorsEnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alt.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"extraction": {"workers": 2}}`), 0o644))
	t.Setenv("PHOTOCAT_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Extraction.Workers)
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"extraction":`), 0o644))

	_, err := LoadPath(path)
	require.Error(t, err)
}

func TestExpandUser(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandUser("~/.config/photocat/config.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config/photocat/config.json"), got)

	got, err = expandUser("/etc/photocat.json")
	require.NoError(t, err)
	assert.Equal(t, "/etc/photocat.json", got)
}
