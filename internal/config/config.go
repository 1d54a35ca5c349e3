package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

const (
	defaultConfigPath = "~/.config/photocat/config.json"
	defaultWorkers    = 4
)

// Config holds user-editable settings for the cataloger.
type Config struct {
	Extraction Extraction `json:"extraction"`
	Logging    Logging    `json:"logging"`
	Paths      Paths      `json:"paths"`
	Watch      Watch      `json:"watch"`
}

// Extraction captures pipeline execution preferences.
type Extraction struct {
	Workers             int  `json:"workers"`
	AssetTimeoutSeconds int  `json:"asset_timeout_seconds"`
	MaxIFDDepth         int  `json:"max_ifd_depth"`
	KeepUnknownTags     bool `json:"keep_unknown_tags"`
}

// AssetTimeout returns the per-asset deadline; zero disables it.
func (e Extraction) AssetTimeout() time.Duration {
	return time.Duration(e.AssetTimeoutSeconds) * time.Second
}

// Logging controls logging verbosity and destinations.
type Logging struct {
	Level      string `json:"level"`       // debug, info, warn, error
	Format     string `json:"format"`      // text, json
	FileOutput bool   `json:"file_output"` // Enable file logging
	LogDir     string `json:"log_dir"`     // Directory for log files
}

// Paths configures default input/output locations.
type Paths struct {
	StagingDir  string `json:"staging_dir"`
	CatalogPath string `json:"catalog_path"`
}

// Watch configures staging-directory watch mode.
type Watch struct {
	DebounceSeconds int `json:"debounce_seconds"`
}

// Debounce returns the event settle window for watch mode.
func (w Watch) Debounce() time.Duration {
	return time.Duration(w.DebounceSeconds) * time.Second
}

// Load reads configuration from disk, falling back to sensible defaults.
// PHOTOCAT_CONFIG overrides the default path.
func Load() (*Config, error) {
	configPath := os.Getenv("PHOTOCAT_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	return LoadPath(configPath)
}

// LoadPath reads configuration from an explicit path; a missing file
// yields the defaults.
func LoadPath(path string) (*Config, error) {
	cfg := defaultConfig()

	expanded, err := expandUser(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(expanded)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Extraction: Extraction{
			Workers:             defaultWorkers,
			AssetTimeoutSeconds: 30,
			MaxIFDDepth:         6,
			KeepUnknownTags:     false,
		},
		Logging: Logging{
			Level:      "info",
			Format:     "text",
			FileOutput: false,
			LogDir:     "./logs",
		},
		Paths: Paths{
			StagingDir:  ".",
			CatalogPath: filepath.Join(os.TempDir(), "photocat.db"),
		},
		Watch: Watch{
			DebounceSeconds: 2,
		},
	}
}

func expandUser(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if path == "~" {
		return home, nil
	}

	return filepath.Join(home, path[2:]), nil
}
