// Package config holds all spectral configuration. Values come from the
// optional YAML config file, overridden by SPECTRAL_* environment
// variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config tunes the retrieval pipeline.
type Config struct {
	// ConcurrencyPerNode is the per-node cap on in-flight probes and,
	// independently, in-flight fetches.
	ConcurrencyPerNode int `yaml:"concurrency_per_node" envconfig:"CONCURRENCY_PER_NODE"`

	// HTTPTimeout bounds each network call. Fetch targets can be large.
	HTTPTimeout time.Duration `yaml:"http_timeout" envconfig:"HTTP_TIMEOUT"`

	// RetryAttempts and RetryBaseDelay shape the fetch retry policy.
	// Probes are never retried.
	RetryAttempts  int           `yaml:"retry_attempts" envconfig:"RETRY_ATTEMPTS"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay" envconfig:"RETRY_BASE_DELAY"`

	// AcceptTruncation executes truncated queries as-is instead of
	// splitting them.
	AcceptTruncation bool `yaml:"accept_truncation" envconfig:"ACCEPT_TRUNCATION"`

	// DownloadDir receives raw XSAMS payloads; ArtifactDir receives
	// per-fragment and merged columnar artifacts.
	DownloadDir string `yaml:"download_dir" envconfig:"DOWNLOAD_DIR"`
	ArtifactDir string `yaml:"artifact_dir" envconfig:"ARTIFACT_DIR"`

	// JournalPath enables the SQLite run journal when non-empty.
	JournalPath string `yaml:"journal_path" envconfig:"JOURNAL_PATH"`

	// MinIntervalWidth (Angstrom) and MaxSplitDepth guard the recursive
	// split against non-termination.
	MinIntervalWidth float64 `yaml:"min_interval_width" envconfig:"MIN_INTERVAL_WIDTH"`
	MaxSplitDepth    int     `yaml:"max_split_depth" envconfig:"MAX_SPLIT_DEPTH"`
}

// Default returns the standard configuration.
func Default() Config {
	return Config{
		ConcurrencyPerNode: 4,
		HTTPTimeout:        10 * time.Minute,
		RetryAttempts:      3,
		RetryBaseDelay:     time.Second,
		DownloadDir:        "./xsams",
		ArtifactDir:        "./artifacts",
		MinIntervalWidth:   1e-6,
		MaxSplitDepth:      48,
	}
}

// Load reads the YAML file at path (skipped when path is empty or the file
// does not exist), then applies SPECTRAL_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := envconfig.Process("spectral", &cfg); err != nil {
		return cfg, fmt.Errorf("env overrides: %w", err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.ConcurrencyPerNode < 1 {
		return fmt.Errorf("concurrency_per_node must be at least 1, got %d", c.ConcurrencyPerNode)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("retry_attempts must be at least 1, got %d", c.RetryAttempts)
	}
	if c.MinIntervalWidth <= 0 {
		return fmt.Errorf("min_interval_width must be positive, got %g", c.MinIntervalWidth)
	}
	if c.MaxSplitDepth < 1 {
		return fmt.Errorf("max_split_depth must be at least 1, got %d", c.MaxSplitDepth)
	}
	return nil
}
