package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Catalog contains configuration for the external card catalog API.
type Catalog struct {
	BaseURL                string  `toml:"base_url"`
	RateLimit              float64 `toml:"rate_limit"`
	FetchTimeoutSeconds    int     `toml:"fetch_timeout_seconds"`
	DownloadTimeoutMinutes int     `toml:"download_timeout_minutes"`
}

// Bootstrap contains configuration for the bulk index loader.
type Bootstrap struct {
	MinIndexSize  int `toml:"min_index_size"`
	BatchSize     int `toml:"batch_size"`
	UpsertWorkers int `toml:"upsert_workers"`
}

// HotCache contains configuration for the in-memory detail cache tier.
type HotCache struct {
	Size       int `toml:"size"`
	TTLSeconds int `toml:"ttl_seconds"`
}

// Eviction contains configuration for the warm-tier TTL sweep.
type Eviction struct {
	TTLDays            int `toml:"ttl_days"`
	SweepIntervalHours int `toml:"sweep_interval_hours"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Grimoire.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Catalog: external catalog API endpoint, pacing, and timeouts
//   - Bootstrap: bulk loader thresholds and batching
//   - HotCache: ephemeral detail-cache sizing and TTL
//   - Eviction: warm-tier retention and sweep cadence
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Catalog   Catalog   `toml:"catalog"`
	Bootstrap Bootstrap `toml:"bootstrap"`
	HotCache  HotCache  `toml:"hot_cache"`
	Eviction  Eviction  `toml:"eviction"`
	Logging   Logging   `toml:"logging"`
}

// Default returns the baseline configuration before any file overrides.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: "~/.local/share/grimoire",
			LogDir:  "~/.local/share/grimoire/logs",
		},
		Catalog: Catalog{
			BaseURL:                "https://api.scryfall.com",
			RateLimit:              10,
			FetchTimeoutSeconds:    30,
			DownloadTimeoutMinutes: 10,
		},
		Bootstrap: Bootstrap{
			MinIndexSize:  10000,
			BatchSize:     2000,
			UpsertWorkers: 4,
		},
		HotCache: HotCache{
			Size:       4096,
			TTLSeconds: 900,
		},
		Eviction: Eviction{
			TTLDays:            30,
			SweepIntervalHours: 24,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/grimoire/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("grimoire.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	c.Catalog.BaseURL = strings.TrimRight(strings.TrimSpace(c.Catalog.BaseURL), "/")
	return nil
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures.
func (c *Config) Validate() error {
	if c.Paths.DataDir == "" {
		return errors.New("config: data_dir must not be empty")
	}
	if c.Catalog.BaseURL == "" {
		return errors.New("config: catalog base_url must not be empty")
	}
	if c.Catalog.RateLimit <= 0 {
		return fmt.Errorf("config: catalog rate_limit must be positive, got %v", c.Catalog.RateLimit)
	}
	if c.Bootstrap.BatchSize <= 0 {
		return fmt.Errorf("config: bootstrap batch_size must be positive, got %d", c.Bootstrap.BatchSize)
	}
	if c.Bootstrap.UpsertWorkers <= 0 {
		return fmt.Errorf("config: bootstrap upsert_workers must be positive, got %d", c.Bootstrap.UpsertWorkers)
	}
	if c.Bootstrap.MinIndexSize < 0 {
		return fmt.Errorf("config: bootstrap min_index_size must not be negative, got %d", c.Bootstrap.MinIndexSize)
	}
	if c.HotCache.Size <= 0 {
		return fmt.Errorf("config: hot_cache size must be positive, got %d", c.HotCache.Size)
	}
	if c.HotCache.TTLSeconds <= 0 {
		return fmt.Errorf("config: hot_cache ttl_seconds must be positive, got %d", c.HotCache.TTLSeconds)
	}
	if c.Eviction.TTLDays < 0 {
		return fmt.Errorf("config: eviction ttl_days must not be negative, got %d", c.Eviction.TTLDays)
	}
	if c.Eviction.SweepIntervalHours <= 0 {
		return fmt.Errorf("config: eviction sweep_interval_hours must be positive, got %d", c.Eviction.SweepIntervalHours)
	}
	return nil
}

// EnsureDirectories creates required directories for engine operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the sqlite database location under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "catalog.db")
}

// LockPath returns the daemon lock file location under the data directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "grimoired.lock")
}

// FetchTimeout returns the per-card fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Catalog.FetchTimeoutSeconds) * time.Second
}

// DownloadTimeout returns the bulk download timeout as a duration.
func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Catalog.DownloadTimeoutMinutes) * time.Minute
}

// HotCacheTTL returns the hot tier TTL as a duration.
func (c *Config) HotCacheTTL() time.Duration {
	return time.Duration(c.HotCache.TTLSeconds) * time.Second
}

// SweepInterval returns the eviction sweep cadence as a duration.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Eviction.SweepIntervalHours) * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
