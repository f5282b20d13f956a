package testsupport

import (
	"path/filepath"
	"testing"

	"grimoire/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// The bootstrap threshold is lowered so tests can reach an initialized state
// with a handful of rows.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Bootstrap.MinIndexSize = 3
	cfg.Bootstrap.BatchSize = 2
	cfg.Bootstrap.UpsertWorkers = 2
	cfg.Catalog.RateLimit = 1000
	cfg.HotCache.Size = 16
	cfg.HotCache.TTLSeconds = 60

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithRateLimit overrides the outbound request ceiling on the test config.
func WithRateLimit(requestsPerSecond float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Catalog.RateLimit = requestsPerSecond
	}
}

// WithMinIndexSize overrides the bootstrap validity threshold.
func WithMinIndexSize(size int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Bootstrap.MinIndexSize = size
	}
}
