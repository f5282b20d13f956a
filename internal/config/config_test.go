package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"grimoire/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Bootstrap.MinIndexSize != 10000 {
		t.Fatalf("unexpected default threshold: %d", cfg.Bootstrap.MinIndexSize)
	}
	if cfg.Eviction.TTLDays != 30 {
		t.Fatalf("unexpected default TTL: %d", cfg.Eviction.TTLDays)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero rate limit", func(c *config.Config) { c.Catalog.RateLimit = 0 }},
		{"negative rate limit", func(c *config.Config) { c.Catalog.RateLimit = -5 }},
		{"empty base url", func(c *config.Config) { c.Catalog.BaseURL = "" }},
		{"zero batch size", func(c *config.Config) { c.Bootstrap.BatchSize = 0 }},
		{"zero workers", func(c *config.Config) { c.Bootstrap.UpsertWorkers = 0 }},
		{"negative threshold", func(c *config.Config) { c.Bootstrap.MinIndexSize = -1 }},
		{"zero hot cache", func(c *config.Config) { c.HotCache.Size = 0 }},
		{"zero hot ttl", func(c *config.Config) { c.HotCache.TTLSeconds = 0 }},
		{"negative eviction ttl", func(c *config.Config) { c.Eviction.TTLDays = -1 }},
		{"zero sweep interval", func(c *config.Config) { c.Eviction.SweepIntervalHours = 0 }},
		{"empty data dir", func(c *config.Config) { c.Paths.DataDir = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")
	cfg, resolved, exists, err := config.Load(missing)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for a missing file")
	}
	if resolved != missing {
		t.Fatalf("expected resolved path %q, got %q", missing, resolved)
	}
	if cfg.Catalog.BaseURL != "https://api.scryfall.com" {
		t.Fatalf("expected default base url, got %q", cfg.Catalog.BaseURL)
	}
}

func TestLoadAppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[catalog]
base_url = "https://catalog.example/api/"
rate_limit = 2.5

[eviction]
ttl_days = 7
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Catalog.BaseURL != "https://catalog.example/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Catalog.BaseURL)
	}
	if cfg.Catalog.RateLimit != 2.5 {
		t.Fatalf("unexpected rate limit: %v", cfg.Catalog.RateLimit)
	}
	if cfg.Eviction.TTLDays != 7 {
		t.Fatalf("unexpected ttl: %d", cfg.Eviction.TTLDays)
	}
	// Sections absent from the file keep their defaults.
	if cfg.Bootstrap.BatchSize != 2000 {
		t.Fatalf("expected default batch size, got %d", cfg.Bootstrap.BatchSize)
	}
}

func TestLoadRejectsInvalidOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[catalog]\nrate_limit = -1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for negative rate limit")
	}
}

func TestCreateSampleRoundtrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load of sample failed: %v", err)
	}
	if !exists {
		t.Fatal("expected the sample file to be found")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = "/tmp/grimoire-test"
	if got := cfg.DatabasePath(); got != "/tmp/grimoire-test/catalog.db" {
		t.Fatalf("unexpected database path: %q", got)
	}
	if got := cfg.LockPath(); !strings.HasSuffix(got, "grimoired.lock") {
		t.Fatalf("unexpected lock path: %q", got)
	}
}
