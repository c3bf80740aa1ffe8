package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if cfg.Ingest.PerSourceLimit != 2 {
		t.Fatalf("expected per-source limit 2, got %d", cfg.Ingest.PerSourceLimit)
	}
	if cfg.Fetch.Attempts != 3 || cfg.Fetch.InitialDelay != 2*time.Second || cfg.Fetch.MaxDelay != 10*time.Second {
		t.Fatalf("unexpected fetch policy: %+v", cfg.Fetch)
	}
	if cfg.Ranking.MaxAgeDays != 7 {
		t.Fatalf("expected max age 7, got %d", cfg.Ranking.MaxAgeDays)
	}
	if cfg.Scheduler.Location() == nil {
		t.Fatal("expected bound location")
	}
	if len(cfg.Seeds) != 3 {
		t.Fatalf("expected 3 seed sources, got %d", len(cfg.Seeds))
	}
}

func TestMergeConfigKeepsDefaultsForZeroValues(t *testing.T) {
	t.Parallel()

	raw := []byte(`
database:
  driver: postgres
  dsn: postgres://u:p@localhost:5432/news
ingest:
  perSourceLimit: 5
fetch:
  initialDelay: 1s
enrich:
  provider: none
`)

	override, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	cfg := mergeConfig(defaultConfig(), override)
	if cfg.Database.Driver != "postgres" || cfg.Database.DSN != "postgres://u:p@localhost:5432/news" {
		t.Fatalf("database override not applied: %+v", cfg.Database)
	}
	if cfg.Ingest.PerSourceLimit != 5 {
		t.Fatalf("expected limit 5, got %d", cfg.Ingest.PerSourceLimit)
	}
	if cfg.Fetch.InitialDelay != time.Second {
		t.Fatalf("expected 1s initial delay, got %s", cfg.Fetch.InitialDelay)
	}
	if cfg.Fetch.MaxDelay != 10*time.Second {
		t.Fatalf("expected default max delay to survive, got %s", cfg.Fetch.MaxDelay)
	}
	if cfg.Enrich.Provider != ProviderNone || cfg.Enrich.MaxWords != 5 {
		t.Fatalf("unexpected enrich config: %+v", cfg.Enrich)
	}
}

func TestLoadAppliesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("ranking:\n  maxAgeDays: 3\nscheduler:\n  timezone: Europe/Paris\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(databaseDSNEnv, filepath.Join(dir, "test.db"))
	t.Setenv(adminPasswordEnv, "s3cret")

	cfg := Load()
	if cfg.Ranking.MaxAgeDays != 3 {
		t.Fatalf("expected max age 3, got %d", cfg.Ranking.MaxAgeDays)
	}
	if cfg.Database.DSN != filepath.Join(dir, "test.db") {
		t.Fatalf("env DSN not applied: %s", cfg.Database.DSN)
	}
	if cfg.HTTP.AdminPassword != "s3cret" {
		t.Fatalf("env admin password not applied")
	}
	if cfg.Scheduler.Location().String() != "Europe/Paris" {
		t.Fatalf("unexpected location %s", cfg.Scheduler.Location())
	}
}
