package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.DataDir != "data" {
		t.Errorf("data dir: %s", cfg.DataDir)
	}
	if cfg.DefaultRestDays != 7 {
		t.Errorf("rest days: %d", cfg.DefaultRestDays)
	}
	if cfg.Injury.TeamScale != 80.0 || cfg.Injury.DefaultAbsentScore != 5.0 {
		t.Errorf("injury: %+v", cfg.Injury)
	}
	if cfg.Collector.PolitenessInterval != 3*time.Second {
		t.Errorf("politeness: %v", cfg.Collector.PolitenessInterval)
	}
	if cfg.Collector.Retries != 3 {
		t.Errorf("retries: %d", cfg.Collector.Retries)
	}
	if cfg.Policy.LockHigh != 0.90 || cfg.Policy.HighEVEdge != 0.15 {
		t.Errorf("policy: %+v", cfg.Policy)
	}
	if cfg.Cron.Spec == "" {
		t.Error("cron spec must have a default")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "courtside.yaml")
	yaml := `
data_dir: /var/lib/courtside
default_rest_days: 5
collector:
  politeness_interval: 10s
  retries: 5
injury:
  team_scale: 100.0
policy:
  lock_high: 0.95
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.DataDir != "/var/lib/courtside" {
		t.Errorf("data dir: %s", cfg.DataDir)
	}
	if cfg.DefaultRestDays != 5 {
		t.Errorf("rest days: %d", cfg.DefaultRestDays)
	}
	if cfg.Collector.PolitenessInterval != 10*time.Second {
		t.Errorf("politeness: %v", cfg.Collector.PolitenessInterval)
	}
	if cfg.Collector.Retries != 5 {
		t.Errorf("retries: %d", cfg.Collector.Retries)
	}
	if cfg.Injury.TeamScale != 100.0 {
		t.Errorf("team scale: %v", cfg.Injury.TeamScale)
	}
	// Unset keys keep their defaults.
	if cfg.Injury.DefaultAbsentScore != 5.0 {
		t.Errorf("absent score default: %v", cfg.Injury.DefaultAbsentScore)
	}
	if cfg.Policy.LockHigh != 0.95 {
		t.Errorf("lock high: %v", cfg.Policy.LockHigh)
	}
	if cfg.Policy.LockLow != 0.20 {
		t.Errorf("lock low default: %v", cfg.Policy.LockLow)
	}
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}
