package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Scoring.HighScoreThreshold != 80 {
		t.Fatalf("expected threshold 80, got %d", cfg.Scoring.HighScoreThreshold)
	}
	if cfg.Listing.RecentGames != 5 || cfg.Listing.HighScores != 5 || cfg.Listing.MaxLimit != 200 {
		t.Fatalf("unexpected listing defaults: %+v", cfg.Listing)
	}
	if cfg.Defaults.SoloPlayerName != "Practice Mode" {
		t.Fatalf("unexpected solo name %q", cfg.Defaults.SoloPlayerName)
	}
}

func TestFromYAMLFillsDefaults(t *testing.T) {
	cfg, err := FromYAML([]byte("scoring:\n  high_score_threshold: 100\n"))
	if err != nil {
		t.Fatalf("from yaml: %v", err)
	}
	if cfg.Scoring.HighScoreThreshold != 100 {
		t.Fatalf("expected threshold 100, got %d", cfg.Scoring.HighScoreThreshold)
	}
	if cfg.Listing.RecentGames != 5 {
		t.Fatalf("expected default recent games, got %d", cfg.Listing.RecentGames)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"threshold":  "scoring:\n  high_score_threshold: 181\n",
		"negative":   "listing:\n  recent_games: -1\n",
		"over max":   "listing:\n  recent_games: 50\n  max_limit: 10\n",
		"hook url":   "webhooks:\n  - url: ftp://example.com\n",
		"hook empty": "webhooks:\n  - events: [game.completed]\n",
		"bad yaml":   "scoring: [\n",
	}
	for name, raw := range cases {
		if _, err := FromYAML([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOptional(dir)
	if err != nil || cfg != nil {
		t.Fatalf("expected nil config for missing file, got %v %v", cfg, err)
	}
	if _, err := Load(dir); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
	raw := "webhooks:\n  - url: http://127.0.0.1:9/hook\n    enabled: false\n"
	if err := os.WriteFile(filepath.Join(dir, "scoreline.yml"), []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err = LoadOptional(dir)
	if err != nil {
		t.Fatalf("load optional: %v", err)
	}
	if len(cfg.Webhooks) != 1 || cfg.Webhooks[0].Active() {
		t.Fatalf("expected one disabled webhook, got %+v", cfg.Webhooks)
	}
}

func TestGenerateDefaultParses(t *testing.T) {
	if _, err := FromYAML([]byte(GenerateDefault())); err != nil {
		t.Fatalf("generated config does not parse: %v", err)
	}
}

func TestParseRuntimeDefaults(t *testing.T) {
	rt, err := ParseRuntime()
	if err != nil {
		t.Fatalf("parse runtime: %v", err)
	}
	if rt.Addr != "127.0.0.1:8080" || rt.BasePath != "/api" || rt.InMemory {
		t.Fatalf("unexpected runtime defaults: %+v", rt)
	}
	if rt.WebhookInterval != 2*time.Second {
		t.Fatalf("unexpected webhook interval %v", rt.WebhookInterval)
	}
}

func TestParseRuntimeOverrides(t *testing.T) {
	t.Setenv("SCORELINE_ADDR", "0.0.0.0:9000")
	t.Setenv("SCORELINE_IN_MEMORY", "true")
	rt, err := ParseRuntime()
	if err != nil {
		t.Fatalf("parse runtime: %v", err)
	}
	if rt.Addr != "0.0.0.0:9000" || !rt.InMemory {
		t.Fatalf("env overrides not applied: %+v", rt)
	}
}

func TestParseRuntimeError(t *testing.T) {
	t.Setenv("SCORELINE_IN_MEMORY", "sometimes")
	_, err := ParseRuntime()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "league.yml")
	if err := os.WriteFile(path, []byte("listing:\n  max_limit: 20\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := FromFile(path)
	if err != nil {
		t.Fatalf("from file: %v", err)
	}
	if cfg.Listing.MaxLimit != 20 || cfg.Scoring.HighScoreThreshold != 80 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if _, err := FromFile(filepath.Join(dir, "missing.yml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "sl config init") {
		t.Fatalf("expected init hint, got %v", err)
	}
}
