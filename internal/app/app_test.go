package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"scoreline/internal/db"
)

func TestOpenUsesDefaultsWithoutConfig(t *testing.T) {
	a, err := Open(context.Background(), Options{Workspace: t.TempDir(), InMemory: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer a.Close()
	if a.Config.Scoring.HighScoreThreshold != 80 {
		t.Fatalf("expected default config, got %+v", a.Config.Scoring)
	}
	if _, err := a.Engine.CreatePlayer(context.Background(), "Ann"); err != nil {
		t.Fatalf("engine not usable: %v", err)
	}
}

func TestOpenReadsWorkspaceConfig(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "scoreline.yml"), []byte("defaults:\n  solo_player_name: Solo\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	a, err := Open(context.Background(), Options{Workspace: dir})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer a.Close()
	p, err := a.Engine.SoloPlayer(context.Background())
	if err != nil {
		t.Fatalf("solo player: %v", err)
	}
	if p.Name != "Solo" {
		t.Fatalf("expected configured solo name, got %q", p.Name)
	}
	want := filepath.Join(dir, ".scoreline", "scoreline.db")
	if got := db.Path(dir); got != want {
		t.Fatalf("db path: got %q want %q", got, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("expected database file: %v", err)
	}
}

func TestOpenRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "scoreline.yml"), []byte("scoring:\n  high_score_threshold: 500\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Open(context.Background(), Options{Workspace: dir}); err == nil {
		t.Fatalf("expected config error")
	}
}
