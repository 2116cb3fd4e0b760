package scorelinesdk

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http/httptest"
	"testing"

	"scoreline/internal/config"
	"scoreline/internal/db"
	"scoreline/internal/engine"
	"scoreline/internal/migrate"
	"scoreline/internal/server"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	handler, err := server.New(server.Config{
		Engine:   engine.New(conn, config.Default()),
		BasePath: "/api",
		Logger:   log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(srv.URL)
	c.HTTPClient = srv.Client()
	return c
}

func TestClientPlaysAGame(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	ann, err := c.CreatePlayer(ctx, "Ann")
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	g, err := c.StartGame(ctx, "101", ann.ID)
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	var last ThrowResult
	for _, d := range []Dart{{Kind: "triple", Number: 20}, {Kind: "single", Number: 1}, {Kind: "double", Number: 20}} {
		if last, err = c.Throw(ctx, g.ID, d); err != nil {
			t.Fatalf("throw %+v: %v", d, err)
		}
	}
	if last.Outcome != "win" || !last.Game.Completed || !last.HighScore {
		t.Fatalf("expected a high-scoring win, got %+v", last)
	}

	_, err = c.Throw(ctx, g.ID, Dart{Kind: "miss"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 409 || apiErr.Code != "game_completed" {
		t.Fatalf("expected game_completed error, got %v", err)
	}

	undone, err := c.Undo(ctx, g.ID)
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if undone.Completed || undone.State.Players[0].CurrentScore != 40 {
		t.Fatalf("expected reopened game at 40, got %+v", undone)
	}

	p, err := c.GetPlayer(ctx, ann.ID)
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	if p.GamesPlayed != 1 || p.Wins != 0 {
		t.Fatalf("unexpected stats after undo %+v", p)
	}

	highs, err := c.HighScores(ctx, 0)
	if err != nil || len(highs) != 1 {
		t.Fatalf("high scores: %v %+v", err, highs)
	}
	rankings, err := c.Rankings(ctx)
	if err != nil || len(rankings) != 1 || rankings[0].Rank != 1 {
		t.Fatalf("rankings: %v %+v", err, rankings)
	}
	recent, err := c.RecentGames(ctx, 1)
	if err != nil || len(recent) != 1 || recent[0].ID != g.ID {
		t.Fatalf("recent games: %v %+v", err, recent)
	}
	page, err := c.EventsPage(ctx, 2, "")
	if err != nil || len(page.Items) != 2 || page.NextCursor == "" {
		t.Fatalf("events page: %v %+v", err, page)
	}
	if page.Items[0].Type != "game.undo" {
		t.Fatalf("expected newest event first, got %s", page.Items[0].Type)
	}
}

func TestClientSoloPlayer(t *testing.T) {
	c := newTestClient(t)
	p, err := c.SoloPlayer(context.Background())
	if err != nil {
		t.Fatalf("solo player: %v", err)
	}
	if p.Name != "Practice Mode" {
		t.Fatalf("unexpected practice player %+v", p)
	}
}
