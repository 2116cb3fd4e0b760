package repo

import (
	"context"
	"errors"
	"testing"

	"scoreline/internal/db"
	"scoreline/internal/domain"
	"scoreline/internal/migrate"
	"scoreline/internal/turn"
)

const ts = "2026-01-02T15:04:05Z"

func newTestRepo(t *testing.T) Repo {
	t.Helper()
	conn, err := db.Open(db.Config{InMemory: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return Repo{DB: conn}
}

func addPlayer(t *testing.T, r Repo, name string) int64 {
	t.Helper()
	id, err := r.InsertPlayer(context.Background(), nil, domain.Player{Name: name, CreatedAt: ts}, false)
	if err != nil {
		t.Fatalf("insert player: %v", err)
	}
	return id
}

func addGame(t *testing.T, r Repo, g turn.GameType, ids ...int64) int64 {
	t.Helper()
	state, err := turn.Initialize(g, ids)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	id, err := r.InsertGame(context.Background(), nil, domain.Game{GameType: g, State: state, CreatedAt: ts, UpdatedAt: ts})
	if err != nil {
		t.Fatalf("insert game: %v", err)
	}
	return id
}

func TestPlayerIDsAreSequential(t *testing.T) {
	r := newTestRepo(t)
	a := addPlayer(t, r, "Ann")
	b := addPlayer(t, r, "Bob")
	if b != a+1 {
		t.Fatalf("expected sequential ids, got %d and %d", a, b)
	}
	if _, err := r.GetPlayer(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	page, err := r.ListPlayers(context.Background(), 1, a)
	if err != nil {
		t.Fatalf("list players: %v", err)
	}
	if len(page) != 1 || page[0].ID != b {
		t.Fatalf("expected cursor page with Bob, got %+v", page)
	}
}

func TestGameRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	a := addPlayer(t, r, "Ann")
	b := addPlayer(t, r, "Bob")
	id := addGame(t, r, turn.Countdown301, b, a)

	g, err := r.GetGame(ctx, id)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if len(g.PlayerIDs) != 2 || g.PlayerIDs[0] != b || g.PlayerIDs[1] != a {
		t.Fatalf("seat order lost: %v", g.PlayerIDs)
	}
	if g.State.Players[0].CurrentScore != 301 || g.Completed {
		t.Fatalf("unexpected state: %+v", g.State)
	}

	games, err := r.ListGames(ctx, GameFilters{PlayerID: a})
	if err != nil || len(games) != 1 {
		t.Fatalf("expected one game for Ann, got %d %v", len(games), err)
	}
	n, err := r.CountActiveGames(ctx, nil, a)
	if err != nil || n != 1 {
		t.Fatalf("expected one active game, got %d %v", n, err)
	}
}

func TestCorruptSnapshotRejected(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	a := addPlayer(t, r, "Ann")
	id := addGame(t, r, turn.Countdown501, a)
	if _, err := r.DB.Exec(`UPDATE games SET state_json=? WHERE id=?`,
		`{"game_type":"501","players":[{"player_id":1,"initial_score":501,"current_score":900}],"current_round":1}`, id); err != nil {
		t.Fatalf("corrupt game: %v", err)
	}
	if _, err := r.GetGame(ctx, id); !errors.Is(err, turn.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestHighScoresAndRankings(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	a := addPlayer(t, r, "Ann")
	b := addPlayer(t, r, "Bob")
	c := addPlayer(t, r, "Cal")
	game := addGame(t, r, turn.Countdown501, a, b, c)
	for _, s := range []struct {
		player int64
		points int
	}{{a, 20}, {a, 60}, {b, 57}, {b, 3}} {
		if _, err := r.InsertScore(ctx, nil, domain.Score{GameID: game, PlayerID: s.player, Score: s.points, Round: 1, CreatedAt: ts}); err != nil {
			t.Fatalf("insert score: %v", err)
		}
		if err := r.RaiseHighestScore(ctx, nil, s.player, s.points); err != nil {
			t.Fatalf("raise highest: %v", err)
		}
	}
	if err := r.AddWins(ctx, nil, b, 1); err != nil {
		t.Fatalf("add win: %v", err)
	}

	highs, err := r.HighScores(ctx, 5)
	if err != nil {
		t.Fatalf("high scores: %v", err)
	}
	if len(highs) != 2 || highs[0].Player.ID != a || highs[0].Score != 60 || highs[1].Score != 57 {
		t.Fatalf("unexpected high scores: %+v", highs)
	}

	ranks, err := r.Rankings(ctx, 0)
	if err != nil {
		t.Fatalf("rankings: %v", err)
	}
	if len(ranks) != 3 || ranks[0].Player.ID != b || ranks[1].Player.ID != a || ranks[2].Player.ID != c {
		t.Fatalf("unexpected ranking order: %+v", ranks)
	}
	if ranks[1].Darts != 2 || ranks[1].Points != 80 || ranks[2].Darts != 0 {
		t.Fatalf("unexpected totals: %+v", ranks)
	}
}
