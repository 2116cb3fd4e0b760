package engine_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"scoreline/internal/config"
	"scoreline/internal/db"
	"scoreline/internal/domain"
	"scoreline/internal/engine"
	"scoreline/internal/migrate"
	"scoreline/internal/repo"
	"scoreline/internal/turn"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	eng := engine.New(conn, config.Default())
	eng.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return testEnv{Engine: eng, Ctx: context.Background()}
}

func (env testEnv) player(t *testing.T, name string) domain.Player {
	t.Helper()
	p, err := env.Engine.CreatePlayer(env.Ctx, name)
	if err != nil {
		t.Fatalf("create player %s: %v", name, err)
	}
	return p
}

func (env testEnv) throw(t *testing.T, gameID int64, kind turn.Kind, n int) engine.ThrowResult {
	t.Helper()
	th, err := turn.NewThrow(kind, n)
	if err != nil {
		t.Fatalf("new throw: %v", err)
	}
	res, err := env.Engine.Throw(env.Ctx, gameID, th)
	if err != nil {
		t.Fatalf("throw %s %d: %v", kind, n, err)
	}
	return res
}

func TestStartGameCountsGamesPlayed(t *testing.T) {
	env := newTestEnv(t)
	a := env.player(t, "Ann")
	b := env.player(t, "Bob")
	g, err := env.Engine.StartGame(env.Ctx, turn.Countdown501, []int64{b.ID, a.ID})
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	if g.ID == 0 || g.State.Players[0].PlayerID != b.ID {
		t.Fatalf("unexpected game: %+v", g)
	}
	for _, id := range []int64{a.ID, b.ID} {
		p, err := env.Engine.GetPlayer(env.Ctx, id)
		if err != nil {
			t.Fatalf("get player: %v", err)
		}
		if p.GamesPlayed != 1 {
			t.Fatalf("expected 1 game played for %s, got %d", p.Name, p.GamesPlayed)
		}
	}
	if _, err := env.Engine.StartGame(env.Ctx, turn.Countdown501, []int64{a.ID, 999}); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown player, got %v", err)
	}
	if _, err := env.Engine.StartGame(env.Ctx, turn.Countdown501, nil); !errors.Is(err, turn.ErrNoPlayers) {
		t.Fatalf("expected ErrNoPlayers, got %v", err)
	}
	p, _ := env.Engine.GetPlayer(env.Ctx, a.ID)
	if p.GamesPlayed != 1 {
		t.Fatalf("failed start must not count, got %d", p.GamesPlayed)
	}
}

func TestThrowsThroughToWin(t *testing.T) {
	env := newTestEnv(t)
	a := env.player(t, "Ann")
	g, err := env.Engine.StartGame(env.Ctx, turn.Countdown101, []int64{a.ID})
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	first := env.throw(t, g.ID, turn.Triple, 20)
	if first.HighScore || first.TurnTotal != 60 || first.Result.Outcome != turn.Scored {
		t.Fatalf("unexpected first throw: %+v", first)
	}
	env.throw(t, g.ID, turn.Single, 1)
	last := env.throw(t, g.ID, turn.Double, 20)
	if last.Result.Outcome != turn.Win || !last.Game.Completed || *last.Game.Winner != a.ID {
		t.Fatalf("expected win, got %+v", last.Result)
	}
	if last.TurnTotal != 101 || !last.HighScore {
		t.Fatalf("expected high score turn of 101, got %d %v", last.TurnTotal, last.HighScore)
	}
	if last.Score.ThrowIndex == nil || *last.Score.ThrowIndex != 2 || last.Score.Round != 1 {
		t.Fatalf("unexpected score row: %+v", last.Score)
	}

	p, _ := env.Engine.GetPlayer(env.Ctx, a.ID)
	if p.Wins != 1 || p.HighestScore != 60 || p.GamesPlayed != 1 {
		t.Fatalf("unexpected stats: %+v", p)
	}
	scores, err := env.Engine.GameScores(env.Ctx, g.ID)
	if err != nil || len(scores) != 3 {
		t.Fatalf("expected 3 scores, got %d %v", len(scores), err)
	}
	th, _ := turn.NewThrow(turn.Single, 5)
	if _, err := env.Engine.Throw(env.Ctx, g.ID, th); !errors.Is(err, turn.ErrGameCompleted) {
		t.Fatalf("expected ErrGameCompleted, got %v", err)
	}
	evts, err := env.Engine.Repo.LatestEvents(env.Ctx, 10, "game.completed", "game", "")
	if err != nil || len(evts) != 1 {
		t.Fatalf("expected one completion event, got %d %v", len(evts), err)
	}
}

func TestScoresRecordRoundAtThrowTime(t *testing.T) {
	env := newTestEnv(t)
	a := env.player(t, "Ann")
	b := env.player(t, "Bob")
	g, _ := env.Engine.StartGame(env.Ctx, turn.Countdown501, []int64{a.ID, b.ID})
	for i := 0; i < 7; i++ {
		env.throw(t, g.ID, turn.Single, 20)
	}
	scores, err := env.Engine.GameScores(env.Ctx, g.ID)
	if err != nil {
		t.Fatalf("game scores: %v", err)
	}
	wantRounds := []int{1, 1, 1, 1, 1, 1, 2}
	wantPlayers := []int64{a.ID, a.ID, a.ID, b.ID, b.ID, b.ID, a.ID}
	for i, s := range scores {
		if s.Round != wantRounds[i] || s.PlayerID != wantPlayers[i] {
			t.Fatalf("score %d: got round %d player %d", i, s.Round, s.PlayerID)
		}
	}
}

func TestUndoReopensAndRestoresStats(t *testing.T) {
	env := newTestEnv(t)
	a := env.player(t, "Ann")
	g, _ := env.Engine.StartGame(env.Ctx, turn.Countdown101, []int64{a.ID})
	env.throw(t, g.ID, turn.Triple, 20)
	before := env.throw(t, g.ID, turn.Single, 1).Game
	env.throw(t, g.ID, turn.Double, 20)

	undone, err := env.Engine.Undo(env.Ctx, g.ID)
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if undone.Completed || undone.Winner != nil {
		t.Fatalf("undo should reopen the game")
	}
	if undone.State.Players[0].CurrentScore != before.State.Players[0].CurrentScore || undone.State.CurrentThrow != before.State.CurrentThrow {
		t.Fatalf("undo should restore the previous snapshot: %+v vs %+v", undone.State, before.State)
	}
	p, _ := env.Engine.GetPlayer(env.Ctx, a.ID)
	if p.Wins != 0 {
		t.Fatalf("undo should take back the win, got %d", p.Wins)
	}
	scores, _ := env.Engine.GameScores(env.Ctx, g.ID)
	if len(scores) != 2 {
		t.Fatalf("expected 2 scores after undo, got %d", len(scores))
	}

	if _, err := env.Engine.Undo(env.Ctx, g.ID); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if _, err := env.Engine.Undo(env.Ctx, g.ID); err != nil {
		t.Fatalf("undo: %v", err)
	}
	p, _ = env.Engine.GetPlayer(env.Ctx, a.ID)
	if p.HighestScore != 0 {
		t.Fatalf("highest score should be recomputed, got %d", p.HighestScore)
	}
	if _, err := env.Engine.Undo(env.Ctx, g.ID); !errors.Is(err, engine.ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
}

func TestUndoAfterManualReopen(t *testing.T) {
	env := newTestEnv(t)
	a := env.player(t, "Ann")
	g, _ := env.Engine.StartGame(env.Ctx, turn.Countdown101, []int64{a.ID})
	env.throw(t, g.ID, turn.Triple, 20)
	env.throw(t, g.ID, turn.Single, 1)
	env.throw(t, g.ID, turn.Double, 20)
	reopen := false
	if _, err := env.Engine.UpdateGame(env.Ctx, engine.GameUpdateOptions{ID: g.ID, Completed: &reopen}); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	env.throw(t, g.ID, turn.Single, 5)

	undone, err := env.Engine.Undo(env.Ctx, g.ID)
	if err != nil {
		t.Fatalf("undo after reopen: %v", err)
	}
	if undone.Completed || undone.State.Completed || len(undone.State.Throws) != 3 {
		t.Fatalf("undo should leave the reopened game open with 3 darts: %+v", undone.State)
	}
	undone, err = env.Engine.Undo(env.Ctx, g.ID)
	if err != nil {
		t.Fatalf("undo winning dart: %v", err)
	}
	if undone.State.Players[0].CurrentScore != 40 {
		t.Fatalf("expected 40 left, got %d", undone.State.Players[0].CurrentScore)
	}
	p, _ := env.Engine.GetPlayer(env.Ctx, a.ID)
	if p.Wins != 0 {
		t.Fatalf("wins should stay at 0, got %d", p.Wins)
	}
}

func TestConcurrentThrowsAreOrdered(t *testing.T) {
	env := newTestEnv(t)
	a := env.player(t, "Ann")
	b := env.player(t, "Bob")
	g, _ := env.Engine.StartGame(env.Ctx, turn.Countdown501, []int64{a.ID, b.ID})
	th, _ := turn.NewThrow(turn.Single, 1)

	const n = 30
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.Engine.Throw(env.Ctx, g.ID, th); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("throw: %v", err)
	}
	got, err := env.Engine.GetGame(env.Ctx, g.ID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if len(got.State.Throws) != n {
		t.Fatalf("expected %d throws, got %d", n, len(got.State.Throws))
	}
	if got.State.Players[0].CurrentScore != 486 || got.State.Players[1].CurrentScore != 486 {
		t.Fatalf("unexpected scores: %+v", got.State.Players)
	}
	scores, _ := env.Engine.GameScores(env.Ctx, g.ID)
	seen := map[int]bool{}
	for _, s := range scores {
		seen[*s.ThrowIndex] = true
	}
	if len(scores) != n || len(seen) != n {
		t.Fatalf("expected %d distinct throw indexes, got %d/%d", n, len(scores), len(seen))
	}
}

func TestUpdateGameMovesWins(t *testing.T) {
	env := newTestEnv(t)
	a := env.player(t, "Ann")
	b := env.player(t, "Bob")
	g, _ := env.Engine.StartGame(env.Ctx, turn.AroundTheWorld, []int64{a.ID, b.ID})

	winner := a.ID
	g, err := env.Engine.UpdateGame(env.Ctx, engine.GameUpdateOptions{ID: g.ID, Winner: &winner})
	if err != nil {
		t.Fatalf("update game: %v", err)
	}
	if !g.Completed || !g.State.Completed {
		t.Fatalf("winner should complete the game")
	}
	winner = b.ID
	if _, err := env.Engine.UpdateGame(env.Ctx, engine.GameUpdateOptions{ID: g.ID, Winner: &winner}); err != nil {
		t.Fatalf("update game: %v", err)
	}
	pa, _ := env.Engine.GetPlayer(env.Ctx, a.ID)
	pb, _ := env.Engine.GetPlayer(env.Ctx, b.ID)
	if pa.Wins != 0 || pb.Wins != 1 {
		t.Fatalf("win should move to Bob: ann=%d bob=%d", pa.Wins, pb.Wins)
	}
	reopen := false
	if _, err := env.Engine.UpdateGame(env.Ctx, engine.GameUpdateOptions{ID: g.ID, Completed: &reopen}); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	pb, _ = env.Engine.GetPlayer(env.Ctx, b.ID)
	if pb.Wins != 0 {
		t.Fatalf("reopening should take back the win, got %d", pb.Wins)
	}
	done := true
	if _, err := env.Engine.UpdateGame(env.Ctx, engine.GameUpdateOptions{ID: g.ID, Completed: &done}); !errors.Is(err, engine.ErrInvalidInput) {
		t.Fatalf("completing without winner should fail, got %v", err)
	}
	stranger := int64(999)
	if _, err := env.Engine.UpdateGame(env.Ctx, engine.GameUpdateOptions{ID: g.ID, Winner: &stranger}); !errors.Is(err, engine.ErrInvalidInput) {
		t.Fatalf("foreign winner should fail, got %v", err)
	}
}

func TestDeletePlayerPolicy(t *testing.T) {
	env := newTestEnv(t)
	a := env.player(t, "Ann")
	lonely := env.player(t, "Lou")
	if _, err := env.Engine.StartGame(env.Ctx, turn.Countdown301, []int64{a.ID}); err != nil {
		t.Fatalf("start game: %v", err)
	}
	err := env.Engine.DeletePlayer(env.Ctx, a.ID)
	if !errors.Is(err, engine.ErrPlayerInUse) {
		t.Fatalf("expected ErrPlayerInUse, got %v", err)
	}
	if !strings.Contains(err.Error(), "1 game(s), 1 in progress") {
		t.Fatalf("expected active game count, got %v", err)
	}
	if err := env.Engine.DeletePlayer(env.Ctx, lonely.ID); err != nil {
		t.Fatalf("delete player: %v", err)
	}
	if _, err := env.Engine.GetPlayer(env.Ctx, lonely.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := env.Engine.DeletePlayer(env.Ctx, lonely.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestUpdatePlayer(t *testing.T) {
	env := newTestEnv(t)
	a := env.player(t, "Ann")
	name := "  Annie "
	wins := 4
	p, err := env.Engine.UpdatePlayer(env.Ctx, engine.PlayerUpdateOptions{ID: a.ID, Name: &name, Wins: &wins})
	if err != nil {
		t.Fatalf("update player: %v", err)
	}
	if p.Name != "Annie" || p.Wins != 4 {
		t.Fatalf("unexpected player: %+v", p)
	}
	empty := " "
	if _, err := env.Engine.UpdatePlayer(env.Ctx, engine.PlayerUpdateOptions{ID: a.ID, Name: &empty}); !errors.Is(err, engine.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := env.Engine.UpdatePlayer(env.Ctx, engine.PlayerUpdateOptions{ID: 404, Name: &name}); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := env.Engine.CreatePlayer(env.Ctx, ""); !errors.Is(err, engine.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty name, got %v", err)
	}
}

func TestSoloPlayerIsCreatedOnce(t *testing.T) {
	env := newTestEnv(t)
	first, err := env.Engine.SoloPlayer(env.Ctx)
	if err != nil {
		t.Fatalf("solo player: %v", err)
	}
	second, err := env.Engine.SoloPlayer(env.Ctx)
	if err != nil {
		t.Fatalf("solo player: %v", err)
	}
	if first.ID != second.ID || first.Name != "Practice Mode" {
		t.Fatalf("expected one practice player, got %+v and %+v", first, second)
	}
}

func TestRankingsAndHighScores(t *testing.T) {
	env := newTestEnv(t)
	a := env.player(t, "Ann")
	b := env.player(t, "Bob")
	g, _ := env.Engine.StartGame(env.Ctx, turn.Countdown101, []int64{a.ID, b.ID})
	env.throw(t, g.ID, turn.Triple, 19) // Ann 44
	env.throw(t, g.ID, turn.Single, 4)  // Ann 40
	env.throw(t, g.ID, turn.Miss, 0)
	env.throw(t, g.ID, turn.Single, 20) // Bob
	env.throw(t, g.ID, turn.Single, 20)
	env.throw(t, g.ID, turn.Single, 20)
	env.throw(t, g.ID, turn.Double, 20) // Ann wins

	ranks, err := env.Engine.Rankings(env.Ctx, 0)
	if err != nil {
		t.Fatalf("rankings: %v", err)
	}
	if len(ranks) != 2 || ranks[0].Player.ID != a.ID || ranks[0].Rank != 1 {
		t.Fatalf("Ann should rank first: %+v", ranks)
	}
	// Ann: 57+4+0+40 over 4 darts
	if ranks[0].Average != 25.25 || ranks[1].Average != 20 {
		t.Fatalf("unexpected averages: %v %v", ranks[0].Average, ranks[1].Average)
	}
	highs, err := env.Engine.HighScores(env.Ctx, 0)
	if err != nil {
		t.Fatalf("high scores: %v", err)
	}
	if len(highs) != 2 || highs[0].Score != 57 || highs[1].Score != 20 {
		t.Fatalf("unexpected high scores: %+v", highs)
	}
	recent, err := env.Engine.RecentGames(env.Ctx, 0)
	if err != nil || len(recent) != 1 {
		t.Fatalf("expected one recent game, got %d %v", len(recent), err)
	}
}

func TestManualScores(t *testing.T) {
	env := newTestEnv(t)
	a := env.player(t, "Ann")
	b := env.player(t, "Bob")
	g, _ := env.Engine.StartGame(env.Ctx, turn.Countdown501, []int64{a.ID})
	if _, err := env.Engine.CreateScore(env.Ctx, domain.Score{GameID: g.ID, PlayerID: b.ID, Score: 40}); !errors.Is(err, engine.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for outsider, got %v", err)
	}
	if _, err := env.Engine.CreateScore(env.Ctx, domain.Score{GameID: g.ID, PlayerID: a.ID, Score: 181}); !errors.Is(err, engine.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for 181, got %v", err)
	}
	s, err := env.Engine.CreateScore(env.Ctx, domain.Score{GameID: g.ID, PlayerID: a.ID, Score: 140})
	if err != nil {
		t.Fatalf("create score: %v", err)
	}
	if s.Round != 1 || s.ThrowIndex != nil {
		t.Fatalf("unexpected score: %+v", s)
	}
	p, _ := env.Engine.GetPlayer(env.Ctx, a.ID)
	if p.HighestScore != 140 {
		t.Fatalf("expected highest 140, got %d", p.HighestScore)
	}
	if err := env.Engine.DeleteScore(env.Ctx, s.ID); err != nil {
		t.Fatalf("delete score: %v", err)
	}
	p, _ = env.Engine.GetPlayer(env.Ctx, a.ID)
	if p.HighestScore != 0 {
		t.Fatalf("expected highest reset, got %d", p.HighestScore)
	}
}

func TestDeleteGameReversesStats(t *testing.T) {
	env := newTestEnv(t)
	a := env.player(t, "Ann")
	g, _ := env.Engine.StartGame(env.Ctx, turn.Countdown101, []int64{a.ID})
	env.throw(t, g.ID, turn.Triple, 20)
	env.throw(t, g.ID, turn.Single, 1)
	env.throw(t, g.ID, turn.Double, 20)
	if err := env.Engine.DeleteGame(env.Ctx, g.ID); err != nil {
		t.Fatalf("delete game: %v", err)
	}
	p, _ := env.Engine.GetPlayer(env.Ctx, a.ID)
	if p.GamesPlayed != 0 || p.Wins != 0 || p.HighestScore != 0 {
		t.Fatalf("stats should be reversed: %+v", p)
	}
	if _, err := env.Engine.GetGame(env.Ctx, g.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := env.Engine.DeletePlayer(env.Ctx, a.ID); err != nil {
		t.Fatalf("player without games should be deletable: %v", err)
	}
}

func TestCheckThrowAndView(t *testing.T) {
	env := newTestEnv(t)
	a := env.player(t, "Ann")
	g, _ := env.Engine.StartGame(env.Ctx, turn.AroundTheWorld, []int64{a.ID})
	one, _ := turn.NewThrow(turn.Single, 1)
	two, _ := turn.NewThrow(turn.Single, 2)
	check, err := env.Engine.CheckThrow(env.Ctx, g.ID, one)
	if err != nil || !check.ExpectedValid || check.Target != "Hit number 1" {
		t.Fatalf("unexpected check: %+v %v", check, err)
	}
	check, _ = env.Engine.CheckThrow(env.Ctx, g.ID, two)
	if check.ExpectedValid {
		t.Fatalf("single 2 should not be expected at position 1")
	}
	env.throw(t, g.ID, turn.Single, 1)
	view, err := env.Engine.ViewGame(env.Ctx, g.ID)
	if err != nil {
		t.Fatalf("view game: %v", err)
	}
	pv := view.Players[0]
	if view.Label != "Around the World" || pv.Name != "Ann" || pv.Display != "2/21" || pv.Target != "Hit number 2" || !pv.Active {
		t.Fatalf("unexpected view: %+v", view)
	}
}
