package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"scoreline/internal/domain"
	"scoreline/internal/events"
	"scoreline/internal/repo"
	"scoreline/internal/turn"
)

// StartGame creates a game for the players in rotation order and counts
// it in each player's games played.
func (e Engine) StartGame(ctx context.Context, gameType turn.GameType, playerIDs []int64) (domain.Game, error) {
	state, err := turn.Initialize(gameType, playerIDs)
	if err != nil {
		return domain.Game{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Game{}, err
	}
	defer tx.Rollback()

	for _, id := range playerIDs {
		if _, err := e.Repo.GetPlayerTx(ctx, tx, id); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return domain.Game{}, fmt.Errorf("player %d: %w", id, err)
			}
			return domain.Game{}, err
		}
	}
	now := e.timestamp()
	g := domain.Game{
		GameType:  gameType,
		PlayerIDs: append([]int64(nil), playerIDs...),
		State:     state,
		CreatedAt: now,
		UpdatedAt: now,
	}
	id, err := e.Repo.InsertGame(ctx, tx, g)
	if err != nil {
		return domain.Game{}, err
	}
	g.ID = id
	if err := e.Repo.AddGamesPlayed(ctx, tx, playerIDs, 1); err != nil {
		return domain.Game{}, err
	}
	if err := e.events().Append(ctx, tx, events.GameStarted, "game", g.ID, events.EventPayload{
		"game_type":  string(gameType),
		"player_ids": playerIDs,
	}); err != nil {
		return domain.Game{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Game{}, err
	}
	return g, nil
}

func (e Engine) GetGame(ctx context.Context, id int64) (domain.Game, error) {
	return e.Repo.GetGame(ctx, id)
}

// ListGames returns games newest first, clamped to the listing limit.
func (e Engine) ListGames(ctx context.Context, f repo.GameFilters) ([]domain.Game, error) {
	f.Limit = e.limit(f.Limit, 50)
	return e.Repo.ListGames(ctx, f)
}

func (e Engine) RecentGames(ctx context.Context, limit int) ([]domain.Game, error) {
	return e.Repo.ListGames(ctx, repo.GameFilters{Limit: e.limit(limit, e.config().Listing.RecentGames)})
}

func (e Engine) PlayerGames(ctx context.Context, playerID int64, limit int) ([]domain.Game, error) {
	if _, err := e.Repo.GetPlayer(ctx, playerID); err != nil {
		return nil, err
	}
	return e.Repo.ListGames(ctx, repo.GameFilters{PlayerID: playerID, Limit: e.limit(limit, 50)})
}

// ThrowResult is the outcome of one recorded dart.
type ThrowResult struct {
	Game   domain.Game
	Score  domain.Score
	Result turn.Result
	// TurnTotal sums this dart and the earlier darts of the same turn.
	TurnTotal int
	HighScore bool
}

// Throw applies one dart to a game. Throws against the same game are
// serialized and each one commits in its own transaction.
func (e Engine) Throw(ctx context.Context, gameID int64, t turn.Throw) (ThrowResult, error) {
	if err := t.Validate(); err != nil {
		return ThrowResult{}, err
	}
	unlock := e.lockGame(gameID)
	defer unlock()

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return ThrowResult{}, err
	}
	defer tx.Rollback()

	g, err := e.Repo.GetGameTx(ctx, tx, gameID)
	if err != nil {
		return ThrowResult{}, err
	}
	if g.Completed {
		return ThrowResult{}, fmt.Errorf("game %d: %w", gameID, turn.ErrGameCompleted)
	}
	dartsBefore := g.State.CurrentThrow
	throwIndex := len(g.State.Throws)
	next, res, err := turn.Apply(g.State, t)
	if err != nil {
		return ThrowResult{}, fmt.Errorf("game %d: %w", gameID, err)
	}
	now := e.timestamp()

	player := next.Players[next.Index(res.PlayerID)]
	turnTotal := 0
	for _, pts := range player.Throws[len(player.Throws)-dartsBefore-1:] {
		turnTotal += pts
	}

	score := domain.Score{
		GameID:     gameID,
		PlayerID:   res.PlayerID,
		Score:      res.Points,
		Round:      res.Round,
		ThrowIndex: &throwIndex,
		CreatedAt:  now,
	}
	if score.ID, err = e.Repo.InsertScore(ctx, tx, score); err != nil {
		return ThrowResult{}, err
	}
	if err := e.Repo.RaiseHighestScore(ctx, tx, res.PlayerID, res.Points); err != nil {
		return ThrowResult{}, err
	}

	g.State = next
	g.Completed = next.Completed
	g.Winner = next.Winner
	g.UpdatedAt = now
	if err := e.Repo.SaveGame(ctx, tx, g); err != nil {
		return ThrowResult{}, err
	}
	w := e.events()
	if err := w.Append(ctx, tx, events.GameThrow, "game", gameID, events.EventPayload{
		"player_id":   res.PlayerID,
		"kind":        string(t.Kind),
		"number":      t.Number,
		"points":      res.Points,
		"outcome":     res.Outcome.String(),
		"round":       res.Round,
		"throw_index": throwIndex,
	}); err != nil {
		return ThrowResult{}, err
	}
	if next.Completed {
		if err := e.Repo.AddWins(ctx, tx, *next.Winner, 1); err != nil {
			return ThrowResult{}, err
		}
		if err := w.Append(ctx, tx, events.GameCompleted, "game", gameID, events.EventPayload{
			"winner": *next.Winner,
			"rounds": next.CurrentRound,
		}); err != nil {
			return ThrowResult{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return ThrowResult{}, err
	}
	return ThrowResult{
		Game:      g,
		Score:     score,
		Result:    res,
		TurnTotal: turnTotal,
		HighScore: turnTotal >= e.config().Scoring.HighScoreThreshold,
	}, nil
}

// Undo removes the last dart of a game by replaying the rest of its
// history. A completed game is reopened and its win taken back.
func (e Engine) Undo(ctx context.Context, gameID int64) (domain.Game, error) {
	unlock := e.lockGame(gameID)
	defer unlock()

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Game{}, err
	}
	defer tx.Rollback()

	g, err := e.Repo.GetGameTx(ctx, tx, gameID)
	if err != nil {
		return domain.Game{}, err
	}
	history := g.State.Throws
	if len(history) == 0 {
		return domain.Game{}, fmt.Errorf("game %d: %w", gameID, ErrNothingToUndo)
	}
	last := len(history) - 1
	prev, err := turn.Replay(g.GameType, g.PlayerIDs, history[:last])
	if err != nil {
		return domain.Game{}, fmt.Errorf("game %d: %w", gameID, err)
	}
	// The undone dart was thrown after a manual reopen.
	if prev.Completed {
		prev.Completed = false
		prev.Winner = nil
	}
	thrower, err := prev.Current()
	if err != nil {
		return domain.Game{}, err
	}
	if g.Completed && g.Winner != nil {
		if err := e.Repo.AddWins(ctx, tx, *g.Winner, -1); err != nil {
			return domain.Game{}, err
		}
	}
	if err := e.Repo.DeleteThrowScore(ctx, tx, gameID, last); err != nil {
		return domain.Game{}, err
	}
	if err := e.Repo.RecomputeHighestScore(ctx, tx, thrower.PlayerID); err != nil {
		return domain.Game{}, err
	}
	undone := history[last]
	g.State = prev
	g.Completed = prev.Completed
	g.Winner = prev.Winner
	g.UpdatedAt = e.timestamp()
	if err := e.Repo.SaveGame(ctx, tx, g); err != nil {
		return domain.Game{}, err
	}
	if err := e.events().Append(ctx, tx, events.GameUndo, "game", gameID, events.EventPayload{
		"player_id":   thrower.PlayerID,
		"kind":        string(undone.Kind),
		"number":      undone.Number,
		"throw_index": last,
	}); err != nil {
		return domain.Game{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Game{}, err
	}
	return g, nil
}

// GameUpdateOptions overrides the outcome of a game. Setting a winner
// implies completion; Completed=false reopens the game.
type GameUpdateOptions struct {
	ID        int64
	Completed *bool
	Winner    *int64
}

func (e Engine) UpdateGame(ctx context.Context, opts GameUpdateOptions) (domain.Game, error) {
	unlock := e.lockGame(opts.ID)
	defer unlock()

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Game{}, err
	}
	defer tx.Rollback()

	g, err := e.Repo.GetGameTx(ctx, tx, opts.ID)
	if err != nil {
		return domain.Game{}, err
	}
	completed := g.Completed
	winner := g.Winner
	if opts.Completed != nil {
		completed = *opts.Completed
		if !completed {
			winner = nil
		}
	}
	if opts.Winner != nil {
		if opts.Completed != nil && !*opts.Completed {
			return domain.Game{}, fmt.Errorf("%w: winner requires a completed game", ErrInvalidInput)
		}
		if g.State.Index(*opts.Winner) < 0 {
			return domain.Game{}, fmt.Errorf("%w: player %d is not in game %d", ErrInvalidInput, *opts.Winner, g.ID)
		}
		w := *opts.Winner
		winner = &w
		completed = true
	}
	if completed && winner == nil {
		return domain.Game{}, fmt.Errorf("%w: a completed game needs a winner", ErrInvalidInput)
	}
	if err := e.moveWin(ctx, tx, g.Winner, winner); err != nil {
		return domain.Game{}, err
	}
	g.Completed = completed
	g.Winner = winner
	g.State.Completed = completed
	g.State.Winner = winner
	g.UpdatedAt = e.timestamp()
	if err := e.Repo.SaveGame(ctx, tx, g); err != nil {
		return domain.Game{}, err
	}
	payload := events.EventPayload{"completed": completed}
	if winner != nil {
		payload["winner"] = *winner
	}
	if err := e.events().Append(ctx, tx, events.GameUpdated, "game", g.ID, payload); err != nil {
		return domain.Game{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Game{}, err
	}
	return g, nil
}

// moveWin shifts a win from the old winner to the new one.
func (e Engine) moveWin(ctx context.Context, tx *sql.Tx, from, to *int64) error {
	if from != nil && to != nil && *from == *to {
		return nil
	}
	if from != nil {
		if err := e.Repo.AddWins(ctx, tx, *from, -1); err != nil {
			return err
		}
	}
	if to != nil {
		if err := e.Repo.AddWins(ctx, tx, *to, 1); err != nil {
			return err
		}
	}
	return nil
}

// DeleteGame removes a game with its scores and reverses the stats it
// contributed.
func (e Engine) DeleteGame(ctx context.Context, id int64) error {
	unlock := e.lockGame(id)
	defer unlock()

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	g, err := e.Repo.GetGameTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := e.Repo.DeleteGame(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Repo.AddGamesPlayed(ctx, tx, g.PlayerIDs, -1); err != nil {
		return err
	}
	if err := e.moveWin(ctx, tx, g.Winner, nil); err != nil {
		return err
	}
	for _, pid := range g.PlayerIDs {
		if err := e.Repo.RecomputeHighestScore(ctx, tx, pid); err != nil {
			return err
		}
	}
	if err := e.events().Append(ctx, tx, events.GameDeleted, "game", id, events.EventPayload{"game_type": string(g.GameType)}); err != nil {
		return err
	}
	return tx.Commit()
}

// ThrowCheck is the advisory answer for a throw the active player may make.
type ThrowCheck struct {
	PlayerID      int64
	ExpectedValid bool
	Target        string
	Points        int
}

func (e Engine) CheckThrow(ctx context.Context, gameID int64, t turn.Throw) (ThrowCheck, error) {
	if err := t.Validate(); err != nil {
		return ThrowCheck{}, err
	}
	g, err := e.Repo.GetGame(ctx, gameID)
	if err != nil {
		return ThrowCheck{}, err
	}
	if g.Completed {
		return ThrowCheck{}, fmt.Errorf("game %d: %w", gameID, turn.ErrGameCompleted)
	}
	p, err := g.State.Current()
	if err != nil {
		return ThrowCheck{}, err
	}
	return ThrowCheck{
		PlayerID:      p.PlayerID,
		ExpectedValid: turn.ExpectedValid(g.State, t),
		Target:        turn.TargetDescription(g.State, g.State.CurrentPlayerIndex),
		Points:        t.Points(),
	}, nil
}

// PlayerView is a participant as shown on a scoreboard.
type PlayerView struct {
	PlayerID      int64
	Name          string
	Display       string
	Target        string
	Average       float64
	Darts         int
	Bust          bool
	InvalidFinish bool
	Active        bool
}

type GameView struct {
	Game    domain.Game
	Label   string
	Players []PlayerView
}

// ViewGame renders a game with player names and progress strings.
func (e Engine) ViewGame(ctx context.Context, id int64) (GameView, error) {
	g, err := e.Repo.GetGame(ctx, id)
	if err != nil {
		return GameView{}, err
	}
	players, err := e.Repo.PlayersByID(ctx, g.PlayerIDs)
	if err != nil {
		return GameView{}, err
	}
	v := GameView{Game: g, Label: g.GameType.Label()}
	for i, ps := range g.State.Players {
		v.Players = append(v.Players, PlayerView{
			PlayerID:      ps.PlayerID,
			Name:          players[ps.PlayerID].Name,
			Display:       turn.ScoreDisplay(g.State, i),
			Target:        turn.TargetDescription(g.State, i),
			Average:       turn.AverageScore(ps.Throws),
			Darts:         len(ps.Throws),
			Bust:          ps.Bust,
			InvalidFinish: ps.InvalidFinish,
			Active:        !g.Completed && i == g.State.CurrentPlayerIndex,
		})
	}
	return v, nil
}
