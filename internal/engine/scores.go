package engine

import (
	"context"
	"fmt"

	"scoreline/internal/domain"
	"scoreline/internal/events"
	"scoreline/internal/turn"
)

// maxTurnScore is three triple twenties.
const maxTurnScore = 180

// CreateScore records a manual score entry for a player of a game. A zero
// round defaults to the game's current round.
func (e Engine) CreateScore(ctx context.Context, s domain.Score) (domain.Score, error) {
	if s.Score < 0 || s.Score > maxTurnScore {
		return domain.Score{}, fmt.Errorf("%w: score must be between 0 and %d", ErrInvalidInput, maxTurnScore)
	}
	if s.Round < 0 {
		return domain.Score{}, fmt.Errorf("%w: round must not be negative", ErrInvalidInput)
	}
	unlock := e.lockGame(s.GameID)
	defer unlock()

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Score{}, err
	}
	defer tx.Rollback()

	g, err := e.Repo.GetGameTx(ctx, tx, s.GameID)
	if err != nil {
		return domain.Score{}, err
	}
	if g.State.Index(s.PlayerID) < 0 {
		return domain.Score{}, fmt.Errorf("%w: player %d is not in game %d", ErrInvalidInput, s.PlayerID, s.GameID)
	}
	if s.Round == 0 {
		s.Round = g.State.CurrentRound
	}
	s.ID = 0
	s.ThrowIndex = nil
	s.CreatedAt = e.timestamp()
	if s.ID, err = e.Repo.InsertScore(ctx, tx, s); err != nil {
		return domain.Score{}, err
	}
	if err := e.Repo.RaiseHighestScore(ctx, tx, s.PlayerID, s.Score); err != nil {
		return domain.Score{}, err
	}
	if err := e.events().Append(ctx, tx, events.ScoreCreated, "score", s.ID, events.EventPayload{
		"game_id":   s.GameID,
		"player_id": s.PlayerID,
		"score":     s.Score,
		"round":     s.Round,
	}); err != nil {
		return domain.Score{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Score{}, err
	}
	return s, nil
}

// DeleteScore removes a score and recomputes the player's best score.
func (e Engine) DeleteScore(ctx context.Context, id int64) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	s, err := e.Repo.GetScoreTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := e.Repo.DeleteScore(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Repo.RecomputeHighestScore(ctx, tx, s.PlayerID); err != nil {
		return err
	}
	if err := e.events().Append(ctx, tx, events.ScoreDeleted, "score", id, events.EventPayload{
		"game_id":   s.GameID,
		"player_id": s.PlayerID,
	}); err != nil {
		return err
	}
	return tx.Commit()
}

func (e Engine) GameScores(ctx context.Context, gameID int64) ([]domain.Score, error) {
	if _, err := e.Repo.GetGame(ctx, gameID); err != nil {
		return nil, err
	}
	return e.Repo.GameScores(ctx, gameID)
}

func (e Engine) PlayerScores(ctx context.Context, playerID int64, limit int) ([]domain.Score, error) {
	if _, err := e.Repo.GetPlayer(ctx, playerID); err != nil {
		return nil, err
	}
	return e.Repo.PlayerScores(ctx, playerID, e.limit(limit, 50))
}

// HighScores returns the best score of each player, best first.
func (e Engine) HighScores(ctx context.Context, limit int) ([]domain.HighScore, error) {
	return e.Repo.HighScores(ctx, e.limit(limit, e.config().Listing.HighScores))
}

// Rankings orders players by wins then highest score and fills in the
// average points per recorded dart.
func (e Engine) Rankings(ctx context.Context, limit int) ([]domain.Ranking, error) {
	res, err := e.Repo.Rankings(ctx, e.limit(limit, e.config().Listing.MaxLimit))
	if err != nil {
		return nil, err
	}
	for i := range res {
		res[i].Rank = i + 1
		res[i].Average = turn.Mean(res[i].Points, res[i].Darts)
	}
	return res, nil
}
