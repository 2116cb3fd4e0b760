package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"scoreline/internal/domain"
	"scoreline/internal/events"
	"scoreline/internal/repo"
)

const maxNameLength = 64

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", fmt.Errorf("%w: name longer than %d characters", ErrInvalidInput, maxNameLength)
	}
	return name, nil
}

func (e Engine) CreatePlayer(ctx context.Context, name string) (domain.Player, error) {
	return e.createPlayer(ctx, name, false)
}

func (e Engine) createPlayer(ctx context.Context, name string, solo bool) (domain.Player, error) {
	name, err := normalizeName(name)
	if err != nil {
		return domain.Player{}, err
	}
	p := domain.Player{Name: name, CreatedAt: e.timestamp()}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Player{}, err
	}
	defer tx.Rollback()

	id, err := e.Repo.InsertPlayer(ctx, tx, p, solo)
	if err != nil {
		return domain.Player{}, err
	}
	p.ID = id
	if err := e.events().Append(ctx, tx, events.PlayerCreated, "player", p.ID, events.EventPayload{"name": p.Name, "solo": solo}); err != nil {
		return domain.Player{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Player{}, err
	}
	return p, nil
}

func (e Engine) GetPlayer(ctx context.Context, id int64) (domain.Player, error) {
	return e.Repo.GetPlayer(ctx, id)
}

func (e Engine) ListPlayers(ctx context.Context, limit int, cursor int64) ([]domain.Player, error) {
	return e.Repo.ListPlayers(ctx, limit, cursor)
}

// SoloPlayer returns the practice player, creating it on first use.
func (e Engine) SoloPlayer(ctx context.Context) (domain.Player, error) {
	p, err := e.Repo.SoloPlayerTx(ctx, nil)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return domain.Player{}, err
	}
	p, err = e.createPlayer(ctx, e.config().Defaults.SoloPlayerName, true)
	if err != nil {
		// lost a race against another creator
		if existing, getErr := e.Repo.SoloPlayerTx(ctx, nil); getErr == nil {
			return existing, nil
		}
		return domain.Player{}, err
	}
	return p, nil
}

// PlayerUpdateOptions changes only the fields that are set.
type PlayerUpdateOptions struct {
	ID           int64
	Name         *string
	GamesPlayed  *int
	Wins         *int
	HighestScore *int
}

func (e Engine) UpdatePlayer(ctx context.Context, opts PlayerUpdateOptions) (domain.Player, error) {
	for field, v := range map[string]*int{"games_played": opts.GamesPlayed, "wins": opts.Wins, "highest_score": opts.HighestScore} {
		if v != nil && *v < 0 {
			return domain.Player{}, fmt.Errorf("%w: %s must not be negative", ErrInvalidInput, field)
		}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Player{}, err
	}
	defer tx.Rollback()

	if _, err := e.Repo.GetPlayerTx(ctx, tx, opts.ID); err != nil {
		return domain.Player{}, err
	}
	payload := events.EventPayload{}
	if opts.Name != nil {
		name, err := normalizeName(*opts.Name)
		if err != nil {
			return domain.Player{}, err
		}
		if err := e.Repo.UpdatePlayerName(ctx, tx, opts.ID, name); err != nil {
			return domain.Player{}, err
		}
		payload["name"] = name
	}
	stats := repo.PlayerStats{GamesPlayed: opts.GamesPlayed, Wins: opts.Wins, HighestScore: opts.HighestScore}
	if err := e.Repo.SetPlayerStats(ctx, tx, opts.ID, stats); err != nil {
		return domain.Player{}, err
	}
	if opts.GamesPlayed != nil {
		payload["games_played"] = *opts.GamesPlayed
	}
	if opts.Wins != nil {
		payload["wins"] = *opts.Wins
	}
	if opts.HighestScore != nil {
		payload["highest_score"] = *opts.HighestScore
	}
	if err := e.events().Append(ctx, tx, events.PlayerUpdated, "player", opts.ID, payload); err != nil {
		return domain.Player{}, err
	}
	p, err := e.Repo.GetPlayerTx(ctx, tx, opts.ID)
	if err != nil {
		return domain.Player{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Player{}, err
	}
	return p, nil
}

// DeletePlayer removes a player that never took part in a game. Game
// snapshots keep player ids, so players with history stay.
func (e Engine) DeletePlayer(ctx context.Context, id int64) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := e.Repo.GetPlayerTx(ctx, tx, id); err != nil {
		return err
	}
	n, err := e.Repo.CountPlayerGames(ctx, tx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		active, err := e.Repo.CountActiveGames(ctx, tx, id)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: player %d is in %d game(s), %d in progress", ErrPlayerInUse, id, n, active)
	}
	if err := e.Repo.DeletePlayer(ctx, tx, id); err != nil {
		return err
	}
	if err := e.events().Append(ctx, tx, events.PlayerDeleted, "player", id, nil); err != nil {
		return err
	}
	return tx.Commit()
}
