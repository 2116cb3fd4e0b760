package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"scoreline/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// on picks the transaction when one is given. The pool holds a single
// connection, so reads inside a transaction must go through it.
func (r Repo) on(tx *sql.Tx) querier {
	if tx != nil {
		return tx
	}
	return r.DB
}

const playerColumns = `id,name,games_played,wins,highest_score,created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (domain.Player, error) {
	var p domain.Player
	err := row.Scan(&p.ID, &p.Name, &p.GamesPlayed, &p.Wins, &p.HighestScore, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	return p, err
}

// InsertPlayer stores a player and returns its assigned id.
func (r Repo) InsertPlayer(ctx context.Context, tx *sql.Tx, p domain.Player, solo bool) (int64, error) {
	res, err := r.on(tx).ExecContext(ctx, `INSERT INTO players(name,games_played,wins,highest_score,solo,created_at) VALUES (?,?,?,?,?,?)`,
		p.Name, p.GamesPlayed, p.Wins, p.HighestScore, boolInt(solo), p.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert player: %w", err)
	}
	return res.LastInsertId()
}

func (r Repo) GetPlayer(ctx context.Context, id int64) (domain.Player, error) {
	return r.GetPlayerTx(ctx, nil, id)
}

func (r Repo) GetPlayerTx(ctx context.Context, tx *sql.Tx, id int64) (domain.Player, error) {
	return scanPlayer(r.on(tx).QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id=?`, id))
}

// SoloPlayerTx returns the practice player, ErrNotFound if none exists yet.
func (r Repo) SoloPlayerTx(ctx context.Context, tx *sql.Tx) (domain.Player, error) {
	return scanPlayer(r.on(tx).QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE solo=1`))
}

// ListPlayers returns players in id order after the cursor.
func (r Repo) ListPlayers(ctx context.Context, limit int, cursor int64) ([]domain.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id>? ORDER BY id ASC`
	args := []any{cursor}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// PlayersByID loads the given players keyed by id.
func (r Repo) PlayersByID(ctx context.Context, ids []int64) (map[int64]domain.Player, error) {
	res := map[int64]domain.Player{}
	if len(ids) == 0 {
		return res, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT `+playerColumns+` FROM players WHERE id IN (%s)`, placeholders(len(ids)))
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		res[p.ID] = p
	}
	return res, rows.Err()
}

func (r Repo) UpdatePlayerName(ctx context.Context, tx *sql.Tx, id int64, name string) error {
	res, err := r.on(tx).ExecContext(ctx, `UPDATE players SET name=? WHERE id=?`, name, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// PlayerStats are absolute overrides for the counters of a player.
type PlayerStats struct {
	GamesPlayed  *int
	Wins         *int
	HighestScore *int
}

func (r Repo) SetPlayerStats(ctx context.Context, tx *sql.Tx, id int64, stats PlayerStats) error {
	var (
		fields []string
		args   []any
	)
	if stats.GamesPlayed != nil {
		fields = append(fields, "games_played=?")
		args = append(args, *stats.GamesPlayed)
	}
	if stats.Wins != nil {
		fields = append(fields, "wins=?")
		args = append(args, *stats.Wins)
	}
	if stats.HighestScore != nil {
		fields = append(fields, "highest_score=?")
		args = append(args, *stats.HighestScore)
	}
	if len(fields) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.on(tx).ExecContext(ctx, fmt.Sprintf(`UPDATE players SET %s WHERE id=?`, strings.Join(fields, ",")), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeletePlayer(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := r.on(tx).ExecContext(ctx, `DELETE FROM players WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddGamesPlayed adjusts games_played for each player, never below zero.
func (r Repo) AddGamesPlayed(ctx context.Context, tx *sql.Tx, ids []int64, delta int) error {
	for _, id := range ids {
		if _, err := r.on(tx).ExecContext(ctx, `UPDATE players SET games_played=MAX(games_played+?,0) WHERE id=?`, delta, id); err != nil {
			return fmt.Errorf("update games played for %d: %w", id, err)
		}
	}
	return nil
}

// AddWins adjusts the win counter, never below zero.
func (r Repo) AddWins(ctx context.Context, tx *sql.Tx, id int64, delta int) error {
	_, err := r.on(tx).ExecContext(ctx, `UPDATE players SET wins=MAX(wins+?,0) WHERE id=?`, delta, id)
	return err
}

func (r Repo) RaiseHighestScore(ctx context.Context, tx *sql.Tx, id int64, score int) error {
	_, err := r.on(tx).ExecContext(ctx, `UPDATE players SET highest_score=MAX(highest_score,?) WHERE id=?`, score, id)
	return err
}

// RecomputeHighestScore resets highest_score from the recorded scores.
func (r Repo) RecomputeHighestScore(ctx context.Context, tx *sql.Tx, id int64) error {
	_, err := r.on(tx).ExecContext(ctx, `UPDATE players SET highest_score=(SELECT COALESCE(MAX(score),0) FROM scores WHERE player_id=?) WHERE id=?`, id, id)
	return err
}

// CountPlayerGames returns how many games the player takes part in.
func (r Repo) CountPlayerGames(ctx context.Context, tx *sql.Tx, id int64) (int, error) {
	var n int
	err := r.on(tx).QueryRowContext(ctx, `SELECT COUNT(*) FROM game_players WHERE player_id=?`, id).Scan(&n)
	return n, err
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullableInt64Ptr(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableIntPtr(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
