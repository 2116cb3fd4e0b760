package repo

import (
	"context"
	"database/sql"
	"fmt"

	"scoreline/internal/domain"
)

const scoreColumns = `id,game_id,player_id,score,round,throw_index,created_at`

func scanScore(row rowScanner) (domain.Score, error) {
	var (
		s   domain.Score
		idx sql.NullInt64
	)
	err := row.Scan(&s.ID, &s.GameID, &s.PlayerID, &s.Score, &s.Round, &idx, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	if idx.Valid {
		v := int(idx.Int64)
		s.ThrowIndex = &v
	}
	return s, err
}

func (r Repo) InsertScore(ctx context.Context, tx *sql.Tx, s domain.Score) (int64, error) {
	res, err := r.on(tx).ExecContext(ctx, `INSERT INTO scores(game_id,player_id,score,round,throw_index,created_at) VALUES (?,?,?,?,?,?)`,
		s.GameID, s.PlayerID, s.Score, s.Round, nullableIntPtr(s.ThrowIndex), s.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert score: %w", err)
	}
	return res.LastInsertId()
}

func (r Repo) GetScoreTx(ctx context.Context, tx *sql.Tx, id int64) (domain.Score, error) {
	return scanScore(r.on(tx).QueryRowContext(ctx, `SELECT `+scoreColumns+` FROM scores WHERE id=?`, id))
}

func (r Repo) DeleteScore(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := r.on(tx).ExecContext(ctx, `DELETE FROM scores WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteThrowScore removes the score recorded for one dart of a game.
// A missing row is not an error: manual edits may have removed it.
func (r Repo) DeleteThrowScore(ctx context.Context, tx *sql.Tx, gameID int64, throwIndex int) error {
	_, err := r.on(tx).ExecContext(ctx, `DELETE FROM scores WHERE game_id=? AND throw_index=?`, gameID, throwIndex)
	return err
}

func (r Repo) listScores(ctx context.Context, query string, args ...any) ([]domain.Score, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Score
	for rows.Next() {
		s, err := scanScore(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// GameScores returns the scores of a game ordered by round.
func (r Repo) GameScores(ctx context.Context, gameID int64) ([]domain.Score, error) {
	return r.listScores(ctx, `SELECT `+scoreColumns+` FROM scores WHERE game_id=? ORDER BY round ASC, id ASC`, gameID)
}

// PlayerScores returns the newest scores of a player.
func (r Repo) PlayerScores(ctx context.Context, playerID int64, limit int) ([]domain.Score, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.listScores(ctx, `SELECT `+scoreColumns+` FROM scores WHERE player_id=? ORDER BY id DESC LIMIT ?`, playerID, limit)
}

// HighScores returns the best recorded score of each player, best first.
func (r Repo) HighScores(ctx context.Context, limit int) ([]domain.HighScore, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT p.id,p.name,p.games_played,p.wins,p.highest_score,p.created_at,MAX(s.score) AS best
FROM scores s JOIN players p ON p.id=s.player_id
GROUP BY p.id ORDER BY best DESC, p.id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.HighScore
	for rows.Next() {
		var h domain.HighScore
		p := &h.Player
		if err := rows.Scan(&p.ID, &p.Name, &p.GamesPlayed, &p.Wins, &p.HighestScore, &p.CreatedAt, &h.Score); err != nil {
			return nil, err
		}
		res = append(res, h)
	}
	return res, rows.Err()
}

// Rankings returns every player with dart totals, ordered by wins then
// highest score. Rank and Average are left for the caller.
func (r Repo) Rankings(ctx context.Context, limit int) ([]domain.Ranking, error) {
	query := `SELECT p.id,p.name,p.games_played,p.wins,p.highest_score,p.created_at,COUNT(s.id),COALESCE(SUM(s.score),0)
FROM players p LEFT JOIN scores s ON s.player_id=p.id
GROUP BY p.id ORDER BY p.wins DESC, p.highest_score DESC, p.id ASC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Ranking
	for rows.Next() {
		var rk domain.Ranking
		p := &rk.Player
		if err := rows.Scan(&p.ID, &p.Name, &p.GamesPlayed, &p.Wins, &p.HighestScore, &p.CreatedAt, &rk.Darts, &rk.Points); err != nil {
			return nil, err
		}
		res = append(res, rk)
	}
	return res, rows.Err()
}
