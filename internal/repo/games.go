package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"scoreline/internal/domain"
	"scoreline/internal/turn"
)

const gameColumns = `id,game_type,state_json,winner,completed,created_at,updated_at`

func scanGame(row rowScanner) (domain.Game, error) {
	var (
		g         domain.Game
		stateJSON string
		winner    sql.NullInt64
		completed int
	)
	err := row.Scan(&g.ID, &g.GameType, &stateJSON, &winner, &completed, &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return g, ErrNotFound
	}
	if err != nil {
		return g, err
	}
	state, err := decodeState(stateJSON)
	if err != nil {
		return g, fmt.Errorf("game %d: %w", g.ID, err)
	}
	g.State = state
	g.Completed = completed == 1
	if winner.Valid {
		w := winner.Int64
		g.Winner = &w
	}
	g.PlayerIDs = make([]int64, len(state.Players))
	for i, p := range state.Players {
		g.PlayerIDs[i] = p.PlayerID
	}
	return g, nil
}

// decodeState parses a stored snapshot and checks its invariants.
func decodeState(raw string) (turn.State, error) {
	var s turn.State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return turn.State{}, fmt.Errorf("decode state: %w", err)
	}
	if err := s.Validate(); err != nil {
		return turn.State{}, fmt.Errorf("decode state: %w", err)
	}
	return s, nil
}

func encodeState(s turn.State) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}
	return string(data), nil
}

// InsertGame stores the game with its seat order and returns the new id.
func (r Repo) InsertGame(ctx context.Context, tx *sql.Tx, g domain.Game) (int64, error) {
	stateJSON, err := encodeState(g.State)
	if err != nil {
		return 0, err
	}
	q := r.on(tx)
	res, err := q.ExecContext(ctx, `INSERT INTO games(game_type,state_json,winner,completed,created_at,updated_at) VALUES (?,?,?,?,?,?)`,
		g.GameType, stateJSON, nullableInt64Ptr(g.Winner), boolInt(g.Completed), g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert game: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for seat, p := range g.State.Players {
		if _, err := q.ExecContext(ctx, `INSERT INTO game_players(game_id,player_id,seat) VALUES (?,?,?)`, id, p.PlayerID, seat); err != nil {
			return 0, fmt.Errorf("insert game player: %w", err)
		}
	}
	return id, nil
}

func (r Repo) GetGame(ctx context.Context, id int64) (domain.Game, error) {
	return r.GetGameTx(ctx, nil, id)
}

func (r Repo) GetGameTx(ctx context.Context, tx *sql.Tx, id int64) (domain.Game, error) {
	return scanGame(r.on(tx).QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id=?`, id))
}

// SaveGame writes the snapshot, winner and completion flag of a game.
func (r Repo) SaveGame(ctx context.Context, tx *sql.Tx, g domain.Game) error {
	stateJSON, err := encodeState(g.State)
	if err != nil {
		return err
	}
	res, err := r.on(tx).ExecContext(ctx, `UPDATE games SET state_json=?,winner=?,completed=?,updated_at=? WHERE id=?`,
		stateJSON, nullableInt64Ptr(g.Winner), boolInt(g.Completed), g.UpdatedAt, g.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteGame(ctx context.Context, tx *sql.Tx, id int64) error {
	res, err := r.on(tx).ExecContext(ctx, `DELETE FROM games WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountActiveGames counts in-progress games the player takes part in.
func (r Repo) CountActiveGames(ctx context.Context, tx *sql.Tx, playerID int64) (int, error) {
	var n int
	err := r.on(tx).QueryRowContext(ctx, `SELECT COUNT(*) FROM games g JOIN game_players gp ON gp.game_id=g.id WHERE gp.player_id=? AND g.completed=0`, playerID).Scan(&n)
	return n, err
}

type GameFilters struct {
	PlayerID        int64
	Completed       *bool
	Limit           int
	CursorCreatedAt string
	CursorID        int64
}

// ListGames returns games newest first.
func (r Repo) ListGames(ctx context.Context, f GameFilters) ([]domain.Game, error) {
	clauses := []string{"1=1"}
	var args []any
	if f.PlayerID != 0 {
		clauses = append(clauses, "id IN (SELECT game_id FROM game_players WHERE player_id=?)")
		args = append(args, f.PlayerID)
	}
	if f.Completed != nil {
		clauses = append(clauses, "completed=?")
		args = append(args, boolInt(*f.Completed))
	}
	if f.CursorCreatedAt != "" && f.CursorID != 0 {
		clauses = append(clauses, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, f.CursorCreatedAt, f.CursorCreatedAt, f.CursorID)
	}
	query := `SELECT ` + gameColumns + ` FROM games WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, g)
	}
	return res, rows.Err()
}
