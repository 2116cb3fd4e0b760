package domain

import "scoreline/internal/turn"

type Player struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	GamesPlayed  int    `json:"games_played"`
	Wins         int    `json:"wins"`
	HighestScore int    `json:"highest_score"`
	CreatedAt    string `json:"created_at" format:"date-time"`
}

type Game struct {
	ID        int64         `json:"id"`
	GameType  turn.GameType `json:"game_type" enum:"501,301,101,around-the-world,west-to-east,north-to-south"`
	PlayerIDs []int64       `json:"player_ids"`
	State     turn.State    `json:"state"`
	Winner    *int64        `json:"winner,omitempty"`
	Completed bool          `json:"completed"`
	CreatedAt string        `json:"created_at" format:"date-time"`
	UpdatedAt string        `json:"updated_at" format:"date-time"`
}

// Score is one recorded dart, or a manual entry when ThrowIndex is nil.
type Score struct {
	ID         int64  `json:"id"`
	GameID     int64  `json:"game_id"`
	PlayerID   int64  `json:"player_id"`
	Score      int    `json:"score"`
	Round      int    `json:"round"`
	ThrowIndex *int   `json:"throw_index,omitempty"`
	CreatedAt  string `json:"created_at" format:"date-time"`
}

type HighScore struct {
	Player Player `json:"player"`
	Score  int    `json:"score"`
}

type Ranking struct {
	Rank    int     `json:"rank"`
	Player  Player  `json:"player"`
	Darts   int     `json:"darts"`
	Points  int     `json:"points"`
	Average float64 `json:"average"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	Payload    string `json:"payload_json"`
}
