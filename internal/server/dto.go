package server

import (
	"encoding/json"

	"scoreline/internal/domain"
	"scoreline/internal/engine"
	"scoreline/internal/turn"
)

// Request payloads

type CreatePlayerRequest struct {
	Name string `json:"name" minLength:"1" maxLength:"64"`
}

type UpdatePlayerRequest struct {
	Name         *string `json:"name,omitempty" minLength:"1" maxLength:"64"`
	GamesPlayed  *int    `json:"games_played,omitempty" minimum:"0"`
	Wins         *int    `json:"wins,omitempty" minimum:"0"`
	HighestScore *int    `json:"highest_score,omitempty" minimum:"0"`
}

type CreateGameRequest struct {
	GameType  string  `json:"game_type" enum:"501,301,101,around-the-world,west-to-east,north-to-south"`
	PlayerIDs []int64 `json:"player_ids" minItems:"1"`
}

type UpdateGameRequest struct {
	Completed *bool  `json:"completed,omitempty"`
	Winner    *int64 `json:"winner,omitempty"`
}

type ThrowRequest struct {
	Kind   string `json:"kind" enum:"single,double,triple,outerBull,bullseye,miss"`
	Number int    `json:"number,omitempty" minimum:"0" maximum:"20"`
}

func (r ThrowRequest) throw() (turn.Throw, error) {
	return turn.NewThrow(turn.Kind(r.Kind), r.Number)
}

type CreateScoreRequest struct {
	GameID   int64 `json:"game_id"`
	PlayerID int64 `json:"player_id"`
	Score    int   `json:"score" minimum:"0" maximum:"180"`
	Round    int   `json:"round,omitempty" minimum:"0"`
}

// Response payloads

type GameResponse struct {
	ID        int64      `json:"id"`
	GameType  string     `json:"game_type" enum:"501,301,101,around-the-world,west-to-east,north-to-south"`
	Label     string     `json:"label"`
	PlayerIDs []int64    `json:"player_ids"`
	State     turn.State `json:"state"`
	Winner    *int64     `json:"winner,omitempty"`
	Completed bool       `json:"completed"`
	CreatedAt string     `json:"created_at" format:"date-time"`
	UpdatedAt string     `json:"updated_at" format:"date-time"`
}

type ThrowResponse struct {
	Game      GameResponse `json:"game"`
	Score     domain.Score `json:"score"`
	PlayerID  int64        `json:"player_id"`
	Outcome   string       `json:"outcome" enum:"scored,bust,invalid_finish,win,hit,missed_target"`
	Points    int          `json:"points"`
	Round     int          `json:"round"`
	TurnOver  bool         `json:"turn_over"`
	TurnTotal int          `json:"turn_total"`
	HighScore bool         `json:"high_score"`
}

type ThrowCheckResponse struct {
	PlayerID      int64  `json:"player_id"`
	ExpectedValid bool   `json:"expected_valid"`
	Target        string `json:"target"`
	Points        int    `json:"points"`
}

type PlayerViewResponse struct {
	PlayerID      int64   `json:"player_id"`
	Name          string  `json:"name"`
	Display       string  `json:"display"`
	Target        string  `json:"target"`
	Average       float64 `json:"average"`
	Darts         int     `json:"darts"`
	Bust          bool    `json:"bust"`
	InvalidFinish bool    `json:"invalid_finish"`
	Active        bool    `json:"active"`
}

type GameViewResponse struct {
	Game    GameResponse         `json:"game"`
	Players []PlayerViewResponse `json:"players"`
}

type EventResponse struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	PayloadRaw string         `json:"payload_raw,omitempty"`
}

type paginatedPlayers struct {
	Items      []domain.Player `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type paginatedGames struct {
	Items      []GameResponse `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

type paginatedEvents struct {
	Items      []EventResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

func gameResponse(g domain.Game) GameResponse {
	return GameResponse{
		ID:        g.ID,
		GameType:  string(g.GameType),
		Label:     g.GameType.Label(),
		PlayerIDs: g.PlayerIDs,
		State:     g.State,
		Winner:    g.Winner,
		Completed: g.Completed,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

func mapGames(items []domain.Game) []GameResponse {
	out := make([]GameResponse, 0, len(items))
	for _, g := range items {
		out = append(out, gameResponse(g))
	}
	return out
}

func throwResponse(r engine.ThrowResult) ThrowResponse {
	return ThrowResponse{
		Game:      gameResponse(r.Game),
		Score:     r.Score,
		PlayerID:  r.Result.PlayerID,
		Outcome:   r.Result.Outcome.String(),
		Points:    r.Result.Points,
		Round:     r.Result.Round,
		TurnOver:  r.Result.TurnOver,
		TurnTotal: r.TurnTotal,
		HighScore: r.HighScore,
	}
}

func gameViewResponse(v engine.GameView) GameViewResponse {
	resp := GameViewResponse{Game: gameResponse(v.Game), Players: []PlayerViewResponse{}}
	for _, p := range v.Players {
		resp.Players = append(resp.Players, PlayerViewResponse{
			PlayerID:      p.PlayerID,
			Name:          p.Name,
			Display:       p.Display,
			Target:        p.Target,
			Average:       p.Average,
			Darts:         p.Darts,
			Bust:          p.Bust,
			InvalidFinish: p.InvalidFinish,
			Active:        p.Active,
		})
	}
	return resp
}

func eventResponse(evt domain.Event) EventResponse {
	resp := EventResponse{
		ID:         evt.ID,
		TS:         evt.TS,
		Type:       evt.Type,
		EntityKind: evt.EntityKind,
		EntityID:   evt.EntityID,
	}
	if evt.Payload != "" {
		var payload map[string]any
		if err := json.Unmarshal([]byte(evt.Payload), &payload); err == nil {
			resp.Payload = payload
		} else {
			resp.PayloadRaw = evt.Payload
		}
	}
	return resp
}
