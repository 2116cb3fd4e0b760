package scorelinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Scoreline HTTP API client.
type Client struct {
	BaseURL    string
	BasePath   string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "/api",
		Timeout:  10 * time.Second,
	}
}

type Player struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	GamesPlayed  int    `json:"games_played"`
	Wins         int    `json:"wins"`
	HighestScore int    `json:"highest_score"`
	CreatedAt    string `json:"created_at"`
}

// PlayerState is one participant inside a game snapshot.
type PlayerState struct {
	PlayerID      int64 `json:"player_id"`
	InitialScore  int   `json:"initial_score"`
	CurrentScore  int   `json:"current_score"`
	Position      int   `json:"position"`
	Throws        []int `json:"throws"`
	Bust          bool  `json:"bust"`
	InvalidFinish bool  `json:"invalid_finish"`
}

type Dart struct {
	Kind   string `json:"kind"`
	Number int    `json:"number,omitempty"`
}

type GameState struct {
	GameType           string        `json:"game_type"`
	Players            []PlayerState `json:"players"`
	CurrentPlayerIndex int           `json:"current_player_index"`
	CurrentRound       int           `json:"current_round"`
	CurrentThrow       int           `json:"current_throw"`
	Throws             []Dart        `json:"throws"`
	Completed          bool          `json:"completed"`
	Winner             *int64        `json:"winner,omitempty"`
}

type Game struct {
	ID        int64     `json:"id"`
	GameType  string    `json:"game_type"`
	Label     string    `json:"label"`
	PlayerIDs []int64   `json:"player_ids"`
	State     GameState `json:"state"`
	Winner    *int64    `json:"winner,omitempty"`
	Completed bool      `json:"completed"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

type Score struct {
	ID         int64  `json:"id"`
	GameID     int64  `json:"game_id"`
	PlayerID   int64  `json:"player_id"`
	Score      int    `json:"score"`
	Round      int    `json:"round"`
	ThrowIndex *int   `json:"throw_index,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// ThrowResult is the server's answer to one dart.
type ThrowResult struct {
	Game      Game   `json:"game"`
	Score     Score  `json:"score"`
	PlayerID  int64  `json:"player_id"`
	Outcome   string `json:"outcome"`
	Points    int    `json:"points"`
	Round     int    `json:"round"`
	TurnOver  bool   `json:"turn_over"`
	TurnTotal int    `json:"turn_total"`
	HighScore bool   `json:"high_score"`
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

// Event represents a log entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id"`
	Payload    map[string]any `json:"payload"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// PaginatedEvents wraps list responses with cursors.
type PaginatedEvents struct {
	Items      []Event `json:"items"`
	NextCursor string  `json:"next_cursor"`
}

func (c *Client) CreatePlayer(ctx context.Context, name string) (Player, error) {
	var resp Player
	err := c.do(ctx, http.MethodPost, "players", map[string]any{"name": name}, &resp)
	return resp, err
}

func (c *Client) GetPlayer(ctx context.Context, id int64) (Player, error) {
	var resp Player
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("players/%d", id), nil, &resp)
	return resp, err
}

// SoloPlayer returns the practice player.
func (c *Client) SoloPlayer(ctx context.Context) (Player, error) {
	var resp struct {
		Items []Player `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "players?solo=true", nil, &resp); err != nil {
		return Player{}, err
	}
	if len(resp.Items) != 1 {
		return Player{}, fmt.Errorf("expected one practice player, got %d", len(resp.Items))
	}
	return resp.Items[0], nil
}

// StartGame starts a game for the players in throwing order.
func (c *Client) StartGame(ctx context.Context, gameType string, playerIDs ...int64) (Game, error) {
	body := map[string]any{
		"game_type":  gameType,
		"player_ids": playerIDs,
	}
	var resp Game
	err := c.do(ctx, http.MethodPost, "games", body, &resp)
	return resp, err
}

func (c *Client) GetGame(ctx context.Context, id int64) (Game, error) {
	var resp Game
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("games/%d", id), nil, &resp)
	return resp, err
}

func (c *Client) RecentGames(ctx context.Context, limit int) ([]Game, error) {
	endpoint := "games/recent"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp []Game
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Throw records a dart for the active player of a game.
func (c *Client) Throw(ctx context.Context, gameID int64, dart Dart) (ThrowResult, error) {
	var resp ThrowResult
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("games/%d/throws", gameID), dart, &resp)
	return resp, err
}

// Undo takes back the last dart of a game.
func (c *Client) Undo(ctx context.Context, gameID int64) (Game, error) {
	var resp Game
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("games/%d/undo", gameID), nil, &resp)
	return resp, err
}

func (c *Client) HighScores(ctx context.Context, limit int) ([]HighScore, error) {
	endpoint := "scores/high"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp []HighScore
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) Rankings(ctx context.Context) ([]Ranking, error) {
	var resp []Ranking
	err := c.do(ctx, http.MethodGet, "rankings", nil, &resp)
	return resp, err
}

// EventsPage returns a paginated event listing, newest first.
func (c *Client) EventsPage(ctx context.Context, limit int, cursor string) (PaginatedEvents, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	endpoint := "events"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp PaginatedEvents
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var env struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &env) == nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	base := strings.TrimRight(c.BaseURL, "/")
	if p := strings.Trim(c.BasePath, "/"); p != "" {
		base += "/" + p
	}
	return base
}
