// Package turn implements the dart game state machine. It is pure: every
// transition takes a state by value and returns a new one.
package turn

import (
	"errors"
	"fmt"
)

var (
	ErrGameCompleted   = errors.New("game already completed")
	ErrInvalidState    = errors.New("invalid game state")
	ErrInvalidThrow    = errors.New("invalid throw")
	ErrUnknownGameType = errors.New("unknown game type")
	ErrNoPlayers       = errors.New("at least one player is required")
	ErrDuplicatePlayer = errors.New("player listed more than once")
)

// ThrowsPerTurn is the number of darts in a turn.
const ThrowsPerTurn = 3

// PositionalSequence is the target list shared by west-to-east and north-to-south.
var PositionalSequence = [...]Kind{Double, Single, Triple, Single, OuterBull, Bullseye, OuterBull, Single, Triple, Single, Double}

// PlayerState is one participant's progress inside a game.
type PlayerState struct {
	PlayerID      int64 `json:"player_id"`
	InitialScore  int   `json:"initial_score"`
	CurrentScore  int   `json:"current_score"`
	Position      int   `json:"position"`
	Throws        []int `json:"throws"`
	Bust          bool  `json:"bust"`
	InvalidFinish bool  `json:"invalid_finish"`
}

// State is the full game aggregate.
type State struct {
	GameType           GameType      `json:"game_type"`
	Players            []PlayerState `json:"players"`
	CurrentPlayerIndex int           `json:"current_player_index"`
	CurrentRound       int           `json:"current_round"`
	CurrentThrow       int           `json:"current_throw"`
	Throws             []Throw       `json:"throws"`
	Completed          bool          `json:"completed"`
	Winner             *int64        `json:"winner,omitempty"`
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	out.Players = make([]PlayerState, len(s.Players))
	for i, p := range s.Players {
		p.Throws = append([]int{}, p.Throws...)
		out.Players[i] = p
	}
	out.Throws = append([]Throw{}, s.Throws...)
	if s.Winner != nil {
		w := *s.Winner
		out.Winner = &w
	}
	return out
}

// Current returns the player whose turn is active.
func (s State) Current() (PlayerState, error) {
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return PlayerState{}, fmt.Errorf("%w: player index %d out of range", ErrInvalidState, s.CurrentPlayerIndex)
	}
	return s.Players[s.CurrentPlayerIndex], nil
}

// Index returns the seat of a player id, or -1.
func (s State) Index(playerID int64) int {
	for i, p := range s.Players {
		if p.PlayerID == playerID {
			return i
		}
	}
	return -1
}

// Validate checks structural invariants of a decoded state.
func (s State) Validate() error {
	if !s.GameType.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownGameType, s.GameType)
	}
	if len(s.Players) == 0 {
		return fmt.Errorf("%w: no players", ErrInvalidState)
	}
	current, err := s.Current()
	if err != nil {
		return err
	}
	if s.CurrentThrow < 0 || s.CurrentThrow >= ThrowsPerTurn {
		return fmt.Errorf("%w: throw counter %d out of range", ErrInvalidState, s.CurrentThrow)
	}
	if len(current.Throws) < s.CurrentThrow {
		return fmt.Errorf("%w: player %d has %d darts but is on dart %d of the turn", ErrInvalidState, current.PlayerID, len(current.Throws), s.CurrentThrow+1)
	}
	if s.CurrentRound < 1 {
		return fmt.Errorf("%w: round %d", ErrInvalidState, s.CurrentRound)
	}
	seen := map[int64]bool{}
	for _, p := range s.Players {
		if seen[p.PlayerID] {
			return fmt.Errorf("%w: %d", ErrDuplicatePlayer, p.PlayerID)
		}
		seen[p.PlayerID] = true
		if p.InitialScore != s.GameType.InitialScore() {
			return fmt.Errorf("%w: player %d initial score %d", ErrInvalidState, p.PlayerID, p.InitialScore)
		}
		if p.CurrentScore < 0 || p.CurrentScore > p.InitialScore {
			return fmt.Errorf("%w: player %d score %d", ErrInvalidState, p.PlayerID, p.CurrentScore)
		}
		if p.Position < 0 || p.Position > maxPosition(s.GameType) {
			return fmt.Errorf("%w: player %d position %d", ErrInvalidState, p.PlayerID, p.Position)
		}
	}
	if s.Completed != (s.Winner != nil) {
		return fmt.Errorf("%w: completed and winner disagree", ErrInvalidState)
	}
	if s.Winner != nil && !seen[*s.Winner] {
		return fmt.Errorf("%w: winner %d is not a player", ErrInvalidState, *s.Winner)
	}
	return nil
}

// maxPosition is the furthest position a player can reach. Around the
// world completes one past its last target.
func maxPosition(g GameType) int {
	if g == AroundTheWorld {
		return AroundTheWorldLength + 1
	}
	return g.SequenceLength()
}

// Initialize builds the starting state for the given rotation order.
func Initialize(gameType GameType, playerIDs []int64) (State, error) {
	if !gameType.Valid() {
		return State{}, fmt.Errorf("%w: %q", ErrUnknownGameType, gameType)
	}
	if len(playerIDs) == 0 {
		return State{}, ErrNoPlayers
	}
	start := 0
	if gameType == AroundTheWorld {
		start = 1
	}
	s := State{
		GameType:     gameType,
		Players:      make([]PlayerState, 0, len(playerIDs)),
		CurrentRound: 1,
		Throws:       []Throw{},
	}
	seen := map[int64]bool{}
	for _, id := range playerIDs {
		if seen[id] {
			return State{}, fmt.Errorf("%w: %d", ErrDuplicatePlayer, id)
		}
		seen[id] = true
		s.Players = append(s.Players, PlayerState{
			PlayerID:     id,
			InitialScore: gameType.InitialScore(),
			CurrentScore: gameType.InitialScore(),
			Position:     start,
			Throws:       []int{},
		})
	}
	return s, nil
}

// Outcome classifies what a single dart did.
type Outcome int

const (
	Scored Outcome = iota
	Bust
	InvalidFinish
	Win
	Hit
	MissedTarget
)

func (o Outcome) String() string {
	switch o {
	case Scored:
		return "scored"
	case Bust:
		return "bust"
	case InvalidFinish:
		return "invalid_finish"
	case Win:
		return "win"
	case Hit:
		return "hit"
	case MissedTarget:
		return "missed_target"
	}
	return "unknown"
}

// endsTurn reports outcomes that finish the turn before the third dart.
func (o Outcome) endsTurn() bool {
	return o == Bust || o == InvalidFinish || o == Win
}

// Result describes a processed throw.
type Result struct {
	PlayerID int64   `json:"player_id"`
	Outcome  Outcome `json:"-"`
	Points   int     `json:"points"`
	Round    int     `json:"round"`
	TurnOver bool    `json:"turn_over"`
}

// ProcessThrow applies one dart and returns the next state.
func ProcessThrow(s State, t Throw) (State, error) {
	next, _, err := Apply(s, t)
	return next, err
}

// Apply is ProcessThrow that also reports what the dart did.
func Apply(s State, t Throw) (State, Result, error) {
	if s.Completed {
		return s, Result{}, ErrGameCompleted
	}
	if err := t.Validate(); err != nil {
		return s, Result{}, err
	}
	if err := s.Validate(); err != nil {
		return s, Result{}, err
	}
	next := s.Clone()
	p := &next.Players[next.CurrentPlayerIndex]
	res := Result{PlayerID: p.PlayerID, Points: t.Points(), Round: next.CurrentRound}

	switch {
	case next.GameType.IsCountdown():
		res.Outcome = applyCountdown(p, t)
	case next.GameType == AroundTheWorld:
		res.Outcome = applyAroundTheWorld(p, t)
	default:
		res.Outcome = applySequence(p, t)
	}

	p.Throws = append(p.Throws, res.Points)
	res.TurnOver = res.Outcome.endsTurn() || next.CurrentThrow == ThrowsPerTurn-1
	if res.TurnOver {
		next.CurrentPlayerIndex = (next.CurrentPlayerIndex + 1) % len(next.Players)
		next.CurrentThrow = 0
		if next.CurrentPlayerIndex == 0 {
			next.CurrentRound++
		}
	} else {
		next.CurrentThrow++
	}
	next.Throws = append(next.Throws, t)
	if res.Outcome == Win {
		winner := res.PlayerID
		next.Completed = true
		next.Winner = &winner
	}
	return next, res, nil
}

func applyCountdown(p *PlayerState, t Throw) Outcome {
	p.Bust = false
	p.InvalidFinish = false
	remaining := p.CurrentScore - t.Points()
	switch {
	case remaining < 0 || remaining == 1:
		p.Bust = true
		return Bust
	case remaining == 0 && t.Kind != Double && t.Kind != Bullseye:
		p.InvalidFinish = true
		return InvalidFinish
	case remaining == 0:
		p.CurrentScore = 0
		return Win
	}
	p.CurrentScore = remaining
	return Scored
}

func applyAroundTheWorld(p *PlayerState, t Throw) Outcome {
	if !aroundTheWorldHit(p.Position, t) {
		return MissedTarget
	}
	p.Position++
	if p.Position > AroundTheWorldLength {
		return Win
	}
	return Hit
}

func aroundTheWorldHit(position int, t Throw) bool {
	if position <= 20 {
		return t.Kind == Single && t.Number == position
	}
	return position == AroundTheWorldLength && t.Kind == Bullseye
}

func applySequence(p *PlayerState, t Throw) Outcome {
	if p.Position >= len(PositionalSequence) || PositionalSequence[p.Position] != t.Kind {
		return MissedTarget
	}
	p.Position++
	if p.Position == len(PositionalSequence) {
		return Win
	}
	return Hit
}

// Replay rebuilds a state from the game-level throw history. A history
// can run past a win when the game was reopened, so a completed state is
// reopened before the next throw is applied.
func Replay(gameType GameType, playerIDs []int64, throws []Throw) (State, error) {
	s, err := Initialize(gameType, playerIDs)
	if err != nil {
		return State{}, err
	}
	for i, t := range throws {
		if s.Completed {
			s.Completed = false
			s.Winner = nil
		}
		s, err = ProcessThrow(s, t)
		if err != nil {
			return State{}, fmt.Errorf("replay throw %d: %w", i, err)
		}
	}
	return s, nil
}
