package turn

import "fmt"

// GameType identifies a dart game mode. It is fixed at game creation.
type GameType string

const (
	Countdown501   GameType = "501"
	Countdown301   GameType = "301"
	Countdown101   GameType = "101"
	AroundTheWorld GameType = "around-the-world"
	WestToEast     GameType = "west-to-east"
	NorthToSouth   GameType = "north-to-south"
)

// AroundTheWorldLength is the number of targets: wedges 1..20 then the bullseye.
const AroundTheWorldLength = 21

var gameTypes = []GameType{Countdown501, Countdown301, Countdown101, AroundTheWorld, WestToEast, NorthToSouth}

// GameTypes returns every supported game type in catalog order.
func GameTypes() []GameType {
	out := make([]GameType, len(gameTypes))
	copy(out, gameTypes)
	return out
}

// ParseGameType converts a raw string into a known GameType.
func ParseGameType(s string) (GameType, error) {
	g := GameType(s)
	if !g.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownGameType, s)
	}
	return g, nil
}

func (g GameType) Valid() bool {
	for _, t := range gameTypes {
		if t == g {
			return true
		}
	}
	return false
}

func (g GameType) IsCountdown() bool {
	return g == Countdown501 || g == Countdown301 || g == Countdown101
}

func (g GameType) IsSequence() bool {
	return g == WestToEast || g == NorthToSouth
}

// InitialScore is the countdown starting value, 0 for positional modes.
func (g GameType) InitialScore() int {
	switch g {
	case Countdown501:
		return 501
	case Countdown301:
		return 301
	case Countdown101:
		return 101
	}
	return 0
}

// SequenceLength is the number of targets a player must hit to win
// a positional game, 0 for countdown modes.
func (g GameType) SequenceLength() int {
	switch {
	case g == AroundTheWorld:
		return AroundTheWorldLength
	case g.IsSequence():
		return len(PositionalSequence)
	}
	return 0
}

func (g GameType) Label() string {
	if m, ok := modeByType(g); ok {
		return m.Label
	}
	return string(g)
}

// Mode describes a game type for display.
type Mode struct {
	Type        GameType `json:"type"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Rules       []string `json:"rules"`
}

var countdownRules = func(start int) []string {
	return []string{
		fmt.Sprintf("Players start with %d points and take turns throwing three darts per round.", start),
		"The goal is to reduce your score to exactly zero, with the final dart landing in a double or the bullseye.",
		"If a player reduces their score to 1 or below zero, the turn ends and the dart is not counted.",
	}
}

var modes = []Mode{
	{
		Type:        Countdown501,
		Label:       "501",
		Description: "Classic 501. Start with 501 points and try to reach exactly zero.",
		Rules:       countdownRules(501),
	},
	{
		Type:        Countdown301,
		Label:       "301",
		Description: "Start with 301 points and try to reach exactly zero.",
		Rules:       countdownRules(301),
	},
	{
		Type:        Countdown101,
		Label:       "101",
		Description: "Start with 101 points and try to reach exactly zero.",
		Rules:       countdownRules(101),
	},
	{
		Type:        AroundTheWorld,
		Label:       "Around the World",
		Description: "Hit numbers from 1 to 20 in order, then finish on the bullseye.",
		Rules: []string{
			"Players take turns throwing three darts per round, aiming to hit every number from 1 to 20 and finish with the bullseye.",
			"Each number must be hit as a single, in order, before moving to the next.",
			"The first player to complete the sequence wins.",
		},
	},
	{
		Type:        WestToEast,
		Label:       "West to East",
		Description: "Hit double, single, triple, single, outer bull, bullseye, outer bull, single, triple, single, double in order.",
		Rules: []string{
			"Players must hit a sequence across the board: double, single, triple, single, outer bull, bullseye, outer bull, single, triple, single, double.",
			"Only the segment kind counts, the wedge number does not.",
			"The first player to complete the full sequence wins.",
		},
	},
	{
		Type:        NorthToSouth,
		Label:       "North to South",
		Description: "The same sequence as West to East, played top to bottom.",
		Rules: []string{
			"Same sequence as West to East, but the sequence runs vertically on the board.",
			"The first player to complete the full sequence wins.",
		},
	},
}

// Modes returns the game mode catalog.
func Modes() []Mode {
	out := make([]Mode, len(modes))
	for i, m := range modes {
		m.Rules = append([]string(nil), m.Rules...)
		out[i] = m
	}
	return out
}

func modeByType(g GameType) (Mode, bool) {
	for _, m := range modes {
		if m.Type == g {
			return m, true
		}
	}
	return Mode{}, false
}
