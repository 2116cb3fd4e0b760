package turn

import (
	"math"
	"strconv"
)

const completeLabel = "Complete!"

// ExpectedValid is an advisory pre-check for the active player. A false
// answer never stops ProcessThrow from accepting the throw.
func ExpectedValid(s State, t Throw) bool {
	p, err := s.Current()
	if err != nil {
		return false
	}
	switch {
	case s.GameType.IsCountdown():
		if p.CurrentScore-t.Points() == 0 {
			return t.Kind == Double || t.Kind == Bullseye
		}
		return true
	case s.GameType == AroundTheWorld:
		if p.Position > AroundTheWorldLength {
			return true
		}
		return aroundTheWorldHit(p.Position, t)
	}
	return true
}

// TargetDescription tells the player at index i what to aim for next.
func TargetDescription(s State, i int) string {
	if i < 0 || i >= len(s.Players) {
		return ""
	}
	p := s.Players[i]
	switch {
	case s.GameType.IsCountdown():
		if p.CurrentScore == 0 {
			return completeLabel
		}
		return "Finish on a double"
	case s.GameType == AroundTheWorld:
		if p.Position <= 20 {
			return "Hit number " + strconv.Itoa(p.Position)
		}
		if p.Position == AroundTheWorldLength {
			return "Hit Bullseye"
		}
		return completeLabel
	}
	if p.Position < len(PositionalSequence) {
		return "Hit " + PositionalSequence[p.Position].Label()
	}
	return completeLabel
}

// ScoreDisplay renders the progress of the player at index i.
func ScoreDisplay(s State, i int) string {
	if i < 0 || i >= len(s.Players) {
		return ""
	}
	p := s.Players[i]
	switch {
	case s.GameType.IsCountdown():
		return strconv.Itoa(p.CurrentScore)
	case s.GameType == AroundTheWorld:
		if p.Position > AroundTheWorldLength {
			return completeLabel
		}
		return strconv.Itoa(p.Position) + "/" + strconv.Itoa(AroundTheWorldLength)
	}
	if p.Position >= len(PositionalSequence) {
		return completeLabel
	}
	return strconv.Itoa(p.Position) + "/" + strconv.Itoa(len(PositionalSequence))
}

// AverageScore is the mean points per dart rounded to two decimals.
func AverageScore(points []int) float64 {
	total := 0
	for _, p := range points {
		total += p
	}
	return Mean(total, len(points))
}

// Mean divides total by n rounded to two decimals, 0 when n is 0.
func Mean(total, n int) float64 {
	if n == 0 {
		return 0
	}
	return math.Round(float64(total)/float64(n)*100) / 100
}
