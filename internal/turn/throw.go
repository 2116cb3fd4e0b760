package turn

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the board segment a dart landed in.
type Kind string

const (
	Single    Kind = "single"
	Double    Kind = "double"
	Triple    Kind = "triple"
	OuterBull Kind = "outerBull"
	Bullseye  Kind = "bullseye"
	Miss      Kind = "miss"
)

func (k Kind) Valid() bool {
	switch k {
	case Single, Double, Triple, OuterBull, Bullseye, Miss:
		return true
	}
	return false
}

// Wedge reports whether the kind needs a wedge number.
func (k Kind) Wedge() bool {
	return k == Single || k == Double || k == Triple
}

func (k Kind) Label() string {
	switch k {
	case Single:
		return "Single"
	case Double:
		return "Double"
	case Triple:
		return "Triple"
	case OuterBull:
		return "Outer Bull"
	case Bullseye:
		return "Bullseye"
	case Miss:
		return "Miss"
	}
	return string(k)
}

// Throw is one dart. Number is set only for wedge kinds.
type Throw struct {
	Kind   Kind `json:"kind"`
	Number int  `json:"number,omitempty"`
}

// NewThrow validates kind and wedge number. Non-wedge kinds carry no number.
func NewThrow(kind Kind, number int) (Throw, error) {
	t := Throw{Kind: kind, Number: number}
	if !kind.Wedge() {
		t.Number = 0
	}
	if err := t.Validate(); err != nil {
		return Throw{}, err
	}
	return t, nil
}

func (t Throw) Validate() error {
	if !t.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidThrow, t.Kind)
	}
	if t.Kind.Wedge() {
		if t.Number < 1 || t.Number > 20 {
			return fmt.Errorf("%w: %s needs a number in 1..20, got %d", ErrInvalidThrow, t.Kind, t.Number)
		}
		return nil
	}
	if t.Number != 0 {
		return fmt.Errorf("%w: %s takes no number", ErrInvalidThrow, t.Kind)
	}
	return nil
}

// Points returns the score of the dart.
func (t Throw) Points() int {
	switch t.Kind {
	case Single:
		return t.Number
	case Double:
		return 2 * t.Number
	case Triple:
		return 3 * t.Number
	case OuterBull:
		return 25
	case Bullseye:
		return 50
	}
	return 0
}

func (t Throw) String() string {
	if t.Kind.Wedge() {
		return fmt.Sprintf("%s %d", t.Kind.Label(), t.Number)
	}
	return t.Kind.Label()
}

// ParseThrow reads board notation: S20 or 20, D16, T19, OB or 25, BULL or 50,
// MISS or 0. Letters are case-insensitive.
func ParseThrow(s string) (Throw, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	switch v {
	case "OB", "25":
		return NewThrow(OuterBull, 0)
	case "BULL", "DB", "50":
		return NewThrow(Bullseye, 0)
	case "MISS", "M", "0":
		return NewThrow(Miss, 0)
	case "":
		return Throw{}, fmt.Errorf("%w: empty throw", ErrInvalidThrow)
	}
	kind := Single
	switch v[0] {
	case 'S':
		v = v[1:]
	case 'D':
		kind, v = Double, v[1:]
	case 'T':
		kind, v = Triple, v[1:]
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return Throw{}, fmt.Errorf("%w: cannot read %q", ErrInvalidThrow, s)
	}
	return NewThrow(kind, n)
}
