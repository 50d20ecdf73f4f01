package domain

import (
	"errors"
	"fmt"
)

// PlayerType selects who decides moves for one side.
type PlayerType uint8

const (
	Human PlayerType = iota
	AutomatedEasy
	AutomatedHard
)

// ErrUnknownPlayerType is returned by ParsePlayerType.
var ErrUnknownPlayerType = errors.New("unknown player type")

// DefaultEasyRandomRate is the share of easy moves picked uniformly at random.
const DefaultEasyRandomRate = 0.7

func (t PlayerType) String() string {
	switch t {
	case AutomatedEasy:
		return "computer-easy"
	case AutomatedHard:
		return "computer-hard"
	default:
		return "human"
	}
}

// Automated reports whether the side is played by the computer.
func (t PlayerType) Automated() bool { return t == AutomatedEasy || t == AutomatedHard }

// ParsePlayerType accepts the names produced by String.
func ParsePlayerType(s string) (PlayerType, error) {
	switch s {
	case "human":
		return Human, nil
	case "computer-easy":
		return AutomatedEasy, nil
	case "computer-hard":
		return AutomatedHard, nil
	}
	return Human, fmt.Errorf("%w: %q", ErrUnknownPlayerType, s)
}

// Rand is the entropy the policy consumes. *rand.Rand from golang.org/x/exp/rand
// satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Policy picks moves for automated sides.
type Policy struct {
	// RandomRate is the probability that an easy player ignores the search.
	RandomRate float64
	Rand       Rand
}

// NewPolicy returns a policy with the default easy mix.
func NewPolicy(r Rand) Policy {
	return Policy{RandomRate: DefaultEasyRandomRate, Rand: r}
}

// SelectMove returns the cell the given player type plays for toMove on b, or
// NoMove for humans and for boards that are already decided.
func (p Policy) SelectMove(b Board, t PlayerType, toMove Cell) int {
	if !t.Automated() || Evaluate(b).Decided() {
		return NoMove
	}
	if t == AutomatedEasy && p.Rand.Float64() < p.RandomRate {
		free := b.EmptyCells()
		return free[p.Rand.Intn(len(free))]
	}
	return BestMove(b, toMove)
}
