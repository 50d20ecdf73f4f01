package domain

import "errors"

// Cell represents a board cell state.
type Cell uint8

const (
	Empty Cell = iota
	X
	O
)

func (c Cell) String() string {
	switch c {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return ""
	}
}

// Opponent returns the other mark. Empty has no opponent.
func (c Cell) Opponent() Cell {
	switch c {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// Board is a fixed 3x3 board stored row-major.
type Board [9]Cell

// With returns a copy of b with index set to c.
func (b Board) With(index int, c Cell) Board {
	b[index] = c
	return b
}

// EmptyCells lists free indices in ascending order.
func (b Board) EmptyCells() []int {
	out := make([]int, 0, len(b))
	for i, c := range b {
		if c == Empty {
			out = append(out, i)
		}
	}
	return out
}

// Full reports whether no cell is empty.
func (b Board) Full() bool {
	for _, c := range b {
		if c == Empty {
			return false
		}
	}
	return true
}

// Errors describing why a move is rejected.
var (
	ErrNotStarted  = errors.New("game not started")
	ErrOutOfBounds = errors.New("out of bounds")
	ErrOccupied    = errors.New("cell occupied")
	ErrGameOver    = errors.New("game over")
)

// Game couples a History with the player type configured for each side.
type Game struct {
	*History
	x, o PlayerType
}

// New returns an idle game with both sides played by humans.
func New() *Game {
	return &Game{History: NewHistory()}
}

// SetPlayerType configures side. Sides other than X and O are ignored.
func (g *Game) SetPlayerType(side Cell, t PlayerType) {
	switch side {
	case X:
		g.x = t
	case O:
		g.o = t
	}
}

// PlayerType returns the configured type for side.
func (g *Game) PlayerType(side Cell) PlayerType {
	if side == O {
		return g.o
	}
	return g.x
}

// AutomatedTurn reports whether the game is running and the side to move is
// played by the computer.
func (g *Game) AutomatedTurn() bool {
	return g.State() == InProgress && g.PlayerType(g.SideToMove()).Automated()
}

// NextAutomatedMove asks p for the move of the side to move. It returns NoMove
// when the side is human or the game is not in progress.
func (g *Game) NextAutomatedMove(p Policy) int {
	if !g.AutomatedTurn() {
		return NoMove
	}
	side := g.SideToMove()
	return p.SelectMove(g.CurrentBoard(), g.PlayerType(side), side)
}

// Clone returns a deep copy of g.
func (g *Game) Clone() *Game {
	h := *g.History
	h.entries = append([]Board(nil), g.History.entries...)
	return &Game{History: &h, x: g.x, o: g.o}
}
