package domain

import "strconv"

// State is the lifecycle of a History.
type State uint8

const (
	Idle State = iota
	InProgress
	Finished
)

func (s State) String() string {
	switch s {
	case InProgress:
		return "in-progress"
	case Finished:
		return "finished"
	default:
		return "idle"
	}
}

// History is a linear undo list of boards with a cursor. Entry 0 is always the
// empty board and entry k is the board after k moves. Moving while the cursor
// is behind the last entry drops every entry after the cursor.
type History struct {
	entries []Board
	cursor  int
	state   State
	outcome Outcome
}

// NewHistory returns an idle history holding only the empty board.
func NewHistory() *History {
	return &History{entries: []Board{{}}}
}

// Start begins a new game from the empty board.
func (h *History) Start() {
	h.entries = []Board{{}}
	h.cursor = 0
	h.outcome = Outcome{}
	h.state = InProgress
}

// Restart throws the game away and goes back to Idle.
func (h *History) Restart() {
	h.entries = []Board{{}}
	h.cursor = 0
	h.outcome = Outcome{}
	h.state = Idle
}

// Check reports why a move at index would be rejected, or nil.
func (h *History) Check(index int) error {
	if h.state == Idle {
		return ErrNotStarted
	}
	if index < 0 || index >= len(Board{}) {
		return ErrOutOfBounds
	}
	b := h.entries[h.cursor]
	if Evaluate(b).Decided() {
		return ErrGameOver
	}
	if b[index] != Empty {
		return ErrOccupied
	}
	return nil
}

// AcceptMove plays the side to move at index. Illegal moves are ignored and
// reported by the false return.
func (h *History) AcceptMove(index int) bool {
	if h.Check(index) != nil {
		return false
	}
	next := h.entries[h.cursor].With(index, h.SideToMove())
	h.entries = append(h.entries[:h.cursor+1:h.cursor+1], next)
	h.cursor = len(h.entries) - 1
	h.refresh()
	return true
}

// Rewind moves the cursor to entry without touching the stored entries.
func (h *History) Rewind(entry int) bool {
	if h.state == Idle || entry < 0 || entry >= len(h.entries) {
		return false
	}
	h.cursor = entry
	h.refresh()
	return true
}

func (h *History) refresh() {
	h.outcome = Evaluate(h.entries[h.cursor])
	if h.outcome.Decided() {
		h.state = Finished
	} else {
		h.state = InProgress
	}
}

// CurrentBoard returns the board at the cursor.
func (h *History) CurrentBoard() Board { return h.entries[h.cursor] }

// CurrentOutcome returns the outcome of the board at the cursor.
func (h *History) CurrentOutcome() Outcome { return h.outcome }

// SideToMove follows move-count parity: X on even entries, O on odd ones.
func (h *History) SideToMove() Cell {
	if h.cursor%2 == 0 {
		return X
	}
	return O
}

func (h *History) State() State { return h.state }

// Len is the number of stored entries, including those past the cursor.
func (h *History) Len() int { return len(h.entries) }

func (h *History) Cursor() int { return h.cursor }

func (h *History) Entry(i int) Board { return h.entries[i] }

// Label names entry i for the history list.
func Label(i int) string {
	if i == 0 {
		return "Go to game start"
	}
	return "Go to move #" + strconv.Itoa(i)
}

// Labels returns Label for every stored entry.
func (h *History) Labels() []string {
	out := make([]string, len(h.entries))
	for i := range out {
		out[i] = Label(i)
	}
	return out
}
