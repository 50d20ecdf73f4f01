package domain

// Lines holds every index triple that wins the game: rows, columns, diagonals.
var Lines = [8][3]int{
	// rows
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	// cols
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	// diags
	{0, 4, 8}, {2, 4, 6},
}

// Result classifies a board.
type Result uint8

const (
	Undecided Result = iota
	Won
	Draw
)

// Outcome is the evaluation of a board. Winner is only set when Result is Won.
type Outcome struct {
	Result Result
	Winner Cell
}

// Decided reports whether the outcome is a win or a draw.
func (o Outcome) Decided() bool { return o.Result != Undecided }

func (o Outcome) String() string {
	switch o.Result {
	case Won:
		return "Winner: " + o.Winner.String()
	case Draw:
		return "Draw!"
	default:
		return "None"
	}
}

// Evaluate returns the outcome of b. The first winning line in table order is
// reported; a full board without a line is a draw.
func Evaluate(b Board) Outcome {
	for _, ln := range Lines {
		c := b[ln[0]]
		if c != Empty && c == b[ln[1]] && c == b[ln[2]] {
			return Outcome{Result: Won, Winner: c}
		}
	}
	if b.Full() {
		return Outcome{Result: Draw}
	}
	return Outcome{}
}
