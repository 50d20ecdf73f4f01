package domain

// NoMove is returned when there is nothing to play.
const NoMove = -1

const (
	winScore = 10
	infinity = 1000
)

// score rates a finished board from X's point of view. Wins found earlier
// score higher and losses found later score higher.
func score(b *Board, depth int) (int, bool) {
	out := Evaluate(*b)
	switch out.Result {
	case Won:
		if out.Winner == X {
			return winScore - depth, true
		}
		return -winScore + depth, true
	case Draw:
		return 0, true
	}
	return 0, false
}

// minimax returns the value of b with toMove to play. X maximizes, O minimizes.
// b is used as scratch space and is restored before returning.
func minimax(b *Board, depth int, toMove Cell) int {
	if s, done := score(b, depth); done {
		return s
	}
	best := infinity
	if toMove == X {
		best = -infinity
	}
	for i := range b {
		if b[i] != Empty {
			continue
		}
		b[i] = toMove
		v := minimax(b, depth+1, toMove.Opponent())
		b[i] = Empty
		if toMove == X && v > best || toMove == O && v < best {
			best = v
		}
	}
	return best
}

// BestMove runs an exhaustive search and returns the best cell for toMove.
// Ties go to the lowest index. It returns NoMove when b has no empty cell;
// callers must not call it on a decided board.
func BestMove(b Board, toMove Cell) int {
	scratch := b
	move := NoMove
	bestValue := infinity
	if toMove == X {
		bestValue = -infinity
	}
	for i := range scratch {
		if scratch[i] != Empty {
			continue
		}
		scratch[i] = toMove
		v := minimax(&scratch, 0, toMove.Opponent())
		scratch[i] = Empty
		if toMove == X && v > bestValue || toMove == O && v < bestValue {
			bestValue = v
			move = i
		}
	}
	return move
}
