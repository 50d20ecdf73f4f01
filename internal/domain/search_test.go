package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBestMoveTieBreakOnEmptyBoard(t *testing.T) {
	// every opening draws, so the lowest index wins the tie
	require.Equal(t, 0, BestMove(Board{}, X))
}

func TestBestMoveAnswersCornerWithCenter(t *testing.T) {
	b := Board{}.With(0, X)
	require.Equal(t, 4, BestMove(b, O))
}

func TestBestMoveTakesImmediateWin(t *testing.T) {
	b := Board{
		X, X, Empty,
		O, O, Empty,
		Empty, Empty, Empty,
	}
	require.Equal(t, 2, BestMove(b, X))

	b = Board{
		X, X, Empty,
		O, O, Empty,
		X, Empty, Empty,
	}
	require.Equal(t, 5, BestMove(b, O))
}

func TestBestMoveBlocks(t *testing.T) {
	b := Board{
		O, O, Empty,
		Empty, X, Empty,
		Empty, Empty, X,
	}
	require.Equal(t, 2, BestMove(b, X))
}

func TestBestMoveLeavesBoardUntouched(t *testing.T) {
	b := Board{
		X, Empty, Empty,
		Empty, O, Empty,
		Empty, Empty, Empty,
	}
	before := b
	BestMove(b, X)
	require.Equal(t, before, b)
}

func TestBestMoveFullBoard(t *testing.T) {
	b := Board{
		X, O, X,
		X, O, O,
		O, X, X,
	}
	require.Equal(t, NoMove, BestMove(b, X))
}

func TestPerfectPlayDraws(t *testing.T) {
	g := New()
	g.SetPlayerType(X, AutomatedHard)
	g.SetPlayerType(O, AutomatedHard)
	g.Start()
	p := NewPolicy(nil)
	for g.State() == InProgress {
		require.True(t, g.AcceptMove(g.NextAutomatedMove(p)))
	}
	require.Equal(t, Outcome{Result: Draw}, g.CurrentOutcome())
	require.Equal(t, 10, g.Len())
}

// neverLoses plays hard for side and every legal reply for the opponent.
func neverLoses(t *testing.T, b Board, toMove, side Cell) {
	t.Helper()
	out := Evaluate(b)
	if out.Decided() {
		require.False(t, out.Result == Won && out.Winner == side.Opponent(), "lost on %v", b)
		return
	}
	if toMove == side {
		i := BestMove(b, toMove)
		require.NotEqual(t, NoMove, i)
		neverLoses(t, b.With(i, toMove), toMove.Opponent(), side)
		return
	}
	for _, i := range b.EmptyCells() {
		neverLoses(t, b.With(i, toMove), toMove.Opponent(), side)
	}
}

func TestHardXNeverLoses(t *testing.T) {
	neverLoses(t, Board{}, X, X)
}

func TestHardONeverLoses(t *testing.T) {
	neverLoses(t, Board{}, X, O)
}
