package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jaminalder/tictactoe/internal/domain"
	"github.com/stretchr/testify/require"
)

// minimal renderer for tests: encode cursor as bytes
func testRenderer(gs GameState) []byte { return []byte(fmt.Sprintf("moves=%d", gs.Game.Cursor())) }

func newTestService(opts ...Option) *Service {
	opts = append([]Option{WithRenderer(testRenderer), WithDelay(0, 0), WithSeed(1)}, opts...)
	return NewService(opts...)
}

// waitFor polls the game until cond holds.
func waitFor(t *testing.T, s *Service, id string, cond func(*domain.Game) bool) *GameState {
	t.Helper()
	var last *GameState
	require.Eventually(t, func() bool {
		gs, ok := s.Get(id)
		if !ok {
			return false
		}
		last = gs
		return cond(gs.Game)
	}, 5*time.Second, 5*time.Millisecond)
	return last
}

func TestCreateAndGet(t *testing.T) {
	s := newTestService()
	gs, err := s.CreateGame(domain.Human, domain.AutomatedEasy)
	require.NoError(t, err)
	require.NotEmpty(t, gs.ID)
	require.Equal(t, domain.X, gs.Game.SideToMove())
	require.Equal(t, domain.InProgress, gs.Game.State())
	require.False(t, gs.Created.IsZero())
	require.False(t, gs.Updated.IsZero())

	got, ok := s.Get(gs.ID)
	require.True(t, ok)
	require.Equal(t, gs.ID, got.ID)
	require.Equal(t, domain.AutomatedEasy, got.Game.PlayerType(domain.O))
}

func TestGetReturnsCopy(t *testing.T) {
	s := newTestService()
	gs, _ := s.CreateGame(domain.Human, domain.Human)
	gs.Game.AcceptMove(0)
	got, _ := s.Get(gs.ID)
	require.Equal(t, 1, got.Game.Len())
}

func TestUnknownGame(t *testing.T) {
	s := newTestService()
	_, err := s.Play("nope", 0)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.Rewind("nope", 0)
	require.ErrorIs(t, err, ErrNotFound)
	_, _, err = s.Subscribe(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPlayEnforcesHumanTurn(t *testing.T) {
	s := newTestService(WithDelay(time.Hour, time.Hour))
	defer s.Close()
	gs, _ := s.CreateGame(domain.Human, domain.AutomatedHard)

	st, err := s.Play(gs.ID, 0)
	require.NoError(t, err)
	require.Equal(t, domain.X, st.Game.CurrentBoard()[0])
	require.Equal(t, domain.O, st.Game.SideToMove())

	_, err = s.Play(gs.ID, 1)
	require.ErrorIs(t, err, ErrNotHumanTurn)
}

func TestPlayReportsDomainErrors(t *testing.T) {
	s := newTestService()
	gs, _ := s.CreateGame(domain.Human, domain.Human)
	_, err := s.Play(gs.ID, 4)
	require.NoError(t, err)

	st, err := s.Play(gs.ID, 4)
	require.ErrorIs(t, err, domain.ErrOccupied)
	require.Equal(t, 2, st.Game.Len())

	_, err = s.Play(gs.ID, 9)
	require.ErrorIs(t, err, domain.ErrOutOfBounds)
}

func TestAutomatedOpponentReplies(t *testing.T) {
	s := newTestService()
	defer s.Close()
	gs, _ := s.CreateGame(domain.Human, domain.AutomatedHard)
	_, err := s.Play(gs.ID, 0)
	require.NoError(t, err)

	st := waitFor(t, s, gs.ID, func(g *domain.Game) bool { return g.Cursor() == 2 })
	require.Equal(t, domain.O, st.Game.CurrentBoard()[4])
	require.Equal(t, domain.X, st.Game.SideToMove())
}

func TestHardVersusHardDraws(t *testing.T) {
	s := newTestService()
	defer s.Close()
	gs, _ := s.CreateGame(domain.AutomatedHard, domain.AutomatedHard)
	st := waitFor(t, s, gs.ID, func(g *domain.Game) bool { return g.State() == domain.Finished })
	require.Equal(t, domain.Outcome{Result: domain.Draw}, st.Game.CurrentOutcome())
	require.Equal(t, 10, st.Game.Len())
}

func TestSeededEasyGamesAreReproducible(t *testing.T) {
	play := func() domain.Board {
		s := newTestService(WithSeed(99))
		defer s.Close()
		gs, _ := s.CreateGame(domain.AutomatedEasy, domain.AutomatedEasy)
		st := waitFor(t, s, gs.ID, func(g *domain.Game) bool { return g.State() == domain.Finished })
		return st.Game.CurrentBoard()
	}
	require.Equal(t, play(), play())
}

func TestRewindCancelsPendingMove(t *testing.T) {
	s := newTestService(WithDelay(100*time.Millisecond, 100*time.Millisecond))
	defer s.Close()
	gs, _ := s.CreateGame(domain.Human, domain.AutomatedHard)
	_, err := s.Play(gs.ID, 0)
	require.NoError(t, err)

	st, err := s.Rewind(gs.ID, 0)
	require.NoError(t, err)
	require.Equal(t, domain.X, st.Game.SideToMove())

	time.Sleep(250 * time.Millisecond)
	got, _ := s.Get(gs.ID)
	require.Equal(t, 0, got.Game.Cursor())
	require.Equal(t, 2, got.Game.Len())
	require.Equal(t, domain.Board{}, got.Game.CurrentBoard())
}

func TestRewindOntoAutomatedTurnReplays(t *testing.T) {
	s := newTestService()
	defer s.Close()
	gs, _ := s.CreateGame(domain.AutomatedHard, domain.Human)
	waitFor(t, s, gs.ID, func(g *domain.Game) bool { return g.Cursor() == 1 })

	_, err := s.Play(gs.ID, 8)
	require.NoError(t, err)
	waitFor(t, s, gs.ID, func(g *domain.Game) bool { return g.Cursor() == 3 })

	_, err = s.Rewind(gs.ID, 0)
	require.NoError(t, err)
	st := waitFor(t, s, gs.ID, func(g *domain.Game) bool { return g.Cursor() == 1 && g.Len() == 2 })
	require.Equal(t, domain.X, st.Game.CurrentBoard()[0])

	_, err = s.Rewind(gs.ID, 5)
	require.ErrorIs(t, err, ErrBadEntry)
}

func TestRestartAndStart(t *testing.T) {
	s := newTestService()
	gs, _ := s.CreateGame(domain.Human, domain.Human)
	_, _ = s.Play(gs.ID, 0)

	st, err := s.Restart(gs.ID)
	require.NoError(t, err)
	require.Equal(t, domain.Idle, st.Game.State())

	_, err = s.Play(gs.ID, 0)
	require.ErrorIs(t, err, domain.ErrNotStarted)

	st, err = s.Start(gs.ID, domain.Human, domain.AutomatedEasy)
	require.NoError(t, err)
	require.Equal(t, domain.InProgress, st.Game.State())
	require.Equal(t, 1, st.Game.Len())
	require.Equal(t, domain.AutomatedEasy, st.Game.PlayerType(domain.O))
}

func TestSetPlayerType(t *testing.T) {
	s := newTestService()
	defer s.Close()
	gs, _ := s.CreateGame(domain.Human, domain.Human)

	_, err := s.SetPlayerType(gs.ID, domain.Empty, domain.AutomatedHard)
	require.ErrorIs(t, err, ErrBadSide)

	// handing the side to move to the computer makes it play
	_, err = s.SetPlayerType(gs.ID, domain.X, domain.AutomatedHard)
	require.NoError(t, err)
	st := waitFor(t, s, gs.ID, func(g *domain.Game) bool { return g.Cursor() == 1 })
	require.Equal(t, domain.X, st.Game.CurrentBoard()[0])
}

func TestSubscribeAndBroadcast(t *testing.T) {
	s := newTestService()
	gs, _ := s.CreateGame(domain.Human, domain.Human)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()
	ch, unsub, err := s.Subscribe(ctx, gs.ID)
	require.NoError(t, err)
	defer unsub()

	_, err = s.Play(gs.ID, 0)
	require.NoError(t, err)

	select {
	case b, ok := <-ch:
		require.True(t, ok, "channel closed")
		require.Equal(t, "moves=1", string(b))
	case <-ctx.Done():
		require.FailNow(t, "timed out waiting for broadcast")
	}
}

func TestDropSlowSubscriber(t *testing.T) {
	s := newTestService()
	gs, _ := s.CreateGame(domain.Human, domain.Human)

	// Slow subscriber: never read
	ctxSlow, cancelSlow := context.WithCancel(context.Background())
	defer cancelSlow()
	slowCh, _, err := s.Subscribe(ctxSlow, gs.ID)
	require.NoError(t, err)

	// Fast subscriber: reads after each update
	ctxFast, cancelFast := context.WithTimeout(context.Background(), time.Second*2)
	defer cancelFast()
	fastCh, unsubFast, err := s.Subscribe(ctxFast, gs.ID)
	require.NoError(t, err)
	defer unsubFast()

	for i, idx := range []int{0, 4} {
		_, err := s.Play(gs.ID, idx)
		require.NoError(t, err)
		select {
		case <-fastCh:
		case <-ctxFast.Done():
			require.FailNow(t, "fast subscriber missed an update", "update %d", i)
		}
	}

	// the slow channel holds the first payload and is then closed
	b, ok := <-slowCh
	require.True(t, ok)
	require.Equal(t, "moves=1", string(b))
	_, ok = <-slowCh
	require.False(t, ok)
}
