package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jaminalder/tictactoe/internal/domain"
	"github.com/rs/zerolog"
)

// Errors exposed by the service layer.
var (
	ErrNotFound     = errors.New("game not found")
	ErrNotHumanTurn = errors.New("not a human turn")
	ErrBadEntry     = errors.New("no such history entry")
	ErrBadSide      = errors.New("side must be X or O")
)

// GameState is a snapshot of one game session. Game is a private copy.
type GameState struct {
	ID      string
	Game    *domain.Game
	Created time.Time
	Updated time.Time
}

type session struct {
	id      string
	game    *domain.Game
	created time.Time
	updated time.Time
	// gen changes on every mutation; a pending automated move only applies
	// to the generation it was scheduled for.
	gen     uint64
	pending *time.Timer
}

func (ss *session) snapshot() GameState {
	return GameState{ID: ss.id, Game: ss.game.Clone(), Created: ss.created, Updated: ss.updated}
}

type subscriber struct {
	mu     sync.Mutex
	ch     chan []byte
	closed bool
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// trySend delivers b without blocking. It reports false when the buffer is full.
func (s *subscriber) trySend(b []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	select {
	case s.ch <- b:
		return true
	default:
		return false
	}
}

// Service manages games, automated turns and subscribers.
type Service struct {
	mu       sync.Mutex
	games    map[string]*session
	subs     map[string]map[*subscriber]struct{}
	render   func(GameState) []byte
	log      zerolog.Logger
	rnd      *lockedRand
	policy   domain.Policy
	delayMin time.Duration
	delayMax time.Duration
	now      func() time.Time
}

// NewService creates a service. Without options it renders nothing, logs
// nothing and delays automated moves by 200-600ms.
func NewService(opts ...Option) *Service {
	s := &Service{
		games:    make(map[string]*session),
		subs:     make(map[string]map[*subscriber]struct{}),
		render:   func(GameState) []byte { return nil },
		log:      zerolog.Nop(),
		rnd:      newLockedRand(uint64(time.Now().UnixNano())),
		delayMin: 200 * time.Millisecond,
		delayMax: 600 * time.Millisecond,
		now:      time.Now,
	}
	s.policy = domain.NewPolicy(s.rnd)
	for _, opt := range opts {
		opt(s)
	}
	s.policy.Rand = s.rnd
	return s
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(GameState) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if renderer == nil {
		s.render = func(GameState) []byte { return nil }
		return
	}
	s.render = renderer
}

// CreateGame registers a new game with the given player types and starts it.
func (s *Service) CreateGame(x, o domain.PlayerType) (*GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	ss := &session{id: uuid.NewString(), game: domain.New(), created: now, updated: now}
	ss.game.SetPlayerType(domain.X, x)
	ss.game.SetPlayerType(domain.O, o)
	ss.game.Start()
	s.games[ss.id] = ss
	s.log.Info().Str("game", ss.id).Stringer("x", x).Stringer("o", o).Msg("game created")
	s.changedLocked(ss)
	cp := ss.snapshot()
	return &cp, nil
}

// Get returns a copy of the game state if present.
func (s *Service) Get(id string) (*GameState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ss, ok := s.games[id]
	if !ok {
		return nil, false
	}
	cp := ss.snapshot()
	return &cp, true
}

// Start begins a fresh game in an existing session.
func (s *Service) Start(id string, x, o domain.PlayerType) (*GameState, error) {
	return s.mutate(id, func(ss *session) error {
		ss.game.SetPlayerType(domain.X, x)
		ss.game.SetPlayerType(domain.O, o)
		ss.game.Start()
		s.log.Info().Str("game", id).Stringer("x", x).Stringer("o", o).Msg("game started")
		return nil
	})
}

// Restart drops the current game and returns the session to setup.
func (s *Service) Restart(id string) (*GameState, error) {
	return s.mutate(id, func(ss *session) error {
		ss.game.Restart()
		s.log.Info().Str("game", id).Msg("game restarted")
		return nil
	})
}

// Play applies a human move at index for the side to move.
func (s *Service) Play(id string, index int) (*GameState, error) {
	return s.mutate(id, func(ss *session) error {
		if err := ss.game.Check(index); err != nil {
			return err
		}
		side := ss.game.SideToMove()
		if ss.game.PlayerType(side).Automated() {
			return ErrNotHumanTurn
		}
		ss.game.AcceptMove(index)
		s.log.Debug().Str("game", id).Stringer("side", side).Int("index", index).Msg("move accepted")
		return nil
	})
}

// Rewind moves the session's cursor to entry.
func (s *Service) Rewind(id string, entry int) (*GameState, error) {
	return s.mutate(id, func(ss *session) error {
		if !ss.game.Rewind(entry) {
			return ErrBadEntry
		}
		s.log.Debug().Str("game", id).Int("entry", entry).Msg("rewound")
		return nil
	})
}

// SetPlayerType changes who plays side.
func (s *Service) SetPlayerType(id string, side domain.Cell, t domain.PlayerType) (*GameState, error) {
	if side != domain.X && side != domain.O {
		return nil, ErrBadSide
	}
	return s.mutate(id, func(ss *session) error {
		ss.game.SetPlayerType(side, t)
		return nil
	})
}

// mutate runs fn under the lock and, when it succeeds, reschedules automated
// play and broadcasts the new state.
func (s *Service) mutate(id string, fn func(*session) error) (*GameState, error) {
	s.mu.Lock()
	ss, ok := s.games[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	if err := fn(ss); err != nil {
		cp := ss.snapshot()
		s.mu.Unlock()
		return &cp, err
	}
	s.changedLocked(ss)
	cp := ss.snapshot()
	subs := s.copySubsLocked(id)
	payload := s.render(cp)
	s.mu.Unlock()

	s.publish(id, subs, payload)
	return &cp, nil
}

// changedLocked records a mutation: it cancels any pending automated move and
// schedules a new one when the computer is to move.
func (s *Service) changedLocked(ss *session) {
	ss.gen++
	ss.updated = s.now()
	if ss.pending != nil {
		ss.pending.Stop()
		ss.pending = nil
	}
	if !ss.game.AutomatedTurn() {
		return
	}
	id, gen := ss.id, ss.gen
	ss.pending = time.AfterFunc(s.delay(), func() { s.playAutomated(id, gen) })
}

func (s *Service) delay() time.Duration {
	if s.delayMax <= s.delayMin {
		return s.delayMin
	}
	return s.delayMin + time.Duration(s.rnd.Float64()*float64(s.delayMax-s.delayMin))
}

// playAutomated searches on a copy outside the lock and applies the result
// only if the game is still at generation gen.
func (s *Service) playAutomated(id string, gen uint64) {
	s.mu.Lock()
	ss, ok := s.games[id]
	if !ok || ss.gen != gen {
		s.mu.Unlock()
		return
	}
	g := ss.game.Clone()
	s.mu.Unlock()

	side := g.SideToMove()
	pt := g.PlayerType(side)
	start := time.Now()
	index := g.NextAutomatedMove(s.policy)
	elapsed := time.Since(start)
	if index == domain.NoMove {
		return
	}

	s.mu.Lock()
	if ss.gen != gen {
		s.mu.Unlock()
		s.log.Debug().Str("game", id).Int("index", index).Msg("stale automated move dropped")
		return
	}
	if !ss.game.AcceptMove(index) {
		s.mu.Unlock()
		s.log.Warn().Str("game", id).Int("index", index).Msg("automated move rejected")
		return
	}
	ss.pending = nil
	s.changedLocked(ss)
	cp := ss.snapshot()
	subs := s.copySubsLocked(id)
	payload := s.render(cp)
	s.mu.Unlock()

	s.log.Info().Str("game", id).Stringer("side", side).Stringer("player", pt).
		Int("index", index).Dur("search", elapsed).Msg("automated move")
	s.publish(id, subs, payload)
}

// Close stops every pending automated move.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ss := range s.games {
		ss.gen++
		if ss.pending != nil {
			ss.pending.Stop()
			ss.pending = nil
		}
	}
}

// publish fans out payload; slow subscribers are closed and removed.
func (s *Service) publish(id string, subs map[*subscriber]struct{}, payload []byte) {
	var toDrop []*subscriber
	for sub := range subs {
		if !sub.trySend(payload) {
			sub.close()
			toDrop = append(toDrop, sub)
		}
	}
	if len(toDrop) == 0 {
		return
	}
	s.log.Warn().Str("game", id).Int("count", len(toDrop)).Msg("dropping slow subscribers")
	s.mu.Lock()
	for _, sub := range toDrop {
		if set, ok := s.subs[id]; ok {
			delete(set, sub)
		}
	}
	s.mu.Unlock()
}

// Subscribe registers a subscriber for a game. Returns a channel and an unsubscribe func.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return nil, func() {}, ErrNotFound
	}
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan []byte, 1)}
	set[sub] = struct{}{}

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
			s.mu.Unlock()
			sub.close()
		})
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub, nil
}

func (s *Service) copySubsLocked(id string) map[*subscriber]struct{} {
	out := make(map[*subscriber]struct{})
	if set, ok := s.subs[id]; ok {
		for k := range set {
			out[k] = struct{}{}
		}
	}
	return out
}
