package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
)

// Option configures a Service.
type Option func(*Service)

// WithRenderer sets the function that turns a state into a broadcast payload.
func WithRenderer(renderer func(GameState) []byte) Option {
	return func(s *Service) {
		if renderer != nil {
			s.render = renderer
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// WithSeed makes the easy policy and the move delays reproducible.
func WithSeed(seed uint64) Option {
	return func(s *Service) {
		s.rnd = newLockedRand(seed)
	}
}

// WithDelay sets the range automated moves wait before being applied.
func WithDelay(lo, hi time.Duration) Option {
	return func(s *Service) {
		s.delayMin = lo
		s.delayMax = hi
	}
}

// WithRandomRate sets how often the easy player ignores the search.
func WithRandomRate(rate float64) Option {
	return func(s *Service) {
		s.policy.RandomRate = rate
	}
}

// lockedRand makes a rand.Rand safe to share between timers.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newLockedRand(seed uint64) *lockedRand {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
