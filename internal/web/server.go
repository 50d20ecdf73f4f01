package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jaminalder/tictactoe/internal/app"
	"github.com/rs/zerolog"
)

// Option configures NewServer.
type Option func(*handlers)

// WithLogger sets the access and error logger.
func WithLogger(log zerolog.Logger) Option {
	return func(h *handlers) { h.log = log }
}

// WithHeartbeat sets the SSE keep-alive interval.
func WithHeartbeat(d time.Duration) Option {
	return func(h *handlers) {
		if d > 0 {
			h.heartbeat = d
		}
	}
}

// NewServer wires routes and returns an http.Handler. It also makes the
// service broadcast rendered board fragments to SSE subscribers.
func NewServer(s *app.Service, opts ...Option) http.Handler {
	h := &handlers{svc: s, tpl: loadTemplates(), log: zerolog.Nop(), heartbeat: 15 * time.Second}
	for _, opt := range opts {
		opt(h)
	}
	s.SetRenderer(func(gs app.GameState) []byte { return h.renderBoard(gs, "") })

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(h.log))
	r.Use(middleware.Recoverer)

	r.Get("/", h.index)
	r.Post("/game", h.create)
	r.Route("/game/{id}", func(r chi.Router) {
		r.Get("/", h.view)
		r.Get("/state", h.state)
		r.Get("/events", h.events)
		r.Post("/start", h.start)
		r.Post("/restart", h.restart)
		r.Post("/play", h.play)
		r.Post("/rewind", h.rewind)
		r.Post("/players", h.players)
	})
	return r
}

func accessLog(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("took", time.Since(start)).
					Str("request_id", middleware.GetReqID(r.Context())).
					Msg("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
