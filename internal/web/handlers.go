package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jaminalder/tictactoe/internal/app"
	"github.com/jaminalder/tictactoe/internal/domain"
	"github.com/rs/zerolog"
)

type handlers struct {
	svc       *app.Service
	tpl       *templates
	log       zerolog.Logger
	heartbeat time.Duration
}

// renderBoard renders the #board fragment: the setup form for an idle
// session, the board otherwise.
func (h *handlers) renderBoard(gs app.GameState, errMsg string) []byte {
	if gs.Game.State() == domain.Idle {
		v := newSetupView(gs.ID, gs.Game.PlayerType(domain.X), gs.Game.PlayerType(domain.O))
		return renderTemplate(h.tpl.setupFragment, "setup_only", v)
	}
	return renderTemplate(h.tpl.board, "", newBoardView(gs, errMsg))
}

func writeHTML(w http.ResponseWriter, b []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// playerTypesFromForm reads the x and o selects; missing values mean human.
func playerTypesFromForm(r *http.Request) (x, o domain.PlayerType, err error) {
	_ = r.ParseForm()
	parse := func(field string) (domain.PlayerType, error) {
		v := r.Form.Get(field)
		if v == "" {
			return domain.Human, nil
		}
		return domain.ParsePlayerType(v)
	}
	if x, err = parse("x"); err != nil {
		return
	}
	o, err = parse("o")
	return
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, renderTemplate(h.tpl.index, "base", newSetupView("", domain.Human, domain.Human)))
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	x, o, err := playerTypesFromForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	gs, err := h.svc.CreateGame(x, o)
	if err != nil {
		http.Error(w, "failed to create", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/game/"+gs.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	gs, ok := h.svc.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if gs.Game.State() == domain.Idle {
		v := newSetupView(gs.ID, gs.Game.PlayerType(domain.X), gs.Game.PlayerType(domain.O))
		writeHTML(w, renderTemplate(h.tpl.setup, "base", v))
		return
	}
	writeHTML(w, renderTemplate(h.tpl.game, "base", newBoardView(*gs, "")))
}

func (h *handlers) start(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	x, o, err := playerTypesFromForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := h.svc.Start(id, x, o); err != nil {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/game/"+id, http.StatusSeeOther)
}

func (h *handlers) restart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.svc.Restart(id); err != nil {
		http.NotFound(w, r)
		return
	}
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/game/"+id)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/game/"+id, http.StatusSeeOther)
}

// errorMessage maps a rejected action to the text shown above the board.
func errorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, app.ErrNotHumanTurn):
		return "Wait for the computer"
	case errors.Is(err, app.ErrBadEntry):
		return "No such move"
	case errors.Is(err, app.ErrBadSide):
		return "Unknown side"
	case errors.Is(err, domain.ErrUnknownPlayerType):
		return "Unknown player type"
	case errors.Is(err, domain.ErrNotStarted):
		return "Game not started"
	case errors.Is(err, domain.ErrOccupied):
		return "Cell is occupied"
	case errors.Is(err, domain.ErrOutOfBounds):
		return "Out of bounds"
	case errors.Is(err, domain.ErrGameOver):
		return "Game is over"
	default:
		return "Invalid move"
	}
}

// respond renders the board fragment for an action result.
func (h *handlers) respond(w http.ResponseWriter, r *http.Request, id string, gs *app.GameState, err error) {
	if errors.Is(err, app.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if gs == nil {
		var ok bool
		if gs, ok = h.svc.Get(id); !ok {
			http.NotFound(w, r)
			return
		}
	}
	writeHTML(w, h.renderBoard(*gs, errorMessage(err)))
}

func formInt(r *http.Request, field string) (int, error) {
	_ = r.ParseForm()
	return strconv.Atoi(r.Form.Get(field))
}

func (h *handlers) play(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cell, err := formInt(r, "cell")
	if err != nil {
		cell = -1
	}
	gs, err := h.svc.Play(id, cell)
	h.respond(w, r, id, gs, err)
}

func (h *handlers) rewind(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	step, err := formInt(r, "step")
	if err != nil {
		step = -1
	}
	gs, err := h.svc.Rewind(id, step)
	h.respond(w, r, id, gs, err)
}

func (h *handlers) players(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_ = r.ParseForm()
	var side domain.Cell
	switch strings.ToUpper(r.Form.Get("side")) {
	case "X":
		side = domain.X
	case "O":
		side = domain.O
	}
	pt, err := domain.ParsePlayerType(r.Form.Get("type"))
	if err != nil {
		h.respond(w, r, id, nil, err)
		return
	}
	gs, err := h.svc.SetPlayerType(id, side, pt)
	h.respond(w, r, id, gs, err)
}

type stateJSON struct {
	ID      string   `json:"id"`
	State   string   `json:"state"`
	Board   []string `json:"board"`
	Status  string   `json:"status"`
	Winner  string   `json:"winner,omitempty"`
	Draw    bool     `json:"draw"`
	Next    string   `json:"next"`
	Cursor  int      `json:"cursor"`
	History []string `json:"history"`
	X       string   `json:"x"`
	O       string   `json:"o"`
}

func (h *handlers) state(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	g := gs.Game
	out := g.CurrentOutcome()
	body := stateJSON{
		ID:      gs.ID,
		State:   g.State().String(),
		Status:  status(g),
		Winner:  out.Winner.String(),
		Draw:    out.Result == domain.Draw,
		Next:    g.SideToMove().String(),
		Cursor:  g.Cursor(),
		History: g.Labels(),
		X:       g.PlayerType(domain.X).String(),
		O:       g.PlayerType(domain.O).String(),
	}
	for _, c := range g.CurrentBoard() {
		body.Board = append(body.Board, c.String())
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error().Err(err).Msg("encode state")
	}
}

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	// In tests or non-EventSource requests, just acknowledge headers and return
	if r.Header.Get("Accept") != "text/event-stream" {
		w.WriteHeader(http.StatusOK)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx := r.Context()
	ch, unsub, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer unsub()
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	flusher.Flush()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case b, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(w, "board", b)
			flusher.Flush()
		}
	}
}

// writeEvent frames a multi-line payload as one SSE event.
func writeEvent(w io.Writer, name string, data []byte) {
	_, _ = fmt.Fprintf(w, "event: %s\n", name)
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		_, _ = fmt.Fprintf(w, "data: %s\n", line)
	}
	_, _ = io.WriteString(w, "\n")
}
