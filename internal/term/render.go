// Package term plays games on a terminal: it renders snapshots with termenv
// and feeds typed commands and automated moves into a domain.Game.
package term

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jaminalder/tictactoe/internal/domain"
	"github.com/muesli/termenv"
)

// Renderer draws game snapshots.
type Renderer struct {
	out *termenv.Output
}

// NewRenderer detects the color profile of w unless opts override it.
func NewRenderer(w io.Writer, opts ...termenv.OutputOption) *Renderer {
	return &Renderer{out: termenv.NewOutput(w, opts...)}
}

func (r *Renderer) mark(i int, c domain.Cell) string {
	switch c {
	case domain.X:
		return r.out.String("X").Foreground(r.out.Color("9")).Bold().String()
	case domain.O:
		return r.out.String("O").Foreground(r.out.Color("12")).Bold().String()
	}
	return r.out.String(strconv.Itoa(i)).Faint().String()
}

// Board returns the 3x3 grid. Empty cells show their index.
func (r *Renderer) Board(b domain.Board) string {
	var sb strings.Builder
	for row := 0; row < 3; row++ {
		if row > 0 {
			sb.WriteString("---+---+---\n")
		}
		for col := 0; col < 3; col++ {
			if col > 0 {
				sb.WriteString("|")
			}
			i := row*3 + col
			sb.WriteString(" " + r.mark(i, b[i]) + " ")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Status mirrors the web status line.
func (r *Renderer) Status(g *domain.Game) string {
	out := g.CurrentOutcome()
	switch out.Result {
	case domain.Won:
		return r.out.String("Winner: " + out.Winner.String()).Bold().String()
	case domain.Draw:
		return r.out.String("Draw!").Bold().String()
	}
	return "Next player: " + g.SideToMove().String()
}

// History lists entry labels and marks the cursor.
func (r *Renderer) History(g *domain.Game) string {
	var sb strings.Builder
	for i, label := range g.Labels() {
		cur := "  "
		if i == g.Cursor() {
			cur = "> "
		}
		fmt.Fprintf(&sb, "%s%d. %s\n", cur, i, label)
	}
	return sb.String()
}

// Render writes the full snapshot.
func (r *Renderer) Render(g *domain.Game) {
	fmt.Fprintf(r.out, "\n%s\n%s\n%s", r.Board(g.CurrentBoard()), r.Status(g), r.History(g))
}

// Prompt asks for the next command.
func (r *Renderer) Prompt() {
	fmt.Fprint(r.out, "> ")
}

// Println writes a line of plain text.
func (r *Renderer) Println(a ...any) {
	fmt.Fprintln(r.out, a...)
}
