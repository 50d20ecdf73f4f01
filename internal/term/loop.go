package term

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jaminalder/tictactoe/internal/domain"
	"github.com/rs/zerolog"
)

// Loop drives one terminal session. Automated sides move after a delay drawn
// from [DelayMin, DelayMax); human sides type a cell index or a command.
type Loop struct {
	Game     *domain.Game
	Policy   domain.Policy
	Renderer *Renderer
	In       io.Reader
	DelayMin time.Duration
	DelayMax time.Duration
	Log      zerolog.Logger
}

const help = "commands: 0-8 play a cell, rewind N, restart, quit"

// Run plays until quit, end of input, ctx cancellation, or a finished game
// without human players.
func (l *Loop) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g := l.Game
	if g.State() == domain.Idle {
		g.Start()
	}
	lines, readErr := readLines(ctx, l.In)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.Renderer.Render(g)

		if g.AutomatedTurn() {
			if err := l.wait(ctx); err != nil {
				return err
			}
			side := g.SideToMove()
			m := g.NextAutomatedMove(l.Policy)
			if g.AcceptMove(m) {
				l.Log.Debug().Stringer("side", side).Int("index", m).Msg("automated move")
			}
			continue
		}
		if g.State() == domain.Finished && g.PlayerType(domain.X).Automated() && g.PlayerType(domain.O).Automated() {
			return nil
		}

		l.Renderer.Prompt()
		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case text, ok := <-lines:
			if !ok {
				return *readErr
			}
			line = text
		}
		quit, err := l.handle(strings.TrimSpace(line))
		if err != nil {
			l.Renderer.Println(err)
		}
		if quit {
			return nil
		}
	}
}

// readLines scans r in its own goroutine so that Run can stop on ctx while a
// read is blocked. The channel is closed at end of input; *err is only valid
// after that.
func readLines(ctx context.Context, r io.Reader) (<-chan string, *error) {
	lines := make(chan string)
	var err error
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		err = sc.Err()
	}()
	return lines, &err
}

func (l *Loop) delay() time.Duration {
	if l.DelayMax <= l.DelayMin || l.Policy.Rand == nil {
		return l.DelayMin
	}
	return l.DelayMin + time.Duration(l.Policy.Rand.Float64()*float64(l.DelayMax-l.DelayMin))
}

func (l *Loop) wait(ctx context.Context) error {
	d := l.delay()
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var errUnknownCommand = errors.New(help)

func (l *Loop) handle(line string) (quit bool, err error) {
	g := l.Game
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	switch fields[0] {
	case "quit", "q", "exit":
		return true, nil
	case "restart", "new":
		g.Restart()
		g.Start()
		return false, nil
	case "rewind", "undo":
		if len(fields) != 2 {
			return false, errUnknownCommand
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || !g.Rewind(n) {
			return false, fmt.Errorf("no history entry %q", fields[1])
		}
		return false, nil
	}
	i, err := strconv.Atoi(fields[0])
	if err != nil {
		return false, errUnknownCommand
	}
	if err := g.Check(i); err != nil {
		return false, err
	}
	g.AcceptMove(i)
	return false, nil
}
