package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/jaminalder/tictactoe/internal/config"
	"github.com/jaminalder/tictactoe/internal/domain"
	"github.com/jaminalder/tictactoe/internal/logging"
	"github.com/jaminalder/tictactoe/internal/term"
	"golang.org/x/exp/rand"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "", "path to a YAML config file")
	xType := flag.String("x", "human", "player X: human, computer-easy or computer-hard")
	oType := flag.String("o", "computer-hard", "player O: human, computer-easy or computer-hard")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	log, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	g := domain.New()
	for side, name := range map[domain.Cell]string{domain.X: *xType, domain.O: *oType} {
		pt, err := domain.ParsePlayerType(name)
		if err != nil {
			return err
		}
		g.SetPlayerType(side, pt)
	}

	policy := domain.NewPolicy(rand.New(rand.NewSource(cfg.SeedOrNow())))
	policy.RandomRate = cfg.EasyRandomRate

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	loop := &term.Loop{
		Game:     g,
		Policy:   policy,
		Renderer: term.NewRenderer(os.Stdout),
		In:       os.Stdin,
		DelayMin: cfg.AIDelayMin,
		DelayMax: cfg.AIDelayMax,
		Log:      log,
	}
	return loop.Run(ctx)
}
