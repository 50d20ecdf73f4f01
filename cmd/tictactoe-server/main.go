package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jaminalder/tictactoe/internal/app"
	"github.com/jaminalder/tictactoe/internal/config"
	"github.com/jaminalder/tictactoe/internal/logging"
	"github.com/jaminalder/tictactoe/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "", "path to a YAML config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	log, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	svc := app.NewService(
		app.WithLogger(log.With().Str("component", "service").Logger()),
		app.WithSeed(cfg.SeedOrNow()),
		app.WithDelay(cfg.AIDelayMin, cfg.AIDelayMax),
		app.WithRandomRate(cfg.EasyRandomRate),
	)
	defer svc.Close()

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: web.NewServer(svc,
			web.WithLogger(log.With().Str("component", "http").Logger()),
			web.WithHeartbeat(cfg.SSEHeartbeat),
		),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
