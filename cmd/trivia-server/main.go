// Command trivia-server serves the board to browsers on this machine.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LDs31100113/TriviaFX-UCAB/config"
	"github.com/LDs31100113/TriviaFX-UCAB/game"
	"github.com/LDs31100113/TriviaFX-UCAB/questions"
	"github.com/LDs31100113/TriviaFX-UCAB/web"
	"github.com/namsral/flag"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	var (
		addr    = flag.String("addr", "127.0.0.1:8080", "HTTP service address")
		keysDir = flag.String("keys_dir", ".", "Directory holding the cookie keys")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := cfg.Logger(stdout)

	db, err := cfg.OpenStore(ctx, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	bank, err := questions.Open(cfg.Questions, &questions.Config{Logger: logger})
	if err != nil {
		return fmt.Errorf("loading questions: %w", err)
	}

	sc, err := web.LoadKeys(*keysDir)
	if err != nil {
		return fmt.Errorf("loading cookie keys: %w", err)
	}

	srv := &http.Server{
		Addr: *addr,
		Handler: web.New(db, &game.Config{
			Questions: bank,
			Rules:     game.Rules{Roll: cfg.RollVariant},
			Logger:    logger,
		}, sc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", *addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}
