// Command trivia-client plays the match hosted by a trivia-server from the
// terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/LDs31100113/TriviaFX-UCAB/client"
	"github.com/LDs31100113/TriviaFX-UCAB/game"
	tio "github.com/LDs31100113/TriviaFX-UCAB/io"
	"github.com/LDs31100113/TriviaFX-UCAB/web"
	"github.com/namsral/flag"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	var (
		addr    = flag.String("addr", "127.0.0.1:8080", "Address of the trivia-server")
		players = flag.String("players", "", "Comma-separated aliases to start a new match with, in turn order")
		resume  = flag.Bool("resume", false, "Resume the saved match instead of starting a new one")
		logFile = flag.String("log_file", "trivia-client.log", "Where to write logs")
	)
	flag.Parse()

	lf, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer lf.Close()
	logger := slog.New(slog.NewJSONHandler(lf, nil))

	c, err := client.New("http", *addr)
	if err != nil {
		return err
	}

	var st *web.GameState
	switch {
	case *resume:
		st, err = c.Resume()
	case *players != "":
		st, err = c.NewGame(strings.Split(*players, ",")...)
	default:
		return errors.New("pass -players to start a match, or -resume")
	}
	if err != nil {
		return err
	}
	logger.Info("sat down", slog.String("match_id", string(st.MatchID)))

	// Browsers can play at the same table, log what they do.
	go func() {
		err := c.ListenForUpdates(ctx, client.WSHooks{
			OnMove: func(mm *web.MoveMsg) {
				logger.Info("move", slog.String("player", mm.Result.Player), slog.String("phase", string(mm.Game.Pending.Phase)))
			},
		})
		if err != nil {
			logger.Warn("stopped listening for updates", slog.Any("error", err))
		}
	}()

	t := tio.NewTerminal(stdin, stdout)
	tio.PrintScoreboard(stdout, st.Players, st.Current)
	st, err = c.Play(t)
	switch {
	case errors.Is(err, game.ErrQuit):
		fmt.Fprintln(stdout, "Partida guardada en el servidor.")
		return nil
	case errors.Is(err, tio.ErrNoInput):
		return nil
	case err != nil:
		return err
	}

	tio.PrintScoreboard(stdout, st.Players, st.Current)
	stats, err := c.Stats()
	if err != nil {
		return err
	}
	tio.PrintStats(stdout, stats)
	return nil
}
