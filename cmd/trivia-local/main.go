// Command trivia-local plays a match at the terminal, with everyone taking
// turns at the same keyboard.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/LDs31100113/TriviaFX-UCAB/boardgen"
	"github.com/LDs31100113/TriviaFX-UCAB/config"
	"github.com/LDs31100113/TriviaFX-UCAB/game"
	tio "github.com/LDs31100113/TriviaFX-UCAB/io"
	"github.com/LDs31100113/TriviaFX-UCAB/questions"
	"github.com/LDs31100113/TriviaFX-UCAB/trivia"
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
	logFile := flag.String("log_file", "trivia.log", "Where to write logs, so they stay off the board")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	lf, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer lf.Close()
	logger := cfg.Logger(lf)

	db, err := cfg.OpenStore(ctx, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	bank, err := questions.Open(cfg.Questions, &questions.Config{Logger: logger})
	if err != nil {
		return fmt.Errorf("loading questions: %w", err)
	}
	logger.Info("loaded questions", slog.Int("count", bank.Len()))

	t := tio.NewTerminal(stdin, stdout)
	a := &app{
		db:  db,
		t:   t,
		out: stdout,
		log: logger,
		cfg: &game.Config{
			Questions:  bank,
			Board:      boardgen.New(),
			Rules:      game.Rules{Roll: cfg.RollVariant},
			Contestant: t,
			Checkpoint: db.SaveState,
			Logger:     logger,
		},
	}

	err = a.loop(ctx)
	if errors.Is(err, tio.ErrNoInput) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

type app struct {
	db  trivia.DB
	t   *tio.Terminal
	out io.Writer
	log *slog.Logger
	cfg *game.Config
}

var menu = []string{
	"Nueva partida",
	"Continuar partida guardada",
	"Registrar jugador",
	"Estadísticas",
	"Ver tablero",
	"Salir",
}

func (a *app) loop(ctx context.Context) error {
	fmt.Fprintln(a.out, "TriviaFX")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		opt, err := a.t.Menu(menu)
		if err != nil {
			return err
		}
		switch opt {
		case 1:
			err = a.newGame()
		case 2:
			err = a.resume()
		case 3:
			err = a.newProfile()
		case 4:
			err = a.stats()
		case 5:
			tio.PrintBoard(a.out, a.cfg.Board)
		case 6:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (a *app) newGame() error {
	if ok, err := a.db.HasSavedState(); err != nil {
		return err
	} else if ok {
		replace, err := a.t.Confirm("Hay una partida guardada. ¿Empezar otra y descartarla?")
		if err != nil || !replace {
			return err
		}
	}

	profiles, err := a.db.Profiles()
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		fmt.Fprintln(a.out, "Primero registra al menos un jugador.")
		return nil
	}
	players, err := a.t.SelectPlayers(profiles)
	if err != nil {
		return err
	}

	g, err := game.New(players, a.cfg)
	if err != nil {
		return err
	}
	return a.play(g)
}

func (a *app) resume() error {
	state, err := a.db.SavedState()
	if errors.Is(err, trivia.ErrNoSavedState) {
		fmt.Fprintln(a.out, "No hay ninguna partida guardada.")
		return nil
	}
	if err != nil {
		// A corrupt save shouldn't lock the player out of new games.
		a.log.Error("failed to load saved game", slog.Any("error", err))
		fmt.Fprintln(a.out, "La partida guardada está dañada y no se puede continuar.")
		return nil
	}

	g, err := game.FromSaved(state, a.cfg)
	if err != nil {
		a.log.Error("failed to resume saved game", slog.Any("error", err))
		fmt.Fprintln(a.out, "La partida guardada está dañada y no se puede continuar.")
		return nil
	}
	return a.play(g)
}

func (a *app) play(g *game.Session) error {
	tio.PrintScoreboard(a.out, g.Players(), g.CurrentIndex())

	winner, err := g.Play()
	if errors.Is(err, game.ErrQuit) {
		fmt.Fprintln(a.out, "Partida guardada. Puedes continuarla desde el menú.")
		return nil
	}
	if err != nil {
		return err
	}

	tio.PrintScoreboard(a.out, g.Players(), g.CurrentIndex())
	if g.Status() == game.Abandoned && winner != nil {
		fmt.Fprintf(a.out, "Todos se rindieron. Gana %s por tener más categorías.\n", winner.Alias)
	}
	return g.RecordStats(a.db)
}

func (a *app) newProfile() error {
	p, err := a.t.NewProfile()
	if errors.Is(err, trivia.ErrInvalidArgument) {
		fmt.Fprintln(a.out, err)
		return nil
	}
	if err != nil {
		return err
	}
	err = a.db.NewProfile(p)
	if errors.Is(err, trivia.ErrProfileExists) {
		fmt.Fprintf(a.out, "Ya existe un jugador con el correo %s.\n", p.Email)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Jugador %s registrado.\n", p.Alias)
	return nil
}

func (a *app) stats() error {
	stats, err := a.db.Stats()
	if err != nil {
		return err
	}
	tio.PrintStats(a.out, stats)
	return nil
}
