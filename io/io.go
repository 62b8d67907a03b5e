// Package io plays the game on a terminal: prompts for every decision, and
// tables for the scoreboard, the statistics and the board.
package io

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/LDs31100113/TriviaFX-UCAB/game"
	"github.com/LDs31100113/TriviaFX-UCAB/trivia"
)

// ErrNoInput is returned when the input runs out.
var ErrNoInput = errors.New("io: no more input")

// Terminal asks whoever is at the keyboard. All players share it, hot-seat
// style.
type Terminal struct {
	// sc is where answers are read from. It's shared by every prompt so
	// buffered input isn't lost between them.
	sc *bufio.Scanner
	// out is where the prompts are written out to.
	out io.Writer
	// now times answers. Tests replace it.
	now func() time.Time
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		sc:  bufio.NewScanner(in),
		out: out,
		now: time.Now,
	}
}

var _ game.Contestant = (*Terminal)(nil)

func (t *Terminal) readLine() (string, error) {
	if !t.sc.Scan() {
		if err := t.sc.Err(); err != nil {
			return "", fmt.Errorf("scanner error: %w", err)
		}
		return "", ErrNoInput
	}
	return strings.TrimSpace(t.sc.Text()), nil
}

func (t *Terminal) prompt(format string, args ...interface{}) (string, error) {
	fmt.Fprintf(t.out, format, args...)
	return t.readLine()
}

// Confirm asks a yes or no question, repeating it until it gets one.
func (t *Terminal) Confirm(question string) (bool, error) {
	for {
		ans, err := t.prompt("%s [s/n]: ", question)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(ans) {
		case "s", "si", "sí", "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(t.out, "Responde 's' o 'n'.")
	}
}

func (t *Terminal) StartRoll(p *trivia.Player) (game.Choice, error) {
	for {
		ans, err := t.prompt("\nTurno de %s (%s, %d/%d categorías). [Enter] tirar el dado, 'r' rendirse, 'g' guardar y salir: ",
			p.Alias, p.Position, p.Card.AcquiredCount(), trivia.NumCategories)
		if err != nil {
			return 0, err
		}
		switch strings.ToLower(ans) {
		case "", "t":
			return game.ChooseRoll, nil
		case "r":
			ok, err := t.Confirm("¿Seguro que quieres rendirte?")
			if err != nil {
				return 0, err
			}
			if ok {
				return game.ChooseSurrender, nil
			}
		case "g", "q":
			return game.ChooseQuit, nil
		default:
			fmt.Fprintf(t.out, "Opción %q desconocida.\n", ans)
		}
	}
}

func (t *Terminal) ChooseSpoke(p *trivia.Player, steps int) (bool, error) {
	return t.Confirm(fmt.Sprintf("%s, sacaste %d y estás en la entrada de un rayo. ¿Entrar al rayo?", p.Alias, steps))
}

func (t *Terminal) Answer(p *trivia.Player, cat trivia.Category, prompt string) (string, int64, error) {
	fmt.Fprintf(t.out, "[%s] %s\n", cat, prompt)
	start := t.now()
	ans, err := t.prompt("Respuesta de %s: ", p.Alias)
	if err != nil {
		return "", 0, err
	}
	return ans, t.now().Sub(start).Milliseconds(), nil
}

func (t *Terminal) ChooseFinalCategory(p *trivia.Player) (trivia.Category, error) {
	fmt.Fprintf(t.out, "¡%s llegó al centro con la ficha completa! Elige la categoría de la pregunta final:\n", p.Alias)
	for i, cat := range trivia.Categories {
		fmt.Fprintf(t.out, "  %d. %s\n", i+1, cat)
	}
	for {
		ans, err := t.prompt("Categoría: ")
		if err != nil {
			return trivia.NoCategory, err
		}
		if n, err := strconv.Atoi(ans); err == nil && n >= 1 && n <= len(trivia.Categories) {
			return trivia.Categories[n-1], nil
		}
		if cat, err := trivia.ParseCategory(ans); err == nil {
			return cat, nil
		}
		fmt.Fprintf(t.out, "%q no es una categoría.\n", ans)
	}
}

func (t *Terminal) Announce(p *trivia.Player, res *game.Result) {
	if res.Moved {
		fmt.Fprintf(t.out, "%s sacó %d: %s -> %s\n", p.Alias, res.Steps, res.From, res.To)
	}
	if res.NoQuestion {
		if res.Category != trivia.NoCategory {
			fmt.Fprintf(t.out, "No hay preguntas de %s, elige otra categoría.\n", res.Category)
		} else {
			fmt.Fprintln(t.out, "No hay preguntas para esta casilla, se pasa.")
		}
	}
	if res.Answered {
		if res.Correct {
			fmt.Fprintf(t.out, "¡Correcto! %s gana %s.\n", p.Alias, res.Category)
		} else {
			fmt.Fprintf(t.out, "Incorrecto, la respuesta era %q.\n", res.Expected)
		}
	}
	if res.Surrendered {
		fmt.Fprintf(t.out, "%s se rindió.\n", p.Alias)
	}
	if res.ExtraRoll {
		fmt.Fprintf(t.out, "%s tira otra vez.\n", p.Alias)
	}
	if res.Winner != "" {
		fmt.Fprintf(t.out, "\n¡%s gana la partida!\n", res.Winner)
	}
}

// SelectPlayers asks which of the profiles are playing, by number.
func (t *Terminal) SelectPlayers(profiles []*trivia.PlayerProfile) ([]*trivia.PlayerProfile, error) {
	if len(profiles) == 0 {
		return nil, errors.New("no hay jugadores registrados")
	}
	fmt.Fprintln(t.out, "Jugadores registrados:")
	for i, p := range profiles {
		fmt.Fprintf(t.out, "  %d. %s <%s>\n", i+1, p.Alias, p.Email)
	}
	for {
		ans, err := t.prompt("¿Quiénes juegan? (números separados por comas, en orden de turno): ")
		if err != nil {
			return nil, err
		}
		selected, err := pick(profiles, ans)
		if err == nil {
			return selected, nil
		}
		fmt.Fprintln(t.out, err)
	}
}

func pick(profiles []*trivia.PlayerProfile, ans string) ([]*trivia.PlayerProfile, error) {
	var out []*trivia.PlayerProfile
	seen := make(map[int]bool)
	for _, f := range strings.Split(ans, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || n < 1 || n > len(profiles) {
			return nil, fmt.Errorf("%q no es un jugador", strings.TrimSpace(f))
		}
		if seen[n] {
			return nil, fmt.Errorf("el jugador %d está repetido", n)
		}
		seen[n] = true
		out = append(out, profiles[n-1])
	}
	return out, nil
}

// NewProfile asks for the fields of a new profile.
func (t *Terminal) NewProfile() (*trivia.PlayerProfile, error) {
	email, err := t.prompt("Correo: ")
	if err != nil {
		return nil, err
	}
	alias, err := t.prompt("Alias: ")
	if err != nil {
		return nil, err
	}
	p := &trivia.PlayerProfile{Email: email, Alias: alias}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Menu shows the main menu and returns the chosen option, 1-based.
func (t *Terminal) Menu(options []string) (int, error) {
	fmt.Fprintln(t.out)
	for i, o := range options {
		fmt.Fprintf(t.out, "  %d. %s\n", i+1, o)
	}
	for {
		ans, err := t.prompt("Opción: ")
		if err != nil {
			return 0, err
		}
		if n, err := strconv.Atoi(ans); err == nil && n >= 1 && n <= len(options) {
			return n, nil
		}
	}
}
