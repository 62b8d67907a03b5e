package game

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/LDs31100113/TriviaFX-UCAB/trivia"
)

type Action string

const (
	ActionRoll           = Action("ROLL")
	ActionChooseSpoke    = Action("CHOOSE_SPOKE")
	ActionAnswer         = Action("ANSWER")
	ActionChooseCategory = Action("CHOOSE_CATEGORY")
	ActionSurrender      = Action("SURRENDER")
)

type Move struct {
	// Player is the alias of the player acting. If empty, the move is made for
	// the current player.
	Player string `json:"player,omitempty"`

	Action Action `json:"action"`
	// Only populated for Action == ActionChooseSpoke
	EnterSpoke bool `json:"enter_spoke,omitempty"`
	// Only populated for Action == ActionAnswer
	Answer    string `json:"answer,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms,omitempty"`
	// Only populated for Action == ActionChooseCategory
	Category trivia.Category `json:"category,omitempty"`
}

// Result reports what a move did.
type Result struct {
	Player string `json:"player"`

	// Steps is set when the move rolled the die.
	Steps int `json:"steps,omitempty"`
	// From and To are set when the move moved the player.
	Moved bool             `json:"moved,omitempty"`
	From  *trivia.Position `json:"from,omitempty"`
	To    *trivia.Position `json:"to,omitempty"`

	// Set when the move answered a question.
	Answered bool            `json:"answered,omitempty"`
	Category trivia.Category `json:"category,omitempty"`
	Correct  bool            `json:"correct,omitempty"`
	// Expected is the right answer, revealed once the question is answered.
	Expected string `json:"expected,omitempty"`

	// NoQuestion is set when the bank had nothing to ask.
	NoQuestion  bool   `json:"no_question,omitempty"`
	ExtraRoll   bool   `json:"extra_roll,omitempty"`
	TurnEnded   bool   `json:"turn_ended,omitempty"`
	Surrendered bool   `json:"surrendered,omitempty"`
	Winner      string `json:"winner,omitempty"`
}

// Move plays a single decision. It returns what happened and the status of
// the match afterwards.
func (g *Session) Move(mv *Move) (*Result, Status, error) {
	if mv == nil {
		return nil, "", fmt.Errorf("%w: no move given", trivia.ErrInvalidArgument)
	}
	if g.phase.over() {
		return nil, "", ErrMatchOver
	}
	p := g.CurrentPlayer()
	if mv.Player != "" && mv.Player != p.Alias {
		return nil, "", fmt.Errorf("%w: it's %q's turn, not %q's", ErrNotYourTurn, p.Alias, mv.Player)
	}

	res := &Result{Player: p.Alias}
	var err error
	switch mv.Action {
	case ActionRoll:
		err = g.handleRoll(p, res)
	case ActionChooseSpoke:
		err = g.handleSpokeChoice(p, mv.EnterSpoke, res)
	case ActionAnswer:
		err = g.handleAnswer(p, mv.Answer, mv.ElapsedMS, res)
	case ActionChooseCategory:
		err = g.handleCategoryChoice(mv.Category, res)
	case ActionSurrender:
		g.handleSurrender(p, res)
	default:
		return nil, "", fmt.Errorf("%w: unknown action %q", trivia.ErrInvalidArgument, mv.Action)
	}
	if err != nil {
		return nil, "", err
	}
	if g.winner != nil {
		res.Winner = g.winner.Alias
	}
	return res, g.Status(), nil
}

func (g *Session) expect(phases ...Phase) error {
	for _, ph := range phases {
		if g.phase == ph {
			return nil
		}
	}
	return fmt.Errorf("%w: match is in phase %s", ErrWrongPhase, g.phase)
}

func (g *Session) handleRoll(p *trivia.Player, res *Result) error {
	if err := g.expect(AwaitingRoll); err != nil {
		return err
	}
	g.extraRoll = false
	steps := g.RollDie()
	res.Steps = steps

	if p.Position.Place() == trivia.CirclePlace {
		if _, ok := g.cfg.Board.SpokeForEntry(p.Position.CircleIndex()); ok {
			g.steps = steps
			g.phase = PendingSpokeChoice
			return nil
		}
	}
	return g.move(p, steps, false, res)
}

func (g *Session) handleSpokeChoice(p *trivia.Player, enter bool, res *Result) error {
	if err := g.expect(PendingSpokeChoice); err != nil {
		return err
	}
	steps := g.steps
	g.steps = 0
	res.Steps = steps
	return g.move(p, steps, enter, res)
}

func (g *Session) move(p *trivia.Player, steps int, enterSpoke bool, res *Result) error {
	from := p.Position
	if err := g.MovePlayer(p, steps, enterSpoke); err != nil {
		// Keep the match where it was so the move can be retried.
		g.phase = AwaitingRoll
		return fmt.Errorf("failed to move %q: %w", p.Alias, err)
	}
	to := p.Position
	res.Moved, res.From, res.To = true, &from, &to
	g.log().Debug("moved", slog.String("alias", p.Alias), slog.String("from", from.String()), slog.String("to", to.String()))

	if to.IsCenter() {
		if p.Card.IsComplete() {
			g.phase = PendingFinalCategoryChoice
			return nil
		}
		g.endTurn(res)
		return nil
	}

	cell, err := g.cfg.Board.CellAt(to)
	if err != nil {
		return fmt.Errorf("landed off the board: %w", err)
	}
	g.extraRoll = cell.Reroll
	g.ask(cell.Category, PendingQuestion, res)
	return nil
}

// ask puts a question in cat to the current player, or skips it if there's
// nothing to ask.
func (g *Session) ask(cat trivia.Category, phase Phase, res *Result) {
	q, ok := g.QuestionForCategory(cat)
	if !ok {
		res.NoQuestion = true
		g.finishTurn(res)
		return
	}
	g.category, g.question = cat, q
	g.phase = phase
}

func (g *Session) handleAnswer(p *trivia.Player, answer string, elapsedMS int64, res *Result) error {
	if err := g.expect(PendingQuestion, PendingFinalQuestion); err != nil {
		return err
	}
	cat, q := g.category, g.question
	g.category, g.question = trivia.NoCategory, nil

	correct := q.Matches(answer)
	res.Answered, res.Category, res.Correct, res.Expected = true, cat, correct, q.Answer

	if g.phase == PendingFinalQuestion {
		if !correct {
			g.log().Info("missed the final question", slog.String("alias", p.Alias))
			g.endTurn(res)
			return nil
		}
		p.RecordCorrect(cat, max(elapsedMS, 0))
		g.winner = p
		g.phase = MatchWon
		g.log().Info("match won", slog.String("alias", p.Alias))
		return nil
	}

	g.RecordAnswer(p, cat, correct, elapsedMS)
	g.finishTurn(res)
	return nil
}

func (g *Session) handleCategoryChoice(cat trivia.Category, res *Result) error {
	if err := g.expect(PendingFinalCategoryChoice); err != nil {
		return err
	}
	if !cat.Valid() {
		return fmt.Errorf("%w: %d isn't a category", trivia.ErrInvalidArgument, cat)
	}
	q, ok := g.QuestionForCategory(cat)
	if !ok {
		// Let them pick another one.
		res.NoQuestion = true
		res.Category = cat
		return nil
	}
	g.category, g.question = cat, q
	g.phase = PendingFinalQuestion
	return nil
}

func (g *Session) handleSurrender(p *trivia.Player, res *Result) {
	g.Surrender(p)
	g.steps, g.category, g.question, g.extraRoll = 0, trivia.NoCategory, nil, false
	res.Surrendered = true
	g.log().Info("player surrendered", slog.String("alias", p.Alias))

	active := g.ActivePlayers()
	switch {
	case len(active) == 0:
		g.winner = g.ResolveSurrenderWinner()
		g.phase = MatchAbandoned
	case len(active) == 1 && len(g.players) > 1:
		g.winner = active[0]
		g.phase = MatchWon
	default:
		g.endTurn(res)
	}
}

// finishTurn ends the turn unless the cell granted another roll.
func (g *Session) finishTurn(res *Result) {
	if g.extraRoll {
		g.extraRoll = false
		g.phase = AwaitingRoll
		res.ExtraRoll = true
		return
	}
	g.endTurn(res)
}

func (g *Session) endTurn(res *Result) {
	g.extraRoll = false
	g.AdvanceTurn()
	g.phase = AwaitingRoll
	res.TurnEnded = true
}

// Choice is what a player does at the start of a roll in Play mode.
type Choice int

const (
	ChooseRoll Choice = iota
	ChooseSurrender
	// ChooseQuit stops Play, leaving the match resumable.
	ChooseQuit
)

// ErrQuit is returned by Play when a contestant quits.
var ErrQuit = errors.New("game: match paused")

// Contestant makes the decisions for whichever player is up, e.g. by asking at
// a terminal.
type Contestant interface {
	StartRoll(p *trivia.Player) (Choice, error)
	ChooseSpoke(p *trivia.Player, steps int) (bool, error)
	// Answer returns the player's answer and how long they took.
	Answer(p *trivia.Player, cat trivia.Category, prompt string) (string, int64, error)
	ChooseFinalCategory(p *trivia.Player) (trivia.Category, error)
	Announce(p *trivia.Player, res *Result)
}

// Play runs the match until it's over or the contestant quits, checkpointing
// between rolls.
func (g *Session) Play() (*trivia.Player, error) {
	c := g.cfg.Contestant
	if c == nil {
		return nil, errors.New("Play needs a Contestant")
	}
	for !g.phase.over() {
		p := g.CurrentPlayer()
		mv := &Move{Player: p.Alias}
		switch g.phase {
		case AwaitingRoll:
			if err := g.checkpoint(); err != nil {
				return nil, err
			}
			choice, err := c.StartRoll(p)
			if err != nil {
				return nil, fmt.Errorf("StartRoll for %q: %w", p.Alias, err)
			}
			switch choice {
			case ChooseQuit:
				return nil, ErrQuit
			case ChooseSurrender:
				mv.Action = ActionSurrender
			default:
				mv.Action = ActionRoll
			}
		case PendingSpokeChoice:
			enter, err := c.ChooseSpoke(p, g.steps)
			if err != nil {
				return nil, fmt.Errorf("ChooseSpoke for %q: %w", p.Alias, err)
			}
			mv.Action, mv.EnterSpoke = ActionChooseSpoke, enter
		case PendingQuestion, PendingFinalQuestion:
			ans, ms, err := c.Answer(p, g.category, g.question.Prompt)
			if err != nil {
				return nil, fmt.Errorf("Answer for %q: %w", p.Alias, err)
			}
			mv.Action, mv.Answer, mv.ElapsedMS = ActionAnswer, ans, ms
		case PendingFinalCategoryChoice:
			cat, err := c.ChooseFinalCategory(p)
			if err != nil {
				return nil, fmt.Errorf("ChooseFinalCategory for %q: %w", p.Alias, err)
			}
			mv.Action, mv.Category = ActionChooseCategory, cat
		}

		res, _, err := g.Move(mv)
		if err != nil {
			return nil, fmt.Errorf("move %s for %q: %w", mv.Action, p.Alias, err)
		}
		c.Announce(p, res)
	}
	return g.winner, nil
}

func (g *Session) checkpoint() error {
	if g.cfg.Checkpoint == nil {
		return nil
	}
	state, err := g.Snapshot()
	if err != nil {
		return err
	}
	if err := g.cfg.Checkpoint(state); err != nil {
		return fmt.Errorf("failed to checkpoint: %w", err)
	}
	return nil
}
