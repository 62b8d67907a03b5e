package game

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/LDs31100113/TriviaFX-UCAB/boardgen"
	"github.com/LDs31100113/TriviaFX-UCAB/dice"
	"github.com/LDs31100113/TriviaFX-UCAB/trivia"
)

// Session is a single match. It supports two modes of operation:
//   - Play() mode: plays the whole match out at once, asking the configured
//     Contestant for every decision.
//   - Move() mode: plays out a single decision through Move(), rejecting
//     anything the match isn't waiting on. Callers use Pending() to find out
//     what that is.
//
// A Session isn't safe for concurrent use.
type Session struct {
	id  trivia.MatchID
	cfg *Config

	players []*trivia.Player
	current int

	phase Phase
	// The roll waiting on a spoke choice.
	steps int
	// The question being asked, and whether the cell it came from grants
	// another roll.
	category  trivia.Category
	question  *trivia.Question
	extraRoll bool

	winner *trivia.Player
}

// Config holds the collaborators of a match. Only Questions is required.
type Config struct {
	Questions trivia.QuestionSource

	// Board defaults to the standard layout.
	Board *trivia.Board
	// Die defaults to a die backed by crypto/rand.
	Die *dice.Die
	// Rand picks the first player and the spoke taken out of the center. It
	// defaults to crypto/rand too.
	Rand  *rand.Rand
	Rules Rules

	// Contestant and Checkpoint are only used by Play.
	Contestant Contestant
	Checkpoint func(*trivia.SavedState) error

	Logger *slog.Logger
}

func (c *Config) withDefaults() (*Config, error) {
	if c == nil || c.Questions == nil {
		return nil, errors.New("a question source is required")
	}
	cc := *c
	if cc.Board == nil {
		cc.Board = boardgen.New()
	}
	if cc.Die == nil {
		cc.Die = dice.New(dice.NewCryptoSource())
	}
	if cc.Rand == nil {
		cc.Rand = rand.New(dice.NewCryptoSource())
	}
	if cc.Logger == nil {
		cc.Logger = slog.Default()
	}
	cc.Rules = cc.Rules.withDefaults()
	return &cc, nil
}

// New starts a match between the given profiles, all on the center with empty
// cards. The first player is picked at random.
func New(profiles []*trivia.PlayerProfile, cfg *Config) (*Session, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("%w: a match needs at least one player", trivia.ErrInvalidArgument)
	}

	seen := make(map[string]bool)
	players := make([]*trivia.Player, len(profiles))
	for i, p := range profiles {
		if p == nil {
			return nil, fmt.Errorf("%w: profile %d is missing", trivia.ErrInvalidArgument, i)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("profile %d: %w", i, err)
		}
		if seen[p.Alias] {
			return nil, fmt.Errorf("%w: alias %q appears twice", trivia.ErrInvalidArgument, p.Alias)
		}
		seen[p.Alias] = true
		players[i] = trivia.NewPlayer(p)
	}

	g := &Session{
		id:      trivia.NewMatchID(),
		cfg:     cfg,
		players: players,
		current: cfg.Rand.Intn(len(players)),
		phase:   AwaitingRoll,
	}
	g.log().Info("match started", slog.Int("players", len(players)), slog.String("first", g.players[g.current].Alias))
	return g, nil
}

// FromSaved resumes a match from a snapshot, with every player exactly as they
// were and the same player to roll.
func FromSaved(state *trivia.SavedState, cfg *Config) (*Session, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, trivia.ErrNoSavedState
	}
	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("invalid saved game: %w", err)
	}
	for i, p := range state.Players {
		if _, err := cfg.Board.CellAt(p.Position); err != nil {
			return nil, fmt.Errorf("player %d: %w", i, err)
		}
	}

	id := state.MatchID
	if id == "" {
		id = trivia.NewMatchID()
	}
	g := &Session{
		id:      id,
		cfg:     cfg,
		players: trivia.ClonePlayers(state.Players),
		current: state.CurrentIndex,
		phase:   AwaitingRoll,
	}

	switch active := g.ActivePlayers(); {
	case len(active) == 0:
		g.winner = g.ResolveSurrenderWinner()
		g.phase = MatchAbandoned
	case len(active) == 1 && len(g.players) > 1:
		g.winner = active[0]
		g.phase = MatchWon
	case g.players[g.current].Surrendered:
		// Only a hand-edited save gets here.
		g.log().Warn("saved game points at a surrendered player, skipping them", slog.String("alias", g.players[g.current].Alias))
		g.AdvanceTurn()
	}
	g.log().Info("match resumed", slog.String("match_id", string(id)), slog.String("phase", string(g.phase)))
	return g, nil
}

func (g *Session) log() *slog.Logger {
	return g.cfg.Logger.With(slog.String("match_id", string(g.id)))
}

func (g *Session) ID() trivia.MatchID  { return g.id }
func (g *Session) Board() *trivia.Board { return g.cfg.Board }
func (g *Session) Phase() Phase         { return g.phase }

// Players returns the players in turn order. They're the session's own, so
// callers shouldn't modify them outside of the direct operations below.
func (g *Session) Players() []*trivia.Player {
	return g.players
}

func (g *Session) CurrentPlayer() *trivia.Player {
	return g.players[g.current]
}

func (g *Session) CurrentIndex() int {
	return g.current
}

// ActivePlayers returns the players who haven't surrendered, in turn order.
func (g *Session) ActivePlayers() []*trivia.Player {
	var out []*trivia.Player
	for _, p := range g.players {
		if !p.Surrendered {
			out = append(out, p)
		}
	}
	return out
}

// Winner returns the winner once the match is over, or nil.
func (g *Session) Winner() *trivia.Player {
	return g.winner
}

func (g *Session) Status() Status {
	switch g.phase {
	case MatchWon:
		return Won
	case MatchAbandoned:
		return Abandoned
	}
	return Playing
}

// Pending describes what the match is waiting on.
func (g *Session) Pending() *Pending {
	p := &Pending{
		Phase:     g.phase,
		Player:    g.CurrentPlayer().Alias,
		ExtraRoll: g.extraRoll,
	}
	switch g.phase {
	case PendingSpokeChoice:
		p.Steps = g.steps
	case PendingQuestion, PendingFinalQuestion:
		p.Category = g.category
		p.Prompt = g.question.Prompt
	case PendingFinalCategoryChoice:
		p.Categories = append([]trivia.Category(nil), trivia.Categories...)
	case MatchWon, MatchAbandoned:
		if g.winner != nil {
			p.Winner = g.winner.Alias
		}
	}
	return p
}

// RollDie rolls the die and returns the number of steps to move.
func (g *Session) RollDie() int {
	return g.cfg.Rules.Roll.Apply(g.cfg.Die.Roll())
}

// MovePlayer moves p by steps. From the center the player goes out along a
// random spoke straight onto the circle; anywhere else the board decides, with
// enterSpoke choosing whether to go down a spoke from its entry.
func (g *Session) MovePlayer(p *trivia.Player, steps int, enterSpoke bool) error {
	if steps < 1 {
		return fmt.Errorf("%w: can't move %d steps", trivia.ErrInvalidArgument, steps)
	}
	if !p.Position.IsCenter() {
		next, err := g.cfg.Board.NextPosition(p.Position, steps, enterSpoke)
		if err != nil {
			return err
		}
		p.Position = next
		return nil
	}

	spoke := g.cfg.Rand.Intn(trivia.SpokeCount)
	entry, ok := g.cfg.Board.EntryForSpoke(spoke)
	if !ok {
		return fmt.Errorf("%w: board has no entry for spoke %d", trivia.ErrOutOfRange, spoke)
	}
	next, err := trivia.Circle((entry + (steps-1)%trivia.SegmentLength) % trivia.CircleSize)
	if err != nil {
		return err
	}
	p.Position = next
	return nil
}

// QuestionForCategory draws a question from the question source. When the bank
// has nothing for cat it logs the gap and returns false, and the caller treats
// the question as skipped.
func (g *Session) QuestionForCategory(cat trivia.Category) (*trivia.Question, bool) {
	q, err := g.cfg.Questions.RandomQuestion(cat)
	switch {
	case errors.Is(err, trivia.ErrNoQuestions):
		g.log().Warn("no questions for category", slog.String("category", cat.Key()))
		return nil, false
	case err != nil:
		g.log().Error("failed to draw a question", slog.String("category", cat.Key()), slog.Any("error", err))
		return nil, false
	case q == nil:
		g.log().Warn("question source returned nothing", slog.String("category", cat.Key()))
		return nil, false
	}
	return q, true
}

// RecordAnswer credits p with a correct answer in cat: the category goes on
// their card and the answer counts towards their statistics. Wrong answers
// change nothing.
func (g *Session) RecordAnswer(p *trivia.Player, cat trivia.Category, correct bool, elapsedMS int64) {
	if !correct || !cat.Valid() {
		return
	}
	if elapsedMS < 0 {
		elapsedMS = 0
	}
	p.Card.Acquire(cat)
	p.RecordCorrect(cat, elapsedMS)
}

// AdvanceTurn passes the turn to the next player in order who hasn't
// surrendered. It does nothing if everyone has.
func (g *Session) AdvanceTurn() {
	if len(g.ActivePlayers()) == 0 {
		return
	}
	for {
		g.current = (g.current + 1) % len(g.players)
		if !g.players[g.current].Surrendered {
			return
		}
	}
}

// Surrender marks p as out of the match.
func (g *Session) Surrender(p *trivia.Player) {
	p.Surrendered = true
}

// ResolveSurrenderWinner returns the last player standing. If everyone
// surrendered, it's whoever acquired the most categories, then whoever spent
// the least time answering, then whoever comes first. With two or more players
// still in, there's no winner and it returns nil.
func (g *Session) ResolveSurrenderWinner() *trivia.Player {
	active := g.ActivePlayers()
	switch len(active) {
	case 0:
		var best *trivia.Player
		for _, p := range g.players {
			if best == nil || beats(p, best) {
				best = p
			}
		}
		return best
	case 1:
		return active[0]
	}
	return nil
}

func beats(p, q *trivia.Player) bool {
	pc, qc := p.Card.AcquiredCount(), q.Card.AcquiredCount()
	if pc != qc {
		return pc > qc
	}
	return p.ElapsedMS < q.ElapsedMS
}

// Snapshot captures the match so it can be resumed with FromSaved. It only
// works between rolls: mid-turn it returns ErrMidTurn.
func (g *Session) Snapshot() (*trivia.SavedState, error) {
	if g.phase != AwaitingRoll && !g.phase.over() {
		return nil, ErrMidTurn
	}
	return &trivia.SavedState{
		MatchID:      g.id,
		Players:      trivia.ClonePlayers(g.players),
		CurrentIndex: g.current,
		SavedAt:      time.Now().UTC(),
	}, nil
}

// RecordStats folds this match into the global statistics and throws away the
// saved game, since it can't be resumed any more. It can be called before the
// match is over, in which case nobody is counted as the winner.
func (g *Session) RecordStats(db trivia.DB) error {
	stats, err := db.Stats()
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}
	if err := db.SaveStats(trivia.RecordMatchResult(stats, g.players, g.winner)); err != nil {
		return fmt.Errorf("failed to save stats: %w", err)
	}
	if err := db.ClearSavedState(); err != nil {
		return fmt.Errorf("failed to clear saved game: %w", err)
	}
	return nil
}
