package game

import (
	"errors"

	"github.com/LDs31100113/TriviaFX-UCAB/dice"
	"github.com/LDs31100113/TriviaFX-UCAB/trivia"
)

var (
	ErrWrongPhase  = errors.New("game: action not allowed right now")
	ErrNotYourTurn = errors.New("game: not this player's turn")
	ErrMatchOver   = errors.New("game: match is over")
	// ErrMidTurn is returned by Snapshot while a decision is pending, since a
	// resumed game always starts at a roll.
	ErrMidTurn = errors.New("game: can't save in the middle of a turn")
)

// Rules holds the variants a match can be played with. The zero value is the
// standard game.
//
// The rulebook, for the parts that aren't configurable:
//   - A correct answer acquires the category of the question, and only that
//     one, whatever the cell.
//   - Leaving the center, the player picks a spoke at random and goes to the
//     circle at that spoke's entry, moved on by (steps-1) mod 7 cells.
//   - A reroll cell gives another roll once its question is resolved, right or
//     wrong.
//   - Arriving at the center with a complete card lets the player pick a
//     category for the final question. Getting it wrong ends the turn; the
//     player keeps the card and has to leave and come back to try again.
type Rules struct {
	// Roll turns die faces into steps.
	Roll dice.Variant
}

func (r Rules) withDefaults() Rules {
	if r.Roll == "" {
		r.Roll = dice.Raw
	}
	return r
}

// Phase is the decision a match is waiting on.
type Phase string

const (
	NoPhase = Phase("")
	// AwaitingRoll means the current player should roll.
	AwaitingRoll = Phase("AWAITING_ROLL")
	// PendingSpokeChoice means the current player rolled on a spoke entry and
	// must choose whether to go down the spoke.
	PendingSpokeChoice = Phase("PENDING_SPOKE_CHOICE")
	// PendingQuestion means the current player must answer a question.
	PendingQuestion = Phase("PENDING_QUESTION")
	// PendingFinalCategoryChoice means the current player reached the center
	// with a complete card and must choose the final question's category.
	PendingFinalCategoryChoice = Phase("PENDING_FINAL_CATEGORY_CHOICE")
	// PendingFinalQuestion means the current player must answer the final
	// question.
	PendingFinalQuestion = Phase("PENDING_FINAL_QUESTION")
	MatchWon             = Phase("MATCH_WON")
	// MatchAbandoned means everyone surrendered.
	MatchAbandoned = Phase("MATCH_ABANDONED")
)

func (p Phase) over() bool {
	return p == MatchWon || p == MatchAbandoned
}

// Status is the coarse state of a match.
type Status string

const (
	NoStatus  = Status("")
	Playing   = Status("PLAYING")
	Won       = Status("WON")
	Abandoned = Status("ABANDONED")
)

// Pending describes the decision a match is waiting on, so a caller can prompt
// for it and resume the match with the matching Move.
type Pending struct {
	Phase Phase `json:"phase"`
	// Player is the alias of the player who has to act.
	Player string `json:"player"`
	// Steps is the roll waiting on a spoke choice.
	Steps int `json:"steps,omitempty"`
	// Category and Prompt describe the question to answer. The answer is kept
	// back.
	Category trivia.Category `json:"category,omitempty"`
	Prompt   string          `json:"prompt,omitempty"`
	// Categories are the choices for the final question.
	Categories []trivia.Category `json:"categories,omitempty"`
	// ExtraRoll is set when the player will roll again after this question.
	ExtraRoll bool `json:"extra_roll,omitempty"`
	// Winner is set once the match is over.
	Winner string `json:"winner,omitempty"`
}
