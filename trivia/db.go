package trivia

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MatchID identifies one match, so a resumed game can be told apart from a new
// one.
type MatchID string

// NewMatchID returns a random match ID.
func NewMatchID() MatchID {
	return MatchID(uuid.NewString())
}

// SavedState is a snapshot of a match taken between turns, enough to resume it
// exactly where it was left.
type SavedState struct {
	MatchID      MatchID   `json:"match_id"`
	Players      []*Player `json:"jugadores"`
	CurrentIndex int       `json:"indice_jugador_actual"`
	SavedAt      time.Time `json:"saved_at"`
}

func (s *SavedState) Clone() *SavedState {
	sc := *s
	sc.Players = ClonePlayers(s.Players)
	return &sc
}

// Validate checks a loaded snapshot before a game is rebuilt from it.
func (s *SavedState) Validate() error {
	if len(s.Players) == 0 {
		return fmt.Errorf("%w: saved game has no players", ErrInvalidArgument)
	}
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Players) {
		return fmt.Errorf("%w: current player %d of %d", ErrOutOfRange, s.CurrentIndex, len(s.Players))
	}
	seen := make(map[string]bool)
	for i, p := range s.Players {
		if p == nil {
			return fmt.Errorf("%w: player %d is missing", ErrInvalidArgument, i)
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("player %d: %w", i, err)
		}
		if seen[p.Alias] {
			return fmt.Errorf("%w: alias %q appears twice", ErrInvalidArgument, p.Alias)
		}
		seen[p.Alias] = true
	}
	return nil
}

// DB is the persistence collaborator: the player roster, the single saved game
// and the global statistics.
type DB interface {
	Profiles() ([]*PlayerProfile, error)
	NewProfile(*PlayerProfile) error

	// SavedState returns ErrNoSavedState if there's nothing to resume.
	SavedState() (*SavedState, error)
	SaveState(*SavedState) error
	HasSavedState() (bool, error)
	ClearSavedState() error

	Stats() ([]*PlayerStats, error)
	SaveStats([]*PlayerStats) error

	Close() error
}
