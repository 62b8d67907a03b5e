package trivia

import "strings"

// PlayerProfile is an entry on the player roster. Email is the unique key,
// Alias is what gets displayed.
type PlayerProfile struct {
	Email string `json:"email"`
	Alias string `json:"alias"`
}

func (p *PlayerProfile) Clone() *PlayerProfile {
	pc := *p
	return &pc
}

// Validate checks that both fields are filled in.
func (p *PlayerProfile) Validate() error {
	if strings.TrimSpace(p.Email) == "" {
		return &ValidationError{Field: "email", Reason: "is empty"}
	}
	if strings.TrimSpace(p.Alias) == "" {
		return &ValidationError{Field: "alias", Reason: "is empty"}
	}
	if !strings.Contains(p.Email, "@") {
		return &ValidationError{Field: "email", Reason: "is not an email address"}
	}
	return nil
}

// ValidationError describes a malformed profile.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "trivia: " + e.Field + " " + e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrInvalidArgument }

// Player is the per-match state of one participant. Alias identifies the
// player within a match.
type Player struct {
	Alias       string   `json:"alias"`
	Email       string   `json:"email"`
	Card        *Card    `json:"card"`
	Position    Position `json:"position"`
	Surrendered bool     `json:"surrendered"`
	// Correct counts this match's correct answers per category.
	Correct map[Category]int `json:"correct"`
	// ElapsedMS is the total time spent on correct answers this match.
	ElapsedMS int64 `json:"elapsed_ms"`
}

// NewPlayer starts a player on the center with an empty card.
func NewPlayer(p *PlayerProfile) *Player {
	return &Player{
		Alias:    p.Alias,
		Email:    p.Email,
		Card:     NewCard(),
		Position: Center(),
		Correct:  make(map[Category]int),
	}
}

// RecordCorrect counts a correct answer in cat that took elapsedMS.
func (p *Player) RecordCorrect(cat Category, elapsedMS int64) {
	if p.Correct == nil {
		p.Correct = make(map[Category]int)
	}
	p.Correct[cat]++
	p.ElapsedMS += elapsedMS
}

// CorrectTotal is the number of correct answers across categories.
func (p *Player) CorrectTotal() int {
	n := 0
	for _, c := range p.Correct {
		n += c
	}
	return n
}

func (p *Player) Clone() *Player {
	pc := *p
	if p.Card != nil {
		pc.Card = p.Card.Clone()
	}
	pc.Correct = make(map[Category]int, len(p.Correct))
	for k, v := range p.Correct {
		pc.Correct[k] = v
	}
	return &pc
}

// Validate rejects players that couldn't have come from a real match, such as
// ones read from a tampered save file.
func (p *Player) Validate() error {
	if p.Alias == "" {
		return &ValidationError{Field: "alias", Reason: "is empty"}
	}
	if p.Card == nil {
		return &ValidationError{Field: "card", Reason: "is missing"}
	}
	if p.ElapsedMS < 0 {
		return &ValidationError{Field: "elapsed_ms", Reason: "is negative"}
	}
	return p.Position.Validate()
}

// ClonePlayers deep-copies a player list.
func ClonePlayers(ps []*Player) []*Player {
	out := make([]*Player, len(ps))
	for i, p := range ps {
		out[i] = p.Clone()
	}
	return out
}
