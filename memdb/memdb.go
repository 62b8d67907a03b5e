// Package memdb implements trivia.DB in memory, for tests and for games that
// don't need to outlive the process.
package memdb

import (
	"fmt"
	"strings"
	"sync"

	"github.com/LDs31100113/TriviaFX-UCAB/trivia"
)

type DB struct {
	mu       sync.Mutex
	profiles []*trivia.PlayerProfile
	saved    *trivia.SavedState
	stats    []*trivia.PlayerStats
}

func New() *DB {
	return &DB{}
}

func (db *DB) Profiles() ([]*trivia.PlayerProfile, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]*trivia.PlayerProfile, len(db.profiles))
	for i, p := range db.profiles {
		out[i] = p.Clone()
	}
	return out, nil
}

func (db *DB) NewProfile(p *trivia.PlayerProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	// The SQL stores keep emails and aliases unique, ignoring case.
	for _, existing := range db.profiles {
		if strings.EqualFold(existing.Email, p.Email) {
			return fmt.Errorf("%w: %q", trivia.ErrProfileExists, p.Email)
		}
		if strings.EqualFold(existing.Alias, p.Alias) {
			return fmt.Errorf("%w: alias %q", trivia.ErrProfileExists, p.Alias)
		}
	}
	db.profiles = append(db.profiles, p.Clone())
	return nil
}

func (db *DB) SavedState() (*trivia.SavedState, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.saved == nil {
		return nil, trivia.ErrNoSavedState
	}
	return db.saved.Clone(), nil
}

func (db *DB) SaveState(s *trivia.SavedState) error {
	if err := s.Validate(); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	db.saved = s.Clone()
	return nil
}

func (db *DB) HasSavedState() (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.saved != nil, nil
}

func (db *DB) ClearSavedState() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.saved = nil
	return nil
}

func (db *DB) Stats() ([]*trivia.PlayerStats, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return trivia.CloneStats(db.stats), nil
}

func (db *DB) SaveStats(stats []*trivia.PlayerStats) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.stats = trivia.CloneStats(stats)
	return nil
}

func (db *DB) Close() error {
	return nil
}
