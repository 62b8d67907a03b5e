// Package filedb implements trivia.DB as a directory of JSON files, using the
// same file names as the desktop game. Rosters, stats and saves written by the
// desktop game are read as-is; files are always written back in this
// package's own format.
package filedb

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/LDs31100113/TriviaFX-UCAB/trivia"
)

const (
	ProfilesFile = "jugadores.json"
	StatsFile    = "estadisticas_globales.json"
	SavedFile    = "partida_guardada.json"
)

type DB struct {
	dir string
	mu  sync.Mutex
}

// New returns a store keeping its files in dir, which is created if needed.
func New(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &DB{dir: dir}, nil
}

func (db *DB) path(name string) string {
	return filepath.Join(db.dir, name)
}

// read decodes the named file into v. It reports false if the file doesn't
// exist.
func (db *DB) read(name string, v interface{}) (bool, error) {
	return db.readWith(name, func(dat []byte) error {
		return json.Unmarshal(dat, v)
	})
}

func (db *DB) readWith(name string, decode func([]byte) error) (bool, error) {
	dat, err := os.ReadFile(db.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := decode(dat); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return true, nil
}

// write replaces the named file, going through a temporary file so a crash
// never leaves half of one behind.
func (db *DB) write(name string, v interface{}) error {
	dat, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	f, err := os.CreateTemp(db.dir, name+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(dat); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), db.path(name))
}

func (db *DB) Profiles() ([]*trivia.PlayerProfile, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.profiles()
}

func (db *DB) profiles() ([]*trivia.PlayerProfile, error) {
	var ps []*trivia.PlayerProfile
	if _, err := db.read(ProfilesFile, &ps); err != nil {
		return nil, err
	}
	return ps, nil
}

func (db *DB) NewProfile(p *trivia.PlayerProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	ps, err := db.profiles()
	if err != nil {
		return err
	}
	for _, existing := range ps {
		if strings.EqualFold(existing.Email, p.Email) {
			return fmt.Errorf("%w: %q", trivia.ErrProfileExists, p.Email)
		}
		if strings.EqualFold(existing.Alias, p.Alias) {
			return fmt.Errorf("%w: alias %q", trivia.ErrProfileExists, p.Alias)
		}
	}
	return db.write(ProfilesFile, append(ps, p))
}

func (db *DB) SavedState() (*trivia.SavedState, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var state *trivia.SavedState
	ok, err := db.readWith(SavedFile, func(dat []byte) error {
		var err error
		state, err = decodeSave(dat)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, trivia.ErrNoSavedState
	}
	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("saved game is corrupt: %w", err)
	}
	return state, nil
}

func (db *DB) SaveState(state *trivia.SavedState) error {
	if err := state.Validate(); err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.write(SavedFile, state)
}

func (db *DB) HasSavedState() (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := os.Stat(db.path(SavedFile))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (db *DB) ClearSavedState() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	err := os.Remove(db.path(SavedFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (db *DB) Stats() ([]*trivia.PlayerStats, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var stats []*trivia.PlayerStats
	_, err := db.readWith(StatsFile, func(dat []byte) error {
		var err error
		stats, err = decodeStats(dat)
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, st := range stats {
		if st.CorrectByCategory == nil {
			st.CorrectByCategory = make(map[trivia.Category]int)
		}
	}
	return stats, nil
}

func (db *DB) SaveStats(stats []*trivia.PlayerStats) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.write(StatsFile, stats)
}

func (db *DB) Close() error {
	return nil
}
