package sqldb

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LDs31100113/TriviaFX-UCAB/sqldb/migrations"
	"github.com/LDs31100113/TriviaFX-UCAB/trivia"
	"github.com/mattn/go-sqlite3"
)

var errClosed = errors.New("sqldb: database is closed")

// DB implements trivia.DB, backed by a SQLite database.
// NOTE: Since the database doesn't support concurrent writers, we don't
// actually hold the *sql.DB in this struct, we force all callers to get a
// handle via channels.
type DB struct {
	dbChan   chan func(*sql.DB)
	doneChan chan struct{}
	closeFn  func() error
}

// New opens the database stored on disk at the given filename, creating it
// and bringing its schema up to date as needed.
func New(fn string) (*DB, error) {
	sdb, err := sql.Open("sqlite3", fn+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	// Every :memory: connection is its own database.
	sdb.SetMaxOpenConns(1)

	if err := migrations.Run(sdb); err != nil {
		sdb.Close()
		return nil, fmt.Errorf("failed to migrate %q: %w", fn, err)
	}

	db := &DB{
		dbChan:   make(chan func(*sql.DB)),
		doneChan: make(chan struct{}),
		closeFn: func() error {
			return sdb.Close()
		},
	}
	go db.run(sdb)
	return db, nil
}

// run handles all database calls, and ensures that only one thing is happening
// against the database at a time.
func (s *DB) run(sdb *sql.DB) {
	for {
		select {
		case dbFn := <-s.dbChan:
			dbFn(sdb)
		case <-s.doneChan:
			return
		}
	}
}

func (s *DB) Close() error {
	close(s.doneChan)
	return s.closeFn()
}

// do runs fn on the database goroutine and waits for it.
func (s *DB) do(fn func(*sql.DB) error) error {
	select {
	case <-s.doneChan:
		return errClosed
	default:
	}
	errC := make(chan error, 1)
	select {
	case s.dbChan <- func(sdb *sql.DB) { errC <- fn(sdb) }:
	case <-s.doneChan:
		return errClosed
	}
	return <-errC
}

// tx runs fn in a transaction on the database goroutine.
func (s *DB) tx(fn func(*sql.Tx) error) error {
	return s.do(func(sdb *sql.DB) error {
		tx, err := sdb.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		if err := fn(tx); err != nil {
			tx.Rollback()
			return err
		}
		return tx.Commit()
	})
}

func (s *DB) Profiles() ([]*trivia.PlayerProfile, error) {
	var out []*trivia.PlayerProfile
	err := s.do(func(sdb *sql.DB) error {
		rows, err := sdb.Query(`SELECT email, alias FROM profiles ORDER BY id`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			p := &trivia.PlayerProfile{}
			if err := rows.Scan(&p.Email, &p.Alias); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	return out, nil
}

func (s *DB) NewProfile(p *trivia.PlayerProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	err := s.do(func(sdb *sql.DB) error {
		_, err := sdb.Exec(`INSERT INTO profiles (email, alias) VALUES (?, ?)`, p.Email, p.Alias)
		return err
	})
	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%w: email %q or alias %q is taken", trivia.ErrProfileExists, p.Email, p.Alias)
	}
	if err != nil {
		return fmt.Errorf("failed to add profile: %w", err)
	}
	return nil
}

func (s *DB) SavedState() (*trivia.SavedState, error) {
	state := &trivia.SavedState{}
	err := s.do(func(sdb *sql.DB) error {
		var savedAt string
		err := sdb.QueryRow(`SELECT match_id, current_index, saved_at FROM saved_game WHERE id = 1`).
			Scan(&state.MatchID, &state.CurrentIndex, &savedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return trivia.ErrNoSavedState
		}
		if err != nil {
			return err
		}
		if state.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt); err != nil {
			return fmt.Errorf("bad saved_at %q: %w", savedAt, err)
		}

		rows, err := sdb.Query(`
SELECT alias, email, position, card, correct, surrendered, elapsed_ms
FROM saved_players
ORDER BY turn`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			p, err := scanPlayer(rows)
			if err != nil {
				return err
			}
			state.Players = append(state.Players, p)
		}
		return rows.Err()
	})
	if errors.Is(err, trivia.ErrNoSavedState) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load saved game: %w", err)
	}
	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("saved game is corrupt: %w", err)
	}
	return state, nil
}

func scanPlayer(rows *sql.Rows) (*trivia.Player, error) {
	p := &trivia.Player{}
	var pos, card, correct string
	if err := rows.Scan(&p.Alias, &p.Email, &pos, &card, &correct, &p.Surrendered, &p.ElapsedMS); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(pos), &p.Position); err != nil {
		return nil, fmt.Errorf("bad position for %q: %w", p.Alias, err)
	}
	p.Card = trivia.NewCard()
	if err := json.Unmarshal([]byte(card), p.Card); err != nil {
		return nil, fmt.Errorf("bad card for %q: %w", p.Alias, err)
	}
	if err := json.Unmarshal([]byte(correct), &p.Correct); err != nil {
		return nil, fmt.Errorf("bad counters for %q: %w", p.Alias, err)
	}
	if p.Correct == nil {
		p.Correct = make(map[trivia.Category]int)
	}
	return p, nil
}

func (s *DB) SaveState(state *trivia.SavedState) error {
	if err := state.Validate(); err != nil {
		return err
	}
	err := s.tx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM saved_players`); err != nil {
			return err
		}
		_, err := tx.Exec(`
INSERT INTO saved_game (id, match_id, current_index, saved_at) VALUES (1, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	match_id = excluded.match_id,
	current_index = excluded.current_index,
	saved_at = excluded.saved_at`,
			state.MatchID, state.CurrentIndex, state.SavedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return err
		}
		for i, p := range state.Players {
			pos, err := json.Marshal(p.Position)
			if err != nil {
				return err
			}
			card, err := json.Marshal(p.Card)
			if err != nil {
				return err
			}
			correct, err := json.Marshal(p.Correct)
			if err != nil {
				return err
			}
			_, err = tx.Exec(`
INSERT INTO saved_players (turn, alias, email, position, card, correct, surrendered, elapsed_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				i, p.Alias, p.Email, string(pos), string(card), string(correct), p.Surrendered, p.ElapsedMS)
			if err != nil {
				return fmt.Errorf("player %q: %w", p.Alias, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save game: %w", err)
	}
	return nil
}

func (s *DB) HasSavedState() (bool, error) {
	var n int
	err := s.do(func(sdb *sql.DB) error {
		return sdb.QueryRow(`SELECT COUNT(*) FROM saved_game`).Scan(&n)
	})
	if err != nil {
		return false, fmt.Errorf("failed to check for a saved game: %w", err)
	}
	return n > 0, nil
}

func (s *DB) ClearSavedState() error {
	err := s.tx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM saved_players`); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM saved_game`)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to clear saved game: %w", err)
	}
	return nil
}

func (s *DB) Stats() ([]*trivia.PlayerStats, error) {
	var out []*trivia.PlayerStats
	err := s.do(func(sdb *sql.DB) error {
		rows, err := sdb.Query(`SELECT alias, played, won, lost, correct_ms FROM stats ORDER BY rank`)
		if err != nil {
			return err
		}
		defer rows.Close()
		byAlias := make(map[string]*trivia.PlayerStats)
		for rows.Next() {
			st := trivia.NewPlayerStats("")
			if err := rows.Scan(&st.Alias, &st.Played, &st.Won, &st.Lost, &st.CorrectMS); err != nil {
				return err
			}
			out = append(out, st)
			byAlias[st.Alias] = st
		}
		if err := rows.Err(); err != nil {
			return err
		}

		crows, err := sdb.Query(`SELECT alias, category, count FROM stats_correct`)
		if err != nil {
			return err
		}
		defer crows.Close()
		for crows.Next() {
			var (
				alias, key string
				n          int
			)
			if err := crows.Scan(&alias, &key, &n); err != nil {
				return err
			}
			cat, err := trivia.ParseCategory(key)
			if err != nil {
				return err
			}
			if st, ok := byAlias[alias]; ok {
				st.CorrectByCategory[cat] = n
			}
		}
		return crows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	return out, nil
}

func (s *DB) SaveStats(stats []*trivia.PlayerStats) error {
	err := s.tx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM stats_correct`); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM stats`); err != nil {
			return err
		}
		for i, st := range stats {
			if strings.TrimSpace(st.Alias) == "" {
				return fmt.Errorf("%w: stats %d have no alias", trivia.ErrInvalidArgument, i)
			}
			_, err := tx.Exec(`INSERT INTO stats (rank, alias, played, won, lost, correct_ms) VALUES (?, ?, ?, ?, ?, ?)`,
				i, st.Alias, st.Played, st.Won, st.Lost, st.CorrectMS)
			if err != nil {
				return fmt.Errorf("stats for %q: %w", st.Alias, err)
			}
			for cat, n := range st.CorrectByCategory {
				if !cat.Valid() {
					continue
				}
				_, err := tx.Exec(`INSERT INTO stats_correct (alias, category, count) VALUES (?, ?, ?)`, st.Alias, cat.Key(), n)
				if err != nil {
					return fmt.Errorf("stats for %q: %w", st.Alias, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save stats: %w", err)
	}
	return nil
}
