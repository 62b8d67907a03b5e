// Package pgdb implements trivia.DB on PostgreSQL, for sharing the roster and
// statistics between machines.
package pgdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LDs31100113/TriviaFX-UCAB/pgdb/migrations"
	"github.com/LDs31100113/TriviaFX-UCAB/trivia"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// Timeout bounds every call, since trivia.DB calls don't take a context.
const Timeout = 10 * time.Second

const uniqueViolation = "23505"

type DB struct {
	pool *pgxpool.Pool
}

// New connects to the database at connStr and brings its schema up to date.
// The caller is responsible for calling Close().
func New(ctx context.Context, connStr string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	var username, database string
	if err := pool.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to query database: %w", err)
	}

	sdb := stdlib.OpenDBFromPool(pool)
	defer sdb.Close()
	if err := migrations.Run(sdb); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("connected to postgres", slog.String("database", database), slog.String("user", username))
	return &DB{pool: pool}, nil
}

func (db *DB) Close() error {
	db.pool.Close()
	return nil
}

func timeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), Timeout)
}

func (db *DB) Profiles() ([]*trivia.PlayerProfile, error) {
	ctx, cancel := timeout()
	defer cancel()

	rows, err := db.pool.Query(ctx, `SELECT email, alias FROM profiles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var out []*trivia.PlayerProfile
	for rows.Next() {
		p := &trivia.PlayerProfile{}
		if err := rows.Scan(&p.Email, &p.Alias); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}
	return out, nil
}

func (db *DB) NewProfile(p *trivia.PlayerProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	ctx, cancel := timeout()
	defer cancel()

	_, err := db.pool.Exec(ctx, `INSERT INTO profiles (email, alias) VALUES ($1, $2)`, p.Email, p.Alias)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: email %q or alias %q is taken", trivia.ErrProfileExists, p.Email, p.Alias)
	}
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

func (db *DB) SavedState() (*trivia.SavedState, error) {
	ctx, cancel := timeout()
	defer cancel()

	var (
		state   trivia.SavedState
		id      string
		players []byte
	)
	err := db.pool.QueryRow(ctx, `SELECT match_id::text, current_index, saved_at, players FROM saved_game WHERE id = 1`).
		Scan(&id, &state.CurrentIndex, &state.SavedAt, &players)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, trivia.ErrNoSavedState
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load saved game: %w", err)
	}
	state.MatchID = trivia.MatchID(id)
	state.SavedAt = state.SavedAt.UTC()
	if err := json.Unmarshal(players, &state.Players); err != nil {
		return nil, fmt.Errorf("failed to decode saved players: %w", err)
	}
	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("saved game is corrupt: %w", err)
	}
	return &state, nil
}

func (db *DB) SaveState(state *trivia.SavedState) error {
	if err := state.Validate(); err != nil {
		return err
	}
	players, err := json.Marshal(state.Players)
	if err != nil {
		return fmt.Errorf("failed to encode players: %w", err)
	}
	ctx, cancel := timeout()
	defer cancel()

	q := `
	INSERT INTO saved_game (id, match_id, current_index, saved_at, players) VALUES (1, $1, $2, $3, $4)
	ON CONFLICT (id) DO UPDATE SET match_id = $1, current_index = $2, saved_at = $3, players = $4;
	`
	if _, err := db.pool.Exec(ctx, q, string(state.MatchID), state.CurrentIndex, state.SavedAt, string(players)); err != nil {
		return fmt.Errorf("failed to save game: %w", err)
	}
	return nil
}

func (db *DB) HasSavedState() (bool, error) {
	ctx, cancel := timeout()
	defer cancel()

	var has bool
	if err := db.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM saved_game)`).Scan(&has); err != nil {
		return false, fmt.Errorf("failed to check for a saved game: %w", err)
	}
	return has, nil
}

func (db *DB) ClearSavedState() error {
	ctx, cancel := timeout()
	defer cancel()

	if _, err := db.pool.Exec(ctx, `DELETE FROM saved_game`); err != nil {
		return fmt.Errorf("failed to clear saved game: %w", err)
	}
	return nil
}

func (db *DB) Stats() ([]*trivia.PlayerStats, error) {
	ctx, cancel := timeout()
	defer cancel()

	rows, err := db.pool.Query(ctx, `SELECT alias, played, won, lost, correct_by_category, correct_ms FROM stats ORDER BY rank`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	var out []*trivia.PlayerStats
	for rows.Next() {
		st := trivia.NewPlayerStats("")
		var correct []byte
		if err := rows.Scan(&st.Alias, &st.Played, &st.Won, &st.Lost, &correct, &st.CorrectMS); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		if err := json.Unmarshal(correct, &st.CorrectByCategory); err != nil {
			return nil, fmt.Errorf("failed to decode stats for %q: %w", st.Alias, err)
		}
		if st.CorrectByCategory == nil {
			st.CorrectByCategory = make(map[trivia.Category]int)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}
	return out, nil
}

func (db *DB) SaveStats(stats []*trivia.PlayerStats) error {
	ctx, cancel := timeout()
	defer cancel()

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM stats`); err != nil {
		return fmt.Errorf("failed to clear stats: %w", err)
	}
	for i, st := range stats {
		correct, err := json.Marshal(st.CorrectByCategory)
		if err != nil {
			return fmt.Errorf("failed to encode stats for %q: %w", st.Alias, err)
		}
		q := `
		INSERT INTO stats (rank, alias, played, won, lost, correct_by_category, correct_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
		`
		if _, err := tx.Exec(ctx, q, i, st.Alias, st.Played, st.Won, st.Lost, string(correct), st.CorrectMS); err != nil {
			return fmt.Errorf("failed to insert stats for %q: %w", st.Alias, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
