// Package config loads settings from the environment and opens the store they
// point at.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/LDs31100113/TriviaFX-UCAB/dice"
	"github.com/LDs31100113/TriviaFX-UCAB/filedb"
	"github.com/LDs31100113/TriviaFX-UCAB/memdb"
	"github.com/LDs31100113/TriviaFX-UCAB/pgdb"
	"github.com/LDs31100113/TriviaFX-UCAB/sqldb"
	"github.com/LDs31100113/TriviaFX-UCAB/trivia"
	"github.com/caarlos0/env/v11"
)

// Store names the trivia.DB implementation to use.
type Store string

const (
	MemoryStore   = Store("memory")
	SQLiteStore   = Store("sqlite")
	PostgresStore = Store("postgres")
	FileStore     = Store("file")
)

type Config struct {
	Store       Store        `env:"TRIVIA_STORE" envDefault:"sqlite"`
	DBPath      string       `env:"TRIVIA_DB_PATH" envDefault:"trivia.db"`
	PostgresURL string       `env:"TRIVIA_POSTGRES_URL"`
	DataDir     string       `env:"TRIVIA_DATA_DIR" envDefault:"."`
	Questions   string       `env:"TRIVIA_QUESTIONS" envDefault:"preguntasJuegoTrivia.json"`
	LogLevel    slog.Level   `env:"TRIVIA_LOG_LEVEL" envDefault:"INFO"`
	RollVariant dice.Variant `env:"TRIVIA_ROLL_VARIANT" envDefault:"raw"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store {
	case MemoryStore, SQLiteStore, FileStore:
	case PostgresStore:
		if c.PostgresURL == "" {
			return errors.New("TRIVIA_POSTGRES_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store %q, expected one of memory, sqlite, postgres or file", c.Store)
	}
	v, err := dice.ParseVariant(string(c.RollVariant))
	if err != nil {
		return err
	}
	c.RollVariant = v
	return nil
}

// Logger builds a JSON logger at the configured level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: c.LogLevel,
	}))
}

// OpenStore opens the configured store. The caller is responsible for
// closing it.
func (c *Config) OpenStore(ctx context.Context, logger *slog.Logger) (trivia.DB, error) {
	switch c.Store {
	case MemoryStore:
		return memdb.New(), nil
	case SQLiteStore:
		db, err := sqldb.New(c.DBPath)
		if err != nil {
			return nil, fmt.Errorf("connecting to sqlite: %w", err)
		}
		logger.Info("connected to sqlite", slog.String("path", c.DBPath))
		return db, nil
	case PostgresStore:
		db, err := pgdb.New(ctx, c.PostgresURL, logger)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		return db, nil
	case FileStore:
		db, err := filedb.New(c.DataDir)
		if err != nil {
			return nil, err
		}
		logger.Info("using json files", slog.String("dir", c.DataDir))
		return db, nil
	}
	return nil, fmt.Errorf("unknown store %q", c.Store)
}
