// Package questions implements a question bank loaded from a JSON file.
package questions

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"sync"

	"github.com/LDs31100113/TriviaFX-UCAB/dice"
	"github.com/LDs31100113/TriviaFX-UCAB/trivia"
)

// Bank holds questions by category. It's safe for concurrent use.
type Bank struct {
	mu        sync.Mutex
	r         *rand.Rand
	questions map[trivia.Category][]*trivia.Question
}

type Config struct {
	// Rand picks questions. It defaults to crypto/rand.
	Rand   *rand.Rand
	Logger *slog.Logger
}

func (c *Config) rand() *rand.Rand {
	if c == nil || c.Rand == nil {
		return rand.New(dice.NewCryptoSource())
	}
	return c.Rand
}

func (c *Config) logger() *slog.Logger {
	if c == nil || c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// NewEmpty returns a bank with no questions in it.
func NewEmpty(cfg *Config) *Bank {
	return &Bank{
		r:         cfg.rand(),
		questions: make(map[trivia.Category][]*trivia.Question),
	}
}

// Open loads the bank in file. The file is a JSON object from category names
// to lists of {"pregunta", "respuesta"} objects. If the file doesn't exist,
// the bank is empty and every category is a content gap.
func Open(file string, cfg *Config) (*Bank, error) {
	log := cfg.logger()
	b := NewEmpty(cfg)

	f, err := os.Open(file)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn("question bank doesn't exist, no questions will be asked", slog.String("file", file))
		return b, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open question bank %q: %w", file, err)
	}
	defer f.Close()

	if err := b.Load(f, log); err != nil {
		return nil, fmt.Errorf("failed to read question bank %q: %w", file, err)
	}
	log.Info("read question bank", slog.String("file", file), slog.Int("questions", b.Len()))
	return b, nil
}

// Load adds the questions in r to the bank. Categories are matched by display
// name or key, and unknown ones are logged and skipped, as are questions with
// no prompt or answer.
func (b *Bank) Load(r io.Reader, log *slog.Logger) error {
	var raw map[string][]*trivia.Question
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return err
	}
	for name, qs := range raw {
		cat, err := trivia.ParseCategory(name)
		if err != nil {
			log.Warn("skipping unknown category in question bank", slog.String("category", name))
			continue
		}
		for _, q := range qs {
			if err := b.Add(cat, q); err != nil {
				log.Warn("skipping question", slog.String("category", name), slog.Any("error", err))
			}
		}
	}
	return nil
}

// Add puts a question in the bank.
func (b *Bank) Add(cat trivia.Category, q *trivia.Question) error {
	if !cat.Valid() {
		return fmt.Errorf("%w: %d isn't a category", trivia.ErrInvalidArgument, cat)
	}
	if q == nil || strings.TrimSpace(q.Prompt) == "" || strings.TrimSpace(q.Answer) == "" {
		return fmt.Errorf("%w: question needs a prompt and an answer", trivia.ErrInvalidArgument)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	qc := *q
	b.questions[cat] = append(b.questions[cat], &qc)
	return nil
}

// RandomQuestion returns a copy of a random question in cat, or
// trivia.ErrNoQuestions.
func (b *Bank) RandomQuestion(cat trivia.Category) (*trivia.Question, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	qs := b.questions[cat]
	if len(qs) == 0 {
		return nil, fmt.Errorf("%w: %s", trivia.ErrNoQuestions, cat)
	}
	q := *qs[b.r.Intn(len(qs))]
	return &q, nil
}

// Count returns the number of questions in each category.
func (b *Bank) Count() map[trivia.Category]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[trivia.Category]int)
	for cat, qs := range b.questions {
		out[cat] = len(qs)
	}
	return out
}

// Len is the total number of questions.
func (b *Bank) Len() int {
	n := 0
	for _, c := range b.Count() {
		n += c
	}
	return n
}
