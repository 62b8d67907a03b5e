package trivia

import "errors"

var (
	// ErrInvalidArgument is returned when a value is built from out-of-range
	// inputs. It indicates a programming error.
	ErrInvalidArgument = errors.New("trivia: invalid argument")
	// ErrOutOfRange is returned when a position that was never validated (e.g.
	// one loaded from a corrupted save) points outside the board.
	ErrOutOfRange = errors.New("trivia: position out of range")
	// ErrNoQuestions means the question source has nothing for a category. It's
	// a content gap, not a game logic fault.
	ErrNoQuestions = errors.New("trivia: no questions for category")

	ErrNoSavedState    = errors.New("trivia: no saved game")
	ErrProfileNotFound = errors.New("trivia: profile not found")
	ErrProfileExists   = errors.New("trivia: profile already exists")
)
