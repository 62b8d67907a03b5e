package trivia

import (
	"encoding/json"
	"fmt"
)

// Place is the kind of board location a Position refers to.
type Place string

const (
	// NoPlace is an error case.
	NoPlace     = Place("")
	CenterPlace = Place("CENTER")
	CirclePlace = Place("CIRCLE")
	SpokePlace  = Place("SPOKE")
)

// Position addresses one location on the board. Positions are comparable
// values: two positions are equal if they have the same Place and the indices
// that matter for that Place. Fields that don't apply are always zero, so ==
// and map keys work as expected.
type Position struct {
	place Place
	// circle is the ring index, 0..CircleSize-1.
	circle int
	// spoke and cell address a spoke cell. Cell 0 is the one next to the
	// circle, cell SpokeLength-1 the one next to the center.
	spoke int
	cell  int
}

// Center returns the position of the center of the board.
func Center() Position {
	return Position{place: CenterPlace}
}

// Circle returns the position of the i-th cell on the outer ring.
func Circle(i int) (Position, error) {
	if i < 0 || i >= CircleSize {
		return Position{}, fmt.Errorf("%w: circle index %d not in [0, %d)", ErrInvalidArgument, i, CircleSize)
	}
	return Position{place: CirclePlace, circle: i}, nil
}

// Spoke returns the position of the given cell on the given spoke.
func Spoke(spoke, cell int) (Position, error) {
	if spoke < 0 || spoke >= SpokeCount {
		return Position{}, fmt.Errorf("%w: spoke index %d not in [0, %d)", ErrInvalidArgument, spoke, SpokeCount)
	}
	if cell < 0 || cell >= SpokeLength {
		return Position{}, fmt.Errorf("%w: spoke cell %d not in [0, %d)", ErrInvalidArgument, cell, SpokeLength)
	}
	return Position{place: SpokePlace, spoke: spoke, cell: cell}, nil
}

// MustCircle is like Circle but panics on a bad index. Only use it with
// constants.
func MustCircle(i int) Position {
	p, err := Circle(i)
	if err != nil {
		panic(err)
	}
	return p
}

// MustSpoke is like Spoke but panics on bad indices.
func MustSpoke(spoke, cell int) Position {
	p, err := Spoke(spoke, cell)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Position) Place() Place     { return p.place }
func (p Position) IsCenter() bool   { return p.place == CenterPlace }
func (p Position) CircleIndex() int { return p.circle }
func (p Position) SpokeIndex() int  { return p.spoke }
func (p Position) CellIndex() int   { return p.cell }

// Equal reports whether p and o address the same location.
func (p Position) Equal(o Position) bool { return p == o }

// Validate checks that the indices are in range for the Place. Positions made
// by the constructors are always valid; ones decoded from storage may not be.
func (p Position) Validate() error {
	switch p.place {
	case CenterPlace:
		if p.circle != 0 || p.spoke != 0 || p.cell != 0 {
			return fmt.Errorf("%w: center with indices %+v", ErrOutOfRange, p)
		}
		return nil
	case CirclePlace:
		if _, err := Circle(p.circle); err != nil {
			return fmt.Errorf("%w: %v", ErrOutOfRange, err)
		}
		if p.spoke != 0 || p.cell != 0 {
			return fmt.Errorf("%w: circle position carries spoke indices", ErrOutOfRange)
		}
		return nil
	case SpokePlace:
		if _, err := Spoke(p.spoke, p.cell); err != nil {
			return fmt.Errorf("%w: %v", ErrOutOfRange, err)
		}
		if p.circle != 0 {
			return fmt.Errorf("%w: spoke position carries a circle index", ErrOutOfRange)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown place %q", ErrOutOfRange, p.place)
	}
}

// String is the human readable, 1-based description shown to players.
func (p Position) String() string {
	switch p.place {
	case CenterPlace:
		return "Centro"
	case CirclePlace:
		return fmt.Sprintf("Círculo, Casilla %d", p.circle+1)
	case SpokePlace:
		return fmt.Sprintf("Rayo %d, Casilla %d", p.spoke+1, p.cell+1)
	}
	return "Desconocida"
}

type jsonPosition struct {
	Place  Place `json:"place"`
	Circle int   `json:"circle,omitempty"`
	Spoke  int   `json:"spoke,omitempty"`
	Cell   int   `json:"cell,omitempty"`
}

func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonPosition{
		Place:  p.place,
		Circle: p.circle,
		Spoke:  p.spoke,
		Cell:   p.cell,
	})
}

// UnmarshalJSON decodes a position without validating it, so a corrupted save
// can still be loaded and rejected later with a useful error.
func (p *Position) UnmarshalJSON(b []byte) error {
	var jp jsonPosition
	if err := json.Unmarshal(b, &jp); err != nil {
		return err
	}
	*p = Position{place: jp.Place, circle: jp.Circle, spoke: jp.Spoke, cell: jp.Cell}
	return nil
}
