package trivia

import (
	"errors"
	"fmt"
)

const (
	// SpokeCount is the number of spokes joining the circle to the center.
	SpokeCount = 6
	// SegmentLength is the number of circle cells between two spoke entries,
	// counting the entry itself.
	SegmentLength = 7
	// CircleSize is the number of cells on the outer ring.
	CircleSize = SpokeCount * SegmentLength
	// SpokeLength is the number of cells on each spoke.
	SpokeLength = 5
)

// Cell is a single square on the board.
type Cell struct {
	Category Category `json:"category"`
	// Reroll cells grant the player an extra roll.
	Reroll bool `json:"reroll,omitempty"`
	// SpokeEntry is only set on circle cells, and marks where a player can
	// branch into a spoke.
	SpokeEntry bool `json:"spoke_entry,omitempty"`
}

// Board is the static topology of a game: the outer circle, the spokes and an
// implicit center. A Board is never modified after NewBoard returns, so it can
// be shared freely.
type Board struct {
	circle []Cell
	spokes [][]Cell

	entryToSpoke map[int]int
	spokeToEntry map[int]int
}

// NewBoard validates the given cells and builds the lookups between spoke
// entries and spokes. Spoke entries are mapped to spokes in ring order, so the
// first entry on the circle leads into spoke 0.
func NewBoard(circle []Cell, spokes [][]Cell) (*Board, error) {
	if len(circle) != CircleSize {
		return nil, fmt.Errorf("board must have %d circle cells, found %d", CircleSize, len(circle))
	}
	if len(spokes) != SpokeCount {
		return nil, fmt.Errorf("board must have %d spokes, found %d", SpokeCount, len(spokes))
	}
	for i, sp := range spokes {
		if len(sp) != SpokeLength {
			return nil, fmt.Errorf("spoke %d must have %d cells, found %d", i, SpokeLength, len(sp))
		}
		for j, c := range sp {
			if !c.Category.Valid() {
				return nil, fmt.Errorf("spoke %d cell %d has no category", i, j)
			}
			if c.SpokeEntry {
				return nil, fmt.Errorf("spoke %d cell %d is marked as a spoke entry", i, j)
			}
		}
	}

	b := &Board{
		circle:       make([]Cell, len(circle)),
		spokes:       make([][]Cell, len(spokes)),
		entryToSpoke: make(map[int]int),
		spokeToEntry: make(map[int]int),
	}
	copy(b.circle, circle)
	for i, sp := range spokes {
		b.spokes[i] = append([]Cell(nil), sp...)
	}

	for i, c := range circle {
		if !c.Category.Valid() {
			return nil, fmt.Errorf("circle cell %d has no category", i)
		}
		if !c.SpokeEntry {
			continue
		}
		s := len(b.entryToSpoke)
		if s >= SpokeCount {
			return nil, fmt.Errorf("board has more than %d spoke entries", SpokeCount)
		}
		b.entryToSpoke[i] = s
		b.spokeToEntry[s] = i
	}
	if len(b.entryToSpoke) != SpokeCount {
		return nil, fmt.Errorf("board must have %d spoke entries, found %d", SpokeCount, len(b.entryToSpoke))
	}

	return b, nil
}

// CellAt returns the cell at pos, or nil for the center.
func (b *Board) CellAt(pos Position) (*Cell, error) {
	if err := pos.Validate(); err != nil {
		return nil, err
	}
	switch pos.Place() {
	case CirclePlace:
		c := b.circle[pos.CircleIndex()]
		return &c, nil
	case SpokePlace:
		c := b.spokes[pos.SpokeIndex()][pos.CellIndex()]
		return &c, nil
	}
	return nil, nil
}

// SpokeForEntry returns the spoke a circle cell leads into.
func (b *Board) SpokeForEntry(circle int) (int, bool) {
	s, ok := b.entryToSpoke[circle]
	return s, ok
}

// EntryForSpoke returns the circle index a spoke branches from.
func (b *Board) EntryForSpoke(spoke int) (int, bool) {
	i, ok := b.spokeToEntry[spoke]
	return i, ok
}

// ErrFromCenter is returned by NextPosition for the center, because leaving the
// center needs a random spoke and that's up to the game.
var ErrFromCenter = errors.New("trivia: moves from the center are decided by the game")

// NextPosition returns where a token standing on current ends up after steps
// steps. If current is a spoke entry and enterSpoke is set, the token goes down
// that spoke instead of around the circle. Moving past the end of a spoke lands
// on the center; players don't need an exact roll.
func (b *Board) NextPosition(current Position, steps int, enterSpoke bool) (Position, error) {
	if steps < 1 {
		return Position{}, fmt.Errorf("%w: %d steps", ErrInvalidArgument, steps)
	}
	if err := current.Validate(); err != nil {
		return Position{}, err
	}

	switch current.Place() {
	case CirclePlace:
		i := current.CircleIndex()
		if s, ok := b.entryToSpoke[i]; ok && enterSpoke {
			if steps-1 < SpokeLength {
				return Spoke(s, steps-1)
			}
			return Center(), nil
		}
		return Circle((i + steps) % CircleSize)
	case SpokePlace:
		j := current.CellIndex() + steps
		if j >= SpokeLength {
			return Center(), nil
		}
		return Spoke(current.SpokeIndex(), j)
	}
	return Position{}, ErrFromCenter
}

// Circle returns a copy of the ring cells, in order.
func (b *Board) Circle() []Cell {
	return append([]Cell(nil), b.circle...)
}

// Spokes returns a copy of the spoke cells.
func (b *Board) Spokes() [][]Cell {
	out := make([][]Cell, len(b.spokes))
	for i, sp := range b.spokes {
		out[i] = append([]Cell(nil), sp...)
	}
	return out
}
