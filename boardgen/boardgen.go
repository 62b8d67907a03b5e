package boardgen

import (
	"fmt"

	"github.com/LDs31100113/TriviaFX-UCAB/trivia"
)

// New builds the standard board. Categories cycle around the circle in
// trivia.Categories order, the first cell of each seven-cell segment is a
// spoke entry, and the two cells after it are reroll cells. Every cell of a
// spoke shares its entry's category.
func New() *trivia.Board {
	b, err := NewWithOrder(trivia.Categories)
	if err != nil {
		// The standard order is always valid.
		panic(err)
	}
	return b
}

// NewWithOrder is like New, but cycles through the categories in the given
// order. order must be a permutation of trivia.Categories.
func NewWithOrder(order []trivia.Category) (*trivia.Board, error) {
	if err := validOrder(order); err != nil {
		return nil, err
	}

	circle := make([]trivia.Cell, trivia.CircleSize)
	spokes := make([][]trivia.Cell, trivia.SpokeCount)
	for i := range circle {
		cat := order[i%len(order)]
		offset := i % trivia.SegmentLength
		entry := offset == 0

		circle[i] = trivia.Cell{
			Category:   cat,
			Reroll:     offset == 1 || offset == 2,
			SpokeEntry: entry,
		}

		if entry {
			sp := make([]trivia.Cell, trivia.SpokeLength)
			for j := range sp {
				sp[j] = trivia.Cell{Category: cat}
			}
			spokes[i/trivia.SegmentLength] = sp
		}
	}

	return trivia.NewBoard(circle, spokes)
}

func validOrder(order []trivia.Category) error {
	if len(order) != trivia.NumCategories {
		return fmt.Errorf("need %d categories, got %d", trivia.NumCategories, len(order))
	}
	seen := make(map[trivia.Category]bool)
	for _, c := range order {
		if !c.Valid() {
			return fmt.Errorf("invalid category %d", int(c))
		}
		if seen[c] {
			return fmt.Errorf("category %q appears twice", c)
		}
		seen[c] = true
	}
	return nil
}
