// Package dice implements the six-sided die the game is played with.
package dice

import (
	"fmt"
	"math/rand"
)

// Sides is the number of faces on the die.
const Sides = 6

// Variant changes how a raw roll is turned into steps.
type Variant string

const (
	// Raw uses the face value, 1 to 6.
	Raw = Variant("raw")
	// OddPlusTwo adds two to odd rolls, so 1, 3 and 5 become 3, 5 and 7.
	OddPlusTwo = Variant("odd-plus-two")
)

// ParseVariant parses a variant name. The empty string means Raw.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case "", Raw:
		return Raw, nil
	case OddPlusTwo:
		return OddPlusTwo, nil
	}
	return "", fmt.Errorf("unknown roll variant %q, expected %q or %q", s, Raw, OddPlusTwo)
}

// Apply turns a face value into the number of steps to move.
func (v Variant) Apply(face int) int {
	if v == OddPlusTwo && face%2 == 1 {
		return face + 2
	}
	return face
}

// Die is a fair die. It isn't safe for concurrent use, like the *rand.Rand it
// wraps.
type Die struct {
	r *rand.Rand
}

// New returns a die drawing from src. Use NewCryptoSource for real games, and
// a seeded source in tests.
func New(src rand.Source) *Die {
	return &Die{r: rand.New(src)}
}

// Roll returns a face value between 1 and Sides.
func (d *Die) Roll() int {
	return d.r.Intn(Sides) + 1
}
