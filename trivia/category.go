package trivia

import (
	"fmt"
	"strings"
)

// Category is one of the six trivia categories a player collects on their
// card.
type Category int

const (
	// NoCategory is an error case, and the category of the center.
	NoCategory Category = iota
	Geography
	History
	Sports
	Science
	ArtLiterature
	Entertainment
)

// NumCategories is the number of categories needed to complete a card.
const NumCategories = 6

// Categories lists every category in board order.
var Categories = []Category{
	Geography,
	History,
	Sports,
	Science,
	ArtLiterature,
	Entertainment,
}

var categoryInfo = map[Category]struct {
	// desktop is the key the desktop game writes in its stats and saves.
	key, desktop, display, color string
}{
	Geography:     {"GEOGRAPHY", "GEOGRAFIA", "Geografía", "#0D6ABF"},
	History:       {"HISTORY", "HISTORIA", "Historia", "#FFC300"},
	Sports:        {"SPORTS", "DEPORTES", "Deportes", "#F57C00"},
	Science:       {"SCIENCE", "CIENCIA", "Ciencia", "#009E73"},
	ArtLiterature: {"ART_LITERATURE", "ARTE_LITERATURA", "Arte y Literatura", "#CC79A7"},
	Entertainment: {"ENTERTAINMENT", "ENTRETENIMIENTO", "Entretenimiento", "#9C27B0"},
}

// Valid reports whether c is one of the six categories.
func (c Category) Valid() bool {
	_, ok := categoryInfo[c]
	return ok
}

// Key is the stable identifier used in storage and on the wire.
func (c Category) Key() string {
	return categoryInfo[c].key
}

// String returns the display name, e.g. "Arte y Literatura".
func (c Category) String() string {
	if info, ok := categoryInfo[c]; ok {
		return info.display
	}
	return ""
}

// Color is the web colour used when drawing the category.
func (c Category) Color() string {
	return categoryInfo[c].color
}

// ParseCategory looks a category up by key or display name, ignoring case.
// The desktop game's keys (GEOGRAFIA, ARTE_LITERATURA...) are accepted too.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		info := categoryInfo[c]
		if strings.EqualFold(s, info.key) || strings.EqualFold(s, info.desktop) || strings.EqualFold(s, info.display) {
			return c, nil
		}
	}
	return NoCategory, fmt.Errorf("%w: unknown category %q", ErrInvalidArgument, s)
}

// MarshalText lets categories be used as JSON object keys.
func (c Category) MarshalText() ([]byte, error) {
	if c == NoCategory {
		return []byte{}, nil
	}
	if !c.Valid() {
		return nil, fmt.Errorf("%w: category %d", ErrInvalidArgument, int(c))
	}
	return []byte(c.Key()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*c = NoCategory
		return nil
	}
	cat, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = cat
	return nil
}
