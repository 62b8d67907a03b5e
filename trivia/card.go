package trivia

import "encoding/json"

// Card (the "ficha") records which categories a player has acquired. The zero
// value is not usable; use NewCard.
type Card struct {
	acquired map[Category]bool
}

// NewCard returns a card with every category unacquired.
func NewCard() *Card {
	c := &Card{acquired: make(map[Category]bool, NumCategories)}
	for _, cat := range Categories {
		c.acquired[cat] = false
	}
	return c
}

// Acquire marks a category as acquired. It's a no-op for categories that
// aren't on the card, or are already acquired.
func (c *Card) Acquire(cat Category) {
	if !cat.Valid() {
		return
	}
	c.acquired[cat] = true
}

func (c *Card) HasAcquired(cat Category) bool {
	return c.acquired[cat]
}

// IsComplete is true once all six categories have been acquired.
func (c *Card) IsComplete() bool {
	for _, cat := range Categories {
		if !c.acquired[cat] {
			return false
		}
	}
	return true
}

func (c *Card) AcquiredCount() int {
	n := 0
	for _, cat := range Categories {
		if c.acquired[cat] {
			n++
		}
	}
	return n
}

// FillAll acquires every category at once.
func (c *Card) FillAll() {
	for _, cat := range Categories {
		c.acquired[cat] = true
	}
}

// Missing lists the categories still to acquire, in board order.
func (c *Card) Missing() []Category {
	var out []Category
	for _, cat := range Categories {
		if !c.acquired[cat] {
			out = append(out, cat)
		}
	}
	return out
}

// Acquired returns a copy of the category flags.
func (c *Card) Acquired() map[Category]bool {
	out := make(map[Category]bool, NumCategories)
	for _, cat := range Categories {
		out[cat] = c.acquired[cat]
	}
	return out
}

func (c *Card) Clone() *Card {
	return &Card{acquired: c.Acquired()}
}

// Equal is used by go-cmp, since the flags are unexported.
func (c *Card) Equal(o *Card) bool {
	if c == nil || o == nil {
		return c == o
	}
	for _, cat := range Categories {
		if c.acquired[cat] != o.acquired[cat] {
			return false
		}
	}
	return true
}

func (c *Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Acquired())
}

// UnmarshalJSON fills in categories missing from older saves as unacquired.
func (c *Card) UnmarshalJSON(b []byte) error {
	var m map[Category]bool
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*c = *NewCard()
	for cat, ok := range m {
		if ok {
			c.Acquire(cat)
		}
	}
	return nil
}
