package cards

import "github.com/pkg/errors"

// Combo is an unordered pair of hole cards, stored with Hi > Lo so that
// equal combos compare equal.
type Combo struct {
	Hi, Lo Card
}

// MakeCombo builds a Combo from two distinct cards.
func MakeCombo(a, b Card) (Combo, error) {
	if a == b {
		return Combo{}, errors.Errorf("combo cannot repeat card %v", a)
	}
	if a < b {
		a, b = b, a
	}
	return Combo{Hi: a, Lo: b}, nil
}

// ParseCombo parses a specific combo such as "AhKd".
func ParseCombo(s string) (Combo, error) {
	cs, err := ParseCards(s)
	if err != nil {
		return Combo{}, err
	}
	if len(cs) != 2 {
		return Combo{}, errors.Errorf("combo %q must contain exactly 2 cards", s)
	}
	return MakeCombo(cs[0], cs[1])
}

// String returns the combo in concatenated card notation, e.g. "AhKd".
func (c Combo) String() string {
	return c.Hi.String() + c.Lo.String()
}

// Contains reports whether the combo holds the given card.
func (c Combo) Contains(card Card) bool {
	return c.Hi == card || c.Lo == card
}

// Conflicts reports whether two combos share a card.
func (c Combo) Conflicts(other Combo) bool {
	return c.Contains(other.Hi) || c.Contains(other.Lo)
}

// ConflictsAny reports whether the combo shares a card with any of cs.
func (c Combo) ConflictsAny(cs []Card) bool {
	for _, card := range cs {
		if c.Contains(card) {
			return true
		}
	}
	return false
}

// RemoveConflicts filters combos that collide with the given dead cards.
func RemoveConflicts(combos []Combo, dead []Card) []Combo {
	result := make([]Combo, 0, len(combos))
	for _, c := range combos {
		if !c.ConflictsAny(dead) {
			result = append(result, c)
		}
	}
	return result
}
