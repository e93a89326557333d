// Package cards provides playing card primitives: a compact single-byte
// card representation, hole card combos, and hand range notation parsing.
package cards

import (
	"strings"

	"github.com/pkg/errors"
)

// Rank is a card rank, Two (lowest) through Ace.
type Rank uint8

const (
	Two Rank = iota
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

const rankChars = "23456789TJQKA"

func (r Rank) String() string {
	if r > Ace {
		return "?"
	}
	return string(rankChars[r])
}

// Suit is a card suit. Ordering is arbitrary but stable.
type Suit uint8

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

const suitChars = "cdhs"

func (s Suit) String() string {
	if s > Spades {
		return "?"
	}
	return string(suitChars[s])
}

// Card is a single playing card packed into one byte as 4*rank + suit.
// The packed form keeps card sets and deal enumeration cache-friendly.
type Card uint8

// NumCards is the size of a standard deck.
const NumCards = 52

// MakeCard packs a rank and suit into a Card.
func MakeCard(r Rank, s Suit) Card {
	return Card(uint8(r)*4 + uint8(s))
}

// Rank returns the card's rank.
func (c Card) Rank() Rank {
	return Rank(c / 4)
}

// Suit returns the card's suit.
func (c Card) Suit() Suit {
	return Suit(c % 4)
}

// String returns the card in standard two-character notation, e.g. "As".
func (c Card) String() string {
	return c.Rank().String() + c.Suit().String()
}

// ParseCard parses a single card from two-character notation such as "Ah" or "td".
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if len(s) != 2 {
		return 0, errors.Errorf("invalid card %q: must be 2 characters", s)
	}

	r := strings.IndexByte(rankChars, upper(s[0]))
	if r < 0 {
		return 0, errors.Errorf("invalid card %q: unknown rank %q", s, s[0])
	}

	u := strings.IndexByte(suitChars, lower(s[1]))
	if u < 0 {
		return 0, errors.Errorf("invalid card %q: unknown suit %q", s, s[1])
	}

	return MakeCard(Rank(r), Suit(u)), nil
}

// ParseCards parses a run of concatenated cards, e.g. "Kh9s4c".
// Whitespace between cards is permitted.
func ParseCards(s string) ([]Card, error) {
	s = strings.ReplaceAll(s, " ", "")
	if len(s)%2 != 0 {
		return nil, errors.Errorf("invalid cards %q: odd length", s)
	}

	result := make([]Card, 0, len(s)/2)
	seen := make(map[Card]struct{}, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		c, err := ParseCard(s[i : i+2])
		if err != nil {
			return nil, err
		}
		if _, dup := seen[c]; dup {
			return nil, errors.Errorf("duplicate card %v in %q", c, s)
		}
		seen[c] = struct{}{}
		result = append(result, c)
	}

	return result, nil
}

// Deck returns all 52 cards in packed order.
func Deck() []Card {
	deck := make([]Card, NumCards)
	for i := range deck {
		deck[i] = Card(i)
	}
	return deck
}

// CardsString renders a card slice as concatenated notation.
func CardsString(cs []Card) string {
	var sb strings.Builder
	sb.Grow(2 * len(cs))
	for _, c := range cs {
		sb.WriteString(c.String())
	}
	return sb.String()
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b - 'A' + 'a'
	}
	return b
}
