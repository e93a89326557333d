package cards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCard(t *testing.T) {
	c, err := ParseCard("As")
	require.NoError(t, err)
	assert.Equal(t, Ace, c.Rank())
	assert.Equal(t, Spades, c.Suit())
	assert.Equal(t, "As", c.String())

	// Case-insensitive.
	c2, err := ParseCard("aS")
	require.NoError(t, err)
	assert.Equal(t, c, c2)
}

func TestParseCardInvalid(t *testing.T) {
	for _, s := range []string{"", "A", "Ax", "1s", "Ahh"} {
		_, err := ParseCard(s)
		assert.Error(t, err, "card %q", s)
	}
}

func TestParseCards(t *testing.T) {
	cs, err := ParseCards("Kh9s4c")
	require.NoError(t, err)
	require.Len(t, cs, 3)
	assert.Equal(t, "Kh9s4c", CardsString(cs))

	cs, err = ParseCards("Kh 9s 4c")
	require.NoError(t, err)
	assert.Len(t, cs, 3)
}

func TestParseCardsRejectsDuplicates(t *testing.T) {
	_, err := ParseCards("AhAh")
	assert.Error(t, err)
}

func TestDeck(t *testing.T) {
	deck := Deck()
	require.Len(t, deck, NumCards)

	seen := make(map[Card]struct{})
	for _, c := range deck {
		seen[c] = struct{}{}
	}
	assert.Len(t, seen, NumCards)
}

func TestCardPacking(t *testing.T) {
	for r := Two; r <= Ace; r++ {
		for s := Clubs; s <= Spades; s++ {
			c := MakeCard(r, s)
			assert.Equal(t, r, c.Rank())
			assert.Equal(t, s, c.Suit())
		}
	}
}
