package game

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cfrlab/gto/cards"
)

func validDescription() *Description {
	return &Description{
		Stacks: [NumSeats]float64{100, 100},
		Blinds: Blinds{Small: 0.5, Big: 1},
		Sizing: BetSizing{Preflop: []float64{1}},
		Ranges: [NumSeats]string{"random", "random"},
	}
}

func TestValidateAccepts(t *testing.T) {
	require.NoError(t, validDescription().Validate())
}

func TestValidateRejectsNonPositiveStack(t *testing.T) {
	for _, stack := range []float64{0, -25} {
		d := validDescription()
		d.Stacks[0] = stack
		err := d.Validate()
		require.Error(t, err)
		assert.Equal(t, ErrInvalidParams, errors.Cause(err))
	}
}

func TestValidateRejectsBadBlinds(t *testing.T) {
	d := validDescription()
	d.Blinds.Big = 0
	assert.Equal(t, ErrInvalidParams, errors.Cause(d.Validate()))

	d = validDescription()
	d.Blinds.Small = 2 // larger than the big blind
	assert.Equal(t, ErrInvalidParams, errors.Cause(d.Validate()))

	d = validDescription()
	d.Blinds.Ante = -1
	assert.Equal(t, ErrInvalidParams, errors.Cause(d.Validate()))
}

func TestValidateRejectsBadBoard(t *testing.T) {
	d := validDescription()
	d.Board, _ = cards.ParseCards("AhKd") // 2 cards is not a street
	assert.Equal(t, ErrInvalidParams, errors.Cause(d.Validate()))

	d = validDescription()
	d.Board = []cards.Card{0, 0, 1}
	assert.Equal(t, ErrInvalidParams, errors.Cause(d.Validate()))
}

func TestValidateRejectsPostflopWithoutPot(t *testing.T) {
	d := validDescription()
	d.Board, _ = cards.ParseCards("AhKd7c")
	d.Pot = 0
	assert.Equal(t, ErrInvalidParams, errors.Cause(d.Validate()))

	d.Pot = 5
	assert.NoError(t, d.Validate())
}

func TestValidateRejectsBadSizing(t *testing.T) {
	d := validDescription()
	d.Sizing.Preflop = []float64{-0.5}
	assert.Equal(t, ErrInvalidParams, errors.Cause(d.Validate()))

	d = validDescription()
	d.Sizing.MaxRaises = -1
	assert.Equal(t, ErrInvalidParams, errors.Cause(d.Validate()))
}

func TestValidateRejectsBadRange(t *testing.T) {
	d := validDescription()
	d.Ranges[1] = "not-a-range"
	assert.Equal(t, ErrInvalidParams, errors.Cause(d.Validate()))
}

func TestValidateRejectsRangeConflictingWithBoard(t *testing.T) {
	d := validDescription()
	d.Ranges[0] = "AhKd"
	d.Board, _ = cards.ParseCards("AhKd7c")
	d.Pot = 5
	assert.Equal(t, ErrInvalidParams, errors.Cause(d.Validate()))
}

func TestCommittedPreflop(t *testing.T) {
	d := validDescription()
	d.Blinds.Ante = 0.1

	committed := d.Committed()
	assert.InDelta(t, 0.6, committed[Button], 1e-9)
	assert.InDelta(t, 1.1, committed[BigBlind], 1e-9)
	assert.InDelta(t, 1.7, d.StartingPot(), 1e-9)
}

func TestCommittedPostflop(t *testing.T) {
	d := validDescription()
	d.Board, _ = cards.ParseCards("AhKd7c")
	d.Pot = 6

	committed := d.Committed()
	assert.Equal(t, 3.0, committed[Button])
	assert.Equal(t, 3.0, committed[BigBlind])
}

func TestFirstToAct(t *testing.T) {
	d := validDescription()
	assert.Equal(t, Button, d.FirstToAct())

	d.Board, _ = cards.ParseCards("AhKd7c")
	d.Pot = 6
	assert.Equal(t, BigBlind, d.FirstToAct())
}

func TestStreetForBoard(t *testing.T) {
	assert.Equal(t, Preflop, StreetForBoard(0))
	assert.Equal(t, Flop, StreetForBoard(3))
	assert.Equal(t, Turn, StreetForBoard(4))
	assert.Equal(t, River, StreetForBoard(5))
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "f", Action{Type: Fold}.String())
	assert.Equal(t, "x", Action{Type: Check}.String())
	assert.Equal(t, "c", Action{Type: Call, Amount: 2}.String())
	assert.Equal(t, "b2.5", Action{Type: Bet, Amount: 2.5}.String())
	assert.Equal(t, "r7", Action{Type: Raise, Amount: 7}.String())
}
