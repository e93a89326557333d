package equity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cfrlab/gto/cards"
)

func mustCombo(t *testing.T, s string) cards.Combo {
	t.Helper()
	c, err := cards.ParseCombo(s)
	require.NoError(t, err)
	return c
}

func mustBoard(t *testing.T, s string) []cards.Card {
	t.Helper()
	b, err := cards.ParseCards(s)
	require.NoError(t, err)
	return b
}

func TestShowdown(t *testing.T) {
	calc := NewCalculator()
	board := mustBoard(t, "2c7d9hJsQd")

	// Aces over kings on a dry board.
	eq, err := calc.Showdown(mustCombo(t, "AhAd"), mustCombo(t, "KhKd"), board)
	require.NoError(t, err)
	assert.Equal(t, 1.0, eq)

	eq, err = calc.Showdown(mustCombo(t, "KhKd"), mustCombo(t, "AhAd"), board)
	require.NoError(t, err)
	assert.Equal(t, 0.0, eq)

	// Board plays for both: chop.
	chopBoard := mustBoard(t, "AhKhQhJhTh")
	eq, err = calc.Showdown(mustCombo(t, "2c3d"), mustCombo(t, "4s5c"), chopBoard)
	require.NoError(t, err)
	assert.Equal(t, 0.5, eq)
}

func TestShowdownRejectsConflicts(t *testing.T) {
	calc := NewCalculator()
	board := mustBoard(t, "2c7d9hJsQd")

	_, err := calc.Showdown(mustCombo(t, "AhAd"), mustCombo(t, "AhKd"), board)
	assert.Error(t, err)

	_, err = calc.Showdown(mustCombo(t, "QdQh"), mustCombo(t, "KhKd"), board)
	assert.Error(t, err)
}

func TestShowdownRequiresCompleteBoard(t *testing.T) {
	calc := NewCalculator()
	_, err := calc.Showdown(mustCombo(t, "AhAd"), mustCombo(t, "KhKd"), mustBoard(t, "2c7d9h"))
	assert.Error(t, err)
}

func TestComboVsRangePreflop(t *testing.T) {
	calc := NewCalculator()
	kings, err := cards.ParseRange("KK")
	require.NoError(t, err)

	// AA vs KK preflop is roughly 82% for the aces.
	eq, err := calc.ComboVsRange(mustCombo(t, "AhAd"), kings, nil, 500, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.82, eq, 0.05)
}

func TestComboVsRangeRiverEnumerates(t *testing.T) {
	calc := NewCalculator()
	board := mustBoard(t, "2c7d9hJs")

	// One card to come is enumerated exactly, so the seed is irrelevant.
	eq1, err := calc.ComboVsRange(mustCombo(t, "AhAd"), []cards.Combo{mustCombo(t, "KhKd")}, board, 10, 1)
	require.NoError(t, err)
	eq2, err := calc.ComboVsRange(mustCombo(t, "AhAd"), []cards.Combo{mustCombo(t, "KhKd")}, board, 10, 99)
	require.NoError(t, err)
	assert.Equal(t, eq1, eq2)
	assert.Greater(t, eq1, 0.9)
}

func TestComboVsRangeAllConflicting(t *testing.T) {
	calc := NewCalculator()

	// Villain range consists entirely of hero's own cards: neutral equity.
	eq, err := calc.ComboVsRange(mustCombo(t, "AhAd"), []cards.Combo{mustCombo(t, "AhAd")}, nil, 50, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.5, eq)
}

func TestComboVsRangeDeterministic(t *testing.T) {
	calc := NewCalculator()
	villain, err := cards.ParseRange("random")
	require.NoError(t, err)

	eq1, err := calc.ComboVsRange(mustCombo(t, "JhTh"), villain, nil, 100, 42)
	require.NoError(t, err)
	eq2, err := calc.ComboVsRange(mustCombo(t, "JhTh"), villain, nil, 100, 42)
	require.NoError(t, err)
	assert.Equal(t, eq1, eq2)
}

func TestDistribution(t *testing.T) {
	calc := NewCalculator()
	villain, err := cards.ParseRange("random")
	require.NoError(t, err)

	hist, err := calc.Distribution(mustCombo(t, "AhAd"), villain, nil, 10, 100, 1)
	require.NoError(t, err)
	require.Len(t, hist, 10)

	var sum float64
	for _, w := range hist {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	// Aces should be strong across almost all runouts.
	assert.Greater(t, meanOf(hist), 0.7)
}

func TestDistributionOrdersHands(t *testing.T) {
	calc := NewCalculator()
	villain, err := cards.ParseRange("random")
	require.NoError(t, err)

	strong, err := calc.Distribution(mustCombo(t, "AhAd"), villain, nil, 10, 200, 1)
	require.NoError(t, err)
	weak, err := calc.Distribution(mustCombo(t, "7h2c"), villain, nil, 10, 200, 1)
	require.NoError(t, err)

	assert.Greater(t, meanOf(strong), meanOf(weak))
}

func meanOf(hist []float64) float64 {
	n := float64(len(hist))
	var mean float64
	for i, w := range hist {
		mean += w * (float64(i) + 0.5) / n
	}
	return mean
}
