package cards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRangeComboCounts(t *testing.T) {
	cases := []struct {
		notation string
		want     int
	}{
		{"AA", 6},
		{"AKs", 4},
		{"AKo", 12},
		{"AK", 16},
		{"TT+", 5 * 6},      // TT JJ QQ KK AA
		{"A5s+", 10 * 4},    // A5s through AKs
		{"KK-JJ", 3 * 6},    // JJ QQ KK
		{"AKs-ATs", 4 * 4},  // ATs AJs AQs AKs
		{"AhKd", 1},
		{"random", 1326},
		{"AA,KK", 12},
	}

	for _, tc := range cases {
		combos, err := ParseRange(tc.notation)
		require.NoError(t, err, "range %q", tc.notation)
		assert.Len(t, combos, tc.want, "range %q", tc.notation)
	}
}

func TestParseRangeDeduplicates(t *testing.T) {
	combos, err := ParseRange("AA,AA,AhAd")
	require.NoError(t, err)
	assert.Len(t, combos, 6)
}

func TestParseRangeDeterministicOrder(t *testing.T) {
	a, err := ParseRange("TT+,AKs")
	require.NoError(t, err)
	b, err := ParseRange("TT+,AKs")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParseRangeInvalid(t *testing.T) {
	for _, s := range []string{"", "ZZ", "A", "AKx", "AKs-KQs", "A5s+junk"} {
		_, err := ParseRange(s)
		assert.Error(t, err, "range %q", s)
	}
}

func TestRemoveConflicts(t *testing.T) {
	combos, err := ParseRange("AA")
	require.NoError(t, err)

	board, err := ParseCards("AhKd7c")
	require.NoError(t, err)

	filtered := RemoveConflicts(combos, board)
	assert.Len(t, filtered, 3) // AsAd, AsAc, AdAc remain
	for _, c := range filtered {
		assert.False(t, c.ConflictsAny(board))
	}
}
