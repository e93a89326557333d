package gto

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cfrlab/gto/abstraction"
	"github.com/cfrlab/gto/tree"
)

func buildPushFoldTree(t *testing.T) *tree.Tree {
	t.Helper()
	desc := pushFoldDescription()
	abs, err := abstraction.Compute(desc, pushFoldConfig().withDefaults().Abstraction)
	require.NoError(t, err)

	tr, err := tree.Build(desc, abs, 0)
	require.NoError(t, err)
	return tr
}

func uniformProfile(t *tree.Tree) [][]float64 {
	probs := make([][]float64, t.NumInfoSets())
	for id, is := range t.InfoSets {
		probs[id] = uniformDist(len(is.Actions))
	}
	return probs
}

func TestExploitabilityOfUniformProfile(t *testing.T) {
	tr := buildPushFoldTree(t)

	// Coin-flipping between shove and fold is exploitable.
	expl := exploitability(tr, uniformProfile(tr))
	assert.Greater(t, expl, 0.05)
}

func TestExploitabilityDropsAfterSolving(t *testing.T) {
	tr := buildPushFoldTree(t)
	before := exploitability(tr, uniformProfile(tr))

	res, err := SolveTree(context.Background(), tr, pushFoldConfig())
	require.NoError(t, err)
	assert.Less(t, res.Exploitability, before)
}

func TestBestResponseBeatsProfileValue(t *testing.T) {
	tr := buildPushFoldTree(t)

	res, err := SolveTree(context.Background(), tr, pushFoldConfig())
	require.NoError(t, err)

	// Both best responses are non-negative against a near-equilibrium
	// profile of a zero-sum game measured against its own value.
	br0 := bestResponseValue(tr, res.Strategy.probs, 0)
	br1 := bestResponseValue(tr, res.Strategy.probs, 1)
	assert.GreaterOrEqual(t, br0+br1, 0.0)
	assert.InDelta(t, res.Exploitability, (br0+br1)/2, 1e-12)
}

func TestComputeExploitability(t *testing.T) {
	tr := buildPushFoldTree(t)
	res, err := SolveTree(context.Background(), tr, pushFoldConfig())
	require.NoError(t, err)

	expl, err := ComputeExploitability(tr, res.Strategy)
	require.NoError(t, err)
	assert.Equal(t, res.Exploitability, expl)
}

func TestComputeExploitabilityRejectsMismatch(t *testing.T) {
	tr := buildPushFoldTree(t)

	_, err := ComputeExploitability(tr, &Strategy{probs: [][]float64{{1}}})
	assert.Error(t, err)
}
