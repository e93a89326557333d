package gto

import (
	"github.com/pkg/errors"

	"github.com/cfrlab/gto/abstraction"
	"github.com/cfrlab/gto/game"
	"github.com/cfrlab/gto/tree"
)

// exploitability measures how far a strategy profile is from equilibrium:
// the mean of both seats' best-response values, in big blinds per hand. The
// game is zero sum, so the profile's own value cancels and the result is
// non-negative, reaching zero exactly at a Nash equilibrium.
func exploitability(t *tree.Tree, avg [][]float64) float64 {
	br0 := bestResponseValue(t, avg, 0)
	br1 := bestResponseValue(t, avg, 1)
	return (br0 + br1) / 2
}

// ComputeExploitability evaluates an extracted strategy against the tree it
// was solved on.
func ComputeExploitability(t *tree.Tree, s *Strategy) (float64, error) {
	if len(s.probs) != t.NumInfoSets() {
		return 0, errors.Errorf("strategy covers %d infosets, tree has %d; not solved on this tree",
			len(s.probs), t.NumInfoSets())
	}
	return exploitability(t, s.probs), nil
}

// bestResponseValue returns the expected value a seat achieves by playing
// the exact best response against the opponent's average strategy. The sweep
// runs over the betting skeleton once per hero bucket, carrying the
// opponent's reach probability per bucket, so duplicated per-deal subtrees
// are never revisited.
func bestResponseValue(t *tree.Tree, avg [][]float64, hero int8) float64 {
	w := &brWalker{
		tree: t,
		avg:  avg,
		hero: hero,
		pool: &slicePool{},
	}

	numHero := t.Abs.NumBuckets[hero]
	numOpp := t.Abs.NumBuckets[1-hero]

	var total float64
	for bh := 0; bh < numHero; bh++ {
		oppReach := make([]float64, numOpp)
		for bo := range oppReach {
			if hero == game.Button {
				oppReach[bo] = t.Abs.DealWeights[bh][bo]
			} else {
				oppReach[bo] = t.Abs.DealWeights[bo][bh]
			}
		}
		total += w.value(0, int32(bh), oppReach)
	}
	return total
}

type brWalker struct {
	tree *tree.Tree
	avg  [][]float64
	hero int8
	pool *slicePool
}

// value returns the hero's best-response value at skeleton node si holding
// heroBucket, weighted by the opponent's per-bucket reach mass. A zero-mass
// reach vector contributes nothing and prunes the subtree.
func (w *brWalker) value(si int32, heroBucket int32, oppReach []float64) float64 {
	sn := &w.tree.Skeleton.Nodes[si]

	if sn.Kind == tree.Terminal {
		return w.terminalValue(sn, heroBucket, oppReach)
	}

	if sn.Player == w.hero {
		first := true
		var best float64
		for _, child := range sn.Children {
			v := w.value(child, heroBucket, oppReach)
			if first || v > best {
				best = v
				first = false
			}
		}
		return best
	}

	var v float64
	next := w.pool.alloc(len(oppReach))
	defer w.pool.release(next)

	for i, child := range sn.Children {
		var mass float64
		for b := range oppReach {
			p := w.avg[sn.InfoSetBase+int32(b)][i]
			next[b] = oppReach[b] * p
			mass += next[b]
		}
		if mass > 0 {
			v += w.value(child, heroBucket, next)
		}
	}
	return v
}

func (w *brWalker) terminalValue(sn *tree.SkelNode, heroBucket int32, oppReach []float64) float64 {
	var v float64
	for b, reach := range oppReach {
		if reach == 0 {
			continue
		}
		b0, b1 := heroBucket, int32(b)
		if w.hero == game.BigBlind {
			b0, b1 = int32(b), heroBucket
		}
		v += reach * skelPayoff(sn, w.tree.Abs, b0, b1, w.hero)
	}
	return v
}

// skelPayoff resolves a skeleton terminal into the seat's net chips for one
// bucket pair, matching the payoffs stamped into the dense arena.
func skelPayoff(sn *tree.SkelNode, abs *abstraction.Abstraction, b0, b1 int32, seat int8) float64 {
	if sn.TerminalKind == tree.FoldEnd {
		if sn.Winner == seat {
			return sn.Committed[1-seat]
		}
		return -sn.Committed[seat]
	}

	eq := abs.ShowdownEquity[b0][b1]
	if seat == game.BigBlind {
		eq = 1 - eq
	}
	return eq*sn.Pot() - sn.Committed[seat]
}
