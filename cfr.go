package gto

import (
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/cfrlab/gto/game"
	"github.com/cfrlab/gto/tree"
)

// cfrEngine runs counterfactual regret minimization iterations over a built
// game tree. One iteration sweeps the tree once per player and then applies
// the discount and regret matching update at the barrier; the policy table
// is never written during a sweep.
type cfrEngine struct {
	tree *tree.Tree
	pt   *policyTable
	mode TraversalMode
	rng  *rand.Rand

	// One accumulator and slice pool per worker. Workers own disjoint
	// deal ranges during a sweep and never share buffers.
	accs  []*accumulator
	pools []*slicePool
}

func newCFREngine(t *tree.Tree, params DiscountParams, mode TraversalMode, workers int, seed int64) *cfrEngine {
	if workers < 1 {
		workers = 1
	}
	e := &cfrEngine{
		tree:  t,
		pt:    newPolicyTable(t.InfoSets, params),
		mode:  mode,
		rng:   rand.New(rand.NewSource(seed)),
		accs:  make([]*accumulator, workers),
		pools: make([]*slicePool, workers),
	}
	for i := range e.accs {
		e.accs[i] = newAccumulator(e.pt)
		e.pools[i] = &slicePool{}
	}
	return e
}

// iterate performs one CFR iteration: a regret-update sweep for each player
// followed by the policy table update.
func (e *cfrEngine) iterate() {
	for player := int8(0); player < game.NumSeats; player++ {
		switch e.mode {
		case ChanceSampling:
			e.sweepSampled(player, false)
		case ExternalSampling:
			e.sweepSampled(player, true)
		default:
			e.sweepFull(player)
		}
	}
	e.pt.update()
}

// sweepFull traverses every deal subtree, splitting the deals across the
// workers. Each worker writes only its own accumulator; the merge happens
// on the calling goroutine once all workers finish.
func (e *cfrEngine) sweepFull(player int8) {
	t := e.tree
	root := t.Root()
	numDeals := int(t.Nodes[root].NumChildren)
	chunk := (numDeals + len(e.accs) - 1) / len(e.accs)

	var g errgroup.Group
	for w := range e.accs {
		lo := w * chunk
		if lo >= numDeals {
			break
		}
		hi := lo + chunk
		if hi > numDeals {
			hi = numDeals
		}

		walker := &treeWalker{
			tree:   t,
			pt:     e.pt,
			acc:    e.accs[w],
			pool:   e.pools[w],
			player: player,
		}
		g.Go(func() error {
			for d := lo; d < hi; d++ {
				weight := t.ChanceWeight(root, int32(d))
				walker.walk(t.Child(root, int32(d)), 1, weight)
			}
			return nil
		})
	}
	_ = g.Wait() // workers never fail

	for _, acc := range e.accs {
		e.pt.merge(acc)
		acc.reset()
	}
}

// sweepSampled traverses a single sampled trajectory through the chance
// outcomes (and, in external sampling mode, through the opponent's actions).
// Sampling the chance node with its own distribution makes the unweighted
// regret updates unbiased.
func (e *cfrEngine) sweepSampled(player int8, sampleOpponent bool) {
	walker := &treeWalker{
		tree:           e.tree,
		pt:             e.pt,
		acc:            e.accs[0],
		pool:           e.pools[0],
		player:         player,
		rng:            e.rng,
		sampleChance:   true,
		sampleOpponent: sampleOpponent,
	}
	walker.walk(e.tree.Root(), 1, 1)

	e.pt.merge(e.accs[0])
	e.accs[0].reset()
}

// treeWalker performs one player's recursive sweep. It is single-goroutine
// state: value buffers come from its pool and regrets land in its
// accumulator.
type treeWalker struct {
	tree   *tree.Tree
	pt     *policyTable
	acc    *accumulator
	pool   *slicePool
	player int8

	rng            *rand.Rand
	sampleChance   bool
	sampleOpponent bool
}

// walk returns the expected value for the updating player at node n, given
// the player's own reach probability and the combined chance and opponent
// reach. Regrets at the player's decision nodes are weighted by the
// counterfactual reach; strategy sums by the player's own reach.
func (w *treeWalker) walk(n int32, reachP, reachO float64) float64 {
	node := &w.tree.Nodes[n]

	switch node.Kind {
	case tree.Terminal:
		return w.tree.Payoff(n)[w.player]

	case tree.Chance:
		if w.sampleChance {
			i := sampleIndex(w.rng, w.tree, n)
			return w.walk(w.tree.Child(n, i), reachP, reachO)
		}
		var v float64
		for i := int32(0); i < node.NumChildren; i++ {
			p := w.tree.ChanceWeight(n, i)
			v += p * w.walk(w.tree.Child(n, i), reachP, reachO*p)
		}
		return v

	default:
		return w.decision(n, node, reachP, reachO)
	}
}

func (w *treeWalker) decision(n int32, node *tree.Node, reachP, reachO float64) float64 {
	id := node.InfoSet
	strat := w.pt.strategy(id)
	nActions := int(node.NumChildren)

	if node.Player != w.player {
		if w.sampleOpponent {
			i := int32(sampleDist(w.rng, strat))
			w.acc.addStrategyWeight(id, nActions, 1)
			return w.walk(w.tree.Child(n, i), reachP, reachO)
		}
		var v float64
		for i := 0; i < nActions; i++ {
			if strat[i] == 0 {
				continue
			}
			v += strat[i] * w.walk(w.tree.Child(n, int32(i)), reachP, reachO*strat[i])
		}
		return v
	}

	childValues := w.pool.alloc(nActions)
	defer w.pool.release(childValues)

	var v float64
	for i := 0; i < nActions; i++ {
		childValues[i] = w.walk(w.tree.Child(n, int32(i)), reachP*strat[i], reachO)
		v += strat[i] * childValues[i]
	}

	// Instantaneous regrets, weighted by the counterfactual reach. The
	// sampled modes carry the weighting implicitly through sampling.
	for i := range childValues {
		childValues[i] = reachO * (childValues[i] - v)
	}
	w.acc.addRegret(id, nActions, childValues)
	w.acc.addStrategyWeight(id, nActions, reachP)
	return v
}

// sampleIndex draws a child of chance node n according to its weights.
func sampleIndex(rng *rand.Rand, t *tree.Tree, n int32) int32 {
	node := &t.Nodes[n]
	var total float64
	for i := int32(0); i < node.NumChildren; i++ {
		total += t.ChanceWeight(n, i)
	}

	x := rng.Float64() * total
	for i := int32(0); i < node.NumChildren-1; i++ {
		x -= t.ChanceWeight(n, i)
		if x <= 0 {
			return i
		}
	}
	return node.NumChildren - 1
}

// sampleDist draws an index from a normalized distribution.
func sampleDist(rng *rand.Rand, probs []float64) int {
	x := rng.Float64()
	for i, p := range probs[:len(probs)-1] {
		x -= p
		if x <= 0 {
			return i
		}
	}
	return len(probs) - 1
}

// slicePool recycles traversal value buffers so the hot recursion stays
// allocation free after warmup. Not safe for concurrent use; each worker
// owns its own pool.
type slicePool struct {
	free [][]float64
}

func (p *slicePool) alloc(n int) []float64 {
	if last := len(p.free) - 1; last >= 0 {
		s := p.free[last]
		p.free = p.free[:last]
		if cap(s) >= n {
			s = s[:n]
			for i := range s {
				s[i] = 0
			}
			return s
		}
	}
	return make([]float64, n)
}

func (p *slicePool) release(s []float64) {
	p.free = append(p.free, s)
}
