package gto

import (
	"gonum.org/v1/gonum/floats"

	"github.com/cfrlab/gto/tree"
)

// regretEpsilon guards the regret matching normalization: positive regret
// totals at or below it fall back to the uniform distribution rather than
// dividing by a vanishing sum.
const regretEpsilon = 1e-12

// policyTable stores accumulated regrets and strategy sums for every
// information set of one solve, addressed densely by information set id.
// It is written only through merge/update, which the solver serializes at
// the iteration barrier; reads of current strategies are safe from any
// worker between barriers.
type policyTable struct {
	params DiscountParams
	iter   int

	// Per-infoset action tables. current holds the regret-matched
	// strategy in force for the ongoing iteration.
	regretSum   [][]float64
	strategySum [][]float64
	current     [][]float64

	// weight is the pending reach-probability mass to fold into
	// strategySum at the next update.
	weight []float64
}

func newPolicyTable(infoSets []tree.InfoSet, params DiscountParams) *policyTable {
	n := len(infoSets)
	pt := &policyTable{
		params:      params,
		iter:        1,
		regretSum:   make([][]float64, n),
		strategySum: make([][]float64, n),
		current:     make([][]float64, n),
		weight:      make([]float64, n),
	}

	for id, is := range infoSets {
		nActions := len(is.Actions)
		pt.regretSum[id] = make([]float64, nActions)
		pt.strategySum[id] = make([]float64, nActions)
		pt.current[id] = uniformDist(nActions)
	}

	return pt
}

// strategy returns the current regret-matched strategy for an infoset.
// The returned slice aliases the table and must not be mutated.
func (pt *policyTable) strategy(id int32) []float64 {
	return pt.current[id]
}

// merge folds one worker's accumulated regrets and strategy weights into
// the shared table. Called only between traversal sweeps.
func (pt *policyTable) merge(acc *accumulator) {
	for _, id := range acc.touched {
		floats.Add(pt.regretSum[id], acc.regret[id])
		pt.weight[id] += acc.weight[id]
	}
}

// update advances the table to the next iteration: strategy sums absorb the
// pending weights, discounts apply, and every infoset's current strategy is
// recomputed by regret matching. This is the iteration barrier step.
func (pt *policyTable) update() {
	discountPos, discountNeg, discountSum := pt.params.GetDiscountFactors(pt.iter)

	for id := range pt.regretSum {
		if discountSum != 1.0 {
			floats.Scale(discountSum, pt.strategySum[id])
		}
		if w := pt.weight[id]; w != 0 {
			floats.AddScaled(pt.strategySum[id], w, pt.current[id])
			pt.weight[id] = 0
		}

		regrets := pt.regretSum[id]
		if discountPos != 1.0 {
			for i, x := range regrets {
				if x > 0 {
					regrets[i] *= discountPos
				}
			}
		}
		if discountNeg != 1.0 {
			for i, x := range regrets {
				if x < 0 {
					regrets[i] *= discountNeg
				}
			}
		}

		regretMatch(pt.current[id], regrets)
	}

	pt.iter++
}

// averageStrategy returns the normalized average strategy for an infoset,
// or a uniform distribution (and visited=false) if it was never reached.
func (pt *policyTable) averageStrategy(id int32) (probs []float64, visited bool) {
	sum := pt.strategySum[id]
	total := floats.Sum(sum)
	if total <= 0 {
		return uniformDist(len(sum)), false
	}

	probs = make([]float64, len(sum))
	floats.ScaleTo(probs, 1/total, sum)
	return probs, true
}

// averageStrategies materializes the average strategy for every infoset.
func (pt *policyTable) averageStrategies() [][]float64 {
	out := make([][]float64, len(pt.strategySum))
	for id := range out {
		out[id], _ = pt.averageStrategy(int32(id))
	}
	return out
}

// regretMatch writes the distribution proportional to positive regret into
// dst, with a uniform fallback when no action has positive regret.
func regretMatch(dst, regrets []float64) {
	var total float64
	for i, r := range regrets {
		if r > 0 {
			dst[i] = r
			total += r
		} else {
			dst[i] = 0
		}
	}

	if total > regretEpsilon {
		floats.Scale(1/total, dst)
		return
	}
	for i := range dst {
		dst[i] = 1 / float64(len(dst))
	}
}

func uniformDist(n int) []float64 {
	dist := make([]float64, n)
	for i := range dist {
		dist[i] = 1 / float64(n)
	}
	return dist
}

// accumulator is a worker-local buffer of regret and strategy weight
// updates, merged into the policyTable at the iteration barrier so hot
// information sets see no lock contention during traversal.
type accumulator struct {
	regret  [][]float64
	weight  []float64
	touched []int32
}

func newAccumulator(pt *policyTable) *accumulator {
	return &accumulator{
		regret: make([][]float64, len(pt.regretSum)),
		weight: make([]float64, len(pt.regretSum)),
	}
}

// addRegret accumulates instantaneous regrets for an infoset.
func (acc *accumulator) addRegret(id int32, nActions int, instantaneous []float64) {
	acc.touch(id, nActions)
	floats.Add(acc.regret[id], instantaneous)
}

// addStrategyWeight accumulates reach-probability mass for an infoset.
func (acc *accumulator) addStrategyWeight(id int32, nActions int, w float64) {
	acc.touch(id, nActions)
	acc.weight[id] += w
}

func (acc *accumulator) touch(id int32, nActions int) {
	if acc.regret[id] == nil {
		acc.regret[id] = make([]float64, nActions)
		acc.touched = append(acc.touched, id)
	}
}

// reset clears the buffer for the next sweep, keeping allocations.
func (acc *accumulator) reset() {
	for _, id := range acc.touched {
		for i := range acc.regret[id] {
			acc.regret[id][i] = 0
		}
		acc.weight[id] = 0
	}
	acc.touched = acc.touched[:0]
}
