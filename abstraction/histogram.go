// Package abstraction clusters hole card combos into a bounded number of
// buckets by the shape of their equity distributions, so the game tree
// operates over buckets instead of raw card combinatorics.
package abstraction

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Metric selects the distance used to compare equity histograms.
type Metric uint8

const (
	// EMD is the 1-D earth mover's distance over histogram CDFs. It
	// respects the ordering of equity bins and is the default.
	EMD Metric = iota
	// Euclidean is the L2 distance over raw histogram bins. Cheaper,
	// blind to bin ordering.
	Euclidean
)

func (m Metric) String() string {
	if m == EMD {
		return "emd"
	}
	return "euclidean"
}

// distance returns the configured distance between two histograms of equal
// length.
func (m Metric) distance(a, b []float64) float64 {
	if m == Euclidean {
		return floats.Distance(a, b, 2)
	}

	// For 1-D histograms with unit spacing the earth mover's distance is
	// the L1 distance between cumulative distributions.
	var cumA, cumB, d float64
	for i := range a {
		cumA += a[i]
		cumB += b[i]
		d += math.Abs(cumA - cumB)
	}
	return d
}

// meanEquity returns the histogram's expected equity assuming bin centers.
func meanEquity(hist []float64) float64 {
	n := float64(len(hist))
	var mean float64
	for i, w := range hist {
		mean += w * (float64(i) + 0.5) / n
	}
	return mean
}
