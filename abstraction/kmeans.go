package abstraction

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// kmeans partitions the given histograms into k clusters and returns the
// cluster assignment per histogram. Initialization is deterministic given
// the seed: the first center is drawn from the seeded generator and the
// rest by farthest-point seeding with lowest-index tie breaking, so
// repeated runs with one seed produce identical buckets.
func kmeans(points [][]float64, k int, metric Metric, seed int64, maxIters int) []int {
	n := len(points)
	if k >= n {
		assign := make([]int, n)
		for i := range assign {
			assign[i] = i
		}
		return assign
	}

	centers := initialCenters(points, k, metric, seed)
	assign := make([]int, n)

	for iter := 0; iter < maxIters; iter++ {
		changed := false
		for i, p := range points {
			best, bestDist := 0, math.Inf(1)
			for c, center := range centers {
				if d := metric.distance(p, center); d < bestDist {
					best, bestDist = c, d
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		recomputeCenters(points, assign, centers)
	}

	return assign
}

// initialCenters performs farthest-point seeding.
func initialCenters(points [][]float64, k int, metric Metric, seed int64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	dims := len(points[0])

	centers := make([][]float64, 0, k)
	first := make([]float64, dims)
	copy(first, points[rng.Intn(len(points))])
	centers = append(centers, first)

	minDist := make([]float64, len(points))
	for i, p := range points {
		minDist[i] = metric.distance(p, centers[0])
	}

	for len(centers) < k {
		farthest, farthestDist := 0, -1.0
		for i, d := range minDist {
			if d > farthestDist {
				farthest, farthestDist = i, d
			}
		}

		next := make([]float64, dims)
		copy(next, points[farthest])
		centers = append(centers, next)

		for i, p := range points {
			if d := metric.distance(p, next); d < minDist[i] {
				minDist[i] = d
			}
		}
	}

	return centers
}

// recomputeCenters moves each center to the mean of its assigned points.
// Empty clusters keep their previous center.
func recomputeCenters(points [][]float64, assign []int, centers [][]float64) {
	counts := make([]int, len(centers))
	sums := make([][]float64, len(centers))
	for c := range centers {
		sums[c] = make([]float64, len(centers[c]))
	}

	for i, p := range points {
		c := assign[i]
		floats.Add(sums[c], p)
		counts[c]++
	}

	for c := range centers {
		if counts[c] == 0 {
			continue
		}
		floats.ScaleTo(centers[c], 1/float64(counts[c]), sums[c])
	}
}
