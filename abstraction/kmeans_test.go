package abstraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKMeansIdentityWhenKCoversPoints(t *testing.T) {
	points := [][]float64{{0, 1}, {1, 0}, {0.5, 0.5}}
	assign := kmeans(points, 5, EMD, 1, 50)
	assert.Equal(t, []int{0, 1, 2}, assign)
}

func TestKMeansSeparatesClusters(t *testing.T) {
	// Two well separated groups of histograms: mass at the bottom bin vs
	// mass at the top bin.
	points := [][]float64{
		{0.9, 0.1, 0, 0},
		{1, 0, 0, 0},
		{0.8, 0.2, 0, 0},
		{0, 0, 0.1, 0.9},
		{0, 0, 0, 1},
		{0, 0, 0.2, 0.8},
	}

	assign := kmeans(points, 2, EMD, 1, 50)
	require.Len(t, assign, 6)

	assert.Equal(t, assign[0], assign[1])
	assert.Equal(t, assign[0], assign[2])
	assert.Equal(t, assign[3], assign[4])
	assert.Equal(t, assign[3], assign[5])
	assert.NotEqual(t, assign[0], assign[3])
}

func TestKMeansDeterministic(t *testing.T) {
	points := [][]float64{
		{0.5, 0.5, 0, 0},
		{0, 0.5, 0.5, 0},
		{0, 0, 0.5, 0.5},
		{0.25, 0.25, 0.25, 0.25},
		{1, 0, 0, 0},
		{0, 0, 0, 1},
	}

	a := kmeans(points, 3, EMD, 7, 50)
	b := kmeans(points, 3, EMD, 7, 50)
	assert.Equal(t, a, b)

	c := kmeans(points, 3, Euclidean, 7, 50)
	d := kmeans(points, 3, Euclidean, 7, 50)
	assert.Equal(t, c, d)
}

func TestMetricDistance(t *testing.T) {
	a := []float64{0.5, 0.5, 0, 0}
	b := []float64{0, 0, 0.5, 0.5}

	assert.Equal(t, 0.0, EMD.distance(a, a))
	assert.Equal(t, 0.0, Euclidean.distance(b, b))

	// EMD between unit masses one bin apart is 1.
	assert.InDelta(t, 1.0, EMD.distance([]float64{1, 0}, []float64{0, 1}), 1e-12)

	// EMD respects bin ordering; Euclidean does not.
	near := []float64{0, 1, 0, 0}
	far := []float64{0, 0, 0, 1}
	base := []float64{1, 0, 0, 0}
	assert.Greater(t, EMD.distance(base, far), EMD.distance(base, near))
	assert.Equal(t, Euclidean.distance(base, far), Euclidean.distance(base, near))
}

func TestMeanEquity(t *testing.T) {
	assert.InDelta(t, 0.5, meanEquity([]float64{0.25, 0.25, 0.25, 0.25}), 1e-12)
	assert.InDelta(t, 0.875, meanEquity([]float64{0, 0, 0, 1}), 1e-12)
}
