package abstraction

import (
	"fmt"
	"hash/fnv"
	"math/rand"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/cfrlab/gto/cards"
	"github.com/cfrlab/gto/equity"
	"github.com/cfrlab/gto/game"
)

// Config controls the abstraction engine.
type Config struct {
	// Buckets is the requested number of hand buckets per seat. If it
	// exceeds the number of distinguishable combos it is clipped with a
	// warning rather than failing.
	Buckets int
	// HistogramBins is the resolution of the equity distribution
	// histograms that get clustered.
	HistogramBins int
	// EquitySamples is the number of sampled runouts per histogram when
	// the board is too incomplete to enumerate.
	EquitySamples int
	// PairSamples is the number of combo pairs sampled per bucket pair
	// when estimating the bucket-vs-bucket showdown equity matrix.
	PairSamples int
	// Metric is the histogram distance used for clustering.
	Metric Metric
	// Seed pins cluster initialization and all sampling so that a fixed
	// seed yields identical buckets across runs.
	Seed int64
	// MaxKMeansIters bounds the clustering refinement loop.
	MaxKMeansIters int
}

// withDefaults fills zero fields with workable defaults.
func (c Config) withDefaults() Config {
	if c.Buckets <= 0 {
		c.Buckets = 50
	}
	if c.HistogramBins <= 0 {
		c.HistogramBins = 10
	}
	if c.EquitySamples <= 0 {
		c.EquitySamples = 100
	}
	if c.PairSamples <= 0 {
		c.PairSamples = 10
	}
	if c.MaxKMeansIters <= 0 {
		c.MaxKMeansIters = 50
	}
	return c
}

// Abstraction is the bucketed view of a game description: the combo-to-
// bucket assignment per seat, plus the two matrices the tree builder needs
// to stamp out chance deals and showdown payoffs at the bucket level.
type Abstraction struct {
	Config Config

	// Ranges holds each seat's combos, in deterministic parse order.
	Ranges [game.NumSeats][]cards.Combo
	// Assignments maps each seat's combo index to its bucket.
	Assignments [game.NumSeats][]int
	// NumBuckets is the bucket count actually used per seat (after any
	// clipping).
	NumBuckets [game.NumSeats]int

	// DealWeights[b0][b1] is the normalized probability of the button
	// holding bucket b0 while the big blind holds b1, accounting for
	// card removal between the ranges.
	DealWeights [][]float64
	// ShowdownEquity[b0][b1] is the button's expected pot share when the
	// hand goes to showdown with those buckets.
	ShowdownEquity [][]float64
}

// Compute builds the abstraction for a validated game description. The
// result is deterministic for a fixed Config.Seed.
func Compute(desc *game.Description, cfg Config) (*Abstraction, error) {
	cfg = cfg.withDefaults()

	ranges, err := desc.ParseRanges()
	if err != nil {
		return nil, err
	}

	calc := equity.NewCalculator()
	a := &Abstraction{Config: cfg, Ranges: ranges}

	for seat := 0; seat < game.NumSeats; seat++ {
		opp := ranges[1-seat]
		assign, n, err := bucketSeat(calc, desc, cfg, seat, ranges[seat], opp)
		if err != nil {
			return nil, err
		}
		a.Assignments[seat] = assign
		a.NumBuckets[seat] = n
	}

	a.DealWeights = a.computeDealWeights()
	a.ShowdownEquity = a.computeShowdownEquity(calc, desc, cfg)
	glog.V(1).Infof("abstraction: %d x %d buckets over %d x %d combos",
		a.NumBuckets[0], a.NumBuckets[1], len(ranges[0]), len(ranges[1]))
	return a, nil
}

// BucketOf returns the bucket holding the given combo for a seat, or -1 if
// the combo is outside the seat's range.
func (a *Abstraction) BucketOf(seat int, combo cards.Combo) int {
	for i, c := range a.Ranges[seat] {
		if c == combo {
			return a.Assignments[seat][i]
		}
	}
	return -1
}

// bucketSeat computes equity histograms for every combo in the seat's range
// and clusters them, returning the dense bucket assignment and bucket count.
func bucketSeat(calc *equity.Calculator, desc *game.Description, cfg Config, seat int, combos, opp []cards.Combo) ([]int, int, error) {
	hists := make([][]float64, len(combos))
	for i, combo := range combos {
		seed := subSeed(cfg.Seed, uint64(seat), uint64(combo.Hi), uint64(combo.Lo))
		hist, err := calc.Distribution(combo, opp, desc.Board, cfg.HistogramBins, cfg.EquitySamples, seed)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "seat %d combo %v", seat, combo)
		}
		hists[i] = hist
	}

	k := cfg.Buckets
	if distinct := countDistinct(hists); k > distinct {
		glog.Warningf("abstraction: seat %d requested %d buckets but only %d distinguishable combos; clipping",
			seat, k, distinct)
		k = distinct
	}

	assign := kmeans(hists, k, cfg.Metric, subSeed(cfg.Seed, uint64(seat)), cfg.MaxKMeansIters)
	return renumber(assign), maxBucket(assign), nil
}

// countDistinct counts distinguishable histograms; requesting more buckets
// than this is unattainable.
func countDistinct(hists [][]float64) int {
	seen := make(map[string]struct{}, len(hists))
	for _, h := range hists {
		seen[histKey(h)] = struct{}{}
	}
	return len(seen)
}

func histKey(h []float64) string {
	key := make([]byte, 0, 8*len(h))
	for _, v := range h {
		key = fmt.Appendf(key, "%.9f,", v)
	}
	return string(key)
}

// renumber compacts cluster ids to a dense 0..n-1 numbering in first-seen
// order, which keeps bucket ids stable across runs.
func renumber(assign []int) []int {
	next := 0
	remap := make(map[int]int, len(assign))
	out := make([]int, len(assign))
	for i, c := range assign {
		id, ok := remap[c]
		if !ok {
			id = next
			remap[c] = id
			next++
		}
		out[i] = id
	}
	return out
}

func maxBucket(assign []int) int {
	seen := make(map[int]struct{}, len(assign))
	for _, c := range assign {
		seen[c] = struct{}{}
	}
	return len(seen)
}

// computeDealWeights counts card-compatible combo pairs per bucket pair and
// normalizes the counts into a joint deal distribution.
func (a *Abstraction) computeDealWeights() [][]float64 {
	w := newMatrix(a.NumBuckets[0], a.NumBuckets[1])
	var total float64
	for i, c0 := range a.Ranges[0] {
		b0 := a.Assignments[0][i]
		for j, c1 := range a.Ranges[1] {
			if c0.Conflicts(c1) {
				continue
			}
			w[b0][a.Assignments[1][j]]++
			total++
		}
	}

	if total > 0 {
		for _, row := range w {
			for j := range row {
				row[j] /= total
			}
		}
	}
	return w
}

// computeShowdownEquity estimates the button's showdown pot share per
// bucket pair by sampling representative combo pairs and runouts.
func (a *Abstraction) computeShowdownEquity(calc *equity.Calculator, desc *game.Description, cfg Config) [][]float64 {
	byBucket0 := combosByBucket(a.Ranges[0], a.Assignments[0], a.NumBuckets[0])
	byBucket1 := combosByBucket(a.Ranges[1], a.Assignments[1], a.NumBuckets[1])

	eq := newMatrix(a.NumBuckets[0], a.NumBuckets[1])
	for b0, combos0 := range byBucket0 {
		for b1, combos1 := range byBucket1 {
			eq[b0][b1] = a.pairEquity(calc, desc, cfg, combos0, combos1,
				subSeed(cfg.Seed, 0x5d, uint64(b0), uint64(b1)))
		}
	}
	return eq
}

// pairEquity averages the button's equity over sampled combo pairs from the
// two buckets. Pairs that always conflict contribute a neutral 0.5.
func (a *Abstraction) pairEquity(calc *equity.Calculator, desc *game.Description, cfg Config, combos0, combos1 []cards.Combo, seed int64) float64 {
	rng := rand.New(rand.NewSource(seed))

	var sum float64
	var n int
	for attempt := 0; attempt < 4*cfg.PairSamples && n < cfg.PairSamples; attempt++ {
		c0 := combos0[rng.Intn(len(combos0))]
		c1 := combos1[rng.Intn(len(combos1))]
		if c0.Conflicts(c1) {
			continue
		}

		e, err := calc.ComboVsRange(c0, []cards.Combo{c1}, desc.Board, cfg.EquitySamples, rng.Int63())
		if err != nil {
			continue
		}
		sum += e
		n++
	}

	if n == 0 {
		return 0.5
	}
	return sum / float64(n)
}

func combosByBucket(combos []cards.Combo, assign []int, numBuckets int) [][]cards.Combo {
	out := make([][]cards.Combo, numBuckets)
	for i, c := range combos {
		b := assign[i]
		out[b] = append(out[b], c)
	}
	return out
}

func newMatrix(rows, cols int) [][]float64 {
	backing := make([]float64, rows*cols)
	m := make([][]float64, rows)
	for i := range m {
		m[i] = backing[i*cols : (i+1)*cols]
	}
	return m
}

// subSeed derives a child seed from a base seed and mixing terms, so every
// sampling site gets an independent but reproducible stream.
func subSeed(seed int64, parts ...uint64) int64 {
	h := fnv.New64a()
	var buf [8]byte
	put := func(v uint64) {
		for i := range buf {
			buf[i] = byte(v >> (8 * i))
		}
		h.Write(buf[:])
	}
	put(uint64(seed))
	for _, p := range parts {
		put(p)
	}
	return int64(h.Sum64())
}
