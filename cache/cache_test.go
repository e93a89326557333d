package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cfrlab/gto"
	"github.com/cfrlab/gto/abstraction"
	"github.com/cfrlab/gto/game"
)

func testDescription() *game.Description {
	return &game.Description{
		Stacks: [game.NumSeats]float64{10, 10},
		Blinds: game.Blinds{Small: 0.5, Big: 1},
		Sizing: game.BetSizing{NoLimp: true, MaxRaises: 1},
		Ranges: [game.NumSeats]string{"TT+,AK", "TT+,AK"},
	}
}

// testConfig keeps solves cheap: a coarse abstraction and a short budget.
func testConfig() gto.Config {
	cfg := gto.DefaultConfig()
	cfg.Abstraction = abstraction.Config{
		Buckets:       3,
		HistogramBins: 8,
		EquitySamples: 20,
		PairSamples:   4,
	}
	cfg.Monitor.MaxIterations = 50
	cfg.Monitor.CheckpointInterval = 25
	cfg.Monitor.Target = 0.05
	cfg.Workers = 2
	cfg.Seed = 1
	return cfg
}

func TestGetOrSolveCachesResult(t *testing.T) {
	c, err := New(4, "")
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	first, err := c.GetOrSolve(ctx, testDescription(), testConfig())
	require.NoError(t, err)
	require.NotNil(t, first.Strategy)

	second, err := c.GetOrSolve(ctx, testDescription(), testConfig())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, uint64(1), c.Builds())
}

func TestGetOrSolveConcurrentSingleBuild(t *testing.T) {
	c, err := New(4, "")
	require.NoError(t, err)
	defer c.Close()

	const callers = 8
	results := make([]*gto.SolveResult, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := c.GetOrSolve(context.Background(), testDescription(), testConfig())
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	assert.Equal(t, uint64(1), c.Builds())
	for i := 1; i < callers; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestGetCachedNeverSolves(t *testing.T) {
	c, err := New(4, "")
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.GetCached(testDescription(), testConfig())
	assert.False(t, ok)
	assert.Equal(t, uint64(0), c.Builds())

	_, err = c.GetOrSolve(context.Background(), testDescription(), testConfig())
	require.NoError(t, err)

	res, ok := c.GetCached(testDescription(), testConfig())
	assert.True(t, ok)
	assert.NotNil(t, res)
}

func TestLRUEviction(t *testing.T) {
	c, err := New(1, "")
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	_, err = c.GetOrSolve(ctx, testDescription(), testConfig())
	require.NoError(t, err)

	// A second distinct request evicts the first from the size-1 cache.
	other := testConfig()
	other.Seed = 2
	_, err = c.GetOrSolve(ctx, testDescription(), other)
	require.NoError(t, err)

	_, ok := c.GetCached(testDescription(), testConfig())
	assert.False(t, ok)
	_, ok = c.GetCached(testDescription(), other)
	assert.True(t, ok)
}

func TestPersistenceAcrossRestart(t *testing.T) {
	dir := t.TempDir()

	c, err := New(4, dir)
	require.NoError(t, err)
	first, err := c.GetOrSolve(context.Background(), testDescription(), testConfig())
	require.NoError(t, err)
	require.NoError(t, c.Close())

	// A fresh cache over the same store serves the persisted solution.
	c2, err := New(4, dir)
	require.NoError(t, err)
	defer c2.Close()

	res, ok := c2.GetCached(testDescription(), testConfig())
	require.True(t, ok)
	assert.Equal(t, uint64(0), c2.Builds())
	assert.Equal(t, first.Exploitability, res.Exploitability)
	assert.Equal(t, first.Iterations, res.Iterations)

	want, err := first.Strategy.MarshalBinary()
	require.NoError(t, err)
	got, err := res.Strategy.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCorruptedEntryIsMiss(t *testing.T) {
	dir := t.TempDir()

	c, err := New(4, dir)
	require.NoError(t, err)
	_, err = c.GetOrSolve(context.Background(), testDescription(), testConfig())
	require.NoError(t, err)
	require.NoError(t, c.Close())

	c2, err := New(4, dir)
	require.NoError(t, err)
	defer c2.Close()

	// Clobber the persisted entry behind the cache's back.
	fp := gto.ComputeFingerprint(testDescription(), testConfig())
	require.NoError(t, c2.db.Put(fp[:], []byte("garbage"), nil))

	_, ok := c2.GetCached(testDescription(), testConfig())
	assert.False(t, ok)

	// The damaged entry was dropped; solving repopulates it.
	res, err := c2.GetOrSolve(context.Background(), testDescription(), testConfig())
	require.NoError(t, err)
	assert.NotNil(t, res.Strategy)
	assert.Equal(t, uint64(1), c2.Builds())
}

func TestNewRejectsBadCapacity(t *testing.T) {
	_, err := New(0, "")
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	c, err := New(4, "")
	require.NoError(t, err)
	defer c.Close()

	c.GetCached(testDescription(), testConfig())
	_, err = c.GetOrSolve(context.Background(), testDescription(), testConfig())
	require.NoError(t, err)
	_, err = c.GetOrSolve(context.Background(), testDescription(), testConfig())
	require.NoError(t, err)

	hits, misses := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(2), misses)
}
