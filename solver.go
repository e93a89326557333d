// Package gto solves heads-up poker betting subgames for near-optimal play.
// A solve abstracts the players' hand ranges into buckets, builds the dense
// extensive-form tree over them, runs counterfactual regret minimization
// until an exploitability target (or a budget) is hit, and extracts the
// average strategy profile.
package gto

import (
	"context"
	"runtime"

	"github.com/golang/glog"

	"github.com/cfrlab/gto/abstraction"
	"github.com/cfrlab/gto/game"
	"github.com/cfrlab/gto/tree"
)

// TraversalMode selects how CFR iterations visit the tree.
type TraversalMode int

const (
	// FullTraversal sweeps every deal each iteration. Exact updates,
	// parallelized across workers.
	FullTraversal TraversalMode = iota
	// ChanceSampling samples one deal per sweep. Cheaper iterations with
	// noisier updates.
	ChanceSampling
	// ExternalSampling additionally samples the opponent's actions. The
	// fastest per iteration and the noisiest.
	ExternalSampling
)

func (m TraversalMode) String() string {
	switch m {
	case FullTraversal:
		return "full"
	case ChanceSampling:
		return "chance-sampling"
	default:
		return "external-sampling"
	}
}

// Config collects everything that shapes a solve.
type Config struct {
	Abstraction abstraction.Config
	Discount    DiscountParams
	Monitor     MonitorConfig
	Mode        TraversalMode

	// Workers is the sweep parallelism for full traversal. Zero means
	// one worker per CPU. Worker count does not change the result.
	Workers int
	// MaxTreeNodes bounds the tree arena; a larger tree fails the solve
	// with tree.ErrResourceExhaustion. Zero means unbounded.
	MaxTreeNodes int
	// PurifyThreshold zeroes action probabilities below it during
	// strategy extraction. Zero disables purification.
	PurifyThreshold float64
	// Seed pins abstraction sampling and sampled traversal, making the
	// whole solve reproducible.
	Seed int64
}

// DefaultConfig returns a CFR+ configuration with linear averaging, a full
// traversal per iteration, and a 0.001 bb/hand target.
func DefaultConfig() Config {
	return Config{
		Discount: DiscountParams{
			UseRegretMatchingPlus: true,
			LinearWeighting:       true,
		},
		Monitor: MonitorConfig{
			CheckpointInterval: 100,
			Target:             0.001,
			MaxIterations:      10000,
		},
		Mode:         FullTraversal,
		MaxTreeNodes: 10_000_000,
		Seed:         1,
	}
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Abstraction.Seed == 0 {
		c.Abstraction.Seed = c.Seed
	}
	return c
}

// SolveResult is the outcome of a solve.
type SolveResult struct {
	Strategy *Strategy
	// Exploitability of the extracted strategy, in big blinds per hand.
	Exploitability float64
	Iterations     int
	Status         Status
	Checkpoints    []Checkpoint

	// Tree is the solved game tree, retained for inspection and for
	// re-evaluating strategies. It is not serialized.
	Tree *tree.Tree
}

// Solve abstracts, builds and solves the described subgame. The description
// is validated up front; invalid parameters fail with game.ErrInvalidParams
// before any work runs. Identical descriptions, configs and seeds produce
// identical results.
func Solve(ctx context.Context, desc *game.Description, cfg Config) (*SolveResult, error) {
	cfg = cfg.withDefaults()

	if err := desc.Validate(); err != nil {
		return nil, err
	}

	abs, err := abstraction.Compute(desc, cfg.Abstraction)
	if err != nil {
		return nil, err
	}
	t, err := tree.Build(desc, abs, cfg.MaxTreeNodes)
	if err != nil {
		return nil, err
	}

	return SolveTree(ctx, t, cfg)
}

// SolveTree runs CFR on an already built tree. Callers that sweep many
// configurations over one abstraction use this to skip rebuilding.
func SolveTree(ctx context.Context, t *tree.Tree, cfg Config) (*SolveResult, error) {
	cfg = cfg.withDefaults()

	engine := newCFREngine(t, cfg.Discount, cfg.Mode, cfg.Workers, cfg.Seed)
	mon := newMonitor(cfg.Monitor)

	status := BudgetExhausted
	iters := 0
	for {
		if st, stop := mon.exhausted(ctx, iters+1); stop {
			status = st
			break
		}

		engine.iterate()
		iters++

		if mon.shouldCheck(iters) {
			expl := exploitability(t, engine.pt.averageStrategies())
			if mon.record(iters, expl) {
				status = Converged
				break
			}
		}
	}

	strategy := extractStrategy(t, engine.pt, cfg.PurifyThreshold)
	expl := exploitability(t, strategy.probs)

	glog.Infof("solve %s after %d iterations (%s): exploitability %.6f bb/hand over %d infosets",
		status, iters, cfg.Mode, expl, t.NumInfoSets())

	return &SolveResult{
		Strategy:       strategy,
		Exploitability: expl,
		Iterations:     iters,
		Status:         status,
		Checkpoints:    mon.checkpoints(),
		Tree:           t,
	}, nil
}
