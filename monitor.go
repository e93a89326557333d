package gto

import (
	"context"
	"time"

	"github.com/golang/glog"
)

// Status reports how a solve ended.
type Status int

const (
	// Converged means the exploitability target or a plateau was reached.
	Converged Status = iota
	// BudgetExhausted means the iteration or wall-clock budget ran out
	// before convergence.
	BudgetExhausted
	// Cancelled means the caller's context was cancelled.
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Converged:
		return "converged"
	case BudgetExhausted:
		return "budget exhausted"
	default:
		return "cancelled"
	}
}

// Checkpoint is one exploitability measurement taken during a solve.
type Checkpoint struct {
	Iteration      int
	Exploitability float64
	Elapsed        time.Duration
}

// MonitorConfig controls when a solve checks and stops.
type MonitorConfig struct {
	// CheckpointInterval is the number of iterations between
	// exploitability measurements.
	CheckpointInterval int
	// Target stops the solve once exploitability drops to or below it,
	// in big blinds per hand.
	Target float64
	// PlateauWindow and PlateauEpsilon stop the solve when exploitability
	// improved by less than PlateauEpsilon (relative) over the last
	// PlateauWindow checkpoints. Zero PlateauWindow disables the check.
	PlateauWindow  int
	PlateauEpsilon float64
	// MaxIterations bounds the iteration count. Zero means unbounded.
	MaxIterations int
	// MaxDuration bounds wall-clock time. Zero means unbounded.
	MaxDuration time.Duration
}

func (c MonitorConfig) withDefaults() MonitorConfig {
	if c.CheckpointInterval <= 0 {
		c.CheckpointInterval = 100
	}
	return c
}

// monitor tracks solve progress and decides when to stop. It is driven from
// the solve loop between iterations and is not safe for concurrent use.
type monitor struct {
	cfg     MonitorConfig
	start   time.Time
	history []Checkpoint
}

func newMonitor(cfg MonitorConfig) *monitor {
	return &monitor{cfg: cfg.withDefaults(), start: time.Now()}
}

// shouldCheck reports whether the iteration lands on a checkpoint, where the
// caller measures exploitability and calls record.
func (m *monitor) shouldCheck(iter int) bool {
	return iter%m.cfg.CheckpointInterval == 0
}

// record stores a checkpoint and reports whether the solve has converged,
// either by hitting the absolute target or by plateauing.
func (m *monitor) record(iter int, expl float64) bool {
	cp := Checkpoint{Iteration: iter, Exploitability: expl, Elapsed: time.Since(m.start)}
	m.history = append(m.history, cp)
	glog.V(1).Infof("iter %d: exploitability %.6f bb/hand (%.1fs)",
		iter, expl, cp.Elapsed.Seconds())

	if expl <= m.cfg.Target {
		glog.Infof("converged at iter %d: exploitability %.6f <= target %.6f", iter, expl, m.cfg.Target)
		return true
	}

	if w := m.cfg.PlateauWindow; w > 0 && len(m.history) > w {
		prev := m.history[len(m.history)-1-w].Exploitability
		if prev > 0 && (prev-expl)/prev < m.cfg.PlateauEpsilon {
			glog.Infof("plateau at iter %d: exploitability %.6f improved < %.2f%% over %d checkpoints",
				iter, expl, 100*m.cfg.PlateauEpsilon, w)
			return true
		}
	}
	return false
}

// exhausted reports whether an external stop condition fired before
// iteration iter runs, and which status it maps to.
func (m *monitor) exhausted(ctx context.Context, iter int) (Status, bool) {
	if ctx.Err() != nil {
		return Cancelled, true
	}
	if m.cfg.MaxIterations > 0 && iter > m.cfg.MaxIterations {
		return BudgetExhausted, true
	}
	if m.cfg.MaxDuration > 0 && time.Since(m.start) >= m.cfg.MaxDuration {
		return BudgetExhausted, true
	}
	return 0, false
}

// checkpoints returns the recorded measurement history.
func (m *monitor) checkpoints() []Checkpoint {
	return m.history
}
