package solver

import (
	"context"
	"time"

	"github.com/roach88/kbound/internal/downset"
)

// Stats summarizes one Solve call.
type Stats struct {
	Iterations     int
	Size           int
	InputClasses   int
	Actions        int
	CriticalInputs int
	Duration       time.Duration
}

func (s *Stats) add(o Stats) {
	s.Iterations += o.Iterations
	s.Size = o.Size
	s.InputClasses = o.InputClasses
	s.Actions = o.Actions
	s.CriticalInputs += o.CriticalInputs
	s.Duration += o.Duration
}

// Solve computes the greatest fixpoint of CPre below the game's current
// region and stores it in g.Safe. The starting region is the seed, or the
// existing over-approximation intersected with the seed. Solve checks ctx
// between rounds and returns ctx.Err() on cancellation, leaving g untouched.
func Solve(ctx context.Context, g *SafetyGame, p Params) (Stats, error) {
	start := time.Now()
	log := p.logger()

	s := newSolver(g, p)
	stats := Stats{InputClasses: len(s.classes)}
	for _, c := range s.classes {
		stats.Actions += len(c.actions)
	}

	top := downset.FromSeed(g.Space, p.Downsets, s.rules.seedVector())
	f := top
	if g.Safe != nil {
		f = g.Safe.Copy()
		f.IntersectWith(top)
	}

	for !f.IsEmpty() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		updated := s.cpre(f)
		stats.Iterations++
		p.Metrics.observeIteration(f.Len())
		log.Debug("cpre round",
			"automaton", g.Aut.Name(),
			"k", g.K,
			"iteration", stats.Iterations,
			"size", f.Len(),
			"critical_inputs", len(s.critical))
		if !updated {
			break
		}
	}

	g.Safe = f
	g.Solved = true

	stats.Size = f.Len()
	stats.CriticalInputs = len(s.critical)
	stats.Duration = time.Since(start)
	p.Metrics.observeSolve(g.Winning(), stats)

	log.Info("game solved",
		"automaton", g.Aut.Name(),
		"k", g.K,
		"turn", g.Turn.String(),
		"winning", g.Winning(),
		"iterations", stats.Iterations,
		"size", stats.Size,
		"duration", stats.Duration)
	return stats, nil
}
