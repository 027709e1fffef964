package solver

import (
	"errors"
	"fmt"

	"github.com/roach88/kbound/internal/automaton"
	"github.com/roach88/kbound/internal/downset"
	"github.com/roach88/kbound/internal/vector"
)

// ErrNoSafeRegion is returned by Merge when an operand has no safe region.
var ErrNoSafeRegion = errors.New("solver: merging a game without a safe region")

// Merge conjoins two solved games. The product automaton is built by
// automaton.Conjoin; its region is every pairwise concatenation of the two
// regions, with the fresh initial state taking the smaller of the two
// initial counts, capped by the product's own seed. The result is an
// over-approximation and is returned unsolved.
func Merge(a, b *SafetyGame, p Params) (*SafetyGame, error) {
	if a.Safe == nil || b.Safe == nil || a.Safe.IsEmpty() || b.Safe.IsEmpty() {
		return nil, ErrNoSafeRegion
	}
	if a.K != b.K || a.Turn != b.Turn {
		panic(fmt.Sprintf("solver: merging %s with %s", a, b))
	}

	aut, ren := automaton.Conjoin(a.Aut, b.Aut)
	g := NewGame(aut, a.K, a.Turn, p.Vectors)
	g.Invariant = a.Invariant
	seed := g.seed()

	region := downset.New(g.Space, p.Downsets)
	ia, ib := a.Aut.Initial(), b.Aut.Initial()
	out := make([]int8, aut.NumStates())
	a.Safe.Each(func(x vector.Vector) bool {
		b.Safe.Each(func(y vector.Vector) bool {
			concat(out, ren, x, y, seed, min(x.At(ia), y.At(ib)))
			region.Insert(g.Space.New(out))
			return true
		})
		return true
	})
	g.Safe = region

	p.logger().Debug("games merged",
		"left", a.Aut.Name(),
		"right", b.Aut.Name(),
		"states", aut.NumStates(),
		"region", region.Len())
	return g, nil
}

func concat(out []int8, ren automaton.Renaming, x, y vector.Vector, seed []int8, init int8) {
	for s, t := range ren.Left {
		out[t] = x.At(s)
	}
	for s, t := range ren.Right {
		out[t] = y.At(s)
	}
	out[ren.Init] = init
	for i := range out {
		out[i] = min(out[i], seed[i])
	}
}
