package solver

import (
	"github.com/roach88/kbound/internal/vector"
)

// rules evaluates actions on vectors of one game.
//
// preHat and forward form a Galois pair on vectors below the seed:
// m <= preHat(a, x) iff forward(a, m) succeeds and is <= x.
type rules struct {
	k     int
	acc   []bool
	seed  []int8
	space vector.Space
}

func newRules(g *SafetyGame) *rules {
	n := g.Aut.NumStates()
	r := &rules{
		k:     g.K,
		acc:   make([]bool, n),
		seed:  g.seed(),
		space: g.Space,
	}
	for s := range n {
		r.acc[s] = g.Aut.IsAccepting(s)
	}
	return r
}

func (r *rules) bump(q int) int {
	if r.acc[q] {
		return 1
	}
	return 0
}

// preHat returns the largest vector whose successor under a is below m:
// per state the smallest slack over enabled successors, K-1 when nothing
// is enabled, capped by the seed.
func (r *rules) preHat(a *action, m vector.Vector) vector.Vector {
	vals := m.Values()
	out := make([]int8, len(a.succ))
	for p, qs := range a.succ {
		f := r.k - 1
		for _, q := range qs {
			f = min(f, int(vals[q])-r.bump(q))
		}
		f = max(f, -1)
		out[p] = int8(min(f, int(r.seed[p])))
	}
	return r.space.New(out)
}

// forward returns the successor of m under a. It fails when some count
// would leave the seed, which covers reaching K.
func (r *rules) forward(a *action, m vector.Vector) (vector.Vector, bool) {
	vals := m.Values()
	out := make([]int8, len(vals))
	for i := range out {
		out[i] = -1
	}
	for p, qs := range a.succ {
		c := int(vals[p])
		if c < 0 {
			continue
		}
		for _, q := range qs {
			x := c + r.bump(q)
			if x > int(r.seed[q]) {
				return nil, false
			}
			if int8(x) > out[q] {
				out[q] = int8(x)
			}
		}
	}
	return r.space.New(out), true
}

// seedVector is the top element of the game.
func (r *rules) seedVector() vector.Vector { return r.space.New(r.seed) }
