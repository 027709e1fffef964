package solver

import (
	"slices"

	"github.com/roach88/kbound/internal/downset"
	"github.com/roach88/kbound/internal/vector"
)

// solver holds the per-solve caches: letter classes, their actions and the
// critical inputs discovered so far. It is private to one Solve call.
type solver struct {
	g        *SafetyGame
	params   Params
	rules    *rules
	classes  []inputClass
	critical []int
	isCrit   []bool
}

func newSolver(g *SafetyGame, p Params) *solver {
	classes := enumerate(g.Aut, g.Invariant)
	return &solver{
		g:       g,
		params:  p,
		rules:   newRules(g),
		classes: classes,
		isCrit:  make([]bool, len(classes)),
	}
}

func (s *solver) empty() *downset.Downset {
	return downset.New(s.g.Space, s.params.Downsets)
}

// preImage is the union over actions of PreHat applied to every element
// of f.
func (s *solver) preImage(f *downset.Downset, actions []*action) *downset.Downset {
	out := s.empty()
	for _, a := range actions {
		f.Each(func(m vector.Vector) bool {
			out.Insert(s.rules.preHat(a, m))
			return true
		})
	}
	return out
}

// cpre shrinks f to f ∩ CPre(f) and reports whether it changed.
func (s *solver) cpre(f *downset.Downset) bool {
	if s.g.Turn == SysFirst {
		return s.cpreSysFirst(f)
	}

	inputs := make([]int, len(s.classes))
	for i := range inputs {
		inputs[i] = i
	}
	if s.params.Pruning {
		if !s.findCritical(f) {
			return false
		}
		inputs = s.critical
	}

	var acc *downset.Downset
	for _, i := range inputs {
		pre := s.preImage(f, s.classes[i].actions)
		if acc == nil {
			acc = pre
		} else {
			acc.IntersectWith(pre)
		}
		if acc.IsEmpty() {
			break
		}
	}
	if acc == nil {
		return false
	}
	return f.IntersectWith(acc)
}

// cpreSysFirst computes the union over inputs of the intersection over
// output actions.
func (s *solver) cpreSysFirst(f *downset.Downset) bool {
	acc := s.empty()
	for _, c := range s.classes {
		var inter *downset.Downset
		for _, a := range c.actions {
			pre := s.preImage(f, []*action{a})
			if inter == nil {
				inter = pre
			} else {
				inter.IntersectWith(pre)
			}
			if inter.IsEmpty() {
				break
			}
		}
		if inter != nil {
			acc.UnionWith(inter)
		}
	}
	return f.IntersectWith(acc)
}

// kills reports whether input class i is a one-step-loss witness for m:
// every action leads outside f.
func (s *solver) kills(i int, m vector.Vector, f *downset.Downset) bool {
	for _, a := range s.classes[i].actions {
		if next, ok := s.rules.forward(a, m); ok && f.Contains(next) {
			return false
		}
	}
	return true
}

func (s *solver) killedByCritical(m vector.Vector, f *downset.Downset) bool {
	for _, i := range s.critical {
		if s.kills(i, m, f) {
			return true
		}
	}
	return false
}

func (s *solver) markCritical(i int) {
	s.isCrit[i] = true
	s.critical = append(s.critical, i)
}

// findCritical extends the critical inputs until every element of f that
// loses in one step is killed by one of them. It reports whether any
// element loses; when none does, f is a fixpoint.
func (s *solver) findCritical(f *downset.Downset) bool {
	if s.params.Heuristic == Frequency {
		return s.findCriticalFrequency(f)
	}
	losing := false
	f.Each(func(m vector.Vector) bool {
		if s.killedByCritical(m, f) {
			losing = true
			return true
		}
		for i := range s.classes {
			if !s.isCrit[i] && s.kills(i, m, f) {
				s.markCritical(i)
				losing = true
				break
			}
		}
		return true
	})
	return losing
}

// findCriticalFrequency covers the losing elements greedily, always taking
// the input that kills the most still-uncovered ones.
func (s *solver) findCriticalFrequency(f *downset.Downset) bool {
	losing := false
	var witnesses [][]int
	f.Each(func(m vector.Vector) bool {
		if s.killedByCritical(m, f) {
			losing = true
			return true
		}
		var ws []int
		for i := range s.classes {
			if !s.isCrit[i] && s.kills(i, m, f) {
				ws = append(ws, i)
			}
		}
		if len(ws) > 0 {
			witnesses = append(witnesses, ws)
		}
		return true
	})
	if len(witnesses) > 0 {
		losing = true
	}

	for len(witnesses) > 0 {
		count := make([]int, len(s.classes))
		for _, ws := range witnesses {
			for _, i := range ws {
				count[i]++
			}
		}
		best := 0
		for i := range count {
			if count[i] > count[best] {
				best = i
			}
		}
		s.markCritical(best)

		rest := witnesses[:0]
		for _, ws := range witnesses {
			if !slices.Contains(ws, best) {
				rest = append(rest, ws)
			}
		}
		witnesses = rest
	}
	return losing
}
