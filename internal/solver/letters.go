package solver

import (
	"slices"

	"github.com/roach88/kbound/internal/automaton"
	"github.com/roach88/kbound/internal/letter"
)

// action is the effect of one class of letters on the automaton: succ[p]
// lists the destinations of the edges of p the class enables.
type action struct {
	succ [][]int
}

// inputClass groups input letters that enable exactly the same output
// cofactor of every edge condition, so they offer the same actions.
type inputClass struct {
	letter  letter.Set
	actions []*action
}

type edgeRef struct {
	src, dst int
	cond     letter.Set
}

// enumerate splits the input letters into classes and, per class, the
// output letters into actions. Letters are drawn by pick-one-and-remove
// until the remaining set is empty. When inv is set, outputs outside it are
// never offered.
func enumerate(aut *automaton.Automaton, inv letter.Set) []inputClass {
	alpha := aut.Alphabet()
	ins, outs := alpha.Inputs(), alpha.Outputs()

	var edges []edgeRef
	byID := map[int]letter.Set{}
	for p := 0; p < aut.NumStates(); p++ {
		for _, e := range aut.Out(p) {
			edges = append(edges, edgeRef{src: p, dst: e.Dst, cond: e.Cond})
			byID[e.Cond.ID()] = e.Cond
		}
	}
	restricted := !inv.IsZero() && !inv.IsTrue()
	if restricted {
		byID[inv.ID()] = inv
	}
	ids := make([]int, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var classes []inputClass
	rest := alpha.True()
	for !rest.IsFalse() {
		i := rest.PickOne(ins)

		class := rest
		cofactor := make(map[int]letter.Set, len(ids))
		for _, id := range ids {
			c := byID[id]
			g := c.And(i).Exist(ins)
			cofactor[id] = g
			class = class.And(c.Iff(g).Forall(outs))
		}
		rest = rest.Diff(class)

		allowed := alpha.True()
		if restricted {
			allowed = cofactor[inv.ID()]
		}
		classes = append(classes, inputClass{
			letter:  class,
			actions: outputActions(aut.NumStates(), edges, cofactor, allowed, outs),
		})
	}
	return classes
}

// outputActions enumerates the output classes inside allowed for one input
// class and returns their distinct actions.
func outputActions(n int, edges []edgeRef, cofactor map[int]letter.Set, allowed letter.Set, outs []int) []*action {
	var actions []*action
	seen := map[string]bool{}

	rest := allowed
	for !rest.IsFalse() {
		o := rest.PickOne(outs)

		class := rest
		key := make([]byte, len(edges))
		for k, e := range edges {
			g := cofactor[e.cond.ID()]
			if g.Intersects(o) {
				key[k] = 1
				class = class.And(g)
			} else {
				class = class.Diff(g)
			}
		}
		rest = rest.Diff(class)

		if seen[string(key)] {
			continue
		}
		seen[string(key)] = true

		a := &action{succ: make([][]int, n)}
		for k, e := range edges {
			if key[k] == 1 && !slices.Contains(a.succ[e.src], e.dst) {
				a.succ[e.src] = append(a.succ[e.src], e.dst)
			}
		}
		actions = append(actions, a)
	}
	return actions
}
