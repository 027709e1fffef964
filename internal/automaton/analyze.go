package automaton

// maxCounts runs the forward least-fixpoint saturation: for every state, the
// largest number of accepting visits along a run reaching it, saturated at
// NumAccepting()+1. Unreachable states get -1. The initial state starts at 0;
// its own acceptance is not counted on entry.
func maxCounts(a *Automaton) []int {
	n := a.NumStates()
	ceiling := a.NumAccepting() + 1

	c := make([]int, n)
	for i := range c {
		c[i] = -1
	}
	c[a.initial] = 0

	work := []int{a.initial}
	queued := make([]bool, n)
	queued[a.initial] = true
	for len(work) > 0 {
		src := work[len(work)-1]
		work = work[:len(work)-1]
		queued[src] = false

		for _, e := range a.out[src] {
			v := c[src]
			if a.accepting[e.Dst] {
				v++
			}
			if v > ceiling {
				v = ceiling
			}
			if v > c[e.Dst] {
				c[e.Dst] = v
				if !queued[e.Dst] {
					queued[e.Dst] = true
					work = append(work, e.Dst)
				}
			}
		}
	}
	return c
}

// boolSuffix returns the smallest b such that every state >= b is boolean.
func boolSuffix(counts []int) int {
	b := len(counts)
	for b > 0 && counts[b-1] <= 0 {
		b--
	}
	return b
}

// MaxCount returns the saturated visit bound of s (-1 when unreachable).
func (a *Automaton) MaxCount(s int) int { return a.maxCount[s] }

// IsBoolean reports whether the counter of s is always -1 or 0.
func (a *Automaton) IsBoolean(s int) bool { return a.maxCount[s] <= 0 }

// Pumpable reports whether s lies behind an accepting cycle, so its counter
// is unbounded in the unabstracted game.
func (a *Automaton) Pumpable(s int) bool { return a.maxCount[s] > a.NumAccepting() }

// Seed returns the initial safe-region vector for bound k: k-1 on pumpable
// states, the saturated count (capped at k-1) elsewhere, -1 when unreachable.
func (a *Automaton) Seed(k int) []int8 {
	out := make([]int8, a.NumStates())
	for s, c := range a.maxCount {
		switch {
		case c < 0:
			out[s] = -1
		case a.Pumpable(s) || c > k-1:
			out[s] = int8(k - 1)
		default:
			out[s] = int8(c)
		}
	}
	return out
}

// Reorder returns an equivalent automaton whose non-boolean states come
// first, preserving relative order inside each group, and the renaming
// perm[old] = new.
func (a *Automaton) Reorder() (*Automaton, []int) {
	n := a.NumStates()
	perm := make([]int, n)
	next := 0
	for s := 0; s < n; s++ {
		if !a.IsBoolean(s) {
			perm[s] = next
			next++
		}
	}
	for s := 0; s < n; s++ {
		if a.IsBoolean(s) {
			perm[s] = next
			next++
		}
	}
	return a.rename(perm), perm
}

// rename applies perm[old] = new and rebuilds the analysis.
func (a *Automaton) rename(perm []int) *Automaton {
	b := NewBuilder(a.alpha, a.NumStates()).Name(a.name).Initial(perm[a.initial])
	for s := range a.accepting {
		if a.accepting[s] {
			b.Accepting(perm[s])
		}
		for _, e := range a.out[s] {
			b.Edge(perm[s], perm[e.Dst], e.Cond)
		}
	}
	return b.Build()
}
