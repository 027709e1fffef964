package automaton

import "fmt"

// Renaming records where the states of two conjoined automata ended up.
type Renaming struct {
	Left  []int // Left[s] is the product index of state s of the left operand
	Right []int // Right[s] is the product index of state s of the right operand
	Init  int   // product index of the fresh initial state
}

// Conjoin builds the automaton accepting the intersection of the languages of
// left and right. For universal automata this is the disjoint union of both
// plus a fresh non-accepting initial state carrying the outgoing edges of
// both original initial states. The result is reordered so non-boolean
// states precede boolean ones.
//
// Both operands must share one Alphabet.
func Conjoin(left, right *Automaton) (*Automaton, Renaming) {
	if left.alpha != right.alpha {
		panic("automaton: conjoining automata over different alphabets")
	}

	nl, nr := left.NumStates(), right.NumStates()
	fresh := nl + nr
	name := fmt.Sprintf("(%s & %s)", left.name, right.name)

	b := NewBuilder(left.alpha, nl+nr+1).Name(name).Initial(fresh)
	copyInto := func(src *Automaton, offset int) {
		for s := 0; s < src.NumStates(); s++ {
			if src.accepting[s] {
				b.Accepting(s + offset)
			}
			for _, e := range src.out[s] {
				b.Edge(s+offset, e.Dst+offset, e.Cond)
			}
		}
		for _, e := range src.out[src.initial] {
			b.Edge(fresh, e.Dst+offset, e.Cond)
		}
	}
	copyInto(left, 0)
	copyInto(right, nl)

	product, perm := b.Build().Reorder()

	r := Renaming{
		Left:  make([]int, nl),
		Right: make([]int, nr),
		Init:  perm[fresh],
	}
	for s := 0; s < nl; s++ {
		r.Left[s] = perm[s]
	}
	for s := 0; s < nr; s++ {
		r.Right[s] = perm[nl+s]
	}
	return product, r
}

// ConjoinAll folds Conjoin over a non-empty list.
func ConjoinAll(auts []*Automaton) *Automaton {
	if len(auts) == 0 {
		panic("automaton: ConjoinAll of nothing")
	}
	acc := auts[0]
	for _, next := range auts[1:] {
		acc, _ = Conjoin(acc, next)
	}
	return acc
}
