package automaton

import "github.com/roach88/kbound/internal/letter"

// InvariantLetter recognizes the two-state encoding of G(c): a non-accepting
// initial state looping on c and moving on !c to an accepting sink that
// loops on true, with no other edges. It returns c when the pattern matches.
func (a *Automaton) InvariantLetter() (letter.Set, bool) {
	if a.NumStates() != 2 {
		return letter.Set{}, false
	}
	s0 := a.initial
	s1 := 1 - s0
	if a.accepting[s0] || !a.accepting[s1] {
		return letter.Set{}, false
	}

	stay, leave := a.alpha.False(), a.alpha.False()
	for _, e := range a.out[s0] {
		if e.Dst == s0 {
			stay = stay.Or(e.Cond)
		} else {
			leave = leave.Or(e.Cond)
		}
	}
	if stay.IsFalse() || !leave.Equal(stay.Not()) {
		return letter.Set{}, false
	}

	sink := a.alpha.False()
	for _, e := range a.out[s1] {
		if e.Dst != s1 {
			return letter.Set{}, false
		}
		sink = sink.Or(e.Cond)
	}
	if !sink.IsTrue() {
		return letter.Set{}, false
	}
	return stay, true
}

// Invariant builds the two-state automaton for G(c).
func Invariant(alpha *letter.Alphabet, c letter.Set) *Automaton {
	return NewBuilder(alpha, 2).
		Name("G(" + c.String() + ")").
		Initial(0).
		Accepting(1).
		Edge(0, 0, c).
		Edge(0, 1, c.Not()).
		Edge(1, 1, alpha.True()).
		Build()
}

// Trivial is the one-state automaton accepting every word.
func Trivial(alpha *letter.Alphabet) *Automaton {
	return NewBuilder(alpha, 1).Name("true").Initial(0).Edge(0, 0, alpha.True()).Build()
}
