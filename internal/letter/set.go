package letter

import (
	"errors"

	"github.com/dalzilio/rudd"
)

// Set is a set of valuations over an Alphabet's propositions.
//
// Sets are immutable values; every operation returns a fresh Set. Combining
// Sets from different Alphabets is a precondition violation and panics.
type Set struct {
	a *Alphabet
	n rudd.Node
}

// IsZero reports whether s is the zero Set (not bound to any Alphabet).
func (s Set) IsZero() bool { return s.a == nil }

// Alphabet returns the owning alphabet.
func (s Set) Alphabet() *Alphabet { return s.a }

// ID returns the node index of s. Equal sets of one Alphabet share an ID
// for as long as either is reachable, which makes it usable as a map key.
func (s Set) ID() int { return *s.n }

func (s Set) same(o Set) {
	if s.a == nil || s.a != o.a {
		panic("letter: sets belong to different alphabets")
	}
}

// And returns the intersection of s with every set in others.
func (s Set) And(others ...Set) Set {
	nodes := make([]rudd.Node, 0, len(others)+1)
	nodes = append(nodes, s.n)
	for _, o := range others {
		s.same(o)
		nodes = append(nodes, o.n)
	}
	s.a.mu.Lock()
	defer s.a.mu.Unlock()
	return Set{a: s.a, n: s.a.checked(s.a.bdd.And(nodes...))}
}

// Or returns the union of s with every set in others.
func (s Set) Or(others ...Set) Set {
	nodes := make([]rudd.Node, 0, len(others)+1)
	nodes = append(nodes, s.n)
	for _, o := range others {
		s.same(o)
		nodes = append(nodes, o.n)
	}
	s.a.mu.Lock()
	defer s.a.mu.Unlock()
	return Set{a: s.a, n: s.a.checked(s.a.bdd.Or(nodes...))}
}

// Not returns the complement of s.
func (s Set) Not() Set {
	s.a.mu.Lock()
	defer s.a.mu.Unlock()
	return Set{a: s.a, n: s.a.checked(s.a.bdd.Not(s.n))}
}

// Diff returns s minus o.
func (s Set) Diff(o Set) Set {
	return s.And(o.Not())
}

// Iff returns the valuations on which s and o agree.
func (s Set) Iff(o Set) Set {
	both := s.And(o)
	neither := s.Not().And(o.Not())
	return both.Or(neither)
}

// IsFalse reports whether s is empty.
func (s Set) IsFalse() bool {
	s.a.mu.Lock()
	defer s.a.mu.Unlock()
	return s.a.bdd.Equal(s.n, s.a.bdd.False())
}

// IsTrue reports whether s contains every valuation.
func (s Set) IsTrue() bool {
	s.a.mu.Lock()
	defer s.a.mu.Unlock()
	return s.a.bdd.Equal(s.n, s.a.bdd.True())
}

// Equal reports set equality.
func (s Set) Equal(o Set) bool {
	s.same(o)
	s.a.mu.Lock()
	defer s.a.mu.Unlock()
	return s.a.bdd.Equal(s.n, o.n)
}

// Intersects reports whether s and o share a valuation.
func (s Set) Intersects(o Set) bool {
	return !s.And(o).IsFalse()
}

// Implies reports whether s is a subset of o.
func (s Set) Implies(o Set) bool {
	return s.Diff(o).IsFalse()
}

// Exist projects the variables in vars away.
func (s Set) Exist(vars []int) Set {
	if len(vars) == 0 {
		return s
	}
	s.a.mu.Lock()
	defer s.a.mu.Unlock()
	return Set{a: s.a, n: s.a.checked(s.a.bdd.Exist(s.n, s.a.varset(vars)))}
}

// Forall universally quantifies the variables in vars.
func (s Set) Forall(vars []int) Set {
	if len(vars) == 0 {
		return s
	}
	return s.Not().Exist(vars).Not()
}

var errStop = errors.New("stop")

// assignment returns one satisfying path of s as a per-variable slice with
// 0 (false), 1 (true) or -1 (don't care). s must be non-empty.
func (s Set) assignment() []int {
	s.a.mu.Lock()
	defer s.a.mu.Unlock()

	var first []int
	err := s.a.bdd.Allsat(func(vals []int) error {
		first = append([]int(nil), vals...)
		return errStop
	}, s.n)
	if err != nil && !errors.Is(err, errStop) {
		panic("letter: enumerating assignments: " + err.Error())
	}
	if first == nil {
		panic("letter: PickOne on an empty set")
	}
	return first
}

// PickOne returns a single minterm over vars that intersects s. Variables
// left free by s are set to false. Picking from an empty set panics.
func (s Set) PickOne(vars []int) Set {
	vals := s.assignment()
	cube := s.a.True()
	for _, v := range vars {
		if vals[v] == 1 {
			cube = cube.And(s.a.Var(v))
		} else {
			cube = cube.And(s.a.NVar(v))
		}
	}
	return cube
}

// Cube returns the minterm over vars given by bits.
func (a *Alphabet) Cube(vars []int, bits []bool) Set {
	if len(vars) != len(bits) {
		panic("letter: cube length mismatch")
	}
	cube := a.True()
	for i, v := range vars {
		if bits[i] {
			cube = cube.And(a.Var(v))
		} else {
			cube = cube.And(a.NVar(v))
		}
	}
	return cube
}

// Minterms enumerates every minterm over vars contained in s by repeated
// pick-and-remove. Intended for small supports and tests.
func (s Set) Minterms(vars []int) []Set {
	var out []Set
	rest := s.Exist(complement(s.a, vars))
	for !rest.IsFalse() {
		m := rest.PickOne(vars)
		out = append(out, m)
		rest = rest.Diff(m)
	}
	return out
}

func complement(a *Alphabet, vars []int) []int {
	in := make(map[int]bool, len(vars))
	for _, v := range vars {
		in[v] = true
	}
	var out []int
	for v := range a.names {
		if !in[v] {
			out = append(out, v)
		}
	}
	return out
}

// String returns the textual formula of s.
func (s Set) String() string {
	if s.IsZero() {
		return "<nil>"
	}
	return Format(s)
}
