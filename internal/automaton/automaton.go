package automaton

import (
	"fmt"

	"github.com/roach88/kbound/internal/letter"
)

// Edge is an outgoing transition, enabled on every letter in Cond.
type Edge struct {
	Dst  int
	Cond letter.Set
}

// Automaton is an immutable universal co-Büchi automaton.
//
// INVARIANTS:
//   - every edge destination is in [0, NumStates())
//   - no edge carries an empty condition
//   - states in [BoolStart(), NumStates()) are boolean
type Automaton struct {
	name      string
	alpha     *letter.Alphabet
	initial   int
	accepting []bool
	out       [][]Edge
	maxCount  []int
	boolStart int
}

// Name returns the label given at build time.
func (a *Automaton) Name() string { return a.name }

// Alphabet returns the alphabet every edge condition belongs to.
func (a *Automaton) Alphabet() *letter.Alphabet { return a.alpha }

// NumStates returns the number of states.
func (a *Automaton) NumStates() int { return len(a.accepting) }

// Initial returns the initial state.
func (a *Automaton) Initial() int { return a.initial }

// IsAccepting reports whether visits to s are counted.
func (a *Automaton) IsAccepting(s int) bool { return a.accepting[s] }

// Out returns the outgoing edges of s. The slice must not be modified.
func (a *Automaton) Out(s int) []Edge { return a.out[s] }

// NumEdges returns the total edge count.
func (a *Automaton) NumEdges() int {
	n := 0
	for _, es := range a.out {
		n += len(es)
	}
	return n
}

// NumAccepting returns the number of accepting states.
func (a *Automaton) NumAccepting() int {
	n := 0
	for _, acc := range a.accepting {
		if acc {
			n++
		}
	}
	return n
}

// BoolStart is the index of the first state of the boolean suffix.
func (a *Automaton) BoolStart() int { return a.boolStart }

// Builder assembles an Automaton. Out-of-range state references are
// precondition violations and panic immediately.
type Builder struct {
	name      string
	alpha     *letter.Alphabet
	initial   int
	accepting []bool
	out       [][]Edge
}

// NewBuilder starts an automaton with the given number of states.
func NewBuilder(alpha *letter.Alphabet, states int) *Builder {
	if states < 1 {
		panic("automaton: at least one state is required")
	}
	return &Builder{
		alpha:     alpha,
		accepting: make([]bool, states),
		out:       make([][]Edge, states),
	}
}

func (b *Builder) check(s int) {
	if s < 0 || s >= len(b.accepting) {
		panic(fmt.Sprintf("automaton: state %d out of range [0,%d)", s, len(b.accepting)))
	}
}

// Name sets the automaton label.
func (b *Builder) Name(name string) *Builder {
	b.name = name
	return b
}

// Initial sets the initial state.
func (b *Builder) Initial(s int) *Builder {
	b.check(s)
	b.initial = s
	return b
}

// Accepting marks states as accepting.
func (b *Builder) Accepting(states ...int) *Builder {
	for _, s := range states {
		b.check(s)
		b.accepting[s] = true
	}
	return b
}

// Edge adds a transition from src to dst on cond.
func (b *Builder) Edge(src, dst int, cond letter.Set) *Builder {
	b.check(src)
	b.check(dst)
	if cond.Alphabet() != b.alpha {
		panic("automaton: edge condition from a foreign alphabet")
	}
	b.out[src] = append(b.out[src], Edge{Dst: dst, Cond: cond})
	return b
}

// EdgeText is Edge with a formula; parse errors panic.
func (b *Builder) EdgeText(src, dst int, formula string) *Builder {
	return b.Edge(src, dst, b.alpha.MustParse(formula))
}

// Build freezes the automaton. Edges with empty conditions are dropped.
func (b *Builder) Build() *Automaton {
	a := &Automaton{
		name:      b.name,
		alpha:     b.alpha,
		initial:   b.initial,
		accepting: append([]bool(nil), b.accepting...),
		out:       make([][]Edge, len(b.out)),
	}
	for s, es := range b.out {
		for _, e := range es {
			if e.Cond.IsFalse() {
				continue
			}
			a.out[s] = append(a.out[s], e)
		}
	}
	a.maxCount = maxCounts(a)
	a.boolStart = boolSuffix(a.maxCount)
	return a
}

func (a *Automaton) String() string {
	return fmt.Sprintf("automaton(%s: %d states, %d edges)", a.name, a.NumStates(), a.NumEdges())
}
