package testutil

import (
	"fmt"
	"math/rand/v2"

	"github.com/roach88/kbound/internal/automaton"
	"github.com/roach88/kbound/internal/letter"
)

// RG is the one-input one-output alphabet used by most fixtures: request r
// from the environment, grant g from the controller.
func RG() *letter.Alphabet {
	return letter.MustAlphabet([]string{"r"}, []string{"g"})
}

// SelfLoop is a single state looping on true, accepting or not.
func SelfLoop(alpha *letter.Alphabet, accepting bool) *automaton.Automaton {
	b := automaton.NewBuilder(alpha, 1).Name("loop").Initial(0).EdgeText(0, 0, "true")
	if accepting {
		b.Accepting(0)
	}
	return b.Build()
}

// Trap reaches an accepting sink when the environment raises r, with no way
// for the controller to prevent it.
func Trap(alpha *letter.Alphabet) *automaton.Automaton {
	return automaton.NewBuilder(alpha, 2).Name("trap").
		Initial(0).
		Accepting(1).
		EdgeText(0, 0, "!r").
		EdgeText(0, 1, "r").
		EdgeText(1, 1, "true").
		Build()
}

// Response is G(r -> F g): state 1 is pending while a request is unanswered.
func Response(alpha *letter.Alphabet) *automaton.Automaton {
	return automaton.NewBuilder(alpha, 2).Name("response").
		Initial(0).
		Accepting(1).
		EdgeText(0, 0, "!r | g").
		EdgeText(0, 1, "r & !g").
		EdgeText(1, 1, "!g").
		EdgeText(1, 0, "g").
		Build()
}

// Chain visits two accepting states once each before settling, so it needs
// K=3.
func Chain(alpha *letter.Alphabet) *automaton.Automaton {
	return automaton.NewBuilder(alpha, 4).Name("chain").
		Initial(0).
		Accepting(1, 2).
		EdgeText(0, 1, "true").
		EdgeText(1, 2, "true").
		EdgeText(2, 3, "true").
		EdgeText(3, 3, "true").
		Build()
}

// Eventually is F(formula) read as a universal co-Büchi automaton: waiting
// is accepting, so the formula must hold within a bounded number of steps.
func Eventually(alpha *letter.Alphabet, formula string) *automaton.Automaton {
	return automaton.NewBuilder(alpha, 2).Name("F(" + formula + ")").
		Initial(0).
		Accepting(0).
		EdgeText(0, 0, "!("+formula+")").
		EdgeText(0, 1, formula).
		EdgeText(1, 1, "true").
		Build()
}

// Random builds a small automaton with conditions drawn from formulas.
// Every state gets at least one outgoing edge.
func Random(r *rand.Rand, alpha *letter.Alphabet, states int, formulas []string) *automaton.Automaton {
	b := automaton.NewBuilder(alpha, states).Name(fmt.Sprintf("random%d", states)).Initial(0)
	for s := range states {
		if r.IntN(3) == 0 {
			b.Accepting(s)
		}
		for range 1 + r.IntN(3) {
			b.EdgeText(s, r.IntN(states), formulas[r.IntN(len(formulas))])
		}
	}
	return b.Build()
}
