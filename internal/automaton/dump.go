package automaton

import (
	"fmt"
	"strings"

	"github.com/roach88/kbound/internal/canon"
	"github.com/roach88/kbound/internal/letter"
)

// Dump renders a deterministic, human-readable listing of a.
func (a *Automaton) Dump() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "automaton %s\n", a.name)
	fmt.Fprintf(&sb, "states %d initial %d bool-start %d\n", a.NumStates(), a.initial, a.boolStart)
	fmt.Fprintf(&sb, "inputs %s\n", strings.Join(a.alpha.InputNames(), " "))
	fmt.Fprintf(&sb, "outputs %s\n", strings.Join(a.alpha.OutputNames(), " "))
	for s := range a.accepting {
		fmt.Fprintf(&sb, "state %d", s)
		if a.accepting[s] {
			sb.WriteString(" accepting")
		}
		sb.WriteByte('\n')
		for _, e := range a.out[s] {
			fmt.Fprintf(&sb, "  -> %d : %s\n", e.Dst, letter.Format(e.Cond))
		}
	}
	return sb.String()
}

// canonicalForm is the canonical-JSON view of a used for hashing. Conditions
// are stored as formulas so the hash does not depend on BDD numbering.
func (a *Automaton) canonicalForm() map[string]any {
	acc := make([]int, 0)
	for s, ok := range a.accepting {
		if ok {
			acc = append(acc, s)
		}
	}
	edges := make([]any, 0, a.NumEdges())
	for s, es := range a.out {
		for _, e := range es {
			edges = append(edges, []any{s, e.Dst, letter.Format(e.Cond)})
		}
	}
	return map[string]any{
		"states":    a.NumStates(),
		"initial":   a.initial,
		"accepting": acc,
		"edges":     edges,
		"inputs":    a.alpha.InputNames(),
		"outputs":   a.alpha.OutputNames(),
	}
}

// Hash returns the content address of a. Names are not part of identity.
func (a *Automaton) Hash() string {
	h, err := canon.HashValue(canon.DomainAutomaton, a.canonicalForm())
	if err != nil {
		// canonicalForm only produces ints, strings and slices of them.
		panic("automaton: hashing: " + err.Error())
	}
	return h
}
