// Package automaton models the universal co-Büchi automata the solver plays on.
//
// An Automaton has a single initial state, a per-state accepting flag and
// outgoing edges labelled by letter.Sets. Accepting states are the ones a run
// may visit only finitely often; the K-bounded abstraction counts those
// visits per state.
//
// Automata are immutable once built. Builder assembles them, Reorder moves the
// boolean states (whose visit counter can only be -1 or 0) behind the others
// so vector encodings can pack them as bits, and Conjoin builds the
// conjunction of two automata over a shared Alphabet for the composition
// scheduler.
//
// # Game files
//
// Load reads a YAML game file:
//
//	inputs: [r]
//	outputs: [g]
//	automata:
//	  - name: response
//	    states: 2
//	    initial: 0
//	    accepting: [1]
//	    edges:
//	      - {from: 0, to: 0, cond: "!r | g"}
//	      - {from: 0, to: 1, cond: "r & !g"}
//	      - {from: 1, to: 1, cond: "!g"}
//	      - {from: 1, to: 0, cond: "g"}
//
// Edge conditions use the letter formula syntax.
package automaton
