// Package letter provides the symbolic letter algebra used by the solver.
//
// An Alphabet fixes the atomic propositions of one realizability query and
// splits them into uncontrollable inputs and controllable outputs. A Set is a
// set of valuations over those propositions, stored as a reduced ordered BDD
// (github.com/dalzilio/rudd). Edge conditions, the per-step letter classes
// enumerated by the solver, and the accumulated invariant are all Sets.
//
// # Concurrency
//
// The BDD manager is not safe for concurrent use, so every Alphabet guards
// it with a mutex. Sets may be shared freely between goroutines; every
// operation on them takes the owning Alphabet's lock.
//
// # Textual form
//
// Sets round-trip through a small formula language so they can cross
// process boundaries where variable numbering differs:
//
//	formula ::= or
//	or      ::= and { '|' and }
//	and     ::= not { '&' not }
//	not     ::= '!' not | atom
//	atom    ::= ident | 'true' | 'false' | '1' | '0' | '(' formula ')'
//
// Format emits a sorted disjunction of cubes, which is deterministic for a
// given Alphabet because the underlying BDD is canonical.
package letter
