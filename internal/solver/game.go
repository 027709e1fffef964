package solver

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/kbound/internal/automaton"
	"github.com/roach88/kbound/internal/downset"
	"github.com/roach88/kbound/internal/letter"
	"github.com/roach88/kbound/internal/vector"
)

// Verdict is the answer to a realizability query.
type Verdict int

const (
	Unknown Verdict = iota
	Realizable
	Unrealizable
)

var verdictNames = [...]string{"unknown", "realizable", "unrealizable"}

func (v Verdict) String() string {
	if v >= 0 && int(v) < len(verdictNames) {
		return verdictNames[v]
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

// Informative reports whether v settles the query.
func (v Verdict) Informative() bool { return v == Realizable || v == Unrealizable }

// ParseVerdict is the inverse of Verdict.String.
func ParseVerdict(s string) (Verdict, error) {
	for i, name := range verdictNames {
		if strings.EqualFold(s, name) {
			return Verdict(i), nil
		}
	}
	return Unknown, fmt.Errorf("unknown verdict %q", s)
}

// Turn fixes the quantifier alternation of one round. Inputs are always
// chosen before outputs; the turn says which side the solved region is
// winning for.
type Turn int

const (
	// EnvFirst: for every input some output keeps the play safe. The
	// controller owns the outputs.
	EnvFirst Turn = iota
	// SysFirst: some input keeps the play safe for every output. The
	// controller owns the inputs. Used for the dual game on the negated
	// specification.
	SysFirst
)

func (t Turn) String() string {
	if t == SysFirst {
		return "sys-first"
	}
	return "env-first"
}

// Heuristic chooses among several critical-input witnesses.
type Heuristic int

const (
	// First takes the first witness found in letter enumeration order.
	First Heuristic = iota
	// Frequency greedily takes the witness that kills the most elements.
	Frequency
)

func (h Heuristic) String() string {
	if h == Frequency {
		return "frequency"
	}
	return "first"
}

// ParseHeuristic is the inverse of Heuristic.String.
func ParseHeuristic(s string) (Heuristic, error) {
	switch strings.ToLower(s) {
	case "first":
		return First, nil
	case "frequency":
		return Frequency, nil
	}
	return First, fmt.Errorf("unknown heuristic %q", s)
}

// Params is the immutable context handed to every solver call.
type Params struct {
	K         int
	KMin      int
	KInc      int
	Pruning   bool
	Heuristic Heuristic
	Vectors   vector.Kind
	Downsets  downset.Strategy
	Logger    *slog.Logger
	Metrics   *Metrics
}

// DefaultParams solves at K=3 in one attempt with pruning on.
func DefaultParams() Params {
	return Params{K: 3, KMin: 3, KInc: 1, Pruning: true}
}

func (p Params) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// schedule lists the bounds tried by SolveOne: KMin, KMin+KInc, ... below
// K, then K.
func (p Params) schedule() []int {
	kmin, inc := p.KMin, p.KInc
	if kmin <= 0 || kmin > p.K {
		kmin = p.K
	}
	if inc <= 0 {
		inc = 1
	}
	var ks []int
	for k := kmin; k < p.K; k += inc {
		ks = append(ks, k)
	}
	return append(ks, p.K)
}

// SafetyGame is one automaton together with its current safe region.
//
// Safe is nil before the first solve. After a Merge it holds an
// over-approximation and Solved is false; after Solve it is the exact
// greatest fixpoint.
type SafetyGame struct {
	Aut    *automaton.Automaton
	K      int
	Turn   Turn
	Space  vector.Space
	Safe   *downset.Downset
	Solved bool

	// Invariant, when set, restricts every round to letters inside it.
	Invariant letter.Set
}

// NewGame prepares aut for solving at bound k.
func NewGame(aut *automaton.Automaton, k int, turn Turn, kind vector.Kind) *SafetyGame {
	if k < 1 || k > vector.MaxK {
		panic(fmt.Sprintf("solver: bound %d out of range [1,%d]", k, vector.MaxK))
	}
	return &SafetyGame{
		Aut:   aut,
		K:     k,
		Turn:  turn,
		Space: vector.NewSpace(aut.NumStates(), aut.BoolStart(), kind),
	}
}

// seed is the top of the lattice: the initial safe-region vector.
func (g *SafetyGame) seed() []int8 { return g.Aut.Seed(g.K) }

// Start is the vector occupying only the initial state with count 0.
func (g *SafetyGame) Start() vector.Vector { return g.Space.Point(g.Aut.Initial()) }

// Winning reports whether the start vector lies in the safe region.
func (g *SafetyGame) Winning() bool {
	return g.Safe != nil && g.Safe.Contains(g.Start())
}

func (g *SafetyGame) String() string {
	size := -1
	if g.Safe != nil {
		size = g.Safe.Len()
	}
	return fmt.Sprintf("game(%s, K=%d, %s, solved=%t, region=%d)", g.Aut.Name(), g.K, g.Turn, g.Solved, size)
}
