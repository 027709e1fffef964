package scheduler

import (
	"fmt"

	"github.com/roach88/kbound/internal/solver"
)

// JobKind distinguishes the two kinds of work.
type JobKind int

const (
	// KindSolve runs the fixpoint on one game.
	KindSolve JobKind = iota + 1
	// KindMerge conjoins two solved games into a new unsolved one.
	KindMerge
)

func (k JobKind) String() string {
	switch k {
	case KindSolve:
		return "solve"
	case KindMerge:
		return "merge"
	}
	return fmt.Sprintf("JobKind(%d)", int(k))
}

// Job is one unit of work. Game is always set; Other only for merges.
// A job is consumed exactly once.
type Job struct {
	Kind  JobKind
	Seq   int64
	Game  *solver.SafetyGame
	Other *solver.SafetyGame
}

func (j Job) String() string {
	if j.Kind == KindMerge {
		return fmt.Sprintf("#%d merge(%s, %s)", j.Seq, j.Game.Aut.Name(), j.Other.Aut.Name())
	}
	return fmt.Sprintf("#%d solve(%s)", j.Seq, j.Game.Aut.Name())
}
