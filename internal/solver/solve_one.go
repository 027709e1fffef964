package solver

import (
	"context"

	"github.com/roach88/kbound/internal/automaton"
)

// Result is the outcome of a top-level query. Game is the last game solved;
// on Realizable its region is the winning region handed to strategy
// extraction.
type Result struct {
	Verdict Verdict
	K       int
	Game    *SafetyGame
	Stats   Stats
}

// SolveOne decides realizability of a single automaton. It solves at KMin,
// KMin+KInc, ... and finally K, stopping at the first bound the controller
// wins. A loss at every bound is Unknown, except when only K was tried,
// which reports Unrealizable: no controller exists within bound K.
func SolveOne(ctx context.Context, aut *automaton.Automaton, p Params) (Result, error) {
	ks := p.schedule()
	var res Result
	for _, k := range ks {
		g := NewGame(aut, k, EnvFirst, p.Vectors)
		st, err := Solve(ctx, g, p)
		if err != nil {
			return Result{}, err
		}
		res.K, res.Game = k, g
		res.Stats.add(st)
		if g.Winning() {
			res.Verdict = Realizable
			return res, nil
		}
	}
	if len(ks) == 1 {
		res.Verdict = Unrealizable
	} else {
		res.Verdict = Unknown
	}
	return res, nil
}

// SolveDual solves the automaton of the negated specification with the
// environment as controller, at bound K only. Winning it proves the
// original specification unrealizable; losing it proves nothing.
func SolveDual(ctx context.Context, neg *automaton.Automaton, p Params) (Result, error) {
	g := NewGame(neg, p.K, SysFirst, p.Vectors)
	st, err := Solve(ctx, g, p)
	if err != nil {
		return Result{}, err
	}
	res := Result{K: p.K, Game: g, Stats: st, Verdict: Unknown}
	if g.Winning() {
		res.Verdict = Unrealizable
	}
	return res, nil
}
