// Package race runs alternative realizability checks side by side and keeps
// the first informative answer.
//
// Typical contestants are SolveOne on the specification and SolveDual on
// its negation. Each task gets a context that is canceled as soon as another
// task returns Realizable or Unrealizable; tasks are expected to notice and
// return promptly.
package race

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/kbound/internal/solver"
)

// Task is one contestant.
type Task struct {
	Name string
	Run  func(ctx context.Context) (solver.Verdict, error)
}

// Result names the task whose verdict was kept.
type Result struct {
	Verdict solver.Verdict
	Winner  string
}

// errDecided cancels the remaining tasks once a verdict is in.
var errDecided = errors.New("race: decided")

// First runs every task concurrently and returns the first informative
// verdict. When no task is informative it returns Unknown. A task error
// other than cancellation aborts the race and is returned.
func First(ctx context.Context, tasks ...Task) (Result, error) {
	var (
		mu  sync.Mutex
		res = Result{Verdict: solver.Unknown}
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		g.Go(func() error {
			v, err := t.Run(gctx)
			if err != nil {
				if gctx.Err() != nil && errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			slog.Debug("race task finished", "task", t.Name, "verdict", v.String())
			if !v.Informative() {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			if res.Verdict.Informative() {
				return nil
			}
			res = Result{Verdict: v, Winner: t.Name}
			return errDecided
		})
	}

	err := g.Wait()
	if errors.Is(err, errDecided) {
		err = nil
	}
	if err == nil && ctx.Err() != nil && !res.Verdict.Informative() {
		err = ctx.Err()
	}
	if err != nil {
		return Result{}, err
	}
	if res.Verdict.Informative() {
		slog.Info("race decided", "winner", res.Winner, "verdict", res.Verdict.String())
	}
	return res, nil
}
