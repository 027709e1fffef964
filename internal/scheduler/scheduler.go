// Package scheduler solves a conjunction of automata as independent games
// and folds the solved games together pairwise.
//
// Every automaton starts as a Solve job. A solved, winning game is handed to
// the result slot; when the slot is already occupied the two games become a
// Merge job, whose product game is enqueued as a new Solve job. A losing
// game ends the query. The last game left once the queue drains is the
// answer.
//
// Automata matching the two-state G(c) pattern are not solved at all when
// invariant short-circuiting is on: c is conjoined into a shared invariant
// letter that restricts every later round, and the final game is re-solved
// if the invariant grew after it was solved.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/kbound/internal/automaton"
	"github.com/roach88/kbound/internal/letter"
	"github.com/roach88/kbound/internal/solver"
)

// ErrNoAutomata is returned by RunMany for an empty conjunction.
var ErrNoAutomata = errors.New("scheduler: no automata")

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithWorkers sets the pool size. One worker runs inline on the caller's
// goroutine.
func WithWorkers(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithInvariants toggles the G(c) short-circuit.
func WithInvariants(on bool) Option {
	return func(s *Scheduler) { s.invariants = on }
}

// WithClock replaces the job sequencer.
func WithClock(c Sequencer) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithMetrics records scheduler metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// Outcome is the result of RunMany. On Realizable, Game is the final solved
// game, for strategy extraction.
type Outcome struct {
	Verdict   solver.Verdict
	Game      *solver.SafetyGame
	Invariant letter.Set
	Jobs      int64
}

// Scheduler coordinates one realizability query. It is not reusable.
type Scheduler struct {
	params     solver.Params
	workers    int
	invariants bool
	clock      Sequencer
	metrics    *Metrics

	queue   *jobQueue
	pending atomic.Int64
	jobs    atomic.Int64
	losing  atomic.Bool

	mu        sync.Mutex // guards half and invariant
	half      *solver.SafetyGame
	invariant letter.Set
}

// New creates a scheduler solving every game with params.
func New(params solver.Params, opts ...Option) *Scheduler {
	s := &Scheduler{
		params:     params,
		workers:    1,
		invariants: true,
		clock:      NewClock(),
		queue:      newJobQueue(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) log() *slog.Logger {
	if s.params.Logger != nil {
		return s.params.Logger
	}
	return slog.Default()
}

// RunMany decides realizability of the conjunction of auts at bound
// params.K. All automata must share one alphabet. A losing sub-game makes
// the whole conjunction Unrealizable: no controller exists within bound K.
func (s *Scheduler) RunMany(ctx context.Context, auts []*automaton.Automaton) (Outcome, error) {
	if len(auts) == 0 {
		return Outcome{}, ErrNoAutomata
	}
	alpha := auts[0].Alphabet()
	for _, a := range auts[1:] {
		if a.Alphabet() != alpha {
			return Outcome{}, fmt.Errorf("scheduler: automaton %q uses a different alphabet", a.Name())
		}
	}
	s.invariant = alpha.True()

	s.log().Info("scheduler starting", "automata", len(auts), "workers", s.workers, "k", s.params.K)
	for _, a := range auts {
		s.enqueue(Job{Kind: KindSolve, Game: solver.NewGame(a, s.params.K, solver.EnvFirst, s.params.Vectors)})
	}

	if s.workers == 1 {
		if err := s.work(ctx); err != nil {
			return Outcome{}, err
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		for range s.workers {
			g.Go(func() error { return s.work(gctx) })
		}
		if err := g.Wait(); err != nil {
			return Outcome{}, err
		}
	}

	return s.finish(ctx, alpha)
}

// enqueue registers j as pending before publishing it, so the pending count
// never reaches zero while work is still in flight.
func (s *Scheduler) enqueue(j Job) {
	j.Seq = s.clock.Next()
	s.pending.Add(1)
	if !s.queue.Enqueue(j) {
		s.pending.Add(-1)
		return
	}
	s.metrics.depth(s.queue.Len())
}

// done retires one job and closes the queue after the last one.
func (s *Scheduler) done() {
	if s.pending.Add(-1) == 0 {
		s.queue.Close()
	}
}

// work is the worker loop.
func (s *Scheduler) work(ctx context.Context) error {
	for {
		if j, ok := s.queue.TryDequeue(); ok {
			s.metrics.depth(s.queue.Len())
			err := s.run(ctx, j)
			s.done()
			if err != nil {
				s.queue.Close()
				return err
			}
			continue
		}
		if s.queue.Drained() {
			return nil
		}
		select {
		case <-ctx.Done():
			s.queue.Close()
			return ctx.Err()
		case <-s.queue.Wait():
		}
	}
}

func (s *Scheduler) run(ctx context.Context, j Job) error {
	s.jobs.Add(1)
	if s.losing.Load() {
		s.metrics.job(j.Kind, "skipped")
		return nil
	}
	s.log().Debug("job started", "job", j.String())

	switch j.Kind {
	case KindSolve:
		return s.solve(ctx, j)
	case KindMerge:
		return s.merge(j)
	}
	panic(fmt.Sprintf("scheduler: unknown job kind %d", j.Kind))
}

func (s *Scheduler) solve(ctx context.Context, j Job) error {
	g := j.Game
	if s.invariants && g.Safe == nil {
		if c, ok := g.Aut.InvariantLetter(); ok {
			s.addInvariant(c)
			s.metrics.invariant()
			s.metrics.job(KindSolve, "invariant")
			s.log().Debug("invariant recorded", "job", j.String(), "letter", c.String())
			return nil
		}
	}

	g.Invariant = s.currentInvariant()
	if _, err := solver.Solve(ctx, g, s.params); err != nil {
		return err
	}
	if !g.Winning() {
		s.lose(j)
		s.metrics.job(KindSolve, "losing")
		return nil
	}
	s.metrics.job(KindSolve, "winning")
	s.addResult(g)
	return nil
}

// merge drops nothing: an operand without a safe region loses the query.
func (s *Scheduler) merge(j Job) error {
	m, err := solver.Merge(j.Game, j.Other, s.params)
	if errors.Is(err, solver.ErrNoSafeRegion) {
		s.lose(j)
		s.metrics.job(KindMerge, "losing")
		return nil
	}
	if err != nil {
		return err
	}
	s.metrics.job(KindMerge, "merged")
	s.log().Info("games merged", "job", j.String(), "states", m.Aut.NumStates(), "region", m.Safe.Len())
	s.enqueue(Job{Kind: KindSolve, Game: m})
	return nil
}

func (s *Scheduler) lose(j Job) {
	if s.losing.CompareAndSwap(false, true) {
		s.log().Info("query lost", "job", j.String())
	}
}

func (s *Scheduler) addInvariant(c letter.Set) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invariant = s.invariant.And(c)
}

func (s *Scheduler) currentInvariant() letter.Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invariant
}

// addResult parks g in the half-result slot, or pairs it with the parked
// game into a merge job.
func (s *Scheduler) addResult(g *solver.SafetyGame) {
	s.mu.Lock()
	other := s.half
	if other == nil {
		s.half = g
		s.mu.Unlock()
		return
	}
	s.half = nil
	s.mu.Unlock()

	s.metrics.merge()
	s.enqueue(Job{Kind: KindMerge, Game: other, Other: g})
}

// finish turns the drained state into a verdict.
func (s *Scheduler) finish(ctx context.Context, alpha *letter.Alphabet) (Outcome, error) {
	out := Outcome{Invariant: s.invariant, Jobs: s.jobs.Load()}
	if s.losing.Load() {
		out.Verdict = solver.Unrealizable
		s.log().Info("scheduler finished", "verdict", out.Verdict.String(), "jobs", out.Jobs)
		return out, nil
	}

	final := s.half
	switch {
	case final == nil:
		// Everything was an invariant.
		final = solver.NewGame(automaton.Trivial(alpha), s.params.K, solver.EnvFirst, s.params.Vectors)
		final.Invariant = s.invariant
		if _, err := solver.Solve(ctx, final, s.params); err != nil {
			return Outcome{}, err
		}
	case !final.Invariant.Equal(s.invariant):
		final.Invariant = s.invariant
		if _, err := solver.Solve(ctx, final, s.params); err != nil {
			return Outcome{}, err
		}
	}

	out.Game = final
	out.Verdict = solver.Unrealizable
	if final.Winning() {
		out.Verdict = solver.Realizable
	}
	s.log().Info("scheduler finished", "verdict", out.Verdict.String(), "jobs", out.Jobs)
	return out, nil
}

// RunMany is a one-shot convenience around New(...).RunMany.
func RunMany(ctx context.Context, auts []*automaton.Automaton, params solver.Params, opts ...Option) (Outcome, error) {
	return New(params, opts...).RunMany(ctx, auts)
}
