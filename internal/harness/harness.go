package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/roach88/kbound/internal/automaton"
	"github.com/roach88/kbound/internal/config"
	"github.com/roach88/kbound/internal/race"
	"github.com/roach88/kbound/internal/scheduler"
	"github.com/roach88/kbound/internal/solver"
	"github.com/roach88/kbound/internal/store"
	"github.com/roach88/kbound/internal/testutil"
)

// Harness runs scenarios and records their verdicts in a store. Run IDs
// and sequence numbers are deterministic so reports can be compared
// against golden files.
type Harness struct {
	store  *store.Store
	clock  *testutil.DeterministicClock
	runIDs store.RunIDGenerator
	logger *slog.Logger
}

// New returns a harness recording into st.
func New(st *store.Store) *Harness {
	return &Harness{
		store:  st,
		clock:  testutil.NewDeterministicClock(),
		runIDs: &testutil.SequentialRunIDs{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
}

// WithLogger replaces the discarding logger.
func (h *Harness) WithLogger(l *slog.Logger) *Harness {
	h.logger = l
	return h
}

// Run executes one scenario against a fresh in-memory store.
func Run(ctx context.Context, sc *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()
	return New(st).Run(ctx, sc)
}

// RunDir loads every *.yaml scenario in dir, in name order, and runs them
// against one in-memory store.
func RunDir(ctx context.Context, dir string) ([]*Result, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenarios found in %s: %w", dir, os.ErrNotExist)
	}
	slices.Sort(paths)

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()
	h := New(st)

	results := make([]*Result, 0, len(paths))
	for _, p := range paths {
		sc, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		r, err := h.Run(ctx, sc)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		results = append(results, r)
	}
	return results, nil
}

// Run executes sc, records the verdict and evaluates its expectations.
//
// Execution flow:
// 1. Resolve options over config.Default
// 2. Load the game (and negation) files
// 3. Solve through the scenario's entry point
// 4. Record the verdict and read it back
// 5. Compare the verdict and evaluate assertions
func (h *Harness) Run(ctx context.Context, sc *Scenario) (*Result, error) {
	opts := sc.Options.Apply(config.Default())
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	params := opts.Context(h.logger, nil)

	game, err := automaton.Load(sc.Game)
	if err != nil {
		return nil, err
	}
	spec := automaton.ConjoinAll(game.Automata)

	mode := sc.Mode
	if mode == "" {
		mode = ModeOne
	}
	result := NewResult(sc.Name, mode)
	result.Expected, err = solver.ParseVerdict(sc.Expect)
	if err != nil {
		return nil, err
	}

	key := store.Key{Hash: spec.Hash(), Turn: solver.EnvFirst, KMin: params.KMin, K: params.K, KInc: params.KInc}
	switch mode {
	case ModeOne:
		key.Mode = store.ModeOne
		err = h.runOne(ctx, spec, params, result)
	case ModeMany:
		key.Mode = store.ModeMany
		err = h.runMany(ctx, game.Automata, opts, params, result)
	case ModeDual:
		key.Mode, key.Turn = store.ModeDual, solver.SysFirst
		err = h.runDual(ctx, spec, sc.Negation, params, result)
	default:
		err = fmt.Errorf("unknown mode %q", mode)
	}
	if err != nil {
		return nil, err
	}

	if err := h.record(ctx, key, result); err != nil {
		return nil, err
	}

	if result.Verdict != result.Expected {
		result.AddError(fmt.Sprintf("verdict %s, want %s", result.Verdict, result.Expected))
	}
	for _, msg := range EvaluateAssertions(result, sc.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) runOne(ctx context.Context, spec *automaton.Automaton, p solver.Params, r *Result) error {
	res, err := solver.SolveOne(ctx, spec, p)
	if err != nil {
		return err
	}
	r.Verdict, r.K, r.Iterations = res.Verdict, res.K, res.Stats.Iterations
	r.States = spec.NumStates()
	return nil
}

func (h *Harness) runMany(ctx context.Context, auts []*automaton.Automaton, o config.Options, p solver.Params, r *Result) error {
	opts := append(o.SchedulerOptions(), scheduler.WithClock(testutil.NewDeterministicClock()))
	out, err := scheduler.RunMany(ctx, auts, p, opts...)
	if err != nil {
		return err
	}
	r.Verdict, r.K, r.Jobs = out.Verdict, p.K, out.Jobs
	if out.Game != nil {
		r.States = out.Game.Aut.NumStates()
	}
	return nil
}

func (h *Harness) runDual(ctx context.Context, spec *automaton.Automaton, negPath string, p solver.Params, r *Result) error {
	neg, err := automaton.Load(negPath)
	if err != nil {
		return err
	}
	negAut := automaton.ConjoinAll(neg.Automata)

	var one solver.Result
	won, err := race.First(ctx,
		race.Task{Name: "solve", Run: func(ctx context.Context) (solver.Verdict, error) {
			res, err := solver.SolveOne(ctx, spec, p)
			one = res
			return res.Verdict, err
		}},
		race.Task{Name: "dual", Run: func(ctx context.Context) (solver.Verdict, error) {
			res, err := solver.SolveDual(ctx, negAut, p)
			return res.Verdict, err
		}},
	)
	if err != nil {
		return err
	}
	r.Verdict, r.Winner, r.K = won.Verdict, won.Winner, p.K
	r.Iterations = one.Stats.Iterations
	r.States = spec.NumStates()
	return nil
}

// record writes the verdict and reads it back, so every result has been
// through the store.
func (h *Harness) record(ctx context.Context, key store.Key, r *Result) error {
	err := h.store.Record(ctx, store.Record{
		Key:        key,
		Verdict:    r.Verdict,
		KReached:   r.K,
		Iterations: r.Iterations,
		Stats:      solver.Stats{Iterations: r.Iterations},
		RunID:      h.runIDs.Generate(),
		Seq:        h.clock.Next(),
	})
	if err != nil {
		return err
	}
	rec, ok, err := h.store.Lookup(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("verdict for %s not found after recording", r.Scenario)
	}
	r.RunID, r.Seq = rec.RunID, rec.Seq
	return nil
}
