package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/kbound/internal/automaton"
	"github.com/roach88/kbound/internal/race"
	"github.com/roach88/kbound/internal/solver"
	"github.com/roach88/kbound/internal/store"
)

// SolveOptions holds flags for the solve command.
type SolveOptions struct {
	*RootOptions
	Solver   SolverFlags
	Dual     string
	Database string

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs store.RunIDGenerator
}

// SolveReport is the payload of a solve command.
type SolveReport struct {
	Game       string `json:"game"`
	Verdict    string `json:"verdict"`
	K          int    `json:"k"`
	States     int    `json:"states"`
	Iterations int    `json:"iterations"`
	Winner     string `json:"winner,omitempty"`
	Cached     bool   `json:"cached,omitempty"`
	RunID      string `json:"run_id,omitempty"`
}

func (r SolveReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s (K=%d, %d states, %d iterations)", r.Game, r.Verdict, r.K, r.States, r.Iterations)
	if r.Winner != "" {
		fmt.Fprintf(&b, " by %s", r.Winner)
	}
	if r.Cached {
		fmt.Fprintf(&b, " [cached run %s]", r.RunID)
	}
	return b.String()
}

// NewSolveCommand creates the solve command.
func NewSolveCommand(rootOpts *RootOptions) *cobra.Command {
	return newSolveCommandWith(&SolveOptions{RootOptions: rootOpts})
}

func newSolveCommandWith(opts *SolveOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve <game.yaml>",
		Short: "Decide realizability of the conjoined automata",
		Long: `Conjoin every automaton of a game file and solve the resulting safety
game, trying bounds kmin, kmin+kinc, ... up to k.

With --dual, the game of the negated specification is solved at bound k
with the environment as controller, racing the direct solve. The first
definite answer wins.

With --db, verdicts are memoized in a SQLite database keyed by the
automaton hash and the bound range.

Exit codes:
  0 - realizable
  1 - unrealizable
  2 - unknown within the bound
  3 - command error

Examples:
  kbound solve game.yaml
  kbound solve -k 4 --kmin 1 game.yaml
  kbound solve --dual negation.yaml game.yaml
  kbound solve --db ./verdicts.db --format json game.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(opts, args[0], cmd)
		},
	}

	opts.Solver.register(cmd)
	cmd.Flags().StringVar(&opts.Dual, "dual", "", "game file of the negated specification")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite verdict database")

	return cmd
}

func runSolve(opts *SolveOptions, gamePath string, cmd *cobra.Command) error {
	o, err := resolveOptions(opts.RootOptions, cmd, &opts.Solver)
	if err != nil {
		return err
	}
	logger := opts.setupLogging(cmd, o.LogLevel())
	params := o.Context(logger, nil)

	game, err := loadGame(gamePath)
	if err != nil {
		return err
	}
	spec := automaton.ConjoinAll(game.Automata)

	var neg *automaton.Automaton
	key := store.Key{Hash: spec.Hash(), Mode: store.ModeOne, Turn: solver.EnvFirst, KMin: params.KMin, K: params.K, KInc: params.KInc}
	if opts.Dual != "" {
		ng, err := loadGame(opts.Dual)
		if err != nil {
			return err
		}
		neg = automaton.ConjoinAll(ng.Automata)
		key.Mode, key.Turn = store.ModeDual, solver.SysFirst
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var st *store.Store
	if opts.Database != "" {
		logger.Info("opening database", "path", opts.Database)
		if st, err = store.Open(opts.Database); err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()

		rec, ok, err := st.Lookup(ctx, key)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read database", err)
		}
		if ok {
			logger.Info("verdict found in database", "run_id", rec.RunID, "verdict", rec.Verdict.String())
			report := SolveReport{
				Game:       gamePath,
				Verdict:    rec.Verdict.String(),
				K:          rec.KReached,
				States:     spec.NumStates(),
				Iterations: rec.Iterations,
				Cached:     true,
				RunID:      rec.RunID,
			}
			if err := opts.formatter(cmd).Success(report); err != nil {
				return err
			}
			return verdictExit(rec.Verdict)
		}
	}

	logger.Info("solving", "game", gamePath, "states", spec.NumStates(), "k", params.K, "kmin", params.KMin)
	report := SolveReport{Game: gamePath, States: spec.NumStates()}
	var verdict solver.Verdict
	var stats solver.Stats
	if neg == nil {
		res, err := solver.SolveOne(ctx, spec, params)
		if err != nil {
			return WrapExitError(ExitCommandError, "solve failed", err)
		}
		verdict, report.K, stats = res.Verdict, res.K, res.Stats
	} else {
		var one solver.Result
		won, err := race.First(ctx,
			race.Task{Name: "solve", Run: func(ctx context.Context) (solver.Verdict, error) {
				res, err := solver.SolveOne(ctx, spec, params)
				one = res
				return res.Verdict, err
			}},
			race.Task{Name: "dual", Run: func(ctx context.Context) (solver.Verdict, error) {
				res, err := solver.SolveDual(ctx, neg, params)
				return res.Verdict, err
			}},
		)
		if err != nil {
			return WrapExitError(ExitCommandError, "solve failed", err)
		}
		verdict, report.K, report.Winner = won.Verdict, params.K, won.Winner
		if won.Winner == "solve" {
			report.K, stats = one.K, one.Stats
		}
	}
	report.Verdict, report.Iterations = verdict.String(), stats.Iterations

	if st != nil {
		runIDs := opts.RunIDs
		if runIDs == nil {
			runIDs = store.UUIDv7Generator{}
		}
		report.RunID = runIDs.Generate()
		err := st.Record(ctx, store.Record{
			Key:        key,
			Verdict:    verdict,
			KReached:   report.K,
			Iterations: stats.Iterations,
			Stats:      stats,
			RunID:      report.RunID,
		})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to record verdict", err)
		}
	}

	if err := opts.formatter(cmd).Success(report); err != nil {
		return err
	}
	return verdictExit(verdict)
}
