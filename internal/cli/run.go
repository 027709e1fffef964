package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/kbound/internal/letter"
	"github.com/roach88/kbound/internal/scheduler"
	"github.com/roach88/kbound/internal/solver"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Solver  SolverFlags
	Metrics bool
}

// RunReport is the payload of a run command.
type RunReport struct {
	Game      string `json:"game"`
	Verdict   string `json:"verdict"`
	K         int    `json:"k"`
	Automata  int    `json:"automata"`
	Jobs      int64  `json:"jobs"`
	States    int    `json:"states"`
	Invariant string `json:"invariant,omitempty"`
}

func (r RunReport) String() string {
	s := fmt.Sprintf("%s: %s (K=%d, %d automata, %d jobs, %d states in final game)",
		r.Game, r.Verdict, r.K, r.Automata, r.Jobs, r.States)
	if r.Invariant != "" {
		s += "\ninvariant: " + r.Invariant
	}
	return s
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <game.yaml>",
		Short: "Solve the automata of a game with the composition scheduler",
		Long: `Solve every automaton of a game file as its own safety game on a pool
of workers, merging winning regions pairwise until one game remains.
Automata of the form G(c) restrict the letters of every other game
instead of being solved.

The first losing automaton settles the query as unrealizable and stops
the remaining work. Interrupting the command cancels outstanding jobs.

Example:
  kbound run -j 4 -k 3 game.yaml
  kbound run --metrics game.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScheduler(opts, args[0], cmd)
		},
	}

	opts.Solver.register(cmd)
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print solver and scheduler metrics to stderr")

	return cmd
}

func runScheduler(opts *RunOptions, gamePath string, cmd *cobra.Command) error {
	o, err := resolveOptions(opts.RootOptions, cmd, &opts.Solver)
	if err != nil {
		return err
	}
	logger := opts.setupLogging(cmd, o.LogLevel())

	game, err := loadGame(gamePath)
	if err != nil {
		return err
	}

	var reg *prometheus.Registry
	var solverMetrics *solver.Metrics
	schedOpts := o.SchedulerOptions()
	if opts.Metrics {
		reg = prometheus.NewRegistry()
		solverMetrics = solver.NewMetrics(reg)
		schedOpts = append(schedOpts, scheduler.WithMetrics(scheduler.NewMetrics(reg)))
	}
	params := o.Context(logger, solverMetrics)

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	logger.Info("loaded game", "game", gamePath, "automata", len(game.Automata))
	out, err := scheduler.RunMany(ctx, game.Automata, params, schedOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "scheduler failed", err)
	}

	report := RunReport{
		Game:     gamePath,
		Verdict:  out.Verdict.String(),
		K:        params.K,
		Automata: len(game.Automata),
		Jobs:     out.Jobs,
	}
	if out.Game != nil {
		report.States = out.Game.Aut.NumStates()
	}
	if !out.Invariant.IsTrue() {
		report.Invariant = letter.Format(out.Invariant)
	}

	if err := opts.formatter(cmd).Success(report); err != nil {
		return err
	}
	if reg != nil {
		if err := writeMetrics(cmd.ErrOrStderr(), reg); err != nil {
			return WrapExitError(ExitCommandError, "failed to gather metrics", err)
		}
	}
	return verdictExit(out.Verdict)
}

// writeMetrics prints one line per sample of the counters, gauges and
// histogram counts gathered from reg.
func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			sort.Strings(labels)
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			switch {
			case m.GetCounter() != nil:
				fmt.Fprintf(w, "%s %g\n", name, m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				fmt.Fprintf(w, "%s %g\n", name, m.GetGauge().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				fmt.Fprintf(w, "%s_count %d\n%s_sum %g\n", name, h.GetSampleCount(), name, h.GetSampleSum())
			}
		}
	}
	return nil
}
