package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/kbound/internal/automaton"
	"github.com/roach88/kbound/internal/config"
	"github.com/roach88/kbound/internal/letter"
)

// SolverFlags are the per-command overrides of config.Options. Only flags
// set on the command line are applied.
type SolverFlags struct {
	K            int
	KMin         int
	KInc         int
	Workers      int
	Heuristic    string
	Downset      string
	Vectors      string
	NoPruning    bool
	NoInvariants bool
}

func (f *SolverFlags) register(cmd *cobra.Command) {
	d := config.Default()
	fs := cmd.Flags()
	fs.IntVarP(&f.K, "k", "k", d.K, "bound on visits to accepting states")
	fs.IntVar(&f.KMin, "kmin", d.KMin, "first bound tried (0 means k)")
	fs.IntVar(&f.KInc, "kinc", d.KInc, "bound increment")
	fs.IntVarP(&f.Workers, "workers", "j", d.Workers, "scheduler workers")
	fs.StringVar(&f.Heuristic, "heuristic", d.Heuristic, "critical-input heuristic (first|frequency)")
	fs.StringVar(&f.Downset, "downset", d.Downset, "antichain backend (auto|flat|bucketed)")
	fs.StringVar(&f.Vectors, "vectors", d.Vectors, "vector encoding (auto|dense|packed|lanes)")
	fs.BoolVar(&f.NoPruning, "no-pruning", false, "disable critical-input pruning")
	fs.BoolVar(&f.NoInvariants, "no-invariants", false, "disable the invariant short-circuit")
}

// apply overlays the flags the user set on o.
func (f *SolverFlags) apply(cmd *cobra.Command, o config.Options) config.Options {
	fs := cmd.Flags()
	if fs.Changed("k") {
		o.K = f.K
	}
	if fs.Changed("kmin") {
		o.KMin = f.KMin
	}
	if fs.Changed("kinc") {
		o.KInc = f.KInc
	}
	if fs.Changed("workers") {
		o.Workers = f.Workers
	}
	if fs.Changed("heuristic") {
		o.Heuristic = f.Heuristic
	}
	if fs.Changed("downset") {
		o.Downset = f.Downset
	}
	if fs.Changed("vectors") {
		o.Vectors = f.Vectors
	}
	if f.NoPruning {
		o.Pruning = false
	}
	if f.NoInvariants {
		o.Invariants = false
	}
	return o
}

// resolveOptions layers defaults, the --config file, the environment and
// the command's flags, then validates.
func resolveOptions(root *RootOptions, cmd *cobra.Command, flags *SolverFlags) (config.Options, error) {
	o := config.Default()
	var err error
	if root.Config != "" {
		if o, err = o.WithFile(root.Config); err != nil {
			return o, WrapExitError(ExitCommandError, "failed to load config", err)
		}
	}
	if o, err = o.WithEnv(root.environ()); err != nil {
		return o, WrapExitError(ExitCommandError, "failed to read environment", err)
	}
	if flags != nil {
		o = flags.apply(cmd, o)
	}
	o.Verbose = o.Verbose || root.Verbose
	if err := o.Validate(); err != nil {
		return o, WrapExitError(ExitCommandError, "invalid options", err)
	}
	return o, nil
}

// loadGame loads a game file, reporting bad proposition lists as
// configuration errors.
func loadGame(path string) (*automaton.Game, error) {
	g, err := automaton.Load(path)
	if err != nil {
		if errors.Is(err, letter.ErrInvalidAlphabet) {
			err = config.AlphabetError(err)
		}
		return nil, WrapExitError(ExitCommandError, "failed to load game", err)
	}
	return g, nil
}
