package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/kbound/internal/automaton"
	"github.com/roach88/kbound/internal/solver"
	"github.com/roach88/kbound/internal/transfer"
)

// EncodeOptions holds flags for the encode command.
type EncodeOptions struct {
	*RootOptions
	Solver SolverFlags
	Solve  bool
}

// EncodeReport is the payload of an encode command.
type EncodeReport struct {
	Output   string `json:"output"`
	Automata int    `json:"automata"`
	Games    int    `json:"games"`
	Bytes    int64  `json:"bytes"`
}

func (r EncodeReport) String() string {
	return fmt.Sprintf("wrote %s: %d automata, %d games, %d bytes", r.Output, r.Automata, r.Games, r.Bytes)
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EncodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "encode <game.yaml> <out.bin>",
		Short: "Write a game file in the binary transfer format",
		Long: `Encode the alphabet and automata of a game file as framed binary
records. With --solve, the conjoined specification is solved at bound k
and its safety game, including the safe region, is appended.

Examples:
  kbound encode game.yaml game.bin
  kbound encode --solve -k 2 game.yaml game.bin`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(opts, args[0], args[1], cmd)
		},
	}

	opts.Solver.register(cmd)
	cmd.Flags().BoolVar(&opts.Solve, "solve", false, "append the solved game of the conjunction")

	return cmd
}

func runEncode(opts *EncodeOptions, gamePath, outPath string, cmd *cobra.Command) error {
	o, err := resolveOptions(opts.RootOptions, cmd, &opts.Solver)
	if err != nil {
		return err
	}
	logger := opts.setupLogging(cmd, o.LogLevel())

	game, err := loadGame(gamePath)
	if err != nil {
		return err
	}
	bundle := &transfer.Bundle{Game: *game}

	if opts.Solve {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		spec := automaton.ConjoinAll(game.Automata)
		p := o.Context(logger, nil)
		g := solver.NewGame(spec, p.K, solver.EnvFirst, p.Vectors)
		if _, err := solver.Solve(ctx, g, p); err != nil {
			return WrapExitError(ExitCommandError, "solve failed", err)
		}
		bundle.Games = append(bundle.Games, g)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create output", err)
	}
	w := bufio.NewWriter(f)
	if err := transfer.WriteBundle(w, bundle); err != nil {
		f.Close()
		return WrapExitError(ExitCommandError, "failed to encode", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	if err := f.Close(); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to stat output", err)
	}
	logger.Info("encoded game", "output", outPath, "bytes", info.Size())

	return opts.formatter(cmd).Success(EncodeReport{
		Output:   outPath,
		Automata: len(bundle.Automata),
		Games:    len(bundle.Games),
		Bytes:    info.Size(),
	})
}

// DecodeOptions holds flags for the decode command.
type DecodeOptions struct {
	*RootOptions
	CheckMarkers bool
}

// AutomatonSummary describes one decoded automaton.
type AutomatonSummary struct {
	Name   string `json:"name"`
	States int    `json:"states"`
	Edges  int    `json:"edges"`
	Hash   string `json:"hash"`
	Dump   string `json:"-"`
}

// GameSummary describes one decoded safety game.
type GameSummary struct {
	Automaton string `json:"automaton"`
	K         int    `json:"k"`
	Turn      string `json:"turn"`
	Solved    bool   `json:"solved"`
	Winning   bool   `json:"winning"`
	Region    int    `json:"region"`
}

// DecodeReport is the payload of a decode command.
type DecodeReport struct {
	Inputs   []string           `json:"inputs"`
	Outputs  []string           `json:"outputs"`
	Automata []AutomatonSummary `json:"automata"`
	Games    []GameSummary      `json:"games"`
}

func (r DecodeReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "inputs %s\noutputs %s\n", strings.Join(r.Inputs, " "), strings.Join(r.Outputs, " "))
	for _, a := range r.Automata {
		fmt.Fprintf(&b, "\n%s", a.Dump)
		fmt.Fprintf(&b, "hash %s\n", a.Hash)
	}
	for _, g := range r.Games {
		fmt.Fprintf(&b, "\ngame %s K=%d %s solved=%t winning=%t region=%d\n",
			g.Automaton, g.K, g.Turn, g.Solved, g.Winning, g.Region)
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decode <in.bin>",
		Short: "Print the content of a binary transfer file",
		Long: `Decode a file written by encode and list its alphabet, automata and
games. With --check-markers, every frame's start and end markers are
verified.

Example:
  kbound decode --check-markers game.bin`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.CheckMarkers, "check-markers", false, "verify frame markers")

	return cmd
}

func runDecode(opts *DecodeOptions, inPath string, cmd *cobra.Command) error {
	opts.setupLogging(cmd, slog.LevelInfo)

	f, err := os.Open(inPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open input", err)
	}
	defer f.Close()

	var decOpts []transfer.Option
	if opts.CheckMarkers {
		decOpts = append(decOpts, transfer.WithMarkerChecks(true))
	}
	bundle, err := transfer.ReadBundle(f, decOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to decode", err)
	}

	report := DecodeReport{
		Inputs:   bundle.Alphabet.InputNames(),
		Outputs:  bundle.Alphabet.OutputNames(),
		Automata: make([]AutomatonSummary, 0, len(bundle.Automata)),
		Games:    make([]GameSummary, 0, len(bundle.Games)),
	}
	for _, a := range bundle.Automata {
		report.Automata = append(report.Automata, AutomatonSummary{
			Name:   a.Name(),
			States: a.NumStates(),
			Edges:  a.NumEdges(),
			Hash:   a.Hash(),
			Dump:   a.Dump(),
		})
	}
	for _, g := range bundle.Games {
		gs := GameSummary{
			Automaton: g.Aut.Name(),
			K:         g.K,
			Turn:      g.Turn.String(),
			Solved:    g.Solved,
			Winning:   g.Winning(),
		}
		if g.Safe != nil {
			gs.Region = g.Safe.Len()
		}
		report.Games = append(report.Games, gs)
	}

	return opts.formatter(cmd).Success(report)
}
