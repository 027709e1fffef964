package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/kbound/internal/config"
	"github.com/roach88/kbound/internal/solver"
)

// Mode selects the entry point a scenario exercises.
type Mode string

const (
	// ModeOne conjoins every automaton of the game and calls SolveOne.
	ModeOne Mode = "one"
	// ModeMany hands the automata to the composition scheduler.
	ModeMany Mode = "many"
	// ModeDual races SolveOne against the dual game of Negation.
	ModeDual Mode = "dual"
)

// Scenario is one realizability check with its expected verdict.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Game is the path of the YAML game file, relative to the scenario
	// file once loaded.
	Game string `yaml:"game"`

	// Negation is the game of the negated specification. Required by
	// ModeDual, ignored otherwise.
	Negation string `yaml:"negation,omitempty"`

	// Mode defaults to ModeOne.
	Mode Mode `yaml:"mode,omitempty"`

	// Options override config.Default.
	Options Options `yaml:"options,omitempty"`

	// Expect is the expected verdict: realizable, unrealizable or unknown.
	Expect string `yaml:"expect"`

	// Assertions check details beyond the verdict.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Options mirrors config.Options; nil fields keep the default.
type Options struct {
	K          *int    `yaml:"k,omitempty"`
	KMin       *int    `yaml:"kmin,omitempty"`
	KInc       *int    `yaml:"kinc,omitempty"`
	Workers    *int    `yaml:"workers,omitempty"`
	Pruning    *bool   `yaml:"pruning,omitempty"`
	Heuristic  *string `yaml:"heuristic,omitempty"`
	Invariants *bool   `yaml:"invariants,omitempty"`
	Downset    *string `yaml:"downset,omitempty"`
	Vectors    *string `yaml:"vectors,omitempty"`
}

func overlay[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Apply overlays the scenario options on base.
func (so Options) Apply(base config.Options) config.Options {
	overlay(&base.K, so.K)
	overlay(&base.KMin, so.KMin)
	overlay(&base.KInc, so.KInc)
	overlay(&base.Workers, so.Workers)
	overlay(&base.Pruning, so.Pruning)
	overlay(&base.Heuristic, so.Heuristic)
	overlay(&base.Invariants, so.Invariants)
	overlay(&base.Downset, so.Downset)
	overlay(&base.Vectors, so.Vectors)
	return base
}

// Assertion checks one property of a Result.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Value is the expected number for k_reached, max_iterations,
	// states and jobs.
	Value int `yaml:"value,omitempty"`

	// Winner is the expected race winner for race_winner.
	Winner string `yaml:"winner,omitempty"`
}

// Assertion type constants.
const (
	// AssertKReached: the bound at which the verdict was reached.
	AssertKReached = "k_reached"
	// AssertMaxIterations: total CPre rounds stay at or below Value.
	AssertMaxIterations = "max_iterations"
	// AssertStates: state count of the final game.
	AssertStates = "states"
	// AssertJobs: jobs run by the scheduler.
	AssertJobs = "jobs"
	// AssertRaceWinner: which contestant answered a dual race.
	AssertRaceWinner = "race_winner"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Game paths are resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Reject unknown fields (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for _, p := range []*string{&scenario.Game, &scenario.Negation} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Game == "" {
		return fmt.Errorf("game is required")
	}
	if _, err := os.Stat(s.Game); err != nil {
		return fmt.Errorf("game file not found: %s", s.Game)
	}

	if s.Mode == "" {
		s.Mode = ModeOne
	}
	switch s.Mode {
	case ModeOne, ModeMany:
	case ModeDual:
		if s.Negation == "" {
			return fmt.Errorf("negation is required for mode %q", s.Mode)
		}
		if _, err := os.Stat(s.Negation); err != nil {
			return fmt.Errorf("negation file not found: %s", s.Negation)
		}
	default:
		return fmt.Errorf("unknown mode %q", s.Mode)
	}

	if _, err := solver.ParseVerdict(s.Expect); err != nil {
		return fmt.Errorf("expect: %w", err)
	}

	if err := s.Options.Apply(config.Default()).Validate(); err != nil {
		return fmt.Errorf("options: %w", err)
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertKReached, AssertMaxIterations, AssertStates, AssertJobs:
		if a.Value < 0 {
			return fmt.Errorf("assertions[%d]: value must be non-negative for %s", index, a.Type)
		}
	case AssertRaceWinner:
		if a.Winner == "" {
			return fmt.Errorf("assertions[%d]: winner is required for race_winner", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
