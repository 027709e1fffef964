package harness

import "github.com/roach88/kbound/internal/solver"

// Result is the outcome of a scenario execution.
type Result struct {
	// Scenario is the name of the scenario that produced this result.
	Scenario string

	// Mode is the entry point that was exercised.
	Mode Mode

	// Pass indicates overall test success: the verdict matched and every
	// assertion held.
	Pass bool

	// Expected and Verdict are the expected and actual answers.
	Expected solver.Verdict
	Verdict  solver.Verdict

	// K is the bound of the last game solved.
	K int

	// Iterations counts CPre rounds across every bound tried.
	Iterations int

	// States is the state count of the final game, 0 when none survived.
	States int

	// Jobs counts scheduler jobs in ModeMany.
	Jobs int64

	// Winner names the race contestant that answered in ModeDual.
	Winner string

	// RunID and Seq identify the verdict record written for this run.
	RunID string
	Seq   int64

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string
}

// NewResult creates a new passing result.
func NewResult(name string, mode Mode) *Result {
	return &Result{
		Scenario: name,
		Mode:     mode,
		Pass:     true,
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
