package harness

import "fmt"

// EvaluateAssertions checks every assertion against r and returns one
// message per failure.
func EvaluateAssertions(r *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if msg := evaluate(r, a); msg != "" {
			errs = append(errs, fmt.Sprintf("assertions[%d] %s: %s", i, a.Type, msg))
		}
	}
	return errs
}

func evaluate(r *Result, a Assertion) string {
	switch a.Type {
	case AssertKReached:
		if r.K != a.Value {
			return fmt.Sprintf("reached K=%d, want %d", r.K, a.Value)
		}
	case AssertMaxIterations:
		if r.Iterations > a.Value {
			return fmt.Sprintf("%d iterations, want at most %d", r.Iterations, a.Value)
		}
	case AssertStates:
		if r.States != a.Value {
			return fmt.Sprintf("final game has %d states, want %d", r.States, a.Value)
		}
	case AssertJobs:
		if r.Jobs != int64(a.Value) {
			return fmt.Sprintf("%d jobs, want %d", r.Jobs, a.Value)
		}
	case AssertRaceWinner:
		if r.Winner != a.Winner {
			return fmt.Sprintf("winner %q, want %q", r.Winner, a.Winner)
		}
	default:
		return "unknown assertion type"
	}
	return ""
}
