package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/kbound/internal/canon"
)

// toCanonicalMap is the report view of a Result. Fields that depend on
// scheduling order are left out.
func (r *Result) toCanonicalMap() map[string]any {
	m := map[string]any{
		"scenario": r.Scenario,
		"mode":     string(r.Mode),
		"expected": r.Expected.String(),
		"verdict":  r.Verdict.String(),
		"pass":     r.Pass,
		"k":        r.K,
		"states":   r.States,
		"run_id":   r.RunID,
		"seq":      r.Seq,
	}
	if r.Mode == ModeMany {
		m["jobs"] = r.Jobs
	}
	if r.Winner != "" {
		m["winner"] = r.Winner
	}
	if len(r.Errors) > 0 {
		errs := make([]any, len(r.Errors))
		for i, e := range r.Errors {
			errs[i] = e
		}
		m["errors"] = errs
	}
	return m
}

// Report renders r as canonical JSON.
func Report(r *Result) ([]byte, error) {
	return canon.Marshal(r.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its report against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result's report against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	report, err := Report(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, report)

	return nil
}
