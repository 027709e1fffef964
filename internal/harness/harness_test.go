package harness

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kbound/internal/config"
	"github.com/roach88/kbound/internal/solver"
	"github.com/roach88/kbound/internal/store"
)

const scenarioDir = "testdata/scenarios"

func loadScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	sc, err := LoadScenario(filepath.Join(scenarioDir, name+".yaml"))
	require.NoError(t, err)
	return sc
}

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	games, err := filepath.Abs("testdata/games")
	require.NoError(t, err)
	body = strings.ReplaceAll(body, "GAMES", games)
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestGoldenScenarios(t *testing.T) {
	for _, name := range []string{
		"response_k1",
		"eventually_r_unrealizable",
		"eventually_r_unknown",
		"dual_eventually_r",
		"many_realizable",
		"many_unrealizable",
	} {
		t.Run(name, func(t *testing.T) {
			sc := loadScenario(t, name)
			result, err := RunWithGolden(t, sc)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestLoadScenario_ResolvesPaths(t *testing.T) {
	sc := loadScenario(t, "dual_eventually_r")

	assert.Equal(t, ModeDual, sc.Mode)
	assert.Equal(t, filepath.Join(scenarioDir, "../games/eventually_r.yaml"), sc.Game)
	assert.Equal(t, filepath.Join(scenarioDir, "../games/never_r.yaml"), sc.Negation)
	require.NotNil(t, sc.Options.KMin)
	assert.Equal(t, 1, *sc.Options.KMin)
}

func TestLoadScenario_DefaultMode(t *testing.T) {
	sc := loadScenario(t, "response_k1")
	assert.Equal(t, ModeOne, sc.Mode)
}

func TestLoadScenario_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "unknown field",
			body: "name: x\ngame: GAMES/response.yaml\nexpect: realizable\nassertion: []\n",
			want: "failed to parse YAML",
		},
		{
			name: "missing name",
			body: "game: GAMES/response.yaml\nexpect: realizable\n",
			want: "name is required",
		},
		{
			name: "missing game",
			body: "name: x\nexpect: realizable\n",
			want: "game is required",
		},
		{
			name: "game not found",
			body: "name: x\ngame: GAMES/absent.yaml\nexpect: realizable\n",
			want: "game file not found",
		},
		{
			name: "dual without negation",
			body: "name: x\ngame: GAMES/response.yaml\nmode: dual\nexpect: realizable\n",
			want: "negation is required",
		},
		{
			name: "unknown mode",
			body: "name: x\ngame: GAMES/response.yaml\nmode: both\nexpect: realizable\n",
			want: "unknown mode",
		},
		{
			name: "bad verdict",
			body: "name: x\ngame: GAMES/response.yaml\nexpect: maybe\n",
			want: "expect:",
		},
		{
			name: "bad options",
			body: "name: x\ngame: GAMES/response.yaml\nexpect: realizable\noptions:\n  k: 0\n",
			want: "options:",
		},
		{
			name: "assertion without type",
			body: "name: x\ngame: GAMES/response.yaml\nexpect: realizable\nassertions:\n  - value: 1\n",
			want: "type is required",
		},
		{
			name: "unknown assertion",
			body: "name: x\ngame: GAMES/response.yaml\nexpect: realizable\nassertions:\n  - type: speed\n",
			want: "unknown assertion type",
		},
		{
			name: "race winner without winner",
			body: "name: x\ngame: GAMES/response.yaml\nexpect: realizable\nassertions:\n  - type: race_winner\n",
			want: "winner is required",
		},
		{
			name: "negative value",
			body: "name: x\ngame: GAMES/response.yaml\nexpect: realizable\nassertions:\n  - type: states\n    value: -1\n",
			want: "non-negative",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestOptions_Apply(t *testing.T) {
	k, workers, heuristic := 5, 4, "frequency"
	pruning := false

	got := Options{K: &k, Workers: &workers, Heuristic: &heuristic, Pruning: &pruning}.Apply(config.Default())

	want := config.Default()
	want.K, want.Workers, want.Heuristic, want.Pruning = 5, 4, "frequency", false
	assert.Equal(t, want, got)
	assert.Equal(t, config.Default(), Options{}.Apply(config.Default()))
}

func TestRun_VerdictMismatch(t *testing.T) {
	sc := loadScenario(t, "response_k1")
	sc.Expect = "unrealizable"

	result, err := Run(context.Background(), sc)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Equal(t, solver.Realizable, result.Verdict)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "verdict realizable, want unrealizable")
}

func TestRun_AssertionFailures(t *testing.T) {
	sc := loadScenario(t, "response_k1")
	sc.Assertions = []Assertion{
		{Type: AssertKReached, Value: 3},
		{Type: AssertStates, Value: 2},
		{Type: AssertMaxIterations, Value: 0},
		{Type: AssertRaceWinner, Winner: "dual"},
	}

	result, err := Run(context.Background(), sc)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "assertions[0] k_reached")
	assert.Contains(t, result.Errors[1], "assertions[2] max_iterations")
	assert.Contains(t, result.Errors[2], "assertions[3] race_winner")
}

func TestRun_RecordsVerdict(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	result, err := New(st).Run(context.Background(), loadScenario(t, "eventually_r_unknown"))
	require.NoError(t, err)

	history, err := st.Run(context.Background(), result.RunID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	rec := history[0]
	assert.Equal(t, solver.Unknown, rec.Verdict)
	assert.Equal(t, store.ModeOne, rec.Key.Mode)
	assert.Equal(t, solver.EnvFirst, rec.Key.Turn)
	assert.Equal(t, 1, rec.Key.KMin)
	assert.Equal(t, 2, rec.Key.K)
	assert.Equal(t, 2, rec.KReached)
	assert.Equal(t, result.Iterations, rec.Iterations)
}

func TestRun_SameKeyKeepsFirstRecord(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()
	h := New(st)

	first, err := h.Run(context.Background(), loadScenario(t, "response_k1"))
	require.NoError(t, err)
	second, err := h.Run(context.Background(), loadScenario(t, "response_k1"))
	require.NoError(t, err)

	assert.Equal(t, first.RunID, second.RunID)
	assert.Equal(t, int64(1), second.Seq)
}

func TestRunDir(t *testing.T) {
	results, err := RunDir(context.Background(), scenarioDir)
	require.NoError(t, err)
	require.Len(t, results, 6)

	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Scenario
		assert.True(t, r.Pass, "%s: %v", r.Scenario, r.Errors)
		assert.Equal(t, int64(i+1), r.Seq, r.Scenario)
	}
	assert.Equal(t, []string{
		"dual_eventually_r",
		"eventually_r_unknown",
		"eventually_r_unrealizable",
		"many_realizable",
		"many_unrealizable",
		"response_k1",
	}, names)
}

func TestRunDir_Empty(t *testing.T) {
	_, err := RunDir(context.Background(), t.TempDir())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReport_IncludesErrors(t *testing.T) {
	r := NewResult("broken", ModeOne)
	r.Expected, r.Verdict = solver.Realizable, solver.Unknown
	r.AddError("verdict unknown, want realizable")

	report, err := Report(r)
	require.NoError(t, err)
	assert.Equal(t,
		`{"errors":["verdict unknown, want realizable"],"expected":"realizable","k":0,"mode":"one","pass":false,"run_id":"","scenario":"broken","seq":0,"states":0,"verdict":"unknown"}`,
		string(report))
}
