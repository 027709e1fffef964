package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestCommandMissingArgs(t *testing.T) {
	_, _, err := execute(NewTestCommand(newRoot("text", nil)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, _, err := execute(NewTestCommand(newRoot("text", nil)), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarios directory not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, _, err := execute(NewTestCommand(newRoot("text", nil)), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, _, err := execute(NewTestCommand(newRoot("json", nil)), t.TempDir())
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestTestCommandAllPass(t *testing.T) {
	out, _, err := execute(NewTestCommand(newRoot("text", nil)), "--golden", goldenDir, scenariosDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ response_k1")
	assert.Contains(t, out, "✓ dual_eventually_r")
	assert.Contains(t, out, "Test Summary: 6 passed, 0 failed, 6 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFilterJSON(t *testing.T) {
	out, _, err := execute(NewTestCommand(newRoot("json", nil)), "--golden", goldenDir, "--filter", "many_*", scenariosDir)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 2, resp.Data.Passed)
	require.Len(t, resp.Data.Scenarios, 2)
	assert.Equal(t, "many_realizable", resp.Data.Scenarios[0].Name)
	assert.Equal(t, "realizable", resp.Data.Scenarios[0].Verdict)
	assert.Equal(t, "many_unrealizable", resp.Data.Scenarios[1].Name)
}

func TestTestCommandInvalidFilter(t *testing.T) {
	_, _, err := execute(NewTestCommand(newRoot("text", nil)), "--filter", "[", scenariosDir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

// copyScenario writes a scenario into dir, pointing at the shared games.
func copyScenario(t *testing.T, dir, name, body string) {
	t.Helper()
	games, err := filepath.Abs(gamesDir)
	require.NoError(t, err)
	body = "game: " + filepath.Join(games, "response.yaml") + "\n" + body
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(body), 0o644))
}

func TestTestCommandFailure(t *testing.T) {
	dir := t.TempDir()
	copyScenario(t, dir, "wrong", "name: wrong\noptions:\n  k: 1\nexpect: unrealizable\n")

	out, _, err := execute(NewTestCommand(newRoot("text", nil)), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong")
	assert.Contains(t, out, "verdict realizable, want unrealizable")
	assert.Contains(t, out, "Test Summary: 0 passed, 1 failed, 1 total")
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: [\n"), 0o644))

	out, _, err := execute(NewTestCommand(newRoot("text", nil)), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandUpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	copyScenario(t, dir, "resp", "name: resp\noptions:\n  k: 1\nexpect: realizable\n")

	out, _, err := execute(NewTestCommand(newRoot("text", nil)), "--update", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ resp (golden updated)")

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "resp.golden"))
	require.NoError(t, err)
	assert.Equal(t,
		`{"expected":"realizable","k":1,"mode":"one","pass":true,"run_id":"00000000-0000-7000-8000-000000000001","scenario":"resp","seq":1,"states":2,"verdict":"realizable"}`,
		string(golden))

	_, _, err = execute(NewTestCommand(newRoot("text", nil)), dir)
	require.NoError(t, err)

	// A stale golden fails the comparison.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "resp.golden"), []byte("{}"), 0o644))
	out, _, err = execute(NewTestCommand(newRoot("text", nil)), dir)
	require.Error(t, err)
	assert.Contains(t, out, "report does not match golden file")
}
