package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kbound/internal/solver"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"verdict": "realizable"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("E_LOAD", "malformed game", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_LOAD", resp.Error.Code)
	assert.Equal(t, "malformed game", resp.Error.Message)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success(SolveReport{Game: "g.yaml", Verdict: "realizable", K: 2, States: 3, Iterations: 4})
	require.NoError(t, err)
	assert.Equal(t, "g.yaml: realizable (K=2, 3 states, 4 iterations)\n", buf.String())
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	err := formatter.Error("E_LOAD", "malformed game", map[string]string{"file": "g.yaml"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E_LOAD]: malformed game")
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, errBuf := &bytes.Buffer{}, &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    buf,
				ErrWriter: errBuf,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("solving %s", "g.yaml")

			assert.Empty(t, buf.String())
			if tt.wantLog {
				assert.Contains(t, errBuf.String(), "solving g.yaml")
			} else {
				assert.Empty(t, errBuf.String())
			}
		})
	}
}

func TestSolveReport_String(t *testing.T) {
	r := SolveReport{Game: "g.yaml", Verdict: "unrealizable", K: 2, States: 2, Winner: "dual"}
	assert.Equal(t, "g.yaml: unrealizable (K=2, 2 states, 0 iterations) by dual", r.String())

	r = SolveReport{Game: "g.yaml", Verdict: "realizable", K: 1, States: 2, Iterations: 3, Cached: true, RunID: "abc"}
	assert.Equal(t, "g.yaml: realizable (K=1, 2 states, 3 iterations) [cached run abc]", r.String())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "x")))
	assert.Equal(t, ExitUnknown, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitUnknown, "x"))))
	assert.Equal(t, ExitCommandError, GetExitCode(errors.New("plain")))
}

func TestWrapExitError(t *testing.T) {
	inner := errors.New("no such file")
	err := WrapExitError(ExitCommandError, "failed to load game", inner)

	assert.Equal(t, "failed to load game: no such file", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestVerdictExit(t *testing.T) {
	assert.NoError(t, verdictExit(solver.Realizable))
	assert.Equal(t, ExitFailure, GetExitCode(verdictExit(solver.Unrealizable)))
	assert.Equal(t, ExitUnknown, GetExitCode(verdictExit(solver.Unknown)))
}
