package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kbound/internal/automaton"
)

func decodeReport(t *testing.T, out string) DecodeReport {
	t.Helper()
	var resp struct {
		Status string       `json:"status"`
		Data   DecodeReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "grant.bin")

	out, _, err := execute(NewEncodeCommand(newRoot("text", nil)), game("grant"), bin)
	require.NoError(t, err)
	assert.Contains(t, out, "3 automata, 0 games")

	out, _, err = execute(NewDecodeCommand(newRoot("json", nil)), "--check-markers", bin)
	require.NoError(t, err)
	r := decodeReport(t, out)

	src, err := automaton.Load(game("grant"))
	require.NoError(t, err)
	assert.Equal(t, []string{"r"}, r.Inputs)
	assert.Equal(t, []string{"g"}, r.Outputs)
	require.Len(t, r.Automata, 3)
	for i, a := range src.Automata {
		assert.Equal(t, a.Name(), r.Automata[i].Name)
		assert.Equal(t, a.NumStates(), r.Automata[i].States)
		assert.Equal(t, a.NumEdges(), r.Automata[i].Edges)
		assert.Equal(t, a.Hash(), r.Automata[i].Hash)
	}
	assert.Empty(t, r.Games)
}

func TestEncodeDecode_SolvedGame(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "response.bin")

	out, _, err := execute(NewEncodeCommand(newRoot("json", nil)), "--solve", "-k", "1", game("response"), bin)
	require.NoError(t, err)
	var resp struct {
		Data EncodeReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Data.Games)
	info, err := os.Stat(bin)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), resp.Data.Bytes)

	out, _, err = execute(NewDecodeCommand(newRoot("json", nil)), bin)
	require.NoError(t, err)
	r := decodeReport(t, out)
	require.Len(t, r.Games, 1)
	g := r.Games[0]
	assert.Equal(t, "response", g.Automaton)
	assert.Equal(t, 1, g.K)
	assert.Equal(t, "env-first", g.Turn)
	assert.True(t, g.Solved)
	assert.True(t, g.Winning)
	assert.Positive(t, g.Region)
}

func TestDecode_Text(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "response.bin")
	_, _, err := execute(NewEncodeCommand(newRoot("text", nil)), game("response"), bin)
	require.NoError(t, err)

	out, _, err := execute(NewDecodeCommand(newRoot("text", nil)), bin)
	require.NoError(t, err)
	assert.Contains(t, out, "inputs r\noutputs g\n")
	assert.Contains(t, out, "automaton response\n")
	assert.Contains(t, out, "hash ")
}

func TestDecode_Errors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.bin")
	require.NoError(t, os.WriteFile(garbage, []byte("not a transfer stream"), 0o644))

	_, _, err := execute(NewDecodeCommand(newRoot("text", nil)), garbage)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to decode")

	_, _, err = execute(NewDecodeCommand(newRoot("text", nil)), filepath.Join(dir, "absent.bin"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open input")
}

func TestEncode_Errors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := execute(NewEncodeCommand(newRoot("text", nil)), game("absent"), filepath.Join(dir, "out.bin"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = execute(NewEncodeCommand(newRoot("text", nil)), game("response"), filepath.Join(dir, "missing", "out.bin"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create output")
}
