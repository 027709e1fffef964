package automaton

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kbound/internal/letter"
)

func rg() *letter.Alphabet { return letter.MustAlphabet([]string{"r"}, []string{"g"}) }

// branch: 0 -r-> 1 (accepting, loops), 0 -!r-> 2 (safe sink).
func branch(alpha *letter.Alphabet) *Automaton {
	return NewBuilder(alpha, 3).Name("branch").
		Initial(0).
		Accepting(1).
		EdgeText(0, 1, "r").
		EdgeText(0, 2, "!r").
		EdgeText(1, 1, "true").
		EdgeText(2, 2, "true").
		Build()
}

func response(alpha *letter.Alphabet) *Automaton {
	return NewBuilder(alpha, 2).Name("response").
		Initial(0).
		Accepting(1).
		EdgeText(0, 0, "!r | g").
		EdgeText(0, 1, "r & !g").
		EdgeText(1, 1, "!g").
		EdgeText(1, 0, "g").
		Build()
}

func TestBuilder_Basics(t *testing.T) {
	a := branch(rg())

	assert.Equal(t, 3, a.NumStates())
	assert.Equal(t, 4, a.NumEdges())
	assert.Equal(t, 1, a.NumAccepting())
	assert.Equal(t, 0, a.Initial())
	assert.True(t, a.IsAccepting(1))
	assert.False(t, a.IsAccepting(2))
	assert.Len(t, a.Out(0), 2)
}

func TestBuilder_DropsEmptyEdges(t *testing.T) {
	alpha := rg()
	a := NewBuilder(alpha, 1).Edge(0, 0, alpha.False()).Edge(0, 0, alpha.True()).Build()
	assert.Equal(t, 1, a.NumEdges())
}

func TestBuilder_PanicsOutOfRange(t *testing.T) {
	alpha := rg()
	assert.Panics(t, func() { NewBuilder(alpha, 2).Edge(0, 2, alpha.True()) })
	assert.Panics(t, func() { NewBuilder(alpha, 2).Initial(-1) })
	assert.Panics(t, func() { NewBuilder(alpha, 0) })
}

func TestMaxCount_AndSeed(t *testing.T) {
	a := branch(rg())

	assert.Equal(t, 0, a.MaxCount(0))
	assert.Equal(t, 2, a.MaxCount(1), "accepting self-loop saturates at NumAccepting+1")
	assert.Equal(t, 0, a.MaxCount(2))

	assert.True(t, a.Pumpable(1))
	assert.False(t, a.Pumpable(2))
	assert.True(t, a.IsBoolean(0))
	assert.False(t, a.IsBoolean(1))
	assert.Equal(t, 2, a.BoolStart())

	assert.Equal(t, []int8{0, 2, 0}, a.Seed(3))
	assert.Equal(t, []int8{0, 0, 0}, a.Seed(1))
}

func TestMaxCount_Unreachable(t *testing.T) {
	alpha := rg()
	a := NewBuilder(alpha, 2).Initial(0).EdgeText(0, 0, "true").EdgeText(1, 1, "true").Build()
	assert.Equal(t, -1, a.MaxCount(1))
	assert.Equal(t, []int8{0, -1}, a.Seed(4))
}

func TestMaxCount_AcyclicChain(t *testing.T) {
	// 0 -> 1 (acc) -> 2 (acc) -> 3 loops: counts 0,1,2,2 and nothing pumps.
	alpha := rg()
	a := NewBuilder(alpha, 4).Initial(0).Accepting(1, 2).
		EdgeText(0, 1, "true").
		EdgeText(1, 2, "true").
		EdgeText(2, 3, "true").
		EdgeText(3, 3, "true").
		Build()
	assert.Equal(t, []int{0, 1, 2, 2}, []int{a.MaxCount(0), a.MaxCount(1), a.MaxCount(2), a.MaxCount(3)})
	assert.False(t, a.Pumpable(3))
	assert.Equal(t, []int8{0, 1, 1, 1}, a.Seed(2))
}

func TestReorder(t *testing.T) {
	a := branch(rg())
	b, perm := a.Reorder()

	assert.Equal(t, []int{1, 0, 2}, perm)
	assert.Equal(t, 1, b.BoolStart())
	assert.Equal(t, perm[a.Initial()], b.Initial())
	for s := 0; s < a.NumStates(); s++ {
		assert.Equal(t, a.IsAccepting(s), b.IsAccepting(perm[s]))
		assert.Equal(t, a.MaxCount(s), b.MaxCount(perm[s]))
		assert.Equal(t, len(a.Out(s)), len(b.Out(perm[s])))
	}
	for s := b.BoolStart(); s < b.NumStates(); s++ {
		assert.True(t, b.IsBoolean(s))
	}
}

func TestConjoin(t *testing.T) {
	alpha := rg()
	left, right := branch(alpha), response(alpha)
	p, r := Conjoin(left, right)

	require.Equal(t, left.NumStates()+right.NumStates()+1, p.NumStates())
	assert.Equal(t, r.Init, p.Initial())
	assert.False(t, p.IsAccepting(r.Init))
	assert.Len(t, p.Out(r.Init), len(left.Out(left.Initial()))+len(right.Out(right.Initial())))

	seen := map[int]bool{r.Init: true}
	for s, ps := range r.Left {
		assert.Equal(t, left.IsAccepting(s), p.IsAccepting(ps))
		seen[ps] = true
	}
	for s, ps := range r.Right {
		assert.Equal(t, right.IsAccepting(s), p.IsAccepting(ps))
		seen[ps] = true
	}
	assert.Len(t, seen, p.NumStates(), "renaming must be a bijection")

	for s := 0; s < p.BoolStart(); s++ {
		assert.False(t, p.IsBoolean(s), "state %d before BoolStart", s)
	}
	for s := p.BoolStart(); s < p.NumStates(); s++ {
		assert.True(t, p.IsBoolean(s), "state %d after BoolStart", s)
	}
}

func TestConjoin_ForeignAlphabetPanics(t *testing.T) {
	assert.Panics(t, func() { Conjoin(branch(rg()), branch(rg())) })
}

func TestConjoinAll(t *testing.T) {
	alpha := rg()
	p := ConjoinAll([]*Automaton{branch(alpha), response(alpha), branch(alpha)})
	assert.Equal(t, 3+2+1+3+1, p.NumStates())
	assert.Same(t, branch(alpha).Alphabet(), p.Alphabet())
}

func TestInvariantLetter(t *testing.T) {
	alpha := rg()
	c := alpha.MustParse("!r | g")

	got, ok := Invariant(alpha, c).InvariantLetter()
	require.True(t, ok)
	assert.True(t, got.Equal(c))

	_, ok = response(alpha).InvariantLetter()
	assert.False(t, ok, "sink must be absorbing on true")

	_, ok = branch(alpha).InvariantLetter()
	assert.False(t, ok)

	// Leaving edge not the exact complement.
	odd := NewBuilder(alpha, 2).Initial(0).Accepting(1).
		Edge(0, 0, c).
		EdgeText(0, 1, "r").
		EdgeText(1, 1, "true").
		Build()
	_, ok = odd.InvariantLetter()
	assert.False(t, ok)
}

func TestHash(t *testing.T) {
	alpha := rg()
	a, b := response(alpha), response(alpha)
	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), branch(alpha).Hash())

	// Identity does not depend on the BDD manager.
	other := response(rg())
	assert.Equal(t, a.Hash(), other.Hash())
}

func TestDump_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "response_dump", []byte(response(rg()).Dump()))
}

func TestParse_GameFile(t *testing.T) {
	src := `
inputs: [r]
outputs: [g]
automata:
  - name: response
    states: 2
    initial: 0
    accepting: [1]
    edges:
      - {from: 0, to: 0, cond: "!r | g"}
      - {from: 0, to: 1, cond: "r & !g"}
      - {from: 1, to: 1, cond: "!g"}
      - {from: 1, to: 0, cond: "g"}
  - states: 1
    edges:
      - {from: 0, to: 0}
`
	g, err := Parse([]byte(src), "inline")
	require.NoError(t, err)
	require.Len(t, g.Automata, 2)

	assert.Equal(t, "response", g.Automata[0].Name())
	assert.Equal(t, "automaton1", g.Automata[1].Name())
	assert.Equal(t, response(rg()).Hash(), g.Automata[0].Hash())
	assert.True(t, g.Automata[1].Out(0)[0].Cond.IsTrue())
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"bad yaml":      "inputs: [",
		"unknown field": "inputs: []\nbogus: 1\n",
		"no automata":   "inputs: [r]\noutputs: [g]\n",
		"dup prop":      "inputs: [r]\noutputs: [r]\nautomata: [{states: 1}]\n",
		"edge range":    "inputs: [r]\nautomata: [{states: 1, edges: [{from: 0, to: 3}]}]\n",
		"initial range": "inputs: [r]\nautomata: [{states: 1, initial: 1}]\n",
		"no states":     "inputs: [r]\nautomata: [{states: 0}]\n",
		"bad formula":   "inputs: [r]\nautomata: [{states: 1, edges: [{from: 0, to: 0, cond: \"r &\"}]}]\n",
		"unknown prop":  "inputs: [r]\nautomata: [{states: 1, edges: [{from: 0, to: 0, cond: \"x\"}]}]\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src), name)
			require.Error(t, err)
			assert.True(t, IsLoadError(err))
		})
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "g.yaml")
	require.NoError(t, os.WriteFile(path, []byte("inputs: []\noutputs: [g]\nautomata: [{states: 1, edges: [{from: 0, to: 0, cond: g}]}]\n"), 0o644))

	g, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"g"}, g.Alphabet.OutputNames())

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.True(t, IsLoadError(err))
}
