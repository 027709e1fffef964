package letter

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dalzilio/rudd"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalidAlphabet reports a malformed proposition list.
var ErrInvalidAlphabet = errors.New("invalid alphabet")

// Alphabet owns the BDD manager and the proposition table for one query.
//
// Variable indices follow declaration order: inputs first, then outputs.
type Alphabet struct {
	mu      sync.Mutex
	bdd     *rudd.BDD
	names   []string
	index   map[string]int
	inputs  []int
	outputs []int
}

// NewAlphabet creates an alphabet over the given input and output
// propositions. Names are NFC-normalized and must be unique identifiers.
func NewAlphabet(inputs, outputs []string) (*Alphabet, error) {
	a := &Alphabet{index: make(map[string]int, len(inputs)+len(outputs))}

	add := func(raw string) (int, error) {
		name := norm.NFC.String(raw)
		if !isIdent(name) {
			return 0, fmt.Errorf("%w: %q is not an identifier", ErrInvalidAlphabet, raw)
		}
		if isKeyword(name) {
			return 0, fmt.Errorf("%w: %q is reserved", ErrInvalidAlphabet, raw)
		}
		if _, dup := a.index[name]; dup {
			return 0, fmt.Errorf("%w: duplicate proposition %q", ErrInvalidAlphabet, raw)
		}
		idx := len(a.names)
		a.names = append(a.names, name)
		a.index[name] = idx
		return idx, nil
	}

	for _, in := range inputs {
		idx, err := add(in)
		if err != nil {
			return nil, err
		}
		a.inputs = append(a.inputs, idx)
	}
	for _, out := range outputs {
		idx, err := add(out)
		if err != nil {
			return nil, err
		}
		a.outputs = append(a.outputs, idx)
	}

	// rudd rejects a zero-variable manager; a spare variable is never part
	// of any support.
	varnum := len(a.names)
	if varnum == 0 {
		varnum = 1
	}
	bdd, err := rudd.New(varnum)
	if err != nil {
		return nil, fmt.Errorf("create BDD manager: %w", err)
	}
	a.bdd = bdd
	return a, nil
}

// MustAlphabet is NewAlphabet for fixtures; it panics on error.
func MustAlphabet(inputs, outputs []string) *Alphabet {
	a, err := NewAlphabet(inputs, outputs)
	if err != nil {
		panic(err)
	}
	return a
}

// Inputs returns the variable indices of the uncontrollable propositions.
func (a *Alphabet) Inputs() []int { return append([]int(nil), a.inputs...) }

// Outputs returns the variable indices of the controllable propositions.
func (a *Alphabet) Outputs() []int { return append([]int(nil), a.outputs...) }

// InputNames returns the input propositions in declaration order.
func (a *Alphabet) InputNames() []string { return a.namesOf(a.inputs) }

// OutputNames returns the output propositions in declaration order.
func (a *Alphabet) OutputNames() []string { return a.namesOf(a.outputs) }

// Name returns the proposition bound to variable v.
func (a *Alphabet) Name(v int) string { return a.names[v] }

// Lookup returns the variable index of a proposition.
func (a *Alphabet) Lookup(name string) (int, bool) {
	v, ok := a.index[norm.NFC.String(name)]
	return v, ok
}

func (a *Alphabet) namesOf(vars []int) []string {
	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = a.names[v]
	}
	return out
}

// True is the set of all valuations.
func (a *Alphabet) True() Set {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Set{a: a, n: a.bdd.True()}
}

// False is the empty set.
func (a *Alphabet) False() Set {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Set{a: a, n: a.bdd.False()}
}

// Var is the set of valuations where proposition v holds.
func (a *Alphabet) Var(v int) Set {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Set{a: a, n: a.checked(a.bdd.Ithvar(v))}
}

// NVar is the set of valuations where proposition v does not hold.
func (a *Alphabet) NVar(v int) Set {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Set{a: a, n: a.checked(a.bdd.NIthvar(v))}
}

// Prop is Var by proposition name. Unknown names panic.
func (a *Alphabet) Prop(name string) Set {
	v, ok := a.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("letter: unknown proposition %q", name))
	}
	return a.Var(v)
}

// checked panics when rudd signals an internal error through a nil node.
// Callers hold a.mu.
func (a *Alphabet) checked(n rudd.Node) rudd.Node {
	if n == nil {
		panic("letter: BDD operation failed")
	}
	return n
}

// varset builds the rudd variable set for quantification. Callers hold a.mu.
func (a *Alphabet) varset(vars []int) rudd.Node {
	return a.checked(a.bdd.Makeset(vars))
}
