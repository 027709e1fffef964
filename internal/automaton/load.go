package automaton

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/kbound/internal/letter"
)

// LoadError reports a malformed game file.
type LoadError struct {
	Source  string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsLoadError reports whether err came from loading a game file.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// Game is the content of a game file: one alphabet and the automata whose
// conjunction is the specification.
type Game struct {
	Alphabet *letter.Alphabet
	Automata []*Automaton
}

type gameDoc struct {
	Inputs   []string       `yaml:"inputs"`
	Outputs  []string       `yaml:"outputs"`
	Automata []automatonDoc `yaml:"automata"`
}

type automatonDoc struct {
	Name      string    `yaml:"name"`
	States    int       `yaml:"states"`
	Initial   int       `yaml:"initial"`
	Accepting []int     `yaml:"accepting"`
	Edges     []edgeDoc `yaml:"edges"`
}

type edgeDoc struct {
	From int    `yaml:"from"`
	To   int    `yaml:"to"`
	Cond string `yaml:"cond"`
}

// Load reads and validates a YAML game file.
func Load(path string) (*Game, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Source: path, Message: "reading game file", Err: err}
	}
	return Parse(data, path)
}

// Parse decodes a YAML game document. source names it in errors.
func Parse(data []byte, source string) (*Game, error) {
	var doc gameDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, &LoadError{Source: source, Message: "decoding YAML", Err: err}
	}

	alpha, err := letter.NewAlphabet(doc.Inputs, doc.Outputs)
	if err != nil {
		return nil, &LoadError{Source: source, Message: "building alphabet", Err: err}
	}
	if len(doc.Automata) == 0 {
		return nil, &LoadError{Source: source, Message: "no automata"}
	}

	g := &Game{Alphabet: alpha}
	for i, ad := range doc.Automata {
		name := ad.Name
		if name == "" {
			name = fmt.Sprintf("automaton%d", i)
		}
		aut, err := buildDoc(alpha, name, ad)
		if err != nil {
			return nil, &LoadError{Source: source, Message: fmt.Sprintf("automaton %q", name), Err: err}
		}
		g.Automata = append(g.Automata, aut)
	}
	return g, nil
}

// buildDoc validates a document before handing it to Builder, whose range
// checks panic.
func buildDoc(alpha *letter.Alphabet, name string, ad automatonDoc) (*Automaton, error) {
	if ad.States < 1 {
		return nil, fmt.Errorf("states must be positive, got %d", ad.States)
	}
	inRange := func(s int) bool { return s >= 0 && s < ad.States }

	if !inRange(ad.Initial) {
		return nil, fmt.Errorf("initial state %d out of range", ad.Initial)
	}
	b := NewBuilder(alpha, ad.States).Name(name).Initial(ad.Initial)
	for _, s := range ad.Accepting {
		if !inRange(s) {
			return nil, fmt.Errorf("accepting state %d out of range", s)
		}
		b.Accepting(s)
	}
	for j, e := range ad.Edges {
		if !inRange(e.From) || !inRange(e.To) {
			return nil, fmt.Errorf("edge %d: %d -> %d out of range", j, e.From, e.To)
		}
		cond := e.Cond
		if cond == "" {
			cond = "true"
		}
		set, err := alpha.Parse(cond)
		if err != nil {
			return nil, fmt.Errorf("edge %d: %w", j, err)
		}
		b.Edge(e.From, e.To, set)
	}
	return b.Build(), nil
}
