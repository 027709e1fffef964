package transfer

import (
	"errors"
	"fmt"
	"io"

	"github.com/roach88/kbound/internal/automaton"
	"github.com/roach88/kbound/internal/solver"
)

// Bundle is the content of a stream: the alphabet header followed by any
// mix of automata and games.
type Bundle struct {
	automaton.Game
	Games []*solver.SafetyGame
}

// WriteBundle writes a header, the automata of b, then its games.
func WriteBundle(w io.Writer, b *Bundle) error {
	e := NewEncoder(w)
	if err := e.WriteHeader(b.Alphabet); err != nil {
		return err
	}
	for _, a := range b.Automata {
		if err := e.WriteAutomaton(a); err != nil {
			return err
		}
	}
	for _, g := range b.Games {
		if err := e.WriteGame(g); err != nil {
			return err
		}
	}
	return nil
}

// ReadBundle reads a stream written by WriteBundle, or any stream that
// opens with a header followed by automaton and game frames.
func ReadBundle(r io.Reader, opts ...Option) (*Bundle, error) {
	d := NewDecoder(r, opts...)
	alpha, err := d.ReadHeader()
	if err != nil {
		return nil, err
	}
	b := &Bundle{Game: automaton.Game{Alphabet: alpha}}
	for {
		f, err := d.Peek()
		if errors.Is(err, io.EOF) {
			return b, nil
		}
		if err != nil {
			return nil, err
		}
		switch f {
		case FrameAutomaton:
			a, err := d.ReadAutomaton()
			if err != nil {
				return nil, err
			}
			b.Automata = append(b.Automata, a)
		case FrameGame:
			g, err := d.ReadGame()
			if err != nil {
				return nil, err
			}
			b.Games = append(b.Games, g)
		default:
			return nil, fmt.Errorf("%w: unexpected %s frame in bundle", ErrMalformed, f)
		}
	}
}
