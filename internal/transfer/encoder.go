package transfer

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/roach88/kbound/internal/automaton"
	"github.com/roach88/kbound/internal/downset"
	"github.com/roach88/kbound/internal/letter"
	"github.com/roach88/kbound/internal/solver"
	"github.com/roach88/kbound/internal/vector"
)

// Encoder writes frames to an underlying writer. Each top-level Write call
// emits exactly one frame with a single Write on the underlying writer.
type Encoder struct {
	w   io.Writer
	buf []byte
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

func (e *Encoder) u8(x uint8)   { e.buf = append(e.buf, x) }
func (e *Encoder) u32(x uint32) { e.buf = binary.LittleEndian.AppendUint32(e.buf, x) }
func (e *Encoder) num(x int)    { e.u32(uint32(x)) }

func (e *Encoder) bytes(b []byte) {
	e.num(len(b))
	e.buf = append(e.buf, b...)
}

func (e *Encoder) open(f Frame)  { e.u32(startMarker(f)) }
func (e *Encoder) close(f Frame) { e.u32(endMarker(f)) }

func (e *Encoder) flush() error {
	_, err := e.w.Write(e.buf)
	e.buf = e.buf[:0]
	if err != nil {
		return fmt.Errorf("transfer: write: %w", err)
	}
	return nil
}

func (e *Encoder) putString(s string) {
	e.open(FrameString)
	e.bytes([]byte(s))
	e.close(FrameString)
}

func (e *Encoder) putFormula(text string) {
	e.open(FrameFormula)
	e.bytes([]byte(text))
	e.close(FrameFormula)
}

func (e *Encoder) putLetter(s letter.Set) {
	e.open(FrameLetter)
	e.putFormula(letter.Format(s))
	e.close(FrameLetter)
}

func (e *Encoder) putHeader(alpha *letter.Alphabet) {
	e.open(FrameHeader)
	for _, names := range [][]string{alpha.InputNames(), alpha.OutputNames()} {
		e.num(len(names))
		for _, n := range names {
			e.putString(n)
		}
	}
	e.close(FrameHeader)
}

func (e *Encoder) putDownset(d *downset.Downset) {
	sp := d.Space()
	e.open(FrameDownset)
	e.num(d.Len())
	e.num(sp.Dim())
	e.num(sp.BoolStart())
	e.u8(uint8(sp.Kind()))
	e.u8(uint8(d.Strategy()))
	d.Each(func(v vector.Vector) bool {
		for i := range sp.Dim() {
			e.u8(uint8(v.At(i)))
		}
		return true
	})
	e.close(FrameDownset)
}

func (e *Encoder) putAutomaton(a *automaton.Automaton) {
	e.open(FrameAutomaton)
	e.putString(a.Name())
	e.num(a.NumStates())
	e.num(a.NumEdges())
	e.num(a.Initial())
	for s := range a.NumStates() {
		var acc uint8
		if a.IsAccepting(s) {
			acc = 1
		}
		e.u8(acc)
	}
	for s := range a.NumStates() {
		for _, edge := range a.Out(s) {
			e.num(s)
			e.num(edge.Dst)
			e.putLetter(edge.Cond)
		}
	}
	e.close(FrameAutomaton)
}

func (e *Encoder) putGame(g *solver.SafetyGame) {
	var flags uint8
	if g.Solved {
		flags |= flagSolved
	}
	if g.Safe != nil {
		flags |= flagSafe
	}
	if !g.Invariant.IsZero() {
		flags |= flagInvariant
	}

	e.open(FrameGame)
	e.putAutomaton(g.Aut)
	e.num(g.K)
	e.u8(uint8(g.Turn))
	e.u8(flags)
	if g.Safe != nil {
		e.putDownset(g.Safe)
	}
	if !g.Invariant.IsZero() {
		e.putLetter(g.Invariant)
	}
	e.close(FrameGame)
}

// WriteString writes a String frame.
func (e *Encoder) WriteString(s string) error {
	e.putString(s)
	return e.flush()
}

// WriteFormula writes formula text without parsing it.
func (e *Encoder) WriteFormula(text string) error {
	e.putFormula(text)
	return e.flush()
}

// WriteLetter writes a letter set as formula text.
func (e *Encoder) WriteLetter(s letter.Set) error {
	e.putLetter(s)
	return e.flush()
}

// WriteHeader announces the alphabet every later frame refers to.
func (e *Encoder) WriteHeader(alpha *letter.Alphabet) error {
	e.putHeader(alpha)
	return e.flush()
}

// WriteDownset writes the antichain of d.
func (e *Encoder) WriteDownset(d *downset.Downset) error {
	e.putDownset(d)
	return e.flush()
}

// WriteAutomaton writes a.
func (e *Encoder) WriteAutomaton(a *automaton.Automaton) error {
	e.putAutomaton(a)
	return e.flush()
}

// WriteGame writes g with its automaton, region and invariant.
func (e *Encoder) WriteGame(g *solver.SafetyGame) error {
	e.putGame(g)
	return e.flush()
}
