package transfer

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/kbound/internal/automaton"
	"github.com/roach88/kbound/internal/downset"
	"github.com/roach88/kbound/internal/letter"
	"github.com/roach88/kbound/internal/solver"
	"github.com/roach88/kbound/internal/vector"
)

// Option configures a Decoder.
type Option func(*Decoder)

// WithMarkerChecks turns end-marker and start-marker verification on or
// off, overriding the build default.
func WithMarkerChecks(on bool) Option {
	return func(d *Decoder) { d.check = on }
}

// WithAlphabet supplies the alphabet for letters, for streams that carry no
// Header frame.
func WithAlphabet(alpha *letter.Alphabet) Option {
	return func(d *Decoder) { d.alpha = alpha }
}

// Decoder reads frames written by an Encoder.
type Decoder struct {
	r     *bufio.Reader
	check bool
	alpha *letter.Alphabet
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	d := &Decoder{r: bufio.NewReader(r), check: checkMarkersDefault}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Alphabet returns the alphabet announced by the last Header frame.
func (d *Decoder) Alphabet() *letter.Alphabet { return d.alpha }

// Peek returns the kind of the next frame without consuming it. It returns
// io.EOF at a clean end of stream.
func (d *Decoder) Peek() (Frame, error) {
	b, err := d.r.Peek(4)
	if len(b) == 0 && errors.Is(err, io.EOF) {
		return 0, io.EOF
	}
	if err != nil {
		return 0, truncated(err)
	}
	m := binary.LittleEndian.Uint32(b)
	f, ok := frameOf(m)
	if !ok {
		return 0, fmt.Errorf("%w: %#08x is not a start marker", ErrBadMarker, m)
	}
	return f, nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return fmt.Errorf("transfer: read: %w", err)
}

func (d *Decoder) u8() (uint8, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, truncated(err)
	}
	return b, nil
}

func (d *Decoder) u32() (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		return 0, truncated(err)
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// num reads a length or index and bounds it.
func (d *Decoder) num(what string) (int, error) {
	x, err := d.u32()
	if err != nil {
		return 0, err
	}
	if x > maxLen {
		return 0, fmt.Errorf("%w: %s %d too large", ErrMalformed, what, x)
	}
	return int(x), nil
}

func (d *Decoder) bytes() ([]byte, error) {
	n, err := d.num("length")
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		return nil, truncated(err)
	}
	return b, nil
}

func (d *Decoder) marker(want uint32, f Frame, which string) error {
	got, err := d.u32()
	if err != nil {
		return err
	}
	if d.check && got != want {
		return fmt.Errorf("%w: want %s %s %#08x, got %#08x", ErrBadMarker, f, which, want, got)
	}
	return nil
}

func (d *Decoder) open(f Frame) error  { return d.marker(startMarker(f), f, "start") }
func (d *Decoder) close(f Frame) error { return d.marker(endMarker(f), f, "end") }

func (d *Decoder) getText(f Frame) (string, error) {
	if err := d.open(f); err != nil {
		return "", err
	}
	b, err := d.bytes()
	if err != nil {
		return "", err
	}
	if err := d.close(f); err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *Decoder) getLetter() (letter.Set, error) {
	if d.alpha == nil {
		return letter.Set{}, fmt.Errorf("%w: letter before header", ErrMalformed)
	}
	if err := d.open(FrameLetter); err != nil {
		return letter.Set{}, err
	}
	text, err := d.getText(FrameFormula)
	if err != nil {
		return letter.Set{}, err
	}
	if err := d.close(FrameLetter); err != nil {
		return letter.Set{}, err
	}
	s, err := d.alpha.Parse(text)
	if err != nil {
		return letter.Set{}, fmt.Errorf("%w: letter %q: %w", ErrMalformed, text, err)
	}
	return s, nil
}

func (d *Decoder) getHeader() (*letter.Alphabet, error) {
	if err := d.open(FrameHeader); err != nil {
		return nil, err
	}
	var lists [2][]string
	for i := range lists {
		n, err := d.num("proposition count")
		if err != nil {
			return nil, err
		}
		for range n {
			name, err := d.getText(FrameString)
			if err != nil {
				return nil, err
			}
			lists[i] = append(lists[i], name)
		}
	}
	if err := d.close(FrameHeader); err != nil {
		return nil, err
	}
	alpha, err := letter.NewAlphabet(lists[0], lists[1])
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrMalformed, err)
	}
	return alpha, nil
}

func (d *Decoder) getDownset() (*downset.Downset, error) {
	if err := d.open(FrameDownset); err != nil {
		return nil, err
	}
	var hdr [3]int
	for i, what := range []string{"element count", "dimension", "bool start"} {
		x, err := d.num(what)
		if err != nil {
			return nil, err
		}
		hdr[i] = x
	}
	count, dim, boolStart := hdr[0], hdr[1], hdr[2]
	kind, err := d.u8()
	if err != nil {
		return nil, err
	}
	strategy, err := d.u8()
	if err != nil {
		return nil, err
	}
	if boolStart > dim || vector.Kind(kind) > vector.Lanes || downset.Strategy(strategy) > downset.Bucketed {
		return nil, fmt.Errorf("%w: downset space dim=%d bool-start=%d kind=%d strategy=%d",
			ErrMalformed, dim, boolStart, kind, strategy)
	}

	space := vector.NewSpace(dim, boolStart, vector.Kind(kind))
	ds := downset.New(space, downset.Strategy(strategy))
	values := make([]int8, dim)
	for range count {
		for i := range values {
			x, err := d.u8()
			if err != nil {
				return nil, err
			}
			v := int8(x)
			if v < -1 || v > vector.MaxK || (space.Kind() == vector.Packed && i >= boolStart && v > 0) {
				return nil, fmt.Errorf("%w: component %d = %d out of range", ErrMalformed, i, v)
			}
			values[i] = v
		}
		ds.Insert(space.New(values))
	}
	if err := d.close(FrameDownset); err != nil {
		return nil, err
	}
	return ds, nil
}

func (d *Decoder) getAutomaton() (*automaton.Automaton, error) {
	if d.alpha == nil {
		return nil, fmt.Errorf("%w: automaton before header", ErrMalformed)
	}
	if err := d.open(FrameAutomaton); err != nil {
		return nil, err
	}
	name, err := d.getText(FrameString)
	if err != nil {
		return nil, err
	}
	var hdr [3]int
	for i, what := range []string{"state count", "edge count", "initial state"} {
		x, err := d.num(what)
		if err != nil {
			return nil, err
		}
		hdr[i] = x
	}
	states, edges, initial := hdr[0], hdr[1], hdr[2]
	if states < 1 || initial >= states {
		return nil, fmt.Errorf("%w: automaton %q with %d states and initial %d", ErrMalformed, name, states, initial)
	}

	b := automaton.NewBuilder(d.alpha, states).Name(name).Initial(initial)
	for s := range states {
		acc, err := d.u8()
		if err != nil {
			return nil, err
		}
		if acc != 0 {
			b.Accepting(s)
		}
	}
	for range edges {
		src, err := d.num("edge source")
		if err != nil {
			return nil, err
		}
		dst, err := d.num("edge destination")
		if err != nil {
			return nil, err
		}
		if src >= states || dst >= states {
			return nil, fmt.Errorf("%w: edge %d -> %d out of range", ErrMalformed, src, dst)
		}
		cond, err := d.getLetter()
		if err != nil {
			return nil, err
		}
		b.Edge(src, dst, cond)
	}
	if err := d.close(FrameAutomaton); err != nil {
		return nil, err
	}
	return b.Build(), nil
}

func (d *Decoder) getGame() (*solver.SafetyGame, error) {
	if err := d.open(FrameGame); err != nil {
		return nil, err
	}
	aut, err := d.getAutomaton()
	if err != nil {
		return nil, err
	}
	k, err := d.num("bound")
	if err != nil {
		return nil, err
	}
	turn, err := d.u8()
	if err != nil {
		return nil, err
	}
	flags, err := d.u8()
	if err != nil {
		return nil, err
	}
	if k < 1 || k > vector.MaxK || solver.Turn(turn) > solver.SysFirst {
		return nil, fmt.Errorf("%w: game bound %d turn %d", ErrMalformed, k, turn)
	}

	g := solver.NewGame(aut, k, solver.Turn(turn), vector.Auto)
	if flags&flagSafe != 0 {
		ds, err := d.getDownset()
		if err != nil {
			return nil, err
		}
		sp := ds.Space()
		if sp.Dim() != aut.NumStates() || sp.BoolStart() != aut.BoolStart() {
			return nil, fmt.Errorf("%w: region of dimension %d for %d states", ErrMalformed, sp.Dim(), aut.NumStates())
		}
		g.Space, g.Safe = sp, ds
	}
	g.Solved = flags&flagSolved != 0 && g.Safe != nil
	if flags&flagInvariant != 0 {
		if g.Invariant, err = d.getLetter(); err != nil {
			return nil, err
		}
	}
	if err := d.close(FrameGame); err != nil {
		return nil, err
	}
	return g, nil
}

// ReadString reads a String frame.
func (d *Decoder) ReadString() (string, error) { return d.getText(FrameString) }

// ReadFormula reads formula text without parsing it.
func (d *Decoder) ReadFormula() (string, error) { return d.getText(FrameFormula) }

// ReadLetter reads a letter set over the current alphabet.
func (d *Decoder) ReadLetter() (letter.Set, error) { return d.getLetter() }

// ReadHeader reads a Header frame and makes its alphabet current.
func (d *Decoder) ReadHeader() (*letter.Alphabet, error) {
	alpha, err := d.getHeader()
	if err != nil {
		return nil, err
	}
	d.alpha = alpha
	return alpha, nil
}

// ReadDownset reads a Downset frame.
func (d *Decoder) ReadDownset() (*downset.Downset, error) { return d.getDownset() }

// ReadAutomaton reads an Automaton frame over the current alphabet.
func (d *Decoder) ReadAutomaton() (*automaton.Automaton, error) { return d.getAutomaton() }

// ReadGame reads a Game frame over the current alphabet.
func (d *Decoder) ReadGame() (*solver.SafetyGame, error) { return d.getGame() }
