// Package vector implements the counter vectors of the K-bounded game.
//
// A Vector holds one small signed integer per automaton state: -1 when the
// state is not occupied, otherwise an upper bound in [0, K-1] on how many
// accepting visits the runs through that state have made. Vectors are
// ordered componentwise and are immutable once built.
//
// Three encodings exist, all behind the Vector interface:
//
//   - Dense stores one int8 per state.
//   - Packed stores non-boolean states as int8 and the boolean suffix of the
//     state space (states whose counter is always -1 or 0) as a bitset.
//   - Lanes packs eight states per uint64 and compares them with SWAR
//     arithmetic.
//
// A Space fixes the dimension, the boolean suffix and the encoding once per
// automaton. Binary operations expect both operands to come from the same
// Space; mixing encodings works but falls back to a per-component loop.
package vector

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxK is the largest supported bound. Lanes stores value+1 in seven bits.
const MaxK = 126

// Vector is an immutable counter vector.
type Vector interface {
	// Dim returns the number of components.
	Dim() int
	// At returns component i.
	At(i int) int8
	// Values returns a fresh copy of all components.
	Values() []int8
	// Sum returns the sum of all components.
	Sum() int
	// Leq reports whether every component is <= the matching one of w.
	Leq(w Vector) bool
	// Meet returns the componentwise minimum.
	Meet(w Vector) Vector
	// Equal reports componentwise equality.
	Equal(w Vector) bool
	// Copy returns an independent duplicate.
	Copy() Vector
	String() string

	relate(w Vector) (leq, geq bool)
}

// PartialOrder is the lazily evaluated comparison of two vectors. Nothing is
// computed until one of its methods is called.
type PartialOrder struct {
	a, b Vector
}

// Compare returns the comparison of a against b.
func Compare(a, b Vector) PartialOrder {
	checkDim(a, b)
	return PartialOrder{a: a, b: b}
}

// Leq reports a <= b.
func (p PartialOrder) Leq() bool { return p.a.Leq(p.b) }

// Geq reports a >= b.
func (p PartialOrder) Geq() bool { return p.b.Leq(p.a) }

// Both evaluates both directions in one pass, stopping as soon as neither
// can hold.
func (p PartialOrder) Both() (leq, geq bool) { return p.a.relate(p.b) }

// Comparable reports whether a <= b or a >= b.
func (p PartialOrder) Comparable() bool {
	leq, geq := p.Both()
	return leq || geq
}

func checkDim(a, b Vector) {
	if a.Dim() != b.Dim() {
		panic(fmt.Sprintf("vector: dimension mismatch %d vs %d", a.Dim(), b.Dim()))
	}
}

// genericRelate is the per-component fallback used across encodings.
func genericRelate(a, b Vector) (leq, geq bool) {
	checkDim(a, b)
	leq, geq = true, true
	for i, n := 0, a.Dim(); i < n; i++ {
		x, y := a.At(i), b.At(i)
		if x < y {
			geq = false
		} else if x > y {
			leq = false
		}
		if !leq && !geq {
			return false, false
		}
	}
	return leq, geq
}

func genericLeq(a, b Vector) bool {
	checkDim(a, b)
	for i, n := 0, a.Dim(); i < n; i++ {
		if a.At(i) > b.At(i) {
			return false
		}
	}
	return true
}

func genericEqual(a, b Vector) bool {
	if a.Dim() != b.Dim() || a.Sum() != b.Sum() {
		return false
	}
	for i, n := 0, a.Dim(); i < n; i++ {
		if a.At(i) != b.At(i) {
			return false
		}
	}
	return true
}

func genericMeet(a, b Vector) Vector {
	checkDim(a, b)
	out := make([]int8, a.Dim())
	for i := range out {
		out[i] = min(a.At(i), b.At(i))
	}
	return newDense(out)
}

func format(v Vector) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, n := 0, v.Dim(); i < n; i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(int(v.At(i))))
	}
	sb.WriteByte(']')
	return sb.String()
}

func sum(values []int8) int {
	s := 0
	for _, x := range values {
		s += int(x)
	}
	return s
}
