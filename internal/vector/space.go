package vector

import (
	"fmt"
	"strings"
)

// Kind selects a Vector encoding.
type Kind uint8

const (
	// Auto lets Choose pick an encoding from the dimensions.
	Auto Kind = iota
	Dense
	Packed
	Lanes
)

var kindNames = [...]string{"auto", "dense", "packed", "lanes"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if strings.EqualFold(s, name) {
			return Kind(i), nil
		}
	}
	return Auto, fmt.Errorf("unknown vector encoding %q", s)
}

// Encoding thresholds used by Choose.
const (
	packedMinBool = 8
	lanesMinDim   = 16
)

// Choose picks an encoding: Packed once the boolean suffix is long enough to
// pay for the bitset, Lanes for wide vectors, Dense otherwise.
func Choose(dim, boolStart int) Kind {
	switch {
	case dim-boolStart >= packedMinBool:
		return Packed
	case dim >= lanesMinDim:
		return Lanes
	default:
		return Dense
	}
}

// Space fixes the shape and encoding of the vectors of one game.
type Space struct {
	dim       int
	boolStart int
	kind      Kind
}

// NewSpace returns the space of dim-component vectors whose components at
// index >= boolStart are boolean. Auto resolves through Choose.
func NewSpace(dim, boolStart int, kind Kind) Space {
	if dim < 0 || boolStart < 0 || boolStart > dim {
		panic(fmt.Sprintf("vector: bad space dim=%d boolStart=%d", dim, boolStart))
	}
	if kind == Auto {
		kind = Choose(dim, boolStart)
	}
	return Space{dim: dim, boolStart: boolStart, kind: kind}
}

func (s Space) Dim() int       { return s.dim }
func (s Space) BoolStart() int { return s.boolStart }
func (s Space) Kind() Kind     { return s.kind }

// New builds a vector from values, which are copied. Values must lie in
// [-1, MaxK] and, for Packed, in {-1, 0} from BoolStart on.
func (s Space) New(values []int8) Vector {
	if len(values) != s.dim {
		panic(fmt.Sprintf("vector: %d values for dimension %d", len(values), s.dim))
	}
	for i, x := range values {
		if x < -1 || x > MaxK {
			panic(fmt.Sprintf("vector: component %d = %d out of range", i, x))
		}
	}
	switch s.kind {
	case Packed:
		return newPacked(values, s.boolStart)
	case Lanes:
		return newLanes(values)
	default:
		return newDense(append([]int8(nil), values...))
	}
}

// Fill returns the vector with every component equal to x, except that
// boolean components are capped at 0.
func (s Space) Fill(x int8) Vector {
	values := make([]int8, s.dim)
	for i := range values {
		values[i] = x
		if i >= s.boolStart && x > 0 {
			values[i] = 0
		}
	}
	return s.New(values)
}

// Point returns the vector that is -1 everywhere except 0 at state.
func (s Space) Point(state int) Vector {
	values := make([]int8, s.dim)
	for i := range values {
		values[i] = -1
	}
	values[state] = 0
	return s.New(values)
}
