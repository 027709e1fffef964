package vector

import "math/bits"

// packed stores the non-boolean prefix as int8 and the boolean suffix as a
// bitset: a set bit is 0, a clear bit is -1. Padding bits stay clear.
type packed struct {
	ints  []int8
	bits  []uint64
	nbool int
	sum   int
}

func newPacked(values []int8, boolStart int) *packed {
	nbool := len(values) - boolStart
	p := &packed{
		ints:  append([]int8(nil), values[:boolStart]...),
		bits:  make([]uint64, (nbool+63)/64),
		nbool: nbool,
	}
	for j, x := range values[boolStart:] {
		switch x {
		case 0:
			p.bits[j/64] |= 1 << (j % 64)
		case -1:
		default:
			panic("vector: boolean component out of {-1, 0}")
		}
	}
	p.sum = p.computeSum()
	return p
}

func (p *packed) computeSum() int {
	ones := 0
	for _, w := range p.bits {
		ones += bits.OnesCount64(w)
	}
	return sum(p.ints) - (p.nbool - ones)
}

func (p *packed) Dim() int       { return len(p.ints) + p.nbool }
func (p *packed) Sum() int       { return p.sum }
func (p *packed) String() string { return format(p) }

func (p *packed) At(i int) int8 {
	if i < len(p.ints) {
		return p.ints[i]
	}
	j := i - len(p.ints)
	if j >= p.nbool {
		panic("vector: index out of range")
	}
	if p.bits[j/64]&(1<<(j%64)) != 0 {
		return 0
	}
	return -1
}

func (p *packed) Values() []int8 {
	out := make([]int8, p.Dim())
	for i := range out {
		out[i] = p.At(i)
	}
	return out
}

func (p *packed) Copy() Vector {
	return &packed{
		ints:  append([]int8(nil), p.ints...),
		bits:  append([]uint64(nil), p.bits...),
		nbool: p.nbool,
		sum:   p.sum,
	}
}

func (p *packed) sameLayout(o *packed) bool {
	return len(p.ints) == len(o.ints) && p.nbool == o.nbool
}

func (p *packed) Leq(w Vector) bool {
	o, ok := w.(*packed)
	if !ok || !p.sameLayout(o) {
		return genericLeq(p, w)
	}
	if p.sum > o.sum {
		return false
	}
	for i, word := range p.bits {
		if word&^o.bits[i] != 0 {
			return false
		}
	}
	for i, x := range p.ints {
		if x > o.ints[i] {
			return false
		}
	}
	return true
}

func (p *packed) relate(w Vector) (leq, geq bool) {
	o, ok := w.(*packed)
	if !ok || !p.sameLayout(o) {
		return genericRelate(p, w)
	}
	leq, geq = p.sum <= o.sum, p.sum >= o.sum
	for i, a := range p.bits {
		if !leq && !geq {
			return false, false
		}
		b := o.bits[i]
		if a&^b != 0 {
			leq = false
		}
		if b&^a != 0 {
			geq = false
		}
	}
	for i, x := range p.ints {
		if !leq && !geq {
			break
		}
		y := o.ints[i]
		if x < y {
			geq = false
		} else if x > y {
			leq = false
		}
	}
	return leq, geq
}

func (p *packed) Meet(w Vector) Vector {
	o, ok := w.(*packed)
	if !ok || !p.sameLayout(o) {
		return genericMeet(p, w)
	}
	m := &packed{
		ints:  make([]int8, len(p.ints)),
		bits:  make([]uint64, len(p.bits)),
		nbool: p.nbool,
	}
	for i, x := range p.ints {
		m.ints[i] = min(x, o.ints[i])
	}
	for i, a := range p.bits {
		m.bits[i] = a & o.bits[i]
	}
	m.sum = m.computeSum()
	return m
}

func (p *packed) Equal(w Vector) bool {
	o, ok := w.(*packed)
	if !ok || !p.sameLayout(o) {
		return genericEqual(p, w)
	}
	if p.sum != o.sum {
		return false
	}
	for i, a := range p.bits {
		if a != o.bits[i] {
			return false
		}
	}
	for i, x := range p.ints {
		if x != o.ints[i] {
			return false
		}
	}
	return true
}
