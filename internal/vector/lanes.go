package vector

// lanes packs eight components per word, each byte holding value+1 so every
// lane is in [0, MaxK+1] and its top bit is free. Padding lanes hold 0.
type lanes struct {
	w   []uint64
	dim int
	sum int
}

const laneHigh = 0x8080808080808080

func newLanes(values []int8) *lanes {
	l := &lanes{
		w:   make([]uint64, (len(values)+7)/8),
		dim: len(values),
		sum: sum(values),
	}
	for i, x := range values {
		l.w[i/8] |= uint64(uint8(x+1)) << (8 * (i % 8))
	}
	return l
}

// geMask returns, per lane, 0x80 where b >= a and 0 elsewhere. Setting the
// top bit of every lane of b keeps the subtraction from borrowing across
// lanes.
func geMask(a, b uint64) uint64 {
	return ((b | laneHigh) - a) & laneHigh
}

func (l *lanes) Dim() int       { return l.dim }
func (l *lanes) Sum() int       { return l.sum }
func (l *lanes) String() string { return format(l) }

func (l *lanes) At(i int) int8 {
	if i < 0 || i >= l.dim {
		panic("vector: index out of range")
	}
	return int8(uint8(l.w[i/8]>>(8*(i%8)))) - 1
}

func (l *lanes) Values() []int8 {
	out := make([]int8, l.dim)
	for i := range out {
		out[i] = l.At(i)
	}
	return out
}

func (l *lanes) Copy() Vector {
	return &lanes{w: append([]uint64(nil), l.w...), dim: l.dim, sum: l.sum}
}

func (l *lanes) Leq(w Vector) bool {
	o, ok := w.(*lanes)
	if !ok {
		return genericLeq(l, w)
	}
	checkDim(l, w)
	if l.sum > o.sum {
		return false
	}
	for i, a := range l.w {
		if geMask(a, o.w[i]) != laneHigh {
			return false
		}
	}
	return true
}

func (l *lanes) relate(w Vector) (leq, geq bool) {
	o, ok := w.(*lanes)
	if !ok {
		return genericRelate(l, w)
	}
	checkDim(l, w)
	leq, geq = l.sum <= o.sum, l.sum >= o.sum
	for i, a := range l.w {
		if !leq && !geq {
			break
		}
		b := o.w[i]
		if leq && geMask(a, b) != laneHigh {
			leq = false
		}
		if geq && geMask(b, a) != laneHigh {
			geq = false
		}
	}
	return leq, geq
}

func (l *lanes) Meet(w Vector) Vector {
	o, ok := w.(*lanes)
	if !ok {
		return genericMeet(l, w)
	}
	checkDim(l, w)
	m := &lanes{w: make([]uint64, len(l.w)), dim: l.dim}
	for i, a := range l.w {
		b := o.w[i]
		full := (geMask(a, b) >> 7) * 0xFF
		m.w[i] = (a & full) | (b &^ full)
	}
	m.sum = m.laneSum()
	return m
}

// laneSum adds all lanes and removes the +1 offset of the real components.
func (l *lanes) laneSum() int {
	s := 0
	for _, w := range l.w {
		for w != 0 {
			s += int(w & 0xFF)
			w >>= 8
		}
	}
	return s - l.dim
}

func (l *lanes) Equal(w Vector) bool {
	o, ok := w.(*lanes)
	if !ok {
		return genericEqual(l, w)
	}
	if l.dim != o.dim || l.sum != o.sum {
		return false
	}
	for i, a := range l.w {
		if a != o.w[i] {
			return false
		}
	}
	return true
}
