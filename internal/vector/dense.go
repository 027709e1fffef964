package vector

// dense stores one int8 per component.
type dense struct {
	v   []int8
	sum int
}

// newDense takes ownership of values.
func newDense(values []int8) *dense {
	return &dense{v: values, sum: sum(values)}
}

func (d *dense) Dim() int       { return len(d.v) }
func (d *dense) At(i int) int8  { return d.v[i] }
func (d *dense) Sum() int       { return d.sum }
func (d *dense) String() string { return format(d) }

func (d *dense) Values() []int8 {
	return append([]int8(nil), d.v...)
}

func (d *dense) Copy() Vector {
	return &dense{v: d.Values(), sum: d.sum}
}

func (d *dense) Leq(w Vector) bool {
	o, ok := w.(*dense)
	if !ok {
		return genericLeq(d, w)
	}
	checkDim(d, w)
	if d.sum > o.sum {
		return false
	}
	for i, x := range d.v {
		if x > o.v[i] {
			return false
		}
	}
	return true
}

func (d *dense) relate(w Vector) (leq, geq bool) {
	o, ok := w.(*dense)
	if !ok {
		return genericRelate(d, w)
	}
	checkDim(d, w)
	leq, geq = d.sum <= o.sum, d.sum >= o.sum
	for i, x := range d.v {
		if !leq && !geq {
			break
		}
		y := o.v[i]
		if x < y {
			geq = false
		} else if x > y {
			leq = false
		}
	}
	return leq, geq
}

func (d *dense) Meet(w Vector) Vector {
	o, ok := w.(*dense)
	if !ok {
		return genericMeet(d, w)
	}
	checkDim(d, w)
	out := make([]int8, len(d.v))
	for i, x := range d.v {
		out[i] = min(x, o.v[i])
	}
	return newDense(out)
}

func (d *dense) Equal(w Vector) bool {
	o, ok := w.(*dense)
	if !ok {
		return genericEqual(d, w)
	}
	if len(d.v) != len(o.v) || d.sum != o.sum {
		return false
	}
	for i, x := range d.v {
		if x != o.v[i] {
			return false
		}
	}
	return true
}
