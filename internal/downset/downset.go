// Package downset implements downward-closed sets of counter vectors,
// represented by their antichain of maximal elements.
//
// A Downset contains v when some stored element e satisfies v <= e. Stored
// elements are pairwise incomparable at all times. Two storage backends
// exist: Flat keeps a single slice; Bucketed groups elements by component
// sum, which lets membership skip every bucket whose sum is too small and
// lets pruning skip every bucket whose sum is too large.
//
// A Downset is not safe for concurrent use.
package downset

import (
	"fmt"
	"strings"

	"github.com/roach88/kbound/internal/vector"
)

// Strategy selects the storage backend.
type Strategy uint8

const (
	// Auto picks Bucketed for wide vectors and Flat otherwise.
	Auto Strategy = iota
	Flat
	Bucketed
)

var strategyNames = [...]string{"auto", "flat", "bucketed"}

func (s Strategy) String() string {
	if int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return fmt.Sprintf("Strategy(%d)", s)
}

// ParseStrategy is the inverse of Strategy.String.
func ParseStrategy(s string) (Strategy, error) {
	for i, name := range strategyNames {
		if strings.EqualFold(s, name) {
			return Strategy(i), nil
		}
	}
	return Auto, fmt.Errorf("unknown downset strategy %q", s)
}

const bucketedMinDim = 32

func resolve(space vector.Space, s Strategy) Strategy {
	if s != Auto {
		return s
	}
	if space.Dim() >= bucketedMinDim {
		return Bucketed
	}
	return Flat
}

// backend stores an antichain. Callers keep it one: add is only called for
// vectors that are not dominated, after removeBelow.
type backend interface {
	len() int
	each(fn func(vector.Vector) bool)
	dominated(v vector.Vector) bool
	removeBelow(v vector.Vector)
	add(v vector.Vector)
	reset()
}

// Downset is a downward-closed set of vectors of one Space.
type Downset struct {
	space    vector.Space
	strategy Strategy
	b        backend
}

// New returns an empty Downset.
func New(space vector.Space, s Strategy) *Downset {
	s = resolve(space, s)
	return &Downset{space: space, strategy: s, b: newBackend(s)}
}

// FromSeed returns the downward closure of seed.
func FromSeed(space vector.Space, s Strategy, seed vector.Vector) *Downset {
	d := New(space, s)
	d.Insert(seed)
	return d
}

func newBackend(s Strategy) backend {
	if s == Bucketed {
		return &buckets{}
	}
	return &flat{}
}

// Space returns the space of the stored vectors.
func (d *Downset) Space() vector.Space { return d.space }

// Strategy returns the resolved backend choice.
func (d *Downset) Strategy() Strategy { return d.strategy }

// Len returns the number of maximal elements.
func (d *Downset) Len() int { return d.b.len() }

// IsEmpty reports whether the set contains nothing.
func (d *Downset) IsEmpty() bool { return d.b.len() == 0 }

// Contains reports whether some stored element dominates v.
func (d *Downset) Contains(v vector.Vector) bool { return d.b.dominated(v) }

// Insert adds v. It returns false and leaves d unchanged when v is already
// contained; otherwise it drops every element below v.
func (d *Downset) Insert(v vector.Vector) bool {
	if v.Dim() != d.space.Dim() {
		panic(fmt.Sprintf("downset: inserting dimension %d into %d", v.Dim(), d.space.Dim()))
	}
	if d.b.dominated(v) {
		return false
	}
	d.b.removeBelow(v)
	d.b.add(v)
	return true
}

// Elements returns the maximal elements. The vectors are shared, the slice
// is not.
func (d *Downset) Elements() []vector.Vector {
	out := make([]vector.Vector, 0, d.b.len())
	d.b.each(func(v vector.Vector) bool {
		out = append(out, v)
		return true
	})
	return out
}

// Each calls fn on every maximal element until fn returns false.
func (d *Downset) Each(fn func(vector.Vector) bool) { d.b.each(fn) }

// Copy returns an independent Downset with the same elements.
func (d *Downset) Copy() *Downset {
	c := New(d.space, d.strategy)
	d.b.each(func(v vector.Vector) bool {
		c.b.add(v)
		return true
	})
	return c
}

// UnionWith adds every element of other to d and empties other.
func (d *Downset) UnionWith(other *Downset) {
	if other == d {
		return
	}
	other.b.each(func(v vector.Vector) bool {
		d.Insert(v)
		return true
	})
	other.b.reset()
}

// IntersectWith replaces d by d ∩ other and reports whether d shrank.
//
// An element x of d that is already below some element of other belongs to
// the result unchanged, and its meets with other elements are all below it,
// so it is never met again. The same holds for elements of other below d.
// Only the remaining pairs are met.
func (d *Downset) IntersectWith(other *Downset) bool {
	if d.IsEmpty() {
		return false
	}
	if other.IsEmpty() {
		d.b.reset()
		return true
	}

	xs, ys := d.Elements(), other.Elements()
	doneX := make([]bool, len(xs))
	doneY := make([]bool, len(ys))
	result := newBackend(d.strategy)
	insert := func(v vector.Vector) {
		if !result.dominated(v) {
			result.removeBelow(v)
			result.add(v)
		}
	}

	changed := false
	for i, x := range xs {
		if other.b.dominated(x) {
			doneX[i] = true
			insert(x)
		} else {
			changed = true
		}
	}
	if !changed {
		return false
	}
	for j, y := range ys {
		if d.b.dominated(y) {
			doneY[j] = true
			insert(y)
		}
	}
	for i, x := range xs {
		if doneX[i] {
			continue
		}
		for j, y := range ys {
			if doneY[j] {
				continue
			}
			insert(x.Meet(y))
		}
	}
	d.b = result
	return true
}

// Apply replaces every element e by f(e) and restores the antichain. A nil
// result drops the element.
func (d *Downset) Apply(f func(vector.Vector) vector.Vector) {
	xs := d.Elements()
	d.b.reset()
	for _, x := range xs {
		if y := f(x); y != nil {
			d.Insert(y)
		}
	}
}

// Equal reports whether d and other denote the same set.
func (d *Downset) Equal(other *Downset) bool {
	if d.Len() != other.Len() {
		return false
	}
	eq := true
	d.b.each(func(v vector.Vector) bool {
		eq = other.b.dominated(v)
		return eq
	})
	if !eq {
		return false
	}
	other.b.each(func(v vector.Vector) bool {
		eq = d.b.dominated(v)
		return eq
	})
	return eq
}

// Check verifies the antichain invariant.
func (d *Downset) Check() error {
	xs := d.Elements()
	for i := range xs {
		for j := i + 1; j < len(xs); j++ {
			if vector.Compare(xs[i], xs[j]).Comparable() {
				return fmt.Errorf("downset: elements %s and %s are comparable", xs[i], xs[j])
			}
		}
	}
	return nil
}

func (d *Downset) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, v := range d.Elements() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(v.String())
	}
	sb.WriteByte('}')
	return sb.String()
}
