package downset

import (
	"slices"

	"github.com/roach88/kbound/internal/vector"
)

// flat keeps the antichain in one slice.
type flat struct {
	elems []vector.Vector
}

func (f *flat) len() int { return len(f.elems) }

func (f *flat) each(fn func(vector.Vector) bool) {
	for _, e := range f.elems {
		if !fn(e) {
			return
		}
	}
}

func (f *flat) dominated(v vector.Vector) bool {
	for _, e := range f.elems {
		if v.Leq(e) {
			return true
		}
	}
	return false
}

func (f *flat) removeBelow(v vector.Vector) {
	f.elems = slices.DeleteFunc(f.elems, func(e vector.Vector) bool { return e.Leq(v) })
}

func (f *flat) add(v vector.Vector) { f.elems = append(f.elems, v) }

func (f *flat) reset() { f.elems = nil }

// bucket holds the elements whose components add up to sum.
type bucket struct {
	sum   int
	elems []vector.Vector
}

// buckets keeps the antichain grouped by component sum, sorted ascending.
// e >= v implies sum(e) >= sum(v), so only buckets on one side of sum(v)
// need scanning.
type buckets struct {
	bs []bucket
	n  int
}

func (b *buckets) len() int { return b.n }

func (b *buckets) each(fn func(vector.Vector) bool) {
	for _, bk := range b.bs {
		for _, e := range bk.elems {
			if !fn(e) {
				return
			}
		}
	}
}

func (b *buckets) search(sum int) (int, bool) {
	return slices.BinarySearchFunc(b.bs, sum, func(bk bucket, s int) int { return bk.sum - s })
}

func (b *buckets) dominated(v vector.Vector) bool {
	i, _ := b.search(v.Sum())
	for ; i < len(b.bs); i++ {
		for _, e := range b.bs[i].elems {
			if v.Leq(e) {
				return true
			}
		}
	}
	return false
}

func (b *buckets) removeBelow(v vector.Vector) {
	end, found := b.search(v.Sum())
	if found {
		end++
	}
	for i := 0; i < end; i++ {
		bk := &b.bs[i]
		before := len(bk.elems)
		bk.elems = slices.DeleteFunc(bk.elems, func(e vector.Vector) bool { return e.Leq(v) })
		b.n -= before - len(bk.elems)
	}
	b.bs = slices.DeleteFunc(b.bs, func(bk bucket) bool { return len(bk.elems) == 0 })
}

func (b *buckets) add(v vector.Vector) {
	s := v.Sum()
	i, found := b.search(s)
	if !found {
		b.bs = slices.Insert(b.bs, i, bucket{sum: s})
	}
	b.bs[i].elems = append(b.bs[i].elems, v)
	b.n++
}

func (b *buckets) reset() {
	b.bs = nil
	b.n = 0
}
