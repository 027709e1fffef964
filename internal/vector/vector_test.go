package vector

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kinds = []Kind{Dense, Packed, Lanes}

func randomValues(r *rand.Rand, dim, boolStart, k int) []int8 {
	out := make([]int8, dim)
	for i := range out {
		if i >= boolStart {
			out[i] = int8(r.IntN(2) - 1)
		} else {
			out[i] = int8(r.IntN(k+1) - 1)
		}
	}
	return out
}

// above returns a copy of v with some components raised, still in range.
func above(r *rand.Rand, v []int8, boolStart, k int) []int8 {
	out := append([]int8(nil), v...)
	for i := range out {
		if r.IntN(3) != 0 {
			continue
		}
		limit := int8(k - 1)
		if i >= boolStart {
			limit = 0
		}
		if out[i] < limit {
			out[i]++
		}
	}
	return out
}

func TestSpace_New_AllKindsAgree(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	const dim, boolStart, k = 37, 20, 5

	for range 200 {
		a := randomValues(r, dim, boolStart, k)
		b := randomValues(r, dim, boolStart, k)
		if r.IntN(2) == 0 {
			b = above(r, a, boolStart, k)
		}
		ref := NewSpace(dim, boolStart, Dense)
		va, vb := ref.New(a), ref.New(b)
		refLeq, refGeq := Compare(va, vb).Both()
		refMeet := va.Meet(vb).Values()

		for _, kind := range kinds[1:] {
			s := NewSpace(dim, boolStart, kind)
			xa, xb := s.New(a), s.New(b)

			require.Equal(t, a, xa.Values(), kind.String())
			assert.Equal(t, va.Sum(), xa.Sum(), kind.String())
			assert.Equal(t, refLeq, xa.Leq(xb), kind.String())
			assert.Equal(t, refGeq, xb.Leq(xa), kind.String())

			leq, geq := Compare(xa, xb).Both()
			assert.Equal(t, refLeq, leq, kind.String())
			assert.Equal(t, refGeq, geq, kind.String())

			m := xa.Meet(xb)
			assert.Equal(t, refMeet, m.Values(), kind.String())
			assert.Equal(t, ref.New(refMeet).Sum(), m.Sum(), kind.String())
			assert.Equal(t, va.Equal(vb), xa.Equal(xb), kind.String())
		}
	}
}

func TestPartialOrder_Properties(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	const dim, boolStart, k = 24, 16, 4

	for _, kind := range kinds {
		s := NewSpace(dim, boolStart, kind)
		t.Run(kind.String(), func(t *testing.T) {
			for range 100 {
				a := randomValues(r, dim, boolStart, k)
				b := above(r, a, boolStart, k)
				c := above(r, b, boolStart, k)
				va, vb, vc := s.New(a), s.New(b), s.New(c)

				// reflexive
				assert.True(t, va.Leq(va))
				// transitive
				require.True(t, va.Leq(vb))
				require.True(t, vb.Leq(vc))
				assert.True(t, va.Leq(vc))
				// antisymmetric
				if vb.Leq(va) {
					assert.True(t, va.Equal(vb))
				} else {
					assert.False(t, va.Equal(vb))
				}
			}
		})
	}
}

func TestMeet_Properties(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	const dim, boolStart, k = 19, 9, 6

	for _, kind := range kinds {
		s := NewSpace(dim, boolStart, kind)
		t.Run(kind.String(), func(t *testing.T) {
			for range 100 {
				a := s.New(randomValues(r, dim, boolStart, k))
				b := s.New(randomValues(r, dim, boolStart, k))

				assert.True(t, a.Meet(a).Equal(a), "idempotent")
				assert.True(t, a.Meet(b).Equal(b.Meet(a)), "commutative")
				m := a.Meet(b)
				assert.True(t, m.Leq(a), "lower bound of a")
				assert.True(t, m.Leq(b), "lower bound of b")
			}
		})
	}
}

func TestCompare_Lazy(t *testing.T) {
	s := NewSpace(3, 3, Dense)
	a := s.New([]int8{0, 2, -1})
	b := s.New([]int8{1, 1, -1})

	p := Compare(a, b)
	assert.False(t, p.Leq())
	assert.False(t, p.Geq())
	assert.False(t, p.Comparable())

	p = Compare(a, a.Copy())
	leq, geq := p.Both()
	assert.True(t, leq)
	assert.True(t, geq)
}

func TestLanes_Extremes(t *testing.T) {
	s := NewSpace(9, 9, Lanes)
	lo := s.Fill(-1)
	hi := s.Fill(MaxK)

	assert.True(t, lo.Leq(hi))
	assert.False(t, hi.Leq(lo))
	assert.Equal(t, -9, lo.Sum())
	assert.Equal(t, 9*MaxK, hi.Sum())
	assert.True(t, lo.Meet(hi).Equal(lo))
	assert.Equal(t, int8(MaxK), hi.At(8))

	mixed := s.New([]int8{MaxK, -1, 0, 1, MaxK, -1, 7, 3, 0})
	other := s.New([]int8{-1, MaxK, 0, 2, 100, 0, 7, 2, -1})
	assert.Equal(t, []int8{-1, -1, 0, 1, 100, -1, 7, 2, -1}, mixed.Meet(other).Values())
}

func TestPacked_BooleanSuffix(t *testing.T) {
	s := NewSpace(70, 2, Packed)
	values := make([]int8, 70)
	for i := range values {
		values[i] = -1
	}
	values[0], values[1], values[69] = 3, 0, 0
	v := s.New(values)

	assert.Equal(t, values, v.Values())
	assert.Equal(t, 3+0+0-67, v.Sum())
	assert.Equal(t, int8(0), v.At(69))
	assert.Equal(t, int8(-1), v.At(68))
	assert.Equal(t, "[3 0 -1", v.String()[:7])
}

func TestMixedEncodings(t *testing.T) {
	values := []int8{2, 0, -1, 1, 0, 0, -1, 0, 0, 0, -1, -1, 0, 0, 0, 0}
	d := NewSpace(16, 8, Dense).New(values)
	p := NewSpace(16, 8, Packed).New(values)
	l := NewSpace(16, 8, Lanes).New(values)

	assert.True(t, d.Equal(p))
	assert.True(t, p.Equal(l))
	assert.True(t, d.Leq(l))
	assert.True(t, l.Meet(p).Equal(d))
}

func TestChoose(t *testing.T) {
	assert.Equal(t, Dense, Choose(4, 4))
	assert.Equal(t, Packed, Choose(10, 2))
	assert.Equal(t, Lanes, Choose(32, 30))
	assert.Equal(t, Packed, NewSpace(40, 0, Auto).Kind())
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{Auto, Dense, Packed, Lanes} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("sparse")
	assert.Error(t, err)
}

func TestPoint(t *testing.T) {
	v := NewSpace(4, 2, Dense).Point(1)
	assert.Equal(t, []int8{-1, 0, -1, -1}, v.Values())
}

func TestPanics(t *testing.T) {
	s := NewSpace(3, 1, Packed)
	assert.Panics(t, func() { s.New([]int8{0, 0}) }, "wrong length")
	assert.Panics(t, func() { s.New([]int8{-2, 0, 0}) }, "below -1")
	assert.Panics(t, func() { s.New([]int8{0, 1, 0}) }, "boolean above 0")
	assert.Panics(t, func() { NewSpace(3, 4, Dense) })

	d := NewSpace(2, 2, Dense).New([]int8{0, 0})
	e := NewSpace(3, 3, Dense).New([]int8{0, 0, 0})
	assert.Panics(t, func() { d.Leq(e) })
	assert.Panics(t, func() { Compare(d, e) })
}

func TestCopy_Independent(t *testing.T) {
	for _, kind := range kinds {
		s := NewSpace(10, 5, kind)
		v := s.New([]int8{1, 2, 3, 0, -1, 0, -1, 0, 0, -1})
		c := v.Copy()
		assert.True(t, v.Equal(c), kind.String())
		values := c.Values()
		values[0] = 9
		assert.Equal(t, int8(1), c.At(0), kind.String())
	}
}
