package fit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HamletTheHamster/curvify/internal/model"
)

func TestBoundsPinsLockedParameters(t *testing.T) {
	a := model.NewParam("a")
	b := model.NewParam("b")
	b.Value, b.Locked = 5, true
	c := model.NewParam("c")
	c.Min, c.Max = -1, 2

	lower, upper := Bounds([]model.Param{a, b, c}, 1e-15)
	assert.True(t, math.IsInf(lower[0], -1))
	assert.True(t, math.IsInf(upper[0], 1))
	assert.Equal(t, 5.0, lower[1])
	assert.Equal(t, 5.0+1e-15, upper[1])
	assert.Equal(t, []float64{-1, 2}, []float64{lower[2], upper[2]})
}

func TestBoundTransformsRoundTrip(t *testing.T) {
	cases := []struct {
		b bound
		v []float64
	}{
		{bound{lo: math.Inf(-1), hi: math.Inf(1)}, []float64{-1e6, -1, 0, 3.5}},
		{bound{lo: 2, hi: math.Inf(1)}, []float64{2, 2.5, 10, 1e4}},
		{bound{lo: math.Inf(-1), hi: -3}, []float64{-1e4, -10, -3.5, -3}},
		{bound{lo: -1, hi: 4}, []float64{-1, -0.5, 0, 1.5, 3.999, 4}},
	}
	for _, c := range cases {
		for _, v := range c.v {
			assert.InDelta(t, v, c.b.toExternal(c.b.toInternal(v)), 1e-6*math.Max(1, math.Abs(v)))
		}
	}
}

func TestBoundToExternalStaysInside(t *testing.T) {
	closed := bound{lo: -1, hi: 4}
	lower := bound{lo: 2, hi: math.Inf(1)}
	upper := bound{lo: math.Inf(-1), hi: -3}
	for _, u := range []float64{-1e3, -7, -1, 0, 0.3, 2, 50, 1e3} {
		v := closed.toExternal(u)
		assert.True(t, v >= -1 && v <= 4, "%v -> %v", u, v)
		assert.GreaterOrEqual(t, lower.toExternal(u), 2.0)
		assert.LessOrEqual(t, upper.toExternal(u), -3.0)
	}
}

func TestBuildBoundsLockedIgnoresRange(t *testing.T) {
	p := model.NewParam("k")
	p.Value, p.Locked = 1e6, true
	p.Min, p.Max = 0, 1

	bs, err := buildBounds([]model.Param{p}, 1e-15)
	require.NoError(t, err)
	assert.True(t, bs[0].fixed)
}

func TestBuildBoundsRejectsNonFiniteStart(t *testing.T) {
	p := model.NewParam("k")
	p.Value = math.Inf(1)
	_, err := buildBounds([]model.Param{p}, 1e-15)
	assert.ErrorIs(t, err, ErrBoundsInvalid)
}

func TestBoundInsideLeavesBounds(t *testing.T) {
	closed := bound{lo: 0, hi: 10}
	assert.Greater(t, closed.inside(0), 0.0)
	assert.Less(t, closed.inside(10), 10.0)
	assert.Equal(t, 4.0, closed.inside(4))

	lower := bound{lo: 0, hi: math.Inf(1)}
	assert.InDelta(t, 1e-3, lower.inside(0), 1e-15)
	upper := bound{lo: math.Inf(-1), hi: -200}
	assert.InDelta(t, -200.2, upper.inside(-200), 1e-9)

	narrow := bound{lo: 1, hi: 1 + 1e-6}
	assert.InDelta(t, 1+0.5e-6, narrow.inside(1), 1e-12)

	free := bound{lo: math.Inf(-1), hi: math.Inf(1)}
	assert.Equal(t, 0.0, free.inside(0))
}

func TestTransformMovesFromBoundStart(t *testing.T) {
	// the transforms are flat at the bounds, so a nudged start must see a
	// nonzero slope
	for _, b := range []bound{{lo: 0, hi: 10}, {lo: 0, hi: math.Inf(1)}, {lo: math.Inf(-1), hi: 0}} {
		start := b.inside(b.lo)
		if math.IsInf(b.lo, -1) {
			start = b.inside(b.hi)
		}
		u := b.toInternal(start)
		h := 1e-6
		slope := (b.toExternal(u+h) - b.toExternal(u-h)) / (2 * h)
		assert.Greater(t, math.Abs(slope), 1e-3, "%+v", b)
	}
}
