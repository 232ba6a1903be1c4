package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/HamletTheHamster/curvify/internal/model"
)

func line(n int) ([]float64, []float64) {
	x := floats.Span(make([]float64, n), 0, 10)
	y := make([]float64, n)
	for i, v := range x {
		y[i] = 2*v + 5
	}
	return x, y
}

func count(mask []bool) int {
	n := 0
	for _, m := range mask {
		if m {
			n++
		}
	}
	return n
}

func TestFullRangeSelectsEverything(t *testing.T) {
	x, y := line(100)
	w := New(nil, nil)
	require.NoError(t, w.SetData(x, y))
	require.NoError(t, w.SetSelectedRange(0, 100))

	sx, sy := w.Selected()
	assert.Equal(t, x, sx)
	assert.Equal(t, y, sy)
	nx, _ := w.NotSelected()
	assert.Empty(t, nx)
}

func TestRangeBoundaries(t *testing.T) {
	// x = 0..10 in steps of 1 so percent bounds land on samples
	x := floats.Span(make([]float64, 11), 0, 10)

	assert.Equal(t, 1, count(Mask(x, 0, 0)), "zero keeps the minimum only")
	assert.Equal(t, 1, count(Mask(x, 100, 100)), "full keeps the maximum only")
	assert.Equal(t, 1, count(Mask(x, 50, 50)), "midpoint sample")
	assert.Equal(t, 11, count(Mask(x, 0, 100)))
	assert.Equal(t, 6, count(Mask(x, 0, 50)))
	assert.Equal(t, 3, count(Mask(x, 40, 60)))

	// the midpoint bound falls between samples
	even := floats.Span(make([]float64, 10), 0, 9)
	assert.Equal(t, 0, count(Mask(even, 50, 50)))
}

func TestMaskMonotonicInWidth(t *testing.T) {
	x, _ := line(137)
	prev := -1
	for width := 0.0; width <= 100; width += 2.5 {
		lo := 50 - width/2
		n := count(Mask(x, lo, lo+width))
		assert.GreaterOrEqual(t, n, prev, "width %v", width)
		prev = n
	}
}

func TestMaskIsPure(t *testing.T) {
	x, _ := line(40)
	assert.Equal(t, Mask(x, 12, 77), Mask(x, 12, 77))
}

func TestSelectedAndNotSelectedPartition(t *testing.T) {
	x, y := line(57)
	w := New(nil, nil)
	require.NoError(t, w.SetData(x, y))
	require.NoError(t, w.SetSelectedRange(20, 65))

	sx, sy := w.Selected()
	nx, ny := w.NotSelected()
	assert.Equal(t, len(x), len(sx)+len(nx))
	assert.Equal(t, len(sx), len(sy))
	assert.Equal(t, len(nx), len(ny))

	mask := w.Mask()
	var si, ni int
	for i := range x {
		if mask[i] {
			assert.Equal(t, x[i], sx[si])
			si++
		} else {
			assert.Equal(t, x[i], nx[ni])
			ni++
		}
	}
}

func TestResultsDoNotAlias(t *testing.T) {
	x, y := line(10)
	w := New(nil, nil)
	require.NoError(t, w.SetData(x, y))

	// caller owns its input
	x[0] = 99
	sx, sy := w.Selected()
	assert.Equal(t, 0.0, sx[0])

	// and the results
	sx[1], sy[1] = -1, -1
	again, againY := w.Selected()
	assert.NotEqual(t, -1.0, again[1])
	assert.NotEqual(t, -1.0, againY[1])

	m := w.Mask()
	m[0] = false
	assert.True(t, w.Mask()[0])
}

func TestEmptyDataIgnored(t *testing.T) {
	x, y := line(10)
	w := New(nil, nil)
	require.NoError(t, w.SetData(x, y))
	require.NoError(t, w.SetData(nil, nil))
	assert.Equal(t, 10, w.Len())

	lo, hi := w.XRange()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 10.0, hi)
}

func TestEmptyWindow(t *testing.T) {
	w := New(nil, nil)
	assert.Equal(t, 0, w.Len())
	lo, hi := w.XRange()
	assert.Equal(t, [2]float64{0, 0}, [2]float64{lo, hi})
	sx, _ := w.Selected()
	nx, _ := w.NotSelected()
	assert.Empty(t, sx)
	assert.Empty(t, nx)
	assert.False(t, w.UpdateCurve())
}

func TestSetDataLengthMismatch(t *testing.T) {
	w := New(nil, nil)
	assert.ErrorIs(t, w.SetData([]float64{1, 2}, []float64{1}), ErrLengthMismatch)
	assert.Equal(t, 0, w.Len())
}

func TestSetSelectedRangeRejectsBadInput(t *testing.T) {
	w := New(nil, nil)
	for _, r := range [][2]float64{{60, 40}, {-1, 50}, {0, 101}} {
		assert.ErrorIs(t, w.SetSelectedRange(r[0], r[1]), ErrInvalidRange)
	}
	min, max := w.SelectedRange()
	assert.Equal(t, 0.0, min)
	assert.Equal(t, 100.0, max)
}

func TestUpdateCurve(t *testing.T) {
	c := model.NewCompiler()
	require.True(t, c.Update("a * x + b"))
	c.Params().SetValue("a", 2)
	c.Params().SetValue("b", 5)

	x, y := line(100)
	w := New(c, nil)
	require.NoError(t, w.SetData(x, y))
	require.NoError(t, w.SetSelectedRange(20, 80))

	cx, _ := w.Curve()
	assert.Empty(t, cx, "curve is only computed on request")

	require.True(t, w.UpdateCurve())
	cx, cy := w.Curve()
	require.Len(t, cx, CurvePoints)
	require.Len(t, cy, CurvePoints)

	sx, _ := w.Selected()
	assert.Equal(t, floats.Min(sx), cx[0])
	assert.Equal(t, floats.Max(sx), cx[CurvePoints-1])
	for i := range cx {
		assert.InDelta(t, 2*cx[i]+5, cy[i], 1e-12)
	}

	// stale until recomputed
	c.Params().SetValue("a", 0)
	_, stale := w.Curve()
	assert.Equal(t, cy, stale)
}

func TestUpdateCurveKeepsPreviousWhenInvalid(t *testing.T) {
	c := model.NewCompiler()
	require.True(t, c.Update("a * x"))

	x, y := line(20)
	w := New(c, nil)
	require.NoError(t, w.SetData(x, y))
	require.True(t, w.UpdateCurve())
	_, before := w.Curve()

	require.False(t, c.Update("a * "))
	assert.False(t, w.UpdateCurve())
	_, after := w.Curve()
	assert.Equal(t, before, after)

	// empty selection
	require.True(t, c.Update("2 * a * x"))
	even := floats.Span(make([]float64, 10), 0, 9)
	require.NoError(t, w.SetData(even, even))
	require.NoError(t, w.SetSelectedRange(50, 50))
	assert.False(t, w.UpdateCurve())
	_, after = w.Curve()
	assert.Equal(t, before, after)
}

func TestUpdateCurveNeedsTwoPoints(t *testing.T) {
	c := model.NewCompiler()
	require.True(t, c.Update("a * x"))
	w := New(c, nil)
	require.NoError(t, w.SetData([]float64{1}, []float64{2}))
	assert.False(t, w.UpdateCurve())
}

func TestResiduals(t *testing.T) {
	c := model.NewCompiler()
	require.True(t, c.Update("a * x + b"))
	c.Params().SetValue("a", 2)
	c.Params().SetValue("b", 4)

	x, y := line(30)
	w := New(nil, nil)
	require.NoError(t, w.SetData(x, y))
	rx, r := w.Residuals()
	assert.Empty(t, rx)
	assert.Empty(t, r)

	w.SetModel(c)
	require.NoError(t, w.SetSelectedRange(50, 100))
	rx, r = w.Residuals()
	sx, _ := w.Selected()
	assert.Equal(t, sx, rx)
	for _, v := range r {
		assert.InDelta(t, 1, v, 1e-12)
	}
}
