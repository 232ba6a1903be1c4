package fit

import (
	"fmt"
	"math"

	"github.com/HamletTheHamster/curvify/internal/model"
)

// Bounds returns the lower and upper bound of every parameter in order. A
// locked parameter is pinned to [value, value+eps]; an exact equality bound
// upsets bounded solvers, hence the asymmetric window.
func Bounds(
	params []model.Param,
	eps float64,
) (
	lower, upper []float64,
) {

	lower = make([]float64, len(params))
	upper = make([]float64, len(params))
	for i, p := range params {
		if p.Locked {
			lower[i], upper[i] = p.Value, p.Value+eps
			continue
		}
		lower[i], upper[i] = p.Min, p.Max
	}
	return lower, upper
}

// bound maps one parameter between the external (model) space and the
// internal space searched by the unconstrained solver.
type bound struct {
	lo, hi float64
	fixed  bool
}

func buildBounds(
	params []model.Param,
	eps float64,
) (
	[]bound, error,
) {

	lower, upper := Bounds(params, eps)
	bs := make([]bound, len(params))

	for i, p := range params {
		b := bound{lo: lower[i], hi: upper[i], fixed: p.Locked}

		switch {
		case math.IsNaN(p.Value) || math.IsInf(p.Value, 0):
			return nil, fmt.Errorf("%w: %s has initial value %v", ErrBoundsInvalid, p.Name, p.Value)
		case math.IsNaN(b.lo) || math.IsNaN(b.hi):
			return nil, fmt.Errorf("%w: %s has a NaN bound", ErrBoundsInvalid, p.Name)
		case b.fixed:
		case b.lo >= b.hi:
			return nil, fmt.Errorf("%w: %s has min %v >= max %v", ErrBoundsInvalid, p.Name, b.lo, b.hi)
		case p.Value < b.lo || p.Value > b.hi:
			return nil, fmt.Errorf("%w: %s initial value %v outside [%v, %v]",
				ErrBoundsInvalid, p.Name, p.Value, b.lo, b.hi)
		}

		bs[i] = b
	}
	return bs, nil
}

// toInternal and toExternal are the MINUIT transforms: sine for a closed
// interval, square root for a half-open one, identity otherwise.
func (b bound) toInternal(v float64) float64 {
	loInf, hiInf := math.IsInf(b.lo, -1), math.IsInf(b.hi, 1)
	switch {
	case loInf && hiInf:
		return v
	case hiInf:
		return math.Sqrt(math.Pow(v-b.lo+1, 2) - 1)
	case loInf:
		return math.Sqrt(math.Pow(b.hi-v+1, 2) - 1)
	}
	return math.Asin(clamp(2*(v-b.lo)/(b.hi-b.lo)-1, -1, 1))
}

func (b bound) toExternal(u float64) float64 {
	loInf, hiInf := math.IsInf(b.lo, -1), math.IsInf(b.hi, 1)
	switch {
	case loInf && hiInf:
		return u
	case hiInf:
		return b.lo - 1 + math.Sqrt(u*u+1)
	case loInf:
		return b.hi + 1 - math.Sqrt(u*u+1)
	}
	return clamp(b.lo+(math.Sin(u)+1)*(b.hi-b.lo)/2, b.lo, b.hi)
}

// inside moves a start value that sits on a finite bound strictly inside
// the interval. Both transforms are stationary at the bounds, so a start
// there would never move.
func (b bound) inside(v float64) float64 {
	const rstep = 1e-3
	if !math.IsInf(b.lo, -1) && v <= b.lo {
		v = b.lo + rstep*math.Max(1, math.Abs(b.lo))
	}
	if !math.IsInf(b.hi, 1) && v >= b.hi {
		v = b.hi - rstep*math.Max(1, math.Abs(b.hi))
	}
	if v <= b.lo || v >= b.hi {
		v = b.lo + (b.hi-b.lo)/2
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
