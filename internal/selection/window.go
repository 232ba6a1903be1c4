// Package selection holds a dataset, the percentile window that picks the
// rows to fit, and a sampled curve of the current model over that window.
package selection

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gonum.org/v1/gonum/floats"

	"github.com/HamletTheHamster/curvify/internal/model"
)

// CurvePoints is the length of the sampled model curve.
const CurvePoints = 50

var (
	ErrLengthMismatch = errors.New("x and y lengths differ")
	ErrInvalidRange   = errors.New("invalid selection range")
)

// ModelSource supplies the current model. *model.Compiler implements it.
type ModelSource interface {
	Current() (*model.Model, error)
}

// Window is the data side of a fitting session. It is not safe for
// concurrent use.
type Window struct {
	x, y []float64
	mask []bool

	percentMin, percentMax float64

	curveX, curveY []float64

	source ModelSource
	log    *slog.Logger
}

// New returns an empty window selecting 0 to 100 percent. source may be nil,
// in which case no curve or residuals are produced until SetModel is called.
func New(source ModelSource, logger *slog.Logger) *Window {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Window{
		percentMin: 0,
		percentMax: 100,
		source:     source,
		log:        logger,
	}
}

func (w *Window) SetModel(source ModelSource) { w.source = source }

// SetData replaces the dataset with copies of x and y. An empty x is ignored
// and the previous dataset kept.
func (w *Window) SetData(x, y []float64) error {
	if len(x) == 0 {
		w.log.Warn("ignoring empty data")
		return nil
	}
	if len(x) != len(y) {
		return fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(x), len(y))
	}
	w.x = append([]float64(nil), x...)
	w.y = append([]float64(nil), y...)
	w.updateMask()
	w.log.Debug("data set", "points", len(w.x))
	return nil
}

// SetSelectedRange sets the window in percent of the x extent. It requires
// 0 <= min <= max <= 100 and otherwise keeps the previous window.
func (w *Window) SetSelectedRange(min, max float64) error {
	if !(min >= 0 && max <= 100 && min <= max) {
		return fmt.Errorf("%w: [%v, %v]", ErrInvalidRange, min, max)
	}
	w.percentMin, w.percentMax = min, max
	w.updateMask()
	return nil
}

func (w *Window) SelectedRange() (min, max float64) {
	return w.percentMin, w.percentMax
}

func (w *Window) updateMask() {
	if len(w.x) == 0 {
		return
	}
	w.mask = Mask(w.x, w.percentMin, w.percentMax)
}

// Mask selects the rows of x inside the percentile window:
//
//	lo + pmin/100*(hi-lo) <= x <= lo + pmax/100*(hi-lo)
//
// where lo and hi are the extremes of x. Bounds are inclusive.
func Mask(x []float64, pmin, pmax float64) []bool {
	mask := make([]bool, len(x))
	if len(x) == 0 {
		return mask
	}
	lo, hi := floats.Min(x), floats.Max(x)
	lower := lo + pmin/100*(hi-lo)
	upper := lo + pmax/100*(hi-lo)
	for i, v := range x {
		mask[i] = v >= lower && v <= upper
	}
	return mask
}

// Mask returns a copy of the current selection mask.
func (w *Window) Mask() []bool {
	return append([]bool(nil), w.mask...)
}

func (w *Window) Len() int { return len(w.x) }

// XRange returns the extremes of x, or zeros when there is no data.
func (w *Window) XRange() (lo, hi float64) {
	if len(w.x) == 0 {
		return 0, 0
	}
	return floats.Min(w.x), floats.Max(w.x)
}

// Selected returns copies of the rows inside the window.
func (w *Window) Selected() (x, y []float64) {
	return w.partition(true)
}

// NotSelected returns copies of the rows outside the window.
func (w *Window) NotSelected() (x, y []float64) {
	return w.partition(false)
}

func (w *Window) partition(selected bool) (x, y []float64) {
	x, y = []float64{}, []float64{}
	for i, in := range w.mask {
		if in == selected {
			x = append(x, w.x[i])
			y = append(y, w.y[i])
		}
	}
	return x, y
}

// UpdateCurve resamples the model over the selected x extent. With fewer than
// two points, an empty selection or no valid model the previous sample is
// kept. It reports whether the curve was recomputed.
func (w *Window) UpdateCurve() bool {
	if len(w.x) < 2 || w.source == nil {
		return false
	}
	m, err := w.source.Current()
	if err != nil {
		return false
	}
	sx, _ := w.Selected()
	if len(sx) == 0 {
		return false
	}

	cx := floats.Span(make([]float64, CurvePoints), floats.Min(sx), floats.Max(sx))
	w.curveX = cx
	w.curveY = m.EvalAll(cx)
	return true
}

// Curve returns a copy of the last sampled curve.
func (w *Window) Curve() (x, y []float64) {
	return append([]float64{}, w.curveX...), append([]float64{}, w.curveY...)
}

// Residuals returns y - model(x) for every selected row, or empty slices
// without a valid model.
func (w *Window) Residuals() (x, r []float64) {
	x, y := w.Selected()
	if w.source == nil {
		return []float64{}, []float64{}
	}
	m, err := w.source.Current()
	if err != nil {
		return []float64{}, []float64{}
	}
	fit := m.EvalAll(x)
	floats.SubTo(fit, y, fit)
	return x, fit
}
