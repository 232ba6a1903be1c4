package output

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var ErrFormat = errors.New("unsupported figure format")

// Series is a set of points. Non-finite points are dropped when drawn.
type Series struct {
	X, Y []float64
}

// Figure is what a fit run draws.
type Figure struct {
	Title, XLabel, YLabel string

	Selected  Series
	Excluded  Series
	Curve     Series
	Residuals Series

	Slide bool
}

var (
	selectedColor = color.RGBA{R: 7, G: 150, B: 189, A: 255}
	excludedColor = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	curveColor    = color.RGBA{R: 201, G: 44, B: 44, A: 255}
	zeroColor     = color.RGBA{R: 120, G: 120, B: 120, A: 255}
)

// FitPlot draws the data, split by selection, and the model curve.
func FitPlot(
	f Figure,
) (
	*plot.Plot, error,
) {

	p := prepPlot(f.Title, f.XLabel, f.YLabel, f.Slide)

	if pts := xys(f.Excluded); len(pts) > 0 {
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = excludedColor
		s.GlyphStyle.Radius = vg.Points(5)
		s.Shape = draw.PlusGlyph{}
		p.Add(s)
		p.Legend.Add("Excluded", s)
	}

	if pts := xys(f.Selected); len(pts) > 0 {
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = selectedColor
		s.GlyphStyle.Radius = vg.Points(5)
		s.Shape = draw.CircleGlyph{}
		p.Add(s)
		p.Legend.Add("Data", s)
	}

	if pts := xys(f.Curve); len(pts) > 1 {
		l, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		l.LineStyle.Color = curveColor
		l.LineStyle.Width = vg.Points(3)
		l.LineStyle.Dashes = []vg.Length{vg.Points(15), vg.Points(5)}
		p.Add(l)
		p.Legend.Add("Fit", l)
	}

	return p, nil
}

// ResidualPlot draws data minus model against x with a zero line.
func ResidualPlot(
	f Figure,
) (
	*plot.Plot, error,
) {

	p := prepPlot(f.Title+" Residuals", f.XLabel, "Residual", f.Slide)

	pts := xys(f.Residuals)
	if len(pts) == 0 {
		return p, nil
	}

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Color = selectedColor
	s.GlyphStyle.Radius = vg.Points(5)
	s.Shape = draw.CircleGlyph{}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, pt := range pts {
		lo, hi = math.Min(lo, pt.X), math.Max(hi, pt.X)
	}
	zero, err := plotter.NewLine(plotter.XYs{{X: lo, Y: 0}, {X: hi, Y: 0}})
	if err != nil {
		return nil, err
	}
	zero.LineStyle.Color = zeroColor
	zero.LineStyle.Width = vg.Points(1.5)
	zero.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}

	p.Add(zero, s)
	return p, nil
}

func prepPlot(
	title, xlabel, ylabel string,
	slide bool,
) (
	*plot.Plot,
) {

	p := plot.New()
	p.BackgroundColor = color.RGBA{A: 0}
	p.Title.Text = title
	p.Title.TextStyle.Font.Typeface = "Liberation"
	p.Title.TextStyle.Font.Variant = "Sans"

	p.X.Label.Text = xlabel
	p.X.Label.TextStyle.Font.Variant = "Sans"
	p.X.LineStyle.Width = vg.Points(1.5)
	p.X.Tick.LineStyle.Width = vg.Points(1.5)
	p.X.Tick.Label.Font.Variant = "Sans"

	p.Y.Label.Text = ylabel
	p.Y.Label.TextStyle.Font.Variant = "Sans"
	p.Y.LineStyle.Width = vg.Points(1.5)
	p.Y.Tick.LineStyle.Width = vg.Points(1.5)
	p.Y.Tick.Label.Font.Variant = "Sans"

	p.Legend.TextStyle.Font.Variant = "Sans"
	p.Legend.Top = true
	p.Legend.Padding = vg.Points(10)
	p.Legend.ThumbnailWidth = vg.Points(50)

	heading, label, tick, legend, pad := font.Length(50), font.Length(36), font.Length(36), font.Length(28), font.Length(20)
	if slide {
		heading, label, tick, legend, pad = 80, 56, 56, 56, 40
	}
	p.Title.TextStyle.Font.Size = heading
	p.Title.Padding = heading
	p.X.Label.TextStyle.Font.Size = label
	p.X.Label.Padding = pad
	p.X.Tick.Label.Font.Size = tick
	p.Y.Label.TextStyle.Font.Size = label
	p.Y.Label.Padding = pad
	p.Y.Tick.Label.Font.Size = tick
	p.Legend.TextStyle.Font.Size = legend

	return p
}

// Save writes p to dir/name.<format> for each format at 15 inches square
// and returns the paths written.
func Save(
	p *plot.Plot,
	dir, name string,
	formats []string,
) (
	[]string, error,
) {

	for _, f := range formats {
		switch f {
		case "png", "svg", "pdf":
		default:
			return nil, fmt.Errorf("%w: %q", ErrFormat, f)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var paths []string
	for _, f := range formats {
		path := filepath.Join(dir, name+"."+f)
		if err := p.Save(15*vg.Inch, 15*vg.Inch, path); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func xys(s Series) plotter.XYs {
	n := min(len(s.X), len(s.Y))
	pts := make(plotter.XYs, 0, n)
	for i := 0; i < n; i++ {
		if isFinite(s.X[i]) && isFinite(s.Y[i]) {
			pts = append(pts, plotter.XY{X: s.X[i], Y: s.Y[i]})
		}
	}
	return pts
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
