package output

import (
	"github.com/Arafatk/glot"
)

// Gnuplot renders f through a gnuplot process and, if path is set, saves
// the image there. It needs gnuplot on PATH.
func Gnuplot(
	f Figure,
	path string,
) error {

	dimensions := 2
	persist := path == ""
	debug := false
	plot, err := glot.NewPlot(dimensions, persist, debug)
	if err != nil {
		return err
	}
	defer plot.Close()

	groups := []struct {
		name, style string
		s           Series
	}{
		{"Excluded", "points", f.Excluded},
		{"Data", "points", f.Selected},
		{"Fit", "lines", f.Curve},
	}
	for _, g := range groups {
		pts := xys(g.s)
		if len(pts) == 0 {
			continue
		}
		xs := make([]float64, len(pts))
		ys := make([]float64, len(pts))
		for i, pt := range pts {
			xs[i], ys[i] = pt.X, pt.Y
		}
		if err := plot.AddPointGroup(g.name, g.style, [][]float64{xs, ys}); err != nil {
			return err
		}
	}

	if err := plot.SetTitle(f.Title); err != nil {
		return err
	}
	if err := plot.SetXLabel(f.XLabel); err != nil {
		return err
	}
	if err := plot.SetYLabel(f.YLabel); err != nil {
		return err
	}
	if path != "" {
		return plot.SavePlot(path)
	}
	return nil
}
