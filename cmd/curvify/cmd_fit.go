package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/HamletTheHamster/curvify/internal/config"
	"github.com/HamletTheHamster/curvify/internal/dataset"
	"github.com/HamletTheHamster/curvify/internal/fit"
	"github.com/HamletTheHamster/curvify/internal/library"
	"github.com/HamletTheHamster/curvify/internal/model"
	"github.com/HamletTheHamster/curvify/internal/output"
	"github.com/HamletTheHamster/curvify/internal/selection"
)

// ErrNotReady is returned when there is no valid model or too few selected
// points to fit.
var ErrNotReady = errors.New("not ready to fit")

type fitFlags struct {
	config    string
	csv       string
	delimiter string
	xCol      string
	yCol      string
	noHeader  bool
	expr      string
	model     string
	rangeMin  float64
	rangeMax  float64
	lock      []string
	init      map[string]string
	bounds    []string
	out       string
	note      string
	formats   []string
	noPlot    bool
	gnuplot   bool
	slide     bool
	logLevel  string
}

func newFitCmd() *cobra.Command {
	var f fitFlags

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a model to CSV data",
		Long: `Fit a model to two columns of a CSV file.

Settings come from --config, then CURVIFY_* environment variables, then
flags. The model is either an expression over x (--expr) or a preset name
(--model, see "curvify models"). Only rows whose x lies inside the
--range-min/--range-max window, in percent of the x extent, are fitted.

Results go to <out>/<date>/<time>: <note>/ as log.txt plus fit and
residual figures.

Examples:
  curvify fit --csv data.csv --expr "a * exp(b * x) + c" --init b=-1
  curvify fit --csv data.csv --model Lorentzian --range-min 20 --range-max 80
  curvify fit --config run.yaml --lock c --bound a=0:10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(f.config)
			if err != nil {
				return err
			}
			if err := f.apply(cmd, cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
			_, err = runFit(cfg, cmd.OutOrStdout(), logger, time.Now())
			return err
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.config, "config", "", "YAML run description")
	fl.StringVar(&f.csv, "csv", "", "data file")
	fl.StringVar(&f.delimiter, "delimiter", ",", `field separator: "," ";" "tab" or "|"`)
	fl.StringVar(&f.xCol, "x-col", "0", "x column, by header name or zero-based index")
	fl.StringVar(&f.yCol, "y-col", "1", "y column, by header name or zero-based index")
	fl.BoolVar(&f.noHeader, "no-header", false, "the first row is data")
	fl.StringVar(&f.expr, "expr", "", "model expression in x")
	fl.StringVar(&f.model, "model", "", "preset model name")
	fl.Float64Var(&f.rangeMin, "range-min", 0, "selection start, percent of the x extent")
	fl.Float64Var(&f.rangeMax, "range-max", 100, "selection end, percent of the x extent")
	fl.StringSliceVar(&f.lock, "lock", nil, "parameters to hold fixed")
	fl.StringToStringVar(&f.init, "init", nil, "initial values, name=value")
	fl.StringSliceVar(&f.bounds, "bound", nil, "bounds, name=min:max with either side optional")
	fl.StringVar(&f.out, "out", "plots", "output root directory")
	fl.StringVar(&f.note, "note", "", "note to append to the run folder name")
	fl.StringSliceVar(&f.formats, "formats", []string{"png", "svg", "pdf"}, "figure formats")
	fl.BoolVar(&f.noPlot, "no-plot", false, "skip figures")
	fl.BoolVar(&f.gnuplot, "gnuplot", false, "also render with gnuplot")
	fl.BoolVar(&f.slide, "slide", false, "format figures for slide presentation")
	fl.StringVar(&f.logLevel, "log-level", "info", "debug, info, warn or error")
	return cmd
}

// apply overlays the flags the user set onto cfg.
func (f *fitFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	if changed("csv") {
		cfg.Data.Path = f.csv
	}
	if changed("delimiter") {
		cfg.Data.Delimiter = f.delimiter
	}
	if changed("x-col") {
		cfg.Data.XCol = f.xCol
	}
	if changed("y-col") {
		cfg.Data.YCol = f.yCol
	}
	if changed("no-header") {
		cfg.Data.NoHeader = f.noHeader
	}
	if changed("expr") {
		cfg.Expression = f.expr
	}
	if changed("model") {
		cfg.Model = f.model
		if !changed("expr") {
			cfg.Expression = ""
		}
	}
	if changed("range-min") {
		cfg.Range.Min = f.rangeMin
	}
	if changed("range-max") {
		cfg.Range.Max = f.rangeMax
	}
	if changed("out") {
		cfg.Output.Dir = f.out
	}
	if changed("note") {
		cfg.Output.Note = f.note
	}
	if changed("formats") {
		cfg.Output.Formats = f.formats
	}
	if changed("no-plot") {
		cfg.Output.Plot = !f.noPlot
	}
	if changed("gnuplot") {
		cfg.Output.Gnuplot = f.gnuplot
	}
	if changed("slide") {
		cfg.Output.Slide = f.slide
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}

	param := func(name string) config.Param {
		if cfg.Params == nil {
			cfg.Params = map[string]config.Param{}
		}
		return cfg.Params[name]
	}
	for name, v := range f.init {
		p := param(name)
		p.Value = v
		cfg.Params[name] = p
	}
	for _, name := range f.lock {
		p := param(name)
		p.Locked = true
		cfg.Params[name] = p
	}
	for _, b := range f.bounds {
		name, lo, hi, err := parseBound(b)
		if err != nil {
			return err
		}
		p := param(name)
		p.Min, p.Max = lo, hi
		cfg.Params[name] = p
	}
	return nil
}

// parseBound reads name=min:max. An empty side is left unset.
func parseBound(s string) (string, *float64, *float64, error) {
	name, rng, ok := strings.Cut(s, "=")
	lo, hi, ok2 := strings.Cut(rng, ":")
	if !ok || !ok2 || strings.TrimSpace(name) == "" {
		return "", nil, nil, fmt.Errorf("bound %q: want name=min:max", s)
	}
	side := func(v string) (*float64, error) {
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("bound %q: %w", s, err)
		}
		return &f, nil
	}
	lower, err := side(lo)
	if err != nil {
		return "", nil, nil, err
	}
	upper, err := side(hi)
	if err != nil {
		return "", nil, nil, err
	}
	return strings.TrimSpace(name), lower, upper, nil
}

// runFit loads the data, fits the selected rows and writes the run
// directory. It returns that directory.
func runFit(
	cfg *config.Config,
	stdout io.Writer,
	logger *slog.Logger,
	now time.Time,
) (
	string, error,
) {

	dopts, err := cfg.DatasetOptions()
	if err != nil {
		return "", err
	}
	table, err := dataset.Load(cfg.Data.Path, dopts)
	if err != nil {
		return "", err
	}
	logger.Info("data loaded", "path", cfg.Data.Path, "points", table.Len())

	expression, err := cfg.Resolve()
	if err != nil {
		return "", err
	}
	compiler := model.NewCompiler()
	if !compiler.Update(expression) {
		return "", compiler.Err()
	}
	if err := cfg.Apply(compiler.Params()); err != nil {
		return "", err
	}

	window := selection.New(compiler, logger)
	if err := window.SetData(table.X, table.Y); err != nil {
		return "", err
	}
	if err := window.SetSelectedRange(cfg.Range.Min, cfg.Range.Max); err != nil {
		return "", err
	}
	sx, sy := window.Selected()
	if !compiler.Valid() || len(sx) <= 2 {
		return "", fmt.Errorf("%w: %d selected points", ErrNotReady, len(sx))
	}

	dir := output.RunDir(cfg.Output.Dir, cfg.Output.Note, now)
	var runLog output.RunLog
	runLog.Addf("Data: %s (%s vs %s)", cfg.Data.Path, table.YName, table.XName)
	runLog.Addf("Model: %s", expression)
	if i := library.FindModel(expression); i != library.NotFound {
		e, _ := library.At(i)
		runLog.Addf("Preset: %s", e.Name)
	}
	runLog.Addf("Selection: %g%% to %g%% (%d of %d points)", cfg.Range.Min, cfg.Range.Max, len(sx), window.Len())

	engine := fit.NewEngine(cfg.FitOptions(), logger)
	outcome, err := engine.FitCurrent(compiler, sx, sy)
	if err != nil {
		runLog.Addf("Fit failed: %v", err)
		if _, werr := runLog.Write(dir); werr != nil {
			logger.Error("write log", "error", werr)
		}
		return dir, err
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "param\tvalue\tstderr\tlocked")
	for _, p := range compiler.Params().All() {
		se := outcome.Errors[p.Name]
		fmt.Fprintf(tw, "%s\t%.6g\t%.3g\t%t\n", p.Name, p.Value, se, p.Locked)
		runLog.Addf("%s = %.6g ± %.3g%s", p.Name, p.Value, se, lockedNote(p))
	}
	if err := tw.Flush(); err != nil {
		return dir, err
	}
	fmt.Fprintf(stdout, "R^2 = %.6f\nRMSE = %.6g\n", outcome.R2, outcome.RMSE)
	runLog.Addf("R^2 = %.6f", outcome.R2)
	runLog.Addf("RMSE = %.6g", outcome.RMSE)

	if cfg.Output.Plot || cfg.Output.Gnuplot {
		window.UpdateCurve()
		fig := figure(window, expression, table)
		if err := draw(cfg, fig, dir, &runLog, logger); err != nil {
			return dir, err
		}
	}

	path, err := runLog.Write(dir)
	if err != nil {
		return dir, err
	}
	logger.Info("run written", "log", path)
	return dir, nil
}

func lockedNote(p model.Param) string {
	if p.Locked {
		return " (locked)"
	}
	return ""
}

func figure(w *selection.Window, expression string, t *dataset.Table) output.Figure {
	sx, sy := w.Selected()
	nx, ny := w.NotSelected()
	cx, cy := w.Curve()
	rx, r := w.Residuals()
	return output.Figure{
		Title:     expression,
		XLabel:    t.XName,
		YLabel:    t.YName,
		Selected:  output.Series{X: sx, Y: sy},
		Excluded:  output.Series{X: nx, Y: ny},
		Curve:     output.Series{X: cx, Y: cy},
		Residuals: output.Series{X: rx, Y: r},
	}
}

// draw renders the figures the config asks for into dir. A gnuplot failure
// is logged and does not fail the run.
func draw(
	cfg *config.Config,
	fig output.Figure,
	dir string,
	runLog *output.RunLog,
	logger *slog.Logger,
) error {

	fig.Slide = cfg.Output.Slide

	if cfg.Output.Plot {
		p, err := output.FitPlot(fig)
		if err != nil {
			return err
		}
		paths, err := output.Save(p, dir, "fit", cfg.Output.Formats)
		if err != nil {
			return err
		}

		r, err := output.ResidualPlot(fig)
		if err != nil {
			return err
		}
		more, err := output.Save(r, dir, "residuals", cfg.Output.Formats)
		if err != nil {
			return err
		}
		for _, path := range append(paths, more...) {
			runLog.Addf("Figure: %s", filepath.Base(path))
		}
	}

	if cfg.Output.Gnuplot {
		if err := output.Gnuplot(fig, filepath.Join(dir, "gnuplot.png")); err != nil {
			logger.Warn("gnuplot", "error", err)
		}
	}
	return nil
}
