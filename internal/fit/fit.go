// Package fit fits compiled models to data by bounded nonlinear least
// squares.
//
// The solver is Levenberg-Marquardt from github.com/maorshutman/lm with a
// numerical Jacobian. Bounds are honoured by solving in a transformed space,
// and locked parameters are held exactly at their value. The solver is local:
// the result depends on the starting values and no restarts are attempted.
package fit

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/maorshutman/lm"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/HamletTheHamster/curvify/internal/model"
)

var (
	ErrLengthMismatch = errors.New("x and y lengths differ")
	ErrTooFewPoints   = errors.New("not enough points")
	ErrBoundsInvalid  = errors.New("invalid bounds")
	ErrNonConvergence = errors.New("fit did not converge")
)

// Options configures the solver. The zero value of a field selects its
// default.
type Options struct {
	Iterations   int
	ObjectiveTol float64
	Tau          float64
	Eps1         float64
	Eps2         float64

	// LockEpsilon is the width of the window a locked parameter is pinned to.
	LockEpsilon float64
}

func DefaultOptions() Options {
	return Options{
		Iterations:   1000,
		ObjectiveTol: 1e-16,
		Tau:          1e-6,
		Eps1:         1e-8,
		Eps2:         1e-8,
		LockEpsilon:  1e-15,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Iterations <= 0 {
		o.Iterations = d.Iterations
	}
	if o.ObjectiveTol <= 0 {
		o.ObjectiveTol = d.ObjectiveTol
	}
	if o.Tau <= 0 {
		o.Tau = d.Tau
	}
	if o.Eps1 <= 0 {
		o.Eps1 = d.Eps1
	}
	if o.Eps2 <= 0 {
		o.Eps2 = d.Eps2
	}
	if o.LockEpsilon <= 0 {
		o.LockEpsilon = d.LockEpsilon
	}
	return o
}

// Outcome is the result of a successful fit.
type Outcome struct {
	Success bool

	// Params and Errors map each parameter name to its fitted value and
	// standard error. Locked parameters have a zero error.
	Params map[string]float64
	Errors map[string]float64

	R2     float64
	RMSE   float64
	Points int
}

// Engine runs fits. It keeps no state between calls.
type Engine struct {
	opts Options
	log  *slog.Logger
}

// NewEngine returns an engine; a nil logger discards output.
func NewEngine(opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{opts: opts.withDefaults(), log: logger}
}

func (e *Engine) Options() Options { return e.opts }

// FitCurrent fits the current model of c. It fails with
// model.ErrInvalidModel when the last expression did not compile.
func (e *Engine) FitCurrent(c *model.Compiler, x, y []float64) (*Outcome, error) {
	m, err := c.Current()
	if err != nil {
		return nil, err
	}
	return e.Fit(m, x, y)
}

// Fit minimises sum((m(x_i) - y_i)^2) over the parameters of m, starting from
// their current values. On success the fitted values and standard errors are
// written into m.Params(); on any error the parameters are left untouched.
//
// At least as many points as free parameters are required. Callers are
// expected to only offer fitting with more than two points.
func (e *Engine) Fit(m *model.Model, x, y []float64) (*Outcome, error) {
	if m == nil {
		return nil, model.ErrInvalidModel
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(x), len(y))
	}

	params := m.Params().All()
	bounds, err := buildBounds(params, e.opts.LockEpsilon)
	if err != nil {
		e.log.Warn("fit rejected", "model", m.Expression(), "error", err)
		return nil, err
	}

	var free []int
	for i, b := range bounds {
		if !b.fixed {
			free = append(free, i)
		}
	}
	n := len(x)
	if n == 0 || n < len(free) {
		return nil, fmt.Errorf("%w: %d points for %d free parameters", ErrTooFewPoints, n, len(free))
	}

	start := m.Params().Vector()

	// expand maps internal free coordinates to a full external vector. It
	// allocates per call because the Jacobian is evaluated concurrently.
	expand := func(u []float64) []float64 {
		p := make([]float64, len(start))
		copy(p, start)
		for k, i := range free {
			p[i] = bounds[i].toExternal(u[k])
		}
		return p
	}
	residuals := func(dst, p []float64) {
		for j := range x {
			dst[j] = m.EvalWith(x[j], p) - y[j]
		}
	}

	r0 := make([]float64, n)
	residuals(r0, start)
	if !allFinite(r0) {
		return nil, fmt.Errorf("%w: residuals are not finite at the initial point", ErrNonConvergence)
	}

	e.log.Debug("fit started", "model", m.Expression(), "points", n, "free", len(free))

	solution := start
	if len(free) > 0 {
		f := func(dst, u []float64) {
			residuals(dst, expand(u))
		}
		u0 := make([]float64, len(free))
		for k, i := range free {
			u0[k] = bounds[i].toInternal(bounds[i].inside(start[i]))
		}

		if !finiteJacobian(f, u0, n) {
			e.log.Warn("fit rejected", "model", m.Expression(), "error", "jacobian not finite at start")
			return nil, fmt.Errorf("%w: jacobian is not finite at the initial point", ErrNonConvergence)
		}

		jacobian := lm.NumJac{Func: f}

		toBeSolved := lm.LMProblem{
			Dim:        len(free),
			Size:       n,
			Func:       f,
			Jac:        jacobian.Jac,
			InitParams: u0,
			Tau:        e.opts.Tau,
			Eps1:       e.opts.Eps1,
			Eps2:       e.opts.Eps2,
		}

		u, err := solve(toBeSolved, &lm.Settings{
			Iterations:   e.opts.Iterations,
			ObjectiveTol: e.opts.ObjectiveTol,
		})
		if err != nil {
			e.log.Warn("fit failed", "model", m.Expression(), "error", err)
			return nil, err
		}
		solution = expand(u)
	}

	res := make([]float64, n)
	residuals(res, solution)
	if !allFinite(solution) || !allFinite(res) {
		e.log.Warn("fit failed", "model", m.Expression(), "error", "non-finite solution")
		return nil, fmt.Errorf("%w: non-finite solution", ErrNonConvergence)
	}

	stderr := make([]float64, len(params))
	if len(free) > 0 {
		g := func(dst, v []float64) {
			p := make([]float64, len(solution))
			copy(p, solution)
			for k, i := range free {
				p[i] = v[k]
			}
			residuals(dst, p)
		}
		vFree := make([]float64, len(free))
		for k, i := range free {
			vFree[k] = solution[i]
		}
		sd := standardErrors(g, vFree, n, floats.Dot(res, res))
		for k, i := range free {
			stderr[i] = sd[k]
		}
	}

	fitted := make([]float64, n)
	for j := range x {
		fitted[j] = res[j] + y[j]
	}

	out := &Outcome{
		Success: true,
		Params:  make(map[string]float64, len(params)),
		Errors:  make(map[string]float64, len(params)),
		R2:      stat.RSquaredFrom(fitted, y, nil),
		RMSE:    floats.Norm(res, 2) / math.Sqrt(float64(n)),
		Points:  n,
	}
	for i, p := range params {
		out.Params[p.Name] = solution[i]
		out.Errors[p.Name] = stderr[i]
	}

	if err := m.Params().Commit(solution, stderr); err != nil {
		return nil, err
	}

	e.log.Info("fit converged", "model", m.Expression(), "points", n, "r2", out.R2, "rmse", out.RMSE)
	return out, nil
}

func allFinite(v []float64) bool {
	for _, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// solve runs the solver and turns its failure modes into ErrNonConvergence:
// an error, hitting the iteration limit, or a panic from a singular step.
func solve(
	problem lm.LMProblem,
	settings *lm.Settings,
) (
	x []float64, err error,
) {

	defer func() {
		if r := recover(); r != nil {
			x, err = nil, fmt.Errorf("%w: solver: %v", ErrNonConvergence, r)
		}
	}()

	results, err := lm.LM(problem, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNonConvergence, err)
	}
	if results.Status == optimize.IterationLimit {
		return nil, fmt.Errorf("%w: iteration limit %d reached", ErrNonConvergence, settings.Iterations)
	}
	return results.X, nil
}

// finiteJacobian reports whether the central-difference Jacobian of f at u
// is finite everywhere.
func finiteJacobian(f func(dst, u []float64), u []float64, n int) bool {
	jac := mat.NewDense(n, len(u), nil)
	fd.Jacobian(jac, f, u, &fd.JacobianSettings{Formula: fd.Central})
	return allFinite(jac.RawMatrix().Data)
}
