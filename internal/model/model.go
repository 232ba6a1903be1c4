// Package model compiles model expressions and holds their parameters.
package model

import (
	"errors"
	"fmt"

	"github.com/HamletTheHamster/curvify/internal/expr"
)

var (
	// ErrCompile wraps every expression error.
	ErrCompile = errors.New("invalid model expression")

	// ErrInvalidModel is returned when a model is required but the last
	// compilation failed or none was made.
	ErrInvalidModel = errors.New("no valid model")
)

// Model is a compiled expression paired with the parameters of its signature.
type Model struct {
	expression string
	fn         expr.Func
	params     *Params
}

// Compile parses expression and returns a model whose parameters are fresh:
// value 1, unlocked, unbounded.
func Compile(expression string) (*Model, error) {
	e, err := expr.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompile, err)
	}
	return &Model{
		expression: expression,
		fn:         e.Func(),
		params:     newParams(e.Params()),
	}, nil
}

func (m *Model) Expression() string { return m.expression }

func (m *Model) Params() *Params { return m.params }

// Eval evaluates the model at x with the current parameter values.
func (m *Model) Eval(x float64) float64 {
	return m.fn(x, m.params.Vector())
}

// EvalAll evaluates the model at every x with the current parameter values.
func (m *Model) EvalAll(xs []float64) []float64 {
	p := m.params.Vector()
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = m.fn(x, p)
	}
	return ys
}

// EvalWith evaluates the model at x with values given in parameter order. It
// does not touch the parameter set and is safe for concurrent use.
func (m *Model) EvalWith(x float64, values []float64) float64 {
	return m.fn(x, values)
}

//----------------------------------------------------------------------------//

// Policy decides what happens to parameter settings when the expression is
// recompiled.
type Policy int

const (
	// ResetParams starts every recompiled model with fresh parameters.
	ResetParams Policy = iota

	// MergeParams carries value, lock and bounds over for parameters whose
	// name survives the edit.
	MergeParams
)

// Compiler tracks the model behind an editable expression. A failed Update
// clears the valid flag and keeps the previous model and parameters.
type Compiler struct {
	Policy Policy

	current *Model
	valid   bool
	err     error
}

func NewCompiler() *Compiler {
	return &Compiler{}
}

// Update compiles expression and reports whether it is valid.
func (c *Compiler) Update(expression string) bool {
	m, err := Compile(expression)
	if err != nil {
		c.valid = false
		c.err = err
		return false
	}
	if c.Policy == MergeParams && c.current != nil {
		m.params.merge(c.current.params)
	}
	c.current = m
	c.valid = true
	c.err = nil
	return true
}

func (c *Compiler) Valid() bool { return c.valid }

// Err returns the error of the last failed Update, or nil.
func (c *Compiler) Err() error { return c.err }

// Current returns the model of the last successful Update, or
// ErrInvalidModel when the last Update failed.
func (c *Compiler) Current() (*Model, error) {
	if !c.valid || c.current == nil {
		if c.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidModel, c.err)
		}
		return nil, ErrInvalidModel
	}
	return c.current, nil
}

// Params returns the parameters of the last successfully compiled model,
// even while the current expression is invalid. It is nil before the first
// successful Update.
func (c *Compiler) Params() *Params {
	if c.current == nil {
		return nil
	}
	return c.current.params
}
