// Package expr parses algebraic model expressions over an independent
// variable and named free parameters and compiles them into closures.
//
// The language covers numbers, the variable x, the constant pi, free
// parameters, + - * / and ** (or ^), parentheses, and a fixed table of
// numeric functions. Nothing outside that table can be called.
package expr

import (
	"fmt"
	"math"
)

// Var is the independent variable.
const Var = "x"

// Func evaluates a compiled expression at x with parameter values p, given in
// the order returned by Expr.Params. A Func holds no mutable state and is safe
// for concurrent use.
type Func func(x float64, p []float64) float64

// Expr is a parsed and compiled expression.
type Expr struct {
	src    string
	params []string
	fn     Func
}

// Parse parses src. Free parameters are every bare identifier other than x,
// pi and the function names, in order of first occurrence. Errors are of type
// *SyntaxError.
func Parse(src string) (*Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	if toks[0].kind == tokEOF {
		return nil, errorf(0, "empty expression")
	}

	p := &parser{toks: toks, seen: map[string]bool{}}
	root, err := p.sum()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, errorf(t.pos, "unexpected %s", describe(t))
	}

	slots := make(map[string]int, len(p.params))
	for i, name := range p.params {
		slots[name] = i
	}

	return &Expr{
		src:    src,
		params: p.params,
		fn:     compile(root, slots),
	}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(src string) *Expr {
	e, err := Parse(src)
	if err != nil {
		panic(fmt.Sprintf("expr: %q: %v", src, err))
	}
	return e
}

func (e *Expr) String() string { return e.src }

// Params returns a copy of the parameter names in slot order.
func (e *Expr) Params() []string {
	return append([]string(nil), e.params...)
}

// Func returns the compiled closure.
func (e *Expr) Func() Func { return e.fn }

// Eval evaluates the expression. len(p) must equal len(e.Params()).
func (e *Expr) Eval(x float64, p []float64) float64 { return e.fn(x, p) }

func compile(
	n node,
	slots map[string]int,
) (
	Func,
) {

	switch n := n.(type) {
	case *numberNode:
		v := n.v
		return func(float64, []float64) float64 { return v }

	case *varNode:
		return func(x float64, _ []float64) float64 { return x }

	case *paramNode:
		i := slots[n.name]
		return func(_ float64, p []float64) float64 { return p[i] }

	case *negNode:
		arg := compile(n.arg, slots)
		return func(x float64, p []float64) float64 { return -arg(x, p) }

	case *binaryNode:
		l, r := compile(n.l, slots), compile(n.r, slots)
		switch n.op {
		case "+":
			return func(x float64, p []float64) float64 { return l(x, p) + r(x, p) }
		case "-":
			return func(x float64, p []float64) float64 { return l(x, p) - r(x, p) }
		case "*":
			return func(x float64, p []float64) float64 { return l(x, p) * r(x, p) }
		case "/":
			return func(x float64, p []float64) float64 { return l(x, p) / r(x, p) }
		case "**":
			return func(x float64, p []float64) float64 { return math.Pow(l(x, p), r(x, p)) }
		}

	case *callNode:
		return compileCall(n, slots)
	}

	panic(fmt.Sprintf("expr: unhandled node %T", n))
}

func compileCall(n *callNode, slots map[string]int) Func {
	args := make([]Func, len(n.args))
	for i, a := range n.args {
		args[i] = compile(a, slots)
	}

	if f, ok := unaryFuncs[n.name]; ok {
		a := args[0]
		return func(x float64, p []float64) float64 { return f(a(x, p)) }
	}
	if f, ok := binaryFuncs[n.name]; ok {
		a, b := args[0], args[1]
		return func(x float64, p []float64) float64 { return f(a(x, p), b(x, p)) }
	}

	items := make([]Func, len(n.lists[0]))
	for i, it := range n.lists[0] {
		items[i] = compile(it, slots)
	}
	evalList := func(x float64, p []float64) []float64 {
		c := make([]float64, len(items))
		for i, it := range items {
			c[i] = it(x, p)
		}
		return c
	}

	switch n.name {
	case "polyval":
		at := args[0]
		return func(x float64, p []float64) float64 { return Polyval(evalList(x, p), at(x, p)) }
	case "fourier":
		at, f0 := args[0], args[1]
		return func(x float64, p []float64) float64 { return Fourier(at(x, p), f0(x, p), evalList(x, p)) }
	}

	panic(fmt.Sprintf("expr: no implementation for %q", n.name))
}
