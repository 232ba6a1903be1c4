package expr

import "math"

type argKind int

const (
	scalarArg argKind = iota
	listArg
)

var unaryFuncs = map[string]func(float64) float64{
	"sin":    math.Sin,
	"cos":    math.Cos,
	"tan":    math.Tan,
	"arcsin": math.Asin,
	"asin":   math.Asin,
	"arccos": math.Acos,
	"acos":   math.Acos,
	"arctan": math.Atan,
	"atan":   math.Atan,
	"sinh":   math.Sinh,
	"cosh":   math.Cosh,
	"tanh":   math.Tanh,
	"exp":    math.Exp,
	"log":    math.Log,
	"ln":     math.Log,
	"log10":  math.Log10,
	"log2":   math.Log2,
	"sqrt":   math.Sqrt,
	"abs":    math.Abs,
	"floor":  math.Floor,
	"ceil":   math.Ceil,
	"sign":   sign,
}

var binaryFuncs = map[string]func(float64, float64) float64{
	"arctan2": math.Atan2,
	"atan2":   math.Atan2,
	"power":   math.Pow,
}

// constants are reserved names that evaluate to fixed values.
var constants = map[string]float64{
	"pi": math.Pi,
}

func signature(
	name string,
) (
	[]argKind, bool,
) {
	if _, ok := unaryFuncs[name]; ok {
		return []argKind{scalarArg}, true
	}
	if _, ok := binaryFuncs[name]; ok {
		return []argKind{scalarArg, scalarArg}, true
	}
	switch name {
	case "polyval":
		return []argKind{listArg, scalarArg}, true
	case "fourier":
		return []argKind{scalarArg, scalarArg, listArg}, true
	}
	return nil, false
}

// IsFunction reports whether name is a whitelisted function.
func IsFunction(name string) bool {
	_, ok := signature(name)
	return ok
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	case v == 0:
		return 0
	}
	return math.NaN()
}

// Polyval evaluates the polynomial with coefficients c at x. Coefficients are
// ordered from the highest degree down to the constant term.
func Polyval(c []float64, x float64) float64 {
	var y float64
	for _, v := range c {
		y = y*x + v
	}
	return y
}

// Fourier evaluates a truncated Fourier series with fundamental frequency f0:
//
//	c[0] + sum_{i=1..n} c[2i-1]*cos(i*w0*x) + c[2i]*sin(i*w0*x)
//
// where w0 = 2*pi*f0 and n = (len(c)-1)/2. An unpaired trailing coefficient
// is ignored.
func Fourier(x, f0 float64, c []float64) float64 {
	if len(c) == 0 {
		return 0
	}
	n := (len(c) - 1) / 2
	w0 := 2 * math.Pi * f0
	y := c[0]
	for i := 1; i <= n; i++ {
		y += c[2*i-1]*math.Cos(float64(i)*w0*x) + c[2*i]*math.Sin(float64(i)*w0*x)
	}
	return y
}
