// Package library is the catalog of preset models.
package library

import (
	"regexp"
	"strings"
	"unicode"
)

// NotFound is returned by FindModel when no preset matches.
const NotFound = -1

type Entry struct {
	Name       string
	Expression string
}

var catalog = []Entry{
	{"Linear", "a * x + b"},
	{"Quadratic", "a * x**2 + b * x + c"},
	{"Cubic", "a * x**3 + b * x**2 + c * x + d"},
	{"Polynomial", "polyval([a, b, c, d, e], x)"},
	{"Exponential", "a * exp(b * x) + c"},
	{"Exponential with offset", "a * exp(b * (x - c)) + d"},
	{"Logarithmic", "a * log(b * x + c) + d"},
	{"Power Law", "a * x**b + c"},
	{"Sine", "a * sin(b * x + c) + d"},
	{"Damped Sine", "a * exp(-c * x) * sin(b * x + d) + e"},
	{"Hyperbola", "a / (x + b) + c"},
	{"Rational", "(a * x + b) / (c * x + d)"},
	{"Logistic", "a / (1 + exp(-b * (x - c))) + d"},
	{"Gompertz", "a * exp(-b * exp(-c * x)) + d"},
	{"Gaussian", "a * exp(-((x - b)**2) / (2 * c**2)) + d"},
	{"Lorentzian", "a / (1 + ((x - b) / c)**2) + d"},
	{"Weibull", "a * exp(-((x - b) / c)**d)"},
	{"Fourier Series (n=2)", "a0 + a1 * cos(f0 * x) + b1 * sin(f0 * x) + a2 * cos(2 * f0 * x) + b2 * sin(2 * f0 * x)"},
	{"Fourier (general)", "fourier(x, f0, [a0, a1, b1, a2, b2, a3, b3, a4, b4, a5, b5])"},
}

// Entries returns the catalog in display order.
func Entries() []Entry {
	return append([]Entry(nil), catalog...)
}

func Names() []string {
	names := make([]string, len(catalog))
	for i, e := range catalog {
		names[i] = e.Name
	}
	return names
}

func Len() int { return len(catalog) }

// At returns the i-th entry.
func At(i int) (Entry, bool) {
	if i < 0 || i >= len(catalog) {
		return Entry{}, false
	}
	return catalog[i], true
}

// Lookup finds an entry by name, ignoring case.
func Lookup(name string) (Entry, bool) {
	for _, e := range catalog {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return Entry{}, false
}

// FindModel returns the index of the first preset whose expression equals
// expression once whitespace and numpy "np." prefixes are removed from both,
// or NotFound.
func FindModel(expression string) int {
	want := canonical(expression)
	for i, e := range catalog {
		if canonical(e.Expression) == want {
			return i
		}
	}
	return NotFound
}

var numpyPrefix = regexp.MustCompile(`\bnp\.`)

func canonical(s string) string {
	return numpyPrefix.ReplaceAllString(stripSpace(s), "")
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
