package model

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Param is one free parameter of a model.
type Param struct {
	Name   string
	Value  float64
	Locked bool
	Min    float64
	Max    float64

	// StdErr is the standard error estimated by the last successful fit, nil
	// until then. Editing the value clears it.
	StdErr *float64
}

// NewParam returns an unlocked, unbounded parameter with value 1.
func NewParam(name string) Param {
	return Param{
		Name:  name,
		Value: 1,
		Min:   math.Inf(-1),
		Max:   math.Inf(1),
	}
}

func (p Param) clone() Param {
	if p.StdErr != nil {
		v := *p.StdErr
		p.StdErr = &v
	}
	return p
}

// Params is an ordered set of uniquely named parameters. The order is the
// order of first occurrence in the model expression and is the order of
// every vector handed to the optimizer.
//
// Setters report whether the mutation was applied. Params does no range
// checking; bounds are only enforced while fitting.
type Params struct {
	list  []Param
	index map[string]int
}

func newParams(names []string) *Params {
	ps := &Params{
		list:  make([]Param, len(names)),
		index: make(map[string]int, len(names)),
	}
	for i, name := range names {
		ps.list[i] = NewParam(name)
		ps.index[name] = i
	}
	return ps
}

func (ps *Params) Len() int { return len(ps.list) }

// Names returns the parameter names in order.
func (ps *Params) Names() []string {
	names := make([]string, len(ps.list))
	for i, p := range ps.list {
		names[i] = p.Name
	}
	return names
}

// All returns a copy of every parameter in order.
func (ps *Params) All() []Param {
	out := make([]Param, len(ps.list))
	for i, p := range ps.list {
		out[i] = p.clone()
	}
	return out
}

// Get returns a copy of the named parameter.
func (ps *Params) Get(name string) (Param, bool) {
	i, ok := ps.index[name]
	if !ok {
		return Param{}, false
	}
	return ps.list[i].clone(), true
}

func (ps *Params) Value(name string) (float64, bool) {
	i, ok := ps.index[name]
	if !ok {
		return 0, false
	}
	return ps.list[i].Value, true
}

func (ps *Params) SetValue(name string, v float64) bool {
	i, ok := ps.index[name]
	if !ok {
		return false
	}
	ps.list[i].Value = v
	ps.list[i].StdErr = nil
	return true
}

// SetValueString parses s and sets the named value. Besides plain numbers it
// accepts multiples and fractions of pi ("pi", "-pi/2", "3*pi/4", "2pi").
func (ps *Params) SetValueString(name, s string) bool {
	v, ok := ParseValue(s)
	if !ok {
		return false
	}
	return ps.SetValue(name, v)
}

func (ps *Params) Locked(name string) (bool, bool) {
	i, ok := ps.index[name]
	if !ok {
		return false, false
	}
	return ps.list[i].Locked, true
}

func (ps *Params) SetLocked(name string, locked bool) bool {
	i, ok := ps.index[name]
	if !ok {
		return false
	}
	ps.list[i].Locked = locked
	return true
}

// SetBounds sets the fitting range of the named parameter. Use ±Inf for an
// open side.
func (ps *Params) SetBounds(name string, min, max float64) bool {
	i, ok := ps.index[name]
	if !ok {
		return false
	}
	ps.list[i].Min = min
	ps.list[i].Max = max
	return true
}

func (ps *Params) StdErr(name string) (float64, bool) {
	i, ok := ps.index[name]
	if !ok || ps.list[i].StdErr == nil {
		return 0, false
	}
	return *ps.list[i].StdErr, true
}

// Values returns the name to value mapping used for evaluation.
func (ps *Params) Values() map[string]float64 {
	m := make(map[string]float64, len(ps.list))
	for _, p := range ps.list {
		m[p.Name] = p.Value
	}
	return m
}

// Vector returns the values in order.
func (ps *Params) Vector() []float64 {
	v := make([]float64, len(ps.list))
	for i, p := range ps.list {
		v[i] = p.Value
	}
	return v
}

// Commit overwrites every value and standard error at once. Both slices must
// be in parameter order; nothing is written when a length differs.
func (ps *Params) Commit(values, stderr []float64) error {
	if len(values) != len(ps.list) || len(stderr) != len(ps.list) {
		return fmt.Errorf("commit %d values and %d errors into %d params",
			len(values), len(stderr), len(ps.list))
	}
	for i := range ps.list {
		e := stderr[i]
		ps.list[i].Value = values[i]
		ps.list[i].StdErr = &e
	}
	return nil
}

// merge copies value, lock and bounds of same-named parameters from old.
func (ps *Params) merge(old *Params) {
	if old == nil {
		return
	}
	for i, p := range ps.list {
		j, ok := old.index[p.Name]
		if !ok {
			continue
		}
		o := old.list[j]
		ps.list[i].Value = o.Value
		ps.list[i].Locked = o.Locked
		ps.list[i].Min = o.Min
		ps.list[i].Max = o.Max
	}
}

//----------------------------------------------------------------------------//

var piValue = regexp.MustCompile(`^(-?)(\d*\.?\d*)\s*\*?\s*pi(?:\s*/\s*(\d+\.?\d*))?$`)

// ParseValue parses a parameter value typed by a user: a float or a pi form
// such as "pi", "pi/2", "2pi", "3*pi/4" or "-pi/3".
func ParseValue(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}

	m := piValue.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return 0, false
	}
	coeff := 1.0
	if m[2] != "" {
		c, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return 0, false
		}
		coeff = c
	}
	v := coeff * math.Pi
	if m[3] != "" {
		d, err := strconv.ParseFloat(m[3], 64)
		if err != nil || d == 0 {
			return 0, false
		}
		v /= d
	}
	if m[1] == "-" {
		v = -v
	}
	return v, true
}
