package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HamletTheHamster/curvify/internal/fit"
	"github.com/HamletTheHamster/curvify/internal/model"
)

func write(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := write(t, `
model: Gaussian
data:
  path: run.csv
  delimiter: ";"
  x: freq
  y: signal
range:
  min: 10
  max: 90
params:
  a:
    value: 2.5
  b:
    value: pi/2
    locked: true
  c:
    min: 0
solver:
  iterations: 50
output:
  formats: [png]
  note: first pass
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "Gaussian", cfg.Model)
	assert.Equal(t, Range{Min: 10, Max: 90}, cfg.Range)
	assert.Equal(t, []string{"png"}, cfg.Output.Formats)
	assert.Equal(t, "plots", cfg.Output.Dir)
	assert.True(t, cfg.Output.Plot)
	assert.Equal(t, "info", cfg.LogLevel)

	o := cfg.FitOptions()
	assert.Equal(t, 50, o.Iterations)
	assert.Equal(t, fit.DefaultOptions().Tau, o.Tau)

	d, err := cfg.DatasetOptions()
	require.NoError(t, err)
	assert.Equal(t, ';', d.Delimiter)
	assert.True(t, d.Header)
	assert.Equal(t, "freq", d.XCol)

	expr, err := cfg.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "a * exp(-((x - b)**2) / (2 * c**2)) + d", expr)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	t.Setenv("CURVIFY_LOG_LEVEL", "debug")
	t.Setenv("CURVIFY_ITERATIONS", "7")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 7, cfg.Solver.Iterations)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(write(t, "range: [1, 2"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := Default()
		c.Expression = "a * x + b"
		c.Data.Path = "data.csv"
		return c
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(c *Config){
		"no model":        func(c *Config) { c.Expression = "" },
		"unknown preset":  func(c *Config) { c.Expression, c.Model = "", "Spline" },
		"no data":         func(c *Config) { c.Data.Path = "" },
		"min above max":   func(c *Config) { c.Range = Range{Min: 60, Max: 40} },
		"above 100":       func(c *Config) { c.Range.Max = 101 },
		"negative":        func(c *Config) { c.Range.Min = -1 },
		"bad format":      func(c *Config) { c.Output.Formats = []string{"gif"} },
		"bad level":       func(c *Config) { c.LogLevel = "trace" },
		"bad delimiter":   func(c *Config) { c.Data.Delimiter = ":" },
		"negative solver": func(c *Config) { c.Solver.Iterations = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestResolveUnknownModel(t *testing.T) {
	c := Default()
	c.Model = "nope"
	_, err := c.Resolve()
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestApply(t *testing.T) {
	m, err := model.Compile("a * sin(b * x) + c")
	require.NoError(t, err)

	lo := 0.0
	c := Default()
	c.Params = map[string]Param{
		"a": {Value: "3"},
		"b": {Value: "2pi", Locked: true},
		"c": {Min: &lo},
	}
	require.NoError(t, c.Apply(m.Params()))

	a, _ := m.Params().Get("a")
	assert.Equal(t, 3.0, a.Value)
	b, _ := m.Params().Get("b")
	assert.InDelta(t, 2*math.Pi, b.Value, 1e-12)
	assert.True(t, b.Locked)
	cp, _ := m.Params().Get("c")
	assert.Equal(t, 0.0, cp.Min)
	assert.True(t, math.IsInf(cp.Max, 1))
}

func TestApplyRejectsWithoutChanges(t *testing.T) {
	m, err := model.Compile("a * x + b")
	require.NoError(t, err)
	before := m.Params().All()

	c := Default()
	c.Params = map[string]Param{"a": {Value: "5"}, "z": {Value: "1"}}
	assert.ErrorIs(t, c.Apply(m.Params()), ErrUnknownParam)

	c.Params = map[string]Param{"a": {Value: "5"}, "b": {Value: "five"}}
	assert.ErrorIs(t, c.Apply(m.Params()), ErrParamValue)

	assert.Equal(t, before, m.Params().All())
}
