// Package config loads a fit run description from YAML.
//
// Values are resolved in order: built-in defaults, then the file, then
// CURVIFY_* environment variables. Command-line flags are applied by the
// caller afterwards, so Validate is a separate step.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/HamletTheHamster/curvify/internal/dataset"
	"github.com/HamletTheHamster/curvify/internal/fit"
	"github.com/HamletTheHamster/curvify/internal/library"
	"github.com/HamletTheHamster/curvify/internal/model"
)

var (
	ErrUnknownModel = errors.New("unknown preset model")
	ErrUnknownParam = errors.New("unknown parameter")
	ErrParamValue   = errors.New("invalid parameter value")
)

type Config struct {
	// Expression wins over Model when both are set.
	Expression string           `yaml:"expression" validate:"required_without=Model"`
	Model      string           `yaml:"model"`
	Data       Data             `yaml:"data"`
	Range      Range            `yaml:"range"`
	Params     map[string]Param `yaml:"params" validate:"dive"`
	Solver     Solver           `yaml:"solver"`
	Output     Output           `yaml:"output"`
	LogLevel   string           `yaml:"log_level" validate:"oneof=debug info warn error"`
}

type Data struct {
	Path string `yaml:"path" validate:"required"`
	// Delimiter is checked by dataset.ParseDelimiter.
	Delimiter string `yaml:"delimiter"`
	XCol      string `yaml:"x"`
	YCol      string `yaml:"y"`
	NoHeader  bool   `yaml:"no_header"`
}

// Range is the selection window in percent of the x extent.
type Range struct {
	Min float64 `yaml:"min" validate:"gte=0,lte=100"`
	Max float64 `yaml:"max" validate:"gte=0,lte=100,gtefield=Min"`
}

// Param seeds one parameter. Value accepts numbers and multiples of pi.
type Param struct {
	Value  string   `yaml:"value"`
	Locked bool     `yaml:"locked"`
	Min    *float64 `yaml:"min"`
	Max    *float64 `yaml:"max"`
}

type Solver struct {
	Iterations   int     `yaml:"iterations" validate:"gte=0"`
	ObjectiveTol float64 `yaml:"objective_tol" validate:"gte=0"`
	Tau          float64 `yaml:"tau" validate:"gte=0"`
	Eps1         float64 `yaml:"eps1" validate:"gte=0"`
	Eps2         float64 `yaml:"eps2" validate:"gte=0"`
	LockEpsilon  float64 `yaml:"lock_epsilon" validate:"gte=0"`
}

type Output struct {
	Dir     string   `yaml:"dir" validate:"required"`
	Note    string   `yaml:"note"`
	Formats []string `yaml:"formats" validate:"dive,oneof=png svg pdf"`
	Plot    bool     `yaml:"plot"`
	Slide   bool     `yaml:"slide"`
	Gnuplot bool     `yaml:"gnuplot"`
}

func Default() *Config {
	o := fit.DefaultOptions()
	return &Config{
		Data:  Data{Delimiter: ",", XCol: "0", YCol: "1"},
		Range: Range{Min: 0, Max: 100},
		Solver: Solver{
			Iterations:   o.Iterations,
			ObjectiveTol: o.ObjectiveTol,
			Tau:          o.Tau,
			Eps1:         o.Eps1,
			Eps2:         o.Eps2,
			LockEpsilon:  o.LockEpsilon,
		},
		Output: Output{
			Dir:     "plots",
			Formats: []string{"png", "svg", "pdf"},
			Plot:    true,
		},
		LogLevel: "info",
	}
}

// Load returns the defaults overlaid with the file at path, if any, and the
// environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.fromEnv()
	return cfg, nil
}

func (c *Config) fromEnv() {
	if v := os.Getenv("CURVIFY_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("CURVIFY_OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv("CURVIFY_ITERATIONS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			c.Solver.Iterations = i
		}
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := dataset.ParseDelimiter(c.Data.Delimiter); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Expression == "" {
		if _, ok := library.Lookup(c.Model); !ok {
			return fmt.Errorf("invalid config: %w: %q", ErrUnknownModel, c.Model)
		}
	}
	return nil
}

// Resolve returns the expression to compile, looking presets up by name.
func (c *Config) Resolve() (string, error) {
	if c.Expression != "" {
		return c.Expression, nil
	}
	e, ok := library.Lookup(c.Model)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownModel, c.Model)
	}
	return e.Expression, nil
}

func (c *Config) FitOptions() fit.Options {
	return fit.Options{
		Iterations:   c.Solver.Iterations,
		ObjectiveTol: c.Solver.ObjectiveTol,
		Tau:          c.Solver.Tau,
		Eps1:         c.Solver.Eps1,
		Eps2:         c.Solver.Eps2,
		LockEpsilon:  c.Solver.LockEpsilon,
	}
}

func (c *Config) DatasetOptions() (dataset.Options, error) {
	d, err := dataset.ParseDelimiter(c.Data.Delimiter)
	if err != nil {
		return dataset.Options{}, err
	}
	return dataset.Options{
		Delimiter: d,
		Header:    !c.Data.NoHeader,
		XCol:      c.Data.XCol,
		YCol:      c.Data.YCol,
	}, nil
}

// Apply seeds ps from the params section. Every configured name must exist
// in ps; nothing is changed when one does not.
func (c *Config) Apply(ps *model.Params) error {
	for name, p := range c.Params {
		if _, ok := ps.Get(name); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownParam, name)
		}
		if p.Value != "" {
			if _, ok := model.ParseValue(p.Value); !ok {
				return fmt.Errorf("%w: %s = %q", ErrParamValue, name, p.Value)
			}
		}
	}

	for name, p := range c.Params {
		if p.Value != "" {
			ps.SetValueString(name, p.Value)
		}
		ps.SetLocked(name, p.Locked)
		if p.Min != nil || p.Max != nil {
			lo, hi := math.Inf(-1), math.Inf(1)
			if p.Min != nil {
				lo = *p.Min
			}
			if p.Max != nil {
				hi = *p.Max
			}
			ps.SetBounds(name, lo, hi)
		}
	}
	return nil
}
