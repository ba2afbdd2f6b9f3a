package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/moosim/internal/jacobian"
	"github.com/san-kum/moosim/internal/logging"
	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"
)

const (
	DefaultModel    = "mwe"
	DefaultStepper  = "rk45"
	DefaultStop     = 100.0
	DefaultPoints   = 1001
	DefaultSubsteps = 10
	DefaultAbsTol   = 1e-8
	DefaultRelTol   = 1e-6
)

// Control kinds.
const (
	ControlsDefault    = ""
	ControlsZero       = "zero"
	ControlsConstant   = "constant"
	ControlsLinear     = "linear"
	ControlsHold       = "hold"
	ControlsMWEOptimal = "mwe_optimal"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Model     string             `yaml:"model"`
	Stepper   string             `yaml:"stepper"`
	Jacobian  jacobian.Format    `yaml:"jacobian"`
	Grid      GridConfig         `yaml:"grid"`
	InitState []float64          `yaml:"init_state,omitempty"`
	Params    map[string]float64 `yaml:"params,omitempty"`
	Controls  ControlConfig      `yaml:"controls"`
	Tolerance ToleranceConfig    `yaml:"tolerance"`
	Substeps  int                `yaml:"substeps"`
	LogLevel  string             `yaml:"log_level"`
}

// GridConfig is an evenly spaced output grid of Points samples.
type GridConfig struct {
	Start  float64 `yaml:"start"`
	Stop   float64 `yaml:"stop"`
	Points int     `yaml:"points"`
}

// ControlConfig describes an open-loop input. Values holds one series per
// control component, each as long as Times; constant inputs use the first
// value of every series.
type ControlConfig struct {
	Kind   string      `yaml:"kind,omitempty"`
	Times  []float64   `yaml:"times,omitempty"`
	Values [][]float64 `yaml:"values,omitempty"`
}

type ToleranceConfig struct {
	Abs float64 `yaml:"abs"`
	Rel float64 `yaml:"rel"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:    DefaultModel,
		Stepper:  DefaultStepper,
		Jacobian: jacobian.Dense,
		Grid: GridConfig{
			Start:  0,
			Stop:   DefaultStop,
			Points: DefaultPoints,
		},
		Tolerance: ToleranceConfig{
			Abs: DefaultAbsTol,
			Rel: DefaultRelTol,
		},
		Substeps: DefaultSubsteps,
		LogLevel: "info",
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields that do not depend on the chosen model.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("%w: model is empty", ErrInvalid)
	}
	if c.Stepper == "" {
		return fmt.Errorf("%w: stepper is empty", ErrInvalid)
	}
	if c.Grid.Points < 1 {
		return fmt.Errorf("%w: grid needs at least one point, got %d", ErrInvalid, c.Grid.Points)
	}
	if c.Grid.Points > 1 && c.Grid.Stop <= c.Grid.Start {
		return fmt.Errorf("%w: grid stop %g not after start %g", ErrInvalid, c.Grid.Stop, c.Grid.Start)
	}
	if c.Substeps < 1 {
		return fmt.Errorf("%w: substeps must be positive, got %d", ErrInvalid, c.Substeps)
	}
	if c.Tolerance.Abs <= 0 || c.Tolerance.Rel < 0 {
		return fmt.Errorf("%w: tolerance abs=%g rel=%g", ErrInvalid, c.Tolerance.Abs, c.Tolerance.Rel)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	switch c.Controls.Kind {
	case ControlsDefault, ControlsZero, ControlsMWEOptimal:
	case ControlsConstant:
		if len(c.Controls.Values) == 0 {
			return fmt.Errorf("%w: constant controls need values", ErrInvalid)
		}
		for i, series := range c.Controls.Values {
			if len(series) == 0 {
				return fmt.Errorf("%w: constant control %d has no value", ErrInvalid, i)
			}
		}
	case ControlsLinear, ControlsHold:
		if len(c.Controls.Times) == 0 || len(c.Controls.Values) == 0 {
			return fmt.Errorf("%w: %s controls need times and values", ErrInvalid, c.Controls.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown control kind %q", ErrInvalid, c.Controls.Kind)
	}
	return nil
}

// GridPoints expands the grid into its sample times.
func (c *Config) GridPoints() []float64 {
	if c.Grid.Points <= 1 {
		return []float64{c.Grid.Start}
	}
	return floats.Span(make([]float64, c.Grid.Points), c.Grid.Start, c.Grid.Stop)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.InitState = append([]float64(nil), c.InitState...)
	if c.Params != nil {
		out.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	out.Controls.Times = append([]float64(nil), c.Controls.Times...)
	if c.Controls.Values != nil {
		out.Controls.Values = make([][]float64, len(c.Controls.Values))
		for i, series := range c.Controls.Values {
			out.Controls.Values[i] = append([]float64(nil), series...)
		}
	}
	return &out
}
