package config

import (
	"sort"

	"github.com/san-kum/moosim/internal/jacobian"
	"github.com/san-kum/moosim/internal/models"
)

var Presets = map[string]map[string]*Config{
	"mwe": {
		"optimal": {
			Model: "mwe", Stepper: "rk45", Substeps: 1,
			Grid:      GridConfig{Start: 0, Stop: models.MWEHorizon, Points: 20001},
			Params:    map[string]float64{"p": models.MWEOptimalP},
			Controls:  ControlConfig{Kind: ControlsMWEOptimal},
			Tolerance: ToleranceConfig{Abs: 1e-10, Rel: 1e-8},
		},
		"uncontrolled": {
			Model: "mwe", Stepper: "rk4", Substeps: 10,
			Grid:      GridConfig{Start: 0, Stop: 10, Points: 101},
			Controls:  ControlConfig{Kind: ControlsZero},
			Tolerance: ToleranceConfig{Abs: DefaultAbsTol, Rel: DefaultRelTol},
		},
	},
	"vanderpol": {
		"limit_cycle": {
			Model: "vanderpol", Stepper: "rk45", Substeps: 1,
			Grid:      GridConfig{Start: 0, Stop: 20, Points: 401},
			Tolerance: ToleranceConfig{Abs: DefaultAbsTol, Rel: DefaultRelTol},
		},
		"stiff": {
			Model: "vanderpol", Stepper: "implicit_euler", Substeps: 50, Jacobian: jacobian.COO,
			Grid:      GridConfig{Start: 0, Stop: 3000, Points: 301},
			Params:    map[string]float64{"mu": 1000},
			Tolerance: ToleranceConfig{Abs: DefaultAbsTol, Rel: DefaultRelTol},
		},
	},
	"lorenz": {
		"classic": {
			Model: "lorenz", Stepper: "rk45", Substeps: 1,
			Grid:      GridConfig{Start: 0, Stop: 25, Points: 2501},
			Tolerance: ToleranceConfig{Abs: 1e-10, Rel: 1e-8},
		},
		"periodic": {
			Model: "lorenz", Stepper: "rk4", Substeps: 10,
			Grid:      GridConfig{Start: 0, Stop: 25, Points: 2501},
			Params:    map[string]float64{"rho": 160},
			Tolerance: ToleranceConfig{Abs: DefaultAbsTol, Rel: DefaultRelTol},
		},
	},
	"spring_mass": {
		"free": {
			Model: "spring_mass", Stepper: "rk4", Substeps: 10,
			Grid:      GridConfig{Start: 0, Stop: 20, Points: 2001},
			Tolerance: ToleranceConfig{Abs: DefaultAbsTol, Rel: DefaultRelTol},
		},
		"forced": {
			Model: "spring_mass", Stepper: "rk4", Substeps: 10,
			Grid:      GridConfig{Start: 0, Stop: 20, Points: 2001},
			InitState: []float64{0, 0},
			Controls:  ControlConfig{Kind: ControlsConstant, Values: [][]float64{{5}}},
			Tolerance: ToleranceConfig{Abs: DefaultAbsTol, Rel: DefaultRelTol},
		},
		"ramp": {
			Model: "spring_mass", Stepper: "rk45", Substeps: 1, Jacobian: jacobian.CSC,
			Grid:      GridConfig{Start: 0, Stop: 20, Points: 2001},
			InitState: []float64{0, 0},
			Controls: ControlConfig{
				Kind:   ControlsLinear,
				Times:  []float64{0, 10, 20},
				Values: [][]float64{{0, 10, 0}},
			},
			Tolerance: ToleranceConfig{Abs: DefaultAbsTol, Rel: DefaultRelTol},
		},
	},
	"robertson": {
		"standard": {
			Model: "robertson", Stepper: "implicit_euler", Substeps: 20, Jacobian: jacobian.CSC,
			Grid:      GridConfig{Start: 0, Stop: 40, Points: 41},
			Tolerance: ToleranceConfig{Abs: DefaultAbsTol, Rel: DefaultRelTol},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	out := cfg.Clone()
	if out.LogLevel == "" {
		out.LogLevel = "info"
	}
	return out
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
