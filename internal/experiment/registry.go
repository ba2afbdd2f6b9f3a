package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/moosim/internal/config"
	"github.com/san-kum/moosim/internal/integrators"
	"github.com/san-kum/moosim/internal/metrics"
	"github.com/san-kum/moosim/internal/models"
	"github.com/san-kum/moosim/internal/sim"
)

// StabilityBound is the state magnitude above which a sample counts as
// unstable in the default metrics.
const StabilityBound = 1e3

type Registry struct {
	models   map[string]func() *models.Model
	steppers map[string]func(cfg *config.Config) sim.Stepper
}

func NewRegistry() *Registry {
	r := &Registry{
		models:   make(map[string]func() *models.Model),
		steppers: make(map[string]func(cfg *config.Config) sim.Stepper),
	}

	for _, name := range models.Names() {
		name := name
		r.models[name] = func() *models.Model {
			m, _ := models.Get(name)
			return m
		}
	}

	r.steppers["euler"] = func(cfg *config.Config) sim.Stepper { return integrators.NewEuler(cfg.Substeps) }
	r.steppers["rk4"] = func(cfg *config.Config) sim.Stepper { return integrators.NewRK4(cfg.Substeps) }
	r.steppers["implicit_euler"] = func(cfg *config.Config) sim.Stepper { return integrators.NewImplicitEuler(cfg.Substeps) }
	r.steppers["rk45"] = func(cfg *config.Config) sim.Stepper {
		s := integrators.NewRK45()
		s.AbsTol = cfg.Tolerance.Abs
		s.RelTol = cfg.Tolerance.Rel
		return s
	}

	return r
}

// RegisterModel adds or replaces a model constructor.
func (r *Registry) RegisterModel(name string, fn func() *models.Model) {
	r.models[name] = fn
}

func (r *Registry) GetModel(name string) (*models.Model, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownModel, name)
	}
	return fn(), nil
}

// GetStepper builds a new stepper configured from cfg.
func (r *Registry) GetStepper(name string, cfg *config.Config) (sim.Stepper, error) {
	fn, ok := r.steppers[name]
	if !ok {
		return nil, fmt.Errorf("unknown stepper: %s", name)
	}
	return fn(cfg), nil
}

func (r *Registry) ListModels() []string {
	return sortedKeys(r.models)
}

func (r *Registry) ListSteppers() []string {
	return sortedKeys(r.steppers)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns fresh metrics suited to model m run with
// parameters p.
func (r *Registry) DefaultMetrics(m *models.Model, p []float64) []metrics.Metric {
	ms := []metrics.Metric{
		metrics.NewQuadraticCost(),
		metrics.NewStability(StabilityBound),
	}
	if m.ControlDim > 0 {
		ms = append(ms, metrics.NewControlEffort())
	}

	switch m.Name {
	case "mwe":
		ms = append(ms, metrics.NewTerminalError(models.MWETarget))
	case "spring_mass":
		params := append([]float64(nil), p...)
		ms = append(ms, metrics.NewEnergyDrift(func(x []float64) float64 {
			return models.SpringEnergy(x, params)
		}))
	}
	return ms
}
