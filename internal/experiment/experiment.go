package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/moosim/internal/config"
	"github.com/san-kum/moosim/internal/control"
	"github.com/san-kum/moosim/internal/dynamo"
	"github.com/san-kum/moosim/internal/metrics"
	"github.com/san-kum/moosim/internal/models"
	"github.com/san-kum/moosim/internal/optim"
	"github.com/san-kum/moosim/internal/sim"
	"github.com/san-kum/moosim/internal/storage"
	"go.uber.org/zap"
)

// Experiment is a validated configuration bound to a model. It builds a
// fresh integrator for every run, so runs may proceed concurrently.
type Experiment struct {
	cfg    *config.Config
	reg    *Registry
	model  *models.Model
	params []float64
	logger *zap.Logger
}

type Result struct {
	Trajectory *dynamo.Trajectory
	Metrics    map[string]float64
	Elapsed    time.Duration
}

// New validates cfg against the registry and the chosen model.
func New(cfg *config.Config, reg *Registry, logger *zap.Logger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	model, err := reg.GetModel(cfg.Model)
	if err != nil {
		return nil, err
	}

	e := &Experiment{
		cfg:    cfg,
		reg:    reg,
		model:  model,
		params: model.ParamVector(),
		logger: logger.With(zap.String("model", model.Name), zap.String("stepper", cfg.Stepper)),
	}

	for name, v := range cfg.Params {
		i, err := model.ParamIndex(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", config.ErrInvalid, err)
		}
		e.params[i] = v
	}

	if n := len(cfg.InitState); n > 0 && n != model.XSize() {
		return nil, fmt.Errorf("%w: init_state has %d values, %s needs %d",
			config.ErrInvalid, n, model.Name, model.XSize())
	}

	if _, err := reg.GetStepper(cfg.Stepper, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	if _, err := e.controls(e.params); err != nil {
		return nil, err
	}

	return e, nil
}

func (e *Experiment) Config() *config.Config { return e.cfg }
func (e *Experiment) Model() *models.Model   { return e.model }

// Params returns a copy of the model parameters with config overrides
// applied.
func (e *Experiment) Params() []float64 {
	return append([]float64(nil), e.params...)
}

func (e *Experiment) initState() []float64 {
	if len(e.cfg.InitState) > 0 {
		return append([]float64(nil), e.cfg.InitState...)
	}
	return e.model.State()
}

func (e *Experiment) controls(p []float64) (dynamo.ControlTrajectory, error) {
	cc := e.cfg.Controls
	dim := e.model.ControlDim

	var (
		c   dynamo.ControlTrajectory
		err error
	)
	switch cc.Kind {
	case config.ControlsDefault:
		return e.model.Controls(), nil
	case config.ControlsZero:
		if dim == 0 {
			return nil, nil
		}
		return control.Zero(dim), nil
	case config.ControlsConstant:
		u := make([]float64, len(cc.Values))
		for i, series := range cc.Values {
			u[i] = series[0]
		}
		c = control.NewConstant(u...)
	case config.ControlsLinear:
		c, err = control.NewLinear(cc.Times, cc.Values)
	case config.ControlsHold:
		c, err = control.NewZeroOrderHold(cc.Times, cc.Values)
	case config.ControlsMWEOptimal:
		if e.model.Name != "mwe" {
			return nil, fmt.Errorf("%w: %s controls only apply to mwe", config.ErrInvalid, cc.Kind)
		}
		c = models.NewMWEProfile(p[0]).Controls()
	default:
		return nil, fmt.Errorf("%w: unknown control kind %q", config.ErrInvalid, cc.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	if c.Dim() != dim {
		return nil, fmt.Errorf("%w: controls have %d components, %s takes %d",
			config.ErrInvalid, c.Dim(), e.model.Name, dim)
	}
	return c, nil
}

// Integrator builds an independent integrator for parameters p. p is owned
// by the integrator.
func (e *Experiment) Integrator(p []float64) *sim.Integrator {
	stepper, _ := e.reg.GetStepper(e.cfg.Stepper, e.cfg)
	opts := []sim.Option{sim.WithLogger(e.logger)}

	if c, _ := e.controls(p); c != nil {
		opts = append(opts, sim.WithControls(c))
	}
	if e.model.DenseJac != nil {
		fn, pattern := e.model.Jacobian(e.cfg.Jacobian)
		opts = append(opts, sim.WithJacobian(fn, pattern))
	}

	return sim.New(e.model.RHS, e.cfg.GridPoints(), e.initState(), p, stepper, opts...)
}

// RunWith simulates with parameters p and evaluates the default metrics.
func (e *Experiment) RunWith(ctx context.Context, p []float64) (*Result, error) {
	start := time.Now()

	traj, err := e.Integrator(p).Simulate(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Trajectory: traj,
		Metrics:    metrics.Evaluate(traj, e.reg.DefaultMetrics(e.model, p)...),
		Elapsed:    time.Since(start),
	}
	return res, nil
}

func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	res, err := e.RunWith(ctx, e.Params())
	if err != nil {
		return nil, err
	}

	e.logger.Info("experiment finished",
		zap.Int("samples", res.Trajectory.Len()),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

// Objective scores parameter vectors by the named default metric.
func (e *Experiment) Objective(metric string) optim.Objective {
	return func(ctx context.Context, p []float64) (float64, error) {
		res, err := e.RunWith(ctx, append([]float64(nil), p...))
		if err != nil {
			return 0, err
		}
		v, ok := res.Metrics[metric]
		if !ok {
			return 0, fmt.Errorf("experiment: %s has no metric %q", e.model.Name, metric)
		}
		return v, nil
	}
}

// Metadata describes a finished run for storage.
func (e *Experiment) Metadata(res *Result) storage.RunMetadata {
	return storage.RunMetadata{
		Model:      e.model.Name,
		Stepper:    e.cfg.Stepper,
		Jacobian:   e.cfg.Jacobian.String(),
		ParamNames: e.model.ParamNames,
		Metrics:    res.Metrics,
	}
}
