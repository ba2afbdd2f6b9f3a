package sim

import (
	"context"
	"math"

	"github.com/san-kum/moosim/internal/buffer"
	"github.com/san-kum/moosim/internal/dynamo"
	"github.com/san-kum/moosim/internal/jacobian"
	"go.uber.org/zap"
)

// Integrator owns the evaluation state of one simulation run.
type Integrator struct {
	rhs     dynamo.ODEFunc
	jac     dynamo.JacobianFunc
	pattern jacobian.Pattern
	stepper Stepper

	grid     []float64
	x        []float64
	params   []float64
	data     any
	controls dynamo.ControlTrajectory

	xSize int
	uSize int
	pSize int

	// lastT is the time the control cache was last refreshed for.
	lastT     float64
	u         *buffer.Fixed
	sparseJac *buffer.Fixed

	output *dynamo.Trajectory
	logger *zap.Logger
}

// New binds rhs to a dense output grid.
//
// grid must be non-empty and strictly increasing. x is the start state
// and params the parameter vector; both are borrowed, and x is advanced in
// place by the stepper. Callback buffers are sized from len(x),
// len(params), the control dimension and the Jacobian pattern; mismatched
// callbacks are a caller error and are not detected.
func New(rhs dynamo.ODEFunc, grid, x, params []float64, stepper Stepper, opts ...Option) *Integrator {
	in := &Integrator{
		rhs:     rhs,
		stepper: stepper,
		grid:    grid,
		x:       x,
		params:  params,
		xSize:   len(x),
		pSize:   len(params),
		lastT:   math.Inf(-1),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(in)
	}

	if in.controls != nil {
		in.uSize = in.controls.Dim()
	}
	in.u = buffer.New(in.uSize)
	in.sparseJac = buffer.New(in.pattern.NNZ())
	return in
}

// Simulate runs the stepper over the grid. It returns the trajectory only
// if the stepper succeeds; a failed run returns nil and an
// *dynamo.IntegrationError, never a partial trajectory.
func (in *Integrator) Simulate(ctx context.Context) (*dynamo.Trajectory, error) {
	if in.controls != nil {
		in.SetControls(in.grid[0])
	}

	in.output = dynamo.NewTrajectory(in.xSize, in.uSize, len(in.grid))

	in.logger.Debug("simulation started",
		zap.String("stepper", in.stepper.Name()),
		zap.Int("x_size", in.xSize),
		zap.Int("u_size", in.uSize),
		zap.Int("p_size", in.pSize),
		zap.Int("grid_points", len(in.grid)),
		zap.Stringer("jacobian", in.pattern.Format()),
	)

	status := in.stepper.Integrate(ctx, in, in.grid, in.output)

	out := in.output
	in.output = nil

	if status.Failed() {
		in.logger.Warn("integration failed",
			zap.String("stepper", in.stepper.Name()),
			zap.Int("status", int(status)),
			zap.Stringer("reason", status),
		)
		return nil, &dynamo.IntegrationError{Status: int(status), Stepper: in.stepper.Name()}
	}

	out.P = make([]float64, in.pSize)
	copy(out.P, in.params)

	in.logger.Debug("simulation finished", zap.Int("samples", out.Len()))
	return out, nil
}

// SetControls refreshes the control cache for t if t differs from the last
// refresh time. The refresh time always advances to t.
func (in *Integrator) SetControls(t float64) {
	if in.controls != nil && t != in.lastT {
		in.controls.InterpolateAt(t, in.u.Raw())
	}
	in.lastT = t
}

// ODE evaluates the right-hand side at (t, x) into out.
func (in *Integrator) ODE(t float64, x, out []float64) {
	in.SetControls(t)
	in.rhs(t, x, in.u.Raw(), in.params, out, in.data)
}

// DenseJacobian writes the row-major x_size*x_size Jacobian at (t, x) into
// out whatever the configured format. Without a Jacobian callback it does
// nothing and out keeps its previous contents. Sparse formats only write
// the cells of their pattern.
func (in *Integrator) DenseJacobian(t float64, x, out []float64) {
	if in.jac == nil {
		return
	}

	in.SetControls(t)

	switch in.pattern.Format() {
	case jacobian.Dense:
		in.jac(t, x, in.u.Raw(), in.params, out, in.data)
	case jacobian.COO, jacobian.CSC:
		in.sparseJac.FillZero()
		in.jac(t, x, in.u.Raw(), in.params, in.sparseJac.Raw(), in.data)
		in.pattern.Densify(in.sparseJac.Raw(), out, in.xSize)
	}
}

func (in *Integrator) HasJacobian() bool { return in.jac != nil }

func (in *Integrator) XSize() int { return in.xSize }
func (in *Integrator) USize() int { return in.uSize }
func (in *Integrator) PSize() int { return in.pSize }
func (in *Integrator) NNZ() int   { return in.pattern.NNZ() }

func (in *Integrator) Grid() []float64           { return in.grid }
func (in *Integrator) State() []float64          { return in.x }
func (in *Integrator) Params() []float64         { return in.params }
func (in *Integrator) Controls() []float64       { return in.u.Raw() }
func (in *Integrator) LastT() float64            { return in.lastT }
func (in *Integrator) Format() jacobian.Format   { return in.pattern.Format() }
func (in *Integrator) Pattern() jacobian.Pattern { return in.pattern }
func (in *Integrator) Stepper() Stepper          { return in.stepper }
func (in *Integrator) Logger() *zap.Logger       { return in.logger }
