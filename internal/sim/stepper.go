package sim

import (
	"context"

	"github.com/san-kum/moosim/internal/dynamo"
)

// Evaluator is the surface a Stepper integrates through.
type Evaluator interface {
	XSize() int
	USize() int

	// State is the borrowed start state; steppers advance it in place.
	State() []float64

	// SetControls refreshes the control cache for time t.
	SetControls(t float64)
	// Controls is the control cache, valid for the last time passed to
	// SetControls, ODE or DenseJacobian.
	Controls() []float64

	ODE(t float64, x, out []float64)
	DenseJacobian(t float64, x, out []float64)
	HasJacobian() bool
}

// Stepper advances the evaluator's state across grid and appends one
// sample per grid time to out. A negative Status reports failure; out is
// then discarded by the caller.
type Stepper interface {
	Name() string
	Integrate(ctx context.Context, ev Evaluator, grid []float64, out *dynamo.Trajectory) Status
}
