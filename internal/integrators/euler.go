package integrators

import (
	"context"

	"github.com/san-kum/moosim/internal/dynamo"
	"github.com/san-kum/moosim/internal/sim"
	"gonum.org/v1/gonum/floats"
)

type Euler struct {
	Substeps int
	dx       []float64
}

func NewEuler(substeps int) *Euler {
	return &Euler{Substeps: substeps}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Integrate(ctx context.Context, ev sim.Evaluator, grid []float64, out *dynamo.Trajectory) sim.Status {
	if len(e.dx) != ev.XSize() {
		e.dx = make([]float64, ev.XSize())
	}
	return integrateFixed(ctx, ev, grid, out, e.Substeps, e.step)
}

func (e *Euler) step(ev sim.Evaluator, t, h float64, x []float64) sim.Status {
	ev.ODE(t, x, e.dx)
	floats.AddScaled(x, h, e.dx)
	return sim.StatusOK
}
