package integrators

import (
	"context"

	"github.com/san-kum/moosim/internal/dynamo"
	"github.com/san-kum/moosim/internal/sim"
	"gonum.org/v1/gonum/floats"
)

type RK4 struct {
	Substeps int

	k1, k2, k3, k4 []float64
	scratch        []float64
}

func NewRK4(substeps int) *RK4 {
	return &RK4{Substeps: substeps}
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make([]float64, n)
		r.k2 = make([]float64, n)
		r.k3 = make([]float64, n)
		r.k4 = make([]float64, n)
		r.scratch = make([]float64, n)
	}
}

func (r *RK4) Integrate(ctx context.Context, ev sim.Evaluator, grid []float64, out *dynamo.Trajectory) sim.Status {
	r.ensureScratch(ev.XSize())
	return integrateFixed(ctx, ev, grid, out, r.Substeps, r.step)
}

func (r *RK4) step(ev sim.Evaluator, t, h float64, x []float64) sim.Status {
	half := 0.5 * h

	ev.ODE(t, x, r.k1)

	floats.AddScaledTo(r.scratch, x, half, r.k1)
	ev.ODE(t+half, r.scratch, r.k2)

	floats.AddScaledTo(r.scratch, x, half, r.k2)
	ev.ODE(t+half, r.scratch, r.k3)

	floats.AddScaledTo(r.scratch, x, h, r.k3)
	ev.ODE(t+h, r.scratch, r.k4)

	h6 := h / 6.0
	for i := range x {
		x[i] += h6 * (r.k1[i] + 2*r.k2[i] + 2*r.k3[i] + r.k4[i])
	}
	return sim.StatusOK
}
