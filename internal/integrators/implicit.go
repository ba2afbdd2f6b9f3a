package integrators

import (
	"context"
	"math"

	"github.com/san-kum/moosim/internal/dynamo"
	"github.com/san-kum/moosim/internal/jacobian"
	"github.com/san-kum/moosim/internal/sim"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ImplicitEuler is backward Euler solved by Newton iteration on
// y - x - h f(t+h, y) = 0, starting from an explicit Euler predictor. The
// iteration matrix I - h*J is refactorized at every iterate. Without a
// Jacobian on the evaluator, J is approximated by finite differences of the
// right-hand side.
type ImplicitEuler struct {
	Substeps      int
	NewtonTol     float64
	MaxNewtonIter int

	jac   []float64
	iter  *mat.Dense
	lu    mat.LU
	f     []float64
	g     []float64
	y     []float64
	gVec  *mat.VecDense
	delta *mat.VecDense
	fdJac dynamo.JacobianFunc
}

func NewImplicitEuler(substeps int) *ImplicitEuler {
	return &ImplicitEuler{
		Substeps:      substeps,
		NewtonTol:     1e-10,
		MaxNewtonIter: 25,
	}
}

func (ie *ImplicitEuler) Name() string { return "implicit_euler" }

func (ie *ImplicitEuler) ensureScratch(n int) {
	if len(ie.f) != n {
		ie.jac = make([]float64, n*n)
		ie.iter = mat.NewDense(n, n, nil)
		ie.f = make([]float64, n)
		ie.g = make([]float64, n)
		ie.y = make([]float64, n)
		ie.gVec = mat.NewVecDense(n, ie.g)
		ie.delta = mat.NewVecDense(n, nil)
	}
}

func (ie *ImplicitEuler) Integrate(ctx context.Context, ev sim.Evaluator, grid []float64, out *dynamo.Trajectory) sim.Status {
	n := ev.XSize()
	if n == 0 {
		return integrateFixed(ctx, ev, grid, out, ie.Substeps, func(sim.Evaluator, float64, float64, []float64) sim.Status {
			return sim.StatusOK
		})
	}
	ie.ensureScratch(n)

	ie.fdJac = nil
	if !ev.HasJacobian() {
		ie.fdJac = jacobian.FiniteDifference(func(t float64, x, _, _, out []float64, _ any) {
			ev.ODE(t, x, out)
		}, n)
	}

	return integrateFixed(ctx, ev, grid, out, ie.Substeps, ie.step)
}

func (ie *ImplicitEuler) step(ev sim.Evaluator, t, h float64, x []float64) sim.Status {
	n := len(x)
	t1 := t + h

	// explicit Euler predictor
	ev.ODE(t, x, ie.f)
	floats.AddScaledTo(ie.y, x, h, ie.f)

	for it := 0; it < ie.MaxNewtonIter; it++ {
		clear(ie.jac)
		if ie.fdJac != nil {
			ie.fdJac(t1, ie.y, nil, nil, ie.jac, nil)
		} else {
			ev.DenseJacobian(t1, ie.y, ie.jac)
		}

		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				v := -h * ie.jac[i*n+j]
				if i == j {
					v += 1
				}
				ie.iter.Set(i, j, v)
			}
		}
		ie.lu.Factorize(ie.iter)

		ev.ODE(t1, ie.y, ie.f)
		// g = -(y - x - h f(t1, y))
		for i := 0; i < n; i++ {
			ie.g[i] = x[i] + h*ie.f[i] - ie.y[i]
		}

		if err := ie.lu.SolveVecTo(ie.delta, false, ie.gVec); err != nil {
			return sim.StatusSingular
		}

		d := ie.delta.RawVector().Data
		floats.Add(ie.y, d)

		if !dynamo.State(ie.y).IsValid() {
			return sim.StatusNonFinite
		}
		if floats.Norm(d, math.Inf(1)) <= ie.NewtonTol*(1+floats.Norm(ie.y, math.Inf(1))) {
			copy(x, ie.y)
			return sim.StatusOK
		}
	}

	return sim.StatusNewtonDiverged
}
