package sim_test

import (
	"context"

	"github.com/san-kum/moosim/internal/dynamo"
	"github.com/san-kum/moosim/internal/jacobian"
	"github.com/san-kum/moosim/internal/sim"
)

// countingControls writes u[i] = t + i and counts interpolations.
type countingControls struct {
	dim   int
	calls int
	times []float64
}

func (c *countingControls) Dim() int { return c.dim }

func (c *countingControls) InterpolateAt(t float64, out []float64) {
	c.calls++
	c.times = append(c.times, t)
	for i := range out {
		out[i] = t + float64(i)
	}
}

// scriptedStepper appends one sample per grid time using the evaluator,
// then reports a fixed status.
type scriptedStepper struct {
	status sim.Status
	calls  int
}

func (s *scriptedStepper) Name() string { return "scripted" }

func (s *scriptedStepper) Integrate(_ context.Context, ev sim.Evaluator, grid []float64, out *dynamo.Trajectory) sim.Status {
	s.calls++
	x := ev.State()
	dx := make([]float64, ev.XSize())
	for k, t := range grid {
		if k > 0 {
			h := t - grid[k-1]
			ev.ODE(grid[k-1], x, dx)
			for i := range x {
				x[i] += h * dx[i]
			}
		}
		ev.SetControls(t)
		out.Append(t, x, ev.Controls())
	}
	return s.status
}

// decay: x' = -x + u + p
func decay(_ float64, x, u, p, out []float64, _ any) {
	out[0] = -x[0] + p[0]
	if len(u) > 0 {
		out[0] += u[0]
	}
}

// coupled is a 3-state system whose Jacobian depends on t, x, u and p:
//
//	x0' = p0*x0*x1 + u0
//	x1' = -x1 + p1*x2*x2
//	x2' = sin(t)*x0 - u1*x2
func coupledJacDense(t float64, x, u, p, out []float64, _ any) {
	out[0], out[1], out[2] = p[0]*x[1], p[0]*x[0], 0
	out[3], out[4], out[5] = 0, -1, 2*p[1]*x[2]
	out[6], out[7], out[8] = sinApprox(t), 0, -u[1]
}

var coupledRows = []int{0, 0, 1, 1, 2, 2}
var coupledCols = []int{0, 1, 1, 2, 0, 2}

func coupledJacCOO(t float64, x, u, p, out []float64, _ any) {
	out[0] = p[0] * x[1]
	out[1] = p[0] * x[0]
	out[2] = -1
	out[3] = 2 * p[1] * x[2]
	out[4] = sinApprox(t)
	out[5] = -u[1]
}

// CSC layout: column 0 rows {0, 2}, column 1 rows {0, 1}, column 2 rows {1, 2}.
var coupledColPtr = []int{0, 2, 4, 6}
var coupledCSCRows = []int{0, 2, 0, 1, 1, 2}

func coupledJacCSC(t float64, x, u, p, out []float64, _ any) {
	out[0] = p[0] * x[1]
	out[1] = sinApprox(t)
	out[2] = p[0] * x[0]
	out[3] = -1
	out[4] = 2 * p[1] * x[2]
	out[5] = -u[1]
}

func coupledJacCSCLegacy(t float64, x, p, u, out []float64, data any) {
	coupledJacCSC(t, x, u, p, out, data)
}

func coupledRHS(t float64, x, u, p, out []float64, _ any) {
	out[0] = p[0]*x[0]*x[1] + u[0]
	out[1] = -x[1] + p[1]*x[2]*x[2]
	out[2] = sinApprox(t)*x[0] - u[1]*x[2]
}

func sinApprox(t float64) float64 { return t - t*t*t/6 }

func cooPattern() jacobian.Pattern {
	return jacobian.COOPattern(coupledRows, coupledCols)
}
