package integrators

import (
	"context"
	"math"

	"github.com/san-kum/moosim/internal/dynamo"
	"github.com/san-kum/moosim/internal/sim"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 is an adaptive Dormand-Prince integrator. Steps are clamped so that
// every grid time is hit exactly.
type RK45 struct {
	AbsTol      float64
	RelTol      float64
	InitialStep float64 // 0 picks 1% of the first grid interval
	MinStep     float64
	MaxStep     float64 // 0 means unbounded
	MaxSteps    int     // accepted plus rejected steps per run, 0 means unbounded

	safety   float64
	minScale float64
	maxScale float64

	k    [7][]float64
	xTmp []float64
	xNew []float64

	// Accepted and Rejected count the steps of the last run.
	Accepted int
	Rejected int
}

func NewRK45() *RK45 {
	return &RK45{
		AbsTol:   1e-8,
		RelTol:   1e-6,
		MinStep:  1e-12,
		MaxSteps: 1_000_000,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *RK45) Name() string { return "rk45" }

func (r *RK45) ensureScratch(n int) {
	if len(r.xTmp) != n {
		for i := range r.k {
			r.k[i] = make([]float64, n)
		}
		r.xTmp = make([]float64, n)
		r.xNew = make([]float64, n)
	}
}

func (r *RK45) Integrate(ctx context.Context, ev sim.Evaluator, grid []float64, out *dynamo.Trajectory) sim.Status {
	r.ensureScratch(ev.XSize())
	r.Accepted, r.Rejected = 0, 0

	x := ev.State()
	sample(ev, out, grid[0], x)
	if len(grid) == 1 {
		return sim.StatusOK
	}

	h := r.InitialStep
	if h <= 0 {
		h = 0.01 * (grid[1] - grid[0])
	}

	t := grid[0]
	for k := 1; k < len(grid); k++ {
		target := grid[k]

		for t < target {
			select {
			case <-ctx.Done():
				return sim.StatusCanceled
			default:
			}

			if r.MaxSteps > 0 && r.Accepted+r.Rejected >= r.MaxSteps {
				return sim.StatusMaxSteps
			}
			if r.MaxStep > 0 && h > r.MaxStep {
				h = r.MaxStep
			}

			step := h
			clamped := false
			if t+step >= target {
				step = target - t
				clamped = true
			}

			errNorm := r.attempt(ev, t, step, x)
			if math.IsNaN(errNorm) || math.IsInf(errNorm, 0) {
				return sim.StatusNonFinite
			}

			if errNorm <= 1 {
				r.Accepted++
				copy(x, r.xNew)
				if clamped {
					t = target
				} else {
					t += step
				}
				// do not let a short clamped step shrink the next one
				if !clamped || step >= h {
					h = step * r.growth(errNorm)
				}
				continue
			}

			r.Rejected++
			h = step * math.Min(1, r.growth(errNorm))
			if h < r.MinStep {
				return sim.StatusStepTooSmall
			}
		}

		if !dynamo.State(x).IsValid() {
			return sim.StatusNonFinite
		}
		sample(ev, out, target, x)
	}

	return sim.StatusOK
}

func (r *RK45) growth(errNorm float64) float64 {
	if errNorm == 0 {
		return r.maxScale
	}
	scale := r.safety * math.Pow(errNorm, -0.2)
	return math.Max(r.minScale, math.Min(r.maxScale, scale))
}

// attempt computes one step of size h into r.xNew and returns the scaled
// RMS error estimate.
func (r *RK45) attempt(ev sim.Evaluator, t, h float64, x []float64) float64 {
	n := len(x)
	k1, k2, k3, k4, k5, k6, k7 := r.k[0], r.k[1], r.k[2], r.k[3], r.k[4], r.k[5], r.k[6]

	ev.ODE(t, x, k1)

	for i := 0; i < n; i++ {
		r.xTmp[i] = x[i] + h*b21*k1[i]
	}
	ev.ODE(t+a2*h, r.xTmp, k2)

	for i := 0; i < n; i++ {
		r.xTmp[i] = x[i] + h*(b31*k1[i]+b32*k2[i])
	}
	ev.ODE(t+a3*h, r.xTmp, k3)

	for i := 0; i < n; i++ {
		r.xTmp[i] = x[i] + h*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	ev.ODE(t+a4*h, r.xTmp, k4)

	for i := 0; i < n; i++ {
		r.xTmp[i] = x[i] + h*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	ev.ODE(t+a5*h, r.xTmp, k5)

	for i := 0; i < n; i++ {
		r.xTmp[i] = x[i] + h*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	ev.ODE(t+h, r.xTmp, k6)

	for i := 0; i < n; i++ {
		r.xNew[i] = x[i] + h*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}
	ev.ODE(t+h, r.xNew, k7)

	sum := 0.0
	for i := 0; i < n; i++ {
		errEst := h * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := r.AbsTol + r.RelTol*math.Max(math.Abs(x[i]), math.Abs(r.xNew[i]))
		e := errEst / scale
		sum += e * e
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}
