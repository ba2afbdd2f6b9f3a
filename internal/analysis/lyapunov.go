package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/moosim/internal/dynamo"
	"github.com/san-kum/moosim/internal/sim"
	"gonum.org/v1/gonum/floats"
)

var ErrTangentCollapsed = errors.New("analysis: tangent vector collapsed")

// LyapunovConfig controls the renormalization schedule.
type LyapunovConfig struct {
	// Interval is the time between renormalizations.
	Interval float64
	// Segments is the number of intervals averaged.
	Segments int
	// Transient intervals are integrated but not averaged.
	Transient int
}

// tangent augments a system with its variational equation
// d' = J(t, x) d, so the state is [x; d].
type tangent struct {
	n   int
	rhs dynamo.ODEFunc
	jac dynamo.JacobianFunc
	j   []float64
}

func (tg *tangent) eval(t float64, z, u, p, out []float64, data any) {
	n := tg.n
	x, d := z[:n], z[n:]

	tg.rhs(t, x, u, p, out[:n], data)

	clear(tg.j)
	tg.jac(t, x, u, p, tg.j, data)
	for i := 0; i < n; i++ {
		out[n+i] = floats.Dot(tg.j[i*n:(i+1)*n], d)
	}
}

// LyapunovExponent estimates the largest Lyapunov exponent of rhs from x0
// by the Benettin method: the tangent vector is integrated along the
// trajectory with the dense Jacobian jac and renormalized after every
// interval. A positive value indicates chaos.
//
// The stepper is reused sequentially for every interval. controls may be
// nil.
func LyapunovExponent(
	ctx context.Context,
	rhs dynamo.ODEFunc,
	jac dynamo.JacobianFunc,
	x0, p []float64,
	controls dynamo.ControlTrajectory,
	stepper sim.Stepper,
	cfg LyapunovConfig,
) (float64, error) {
	n := len(x0)
	if n == 0 || cfg.Interval <= 0 || cfg.Segments <= 0 {
		return 0, fmt.Errorf("analysis: lyapunov: invalid configuration %+v for %d states", cfg, n)
	}

	tg := &tangent{n: n, rhs: rhs, jac: jac, j: make([]float64, n*n)}

	z := make([]float64, 2*n)
	copy(z, x0)
	floats.AddConst(1/math.Sqrt(float64(n)), z[n:])

	var opts []sim.Option
	if controls != nil {
		opts = append(opts, sim.WithControls(controls))
	}

	sum := 0.0
	t := 0.0
	for seg := 0; seg < cfg.Transient+cfg.Segments; seg++ {
		in := sim.New(tg.eval, []float64{t, t + cfg.Interval}, z, p, stepper, opts...)
		if _, err := in.Simulate(ctx); err != nil {
			return 0, fmt.Errorf("analysis: lyapunov interval %d: %w", seg, err)
		}

		growth := floats.Norm(z[n:], 2)
		if growth == 0 || math.IsInf(growth, 0) {
			return 0, ErrTangentCollapsed
		}
		if seg >= cfg.Transient {
			sum += math.Log(growth)
		}
		floats.Scale(1/growth, z[n:])
		t += cfg.Interval
	}

	return sum / (float64(cfg.Segments) * cfg.Interval), nil
}
