package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/moosim/internal/sim"
	"gonum.org/v1/gonum/mat"
)

var ErrNoParams = errors.New("analysis: no parameters to perturb")

// Factory builds an integrator for the parameter vector p. Every call must
// return an integrator with its own state buffer, stepper and Jacobian
// callbacks; p itself is owned by the new integrator.
type Factory func(p []float64) *sim.Integrator

type sensitivityConfig struct {
	relStep float64
	limit   int
}

type SensitivityOption func(*sensitivityConfig)

// WithRelativeStep sets the perturbation h_j = step * max(1, |p_j|).
func WithRelativeStep(step float64) SensitivityOption {
	return func(c *sensitivityConfig) {
		if step > 0 {
			c.relStep = step
		}
	}
}

// WithConcurrency bounds the number of perturbed runs in flight.
func WithConcurrency(limit int) SensitivityOption {
	return func(c *sensitivityConfig) { c.limit = limit }
}

// ParameterSensitivity estimates the x_size*p_size matrix of partial
// derivatives of the final state with respect to the parameters by
// central differences. It runs 2*len(p) simulations and fails if any of
// them fails.
func ParameterSensitivity(ctx context.Context, build Factory, p []float64, opts ...SensitivityOption) (*mat.Dense, error) {
	if len(p) == 0 {
		return nil, ErrNoParams
	}

	cfg := sensitivityConfig{relStep: 1e-6}
	for _, opt := range opts {
		opt(&cfg)
	}

	steps := make([]float64, len(p))
	runs := make([]*sim.Integrator, 0, 2*len(p))
	for j := range p {
		steps[j] = cfg.relStep * math.Max(1, math.Abs(p[j]))
		for _, sign := range []float64{1, -1} {
			pp := append([]float64(nil), p...)
			pp[j] += sign * steps[j]
			runs = append(runs, build(pp))
		}
	}

	trajs, err := sim.RunBatch(ctx, runs, cfg.limit)
	if err != nil {
		return nil, fmt.Errorf("analysis: sensitivity: %w", err)
	}

	n := trajs[0].XSize()
	if n == 0 {
		return nil, fmt.Errorf("analysis: sensitivity: empty state")
	}
	S := mat.NewDense(n, len(p), nil)
	for j := range p {
		_, plus := trajs[2*j].Final()
		_, minus := trajs[2*j+1].Final()
		for i := 0; i < n; i++ {
			S.Set(i, j, (plus[i]-minus[i])/(2*steps[j]))
		}
	}
	return S, nil
}
