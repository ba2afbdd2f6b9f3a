package analysis

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/moosim/internal/dynamo"
	"github.com/san-kum/moosim/internal/integrators"
	"github.com/san-kum/moosim/internal/models"
	"github.com/san-kum/moosim/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mweFactory(horizon float64) Factory {
	m := models.NewMWE()
	return func(p []float64) *sim.Integrator {
		stepper := integrators.NewRK45()
		stepper.RelTol = 1e-11
		stepper.AbsTol = 1e-13
		return sim.New(m.RHS, []float64{0, horizon}, m.State(), p, stepper,
			sim.WithControls(m.Controls()))
	}
}

func TestParameterSensitivity_MWE(t *testing.T) {
	// with u = 0, x(T) = p + (x0 - p) e^{-T}
	const horizon = 2.0
	S, err := ParameterSensitivity(context.Background(), mweFactory(horizon), []float64{0.025},
		WithRelativeStep(1e-3))
	require.NoError(t, err)

	r, c := S.Dims()
	assert.Equal(t, 1, r)
	assert.Equal(t, 1, c)
	assert.InDelta(t, 1-math.Exp(-horizon), S.At(0, 0), 1e-5)
}

func TestParameterSensitivity_SpringMass(t *testing.T) {
	m := models.NewSpringMass()
	build := func(p []float64) *sim.Integrator {
		return sim.New(m.RHS, []float64{0, 0.5}, m.State(), p, integrators.NewRK4(100),
			sim.WithControls(m.Controls()))
	}

	S, err := ParameterSensitivity(context.Background(), build, m.ParamVector(),
		WithRelativeStep(1e-5), WithConcurrency(2))
	require.NoError(t, err)

	r, c := S.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
	// a stiffer spring pulls the released mass back faster
	assert.Less(t, S.At(0, 0), 0.0)
}

func TestParameterSensitivity_Errors(t *testing.T) {
	_, err := ParameterSensitivity(context.Background(), mweFactory(1), nil)
	assert.ErrorIs(t, err, ErrNoParams)

	failing := func(p []float64) *sim.Integrator {
		stepper := integrators.NewRK45()
		stepper.MaxSteps = 1
		return sim.New(models.NewMWE().RHS, []float64{0, 10}, []float64{1}, p, stepper,
			sim.WithControls(models.NewMWE().Controls()))
	}
	_, err = ParameterSensitivity(context.Background(), failing, []float64{0.1})
	assert.ErrorIs(t, err, dynamo.ErrIntegrationFailed)
}

func TestLyapunovExponent_DampedSpring(t *testing.T) {
	// linear system: the exponent is the real part of the eigenvalues, -c/(2m)
	m := models.NewSpringMass()
	lambda, err := LyapunovExponent(context.Background(), m.RHS, m.DenseJac, m.State(), m.ParamVector(),
		m.Controls(), integrators.NewRK4(100), LyapunovConfig{Interval: 1, Segments: 100})
	require.NoError(t, err)
	assert.InDelta(t, -models.DefaultDamping/(2*models.DefaultMass), lambda, 0.05)
}

func TestLyapunovExponent_Lorenz(t *testing.T) {
	if testing.Short() {
		t.Skip("long run")
	}
	m := models.NewLorenz()
	lambda, err := LyapunovExponent(context.Background(), m.RHS, m.DenseJac, m.State(), m.ParamVector(),
		nil, integrators.NewRK4(100), LyapunovConfig{Interval: 1, Segments: 300, Transient: 10})
	require.NoError(t, err)
	// reference value 0.906
	assert.Greater(t, lambda, 0.7)
	assert.Less(t, lambda, 1.1)
}

func TestLyapunovExponent_InvalidConfig(t *testing.T) {
	m := models.NewLorenz()
	_, err := LyapunovExponent(context.Background(), m.RHS, m.DenseJac, m.State(), m.ParamVector(),
		nil, integrators.NewRK4(1), LyapunovConfig{})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrTangentCollapsed))
}
