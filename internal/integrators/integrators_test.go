package integrators

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/moosim/internal/dynamo"
	"github.com/san-kum/moosim/internal/jacobian"
	"github.com/san-kum/moosim/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func oscillator(_ float64, x, _, _, out []float64, _ any) {
	out[0] = x[1]
	out[1] = -x[0]
}

func oscillatorEnergy(x []float64) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

// stiffTracking follows cos(t) with rate 1000.
func stiffTracking(t float64, x, _, _, out []float64, _ any) {
	out[0] = -1000 * (x[0] - math.Cos(t))
}

func stiffTrackingJac(_ float64, _, _, _, out []float64, _ any) {
	out[0] = -1000
}

func span(start, stop float64, n int) []float64 {
	return floats.Span(make([]float64, n), start, stop)
}

func simulate(stepper sim.Stepper, rhs dynamo.ODEFunc, grid, x0 []float64, opts ...sim.Option) (*dynamo.Trajectory, error) {
	x := append([]float64(nil), x0...)
	return sim.New(rhs, grid, x, nil, stepper, opts...).Simulate(context.Background())
}

func statusOf(t *testing.T, err error) sim.Status {
	t.Helper()
	var ierr *dynamo.IntegrationError
	require.True(t, errors.As(err, &ierr), "expected IntegrationError, got %v", err)
	return sim.Status(ierr.Status)
}

func TestRK4Accuracy(t *testing.T) {
	traj, err := simulate(NewRK4(1), oscillator, span(0, 1, 101), []float64{1, 0})
	require.NoError(t, err)

	_, x := traj.Final()
	if math.Abs(x[0]-math.Cos(1)) > 1e-8 {
		t.Errorf("position error too large: got %.10f, expected %.10f", x[0], math.Cos(1))
	}
	if math.Abs(x[1]+math.Sin(1)) > 1e-8 {
		t.Errorf("velocity error too large: got %.10f, expected %.10f", x[1], -math.Sin(1))
	}
}

func TestEulerConvergence(t *testing.T) {
	grid := span(0, 1, 11)

	errAt := func(substeps int) float64 {
		traj, err := simulate(NewEuler(substeps), oscillator, grid, []float64{1, 0})
		require.NoError(t, err)
		_, x := traj.Final()
		return math.Abs(x[0] - math.Cos(1))
	}

	coarse := errAt(10)
	fine := errAt(20)
	ratio := coarse / fine
	if ratio < 1.8 || ratio > 2.2 {
		t.Errorf("expected first order convergence, error ratio %.3f", ratio)
	}
}

func TestFixedSteppers_SampleEveryGridTime(t *testing.T) {
	grid := []float64{0, 0.1, 0.25, 0.7, 1}

	for _, stepper := range []sim.Stepper{NewEuler(4), NewRK4(2), NewRK45(), NewImplicitEuler(4)} {
		t.Run(stepper.Name(), func(t *testing.T) {
			traj, err := simulate(stepper, oscillator, grid, []float64{1, 0})
			require.NoError(t, err)
			assert.Equal(t, grid, traj.T)
			assert.Equal(t, dynamo.State{1, 0}, traj.State(0))
		})
	}
}

func TestSteppers_EmptyState(t *testing.T) {
	grid := []float64{0, 0.5, 1}
	none := func(_ float64, _, _, _, _ []float64, _ any) {}

	for _, stepper := range []sim.Stepper{NewEuler(2), NewRK4(2), NewRK45(), NewImplicitEuler(2)} {
		t.Run(stepper.Name(), func(t *testing.T) {
			traj, err := simulate(stepper, none, grid, nil)
			require.NoError(t, err)
			assert.Equal(t, grid, traj.T)
			assert.Equal(t, 0, traj.XSize())
		})
	}
}

func TestRK45_Accuracy(t *testing.T) {
	r := NewRK45()
	r.RelTol = 1e-8
	traj, err := simulate(r, oscillator, span(0, 10, 11), []float64{1, 0})
	require.NoError(t, err)

	for k, tk := range traj.T {
		x := traj.State(k)
		assert.InDelta(t, math.Cos(tk), x[0], 1e-5, "t=%g", tk)
		assert.InDelta(t, -math.Sin(tk), x[1], 1e-5, "t=%g", tk)
	}
	assert.Greater(t, r.Accepted, 10)
}

func TestRK45_EnergyConservation(t *testing.T) {
	r := NewRK45()
	r.AbsTol = 1e-12
	r.RelTol = 1e-10

	x0 := []float64{1, 0}
	traj, err := simulate(r, oscillator, span(0, 100, 101), x0)
	require.NoError(t, err)

	_, x := traj.Final()
	drift := math.Abs(oscillatorEnergy(x)-oscillatorEnergy(x0)) / oscillatorEnergy(x0)
	if drift > 1e-6 {
		t.Errorf("RK45 energy drift too high: %e", drift)
	}
}

func TestRK45_MaxStep(t *testing.T) {
	r := NewRK45()
	r.MaxStep = 0.01

	_, err := simulate(r, oscillator, span(0, 1, 2), []float64{1, 0})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, r.Accepted, 100)
}

func TestRK45_Failures(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(r *RK45)
		status sim.Status
	}{
		{
			name:   "max steps",
			setup:  func(r *RK45) { r.MaxSteps = 5 },
			status: sim.StatusMaxSteps,
		},
		{
			name: "step too small",
			setup: func(r *RK45) {
				r.AbsTol, r.RelTol = 1e-14, 0
				r.InitialStep = 1
				r.MinStep = 0.9
			},
			status: sim.StatusStepTooSmall,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRK45()
			tt.setup(r)
			traj, err := simulate(r, oscillator, span(0, 100, 11), []float64{1, 0})
			assert.Nil(t, traj)
			assert.Equal(t, tt.status, statusOf(t, err))
		})
	}
}

func TestSteppers_NonFinite(t *testing.T) {
	blowup := func(_ float64, x, _, _, out []float64, _ any) {
		out[0] = math.NaN()
	}

	for _, stepper := range []sim.Stepper{NewEuler(1), NewRK4(1), NewRK45()} {
		t.Run(stepper.Name(), func(t *testing.T) {
			traj, err := simulate(stepper, blowup, span(0, 1, 3), []float64{1})
			assert.Nil(t, traj)
			assert.ErrorIs(t, err, dynamo.ErrIntegrationFailed)
			assert.Equal(t, sim.StatusNonFinite, statusOf(t, err))
		})
	}
}

func TestSteppers_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, stepper := range []sim.Stepper{NewEuler(1), NewRK4(1), NewRK45(), NewImplicitEuler(1)} {
		t.Run(stepper.Name(), func(t *testing.T) {
			in := sim.New(oscillator, span(0, 1, 5), []float64{1, 0}, nil, stepper)
			traj, err := in.Simulate(ctx)
			assert.Nil(t, traj)
			assert.Equal(t, sim.StatusCanceled, statusOf(t, err))
		})
	}
}

func TestImplicitEuler_Stiff(t *testing.T) {
	grid := span(0, 1, 11)

	t.Run("analytic jacobian", func(t *testing.T) {
		traj, err := simulate(NewImplicitEuler(1), stiffTracking, grid, []float64{0},
			sim.WithJacobian(stiffTrackingJac, jacobian.DensePattern()))
		require.NoError(t, err)
		_, x := traj.Final()
		assert.InDelta(t, math.Cos(1), x[0], 1e-2)
	})

	t.Run("finite difference fallback", func(t *testing.T) {
		traj, err := simulate(NewImplicitEuler(1), stiffTracking, grid, []float64{0})
		require.NoError(t, err)
		_, x := traj.Final()
		assert.InDelta(t, math.Cos(1), x[0], 1e-2)
	})

	t.Run("explicit euler is unstable at this step", func(t *testing.T) {
		traj, err := simulate(NewEuler(1), stiffTracking, grid, []float64{0})
		require.NoError(t, err)
		_, x := traj.Final()
		assert.Greater(t, math.Abs(x[0]-math.Cos(1)), 1.0)
	})
}

func TestImplicitEuler_Failures(t *testing.T) {
	growth := func(_ float64, x, _, _, out []float64, _ any) { out[0] = x[0] }
	growthJac := func(_ float64, _, _, _, out []float64, _ any) { out[0] = 1 }

	t.Run("singular iteration matrix", func(t *testing.T) {
		// I - h*J vanishes for h = 1
		_, err := simulate(NewImplicitEuler(1), growth, span(0, 1, 2), []float64{1},
			sim.WithJacobian(growthJac, jacobian.DensePattern()))
		assert.Equal(t, sim.StatusSingular, statusOf(t, err))
	})

	t.Run("newton budget exhausted", func(t *testing.T) {
		ie := NewImplicitEuler(1)
		ie.MaxNewtonIter = 0
		_, err := simulate(ie, oscillator, span(0, 1, 2), []float64{1, 0})
		assert.Equal(t, sim.StatusNewtonDiverged, statusOf(t, err))
	})
}

func TestImplicitEuler_SparseJacobian(t *testing.T) {
	jac := func(_ float64, _, _, _, out []float64, _ any) {
		out[0] = 1  // (0,1)
		out[1] = -1 // (1,0)
	}
	pattern := jacobian.COOPattern([]int{0, 1}, []int{1, 0})

	withJac, err := simulate(NewImplicitEuler(10), oscillator, span(0, 1, 11), []float64{1, 0},
		sim.WithJacobian(jac, pattern))
	require.NoError(t, err)
	withFD, err := simulate(NewImplicitEuler(10), oscillator, span(0, 1, 11), []float64{1, 0})
	require.NoError(t, err)

	_, a := withJac.Final()
	_, b := withFD.Final()
	assert.InDeltaSlice(t, a, b, 1e-8)
	assert.InDelta(t, math.Cos(1), a[0], 1e-2)
}

func benchmarkStepper(b *testing.B, stepper sim.Stepper) {
	grid := span(0, 10, 1001)
	x := make([]float64, 2)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x[0], x[1] = 1, 0
		if _, err := sim.New(oscillator, grid, x, nil, stepper).Simulate(ctx); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEuler(b *testing.B)         { benchmarkStepper(b, NewEuler(1)) }
func BenchmarkRK4(b *testing.B)           { benchmarkStepper(b, NewRK4(1)) }
func BenchmarkRK45(b *testing.B)          { benchmarkStepper(b, NewRK45()) }
func BenchmarkImplicitEuler(b *testing.B) { benchmarkStepper(b, NewImplicitEuler(1)) }
