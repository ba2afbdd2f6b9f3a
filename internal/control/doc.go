// Package control provides open-loop control trajectories.
//
// Every type implements [dynamo.ControlTrajectory]: given a time it writes
// the control vector valid at that time into a caller buffer.
//
//   - [Linear]: piecewise-linear through sampled values, clamped at the ends
//   - [ZeroOrderHold]: piecewise-constant, each sample held until the next
//   - [Constant]: the same vector at every time
//   - [Func]: an arbitrary function of time
//
// # Usage
//
//	u, err := control.NewLinear([]float64{0, 50, 100}, [][]float64{{0, 1, 0}})
//	in := sim.New(rhs, grid, x0, p, stepper, sim.WithControls(u))
package control

import "errors"

var (
	// ErrNoSamples indicates a sampled trajectory without any sample times.
	ErrNoSamples = errors.New("control: no sample times")

	// ErrSeriesLength indicates a component series whose length differs from the sample times.
	ErrSeriesLength = errors.New("control: series length differs from sample times")

	// ErrNotIncreasing indicates sample times that are not strictly increasing.
	ErrNotIncreasing = errors.New("control: sample times not strictly increasing")
)
