// Package dynamo defines the shared vocabulary of the integration engine.
//
// The package holds the callback contracts between model code and the
// evaluation core, and the output entity of a simulation run:
//
//   - [ODEFunc]: right-hand side dx/dt = f(t, x, u, p)
//   - [JacobianFunc]: df/dx in dense or sparse value layout
//   - [ControlTrajectory]: time-varying control inputs
//   - [Trajectory]: sampled times, states, controls and the parameter snapshot
//
// Callbacks write into caller-supplied buffers and must not retain them.
// Lengths are preconditions documented on each type; nothing here checks
// them at evaluation time.
//
// # Example
//
//	rhs := func(t float64, x, u, p, out []float64, _ any) {
//		out[0] = -x[0] + u[0] + p[0]
//	}
//	in := sim.New(rhs, grid, x0, params, integrators.NewRK45(), sim.WithControls(ctrl))
//	traj, err := in.Simulate(ctx)
package dynamo
