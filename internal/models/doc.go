// Package models provides ready-made ODE systems for the integrator.
//
// Each [Model] bundles a right-hand side with its analytic Jacobian, the
// structural nonzeros of that Jacobian, a default start state, parameter
// vector and time span:
//
//   - [NewMWE]: scalar optimal-control test problem x' = -x + u + p
//   - [NewVanDerPol]: relaxation oscillator with nonlinearity mu
//   - [NewLorenz]: butterfly attractor
//   - [NewSpringMass]: damped spring-mass driven by an external force
//   - [NewRobertson]: stiff chemical kinetics
//
// Parameters are read from the p vector handed to the callbacks, so a run
// can change them without rebuilding the model.
//
// # Jacobian formats
//
// [Model.Jacobian] returns a callback and pattern for any
// [jacobian.Format]. Sparse callbacks own scratch memory; request one per
// integrator when running in parallel.
//
//	fn, pattern := models.NewLorenz().Jacobian(jacobian.CSC)
//	in := sim.New(m.RHS, grid, x0, p, stepper, sim.WithJacobian(fn, pattern))
package models
