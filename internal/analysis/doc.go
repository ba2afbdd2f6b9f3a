// Package analysis provides derivative-based studies built on the
// integrator.
//
//   - [ParameterSensitivity]: finite-difference d x(t_end) / d p from
//     perturbed runs executed concurrently
//   - [LyapunovExponent]: largest Lyapunov exponent from the tangent
//     dynamics driven by the analytic Jacobian
//
// # Sensitivity
//
// The caller supplies a [Factory] that builds an independent integrator
// for a parameter vector:
//
//	S, err := analysis.ParameterSensitivity(ctx, factory, p)
//	// S.At(i, j) = d x_i(t_end) / d p_j
package analysis
