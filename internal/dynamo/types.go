package dynamo

import "math"

type State []float64

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Control []float64

// ODEFunc evaluates the right-hand side into out (length x_size).
// x has length x_size, u has length u_size, p has length p_size.
// data is the opaque user handle given to the integrator.
type ODEFunc func(t float64, x, u, p, out []float64, data any)

// JacobianFunc evaluates df/dx into out. For the dense format out is the
// row-major x_size*x_size matrix; for sparse formats out holds one value
// per nonzero of the configured pattern.
type JacobianFunc func(t float64, x, u, p, out []float64, data any)

// CSCLegacyFunc is a CSC Jacobian callback written against the older
// contract where parameters come before controls.
type CSCLegacyFunc func(t float64, x, p, u, out []float64, data any)

// Normalize adapts f to the JacobianFunc argument order.
func (f CSCLegacyFunc) Normalize() JacobianFunc {
	if f == nil {
		return nil
	}
	return func(t float64, x, u, p, out []float64, data any) {
		f(t, x, p, u, out, data)
	}
}

// ControlTrajectory supplies control inputs at arbitrary times.
type ControlTrajectory interface {
	// Dim returns u_size.
	Dim() int
	// InterpolateAt writes the control vector valid at t into out.
	InterpolateAt(t float64, out []float64)
}
