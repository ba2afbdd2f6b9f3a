package sim

import (
	"github.com/san-kum/moosim/internal/dynamo"
	"github.com/san-kum/moosim/internal/jacobian"
	"go.uber.org/zap"
)

type Option func(*Integrator)

// WithUserData sets the opaque handle forwarded to every callback.
func WithUserData(data any) Option {
	return func(in *Integrator) { in.data = data }
}

// WithControls attaches a control trajectory. Without one u_size is zero
// and control handling is a no-op.
func WithControls(c dynamo.ControlTrajectory) Option {
	return func(in *Integrator) { in.controls = c }
}

// WithJacobian attaches a Jacobian callback writing values laid out by
// pattern.
func WithJacobian(fn dynamo.JacobianFunc, pattern jacobian.Pattern) Option {
	return func(in *Integrator) {
		in.jac = fn
		in.pattern = pattern
	}
}

// WithLegacyCSCJacobian attaches a CSC Jacobian callback that takes
// parameters before controls.
func WithLegacyCSCJacobian(fn dynamo.CSCLegacyFunc, colPtr, row []int) Option {
	return WithJacobian(fn.Normalize(), jacobian.CSCPattern(colPtr, row))
}

func WithLogger(logger *zap.Logger) Option {
	return func(in *Integrator) {
		if logger != nil {
			in.logger = logger
		}
	}
}
