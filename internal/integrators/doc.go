// Package integrators provides stepping drivers for [sim.Integrator].
//
// Every driver implements [sim.Stepper]: it advances the evaluator's state
// in place across the output grid and records one sample per grid time.
//
//   - [Euler]: explicit Euler, fixed substeps per grid interval
//   - [RK4]: classic fourth-order Runge-Kutta, fixed substeps
//   - [RK45]: Dormand-Prince 5(4) with adaptive step control
//   - [ImplicitEuler]: backward Euler with Newton iterations on the
//     Jacobian, for stiff systems
//
// Drivers keep scratch buffers between runs and are not safe for
// concurrent use; give each integrator its own driver.
package integrators
