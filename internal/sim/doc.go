// Package sim is the evaluation core of the integration engine.
//
// An [Integrator] binds a right-hand side, an optional Jacobian with its
// sparsity [jacobian.Pattern], optional control inputs and a parameter
// vector to a dense output grid. A [Stepper] advances the state by calling
// back into the integrator through the [Evaluator] contract and appends
// one sample per grid time to the output [dynamo.Trajectory].
//
// # Buffers
//
// The state and parameter slices passed to [New] are borrowed. The
// integrator never copies or reallocates them, and steppers advance the
// state slice in place. The control cache and the sparse Jacobian scratch
// are owned by the integrator and reused on every evaluation.
//
// # Thread Safety
//
// An Integrator is NOT safe for concurrent use. Independent integrators
// with their own buffers may run in parallel; see [RunBatch].
package sim
