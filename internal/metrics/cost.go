package metrics

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
)

// QuadraticCost is the trapezoid-rule integral of 1/2 (|x|^2 + |u|^2) over
// the sampled times.
type QuadraticCost struct {
	ts []float64
	fs []float64
}

func NewQuadraticCost() *QuadraticCost {
	return &QuadraticCost{}
}

func (q *QuadraticCost) Name() string { return "quadratic_cost" }

func (q *QuadraticCost) Observe(t float64, x, u []float64) {
	q.ts = append(q.ts, t)
	q.fs = append(q.fs, 0.5*(floats.Dot(x, x)+floats.Dot(u, u)))
}

func (q *QuadraticCost) Value() float64 {
	if len(q.ts) < 2 {
		return 0
	}
	return integrate.Trapezoidal(q.ts, q.fs)
}

func (q *QuadraticCost) Reset() {
	q.ts = q.ts[:0]
	q.fs = q.fs[:0]
}

// TerminalError is the Euclidean distance between the last observed state
// and a target.
type TerminalError struct {
	Target []float64
	last   []float64
}

func NewTerminalError(target ...float64) *TerminalError {
	return &TerminalError{Target: target}
}

func (e *TerminalError) Name() string { return "terminal_error" }

func (e *TerminalError) Observe(_ float64, x, _ []float64) {
	e.last = append(e.last[:0], x...)
}

func (e *TerminalError) Value() float64 {
	if len(e.last) == 0 || len(e.last) != len(e.Target) {
		return 0
	}
	return floats.Distance(e.last, e.Target, 2)
}

func (e *TerminalError) Reset() { e.last = e.last[:0] }

// ControlEffort is the time average of |u|_1 over the sampled interval,
// using the trapezoid rule so uneven grids are weighted by step length. A
// single sample yields its own |u|_1.
type ControlEffort struct {
	ts []float64
	fs []float64
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{}
}

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(t float64, _, u []float64) {
	c.ts = append(c.ts, t)
	c.fs = append(c.fs, floats.Norm(u, 1))
}

func (c *ControlEffort) Value() float64 {
	switch n := len(c.ts); {
	case n == 0:
		return 0
	case n == 1 || c.ts[n-1] == c.ts[0]:
		return c.fs[0]
	default:
		return integrate.Trapezoidal(c.ts, c.fs) / (c.ts[n-1] - c.ts[0])
	}
}

func (c *ControlEffort) Reset() {
	c.ts = c.ts[:0]
	c.fs = c.fs[:0]
}
