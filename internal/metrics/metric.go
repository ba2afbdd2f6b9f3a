package metrics

import "github.com/san-kum/moosim/internal/dynamo"

// Metric accumulates a scalar over the samples of a trajectory.
type Metric interface {
	Name() string
	Observe(t float64, x, u []float64)
	Value() float64
	Reset()
}

// Evaluate resets every metric, feeds it all samples of traj in order and
// returns the values by name.
func Evaluate(traj *dynamo.Trajectory, ms ...Metric) map[string]float64 {
	for _, m := range ms {
		m.Reset()
	}

	x := make([]float64, traj.XSize())
	u := make([]float64, traj.USize())
	for k, t := range traj.T {
		for i := range x {
			x[i] = traj.X[i][k]
		}
		for i := range u {
			u[i] = traj.U[i][k]
		}
		for _, m := range ms {
			m.Observe(t, x, u)
		}
	}

	values := make(map[string]float64, len(ms))
	for _, m := range ms {
		values[m.Name()] = m.Value()
	}
	return values
}
