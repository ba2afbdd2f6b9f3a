package dynamo

// Trajectory is the sampled output of one simulation run.
//
// X and U are stored per component: X[i][k] is state component i at sample
// k and T[k] is the time of sample k. P is the parameter snapshot taken once
// at the end of a successful run.
type Trajectory struct {
	T []float64
	X [][]float64
	U [][]float64
	P []float64
}

// NewTrajectory sizes the per-component series. capHint is the expected
// number of samples and only reserves capacity.
func NewTrajectory(xSize, uSize, capHint int) *Trajectory {
	tr := &Trajectory{
		T: make([]float64, 0, capHint),
		X: make([][]float64, xSize),
		U: make([][]float64, uSize),
	}
	for i := range tr.X {
		tr.X[i] = make([]float64, 0, capHint)
	}
	for i := range tr.U {
		tr.U[i] = make([]float64, 0, capHint)
	}
	return tr
}

// Append records one sample. x must have len(tr.X) values and u len(tr.U).
func (tr *Trajectory) Append(t float64, x, u []float64) {
	tr.T = append(tr.T, t)
	for i := range tr.X {
		tr.X[i] = append(tr.X[i], x[i])
	}
	for i := range tr.U {
		tr.U[i] = append(tr.U[i], u[i])
	}
}

func (tr *Trajectory) Len() int    { return len(tr.T) }
func (tr *Trajectory) XSize() int  { return len(tr.X) }
func (tr *Trajectory) USize() int  { return len(tr.U) }
func (tr *Trajectory) Empty() bool { return len(tr.T) == 0 }

// State returns a copy of the state at sample k.
func (tr *Trajectory) State(k int) State {
	s := make(State, len(tr.X))
	for i := range tr.X {
		s[i] = tr.X[i][k]
	}
	return s
}

// Control returns a copy of the controls at sample k.
func (tr *Trajectory) Control(k int) Control {
	c := make(Control, len(tr.U))
	for i := range tr.U {
		c[i] = tr.U[i][k]
	}
	return c
}

// Final returns the time and state of the last sample.
func (tr *Trajectory) Final() (float64, State) {
	if tr.Empty() {
		return 0, nil
	}
	k := tr.Len() - 1
	return tr.T[k], tr.State(k)
}

// Rows returns the samples as per-time state vectors.
func (tr *Trajectory) Rows() []State {
	rows := make([]State, tr.Len())
	for k := range rows {
		rows[k] = tr.State(k)
	}
	return rows
}

// ControlRows returns the samples as per-time control vectors.
func (tr *Trajectory) ControlRows() []Control {
	rows := make([]Control, tr.Len())
	for k := range rows {
		rows[k] = tr.Control(k)
	}
	return rows
}
