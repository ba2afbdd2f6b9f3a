package models

// NewRobertson is Robertson's stiff three-species reaction
//
//	y1' = -k1 y1 + k3 y2 y3
//	y2' =  k1 y1 - k3 y2 y3 - k2 y2^2
//	y3' =  k2 y2^2
//
// Rates span nine orders of magnitude; explicit steppers need tiny steps.
func NewRobertson() *Model {
	return &Model{
		Name:        "robertson",
		Description: "stiff chemical kinetics",
		X0:          []float64{1, 0, 0},
		Params:      []float64{0.04, 3e7, 1e4},
		ParamNames:  []string{"k1", "k2", "k3"},
		Start:       0,
		Stop:        40,
		Stepper:     "implicit_euler",
		RHS: func(_ float64, y, _, p, out []float64, _ any) {
			k1, k2, k3 := p[0], p[1], p[2]
			out[0] = -k1*y[0] + k3*y[1]*y[2]
			out[1] = k1*y[0] - k3*y[1]*y[2] - k2*y[1]*y[1]
			out[2] = k2 * y[1] * y[1]
		},
		DenseJac: func(_ float64, y, _, p, out []float64, _ any) {
			k1, k2, k3 := p[0], p[1], p[2]
			out[0], out[1], out[2] = -k1, k3*y[2], k3*y[1]
			out[3], out[4], out[5] = k1, -k3*y[2]-2*k2*y[1], -k3*y[1]
			out[6], out[7], out[8] = 0, 2*k2*y[1], 0
		},
		SparseJac: func(_ float64, y, _, p, out []float64, _ any) {
			k1, k2, k3 := p[0], p[1], p[2]
			out[0], out[1], out[2] = -k1, k3*y[2], k3*y[1]
			out[3], out[4], out[5] = k1, -k3*y[2]-2*k2*y[1], -k3*y[1]
			out[6] = 2 * k2 * y[1]
		},
		rows: []int{0, 0, 0, 1, 1, 1, 2},
		cols: []int{0, 1, 2, 0, 1, 2, 1},
	}
}
