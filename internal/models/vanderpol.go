package models

// NewVanDerPol is the Van der Pol oscillator
//
//	x' = y
//	y' = mu (1 - x^2) y - x
func NewVanDerPol() *Model {
	return &Model{
		Name:        "vanderpol",
		Description: "Van der Pol relaxation oscillator",
		X0:          []float64{2, 0},
		Params:      []float64{1},
		ParamNames:  []string{"mu"},
		Start:       0,
		Stop:        20,
		Stepper:     "rk45",
		RHS: func(_ float64, x, _, p, out []float64, _ any) {
			mu := p[0]
			out[0] = x[1]
			out[1] = mu*(1-x[0]*x[0])*x[1] - x[0]
		},
		DenseJac: func(_ float64, x, _, p, out []float64, _ any) {
			mu := p[0]
			out[0] = 0
			out[1] = 1
			out[2] = -2*mu*x[0]*x[1] - 1
			out[3] = mu * (1 - x[0]*x[0])
		},
		SparseJac: func(_ float64, x, _, p, out []float64, _ any) {
			mu := p[0]
			out[0] = 1
			out[1] = -2*mu*x[0]*x[1] - 1
			out[2] = mu * (1 - x[0]*x[0])
		},
		rows: []int{0, 1, 1},
		cols: []int{1, 0, 1},
	}
}
