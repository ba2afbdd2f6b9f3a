package models

// NewLorenz is the Lorenz system with parameters sigma, rho, beta.
func NewLorenz() *Model {
	return &Model{
		Name:        "lorenz",
		Description: "Lorenz butterfly attractor",
		X0:          []float64{1, 1, 1},
		Params:      []float64{10, 28, 8.0 / 3.0},
		ParamNames:  []string{"sigma", "rho", "beta"},
		Start:       0,
		Stop:        25,
		Stepper:     "rk45",
		RHS: func(_ float64, s, _, p, out []float64, _ any) {
			sigma, rho, beta := p[0], p[1], p[2]
			out[0] = sigma * (s[1] - s[0])
			out[1] = s[0]*(rho-s[2]) - s[1]
			out[2] = s[0]*s[1] - beta*s[2]
		},
		DenseJac: func(_ float64, s, _, p, out []float64, _ any) {
			sigma, rho, beta := p[0], p[1], p[2]
			out[0], out[1], out[2] = -sigma, sigma, 0
			out[3], out[4], out[5] = rho-s[2], -1, -s[0]
			out[6], out[7], out[8] = s[1], s[0], -beta
		},
		rows: []int{0, 0, 1, 1, 1, 2, 2, 2},
		cols: []int{0, 1, 0, 1, 2, 0, 1, 2},
	}
}
