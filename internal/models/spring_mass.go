package models

const (
	DefaultStiffness = 10.0
	DefaultDamping   = 0.5
	DefaultMass      = 1.0
)

// NewSpringMass is a damped spring-mass with state [pos, vel] driven by an
// external force u.
func NewSpringMass() *Model {
	return &Model{
		Name:        "spring_mass",
		Description: "damped spring-mass with external force",
		X0:          []float64{1, 0},
		Params:      []float64{DefaultStiffness, DefaultDamping, DefaultMass},
		ParamNames:  []string{"k", "c", "m"},
		ControlDim:  1,
		Start:       0,
		Stop:        20,
		Stepper:     "rk4",
		RHS: func(_ float64, x, u, p, out []float64, _ any) {
			k, c, m := p[0], p[1], p[2]
			out[0] = x[1]
			out[1] = (-k*x[0] - c*x[1] + u[0]) / m
		},
		DenseJac: func(_ float64, _, _, p, out []float64, _ any) {
			k, c, m := p[0], p[1], p[2]
			out[0], out[1] = 0, 1
			out[2], out[3] = -k/m, -c/m
		},
		rows: []int{0, 1, 1},
		cols: []int{1, 0, 1},
	}
}

// SpringEnergy is the mechanical energy of a spring-mass state.
func SpringEnergy(x, p []float64) float64 {
	k, m := p[0], p[2]
	return 0.5*m*x[1]*x[1] + 0.5*k*x[0]*x[0]
}
