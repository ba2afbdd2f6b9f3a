package models

import (
	"math"

	"github.com/san-kum/moosim/internal/control"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
)

const (
	MWEHorizon = 100.0
	MWEStart   = 1.5
	MWETarget  = 1.0
	// MWEOptimalP is the parameter minimising the MWE cost, as found by an
	// external optimizer and confirmed by golden-section search.
	MWEOptimalP = 0.02500176076771822
)

// NewMWE is the minimal working example
//
//	min over u, p of  1/2 * integral (x^2 + u^2) dt  on [0, 100]
//	x' = -x + u + p,  x(0) = 1.5,  x(100) = 1
//
// Its default input is zero; [MWEProfile] supplies the optimal one.
func NewMWE() *Model {
	return &Model{
		Name:        "mwe",
		Description: "x' = -x + u + p, quadratic cost, fixed end state",
		X0:          []float64{MWEStart},
		Params:      []float64{0.025},
		ParamNames:  []string{"p"},
		ControlDim:  1,
		Start:       0,
		Stop:        MWEHorizon,
		Stepper:     "rk45",
		RHS: func(_ float64, x, u, p, out []float64, _ any) {
			out[0] = -x[0] + u[0] + p[0]
		},
		DenseJac: func(_ float64, _, _, _, out []float64, _ any) {
			out[0] = -1
		},
		rows: []int{0},
		cols: []int{0},
	}
}

// MWEProfile is the closed-form optimal state and control of the MWE for a
// fixed p, from the Euler-Lagrange equations x'' = 2x - p:
//
//	x(t) = p/2 + A e^{s(t-T)} + B e^{-st}
//	u(t) = A (1+s) e^{s(t-T)} + B (1-s) e^{-st} - p/2,  s = sqrt(2)
//
// Shifting the growing mode by T keeps every term bounded.
type MWEProfile struct {
	P float64
	A float64
	B float64
	T float64
}

func NewMWEProfile(p float64) MWEProfile {
	s := math.Sqrt2
	T := MWEHorizon
	em := math.Exp(-s * T)
	x0 := MWEStart - p/2
	xT := MWETarget - p/2
	den := 1 - em*em

	return MWEProfile{
		P: p,
		A: (xT - x0*em) / den,
		B: (x0 - xT*em) / den,
		T: T,
	}
}

func (m MWEProfile) grow(t float64) float64  { return math.Exp(math.Sqrt2 * (t - m.T)) }
func (m MWEProfile) decay(t float64) float64 { return math.Exp(-math.Sqrt2 * t) }

func (m MWEProfile) X(t float64) float64 {
	return m.P/2 + m.A*m.grow(t) + m.B*m.decay(t)
}

func (m MWEProfile) U(t float64) float64 {
	s := math.Sqrt2
	return m.A*(1+s)*m.grow(t) + m.B*(1-s)*m.decay(t) - m.P/2
}

// Controls returns the optimal input as a control trajectory.
func (m MWEProfile) Controls() *control.Func {
	return control.NewFunc(1, func(t float64, out []float64) {
		out[0] = m.U(t)
	})
}

// Cost evaluates 1/2 integral (x^2 + u^2) dt of the profile by Simpson's
// rule on n evenly spaced samples.
func (m MWEProfile) Cost(n int) float64 {
	ts := floats.Span(make([]float64, n), 0, m.T)
	fs := make([]float64, n)
	for i, t := range ts {
		x, u := m.X(t), m.U(t)
		fs[i] = 0.5 * (x*x + u*u)
	}
	return integrate.Simpsons(ts, fs)
}
