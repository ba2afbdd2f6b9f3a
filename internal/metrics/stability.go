package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Stability is the fraction of samples whose state has max-norm within
// Bound. A run with no samples counts as stable.
type Stability struct {
	Bound float64

	inside  int
	samples int
}

func NewStability(bound float64) *Stability {
	return &Stability{Bound: bound}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(_ float64, x, _ []float64) {
	s.samples++
	if floats.Norm(x, math.Inf(1)) <= s.Bound {
		s.inside++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1
	}
	return float64(s.inside) / float64(s.samples)
}

func (s *Stability) Reset() { s.inside, s.samples = 0, 0 }
