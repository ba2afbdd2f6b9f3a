package control

import (
	"fmt"

	"gonum.org/v1/gonum/interp"
)

// Linear interpolates each control component linearly between samples.
// Before the first and after the last sample it holds the end values.
type Linear struct {
	fits  []interp.PiecewiseLinear
	hold  []float64
	times []float64
}

// NewLinear builds a trajectory from sample times and one series per
// component (series[i][k] is component i at times[k]).
func NewLinear(times []float64, series [][]float64) (*Linear, error) {
	if err := checkSamples(times, series); err != nil {
		return nil, err
	}

	l := &Linear{times: append([]float64(nil), times...)}
	if len(times) == 1 {
		l.hold = make([]float64, len(series))
		for i, s := range series {
			l.hold[i] = s[0]
		}
		return l, nil
	}

	l.fits = make([]interp.PiecewiseLinear, len(series))
	for i, s := range series {
		if err := l.fits[i].Fit(times, s); err != nil {
			return nil, fmt.Errorf("control: fit component %d: %w", i, err)
		}
	}
	return l, nil
}

func (l *Linear) Dim() int {
	if l.hold != nil {
		return len(l.hold)
	}
	return len(l.fits)
}

func (l *Linear) InterpolateAt(t float64, out []float64) {
	if l.hold != nil {
		copy(out, l.hold)
		return
	}
	for i := range l.fits {
		out[i] = l.fits[i].Predict(t)
	}
}

// Span returns the first and last sample time.
func (l *Linear) Span() (float64, float64) {
	return l.times[0], l.times[len(l.times)-1]
}

func checkSamples(times []float64, series [][]float64) error {
	if len(times) == 0 {
		return ErrNoSamples
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return fmt.Errorf("%w: t[%d]=%g after t[%d]=%g", ErrNotIncreasing, i, times[i], i-1, times[i-1])
		}
	}
	for i, s := range series {
		if len(s) != len(times) {
			return fmt.Errorf("%w: component %d has %d values for %d times", ErrSeriesLength, i, len(s), len(times))
		}
	}
	return nil
}
