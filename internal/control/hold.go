package control

import "sort"

// ZeroOrderHold keeps each sample until the next sample time. Times before
// the first sample use the first value.
type ZeroOrderHold struct {
	times  []float64
	series [][]float64
}

func NewZeroOrderHold(times []float64, series [][]float64) (*ZeroOrderHold, error) {
	if err := checkSamples(times, series); err != nil {
		return nil, err
	}
	z := &ZeroOrderHold{
		times:  append([]float64(nil), times...),
		series: make([][]float64, len(series)),
	}
	for i, s := range series {
		z.series[i] = append([]float64(nil), s...)
	}
	return z, nil
}

func (z *ZeroOrderHold) Dim() int { return len(z.series) }

func (z *ZeroOrderHold) InterpolateAt(t float64, out []float64) {
	// index of the last sample time <= t
	k := sort.Search(len(z.times), func(i int) bool { return z.times[i] > t }) - 1
	if k < 0 {
		k = 0
	}
	for i, s := range z.series {
		out[i] = s[k]
	}
}
