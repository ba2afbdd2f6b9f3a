// Package buffer provides fixed-length numeric storage reused across
// evaluations on the integration hot path.
package buffer

// Fixed is an owned float64 buffer whose length never changes after New.
// A zero-length Fixed is valid and all of its operations are no-ops.
type Fixed struct {
	data []float64
}

func New(n int) *Fixed {
	return &Fixed{data: make([]float64, n)}
}

// FromSlice copies src into a new buffer of the same length.
func FromSlice(src []float64) *Fixed {
	f := New(len(src))
	copy(f.data, src)
	return f
}

func (f *Fixed) Len() int { return len(f.data) }

// Raw returns the backing slice. Writes through it are visible to f.
func (f *Fixed) Raw() []float64 { return f.data }

func (f *Fixed) At(i int) float64     { return f.data[i] }
func (f *Fixed) Set(i int, v float64) { f.data[i] = v }

func (f *Fixed) FillZero() {
	clear(f.data)
}

// CopyFrom copies min(len(src), f.Len()) values from src.
func (f *Fixed) CopyFrom(src []float64) int {
	return copy(f.data, src)
}

func (f *Fixed) Clone() *Fixed {
	return FromSlice(f.data)
}
