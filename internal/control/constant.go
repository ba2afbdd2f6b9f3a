package control

// Constant returns the same control vector at every time.
type Constant struct {
	U []float64
}

func NewConstant(u ...float64) *Constant {
	return &Constant{U: append([]float64(nil), u...)}
}

// Zero is a constant trajectory of dim zeros.
func Zero(dim int) *Constant {
	return &Constant{U: make([]float64, dim)}
}

func (c *Constant) Dim() int { return len(c.U) }

func (c *Constant) InterpolateAt(_ float64, out []float64) {
	copy(out, c.U)
}

// Set replaces the held vector. The dimension must not change.
func (c *Constant) Set(u []float64) {
	if len(u) != len(c.U) {
		return
	}
	copy(c.U, u)
}

// Func adapts a function of time to a control trajectory.
type Func struct {
	N  int
	Fn func(t float64, out []float64)
}

func NewFunc(dim int, fn func(t float64, out []float64)) *Func {
	return &Func{N: dim, Fn: fn}
}

func (f *Func) Dim() int { return f.N }

func (f *Func) InterpolateAt(t float64, out []float64) {
	f.Fn(t, out)
}
