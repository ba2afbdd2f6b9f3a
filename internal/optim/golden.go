package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Objective scores a parameter vector; lower is better.
type Objective func(ctx context.Context, p []float64) (float64, error)

var ErrBadInterval = errors.New("optim: empty search interval")

var invPhi = (math.Sqrt(5) - 1) / 2

// Result is the outcome of a search. Iterations counts bracket shrinks for
// GoldenSection and successfully scored candidates for GridSearch.
type Result struct {
	X          []float64
	Value      float64
	Iterations int
}

// GoldenSection minimizes a unimodal scalar function of p[index] on
// [lo, hi] with every other component held at base. It stops when the
// bracket is narrower than tol or after maxIter shrinks.
func GoldenSection(ctx context.Context, f Objective, base []float64, index int, lo, hi, tol float64, maxIter int) (Result, error) {
	if !(lo < hi) {
		return Result{}, fmt.Errorf("%w: [%g, %g]", ErrBadInterval, lo, hi)
	}
	if index < 0 || index >= len(base) {
		return Result{}, fmt.Errorf("optim: parameter index %d out of range", index)
	}

	p := append([]float64(nil), base...)
	eval := func(x float64) (float64, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		p[index] = x
		return f(ctx, p)
	}

	c := hi - invPhi*(hi-lo)
	d := lo + invPhi*(hi-lo)
	fc, err := eval(c)
	if err != nil {
		return Result{}, err
	}
	fd, err := eval(d)
	if err != nil {
		return Result{}, err
	}

	it := 0
	for ; math.Abs(hi-lo) > tol && it < maxIter; it++ {
		if fc > fd {
			lo, c, fc = c, d, fd
			d = lo + invPhi*(hi-lo)
			if fd, err = eval(d); err != nil {
				return Result{}, err
			}
		} else {
			hi, d, fd = d, c, fc
			c = hi - invPhi*(hi-lo)
			if fc, err = eval(c); err != nil {
				return Result{}, err
			}
		}
	}

	best := (lo + hi) / 2
	value, err := eval(best)
	if err != nil {
		return Result{}, err
	}
	p[index] = best
	return Result{X: p, Value: value, Iterations: it}, nil
}
