package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrNoFeasible = errors.New("optim: every candidate failed")

// GridSearch scores the Cartesian product of per-parameter value lists.
// Indices selects which components of the base vector are varied.
type GridSearch struct {
	indices []int
	ranges  [][]float64

	Limit  int
	Logger *zap.Logger
}

func NewGridSearch(indices []int, ranges [][]float64) *GridSearch {
	return &GridSearch{indices: indices, ranges: ranges, Logger: zap.NewNop()}
}

// Size is the number of candidates.
func (g *GridSearch) Size() int {
	if len(g.ranges) == 0 {
		return 0
	}
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// candidate decodes the k-th grid point into p, varying the last
// parameter fastest.
func (g *GridSearch) candidate(k int, p []float64) {
	for d := len(g.ranges) - 1; d >= 0; d-- {
		r := g.ranges[d]
		p[g.indices[d]] = r[k%len(r)]
		k /= len(r)
	}
}

// Search evaluates every candidate concurrently. Candidates whose
// objective fails are logged and skipped; the search fails only if all of
// them do or ctx is canceled.
func (g *GridSearch) Search(ctx context.Context, f Objective, base []float64) (Result, error) {
	if len(g.indices) != len(g.ranges) {
		return Result{}, fmt.Errorf("optim: %d indices for %d ranges", len(g.indices), len(g.ranges))
	}
	for d, idx := range g.indices {
		if idx < 0 || idx >= len(base) {
			return Result{}, fmt.Errorf("optim: parameter index %d out of range", idx)
		}
		if len(g.ranges[d]) == 0 {
			return Result{}, fmt.Errorf("%w: range %d has no values", ErrBadInterval, d)
		}
	}

	limit := g.Limit
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	logger := g.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		mu   sync.Mutex
		best = Result{Value: math.Inf(1)}
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)

	for k := 0; k < g.Size(); k++ {
		k := k
		eg.Go(func() error {
			p := append([]float64(nil), base...)
			g.candidate(k, p)

			val, err := f(ctx, p)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Debug("candidate failed", zap.Float64s("params", p), zap.Error(err))
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			best.Iterations++
			if val < best.Value {
				best.Value = val
				best.X = p
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return Result{}, err
	}
	if best.X == nil {
		return Result{}, ErrNoFeasible
	}
	return best, nil
}
