package sim

import (
	"context"
	"fmt"
	"runtime"

	"github.com/san-kum/moosim/internal/dynamo"
	"golang.org/x/sync/errgroup"
)

// RunBatch simulates independent integrators concurrently with at most
// limit runs in flight (limit <= 0 uses GOMAXPROCS). Integrators must not
// share state, parameter or user-data buffers, steppers, or sparse
// Jacobian callbacks. Results are returned in input order; if any run
// fails the first error is returned with a nil slice.
func RunBatch(ctx context.Context, runs []*Integrator, limit int) ([]*dynamo.Trajectory, error) {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([]*dynamo.Trajectory, len(runs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, in := range runs {
		i, in := i, in
		g.Go(func() error {
			tr, err := in.Simulate(ctx)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			results[i] = tr
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
