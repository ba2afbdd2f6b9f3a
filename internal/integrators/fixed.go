package integrators

import (
	"context"

	"github.com/san-kum/moosim/internal/dynamo"
	"github.com/san-kum/moosim/internal/sim"
)

// stepFunc advances x from t by h in place.
type stepFunc func(ev sim.Evaluator, t, h float64, x []float64) sim.Status

func sample(ev sim.Evaluator, out *dynamo.Trajectory, t float64, x []float64) {
	ev.SetControls(t)
	out.Append(t, x, ev.Controls())
}

// integrateFixed splits every grid interval into substeps equal steps.
func integrateFixed(ctx context.Context, ev sim.Evaluator, grid []float64, out *dynamo.Trajectory, substeps int, step stepFunc) sim.Status {
	if substeps < 1 {
		substeps = 1
	}

	x := ev.State()
	sample(ev, out, grid[0], x)

	for k := 1; k < len(grid); k++ {
		select {
		case <-ctx.Done():
			return sim.StatusCanceled
		default:
		}

		t0 := grid[k-1]
		h := (grid[k] - t0) / float64(substeps)
		for s := 0; s < substeps; s++ {
			if status := step(ev, t0+float64(s)*h, h, x); status.Failed() {
				return status
			}
		}

		if !dynamo.State(x).IsValid() {
			return sim.StatusNonFinite
		}
		sample(ev, out, grid[k], x)
	}

	return sim.StatusOK
}
