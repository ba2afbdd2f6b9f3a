package sim

import "fmt"

// Status is the signed result of a stepper run. Negative values are
// failures.
type Status int

const (
	StatusOK             Status = 0
	StatusStepTooSmall   Status = -1
	StatusNonFinite      Status = -2
	StatusNewtonDiverged Status = -3
	StatusCanceled       Status = -4
	StatusMaxSteps       Status = -5
	StatusSingular       Status = -6
)

func (s Status) Failed() bool { return s < 0 }

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusStepTooSmall:
		return "step size below minimum"
	case StatusNonFinite:
		return "state not finite"
	case StatusNewtonDiverged:
		return "newton iteration diverged"
	case StatusCanceled:
		return "canceled"
	case StatusMaxSteps:
		return "step limit reached"
	case StatusSingular:
		return "iteration matrix singular"
	default:
		if s > 0 {
			return fmt.Sprintf("ok(%d)", int(s))
		}
		return fmt.Sprintf("failed(%d)", int(s))
	}
}
