package dynamo

import (
	"errors"
	"fmt"
)

// ErrIntegrationFailed indicates the stepping driver reported a negative status.
var ErrIntegrationFailed = errors.New("dynamo: integration failed")

// IntegrationError carries the status a stepper returned on failure.
type IntegrationError struct {
	Status  int
	Stepper string
}

func (e *IntegrationError) Error() string {
	if e.Stepper == "" {
		return fmt.Sprintf("%v (status %d)", ErrIntegrationFailed, e.Status)
	}
	return fmt.Sprintf("%v: %s returned status %d", ErrIntegrationFailed, e.Stepper, e.Status)
}

func (e *IntegrationError) Unwrap() error {
	return ErrIntegrationFailed
}
