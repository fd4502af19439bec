package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a batch holding NaN or Inf values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrDimensionMismatch indicates batches whose shapes do not line up.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between batches")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")
)

// SimulationError wraps an error with the tick and agent it occurred on.
type SimulationError struct {
	Step    int
	Time    float64
	Agent   string
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f) agent %s: %v", e.Step, e.Time, e.Agent, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
