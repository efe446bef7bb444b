package fit

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/optimize"
)

var (
	// ErrInsufficientData is returned when the fit range leaves no degrees of
	// freedom.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrConvergence is the root of every solver failure.
	ErrConvergence = errors.New("fit did not converge")
)

// ConvergenceError carries the solver status at the point of failure.
type ConvergenceError struct {
	Status optimize.Status
	Reason string
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s: %s (status %v)", ErrConvergence, e.Reason, e.Status)
}

func (e *ConvergenceError) Unwrap() error { return ErrConvergence }
