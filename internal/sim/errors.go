package sim

import "errors"

// Domain errors shared across the simulation packages.
var (
	// ErrGear indicates a gear command outside the supported range or not
	// an exact integer.
	ErrGear = errors.New("sim: gear out of range")

	// ErrNonFinite indicates a NaN or Inf appeared in a state, input or
	// output vector.
	ErrNonFinite = errors.New("sim: non-finite value")

	// ErrDimension indicates mismatched vector/system dimensions.
	ErrDimension = errors.New("sim: dimension mismatch")
)

// StepError records where in time a simulation failure occurred.
type StepError struct {
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return e.Wrapped.Error()
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
