package reservoir

import "errors"

// Domain errors for reservoir construction and evaluation.
var (
	// ErrDimensionMismatch indicates an input vector that disagrees with
	// the projection's expected dimension.
	ErrDimensionMismatch = errors.New("reservoir: dimension mismatch between input and projection")

	// ErrSingularMatrix indicates an unregularized readout solve on a
	// singular Gram matrix.
	ErrSingularMatrix = errors.New("reservoir: singular matrix in readout solve")

	// ErrUnstable indicates NaN or Inf values appeared during evaluation.
	ErrUnstable = errors.New("reservoir: numerical instability (NaN or Inf detected)")

	// ErrUnknownActivation indicates an activation name with no registry entry.
	ErrUnknownActivation = errors.New("reservoir: unknown activation")

	// ErrUnknownStructure indicates a projection structure with no registry entry.
	ErrUnknownStructure = errors.New("reservoir: unknown projection structure")

	// ErrParameterBounds indicates a parameter value outside its valid range.
	ErrParameterBounds = errors.New("reservoir: parameter out of valid bounds")
)

// EvalError wraps an error with the time step at which it occurred.
type EvalError struct {
	Step    int
	Wrapped error
}

func (e *EvalError) Error() string {
	return e.Wrapped.Error()
}

func (e *EvalError) Unwrap() error {
	return e.Wrapped
}
