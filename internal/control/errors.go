package control

import "errors"

var (
	// ErrInvalidArbiterConfig indicates inconsistent thresholds or power bounds.
	ErrInvalidArbiterConfig = errors.New("control: invalid arbiter configuration")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("control: parameter out of valid bounds")

	// ErrUnknownParam indicates a tuning parameter name the controller does not have.
	ErrUnknownParam = errors.New("control: unknown parameter")
)
