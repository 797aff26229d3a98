package plant

import "errors"

var (
	// ErrInvalidParams indicates physical parameters that cannot be simulated.
	ErrInvalidParams = errors.New("plant: invalid motor parameters")

	// ErrUnknownParam indicates a SetParam call with an unrecognized name.
	ErrUnknownParam = errors.New("plant: unknown parameter")
)
