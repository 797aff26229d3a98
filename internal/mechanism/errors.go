package mechanism

import "errors"

var (
	ErrInvalidParams = errors.New("mechanism: invalid parameters")
	ErrUnknownKind   = errors.New("mechanism: unknown mechanism kind")
)
