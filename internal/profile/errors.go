package profile

import "errors"

// ErrInvalidConstraints indicates a non-positive or non-finite kinematic limit.
var ErrInvalidConstraints = errors.New("profile: max velocity and max acceleration must be positive")
