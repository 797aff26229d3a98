package bench

import "errors"

var ErrUnstable = errors.New("bench: mechanism state diverged")
