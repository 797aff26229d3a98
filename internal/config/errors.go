package config

import "errors"

// ErrInvalidConfig wraps every validation failure; the message names the
// offending field.
var ErrInvalidConfig = errors.New("config: invalid configuration")
