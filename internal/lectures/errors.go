package lectures

import "errors"

var (
	errInvalidDuration = errors.New("hours and minutes must be non-negative integers")
)
