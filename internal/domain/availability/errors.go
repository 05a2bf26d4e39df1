package availability

import "errors"

var (
	ErrInvalidDuration              = errors.New("invalid slot duration")
	ErrInvalidAvailabilityException = errors.New("invalid availability exception")
)
