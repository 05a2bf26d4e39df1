package catalog

import "errors"

var (
	ErrProfessionalNotFound = errors.New("professional not found")
	ErrServiceNotFound      = errors.New("service not found")
	ErrDurationOutOfRange   = errors.New("service duration must be between 5 and 480 minutes")
)
