package booking

import "errors"

var (
	ErrValidation             = errors.New("validation error")
	ErrNotFound               = errors.New("booking not found")
	ErrSlotConflict           = errors.New("slot conflict")
	ErrOutsideAvailability    = errors.New("requested time is outside the professional's availability")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrTransactionFailed      = errors.New("transaction failed")
	ErrLockTimeout            = errors.New("lock wait timed out")
)
