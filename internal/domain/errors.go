package domain

import "errors"

var (
	// ErrValidation indicates a record failed its field validation.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition indicates a state change not allowed from the
	// record's current state.
	ErrInvalidTransition = errors.New("invalid state transition")
)
