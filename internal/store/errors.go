package store

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/delegate/internal/domain"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalid indicates the input failed validation or referenced a
	// record that does not fit (wrong project, wrong kind, missing step).
	ErrInvalid = errors.New("invalid input")

	// ErrLocked indicates a concurred time entry was targeted by an edit.
	ErrLocked = errors.New("time entry is locked")

	// ErrSessionActive indicates the user already has a running or paused
	// work session.
	ErrSessionActive = errors.New("user already has an active work session")

	// ErrCycle indicates a parent chain loops back on itself or exceeds the
	// maximum depth.
	ErrCycle = errors.New("hierarchy cycle detected")

	// ErrPersist wraps a backend failure after the in-memory change was
	// applied.
	ErrPersist = errors.New("persist state")

	// ErrInvalidTransition is the domain sentinel, re-exported so callers
	// only need this package.
	ErrInvalidTransition = domain.ErrInvalidTransition
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// invalid marks a domain validation error as ErrInvalid while keeping
// domain.ErrValidation in the chain.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, err)
}
