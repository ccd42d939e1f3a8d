package domain

import (
	"errors"
	"fmt"
)

var (
	// Validation errors
	ErrInvalidAmount           = errors.New("amount must be a non-negative integer")
	ErrInvalidParticipantCount = errors.New("participant count must be at least 1")
	ErrInvalidParticipantName  = errors.New("invalid participant name")
	ErrEmptyRoster             = errors.New("roster is empty")
	ErrNonPositiveTotal        = errors.New("total spend must be positive")

	// Ledger errors
	ErrMalformedEntry     = errors.New("malformed entry")
	ErrEntryNotFound      = errors.New("entry not found")
	ErrRestaurantNotFound = errors.New("restaurant not found")

	// Flow errors
	ErrEditInProgress    = errors.New("another entry is being edited")
	ErrNotEditing        = errors.New("entry is not being edited")
	ErrOperationInFlight = errors.New("operation already in flight")

	// ErrPersistence matches every PersistenceError.
	ErrPersistence = errors.New("persistence failure")
)

// PersistenceError wraps a storage or transport failure of the Persistence Store.
type PersistenceError struct {
	Op  string
	Err error
}

// NewPersistenceError wraps err for operation op. A nil err yields nil.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is reports ErrPersistence as a match.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// IsValidationError reports whether err is a local validation failure.
func IsValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidParticipantCount),
		errors.Is(err, ErrInvalidParticipantName),
		errors.Is(err, ErrEmptyRoster),
		errors.Is(err, ErrNonPositiveTotal):
		return true
	default:
		return false
	}
}
