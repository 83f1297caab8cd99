package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a state transition is not allowed
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state is not valid
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardFailed is returned when a guard condition fails
	ErrGuardFailed = errors.New("guard condition failed")

	// ErrCasePaused is returned when a transfer is attempted on a case
	// holding an open removable pause
	ErrCasePaused = errors.New("case is paused")

	// ErrCaseConflict is returned when a concurrent transfer won the
	// optimistic version check first
	ErrCaseConflict = errors.New("case was modified concurrently")

	// ErrRejectionReasonRequired is returned when a backward transition
	// is requested without a rejection reason
	ErrRejectionReasonRequired = errors.New("rejection reason required for backward transition")
)
