package workflow

import "context"

// StateMachine tracks the current state of a case and validates
// destination-addressed transitions.
type StateMachine interface {
	// State returns the current state
	State() State

	// CanTransition returns true if a move to the target state is
	// permitted from the current state
	CanTransition(to State) bool

	// TransitionTo attempts to move to the target state, failing with
	// ErrInvalidTransition or ErrGuardFailed if the move is not allowed
	TransitionTo(ctx context.Context, to State) error

	// PermittedStates returns all states reachable from the current state
	PermittedStates() []State
}
