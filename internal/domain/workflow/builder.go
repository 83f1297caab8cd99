package workflow

import (
	"context"
	"fmt"
)

// GuardFunc is a function that evaluates whether a transition should be allowed
type GuardFunc func(ctx context.Context) bool

// StateMachineBuilder builds a configured state machine
type StateMachineBuilder interface {
	// Configure returns a state configuration for the given state
	Configure(state State) StateConfiguration

	// Build creates a new state machine instance with the given initial state
	Build(initialState State) StateMachine
}

// StateConfiguration configures outgoing transitions for a specific state
type StateConfiguration interface {
	// Permit allows a transition to the target state
	Permit(toState State) StateConfiguration

	// PermitIf allows a transition to the target state if the guard condition passes
	PermitIf(toState State, guard GuardFunc) StateConfiguration
}

// transition represents a permitted destination with optional guard
type transition struct {
	guard GuardFunc
}

// stateConfig implements StateConfiguration
type stateConfig struct {
	fromState   State
	transitions map[State]transition
}

// stateMachineBuilder implements StateMachineBuilder
type stateMachineBuilder struct {
	configurations map[State]*stateConfig
}

// stateMachine implements StateMachine
type stateMachine struct {
	currentState   State
	configurations map[State]*stateConfig
}

// NewBuilder creates a new state machine builder
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{
		configurations: make(map[State]*stateConfig),
	}
}

// Configure returns a state configuration for the given state
func (b *stateMachineBuilder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}

	config, exists := b.configurations[state]
	if !exists {
		config = &stateConfig{
			fromState:   state,
			transitions: make(map[State]transition),
		}
		b.configurations[state] = config
	}

	return config
}

// Build creates a new state machine instance with the given initial state
func (b *stateMachineBuilder) Build(initialState State) StateMachine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initialState))
	}

	// Deep copy configurations to ensure immutability
	configsCopy := make(map[State]*stateConfig)
	for state, config := range b.configurations {
		transitionsCopy := make(map[State]transition, len(config.transitions))
		for to, t := range config.transitions {
			transitionsCopy[to] = t
		}
		configsCopy[state] = &stateConfig{
			fromState:   state,
			transitions: transitionsCopy,
		}
	}

	return &stateMachine{
		currentState:   initialState,
		configurations: configsCopy,
	}
}

// Permit allows a transition to the target state
func (c *stateConfig) Permit(toState State) StateConfiguration {
	return c.PermitIf(toState, nil)
}

// PermitIf allows a transition to the target state if the guard condition passes
func (c *stateConfig) PermitIf(toState State, guard GuardFunc) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}

	c.transitions[toState] = transition{guard: guard}

	return c
}

// State returns the current state
func (m *stateMachine) State() State {
	return m.currentState
}

// CanTransition returns true if a move to the target state is permitted
// in the current state. Guards are not evaluated here; a guarded edge
// counts as permitted.
func (m *stateMachine) CanTransition(to State) bool {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return false
	}

	_, exists = config.transitions[to]
	return exists
}

// TransitionTo attempts to move to the target state
func (m *stateMachine) TransitionTo(ctx context.Context, to State) error {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return fmt.Errorf("%w: cannot move from %s to %s (no configuration)", ErrInvalidTransition, m.currentState, to)
	}

	t, exists := config.transitions[to]
	if !exists {
		return fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidTransition, m.currentState, to)
	}

	if t.guard != nil && !t.guard(ctx) {
		return fmt.Errorf("%w: move from %s to %s", ErrGuardFailed, m.currentState, to)
	}

	m.currentState = to
	return nil
}

// PermittedStates returns all states reachable from the current state
func (m *stateMachine) PermittedStates() []State {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return []State{}
	}

	states := make([]State, 0, len(config.transitions))
	for to := range config.transitions {
		states = append(states, to)
	}

	return states
}
