package workflow

// State represents a workflow state in the case production lifecycle
type State string

const (
	StateReception        State = "reception"
	StateCADDesign        State = "cad_design"
	StateCAMMilling       State = "cam_milling"
	StateFinishing        State = "finishing"
	StateRemovable        State = "removable"
	StateQualityControl   State = "quality_control"
	StateAccounting       State = "accounting"
	StateReadyForDelivery State = "ready_for_delivery"
	StateDelivered        State = "delivered"
	StateReturned         State = "returned"
	StateCancelled        State = "cancelled"
)

var validStates = map[State]bool{
	StateReception:        true,
	StateCADDesign:        true,
	StateCAMMilling:       true,
	StateFinishing:        true,
	StateRemovable:        true,
	StateQualityControl:   true,
	StateAccounting:       true,
	StateReadyForDelivery: true,
	StateDelivered:        true,
	StateReturned:         true,
	StateCancelled:        true,
}

var terminalStates = map[State]bool{
	StateDelivered: true,
	StateReturned:  true,
	StateCancelled: true,
}

// AllStates lists every workflow state, pipeline order first, terminal
// exception states last.
var AllStates = []State{
	StateReception,
	StateCADDesign,
	StateCAMMilling,
	StateFinishing,
	StateRemovable,
	StateQualityControl,
	StateAccounting,
	StateReadyForDelivery,
	StateDelivered,
	StateReturned,
	StateCancelled,
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid workflow state
func (s State) IsValid() bool {
	return validStates[s]
}
