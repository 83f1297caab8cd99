package workflow

import (
	"testing"

	domainwf "github.com/dentalworks/labflow/internal/domain/workflow"
)

// allowedTransitions is the full production pipeline, written out
// explicitly so a change to the factory has to be mirrored here.
var allowedTransitions = map[domainwf.State][]domainwf.State{
	domainwf.StateReception:        {domainwf.StateCADDesign, domainwf.StateRemovable, domainwf.StateCancelled},
	domainwf.StateCADDesign:        {domainwf.StateCAMMilling, domainwf.StateCancelled},
	domainwf.StateCAMMilling:       {domainwf.StateFinishing, domainwf.StateCancelled},
	domainwf.StateFinishing:        {domainwf.StateQualityControl, domainwf.StateCancelled},
	domainwf.StateRemovable:        {domainwf.StateQualityControl, domainwf.StateCancelled},
	domainwf.StateQualityControl:   {domainwf.StateAccounting, domainwf.StateFinishing, domainwf.StateCAMMilling, domainwf.StateCADDesign, domainwf.StateCancelled},
	domainwf.StateAccounting:       {domainwf.StateReadyForDelivery, domainwf.StateCancelled},
	domainwf.StateReadyForDelivery: {domainwf.StateDelivered, domainwf.StateReturned, domainwf.StateCancelled},
	domainwf.StateDelivered:        {},
	domainwf.StateReturned:         {},
	domainwf.StateCancelled:        {},
}

func TestBuildCaseStateMachine_FullTable(t *testing.T) {
	for _, from := range domainwf.AllStates {
		allowed := make(map[domainwf.State]bool)
		for _, to := range allowedTransitions[from] {
			allowed[to] = true
		}

		machine := BuildCaseStateMachine(from)
		for _, to := range domainwf.AllStates {
			got := machine.CanTransition(to)
			if got != allowed[to] {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", from, to, got, allowed[to])
			}
		}
	}
}

func TestBuildCaseStateMachine_TerminalStatesHaveNoExit(t *testing.T) {
	for _, from := range domainwf.AllStates {
		if !from.IsTerminal() {
			continue
		}
		machine := BuildCaseStateMachine(from)
		if permitted := machine.PermittedStates(); len(permitted) != 0 {
			t.Errorf("terminal state %s permits %v", from, permitted)
		}
	}
}

func TestRejectionTargets(t *testing.T) {
	want := []domainwf.State{
		domainwf.StateFinishing,
		domainwf.StateCAMMilling,
		domainwf.StateCADDesign,
	}
	if len(RejectionTargets) != len(want) {
		t.Fatalf("RejectionTargets has %d entries, want %d", len(RejectionTargets), len(want))
	}
	for _, s := range want {
		if !RejectionTargets[s] {
			t.Errorf("RejectionTargets missing %s", s)
		}
	}
}
