package workflow

import (
	domainwf "github.com/dentalworks/labflow/internal/domain/workflow"
)

// BuildCaseStateMachine creates a state machine configured for the
// dental case production pipeline, positioned at initialState.
//
// Forward path: reception → cad_design → cam_milling → finishing →
// quality_control → accounting → ready_for_delivery → delivered, with
// removable as an alternate branch from reception merging back into
// quality_control. Backward edges out of quality_control carry a guard
// requiring a rejection reason.
func BuildCaseStateMachine(initialState domainwf.State) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	builder.Configure(domainwf.StateReception).
		Permit(domainwf.StateCADDesign).
		Permit(domainwf.StateRemovable).
		Permit(domainwf.StateCancelled)

	builder.Configure(domainwf.StateCADDesign).
		Permit(domainwf.StateCAMMilling).
		Permit(domainwf.StateCancelled)

	builder.Configure(domainwf.StateCAMMilling).
		Permit(domainwf.StateFinishing).
		Permit(domainwf.StateCancelled)

	builder.Configure(domainwf.StateFinishing).
		Permit(domainwf.StateQualityControl).
		Permit(domainwf.StateCancelled)

	builder.Configure(domainwf.StateRemovable).
		Permit(domainwf.StateQualityControl).
		Permit(domainwf.StateCancelled)

	// QC passes forward to accounting; rejections move backward and
	// must carry a reason.
	builder.Configure(domainwf.StateQualityControl).
		Permit(domainwf.StateAccounting).
		PermitIf(domainwf.StateFinishing, domainwf.RequireRejectionReason).
		PermitIf(domainwf.StateCAMMilling, domainwf.RequireRejectionReason).
		PermitIf(domainwf.StateCADDesign, domainwf.RequireRejectionReason).
		Permit(domainwf.StateCancelled)

	builder.Configure(domainwf.StateAccounting).
		Permit(domainwf.StateReadyForDelivery).
		Permit(domainwf.StateCancelled)

	builder.Configure(domainwf.StateReadyForDelivery).
		Permit(domainwf.StateDelivered).
		Permit(domainwf.StateReturned).
		Permit(domainwf.StateCancelled)

	// delivered, returned and cancelled are terminal - no outgoing transitions

	return builder.Build(initialState)
}

// RejectionTargets are the departments a QC failure may return a case
// to.
var RejectionTargets = map[domainwf.State]bool{
	domainwf.StateFinishing:  true,
	domainwf.StateCAMMilling: true,
	domainwf.StateCADDesign:  true,
}
