package workflow

import (
	"context"

	"github.com/dentalworks/labflow/internal/domain/entity"
	domainwf "github.com/dentalworks/labflow/internal/domain/workflow"
)

// TransferOptions carries optional metadata for a transfer.
type TransferOptions struct {
	// Notes is free text recorded on the history entry
	Notes string

	// RejectionReason is required for backward transitions out of
	// quality_control
	RejectionReason string

	// ActorID identifies who requested the transfer
	ActorID string
}

// TransitionEngine validates and executes case status transitions. It
// is the only component allowed to mutate CurrentStatus.
type TransitionEngine interface {
	// TransferCase validates the move against the transition table,
	// appends a history entry, updates CurrentStatus and fires the
	// destination's side effects, all as one atomic unit.
	TransferCase(ctx context.Context, caseID string, toStatus domainwf.State, opts TransferOptions) (*entity.DentalCase, error)

	// ForceStatus is the privileged admin override: it bypasses the
	// transition table but still appends a history entry marked as an
	// override. Gated on the actor's role.
	ForceStatus(ctx context.Context, caseID string, toStatus domainwf.State, actorID, actorRole, notes string) (*entity.DentalCase, error)
}
