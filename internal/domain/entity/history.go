package entity

import "time"

// WorkflowHistoryEntry records one transition of a case. Entries form
// an append-only chain: entry N's ToStatus equals the case's
// CurrentStatus at the time it was written.
type WorkflowHistoryEntry struct {
	ID         int64  `json:"id"`
	CaseID     string `json:"case_id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	// StartTime is when the case entered ToStatus.
	StartTime       time.Time `json:"start_time"`
	Notes           string    `json:"notes,omitempty"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	ActorID         string    `json:"actor_id,omitempty"`
	// Override marks entries written by the privileged force-status
	// path rather than a table-validated transfer.
	Override bool `json:"override,omitempty"`
}
