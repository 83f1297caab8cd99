package workflow

import "context"

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const rejectionReasonKey contextKey = "rejection_reason"

// WithRejectionReason annotates the context with the reason for a
// backward transition. Guards on rejection edges read it.
func WithRejectionReason(ctx context.Context, reason string) context.Context {
	return context.WithValue(ctx, rejectionReasonKey, reason)
}

// RejectionReasonFrom extracts the rejection reason from the context,
// if one was set.
func RejectionReasonFrom(ctx context.Context) string {
	if reason, ok := ctx.Value(rejectionReasonKey).(string); ok {
		return reason
	}
	return ""
}

// RequireRejectionReason is the guard placed on backward (rejection)
// edges: the transition is only allowed when a non-empty reason was
// attached to the context.
func RequireRejectionReason(ctx context.Context) bool {
	return RejectionReasonFrom(ctx) != ""
}
