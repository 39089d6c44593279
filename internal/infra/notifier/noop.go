package notifier

import (
	"context"

	"leadwatch/internal/domain/entity"
)

// NoOpNotifier is a no-operation implementation of the Notifier interface.
// It is used when notifications are disabled to avoid null checks in the code.
// This follows the Null Object pattern.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new NoOpNotifier instance.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// NotifyLead does nothing and returns nil immediately.
// This allows notifications to be disabled without changing the code flow.
func (n *NoOpNotifier) NotifyLead(ctx context.Context, lead *entity.Lead) error {
	// No-op: intentionally does nothing
	return nil
}
