// Package notifier provides abstraction for alerting a human about newly
// discovered leads. It defines the Notifier interface which allows
// different delivery mechanisms (Telegram, Slack, etc.) to be used
// interchangeably through dependency injection.
//
// The package includes implementations for the Telegram bot API, Slack
// incoming webhooks and a no-op notifier for when notifications are
// disabled. All implementations catch and classify their own transport
// errors; nothing here retries past its own boundary or lets a failure
// escape into the ingestion loop.
package notifier

import (
	"context"

	"leadwatch/internal/domain/entity"
)

// Notifier is an interface for sending lead notifications.
// Implementations handle rate limiting, bounded retries and error logging
// internally and must respect context cancellation.
type Notifier interface {
	// NotifyLead sends a notification about a newly committed lead.
	// Returns a non-nil error only after all internal retry attempts
	// failed; callers treat that as log-and-continue, never as fatal.
	NotifyLead(ctx context.Context, lead *entity.Lead) error
}
