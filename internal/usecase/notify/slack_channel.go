package notify

import (
	"context"

	"leadwatch/internal/domain/entity"
	"leadwatch/internal/infra/notifier"
)

// SlackChannel implements the Channel interface for Slack notifications.
// It wraps the SlackNotifier from the infrastructure layer to provide
// the Channel abstraction for the notification use case.
type SlackChannel struct {
	notifier notifier.Notifier
	enabled  bool
}

// NewSlackChannel creates a new Slack channel with the specified configuration.
//
// If Slack notifications are disabled (config.Enabled = false), a NoOpNotifier
// is used instead to avoid null checks and ensure the Channel interface contract
// is always satisfied.
func NewSlackChannel(config notifier.SlackConfig) *SlackChannel {
	var n notifier.Notifier
	if config.Enabled {
		n = notifier.NewSlackNotifier(config)
	} else {
		n = notifier.NewNoOpNotifier()
	}

	return &SlackChannel{
		notifier: n,
		enabled:  config.Enabled,
	}
}

// Name returns the channel identifier "slack".
func (c *SlackChannel) Name() string {
	return "slack"
}

// IsEnabled returns whether Slack notifications are enabled via configuration.
func (c *SlackChannel) IsEnabled() bool {
	return c.enabled
}

// Send sends a notification about a newly recorded lead to Slack.
//
// This method performs input validation and delegates to the underlying
// SlackNotifier for the actual webhook request. The notifier handles:
//   - Rate limiting (1 req/s with burst of 1)
//   - Retry logic (max 2 attempts with exponential backoff)
//   - Context timeout and cancellation
//   - Request ID generation and logging
func (c *SlackChannel) Send(ctx context.Context, lead *entity.Lead) error {
	if !c.enabled {
		return ErrChannelDisabled
	}

	if lead == nil || lead.ID == "" || lead.Title == "" {
		return ErrInvalidLead
	}

	return c.notifier.NotifyLead(ctx, lead)
}
