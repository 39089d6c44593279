package notify

import (
	"context"

	"leadwatch/internal/domain/entity"
	"leadwatch/internal/infra/notifier"
)

// TelegramChannel implements the Channel interface for Telegram notifications.
// It wraps the TelegramNotifier from the infrastructure layer to provide
// the Channel abstraction for the notification use case.
type TelegramChannel struct {
	notifier notifier.Notifier
	enabled  bool
}

// NewTelegramChannel creates a new Telegram channel with the specified configuration.
//
// If Telegram notifications are disabled (config.Enabled = false), a NoOpNotifier
// is used instead to avoid null checks and ensure the Channel interface contract
// is always satisfied.
func NewTelegramChannel(config notifier.TelegramConfig) *TelegramChannel {
	var n notifier.Notifier
	if config.Enabled {
		n = notifier.NewTelegramNotifier(config)
	} else {
		n = notifier.NewNoOpNotifier()
	}

	return &TelegramChannel{
		notifier: n,
		enabled:  config.Enabled,
	}
}

// Name returns the channel identifier "telegram".
func (c *TelegramChannel) Name() string {
	return "telegram"
}

// IsEnabled returns whether Telegram notifications are enabled via configuration.
func (c *TelegramChannel) IsEnabled() bool {
	return c.enabled
}

// Send sends a notification about a newly recorded lead to Telegram.
//
// This method performs input validation and delegates to the underlying
// TelegramNotifier for the actual bot API request. The notifier handles:
//   - Rate limiting (1 req/s with burst of 3)
//   - Retry logic (max 2 attempts with exponential backoff)
//   - Context timeout and cancellation
//   - Request ID generation and logging
func (c *TelegramChannel) Send(ctx context.Context, lead *entity.Lead) error {
	if !c.enabled {
		return ErrChannelDisabled
	}

	if lead == nil || lead.ID == "" || lead.Title == "" {
		return ErrInvalidLead
	}

	return c.notifier.NotifyLead(ctx, lead)
}
