package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"leadwatch/internal/domain/entity"

	"github.com/google/uuid"
)

// TelegramConfig contains configuration for Telegram bot notifications.
type TelegramConfig struct {
	// Enabled indicates whether Telegram notifications are enabled
	Enabled bool

	// BotToken is the Telegram bot API token
	BotToken string

	// ChatID is the target chat or channel identifier
	ChatID string

	// Timeout is the HTTP request timeout for Telegram API calls
	Timeout time.Duration
}

// TelegramNotifier sends lead notifications to a Telegram chat via the bot API.
type TelegramNotifier struct {
	config      TelegramConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
	apiBaseURL  string
}

// NewTelegramNotifier creates a new TelegramNotifier with the specified configuration.
//
// The notifier is initialized with:
//   - HTTP client with configured timeout
//   - Rate limiter set to 1 request/second with burst of 3
//     (Telegram bot limit: ~1 message per second per chat)
func NewTelegramNotifier(config TelegramConfig) *TelegramNotifier {
	return &TelegramNotifier{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimiter: NewRateLimiter(1.0, 3), // 1 req/s per chat, burst of 3
		apiBaseURL:  "https://api.telegram.org",
	}
}

// telegramSendMessageRequest represents the JSON payload for the sendMessage method.
type telegramSendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// telegramAPIResponse represents the envelope returned by the Telegram bot API.
type telegramAPIResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"` // In seconds
	} `json:"parameters"`
}

const (
	// Telegram message text limit
	maxMessageLength = 4096
	truncationSuffix = "..."
)

// buildLeadMessage formats a lead as a Markdown message.
//
// Absent optional fields (budget, room config, localities) are rendered as
// "N/A" so every message has the same shape.
func buildLeadMessage(lead *entity.Lead) string {
	var b strings.Builder

	b.WriteString("*New Lead*\n")
	fmt.Fprintf(&b, "*Type:* %s\n", lead.TransactionType)
	fmt.Fprintf(&b, "*Rooms:* %s\n", orNA(lead.RoomConfig))
	fmt.Fprintf(&b, "*Budget:* %s\n", orNA(lead.Budget))
	fmt.Fprintf(&b, "*Locality:* %s\n", orNA(strings.Join(lead.Localities, ", ")))
	fmt.Fprintf(&b, "*Title:* %s\n", lead.Title)
	if lead.SourceLink != "" {
		fmt.Fprintf(&b, "*Link:* %s\n", lead.SourceLink)
	}
	fmt.Fprintf(&b, "*Seen:* %s", lead.ObservedAt.UTC().Format(time.RFC3339))

	return truncate(b.String(), maxMessageLength, truncationSuffix)
}

// sendMessageRequest sends a single sendMessage call for the given lead.
//
// Error types:
//   - 429: Rate limit error (retryable, contains retry_after duration)
//   - 4xx (non-429): Client error (non-retryable)
//   - 5xx: Server error (retryable)
//   - Network error: Connection/timeout error (retryable)
func (t *TelegramNotifier) sendMessageRequest(ctx context.Context, lead *entity.Lead) error {
	payload := telegramSendMessageRequest{
		ChatID:                t.config.ChatID,
		Text:                  buildLeadMessage(lead),
		ParseMode:             "Markdown",
		DisableWebPagePreview: true,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sendMessage payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBaseURL, t.config.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// Rate limit error (429)
	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := extractTelegramRetryAfter(resp, body)
		return &RateLimitError{
			Message:    "Telegram rate limit exceeded",
			RetryAfter: retryAfter,
		}
	}

	// Client error (4xx, non-retryable)
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Telegram API client error: %s", apiDescription(body)),
		}
	}

	// Server error (5xx, retryable)
	if resp.StatusCode >= 500 {
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Telegram API server error: %s", apiDescription(body)),
		}
	}

	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
}

// apiDescription extracts the human-readable description from a Telegram
// error response, falling back to the raw body.
func apiDescription(body []byte) string {
	var apiResp telegramAPIResponse
	if err := json.Unmarshal(body, &apiResp); err == nil && apiResp.Description != "" {
		return apiResp.Description
	}
	return string(body)
}

// extractTelegramRetryAfter extracts retry_after from a Telegram 429 response.
// It tries the JSON parameters first, then the Retry-After header.
func extractTelegramRetryAfter(resp *http.Response, body []byte) time.Duration {
	var apiResp telegramAPIResponse
	if err := json.Unmarshal(body, &apiResp); err == nil && apiResp.Parameters.RetryAfter > 0 {
		return time.Duration(apiResp.Parameters.RetryAfter) * time.Second
	}
	return retryAfterFromHeader(resp, 5*time.Second)
}

// sendMessageWithRetry sends the lead message with retry logic.
//
// Retry strategy:
//   - Max attempts: 2
//   - Base delay: 5 seconds
//   - 429 errors: Use retry_after from Telegram response
//   - Server errors (5xx): Exponential backoff (5s, 10s)
//   - Client errors (4xx): No retry, fail immediately
func (t *TelegramNotifier) sendMessageWithRetry(ctx context.Context, lead *entity.Lead) error {
	const (
		maxAttempts = 2
		baseDelay   = 5 * time.Second
	)

	requestID, _ := ctx.Value(requestIDKey).(string)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := t.sendMessageRequest(ctx, lead)

		if err == nil {
			slog.Info("Telegram notification successful",
				slog.String("request_id", requestID),
				slog.String("lead_id", lead.ID),
				slog.Int("attempt", attempt))
			return nil
		}

		lastErr = err

		if rateLimitErr, ok := is429Error(err); ok {
			slog.Warn("Telegram rate limit hit, backing off",
				slog.String("request_id", requestID),
				slog.String("lead_id", lead.ID),
				slog.Duration("retry_after", rateLimitErr.RetryAfter),
				slog.Int("attempt", attempt))

			select {
			case <-time.After(rateLimitErr.RetryAfter):
				continue
			case <-ctx.Done():
				return fmt.Errorf("context canceled during rate limit backoff: %w", ctx.Err())
			}
		}

		if !isRetryableError(err) {
			slog.Error("Telegram notification failed with non-retryable error",
				slog.String("request_id", requestID),
				slog.String("lead_id", lead.ID),
				slog.Any("error", err),
				slog.Int("attempt", attempt))
			return err
		}

		if attempt < maxAttempts {
			delay := baseDelay * time.Duration(attempt)
			slog.Warn("Telegram API request failed, retrying",
				slog.String("request_id", requestID),
				slog.String("lead_id", lead.ID),
				slog.Any("error", err),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay))

			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return fmt.Errorf("context canceled during retry backoff: %w", ctx.Err())
			}
		}
	}

	slog.Error("Telegram notification failed after all retries",
		slog.String("request_id", requestID),
		slog.String("lead_id", lead.ID),
		slog.Any("error", lastErr),
		slog.Int("max_attempts", maxAttempts))

	return fmt.Errorf("telegram notification failed after %d attempts: %w", maxAttempts, lastErr)
}

// NotifyLead sends a Telegram message for a newly recorded lead.
// This method implements the Notifier interface.
//
// It performs the following steps:
//  1. Generate unique request_id for tracing
//  2. Apply rate limiting to prevent API abuse
//  3. Send the message with retry logic
func (t *TelegramNotifier) NotifyLead(ctx context.Context, lead *entity.Lead) error {
	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	slog.Info("Starting Telegram notification",
		slog.String("request_id", requestID),
		slog.String("lead_id", lead.ID),
		slog.String("link", lead.SourceLink))

	if err := t.rateLimiter.Allow(ctx); err != nil {
		slog.Error("Rate limiter error",
			slog.String("request_id", requestID),
			slog.String("lead_id", lead.ID),
			slog.Any("error", err))
		return fmt.Errorf("rate limiter error: %w", err)
	}

	return t.sendMessageWithRetry(ctx, lead)
}
