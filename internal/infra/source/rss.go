package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"leadwatch/internal/domain/entity"
	"leadwatch/internal/resilience/circuitbreaker"
	"leadwatch/internal/resilience/retry"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"
)

const defaultFeedBaseURL = "https://www.reddit.com"

// RSSConfig contains configuration for the per-community feed source.
type RSSConfig struct {
	// Enabled indicates whether this source participates in poll cycles
	Enabled bool

	// BaseURL is the site root the per-community feed paths are built from
	BaseURL string

	// Communities are the community names to read feeds for
	Communities []string

	// UserAgent is sent on feed requests; some hosts reject the default
	UserAgent string

	// Timeout is the HTTP request timeout per feed
	Timeout time.Duration
}

// RSSSource reads the "new" feed of each configured community. It is the
// fallback path when the bulk search API lags or is down, so a failing
// community feed is logged and skipped rather than failing the whole fetch.
type RSSSource struct {
	config         RSSConfig
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewRSSSource creates a new RSSSource with the given configuration.
func NewRSSSource(config RSSConfig) *RSSSource {
	if config.BaseURL == "" {
		config.BaseURL = defaultFeedBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultFetchTimeout
	}
	if config.UserAgent == "" {
		config.UserAgent = "leadwatch/1.0"
	}
	if len(config.Communities) == 0 {
		config.Communities = DefaultCommunities
	}

	return &RSSSource{
		config:         config,
		client:         &http.Client{Timeout: config.Timeout},
		circuitBreaker: circuitbreaker.New(circuitbreaker.SourceFetchConfig("rss")),
		retryConfig:    retry.SourceFetchConfig(),
	}
}

// Name implements Source.
func (s *RSSSource) Name() string {
	return "rss"
}

// Fetch reads every configured community feed and returns the combined items.
// It returns an error only when all feeds fail; partial results are fine.
func (s *RSSSource) Fetch(ctx context.Context) ([]entity.RawItem, error) {
	var items []entity.RawItem
	var lastErr error
	failed := 0

	for _, community := range s.config.Communities {
		feedItems, err := s.fetchFeed(ctx, community)
		if err != nil {
			failed++
			lastErr = err
			slog.Warn("community feed fetch failed",
				slog.String("source", s.Name()),
				slog.String("community", community),
				slog.String("error", err.Error()))
			continue
		}
		items = append(items, feedItems...)
	}

	if failed == len(s.config.Communities) && lastErr != nil {
		return nil, fmt.Errorf("all community feeds failed: %w", lastErr)
	}

	return items, nil
}

// fetchFeed retrieves one community feed with retry and circuit breaker protection.
func (s *RSSSource) fetchFeed(ctx context.Context, community string) ([]entity.RawItem, error) {
	feedURL := fmt.Sprintf("%s/r/%s/new/.rss", strings.TrimRight(s.config.BaseURL, "/"), community)

	var items []entity.RawItem

	retryErr := retry.WithBackoff(ctx, s.retryConfig, func() error {
		cbResult, err := s.circuitBreaker.Execute(func() (interface{}, error) {
			return s.doFetchFeed(ctx, feedURL)
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("feed circuit breaker open, request rejected",
					slog.String("source", s.Name()),
					slog.String("state", s.circuitBreaker.State().String()))
				return err
			}
			return err
		}

		items = cbResult.([]entity.RawItem)
		return nil
	})

	if retryErr != nil {
		return nil, retryErr
	}

	return items, nil
}

// doFetchFeed performs the actual feed request without retry or circuit breaker.
func (s *RSSSource) doFetchFeed(ctx context.Context, feedURL string) ([]entity.RawItem, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = s.config.UserAgent
	fp.Client = s.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	items := make([]entity.RawItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		body := it.Content
		if body == "" {
			body = it.Description
		}

		createdAt := time.Now().UTC()
		if it.PublishedParsed != nil {
			createdAt = it.PublishedParsed.UTC()
		} else if it.UpdatedParsed != nil {
			createdAt = it.UpdatedParsed.UTC()
		}

		// The feed GUID does not line up with the search API's submission
		// ids, so the id is left empty and derived downstream from the
		// link, which both sources agree on.
		items = append(items, entity.RawItem{
			Title:      it.Title,
			Body:       htmlToText(body),
			CreatedAt:  createdAt,
			SourceLink: it.Link,
		})
	}

	return items, nil
}

// htmlToText flattens feed entry HTML into plain text for the extractors.
// Text nodes are joined with spaces so element boundaries (paragraphs, line
// breaks) never fuse adjacent words. Malformed markup falls back to the raw
// string.
func htmlToText(html string) string {
	if html == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}

	var parts []string
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, s *goquery.Selection) {
			if goquery.NodeName(s) == "#text" {
				if t := strings.TrimSpace(s.Text()); t != "" {
					parts = append(parts, t)
				}
				return
			}
			walk(s)
		})
	}
	walk(doc.Selection)

	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
