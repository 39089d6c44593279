package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"leadwatch/internal/domain/entity"
	"leadwatch/internal/resilience/circuitbreaker"
	"leadwatch/internal/resilience/retry"

	"github.com/sony/gobreaker"
)

const (
	defaultPageSize     = 100
	defaultFetchTimeout = 15 * time.Second
)

// SearchAPIConfig contains configuration for the bulk search API source.
type SearchAPIConfig struct {
	// Enabled indicates whether this source participates in poll cycles
	Enabled bool

	// BaseURL is the API root (the submission search path is appended)
	BaseURL string

	// Communities are the community names to search across
	Communities []string

	// PageSize is the maximum number of submissions per request
	PageSize int

	// Timeout is the HTTP request timeout
	Timeout time.Duration
}

// SearchAPISource polls a bulk submission search API. It keeps a high-water
// timestamp across cycles so each Fetch only returns submissions created
// after the previous batch.
type SearchAPISource struct {
	config         SearchAPIConfig
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config

	mu    sync.Mutex
	after int64 // created_utc of the newest submission seen so far
}

// NewSearchAPISource creates a new SearchAPISource with the given configuration.
// Zero-value fields fall back to defaults (page size 100, 15s timeout, the
// default community list).
func NewSearchAPISource(config SearchAPIConfig) *SearchAPISource {
	if config.PageSize <= 0 {
		config.PageSize = defaultPageSize
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultFetchTimeout
	}
	if len(config.Communities) == 0 {
		config.Communities = DefaultCommunities
	}

	return &SearchAPISource{
		config:         config,
		client:         &http.Client{Timeout: config.Timeout},
		circuitBreaker: circuitbreaker.New(circuitbreaker.SourceFetchConfig("search-api")),
		retryConfig:    retry.SourceFetchConfig(),
	}
}

// Name implements Source.
func (s *SearchAPISource) Name() string {
	return "search-api"
}

// submission is the wire shape of a single search API result.
type submission struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	CreatedUTC float64 `json:"created_utc"`
	FullLink   string  `json:"full_link"`
	Permalink  string  `json:"permalink"`
}

// searchResponse is the wire shape of the search API envelope.
type searchResponse struct {
	Data []submission `json:"data"`
}

// Fetch retrieves submissions created since the previous call.
// It uses circuit breaker and retry logic for improved reliability.
func (s *SearchAPISource) Fetch(ctx context.Context) ([]entity.RawItem, error) {
	var items []entity.RawItem

	retryErr := retry.WithBackoff(ctx, s.retryConfig, func() error {
		cbResult, err := s.circuitBreaker.Execute(func() (interface{}, error) {
			return s.doFetch(ctx)
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("search API circuit breaker open, request rejected",
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

// doFetch performs the actual API request without retry or circuit breaker.
func (s *SearchAPISource) doFetch(ctx context.Context) ([]entity.RawItem, error) {
	s.mu.Lock()
	after := s.after
	s.mu.Unlock()

	reqURL, err := s.buildURL(after)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("search API: %s", strings.TrimSpace(string(body))),
		}
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	items := make([]entity.RawItem, 0, len(payload.Data))
	maxCreated := after
	for _, sub := range payload.Data {
		createdUTC := int64(sub.CreatedUTC)
		if createdUTC > maxCreated {
			maxCreated = createdUTC
		}

		link := sub.FullLink
		if link == "" && sub.Permalink != "" {
			link = "https://www.reddit.com" + sub.Permalink
		}

		items = append(items, entity.RawItem{
			ID:         sub.ID,
			Title:      sub.Title,
			Body:       sub.Selftext,
			CreatedAt:  time.Unix(createdUTC, 0).UTC(),
			SourceLink: link,
		})
	}

	// Advance the high-water mark only after a successful parse, so a
	// failed cycle re-reads the same window instead of skipping it.
	s.mu.Lock()
	if maxCreated > s.after {
		s.after = maxCreated
	}
	s.mu.Unlock()

	return items, nil
}

// buildURL assembles the submission search URL for the given high-water mark.
func (s *SearchAPISource) buildURL(after int64) (string, error) {
	base, err := url.Parse(s.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	base = base.JoinPath("reddit", "search", "submission")

	q := base.Query()
	q.Set("subreddit", strings.Join(s.config.Communities, ","))
	q.Set("size", strconv.Itoa(s.config.PageSize))
	q.Set("sort", "asc")
	if after > 0 {
		q.Set("after", strconv.FormatInt(after, 10))
	}
	base.RawQuery = q.Encode()

	return base.String(), nil
}
