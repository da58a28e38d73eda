// Package scryfall implements the external card-catalog resolver client.
package scryfall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.scryfall.com"
	rateLimitDelay = 100 * time.Millisecond // 100ms between requests (10 req/sec)
	requestTimeout = 30 * time.Second
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 16 * time.Second
)

// Client represents a Scryfall API client with rate limiting.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	userAgent   string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (useful for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a new Scryfall API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		// Rate limiter: 1 request per 100ms = 10 req/sec
		rateLimiter: rate.NewLimiter(rate.Every(rateLimitDelay), 1),
		userAgent:   "RefinedMTG/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NamedFuzzy resolves a card by name with fuzzy matching. Minor
// misspellings are tolerated and the returned card carries the canonical
// name as actually matched (for multi-faced cards, the combined
// "Front // Back" name). A name with no match yields a NotFoundError.
func (c *Client) NamedFuzzy(ctx context.Context, name string) (*Card, error) {
	u := fmt.Sprintf("%s/cards/named?fuzzy=%s", c.baseURL, url.QueryEscape(name))

	var card Card
	if err := c.doRequest(ctx, u, &card); err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to resolve card %q: %w", name, err)
	}

	return &card, nil
}

// Autocomplete returns up to 20 candidate card names for a search-as-you-type
// query.
func (c *Client) Autocomplete(ctx context.Context, query string) ([]string, error) {
	u := fmt.Sprintf("%s/cards/autocomplete?q=%s", c.baseURL, url.QueryEscape(query))

	var catalog Catalog
	if err := c.doRequest(ctx, u, &catalog); err != nil {
		return nil, fmt.Errorf("failed to autocomplete %q: %w", query, err)
	}

	return catalog.Data, nil
}

// doRequest performs an HTTP request with rate limiting and retry logic.
func (c *Client) doRequest(ctx context.Context, url string, result interface{}) error {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)

			if attempt < maxRetries {
				time.Sleep(backoff)
				backoff = minDuration(backoff*2, maxBackoff)
				continue
			}
			return lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK:
			if readErr != nil {
				return fmt.Errorf("failed to read response body: %w", readErr)
			}
			if err := json.Unmarshal(body, result); err != nil {
				return fmt.Errorf("failed to parse JSON response: %w", err)
			}
			return nil

		case http.StatusTooManyRequests:
			lastErr = fmt.Errorf("rate limited (HTTP 429)")

			if attempt < maxRetries {
				retryAfter := resp.Header.Get("Retry-After")
				if duration, err := time.ParseDuration(retryAfter + "s"); retryAfter != "" && err == nil {
					time.Sleep(duration)
				} else {
					time.Sleep(backoff)
				}
				backoff = minDuration(backoff*2, maxBackoff)
				continue
			}
			return lastErr

		case http.StatusNotFound:
			return &NotFoundError{URL: url}

		default:
			var apiErr APIError
			if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Details != "" {
				return &apiErr
			}
			return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
