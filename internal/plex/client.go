// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

/*
client.go - Plex Media Server API Client

Request Configuration:
  - Authentication: X-Plex-Token header on all requests
  - JSON Accept: Accept: application/json on every call
  - Status Validation: anything but 200 is an error
  - Throttling: optional token bucket (golang.org/x/time/rate)
  - Rate Limiting: automatic retry with exponential backoff on HTTP 429
  - Circuit Breaker: every request runs through the "plex-api" breaker

Related Files:
  - library.go: library section, content, leaf and search endpoints
  - catalog.go: the catalog view the vote engine consumes
*/

//nolint:staticcheck // File documentation, not package doc
package plex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/homelab-bot/internal/breaker"
	"github.com/tomtom215/homelab-bot/internal/logging"
	"github.com/tomtom215/homelab-bot/internal/metrics"
)

// ErrNotFound is returned for HTTP 404 responses.
var ErrNotFound = errors.New("plex: not found")

const maxRateLimitRetries = 5

// Client handles communication with the Plex Media Server API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *breaker.Breaker

	// retryBaseDelay is the first 429 backoff step; tests shrink it.
	retryBaseDelay time.Duration
}

// NewClient creates a Plex API client.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		breaker: breaker.New("plex-api", breaker.Settings{
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
			},
		}),
		retryBaseDelay: time.Second,
	}
}

// WithRateLimit throttles the client to requestsPerSecond. A non-positive
// rate leaves it unthrottled.
func (c *Client) WithRateLimit(requestsPerSecond float64, burst int) *Client {
	if requestsPerSecond <= 0 {
		c.limiter = nil
		return c
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	return c
}

// getJSON executes a GET against path and decodes the body into result.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, result interface{}) error {
	_, err := breaker.Do(c.breaker, func() (struct{}, error) {
		return struct{}{}, c.doRequest(ctx, path, query, result)
	})
	return err
}

func (c *Client) doRequest(ctx context.Context, path string, query url.Values, result interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("plex rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("Accept", "application/json")
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}

	start := time.Now()
	resp, err := c.doRequestWithRateLimit(req)
	if err != nil {
		metrics.RecordUpstreamRequest("plex", 0, time.Since(start))
		return err
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamRequest("plex", resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// doRequestWithRateLimit retries HTTP 429 responses with exponential backoff,
// honouring Retry-After when Plex sends it.
func (c *Client) doRequestWithRateLimit(req *http.Request) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("execute request: %w", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		resp.Body.Close()

		if attempt == maxRateLimitRetries {
			return nil, fmt.Errorf("rate limit exceeded after %d retries", maxRateLimitRetries)
		}

		retryDelay := c.retryBaseDelay * (1 << attempt)
		if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds >= 0 {
			retryDelay = time.Duration(seconds) * time.Second
		}

		logging.Warn().Dur("retry_delay", retryDelay).Int("attempt", attempt+1).
			Int("max_retries", maxRateLimitRetries).Msg("Plex API rate limited (HTTP 429), retrying")

		timer := time.NewTimer(retryDelay)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}
}
