// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

/*
client.go - Shared Radarr/Sonarr v3 REST Client

Request Configuration:
  - Authentication: X-Api-Key header on all requests
  - Throttling: optional token bucket (golang.org/x/time/rate) per instance
  - Circuit Breaker: one breaker per instance ("radarr-api", "sonarr-api")
  - Deletes: DELETE /api/v3/{resource}/{id}?deleteFiles=true, 200 or 204 is success

Related Files:
  - radarr.go, sonarr.go: resource-specific lookups
  - registry.go: media type to service routing
*/

//nolint:staticcheck // File documentation, not package doc
package arr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/homelab-bot/internal/breaker"
	"github.com/tomtom215/homelab-bot/internal/config"
	"github.com/tomtom215/homelab-bot/internal/metrics"
)

var (
	// ErrNotConfigured is returned when the instance has no URL or API key.
	ErrNotConfigured = errors.New("arr: not configured")

	// ErrNotFound is returned for HTTP 404 responses.
	ErrNotFound = errors.New("arr: not found")
)

// maxErrorBody caps how much of an error response is echoed into the error.
const maxErrorBody = 512

// client is the transport shared by the Radarr and Sonarr services.
type client struct {
	service    string // metrics label: "radarr" or "sonarr"
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *breaker.Breaker
}

func newClient(service string, cfg config.ArrConfig) *client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &client{
		service:    service,
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		breaker: breaker.New(service+"-api", breaker.Settings{
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
			},
		}),
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c
}

// getJSON decodes GET path into result.
func (c *client) getJSON(ctx context.Context, path string, result interface{}) error {
	_, err := breaker.Do(c.breaker, func() (struct{}, error) {
		resp, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return struct{}{}, err
		}
		defer func() { _ = resp.Body.Close() }()

		if err := checkStatus(resp, http.StatusOK); err != nil {
			return struct{}{}, err
		}
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return struct{}{}, fmt.Errorf("decode %s response: %w", c.service, err)
		}
		return struct{}{}, nil
	})
	return err
}

// deleteResource removes /api/v3/{resource}/{id} together with its files.
func (c *client) deleteResource(ctx context.Context, resource string, id int) error {
	query := url.Values{}
	query.Set("deleteFiles", "true")
	path := "/api/v3/" + resource + "/" + strconv.Itoa(id)

	_, err := breaker.Do(c.breaker, func() (struct{}, error) {
		resp, err := c.do(ctx, http.MethodDelete, path, query)
		if err != nil {
			return struct{}{}, err
		}
		defer func() { _ = resp.Body.Close() }()
		return struct{}{}, checkStatus(resp, http.StatusOK, http.StatusNoContent)
	})
	metrics.RecordDeletion(c.service, err == nil)
	return err
}

func (c *client) do(ctx context.Context, method, path string, query url.Values) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s rate limiter: %w", c.service, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(c.service, 0, time.Since(start))
		return nil, fmt.Errorf("%s request failed: %w", c.service, err)
	}
	metrics.RecordUpstreamRequest(c.service, resp.StatusCode, time.Since(start))
	return resp, nil
}

func checkStatus(resp *http.Response, ok ...int) error {
	for _, code := range ok {
		if resp.StatusCode == code {
			return nil
		}
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", resp.Request.URL.Path, ErrNotFound)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

// parseAdded converts the ISO 8601 "added" field to a UTC timestamp.
// Radarr reports "0001-01-01T00:00:00Z" for unknown dates, which maps to nil.
func parseAdded(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil || t.Year() <= 1 {
		return nil
	}
	t = t.UTC()
	return &t
}

// systemStatus is the subset of GET /api/v3/system/status used by ping.
type systemStatus struct {
	AppName string `json:"appName"`
	Version string `json:"version"`
}

func (c *client) ping(ctx context.Context) error {
	var status systemStatus
	if err := c.getJSON(ctx, "/api/v3/system/status", &status); err != nil {
		return fmt.Errorf("%s ping: %w", c.service, err)
	}
	return nil
}
