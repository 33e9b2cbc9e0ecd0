// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

// Package metrics holds the Prometheus collectors for the bot.
//
// Collectors are registered on the default registry at init through promauto
// and exposed by the API server on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Vote Lifecycle Metrics
	VotesOpened = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_votes_opened_total",
			Help: "Total number of deletion votes opened",
		},
		[]string{"media_type", "source"}, // source: "discovery", "manual"
	)

	VotesCast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_votes_cast_total",
			Help: "Total number of vote button presses that changed a record",
		},
		[]string{"choice"},
	)

	VotesResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_votes_resolved_total",
			Help: "Total number of resolved votes by outcome",
		},
		[]string{"outcome"},
	)

	VotesOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_votes_open",
			Help: "Number of vote records currently in the ledger",
		},
	)

	// Sweep Metrics
	SweepRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_votes_sweep_runs_total",
			Help: "Total number of sweep executions",
		},
		[]string{"sweep", "result"}, // result: "success", "error", "skipped"
	)

	SweepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_votes_sweep_duration_seconds",
			Help:    "Duration of sweep executions in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"sweep"},
	)

	DiscoveryCandidates = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_votes_discovery_candidates",
			Help: "Number of candidates returned by the last discovery run",
		},
	)

	// Upstream Metrics (Plex, Radarr, Sonarr)
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of requests to upstream services",
		},
		[]string{"service", "status_code"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Upstream request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"service"},
	)

	Deletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_deletions_total",
			Help: "Total number of delete calls sent to Radarr/Sonarr",
		},
		[]string{"service", "result"}, // result: "success", "failure"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Discord Metrics
	DiscordInteractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discord_interactions_total",
			Help: "Total number of Discord interactions handled",
		},
		[]string{"kind", "name"}, // kind: "command", "component"
	)

	// HTTP API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordVoteOpened records a newly announced vote.
func RecordVoteOpened(mediaType, source string) {
	VotesOpened.WithLabelValues(mediaType, source).Inc()
}

// RecordVoteCast records a vote that changed a record.
func RecordVoteCast(choice string) {
	VotesCast.WithLabelValues(choice).Inc()
}

// RecordVoteResolved records a terminal outcome.
func RecordVoteResolved(outcome string) {
	VotesResolved.WithLabelValues(outcome).Inc()
}

// SetVotesOpen updates the open-votes gauge.
func SetVotesOpen(n int) {
	VotesOpen.Set(float64(n))
}

// RecordSweep records one sweep execution.
func RecordSweep(sweep string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	SweepRuns.WithLabelValues(sweep, result).Inc()
	SweepDuration.WithLabelValues(sweep).Observe(duration.Seconds())
}

// RecordSweepSkipped records a sweep that did nothing because of a gate.
func RecordSweepSkipped(sweep string) {
	SweepRuns.WithLabelValues(sweep, "skipped").Inc()
}

// RecordUpstreamRequest records one HTTP call to Plex, Radarr or Sonarr.
// A statusCode of 0 means the request failed before a response arrived.
func RecordUpstreamRequest(service string, statusCode int, duration time.Duration) {
	code := "error"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	UpstreamRequests.WithLabelValues(service, code).Inc()
	UpstreamRequestDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordDeletion records a delete call to a deletion backend.
func RecordDeletion(service string, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	Deletions.WithLabelValues(service, result).Inc()
}

// RecordInteraction records a handled Discord interaction.
func RecordInteraction(kind, name string) {
	DiscordInteractions.WithLabelValues(kind, name).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
