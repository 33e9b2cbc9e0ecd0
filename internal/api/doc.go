// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

/*
Package api serves the bot's small HTTP surface using the Chi router.

# Endpoints

	GET /health/live          process liveness
	GET /health/ready         200 once the Discord session is ready, 503 before
	GET /health               ledger and deletion backend status
	GET /metrics              Prometheus exposition
	GET /api/v1/votes         open votes, soonest-ending first
	GET /api/v1/votes/{key}   one open vote by vote key
	GET /api/v1/cooldown      discovery cooldown marker

The API is read-only: votes are opened, cast and resolved through Discord.
Every response under /health and /api/v1 uses the APIResponse envelope.

# Middleware

Requests get an X-Request-ID (propagated into the logging context), panic
recovery, security headers, per-IP rate limiting via go-chi/httprate and
Prometheus request metrics keyed by the Chi route pattern.
*/
package api
