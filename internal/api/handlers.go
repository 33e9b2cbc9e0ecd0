// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/homelab-bot/internal/models"
	"github.com/tomtom215/homelab-bot/internal/votes"
)

// healthCheckTimeout bounds the backend pings made by /health.
const healthCheckTimeout = 5 * time.Second

// VoteSource is the read side of the vote ledger.
type VoteSource interface {
	List(ctx context.Context) ([]*models.VoteRecord, error)
	Get(ctx context.Context, key string) (*models.VoteRecord, error)
}

// BackendPinger checks the deletion backends.
type BackendPinger interface {
	PingAll(ctx context.Context) map[string]error
}

// HandlerDeps are the collaborators of a Handler. Backends and Ready may be nil.
type HandlerDeps struct {
	Votes          VoteSource
	Cooldown       votes.CooldownStore
	CooldownPeriod time.Duration
	Backends       BackendPinger

	// Ready is closed once the Discord session is usable.
	Ready <-chan struct{}
}

// Handler serves the health and read-only vote endpoints.
type Handler struct {
	deps      HandlerDeps
	startTime time.Time
	now       func() time.Time
}

// NewHandler creates a Handler.
func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{deps: deps, startTime: time.Now(), now: time.Now}
}

// VoteView is the API representation of an open vote.
type VoteView struct {
	*models.VoteRecord
	KeepCount   int  `json:"keep_count"`
	DeleteCount int  `json:"delete_count"`
	Managed     bool `json:"managed"`
	Expired     bool `json:"expired"`
}

// CooldownView reports the discovery cooldown marker.
type CooldownView struct {
	LastRun  *time.Time `json:"last_run"`
	NextRun  *time.Time `json:"next_eligible_run"`
	Active   bool       `json:"active"`
	Duration string     `json:"duration"`
}

// HealthStatus is the body of /health.
type HealthStatus struct {
	Status    string            `json:"status"`
	Uptime    float64           `json:"uptime_seconds"`
	Discord   bool              `json:"discord_ready"`
	Ledger    string            `json:"ledger"`
	OpenVotes int               `json:"open_votes"`
	Backends  map[string]string `json:"backends,omitempty"`
}

func (h *Handler) view(rec *models.VoteRecord, now time.Time) VoteView {
	return VoteView{
		VoteRecord:  rec,
		KeepCount:   len(rec.KeepVoters),
		DeleteCount: len(rec.DeleteVoters),
		Managed:     rec.IsManaged(),
		Expired:     rec.IsExpired(now),
	}
}

// ListVotes handles GET /api/v1/votes.
func (h *Handler) ListVotes(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	recs, err := h.deps.Votes.List(r.Context())
	if err != nil {
		rw.InternalError("Failed to read vote ledger", err)
		return
	}

	now := h.now()
	out := make([]VoteView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, h.view(rec, now))
	}
	rw.SuccessList(out, len(out))
}

// GetVote handles GET /api/v1/votes/{key}.
func (h *Handler) GetVote(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	key := chi.URLParam(r, "key")

	rec, err := h.deps.Votes.Get(r.Context(), key)
	if errors.Is(err, votes.ErrVoteNotFound) {
		rw.NotFound("No open vote with key " + key)
		return
	}
	if err != nil {
		rw.InternalError("Failed to read vote ledger", err)
		return
	}
	rw.Success(h.view(rec, h.now()))
}

// Cooldown handles GET /api/v1/cooldown.
func (h *Handler) Cooldown(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	last, ok, err := h.deps.Cooldown.LastRun(r.Context())
	if err != nil {
		rw.InternalError("Failed to read cooldown marker", err)
		return
	}

	out := CooldownView{Duration: h.deps.CooldownPeriod.String()}
	if ok {
		next := last.Add(h.deps.CooldownPeriod)
		out.LastRun = &last
		out.NextRun = &next
		out.Active = h.now().Before(next)
	}
	rw.Success(out)
}

// HealthLive handles GET /health/live. It succeeds whenever the process can serve.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles GET /health/ready: 503 until the Discord session is ready.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.discordReady() {
		rw.ServiceUnavailable("Discord session not ready")
		return
	}
	rw.Success(map[string]bool{"ready": true})
}

// Health handles GET /health. Backend failures degrade the status but the
// endpoint still answers 200; an unreadable ledger answers 503.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := HealthStatus{
		Status:  "healthy",
		Uptime:  time.Since(h.startTime).Seconds(),
		Discord: h.discordReady(),
		Ledger:  "ok",
	}
	if !status.Discord {
		status.Status = "degraded"
	}

	recs, err := h.deps.Votes.List(r.Context())
	if err != nil {
		status.Status = "unhealthy"
		status.Ledger = err.Error()
	}
	status.OpenVotes = len(recs)

	if h.deps.Backends != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		results := h.deps.Backends.PingAll(ctx)
		cancel()

		status.Backends = make(map[string]string, len(results))
		for name, perr := range results {
			if perr != nil {
				status.Backends[name] = perr.Error()
				if status.Status == "healthy" {
					status.Status = "degraded"
				}
				continue
			}
			status.Backends[name] = "ok"
		}
	}

	code := http.StatusOK
	if status.Status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	rw.SuccessWithMeta(code, status, nil)
}

func (h *Handler) discordReady() bool {
	if h.deps.Ready == nil {
		return false
	}
	select {
	case <-h.deps.Ready:
		return true
	default:
		return false
	}
}
