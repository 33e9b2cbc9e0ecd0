// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package votes

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/homelab-bot/internal/logging"
	"github.com/tomtom215/homelab-bot/internal/metrics"
	"github.com/tomtom215/homelab-bot/internal/models"
)

// Sweep names, used as job names and metrics labels.
const (
	SweepExpiry    = "expiry"
	SweepDiscovery = "discovery"
)

// ExpiryResult summarises one expiry sweep.
type ExpiryResult struct {
	// Resolved votes had their outcome applied.
	Resolved int
	// Dropped votes had no announcement left and were removed silently.
	Dropped int
	// Retained votes could not be checked and stay open for the next sweep.
	Retained int
}

// ExpirySweep claims every vote whose end time has passed in one ledger
// save, then resolves each one. A vote whose announcement is gone is dropped
// without further action; one whose announcement could not be fetched is
// returned to the ledger. Cancelling ctx stops the sweep between votes and
// returns the unhandled ones to the ledger.
func (e *Engine) ExpirySweep(ctx context.Context) (res ExpiryResult, err error) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	start := time.Now()
	defer func() { metrics.RecordSweep(SweepExpiry, time.Since(start), err) }()
	log := logging.Ctx(ctx)

	now := e.now()
	var claimed []*models.VoteRecord
	err = e.ledger.Update(ctx, func(snap Snapshot) error {
		for key, rec := range snap {
			if rec.IsExpired(now) {
				claimed = append(claimed, rec)
				delete(snap, key)
			}
		}
		if len(claimed) == 0 {
			return errSkipSave
		}
		return nil
	})
	if err != nil {
		return res, err
	}
	sort.Slice(claimed, func(i, j int) bool { return claimed[i].EndsAt.Before(claimed[j].EndsAt) })

	var retained []*models.VoteRecord
	for i, rec := range claimed {
		if ctx.Err() != nil {
			// Shutting down: everything not yet handled goes back.
			retained = append(retained, claimed[i:]...)
			break
		}
		if rec.MessageID == "" || rec.ChannelID == "" {
			res.Dropped++
			continue
		}
		exists, checkErr := e.announcer.MessageExists(ctx, rec.ChannelID, rec.MessageID)
		switch {
		case checkErr != nil || ctx.Err() != nil:
			log.Warn().Err(checkErr).Str("vote_key", rec.VoteKey).Msg("Could not fetch vote message, retrying next sweep")
			retained = append(retained, rec)
		case !exists:
			log.Info().Str("vote_key", rec.VoteKey).Str("title", rec.Title).Msg("Vote message deleted, dropping vote")
			res.Dropped++
		default:
			// A started resolution runs to completion; client timeouts bound it.
			e.conclude(context.WithoutCancel(ctx), rec)
			res.Resolved++
		}
	}

	if len(retained) > 0 {
		if err = e.restore(context.WithoutCancel(ctx), retained); err != nil {
			return res, err
		}
		res.Retained = len(retained)
	}

	if len(claimed) > 0 {
		log.Info().Int("resolved", res.Resolved).Int("dropped", res.Dropped).Int("retained", res.Retained).
			Msg("Expiry sweep complete")
	}
	return res, nil
}

// restore puts claimed records back unless a key was reused meanwhile.
func (e *Engine) restore(ctx context.Context, recs []*models.VoteRecord) error {
	err := e.ledger.Update(ctx, func(snap Snapshot) error {
		for _, rec := range recs {
			if _, taken := snap[rec.VoteKey]; !taken {
				snap[rec.VoteKey] = rec
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("restore unchecked votes: %w", err)
	}
	return nil
}

// DiscoverySweep opens votes for up to MaxCandidates unwatched items.
//
// It is a no-op while the cooldown since the last productive run has not
// elapsed. Each vote is persisted as soon as it is posted. The cooldown
// marker moves only when at least one vote was opened.
func (e *Engine) DiscoverySweep(ctx context.Context) (opened int, err error) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	log := logging.Ctx(ctx)
	now := e.now()

	last, ran, err := e.cooldown.LastRun(ctx)
	if err != nil {
		metrics.RecordSweep(SweepDiscovery, 0, err)
		return 0, fmt.Errorf("read discovery cooldown: %w", err)
	}
	if ran && now.Before(last.Add(e.cfg.Cooldown)) {
		metrics.RecordSweepSkipped(SweepDiscovery)
		log.Debug().Time("last_run", last).Time("next_run", last.Add(e.cfg.Cooldown)).Msg("Discovery in cooldown")
		return 0, nil
	}
	if e.cfg.ChannelID == "" {
		metrics.RecordSweepSkipped(SweepDiscovery)
		log.Warn().Msg("Vote channel not configured, skipping discovery")
		return 0, nil
	}

	start := time.Now()
	defer func() { metrics.RecordSweep(SweepDiscovery, time.Since(start), err) }()

	exclude, err := e.ledger.ActiveCatalogKeys(ctx)
	if err != nil {
		return 0, err
	}
	candidates := Discover(ctx, e.catalog, e.cfg.Policy, exclude, e.cfg.MaxCandidates, now)
	metrics.DiscoveryCandidates.Set(float64(len(candidates)))
	if len(candidates) == 0 {
		log.Info().Msg("Discovery found no candidates")
		return 0, nil
	}

	if err = e.announcer.PostIntro(ctx, e.cfg.ChannelID); err != nil {
		return 0, fmt.Errorf("post discovery intro: %w", err)
	}
	for i := range candidates {
		if _, openErr := e.Open(ctx, candidates[i], OpenOptions{Source: SourceDiscovery}); openErr != nil {
			log.Warn().Err(openErr).Str("title", candidates[i].Title).Msg("Failed to open discovered vote")
			continue
		}
		opened++
	}

	if opened > 0 {
		if err = e.cooldown.SetLastRun(ctx, now); err != nil {
			return opened, fmt.Errorf("save discovery cooldown: %w", err)
		}
	}
	log.Info().Int("candidates", len(candidates)).Int("opened", opened).Msg("Discovery sweep complete")
	return opened, nil
}
