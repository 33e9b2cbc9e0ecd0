// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package votes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/homelab-bot/internal/config"
	"github.com/tomtom215/homelab-bot/internal/logging"
	"github.com/tomtom215/homelab-bot/internal/metrics"
	"github.com/tomtom215/homelab-bot/internal/models"
)

// ErrNoVoteChannel is returned by Open when no vote channel is configured.
var ErrNoVoteChannel = errors.New("vote channel not configured")

// Vote sources, used as the metrics label on opened votes.
const (
	SourceManual    = "manual"
	SourceDiscovery = "discovery"
)

// DeletionService is one backend able to delete a managed item with its files.
type DeletionService interface {
	// FindByExternalID returns nil, nil when the item is not managed.
	FindByExternalID(ctx context.Context, externalID int) (*models.ManagedItem, error)
	Delete(ctx context.Context, serviceID int) error
}

// BackendFunc selects the deletion backend for a media type.
// It returns an error when no backend is configured for it.
type BackendFunc func(models.MediaType) (DeletionService, error)

// Announcer delivers vote announcements to the chat channel.
type Announcer interface {
	// PostIntro posts the batch introduction, with the role mention when configured.
	PostIntro(ctx context.Context, channelID string) error
	// PostVote posts the announcement for rec (no controls yet) and returns its message id.
	PostVote(ctx context.Context, channelID string, rec *models.VoteRecord, mentionRole bool) (string, error)
	// AttachControls adds the Keep and Delete buttons once rec.VoteKey is known.
	AttachControls(ctx context.Context, rec *models.VoteRecord) error
	// FinalizeVote shows outcome on the announcement and removes its controls.
	// It returns ErrMessageNotFound when the message is gone.
	FinalizeVote(ctx context.Context, rec *models.VoteRecord, outcome models.Outcome) error
	MessageExists(ctx context.Context, channelID, messageID string) (bool, error)
}

// EngineConfig is the vote policy.
type EngineConfig struct {
	ChannelID     string
	Duration      time.Duration
	DryRun        bool
	Policy        DiscoveryPolicy
	Cooldown      time.Duration
	MaxCandidates int
}

// EngineConfigFromConfig maps the application configuration onto EngineConfig.
func EngineConfigFromConfig(cfg *config.Config) EngineConfig {
	return EngineConfig{
		ChannelID: cfg.Discord.VoteChannelID,
		Duration:  cfg.Votes.Duration(),
		DryRun:    cfg.Votes.DryRun,
		Policy: DiscoveryPolicy{
			UnwatchedFor: cfg.Votes.UnwatchedThreshold(),
			MinAge:       cfg.Votes.MinAge(),
		},
		Cooldown:      cfg.Votes.Cooldown,
		MaxCandidates: cfg.Votes.MaxCandidates,
	}
}

// Deps are the collaborators of an Engine.
type Deps struct {
	Ledger    *Ledger
	Cooldown  CooldownStore
	Catalog   Catalog
	Backends  BackendFunc
	Announcer Announcer
}

// Engine runs the vote lifecycle: open, cast, resolve, cancel and the two sweeps.
type Engine struct {
	cfg       EngineConfig
	ledger    *Ledger
	cooldown  CooldownStore
	catalog   Catalog
	backends  BackendFunc
	announcer Announcer
	now       func() time.Time
}

// NewEngine creates an Engine. A nil Backends treats every item as unmanaged.
func NewEngine(cfg EngineConfig, deps Deps) *Engine {
	backends := deps.Backends
	if backends == nil {
		backends = func(models.MediaType) (DeletionService, error) {
			return nil, errors.New("no deletion backends configured")
		}
	}
	return &Engine{
		cfg:       cfg,
		ledger:    deps.Ledger,
		cooldown:  deps.Cooldown,
		catalog:   deps.Catalog,
		backends:  backends,
		announcer: deps.Announcer,
		now:       time.Now,
	}
}

// Ledger returns the ledger the engine writes to.
func (e *Engine) Ledger() *Ledger {
	return e.ledger
}

// DryRun reports whether deletions are simulated.
func (e *Engine) DryRun() bool {
	return e.cfg.DryRun
}

// OpenOptions controls how a vote is announced.
type OpenOptions struct {
	Source      string
	MentionRole bool
}

// Open announces a vote on item and persists it once the announcement exists.
// When posting fails nothing is persisted.
func (e *Engine) Open(ctx context.Context, item models.CatalogItem, opts OpenOptions) (*models.VoteRecord, error) {
	if e.cfg.ChannelID == "" {
		return nil, ErrNoVoteChannel
	}
	log := logging.Ctx(ctx)

	rec := e.newRecord(item)
	rec.ChannelID = e.cfg.ChannelID
	e.lookupManaged(ctx, rec)

	messageID, err := e.announcer.PostVote(ctx, rec.ChannelID, rec, opts.MentionRole)
	if err != nil {
		return nil, fmt.Errorf("post vote announcement: %w", err)
	}
	rec.MessageID = messageID
	rec.VoteKey = VoteKey(messageID, rec.ChannelID)

	if err := e.ledger.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist vote %s: %w", rec.VoteKey, err)
	}
	if err := e.announcer.AttachControls(ctx, rec); err != nil {
		log.Warn().Err(err).Str("vote_key", rec.VoteKey).
			Msg("Vote persisted but buttons could not be attached; finish or cancel it manually")
	}

	metrics.RecordVoteOpened(string(rec.MediaType), opts.Source)
	log.Info().Str("vote_key", rec.VoteKey).Str("title", rec.Title).Str("source", opts.Source).
		Bool("managed", rec.IsManaged()).Time("ends_at", rec.EndsAt).Msg("Vote opened")
	return rec, nil
}

func (e *Engine) newRecord(item models.CatalogItem) *models.VoteRecord {
	now := e.now().UTC()
	return &models.VoteRecord{
		MediaType:     item.MediaType,
		CatalogKey:    item.CatalogKey,
		ExternalID:    item.ExternalID,
		Title:         item.DisplayTitle(),
		LibraryName:   item.Library,
		SizeGB:        item.SizeGB(),
		AddedAt:       item.AddedAt,
		LastWatchedAt: item.LastWatchedAt,
		CreatedAt:     now,
		EndsAt:        now.Add(e.cfg.Duration),
		KeepVoters:    []string{},
		DeleteVoters:  []string{},
	}
}

// lookupManaged records the backend id of rec, and prefers the backend's
// title and added date. Any failure leaves rec unmanaged.
func (e *Engine) lookupManaged(ctx context.Context, rec *models.VoteRecord) {
	if rec.ExternalID == nil {
		return
	}
	log := logging.Ctx(ctx)

	svc, err := e.backends(rec.MediaType)
	if err != nil {
		log.Debug().Err(err).Str("media_type", string(rec.MediaType)).Msg("No deletion backend for media type")
		return
	}
	managed, err := svc.FindByExternalID(ctx, *rec.ExternalID)
	if err != nil {
		log.Warn().Err(err).Int("external_id", *rec.ExternalID).Msg("Deletion backend lookup failed, vote will be unmanaged")
		return
	}
	if managed == nil {
		return
	}

	id := managed.ID
	rec.ManagedServiceID = &id
	if managed.Title != "" {
		rec.Title = managed.DisplayTitle()
	}
	if rec.AddedAt == nil && managed.Added != nil {
		y, m, d := managed.Added.Date()
		added := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		rec.AddedAt = &added
	}
}

// Cast records choice for userID and returns the updated record.
// A user holds at most one choice; repeating a choice changes nothing.
func (e *Engine) Cast(ctx context.Context, key, userID string, choice models.Choice) (*models.VoteRecord, error) {
	var (
		out     *models.VoteRecord
		changed bool
	)
	err := e.ledger.Update(ctx, func(snap Snapshot) error {
		rec, ok := snap[key]
		if !ok {
			return ErrVoteNotFound
		}
		changed = rec.Cast(userID, choice)
		out = rec.Clone()
		if !changed {
			return errSkipSave
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		metrics.RecordVoteCast(string(choice))
	}
	return out, nil
}

// Resolve ends the vote stored under key and applies its outcome.
// A vote that is already gone yields ErrVoteNotFound and no side effects.
func (e *Engine) Resolve(ctx context.Context, key string) (models.Outcome, error) {
	rec, err := e.ledger.Claim(ctx, key)
	if err != nil {
		return "", err
	}
	return e.conclude(ctx, rec), nil
}

// FinishByMessageID resolves the vote announced as messageID now.
// If the announcement is gone the vote is left open and ErrMessageNotFound is returned.
func (e *Engine) FinishByMessageID(ctx context.Context, messageID string) (models.Outcome, error) {
	rec, err := e.ledger.FindByMessageID(ctx, messageID)
	if err != nil {
		return "", err
	}
	exists, err := e.announcer.MessageExists(ctx, rec.ChannelID, rec.MessageID)
	if err != nil {
		return "", fmt.Errorf("fetch vote message: %w", err)
	}
	if !exists {
		return "", ErrMessageNotFound
	}
	return e.Resolve(ctx, rec.VoteKey)
}

// CancelByMessageID ends the vote announced as messageID without applying it.
// A missing announcement does not prevent cancellation.
func (e *Engine) CancelByMessageID(ctx context.Context, messageID string) error {
	found, err := e.ledger.FindByMessageID(ctx, messageID)
	if err != nil {
		return err
	}
	rec, err := e.ledger.Claim(ctx, found.VoteKey)
	if err != nil {
		return err
	}
	e.finalize(ctx, rec, models.OutcomeCancelled)
	return nil
}

// conclude decides the outcome of a claimed record and updates its announcement.
func (e *Engine) conclude(ctx context.Context, rec *models.VoteRecord) models.Outcome {
	outcome := e.decide(ctx, rec)
	e.finalize(ctx, rec, outcome)
	return outcome
}

func (e *Engine) decide(ctx context.Context, rec *models.VoteRecord) models.Outcome {
	if rec.HasKeepVotes() {
		return models.OutcomeKept
	}
	if e.cfg.DryRun {
		return models.OutcomeDryRun
	}
	if !rec.IsManaged() {
		return models.OutcomeSkipped
	}

	log := logging.Ctx(ctx)
	svc, err := e.backends(rec.MediaType)
	if err != nil {
		log.Warn().Err(err).Str("vote_key", rec.VoteKey).Msg("No deletion backend, skipping delete")
		return models.OutcomeSkipped
	}
	if err := svc.Delete(ctx, *rec.ManagedServiceID); err != nil {
		log.Error().Err(err).Str("vote_key", rec.VoteKey).Int("service_id", *rec.ManagedServiceID).
			Msg("Delete failed, vote resolved as skipped")
		return models.OutcomeSkipped
	}
	return models.OutcomeDeleted
}

func (e *Engine) finalize(ctx context.Context, rec *models.VoteRecord, outcome models.Outcome) {
	log := logging.Ctx(ctx)

	err := e.announcer.FinalizeVote(ctx, rec, outcome)
	switch {
	case errors.Is(err, ErrMessageNotFound):
		log.Debug().Str("vote_key", rec.VoteKey).Msg("Vote message already gone")
	case err != nil:
		log.Warn().Err(err).Str("vote_key", rec.VoteKey).Msg("Failed to update vote message")
	}

	metrics.RecordVoteResolved(string(outcome))
	log.Info().Str("vote_key", rec.VoteKey).Str("title", rec.Title).Str("outcome", string(outcome)).
		Int("keep", len(rec.KeepVoters)).Int("delete", len(rec.DeleteVoters)).Msg("Vote resolved")
}
