// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/homelab-bot/internal/validation"
)

// Validate checks everything the bot process needs.
func (c *Config) Validate() error {
	if err := c.validateDiscord(); err != nil {
		return err
	}
	if err := c.validatePlex(); err != nil {
		return err
	}
	if err := c.validateArr(&c.Radarr, "RADARR"); err != nil {
		return err
	}
	if err := c.validateArr(&c.Sonarr, "SONARR"); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.ValidateStorage()
}

// ValidateStorage checks the subset needed to open the vote stores.
func (c *Config) ValidateStorage() error {
	if err := c.validateVotes(); err != nil {
		return err
	}
	return c.validateLogging()
}

// validateDiscord validates the bot credentials and IDs
func (c *Config) validateDiscord() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	if err := validation.ValidateStruct(&c.Discord); err != nil {
		return fmt.Errorf("discord config invalid: %w", err)
	}
	return nil
}

// validatePlex validates Plex configuration (only if a URL is set)
func (c *Config) validatePlex() error {
	if c.Plex.URL == "" {
		return nil
	}
	if err := validateHTTPURL(c.Plex.URL, "PLEX_URL", false); err != nil {
		return fmt.Errorf("PLEX_URL is invalid: %w", err)
	}
	if c.Plex.Token == "" {
		return fmt.Errorf("PLEX_TOKEN is required when PLEX_URL is set")
	}
	if len(c.Plex.Libraries) == 0 {
		return fmt.Errorf("PLEX_LIBRARIES must name at least one library")
	}
	if c.Plex.Timeout <= 0 {
		return fmt.Errorf("PLEX_TIMEOUT must be positive")
	}
	if c.Plex.RequestsPerSecond < 0 {
		return fmt.Errorf("PLEX_REQUESTS_PER_SECOND must not be negative")
	}
	return nil
}

// validateArr validates one Radarr/Sonarr instance (only if a URL is set)
func (c *Config) validateArr(a *ArrConfig, prefix string) error {
	if a.URL == "" {
		return nil
	}
	if err := validateHTTPURL(a.URL, prefix+"_URL", true); err != nil {
		return fmt.Errorf("%s_URL is invalid: %w", prefix, err)
	}
	if a.APIKey == "" {
		return fmt.Errorf("%s_API_KEY is required when %s_URL is set", prefix, prefix)
	}
	if a.Timeout <= 0 {
		return fmt.Errorf("%s_TIMEOUT must be positive", prefix)
	}
	if a.RequestsPerSecond < 0 {
		return fmt.Errorf("%s_REQUESTS_PER_SECOND must not be negative", prefix)
	}
	return nil
}

// validateVotes validates the vote policy
func (c *Config) validateVotes() error {
	v := c.Votes
	if v.DurationDays < 1 {
		return fmt.Errorf("VOTE_DURATION_DAYS must be at least 1")
	}
	if v.UnwatchedDays < 1 {
		return fmt.Errorf("AUTO_VOTE_UNWATCHED_DAYS must be at least 1")
	}
	if v.MinAgeDays < 0 {
		return fmt.Errorf("AUTO_VOTE_MIN_AGE_DAYS must not be negative")
	}
	if v.MaxCandidates < 1 {
		return fmt.Errorf("AUTO_VOTE_MAX_CANDIDATES must be at least 1")
	}
	if v.Cooldown < 0 {
		return fmt.Errorf("AUTO_VOTE_COOLDOWN must not be negative")
	}
	if err := c.validateVoteIntervals(); err != nil {
		return err
	}
	return c.validateVoteStore()
}

func (c *Config) validateVoteIntervals() error {
	if c.Votes.ExpiryInterval < time.Minute {
		return fmt.Errorf("VOTES_EXPIRY_INTERVAL must be at least 1m")
	}
	if c.Votes.DiscoveryInterval < time.Minute {
		return fmt.Errorf("AUTO_VOTE_DISCOVERY_INTERVAL must be at least 1m")
	}
	return nil
}

func (c *Config) validateVoteStore() error {
	switch c.Votes.Store {
	case "json":
		if c.Votes.LedgerPath == "" || c.Votes.CooldownPath == "" {
			return fmt.Errorf("VOTES_LEDGER_PATH and AUTO_VOTE_LAST_RUN_FILE are required for the json store")
		}
	case "badger":
		if c.Votes.BadgerDir == "" {
			return fmt.Errorf("VOTES_BADGER_DIR is required for the badger store")
		}
	default:
		return fmt.Errorf("VOTES_STORE must be one of: json, badger")
	}
	return nil
}

// validateServer validates the HTTP listener (only if enabled)
func (c *Config) validateServer() error {
	if !c.Server.Enabled {
		return nil
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.RateLimitReqs < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must not be negative")
	}
	if c.Server.RateLimitReqs > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
	}
	return nil
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
