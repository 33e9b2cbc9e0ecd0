// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

// Package config loads the bot configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables. See LoadWithKoanf for the precedence rules and
// envTransformFunc for the environment variable names.
package config

import (
	"time"
)

// Config holds all application configuration
type Config struct {
	Discord DiscordConfig `koanf:"discord"`
	Plex    PlexConfig    `koanf:"plex"`
	Radarr  ArrConfig     `koanf:"radarr"`
	Sonarr  ArrConfig     `koanf:"sonarr"`
	Votes   VotesConfig   `koanf:"votes"`
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
}

// DiscordConfig holds the bot credentials and the guild it serves.
type DiscordConfig struct {
	Token string `koanf:"token"`

	// GuildID scopes slash-command registration. Empty registers globally,
	// which Discord can take up to an hour to propagate.
	GuildID string `koanf:"guild_id" validate:"omitempty,snowflake"`

	// VoteChannelID is where discovery posts new votes. Empty disables discovery.
	VoteChannelID string `koanf:"vote_channel_id" validate:"omitempty,snowflake"`

	// VoteMentionRoleID is pinged on the intro message and on manually opened votes.
	VoteMentionRoleID string `koanf:"vote_mention_role_id" validate:"omitempty,snowflake"`

	// AdminRoleID additionally grants access to admin commands. Members with
	// the Administrator permission are always allowed.
	AdminRoleID string `koanf:"admin_role_id" validate:"omitempty,snowflake"`
}

// PlexConfig holds the media catalog connection.
type PlexConfig struct {
	URL       string        `koanf:"url"`
	Token     string        `koanf:"token"`
	Libraries []string      `koanf:"libraries"`
	Timeout   time.Duration `koanf:"timeout"`

	// RequestsPerSecond throttles outbound calls. Zero disables throttling.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
}

// Enabled reports whether a Plex server is configured.
func (p PlexConfig) Enabled() bool {
	return p.URL != "" && p.Token != ""
}

// ArrConfig holds one Radarr or Sonarr instance.
type ArrConfig struct {
	URL     string        `koanf:"url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond throttles outbound calls. Zero disables throttling.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
}

// Enabled reports whether the instance is configured.
func (a ArrConfig) Enabled() bool {
	return a.URL != "" && a.APIKey != ""
}

// VotesConfig holds the deletion-vote policy and its persistence.
type VotesConfig struct {
	DurationDays      int           `koanf:"duration_days"`
	UnwatchedDays     int           `koanf:"unwatched_days"`
	MinAgeDays        int           `koanf:"min_age_days"`
	Cooldown          time.Duration `koanf:"cooldown"`
	MaxCandidates     int           `koanf:"max_candidates"`
	DryRun            bool          `koanf:"dry_run"`
	Store             string        `koanf:"store"` // json or badger
	LedgerPath        string        `koanf:"ledger_path"`
	CooldownPath      string        `koanf:"cooldown_path"`
	BadgerDir         string        `koanf:"badger_dir"`
	ExpiryInterval    time.Duration `koanf:"expiry_interval"`
	DiscoveryInterval time.Duration `koanf:"discovery_interval"`
}

// Duration returns the voting window.
func (v VotesConfig) Duration() time.Duration {
	return time.Duration(v.DurationDays) * 24 * time.Hour
}

// UnwatchedThreshold returns how long an item must go unwatched to be proposed.
func (v VotesConfig) UnwatchedThreshold() time.Duration {
	return time.Duration(v.UnwatchedDays) * 24 * time.Hour
}

// MinAge returns how long an item must have been in the library to be proposed.
func (v VotesConfig) MinAge() time.Duration {
	return time.Duration(v.MinAgeDays) * 24 * time.Hour
}

// ServerConfig holds the metrics and read-only API listener.
type ServerConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	// Caller includes file:line in every event.
	Caller bool `koanf:"caller"`
}
