// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/homelab-bot/config.yaml",
	"/etc/homelab-bot/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultLibraries are the Plex libraries scanned when none are configured.
var DefaultLibraries = []string{"Movies", "TV Shows", "Anime Shows", "Anime Movies"}

// defaultConfig returns a Config struct with all default values.
func defaultConfig() *Config {
	return &Config{
		Plex: PlexConfig{
			Libraries:         append([]string(nil), DefaultLibraries...),
			Timeout:           30 * time.Second,
			RequestsPerSecond: 10,
			Burst:             10,
		},
		Radarr: ArrConfig{
			Timeout:           30 * time.Second,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Sonarr: ArrConfig{
			Timeout:           30 * time.Second,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Votes: VotesConfig{
			DurationDays:      7,
			UnwatchedDays:     90,
			MinAgeDays:        30,
			Cooldown:          144 * time.Hour,
			MaxCandidates:     5,
			DryRun:            true, // deletion is opt-in
			Store:             "json",
			LedgerPath:        "data/media_votes.json",
			CooldownPath:      "data/auto_vote_last_run.json",
			BadgerDir:         "data/votes",
			ExpiryInterval:    time.Hour,
			DiscoveryInterval: 24 * time.Hour,
		},
		Server: ServerConfig{
			Enabled:         true,
			Port:            9464,
			Host:            "0.0.0.0",
			Timeout:         15 * time.Second,
			RateLimitReqs:   60,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration with layered sources:
//  1. Defaults: built-in values from defaultConfig
//  2. Config File: optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment Variables: override any setting
//
// The result is fully validated, including the Discord credentials the bot needs.
func LoadWithKoanf() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadStorage loads configuration for offline tools that only touch the
// persisted vote state. Discord and upstream credentials are not required.
func LoadStorage() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateStorage(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// DISCORD_TOKEN -> discord.token, RADARR_API_KEY -> radarr.api_key, ...
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first config file found, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"plex.libraries",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings while YAML lists arrive already split.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
// Several names are kept from the bot's earlier .env layout (TEST_GUILD_ID,
// MEDIA_VOTES_DRY_RUN, AUTO_VOTE_*).
var envMappings = map[string]string{
	// Discord
	"discord_token":        "discord.token",
	"discord_guild_id":     "discord.guild_id",
	"test_guild_id":        "discord.guild_id",
	"vote_channel_id":      "discord.vote_channel_id",
	"vote_mention_role_id": "discord.vote_mention_role_id",
	"admin_role_id":        "discord.admin_role_id",

	// Plex
	"plex_url":                 "plex.url",
	"plex_token":               "plex.token",
	"plex_libraries":           "plex.libraries",
	"plex_timeout":             "plex.timeout",
	"plex_requests_per_second": "plex.requests_per_second",

	// Radarr / Sonarr
	"radarr_url":                 "radarr.url",
	"radarr_api_key":             "radarr.api_key",
	"radarr_timeout":             "radarr.timeout",
	"radarr_requests_per_second": "radarr.requests_per_second",
	"sonarr_url":                 "sonarr.url",
	"sonarr_api_key":             "sonarr.api_key",
	"sonarr_timeout":             "sonarr.timeout",
	"sonarr_requests_per_second": "sonarr.requests_per_second",

	// Votes
	"vote_duration_days":           "votes.duration_days",
	"auto_vote_unwatched_days":     "votes.unwatched_days",
	"auto_vote_min_age_days":       "votes.min_age_days",
	"auto_vote_cooldown":           "votes.cooldown",
	"auto_vote_max_candidates":     "votes.max_candidates",
	"media_votes_dry_run":          "votes.dry_run",
	"votes_store":                  "votes.store",
	"votes_ledger_path":            "votes.ledger_path",
	"auto_vote_last_run_file":      "votes.cooldown_path",
	"votes_badger_dir":             "votes.badger_dir",
	"votes_expiry_interval":        "votes.expiry_interval",
	"auto_vote_discovery_interval": "votes.discovery_interval",

	// Server
	"http_enabled":        "server.enabled",
	"http_port":           "server.port",
	"http_host":           "server.host",
	"http_timeout":        "server.timeout",
	"rate_limit_requests": "server.rate_limit_reqs",
	"rate_limit_window":   "server.rate_limit_window",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped variables return "" and are skipped, so unrelated environment
// variables never leak into the config.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
