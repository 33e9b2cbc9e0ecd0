// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

const testSnowflake = "123456789012345678"

// validConfig returns defaults plus the minimum needed to pass Validate.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Discord.Token = "bot-token"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Votes.DurationDays != 7 {
		t.Errorf("Votes.DurationDays = %d, want 7", cfg.Votes.DurationDays)
	}
	if cfg.Votes.UnwatchedDays != 90 {
		t.Errorf("Votes.UnwatchedDays = %d, want 90", cfg.Votes.UnwatchedDays)
	}
	if cfg.Votes.MinAgeDays != 30 {
		t.Errorf("Votes.MinAgeDays = %d, want 30", cfg.Votes.MinAgeDays)
	}
	if cfg.Votes.Cooldown != 144*time.Hour {
		t.Errorf("Votes.Cooldown = %v, want 144h", cfg.Votes.Cooldown)
	}
	if cfg.Votes.MaxCandidates != 5 {
		t.Errorf("Votes.MaxCandidates = %d, want 5", cfg.Votes.MaxCandidates)
	}
	if !cfg.Votes.DryRun {
		t.Error("Votes.DryRun should default to true")
	}
	if cfg.Votes.Store != "json" {
		t.Errorf("Votes.Store = %q, want json", cfg.Votes.Store)
	}
	if !slices.Equal(cfg.Plex.Libraries, DefaultLibraries) {
		t.Errorf("Plex.Libraries = %v, want %v", cfg.Plex.Libraries, DefaultLibraries)
	}
	if cfg.Plex.RequestsPerSecond != 10 || cfg.Plex.Burst != 10 {
		t.Errorf("Plex throttle = %v/s burst %d, want 10/s burst 10", cfg.Plex.RequestsPerSecond, cfg.Plex.Burst)
	}
	if cfg.Votes.Duration() != 7*24*time.Hour {
		t.Errorf("Votes.Duration() = %v", cfg.Votes.Duration())
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env  string
		want string
	}{
		{"DISCORD_TOKEN", "discord.token"},
		{"TEST_GUILD_ID", "discord.guild_id"},
		{"VOTE_CHANNEL_ID", "discord.vote_channel_id"},
		{"RADARR_API_KEY", "radarr.api_key"},
		{"SONARR_URL", "sonarr.url"},
		{"MEDIA_VOTES_DRY_RUN", "votes.dry_run"},
		{"AUTO_VOTE_UNWATCHED_DAYS", "votes.unwatched_days"},
		{"LOG_LEVEL", "logging.level"},
		{"HOME", ""},
		{"PATH", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("DISCORD_TOKEN", "abc")
	t.Setenv("VOTE_CHANNEL_ID", testSnowflake)
	t.Setenv("PLEX_URL", "http://plex.local:32400")
	t.Setenv("PLEX_TOKEN", "plex-token")
	t.Setenv("PLEX_LIBRARIES", "Movies, Kids Movies ,")
	t.Setenv("PLEX_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("RADARR_URL", "http://nas.local/radarr")
	t.Setenv("RADARR_API_KEY", "radarr-key")
	t.Setenv("MEDIA_VOTES_DRY_RUN", "false")
	t.Setenv("VOTE_DURATION_DAYS", "3")
	t.Setenv("AUTO_VOTE_COOLDOWN", "48h")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Discord.Token != "abc" {
		t.Errorf("Discord.Token = %q", cfg.Discord.Token)
	}
	if cfg.Discord.VoteChannelID != testSnowflake {
		t.Errorf("Discord.VoteChannelID = %q", cfg.Discord.VoteChannelID)
	}
	if want := []string{"Movies", "Kids Movies"}; !slices.Equal(cfg.Plex.Libraries, want) {
		t.Errorf("Plex.Libraries = %v, want %v", cfg.Plex.Libraries, want)
	}
	if cfg.Plex.RequestsPerSecond != 2.5 {
		t.Errorf("Plex.RequestsPerSecond = %v, want 2.5", cfg.Plex.RequestsPerSecond)
	}
	if !cfg.Radarr.Enabled() || cfg.Sonarr.Enabled() {
		t.Errorf("Radarr.Enabled=%v Sonarr.Enabled=%v", cfg.Radarr.Enabled(), cfg.Sonarr.Enabled())
	}
	if cfg.Votes.DryRun {
		t.Error("Votes.DryRun should be false from env")
	}
	if cfg.Votes.DurationDays != 3 {
		t.Errorf("Votes.DurationDays = %d, want 3", cfg.Votes.DurationDays)
	}
	if cfg.Votes.Cooldown != 48*time.Hour {
		t.Errorf("Votes.Cooldown = %v, want 48h", cfg.Votes.Cooldown)
	}
}

func TestLoadWithKoanf_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
discord:
  token: file-token
plex:
  libraries:
    - Movies
    - Documentaries
votes:
  store: badger
  badger_dir: ` + filepath.Join(dir, "badger") + `
  max_candidates: 2
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("AUTO_VOTE_MAX_CANDIDATES", "4")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Discord.Token != "file-token" {
		t.Errorf("Discord.Token = %q", cfg.Discord.Token)
	}
	if want := []string{"Movies", "Documentaries"}; !slices.Equal(cfg.Plex.Libraries, want) {
		t.Errorf("Plex.Libraries = %v, want %v", cfg.Plex.Libraries, want)
	}
	if cfg.Votes.Store != "badger" {
		t.Errorf("Votes.Store = %q", cfg.Votes.Store)
	}
	// env wins over file
	if cfg.Votes.MaxCandidates != 4 {
		t.Errorf("Votes.MaxCandidates = %d, want 4", cfg.Votes.MaxCandidates)
	}
}

func TestLoadStorage_NoDiscordToken(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("DISCORD_TOKEN", "")

	if _, err := LoadWithKoanf(); err == nil {
		t.Error("LoadWithKoanf() should require DISCORD_TOKEN")
	}
	if _, err := LoadStorage(); err != nil {
		t.Errorf("LoadStorage() error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults with token", func(*Config) {}, ""},
		{"missing token", func(c *Config) { c.Discord.Token = "" }, "DISCORD_TOKEN"},
		{"bad channel id", func(c *Config) { c.Discord.VoteChannelID = "general" }, "VoteChannelID"},
		{"plex without token", func(c *Config) { c.Plex.URL = "http://plex:32400" }, "PLEX_TOKEN"},
		{"plex with path", func(c *Config) {
			c.Plex.URL = "http://plex:32400/web"
			c.Plex.Token = "x"
		}, "PLEX_URL"},
		{"plex negative throttle", func(c *Config) {
			c.Plex.URL = "http://plex:32400"
			c.Plex.Token = "x"
			c.Plex.RequestsPerSecond = -1
		}, "PLEX_REQUESTS_PER_SECOND"},
		{"radarr url base allowed", func(c *Config) {
			c.Radarr.URL = "https://nas/radarr"
			c.Radarr.APIKey = "k"
		}, ""},
		{"sonarr missing key", func(c *Config) { c.Sonarr.URL = "http://sonarr:8989" }, "SONARR_API_KEY"},
		{"sonarr bad scheme", func(c *Config) {
			c.Sonarr.URL = "ftp://sonarr"
			c.Sonarr.APIKey = "k"
		}, "SONARR_URL"},
		{"zero duration", func(c *Config) { c.Votes.DurationDays = 0 }, "VOTE_DURATION_DAYS"},
		{"zero candidates", func(c *Config) { c.Votes.MaxCandidates = 0 }, "AUTO_VOTE_MAX_CANDIDATES"},
		{"unknown store", func(c *Config) { c.Votes.Store = "sqlite" }, "VOTES_STORE"},
		{"badger without dir", func(c *Config) {
			c.Votes.Store = "badger"
			c.Votes.BadgerDir = ""
		}, "VOTES_BADGER_DIR"},
		{"tiny expiry interval", func(c *Config) { c.Votes.ExpiryInterval = time.Second }, "VOTES_EXPIRY_INTERVAL"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"port ignored when disabled", func(c *Config) {
			c.Server.Enabled = false
			c.Server.Port = 0
		}, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}
