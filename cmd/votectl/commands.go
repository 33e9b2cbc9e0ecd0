// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/homelab-bot/internal/models"
	"github.com/tomtom215/homelab-bot/internal/votes"
)

// stores is the persisted state votectl works on. The cooldown store of a
// Badger backend shares the ledger's database, so closing the ledger is enough.
type stores struct {
	ledger   *votes.Ledger
	cooldown votes.CooldownStore
	period   time.Duration
}

type storeOpener func() (*stores, error)

type cli struct {
	open   storeOpener
	now    func() time.Time
	asJSON bool
}

func newRootCommand(open storeOpener, now func() time.Time) *cobra.Command {
	c := &cli{open: open, now: now}

	rootCmd := &cobra.Command{
		Use:          programName,
		Short:        "Inspect and maintain the media deletion vote ledger",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVar(&c.asJSON, "json", false, "print JSON instead of text")

	cooldownCmd := &cobra.Command{
		Use:   "cooldown",
		Short: "Show or reset the discovery cooldown",
	}
	cooldownCmd.AddCommand(c.cooldownShowCommand(), c.cooldownResetCommand())

	rootCmd.AddCommand(c.listCommand(), c.showCommand(), cooldownCmd)
	return rootCmd
}

// withStores opens the stores for the duration of fn.
func (c *cli) withStores(fn func(*stores) error) (err error) {
	s, err := c.open()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.ledger.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(s)
}

func (c *cli) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List open votes, soonest deadline first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withStores(func(s *stores) error {
				recs, err := s.ledger.List(cmd.Context())
				if err != nil {
					return err
				}
				if c.asJSON {
					return writeJSON(cmd.OutOrStdout(), recs)
				}
				return c.printList(cmd.OutOrStdout(), recs)
			})
		},
	}
}

func (c *cli) printList(w io.Writer, recs []*models.VoteRecord) error {
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "No open votes.")
		return err
	}
	now := c.now()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tTITLE\tLIBRARY\tKEEP\tDELETE\tENDS\tSTATUS")
	for _, rec := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			rec.VoteKey,
			rec.Title,
			rec.LibraryName,
			len(rec.KeepVoters),
			len(rec.DeleteVoters),
			rec.EndsAt.UTC().Format(time.RFC3339),
			status(rec, now),
		)
	}
	return tw.Flush()
}

func (c *cli) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <vote-key>",
		Short: "Show one open vote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStores(func(s *stores) error {
				rec, err := s.ledger.Get(cmd.Context(), args[0])
				if errors.Is(err, votes.ErrVoteNotFound) {
					return fmt.Errorf("no open vote with key %s", args[0])
				}
				if err != nil {
					return err
				}
				if c.asJSON {
					return writeJSON(cmd.OutOrStdout(), rec)
				}
				return c.printVote(cmd.OutOrStdout(), rec)
			})
		},
	}
}

func (c *cli) printVote(w io.Writer, rec *models.VoteRecord) error {
	managed := "no"
	if rec.IsManaged() {
		managed = fmt.Sprintf("yes (service id %d)", *rec.ManagedServiceID)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	rows := [][2]string{
		{"Key", rec.VoteKey},
		{"Title", rec.Title},
		{"Library", rec.LibraryName},
		{"Type", string(rec.MediaType)},
		{"Size", fmt.Sprintf("%.1f GB", rec.SizeGB)},
		{"Managed", managed},
		{"Channel", rec.ChannelID},
		{"Message", rec.MessageID},
		{"Created", rec.CreatedAt.UTC().Format(time.RFC3339)},
		{"Ends", rec.EndsAt.UTC().Format(time.RFC3339)},
		{"Status", status(rec, c.now())},
		{"Keep", voters(rec.KeepVoters)},
		{"Delete", voters(rec.DeleteVoters)},
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", row[0], row[1])
	}
	return tw.Flush()
}

type cooldownState struct {
	LastRun  *time.Time `json:"last_run,omitempty"`
	NextRun  *time.Time `json:"next_run,omitempty"`
	Active   bool       `json:"active"`
	Duration string     `json:"duration"`
}

func (c *cli) cooldownShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show when discovery last ran and when it may run again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withStores(func(s *stores) error {
				last, found, err := s.cooldown.LastRun(cmd.Context())
				if err != nil {
					return err
				}
				state := cooldownState{Duration: s.period.String()}
				if found {
					next := last.Add(s.period)
					state.LastRun, state.NextRun = &last, &next
					state.Active = c.now().Before(next)
				}
				if c.asJSON {
					return writeJSON(cmd.OutOrStdout(), state)
				}
				return printCooldown(cmd.OutOrStdout(), state)
			})
		},
	}
}

func printCooldown(w io.Writer, state cooldownState) error {
	if state.LastRun == nil {
		_, err := fmt.Fprintf(w, "Discovery has never run. Cooldown: %s\n", state.Duration)
		return err
	}
	active := "no"
	if state.Active {
		active = "yes"
	}
	_, err := fmt.Fprintf(w, "Last run: %s\nNext run: %s\nCooldown: %s\nActive:   %s\n",
		state.LastRun.UTC().Format(time.RFC3339),
		state.NextRun.UTC().Format(time.RFC3339),
		state.Duration,
		active,
	)
	return err
}

func (c *cli) cooldownResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the discovery cooldown so the next sweep runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withStores(func(s *stores) error {
				if err := s.cooldown.Reset(cmd.Context()); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "Discovery cooldown cleared.")
				return err
			})
		},
	}
}

func status(rec *models.VoteRecord, now time.Time) string {
	if rec.IsExpired(now) {
		return "expired"
	}
	return "open"
}

func voters(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ", ")
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
