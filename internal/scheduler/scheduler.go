// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

// Package scheduler runs fixed-interval background jobs.
//
// Each job runs in its own goroutine, once at start and then on every tick.
// A job never overlaps itself: ticks that arrive while a run is in progress
// are dropped. The scheduler integrates with the supervisor tree through the
// Start/Stop lifecycle.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/homelab-bot/internal/logging"
)

// Job is one periodic task.
type Job struct {
	Name     string
	Interval time.Duration
	// Timeout bounds a single run. Zero means no bound beyond Stop.
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Scheduler runs a fixed set of jobs.
type Scheduler struct {
	jobs   []Job
	ready  <-chan struct{}
	logger zerolog.Logger

	// Runtime state
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a scheduler for jobs. When ready is non-nil, no job runs
// before it is closed.
func New(ready <-chan struct{}, jobs ...Job) (*Scheduler, error) {
	seen := make(map[string]struct{}, len(jobs))
	for _, job := range jobs {
		if job.Name == "" || job.Run == nil {
			return nil, errors.New("scheduler: job needs a name and a run function")
		}
		if job.Interval <= 0 {
			return nil, fmt.Errorf("scheduler: job %s: interval must be positive", job.Name)
		}
		if _, dup := seen[job.Name]; dup {
			return nil, fmt.Errorf("scheduler: duplicate job %s", job.Name)
		}
		seen[job.Name] = struct{}{}
	}
	return &Scheduler{
		jobs:   jobs,
		ready:  ready,
		logger: logging.WithComponent("scheduler"),
	}, nil
}

// Start launches every job loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	s.running = true

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	for _, job := range s.jobs {
		s.logger.Info().Str("job", job.Name).Dur("interval", job.Interval).Msg("Starting job")
		s.wg.Add(1)
		go s.loop(runCtx, job)
	}
	return nil
}

// Stop cancels running jobs and waits for every loop to exit.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()

	if s.ready != nil {
		select {
		case <-s.ready:
		case <-ctx.Done():
			return
		}
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	// Run immediately on start
	s.execute(ctx, job)

	for {
		select {
		case <-ticker.C:
			s.execute(ctx, job)
		case <-ctx.Done():
			return
		}
	}
}

// execute runs job once. Panics are contained so one bad run does not end the loop.
func (s *Scheduler) execute(ctx context.Context, job Job) {
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("job", job.Name).Interface("panic", r).Msg("Job panicked")
		}
	}()

	if err := job.Run(ctx); err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			s.logger.Debug().Str("job", job.Name).Msg("Job interrupted")
			return
		}
		s.logger.Error().Err(err).Str("job", job.Name).Dur("duration", time.Since(start)).Msg("Job failed")
		return
	}
	s.logger.Debug().Str("job", job.Name).Dur("duration", time.Since(start)).Msg("Job finished")
}
