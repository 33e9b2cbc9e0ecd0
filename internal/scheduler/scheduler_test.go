// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNew_RejectsBadJobs(t *testing.T) {
	run := func(context.Context) error { return nil }
	tests := []struct {
		name string
		jobs []Job
	}{
		{name: "missing name", jobs: []Job{{Interval: time.Second, Run: run}}},
		{name: "missing run", jobs: []Job{{Name: "a", Interval: time.Second}}},
		{name: "zero interval", jobs: []Job{{Name: "a", Run: run}}},
		{name: "duplicate", jobs: []Job{{Name: "a", Interval: time.Second, Run: run}, {Name: "a", Interval: time.Second, Run: run}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(nil, tt.jobs...); err == nil {
				t.Error("New() error = nil")
			}
		})
	}
}

func TestScheduler_RunsOnStartAndOnTicks(t *testing.T) {
	defer goleak.VerifyNone(t)

	var runs atomic.Int32
	s, err := New(nil, Job{Name: "tick", Interval: 5 * time.Millisecond, Run: func(context.Context) error {
		runs.Add(1)
		return nil
	}})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(context.Background()); err == nil {
		t.Error("second Start() error = nil")
	}

	waitFor(t, func() bool { return runs.Load() >= 3 })
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	after := runs.Load()
	time.Sleep(20 * time.Millisecond)
	if runs.Load() != after {
		t.Error("job ran after Stop")
	}
	if err := s.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestScheduler_NeverOverlaps(t *testing.T) {
	defer goleak.VerifyNone(t)

	var active, maxActive, runs atomic.Int32
	s, err := New(nil, Job{Name: "slow", Interval: time.Millisecond, Run: func(ctx context.Context) error {
		n := active.Add(1)
		defer active.Add(-1)
		for {
			cur := maxActive.Load()
			if n <= cur || maxActive.CompareAndSwap(cur, n) {
				break
			}
		}
		runs.Add(1)
		select {
		case <-time.After(10 * time.Millisecond):
		case <-ctx.Done():
		}
		return nil
	}})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return runs.Load() >= 4 })
	_ = s.Stop()

	if got := maxActive.Load(); got != 1 {
		t.Errorf("max concurrent runs = %d, want 1", got)
	}
}

func TestScheduler_WaitsForReady(t *testing.T) {
	defer goleak.VerifyNone(t)

	ready := make(chan struct{})
	var runs atomic.Int32
	s, err := New(ready, Job{Name: "gated", Interval: time.Hour, Run: func(context.Context) error {
		runs.Add(1)
		return nil
	}})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	time.Sleep(20 * time.Millisecond)
	if runs.Load() != 0 {
		t.Fatal("job ran before ready")
	}
	close(ready)
	waitFor(t, func() bool { return runs.Load() == 1 })
	_ = s.Stop()
}

func TestScheduler_StopBeforeReady(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, err := New(make(chan struct{}), Job{Name: "never", Interval: time.Hour, Run: func(context.Context) error {
		t.Error("job should not run")
		return nil
	}})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestScheduler_SurvivesFailuresAndPanics(t *testing.T) {
	defer goleak.VerifyNone(t)

	var runs atomic.Int32
	s, err := New(nil, Job{Name: "flaky", Interval: 2 * time.Millisecond, Timeout: time.Second, Run: func(context.Context) error {
		switch runs.Add(1) {
		case 1:
			return errors.New("upstream down")
		case 2:
			panic("boom")
		}
		return nil
	}})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return runs.Load() >= 3 })
	_ = s.Stop()
}

func TestScheduler_StopCancelsRunningJob(t *testing.T) {
	defer goleak.VerifyNone(t)

	started := make(chan struct{})
	var sawCancel atomic.Bool
	s, err := New(nil, Job{Name: "long", Interval: time.Hour, Run: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		sawCancel.Store(true)
		return ctx.Err()
	}})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	<-started
	_ = s.Stop()
	if !sawCancel.Load() {
		t.Error("running job did not observe cancellation")
	}
}
