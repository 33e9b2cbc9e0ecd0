// Homelab Bot - Discord companion for a Plex homelab
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homelab-bot

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
)

// MockService is a suture.Service for exercising the tree in tests.
type MockService struct {
	name      string
	starts    atomic.Int32
	failsLeft atomic.Int32
}

// NewMockService creates a service that runs until its context ends.
func NewMockService(name string) *MockService {
	return &MockService{name: name}
}

// FailTimes makes the next n Serve calls return an error immediately.
func (m *MockService) FailTimes(n int32) {
	m.failsLeft.Store(n)
}

// Serve implements suture.Service.
func (m *MockService) Serve(ctx context.Context) error {
	m.starts.Add(1)
	if m.failsLeft.Add(-1) >= 0 {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

// StartCount reports how many times Serve was called.
func (m *MockService) StartCount() int32 {
	return m.starts.Load()
}

func (m *MockService) String() string {
	return m.name
}
