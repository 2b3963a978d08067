// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

// Package supervisor wraps suture v4 into the two-layer tree Goalpost
// runs under: a push layer (overlay hub) and a polling layer (scheduler).
// A crash in the polling layer restarts the poll loop without dropping
// connected overlay pages, and vice versa.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig holds supervisor failure and shutdown parameters. Zero
// values take suture's production defaults.
type TreeConfig struct {
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

// Tree is the supervisor hierarchy for the tracking engine.
type Tree struct {
	root    *suture.Supervisor
	push    *suture.Supervisor
	polling *suture.Supervisor
}

// NewTree builds the tree. Supervisor events are logged through logger,
// typically logging.NewSlogLogger().
func NewTree(logger *slog.Logger, config TreeConfig) *Tree {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5.0
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = 30.0
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = 15 * time.Second
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	handler := &sutureslog.Handler{Logger: logger}
	rootSpec := suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}
	childSpec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	root := suture.New("goalpost", rootSpec)
	push := suture.New("push-layer", childSpec)
	polling := suture.New("polling-layer", childSpec)
	root.Add(push)
	root.Add(polling)

	return &Tree{root: root, push: push, polling: polling}
}

// AddPushService adds a service to the push layer (overlay hub).
func (t *Tree) AddPushService(svc suture.Service) suture.ServiceToken {
	return t.push.Add(svc)
}

// AddPollingService adds a service to the polling layer (scheduler).
func (t *Tree) AddPollingService(svc suture.Service) suture.ServiceToken {
	return t.polling.Add(svc)
}

// Serve runs the tree until ctx is canceled.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine; the channel receives the
// terminal error when it stops.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}
