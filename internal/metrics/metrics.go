// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

// Package metrics provides Prometheus instrumentation for the engine:
// poll outcomes per source, merge decisions, ledger mutations, overlay
// pushes, and external-API circuit breaker state.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PollsTotal counts scheduler ticks that reached a platform fetch.
	PollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goalpost_polls_total",
			Help: "Total number of polls per data source",
		},
		[]string{"source"},
	)

	// PollErrors counts failed polls; polling continues on last-known-good
	// data, so errors here do not imply missing overlay state.
	PollErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goalpost_poll_errors_total",
			Help: "Total number of failed polls per data source",
		},
		[]string{"source", "error_type"},
	)

	// PollsSkipped counts ticks discarded because the tick's source was no
	// longer authoritative when it ran (stale-write rejection).
	PollsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goalpost_polls_skipped_total",
			Help: "Polls skipped because the data source changed mid-flight",
		},
		[]string{"source"},
	)

	// SyncsApplied counts source syncs that changed the persisted document.
	SyncsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goalpost_syncs_applied_total",
			Help: "Source syncs that modified the goal state document",
		},
		[]string{"source"},
	)

	// SyncsNoop counts source syncs skipped as deep-equal to stored state.
	SyncsNoop = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goalpost_syncs_noop_total",
			Help: "Source syncs skipped because the data was unchanged",
		},
		[]string{"source"},
	)

	// LedgerOps counts local ledger mutations by operation.
	LedgerOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goalpost_ledger_operations_total",
			Help: "Local ledger mutations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// OverlayPushes counts messages broadcast to the overlay.
	OverlayPushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goalpost_overlay_pushes_total",
			Help: "Messages pushed to the browser overlay by type",
		},
		[]string{"type"},
	)

	// OverlayClients tracks currently connected overlay websocket clients.
	OverlayClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "goalpost_overlay_clients",
			Help: "Currently connected overlay websocket clients",
		},
	)

	// GoalResets counts period-boundary goal resets issued to StreamElements.
	GoalResets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "goalpost_goal_resets_total",
			Help: "Period-boundary goal counter resets issued to StreamElements",
		},
	)

	// CircuitBreakerState tracks breaker state per platform client.
	// 0 = closed, 1 = half-open, 2 = open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "goalpost_circuit_breaker_state",
			Help: "Circuit breaker state per platform (0=closed, 1=half-open, 2=open)",
		},
		[]string{"platform"},
	)
)
