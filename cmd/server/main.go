// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

// Goalpost tracks stream donation progress against a goal. It polls a
// fundraising platform (Extra Life) or a tipping platform
// (StreamElements), reconciles the results with an operator-maintained
// local ledger, persists the merged goal state in an embedded document
// store, and pushes it to a browser overlay over websockets.
//
// Configuration is layered: built-in defaults, an optional YAML file
// (GOALPOST_CONFIG or ./config.yaml), then GOALPOST_* environment
// variables. Example:
//
//	GOALPOST_TRACKER_SOURCE=streamelements \
//	GOALPOST_TRACKER_CHANNEL_ID=5f7c... \
//	GOALPOST_STREAMELEMENTS_JWT_TOKEN=eyJ... \
//	goalpost
//
// The listener serves /ws for the overlay page and /metrics for
// Prometheus. A donation ledger exported by another Goalpost instance can
// be loaded at boot with -import <file>.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/goalpost/internal/apperror"
	"github.com/tomtom215/goalpost/internal/config"
	"github.com/tomtom215/goalpost/internal/extralife"
	"github.com/tomtom215/goalpost/internal/ledger"
	"github.com/tomtom215/goalpost/internal/logging"
	"github.com/tomtom215/goalpost/internal/overlay"
	"github.com/tomtom215/goalpost/internal/poller"
	"github.com/tomtom215/goalpost/internal/store"
	"github.com/tomtom215/goalpost/internal/streamelements"
	"github.com/tomtom215/goalpost/internal/supervisor"
)

func main() {
	importPath := flag.String("import", "", "donation ledger JSON file to import at boot")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	logging.Info().
		Str("source", string(cfg.Tracker.Source)).
		Str("period", string(cfg.Tracker.AccountingPeriod)).
		Float64("goal", cfg.Tracker.GoalAmount).
		Msg("starting goalpost")

	docs, err := store.Open(cfg.Store.Path, cfg.Store.InMemory)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open document store")
	}
	defer func() {
		if err := docs.Close(); err != nil {
			logging.Error().Err(err).Msg("document store close failed")
		}
	}()

	goalStore := store.New(docs)
	hub := overlay.NewHub()
	goalStore.SetPublisher(hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A previous session for the same configuration is resumed as-is;
	// anything else starts fresh.
	if err := ensureSession(ctx, goalStore, cfg); err != nil {
		logging.Fatal().Err(err).Msg("failed to start tracking session")
	}

	if *importPath != "" {
		if err := importLedger(ctx, goalStore, *importPath); err != nil {
			logging.Fatal().Err(err).Str("file", *importPath).Msg("ledger import failed")
		}
		logging.Info().Str("file", *importPath).Msg("ledger import completed")
	}

	sched := poller.NewScheduler(
		goalStore,
		extralife.NewClient(cfg.ExtraLife),
		streamelements.NewClient(cfg.StreamElements),
		cfg,
		hub,
	)

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	tree.AddPushService(hub)
	tree.AddPollingService(sched)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", overlay.ServeWS(hub))
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("listener started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("listener failed")
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("listener shutdown failed")
	}

	logging.Info().Msg("stopped gracefully")
}

// ensureSession resumes the persisted session when its configuration
// matches the boot configuration, otherwise starts a new one. A changed
// participant or channel means the stored history belongs to someone
// else, so it is discarded with the old session.
func ensureSession(ctx context.Context, g *store.GoalStore, cfg *config.Config) error {
	state, err := g.GetGoalState(ctx)
	switch {
	case err == nil:
		if state.Config == cfg.Tracker {
			logging.Info().Str("session", state.ID).Msg("resuming tracking session")
			return nil
		}
		logging.Info().Str("session", state.ID).Msg("configuration changed, starting new session")
	case errors.Is(err, apperror.ErrNotFound):
	default:
		return err
	}

	_, err = g.StartSession(ctx, cfg.Tracker)
	return err
}

func importLedger(ctx context.Context, g *store.GoalStore, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ledger.New(g).Import(ctx, f)
}
