// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

/*
goalstore.go - Goal State Merge Engine

GoalStore is the single read/write surface over the persisted GoalState
document. Nothing else in the repository writes goal state.

Update semantics:

  - UpdateGoalState merges a partial update non-destructively: only the
    fields present in the update replace their counterparts, everything
    else in the stored document survives, and UpdatedAt is always stamped.
  - SyncExtraLife / SyncStreamElements compare the freshly normalized data
    against what is stored for that source. Deep-equal data is a no-op:
    no write, no UpdatedAt bump, no overlay push. Otherwise the source
    record is replaced with {LastUpdated: now, data}, preserving
    source-specific metadata the payload does not carry (LastGoalReset).
  - The goal-reset guard fires at most once per calendar boundary no
    matter how often polling runs.

Applied updates are pushed to the overlay as partial update messages;
session starts push a full snapshot.
*/

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/goalpost/internal/apperror"
	"github.com/tomtom215/goalpost/internal/equality"
	"github.com/tomtom215/goalpost/internal/logging"
	"github.com/tomtom215/goalpost/internal/metrics"
	"github.com/tomtom215/goalpost/internal/models"
	"github.com/tomtom215/goalpost/internal/period"
	"github.com/tomtom215/goalpost/internal/validation"
)

// goalStateKey is the fixed logical path of the goal-state document.
const goalStateKey = "goalpost:goal_state"

// Publisher receives state pushes for the overlay. Fire and forget: no
// acknowledgement is modeled and implementations must never block.
type Publisher interface {
	// PushUpdate broadcasts a partial-field update.
	PushUpdate(data map[string]any)
	// PushSnapshot broadcasts the full goal state after a session start.
	PushSnapshot(state *models.GoalState)
}

// Update is a partial goal-state update; nil fields are left untouched.
type Update struct {
	Config         *models.TrackerConfig
	Local          *models.LocalSource
	ExtraLife      *models.ExtraLifeSource
	StreamElements *models.StreamElementsSource
}

// GoalStore owns the GoalState document.
type GoalStore struct {
	docs *DocumentStore
	pub  Publisher

	now func() time.Time
}

// New creates a GoalStore over docs. Attach the overlay with SetPublisher;
// without one (tests, offline tools) pushes are silently skipped.
func New(docs *DocumentStore) *GoalStore {
	return &GoalStore{docs: docs, now: time.Now}
}

// SetPublisher attaches the overlay push channel.
func (g *GoalStore) SetPublisher(pub Publisher) {
	g.pub = pub
}

// StartSession creates a fresh GoalState for cfg, overwriting any document
// left by a previous session, and pushes a full snapshot to the overlay.
func (g *GoalStore) StartSession(ctx context.Context, cfg models.TrackerConfig) (*models.GoalState, error) {
	if err := validation.ValidateStruct(&cfg); err != nil {
		return nil, err
	}

	now := g.now().UTC()
	state := &models.GoalState{
		ID:        uuid.NewString(),
		Config:    cfg,
		CreatedAt: now,
		UpdatedAt: now,
		Local: &models.LocalSource{
			LastUpdated: now,
			Data:        models.NewDonationSet(),
		},
	}
	if err := g.docs.Put(ctx, goalStateKey, state); err != nil {
		return nil, err
	}

	logging.Info().Str("session", state.ID).Str("source", string(cfg.Source)).Msg("tracking session started")
	if g.pub != nil {
		g.pub.PushSnapshot(state)
	}
	return state, nil
}

// GetGoalState reads the current document. A session must have been
// started; otherwise a NotFoundError is returned.
func (g *GoalStore) GetGoalState(ctx context.Context) (*models.GoalState, error) {
	state := &models.GoalState{}
	if err := g.docs.Get(ctx, goalStateKey, state); err != nil {
		return nil, err
	}
	return state, nil
}

// UpdateGoalState applies a partial update to the stored document,
// stamps UpdatedAt, persists, and pushes the changed fields to the overlay.
func (g *GoalStore) UpdateGoalState(ctx context.Context, u Update) (*models.GoalState, error) {
	state, err := g.GetGoalState(ctx)
	if err != nil {
		return nil, err
	}

	changed := map[string]any{}
	if u.Config != nil {
		state.Config = *u.Config
		changed["config"] = state.Config
	}
	if u.Local != nil {
		state.Local = u.Local
		changed["local"] = state.Local
	}
	if u.ExtraLife != nil {
		state.ExtraLife = u.ExtraLife
		changed["extralife"] = state.ExtraLife
	}
	if u.StreamElements != nil {
		state.StreamElements = u.StreamElements
		changed["streamelements"] = state.StreamElements
	}
	state.UpdatedAt = g.now().UTC()
	changed["updated_at"] = state.UpdatedAt

	if err := g.docs.Put(ctx, goalStateKey, state); err != nil {
		return nil, err
	}
	if g.pub != nil && len(changed) > 1 {
		g.pub.PushUpdate(changed)
	}
	return state, nil
}

// SyncExtraLife merges a normalized Extra Life poll result. Deep-equal
// data is a no-op that leaves the document untouched.
func (g *GoalStore) SyncExtraLife(ctx context.Context, data models.ProcessedExtraLifeData) (*models.GoalState, error) {
	state, err := g.GetGoalState(ctx)
	if err != nil {
		return nil, err
	}

	// The normalizer stamps every poll result with its tick time; the
	// stamp alone must not turn an identical repeat poll into a write.
	if state.ExtraLife != nil {
		cmp := data
		cmp.Metadata.LastUpdated = state.ExtraLife.Data.Metadata.LastUpdated
		if equality.Equal(state.ExtraLife.Data, cmp) {
			metrics.SyncsNoop.WithLabelValues(string(models.SourceExtraLife)).Inc()
			logging.Debug().Msg("extralife sync unchanged, skipping write")
			return state, nil
		}
	}

	metrics.SyncsApplied.WithLabelValues(string(models.SourceExtraLife)).Inc()
	return g.UpdateGoalState(ctx, Update{
		ExtraLife: &models.ExtraLifeSource{
			LastUpdated: g.now().UTC(),
			Data:        data,
		},
	})
}

// SyncStreamElements merges a normalized StreamElements poll result,
// preserving LastGoalReset across payloads that do not carry it.
func (g *GoalStore) SyncStreamElements(ctx context.Context, data models.ProcessedSessionData) (*models.GoalState, error) {
	state, err := g.GetGoalState(ctx)
	if err != nil {
		return nil, err
	}

	var lastReset *time.Time
	if state.StreamElements != nil {
		lastReset = state.StreamElements.LastGoalReset
		// Same stamp exclusion as the Extra Life path: compare content,
		// not the tick time the normalizer recorded.
		cmp := data
		cmp.LastUpdated = state.StreamElements.Data.LastUpdated
		if equality.Equal(state.StreamElements.Data, cmp) {
			metrics.SyncsNoop.WithLabelValues(string(models.SourceStreamElements)).Inc()
			logging.Debug().Msg("streamelements sync unchanged, skipping write")
			return state, nil
		}
	}

	metrics.SyncsApplied.WithLabelValues(string(models.SourceStreamElements)).Inc()
	return g.UpdateGoalState(ctx, Update{
		StreamElements: &models.StreamElementsSource{
			LastUpdated:   g.now().UTC(),
			LastGoalReset: lastReset,
			Data:          data,
		},
	})
}

// NeedsGoalReset reports whether the current poll is the first one past a
// week/month boundary since the last recorded reset. A session that has
// never reset reports true so boundary bookkeeping starts immediately.
func (g *GoalStore) NeedsGoalReset(ctx context.Context, p period.Period) (bool, error) {
	state, err := g.GetGoalState(ctx)
	if err != nil {
		return false, err
	}
	var last time.Time
	if state.StreamElements != nil && state.StreamElements.LastGoalReset != nil {
		last = *state.StreamElements.LastGoalReset
	}
	return p.Crossed(last, g.now()), nil
}

// MarkGoalReset records that the platform's goal counters were reset at
// the given instant. Creates the StreamElements source record when the
// first reset happens before the first successful sync.
func (g *GoalStore) MarkGoalReset(ctx context.Context, at time.Time) error {
	state, err := g.GetGoalState(ctx)
	if err != nil {
		return err
	}

	src := state.StreamElements
	if src == nil {
		src = &models.StreamElementsSource{LastUpdated: g.now().UTC()}
	}
	src.LastGoalReset = &at

	_, err = g.UpdateGoalState(ctx, Update{StreamElements: src})
	return err
}

// GetLocal returns the local ledger's donation set, empty when no local
// donations exist yet.
func (g *GoalStore) GetLocal(ctx context.Context) (models.DonationSet, error) {
	state, err := g.GetGoalState(ctx)
	if err != nil {
		return models.DonationSet{}, err
	}
	if state.Local == nil {
		return models.NewDonationSet(), nil
	}
	return state.Local.Data, nil
}

// PutLocal replaces the local ledger's donation set.
func (g *GoalStore) PutLocal(ctx context.Context, set models.DonationSet) (*models.GoalState, error) {
	return g.UpdateGoalState(ctx, Update{
		Local: &models.LocalSource{
			LastUpdated: g.now().UTC(),
			Data:        set,
		},
	})
}

// SessionExists reports whether a goal-state document is present.
func (g *GoalStore) SessionExists(ctx context.Context) (bool, error) {
	_, err := g.GetGoalState(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, apperror.ErrNotFound) {
		return false, nil
	}
	return false, err
}
