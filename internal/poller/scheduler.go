// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

/*
scheduler.go - Polling Scheduler

One timer drives one data source at a time. Switching the active source
stops the running loop and waits for it before starting the next one, so
two loops never poll concurrently. The first tick fires immediately on
start, subsequent ticks on the source's fixed interval.

Every tick re-reads the persisted config and skips itself when its source
is no longer authoritative: a source switch can land between ticks, and a
slow platform response can land after one. In-flight requests are not
cancelled; their results are discarded by the same guard when they arrive
late. Platform errors leave the stored last-known-good data in place and
the loop stays on its normal interval.
*/

package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/goalpost/internal/apperror"
	"github.com/tomtom215/goalpost/internal/config"
	"github.com/tomtom215/goalpost/internal/extralife"
	"github.com/tomtom215/goalpost/internal/logging"
	"github.com/tomtom215/goalpost/internal/metrics"
	"github.com/tomtom215/goalpost/internal/models"
	elmodels "github.com/tomtom215/goalpost/internal/models/extralife"
	semodels "github.com/tomtom215/goalpost/internal/models/streamelements"
	"github.com/tomtom215/goalpost/internal/period"
	"github.com/tomtom215/goalpost/internal/store"
	"github.com/tomtom215/goalpost/internal/streamelements"
)

// ExtraLifeAPI is the Extra Life client surface the scheduler needs.
type ExtraLifeAPI interface {
	GetParticipant(ctx context.Context, participantID int) (*elmodels.Participant, error)
	GetDonations(ctx context.Context, participantID int) ([]elmodels.Donation, error)
}

// StreamElementsAPI is the StreamElements client surface the scheduler needs.
type StreamElementsAPI interface {
	GetSession(ctx context.Context, channelID string) (*semodels.Session, error)
	ResetGoals(ctx context.Context, channelID string, p period.Period) error
}

// Scheduler owns the poll loop for the active data source.
type Scheduler struct {
	store          *store.GoalStore
	extraLife      ExtraLifeAPI
	streamElements StreamElementsAPI
	cfg            *config.Config
	pub            store.Publisher

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup

	// lastBlendLocal is the local ledger stamp of the last blended push.
	// Only the poll goroutine touches it.
	lastBlendLocal time.Time

	now func() time.Time
}

// NewScheduler creates a scheduler. pub receives display-only blended
// payloads and may be nil.
func NewScheduler(goalStore *store.GoalStore, el ExtraLifeAPI, se StreamElementsAPI, cfg *config.Config, pub store.Publisher) *Scheduler {
	return &Scheduler{
		store:          goalStore,
		extraLife:      el,
		streamElements: se,
		cfg:            cfg,
		pub:            pub,
		now:            time.Now,
	}
}

// Start begins polling for source, replacing any running loop. The local
// source has no external API, so starting it only stops the active timer;
// ledger edits reach the overlay through the goal store directly.
func (s *Scheduler) Start(ctx context.Context, source models.Source) {
	s.Stop()

	if source == models.SourceLocal {
		logging.Info().Msg("local source active, no polling required")
		return
	}

	interval := s.interval(source)
	s.mu.Lock()
	s.running = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	logging.Info().Str("source", string(source)).Dur("interval", interval).Msg("starting poll loop")

	s.wg.Add(1)
	go s.pollLoop(ctx, source, interval)
}

// Stop halts the active loop and waits for its current tick to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
	logging.Info().Msg("poll loop stopped")
}

// Serve runs the loop for the configured boot source until ctx is
// canceled. It satisfies suture's Service interface.
func (s *Scheduler) Serve(ctx context.Context) error {
	s.Start(ctx, s.cfg.Tracker.Source)
	<-ctx.Done()
	s.Stop()
	return ctx.Err()
}

func (s *Scheduler) interval(source models.Source) time.Duration {
	if source == models.SourceExtraLife {
		return s.cfg.ExtraLife.PollInterval
	}
	return s.cfg.StreamElements.PollInterval
}

func (s *Scheduler) pollLoop(ctx context.Context, source models.Source, interval time.Duration) {
	defer s.wg.Done()

	s.mu.Lock()
	stopChan := s.stopChan
	s.mu.Unlock()

	// Initial poll fires immediately.
	s.poll(ctx, source)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopChan:
			return
		case <-ticker.C:
			s.poll(ctx, source)
		}
	}
}

// poll runs one tick for source. The tick runs to completion; the
// strictly periodic timer means ticks do not overlap under normal
// latencies, so no lock guards the merge section.
func (s *Scheduler) poll(ctx context.Context, source models.Source) {
	state, ok := s.guard(ctx, source)
	if !ok {
		return
	}
	metrics.PollsTotal.WithLabelValues(string(source)).Inc()

	switch source {
	case models.SourceExtraLife:
		s.pollExtraLife(ctx, state)
	case models.SourceStreamElements:
		s.pollStreamElements(ctx, state)
	}
}

// guard re-reads the persisted state and confirms source is still the
// authoritative one. Called again after slow fetches to discard results
// that arrive after a source switch.
func (s *Scheduler) guard(ctx context.Context, source models.Source) (*models.GoalState, bool) {
	state, err := s.store.GetGoalState(ctx)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			logging.Error().Err(err).Msg("poll guard read failed")
		}
		metrics.PollsSkipped.WithLabelValues(string(source)).Inc()
		return nil, false
	}
	if state.Config.Source != source {
		logging.Debug().
			Str("tick_source", string(source)).
			Str("active_source", string(state.Config.Source)).
			Msg("skipping tick for inactive source")
		metrics.PollsSkipped.WithLabelValues(string(source)).Inc()
		return nil, false
	}
	return state, true
}

func (s *Scheduler) pollExtraLife(ctx context.Context, state *models.GoalState) {
	participantID := state.Config.ParticipantID
	participant, err := s.extraLife.GetParticipant(ctx, participantID)
	if err != nil {
		s.logPollError(models.SourceExtraLife, "participant_fetch", err)
		return
	}

	var prev *models.ProcessedExtraLifeData
	if state.ExtraLife != nil {
		prev = &state.ExtraLife.Data
	}

	// Summary unchanged means no new donations; skip the list fetch.
	if extralife.Unchanged(prev, participant, participantID) {
		logging.Debug().Int("participant", participantID).Msg("extralife summary unchanged")
		return
	}

	donations, err := s.extraLife.GetDonations(ctx, participantID)
	if err != nil {
		s.logPollError(models.SourceExtraLife, "donations_fetch", err)
		return
	}

	data := extralife.Process(prev, participant, donations, participantID, s.now())

	// Re-guard: the fetches may have straddled a source switch.
	if _, ok := s.guard(ctx, models.SourceExtraLife); !ok {
		return
	}
	if _, err := s.store.SyncExtraLife(ctx, data); err != nil {
		s.logPollError(models.SourceExtraLife, "sync", err)
	}
}

func (s *Scheduler) pollStreamElements(ctx context.Context, state *models.GoalState) {
	channelID := state.Config.ChannelID
	p := state.Config.AccountingPeriod

	s.maybeResetGoals(ctx, channelID, p)

	session, err := s.streamElements.GetSession(ctx, channelID)
	if err != nil {
		s.logPollError(models.SourceStreamElements, "session_fetch", err)
		return
	}

	prev := models.NewDonationSet()
	if state.StreamElements != nil {
		prev = state.StreamElements.Data.Current
	}
	data := streamelements.Process(prev, session, s.cfg.StreamElements, p, s.now())

	state, ok := s.guard(ctx, models.SourceStreamElements)
	if !ok {
		return
	}
	newState, err := s.store.SyncStreamElements(ctx, data)
	if err != nil {
		s.logPollError(models.SourceStreamElements, "sync", err)
		return
	}

	if state.Config.BlendLocal {
		changed := !newState.UpdatedAt.Equal(state.UpdatedAt)
		var localStamp time.Time
		if newState.Local != nil {
			localStamp = newState.Local.LastUpdated
		}
		// A ledger edit between unchanged platform ticks still has to
		// refresh the blended view.
		if changed || !localStamp.Equal(s.lastBlendLocal) {
			s.pushBlended(ctx, data, p)
			s.lastBlendLocal = localStamp
		}
	}
}

// maybeResetGoals issues the platform goal-counter reset on the first tick
// past a week/month boundary. A reset failure is logged and retried on the
// next tick; the rest of the poll proceeds on the platform's stale counters.
func (s *Scheduler) maybeResetGoals(ctx context.Context, channelID string, p period.Period) {
	need, err := s.store.NeedsGoalReset(ctx, p)
	if err != nil {
		s.logPollError(models.SourceStreamElements, "reset_check", err)
		return
	}
	if !need {
		return
	}
	if err := s.streamElements.ResetGoals(ctx, channelID, p); err != nil {
		s.logPollError(models.SourceStreamElements, "goal_reset", err)
		return
	}
	if err := s.store.MarkGoalReset(ctx, s.now().UTC()); err != nil {
		s.logPollError(models.SourceStreamElements, "reset_mark", err)
	}
}

// pushBlended folds the period-filtered local ledger into the outgoing
// StreamElements payload and pushes it to the overlay. Presentation only:
// the blended totals are never persisted into the source record.
func (s *Scheduler) pushBlended(ctx context.Context, data models.ProcessedSessionData, p period.Period) {
	if s.pub == nil {
		return
	}
	local, err := s.store.GetLocal(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("blend read failed, skipping display push")
		return
	}
	blended := data
	blended.Current = blendSets(data.Current, local, p, s.now())
	s.pub.PushUpdate(map[string]any{
		"streamelements_display": blended,
		"updated_at":             s.now().UTC(),
	})
}

func (s *Scheduler) logPollError(source models.Source, stage string, err error) {
	metrics.PollErrors.WithLabelValues(string(source), stage).Inc()
	logging.Error().Err(err).Str("source", string(source)).Str("stage", stage).Msg("poll failed, keeping last known data")
}
