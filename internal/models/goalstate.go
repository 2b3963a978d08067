// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

/*
goalstate.go - Persisted Goal State Document

GoalState is the single root document the engine persists. It is created
when a tracking session starts, mutated by every poll, ledger edit, and
reset, and overwritten by the next session start - never deleted. Exactly
one source is authoritative for the displayed amount at a time, selected by
Config.Source; local donations may additionally be blended into the
StreamElements view for display only.

The goal store (internal/store) exclusively owns this document. Everything
else reads through it or submits deltas to it.
*/

package models

import (
	"time"

	"github.com/tomtom215/goalpost/internal/models/extralife"
	"github.com/tomtom215/goalpost/internal/period"
)

// Source identifies which platform is authoritative for the current amount.
type Source string

const (
	SourceLocal          Source = "local"
	SourceExtraLife      Source = "extralife"
	SourceStreamElements Source = "streamelements"
)

// TrackerConfig is the per-session configuration captured when a tracking
// session starts. Poll cadence and credentials live in the application
// config; this document records what the session is tracking.
type TrackerConfig struct {
	Source Source `json:"source" validate:"required,oneof=local extralife streamelements"`

	// GoalAmount is the display target for the overlay's progress bar.
	GoalAmount float64 `json:"goal_amount" validate:"gte=0"`

	// ParticipantID selects the Extra Life participant when Source is
	// extralife. Changing it between sessions discards the old history.
	ParticipantID int `json:"participant_id,omitempty" validate:"required_if=Source extralife"`

	// ChannelID selects the StreamElements channel when Source is
	// streamelements.
	ChannelID string `json:"channel_id,omitempty" validate:"required_if=Source streamelements"`

	// AccountingPeriod scopes StreamElements activity and the local blend.
	// Only week and month are meaningful for goal tracking.
	AccountingPeriod period.Period `json:"accounting_period" validate:"required,oneof=week month"`

	// BlendLocal folds period-filtered local donations into the outgoing
	// StreamElements payload. Display only; never persisted into the
	// StreamElements source record.
	BlendLocal bool `json:"blend_local,omitempty"`
}

// GoalState is the root persisted document.
type GoalState struct {
	ID        string        `json:"uuid"`
	Config    TrackerConfig `json:"config"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	Local          *LocalSource          `json:"local,omitempty"`
	ExtraLife      *ExtraLifeSource      `json:"extralife,omitempty"`
	StreamElements *StreamElementsSource `json:"streamelements,omitempty"`
}

// LocalSource holds the operator-maintained ledger.
type LocalSource struct {
	LastUpdated time.Time   `json:"last_updated"`
	Data        DonationSet `json:"data"`
}

// ExtraLifeSource holds the last normalized Extra Life state.
type ExtraLifeSource struct {
	LastUpdated time.Time              `json:"last_updated"`
	Data        ProcessedExtraLifeData `json:"data"`
}

// StreamElementsSource holds the last normalized StreamElements state.
// LastGoalReset survives sync payloads that do not carry it; the merge
// engine preserves it explicitly.
type StreamElementsSource struct {
	LastUpdated   time.Time            `json:"last_updated"`
	LastGoalReset *time.Time           `json:"last_goal_reset,omitempty"`
	Data          ProcessedSessionData `json:"data"`
}

// ExtraLifeMetadata scopes stored Extra Life donations to one participant
// and event.
type ExtraLifeMetadata struct {
	LastUpdated   time.Time `json:"last_updated"`
	ParticipantID int       `json:"participant_id"`
	EventID       int       `json:"event_id"`
}

// ProcessedExtraLifeData is the normalized Extra Life poll result.
// Donations are scoped to Metadata.EventID and ordered newest first.
// NewDonations carries the delta since the previous poll so the overlay can
// run highlight animations; it is transient display data.
type ProcessedExtraLifeData struct {
	SumDonations    float64              `json:"sum_donations"`
	FundraisingGoal float64              `json:"fundraising_goal"`
	Donations       []extralife.Donation `json:"donations"`
	NewDonations    []extralife.Donation `json:"new_donations,omitempty"`
	Metadata        ExtraLifeMetadata    `json:"metadata"`
}

// ProcessedSessionData is the normalized StreamElements poll result:
// the donor set reconstructed from the session's event lists, scoped to the
// accounting period identified by Month/Year (for weekly accounting these
// describe the month the week started in).
type ProcessedSessionData struct {
	Current     DonationSet `json:"current"`
	Month       int         `json:"month"`
	Year        int         `json:"year"`
	LastUpdated time.Time   `json:"last_updated"`
}
