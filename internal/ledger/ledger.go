// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

/*
ledger.go - Local Donation Ledger

The ledger is the operator-owned donation source: donations announced on
stream, cash in a jar, anything not flowing through a platform API. Every
operation is a read-modify-write of the goal store's local field; the
ledger holds no state of its own.

AddDonation carries a double-fire guard: hosts deliver button/chat effect
triggers at least once, so an identical {name, amount} arriving within
five seconds of an existing donation is treated as the same physical event
and silently dropped.
*/

package ledger

import (
	"context"
	"time"

	"github.com/tomtom215/goalpost/internal/apperror"
	"github.com/tomtom215/goalpost/internal/currency"
	"github.com/tomtom215/goalpost/internal/logging"
	"github.com/tomtom215/goalpost/internal/metrics"
	"github.com/tomtom215/goalpost/internal/models"
	"github.com/tomtom215/goalpost/internal/store"
)

// duplicateWindow is how close two identical submissions must be to count
// as one double-fired event.
const duplicateWindow = 5 * time.Second

// Ledger mutates the local donation set through the goal store.
type Ledger struct {
	store *store.GoalStore
	now   func() time.Time
}

// New creates a Ledger over the goal store.
func New(s *store.GoalStore) *Ledger {
	return &Ledger{store: s, now: time.Now}
}

// AddDonation records a donation for the named donor. Non-positive amounts
// are rejected. A duplicate submission (same case-insensitive donor, same
// rounded amount, within five seconds of now) is a silent no-op returning
// (nil, nil). Otherwise the created donation is returned.
func (l *Ledger) AddDonation(ctx context.Context, name string, amount float64) (*models.Donation, error) {
	if amount <= 0 {
		metrics.LedgerOps.WithLabelValues("add", "rejected").Inc()
		return nil, apperror.Validation("amount", "must be positive")
	}

	set, err := l.store.GetLocal(ctx)
	if err != nil {
		return nil, err
	}

	amount = currency.Round(amount)
	now := l.now().UTC()

	if donor := set.FindDonor(name); donor != nil && donor.HasWithin(amount, now, duplicateWindow) {
		metrics.LedgerOps.WithLabelValues("add", "duplicate").Inc()
		logging.Debug().Str("donor", name).Float64("amount", amount).Msg("duplicate donation suppressed")
		return nil, nil
	}

	donation := models.Donation{
		Amount:    amount,
		Timestamp: now,
		Kind:      models.KindLocal,
	}
	donor := set.EnsureDonor(name)
	donor.IndividualDonations = append(donor.IndividualDonations, donation)
	set.Normalize()

	if _, err := l.store.PutLocal(ctx, set); err != nil {
		return nil, err
	}
	metrics.LedgerOps.WithLabelValues("add", "ok").Inc()
	logging.Info().Str("donor", name).Float64("amount", amount).Msg("local donation added")
	return &donation, nil
}

// RemoveDonation deletes the donation with the given timestamp, whoever it
// belongs to. The donor is pruned when their last donation goes.
func (l *Ledger) RemoveDonation(ctx context.Context, ts time.Time) error {
	set, err := l.store.GetLocal(ctx)
	if err != nil {
		return err
	}

	removed := false
	for _, donor := range set.Donors {
		for i, don := range donor.IndividualDonations {
			if don.Timestamp.Equal(ts) {
				donor.IndividualDonations = append(donor.IndividualDonations[:i], donor.IndividualDonations[i+1:]...)
				removed = true
				break
			}
		}
		if removed {
			break
		}
	}
	if !removed {
		metrics.LedgerOps.WithLabelValues("remove", "not_found").Inc()
		return apperror.NotFound("donation", ts.Format(time.RFC3339))
	}

	set.Normalize()
	if _, err := l.store.PutLocal(ctx, set); err != nil {
		return err
	}
	metrics.LedgerOps.WithLabelValues("remove", "ok").Inc()
	return nil
}

// ResetUser removes the named donor and all their donations.
func (l *Ledger) ResetUser(ctx context.Context, name string) error {
	set, err := l.store.GetLocal(ctx)
	if err != nil {
		return err
	}
	if set.FindDonor(name) == nil {
		metrics.LedgerOps.WithLabelValues("reset_user", "not_found").Inc()
		return apperror.NotFound("donor", name)
	}

	set.RemoveDonor(name)
	set.Normalize()
	if _, err := l.store.PutLocal(ctx, set); err != nil {
		return err
	}
	metrics.LedgerOps.WithLabelValues("reset_user", "ok").Inc()
	logging.Info().Str("donor", name).Msg("donor reset")
	return nil
}

// ResetAll replaces the ledger with an empty set. No history survives.
func (l *Ledger) ResetAll(ctx context.Context) error {
	if _, err := l.store.PutLocal(ctx, models.NewDonationSet()); err != nil {
		return err
	}
	metrics.LedgerOps.WithLabelValues("reset_all", "ok").Inc()
	logging.Info().Msg("local ledger reset")
	return nil
}
