// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/goalpost/internal/apperror"
	"github.com/tomtom215/goalpost/internal/models"
	"github.com/tomtom215/goalpost/internal/period"
	"github.com/tomtom215/goalpost/internal/store"
)

func newTestLedger(t *testing.T) (*Ledger, *store.GoalStore) {
	t.Helper()
	docs, err := store.Open("", true)
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = docs.Close() })

	g := store.New(docs)
	_, err = g.StartSession(context.Background(), models.TrackerConfig{
		Source:           models.SourceLocal,
		AccountingPeriod: period.Month,
	})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	return New(g), g
}

func TestAddDonation_RejectsNonPositive(t *testing.T) {
	l, _ := newTestLedger(t)
	for _, amount := range []float64{0, -5} {
		_, err := l.AddDonation(context.Background(), "Ada", amount)
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("AddDonation(%v) error = %v, want validation error", amount, err)
		}
	}
}

func TestAddDonation_DuplicateSuppression(t *testing.T) {
	l, g := newTestLedger(t)
	base := time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC)
	now := base
	l.now = func() time.Time { return now }

	first, err := l.AddDonation(context.Background(), "Ada", 25.00)
	if err != nil || first == nil {
		t.Fatalf("first add failed: %v %v", first, err)
	}

	// Identical submission 2 seconds later: double-fired event, no-op.
	now = base.Add(2 * time.Second)
	dup, err := l.AddDonation(context.Background(), "ADA", 25.00)
	if err != nil {
		t.Fatalf("duplicate add errored: %v", err)
	}
	if dup != nil {
		t.Error("duplicate within 5s should be a silent no-op")
	}

	set, _ := g.GetLocal(context.Background())
	if set.OverallTotal.Count != 1 {
		t.Errorf("expected exactly 1 stored donation, got %d", set.OverallTotal.Count)
	}
}

// Scenario from the tracker's behavior contract: two 25.00 donations from
// Ada 10 seconds apart are distinct.
func TestAddDonation_SameAmountOutsideWindow(t *testing.T) {
	l, g := newTestLedger(t)
	base := time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC)
	now := base
	l.now = func() time.Time { return now }

	if _, err := l.AddDonation(context.Background(), "Ada", 25.00); err != nil {
		t.Fatal(err)
	}
	now = base.Add(10 * time.Second)
	second, err := l.AddDonation(context.Background(), "Ada", 25.00)
	if err != nil || second == nil {
		t.Fatalf("second add should succeed: %v %v", second, err)
	}

	set, _ := g.GetLocal(context.Background())
	if set.OverallTotal.Amount != 50.00 || set.OverallTotal.Count != 2 {
		t.Errorf("overall total = %+v, want {50.00 2}", set.OverallTotal)
	}
	if len(set.Donors) != 1 {
		t.Fatalf("expected one donor, got %d", len(set.Donors))
	}
	if got := len(set.Donors[0].IndividualDonations); got != 2 {
		t.Errorf("donor should have 2 entries, got %d", got)
	}
}

func TestAddDonation_MaintainsInvariants(t *testing.T) {
	l, g := newTestLedger(t)
	base := time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC)
	now := base
	l.now = func() time.Time { return now }

	amounts := []float64{25.00, 0.01, 19.99, 3.33}
	for i, a := range amounts {
		now = base.Add(time.Duration(i) * time.Minute)
		name := "Ada"
		if i%2 == 1 {
			name = "Grace"
		}
		if _, err := l.AddDonation(context.Background(), name, a); err != nil {
			t.Fatal(err)
		}
	}

	set, _ := g.GetLocal(context.Background())
	for _, d := range set.Donors {
		sum := 0.0
		for _, don := range d.IndividualDonations {
			sum += don.Amount
		}
		if d.TotalAmount != sum || d.TotalDonationCount != len(d.IndividualDonations) {
			t.Errorf("donor %s invariants broken: %+v", d.Name, d)
		}
		if d.TotalDonationCount == 0 {
			t.Errorf("zero-donation donor %s present", d.Name)
		}
	}
	if set.OverallTotal.Amount != 48.33 || set.OverallTotal.Count != 4 {
		t.Errorf("overall = %+v, want {48.33 4}", set.OverallTotal)
	}
}

func TestRemoveDonation(t *testing.T) {
	l, g := newTestLedger(t)
	base := time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC)
	now := base
	l.now = func() time.Time { return now }

	if _, err := l.AddDonation(context.Background(), "Grace", 10.00); err != nil {
		t.Fatal(err)
	}
	now = base.Add(time.Minute)
	if _, err := l.AddDonation(context.Background(), "Ada", 25.00); err != nil {
		t.Fatal(err)
	}

	// Removing Grace's only donation removes Grace entirely.
	if err := l.RemoveDonation(context.Background(), base); err != nil {
		t.Fatalf("remove: %v", err)
	}
	set, _ := g.GetLocal(context.Background())
	if set.FindDonor("grace") != nil {
		t.Error("donor with no remaining donations should be removed")
	}
	if set.OverallTotal.Amount != 25.00 || set.OverallTotal.Count != 1 {
		t.Errorf("overall = %+v, want {25.00 1}", set.OverallTotal)
	}
}

func TestRemoveDonation_NotFound(t *testing.T) {
	l, _ := newTestLedger(t)
	err := l.RemoveDonation(context.Background(), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestResetUser(t *testing.T) {
	l, g := newTestLedger(t)
	if _, err := l.AddDonation(context.Background(), "Ada", 25.00); err != nil {
		t.Fatal(err)
	}

	if err := l.ResetUser(context.Background(), "ada"); err != nil {
		t.Fatalf("reset user: %v", err)
	}
	set, _ := g.GetLocal(context.Background())
	if len(set.Donors) != 0 || set.OverallTotal.Amount != 0 {
		t.Errorf("expected empty set, got %+v", set)
	}

	if err := l.ResetUser(context.Background(), "nobody"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected not-found for absent donor, got %v", err)
	}
}

func TestResetAll(t *testing.T) {
	l, g := newTestLedger(t)
	base := time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC)
	now := base
	l.now = func() time.Time { return now }

	for i, name := range []string{"Ada", "Grace", "Joan"} {
		now = base.Add(time.Duration(i) * time.Minute)
		if _, err := l.AddDonation(context.Background(), name, 10.00); err != nil {
			t.Fatal(err)
		}
	}

	if err := l.ResetAll(context.Background()); err != nil {
		t.Fatalf("reset all: %v", err)
	}
	set, _ := g.GetLocal(context.Background())
	if len(set.Donors) != 0 || set.OverallTotal.Amount != 0 || set.OverallTotal.Count != 0 {
		t.Errorf("expected empty set with zero totals, got %+v", set)
	}
}
