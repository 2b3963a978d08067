// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

package poller

import (
	"testing"
	"time"

	"github.com/tomtom215/goalpost/internal/models"
	"github.com/tomtom215/goalpost/internal/period"
)

func makeSet(name string, amounts []float64, ts time.Time, kind models.DonationKind) models.DonationSet {
	set := models.NewDonationSet()
	d := set.EnsureDonor(name)
	for i, a := range amounts {
		d.IndividualDonations = append(d.IndividualDonations, models.Donation{
			Amount:    a,
			Timestamp: ts.Add(time.Duration(i) * time.Second),
			Kind:      kind,
		})
	}
	set.Normalize()
	return set
}

func TestBlendSetsAddsLocalDonations(t *testing.T) {
	ts := testNow.Add(-time.Minute)
	platform := makeSet("viewer1", []float64{10.00}, ts, models.KindTip)
	local := makeSet("Ada", []float64{25.00}, ts, models.KindLocal)

	got := blendSets(platform, local, period.Month, testNow)

	if got.OverallTotal.Amount != 35.00 || got.OverallTotal.Count != 2 {
		t.Errorf("blended overall = %+v, want {35.00, 2}", got.OverallTotal)
	}
	if got.FindDonor("ada") == nil {
		t.Error("local donor missing from blend")
	}
	// Inputs must stay untouched.
	if platform.OverallTotal.Amount != 10.00 || local.OverallTotal.Amount != 25.00 {
		t.Error("blend mutated its inputs")
	}
}

func TestBlendSetsFiltersOutOfPeriodLocal(t *testing.T) {
	platform := makeSet("viewer1", []float64{10.00}, testNow.Add(-time.Minute), models.KindTip)
	local := makeSet("Ada", []float64{25.00}, testNow.AddDate(0, -2, 0), models.KindLocal)

	got := blendSets(platform, local, period.Month, testNow)

	if got.FindDonor("ada") != nil {
		t.Error("out-of-period local donation was blended")
	}
	if got.OverallTotal.Amount != 10.00 {
		t.Errorf("blended overall = %v, want 10.00", got.OverallTotal.Amount)
	}
}

func TestBlendSetsMergesSameDonor(t *testing.T) {
	ts := testNow.Add(-time.Minute)
	platform := makeSet("Ada", []float64{10.00}, ts, models.KindTip)
	local := makeSet("ada", []float64{25.00}, ts.Add(-30*time.Second), models.KindLocal)

	got := blendSets(platform, local, period.Month, testNow)

	if len(got.Donors) != 1 {
		t.Fatalf("donor count = %d, want 1 (case-insensitive merge)", len(got.Donors))
	}
	if got.Donors[0].TotalAmount != 35.00 {
		t.Errorf("merged donor total = %v, want 35.00", got.Donors[0].TotalAmount)
	}
}

func TestBlendSetsPreservesReconciliationPatch(t *testing.T) {
	ts := testNow.Add(-time.Minute)
	platform := makeSet("viewer1", []float64{5.00}, ts, models.KindBits)
	// 10.00 of unattributed reconciliation lives only in the overall total.
	platform.OverallTotal.Amount = 15.00
	local := makeSet("Ada", []float64{25.00}, ts, models.KindLocal)

	got := blendSets(platform, local, period.Month, testNow)

	if got.OverallTotal.Amount != 40.00 {
		t.Errorf("blended overall = %v, want 40.00 (5 + 10 patch + 25)", got.OverallTotal.Amount)
	}
}
