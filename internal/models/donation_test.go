// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

package models

import (
	"testing"
	"time"
)

var base = time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC)

func setWith(donations map[string][]Donation) DonationSet {
	s := NewDonationSet()
	for name, dons := range donations {
		d := s.EnsureDonor(name)
		d.IndividualDonations = append(d.IndividualDonations, dons...)
	}
	s.Normalize()
	return s
}

func TestEnsureDonor_CaseInsensitive(t *testing.T) {
	s := NewDonationSet()
	first := s.EnsureDonor("Ada")
	second := s.EnsureDonor("ADA")
	if first != second {
		t.Error("EnsureDonor should match case-insensitively")
	}
	if first.Name != "Ada" {
		t.Errorf("first-seen spelling should be preserved, got %q", first.Name)
	}
	if len(s.Donors) != 1 {
		t.Errorf("expected 1 donor, got %d", len(s.Donors))
	}
}

func TestNormalize_Invariants(t *testing.T) {
	s := setWith(map[string][]Donation{
		"Ada": {
			{Amount: 25.00, Timestamp: base},
			{Amount: 10.50, Timestamp: base.Add(time.Hour)},
		},
		"Grace": {
			{Amount: 5.25, Timestamp: base.Add(-time.Hour)},
		},
	})

	for _, d := range s.Donors {
		sum := 0.0
		for _, don := range d.IndividualDonations {
			sum += don.Amount
		}
		if d.TotalAmount != sum {
			t.Errorf("donor %s total %v != sum %v", d.Name, d.TotalAmount, sum)
		}
		if d.TotalDonationCount != len(d.IndividualDonations) {
			t.Errorf("donor %s count %d != len %d", d.Name, d.TotalDonationCount, len(d.IndividualDonations))
		}
	}
	if s.OverallTotal.Amount != 40.75 {
		t.Errorf("overall amount = %v, want 40.75", s.OverallTotal.Amount)
	}
	if s.OverallTotal.Count != 3 {
		t.Errorf("overall count = %d, want 3", s.OverallTotal.Count)
	}
}

func TestNormalize_SortsNewestFirstAndByTotal(t *testing.T) {
	s := setWith(map[string][]Donation{
		"Small": {{Amount: 1.00, Timestamp: base}},
		"Big": {
			{Amount: 10.00, Timestamp: base.Add(-2 * time.Hour)},
			{Amount: 90.00, Timestamp: base.Add(3 * time.Hour)},
			{Amount: 20.00, Timestamp: base},
		},
	})

	if s.Donors[0].Name != "Big" {
		t.Errorf("donors should be ordered by total descending, got %q first", s.Donors[0].Name)
	}
	big := s.FindDonor("big")
	for i := 1; i < len(big.IndividualDonations); i++ {
		if big.IndividualDonations[i].Timestamp.After(big.IndividualDonations[i-1].Timestamp) {
			t.Fatal("donations should be ordered newest first")
		}
	}
	if big.IndividualDonations[0].Amount != 90.00 {
		t.Errorf("newest donation should be first, got %v", big.IndividualDonations[0].Amount)
	}
}

func TestNormalize_PrunesEmptyDonors(t *testing.T) {
	s := NewDonationSet()
	s.EnsureDonor("Ghost")
	d := s.EnsureDonor("Ada")
	d.IndividualDonations = append(d.IndividualDonations, Donation{Amount: 5, Timestamp: base})
	s.Normalize()

	if s.FindDonor("ghost") != nil {
		t.Error("zero-donation donor should be pruned")
	}
	if len(s.Donors) != 1 {
		t.Errorf("expected 1 donor, got %d", len(s.Donors))
	}
}

func TestDonor_Has(t *testing.T) {
	d := &Donor{IndividualDonations: []Donation{{Amount: 5.00, Timestamp: base}}}
	if !d.Has(5.00, base) {
		t.Error("exact match should be found")
	}
	if !d.Has(5.004, base) {
		t.Error("amount should be compared after rounding")
	}
	if d.Has(5.00, base.Add(time.Second)) {
		t.Error("different timestamp should not match")
	}
	if d.Has(5.01, base) {
		t.Error("different amount should not match")
	}
}

func TestDonor_HasWithin(t *testing.T) {
	d := &Donor{IndividualDonations: []Donation{{Amount: 25.00, Timestamp: base}}}
	window := 5 * time.Second

	if !d.HasWithin(25.00, base.Add(3*time.Second), window) {
		t.Error("donation 3s ago should be inside a 5s window")
	}
	if !d.HasWithin(25.00, base.Add(5*time.Second), window) {
		t.Error("window end should be inclusive")
	}
	if d.HasWithin(25.00, base.Add(10*time.Second), window) {
		t.Error("donation 10s ago should be outside a 5s window")
	}
	if d.HasWithin(30.00, base.Add(time.Second), window) {
		t.Error("different amount should not match")
	}
}

func TestClone_IsDeep(t *testing.T) {
	orig := setWith(map[string][]Donation{
		"Ada": {{Amount: 25.00, Timestamp: base}},
	})
	cp := orig.Clone()

	cp.EnsureDonor("Ada").IndividualDonations[0].Amount = 99.99
	cp.EnsureDonor("New")
	cp.Normalize()

	if orig.FindDonor("ada").IndividualDonations[0].Amount != 25.00 {
		t.Error("mutating clone changed original donation")
	}
	if orig.FindDonor("new") != nil {
		t.Error("mutating clone changed original donor list")
	}
	if orig.OverallTotal.Amount != 25.00 {
		t.Errorf("original overall total changed: %v", orig.OverallTotal.Amount)
	}
}

func TestRemoveDonor(t *testing.T) {
	s := setWith(map[string][]Donation{
		"Ada":   {{Amount: 25.00, Timestamp: base}},
		"Grace": {{Amount: 10.00, Timestamp: base}},
	})
	s.RemoveDonor("ADA")
	s.Normalize()

	if s.FindDonor("ada") != nil {
		t.Error("removed donor still present")
	}
	if s.OverallTotal.Amount != 10.00 || s.OverallTotal.Count != 1 {
		t.Errorf("overall total not recomputed: %+v", s.OverallTotal)
	}
}
