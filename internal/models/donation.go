// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

/*
donation.go - Common Donor/Donation Shape

Every source (Extra Life, StreamElements, the local ledger) is normalized
into the same donor/donation shape before it reaches the merge engine:

  DonationSet
    └── Donors (identity = lowercased name)
          └── IndividualDonations (newest first)

Two invariants hold after every mutation, enforced by Recompute:

  - donor.TotalAmount  == sum(donor.IndividualDonations[].Amount)
    donor.TotalDonationCount == len(donor.IndividualDonations)
  - set.OverallTotal   == elementwise sum over donors

A donor whose donation list becomes empty is pruned; a zero-donation donor
never appears in a DonationSet. The JSON field names are the wire format of
the custom donation import file, so a DonationSet round-trips through it.
*/

package models

import (
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/goalpost/internal/currency"
)

// DonationKind identifies where a donation came from.
type DonationKind string

const (
	KindBits         DonationKind = "bits"
	KindSubscription DonationKind = "subscription"
	KindTip          DonationKind = "tip"
	KindLocal        DonationKind = "local"
)

// Donation is a single contribution. Immutable once created except for
// removal; Amount is always stored rounded to 2 decimal places.
type Donation struct {
	Amount    float64      `json:"amount"`
	Timestamp time.Time    `json:"timestamp"`
	Kind      DonationKind `json:"kind,omitempty"`
	SubTier   string       `json:"sub_tier,omitempty"`
}

// Donor aggregates one supporter's donations. Name comparison is always
// case-insensitive; the first-seen spelling is preserved for display.
type Donor struct {
	Name                string     `json:"name"`
	IndividualDonations []Donation `json:"individual_donations"`
	TotalAmount         float64    `json:"total_amount"`
	TotalDonationCount  int        `json:"total_donations"`
}

// Has reports whether the donor already holds a donation with the given
// rounded amount and exact timestamp. Used for event-replay deduplication.
func (d *Donor) Has(amount float64, ts time.Time) bool {
	amount = currency.Round(amount)
	for _, don := range d.IndividualDonations {
		if don.Amount == amount && don.Timestamp.Equal(ts) {
			return true
		}
	}
	return false
}

// HasWithin reports whether the donor holds a donation with the given
// rounded amount timestamped within window of ref. Used to suppress
// double-fired local donation events.
func (d *Donor) HasWithin(amount float64, ref time.Time, window time.Duration) bool {
	amount = currency.Round(amount)
	for _, don := range d.IndividualDonations {
		if don.Amount != amount {
			continue
		}
		delta := ref.Sub(don.Timestamp)
		if delta < 0 {
			delta = -delta
		}
		if delta <= window {
			return true
		}
	}
	return false
}

// recompute rebuilds the donor's totals from its donation list.
func (d *Donor) recompute() {
	total := 0.0
	for _, don := range d.IndividualDonations {
		total = currency.Add(total, don.Amount)
	}
	d.TotalAmount = total
	d.TotalDonationCount = len(d.IndividualDonations)
}

// sortNewestFirst orders the donation list descending by timestamp.
func (d *Donor) sortNewestFirst() {
	sort.SliceStable(d.IndividualDonations, func(i, j int) bool {
		return d.IndividualDonations[i].Timestamp.After(d.IndividualDonations[j].Timestamp)
	})
}

// Total is an amount/count pair.
type Total struct {
	Amount float64 `json:"amount"`
	Count  int     `json:"donation_count"`
}

// DonationSet is a collection of donors with a maintained overall total.
// Donors are held in display order (total amount descending after
// Normalize); identity lookups are by lowercased name.
type DonationSet struct {
	Donors       []*Donor `json:"donations"`
	OverallTotal Total    `json:"overall_total"`
}

// NewDonationSet returns an empty set with zero totals.
func NewDonationSet() DonationSet {
	return DonationSet{Donors: []*Donor{}}
}

// FindDonor returns the donor with the given case-insensitive name, or nil.
func (s *DonationSet) FindDonor(name string) *Donor {
	key := strings.ToLower(name)
	for _, d := range s.Donors {
		if strings.ToLower(d.Name) == key {
			return d
		}
	}
	return nil
}

// EnsureDonor returns the existing donor for name or appends a new empty one.
func (s *DonationSet) EnsureDonor(name string) *Donor {
	if d := s.FindDonor(name); d != nil {
		return d
	}
	d := &Donor{Name: name, IndividualDonations: []Donation{}}
	s.Donors = append(s.Donors, d)
	return d
}

// RemoveDonor deletes the donor with the given case-insensitive name.
// Totals are not touched; callers run Normalize afterwards.
func (s *DonationSet) RemoveDonor(name string) {
	key := strings.ToLower(name)
	for i, d := range s.Donors {
		if strings.ToLower(d.Name) == key {
			s.Donors = append(s.Donors[:i], s.Donors[i+1:]...)
			return
		}
	}
}

// Normalize restores every invariant after a mutation: donations are sorted
// newest first, per-donor totals are rebuilt, donors with no remaining
// donations are pruned, donors are ordered by total descending, and the
// overall total is recomputed elementwise.
func (s *DonationSet) Normalize() {
	kept := s.Donors[:0]
	overall := Total{}
	for _, d := range s.Donors {
		d.sortNewestFirst()
		d.recompute()
		if d.TotalDonationCount == 0 {
			continue
		}
		kept = append(kept, d)
		overall.Amount = currency.Add(overall.Amount, d.TotalAmount)
		overall.Count += d.TotalDonationCount
	}
	s.Donors = kept
	sort.SliceStable(s.Donors, func(i, j int) bool {
		return s.Donors[i].TotalAmount > s.Donors[j].TotalAmount
	})
	s.OverallTotal = overall
}

// Clone returns a deep copy. The normalizers start each poll from the
// previously stored set and must not mutate it in place, or the merge
// engine's change detection would compare a document against itself.
func (s *DonationSet) Clone() DonationSet {
	out := DonationSet{
		Donors:       make([]*Donor, 0, len(s.Donors)),
		OverallTotal: s.OverallTotal,
	}
	for _, d := range s.Donors {
		cp := &Donor{
			Name:                d.Name,
			TotalAmount:         d.TotalAmount,
			TotalDonationCount:  d.TotalDonationCount,
			IndividualDonations: make([]Donation, len(d.IndividualDonations)),
		}
		copy(cp.IndividualDonations, d.IndividualDonations)
		out.Donors = append(out.Donors, cp)
	}
	return out
}
