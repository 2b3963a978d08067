// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

package poller

import (
	"time"

	"github.com/tomtom215/goalpost/internal/currency"
	"github.com/tomtom215/goalpost/internal/models"
	"github.com/tomtom215/goalpost/internal/period"
)

// blendSets additively folds the local ledger's in-period donations into a
// copy of the platform set. Donations a donor already holds with the same
// rounded amount and timestamp are not folded twice, so repeated blends of
// the same inputs are stable.
func blendSets(platform, local models.DonationSet, p period.Period, now time.Time) models.DonationSet {
	out := platform.Clone()

	// The platform set may carry an unattributed reconciliation amount in
	// its overall total. Normalize below recomputes totals from donations,
	// so capture it now and restore it afterwards.
	attributed := 0.0
	for _, donor := range platform.Donors {
		attributed = currency.Add(attributed, donor.TotalAmount)
	}
	patch := currency.Sub(platform.OverallTotal.Amount, attributed)

	for _, donor := range local.Donors {
		for _, don := range donor.IndividualDonations {
			if !p.Contains(don.Timestamp, now) {
				continue
			}
			target := out.EnsureDonor(donor.Name)
			if target.Has(don.Amount, don.Timestamp) {
				continue
			}
			target.IndividualDonations = append(target.IndividualDonations, don)
		}
	}
	out.Normalize()
	if patch > 0 {
		out.OverallTotal.Amount = currency.Add(out.OverallTotal.Amount, patch)
	}
	return out
}
