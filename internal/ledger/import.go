// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

package ledger

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/tomtom215/goalpost/internal/apperror"
	"github.com/tomtom215/goalpost/internal/currency"
	"github.com/tomtom215/goalpost/internal/logging"
	"github.com/tomtom215/goalpost/internal/metrics"
	"github.com/tomtom215/goalpost/internal/models"
)

// Import loads the custom donation-data file format: a JSON array holding
// one object of the DonationSet wire shape. Every stated per-donor total
// and the overall total are checked against recomputed sums; a mismatch is
// a validation error surfaced to the operator, never auto-corrected. On
// success the entire local ledger is replaced.
func (l *Ledger) Import(ctx context.Context, r io.Reader) error {
	var docs []models.DonationSet
	dec := json.NewDecoder(r)
	if err := dec.Decode(&docs); err != nil {
		metrics.LedgerOps.WithLabelValues("import", "rejected").Inc()
		return apperror.Validation("", fmt.Sprintf("malformed donation data: %v", err))
	}
	if len(docs) != 1 {
		metrics.LedgerOps.WithLabelValues("import", "rejected").Inc()
		return apperror.Validation("", fmt.Sprintf("expected an array with exactly one donation document, got %d", len(docs)))
	}

	set := docs[0]
	if err := verifyTotals(&set); err != nil {
		metrics.LedgerOps.WithLabelValues("import", "rejected").Inc()
		return err
	}

	// Stated totals check out; normalizing only restores ordering.
	set.Normalize()
	if _, err := l.store.PutLocal(ctx, set); err != nil {
		return err
	}
	metrics.LedgerOps.WithLabelValues("import", "ok").Inc()
	logging.Info().Int("donors", len(set.Donors)).Float64("total", set.OverallTotal.Amount).Msg("donation data imported")
	return nil
}

// verifyTotals cross-checks every stated total against a recomputation
// from the individual donations.
func verifyTotals(set *models.DonationSet) error {
	overallAmount := 0.0
	overallCount := 0

	for _, donor := range set.Donors {
		if donor.Name == "" {
			return apperror.Validation("donations.name", "is required")
		}
		sum := 0.0
		for _, don := range donor.IndividualDonations {
			if don.Amount <= 0 {
				return apperror.Validation(
					fmt.Sprintf("donations[%s].individual_donations.amount", donor.Name),
					"must be positive")
			}
			if don.Timestamp.IsZero() {
				return apperror.Validation(
					fmt.Sprintf("donations[%s].individual_donations.timestamp", donor.Name),
					"is required")
			}
			sum = currency.Add(sum, don.Amount)
		}
		if sum != currency.Round(donor.TotalAmount) {
			return apperror.Validation(
				fmt.Sprintf("donations[%s].total_amount", donor.Name),
				fmt.Sprintf("stated %.2f does not match recomputed %.2f", donor.TotalAmount, sum))
		}
		if len(donor.IndividualDonations) != donor.TotalDonationCount {
			return apperror.Validation(
				fmt.Sprintf("donations[%s].total_donations", donor.Name),
				fmt.Sprintf("stated %d does not match %d donations", donor.TotalDonationCount, len(donor.IndividualDonations)))
		}
		overallAmount = currency.Add(overallAmount, sum)
		overallCount += len(donor.IndividualDonations)
	}

	if currency.Round(set.OverallTotal.Amount) != overallAmount {
		return apperror.Validation("overall_total.amount",
			fmt.Sprintf("stated %.2f does not match recomputed %.2f", set.OverallTotal.Amount, overallAmount))
	}
	if set.OverallTotal.Count != overallCount {
		return apperror.Validation("overall_total.donation_count",
			fmt.Sprintf("stated %d does not match recomputed %d", set.OverallTotal.Count, overallCount))
	}
	return nil
}
