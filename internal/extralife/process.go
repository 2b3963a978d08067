// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

/*
process.go - Extra Life Normalizer

Turns raw participant/donation payloads into ProcessedExtraLifeData for
the merge engine. Rules:

  - Donations are scoped to the participant's current event: records from
    older events are dropped in every merge.
  - Changing the configured participant is a fresh start: all previously
    stored history belongs to the old participant and is discarded.
  - Otherwise previous and fetched donations are merged with donation-ID
    deduplication; the fetched copy of a record wins. Donations the
    previous poll had not seen are reported as NewDonations so the
    overlay can run highlight animations.
  - Unchanged reports when the participant summary matches the stored
    state exactly, letting the poller skip the donations fetch entirely.
*/

package extralife

import (
	"sort"
	"time"

	"github.com/tomtom215/goalpost/internal/currency"
	"github.com/tomtom215/goalpost/internal/models"
	elmodels "github.com/tomtom215/goalpost/internal/models/extralife"
)

// Unchanged reports whether the fetched participant summary matches prev
// so closely that re-processing the donation list cannot change anything:
// same participant, same event, same sum, same goal.
func Unchanged(prev *models.ProcessedExtraLifeData, p *elmodels.Participant, participantID int) bool {
	if prev == nil {
		return false
	}
	return prev.Metadata.ParticipantID == participantID &&
		prev.Metadata.EventID == p.EventID &&
		prev.SumDonations == currency.Round(p.SumDonations) &&
		prev.FundraisingGoal == p.FundraisingGoal
}

// Process merges the fetched participant state with the previously stored
// data. prev may be nil on the first poll of a session.
func Process(prev *models.ProcessedExtraLifeData, p *elmodels.Participant, donations []elmodels.Donation, participantID int, now time.Time) models.ProcessedExtraLifeData {
	// A participant switch invalidates all stored history: the old records
	// belong to someone else's fundraising page.
	fresh := prev == nil || prev.Metadata.ParticipantID != participantID

	seen := make(map[string]bool, len(donations))
	merged := make([]elmodels.Donation, 0, len(donations))
	var newDonations []elmodels.Donation

	previousIDs := map[string]bool{}
	if !fresh {
		for _, d := range prev.Donations {
			previousIDs[d.DonationID] = true
		}
	}

	// Fetched records first so they win the dedup.
	for _, d := range donations {
		if d.EventID != p.EventID || seen[d.DonationID] {
			continue
		}
		seen[d.DonationID] = true
		merged = append(merged, d)
		if !fresh && !previousIDs[d.DonationID] {
			newDonations = append(newDonations, d)
		}
	}
	if !fresh {
		for _, d := range prev.Donations {
			if d.EventID != p.EventID || seen[d.DonationID] {
				continue
			}
			seen[d.DonationID] = true
			merged = append(merged, d)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Created().After(merged[j].Created())
	})
	sort.SliceStable(newDonations, func(i, j int) bool {
		return newDonations[i].Created().After(newDonations[j].Created())
	})

	return models.ProcessedExtraLifeData{
		SumDonations:    currency.Round(p.SumDonations),
		FundraisingGoal: p.FundraisingGoal,
		Donations:       merged,
		NewDonations:    newDonations,
		Metadata: models.ExtraLifeMetadata{
			LastUpdated:   now.UTC(),
			ParticipantID: participantID,
			EventID:       p.EventID,
		},
	}
}
