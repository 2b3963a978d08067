// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

// Package extralife defines the wire payloads returned by the Extra Life
// fundraising API. Field names mirror the API's camelCase JSON exactly.
package extralife

import "time"

// Participant is the response of GET /participants/{id}.
type Participant struct {
	ParticipantID   int     `json:"participantID"`
	DisplayName     string  `json:"displayName"`
	SumDonations    float64 `json:"sumDonations"`
	FundraisingGoal float64 `json:"fundraisingGoal"`
	EventID         int     `json:"eventID"`
}

// Donation is one entry of GET /participants/{id}/donations.
type Donation struct {
	DonationID     string  `json:"donationID"`
	DisplayName    string  `json:"displayName"`
	Message        string  `json:"message,omitempty"`
	Amount         float64 `json:"amount"`
	CreatedDateUTC string  `json:"createdDateUTC"`
	EventID        int     `json:"eventID"`
}

// createdLayouts covers the timestamp formats Extra Life has been observed
// to emit for createdDateUTC.
var createdLayouts = []string{
	"2006-01-02T15:04:05.999-0700",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999",
}

// Created parses the donation's creation timestamp. Unparseable values
// return the zero time, which sorts oldest.
func (d Donation) Created() time.Time {
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, d.CreatedDateUTC); err == nil {
			return t
		}
	}
	return time.Time{}
}
