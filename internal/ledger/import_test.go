// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

package ledger

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tomtom215/goalpost/internal/apperror"
)

const validImport = `[
  {
    "donations": [
      {
        "name": "Ada",
        "individual_donations": [
          {"amount": 25.00, "timestamp": "2026-03-18T12:00:00Z"},
          {"amount": 10.50, "timestamp": "2026-03-17T09:30:00Z"}
        ],
        "total_amount": 35.50,
        "total_donations": 2
      },
      {
        "name": "Grace",
        "individual_donations": [
          {"amount": 5.25, "timestamp": "2026-03-16T20:00:00Z"}
        ],
        "total_amount": 5.25,
        "total_donations": 1
      }
    ],
    "overall_total": {"amount": 40.75, "donation_count": 3}
  }
]`

func TestImport_Valid(t *testing.T) {
	l, g := newTestLedger(t)
	if err := l.Import(context.Background(), strings.NewReader(validImport)); err != nil {
		t.Fatalf("import: %v", err)
	}

	set, _ := g.GetLocal(context.Background())
	if len(set.Donors) != 2 {
		t.Fatalf("expected 2 donors, got %d", len(set.Donors))
	}
	if set.OverallTotal.Amount != 40.75 || set.OverallTotal.Count != 3 {
		t.Errorf("overall = %+v, want {40.75 3}", set.OverallTotal)
	}
	// Donors ordered by total descending after import.
	if set.Donors[0].Name != "Ada" {
		t.Errorf("expected Ada first, got %q", set.Donors[0].Name)
	}
}

func TestImport_ReplacesExistingLedger(t *testing.T) {
	l, g := newTestLedger(t)
	if _, err := l.AddDonation(context.Background(), "Old Donor", 99.00); err != nil {
		t.Fatal(err)
	}
	if err := l.Import(context.Background(), strings.NewReader(validImport)); err != nil {
		t.Fatalf("import: %v", err)
	}
	set, _ := g.GetLocal(context.Background())
	if set.FindDonor("old donor") != nil {
		t.Error("import should replace the existing ledger")
	}
}

func TestImport_Rejections(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not json", `{{{{`},
		{"empty array", `[]`},
		{"two documents", `[{"donations":[],"overall_total":{"amount":0,"donation_count":0}},{"donations":[],"overall_total":{"amount":0,"donation_count":0}}]`},
		{
			"donor total mismatch",
			`[{"donations":[{"name":"Ada","individual_donations":[{"amount":25.00,"timestamp":"2026-03-18T12:00:00Z"}],"total_amount":30.00,"total_donations":1}],"overall_total":{"amount":30.00,"donation_count":1}}]`,
		},
		{
			"donor count mismatch",
			`[{"donations":[{"name":"Ada","individual_donations":[{"amount":25.00,"timestamp":"2026-03-18T12:00:00Z"}],"total_amount":25.00,"total_donations":2}],"overall_total":{"amount":25.00,"donation_count":1}}]`,
		},
		{
			"overall total mismatch",
			`[{"donations":[{"name":"Ada","individual_donations":[{"amount":25.00,"timestamp":"2026-03-18T12:00:00Z"}],"total_amount":25.00,"total_donations":1}],"overall_total":{"amount":99.00,"donation_count":1}}]`,
		},
		{
			"non-positive amount",
			`[{"donations":[{"name":"Ada","individual_donations":[{"amount":0,"timestamp":"2026-03-18T12:00:00Z"}],"total_amount":0,"total_donations":1}],"overall_total":{"amount":0,"donation_count":1}}]`,
		},
		{
			"missing name",
			`[{"donations":[{"name":"","individual_donations":[{"amount":5,"timestamp":"2026-03-18T12:00:00Z"}],"total_amount":5,"total_donations":1}],"overall_total":{"amount":5,"donation_count":1}}]`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, g := newTestLedger(t)
			err := l.Import(context.Background(), strings.NewReader(tt.in))
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			// Rejected imports must not touch the stored ledger.
			set, _ := g.GetLocal(context.Background())
			if len(set.Donors) != 0 {
				t.Error("rejected import modified the ledger")
			}
		})
	}
}
