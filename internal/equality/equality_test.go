// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

package equality

import (
	"testing"
	"time"
)

type doc struct {
	Name    string   `json:"name"`
	Amount  float64  `json:"amount"`
	Stamp   string   `json:"stamp"`
	Tags    []string `json:"tags,omitempty"`
	Updated *string  `json:"updated,omitempty"`
}

func TestEqual_IdenticalStructs(t *testing.T) {
	a := doc{Name: "ada", Amount: 25.00, Stamp: "2026-03-18T15:04:05Z"}
	b := doc{Name: "ada", Amount: 25.00, Stamp: "2026-03-18T15:04:05Z"}
	if !Equal(a, b) {
		t.Error("identical structs should be equal")
	}
}

func TestEqual_DifferentValues(t *testing.T) {
	a := doc{Name: "ada", Amount: 25.00}
	b := doc{Name: "ada", Amount: 25.01}
	if Equal(a, b) {
		t.Error("different amounts should not be equal")
	}
}

// Differently formatted renderings of the same instant must compare equal:
// this is what stops a stored RFC3339 string from looking like a change when
// the normalizer re-emits it with fractional seconds.
func TestEqual_TimestampFormats(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"with and without fractional seconds", "2026-03-18T15:04:05Z", "2026-03-18T15:04:05.000Z", true},
		{"offset vs zulu", "2026-03-18T15:04:05+00:00", "2026-03-18T15:04:05Z", true},
		{"zone-less UTC vs zulu", "2026-03-18T15:04:05", "2026-03-18T15:04:05Z", true},
		{"different instants", "2026-03-18T15:04:05Z", "2026-03-18T15:04:06Z", false},
		{"non-timestamp strings", "ada", "grace", false},
		{"timestamp vs plain string", "2026-03-18T15:04:05Z", "not a time", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := doc{Name: "x", Stamp: tt.a}
			b := doc{Name: "x", Stamp: tt.b}
			if got := Equal(a, b); got != tt.want {
				t.Errorf("Equal(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestEqual_NestedAndOrdering(t *testing.T) {
	type outer struct {
		Docs  map[string]doc `json:"docs"`
		Total float64        `json:"total"`
	}
	a := outer{
		Docs: map[string]doc{
			"ada":   {Name: "Ada", Amount: 25, Stamp: "2026-03-18T15:04:05Z", Tags: []string{"tip", "bits"}},
			"grace": {Name: "Grace", Amount: 10, Stamp: "2026-03-01T00:00:00Z"},
		},
		Total: 35,
	}
	b := outer{
		Docs: map[string]doc{
			"grace": {Name: "Grace", Amount: 10, Stamp: "2026-03-01T00:00:00.000Z"},
			"ada":   {Name: "Ada", Amount: 25, Stamp: "2026-03-18T15:04:05Z", Tags: []string{"tip", "bits"}},
		},
		Total: 35,
	}
	if !Equal(a, b) {
		t.Error("map insertion order must not affect equality")
	}

	// Slice order does matter.
	b.Docs["ada"] = doc{Name: "Ada", Amount: 25, Stamp: "2026-03-18T15:04:05Z", Tags: []string{"bits", "tip"}}
	if Equal(a, b) {
		t.Error("slice element order must affect equality")
	}
}

func TestEqual_NilAndOmitted(t *testing.T) {
	u := "2026-03-18T15:04:05Z"
	a := doc{Name: "x"}
	b := doc{Name: "x", Updated: &u}
	if Equal(a, b) {
		t.Error("present vs omitted field should not be equal")
	}
	if !Equal(a, doc{Name: "x"}) {
		t.Error("both omitted should be equal")
	}
}

func TestEqual_TimeValues(t *testing.T) {
	// time.Time marshals to RFC3339Nano; a struct holding the same instant at
	// different precision should still compare equal.
	type stamped struct {
		At time.Time `json:"at"`
	}
	base := time.Date(2026, 3, 18, 15, 4, 5, 0, time.UTC)
	if !Equal(stamped{At: base}, stamped{At: base.In(time.FixedZone("X", 0))}) {
		t.Error("same instant in different zones should be equal")
	}
}
