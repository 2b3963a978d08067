// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

// Package equality provides structural deep-equality for persisted documents.
//
// The merge engine must recognize when a freshly normalized payload is
// identical to what is already stored, so it can skip the write and the
// overlay push. Byte comparison is too strict: the same instant can arrive as
// "2026-03-18T15:04:05Z" from one code path and "2026-03-18T15:04:05.000Z"
// from another after a round trip through the document store. Equal therefore
// compares the JSON-normalized forms of both values, treating two strings
// that parse to the same instant as equal.
package equality

import (
	"time"

	"github.com/goccy/go-json"
)

// timeLayouts are tried in order when deciding whether a string is a
// timestamp. Covers RFC3339 with and without fractional seconds plus the
// ExtraLife API's zone-less UTC format.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999",
	"2006-01-02T15:04:05",
}

// Equal reports whether a and b are structurally identical after JSON
// normalization. Values that cannot be marshaled are never equal.
func Equal(a, b any) bool {
	ja, err := json.Marshal(a)
	if err != nil {
		return false
	}
	jb, err := json.Marshal(b)
	if err != nil {
		return false
	}

	var va, vb any
	if err := json.Unmarshal(ja, &va); err != nil {
		return false
	}
	if err := json.Unmarshal(jb, &vb); err != nil {
		return false
	}
	return equalValue(va, vb)
}

func equalValue(a, b any) bool {
	switch x := a.(type) {
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, av := range x {
			bv, ok := y[k]
			if !ok || !equalValue(av, bv) {
				return false
			}
		}
		return true
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !equalValue(x[i], y[i]) {
				return false
			}
		}
		return true
	case string:
		y, ok := b.(string)
		if !ok {
			return false
		}
		if x == y {
			return true
		}
		return sameInstant(x, y)
	default:
		// numbers (float64 after normalization), bools, nil
		return a == b
	}
}

// sameInstant reports whether both strings parse as timestamps of the same
// instant. Strings that are not timestamps at all are not equal here.
func sameInstant(a, b string) bool {
	ta, ok := parseTime(a)
	if !ok {
		return false
	}
	tb, ok := parseTime(b)
	if !ok {
		return false
	}
	return ta.Equal(tb)
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
