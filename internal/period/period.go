// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

// Package period classifies timestamps into accounting windows.
//
// StreamElements rolls its goal counters on a weekly or monthly cadence, and
// the local-ledger blend is filtered by the same window. A week runs Sunday
// 00:00:00 local time through the following Sunday, exclusive end. A month is
// a calendar month. Classification always happens in the reference time's
// location so a donation near midnight lands in the same window the platform
// puts it in.
package period

import (
	"fmt"
	"time"
)

// Period identifies an accounting window.
type Period string

const (
	Day   Period = "day"
	Week  Period = "week"
	Month Period = "month"
	All   Period = "all"
)

// Parse converts a config string into a Period.
func Parse(s string) (Period, error) {
	switch Period(s) {
	case Day, Week, Month, All:
		return Period(s), nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// Contains reports whether ts falls inside the period containing now.
// All always reports true.
func (p Period) Contains(ts, now time.Time) bool {
	switch p {
	case All:
		return true
	case Day:
		ty, tm, td := ts.In(now.Location()).Date()
		ny, nm, nd := now.Date()
		return ty == ny && tm == nm && td == nd
	case Week:
		start := p.StartOf(now)
		end := start.AddDate(0, 0, 7)
		t := ts.In(now.Location())
		return !t.Before(start) && t.Before(end)
	case Month:
		t := ts.In(now.Location())
		return t.Year() == now.Year() && t.Month() == now.Month()
	}
	return false
}

// StartOf returns the first instant of the period containing now, in now's
// location. For Week this is the most recent Sunday at 00:00:00; for Month
// the first of the month; for Day midnight. All returns the zero time since
// an unbounded window has no start.
func (p Period) StartOf(now time.Time) time.Time {
	switch p {
	case Day:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case Week:
		y, m, d := now.Date()
		midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
		return midnight.AddDate(0, 0, -int(now.Weekday()))
	case Month:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	}
	return time.Time{}
}

// Crossed reports whether a period boundary lies between last and now, i.e.
// whether last belongs to an earlier window than now. Used to guard the
// once-per-boundary goal reset: frequent polling within one window never
// reports a crossing. A zero last always reports a crossing so the first
// poll of a session performs its reset bookkeeping.
func (p Period) Crossed(last, now time.Time) bool {
	if p == All {
		return false
	}
	if last.IsZero() {
		return true
	}
	return last.In(now.Location()).Before(p.StartOf(now))
}
