// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

// Package streamelements defines the wire payloads of the StreamElements
// session API. The session document carries rolling lists of recent
// subscription, cheer, and tip events alongside per-period summary counters;
// field names mirror the API's kebab-case JSON exactly.
package streamelements

import "time"

// Session is the response of GET /sessions/{channelID}.
type Session struct {
	Data SessionData `json:"data"`
}

// SessionData holds the event lists and period summaries the normalizer
// replays. The *-week and *-month summaries are the platform's own period
// totals, already converted to each category's native unit (subscription
// points, bits, dollars).
type SessionData struct {
	SubscriberRecent []Event `json:"subscriber-recent"`
	CheerRecent      []Event `json:"cheer-recent"`
	TipRecent        []Event `json:"tip-recent"`

	// SubscriberGiftedLatest records the most recent gift sub so gift events
	// can be credited to the gifter instead of the recipient.
	SubscriberGiftedLatest *GiftedEvent `json:"subscriber-gifted-latest,omitempty"`

	SubscriberWeek  Summary `json:"subscriber-week"`
	SubscriberMonth Summary `json:"subscriber-month"`
	CheerWeek       Summary `json:"cheer-week"`
	CheerMonth      Summary `json:"cheer-month"`
	TipWeek         Summary `json:"tip-week"`
	TipMonth        Summary `json:"tip-month"`
}

// Event is one entry of a *-recent list. Amount means bits for cheers,
// dollars for tips, and cumulative months for subscriptions (unused by the
// normalizer, which prices subs by tier).
type Event struct {
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	Tier      string  `json:"tier,omitempty"` // "1000", "2000", "3000", "prime"
	Gifted    bool    `json:"gifted,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

// GiftedEvent describes the most recent gift subscription: Name is the
// recipient, Sender the gifter.
type GiftedEvent struct {
	Name      string `json:"name"`
	Sender    string `json:"sender"`
	Tier      string `json:"tier"`
	CreatedAt string `json:"createdAt"`
}

// Summary is a platform-maintained period counter.
type Summary struct {
	Amount float64 `json:"amount"`
}

var createdLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999",
}

// Created parses the event timestamp; unparseable values return zero time.
func (e Event) Created() time.Time {
	return parseCreated(e.CreatedAt)
}

// Created parses the gift record timestamp.
func (g GiftedEvent) Created() time.Time {
	return parseCreated(g.CreatedAt)
}

func parseCreated(s string) time.Time {
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
