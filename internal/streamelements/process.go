// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

/*
process.go - StreamElements Session Normalizer

Rebuilds the donor set for the active accounting period from a session
poll. The session API exposes rolling event lists (recent subscriptions,
cheers, tips) rather than a durable history, so each poll replays the
lists onto the previously stored set:

 1. Clone the previous set and drop donations that have fallen out of
    the accounting period.
 2. Replay in-period events, pricing each in dollars: subscriptions by
    configured tier value (gift subs credited to the gifter), cheers at
    bits x BitValue, tips literally. Exact duplicates (same donor, same
    rounded amount, same timestamp) are skipped, which is what makes the
    replay idempotent across polls.
 3. Compare the rebuilt per-category sums against the platform's own
    period counters and patch any positive shortfall into the overall
    total without attributing it to a donor. The rolling lists are
    bounded, so events can age out before a poll sees them; the counters
    never lose them.

The result is deterministic for a given session payload, so the merge
engine's deep-equal check turns repeat polls into no-ops.
*/

package streamelements

import (
	"strings"
	"time"

	"github.com/tomtom215/goalpost/internal/config"
	"github.com/tomtom215/goalpost/internal/currency"
	"github.com/tomtom215/goalpost/internal/models"
	semodels "github.com/tomtom215/goalpost/internal/models/streamelements"
	"github.com/tomtom215/goalpost/internal/period"
)

// Process converts a session poll into normalized period-scoped data.
// prev is the previously stored donor set; it is not mutated.
func Process(prev models.DonationSet, session *semodels.Session, cfg config.StreamElementsConfig, p period.Period, now time.Time) models.ProcessedSessionData {
	cur := prev.Clone()
	dropExpired(&cur, p, now)

	data := session.Data
	replaySubscriptions(&cur, data, cfg, p, now)
	replayCheers(&cur, data.CheerRecent, cfg, p, now)
	replayTips(&cur, data.TipRecent, p, now)
	cur.Normalize()

	// Reconciliation runs after Normalize; the patch lives only in the
	// overall total and would be erased by another recompute.
	patchShortfall(&cur, data, cfg, p)

	start := p.StartOf(now)
	return models.ProcessedSessionData{
		Current:     cur,
		Month:       int(start.Month()),
		Year:        start.Year(),
		LastUpdated: now,
	}
}

// dropExpired removes donations outside the accounting period containing
// now. Donors left with nothing are pruned by Normalize.
func dropExpired(set *models.DonationSet, p period.Period, now time.Time) {
	for _, donor := range set.Donors {
		kept := donor.IndividualDonations[:0]
		for _, don := range donor.IndividualDonations {
			if p.Contains(don.Timestamp, now) {
				kept = append(kept, don)
			}
		}
		donor.IndividualDonations = kept
	}
	set.Normalize()
}

func replaySubscriptions(set *models.DonationSet, data semodels.SessionData, cfg config.StreamElementsConfig, p period.Period, now time.Time) {
	for _, ev := range data.SubscriberRecent {
		ts := ev.Created()
		if ts.IsZero() || !p.Contains(ts, now) {
			continue
		}
		name := ev.Name
		if ev.Gifted && giftMatches(data.SubscriberGiftedLatest, ev) {
			name = data.SubscriberGiftedLatest.Sender
		}
		addEvent(set, name, cfg.TierValue(ev.Tier), ts, models.KindSubscription, ev.Tier)
	}
}

// giftMatches reports whether the session's latest gift-sub record
// describes ev, i.e. ev's recipient and tier line up with it. Only then
// is the gifter's name known.
func giftMatches(gift *semodels.GiftedEvent, ev semodels.Event) bool {
	if gift == nil || gift.Sender == "" {
		return false
	}
	return strings.EqualFold(gift.Name, ev.Name) && gift.Tier == ev.Tier
}

func replayCheers(set *models.DonationSet, events []semodels.Event, cfg config.StreamElementsConfig, p period.Period, now time.Time) {
	for _, ev := range events {
		ts := ev.Created()
		if ts.IsZero() || !p.Contains(ts, now) {
			continue
		}
		addEvent(set, ev.Name, currency.Mul(ev.Amount, cfg.BitValue), ts, models.KindBits, "")
	}
}

func replayTips(set *models.DonationSet, events []semodels.Event, p period.Period, now time.Time) {
	for _, ev := range events {
		ts := ev.Created()
		if ts.IsZero() || !p.Contains(ts, now) {
			continue
		}
		addEvent(set, ev.Name, ev.Amount, ts, models.KindTip, "")
	}
}

// addEvent appends one replayed event as a donation unless the donor
// already holds an identical one from an earlier poll.
func addEvent(set *models.DonationSet, name string, amount float64, ts time.Time, kind models.DonationKind, tier string) {
	amount = currency.Round(amount)
	if amount <= 0 {
		return
	}
	donor := set.EnsureDonor(name)
	if donor.Has(amount, ts) {
		return
	}
	donor.IndividualDonations = append(donor.IndividualDonations, models.Donation{
		Amount:    amount,
		Timestamp: ts,
		Kind:      kind,
		SubTier:   tier,
	})
}

// patchShortfall compares what the replay reconstructed against the
// platform's period counters and adds any positive difference to the
// overall total, unattributed. Subscription counters report subscription
// counts, so they are priced at the tier-one value; cheer counters report
// bits.
func patchShortfall(set *models.DonationSet, data semodels.SessionData, cfg config.StreamElementsConfig, p period.Period) {
	subs, cheers, tips := kindTotals(set)

	subSummary, cheerSummary, tipSummary := data.SubscriberMonth, data.CheerMonth, data.TipMonth
	if p == period.Week {
		subSummary, cheerSummary, tipSummary = data.SubscriberWeek, data.CheerWeek, data.TipWeek
	}

	shortfall := 0.0
	if d := currency.Sub(currency.Mul(subSummary.Amount, cfg.TierOneValue), subs); d > 0 {
		shortfall = currency.Add(shortfall, d)
	}
	if d := currency.Sub(currency.Mul(cheerSummary.Amount, cfg.BitValue), cheers); d > 0 {
		shortfall = currency.Add(shortfall, d)
	}
	if d := currency.Sub(currency.Round(tipSummary.Amount), tips); d > 0 {
		shortfall = currency.Add(shortfall, d)
	}
	if shortfall > 0 {
		set.OverallTotal.Amount = currency.Add(set.OverallTotal.Amount, shortfall)
	}
}

// kindTotals sums donation amounts by category across the whole set.
func kindTotals(set *models.DonationSet) (subs, cheers, tips float64) {
	for _, donor := range set.Donors {
		for _, don := range donor.IndividualDonations {
			switch don.Kind {
			case models.KindSubscription:
				subs = currency.Add(subs, don.Amount)
			case models.KindBits:
				cheers = currency.Add(cheers, don.Amount)
			case models.KindTip:
				tips = currency.Add(tips, don.Amount)
			}
		}
	}
	return subs, cheers, tips
}
