// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

package bazaar

import "github.com/tomtom215/bazaarplan/internal/calendar"

// Flags are the boolean features tips are keyed on.
type Flags struct {
	Weekend    bool
	Payday     bool
	SweetSpot  bool
	EventAhead bool
	Holiday    bool
}

func flagsOf(day calendar.DayContext) Flags {
	return Flags{
		Weekend:    day.IsWeekend,
		Payday:     day.IsPayday,
		SweetSpot:  day.InSweetSpot,
		EventAhead: day.Upcoming != nil,
		Holiday:    day.Holiday != nil,
	}
}

// TipRule maps a flag predicate to a tip list.
type TipRule struct {
	Name  string
	Match func(Flags) bool
	Tips  []string
}

// tipRules is evaluated top to bottom; the first match wins. The last rule
// always matches.
var tipRules = []TipRule{
	{
		Name:  "holiday",
		Match: func(f Flags) bool { return f.Holiday },
		Tips: []string{
			"Lean on online pre-orders; many regulars are traveling",
			"Shorten opening hours and focus on your best sellers",
			"Announce a follow-up date right after the holiday",
		},
	},
	{
		Name:  "presale_weekend",
		Match: func(f Flags) bool { return f.SweetSpot && f.Weekend },
		Tips: []string{
			"Brand the bazaar as an early-access pre-sale",
			"Bundle gift-ready sets ahead of the commercial date",
			"Post a countdown on social media the week before",
			"Collect contacts for a reminder on the event day",
		},
	},
	{
		Name:  "presale",
		Match: func(f Flags) bool { return f.SweetSpot },
		Tips: []string{
			"Brand the bazaar as an early-access pre-sale",
			"Offer reservations for pickup on the weekend",
			"Bundle gift-ready sets ahead of the commercial date",
		},
	},
	{
		Name:  "weekend_payday",
		Match: func(f Flags) bool { return f.Weekend && f.Payday },
		Tips: []string{
			"Bring your premium pieces; budgets are fresh",
			"Plan for peak traffic around midday",
			"Offer a small gift above a minimum purchase",
		},
	},
	{
		Name:  "payday",
		Match: func(f Flags) bool { return f.Payday },
		Tips: []string{
			"Open in the evening to catch after-work shoppers",
			"Highlight higher-ticket items",
			"Accept card and instant payments",
		},
	},
	{
		Name:  "weekend",
		Match: func(f Flags) bool { return f.Weekend },
		Tips: []string{
			"Start early and keep the stand stocked through the afternoon",
			"Offer a bundle discount to lift the average ticket",
			"Invite followers with a story the night before",
		},
	},
	{
		Name:  "event_ahead",
		Match: func(f Flags) bool { return f.EventAhead },
		Tips: []string{
			"Tease the upcoming commercial date with a preview stand",
			"Take orders for delivery before the event",
		},
	},
	{
		Name:  "default",
		Match: func(Flags) bool { return true },
		Tips: []string{
			"Consider a weekend or a payday instead",
			"Run a flash promotion to create urgency",
			"Partner with another creator to share traffic",
		},
	},
}

// matchTips returns the tip list of the first rule that matches f.
func matchTips(f Flags) []string {
	r, _ := MatchTipRule(f)
	return r.Tips
}

// MatchTipRule returns the first matching rule and its position.
func MatchTipRule(f Flags) (TipRule, int) {
	for i, r := range tipRules {
		if r.Match(f) {
			return r, i
		}
	}
	return tipRules[len(tipRules)-1], len(tipRules) - 1
}
