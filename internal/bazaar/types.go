// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

package bazaar

import (
	"fmt"
	"time"

	"github.com/tomtom215/bazaarplan/internal/calendar"
)

// Classification is the qualitative bucket of a score.
type Classification string

const (
	Excellent Classification = "Excellent"
	VeryGood  Classification = "Very Good"
	Good      Classification = "Good"
	Poor      Classification = "Poor/Risky"
)

// Classify maps a clamped score to its classification.
func Classify(score int) Classification {
	switch {
	case score >= ExcellentMin:
		return Excellent
	case score >= VeryGoodMin:
		return VeryGood
	case score >= GoodMin:
		return Good
	default:
		return Poor
	}
}

// Factor names a scoring contribution.
type Factor string

const (
	FactorBase      Factor = "base"
	FactorWeekend   Factor = "weekend"
	FactorPayday    Factor = "payday"
	FactorProximity Factor = "event_proximity"
	FactorHoliday   Factor = "holiday_period"
)

// Contribution is one signed term of a score.
type Contribution struct {
	Factor Factor `json:"factor"`
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

// Suggestion is a scored candidate date.
type Suggestion struct {
	Date           calendar.Date  `json:"date"`
	DayOfWeek      string         `json:"day_of_week"`
	Score          int            `json:"score"`
	RawScore       int            `json:"raw_score"`
	Classification Classification `json:"classification"`
	Reasons        []string       `json:"reasons"`

	// Tips is the full tip list of the matching rule; HighlightedTips is
	// the prefix shown to users.
	Tips            []string `json:"tips"`
	HighlightedTips []string `json:"highlighted_tips"`

	Contributions []Contribution `json:"contributions"`

	IsWeekend     bool                  `json:"is_weekend"`
	IsPayday      bool                  `json:"is_payday"`
	NearbyEvent   *calendar.NearbyEvent `json:"nearby_event,omitempty"`
	UpcomingEvent *calendar.NearbyEvent `json:"upcoming_event,omitempty"`
	InSweetSpot   bool                  `json:"in_sweet_spot"`
	HolidayPeriod *calendar.Period      `json:"holiday_period,omitempty"`
}

// MonthGroup holds the suggestions of one calendar month, best first.
type MonthGroup struct {
	Year        int          `json:"year"`
	Month       time.Month   `json:"month"`
	Suggestions []Suggestion `json:"suggestions"`
}

// Label renders the month as YYYY-MM.
func (g MonthGroup) Label() string {
	return fmt.Sprintf("%04d-%02d", g.Year, int(g.Month))
}

// Best returns the top suggestion of the month.
func (g MonthGroup) Best() (Suggestion, bool) {
	if len(g.Suggestions) == 0 {
		return Suggestion{}, false
	}
	return g.Suggestions[0], true
}

// SuggestionSet is the output of one ComputeSuggestions call.
type SuggestionSet struct {
	Start calendar.Date `json:"start"`
	End   calendar.Date `json:"end"`

	// Suggestions are in chronological order.
	Suggestions []Suggestion `json:"suggestions"`

	// Months are in chronological order; each month is sorted by score.
	Months []MonthGroup `json:"months"`

	// SkippedEntries counts table entries dropped as malformed.
	SkippedEntries int `json:"skipped_entries"`
}

// Options tune which candidate dates are considered.
type Options struct {
	// WeekendsOnly restricts candidates to Saturdays and Sundays.
	WeekendsOnly bool `json:"weekends_only"`
}
