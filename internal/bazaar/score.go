// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

package bazaar

import (
	"fmt"
	"math"

	"github.com/tomtom215/bazaarplan/internal/calendar"
)

// scoreDay turns a day context into a fully populated Suggestion.
func (e *Engine) scoreDay(day calendar.DayContext) Suggestion {
	p := e.policy
	contribs := []Contribution{{Factor: FactorBase, Points: p.BaseScore, Reason: "Base score"}}

	if day.IsWeekend && p.WeekendBonus > 0 {
		contribs = append(contribs, Contribution{
			Factor: FactorWeekend,
			Points: p.WeekendBonus,
			Reason: fmt.Sprintf("%s: more foot traffic and free time to shop", day.Weekday),
		})
	}
	if day.IsPayday && p.PaydayBonus > 0 {
		contribs = append(contribs, Contribution{
			Factor: FactorPayday,
			Points: p.PaydayBonus,
			Reason: fmt.Sprintf("Payday (day %d): customers have fresh budget", day.Date.Day()),
		})
	}
	if pts := proximityBonus(day, &p); pts > 0 {
		ev := day.Upcoming
		reason := fmt.Sprintf("%d days before %s: pre-sale momentum", ev.DaysToEvent, ev.Name)
		if day.InSweetSpot {
			reason = fmt.Sprintf("%d days before %s: ideal pre-sale window", ev.DaysToEvent, ev.Name)
		}
		contribs = append(contribs, Contribution{Factor: FactorProximity, Points: pts, Reason: reason})
	}
	if day.Holiday != nil && p.HolidayPenalty > 0 {
		contribs = append(contribs, Contribution{
			Factor: FactorHoliday,
			Points: -p.HolidayPenalty,
			Reason: fmt.Sprintf("Inside %s (%s to %s): many customers are away", day.Holiday.Name, day.Holiday.Start, day.Holiday.End),
		})
	}

	raw := 0
	for _, c := range contribs {
		raw += c.Points
	}
	score := clamp(raw)

	tips := matchTips(flagsOf(day))
	shown := tips
	if len(shown) > p.TipsShown {
		shown = shown[:p.TipsShown]
	}

	return Suggestion{
		Date:            day.Date,
		DayOfWeek:       day.Weekday.String(),
		Score:           score,
		RawScore:        raw,
		Classification:  Classify(score),
		Reasons:         frameReasons(score, contribs, day, p.WindowDays),
		Tips:            append([]string(nil), tips...),
		HighlightedTips: append([]string(nil), shown...),
		Contributions:   contribs,
		IsWeekend:       day.IsWeekend,
		IsPayday:        day.IsPayday,
		NearbyEvent:     day.Event,
		UpcomingEvent:   day.Upcoming,
		InSweetSpot:     day.InSweetSpot,
		HolidayPeriod:   day.Holiday,
	}
}

// proximityBonus is maximal inside the sweet spot and decays linearly to
// zero toward the event date and toward the edge of the window. Only
// upcoming events count.
func proximityBonus(day calendar.DayContext, p *Policy) int {
	if day.Upcoming == nil {
		return 0
	}
	d := day.Upcoming.DaysToEvent
	if d <= 0 || d > p.WindowDays {
		return 0
	}

	maxBonus := float64(p.ProximityMaxBonus)
	switch {
	case d >= p.SweetSpotMinDays && d <= p.SweetSpotMaxDays:
		return p.ProximityMaxBonus
	case d < p.SweetSpotMinDays:
		return int(math.Round(maxBonus * float64(d) / float64(p.SweetSpotMinDays)))
	default:
		tail := p.WindowDays - p.SweetSpotMaxDays + 1
		return int(math.Round(maxBonus * float64(p.WindowDays-d+1) / float64(tail)))
	}
}

func clamp(score int) int {
	return max(MinScore, min(MaxScore, score))
}

// frameReasons keeps only the factors that match the verdict: what helped
// for a recommended date, what hurt or is missing for a risky one.
func frameReasons(score int, contribs []Contribution, day calendar.DayContext, windowDays int) []string {
	var reasons []string

	if score >= GoodMin {
		for _, c := range contribs {
			if c.Factor != FactorBase && c.Points > 0 {
				reasons = append(reasons, c.Reason)
			}
		}
		if len(reasons) == 0 {
			reasons = append(reasons, "Steady date with no red flags")
		}
		return reasons
	}

	for _, c := range contribs {
		if c.Points < 0 {
			reasons = append(reasons, c.Reason)
		}
	}
	if len(reasons) > 0 {
		return reasons
	}

	if !day.IsWeekend {
		reasons = append(reasons, fmt.Sprintf("%s: expect less foot traffic", day.Weekday))
	}
	if !day.IsPayday {
		reasons = append(reasons, "Away from paydays: tighter customer budgets")
	}
	switch {
	case day.Upcoming == nil:
		reasons = append(reasons, fmt.Sprintf("No commercial date in the next %d days", windowDays))
	case !day.InSweetSpot:
		reasons = append(reasons, fmt.Sprintf("Only %d days before %s: little time to promote", day.Upcoming.DaysToEvent, day.Upcoming.Name))
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "Score below the recommended range")
	}
	return reasons
}
