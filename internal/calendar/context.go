// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

package calendar

import (
	"sort"
	"time"
)

// NearbyEvent is the commercial event closest to a date within the window.
type NearbyEvent struct {
	Name string `json:"name"`
	Date Date   `json:"date"`

	// DaysToEvent is positive when the event is ahead of the date, negative
	// when it already happened.
	DaysToEvent int `json:"days_to_event"`
}

// DayContext is everything the scorer needs to know about one date.
//
// Event is the closest event in either direction and is informational.
// Upcoming is the closest event still ahead of the date; the sweet spot and
// proximity are measured against it, so a recent past event never hides
// the next one.
type DayContext struct {
	Date        Date         `json:"date"`
	Weekday     time.Weekday `json:"-"`
	IsWeekend   bool         `json:"is_weekend"`
	IsPayday    bool         `json:"is_payday"`
	Event       *NearbyEvent `json:"nearby_event,omitempty"`
	Upcoming    *NearbyEvent `json:"upcoming_event,omitempty"`
	InSweetSpot bool         `json:"in_sweet_spot"`
	Holiday     *Period      `json:"holiday_period,omitempty"`
}

// IsWeekend reports whether d is a Saturday or Sunday.
func IsWeekend(d Date) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsPayday reports whether d falls on one of PaydayDays.
func IsPayday(d Date) bool {
	for _, p := range PaydayDays {
		if d.Day() == p {
			return true
		}
	}
	return false
}

// Context derives the DayContext for d.
func (c *Calendar) Context(d Date) DayContext {
	ctx := DayContext{
		Date:      d,
		Weekday:   d.Weekday(),
		IsWeekend: IsWeekend(d),
		IsPayday:  IsPayday(d),
	}

	nearest, upcoming := c.nearby(d)
	ctx.Event, ctx.Upcoming = nearest, upcoming
	if upcoming != nil {
		ctx.InSweetSpot = upcoming.DaysToEvent >= c.window.SweetSpotMin && upcoming.DaysToEvent <= c.window.SweetSpotMax
	}

	for i := range c.periods {
		if c.periods[i].Contains(d) {
			p := c.periods[i]
			ctx.Holiday = &p
			break
		}
	}
	return ctx
}

// nearby scans the window around d once. nearest has the smallest absolute
// distance; upcoming is the first event strictly after d. Events are sorted
// by date then table order, so keeping the first strictly-closer hit breaks
// ties toward the earliest date.
func (c *Calendar) nearby(d Date) (nearest, upcoming *NearbyEvent) {
	lo := d.AddDays(-c.window.Days)
	start := sort.Search(len(c.events), func(i int) bool {
		return !c.events[i].Date.Before(lo)
	})

	bestDist := 0
	for _, occ := range c.events[start:] {
		delta := d.DaysUntil(occ.Date)
		if delta > c.window.Days {
			break
		}
		dist := delta
		if dist < 0 {
			dist = -dist
		}
		if nearest == nil || dist < bestDist {
			nearest = &NearbyEvent{Name: occ.Name, Date: occ.Date, DaysToEvent: delta}
			bestDist = dist
		}
		if upcoming == nil && delta > 0 {
			upcoming = &NearbyEvent{Name: occ.Name, Date: occ.Date, DaysToEvent: delta}
		}
	}
	return nearest, upcoming
}
