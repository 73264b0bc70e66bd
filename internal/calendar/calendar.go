// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/teambition/rrule-go"

	"github.com/tomtom215/bazaarplan/internal/metrics"
)

// PaydayDays are the days of the month on which wages are commonly paid.
var PaydayDays = [...]int{5, 15, 25}

// maxRuleOccurrences caps how many dates a single rrule entry may expand to.
const maxRuleOccurrences = 1000

// Window controls how far around a date commercial events are searched and
// which lead time counts as the pre-sale sweet spot.
type Window struct {
	Days         int `json:"days"`
	SweetSpotMin int `json:"sweet_spot_min"`
	SweetSpotMax int `json:"sweet_spot_max"`
}

// DefaultWindow searches ±12 days with a 10-12 day sweet spot.
func DefaultWindow() Window {
	return Window{Days: 12, SweetSpotMin: 10, SweetSpotMax: 12}
}

// Validate checks the window bounds.
func (w Window) Validate() error {
	if w.Days < 1 {
		return fmt.Errorf("window days must be positive, got %d", w.Days)
	}
	if w.SweetSpotMin < 1 || w.SweetSpotMax < w.SweetSpotMin {
		return fmt.Errorf("invalid sweet spot %d..%d", w.SweetSpotMin, w.SweetSpotMax)
	}
	if w.SweetSpotMax > w.Days {
		return fmt.Errorf("sweet spot max %d exceeds window %d", w.SweetSpotMax, w.Days)
	}
	return nil
}

// Occurrence is a concrete dated instance of a commercial event.
type Occurrence struct {
	Name  string `json:"name"`
	Date  Date   `json:"date"`
	order int
}

// Period is a concrete holiday range, inclusive on both ends.
type Period struct {
	Name  string `json:"name"`
	Start Date   `json:"start"`
	End   Date   `json:"end"`
}

// Contains reports whether d falls inside the period.
func (p Period) Contains(d Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// Days is the inclusive length of the period.
func (p Period) Days() int {
	return p.Start.DaysUntil(p.End) + 1
}

// Extended reports whether the period spans more than one day.
func (p Period) Extended() bool {
	return p.Days() >= 2
}

// Skipped records a table entry that was dropped during compilation.
type Skipped struct {
	Kind   string `json:"kind"`
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Calendar is a table expanded into dated occurrences for a range. It is
// immutable after Compile and safe for concurrent use.
type Calendar struct {
	window   Window
	from, to Date
	events   []Occurrence
	periods  []Period
	skipped  []Skipped
}

// Compile expands table for the dates from..to, widened by the window so
// that events just outside the range still count as nearby. Malformed
// entries are skipped with a warning and reported by Skipped.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func Compile(table Table, from, to Date, window Window, logger zerolog.Logger) (*Calendar, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fmt.Errorf("compile calendar: range end %s before start %s", to, from)
	}

	c := &Calendar{window: window, from: from, to: to}
	lo, hi := from.AddDays(-window.Days), to.AddDays(window.Days)

	skip := func(kind string, i int, name string, err error) {
		c.skipped = append(c.skipped, Skipped{Kind: kind, Index: i, Name: name, Reason: err.Error()})
		metrics.MalformedRecords.WithLabelValues(kind).Inc()
		logger.Warn().
			Str("kind", kind).
			Int("index", i).
			Str("name", name).
			Err(err).
			Msg("skipping malformed calendar entry")
	}

	for i, ev := range table.Events {
		f, err := ev.validate()
		if err != nil {
			skip("commercial_event", i, ev.Name, err)
			continue
		}
		dates, err := expandEvent(ev, f, lo, hi)
		if err != nil {
			skip("commercial_event", i, ev.Name, err)
			continue
		}
		for _, d := range dates {
			c.events = append(c.events, Occurrence{Name: strings.TrimSpace(ev.Name), Date: d, order: i})
		}
	}

	for i, h := range table.Holidays {
		f, err := h.validate()
		if err != nil {
			skip("holiday_period", i, h.Name, err)
			continue
		}
		for _, p := range expandHoliday(h, f, lo, hi) {
			if !p.Extended() {
				logger.Debug().Str("name", p.Name).Msg("ignoring single-day holiday period")
				continue
			}
			c.periods = append(c.periods, p)
		}
	}

	sort.SliceStable(c.events, func(i, j int) bool {
		if cmp := c.events[i].Date.Compare(c.events[j].Date); cmp != 0 {
			return cmp < 0
		}
		return c.events[i].order < c.events[j].order
	})

	logger.Debug().
		Str("from", from.String()).
		Str("to", to.String()).
		Int("events", len(c.events)).
		Int("holidays", len(c.periods)).
		Int("skipped", len(c.skipped)).
		Msg("calendar compiled")

	return c, nil
}

func expandEvent(ev CommercialEvent, f form, lo, hi Date) ([]Date, error) {
	var out []Date
	switch f {
	case formOnce:
		d, err := ParseDate(ev.Date)
		if err != nil {
			return nil, err
		}
		if !d.Before(lo) && !d.After(hi) {
			out = append(out, d)
		}
	case formYearly:
		for y := lo.Year(); y <= hi.Year(); y++ {
			if !occursIn(y, ev.Month, ev.Day) {
				continue
			}
			d := NewDate(y, time.Month(ev.Month), ev.Day)
			if !d.Before(lo) && !d.After(hi) {
				out = append(out, d)
			}
		}
	case formRule:
		r, err := rrule.StrToRRule(ev.RRule)
		if err != nil {
			return nil, fmt.Errorf("invalid rrule: %w", err)
		}
		if !strings.Contains(strings.ToUpper(ev.RRule), "DTSTART") {
			r.DTStart(NewDate(lo.Year(), time.January, 1).Time())
		}
		times := r.Between(lo.Time(), hi.Time(), true)
		if len(times) > maxRuleOccurrences {
			return nil, fmt.Errorf("rrule expands to %d dates, limit is %d", len(times), maxRuleOccurrences)
		}
		for _, t := range times {
			out = append(out, DateOf(t))
		}
	}
	return out, nil
}

func expandHoliday(h HolidayPeriod, f form, lo, hi Date) []Period {
	name := strings.TrimSpace(h.Name)
	if f == formOnce {
		start, _ := ParseDate(h.Start)
		end, _ := ParseDate(h.End)
		return []Period{{Name: name, Start: start, End: end}}
	}

	var out []Period
	wraps := h.EndMonth < h.StartMonth || (h.EndMonth == h.StartMonth && h.EndDay < h.StartDay)
	for y := lo.Year() - 1; y <= hi.Year(); y++ {
		endYear := y
		if wraps {
			endYear++
		}
		// Feb 29 bounds degrade to Feb 28 outside leap years.
		sd := min(h.StartDay, daysIn(time.Month(h.StartMonth), y))
		ed := min(h.EndDay, daysIn(time.Month(h.EndMonth), endYear))
		p := Period{
			Name:  name,
			Start: NewDate(y, time.Month(h.StartMonth), sd),
			End:   NewDate(endYear, time.Month(h.EndMonth), ed),
		}
		if p.End.Before(lo) || p.Start.After(hi) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Window returns the window the calendar was compiled with.
func (c *Calendar) Window() Window { return c.window }

// Covers reports whether d lies inside the compiled range. Context answers
// for any date, but event lookups are only complete inside the range.
func (c *Calendar) Covers(d Date) bool {
	return !d.Before(c.from) && !d.After(c.to)
}

// Events returns the compiled occurrences in date order.
func (c *Calendar) Events() []Occurrence {
	return append([]Occurrence(nil), c.events...)
}

// Skipped returns the entries dropped as malformed.
func (c *Calendar) Skipped() []Skipped {
	return append([]Skipped(nil), c.skipped...)
}
