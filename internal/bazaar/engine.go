// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

package bazaar

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/bazaarplan/internal/calendar"
	"github.com/tomtom215/bazaarplan/internal/logging"
	"github.com/tomtom215/bazaarplan/internal/metrics"
)

var (
	// ErrInvalidHorizon is returned when the horizon end precedes its start.
	ErrInvalidHorizon = errors.New("invalid horizon")

	// ErrHorizonTooLong is returned when the horizon exceeds MaxHorizonDays.
	ErrHorizonTooLong = errors.New("horizon too long")
)

// Engine scores planning horizons against a fixed table and policy. It
// holds no mutable state and is safe for concurrent use.
type Engine struct {
	policy Policy
	table  calendar.Table
	logger zerolog.Logger
}

// NewEngine validates policy and returns an engine.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEngine(policy Policy, table calendar.Table, logger zerolog.Logger) (*Engine, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		policy: policy,
		table:  table,
		logger: logger.With().Str("component", "bazaar").Logger(),
	}, nil
}

// ComputeSuggestions scores every candidate date in the default policy
// against table. It is the engine-free entry point for one-off use.
func ComputeSuggestions(start, end calendar.Date, table calendar.Table) (*SuggestionSet, error) {
	engine, err := NewEngine(DefaultPolicy(), table, logging.Logger())
	if err != nil {
		return nil, err
	}
	return engine.ComputeSuggestions(start, end, Options{})
}

// Policy returns the engine's scoring policy.
func (e *Engine) Policy() Policy { return e.policy }

// DefaultHorizon returns the inclusive range of the given number of months
// starting today.
func DefaultHorizon(today calendar.Date, months int) (calendar.Date, calendar.Date) {
	return today, today.AddMonths(months).AddDays(-1)
}

// ComputeSuggestions scores every candidate date in the inclusive range
// start..end.
func (e *Engine) ComputeSuggestions(start, end calendar.Date, opts Options) (*SuggestionSet, error) {
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("%w: start and end are required", ErrInvalidHorizon)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s before start %s", ErrInvalidHorizon, end, start)
	}
	if days := start.DaysUntil(end) + 1; days > e.policy.MaxHorizonDays {
		return nil, fmt.Errorf("%w: %d days, limit is %d", ErrHorizonTooLong, days, e.policy.MaxHorizonDays)
	}

	began := time.Now()

	cal, err := calendar.Compile(e.table, start, end, e.policy.Window(), e.logger)
	if err != nil {
		return nil, fmt.Errorf("compile calendar: %w", err)
	}

	set := &SuggestionSet{
		Start:          start,
		End:            end,
		SkippedEntries: len(cal.Skipped()),
	}
	byClass := make(map[string]int)

	for d := start; !d.After(end); d = d.AddDays(1) {
		if opts.WeekendsOnly && !calendar.IsWeekend(d) {
			continue
		}
		s := e.scoreDay(cal.Context(d))
		set.Suggestions = append(set.Suggestions, s)
		byClass[string(s.Classification)]++
	}
	set.Months = groupByMonth(set.Suggestions)

	metrics.RecordScoring(time.Since(began), byClass)
	e.logger.Debug().
		Str("start", start.String()).
		Str("end", end.String()).
		Int("candidates", len(set.Suggestions)).
		Int("skipped_entries", set.SkippedEntries).
		Dur("duration", time.Since(began)).
		Msg("suggestions computed")

	return set, nil
}

// groupByMonth buckets chronologically ordered suggestions by (year, month)
// and sorts each bucket by score, then date.
func groupByMonth(suggestions []Suggestion) []MonthGroup {
	var groups []MonthGroup
	for _, s := range suggestions {
		n := len(groups)
		if n == 0 || groups[n-1].Year != s.Date.Year() || groups[n-1].Month != s.Date.Month() {
			groups = append(groups, MonthGroup{Year: s.Date.Year(), Month: s.Date.Month()})
			n++
		}
		groups[n-1].Suggestions = append(groups[n-1].Suggestions, s)
	}

	for i := range groups {
		month := groups[i].Suggestions
		sort.SliceStable(month, func(a, b int) bool {
			if month[a].Score != month[b].Score {
				return month[a].Score > month[b].Score
			}
			return month[a].Date.Before(month[b].Date)
		})
	}
	return groups
}
