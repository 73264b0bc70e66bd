// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

package calendar

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// ErrMalformedTable is returned when a table document cannot be decoded at
// all. Individual bad entries never produce this error; they are skipped.
var ErrMalformedTable = errors.New("malformed calendar table")

//go:embed default_table.yaml
var defaultTableYAML []byte

// CommercialEvent is one entry of the commercial-events table. Exactly one
// of Date, Month+Day or RRule must be set.
type CommercialEvent struct {
	Name string `yaml:"name" json:"name"`

	// Date is a one-off occurrence in YYYY-MM-DD.
	Date string `yaml:"date,omitempty" json:"date,omitempty"`

	// Month and Day repeat every year.
	Month int `yaml:"month,omitempty" json:"month,omitempty"`
	Day   int `yaml:"day,omitempty" json:"day,omitempty"`

	// RRule is an RFC 5545 recurrence rule, e.g.
	// FREQ=YEARLY;BYMONTH=11;BYDAY=FR;BYMONTHDAY=23,24,25,26,27,28,29
	RRule string `yaml:"rrule,omitempty" json:"rrule,omitempty"`
}

// HolidayPeriod is one entry of the holiday table: either a one-off
// Start..End range or a yearly range given by month/day pairs, which may
// wrap over the new year.
type HolidayPeriod struct {
	Name string `yaml:"name" json:"name"`

	Start string `yaml:"start,omitempty" json:"start,omitempty"`
	End   string `yaml:"end,omitempty" json:"end,omitempty"`

	StartMonth int `yaml:"start_month,omitempty" json:"start_month,omitempty"`
	StartDay   int `yaml:"start_day,omitempty" json:"start_day,omitempty"`
	EndMonth   int `yaml:"end_month,omitempty" json:"end_month,omitempty"`
	EndDay     int `yaml:"end_day,omitempty" json:"end_day,omitempty"`
}

// Table is the static input to the calendar: commercial events plus
// holiday periods.
type Table struct {
	Events   []CommercialEvent `yaml:"events" json:"events"`
	Holidays []HolidayPeriod   `yaml:"holidays" json:"holidays"`
}

// DefaultTable returns the table compiled into the binary.
func DefaultTable() Table {
	t, err := ParseTable(defaultTableYAML)
	if err != nil {
		panic(fmt.Sprintf("calendar: embedded default table: %v", err))
	}
	return t
}

// ParseTable decodes a YAML table document. Entries are not validated here;
// Compile skips the malformed ones.
func ParseTable(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}
	return t, nil
}

// LoadTable reads and decodes a YAML table file.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return Table{}, fmt.Errorf("read calendar table %s: %w", path, err)
	}
	return ParseTable(data)
}

// form identifies which recurrence style an event entry uses.
type form int

const (
	formOnce form = iota + 1
	formYearly
	formRule
)

// validate returns the entry's form or a reason it is malformed.
func (e CommercialEvent) validate() (form, error) {
	if strings.TrimSpace(e.Name) == "" {
		return 0, errors.New("missing name")
	}

	var forms []form
	if e.Date != "" {
		forms = append(forms, formOnce)
	}
	if e.Month != 0 || e.Day != 0 {
		forms = append(forms, formYearly)
	}
	if e.RRule != "" {
		forms = append(forms, formRule)
	}
	if len(forms) != 1 {
		return 0, fmt.Errorf("expected exactly one of date, month/day or rrule, got %d", len(forms))
	}

	switch forms[0] {
	case formOnce:
		if _, err := ParseDate(e.Date); err != nil {
			return 0, err
		}
	case formYearly:
		if !validMonthDay(e.Month, e.Day) {
			return 0, fmt.Errorf("invalid month/day %d/%d", e.Month, e.Day)
		}
	case formRule:
		if _, err := rrule.StrToRRule(e.RRule); err != nil {
			return 0, fmt.Errorf("invalid rrule: %w", err)
		}
	}
	return forms[0], nil
}

// validate returns the entry's form or a reason it is malformed.
func (h HolidayPeriod) validate() (form, error) {
	if strings.TrimSpace(h.Name) == "" {
		return 0, errors.New("missing name")
	}

	once := h.Start != "" || h.End != ""
	yearly := h.StartMonth != 0 || h.StartDay != 0 || h.EndMonth != 0 || h.EndDay != 0
	if once == yearly {
		return 0, errors.New("expected exactly one of start/end or start_month/start_day/end_month/end_day")
	}

	if once {
		start, err := ParseDate(h.Start)
		if err != nil {
			return 0, fmt.Errorf("start: %w", err)
		}
		end, err := ParseDate(h.End)
		if err != nil {
			return 0, fmt.Errorf("end: %w", err)
		}
		if end.Before(start) {
			return 0, fmt.Errorf("end %s before start %s", end, start)
		}
		return formOnce, nil
	}

	if !validMonthDay(h.StartMonth, h.StartDay) {
		return 0, fmt.Errorf("invalid start %d/%d", h.StartMonth, h.StartDay)
	}
	if !validMonthDay(h.EndMonth, h.EndDay) {
		return 0, fmt.Errorf("invalid end %d/%d", h.EndMonth, h.EndDay)
	}
	return formYearly, nil
}
