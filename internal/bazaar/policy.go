// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

package bazaar

import (
	"errors"
	"fmt"

	"github.com/tomtom215/bazaarplan/internal/calendar"
)

// Classification thresholds. Scores at or above GoodMin are framed
// positively.
const (
	ExcellentMin = 90
	VeryGoodMin  = 80
	GoodMin      = 60

	MinScore = 0
	MaxScore = 100
)

// ErrInvalidPolicy wraps every policy validation failure.
var ErrInvalidPolicy = errors.New("invalid scoring policy")

// Policy holds every tunable magnitude of the scorer.
type Policy struct {
	// BaseScore is the starting score of every candidate date.
	BaseScore int `json:"base_score"`

	// WeekendBonus applies on Saturdays and Sundays.
	WeekendBonus int `json:"weekend_bonus"`

	// PaydayBonus applies on calendar.PaydayDays.
	PaydayBonus int `json:"payday_bonus"`

	// ProximityMaxBonus is awarded inside the sweet spot and ramps down
	// linearly outside it.
	ProximityMaxBonus int `json:"proximity_max_bonus"`

	// SweetSpotMinDays and SweetSpotMaxDays bound the ideal lead time before
	// a commercial event.
	SweetSpotMinDays int `json:"sweet_spot_min_days"`
	SweetSpotMaxDays int `json:"sweet_spot_max_days"`

	// WindowDays is how far around a date commercial events are searched.
	WindowDays int `json:"window_days"`

	// HolidayPenalty is subtracted inside an extended holiday period.
	HolidayPenalty int `json:"holiday_penalty"`

	// TipsShown caps the highlighted tips per suggestion.
	TipsShown int `json:"tips_shown"`

	// MaxHorizonDays bounds the number of candidate dates per call.
	MaxHorizonDays int `json:"max_horizon_days"`
}

// DefaultPolicy returns the standard scoring magnitudes.
func DefaultPolicy() Policy {
	return Policy{
		BaseScore:         50,
		WeekendBonus:      25,
		PaydayBonus:       20,
		ProximityMaxBonus: 35,
		SweetSpotMinDays:  10,
		SweetSpotMaxDays:  12,
		WindowDays:        12,
		HolidayPenalty:    15,
		TipsShown:         2,
		MaxHorizonDays:    400,
	}
}

// Window returns the calendar search window described by the policy.
func (p Policy) Window() calendar.Window {
	return calendar.Window{
		Days:         p.WindowDays,
		SweetSpotMin: p.SweetSpotMinDays,
		SweetSpotMax: p.SweetSpotMaxDays,
	}
}

// Validate checks the policy for impossible values.
func (p Policy) Validate() error {
	if p.BaseScore < MinScore || p.BaseScore > MaxScore {
		return fmt.Errorf("%w: base_score must be in [%d, %d], got %d", ErrInvalidPolicy, MinScore, MaxScore, p.BaseScore)
	}
	nonNegative := []struct {
		name  string
		value int
	}{
		{"weekend_bonus", p.WeekendBonus},
		{"payday_bonus", p.PaydayBonus},
		{"proximity_max_bonus", p.ProximityMaxBonus},
		{"holiday_penalty", p.HolidayPenalty},
		{"tips_shown", p.TipsShown},
	}
	for _, f := range nonNegative {
		if f.value < 0 {
			return fmt.Errorf("%w: %s must be non-negative, got %d", ErrInvalidPolicy, f.name, f.value)
		}
	}
	if p.MaxHorizonDays < 1 {
		return fmt.Errorf("%w: max_horizon_days must be positive, got %d", ErrInvalidPolicy, p.MaxHorizonDays)
	}
	if err := p.Window().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	return nil
}
