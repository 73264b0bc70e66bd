// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

// Package config loads the server configuration. Values are layered with
// koanf: built-in defaults, then an optional YAML file, then environment
// variables.
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/bazaarplan/internal/bazaar"
	"github.com/tomtom215/bazaarplan/internal/events"
	"github.com/tomtom215/bazaarplan/internal/logging"
	"github.com/tomtom215/bazaarplan/internal/planner"
)

// Config is the complete server configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Store     StoreConfig     `koanf:"store"`
	Calendar  CalendarConfig  `koanf:"calendar"`
	Scoring   ScoringConfig   `koanf:"scoring"`
	Planner   PlannerConfig   `koanf:"planner"`
	Inventory InventoryConfig `koanf:"inventory"`
	Cache     CacheConfig     `koanf:"cache"`
	Events    EventsConfig    `koanf:"events"`
	Security  SecurityConfig  `koanf:"security"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Environment is development, staging or production.
	Environment string `koanf:"environment" validate:"oneof=development staging production"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	// Level is trace, debug, info, warn, error or off. Default: info
	Level string `koanf:"level"`

	// Format is json or console. Default: json
	Format string `koanf:"format" validate:"oneof=json console"`

	Caller bool `koanf:"caller"`
}

// Logging converts to the logger configuration.
func (l LoggingConfig) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level, cfg.Format, cfg.Caller = l.Level, l.Format, l.Caller
	return cfg
}

// StoreConfig locates the badger database.
type StoreConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// CalendarConfig points at the commercial calendar table.
type CalendarConfig struct {
	// TablePath is a YAML table file. Empty uses the built-in table.
	TablePath string `koanf:"table_path"`
}

// ScoringConfig overrides the scoring policy.
type ScoringConfig struct {
	BaseScore         int `koanf:"base_score"`
	WeekendBonus      int `koanf:"weekend_bonus"`
	PaydayBonus       int `koanf:"payday_bonus"`
	ProximityMaxBonus int `koanf:"proximity_max_bonus"`
	SweetSpotMinDays  int `koanf:"sweet_spot_min_days"`
	SweetSpotMaxDays  int `koanf:"sweet_spot_max_days"`
	WindowDays        int `koanf:"window_days"`
	HolidayPenalty    int `koanf:"holiday_penalty"`
	TipsShown         int `koanf:"tips_shown"`
	MaxHorizonDays    int `koanf:"max_horizon_days"`
}

// Policy converts to a scoring policy.
func (s ScoringConfig) Policy() bazaar.Policy {
	return bazaar.Policy{
		BaseScore:         s.BaseScore,
		WeekendBonus:      s.WeekendBonus,
		PaydayBonus:       s.PaydayBonus,
		ProximityMaxBonus: s.ProximityMaxBonus,
		SweetSpotMinDays:  s.SweetSpotMinDays,
		SweetSpotMaxDays:  s.SweetSpotMaxDays,
		WindowDays:        s.WindowDays,
		HolidayPenalty:    s.HolidayPenalty,
		TipsShown:         s.TipsShown,
		MaxHorizonDays:    s.MaxHorizonDays,
	}
}

func scoringOf(p bazaar.Policy) ScoringConfig {
	return ScoringConfig{
		BaseScore:         p.BaseScore,
		WeekendBonus:      p.WeekendBonus,
		PaydayBonus:       p.PaydayBonus,
		ProximityMaxBonus: p.ProximityMaxBonus,
		SweetSpotMinDays:  p.SweetSpotMinDays,
		SweetSpotMaxDays:  p.SweetSpotMaxDays,
		WindowDays:        p.WindowDays,
		HolidayPenalty:    p.HolidayPenalty,
		TipsShown:         p.TipsShown,
		MaxHorizonDays:    p.MaxHorizonDays,
	}
}

// PlannerConfig tunes default horizons.
type PlannerConfig struct {
	HorizonMonths int `koanf:"horizon_months" validate:"gte=1,lte=12"`
	TopN          int `koanf:"top_n" validate:"gte=1,lte=31"`

	// Timezone is an IANA name deciding what "today" is.
	Timezone string `koanf:"timezone"`
}

// InventoryConfig extends the terminal product statuses.
type InventoryConfig struct {
	TerminalStatuses []string `koanf:"terminal_statuses"`
}

// CacheConfig sizes the suggestion cache.
type CacheConfig struct {
	Size int           `koanf:"size" validate:"gte=1"`
	TTL  time.Duration `koanf:"ttl"`
}

// EventsConfig tunes the in-process event bus.
type EventsConfig struct {
	Enabled          bool          `koanf:"enabled"`
	BufferSize       int64         `koanf:"buffer_size" validate:"gte=0"`
	FailureThreshold uint32        `koanf:"failure_threshold" validate:"gte=1"`
	BreakerTimeout   time.Duration `koanf:"breaker_timeout"`
	JournalSize      int           `koanf:"journal_size" validate:"gte=1"`
}

// Bus converts to the event bus configuration.
func (e EventsConfig) Bus() events.Config {
	return events.Config{BufferSize: e.BufferSize, FailureThreshold: e.FailureThreshold, BreakerTimeout: e.BreakerTimeout}
}

// SecurityConfig holds CORS and rate limiting.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// PlannerOptions converts planner and cache settings.
func (c *Config) PlannerOptions() (planner.Options, error) {
	loc, err := time.LoadLocation(c.Planner.Timezone)
	if err != nil {
		return planner.Options{}, fmt.Errorf("planner timezone %q: %w", c.Planner.Timezone, err)
	}
	return planner.Options{
		HorizonMonths: c.Planner.HorizonMonths,
		TopN:          c.Planner.TopN,
		Location:      loc,
		CacheSize:     c.Cache.Size,
		CacheTTL:      c.Cache.TTL,
	}, nil
}

func defaultConfig() *Config {
	bus := events.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8457,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Store: StoreConfig{
			Path: "/data/bazaarplan",
		},
		Scoring: scoringOf(bazaar.DefaultPolicy()),
		Planner: PlannerConfig{
			HorizonMonths: 3,
			TopN:          5,
			Timezone:      "UTC",
		},
		Cache: CacheConfig{
			Size: 128,
			TTL:  10 * time.Minute,
		},
		Events: EventsConfig{
			Enabled:          true,
			BufferSize:       bus.BufferSize,
			FailureThreshold: bus.FailureThreshold,
			BreakerTimeout:   bus.BreakerTimeout,
			JournalSize:      100,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
	}
}
