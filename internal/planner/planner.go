// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

// Package planner ties the scorer, the eligibility filter and the store
// together into the operations the API exposes.
package planner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/bazaarplan/internal/bazaar"
	"github.com/tomtom215/bazaarplan/internal/cache"
	"github.com/tomtom215/bazaarplan/internal/calendar"
	"github.com/tomtom215/bazaarplan/internal/inventory"
	"github.com/tomtom215/bazaarplan/internal/logging"
	"github.com/tomtom215/bazaarplan/internal/metrics"
	"github.com/tomtom215/bazaarplan/internal/store"
)

// ErrInvalidRequest wraps request validation failures.
var ErrInvalidRequest = errors.New("invalid request")

// Store is the persistence the planner needs. *store.Store implements it.
type Store interface {
	PutProduct(ctx context.Context, p inventory.Product) (inventory.Product, error)
	Snapshot(ctx context.Context, userID string) ([]inventory.Product, []inventory.BazaarEvent, error)
	CreateBazaar(ctx context.Context, ev inventory.BazaarEvent) (inventory.BazaarEvent, error)
	CancelBazaar(ctx context.Context, userID, id string) (inventory.BazaarEvent, error)
	ListBazaars(ctx context.Context, userID string) ([]inventory.BazaarEvent, error)
	ImportBazaar(ctx context.Context, userID string, legacy store.LegacyBazaar) (inventory.BazaarEvent, error)
	Filter() *inventory.Filter
}

// Publisher receives bazaar lifecycle notifications. *events.Bus implements it.
type Publisher interface {
	BazaarScheduled(ctx context.Context, ev inventory.BazaarEvent) error
	BazaarCancelled(ctx context.Context, ev inventory.BazaarEvent) error
}

// Options configures a Service.
type Options struct {
	// HorizonMonths is the default suggestion range when none is given.
	HorizonMonths int

	// TopN is how many best dates Plan highlights.
	TopN int

	// Location decides what "today" is.
	Location *time.Location

	CacheSize int
	CacheTTL  time.Duration
}

// DefaultOptions returns a three month horizon and five highlighted dates.
func DefaultOptions() Options {
	return Options{HorizonMonths: 3, TopN: 5, Location: time.UTC, CacheSize: 128, CacheTTL: 10 * time.Minute}
}

// Service implements the planning operations. It is safe for concurrent use.
type Service struct {
	engine    *bazaar.Engine
	store     Store
	publisher Publisher
	cache     *cache.LRU[*bazaar.SuggestionSet]
	opts      Options
	logger    zerolog.Logger
	now       func() time.Time
}

// New builds a Service. publisher may be nil.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(engine *bazaar.Engine, st Store, publisher Publisher, opts Options, logger zerolog.Logger) *Service {
	def := DefaultOptions()
	if opts.HorizonMonths <= 0 {
		opts.HorizonMonths = def.HorizonMonths
	}
	if opts.TopN <= 0 {
		opts.TopN = def.TopN
	}
	if opts.Location == nil {
		opts.Location = def.Location
	}
	return &Service{
		engine:    engine,
		store:     st,
		publisher: publisher,
		cache:     cache.NewLRU[*bazaar.SuggestionSet](opts.CacheSize, opts.CacheTTL),
		opts:      opts,
		logger:    logger.With().Str("component", "planner").Logger(),
		now:       time.Now,
	}
}

// Horizon is an inclusive date range. Zero fields are filled from the
// default horizon.
type Horizon struct {
	Start calendar.Date
	End   calendar.Date
}

func (s *Service) resolve(h Horizon) Horizon {
	if !h.Start.IsZero() && !h.End.IsZero() {
		return h
	}
	if h.Start.IsZero() {
		h.Start = calendar.DateOf(s.now().In(s.opts.Location))
	}
	if h.End.IsZero() {
		_, h.End = bazaar.DefaultHorizon(h.Start, s.opts.HorizonMonths)
	}
	return h
}

// Suggest scores the horizon. Results are cached by range and options; the
// returned set is shared and must not be modified.
func (s *Service) Suggest(ctx context.Context, h Horizon, opts bazaar.Options) (*bazaar.SuggestionSet, error) {
	h = s.resolve(h)
	key := fmt.Sprintf("%s|%s|%t", h.Start, h.End, opts.WeekendsOnly)
	if set, ok := s.cache.Get(key); ok {
		metrics.SuggestionCacheHits.Inc()
		return set, nil
	}
	metrics.SuggestionCacheMisses.Inc()

	set, err := s.engine.ComputeSuggestions(h.Start, h.End, opts)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, set)

	logging.Ctx(ctx).Debug().
		Str("start", h.Start.String()).
		Str("end", h.End.String()).
		Int("suggestions", len(set.Suggestions)).
		Msg("suggestions computed")
	return set, nil
}

// CacheStats reports suggestion cache counters.
func (s *Service) CacheStats() cache.Stats { return s.cache.Stats() }

// EligibleProducts returns the user's products that can join a new bazaar.
func (s *Service) EligibleProducts(ctx context.Context, userID string) (inventory.Eligibility, error) {
	products, bazaars, err := s.store.Snapshot(ctx, userID)
	if err != nil {
		return inventory.Eligibility{}, err
	}
	return s.store.Filter().Eligible(products, bazaars), nil
}

// Plan is a combined view for one user: where to hold a bazaar and what to
// bring.
type Plan struct {
	UserID      string                `json:"user_id"`
	Suggestions *bazaar.SuggestionSet `json:"suggestions"`
	Top         []bazaar.Suggestion   `json:"top"`
	Eligibility inventory.Eligibility `json:"eligibility"`
}

// Plan combines Suggest and EligibleProducts.
func (s *Service) Plan(ctx context.Context, userID string, h Horizon, opts bazaar.Options) (*Plan, error) {
	set, err := s.Suggest(ctx, h, opts)
	if err != nil {
		return nil, err
	}
	elig, err := s.EligibleProducts(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Plan{
		UserID:      userID,
		Suggestions: set,
		Top:         topN(set.Suggestions, s.opts.TopN),
		Eligibility: elig,
	}, nil
}

// topN returns the n best suggestions, earliest first on equal scores.
func topN(all []bazaar.Suggestion, n int) []bazaar.Suggestion {
	out := make([]bazaar.Suggestion, len(all))
	copy(out, all)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// ScheduleRequest describes a bazaar to create.
type ScheduleRequest struct {
	UserID      string
	Name        string
	Description string
	Location    string
	Date        calendar.Date
	ProductIDs  []string
}

// Scheduled is a created bazaar together with how its date scores.
type Scheduled struct {
	Bazaar inventory.BazaarEvent `json:"bazaar"`
	Score  bazaar.Suggestion     `json:"score"`
}

// Schedule creates a bazaar and assigns its products.
func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) (*Scheduled, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	if req.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidRequest)
	}

	scored, err := s.engine.ComputeSuggestions(req.Date, req.Date, bazaar.Options{})
	if err != nil {
		return nil, err
	}

	ev, err := s.store.CreateBazaar(ctx, inventory.BazaarEvent{
		UserID:      req.UserID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Location:    strings.TrimSpace(req.Location),
		Date:        req.Date,
		ProductIDs:  req.ProductIDs,
	})
	if err != nil {
		return nil, err
	}
	metrics.BazaarsScheduled.Inc()
	s.notify(ctx, ev, false)

	return &Scheduled{Bazaar: ev, Score: scored.Suggestions[0]}, nil
}

// Cancel cancels a bazaar and frees its products.
func (s *Service) Cancel(ctx context.Context, userID, bazaarID string) (inventory.BazaarEvent, error) {
	ev, err := s.store.CancelBazaar(ctx, userID, bazaarID)
	if err != nil {
		return inventory.BazaarEvent{}, err
	}
	metrics.BazaarsCancelled.Inc()
	s.notify(ctx, ev, true)
	return ev, nil
}

// ListBazaars returns the user's bazaars by date.
func (s *Service) ListBazaars(ctx context.Context, userID string) ([]inventory.BazaarEvent, error) {
	return s.store.ListBazaars(ctx, userID)
}

// PutProduct creates or replaces a product.
func (s *Service) PutProduct(ctx context.Context, p inventory.Product) (inventory.Product, error) {
	return s.store.PutProduct(ctx, p)
}

// ImportBazaar ingests a legacy bazaar record.
func (s *Service) ImportBazaar(ctx context.Context, userID string, legacy store.LegacyBazaar) (inventory.BazaarEvent, error) {
	ev, err := s.store.ImportBazaar(ctx, userID, legacy)
	if err != nil {
		return inventory.BazaarEvent{}, err
	}
	if ev.Active() {
		s.notify(ctx, ev, false)
	}
	return ev, nil
}

// notify publishes best-effort; the write has already committed.
func (s *Service) notify(ctx context.Context, ev inventory.BazaarEvent, cancelled bool) {
	if s.publisher == nil {
		return
	}
	var err error
	if cancelled {
		err = s.publisher.BazaarCancelled(ctx, ev)
	} else {
		err = s.publisher.BazaarScheduled(ctx, ev)
	}
	if err != nil {
		s.logger.Warn().Err(err).
			Str("bazaar_id", ev.ID).
			Str("correlation_id", logging.CorrelationIDFromContext(ctx)).
			Msg("failed to publish bazaar event")
	}
}
