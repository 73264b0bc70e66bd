// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/bazaarplan/internal/bazaar"
	"github.com/tomtom215/bazaarplan/internal/cache"
	"github.com/tomtom215/bazaarplan/internal/calendar"
	"github.com/tomtom215/bazaarplan/internal/events"
	"github.com/tomtom215/bazaarplan/internal/inventory"
	"github.com/tomtom215/bazaarplan/internal/logging"
	"github.com/tomtom215/bazaarplan/internal/planner"
	"github.com/tomtom215/bazaarplan/internal/store"
)

// Planner is the subset of *planner.Service the handlers call.
type Planner interface {
	Suggest(ctx context.Context, h planner.Horizon, opts bazaar.Options) (*bazaar.SuggestionSet, error)
	Plan(ctx context.Context, userID string, h planner.Horizon, opts bazaar.Options) (*planner.Plan, error)
	EligibleProducts(ctx context.Context, userID string) (inventory.Eligibility, error)
	Schedule(ctx context.Context, req planner.ScheduleRequest) (*planner.Scheduled, error)
	Cancel(ctx context.Context, userID, bazaarID string) (inventory.BazaarEvent, error)
	ListBazaars(ctx context.Context, userID string) ([]inventory.BazaarEvent, error)
	PutProduct(ctx context.Context, p inventory.Product) (inventory.Product, error)
	ImportBazaar(ctx context.Context, userID string, legacy store.LegacyBazaar) (inventory.BazaarEvent, error)
	CacheStats() cache.Stats
}

// EventJournal exposes recently published events. *events.Journal implements it.
type EventJournal interface {
	Recent() []events.Payload
}

// Handler serves the API endpoints.
type Handler struct {
	planner Planner
	journal EventJournal
	breaker func() string
	version string
	started time.Time
}

// HandlerOptions are the optional collaborators of a Handler.
type HandlerOptions struct {
	Journal      EventJournal
	BreakerState func() string
	Version      string
}

// NewHandler returns a Handler backed by p.
func NewHandler(p Planner, opts HandlerOptions) *Handler {
	return &Handler{
		planner: p,
		journal: opts.Journal,
		breaker: opts.BreakerState,
		version: opts.Version,
		started: time.Now(),
	}
}

// HealthStatus is the body of the health endpoints.
type HealthStatus struct {
	Status        string       `json:"status"`
	Version       string       `json:"version,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	EventBus      string       `json:"event_bus,omitempty"`
	Cache         *cache.Stats `json:"cache,omitempty"`
}

// HealthLive reports that the process is serving.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(HealthStatus{
		Status:        "ok",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	})
}

// HealthReady adds dependency state. An open event bus breaker degrades
// readiness but does not fail it; writes still succeed.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:        "ok",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	}
	stats := h.planner.CacheStats()
	status.Cache = &stats
	if h.breaker != nil {
		status.EventBus = h.breaker()
		if status.EventBus == "open" {
			status.Status = "degraded"
		}
	}
	NewResponseWriter(w, r).Success(status)
}

// Suggestions handles GET /suggestions.
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	horizon, opts, err := parseSuggestionsQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	set, err := h.planner.Suggest(r.Context(), horizon, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(set)
}

// UserPlan handles GET /users/{userID}/plan.
func (h *Handler) UserPlan(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	horizon, opts, err := parseSuggestionsQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	plan, err := h.planner.Plan(r.Context(), userID, horizon, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(plan)
}

// EligibleProducts handles GET /users/{userID}/products/eligible.
func (h *Handler) EligibleProducts(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	elig, err := h.planner.EligibleProducts(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(elig)
}

// PutProduct handles PUT /users/{userID}/products/{productID}.
func (h *Handler) PutProduct(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	productID, err := pathID(r, "productID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req PutProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.planner.PutProduct(r.Context(), req.product(userID, productID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(p)
}

// ListBazaars handles GET /users/{userID}/bazaars.
func (h *Handler) ListBazaars(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.planner.ListBazaars(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []inventory.BazaarEvent{}
	}
	NewResponseWriter(w, r).List(list, len(list))
}

// ScheduleBazaar handles POST /users/{userID}/bazaars.
func (h *Handler) ScheduleBazaar(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req ScheduleBazaarRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	scheduled, err := h.planner.Schedule(r.Context(), planner.ScheduleRequest{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Date:        calendar.MustParseDate(req.Date),
		ProductIDs:  req.ProductIDs,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().
		Str("user_id", userID).
		Str("bazaar_id", scheduled.Bazaar.ID).
		Int("score", scheduled.Score.Score).
		Msg("bazaar scheduled")
	NewResponseWriter(w, r).Created(scheduled)
}

// CancelBazaar handles POST /users/{userID}/bazaars/{bazaarID}/cancel.
func (h *Handler) CancelBazaar(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	bazaarID, err := pathID(r, "bazaarID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ev, err := h.planner.Cancel(r.Context(), userID, bazaarID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(ev)
}

// ImportBazaar handles POST /users/{userID}/bazaars/import.
func (h *Handler) ImportBazaar(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req ImportBazaarRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ev, err := h.planner.ImportBazaar(r.Context(), userID, store.LegacyBazaar{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Date:        req.Date,
		Status:      req.Status,
		ProductIDs:  req.ProductIDs,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Created(ev)
}

// RecentEvents handles GET /events/recent.
func (h *Handler) RecentEvents(w http.ResponseWriter, r *http.Request) {
	recent := []events.Payload{}
	if h.journal != nil {
		recent = append(recent, h.journal.Recent()...)
	}
	NewResponseWriter(w, r).List(recent, len(recent))
}
