// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

// Package api is the HTTP surface of the planner, routed with chi.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/bazaarplan/internal/middleware"
)

// NewRouter wires every route. A nil config uses the middleware defaults.
func NewRouter(h *Handler, config *ChiMiddlewareConfig) http.Handler {
	mw := NewChiMiddleware(config)
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AccessLog)
	r.Use(mw.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(mw.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		r.Get("/suggestions", h.Suggestions)
		r.Get("/events/recent", h.RecentEvents)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/plan", h.UserPlan)
			r.Get("/products/eligible", h.EligibleProducts)
			r.Get("/bazaars", h.ListBazaars)

			r.Group(func(r chi.Router) {
				r.Use(mw.RateLimitWrite())
				r.Put("/products/{productID}", h.PutProduct)
				r.Post("/bazaars", h.ScheduleBazaar)
				r.Post("/bazaars/import", h.ImportBazaar)
				r.Post("/bazaars/{bazaarID}/cancel", h.CancelBazaar)
			})
		})
	})

	return r
}
