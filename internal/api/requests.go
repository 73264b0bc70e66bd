// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/bazaarplan/internal/bazaar"
	"github.com/tomtom215/bazaarplan/internal/calendar"
	"github.com/tomtom215/bazaarplan/internal/inventory"
	"github.com/tomtom215/bazaarplan/internal/planner"
	"github.com/tomtom215/bazaarplan/internal/validation"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// SuggestionsQuery is the query string of the suggestion endpoints.
type SuggestionsQuery struct {
	Start        string `json:"start" validate:"omitempty,civildate"`
	End          string `json:"end" validate:"omitempty,civildate"`
	WeekendsOnly string `json:"weekends_only" validate:"omitempty,boolean"`
}

func parseSuggestionsQuery(r *http.Request) (planner.Horizon, bazaar.Options, error) {
	q := r.URL.Query()
	query := SuggestionsQuery{Start: q.Get("start"), End: q.Get("end"), WeekendsOnly: q.Get("weekends_only")}
	if verr := validation.ValidateStruct(&query); verr != nil {
		return planner.Horizon{}, bazaar.Options{}, verr
	}

	var h planner.Horizon
	if query.Start != "" {
		h.Start = calendar.MustParseDate(query.Start)
	}
	if query.End != "" {
		h.End = calendar.MustParseDate(query.End)
	}
	var opts bazaar.Options
	if query.WeekendsOnly != "" {
		opts.WeekendsOnly, _ = strconv.ParseBool(query.WeekendsOnly)
	}
	return h, opts, nil
}

// ScheduleBazaarRequest is the body of POST /users/{userID}/bazaars.
type ScheduleBazaarRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=2000"`
	Location    string   `json:"location" validate:"max=200"`
	Date        string   `json:"date" validate:"required,civildate"`
	ProductIDs  []string `json:"product_ids" validate:"max=500,dive,entityid"`
}

// PutProductRequest is the body of PUT /users/{userID}/products/{productID}.
type PutProductRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	Status     string `json:"status" validate:"max=32"`
	PriceCents int64  `json:"price_cents" validate:"gte=0"`
}

func (req PutProductRequest) product(userID, productID string) inventory.Product {
	return inventory.Product{
		ID:         productID,
		UserID:     userID,
		Name:       req.Name,
		Status:     inventory.ProductStatus(req.Status),
		PriceCents: req.PriceCents,
	}
}

// ImportBazaarRequest is a legacy export record; product_ids arrives as the
// serialized column text and may be malformed.
type ImportBazaarRequest struct {
	ID          string `json:"id" validate:"required,entityid"`
	Name        string `json:"name" validate:"max=200"`
	Description string `json:"description" validate:"max=2000"`
	Location    string `json:"location" validate:"max=200"`
	Date        string `json:"date" validate:"required,civildate"`
	Status      string `json:"status" validate:"max=32"`
	ProductIDs  string `json:"productIds"`
}

// decodeJSON reads a size-limited body into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", errBadBody)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		return verr
	}
	return nil
}

// pathID returns a validated chi URL parameter.
func pathID(r *http.Request, name string) (string, error) {
	id := chi.URLParam(r, name)
	if err := validation.GetValidator().Var(id, "entityid"); err != nil {
		return "", fmt.Errorf("%w: %s %q", errBadPath, name, id)
	}
	return id, nil
}
