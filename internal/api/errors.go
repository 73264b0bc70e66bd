// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/bazaarplan/internal/bazaar"
	"github.com/tomtom215/bazaarplan/internal/calendar"
	"github.com/tomtom215/bazaarplan/internal/inventory"
	"github.com/tomtom215/bazaarplan/internal/logging"
	"github.com/tomtom215/bazaarplan/internal/planner"
	"github.com/tomtom215/bazaarplan/internal/store"
	"github.com/tomtom215/bazaarplan/internal/validation"
)

var (
	errBadBody = errors.New("malformed request body")
	errBadPath = errors.New("invalid path parameter")
)

// errorMapping maps domain errors to a status and code, first match wins.
var errorMapping = []struct {
	target error
	status int
	code   string
}{
	{errBadBody, http.StatusBadRequest, ErrCodeBadRequest},
	{errBadPath, http.StatusBadRequest, ErrCodeBadRequest},
	{bazaar.ErrInvalidHorizon, http.StatusBadRequest, ErrCodeBadRequest},
	{bazaar.ErrHorizonTooLong, http.StatusBadRequest, ErrCodeBadRequest},
	{calendar.ErrInvalidDate, http.StatusBadRequest, ErrCodeBadRequest},
	{planner.ErrInvalidRequest, http.StatusBadRequest, ErrCodeBadRequest},
	{store.ErrInvalidID, http.StatusBadRequest, ErrCodeBadRequest},
	{store.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
	{inventory.ErrProductUnavailable, http.StatusConflict, ErrCodeProductUnavailable},
	{inventory.ErrProductClaimed, http.StatusConflict, ErrCodeProductClaimed},
	{store.ErrAlreadyCancelled, http.StatusConflict, ErrCodeConflict},
	{store.ErrConflict, http.StatusConflict, ErrCodeConflict},
}

// writeError maps err onto the response. Unknown errors are logged and
// reported as 500 without their message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	rw := NewResponseWriter(w, r)

	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	for _, m := range errorMapping {
		if errors.Is(err, m.target) {
			rw.Error(m.status, m.code, err.Error())
			return
		}
	}

	logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	rw.InternalError("internal error")
}
