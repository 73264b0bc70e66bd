// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func histogramCount(t *testing.T, h interface{ Write(*dto.Metric) error }) uint64 {
	t.Helper()
	var m dto.Metric
	if err := h.Write(&m); err != nil {
		t.Fatalf("write histogram: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestRecordScoring(t *testing.T) {
	before := testutil.ToFloat64(SuggestionsComputed)
	beforeExcellent := testutil.ToFloat64(SuggestionsByClass.WithLabelValues("Excellent"))

	beforeRuns := histogramCount(t, ScoringDuration)

	RecordScoring(2*time.Millisecond, map[string]int{"Excellent": 2, "Good": 3})

	if got := histogramCount(t, ScoringDuration) - beforeRuns; got != 1 {
		t.Errorf("scoring runs delta = %d, want 1", got)
	}

	if got := testutil.ToFloat64(SuggestionsComputed) - before; got != 5 {
		t.Errorf("suggestions computed delta = %v, want 5", got)
	}
	if got := testutil.ToFloat64(SuggestionsByClass.WithLabelValues("Excellent")) - beforeExcellent; got != 2 {
		t.Errorf("excellent delta = %v, want 2", got)
	}
}

func TestRecordStoreOperation(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		err       error
		wantErrs  float64
	}{
		{name: "success", operation: "test_get", err: nil, wantErrs: 0},
		{name: "failure", operation: "test_put", err: errors.New("disk full"), wantErrs: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(StoreErrors.WithLabelValues(tt.operation))
			RecordStoreOperation(tt.operation, time.Millisecond, tt.err)
			if got := testutil.ToFloat64(StoreErrors.WithLabelValues(tt.operation)) - before; got != tt.wantErrs {
				t.Errorf("store errors delta = %v, want %v", got, tt.wantErrs)
			}
		})
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/test", "200"))
	RecordAPIRequest("GET", "/test", 200, 3*time.Millisecond)
	if got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/test", "200")) - before; got != 1 {
		t.Errorf("api requests delta = %v, want 1", got)
	}
}

func TestRecordEligibility(t *testing.T) {
	before := testutil.ToFloat64(EligibilityChecks)
	beforeObs := histogramCount(t, EligibleProducts)

	RecordEligibility(7)

	if got := testutil.ToFloat64(EligibilityChecks) - before; got != 1 {
		t.Errorf("eligibility checks delta = %v, want 1", got)
	}
	if got := histogramCount(t, EligibleProducts) - beforeObs; got != 1 {
		t.Errorf("eligible products observations delta = %d, want 1", got)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	TrackActiveRequest(true)
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests) - before; got != 1 {
		t.Errorf("active requests delta = %v, want 1", got)
	}
	TrackActiveRequest(false)
}
