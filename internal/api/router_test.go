// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/bazaarplan/internal/bazaar"
	"github.com/tomtom215/bazaarplan/internal/calendar"
	"github.com/tomtom215/bazaarplan/internal/events"
	"github.com/tomtom215/bazaarplan/internal/planner"
	"github.com/tomtom215/bazaarplan/internal/store"
)

type fakeJournal []events.Payload

func (j fakeJournal) Recent() []events.Payload { return j }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := store.Open(store.Options{InMemory: true, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	table := calendar.Table{Events: []calendar.CommercialEvent{{Name: "Black Friday", Date: "2024-11-29"}}}
	engine, err := bazaar.NewEngine(bazaar.DefaultPolicy(), table, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	svc := planner.New(engine, st, nil, planner.DefaultOptions(), zerolog.Nop())

	h := NewHandler(svc, HandlerOptions{
		Journal:      fakeJournal{{Type: "scheduled", BazaarID: "b1"}},
		BreakerState: func() string { return "closed" },
		Version:      "test",
	})
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	srv := httptest.NewServer(NewRouter(h, cfg))
	t.Cleanup(srv.Close)
	return srv
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode %s %s: %v", method, path, err)
	}
	return resp.StatusCode, env
}

func TestHealth(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	code, env := do(t, srv, http.MethodGet, "/api/v1/health/live", "")
	if code != http.StatusOK || !env.Success {
		t.Fatalf("live = %d %+v", code, env)
	}

	code, env = do(t, srv, http.MethodGet, "/api/v1/health/ready", "")
	if code != http.StatusOK {
		t.Fatalf("ready = %d", code)
	}
	var status HealthStatus
	if err := json.Unmarshal(env.Data, &status); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if status.EventBus != "closed" || status.Cache == nil || status.Version != "test" {
		t.Errorf("ready status = %+v", status)
	}
}

func TestSuggestions(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	code, env := do(t, srv, http.MethodGet, "/api/v1/suggestions?start=2024-11-17&end=2024-11-17", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d, error = %+v", code, env.Error)
	}
	var set bazaar.SuggestionSet
	if err := json.Unmarshal(env.Data, &set); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(set.Suggestions) != 1 {
		t.Fatalf("suggestions = %d, want 1", len(set.Suggestions))
	}
	if s := set.Suggestions[0]; s.Score != 100 || s.Classification != bazaar.Excellent {
		t.Errorf("2024-11-17 = %d %s, want 100 Excellent", s.Score, s.Classification)
	}
	if env.Meta == nil || env.Meta.RequestID == "" {
		t.Error("response meta should carry the request id")
	}
}

func TestSuggestionsErrors(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	tests := []struct {
		name  string
		query string
		code  string
	}{
		{"bad date", "?start=2024-13-01&end=2024-12-01", ErrCodeValidationFailed},
		{"bad bool", "?weekends_only=maybe", ErrCodeValidationFailed},
		{"end before start", "?start=2024-12-01&end=2024-11-01", ErrCodeBadRequest},
		{"too long", "?start=2024-01-01&end=2026-01-01", ErrCodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			status, env := do(t, srv, http.MethodGet, "/api/v1/suggestions"+tt.query, "")
			if status != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", status)
			}
			if env.Error == nil || env.Error.Code != tt.code {
				t.Errorf("error = %+v, want code %s", env.Error, tt.code)
			}
		})
	}
}

func TestBazaarLifecycle(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	for _, p := range []struct{ id, body string }{
		{"p1", `{"name":"Mug","status":"SOLD"}`},
		{"p2", `{"name":"Print","price_cents":1500}`},
		{"p3", `{"name":"Tote"}`},
	} {
		if code, env := do(t, srv, http.MethodPut, "/api/v1/users/u1/products/"+p.id, p.body); code != http.StatusOK {
			t.Fatalf("put %s = %d %+v", p.id, code, env.Error)
		}
	}

	code, env := do(t, srv, http.MethodPost, "/api/v1/users/u1/bazaars",
		`{"name":"Pre Black Friday","description":"Prints and totes","location":"Studio 4","date":"2024-11-17","product_ids":["p2"]}`)
	if code != http.StatusCreated {
		t.Fatalf("schedule = %d %+v", code, env.Error)
	}
	var scheduled planner.Scheduled
	if err := json.Unmarshal(env.Data, &scheduled); err != nil {
		t.Fatalf("decode scheduled: %v", err)
	}
	if scheduled.Score.Score != 100 {
		t.Errorf("scheduled score = %d, want 100", scheduled.Score.Score)
	}
	if scheduled.Bazaar.Description != "Prints and totes" || scheduled.Bazaar.Location != "Studio 4" {
		t.Errorf("bazaar details = %q / %q", scheduled.Bazaar.Description, scheduled.Bazaar.Location)
	}

	// p1 is sold and p2 is claimed, so only p3 remains.
	code, env = do(t, srv, http.MethodGet, "/api/v1/users/u1/products/eligible", "")
	if code != http.StatusOK {
		t.Fatalf("eligible = %d", code)
	}
	var elig struct {
		Products []struct {
			ID string `json:"id"`
		} `json:"products"`
		Total    int `json:"total"`
		Eligible int `json:"eligible"`
	}
	if err := json.Unmarshal(env.Data, &elig); err != nil {
		t.Fatalf("decode eligibility: %v", err)
	}
	if elig.Eligible != 1 || elig.Products[0].ID != "p3" {
		t.Errorf("eligible = %+v, want only p3", elig)
	}
	if elig.Total != 3 {
		t.Errorf("total = %d, want all 3 products", elig.Total)
	}

	code, env = do(t, srv, http.MethodPost, "/api/v1/users/u1/bazaars",
		`{"name":"Again","date":"2024-11-23","product_ids":["p2"]}`)
	if code != http.StatusConflict || env.Error.Code != ErrCodeProductClaimed {
		t.Errorf("reassign = %d %+v, want 409 PRODUCT_CLAIMED", code, env.Error)
	}
	code, env = do(t, srv, http.MethodPost, "/api/v1/users/u1/bazaars",
		`{"name":"Sold","date":"2024-11-23","product_ids":["p1"]}`)
	if code != http.StatusConflict || env.Error.Code != ErrCodeProductUnavailable {
		t.Errorf("sold product = %d %+v, want 409 PRODUCT_UNAVAILABLE", code, env.Error)
	}

	cancelPath := "/api/v1/users/u1/bazaars/" + scheduled.Bazaar.ID + "/cancel"
	if code, env = do(t, srv, http.MethodPost, cancelPath, ""); code != http.StatusOK {
		t.Fatalf("cancel = %d %+v", code, env.Error)
	}
	if code, env = do(t, srv, http.MethodPost, cancelPath, ""); code != http.StatusConflict {
		t.Errorf("second cancel = %d, want 409", code)
	}

	code, env = do(t, srv, http.MethodGet, "/api/v1/users/u1/bazaars", "")
	if code != http.StatusOK || env.Meta.Count == nil || *env.Meta.Count != 1 {
		t.Errorf("list = %d meta %+v", code, env.Meta)
	}
}

func TestRequestValidation(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"missing name", http.MethodPost, "/api/v1/users/u1/bazaars", `{"date":"2024-11-17"}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, "/api/v1/users/u1/bazaars", `{"name":`, http.StatusBadRequest},
		{"location too long", http.MethodPost, "/api/v1/users/u1/bazaars", `{"name":"x","date":"2024-11-17","location":"` + strings.Repeat("a", 201) + `"}`, http.StatusBadRequest},
		{"bad product id", http.MethodPost, "/api/v1/users/u1/bazaars", `{"name":"x","date":"2024-11-17","product_ids":["a b"]}`, http.StatusBadRequest},
		{"unknown product", http.MethodPost, "/api/v1/users/u1/bazaars", `{"name":"x","date":"2024-11-17","product_ids":["ghost"]}`, http.StatusNotFound},
		{"negative price", http.MethodPut, "/api/v1/users/u1/products/p1", `{"name":"x","price_cents":-1}`, http.StatusBadRequest},
		{"unknown bazaar", http.MethodPost, "/api/v1/users/u1/bazaars/nope/cancel", "", http.StatusNotFound},
		{"unknown route", http.MethodGet, "/api/v1/nothing", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if code, env := do(t, srv, tt.method, tt.path, tt.body); code != tt.status {
				t.Errorf("status = %d, want %d (%+v)", code, tt.status, env.Error)
			}
		})
	}
}

func TestImportAndPlan(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	do(t, srv, http.MethodPut, "/api/v1/users/u2/products/p1", `{"name":"Mug"}`)
	code, env := do(t, srv, http.MethodPost, "/api/v1/users/u2/bazaars/import",
		`{"id":"old-1","name":"Old","date":"2024-10-05","status":"SCHEDULED","productIds":"[\"p1\""}`)
	if code != http.StatusCreated {
		t.Fatalf("import = %d %+v", code, env.Error)
	}

	code, env = do(t, srv, http.MethodGet, "/api/v1/users/u2/plan?start=2024-11-01&end=2024-11-30&weekends_only=true", "")
	if code != http.StatusOK {
		t.Fatalf("plan = %d %+v", code, env.Error)
	}
	var plan planner.Plan
	if err := json.Unmarshal(env.Data, &plan); err != nil {
		t.Fatalf("decode plan: %v", err)
	}
	if plan.Eligibility.Eligible != 1 {
		t.Errorf("malformed import should leave p1 eligible, got %d", plan.Eligibility.Eligible)
	}
	if len(plan.Top) == 0 || plan.Top[0].Date.String() != "2024-11-17" {
		t.Errorf("top = %+v", plan.Top)
	}
	for _, s := range plan.Suggestions.Suggestions {
		if !s.IsWeekend {
			t.Errorf("%s is not a weekend", s.Date)
		}
	}
}

func TestRecentEventsAndMetrics(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	code, env := do(t, srv, http.MethodGet, "/api/v1/events/recent", "")
	if code != http.StatusOK || *env.Meta.Count != 1 {
		t.Errorf("recent = %d %+v", code, env.Meta)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(buf.String(), "bazaarplan_api_requests_total") {
		t.Error("metrics output lacks API request counter")
	}
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/api/v1/health/live")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff header")
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}
}
