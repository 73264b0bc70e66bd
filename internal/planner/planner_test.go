// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

package planner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/bazaarplan/internal/bazaar"
	"github.com/tomtom215/bazaarplan/internal/calendar"
	"github.com/tomtom215/bazaarplan/internal/inventory"
	"github.com/tomtom215/bazaarplan/internal/store"
)

type recordingPublisher struct {
	mu        sync.Mutex
	scheduled []string
	cancelled []string
	err       error
}

func (p *recordingPublisher) BazaarScheduled(_ context.Context, ev inventory.BazaarEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scheduled = append(p.scheduled, ev.ID)
	return p.err
}

func (p *recordingPublisher) BazaarCancelled(_ context.Context, ev inventory.BazaarEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = append(p.cancelled, ev.ID)
	return p.err
}

var testTable = calendar.Table{
	Events: []calendar.CommercialEvent{{Name: "Black Friday", Date: "2024-11-29"}},
}

func newTestService(t *testing.T, pub Publisher) *Service {
	t.Helper()
	st, err := store.Open(store.Options{InMemory: true, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	engine, err := bazaar.NewEngine(bazaar.DefaultPolicy(), testTable, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	svc := New(engine, st, pub, DefaultOptions(), zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2024, 11, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func putProducts(t *testing.T, svc *Service, user string, products ...inventory.Product) {
	t.Helper()
	for _, p := range products {
		p.UserID = user
		if _, err := svc.PutProduct(context.Background(), p); err != nil {
			t.Fatalf("PutProduct(%s): %v", p.ID, err)
		}
	}
}

func TestSuggestDefaultHorizonAndCache(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, nil)
	ctx := context.Background()

	first, err := svc.Suggest(ctx, Horizon{}, bazaar.Options{})
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if got, want := first.Start.String(), "2024-11-01"; got != want {
		t.Errorf("start = %s, want %s", got, want)
	}
	if got, want := first.End.String(), "2025-01-31"; got != want {
		t.Errorf("end = %s, want %s", got, want)
	}

	second, err := svc.Suggest(ctx, Horizon{}, bazaar.Options{})
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if first != second {
		t.Error("second call should be served from cache")
	}
	if stats := svc.CacheStats(); stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("cache stats = %+v, want 1 hit and 1 miss", stats)
	}

	weekends, err := svc.Suggest(ctx, Horizon{}, bazaar.Options{WeekendsOnly: true})
	if err != nil {
		t.Fatalf("Suggest weekends: %v", err)
	}
	if weekends == first {
		t.Error("options must be part of the cache key")
	}
}

func TestSuggestInvalidHorizon(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, nil)
	_, err := svc.Suggest(context.Background(), Horizon{
		Start: calendar.MustParseDate("2024-12-01"),
		End:   calendar.MustParseDate("2024-11-01"),
	}, bazaar.Options{})
	if !errors.Is(err, bazaar.ErrInvalidHorizon) {
		t.Errorf("error = %v, want ErrInvalidHorizon", err)
	}
}

func TestPlan(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, nil)
	putProducts(t, svc, "u1",
		inventory.Product{ID: "p1", Name: "Mug", Status: inventory.StatusAvailable},
		inventory.Product{ID: "p2", Name: "Print", Status: inventory.StatusSold},
	)

	plan, err := svc.Plan(context.Background(), "u1", Horizon{
		Start: calendar.MustParseDate("2024-11-01"),
		End:   calendar.MustParseDate("2024-11-30"),
	}, bazaar.Options{})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Top) != 5 {
		t.Fatalf("top = %d entries, want 5", len(plan.Top))
	}
	if got := plan.Top[0]; got.Date.String() != "2024-11-17" || got.Score != 100 {
		t.Errorf("best date = %s (%d), want 2024-11-17 (100)", got.Date, got.Score)
	}
	for i := 1; i < len(plan.Top); i++ {
		if plan.Top[i].Score > plan.Top[i-1].Score {
			t.Errorf("top not sorted at %d", i)
		}
	}
	if plan.Eligibility.Eligible != 1 || plan.Eligibility.Products[0].ID != "p1" {
		t.Errorf("eligibility = %+v, want only p1", plan.Eligibility)
	}
}

func TestScheduleAndCancel(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{}
	svc := newTestService(t, pub)
	ctx := context.Background()
	putProducts(t, svc, "u1",
		inventory.Product{ID: "p1", Name: "Mug"},
		inventory.Product{ID: "p2", Name: "Print"},
	)

	got, err := svc.Schedule(ctx, ScheduleRequest{
		UserID:      "u1",
		Name:        " Pre Black Friday ",
		Description: "Ceramics ",
		Location:    " Market square",
		Date:        calendar.MustParseDate("2024-11-17"),
		ProductIDs:  []string{"p1"},
	})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if got.Bazaar.Name != "Pre Black Friday" || got.Bazaar.Status != inventory.EventScheduled {
		t.Errorf("bazaar = %+v", got.Bazaar)
	}
	if got.Bazaar.Description != "Ceramics" || got.Bazaar.Location != "Market square" {
		t.Errorf("details = %q / %q, want trimmed", got.Bazaar.Description, got.Bazaar.Location)
	}
	if got.Score.Score != 100 || got.Score.Classification != bazaar.Excellent {
		t.Errorf("score = %d %s, want 100 Excellent", got.Score.Score, got.Score.Classification)
	}

	elig, err := svc.EligibleProducts(ctx, "u1")
	if err != nil {
		t.Fatalf("EligibleProducts: %v", err)
	}
	if elig.Eligible != 1 || elig.Products[0].ID != "p2" {
		t.Errorf("eligible = %+v, want only p2", elig.Products)
	}

	_, err = svc.Schedule(ctx, ScheduleRequest{
		UserID:     "u1",
		Name:       "Second",
		Date:       calendar.MustParseDate("2024-11-23"),
		ProductIDs: []string{"p1"},
	})
	if !errors.Is(err, inventory.ErrProductClaimed) {
		t.Errorf("reassigning p1: error = %v, want ErrProductClaimed", err)
	}

	if _, err := svc.Cancel(ctx, "u1", got.Bazaar.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	elig, err = svc.EligibleProducts(ctx, "u1")
	if err != nil {
		t.Fatalf("EligibleProducts: %v", err)
	}
	if elig.Eligible != 2 {
		t.Errorf("eligible after cancel = %d, want 2", elig.Eligible)
	}

	list, err := svc.ListBazaars(ctx, "u1")
	if err != nil {
		t.Fatalf("ListBazaars: %v", err)
	}
	if len(list) != 1 || list[0].Status != inventory.EventCancelled {
		t.Errorf("bazaars = %+v", list)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.scheduled) != 1 || len(pub.cancelled) != 1 {
		t.Errorf("published scheduled=%v cancelled=%v", pub.scheduled, pub.cancelled)
	}
}

func TestScheduleValidation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, nil)
	tests := []struct {
		name string
		req  ScheduleRequest
	}{
		{"missing name", ScheduleRequest{UserID: "u1", Date: calendar.MustParseDate("2024-11-17")}},
		{"missing date", ScheduleRequest{UserID: "u1", Name: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := svc.Schedule(context.Background(), tt.req); !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("error = %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{err: errors.New("bus down")}
	svc := newTestService(t, pub)
	putProducts(t, svc, "u1", inventory.Product{ID: "p1", Name: "Mug"})

	if _, err := svc.Schedule(context.Background(), ScheduleRequest{
		UserID: "u1", Name: "Market", Date: calendar.MustParseDate("2024-11-16"), ProductIDs: []string{"p1"},
	}); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
}

func TestImportBazaar(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{}
	svc := newTestService(t, pub)
	ctx := context.Background()
	putProducts(t, svc, "u1", inventory.Product{ID: "p1", Name: "Mug"})

	ev, err := svc.ImportBazaar(ctx, "u1", store.LegacyBazaar{
		ID: "legacy-1", Name: "Old fair", Date: "2024-10-05", Status: "scheduled", ProductIDs: `["p1"`,
	})
	if err != nil {
		t.Fatalf("ImportBazaar: %v", err)
	}
	if len(ev.ProductIDs) != 0 {
		t.Errorf("malformed product ids imported as %v, want empty", ev.ProductIDs)
	}

	elig, err := svc.EligibleProducts(ctx, "u1")
	if err != nil {
		t.Fatalf("EligibleProducts: %v", err)
	}
	if elig.Eligible != 1 {
		t.Errorf("eligible = %d, want 1", elig.Eligible)
	}
	if len(pub.scheduled) != 1 {
		t.Errorf("scheduled events = %v", pub.scheduled)
	}
}

func TestTopNStable(t *testing.T) {
	t.Parallel()

	all := []bazaar.Suggestion{
		{Date: calendar.MustParseDate("2024-11-01"), Score: 70},
		{Date: calendar.MustParseDate("2024-11-02"), Score: 90},
		{Date: calendar.MustParseDate("2024-11-03"), Score: 70},
	}
	got := topN(all, 2)
	if len(got) != 2 || got[0].Score != 90 || got[1].Date.String() != "2024-11-01" {
		t.Errorf("topN = %+v", got)
	}
	if all[0].Score != 70 {
		t.Error("topN must not reorder its input")
	}
}
