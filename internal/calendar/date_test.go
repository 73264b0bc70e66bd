// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestParseDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Date
		wantErr bool
	}{
		{input: "2024-11-17", want: NewDate(2024, time.November, 17)},
		{input: " 2024-02-29 ", want: NewDate(2024, time.February, 29)},
		{input: "2023-02-29", wantErr: true},
		{input: "17/11/2024", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDate) {
					t.Fatalf("ParseDate(%q) error = %v, want ErrInvalidDate", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestDateArithmetic(t *testing.T) {
	t.Parallel()

	d := NewDate(2024, time.November, 17)
	if got := d.DaysUntil(NewDate(2024, time.November, 29)); got != 12 {
		t.Errorf("DaysUntil = %d, want 12", got)
	}
	if got := d.DaysUntil(NewDate(2024, time.November, 5)); got != -12 {
		t.Errorf("DaysUntil backwards = %d, want -12", got)
	}
	if got := d.AddDays(15).String(); got != "2024-12-02" {
		t.Errorf("AddDays = %s, want 2024-12-02", got)
	}
	if got := NewDate(2024, time.November, 31).String(); got != "2024-12-01" {
		t.Errorf("NewDate overflow = %s, want 2024-12-01", got)
	}
	if got := d.AddMonths(6).String(); got != "2025-05-17" {
		t.Errorf("AddMonths = %s, want 2025-05-17", got)
	}
	if !d.Before(d.AddDays(1)) || d.After(d.AddDays(1)) {
		t.Error("Before/After inconsistent")
	}
	if d.Weekday() != time.Sunday {
		t.Errorf("Weekday = %v, want Sunday", d.Weekday())
	}
}

func TestDateOfIgnoresClock(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC-3", -3*60*60)
	got := DateOf(time.Date(2024, time.November, 17, 23, 30, 0, 0, loc))
	if got != NewDate(2024, time.November, 17) {
		t.Errorf("DateOf = %s, want 2024-11-17", got)
	}
}

func TestDateJSON(t *testing.T) {
	t.Parallel()

	type payload struct {
		When Date `json:"when"`
	}

	data, err := json.Marshal(payload{When: NewDate(2024, time.November, 29)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"when":"2024-11-29"}` {
		t.Errorf("marshal = %s", data)
	}

	var p payload
	if err := json.Unmarshal([]byte(`{"when":"2025-01-02"}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.When != NewDate(2025, time.January, 2) {
		t.Errorf("unmarshal = %s", p.When)
	}

	if err := json.Unmarshal([]byte(`{"when":"tomorrow"}`), &p); err == nil {
		t.Error("expected error for malformed date")
	}
}
