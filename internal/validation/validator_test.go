// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

package validation

import (
	"strings"
	"testing"
)

type scheduleForm struct {
	Name       string   `json:"name" validate:"required,max=10"`
	Date       string   `json:"date" validate:"required,civildate"`
	ProductIDs []string `json:"product_ids" validate:"max=2,dive,entityid"`
	Limit      int      `json:"limit" validate:"gte=0,lte=5"`
	Mode       string   `json:"mode" validate:"omitempty,oneof=any weekends"`
}

func TestGetValidatorSingleton(t *testing.T) {
	t.Parallel()
	if GetValidator() != GetValidator() {
		t.Error("GetValidator should return one shared instance")
	}
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	valid := scheduleForm{Name: "Fair", Date: "2024-11-17", ProductIDs: []string{"p1", "p-2"}}

	tests := []struct {
		name    string
		mutate  func(*scheduleForm)
		field   string
		tag     string
		message string
	}{
		{"valid", func(*scheduleForm) {}, "", "", ""},
		{"missing name", func(f *scheduleForm) { f.Name = "" }, "name", "required", "name is required"},
		{"long name", func(f *scheduleForm) { f.Name = strings.Repeat("x", 11) }, "name", "max", "name must be at most 10 characters"},
		{"bad date", func(f *scheduleForm) { f.Date = "2024-02-30" }, "date", "civildate", "date must be a date in YYYY-MM-DD format"},
		{"slash id", func(f *scheduleForm) { f.ProductIDs = []string{"a/b"} }, "product_ids[0]", "entityid", ""},
		{"space id", func(f *scheduleForm) { f.ProductIDs = []string{"a b"} }, "product_ids[0]", "entityid", ""},
		{"too many ids", func(f *scheduleForm) { f.ProductIDs = []string{"a", "b", "c"} }, "product_ids", "max", "product_ids must have at most 2 items"},
		{"limit", func(f *scheduleForm) { f.Limit = 6 }, "limit", "lte", "limit must be less than or equal to 5"},
		{"mode", func(f *scheduleForm) { f.Mode = "never" }, "mode", "oneof", "mode must be one of: any weekends"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			form := valid
			form.ProductIDs = append([]string(nil), valid.ProductIDs...)
			tt.mutate(&form)

			err := ValidateStruct(&form)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if len(err.Fields) != 1 {
				t.Fatalf("fields = %+v, want exactly one", err.Fields)
			}
			got := err.Fields[0]
			if got.Field != tt.field || got.Tag != tt.tag {
				t.Errorf("field/tag = %s/%s, want %s/%s", got.Field, got.Tag, tt.field, tt.tag)
			}
			if tt.message != "" && got.Message != tt.message {
				t.Errorf("message = %q, want %q", got.Message, tt.message)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Parallel()

	err := ValidateStruct(&scheduleForm{})
	if err == nil {
		t.Fatal("expected errors for an empty form")
	}
	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %s", apiErr.Code)
	}
	fields, ok := apiErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 2 {
		t.Errorf("details = %+v, want two field errors", apiErr.Details)
	}
	if !strings.Contains(apiErr.Message, "name is required") || !strings.Contains(apiErr.Message, "date is required") {
		t.Errorf("message = %q", apiErr.Message)
	}

	single := ValidateStruct(&scheduleForm{Name: "x", Date: "nope"}).ToAPIError()
	if single.Details["field"] != "date" {
		t.Errorf("single details = %+v", single.Details)
	}
}
