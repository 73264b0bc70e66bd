// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

package inventory

import (
	"fmt"
	"strings"

	"github.com/tomtom215/bazaarplan/internal/metrics"
)

// DefaultTerminalStatuses are the statuses that take a product out of
// circulation, including the Portuguese forms used by the storefront.
var DefaultTerminalStatuses = []string{
	"SOLD", "SHIPPED", "DELIVERED",
	"VENDIDO", "ENVIADO", "ENTREGUE",
}

// ExclusionReason says why a product was left out.
type ExclusionReason string

const (
	ExcludedTerminal ExclusionReason = "terminal_status"
	ExcludedClaimed  ExclusionReason = "claimed"
)

// Exclusion records one product left out of the eligible set.
type Exclusion struct {
	ProductID string          `json:"product_id"`
	Reason    ExclusionReason `json:"reason"`
	BazaarID  string          `json:"bazaar_id,omitempty"`
}

// Eligibility is the result of filtering an inventory. Total counts every
// product given, eligible or not.
type Eligibility struct {
	Products []Product   `json:"products"`
	Total    int         `json:"total"`
	Eligible int         `json:"eligible"`
	Claimed  int         `json:"claimed"`
	Excluded []Exclusion `json:"excluded"`
}

// Filter applies the eligibility rule. The zero value is not usable; build
// one with NewFilter.
type Filter struct {
	terminal map[string]struct{}
}

// NewFilter returns a filter treating DefaultTerminalStatuses plus extra as
// terminal. Comparison is case-insensitive.
func NewFilter(extra ...string) *Filter {
	f := &Filter{terminal: make(map[string]struct{}, len(DefaultTerminalStatuses)+len(extra))}
	for _, s := range append(append([]string(nil), DefaultTerminalStatuses...), extra...) {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			f.terminal[s] = struct{}{}
		}
	}
	return f
}

// Terminal reports whether status takes a product out of circulation.
func (f *Filter) Terminal(status ProductStatus) bool {
	_, ok := f.terminal[status.Normalize()]
	return ok
}

// ClaimedSet maps each product ID referenced by an active event to the
// first such event.
func ClaimedSet(events []BazaarEvent) map[string]string {
	claimed := make(map[string]string)
	for _, ev := range events {
		if !ev.Active() {
			continue
		}
		for _, id := range ev.ProductIDs {
			if _, ok := claimed[id]; !ok {
				claimed[id] = ev.ID
			}
		}
	}
	return claimed
}

// Eligible filters products, preserving input order.
func (f *Filter) Eligible(products []Product, events []BazaarEvent) Eligibility {
	claimed := ClaimedSet(events)
	out := Eligibility{
		Products: make([]Product, 0, len(products)),
		Total:    len(products),
		Claimed:  len(claimed),
		Excluded: []Exclusion{},
	}

	for _, p := range products {
		if f.Terminal(p.Status) {
			out.Excluded = append(out.Excluded, Exclusion{ProductID: p.ID, Reason: ExcludedTerminal})
			continue
		}
		if bazaarID, ok := claimed[p.ID]; ok {
			out.Excluded = append(out.Excluded, Exclusion{ProductID: p.ID, Reason: ExcludedClaimed, BazaarID: bazaarID})
			continue
		}
		out.Products = append(out.Products, p)
	}
	out.Eligible = len(out.Products)

	metrics.RecordEligibility(out.Eligible)
	return out
}

// CheckAssignable returns nil when p may be assigned to a new bazaar given
// the bazaar currently claiming it, if any.
func (f *Filter) CheckAssignable(p Product, claimedBy string) error {
	if f.Terminal(p.Status) {
		return fmt.Errorf("%w: %s is %s", ErrProductUnavailable, p.ID, p.Status.Normalize())
	}
	if claimedBy != "" {
		return fmt.Errorf("%w: %s is held by bazaar %s", ErrProductClaimed, p.ID, claimedBy)
	}
	return nil
}

var defaultFilter = NewFilter()

// ComputeEligibleProducts filters products with the default terminal
// statuses.
func ComputeEligibleProducts(products []Product, events []BazaarEvent) Eligibility {
	return defaultFilter.Eligible(products, events)
}
