// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

// Package inventory decides which products a creator can still bring to a
// new bazaar. A product is eligible when it is not in a terminal sales
// status and no active bazaar has already claimed it.
package inventory

import (
	"errors"
	"strings"
	"time"

	"github.com/tomtom215/bazaarplan/internal/calendar"
)

var (
	// ErrProductUnavailable means the product is sold, shipped or otherwise
	// out of circulation.
	ErrProductUnavailable = errors.New("product unavailable")

	// ErrProductClaimed means an active bazaar already references the product.
	ErrProductClaimed = errors.New("product already assigned to an active bazaar")
)

// ProductStatus is the free-form sales status of a product.
type ProductStatus string

const (
	StatusAvailable ProductStatus = "AVAILABLE"
	StatusReserved  ProductStatus = "RESERVED"
	StatusSold      ProductStatus = "SOLD"
	StatusShipped   ProductStatus = "SHIPPED"
)

// Normalize trims and upper-cases the status for comparison.
func (s ProductStatus) Normalize() string {
	return strings.ToUpper(strings.TrimSpace(string(s)))
}

// Product is an inventory item owned by one user.
type Product struct {
	ID         string        `json:"id" validate:"required,max=64"`
	UserID     string        `json:"user_id"`
	Name       string        `json:"name" validate:"required,max=200"`
	Status     ProductStatus `json:"status" validate:"max=32"`
	PriceCents int64         `json:"price_cents" validate:"gte=0"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// EventStatus is the lifecycle status of a bazaar event.
type EventStatus string

const (
	EventScheduled EventStatus = "SCHEDULED"
	EventCompleted EventStatus = "COMPLETED"
	EventCancelled EventStatus = "CANCELLED"
)

// Cancelled reports whether the status releases its products. Both
// spellings and the Portuguese form are accepted.
func (s EventStatus) Cancelled() bool {
	switch strings.ToUpper(strings.TrimSpace(string(s))) {
	case "CANCELLED", "CANCELED", "CANCELADO":
		return true
	}
	return false
}

// BazaarEvent is a scheduled bazaar and the products assigned to it.
// Description and Location are optional.
type BazaarEvent struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Location    string        `json:"location,omitempty"`
	Date        calendar.Date `json:"date"`
	Status      EventStatus   `json:"status"`
	ProductIDs  ProductIDs    `json:"product_ids"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Active reports whether the event still claims its products.
func (e BazaarEvent) Active() bool {
	return !e.Status.Cancelled()
}
