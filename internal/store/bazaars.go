// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/tomtom215/bazaarplan/internal/calendar"
	"github.com/tomtom215/bazaarplan/internal/inventory"
	"github.com/tomtom215/bazaarplan/internal/metrics"
)

// CreateBazaar stores a new bazaar and claims its products. It fails with
// inventory.ErrProductUnavailable or inventory.ErrProductClaimed when any
// product cannot be assigned, and with ErrNotFound for unknown products;
// nothing is written in that case.
func (s *Store) CreateBazaar(ctx context.Context, ev inventory.BazaarEvent) (inventory.BazaarEvent, error) {
	if err := validID(ev.UserID); err != nil {
		return inventory.BazaarEvent{}, err
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if err := validID(ev.ID); err != nil {
		return inventory.BazaarEvent{}, err
	}
	if ev.Date.IsZero() {
		return inventory.BazaarEvent{}, fmt.Errorf("bazaar %s: %w", ev.ID, calendar.ErrInvalidDate)
	}
	if ev.Status == "" {
		ev.Status = inventory.EventScheduled
	}
	now := s.now().UTC()
	ev.CreatedAt, ev.UpdatedAt = now, now
	ev.ProductIDs = inventory.NewProductIDs(ev.ProductIDs...)

	err := s.update(ctx, "create_bazaar", func(txn *badger.Txn) error {
		return s.insertBazaar(txn, &ev)
	})
	if err != nil {
		if errors.Is(err, inventory.ErrProductClaimed) || errors.Is(err, inventory.ErrProductUnavailable) {
			metrics.AssignmentConflicts.Inc()
		}
		return inventory.BazaarEvent{}, err
	}

	s.logger.Info().
		Str("user_id", ev.UserID).
		Str("bazaar_id", ev.ID).
		Str("date", ev.Date.String()).
		Int("products", len(ev.ProductIDs)).
		Msg("bazaar created")
	return ev, nil
}

// insertBazaar writes ev and, when it is active, its claims.
func (s *Store) insertBazaar(txn *badger.Txn, ev *inventory.BazaarEvent) error {
	key := bazaarKey(ev.UserID, ev.ID)
	if _, err := txn.Get(key); err == nil {
		return fmt.Errorf("bazaar %s already exists: %w", ev.ID, ErrConflict)
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("get bazaar: %w", err)
	}

	if ev.Active() {
		for _, pid := range ev.ProductIDs {
			if err := s.claim(txn, ev.UserID, pid, ev.ID); err != nil {
				return err
			}
		}
	}
	rec := recordOf(ev)
	return setJSON(txn, key, &rec)
}

// claim checks that pid can be assigned and records bazaarID as its holder.
func (s *Store) claim(txn *badger.Txn, userID, pid, bazaarID string) error {
	var p inventory.Product
	if err := getJSON(txn, productKey(userID, pid), &p); err != nil {
		return fmt.Errorf("product %s: %w", pid, err)
	}

	holder := ""
	item, err := txn.Get(claimKey(userID, pid))
	switch {
	case err == nil:
		val, verr := item.ValueCopy(nil)
		if verr != nil {
			return fmt.Errorf("read claim: %w", verr)
		}
		holder = string(val)
	case !errors.Is(err, badger.ErrKeyNotFound):
		return fmt.Errorf("get claim: %w", err)
	}

	if err := s.filter.CheckAssignable(p, holder); err != nil {
		return err
	}
	return txn.Set(claimKey(userID, pid), []byte(bazaarID))
}

// CancelBazaar marks a bazaar cancelled and releases its products.
func (s *Store) CancelBazaar(ctx context.Context, userID, id string) (inventory.BazaarEvent, error) {
	var ev inventory.BazaarEvent
	err := s.update(ctx, "cancel_bazaar", func(txn *badger.Txn) error {
		var rec bazaarRecord
		if err := getJSON(txn, bazaarKey(userID, id), &rec); err != nil {
			return fmt.Errorf("bazaar %s: %w", id, err)
		}
		ev = s.eventOf(&rec)
		if ev.Status.Cancelled() {
			return fmt.Errorf("bazaar %s: %w", id, ErrAlreadyCancelled)
		}

		for _, pid := range ev.ProductIDs {
			if err := s.release(txn, userID, pid, id); err != nil {
				return err
			}
		}

		ev.Status = inventory.EventCancelled
		ev.UpdatedAt = s.now().UTC()
		rec = recordOf(&ev)
		return setJSON(txn, bazaarKey(userID, id), &rec)
	})
	if err != nil {
		return inventory.BazaarEvent{}, err
	}

	s.logger.Info().Str("user_id", userID).Str("bazaar_id", id).Msg("bazaar cancelled")
	return ev, nil
}

// release drops the claim on pid if bazaarID still holds it.
func (s *Store) release(txn *badger.Txn, userID, pid, bazaarID string) error {
	item, err := txn.Get(claimKey(userID, pid))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get claim: %w", err)
	}
	holder, err := item.ValueCopy(nil)
	if err != nil {
		return fmt.Errorf("read claim: %w", err)
	}
	if string(holder) != bazaarID {
		return nil
	}
	return txn.Delete(claimKey(userID, pid))
}

// LegacyBazaar is a bazaar as exported by older tooling, with the product
// list still in its serialized column form.
type LegacyBazaar struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Date        string `json:"date"`
	Status      string `json:"status"`
	ProductIDs  string `json:"productIds"`
}

// ImportBazaar ingests a legacy record. A malformed product list imports
// as an empty one; assignment rules still apply to whatever parses.
func (s *Store) ImportBazaar(ctx context.Context, userID string, legacy LegacyBazaar) (inventory.BazaarEvent, error) {
	date, err := calendar.ParseDate(legacy.Date)
	if err != nil {
		return inventory.BazaarEvent{}, fmt.Errorf("import bazaar %s: %w", legacy.ID, err)
	}
	return s.CreateBazaar(ctx, inventory.BazaarEvent{
		ID:          strings.TrimSpace(legacy.ID),
		UserID:      userID,
		Name:        legacy.Name,
		Description: strings.TrimSpace(legacy.Description),
		Location:    strings.TrimSpace(legacy.Location),
		Date:        date,
		Status:      inventory.EventStatus(strings.ToUpper(strings.TrimSpace(legacy.Status))),
		ProductIDs:  inventory.ProductIDsOrEmpty(legacy.ProductIDs, legacy.ID, s.logger),
	})
}
