// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

// Package store persists products and bazaar events in BadgerDB, scoped per
// user.
//
// Key layout:
//
//	u/<user>/product/<productID>  -> product JSON
//	u/<user>/bazaar/<bazaarID>    -> bazaar record JSON
//	u/<user>/claim/<productID>    -> ID of the active bazaar holding the product
//
// The claim index is what keeps a product in at most one active bazaar.
// Every assignment reads the claim keys of its products inside the same
// transaction that writes them, so two concurrent assignments of one product
// collide in badger's conflict detection and only one commits.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/bazaarplan/internal/calendar"
	"github.com/tomtom215/bazaarplan/internal/inventory"
	"github.com/tomtom215/bazaarplan/internal/metrics"
)

var (
	// ErrNotFound is returned when a product or bazaar does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyCancelled is returned when cancelling a cancelled bazaar.
	ErrAlreadyCancelled = errors.New("bazaar already cancelled")

	// ErrConflict is returned when a write kept colliding with concurrent
	// writes on the same products.
	ErrConflict = errors.New("concurrent modification")

	// ErrInvalidID is returned for empty IDs or IDs containing '/'.
	ErrInvalidID = errors.New("invalid id")
)

const maxTxnRetries = 3

// Options configures Open.
type Options struct {
	// Path is the badger directory. Ignored when InMemory is set.
	Path     string
	InMemory bool

	// TerminalStatuses extends inventory.DefaultTerminalStatuses.
	TerminalStatuses []string

	Logger zerolog.Logger
}

// Store is the BadgerDB-backed product and bazaar store. It is safe for
// concurrent use.
type Store struct {
	db     *badger.DB
	filter *inventory.Filter
	logger zerolog.Logger
	now    func() time.Time
}

// Open opens (or creates) the store.
//
//nolint:gocritic // Options carries a zerolog.Logger by value
func Open(opts Options) (*Store, error) {
	logger := opts.Logger.With().Str("component", "store").Logger()

	bopts := badger.DefaultOptions(opts.Path).
		WithLogger(badgerLogger{logger: logger}).
		WithLoggingLevel(badger.WARNING)
	if opts.InMemory {
		bopts = bopts.WithDir("").WithValueDir("").WithInMemory(true)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", opts.Path, err)
	}

	logger.Info().Str("path", opts.Path).Bool("in_memory", opts.InMemory).Msg("store opened")
	return &Store{
		db:     db,
		filter: inventory.NewFilter(opts.TerminalStatuses...),
		logger: logger,
		now:    time.Now,
	}, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Filter returns the eligibility filter configured for this store.
func (s *Store) Filter() *inventory.Filter {
	return s.filter
}

func validID(id string) error {
	if strings.TrimSpace(id) == "" || strings.Contains(id, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

func userPrefix(user, kind string) []byte { return []byte("u/" + user + "/" + kind + "/") }
func productKey(user, id string) []byte   { return []byte("u/" + user + "/product/" + id) }
func bazaarKey(user, id string) []byte    { return []byte("u/" + user + "/bazaar/" + id) }
func claimKey(user, id string) []byte     { return []byte("u/" + user + "/claim/" + id) }

// bazaarRecord is the persisted form of a bazaar. ProductIDs stays in its
// serialized column form; it is decoded through the parse-or-empty adapter
// on every read.
type bazaarRecord struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Date        string    `json:"date"`
	Status      string    `json:"status"`
	ProductIDs  string    `json:"product_ids"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func recordOf(ev *inventory.BazaarEvent) bazaarRecord {
	return bazaarRecord{
		ID:          ev.ID,
		UserID:      ev.UserID,
		Name:        ev.Name,
		Description: ev.Description,
		Location:    ev.Location,
		Date:        ev.Date.String(),
		Status:      string(ev.Status),
		ProductIDs:  ev.ProductIDs.Encode(),
		CreatedAt:   ev.CreatedAt,
		UpdatedAt:   ev.UpdatedAt,
	}
}

func (s *Store) eventOf(rec *bazaarRecord) inventory.BazaarEvent {
	date, err := calendar.ParseDate(rec.Date)
	if err != nil {
		s.logger.Warn().Str("bazaar_id", rec.ID).Err(err).Msg("bazaar record has an unreadable date")
	}
	return inventory.BazaarEvent{
		ID:          rec.ID,
		UserID:      rec.UserID,
		Name:        rec.Name,
		Description: rec.Description,
		Location:    rec.Location,
		Date:        date,
		Status:      inventory.EventStatus(rec.Status),
		ProductIDs:  inventory.ProductIDsOrEmpty(rec.ProductIDs, rec.ID, s.logger),
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set(key, data)
}

// scan decodes every value under prefix in key order.
func scan(txn *badger.Txn, prefix []byte, fn func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}
	return nil
}

// update runs fn in a read-write transaction, retrying on badger conflicts.
func (s *Store) update(ctx context.Context, op string, fn func(txn *badger.Txn) error) error {
	start := time.Now()
	var err error
	for attempt := 1; attempt <= maxTxnRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
			break
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		s.logger.Debug().Str("operation", op).Int("attempt", attempt).Msg("transaction conflict, retrying")
	}
	if errors.Is(err, badger.ErrConflict) {
		err = fmt.Errorf("%s: %w", op, ErrConflict)
	}
	metrics.RecordStoreOperation(op, time.Since(start), err)
	return err
}

func (s *Store) view(ctx context.Context, op string, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := s.db.View(fn)
	metrics.RecordStoreOperation(op, time.Since(start), err)
	return err
}

// PutProduct creates or replaces a product.
func (s *Store) PutProduct(ctx context.Context, p inventory.Product) (inventory.Product, error) {
	if err := validID(p.UserID); err != nil {
		return inventory.Product{}, err
	}
	if err := validID(p.ID); err != nil {
		return inventory.Product{}, err
	}
	if p.Status == "" {
		p.Status = inventory.StatusAvailable
	}
	p.UpdatedAt = s.now().UTC()

	err := s.update(ctx, "put_product", func(txn *badger.Txn) error {
		return setJSON(txn, productKey(p.UserID, p.ID), p)
	})
	if err != nil {
		return inventory.Product{}, err
	}
	return p, nil
}

// GetProduct returns one product.
func (s *Store) GetProduct(ctx context.Context, userID, id string) (inventory.Product, error) {
	var p inventory.Product
	err := s.view(ctx, "get_product", func(txn *badger.Txn) error {
		return getJSON(txn, productKey(userID, id), &p)
	})
	if err != nil {
		return inventory.Product{}, fmt.Errorf("product %s: %w", id, err)
	}
	return p, nil
}

// ListProducts returns the user's products ordered by ID.
func (s *Store) ListProducts(ctx context.Context, userID string) ([]inventory.Product, error) {
	var out []inventory.Product
	err := s.view(ctx, "list_products", func(txn *badger.Txn) error {
		var err error
		out, err = listProducts(txn, userID)
		return err
	})
	return out, err
}

func listProducts(txn *badger.Txn, userID string) ([]inventory.Product, error) {
	out := []inventory.Product{}
	err := scan(txn, userPrefix(userID, "product"), func(val []byte) error {
		var p inventory.Product
		if err := json.Unmarshal(val, &p); err != nil {
			return fmt.Errorf("decode product: %w", err)
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

// GetBazaar returns one bazaar.
func (s *Store) GetBazaar(ctx context.Context, userID, id string) (inventory.BazaarEvent, error) {
	var rec bazaarRecord
	err := s.view(ctx, "get_bazaar", func(txn *badger.Txn) error {
		return getJSON(txn, bazaarKey(userID, id), &rec)
	})
	if err != nil {
		return inventory.BazaarEvent{}, fmt.Errorf("bazaar %s: %w", id, err)
	}
	return s.eventOf(&rec), nil
}

// ListBazaars returns the user's bazaars ordered by date, then ID.
func (s *Store) ListBazaars(ctx context.Context, userID string) ([]inventory.BazaarEvent, error) {
	var out []inventory.BazaarEvent
	err := s.view(ctx, "list_bazaars", func(txn *badger.Txn) error {
		var err error
		out, err = s.listBazaars(txn, userID)
		return err
	})
	return out, err
}

func (s *Store) listBazaars(txn *badger.Txn, userID string) ([]inventory.BazaarEvent, error) {
	out := []inventory.BazaarEvent{}
	err := scan(txn, userPrefix(userID, "bazaar"), func(val []byte) error {
		var rec bazaarRecord
		if err := json.Unmarshal(val, &rec); err != nil {
			return fmt.Errorf("decode bazaar: %w", err)
		}
		out = append(out, s.eventOf(&rec))
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Date.Compare(out[j].Date); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

// Snapshot reads products and bazaars in one consistent view.
func (s *Store) Snapshot(ctx context.Context, userID string) ([]inventory.Product, []inventory.BazaarEvent, error) {
	var (
		products []inventory.Product
		events   []inventory.BazaarEvent
	)
	err := s.view(ctx, "snapshot", func(txn *badger.Txn) error {
		var err error
		if products, err = listProducts(txn, userID); err != nil {
			return err
		}
		events, err = s.listBazaars(txn, userID)
		return err
	})
	return products, events, err
}
