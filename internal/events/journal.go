// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
)

// Journal consumes bazaar events, logs them and keeps the most recent ones
// in memory. It runs as a supervised service.
type Journal struct {
	bus    *Bus
	logger zerolog.Logger
	limit  int

	mu     sync.RWMutex
	recent []Payload
}

// NewJournal keeps up to limit events.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewJournal(bus *Bus, limit int, logger zerolog.Logger) *Journal {
	if limit <= 0 {
		limit = 100
	}
	return &Journal{
		bus:    bus,
		limit:  limit,
		logger: logger.With().Str("component", "journal").Logger(),
	}
}

// Serve implements suture.Service.
func (j *Journal) Serve(ctx context.Context) error {
	scheduled, err := j.bus.Subscribe(ctx, TopicBazaarScheduled)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicBazaarScheduled, err)
	}
	cancelled, err := j.bus.Subscribe(ctx, TopicBazaarCancelled)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicBazaarCancelled, err)
	}

	j.logger.Info().Msg("journal started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-scheduled:
			if !ok {
				return ErrClosed
			}
			j.handle(msg)
		case msg, ok := <-cancelled:
			if !ok {
				return ErrClosed
			}
			j.handle(msg)
		}
	}
}

func (j *Journal) handle(msg *message.Message) {
	defer msg.Ack()

	p, err := Decode(msg)
	if err != nil {
		j.logger.Warn().Err(err).Msg("dropping undecodable event")
		return
	}

	j.logger.Info().
		Str("type", p.Type).
		Str("user_id", p.UserID).
		Str("bazaar_id", p.BazaarID).
		Str("date", p.Date).
		Int("products", len(p.ProductIDs)).
		Str("correlation_id", p.CorrelationID).
		Msg("bazaar event")

	j.mu.Lock()
	j.recent = append(j.recent, p)
	if over := len(j.recent) - j.limit; over > 0 {
		j.recent = append([]Payload(nil), j.recent[over:]...)
	}
	j.mu.Unlock()
}

// Recent returns the retained events, oldest first.
func (j *Journal) Recent() []Payload {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return append([]Payload(nil), j.recent...)
}

// String implements fmt.Stringer for suture's service naming.
func (j *Journal) String() string { return "event-journal" }
