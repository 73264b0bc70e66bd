// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

// Package events publishes bazaar lifecycle events on an in-process
// Watermill GoChannel bus. Publishing runs behind a circuit breaker so a
// stuck or failing bus degrades to dropped notifications instead of failing
// the write that triggered them.
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/bazaarplan/internal/inventory"
	"github.com/tomtom215/bazaarplan/internal/logging"
	"github.com/tomtom215/bazaarplan/internal/metrics"
)

const (
	TopicBazaarScheduled = "bazaar.scheduled"
	TopicBazaarCancelled = "bazaar.cancelled"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("event bus closed")

// Payload is the JSON body of every bazaar event.
type Payload struct {
	Type          string    `json:"type"`
	UserID        string    `json:"user_id"`
	BazaarID      string    `json:"bazaar_id"`
	Name          string    `json:"name,omitempty"`
	Date          string    `json:"date"`
	ProductIDs    []string  `json:"product_ids"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Decode parses a message produced by Bus.
func Decode(msg *message.Message) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		return Payload{}, fmt.Errorf("decode event %s: %w", msg.UUID, err)
	}
	return p, nil
}

// Config tunes the bus.
type Config struct {
	// BufferSize is the per-subscriber output channel buffer.
	BufferSize int64

	// FailureThreshold consecutive publish failures open the breaker.
	FailureThreshold uint32

	// BreakerTimeout is how long the breaker stays open before probing.
	BreakerTimeout time.Duration
}

// DefaultConfig returns a small buffered bus that trips after five failures.
func DefaultConfig() Config {
	return Config{BufferSize: 64, FailureThreshold: 5, BreakerTimeout: 30 * time.Second}
}

// Bus is the bazaar event publisher and subscriber.
type Bus struct {
	pubsub  *gochannel.GoChannel
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  zerolog.Logger
	now     func() time.Time

	mu     sync.RWMutex
	closed bool
}

// NewBus creates an in-process bus.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewBus(cfg Config, logger zerolog.Logger) *Bus {
	logger = logger.With().Str("component", "events").Logger()
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultConfig().FailureThreshold
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = DefaultConfig().BreakerTimeout
	}

	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: cfg.BufferSize}, NewWatermillLogger(logger))

	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "event-bus",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	metrics.CircuitBreakerState.WithLabelValues("event-bus").Set(float64(gobreaker.StateClosed))

	return &Bus{pubsub: pubsub, breaker: breaker, logger: logger, now: time.Now}
}

// Publish sends payload on topic.
func (b *Bus) Publish(ctx context.Context, topic string, payload Payload) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	if payload.CorrelationID == "" {
		payload.CorrelationID = logging.CorrelationIDFromContext(ctx)
	}
	if payload.OccurredAt.IsZero() {
		payload.OccurredAt = b.now().UTC()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("user_id", payload.UserID)
	msg.Metadata.Set("bazaar_id", payload.BazaarID)
	if payload.CorrelationID != "" {
		msg.Metadata.Set("correlation_id", payload.CorrelationID)
	}

	_, err = b.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, b.pubsub.Publish(topic, msg)
	})
	if err != nil {
		metrics.EventPublishErrors.WithLabelValues(topic).Inc()
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	metrics.EventsPublished.WithLabelValues(topic).Inc()
	return nil
}

func payloadOf(typ string, ev *inventory.BazaarEvent) Payload {
	return Payload{
		Type:       typ,
		UserID:     ev.UserID,
		BazaarID:   ev.ID,
		Name:       ev.Name,
		Date:       ev.Date.String(),
		ProductIDs: append([]string{}, ev.ProductIDs...),
		OccurredAt: ev.UpdatedAt,
	}
}

// BazaarScheduled announces a newly scheduled bazaar.
func (b *Bus) BazaarScheduled(ctx context.Context, ev inventory.BazaarEvent) error {
	return b.Publish(ctx, TopicBazaarScheduled, payloadOf("scheduled", &ev))
}

// BazaarCancelled announces a cancellation.
func (b *Bus) BazaarCancelled(ctx context.Context, ev inventory.BazaarEvent) error {
	return b.Publish(ctx, TopicBazaarCancelled, payloadOf("cancelled", &ev))
}

// Subscribe returns the message stream of topic until ctx ends.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrClosed
	}
	return b.pubsub.Subscribe(ctx, topic)
}

// BreakerState reports the circuit breaker state name.
func (b *Bus) BreakerState() string {
	return b.breaker.State().String()
}

// Close shuts the bus down. Further publishes fail with ErrClosed.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.pubsub.Close()
}
