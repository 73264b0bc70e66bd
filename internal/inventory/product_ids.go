// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

package inventory

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/bazaarplan/internal/metrics"
)

// ErrMalformedProductIDs is returned by ParseProductIDs for payloads that are
// not a JSON array of strings or numbers.
var ErrMalformedProductIDs = errors.New("malformed product id list")

// ProductIDs is the parsed form of a bazaar's serialized product list.
// Entries are trimmed, non-empty and unique, in first-seen order.
type ProductIDs []string

// ParseProductIDs decodes a serialized product list. Empty input and JSON
// null decode to an empty list.
func ParseProductIDs(raw string) (ProductIDs, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return ProductIDs{}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return ProductIDs{}, fmt.Errorf("%w: %v", ErrMalformedProductIDs, err)
	}

	ids := make([]string, 0, len(items))
	for i, item := range items {
		id, err := decodeID(item)
		if err != nil {
			return ProductIDs{}, fmt.Errorf("%w: element %d: %v", ErrMalformedProductIDs, i, err)
		}
		ids = append(ids, id)
	}
	return NewProductIDs(ids...), nil
}

func decodeID(item json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(item, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(item, &n); err == nil {
		if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
			return "", fmt.Errorf("non-integer id %s", n)
		}
		return n.String(), nil
	}
	return "", fmt.Errorf("unsupported element %s", string(item))
}

// ProductIDsOrEmpty parses raw and returns an empty list instead of an
// error. Malformed payloads are logged with ref (usually the bazaar ID) and
// counted; they never fail the caller.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func ProductIDsOrEmpty(raw, ref string, logger zerolog.Logger) ProductIDs {
	ids, err := ParseProductIDs(raw)
	if err != nil {
		metrics.MalformedRecords.WithLabelValues("product_ids").Inc()
		logger.Warn().
			Str("bazaar_id", ref).
			Err(err).
			Msg("treating malformed product id list as empty")
		return ProductIDs{}
	}
	return ids
}

// NewProductIDs builds a normalized list from raw IDs.
func NewProductIDs(ids ...string) ProductIDs {
	out := make(ProductIDs, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Contains reports whether id is in the list.
func (p ProductIDs) Contains(id string) bool {
	for _, v := range p {
		if v == id {
			return true
		}
	}
	return false
}

// Encode serializes the list to its JSON storage form.
func (p ProductIDs) Encode() string {
	if len(p) == 0 {
		return "[]"
	}
	data, err := json.Marshal([]string(p))
	if err != nil {
		return "[]"
	}
	return string(data)
}
