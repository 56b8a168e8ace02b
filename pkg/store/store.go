// Copyright 2024-2026 Aiku AI

// Package store persists the mapping from an original message to its
// relayed copies. Rows are append-only; they exist so that edit and delete
// propagation can be added without re-discovering past deliveries.
package store

import (
	"context"
	"fmt"
	"strconv"
)

// Relayed is one recorded copy of an original message.
type Relayed struct {
	MessageID string
	ChannelID string
}

// Store records and looks up relay mappings. IDs are platform snowflakes
// in string form.
type Store interface {
	// Record inserts one (original, copy, destination) tuple. It is called
	// only after the destination's dispatch succeeded.
	Record(ctx context.Context, originalID, messageID, channelID string) error
	// LookupAll returns every recorded copy of the original message. The
	// relay path does not consume this; it is the read side for future
	// edit/delete propagation.
	LookupAll(ctx context.Context, originalID string) ([]Relayed, error)
}

// parseSnowflake converts a platform ID to the integer form used in the
// database schema.
func parseSnowflake(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snowflake %q: %w", id, err)
	}
	return n, nil
}
