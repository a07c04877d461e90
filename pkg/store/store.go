// Package store defines persistence for boards.
//
// A [Store] keeps one [Board] per canvas id: its owner, the users it was
// shared with and the full element sequence last written to it. Writes replace
// the whole board; there is no partial update, matching the full-state
// broadcast of the channel protocol.
//
// Implementations live in subpackages:
//   - memory: process-local map, for tests and single-process development
//   - bolt: embedded bbolt file, for a single relay with durable boards
//   - redis: shared key space, for several relays behind a balancer
//   - mongo: one document per board
//   - postgres: one row per board with the elements as jsonb
//
// Wrap any of them with [Instrument] to report timings to the store hooks in
// pkg/observability.
package store

import (
	"context"
	"slices"
	"time"

	"github.com/matzehuels/whiteboard/pkg/element"
)

// Board is a persisted board.
type Board struct {
	ID        string            `json:"id" bson:"_id"`
	Owner     string            `json:"owner" bson:"owner"`
	Shared    []string          `json:"shared,omitempty" bson:"shared,omitempty"`
	Elements  []element.Element `json:"elements" bson:"elements"`
	UpdatedAt time.Time         `json:"updated_at" bson:"updated_at"`
}

// CanAccess reports whether userID owns the board or it was shared with them.
func (b *Board) CanAccess(userID string) bool {
	if b == nil || userID == "" {
		return false
	}
	return b.Owner == userID || slices.Contains(b.Shared, userID)
}

// Share adds userID to the shared list. It reports whether the list changed.
func (b *Board) Share(userID string) bool {
	if userID == b.Owner || slices.Contains(b.Shared, userID) {
		return false
	}
	b.Shared = append(b.Shared, userID)
	return true
}

// Clone returns a deep copy of b.
func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}
	c := *b
	c.Shared = slices.Clone(b.Shared)
	c.Elements = element.Clone(b.Elements)
	return &c
}

// Store is the interface for board storage backends.
type Store interface {
	// Get retrieves a board by canvas id.
	// Returns nil, nil if the board doesn't exist.
	Get(ctx context.Context, id string) (*Board, error)

	// Save creates or replaces a board.
	Save(ctx context.Context, b *Board) error

	// Close releases the backend's resources.
	Close() error
}
