// Package memory provides an in-process board store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/whiteboard/pkg/store"
)

// Store keeps boards in a map. Boards are copied on the way in and out.
type Store struct {
	mu     sync.RWMutex
	boards map[string]*store.Board
}

// New creates an empty store.
func New() *Store {
	return &Store{boards: make(map[string]*store.Board)}
}

// Get implements store.Store.
func (s *Store) Get(_ context.Context, id string) (*store.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.boards[id].Clone(), nil
}

// Save implements store.Store.
func (s *Store) Save(_ context.Context, b *store.Board) error {
	c := b.Clone()
	c.UpdatedAt = time.Now().UTC()
	s.mu.Lock()
	s.boards[b.ID] = c
	s.mu.Unlock()
	return nil
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// Len returns the number of stored boards.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.boards)
}

var _ store.Store = (*Store)(nil)
