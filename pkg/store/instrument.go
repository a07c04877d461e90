package store

import (
	"context"
	"time"

	"github.com/matzehuels/whiteboard/pkg/observability"
)

// Instrument wraps s so every Get and Save is reported to the registered
// store hooks under the given driver name.
func Instrument(driver string, s Store) Store {
	return &instrumented{driver: driver, next: s}
}

type instrumented struct {
	driver string
	next   Store
}

func (s *instrumented) Get(ctx context.Context, id string) (*Board, error) {
	start := time.Now()
	b, err := s.next.Get(ctx, id)
	observability.Store().OnGet(ctx, s.driver, b != nil, time.Since(start))
	return b, err
}

func (s *instrumented) Save(ctx context.Context, b *Board) error {
	start := time.Now()
	err := s.next.Save(ctx, b)
	observability.Store().OnSave(ctx, s.driver, len(b.Elements), time.Since(start), err)
	return err
}

func (s *instrumented) Close() error { return s.next.Close() }
