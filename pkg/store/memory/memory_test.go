package memory

import (
	"context"
	"testing"

	"github.com/matzehuels/whiteboard/pkg/element"
	"github.com/matzehuels/whiteboard/pkg/store"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := New()

	got, err := s.Get(ctx, "b1")
	if got != nil || err != nil {
		t.Fatalf("Get(missing) = (%v, %v), want (nil, nil)", got, err)
	}

	b := &store.Board{ID: "b1", Owner: "alice", Elements: []element.Element{{ID: 0, Type: element.Line, X2: 5}}}
	if err := s.Save(ctx, b); err != nil {
		t.Fatal(err)
	}
	b.Elements[0].X2 = 99

	got, _ = s.Get(ctx, "b1")
	if got == nil || got.Owner != "alice" || got.Elements[0].X2 != 5 {
		t.Errorf("Get() = %+v, want the saved copy", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}
	got.Owner = "mallory"
	if again, _ := s.Get(ctx, "b1"); again.Owner != "alice" {
		t.Error("Get() returned shared memory")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}
