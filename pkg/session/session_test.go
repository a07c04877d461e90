package session

import (
	"testing"

	"github.com/matzehuels/whiteboard/pkg/element"
)

func TestNew(t *testing.T) {
	s := New("b1")
	if s.CanvasID != "b1" || !s.Authorized || !s.Live() {
		t.Errorf("New() = %+v, want live authorized b1", s)
	}
	if len(s.Elements) != 0 || len(s.History.Past()) != 1 {
		t.Error("New() should start with an empty board and [[]] history")
	}
	if s.Loaded() != LoadNone {
		t.Errorf("Loaded() = %v, want none", s.Loaded())
	}
}

func TestMarkLoadedOnce(t *testing.T) {
	s := New("b1")
	if !s.MarkLoaded(LoadStorage) {
		t.Fatal("first MarkLoaded() = false")
	}
	if s.MarkLoaded(LoadChannel) {
		t.Error("second MarkLoaded() = true")
	}
	if s.Loaded() != LoadStorage {
		t.Errorf("Loaded() = %v, want storage", s.Loaded())
	}
}

func TestExpectReload(t *testing.T) {
	s := New("b1")
	s.MarkLoaded(LoadChannel)
	s.ExpectReload()
	if s.MarkLoaded(LoadStorage) {
		t.Error("MarkLoaded(storage) = true while a reload is pending")
	}
	if !s.MarkLoaded(LoadChannel) {
		t.Fatal("MarkLoaded(channel) = false after ExpectReload()")
	}
	if s.MarkLoaded(LoadChannel) {
		t.Error("reload accepted twice")
	}
}

func TestReplaceAdvancesIDs(t *testing.T) {
	s := New("b1")
	if id := s.NextID(); id != 0 {
		t.Errorf("NextID() = %d, want 0", id)
	}
	remote := []element.Element{{ID: 4, Type: element.Text, Text: "a"}, {ID: 9, Type: element.Text, Text: "b"}}
	s.Replace(remote)

	if !element.Equal(s.Elements, remote) {
		t.Errorf("Elements = %v, want %v", s.Elements, remote)
	}
	past := s.History.Past()
	if len(past) != 1 || !element.Equal(past[0], remote) {
		t.Errorf("Past() = %v, want [remote]", past)
	}
	if id := s.NextID(); id != 10 {
		t.Errorf("NextID() after Replace = %d, want 10", id)
	}

	remote[0].Text = "changed"
	if s.Elements[0].Text != "a" {
		t.Error("Replace() kept a reference to the caller's slice")
	}
}

func TestReplaceFreezesSketches(t *testing.T) {
	s := New("b1")
	gen := s.Generation()
	bare := element.Element{ID: 2, Type: element.Rectangle, X2: 50, Y2: 40, Stroke: "#000", Size: 2}
	s.Replace([]element.Element{bare})

	if s.Generation() != gen+1 {
		t.Errorf("Generation() = %d, want %d", s.Generation(), gen+1)
	}
	got := s.Elements[0].RoughEle
	if got == nil || len(got.Paths) == 0 {
		t.Fatal("Replace() left the rectangle without a sketch")
	}
	if past := s.History.Past(); past[0][0].RoughEle != got {
		t.Error("history snapshot differs from the live sketch")
	}
}

func TestClose(t *testing.T) {
	s := New("b1")
	s.Close()
	if s.Live() {
		t.Error("Live() = true after Close()")
	}
	var nilState *State
	if nilState.Live() {
		t.Error("nil State reported live")
	}
}

func TestIndex(t *testing.T) {
	s := New("b1")
	s.Elements = []element.Element{{ID: 3}, {ID: 5}}
	if got := s.Index(5); got != 1 {
		t.Errorf("Index(5) = %d, want 1", got)
	}
	if got := s.Index(7); got != -1 {
		t.Errorf("Index(7) = %d, want -1", got)
	}
}
