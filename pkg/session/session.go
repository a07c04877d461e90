// Package session holds the per-board state of a client.
//
// A [State] is created when the client enters a board and closed when it
// leaves. It owns the live element sequence, the authorization flag, the
// undo/redo history and the bookkeeping for the initial load. The input
// machine, the synchronizer and the renderer all receive the same *State
// explicitly; nothing about a board lives in package-level variables.
//
// # Lifecycle
//
//	st := session.New("b1")
//	st.Replace(snapshot)   // initial load or remote update
//	st.Elements = append(st.Elements, e)
//	st.Commit()            // snapshot into history
//	st.Close()             // board exit; late callbacks check Live()
//
// A State is not safe for concurrent use. The client runtime confines it to
// its event loop goroutine.
package session

import (
	"github.com/matzehuels/whiteboard/pkg/element"
	"github.com/matzehuels/whiteboard/pkg/history"
)

// LoadSource identifies which collaborator delivered a board's initial state.
type LoadSource int

const (
	LoadNone LoadSource = iota
	LoadChannel
	LoadStorage
)

func (s LoadSource) String() string {
	switch s {
	case LoadChannel:
		return "channel"
	case LoadStorage:
		return "storage"
	default:
		return "none"
	}
}

// State is the session of a single board.
type State struct {
	CanvasID   string
	Elements   []element.Element
	Authorized bool
	History    *history.History

	loaded LoadSource
	reload bool
	live   bool
	nextID int
	gen    int
}

// New returns a live, authorized session for canvasID with an empty board.
func New(canvasID string) *State {
	return &State{
		CanvasID:   canvasID,
		Elements:   []element.Element{},
		Authorized: true,
		History:    history.New(),
		live:       true,
	}
}

// Live reports whether the session still belongs to the current board.
func (s *State) Live() bool { return s != nil && s.live }

// Close ends the session. Results that arrive afterwards must be dropped.
func (s *State) Close() { s.live = false }

// Loaded returns the source that delivered the initial state, if any.
func (s *State) Loaded() LoadSource { return s.loaded }

// MarkLoaded records src as the initial source. It reports false if another
// source was already applied, in which case the caller must drop its result.
func (s *State) MarkLoaded(src LoadSource) bool {
	if s.reload && src == LoadChannel {
		s.reload = false
		s.loaded = src
		return true
	}
	if s.loaded != LoadNone {
		return false
	}
	s.loaded = src
	return true
}

// ExpectReload lets the next channel load replace the board even though an
// initial state was already applied.
func (s *State) ExpectReload() { s.reload = true }

// NextID returns a fresh element id.
func (s *State) NextID() int {
	id := s.nextID
	s.nextID++
	return id
}

// Generation counts wholesale replacements of the element sequence. An action
// started under an older generation no longer matches the board.
func (s *State) Generation() int { return s.gen }

// Replace swaps the element sequence wholesale and resets the history to it.
// Sketches missing from the incoming elements are generated here, once.
func (s *State) Replace(elements []element.Element) {
	s.gen++
	s.Elements = element.Freeze(elements)
	s.History.Reset(s.Elements)
	s.nextID = max(s.nextID, element.MaxID(s.Elements)+1)
}

// Restore swaps the element sequence for a snapshot taken from the history.
func (s *State) Restore(elements []element.Element) {
	s.Elements = elements
	s.nextID = max(s.nextID, element.MaxID(s.Elements)+1)
}

// Commit pushes the live element sequence onto the history.
func (s *State) Commit() {
	s.History.Commit(s.Elements)
}

// Snapshot returns a copy of the live element sequence.
func (s *State) Snapshot() []element.Element {
	return element.Clone(s.Elements)
}

// Index returns the position of the element with the given id, or -1.
func (s *State) Index(id int) int {
	for i, e := range s.Elements {
		if e.ID == id {
			return i
		}
	}
	return -1
}
