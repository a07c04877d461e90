// Package history keeps the local undo/redo stacks of a board.
//
// A History holds two stacks of element-sequence snapshots. The top of the
// past stack is always the current committed state; a fresh history starts
// with a single empty snapshot so the blank board is undo-reachable.
//
//	h := history.New()
//	h.Commit(elements)
//	if prev, ok := h.Undo(); ok {
//	    state.Elements = prev
//	}
//
// Snapshots are copies: mutating a slice after committing it never changes
// what undo returns.
package history

import (
	"github.com/matzehuels/whiteboard/pkg/element"
)

// History is a linear undo/redo history. The zero value is not usable; call New.
type History struct {
	past   [][]element.Element
	future [][]element.Element
}

// New returns a history containing only the empty initial state.
func New() *History {
	return &History{past: [][]element.Element{{}}}
}

// Commit pushes a snapshot of elements and clears the redo stack.
func (h *History) Commit(elements []element.Element) {
	h.past = append(h.past, element.Clone(elements))
	h.future = nil
}

// Undo moves the current snapshot to the redo stack and returns the one before
// it. With a single past entry it does nothing and reports false.
func (h *History) Undo() ([]element.Element, bool) {
	if len(h.past) <= 1 {
		return nil, false
	}
	top := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, top)
	return element.Clone(h.past[len(h.past)-1]), true
}

// Redo re-applies the most recently undone snapshot. With an empty redo stack
// it does nothing and reports false.
func (h *History) Redo() ([]element.Element, bool) {
	if len(h.future) == 0 {
		return nil, false
	}
	next := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, next)
	return element.Clone(next), true
}

// Reset replaces the whole history with a single snapshot of elements. It is
// used when a remote or persisted state supersedes local edits.
func (h *History) Reset(elements []element.Element) {
	h.past = [][]element.Element{element.Clone(elements)}
	h.future = nil
}

// Current returns a copy of the top past snapshot.
func (h *History) Current() []element.Element {
	return element.Clone(h.past[len(h.past)-1])
}

// Past returns copies of the past snapshots, oldest first.
func (h *History) Past() [][]element.Element {
	return cloneStack(h.past)
}

// Future returns copies of the redo snapshots, oldest undo first.
func (h *History) Future() [][]element.Element {
	return cloneStack(h.future)
}

// CanUndo reports whether a snapshot older than the current one exists.
func (h *History) CanUndo() bool { return len(h.past) > 1 }

// CanRedo reports whether an undone snapshot can be re-applied.
func (h *History) CanRedo() bool { return len(h.future) > 0 }

func cloneStack(stack [][]element.Element) [][]element.Element {
	out := make([][]element.Element, len(stack))
	for i, s := range stack {
		out[i] = element.Clone(s)
	}
	return out
}
