// Package input turns pointer, text and keyboard events into element edits.
//
// A [Machine] tracks what the user is currently doing on a board:
//
//	None --down(shape/BRUSH)--> Drawing --move--> Drawing --up--> None
//	None --down(ERASER)-------> Erasing --move--> Erasing --up--> None
//	None --down(TEXT)---------> Writing --blur--> None
//
// While drawing or erasing, every move repaints immediately and schedules a
// debounced broadcast of the full element sequence. Releasing the pointer
// commits the sequence to the history and broadcasts it at once.
//
// When the session is not authorized every pointer and text transition is a
// no-op; an edit in progress is abandoned without rollback.
package input

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/whiteboard/pkg/element"
	"github.com/matzehuels/whiteboard/pkg/session"
)

// Tool is the active toolbox tool.
type Tool string

// Tools. The shape tools share their names with the element types they create.
const (
	ToolLine      = Tool(element.Line)
	ToolRectangle = Tool(element.Rectangle)
	ToolCircle    = Tool(element.Circle)
	ToolArrow     = Tool(element.Arrow)
	ToolBrush     = Tool(element.Brush)
	ToolText      = Tool(element.Text)
	ToolEraser    Tool = "ERASER"
)

// Toolbox is the tool selection and style chosen in the UI. The machine only
// reads it.
type Toolbox struct {
	Tool   Tool
	Stroke string
	Size   float64
}

// State is the machine's current action.
type State int

const (
	None State = iota
	Drawing
	Erasing
	Writing
)

func (s State) String() string {
	switch s {
	case Drawing:
		return "drawing"
	case Erasing:
		return "erasing"
	case Writing:
		return "writing"
	default:
		return "none"
	}
}

// Pointer is one pointer event in board coordinates. A zero pressure means the
// device reports none.
type Pointer struct {
	X, Y     float64
	Pressure float64
}

// Editor describes the open text editor while the machine is Writing.
type Editor struct {
	X, Y   float64
	Size   float64
	Stroke string
}

// DefaultEraserTolerance is how close to an element the eraser must pass.
const DefaultEraserTolerance = 5

// Option configures a Machine.
type Option func(*Machine)

// WithRender sets the synchronous repaint callback.
func WithRender(f func()) Option { return func(m *Machine) { m.render = f } }

// WithBroadcast sets the callback that sends the full element sequence.
func WithBroadcast(f func()) Option { return func(m *Machine) { m.broadcast = f } }

// WithDebounce sets the broadcast debounce delay and timer source.
func WithDebounce(d time.Duration, after AfterFunc) Option {
	return func(m *Machine) { m.delay, m.after = d, after }
}

// WithEraserTolerance sets the eraser hit distance.
func WithEraserTolerance(tol float64) Option { return func(m *Machine) { m.tolerance = tol } }

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option { return func(m *Machine) { m.logger = l } }

// Machine is the tool-action state machine of one client. It is not safe for
// concurrent use.
type Machine struct {
	st        *session.State
	state     State
	drawingID int
	gen       int
	editor    Editor
	erased    bool

	render    func()
	broadcast func()
	delay     time.Duration
	after     AfterFunc
	tolerance float64
	logger    *log.Logger

	debounce *Debouncer
}

// NewMachine returns an idle machine bound to st. st may be nil until the
// client enters a board; events are ignored until then.
func NewMachine(st *session.State, opts ...Option) *Machine {
	m := &Machine{
		st:        st,
		render:    func() {},
		broadcast: func() {},
		delay:     DefaultDebounce,
		after:     TimeAfterFunc,
		tolerance: DefaultEraserTolerance,
		logger:    log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.debounce = NewDebouncer(m.delay, m.after, func() { m.broadcast() })
	return m
}

// Bind switches the machine to another board session, abandoning any action
// in progress.
func (m *Machine) Bind(st *session.State) {
	m.reset()
	m.st = st
}

// Interrupt abandons a drawing or erasing action without committing or
// broadcasting it. An open text editor stays open.
func (m *Machine) Interrupt() {
	if m.state != Drawing && m.state != Erasing {
		return
	}
	m.logger.Debug("action interrupted", "state", m.state)
	m.reset()
}

// State returns the current action.
func (m *Machine) State() State { return m.state }

// Editor returns the open text editor, if the machine is Writing.
func (m *Machine) Editor() (Editor, bool) {
	return m.editor, m.state == Writing
}

// PendingBroadcast reports whether a debounced broadcast is scheduled.
func (m *Machine) PendingBroadcast() bool { return m.debounce.Pending() }

// PointerDown starts an action with the selected tool.
func (m *Machine) PointerDown(tb Toolbox, p Pointer) {
	if !m.editable() || m.state != None {
		return
	}
	switch tb.Tool {
	case ToolEraser:
		m.state = Erasing
		m.gen = m.st.Generation()
		m.erased = false
		m.erase(p)
	case ToolText:
		m.state = Writing
		m.editor = Editor{X: p.X, Y: p.Y, Size: tb.Size, Stroke: tb.Stroke}
	default:
		e, err := element.Create(m.st.NextID(), element.Type(tb.Tool), element.At(p.X, p.Y),
			element.ToolConfig{Stroke: tb.Stroke, Size: tb.Size})
		if err != nil {
			m.logger.Warn("cannot start drawing", "tool", tb.Tool, "err", err)
			return
		}
		if e.Type == element.Brush && p.Pressure > 0 {
			e.Points[0].Pressure = p.Pressure
		}
		m.st.Elements = append(m.st.Elements, e)
		m.drawingID = e.ID
		m.gen = m.st.Generation()
		m.state = Drawing
		m.render()
	}
}

// PointerMove extends the current action.
func (m *Machine) PointerMove(p Pointer) {
	if !m.editable() {
		return
	}
	if m.stale() {
		return
	}
	switch m.state {
	case Drawing:
		i := m.st.Index(m.drawingID)
		if i < 0 {
			m.logger.Debug("drawn element vanished", "id", m.drawingID)
			m.reset()
			return
		}
		e := m.st.Elements[i]
		if e.Type == element.Brush {
			e = element.AppendSample(e, element.Sample{X: p.X, Y: p.Y, Pressure: p.Pressure})
		} else {
			var err error
			e, err = element.UpdateGeometry(e, element.Anchors{X1: e.X1, Y1: e.Y1, X2: p.X, Y2: p.Y})
			if err != nil {
				m.logger.Warn("cannot update element", "id", e.ID, "err", err)
				return
			}
		}
		m.st.Elements[i] = e
		m.render()
		m.debounce.Trigger()
	case Erasing:
		m.erase(p)
	}
}

// PointerUp finishes a drawing or erasing action: the sequence is committed
// and broadcast immediately.
func (m *Machine) PointerUp() {
	if !m.editable() || m.stale() {
		return
	}
	switch m.state {
	case Drawing:
		m.state = None
		m.st.Commit()
		m.debounce.Cancel()
		m.broadcast()
	case Erasing:
		m.state = None
		if !m.erased {
			return
		}
		m.st.Commit()
		m.debounce.Cancel()
		m.broadcast()
	}
}

// TextBlur closes the text editor. Non-empty text becomes a TEXT element that
// is committed and broadcast.
func (m *Machine) TextBlur(text string) {
	if !m.editable() || m.state != Writing {
		return
	}
	ed := m.editor
	m.state = None
	m.editor = Editor{}
	if text == "" {
		return
	}
	e, err := element.Create(m.st.NextID(), element.Text, element.At(ed.X, ed.Y),
		element.ToolConfig{Stroke: ed.Stroke, Size: ed.Size, Text: text})
	if err != nil {
		m.logger.Warn("cannot create text", "err", err)
		return
	}
	m.st.Elements = append(m.st.Elements, e)
	m.st.Commit()
	m.render()
	m.debounce.Cancel()
	m.broadcast()
}

// KeyDown handles keyboard shortcuts: Ctrl+Z undoes and Ctrl+Y redoes. It
// reports whether the key was consumed.
func (m *Machine) KeyDown(key string, ctrl bool) bool {
	if !ctrl {
		return false
	}
	switch strings.ToLower(key) {
	case "z":
		m.Undo()
		return true
	case "y":
		m.Redo()
		return true
	}
	return false
}

// Undo restores the previous committed sequence.
func (m *Machine) Undo() bool {
	if !m.editable() || m.state != None {
		return false
	}
	prev, ok := m.st.History.Undo()
	if !ok {
		return false
	}
	m.apply(prev)
	return true
}

// Redo re-applies the last undone sequence.
func (m *Machine) Redo() bool {
	if !m.editable() || m.state != None {
		return false
	}
	next, ok := m.st.History.Redo()
	if !ok {
		return false
	}
	m.apply(next)
	return true
}

func (m *Machine) apply(elements []element.Element) {
	m.st.Restore(elements)
	m.render()
	m.debounce.Cancel()
	m.broadcast()
}

func (m *Machine) erase(p Pointer) {
	kept := m.st.Elements[:0:0]
	for _, e := range m.st.Elements {
		if element.HitTest(e, p.X, p.Y, m.tolerance) {
			m.logger.Debug("erased element", "id", e.ID, "type", e.Type)
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) == len(m.st.Elements) {
		return
	}
	m.st.Elements = kept
	m.erased = true
	m.render()
	m.debounce.Trigger()
}

// editable reports whether the bound session accepts edits, abandoning any
// action in progress if it does not.
func (m *Machine) editable() bool {
	if !m.st.Live() {
		return false
	}
	if !m.st.Authorized {
		if m.state != None {
			m.reset()
		}
		return false
	}
	return true
}

// stale abandons a drawing or erasing action if the board was replaced since
// it started.
func (m *Machine) stale() bool {
	if (m.state != Drawing && m.state != Erasing) || m.st.Generation() == m.gen {
		return false
	}
	m.logger.Debug("board replaced mid-action", "state", m.state)
	m.reset()
	return true
}

func (m *Machine) reset() {
	m.debounce.Cancel()
	m.state = None
	m.editor = Editor{}
	m.erased = false
}
