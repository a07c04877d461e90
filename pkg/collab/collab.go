// Package collab keeps a client's board in step with the other viewers of the
// same board.
//
// # Protocol
//
// On entry the [Synchronizer] sends joinCanvas. The initial state then comes
// from whichever source answers first: the relay's loadCanvas or the storage
// fetch the runtime starts in parallel ([Synchronizer.ApplyStorage]). The
// other answer is logged and dropped, so at most one initial snapshot is
// applied per entry.
//
// Every local change is broadcast as the entire element sequence. An incoming
// receiveDrawingUpdate replaces the local sequence and resets the undo history
// to it: the last message wins and no merge is attempted.
//
// An unauthorized notice flips the session to read-only. Nothing already
// drawn is rolled back.
//
// Messages for any board other than the current one are ignored, which also
// covers results that arrive after the client left or switched boards.
package collab

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/whiteboard/pkg/element"
	"github.com/matzehuels/whiteboard/pkg/errors"
	"github.com/matzehuels/whiteboard/pkg/input"
	"github.com/matzehuels/whiteboard/pkg/observability"
	"github.com/matzehuels/whiteboard/pkg/protocol"
	"github.com/matzehuels/whiteboard/pkg/session"
)

// Transport sends envelopes to the relay.
type Transport interface {
	Send(ctx context.Context, env protocol.Envelope) error
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option { return func(s *Synchronizer) { s.logger = l } }

// WithMachine binds m to every new board session.
func WithMachine(m *input.Machine) Option { return func(s *Synchronizer) { s.machine = m } }

// WithOnChange sets the callback run after the element sequence was replaced
// by a remote or persisted state.
func WithOnChange(f func()) Option { return func(s *Synchronizer) { s.onChange = f } }

// WithOnDenied sets the callback run when access to the board is revoked.
func WithOnDenied(f func(canvasID, reason string)) Option {
	return func(s *Synchronizer) { s.onDenied = f }
}

// WithOnListUpdate sets the callback run when the user's board list changed.
func WithOnListUpdate(f func(userID string)) Option {
	return func(s *Synchronizer) { s.onListUpdate = f }
}

// Synchronizer implements the client side of the board protocol. It is not
// safe for concurrent use; the client runtime calls it from its event loop.
type Synchronizer struct {
	transport Transport
	machine   *input.Machine
	logger    *log.Logger

	onChange     func()
	onDenied     func(canvasID, reason string)
	onListUpdate func(userID string)

	st *session.State
}

// New returns a synchronizer that sends through t.
func New(t Transport, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		transport:    t,
		logger:       log.NewWithOptions(io.Discard, log.Options{}),
		onChange:     func() {},
		onDenied:     func(string, string) {},
		onListUpdate: func(string) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session returns the current board session, or nil outside a board.
func (s *Synchronizer) Session() *session.State { return s.st }

// Enter tears down the current board, if any, starts a fresh session for
// canvasID and sends joinCanvas. The session is returned even if the join
// could not be sent; [Synchronizer.Rejoin] retries it.
func (s *Synchronizer) Enter(ctx context.Context, canvasID string) (*session.State, error) {
	if err := errors.ValidateCanvasID(canvasID); err != nil {
		return nil, err
	}
	s.Leave()
	s.st = session.New(canvasID)
	if s.machine != nil {
		s.machine.Bind(s.st)
	}
	observability.Sync().OnJoin(ctx, canvasID)
	s.logger.Debug("joining board", "canvas", canvasID)
	if err := s.transport.Send(ctx, protocol.Join(canvasID)); err != nil {
		return s.st, errors.Wrap(errors.ErrCodeTransport, err, "join %s", canvasID)
	}
	return s.st, nil
}

// Leave closes the current session. Later messages and storage results for it
// are dropped.
func (s *Synchronizer) Leave() {
	if s.st == nil {
		return
	}
	s.logger.Debug("leaving board", "canvas", s.st.CanvasID)
	s.st.Close()
	if s.machine != nil {
		s.machine.Bind(nil)
	}
	s.st = nil
}

// Rejoin re-sends joinCanvas for the current board, e.g. after the transport
// reconnected. The relay's answer replaces the board, so edits peers made in
// the meantime are not lost. Outside a board it does nothing.
func (s *Synchronizer) Rejoin(ctx context.Context) error {
	if !s.st.Live() {
		return nil
	}
	s.st.ExpectReload()
	if err := s.transport.Send(ctx, protocol.Join(s.st.CanvasID)); err != nil {
		return errors.Wrap(errors.ErrCodeTransport, err, "rejoin %s", s.st.CanvasID)
	}
	return nil
}

// Handle applies one incoming envelope.
func (s *Synchronizer) Handle(ctx context.Context, env protocol.Envelope) error {
	if env.Kind == protocol.KindCanvasListUpdate {
		p, err := env.ListUpdate()
		if err != nil {
			return err
		}
		s.onListUpdate(p.UserID)
		return nil
	}
	if !s.st.Live() || env.CanvasID != s.st.CanvasID {
		s.logger.Debug("ignoring message for another board", "kind", env.Kind, "canvas", env.CanvasID)
		return nil
	}

	switch env.Kind {
	case protocol.KindLoadCanvas:
		elements, err := env.Elements()
		if err != nil {
			return err
		}
		s.applyInitial(ctx, session.LoadChannel, elements)
	case protocol.KindReceiveDrawingUpdate:
		elements, err := env.Elements()
		if err != nil {
			return err
		}
		// an update before any load counts as the load
		s.st.MarkLoaded(session.LoadChannel)
		s.replace(elements)
		observability.Sync().OnRemoteUpdate(ctx, s.st.CanvasID, len(elements))
		s.onChange()
	case protocol.KindUnauthorized:
		reason := env.Unauthorized().Reason
		s.st.Authorized = false
		observability.Sync().OnUnauthorized(ctx, s.st.CanvasID, reason)
		s.logger.Warn("access to board denied", "canvas", s.st.CanvasID, "reason", reason)
		s.onDenied(s.st.CanvasID, reason)
	default:
		return errors.New(errors.ErrCodeInvalidMessage, "unexpected %s from relay", env.Kind)
	}
	return nil
}

// ApplyStorage applies the result of the storage fetch for canvasID. Results
// for a board that is no longer current, and results that lost the race
// against loadCanvas, are dropped. A failed fetch leaves the board blank.
func (s *Synchronizer) ApplyStorage(ctx context.Context, canvasID string, elements []element.Element, err error) {
	if !s.st.Live() || canvasID != s.st.CanvasID {
		s.logger.Debug("dropping storage result for a closed board", "canvas", canvasID)
		return
	}
	if err != nil {
		s.logger.Error("failed to load board", "canvas", canvasID,
			"err", errors.Wrap(errors.ErrCodeLoadFailure, err, "load %s", canvasID))
		return
	}
	s.applyInitial(ctx, session.LoadStorage, elements)
}

func (s *Synchronizer) applyInitial(ctx context.Context, src session.LoadSource, elements []element.Element) {
	if !s.st.MarkLoaded(src) {
		observability.Sync().OnLoad(ctx, s.st.CanvasID, src.String(), len(elements), true)
		s.logger.Debug("dropping initial state", "source", src, "applied", s.st.Loaded())
		return
	}
	s.replace(elements)
	observability.Sync().OnLoad(ctx, s.st.CanvasID, src.String(), len(elements), false)
	s.logger.Debug("board loaded", "canvas", s.st.CanvasID, "source", src, "elements", len(elements))
	s.onChange()
}

// replace swaps in a remote element sequence. A local stroke in progress is
// abandoned first so it cannot take over an element of the new sequence.
func (s *Synchronizer) replace(elements []element.Element) {
	if s.machine != nil {
		s.machine.Interrupt()
	}
	s.st.Replace(elements)
}

// Broadcast sends the full local element sequence. It does nothing outside a
// board or while access is denied.
func (s *Synchronizer) Broadcast(ctx context.Context) error {
	if !s.st.Live() || !s.st.Authorized {
		return nil
	}
	env, err := protocol.Update(s.st.CanvasID, s.st.Elements)
	if err != nil {
		return err
	}
	if err := s.transport.Send(ctx, env); err != nil {
		return errors.Wrap(errors.ErrCodeTransport, err, "broadcast %s", s.st.CanvasID)
	}
	observability.Sync().OnBroadcast(ctx, s.st.CanvasID, len(s.st.Elements))
	return nil
}

// Share tells the relay the current board was shared with recipientID, so the
// recipient's board list can refresh.
func (s *Synchronizer) Share(ctx context.Context, recipientID string) error {
	if !s.st.Live() {
		return errors.New(errors.ErrCodeInvalidInput, "not on a board")
	}
	if err := errors.ValidateUserID(recipientID); err != nil {
		return err
	}
	if err := s.transport.Send(ctx, protocol.Shared(s.st.CanvasID, recipientID)); err != nil {
		return errors.Wrap(errors.ErrCodeTransport, err, "share %s", s.st.CanvasID)
	}
	return nil
}
