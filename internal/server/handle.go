package server

import (
	"context"
	"slices"
	"time"

	"github.com/matzehuels/whiteboard/pkg/element"
	"github.com/matzehuels/whiteboard/pkg/errors"
	"github.com/matzehuels/whiteboard/pkg/httputil"
	"github.com/matzehuels/whiteboard/pkg/protocol"
	"github.com/matzehuels/whiteboard/pkg/store"
)

// Denial reasons sent with unauthorized.
const (
	reasonNotShared = "board is not shared with you"
	reasonNotFound  = "board not found"
	reasonNotJoined = "join the board first"
)

func (s *Server) handle(ctx context.Context, c *conn, env protocol.Envelope) {
	var err error
	switch env.Kind {
	case protocol.KindJoinCanvas:
		err = s.join(ctx, c, env.CanvasID)
	case protocol.KindDrawingUpdate:
		err = s.update(ctx, c, env)
	case protocol.KindCanvasShared:
		err = s.share(ctx, c, env)
	default:
		err = errors.New(errors.ErrCodeInvalidMessage, "unexpected %s from client", env.Kind)
	}
	if err != nil {
		s.logger.Warn("message failed", "conn", c.id, "user", c.user, "kind", env.Kind, "canvas", env.CanvasID, "err", err)
	}
}

func (s *Server) join(ctx context.Context, c *conn, canvasID string) error {
	if err := errors.ValidateCanvasID(canvasID); err != nil {
		return err
	}
	board, err := s.store.Get(ctx, canvasID)
	if err != nil {
		return err
	}
	if board == nil {
		if !s.createOnJoin {
			s.hub.leave(c)
			return s.reply(c, protocol.Deny(canvasID, reasonNotFound))
		}
		board = &store.Board{ID: canvasID, Owner: c.user, Elements: []element.Element{}}
		if err := s.persist(ctx, board); err != nil {
			return err
		}
		s.logger.Info("board created", "canvas", canvasID, "owner", c.user)
	}
	if !board.CanAccess(c.user) {
		s.hub.leave(c)
		return s.reply(c, protocol.Deny(canvasID, reasonNotShared))
	}

	s.hub.join(c, canvasID)
	load, err := protocol.Load(canvasID, board.Elements)
	if err != nil {
		return err
	}
	s.logger.Debug("joined board", "conn", c.id, "canvas", canvasID, "elements", len(board.Elements))
	return s.reply(c, load)
}

func (s *Server) update(ctx context.Context, c *conn, env protocol.Envelope) error {
	if s.hub.boardOf(c) == "" {
		// A reconnecting client flushes updates queued while offline before its
		// join; let them in when the board exists and is accessible.
		if err := s.resume(ctx, c, env.CanvasID); err != nil {
			return err
		}
	}
	if s.hub.boardOf(c) != env.CanvasID {
		return s.reply(c, protocol.Deny(env.CanvasID, reasonNotJoined))
	}
	elements, err := env.Elements()
	if err != nil {
		return err
	}

	mu := s.hub.lock(env.CanvasID)
	mu.Lock()
	err = s.save(ctx, env.CanvasID, func(b *store.Board) bool {
		b.Elements = elements
		return true
	})
	mu.Unlock()
	if err != nil {
		// members still see the update; the next one persists the full state
		s.logger.Error("persist failed", "canvas", env.CanvasID, "err", err)
	}

	out, err := protocol.Receive(env.CanvasID, elements)
	if err != nil {
		return err
	}
	return s.publish(ctx, Message{CanvasID: env.CanvasID, Origin: c.id}, out)
}

// resume adds c to an existing board it may access without replying.
func (s *Server) resume(ctx context.Context, c *conn, canvasID string) error {
	if err := errors.ValidateCanvasID(canvasID); err != nil {
		return err
	}
	board, err := s.store.Get(ctx, canvasID)
	if err != nil {
		return err
	}
	if board == nil || !board.CanAccess(c.user) {
		return nil
	}
	s.hub.join(c, canvasID)
	s.logger.Debug("resumed board", "conn", c.id, "canvas", canvasID)
	return nil
}

func (s *Server) share(ctx context.Context, c *conn, env protocol.Envelope) error {
	p, err := env.Shared()
	if err != nil {
		return err
	}
	if err := errors.ValidateUserID(p.RecipientID); err != nil {
		return err
	}
	if s.hub.boardOf(c) != env.CanvasID {
		return s.reply(c, protocol.Deny(env.CanvasID, reasonNotJoined))
	}

	mu := s.hub.lock(env.CanvasID)
	mu.Lock()
	var owner string
	err = s.save(ctx, env.CanvasID, func(b *store.Board) bool {
		owner = b.Owner
		return b.Owner == c.user && b.Share(p.RecipientID)
	})
	mu.Unlock()
	if err != nil {
		return err
	}
	if owner != c.user {
		return errors.New(errors.ErrCodeUnauthorized, "only the owner may share %s", env.CanvasID)
	}
	s.logger.Info("board shared", "canvas", env.CanvasID, "recipient", p.RecipientID)
	return s.publish(ctx, Message{UserID: p.RecipientID}, protocol.ListUpdate(p.RecipientID))
}

// save reads the board, applies mutate and writes it back if mutate reports a
// change. Callers hold the board's lock.
func (s *Server) save(ctx context.Context, canvasID string, mutate func(*store.Board) bool) error {
	board, err := s.store.Get(ctx, canvasID)
	if err != nil {
		return err
	}
	if board == nil {
		return errors.New(errors.ErrCodeBoardNotFound, "board %s vanished", canvasID)
	}
	if !mutate(board) {
		return nil
	}
	return s.persist(ctx, board)
}

// persist writes b, retrying store failures with backoff.
func (s *Server) persist(ctx context.Context, b *store.Board) error {
	return httputil.RetryNotify(ctx, s.persistAttempts, s.persistDelay, func() error {
		if err := s.store.Save(ctx, b); err != nil {
			return &httputil.RetryableError{Err: err}
		}
		return nil
	}, func(err error, _ time.Duration) {
		s.logger.Warn("store write failed, retrying", "canvas", b.ID, "err", err)
	})
}

func (s *Server) reply(c *conn, env protocol.Envelope) error {
	data, err := protocol.Encode(env)
	if err != nil {
		return err
	}
	if !c.enqueue(data) {
		return errors.New(errors.ErrCodeTransport, "connection %s closed", c.id)
	}
	return nil
}

func (s *Server) publish(ctx context.Context, m Message, env protocol.Envelope) error {
	data, err := protocol.Encode(env)
	if err != nil {
		return err
	}
	m.Data = data
	return s.fanout.Publish(ctx, m)
}

// deliver hands a fanned-out message to the matching local connections.
func (s *Server) deliver(m Message) {
	var targets []*conn
	switch {
	case m.CanvasID != "":
		targets = s.hub.members(m.CanvasID, m.Origin)
	case m.UserID != "":
		targets = s.hub.userConns(m.UserID)
	}
	targets = slices.DeleteFunc(targets, func(c *conn) bool { return !c.enqueue(m.Data) })
	s.logger.Debug("delivered", "canvas", m.CanvasID, "user", m.UserID, "conns", len(targets))
}
