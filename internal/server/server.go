// Package server implements the relay that whiteboard clients connect to.
//
// The relay speaks the envelope protocol of pkg/protocol over websockets at
// /ws and serves the storage API at /api/canvas/load/{id}:
//
//   - joinCanvas: the board is looked up in the store. Owners and users the
//     board was shared with are enrolled in the board's group and receive
//     loadCanvas with the stored elements; anyone else receives unauthorized.
//     Unknown boards are created for the joiner when create-on-join is set.
//   - drawingUpdate: the sequence is persisted, retrying transient store
//     failures, and fanned out as receiveDrawingUpdate to every other member.
//   - canvasShared: the owner adds a user to the board and that user's
//     connections receive canvasListUpdate.
//
// Clients authenticate with a bearer token from a static token table, either
// in the Authorization header or as a token query parameter. With an empty
// table authentication is off and users name themselves with ?user=.
package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/whiteboard/pkg/store"
)

// Defaults for persistence retries.
const (
	DefaultPersistAttempts = 3
	DefaultPersistDelay    = 100 * time.Millisecond
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithTokens sets the bearer token table, mapping tokens to user ids.
func WithTokens(tokens map[string]string) Option { return func(s *Server) { s.tokens = tokens } }

// WithCreateOnJoin controls whether joining an unknown board creates it.
func WithCreateOnJoin(on bool) Option { return func(s *Server) { s.createOnJoin = on } }

// WithFanout sets how updates reach members on other relay instances.
func WithFanout(f Fanout) Option { return func(s *Server) { s.fanout = f } }

// WithPersistRetry sets the retry policy for store writes.
func WithPersistRetry(attempts int, delay time.Duration) Option {
	return func(s *Server) { s.persistAttempts, s.persistDelay = attempts, delay }
}

// Server is the relay.
type Server struct {
	store        store.Store
	fanout       Fanout
	tokens       map[string]string
	createOnJoin bool
	logger       *log.Logger

	persistAttempts int
	persistDelay    time.Duration

	instance string
	upgrader websocket.Upgrader
	hub      *hub
}

// New creates a relay backed by st.
func New(st store.Store, opts ...Option) *Server {
	s := &Server{
		store:           st,
		fanout:          NewLocalFanout(),
		tokens:          map[string]string{},
		createOnJoin:    true,
		logger:          log.NewWithOptions(io.Discard, log.Options{}),
		persistAttempts: DefaultPersistAttempts,
		persistDelay:    DefaultPersistDelay,
		instance:        uuid.NewString(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		hub: newHub(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start subscribes to the fan-out. It must be called before connections are
// served.
func (s *Server) Start(ctx context.Context) error {
	if len(s.tokens) == 0 {
		s.logger.Warn("no tokens configured, authentication is disabled")
	}
	return s.fanout.Start(ctx, s.deliver)
}

// Serve starts the relay on ln and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	defer s.fanout.Close()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("relay listening", "addr", ln.Addr().String(), "instance", s.instance)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.hub.closeAll()
	if err := srv.Shutdown(shutdown); err != nil {
		return err
	}
	return nil
}
