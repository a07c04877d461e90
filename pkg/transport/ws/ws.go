// Package ws carries protocol envelopes over a websocket connection to the
// relay.
//
// A [Client] owns one logical connection for its whole lifetime. When the
// socket drops, [Client.Run] redials with exponential backoff and reports the
// new connection through the OnConnect callback, so the caller can re-send
// joinCanvas. Envelopes queued with [Client.Send] while disconnected are
// written once the next connection is up.
package ws

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/whiteboard/pkg/buildinfo"
	"github.com/matzehuels/whiteboard/pkg/errors"
	"github.com/matzehuels/whiteboard/pkg/protocol"
)

// Connection tuning.
const (
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = PongWait * 9 / 10
	MaxMessageSize = 8 << 20

	DefaultQueueSize = 256
	DefaultMinDelay  = 500 * time.Millisecond
	DefaultMaxDelay  = 30 * time.Second
)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option { return func(c *Client) { c.logger = l } }

// WithOnConnect sets the callback run after every successful dial. reconnect
// is false for the first connection. It runs on the transport's goroutine.
func WithOnConnect(f func(reconnect bool)) Option { return func(c *Client) { c.onConnect = f } }

// WithReconnectDelay bounds the backoff between dial attempts.
func WithReconnectDelay(minDelay, maxDelay time.Duration) Option {
	return func(c *Client) { c.minDelay, c.maxDelay = minDelay, maxDelay }
}

// WithDialer replaces the websocket dialer.
func WithDialer(d *websocket.Dialer) Option { return func(c *Client) { c.dialer = d } }

// Client is a reconnecting websocket transport. Send is safe for concurrent
// use; Run must be called exactly once.
type Client struct {
	url    string
	header http.Header
	dialer *websocket.Dialer
	logger *log.Logger

	onConnect          func(reconnect bool)
	minDelay, maxDelay time.Duration

	out      chan []byte
	incoming chan protocol.Envelope
}

// New returns a client for the relay at url. A non-empty token is sent as a
// bearer credential on every dial.
func New(url, token string, opts ...Option) *Client {
	c := &Client{
		url:       url,
		header:    http.Header{"User-Agent": {buildinfo.UserAgent()}},
		dialer:    websocket.DefaultDialer,
		logger:    log.NewWithOptions(io.Discard, log.Options{}),
		onConnect: func(bool) {},
		minDelay:  DefaultMinDelay,
		maxDelay:  DefaultMaxDelay,
		out:       make(chan []byte, DefaultQueueSize),
		incoming:  make(chan protocol.Envelope, DefaultQueueSize),
	}
	if token != "" {
		c.header.Set("Authorization", "Bearer "+token)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Incoming returns the envelopes received from the relay. It is closed when
// Run returns.
func (c *Client) Incoming() <-chan protocol.Envelope { return c.incoming }

// Send queues env for delivery. It fails if the queue is full.
func (c *Client) Send(_ context.Context, env protocol.Envelope) error {
	data, err := protocol.Encode(env)
	if err != nil {
		return err
	}
	select {
	case c.out <- data:
		return nil
	default:
		return errors.New(errors.ErrCodeTransport, "send queue full, dropping %s", env.Kind)
	}
}

// Run keeps a connection to the relay until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.incoming)
	reconnect := false
	for {
		conn, err := c.dial(ctx)
		if err != nil {
			return err
		}
		c.logger.Info("connected to relay", "url", c.url)
		c.onConnect(reconnect)
		reconnect = true

		err = c.serve(ctx, conn)
		if ctx.Err() != nil {
			return nil
		}
		c.logger.Warn("connection to relay lost", "err", err)
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.minDelay
	b.MaxInterval = c.maxDelay
	b.MaxElapsedTime = 0

	var conn *websocket.Conn
	op := func() error {
		cn, resp, err := c.dialer.DialContext(ctx, c.url, c.header)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			return err
		}
		conn = cn
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("dial failed", "url", c.url, "err", err, "retry_in", wait.Round(time.Millisecond))
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "dial %s", c.url)
	}
	return conn, nil
}

// serve pumps one connection until either side fails or ctx is done.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 2)
	go func() { errc <- c.readPump(ctx, conn) }()
	go func() { errc <- c.writePump(ctx, conn) }()

	err := <-errc
	cancel()
	conn.Close()
	<-errc
	return err
}

func (c *Client) readPump(ctx context.Context, conn *websocket.Conn) error {
	conn.SetReadLimit(MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(PongWait))
	})
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(PongWait))
		env, err := protocol.Decode(data)
		if err != nil {
			c.logger.Warn("dropping malformed message", "err", err)
			continue
		}
		select {
		case c.incoming <- env:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) writePump(ctx context.Context, conn *websocket.Conn) error {
	ticker := time.NewTicker(PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(WriteWait))
			return ctx.Err()
		case data := <-c.out:
			_ = conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return err
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}
