// Package client runs the whiteboard engine for one user.
//
// A [Client] owns a single event loop. Pointer and keyboard input, envelopes
// from the relay, storage results and debounce timers are all turned into
// events and executed one at a time on that loop, so the board session, the
// input machine and the synchronizer never see concurrent access.
//
//	c := client.New(transport,
//	    client.WithLoader(storage.NewClient(apiURL, token)),
//	    client.WithSurface(svg),
//	    client.WithOnChange(func(v client.View) { ... }),
//	)
//	go c.Run(ctx)
//	c.Enter(ctx, "b1")
//	c.PointerDown(input.Toolbox{Tool: input.ToolRectangle, Stroke: "#000", Size: 2}, input.Pointer{X: 10, Y: 10})
//
// The exported methods are safe for concurrent use. Apart from [Client.Run]
// they only enqueue work; [Client.Enter] and [Client.View] wait for it.
package client

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/whiteboard/pkg/collab"
	"github.com/matzehuels/whiteboard/pkg/element"
	"github.com/matzehuels/whiteboard/pkg/errors"
	"github.com/matzehuels/whiteboard/pkg/input"
	"github.com/matzehuels/whiteboard/pkg/protocol"
	"github.com/matzehuels/whiteboard/pkg/render"
)

// Transport sends envelopes to the relay and delivers its answers.
type Transport interface {
	collab.Transport
	Incoming() <-chan protocol.Envelope
}

// Loader fetches the persisted state of a board.
type Loader interface {
	Load(ctx context.Context, canvasID string) ([]element.Element, error)
}

// View is a copy of the client's state, handed to UIs.
type View struct {
	CanvasID   string
	Elements   []element.Element
	Authorized bool
	Loaded     string
	State      input.State
	CanUndo    bool
	CanRedo    bool
	Denied     string
}

const eventQueueSize = 256

// Option configures a Client.
type Option func(*Client)

// WithLoader sets the storage fetch run in parallel with joinCanvas.
func WithLoader(l Loader) Option { return func(c *Client) { c.loader = l } }

// WithSurface sets the surface repainted after every change.
func WithSurface(s render.Surface) Option { return func(c *Client) { c.surface = s } }

// WithRenderer replaces the default renderer.
func WithRenderer(r *render.Renderer) Option { return func(c *Client) { c.renderer = r } }

// WithOnChange sets the callback run on the event loop after every change.
func WithOnChange(f func(View)) Option { return func(c *Client) { c.onChange = f } }

// WithDebounce sets the broadcast debounce delay.
func WithDebounce(d time.Duration) Option { return func(c *Client) { c.debounce = d } }

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option { return func(c *Client) { c.logger = l } }

// Client is the single-user engine runtime.
type Client struct {
	transport Transport
	loader    Loader
	surface   render.Surface
	renderer  *render.Renderer
	onChange  func(View)
	debounce  time.Duration
	logger    *log.Logger

	sync    *collab.Synchronizer
	machine *input.Machine
	denied  string

	ctx    context.Context
	events chan func()
	done   chan struct{}
}

// New returns a client talking to the relay through t.
func New(t Transport, opts ...Option) *Client {
	c := &Client{
		transport: t,
		onChange:  func(View) {},
		debounce:  input.DefaultDebounce,
		logger:    log.NewWithOptions(io.Discard, log.Options{}),
		ctx:       context.Background(),
		events:    make(chan func(), eventQueueSize),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.renderer == nil {
		c.renderer = render.New(render.WithLogger(c.logger))
	}

	c.machine = input.NewMachine(nil,
		input.WithRender(c.changed),
		input.WithBroadcast(c.broadcast),
		input.WithDebounce(c.debounce, c.afterFunc),
		input.WithLogger(c.logger),
	)
	c.sync = collab.New(t,
		collab.WithMachine(c.machine),
		collab.WithLogger(c.logger),
		collab.WithOnChange(c.changed),
		collab.WithOnDenied(func(_, reason string) {
			c.denied = reason
			c.changed()
		}),
		collab.WithOnListUpdate(func(userID string) {
			c.logger.Info("board list changed", "user", userID)
		}),
	)
	return c
}

// Run executes events until ctx is cancelled or the transport's incoming
// channel is closed.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.done)
	c.ctx = ctx
	incoming := c.transport.Incoming()
	for {
		select {
		case <-ctx.Done():
			c.sync.Leave()
			return nil
		case f := <-c.events:
			f()
		case env, ok := <-incoming:
			if !ok {
				c.sync.Leave()
				return errors.New(errors.ErrCodeTransport, "relay connection closed")
			}
			if err := c.sync.Handle(ctx, env); err != nil {
				c.logger.Warn("rejected message", "kind", env.Kind, "err", err)
			}
		}
	}
}

// Enter switches to canvasID: the previous board is left, joinCanvas is sent
// and the storage fetch starts. A failed join send is returned but the board
// stays entered; [Client.Rejoin] retries it.
func (c *Client) Enter(ctx context.Context, canvasID string) error {
	var err error
	if cerr := c.call(ctx, func() { err = c.enter(canvasID) }); cerr != nil {
		return cerr
	}
	return err
}

func (c *Client) enter(canvasID string) error {
	c.denied = ""
	st, err := c.sync.Enter(c.ctx, canvasID)
	if st == nil {
		return err
	}
	c.changed()
	if c.loader != nil {
		ctx := c.ctx
		go func() {
			elements, lerr := c.loader.Load(ctx, canvasID)
			c.post(func() { c.sync.ApplyStorage(ctx, canvasID, elements, lerr) })
		}()
	}
	return err
}

// Leave closes the current board.
func (c *Client) Leave() {
	c.post(func() {
		c.sync.Leave()
		c.changed()
	})
}

// Rejoin re-sends joinCanvas, e.g. after the transport reconnected.
func (c *Client) Rejoin() {
	c.post(func() {
		if err := c.sync.Rejoin(c.ctx); err != nil {
			c.logger.Warn("rejoin failed", "err", err)
		}
	})
}

// Share notifies recipientID that the current board was shared with them.
func (c *Client) Share(ctx context.Context, recipientID string) error {
	var err error
	if cerr := c.call(ctx, func() { err = c.sync.Share(c.ctx, recipientID) }); cerr != nil {
		return cerr
	}
	return err
}

// PointerDown forwards a pointer press.
func (c *Client) PointerDown(tb input.Toolbox, p input.Pointer) {
	c.post(func() { c.machine.PointerDown(tb, p) })
}

// PointerMove forwards a pointer move.
func (c *Client) PointerMove(p input.Pointer) { c.post(func() { c.machine.PointerMove(p) }) }

// PointerUp forwards a pointer release.
func (c *Client) PointerUp() { c.post(func() { c.machine.PointerUp() }) }

// TextBlur closes the text editor with the typed text.
func (c *Client) TextBlur(text string) { c.post(func() { c.machine.TextBlur(text) }) }

// KeyDown forwards a key press.
func (c *Client) KeyDown(key string, ctrl bool) { c.post(func() { c.machine.KeyDown(key, ctrl) }) }

// Undo steps back one committed state.
func (c *Client) Undo() { c.post(func() { c.machine.Undo() }) }

// Redo steps forward one undone state.
func (c *Client) Redo() { c.post(func() { c.machine.Redo() }) }

// View returns a copy of the current state.
func (c *Client) View(ctx context.Context) (View, error) {
	var v View
	err := c.call(ctx, func() { v = c.view() })
	return v, err
}

func (c *Client) view() View {
	st := c.sync.Session()
	if st == nil {
		return View{State: c.machine.State(), Denied: c.denied}
	}
	return View{
		CanvasID:   st.CanvasID,
		Elements:   st.Snapshot(),
		Authorized: st.Authorized,
		Loaded:     st.Loaded().String(),
		State:      c.machine.State(),
		CanUndo:    st.History.CanUndo(),
		CanRedo:    st.History.CanRedo(),
		Denied:     c.denied,
	}
}

// changed repaints the surface and notifies the UI.
func (c *Client) changed() {
	if st := c.sync.Session(); st != nil && c.surface != nil {
		if err := c.renderer.Render(c.surface, st.Elements); err != nil {
			c.logger.Warn("frame rendered with errors", "err", err)
		}
	}
	c.onChange(c.view())
}

func (c *Client) broadcast() {
	if err := c.sync.Broadcast(c.ctx); err != nil {
		c.logger.Warn("broadcast failed", "err", err)
	}
}

// afterFunc runs debounced callbacks on the event loop.
func (c *Client) afterFunc(d time.Duration, f func()) input.Timer {
	return time.AfterFunc(d, func() { c.post(f) })
}

func (c *Client) post(f func()) bool {
	select {
	case c.events <- f:
		return true
	case <-c.done:
		return false
	}
}

func (c *Client) call(ctx context.Context, f func()) error {
	finished := make(chan struct{})
	if !c.post(func() { f(); close(finished) }) {
		return errors.New(errors.ErrCodeTransport, "client stopped")
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return errors.New(errors.ErrCodeTransport, "client stopped")
	}
}
