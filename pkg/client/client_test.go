package client

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/whiteboard/pkg/element"
	"github.com/matzehuels/whiteboard/pkg/errors"
	"github.com/matzehuels/whiteboard/pkg/input"
	"github.com/matzehuels/whiteboard/pkg/protocol"
	"github.com/matzehuels/whiteboard/pkg/render/sink"
)

type fakeTransport struct {
	mu       sync.Mutex
	sent     []protocol.Envelope
	incoming chan protocol.Envelope
}

func newTransport() *fakeTransport {
	return &fakeTransport{incoming: make(chan protocol.Envelope, 16)}
}

func (f *fakeTransport) Send(_ context.Context, env protocol.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, env)
	return nil
}

func (f *fakeTransport) Incoming() <-chan protocol.Envelope { return f.incoming }

func (f *fakeTransport) kinds() []protocol.Kind {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []protocol.Kind
	for _, env := range f.sent {
		out = append(out, env.Kind)
	}
	return out
}

type loaderFunc func(ctx context.Context, id string) ([]element.Element, error)

func (f loaderFunc) Load(ctx context.Context, id string) ([]element.Element, error) { return f(ctx, id) }

func start(t *testing.T, c *Client) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ctx
}

func eventually(t *testing.T, c *Client, cond func(View) bool) View {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		v, err := c.View(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if cond(v) {
			return v
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached")
	return View{}
}

func TestDrawOnLoadedBoard(t *testing.T) {
	tr := newTransport()
	rec := sink.NewRecorder()
	c := New(tr, WithSurface(rec))
	ctx := start(t, c)

	if err := c.Enter(ctx, "b1"); err != nil {
		t.Fatal(err)
	}
	load, _ := protocol.Load("b1", nil)
	tr.incoming <- load
	eventually(t, c, func(v View) bool { return v.Loaded == "channel" })

	c.PointerDown(input.Toolbox{Tool: input.ToolRectangle, Stroke: "#000", Size: 2}, input.Pointer{X: 10, Y: 10})
	c.PointerMove(input.Pointer{X: 40, Y: 30})
	c.PointerUp()

	v, err := c.View(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Elements) != 1 || v.Elements[0].Type != element.Rectangle || !v.CanUndo {
		t.Errorf("View() = %+v, want one committed rectangle", v)
	}
	kinds := tr.kinds()
	if len(kinds) < 2 || kinds[0] != protocol.KindJoinCanvas || kinds[len(kinds)-1] != protocol.KindDrawingUpdate {
		t.Errorf("sent kinds = %v, want joinCanvas ... drawingUpdate", kinds)
	}
	if !strings.Contains(rec.String(), "stroke #000") {
		t.Errorf("surface calls = %v, want stroked rectangle", rec.Calls())
	}

	c.Undo()
	if v := eventually(t, c, func(v View) bool { return len(v.Elements) == 0 }); !v.CanRedo {
		t.Error("CanRedo = false after Undo")
	}
}

func TestStorageLoad(t *testing.T) {
	stored := []element.Element{{ID: 3, Type: element.Text, X1: 1, Y1: 1, X2: 1, Y2: 1, Stroke: "#000", Size: 12, Text: "hi"}}
	var gotID string
	loader := loaderFunc(func(_ context.Context, id string) ([]element.Element, error) {
		gotID = id
		return stored, nil
	})
	tr := newTransport()
	c := New(tr, WithLoader(loader))
	ctx := start(t, c)

	if err := c.Enter(ctx, "b7"); err != nil {
		t.Fatal(err)
	}
	v := eventually(t, c, func(v View) bool { return v.Loaded == "storage" })
	if gotID != "b7" || !element.Equal(v.Elements, stored) {
		t.Errorf("View() = %+v after loading %q, want stored elements", v, gotID)
	}

	late, _ := protocol.Load("b7", nil)
	tr.incoming <- late
	eventually(t, c, func(View) bool { return len(tr.incoming) == 0 })
	v, _ = c.View(ctx)
	if len(v.Elements) != 1 {
		t.Errorf("late loadCanvas replaced the board: %v", v.Elements)
	}
}

func TestUnauthorizedView(t *testing.T) {
	tr := newTransport()
	var changes []View
	var mu sync.Mutex
	c := New(tr, WithOnChange(func(v View) {
		mu.Lock()
		changes = append(changes, v)
		mu.Unlock()
	}))
	ctx := start(t, c)
	_ = c.Enter(ctx, "b1")
	tr.incoming <- protocol.Deny("b1", "not shared")

	v := eventually(t, c, func(v View) bool { return !v.Authorized })
	if v.Denied != "not shared" {
		t.Errorf("Denied = %q, want %q", v.Denied, "not shared")
	}
	c.PointerDown(input.Toolbox{Tool: input.ToolLine, Stroke: "#000", Size: 1}, input.Pointer{X: 1, Y: 1})
	if v, _ := c.View(ctx); len(v.Elements) != 0 {
		t.Errorf("unauthorized pointer added elements: %v", v.Elements)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(changes) == 0 {
		t.Error("OnChange never called")
	}
}

func TestRunStopsWhenTransportCloses(t *testing.T) {
	tr := newTransport()
	c := New(tr)
	close(tr.incoming)
	err := c.Run(context.Background())
	if !errors.Is(err, errors.ErrCodeTransport) {
		t.Errorf("Run() = %v, want %s", err, errors.ErrCodeTransport)
	}
	if _, err := c.View(context.Background()); err == nil {
		t.Error("View() after Run returned = nil error")
	}
}
