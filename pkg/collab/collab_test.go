package collab

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matzehuels/whiteboard/pkg/element"
	wberrors "github.com/matzehuels/whiteboard/pkg/errors"
	"github.com/matzehuels/whiteboard/pkg/input"
	"github.com/matzehuels/whiteboard/pkg/protocol"
	"github.com/matzehuels/whiteboard/pkg/session"
)

type fakeTransport struct {
	sent []protocol.Envelope
	err  error
}

func (f *fakeTransport) Send(_ context.Context, env protocol.Envelope) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, env)
	return nil
}

func (f *fakeTransport) last(t *testing.T) protocol.Envelope {
	t.Helper()
	if len(f.sent) == 0 {
		t.Fatal("nothing sent")
	}
	return f.sent[len(f.sent)-1]
}

type noTimer struct{}

func (noTimer) Stop() bool { return true }

func elementsOf(t *testing.T, env protocol.Envelope) []element.Element {
	t.Helper()
	got, err := env.Elements()
	if err != nil {
		t.Fatal(err)
	}
	return got
}

func mustEnv(t *testing.T) func(protocol.Envelope, error) protocol.Envelope {
	return func(env protocol.Envelope, err error) protocol.Envelope {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
		return env
	}
}

func shape(id int, typ element.Type) element.Element {
	e, _ := element.Create(id, typ, element.Anchors{X1: 1, Y1: 1, X2: 20, Y2: 20}, element.ToolConfig{Stroke: "#000", Size: 1})
	return e
}

func TestJoinLoadDraw(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTransport{}
	var sync *Synchronizer
	m := input.NewMachine(nil,
		input.WithBroadcast(func() { _ = sync.Broadcast(ctx) }),
		input.WithDebounce(input.DefaultDebounce, func(time.Duration, func()) input.Timer { return noTimer{} }),
	)
	sync = New(tr, WithMachine(m))

	st, err := sync.Enter(ctx, "b1")
	if err != nil {
		t.Fatalf("Enter() error = %v", err)
	}
	if env := tr.last(t); env.Kind != protocol.KindJoinCanvas || env.CanvasID != "b1" {
		t.Errorf("sent %v, want joinCanvas b1", env)
	}

	load := mustEnv(t)(protocol.Load("b1", nil))
	if err := sync.Handle(ctx, load); err != nil {
		t.Fatal(err)
	}

	m.PointerDown(input.Toolbox{Tool: input.ToolRectangle, Stroke: "#000", Size: 2}, input.Pointer{X: 10, Y: 10})
	m.PointerMove(input.Pointer{X: 50, Y: 40})
	m.PointerUp()

	if len(st.Elements) != 1 || st.Elements[0].Type != element.Rectangle {
		t.Fatalf("Elements = %v, want one rectangle", st.Elements)
	}
	past := st.History.Past()
	if len(past) != 2 || len(past[0]) != 0 || len(past[1]) != 1 {
		t.Errorf("Past() = %v, want [[], [rect]]", past)
	}
	env := tr.last(t)
	if env.Kind != protocol.KindDrawingUpdate || env.CanvasID != "b1" {
		t.Errorf("sent %v, want drawingUpdate b1", env)
	}
	if got := elementsOf(t, env); !element.Equal(got, st.Elements) {
		t.Errorf("broadcast elements = %v, want %v", got, st.Elements)
	}
}

func TestLastMessageWins(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTransport{}
	sync := New(tr)
	st, _ := sync.Enter(ctx, "b1")

	st.Elements = []element.Element{shape(0, element.Circle)}
	st.Commit()
	if err := sync.Broadcast(ctx); err != nil {
		t.Fatal(err)
	}

	theirs := []element.Element{shape(7, element.Line)}
	if err := sync.Handle(ctx, mustEnv(t)(protocol.Receive("b1", theirs))); err != nil {
		t.Fatal(err)
	}
	if !element.Equal(st.Elements, theirs) {
		t.Errorf("Elements = %v, want remote [line]", st.Elements)
	}
	past := st.History.Past()
	if len(past) != 1 || !element.Equal(past[0], theirs) {
		t.Errorf("Past() = %v, want [[line]]", past)
	}
	if st.History.CanRedo() {
		t.Error("remote update kept the redo stack")
	}
}

func TestRemoteUpdateInterruptsStroke(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTransport{}
	var sync *Synchronizer
	m := input.NewMachine(nil,
		input.WithBroadcast(func() { _ = sync.Broadcast(ctx) }),
		input.WithDebounce(input.DefaultDebounce, func(time.Duration, func()) input.Timer { return noTimer{} }),
	)
	sync = New(tr, WithMachine(m))
	st, _ := sync.Enter(ctx, "b1")
	_ = sync.Handle(ctx, mustEnv(t)(protocol.Load("b1", nil)))

	m.PointerDown(input.Toolbox{Tool: input.ToolRectangle, Stroke: "#000", Size: 2}, input.Pointer{X: 10, Y: 10})
	drawnID := st.Elements[0].ID
	theirs := []element.Element{{ID: drawnID, Type: element.Text, X1: 300, Y1: 300, Stroke: "#000", Size: 12, Text: "peer"}}
	if err := sync.Handle(ctx, mustEnv(t)(protocol.Receive("b1", theirs))); err != nil {
		t.Fatal(err)
	}
	if m.State() != input.None {
		t.Errorf("State() = %v after remote update, want none", m.State())
	}

	sent := len(tr.sent)
	m.PointerMove(input.Pointer{X: 50, Y: 60})
	m.PointerUp()
	if !element.Equal(st.Elements, theirs) {
		t.Errorf("Elements = %+v, want the peer's sequence untouched", st.Elements)
	}
	if len(tr.sent) != sent {
		t.Errorf("sent %d messages after the interrupted stroke, want 0", len(tr.sent)-sent)
	}
}

func TestInitialLoadRace(t *testing.T) {
	ctx := context.Background()
	channel := []element.Element{shape(1, element.Line)}
	stored := []element.Element{shape(2, element.Rectangle)}

	t.Run("channel first", func(t *testing.T) {
		sync := New(&fakeTransport{})
		st, _ := sync.Enter(ctx, "b1")
		_ = sync.Handle(ctx, mustEnv(t)(protocol.Load("b1", channel)))
		sync.ApplyStorage(ctx, "b1", stored, nil)
		if !element.Equal(st.Elements, channel) || st.Loaded() != session.LoadChannel {
			t.Errorf("Elements = %v from %v, want channel state", st.Elements, st.Loaded())
		}
	})

	t.Run("storage first", func(t *testing.T) {
		sync := New(&fakeTransport{})
		st, _ := sync.Enter(ctx, "b1")
		sync.ApplyStorage(ctx, "b1", stored, nil)
		_ = sync.Handle(ctx, mustEnv(t)(protocol.Load("b1", channel)))
		if !element.Equal(st.Elements, stored) || st.Loaded() != session.LoadStorage {
			t.Errorf("Elements = %v from %v, want storage state", st.Elements, st.Loaded())
		}
	})

	t.Run("storage failure", func(t *testing.T) {
		changes := 0
		sync := New(&fakeTransport{}, WithOnChange(func() { changes++ }))
		st, _ := sync.Enter(ctx, "b1")
		sync.ApplyStorage(ctx, "b1", nil, errors.New("connection refused"))
		if len(st.Elements) != 0 || st.Loaded() != session.LoadNone || changes != 0 {
			t.Errorf("failed fetch changed the board: %v", st.Elements)
		}
		_ = sync.Handle(ctx, mustEnv(t)(protocol.Load("b1", channel)))
		if !element.Equal(st.Elements, channel) {
			t.Error("loadCanvas after a failed fetch was not applied")
		}
	})
}

func TestUnauthorized(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTransport{}
	var denied []string
	sync := New(tr, WithOnDenied(func(id, reason string) { denied = append(denied, id+":"+reason) }))
	st, _ := sync.Enter(ctx, "b1")
	st.Elements = []element.Element{shape(0, element.Arrow)}

	if err := sync.Handle(ctx, protocol.Deny("b1", "not shared")); err != nil {
		t.Fatal(err)
	}
	if st.Authorized {
		t.Error("Authorized = true after unauthorized")
	}
	if len(denied) != 1 || denied[0] != "b1:not shared" {
		t.Errorf("denied callbacks = %v", denied)
	}
	if len(st.Elements) != 1 {
		t.Error("unauthorized rolled back local elements")
	}

	sent := len(tr.sent)
	if err := sync.Broadcast(ctx); err != nil {
		t.Fatal(err)
	}
	if len(tr.sent) != sent {
		t.Error("Broadcast() sent while unauthorized")
	}
}

func TestIgnoresOtherBoards(t *testing.T) {
	ctx := context.Background()
	sync := New(&fakeTransport{})
	st, _ := sync.Enter(ctx, "b1")

	_ = sync.Handle(ctx, mustEnv(t)(protocol.Receive("b2", []element.Element{shape(1, element.Line)})))
	_ = sync.Handle(ctx, protocol.Deny("b2", "nope"))
	if len(st.Elements) != 0 || !st.Authorized {
		t.Error("message for another board was applied")
	}

	next, _ := sync.Enter(ctx, "b2")
	if st.Live() {
		t.Error("previous session still live after Enter()")
	}
	sync.ApplyStorage(ctx, "b1", []element.Element{shape(1, element.Line)}, nil)
	if len(next.Elements) != 0 || next.Loaded() != session.LoadNone {
		t.Error("stale storage result applied to the new board")
	}

	sync.Leave()
	if sync.Session() != nil {
		t.Error("Session() != nil after Leave()")
	}
	if err := sync.Handle(ctx, mustEnv(t)(protocol.Load("b2", nil))); err != nil {
		t.Errorf("Handle() after Leave() = %v", err)
	}
}

func TestRejoinAndShare(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTransport{}
	sync := New(tr)

	if err := sync.Rejoin(ctx); err != nil || len(tr.sent) != 0 {
		t.Errorf("Rejoin() outside a board = %v, sent %d", err, len(tr.sent))
	}
	sync.Enter(ctx, "b1")
	if err := sync.Rejoin(ctx); err != nil {
		t.Fatal(err)
	}
	if env := tr.last(t); env.Kind != protocol.KindJoinCanvas || env.CanvasID != "b1" {
		t.Errorf("Rejoin() sent %v", env)
	}
	if err := sync.Share(ctx, "bob"); err != nil {
		t.Fatal(err)
	}
	if p, _ := tr.last(t).Shared(); p.RecipientID != "bob" {
		t.Errorf("Share() recipient = %q", p.RecipientID)
	}
	if err := sync.Share(ctx, ""); !wberrors.Is(err, wberrors.ErrCodeInvalidInput) {
		t.Errorf("Share(\"\") = %v, want %s", err, wberrors.ErrCodeInvalidInput)
	}
}

func TestRejoinReloads(t *testing.T) {
	ctx := context.Background()
	changes := 0
	sync := New(&fakeTransport{}, WithOnChange(func() { changes++ }))
	st, _ := sync.Enter(ctx, "b1")
	_ = sync.Handle(ctx, mustEnv(t)(protocol.Load("b1", []element.Element{shape(0, element.Line)})))

	// peers drew while the transport was down
	peers := []element.Element{shape(0, element.Line), shape(1, element.Circle)}
	if err := sync.Rejoin(ctx); err != nil {
		t.Fatal(err)
	}
	_ = sync.Handle(ctx, mustEnv(t)(protocol.Load("b1", peers)))
	if !element.Equal(st.Elements, peers) || changes != 2 {
		t.Errorf("Elements = %v after %d changes, want reload applied", st.Elements, changes)
	}

	sync.ApplyStorage(ctx, "b1", []element.Element{shape(2, element.Rectangle)}, nil)
	_ = sync.Handle(ctx, mustEnv(t)(protocol.Load("b1", nil)))
	if !element.Equal(st.Elements, peers) {
		t.Errorf("Elements = %v, want later loads dropped", st.Elements)
	}
}

func TestEnterErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := New(&fakeTransport{}).Enter(ctx, ""); !wberrors.Is(err, wberrors.ErrCodeInvalidInput) {
		t.Errorf("Enter(\"\") = %v, want %s", err, wberrors.ErrCodeInvalidInput)
	}
	st, err := New(&fakeTransport{err: errors.New("closed")}).Enter(ctx, "b1")
	if !wberrors.Is(err, wberrors.ErrCodeTransport) || st == nil {
		t.Errorf("Enter() on a broken transport = (%v, %v), want session + %s", st, err, wberrors.ErrCodeTransport)
	}
}

func TestListUpdate(t *testing.T) {
	var users []string
	sync := New(&fakeTransport{}, WithOnListUpdate(func(u string) { users = append(users, u) }))
	if err := sync.Handle(context.Background(), protocol.ListUpdate("alice")); err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 || users[0] != "alice" {
		t.Errorf("list updates = %v", users)
	}
}

func TestRejectsClientKinds(t *testing.T) {
	ctx := context.Background()
	sync := New(&fakeTransport{})
	sync.Enter(ctx, "b1")
	err := sync.Handle(ctx, mustEnv(t)(protocol.Update("b1", nil)))
	if !wberrors.Is(err, wberrors.ErrCodeInvalidMessage) {
		t.Errorf("Handle(drawingUpdate) = %v, want %s", err, wberrors.ErrCodeInvalidMessage)
	}
}
