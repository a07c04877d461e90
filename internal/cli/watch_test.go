package cli

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/whiteboard/pkg/client"
	"github.com/matzehuels/whiteboard/pkg/element"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m watchModel, msg tea.Msg) watchModel {
	t.Helper()
	next, _ := m.Update(msg)
	wm, ok := next.(watchModel)
	if !ok {
		t.Fatalf("Update() returned %T", next)
	}
	return wm
}

func liveView(n int) client.View {
	v := client.View{CanvasID: "b1", Authorized: true, Loaded: "channel", CanUndo: true}
	for i := 0; i < n; i++ {
		e, _ := element.Create(i, element.Line, element.Anchors{X1: 0, Y1: 0, X2: float64(i + 1), Y2: 1}, element.ToolConfig{Stroke: "#000", Size: 1})
		v.Elements = append(v.Elements, e)
	}
	return v
}

func TestWatchModelUndoRedo(t *testing.T) {
	var undos, redos int
	m := newWatchModel("b1", nil, nil)
	m.undo = func() { undos++ }
	m.redo = func() { redos++ }

	m = update(t, m, key("u"))
	if undos != 0 {
		t.Error("undo sent before the board loaded")
	}

	m = update(t, m, watchViewMsg(liveView(2)))
	m = update(t, m, key("u"))
	m = update(t, m, key("r"))
	if undos != 1 || redos != 0 {
		t.Errorf("undos, redos = %d, %d, want 1, 0", undos, redos)
	}

	denied := liveView(2)
	denied.Authorized = false
	denied.Denied = "not shared"
	m = update(t, m, watchViewMsg(denied))
	m = update(t, m, key("u"))
	if undos != 1 {
		t.Error("undo sent while read-only")
	}
}

func TestWatchModelView(t *testing.T) {
	m := newWatchModel("b1", nil, nil)
	if out := m.View(); !strings.Contains(out, "connecting") || !strings.Contains(out, "empty board") {
		t.Errorf("initial View() = %q", out)
	}

	m = update(t, m, watchConnMsg{})
	m = update(t, m, watchConnMsg{reconnect: true})
	v := liveView(1)
	v.Authorized = false
	v.Denied = "not shared"
	m = update(t, m, watchViewMsg(v))

	out := m.View()
	for _, want := range []string{"connected", "reconnected 1", "read-only: not shared", "LINE", "1 elements"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q", want)
		}
	}
	if strings.Contains(out, "u undo") {
		t.Error("View() offers undo while read-only")
	}
}

func TestWatchModelScroll(t *testing.T) {
	m := newWatchModel("b1", nil, nil)
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 15})
	m = update(t, m, watchViewMsg(liveView(20)))

	for i := 0; i < 30; i++ {
		m = update(t, m, key("down"))
	}
	if m.cursor != 19 {
		t.Errorf("cursor = %d, want 19", m.cursor)
	}
	if m.offset != 19-m.height+1 {
		t.Errorf("offset = %d, want %d", m.offset, 19-m.height+1)
	}

	m = update(t, m, watchViewMsg(liveView(3)))
	if m.cursor != 2 || m.offset > m.cursor {
		t.Errorf("after shrink cursor, offset = %d, %d", m.cursor, m.offset)
	}
	_ = m.View()
}

func TestWatchModelQuitOnError(t *testing.T) {
	m := newWatchModel("b1", nil, nil)
	next, cmd := m.Update(watchErrMsg{errors.New("relay connection closed")})
	if next.(watchModel).err == nil || cmd == nil {
		t.Error("Update(error) did not record the error and quit")
	}
	if _, cmd := m.Update(key("q")); cmd == nil {
		t.Error("q did not quit")
	}
}

func TestLatestKeepsNewestView(t *testing.T) {
	ch := make(chan client.View, 1)
	latest(ch, client.View{CanvasID: "old"})
	latest(ch, client.View{CanvasID: "new"})
	if got := <-ch; got.CanvasID != "new" {
		t.Errorf("latest() kept %q, want new", got.CanvasID)
	}
}

func TestElementRow(t *testing.T) {
	txt, _ := element.Create(4, element.Text, element.At(3, 4), element.ToolConfig{Stroke: "red", Size: 12, Text: "a very long note that will not fit"})
	row := elementRow(txt)
	if row[0] != "4" || row[1] != "TEXT" || row[2] != "3,4" {
		t.Errorf("elementRow() = %v", row)
	}
	if !strings.HasSuffix(row[6], "…\"") {
		t.Errorf("detail = %q, want truncated text", row[6])
	}
}
