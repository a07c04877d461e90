package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/matzehuels/whiteboard/pkg/element"
	"github.com/matzehuels/whiteboard/pkg/protocol"
)

// relay accepts connections, forwards every received envelope on got and
// answers joinCanvas with an empty loadCanvas. The first connection is closed
// after its join to exercise reconnects.
func relay(t *testing.T, got chan<- protocol.Envelope, auth chan<- string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	var conns atomic.Int32
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth <- r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		first := conns.Add(1) == 1
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			env, err := protocol.Decode(data)
			if err != nil {
				t.Errorf("relay decode: %v", err)
				return
			}
			got <- env
			if env.Kind != protocol.KindJoinCanvas {
				continue
			}
			load, _ := protocol.Load(env.CanvasID, []element.Element{})
			out, _ := protocol.Encode(load)
			if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
				return
			}
			if first {
				return
			}
		}
	}))
}

func wait[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
	var zero T
	return zero
}

func TestClientReconnects(t *testing.T) {
	got := make(chan protocol.Envelope, 8)
	auth := make(chan string, 8)
	srv := relay(t, got, auth)
	defer srv.Close()

	connects := make(chan bool, 8)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := New(url, "secret",
		WithOnConnect(func(re bool) { connects <- re }),
		WithReconnectDelay(time.Millisecond, 10*time.Millisecond),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	if re := wait(t, connects); re {
		t.Error("first OnConnect reported a reconnect")
	}
	if a := wait(t, auth); a != "Bearer secret" {
		t.Errorf("Authorization = %q, want %q", a, "Bearer secret")
	}
	if err := c.Send(ctx, protocol.Join("b1")); err != nil {
		t.Fatal(err)
	}
	if env := wait(t, got); env.Kind != protocol.KindJoinCanvas || env.CanvasID != "b1" {
		t.Errorf("relay got %v, want joinCanvas b1", env)
	}
	if env := wait(t, c.Incoming()); env.Kind != protocol.KindLoadCanvas {
		t.Errorf("Incoming() = %v, want loadCanvas", env)
	}

	// the relay dropped the first connection after answering
	if re := wait(t, connects); !re {
		t.Error("second OnConnect did not report a reconnect")
	}
	if err := c.Send(ctx, protocol.Join("b1")); err != nil {
		t.Fatal(err)
	}
	if env := wait(t, got); env.Kind != protocol.KindJoinCanvas {
		t.Errorf("relay got %v after reconnect, want joinCanvas", env)
	}

	cancel()
	if err := wait(t, done); err != nil {
		t.Errorf("Run() = %v, want nil after cancel", err)
	}
	for range c.Incoming() {
	}
}

func TestSendQueueFull(t *testing.T) {
	c := New("ws://unused", "")
	for range DefaultQueueSize {
		if err := c.Send(context.Background(), protocol.Join("b1")); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Send(context.Background(), protocol.Join("b1")); err == nil {
		t.Error("Send() on a full queue = nil, want error")
	}
}

func TestRunCancelledWhileDialing(t *testing.T) {
	c := New("ws://127.0.0.1:1", "", WithReconnectDelay(time.Millisecond, 5*time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := c.Run(ctx); err == nil {
		t.Error("Run() = nil, want context error while dialing")
	}
}
