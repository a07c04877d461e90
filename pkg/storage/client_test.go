package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/whiteboard/pkg/element"
	"github.com/matzehuels/whiteboard/pkg/errors"
)

func TestLoad(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth, gotPath = r.Header.Get("Authorization"), r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"elements":[{"id":0,"type":"LINE","x1":1,"y1":2,"x2":3,"y2":4,"stroke":"#000","size":2}]}`))
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL+"/", "secret").Load(context.Background(), "b1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer secret")
	}
	if gotPath != "/api/canvas/load/b1" {
		t.Errorf("path = %q, want /api/canvas/load/b1", gotPath)
	}
	if len(got) != 1 || got[0].Type != element.Line || got[0].X2 != 3 {
		t.Errorf("Load() = %+v, want one LINE", got)
	}
}

func TestLoadEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL, "").Load(context.Background(), "b1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Load() = %#v, want empty slice", got)
	}
}

func TestLoadStatus(t *testing.T) {
	tests := []struct {
		status    int
		wantCode  errors.Code
		wantCalls int32
	}{
		{http.StatusNotFound, errors.ErrCodeBoardNotFound, 1},
		{http.StatusUnauthorized, errors.ErrCodeUnauthorized, 1},
		{http.StatusForbidden, errors.ErrCodeUnauthorized, 1},
		{http.StatusTeapot, errors.ErrCodeNetwork, 1},
		{http.StatusBadGateway, errors.ErrCodeNetwork, 3},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "t", WithRetry(3, time.Millisecond))
			_, err := c.Load(context.Background(), "b1")
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("Load() = %v, want %s", err, tt.wantCode)
			}
			if n := calls.Load(); n != tt.wantCalls {
				t.Errorf("requests = %d, want %d", n, tt.wantCalls)
			}
		})
	}
}

func TestLoadRecovers(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"elements":[]}`))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, "t", WithRetry(3, time.Millisecond)).Load(context.Background(), "b1"); err != nil {
		t.Errorf("Load() error = %v, want recovery after 503", err)
	}
}

func TestLoadRejectsBadID(t *testing.T) {
	_, err := NewClient("http://unused", "").Load(context.Background(), "../etc")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Load() = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
}

func TestLoadBadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Load(context.Background(), "b1")
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Load() = %v, want %s", err, errors.ErrCodeInvalidFormat)
	}
}
