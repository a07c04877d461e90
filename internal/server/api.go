package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/whiteboard/pkg/element"
	"github.com/matzehuels/whiteboard/pkg/errors"
	"github.com/matzehuels/whiteboard/pkg/storage"
)

// anonymous is the user of unauthenticated connections when no tokens are
// configured.
const anonymous = "anonymous"

// Handler returns the relay's HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.accessLog)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Get("/ws", s.serveWS)
	r.Get(storage.LoadPath+"{id}", s.loadBoard)
	return r
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		s.logger.Debug("handled", "method", r.Method, "path", r.URL.Path, "status", m.Code, "duration", m.Duration)
	})
}

// authenticate returns the user id of the request.
func (s *Server) authenticate(r *http.Request) (string, bool) {
	token := r.URL.Query().Get("token")
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		token = strings.TrimPrefix(h, "Bearer ")
	}
	if len(s.tokens) == 0 {
		if u := r.URL.Query().Get("user"); errors.ValidateUserID(u) == nil {
			return u, true
		}
		return anonymous, true
	}
	user, ok := s.tokens[token]
	return user, ok && token != ""
}

func (s *Server) loadBoard(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	id := chi.URLParam(r, "id")
	if err := errors.ValidateCanvasID(id); err != nil {
		writeError(w, http.StatusBadRequest, errors.UserMessage(err))
		return
	}
	board, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.logger.Error("load board", "canvas", id, "err", err)
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	if board == nil {
		writeError(w, http.StatusNotFound, "board not found")
		return
	}
	if !board.CanAccess(user) {
		writeError(w, http.StatusForbidden, "not authorized")
		return
	}
	resp := storage.LoadResponse{Elements: board.Elements}
	if resp.Elements == nil {
		resp.Elements = []element.Element{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
