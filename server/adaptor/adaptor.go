package adaptor

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ponyo877/swapdesk/server/usecase"
)

// Identity handshake headers. Query parameters of the same meaning are
// accepted as a fallback for clients that cannot set headers.
const (
	headerSessionID = "X-Session-Id"
	headerAddress   = "X-Address"
)

type Adaptor struct {
	uc     Usecase
	logger *slog.Logger
}

func NewAdaptor(uc Usecase, logger *slog.Logger) *Adaptor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adaptor{uc: uc, logger: logger}
}

// Router wires the HTTP surface: session CRUD plus the WebSocket
// channel endpoint.
func (a *Adaptor) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/create-session", a.handleCreateSession)
	r.Get("/session/{id}", a.handleGetSession)
	r.Get("/ws", a.handleWS)
	return r
}

func (a *Adaptor) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := a.uc.CreateSession(r.Context())
	if err != nil {
		a.logger.Error("create session failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

func (a *Adaptor) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	session, err := a.uc.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, usecase.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "not-found")
			return
		}
		a.logger.Error("get session failed", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
