package api

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"
)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	svc    NowPlayer
	logger *log.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(svc NowPlayer, logger *log.Logger) *Handlers {
	return &Handlers{svc: svc, logger: logger}
}

// errorBody is the JSON body of a failed invocation.
type errorBody struct {
	Error string `json:"error"`
}

// CurrentlyPlaying handles GET /currently-playing.
func (h *Handlers) CurrentlyPlaying(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetNowPlaying(r.Context())
	if err != nil {
		h.logger.Error("now playing failed", "request_id", middleware.GetReqID(r.Context()), "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, res.Body())
}

// Health handles GET /healthz.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
