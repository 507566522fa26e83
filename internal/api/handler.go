// Package api exposes the conversation controls over HTTP.
package api

import (
	"encoding/json"
	log "log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"voxtalk/internal/assistant"
)

// Controller is the part of the conversation loop the HTTP surface drives.
type Controller interface {
	Start()
	Stop()
	Status(withHistory bool) assistant.Status
}

type Handler struct {
	ctl Controller
}

func NewHandler(ctl Controller) *Handler {
	return &Handler{ctl: ctl}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/conversation", func(r chi.Router) {
		r.Get("/", h.status)
		r.Post("/start", h.start)
		r.Post("/stop", h.stop)
	})

	return r
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	h.ctl.Start()
	writeJSON(w, http.StatusOK, h.ctl.Status(false))
}

func (h *Handler) stop(w http.ResponseWriter, r *http.Request) {
	h.ctl.Stop()
	writeJSON(w, http.StatusOK, h.ctl.Status(false))
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctl.Status(true))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("Failed to write response", "err", err)
	}
}
