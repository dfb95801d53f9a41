package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/vncsmyrnk/evote/internal/core/ports"
)

type ElectionHandler struct {
	service ports.ElectionService
	logger  *slog.Logger
}

func NewElectionHandler(service ports.ElectionService, logger *slog.Logger) *ElectionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ElectionHandler{service: service, logger: logger}
}

func (h *ElectionHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	active, err := h.service.Active(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, active)
}

func (h *ElectionHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id, ok := electionID(w, r)
	if !ok {
		return
	}
	if err := h.service.Activate(r.Context(), id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ElectionHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := electionID(w, r)
	if !ok {
		return
	}
	if err := h.service.Deactivate(r.Context(), id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type liveRequest struct {
	Live *bool `json:"live"`
}

func (h *ElectionHandler) SetLive(w http.ResponseWriter, r *http.Request) {
	id, ok := electionID(w, r)
	if !ok {
		return
	}
	var req liveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Live == nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, `body must be {"live": true|false}`)
		return
	}
	if err := h.service.SetLive(r.Context(), id, *req.Live); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
