package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

type ResultsHandler struct {
	snapshots ports.SnapshotService
	logger    *slog.Logger
}

func NewResultsHandler(snapshots ports.SnapshotService, logger *slog.Logger) *ResultsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultsHandler{snapshots: snapshots, logger: logger}
}

func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	id, ok := electionID(w, r)
	if !ok {
		return
	}

	snapshot, err := h.snapshots.Snapshot(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// electionID parses the {id} route parameter, writing a 400 on failure.
func electionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, "invalid election id")
		return uuid.Nil, false
	}
	return id, true
}
