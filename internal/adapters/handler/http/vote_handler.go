package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

type VoteHandler struct {
	service ports.AdmissionService
	logger  *slog.Logger
}

func NewVoteHandler(service ports.AdmissionService, logger *slog.Logger) *VoteHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VoteHandler{
		service: service,
		logger:  logger,
	}
}

type voteRequest struct {
	VoterID    uuid.UUID          `json:"voterId"`
	ElectionID uuid.UUID          `json:"electionId"`
	Selections []domain.Selection `json:"selections"`
}

// Submit stores every selection or none and responds with the updated
// results.
func (h *VoteHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, "invalid request body")
		return
	}
	if req.VoterID == uuid.Nil || req.ElectionID == uuid.Nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, "voterId and electionId are required")
		return
	}

	receipt, err := h.service.Submit(r.Context(), ports.SubmitInput{
		VoterID:    req.VoterID,
		ElectionID: req.ElectionID,
		Selections: req.Selections,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}
