package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vncsmyrnk/evote/internal/core/domain"
)

const (
	kindBadRequest   = "BadRequest"
	kindUnauthorized = "Unauthorized"
	kindUnavailable  = "Unavailable"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Debug("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorResponse{Error: kind, Message: message})
}

// respondError maps a service error to its status code. Storage faults are
// logged and reported without their cause.
func respondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if errors.Is(err, domain.ErrUnauthorized) {
		writeError(w, http.StatusUnauthorized, kindUnauthorized, domain.ErrUnauthorized.Error())
		return
	}

	kind := domain.KindOf(err)
	status := statusFor(kind)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
		message = domain.ErrStorageFault.Error()
	}
	writeError(w, status, string(kind), message)
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindVoterNotFound, domain.KindElectionNotFound:
		return http.StatusNotFound
	case domain.KindAlreadyVoted:
		return http.StatusConflict
	case domain.KindDuplicateCategorySelection,
		domain.KindInvalidSelection,
		domain.KindElectionInactive,
		domain.KindVotingWindowClosed:
		return http.StatusBadRequest
	case domain.KindRelayUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
