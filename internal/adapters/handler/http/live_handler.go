package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evote/internal/adapters/relay"
	"github.com/vncsmyrnk/evote/internal/core/domain"
)

const DefaultHeartbeat = 15 * time.Second

// LiveHandler streams relay events as server-sent events and accepts
// snapshots forwarded by a remote API process.
type LiveHandler struct {
	broker    *relay.Broker
	heartbeat time.Duration
	logger    *slog.Logger
}

func NewLiveHandler(broker *relay.Broker, heartbeat time.Duration, logger *slog.Logger) *LiveHandler {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LiveHandler{broker: broker, heartbeat: heartbeat, logger: logger.With("module", "live")}
}

// ElectionStream follows one election. Only elections published live
// produce events.
func (h *LiveHandler) ElectionStream(w http.ResponseWriter, r *http.Request) {
	id, ok := electionID(w, r)
	if !ok {
		return
	}
	h.stream(w, r, relay.Filter{ElectionID: id})
}

// AdminStream follows every election, or one when ?electionId= is given,
// regardless of the live flag. Mount it behind RequireAdmin.
func (h *LiveHandler) AdminStream(w http.ResponseWriter, r *http.Request) {
	filter := relay.Filter{Admin: true}
	if raw := r.URL.Query().Get("electionId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, kindBadRequest, "invalid election id")
			return
		}
		filter.ElectionID = id
	}
	h.stream(w, r, filter)
}

func (h *LiveHandler) stream(w http.ResponseWriter, r *http.Request, filter relay.Filter) {
	if h.broker == nil {
		writeError(w, http.StatusServiceUnavailable, kindUnavailable, "live results are not served by this process")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, kindUnavailable, "streaming unsupported")
		return
	}

	sub, err := h.broker.Subscribe(filter)
	if err != nil {
		if errors.Is(err, relay.ErrAdminRequired) {
			writeError(w, http.StatusUnauthorized, kindUnauthorized, err.Error())
			return
		}
		writeError(w, http.StatusServiceUnavailable, kindUnavailable, err.Error())
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case evt, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := writeEvent(w, evt); err != nil {
				h.logger.Debug("subscriber write failed", "subscriber_id", sub.ID, "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w io.Writer, evt domain.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", evt.Version, evt.Type, data)
	return err
}

// Ingest accepts a VOTE_CAST event from a remote publisher.
func (h *LiveHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	if h.broker == nil {
		writeError(w, http.StatusServiceUnavailable, kindUnavailable, "relay is not running")
		return
	}
	var evt domain.Event
	if err := json.NewDecoder(io.LimitReader(r.Body, 8<<20)).Decode(&evt); err != nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, "invalid event body")
		return
	}
	if evt.Type != domain.EventTypeVoteCast || evt.Results == nil || evt.Results.ElectionID != evt.ElectionID {
		writeError(w, http.StatusBadRequest, kindBadRequest, "expected a VOTE_CAST event with results")
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	if !h.broker.PublishEvent(evt) {
		writeError(w, http.StatusServiceUnavailable, string(domain.KindRelayUnavailable), "relay queue is full")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
