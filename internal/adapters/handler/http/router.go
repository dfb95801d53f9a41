package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

type Handlers struct {
	Votes     *VoteHandler
	Results   *ResultsHandler
	Elections *ElectionHandler
	// Live is nil when snapshots go to a remote relay.
	Live *LiveHandler

	Tokens   ports.TokenService
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

func newRouter(logger *slog.Logger, gatherer prometheus.Gatherer) chi.Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// NewHandler builds the API router.
func NewHandler(h Handlers) http.Handler {
	r := newRouter(h.Logger, h.Gatherer)
	live := h.Live
	if live == nil {
		live = NewLiveHandler(nil, 0, h.Logger)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/votes", h.Votes.Submit)

		r.Route("/elections", func(r chi.Router) {
			r.Get("/active", h.Elections.GetActive)
			r.Get("/{id}/results", h.Results.GetResults)
			r.Get("/{id}/live", live.ElectionStream)
		})

		r.With(RequireAdmin(h.Tokens)).Get("/live", live.AdminStream)

		r.Route("/admin/elections/{id}", func(r chi.Router) {
			r.Use(RequireAdmin(h.Tokens))
			r.Post("/activate", h.Elections.Activate)
			r.Post("/deactivate", h.Elections.Deactivate)
			r.Post("/live", h.Elections.SetLive)
		})
	})

	return r
}

// NewRelayHandler builds the router of a standalone relay process.
func NewRelayHandler(live *LiveHandler, tokens ports.TokenService, relayToken string, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	r := newRouter(logger, gatherer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/elections/{id}/live", live.ElectionStream)
		r.With(RequireAdmin(tokens)).Get("/live", live.AdminStream)
		r.With(requireSharedToken(relayToken)).Post("/relay/snapshots", live.Ingest)
	})
	return r
}
