// Package httpapi exposes the page pipeline and collaboration rooms over HTTP.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/microcosm-cc/bluemonday"

	"SiteForge/internal/collab"
	"SiteForge/internal/metrics"
	"SiteForge/internal/usecase"
)

const (
	maxJSONBody      = 8 << 20
	maxBroadcastBody = 1 << 20
)

// Deps wires the HTTP handlers to the use cases.
type Deps struct {
	Synthesizer   *usecase.Synthesizer
	Pages         *usecase.Pages
	Rooms         *collab.Registry
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
	InternalToken string
}

// Server holds the handlers.
type Server struct {
	synth         *usecase.Synthesizer
	pages         *usecase.Pages
	rooms         *collab.Registry
	metrics       *metrics.Metrics
	logger        *slog.Logger
	internalToken string
	text          *bluemonday.Policy
}

// NewServer constructs the HTTP layer.
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		synth:         deps.Synthesizer,
		pages:         deps.Pages,
		rooms:         deps.Rooms,
		metrics:       deps.Metrics,
		logger:        logger,
		internalToken: deps.InternalToken,
		text:          bluemonday.StrictPolicy(),
	}
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Logger)
		r.Post("/pages/synthesize", s.handleSynthesize)
		r.Post("/sites/create", s.handleCreateSite)
		r.Post("/pages/save", s.handleSave)
		r.Get("/pages/{site}/{env}/{page}", s.handleGetPage)
	})

	r.Get("/ws/{site}/{page}", s.handleSocket)
	r.Post("/internal/rooms/{site}/{page}/broadcast", s.handleBroadcast)
	return r
}
