// Package web serves the HTTP API over the archive store: linked
// voyage views, timelines, track GeoJSON, search and audit endpoints.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/shiplink/internal/audit"
	"github.com/shiplink/internal/config"
	"github.com/shiplink/internal/crew"
	"github.com/shiplink/internal/geo"
	"github.com/shiplink/internal/index"
	"github.com/shiplink/internal/link"
	"github.com/shiplink/internal/logging"
	"github.com/shiplink/internal/store"
	"github.com/shiplink/internal/web/handlers"
	"github.com/shiplink/internal/web/middleware"
)

// Deps carries the collaborators the server exposes. The caller builds
// them once at startup; the server never opens stores itself.
type Deps struct {
	Store   *store.Store
	Links   *link.Orchestrator
	Auditor *audit.Auditor
	Crew    *crew.Searcher
	Ships   *index.Index
	Tracks  []geo.Track
	Log     *slog.Logger
	Version string
}

// Server hosts the HTTP API.
type Server struct {
	cfg        *config.Config
	deps       Deps
	httpServer *http.Server
	router     *mux.Router
	log        *slog.Logger
}

// NewServer wires routes and middleware around the provided
// collaborators. It does not open sockets; call Start for that.
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("web: config is required")
	}
	if deps.Store == nil || deps.Links == nil || deps.Auditor == nil || deps.Crew == nil || deps.Ships == nil {
		return nil, errors.New("web: store, links, auditor, crew and ships deps are required")
	}
	if deps.Log == nil {
		deps.Log = logging.Discard()
	}

	server := &Server{
		cfg:  cfg,
		deps: deps,
		log:  deps.Log.With("component", "web"),
	}
	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      server.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server, nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	apiHandler := &handlers.APIHandler{
		Store:   s.deps.Store,
		Auditor: s.deps.Auditor,
		Version: s.deps.Version,
	}
	voyageHandler := &handlers.VoyageHandler{
		Store: s.deps.Store,
		Links: s.deps.Links,
	}
	searchHandler := &handlers.SearchHandler{
		Ships:          s.deps.Ships,
		Crew:           s.deps.Crew,
		Tracks:         s.deps.Tracks,
		NearbyRadiusKM: s.cfg.Search.NearbyRadiusKM,
	}

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", apiHandler.Health).Methods("GET")
	api.HandleFunc("/stats", apiHandler.GetStats).Methods("GET")
	api.HandleFunc("/audit", apiHandler.RunAudit).Methods("POST")

	api.HandleFunc("/voyages/{id}/full", voyageHandler.GetFull).Methods("GET")
	api.HandleFunc("/voyages/{id}/timeline", voyageHandler.GetTimeline).Methods("GET")
	api.HandleFunc("/voyages/{id}/track.geojson", voyageHandler.GetTrackGeoJSON).Methods("GET")

	api.HandleFunc("/search/ships", searchHandler.SearchShips).Methods("GET")
	api.HandleFunc("/search/crew", searchHandler.SearchCrew).Methods("GET")
	api.HandleFunc("/search/nearby", searchHandler.SearchNearby).Methods("GET")

	s.router.Use(middleware.CORS(s.cfg.Server.CORSOrigin))
	s.router.Use(middleware.RequestLogging(s.log))

	if s.cfg.Server.AuthToken != "" {
		api.Use(middleware.Authentication(s.cfg.Server.AuthToken))
	}
}

// Handler exposes the configured router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server until SIGINT or SIGTERM arrives, then shuts
// down gracefully. The store stays open; the caller owns it.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		s.log.Info("listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server failed", "error", err)
		}
	}()

	<-stop
	s.log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
