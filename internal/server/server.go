package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/repstack/repstack/internal/ingest/hevy"
	"github.com/repstack/repstack/internal/records"
	"github.com/repstack/repstack/internal/storage"
	"github.com/rs/cors"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db       *storage.DB
	provider *hevy.Provider
	analyzer *records.Analyzer
	log      *slog.Logger
	apiKey   string
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, provider *hevy.Provider, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:       db,
		provider: provider,
		analyzer: records.NewAnalyzer(db),
		log:      log,
		apiKey:   apiKey,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// MountMCP attaches the MCP streamable HTTP handler under /mcp, behind
// the same API key as the write endpoints.
func (s *Server) MountMCP(h http.Handler) {
	s.router.Route("/mcp", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Handle("/*", h)
		r.Handle("/", h)
	})
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "X-API-Key", "X-User-ID"},
	}).Handler)
	s.router.Use(DevIdentity)

	// Write endpoints (API key required)
	s.router.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/api/v1/import", s.handleImport)
		r.Post("/api/v1/activity", s.handleActivityIngest)
		r.Post("/api/v1/sessions", s.handleCreateSession)
		r.Put("/api/v1/sessions/{id}/items", s.handleReplaceItems)
		r.Delete("/api/v1/sessions/{id}", s.handleDeleteSession)
		r.Post("/api/v1/goals", s.handleCreateGoal)
		r.Put("/api/v1/goals/{id}", s.handleUpdateGoal)
		r.Delete("/api/v1/goals/{id}", s.handleDeleteGoal)
	})

	// Read endpoints
	s.router.Get("/api/v1/sessions", s.handleListSessions)
	s.router.Get("/api/v1/sessions/{id}", s.handleGetSession)
	s.router.Get("/api/v1/exercises", s.handleListExercises)
	s.router.Get("/api/v1/exercises/history", s.handleExerciseHistory)
	s.router.Get("/api/v1/records", s.handleListRecords)
	s.router.Get("/api/v1/activity/summary", s.handleActivitySummary)
	s.router.Get("/api/v1/goals", s.handleListGoals)
	s.router.Get("/api/v1/goals/{id}/streak", s.handleGoalStreak)
	s.router.Get("/api/v1/forecast", s.handleForecast)
	s.router.Get("/api/v1/stats", s.handleStats)
	s.router.Get("/api/v1/imports", s.handleImportLogs)
}
