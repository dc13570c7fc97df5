// Package api exposes project selection, workbook imports and the imported
// scenario list over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/semaphore"

	"testdesk/app"
	"testdesk/internal"
	"testdesk/models"
)

// Importer runs one workbook import.
type Importer interface {
	Import(ctx context.Context, req app.ImportRequest) (*app.ImportResult, error)
}

// Catalog serves the read views and project creation.
type Catalog interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	CreateProject(ctx context.Context, name string) (models.Project, bool, error)
	ListScenarioRows(ctx context.Context, projectID int64) ([]models.ScenarioRow, error)
	ImportHistory(ctx context.Context, limit int) ([]models.ImportRun, error)
}

// Config tunes the HTTP surface.
type Config struct {
	UploadLimitBytes int64
	ReadTimeout      time.Duration
	// DefaultOverwrite applies when an upload omits the overwrite field
	DefaultOverwrite bool
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() Config {
	return Config{
		UploadLimitBytes: 32 << 20,
		ReadTimeout:      30 * time.Second,
		DefaultOverwrite: true,
	}
}

// Server wires handlers onto a chi router.
type Server struct {
	router   *chi.Mux
	importer Importer
	catalog  Catalog
	config   Config
	imports  *semaphore.Weighted
	log      *internal.Logger
}

// NewServer creates a server with middleware and routes installed.
func NewServer(config Config, importer Importer, catalog Catalog, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	if config.UploadLimitBytes <= 0 {
		config.UploadLimitBytes = DefaultConfig().UploadLimitBytes
	}
	s := &Server{
		router:   chi.NewRouter(),
		importer: importer,
		catalog:  catalog,
		config:   config,
		imports:  semaphore.NewWeighted(1),
		log:      logger.Named("API"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/projects", s.handleListProjects)
		r.Post("/projects", s.handleCreateProject)
		r.Get("/projects/{id}/scenarios", s.handleListScenarios)

		r.Post("/imports", s.handleImport)
		r.Get("/imports", s.handleImportHistory)
	})
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// NewHTTPServer builds an http.Server for addr.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.config.ReadTimeout,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
