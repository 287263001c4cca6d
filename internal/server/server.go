// Package server exposes the HTTP and WebSocket surface of the service.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"audiototxt/internal/config"
	"audiototxt/internal/jobs"
	"audiototxt/internal/storage"
)

// Server wires the job registry, runner, and artifact store behind the
// HTTP API.
type Server struct {
	cfg      config.Config
	registry *jobs.Registry
	runner   *jobs.Runner
	store    *storage.Store
	log      *logrus.Logger
}

// New creates the server with its collaborators.
func New(cfg config.Config, registry *jobs.Registry, runner *jobs.Runner, store *storage.Store, log *logrus.Logger) *Server {
	return &Server{
		cfg:      cfg,
		registry: registry,
		runner:   runner,
		store:    store,
		log:      log,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.handleHealth)
	r.POST("/api/transcribe", s.handleTranscribe)
	r.GET("/ws/:job_id", s.handleProgress)
	r.GET("/download/:filename", s.handleDownload)
	r.GET("/api/files", s.handleListFiles)
	r.POST("/api/cleanup", s.handleCleanup)

	return r
}

// HTTPServer builds the production http.Server for the configured
// address. No write timeout: WebSocket streams stay open for the whole
// job.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:        s.cfg.Addr,
		Handler:     s.Router(),
		ReadTimeout: 15 * time.Minute,
	}
}

// handleHealth reports liveness.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
