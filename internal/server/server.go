// Package server exposes the logoforge services over HTTP with gin.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/raphaelgruber/logoforge/internal/metrics"
	"github.com/raphaelgruber/logoforge/internal/service"
)

// Deps holds everything the HTTP layer calls into.
type Deps struct {
	Projects   *service.ProjectService
	Generation *service.GenerationService
	Refinement *service.RefinementService
	Grading    *service.GradingService
	Lineage    *service.LineageService
	Jobs       *service.JobManager
	Collector  *metrics.Collector
	Gatherer   prometheus.Gatherer
	// FilesDir is served at /files when set (local storage backend).
	FilesDir string
	// Ping reports database health for /health.
	Ping func(ctx context.Context) error
}

// Server wraps the gin engine with dependencies and lifecycle management.
type Server struct {
	engine *gin.Engine
	deps   Deps
	logger *slog.Logger
}

// New builds the router.
func New(deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	registerValidators()

	s := &Server{engine: gin.New(), deps: deps, logger: logger}
	s.engine.Use(gin.Recovery(), LoggingMiddleware(logger))
	s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	r := s.engine

	r.GET("/health", s.health)
	r.GET("/stats", s.stats)
	if s.deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))
	}
	if s.deps.FilesDir != "" {
		r.Static("/files", s.deps.FilesDir)
	}

	v1 := r.Group("/v1")

	v1.POST("/briefs/extract", s.extractBrief)

	v1.GET("/projects", s.listProjects)
	v1.POST("/projects", s.createProject)
	v1.GET("/projects/:id", s.getProject)
	v1.PATCH("/projects/:id", s.updateProject)
	v1.PUT("/projects/:id/winner", s.selectWinner)

	v1.GET("/projects/:id/directions", s.listDirections)
	v1.POST("/projects/:id/directions/propose", s.proposeDirections)
	v1.PUT("/directions/:id/selected", s.selectDirection)

	v1.POST("/projects/:id/generate", s.generate)
	v1.POST("/projects/:id/batches", s.startBatch)
	v1.POST("/projects/:id/improve", s.improve)
	v1.POST("/projects/:id/grade", s.gradeProject)
	v1.POST("/images/analyze", s.analyzeImage)

	v1.GET("/projects/:id/logos", s.listLogos)
	v1.GET("/projects/:id/tree", s.tree)
	v1.GET("/projects/:id/timeline", s.timeline)
	v1.GET("/projects/:id/flow", s.flow)

	v1.GET("/logos/:id", s.getLogo)
	v1.PATCH("/logos/:id", s.updateLogo)
	v1.GET("/logos/:id/ancestors", s.ancestors)
	v1.GET("/logos/:id/descendants", s.descendants)
	v1.POST("/logos/:id/branch", s.branch)
	v1.POST("/logos/:id/refine", s.refine)
	v1.POST("/logos/:id/grade", s.gradeLogo)

	v1.GET("/jobs", s.listJobs)
	v1.GET("/jobs/:id", s.getJob)
	v1.DELETE("/jobs/:id", s.cancelJob)
	v1.GET("/jobs/:id/ws", s.watchJob)
}

func (s *Server) health(c *gin.Context) {
	if s.deps.Ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Ping(ctx); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) stats(c *gin.Context) {
	if s.deps.Collector == nil {
		c.JSON(http.StatusOK, metrics.Snapshot{})
		return
	}
	c.JSON(http.StatusOK, s.deps.Collector.Snapshot())
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute, // refine waits for the LLM and the image model
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
