// Package http provides the status API server and the Prometheus metrics server.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/seedsweep/internal/database"
	sweepHTTP "github.com/allisson/seedsweep/internal/sweep/http"
)

// Options holds optional server features.
type Options struct {
	CORSEnabled       bool
	CORSAllowOrigins  string
	MetricsMiddleware gin.HandlerFunc
}

// Server is the status API HTTP server.
type Server struct {
	server *http.Server
	db     *sql.DB
	logger *slog.Logger
}

// NewServer creates the status API server. sweepHandler may be nil, in which case
// only the health and readiness endpoints are registered.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
	sweepHandler *sweepHTTP.SweepHandler,
	options Options,
) *Server {
	s := &Server{
		db:     db,
		logger: logger,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(logger))

	if corsMiddleware := createCORSMiddleware(
		options.CORSEnabled, options.CORSAllowOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}
	if options.MetricsMiddleware != nil {
		router.Use(options.MetricsMiddleware)
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	if sweepHandler != nil {
		v1 := router.Group("/v1")
		v1.GET("/sweeps", sweepHandler.ListHandler)
		v1.GET("/sweeps/:id", sweepHandler.GetHandler)
		v1.GET("/sweeps/:id/runs", sweepHandler.ListRunsHandler)
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the journal database is reachable.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{"database": "ok"}

	if s.db == nil {
		components["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := database.Ping(ctx, s.db); err != nil {
		s.logger.Warn("readiness check failed", slog.Any("error", err))
		components["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}
