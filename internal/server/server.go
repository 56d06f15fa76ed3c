// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/maubernardi/analisipolitiche/internal/analysis"
	"github.com/maubernardi/analisipolitiche/internal/config"
	"github.com/maubernardi/analisipolitiche/internal/model"
)

// Server wraps the gin engine and the state of the last analysis run.
type Server struct {
	router *gin.Engine
	logger *slog.Logger

	mu  sync.RWMutex
	run *runState
}

// runState is one completed analysis. A new upload replaces it wholesale.
type runState struct {
	valid     []model.ValidRow
	discarded []model.DiscardedRow
	cfg       config.Snapshot
	tables    map[string]*model.Table
	order     []string
	engine    *analysis.Engine
	when      time.Time
}

// New creates the server. Outside dev mode gin runs in release mode.
func New(logger *slog.Logger, devMode bool) *Server {
	if !devMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router: gin.New(),
		logger: logger,
	}
	s.router.Use(gin.Recovery())
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)

	api := s.router.Group("/api")
	{
		api.POST("/analyze", s.handleAnalyze)
		api.GET("/tables", s.handleListTables)
		api.GET("/tables/:name", s.handleTable)
		api.GET("/export", s.handleExport)
		api.GET("/config", s.handleGetConfig)
		api.PUT("/config", s.handlePutConfig)
	}
}

// Handler returns the underlying http.Handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("server listening", "addr", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) setRun(run *runState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run = run
}

func (s *Server) currentRun() *runState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.run
}
