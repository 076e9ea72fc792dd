package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/flyboard/agentd/pkg/model"
	"github.com/flyboard/agentd/pkg/usecase/agent"
	"github.com/flyboard/agentd/pkg/utils/logging"
	"github.com/gin-gonic/gin"
	"github.com/m-mizutani/goerr/v2"
)

// TaskRunner abstracts the orchestration loop for the HTTP layer
type TaskRunner interface {
	Run(ctx context.Context, input agent.RunInput) (*model.RunResult, error)
}

// Searcher abstracts the retrieval engine for the direct search route
type Searcher interface {
	Search(ctx context.Context, query string, topK int, filters *model.SearchFilters) ([]model.ScoredResult, error)
}

type Server struct {
	runner TaskRunner
	engine Searcher
	logger *slog.Logger
	addr   string
}

func New(runner TaskRunner, engine Searcher, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = logging.Default()
	}

	return &Server{
		runner: runner,
		engine: engine,
		logger: logger,
		addr:   addr,
	}
}

// Handler builds the route table. Exposed separately so tests can drive it
// with httptest.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLog())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	v1.POST("/agent/run", s.handleAgentRun)
	v1.POST("/kb/search", s.handleKBSearch)

	return router
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("server shutdown", "error", err)
		}
	}()

	s.logger.Info("http server starting", "addr", s.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return goerr.Wrap(err, "http server failed")
	}
	return nil
}

type runRequest struct {
	Task       string `json:"task"`
	CustomerID string `json:"customer_id"`
	Language   string `json:"language"`
}

func (s *Server) handleAgentRun(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "invalid request body"})
		return
	}

	ctx := logging.With(c.Request.Context(), s.logger)
	result, err := s.runner.Run(ctx, agent.RunInput{
		Task:       req.Task,
		CustomerID: req.CustomerID,
		Language:   req.Language,
	})
	if err != nil {
		s.respondRunError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// respondRunError maps the task error taxonomy to distinguishable failure
// payloads. Anything outside the taxonomy surfaces as a generic internal
// failure with no internal detail.
func (s *Server) respondRunError(c *gin.Context, err error) {
	values := goerr.Values(err)
	traceID, _ := values["trace_id"].(model.TraceID)

	switch {
	case errors.Is(err, model.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "task must be a non-empty string",
		})

	case errors.Is(err, model.ErrUpstream):
		c.JSON(http.StatusBadGateway, gin.H{
			"trace_id": traceID,
			"error":    "upstream_error",
			"message":  "reasoning engine request failed",
		})

	case errors.Is(err, model.ErrIterationLimit):
		c.JSON(http.StatusBadGateway, gin.H{
			"trace_id":       traceID,
			"error":          "iteration_limit",
			"max_iterations": values["max_iterations"],
		})

	case errors.Is(err, model.ErrDeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"trace_id": traceID,
			"error":    "timeout",
		})

	default:
		s.logger.Error("unexpected task failure", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

type searchRequest struct {
	Query   string               `json:"query"`
	TopK    int                  `json:"top_k"`
	Filters *model.SearchFilters `json:"filters"`
}

func (s *Server) handleKBSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "invalid request body"})
		return
	}

	ctx := logging.With(c.Request.Context(), s.logger)
	results, err := s.engine.Search(ctx, req.Query, req.TopK, req.Filters)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "query must be a non-empty string"})
			return
		}
		s.logger.Error("kb search failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
