// ABOUTME: HTTP query surface for the agent built on gin
// ABOUTME: Serves the chat page, health checks and per-session question answering
package server

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/harper/jarvis/internal/models"
	"github.com/harper/jarvis/internal/telemetry"
)

//go:embed static/index.html
var indexHTML []byte

// shutdownTimeout bounds graceful shutdown
const shutdownTimeout = 30 * time.Second

// Agent is what the server needs from the pipeline
type Agent interface {
	Ask(ctx context.Context, sessionID, question string) (*models.Reply, string, error)
	ResetSession(sessionID string) bool
}

// Options configures the server
type Options struct {
	ServiceName string
	CORSOrigins []string
}

// ChatRequest is the JSON body accepted by POST /chat
type ChatRequest struct {
	Question string `json:"question" binding:"required"`
	Session  string `json:"session"`
}

// ChatResponse is returned by /chat
type ChatResponse struct {
	Answer    string `json:"answer"`
	Source    string `json:"source"`
	Reference string `json:"reference"`
	Session   string `json:"session"`
	Path      string `json:"path"`
}

// Server answers questions over HTTP
type Server struct {
	agent   Agent
	logger  *log.Logger
	metrics *telemetry.Metrics
	router  *gin.Engine
}

// New creates a Server. metrics may be nil.
func New(agent Agent, opts Options, logger *log.Logger, metrics *telemetry.Metrics) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "jarvis"
	}

	s := &Server{
		agent:   agent,
		logger:  logger.WithPrefix("server"),
		metrics: metrics,
	}

	router := gin.New()
	router.Use(s.requestLogger(), gin.Recovery())
	router.Use(cors.New(corsConfig(opts.CORSOrigins)))
	router.Use(otelgin.Middleware(opts.ServiceName))

	router.GET("/health", s.handleHealth)
	router.GET("/", s.handleIndex)
	router.GET("/index.html", s.handleIndex)
	router.GET("/chat", s.handleChatQuery)
	router.POST("/chat", s.handleChatJSON)
	router.DELETE("/sessions/:id", s.handleResetSession)

	s.router = router
	return s
}

// Handler exposes the router for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	cfg.MaxAge = 12 * time.Hour

	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		s.logger.Debug("request", "method", c.Request.Method, "path", path, "status", c.Writer.Status(), "elapsed", elapsed)
		if s.metrics != nil {
			s.metrics.RecordRequest(c.Request.Context(), c.Request.Method, path, c.Writer.Status(), elapsed.Seconds())
		}
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

// handleChatQuery accepts /chat?question=...&session=... and the bare
// /chat?<question> form
func (s *Server) handleChatQuery(c *gin.Context) {
	question := c.Query("question")
	if question == "" {
		question = c.Query("q")
	}
	if question == "" && !strings.Contains(c.Request.URL.RawQuery, "=") {
		if raw, err := url.QueryUnescape(c.Request.URL.RawQuery); err == nil {
			question = raw
		}
	}
	s.answer(c, question, c.Query("session"))
}

func (s *Server) handleChatJSON(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}
	s.answer(c, req.Question, req.Session)
}

func (s *Server) answer(c *gin.Context, question, sessionID string) {
	question = strings.TrimSpace(question)
	if question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	start := time.Now()
	reply, sessionID, err := s.agent.Ask(c.Request.Context(), sessionID, question)
	if err != nil {
		status := statusFor(err)
		s.logger.Error("failed to answer", "session", sessionID, "status", status, "err", err)
		s.recordQuestion(c.Request.Context(), "", "error", start)
		c.JSON(status, gin.H{"error": err.Error(), "session": sessionID})
		return
	}
	s.recordQuestion(c.Request.Context(), string(reply.Path), "ok", start)

	c.JSON(http.StatusOK, ChatResponse{
		Answer:    reply.Answer,
		Source:    reply.Source(),
		Reference: reply.Reference(),
		Session:   sessionID,
		Path:      string(reply.Path),
	})
}

func (s *Server) handleResetSession(c *gin.Context) {
	if !s.agent.ResetSession(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) recordQuestion(ctx context.Context, path, outcome string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordQuestion(ctx, path, outcome, time.Since(start).Seconds())
}

// statusFor maps pipeline errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrEmptyIndex):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, models.ErrEmptyQuestion):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
