package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"pattern-hero/config"
	"pattern-hero/internal/cache"
	"pattern-hero/internal/database"
	"pattern-hero/internal/marketdata"
	"pattern-hero/internal/service"
)

// RateLimiter provides simple in-memory rate limiting per client
type RateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
	limit    int           // max requests
	window   time.Duration // time window
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow checks if a request is allowed for the given key
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-r.window)

	// Filter out old requests
	var recent []time.Time
	for _, t := range r.requests[key] {
		if t.After(windowStart) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= r.limit {
		r.requests[key] = recent
		return false
	}

	r.requests[key] = append(recent, now)
	return true
}

// Server represents the HTTP API server
type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	analyzer    *service.Analyzer
	market      *marketdata.Client
	repo        *database.Repository // nil when the database is disabled
	redis       *cache.Service       // nil when Redis is disabled
	config      config.ServerConfig
	rateLimiter *RateLimiter
	hub         *WSHub
	logger      zerolog.Logger
	startedAt   time.Time
}

// NewServer creates a new API server. repo and redis may be nil; the
// service status endpoint reports them as disabled.
func NewServer(
	cfg config.ServerConfig,
	analyzer *service.Analyzer,
	market *marketdata.Client,
	repo *database.Repository,
	redis *cache.Service,
	logger zerolog.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())

	// CORS middleware
	corsConfig := cors.DefaultConfig()
	if cfg.AllowedOrigins == "*" || cfg.AllowedOrigins == "" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = strings.Split(cfg.AllowedOrigins, ",")
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Content-Length"}
	router.Use(cors.New(corsConfig))

	limit := cfg.RateLimitRPM
	if limit <= 0 {
		limit = 120
	}

	server := &Server{
		router:      router,
		analyzer:    analyzer,
		market:      market,
		repo:        repo,
		redis:       redis,
		config:      cfg,
		rateLimiter: NewRateLimiter(limit, time.Minute),
		hub:         NewWSHub(logger),
		logger:      logger.With().Str("component", "APIServer").Logger(),
		startedAt:   time.Now(),
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleRoot)

	v1 := s.router.Group("/api/v1")
	v1.Use(s.rateLimitMiddleware())
	{
		v1.GET("/pairs", s.handleListPairs)
		v1.GET("/patterns/:coin_id", s.handleAnalyze)
		v1.GET("/patterns/:coin_id/filtered", s.handleAnalyzeFiltered)
		v1.GET("/services/status", s.handleServicesStatus)
		v1.GET("/ws", s.handleWebSocket)
	}
}

// rateLimitMiddleware rejects clients that exceed the per-minute budget
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.rateLimiter.Allow(c.ClientIP()) {
			errorResponse(c, http.StatusTooManyRequests, "Rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Start runs the HTTP server and the websocket hub
func (s *Server) Start() error {
	go s.hub.Run()

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
	}

	s.logger.Info().Str("addr", addr).Msg("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// errorResponse is a helper to send error responses
func errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":   true,
		"message": message,
	})
}

// successResponse is a helper to send success responses
func successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}
