package web

import (
	"context"
	"edge_trading/internal/engine"
	"edge_trading/internal/models"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// Controller is the part of the trading engine the HTTP API exposes
type Controller interface {
	Start(ctx context.Context, s engine.Strategy) error
	Stop(s engine.Strategy) error
	IsRunning(s engine.Strategy) bool
	TriggerScan() error
	Connect(ctx context.Context) error
	Stats() models.Stats
	SpotTrades() []models.TradeRecord
	PlacedTrades() []models.PlacedTrade
	Activity() []models.ActivityEntry
}

type Server struct {
	engine    Controller
	log       zerolog.Logger
	startTime time.Time
	ctx       context.Context
	http      *http.Server
}

// NewServer builds the dashboard and JSON API. ctx bounds the strategy loops started over HTTP.
func NewServer(ctx context.Context, ctrl Controller, port string, log zerolog.Logger) *Server {
	s := &Server{
		engine:    ctrl,
		log:       log.With().Str("component", "web").Logger(),
		startTime: time.Now(),
		ctx:       ctx,
	}
	s.http = &http.Server{
		Addr:              ":" + port,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes configures all HTTP routes
func (s *Server) Routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(requestIDMiddleware())
	router.Use(s.loggerMiddleware())
	router.Use(gin.Recovery())

	router.GET("/", s.handleIndex)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/stats", s.handleStats)
	api.GET("/spot", s.handleSpot)
	api.GET("/scanner", s.handleScanner)
	api.GET("/logs", s.handleLogs)
	api.POST("/engine/action", s.handleEngineAction)
	return router
}

// Start serves in the background
func (s *Server) Start() {
	s.log.Info().Str("addr", s.http.Addr).Msg("🌐 Web server starting")
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("web server error")
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)
		c.Set(requestIDKey, requestID)
		c.Next()
	}
}

func (s *Server) loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.log.Debug().
			Str("request_id", c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
}

func (s *Server) handleHealth(c *gin.Context) {
	stats := s.engine.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"uptime":            time.Since(s.startTime).Round(time.Second).String(),
		"spot_running":      stats.Spot.Running,
		"scanner_running":   stats.Scanner.Running,
		"scanner_connected": stats.Scanner.Connected,
	})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Stats())
}

func (s *Server) handleSpot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stats":  s.engine.Stats().Spot,
		"trades": s.engine.SpotTrades(),
	})
}

func (s *Server) handleScanner(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stats":  s.engine.Stats().Scanner,
		"trades": s.engine.PlacedTrades(),
	})
}

func (s *Server) handleLogs(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Activity())
}

type actionRequest struct {
	Strategy engine.Strategy `json:"strategy" binding:"required"`
	Action   string          `json:"action" binding:"required"`
}

func (s *Server) handleEngineAction(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var err error
	switch req.Action {
	case "start":
		s.log.Info().Str("strategy", string(req.Strategy)).Msg("▶️ start requested from API")
		err = s.engine.Start(s.ctx, req.Strategy)
	case "stop":
		s.log.Info().Str("strategy", string(req.Strategy)).Msg("⏸️ stop requested from API")
		err = s.engine.Stop(req.Strategy)
	case "run":
		if req.Strategy != engine.StrategyScanner {
			c.JSON(http.StatusBadRequest, gin.H{"error": "run is only supported for the scanner"})
			return
		}
		err = s.engine.TriggerScan()
	case "connect":
		if req.Strategy != engine.StrategyScanner {
			c.JSON(http.StatusBadRequest, gin.H{"error": "connect is only supported for the scanner"})
			return
		}
		s.log.Info().Msg("🔌 reconnect requested from API")
		err = s.engine.Connect(s.ctx)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
		return
	}

	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": "ok"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrUnknownStrategy):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrCycleInProgress):
		return http.StatusConflict
	case errors.Is(err, engine.ErrScannerUnavailable), errors.Is(err, engine.ErrSpotUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrAuth), errors.Is(err, models.ErrNetwork):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
