// Package http provides the HTTP adapter for the application layer.
// Handlers are thin: they decode requests, call services and map
// domain errors onto status codes.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dentalworks/labflow/internal/application/service"
	appwf "github.com/dentalworks/labflow/internal/application/workflow"
	"github.com/dentalworks/labflow/internal/infrastructure/external/directory"
	"github.com/dentalworks/labflow/internal/infrastructure/external/inventory"
	"github.com/dentalworks/labflow/internal/report"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Services bundles everything the handlers call.
type Services struct {
	Cases     service.CaseService
	Engine    appwf.TransitionEngine
	CAD       *service.CADService
	CAM       *service.CAMService
	Finishing *service.FinishingService
	Removable *service.RemovableService
	QC        *service.QCService
	Reports   *report.AccountingExporter
	Doctors   *directory.DoctorDirectory
	Inventory *inventory.Service
}

// Server is the HTTP adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	logger     *zap.Logger
}

// NewServer creates the HTTP server with all routes registered
func NewServer(config ServerConfig, services Services, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	s := &Server{
		config:   config,
		router:   router,
		services: services,
		logger:   logger,
	}

	router.Use(gin.Recovery())
	router.Use(s.loggingMiddleware())
	router.Use(corsMiddleware())

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "labflow",
			"time":    time.Now().Format(time.RFC3339),
		})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api/v1")
	{
		api.POST("/cases", s.handleCreateCase)
		api.GET("/cases", s.handleListCases)
		api.GET("/cases/:id", s.handleGetCase)
		api.GET("/cases/:id/history", s.handleGetHistory)
		api.PUT("/cases/:id/expected-delivery", s.handleUpdateExpectedDelivery)

		api.PUT("/cases/:id/departments/:dept", s.handleSaveDepartmentData)
		api.POST("/cases/:id/departments/:dept/complete", s.handleCompleteDepartmentWork)

		api.POST("/cases/:id/transfer", s.handleTransferCase)
		api.POST("/cases/:id/force-status", s.handleForceStatus)

		api.POST("/cases/:id/pause", s.handlePauseCase)
		api.POST("/cases/:id/resume", s.handleResumeCase)

		api.POST("/cases/:id/finishing/stages/:stage/start", s.handleStartStage)
		api.POST("/cases/:id/finishing/stages/:stage/complete", s.handleCompleteStage)
		api.POST("/cases/:id/finishing/stages/:stage/reject", s.handleRejectStage)

		api.POST("/cases/:id/qc/inspection", s.handleCompleteInspection)

		api.GET("/reports/accounting.xlsx", s.handleAccountingReport)

		api.POST("/doctors", s.handleRegisterDoctor)
		api.POST("/inventory/items", s.handleAddStock)
	}
}

// Start begins serving and blocks until the listener fails
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
