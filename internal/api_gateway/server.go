package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banking-ledger-core/internal/api_gateway/handler"
	"github.com/banking-ledger-core/internal/api_gateway/service"
	"github.com/banking-ledger-core/internal/config"
	"github.com/banking-ledger-core/internal/platform/metrics"
)

// Services groups what the HTTP layer serves
type Services struct {
	Accounts     service.AccountService
	Transactions service.TransactionService
	Admin        service.AdminService
}

// Observability carries the metrics collectors and the dependencies probed by /health
type Observability struct {
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Health   map[string]HealthChecker
}

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger          *slog.Logger // For structured logging
	httpServer      *http.Server // Underlying HTTP server
	httpRouter      *gin.Engine  // Gin router instance
	shutdownTimeout time.Duration
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(log *slog.Logger, cfg *config.Config, services Services, obs Observability) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	rt := routes{
		accounts:     handler.NewAccountHandler(log, services.Accounts),
		transactions: handler.NewTransactionHandler(log, services.Transactions),
		admin:        handler.NewAdminHandler(log, services.Admin),
		metrics:      obs.Metrics,
		metricsPath:  cfg.Metrics.Path,
		health:       obs.Health,
	}
	if cfg.Metrics.Enabled && obs.Gatherer != nil {
		rt.metricsHandler = promhttp.HandlerFor(obs.Gatherer, promhttp.HandlerOpts{})
	}
	setupRouter(log, httpRouter, rt)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = cfg.Server.WriteTimeout
	}

	return &Server{
		logger:          log,
		httpServer:      httpServer,
		httpRouter:      httpRouter,
		shutdownTimeout: shutdownTimeout,
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server, waiting at most the shutdown timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
