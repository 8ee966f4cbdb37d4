package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/ciphernotes/shell/internal/api/http"
	"github.com/ciphernotes/shell/internal/api/middleware"
	"github.com/ciphernotes/shell/internal/infrastructure/config"
	"github.com/ciphernotes/shell/internal/infrastructure/logging"
	"github.com/ciphernotes/shell/internal/infrastructure/monitoring"
	"github.com/ciphernotes/shell/internal/infrastructure/tracing"
	"github.com/ciphernotes/shell/internal/shell"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	http    *http.Server
	shell   *shell.Shell
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer
}

// NewServer creates a new server instance serving bundle (unless
// ASSET_DIR points at an on-disk bundle).
func NewServer(cfg *config.Config, bundle fs.FS) (*Server, error) {
	// Initialize logger
	logger := logging.NewFromLevel(cfg.Logging.Level, cfg.Logging.Development)

	logger.Info("Initializing Ciphernotes shell",
		zap.String("addr", net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)),
		zap.String("local_host", cfg.Shell.LocalHost),
		zap.Int("api_level", cfg.Platform.APILevel),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()

	tracer := tracing.New(logger.Component("tracing"))

	sh, err := shell.New(shell.Options{
		Config:  cfg,
		Bundle:  bundle,
		Logger:  logger.Logger,
		Metrics: metrics,
		Tracer:  tracer,
	})
	if err != nil {
		tracer.Close()
		return nil, fmt.Errorf("failed to create shell: %w", err)
	}

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := NewRouter(cfg, sh, metrics, tracer, logger.Logger)

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shell:   sh,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
		tracer:  tracer,
	}, nil
}

// NewRouter registers every route of the shell listener.
func NewRouter(cfg *config.Config, sh *shell.Shell, metrics *monitoring.Metrics, tracer *tracing.Tracer, logger *zap.Logger) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))

	handlers := apihttp.NewHandlers(sh, metrics)
	cors := middleware.CORS(middleware.LocalOriginCORSConfig(cfg.Shell.LocalHost))

	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Native host
	router.GET("/hostlink", sh.Link().Handler())

	// Tooling lookups
	api := router.Group("/api", cors)
	api.GET("/navigation", handlers.Navigation)
	api.GET("/launch", handlers.Launch)
	api.GET("/downloads", handlers.Downloads)
	api.GET("/downloads/:id", handlers.Download)

	// Page bridge
	bridge := router.Group("/bridge", cors)
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		bridge.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}
	bridge.POST("/export", handlers.Export)

	// Everything else is the bundled web application.
	router.NoRoute(gin.WrapH(sh.Assets().Handler()))

	return router
}

// Router exposes the engine for tests and embedding.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Shell returns the wired shell.
func (s *Server) Shell() *shell.Shell {
	return s.shell
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	var errs []error
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP shutdown failed", zap.Error(err))
		errs = append(errs, fmt.Errorf("failed to shut down http server: %w", err))
	}

	if err := s.shell.Close(); err != nil {
		s.logger.Error("Shell shutdown failed", zap.Error(err))
		errs = append(errs, err)
	}
	s.tracer.Close()

	// Sync logger before exit
	_ = s.logger.Sync()

	return errors.Join(errs...)
}
