package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"github.com/shelfmate/core/docs"
	httpHandlers "github.com/shelfmate/core/internal/adapters/http"
	"github.com/shelfmate/core/internal/adapters/repository"
	"github.com/shelfmate/core/internal/application/services"
	"github.com/shelfmate/core/internal/domain/validation"
	"github.com/shelfmate/core/internal/infrastructure/config"
	"github.com/shelfmate/core/internal/infrastructure/logger"
	"github.com/shelfmate/core/internal/infrastructure/metrics"
	"github.com/shelfmate/core/internal/ports"
)

// Server represents the HTTP server
type Server struct {
	echo    *echo.Echo
	config  *config.Config
	logger  *logger.Logger
	storage ports.SnapshotStorage
	store   *services.Store
	metrics *metrics.Metrics
}

// New creates a new server instance. The catalog snapshot is loaded from
// storage before any route is registered; a malformed snapshot is fatal.
func New(ctx context.Context, cfg *config.Config, storage ports.SnapshotStorage, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.App.Debug && cfg.App.IsDevelopment()

	// Custom error handler
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	server := &Server{
		echo:   e,
		config: cfg,
		logger: appLogger,
	}

	if cfg.Metrics.Enabled {
		server.metrics = metrics.New()
		storage = repository.NewInstrumentedStorage(storage, server.metrics)
	}
	server.storage = storage

	// Initialize services
	store := services.NewStore(storage, cfg.Storage.Key, appLogger)
	query, err := services.NewQueryService(cfg.Catalog.PageSize, cfg.Catalog.QueryCacheSize)
	if err != nil {
		return nil, err
	}
	store.Subscribe(func(services.Snapshot) { query.Purge() })
	if server.metrics != nil {
		store.Subscribe(func(snap services.Snapshot) {
			server.metrics.BooksTotal.Set(float64(snap.Len()))
		})
	}
	if err := store.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	server.store = store

	v := validation.New(time.Now)
	session := services.NewSession(store, query, v, appLogger, services.SessionOptions{
		ResetPageOnSearch: cfg.Catalog.ResetPageOnSearch,
	})

	// Set custom validator
	e.Validator = httpHandlers.NewRequestValidator(v)

	// Initialize handlers
	bookHandler := httpHandlers.NewBookHandler(store, query, appLogger.WithComponent("books"))
	sessionHandler := httpHandlers.NewSessionHandler(session, appLogger.WithComponent("session"))

	// Setup middleware
	server.setupMiddleware()

	// Setup metrics
	if server.metrics != nil {
		server.setupMetrics()
	}

	// Setup routes
	server.setupRoutes(bookHandler, sessionHandler)

	return server, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID middleware
	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	// Logger middleware
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"request_id", values.RequestID,
				"method", values.Method,
				"uri", values.URI,
				"status", values.Status,
				"latency_ms", float64(values.Latency.Nanoseconds()) / 1000000,
				"remote_ip", values.RemoteIP,
				"user_agent", values.UserAgent,
			}

			if values.Error != nil {
				fields = append(fields, "error", values.Error.Error())
				s.logger.Errorw("HTTP request failed", fields...)
			} else {
				s.logger.Infow("HTTP request", fields...)
			}

			return nil
		},
	}))

	// CORS middleware
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.PUT, echo.PATCH, echo.POST, echo.DELETE},
	}))

	// Rate limiting middleware
	if s.config.Security.RateLimitRequests > 0 {
		s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{
					Rate:      rate.Limit(float64(s.config.Security.RateLimitRequests) / s.config.Security.RateLimitWindow.Seconds()),
					Burst:     s.config.Security.RateLimitRequests,
					ExpiresIn: s.config.Security.RateLimitWindow,
				},
			),
			IdentifierExtractor: func(ctx echo.Context) (string, error) {
				return ctx.RealIP(), nil
			},
			ErrorHandler: func(context echo.Context, err error) error {
				return context.JSON(http.StatusForbidden, httpHandlers.MessageResponse{Message: "rate limit exceeded"})
			},
			DenyHandler: func(context echo.Context, identifier string, err error) error {
				return context.JSON(http.StatusTooManyRequests, httpHandlers.MessageResponse{Message: "rate limit exceeded"})
			},
		}))
	}

	// Security headers
	hstsMaxAge := 0
	if s.config.App.IsProduction() {
		hstsMaxAge = 31536000
	}
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		// swagger UI needs inline scripts
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/docs/")
		},
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            hstsMaxAge,
		ContentSecurityPolicy: "default-src 'self'",
	}))

	// Timeout middleware
	if s.config.Server.RequestTimeout > 0 {
		s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout: s.config.Server.RequestTimeout,
		}))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(bookHandler *httpHandlers.BookHandler, sessionHandler *httpHandlers.SessionHandler) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// API documentation
	docs.SwaggerInfo.Version = s.config.App.Version
	s.echo.GET("/docs/*", echoSwagger.WrapHandler)

	// API v1 routes
	httpHandlers.RegisterRoutes(s.echo.Group("/api/v1"), bookHandler, sessionHandler)
}

// setupMetrics instruments every request and exposes /metrics
func (s *Server) setupMetrics() {
	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			s.metrics.RequestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			s.metrics.RequestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	})

	s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	status := "ok"
	checks := make(map[string]interface{})

	if err := s.store.Ping(c.Request().Context()); err != nil {
		status = "error"
		checks["storage"] = map[string]interface{}{
			"status": "error",
			"driver": s.config.Storage.Driver,
			"error":  err.Error(),
		}
	} else {
		storageCheck := map[string]interface{}{
			"status": "ok",
			"driver": s.config.Storage.Driver,
			"key":    s.config.Storage.Key,
		}
		if stats := poolStats(s.storage); stats != nil {
			storageCheck["pool"] = stats
		}
		checks["storage"] = storageCheck
	}

	snap := s.store.Snapshot()
	checks["catalog"] = map[string]interface{}{
		"books":   snap.Len(),
		"version": snap.Version(),
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
		},
		"environment": s.config.App.Environment,
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

// poolStats looks through storage decorators for connection pool statistics
func poolStats(storage ports.SnapshotStorage) map[string]interface{} {
	for storage != nil {
		if r, ok := storage.(interface{ Stats() map[string]interface{} }); ok {
			return r.Stats()
		}
		u, ok := storage.(interface{ Unwrap() ports.SnapshotStorage })
		if !ok {
			return nil
		}
		storage = u.Unwrap()
	}
	return nil
}

func (s *Server) readinessCheck(c echo.Context) error {
	if err := s.store.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "storage_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)

	s.echo.Server.ReadTimeout = s.config.Server.ReadTimeout
	s.echo.Server.WriteTimeout = s.config.Server.WriteTimeout
	s.echo.Server.IdleTimeout = s.config.Server.IdleTimeout

	err := s.echo.Start(address)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server and releases the storage
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	if err := s.echo.Shutdown(ctx); err != nil {
		return err
	}
	return s.storage.Close()
}

// customErrorHandler handles HTTP errors
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			msg  interface{}
		)

		var he *echo.HTTPError
		var verrs validator.ValidationErrors
		if errors.As(err, &he) {
			code = he.Code
			msg = he.Message
			if s, ok := he.Message.(string); ok {
				msg = httpHandlers.MessageResponse{Message: s}
			}
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		} else if errors.As(err, &verrs) {
			code = http.StatusBadRequest
			msg = map[string]string{"message": "validation failed", "details": verrs.Error()}
		} else {
			msg = httpHandlers.MessageResponse{Message: http.StatusText(code)}
		}

		if code == http.StatusInternalServerError {
			logger.Errorw("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		// Send response
		if !c.Response().Committed {
			if c.Request().Method == echo.HEAD {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, msg)
			}
			if err != nil {
				logger.Errorw("Error sending response", "error", err)
			}
		}
	}
}
