package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"mobile-pos/internal/config"
	custommiddleware "mobile-pos/internal/middleware"
	"mobile-pos/internal/observability"
	"mobile-pos/internal/repository"
	"mobile-pos/internal/service"
	"mobile-pos/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// HealthFunc reports the state of the backing store
type HealthFunc func(ctx context.Context) map[string]string

// Deps are the resources the server is built on. Redis and Health are optional.
type Deps struct {
	Store   repository.Store
	Redis   *redis.Client
	Metrics *observability.Metrics
	Health  HealthFunc
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	deps   Deps
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Deps) (*Server, error) {
	router, err := NewRouter(cfg, logger, deps)
	if err != nil {
		return nil, err
	}

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		deps:   deps,
	}, nil
}

// NewRouter wires services, handlers and middleware onto a chi router
func NewRouter(cfg *config.Config, logger *zap.Logger, deps Deps) (http.Handler, error) {
	loc, err := cfg.Report.Location()
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()

	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.IsDevelopment()))
	router.Use(deps.Metrics.Middleware)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{"status": "ok", "data_mode": cfg.Server.DataMode}
		if deps.Health != nil {
			db := deps.Health(r.Context())
			status["database"] = db
			if db["status"] != "up" {
				status["status"] = "degraded"
				custommiddleware.RespondWithJSON(w, http.StatusServiceUnavailable, status)
				return
			}
		}
		custommiddleware.RespondWithJSON(w, http.StatusOK, status)
	})
	router.Handle("/metrics", deps.Metrics.Handler())

	// Services
	staffService := service.NewStaffService(deps.Store, cfg.JWT.Secret, time.Duration(cfg.JWT.AccessExpiry)*time.Minute)
	catalogService := service.NewCatalogService(deps.Store, logger)
	serialRegistry := service.NewSerialRegistry(deps.Store, logger)
	billingService := service.NewBillingService(deps.Store, service.TaxSettingsFromConfig(cfg.Billing), deps.Metrics, logger)
	saleService := service.NewSaleService(deps.Store, logger)
	reportService := service.NewReportService(deps.Store, loc, logger)
	ticketService := service.NewServiceTicketService(deps.Store, logger)

	// Middleware shared by the API routes
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	adminMiddleware := custommiddleware.RequireAdmin(logger)
	loginLimiter := custommiddleware.NewRateLimiter(deps.Redis, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.LoginPerMinute,
		Window:            time.Minute,
		KeyPrefix:         "rate_limit:login",
	}, logger)
	apiLimiter := custommiddleware.NewRateLimiter(deps.Redis, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.RequestsPerMinute,
		Window:            time.Minute,
		KeyPrefix:         "rate_limit:api",
	}, logger)

	router.Group(func(r chi.Router) {
		r.Use(apiLimiter)

		transport.NewStaffHandler(staffService, logger).RegisterRoutes(r, authMiddleware, adminMiddleware, loginLimiter)
		transport.NewCatalogHandler(catalogService, serialRegistry, logger).RegisterRoutes(r, authMiddleware, adminMiddleware)
		transport.NewSaleHandler(billingService, saleService, loc, logger).RegisterRoutes(r, authMiddleware, adminMiddleware)
		transport.NewReportHandler(reportService, ticketService, logger).RegisterRoutes(r, authMiddleware, adminMiddleware)
		transport.NewServiceTicketHandler(ticketService, loc, logger).RegisterRoutes(r, authMiddleware, adminMiddleware)
	})

	return router, nil
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.deps.Store != nil {
		if err := s.deps.Store.Close(); err != nil {
			s.logger.Error("Failed to close store", zap.Error(err))
		}
	}

	if s.deps.Redis != nil {
		if err := s.deps.Redis.Close(); err != nil {
			s.logger.Error("Failed to close Redis client", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
