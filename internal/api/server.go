package api

import (
	"context"
	"net/http"
	"time"

	"example.com/backstage/services/picking/config"
	"example.com/backstage/services/picking/internal/api/handlers"
	"example.com/backstage/services/picking/internal/api/middleware"
	"example.com/backstage/services/picking/internal/metrics"
	"example.com/backstage/services/picking/internal/service"
	"example.com/backstage/services/picking/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Services bundles the domain services exposed over HTTP
type Services struct {
	Inventory service.InventoryService
	Products  service.ProductService
	PickLists service.PickListService
	Carriers  service.CarrierService
	Users     service.UserService
	Invites   service.InviteService
}

// Server represents the HTTP server
type Server struct {
	config     config.Config
	router     *gin.Engine
	httpServer *http.Server
	services   Services
	metrics    *metrics.Metrics
	tracer     tracing.Tracer
}

// NewServer creates a new HTTP server
func NewServer(cfg config.Config, services Services, m *metrics.Metrics, tracer tracing.Tracer) *Server {
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &Server{
		config:   cfg,
		services: services,
		metrics:  m,
		tracer:   tracer,
	}
	server.router = server.setupRouter()
	server.httpServer = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	return server
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	if s.config.Server.CorsEnabled {
		router.Use(middleware.CORS())
	}
	router.Use(middleware.Logger())
	if s.config.MetricsEnabled {
		router.Use(middleware.Metrics(s.metrics))
	}
	if app := s.tracer.Application(); app != nil {
		router.Use(middleware.NewRelic(app))
	}

	handlers.NewMetricsHandler(s.metrics, s.tracer).RegisterRoutes(router)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Actor())

	handlers.NewWarehouseHandler(s.services.Inventory).RegisterRoutes(v1)
	handlers.NewProductHandler(s.services.Products).RegisterRoutes(v1)
	handlers.NewPickListHandler(s.services.PickLists, s.services.Carriers, s.tracer).RegisterRoutes(v1)
	handlers.NewCarrierHandler(s.services.Carriers).RegisterRoutes(v1)
	handlers.NewUserHandler(s.services.Users, s.services.Invites).RegisterRoutes(v1)

	return router
}

// NewMetricsServer serves only /metrics and /health from m, for processes
// that do not host the API
func NewMetricsServer(address string, m *metrics.Metrics, tracer tracing.Tracer) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	handlers.NewMetricsHandler(m, tracer).RegisterRoutes(router)

	return &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.Server.Address).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
