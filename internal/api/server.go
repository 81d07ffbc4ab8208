package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"firewatch-worker-go/internal/api/handlers"
	"firewatch-worker-go/internal/config"
	"firewatch-worker-go/internal/services"
)

type Server struct {
	config    *config.Config
	container *services.ServiceContainer
	router    *gin.Engine
	server    *http.Server

	healthHandler *handlers.HealthHandler
	workerHandler *handlers.WorkerHandler
	alertHandler  *handlers.AlertHandler
	systemHandler *handlers.SystemHandler
}

func NewServer(cfg *config.Config, container *services.ServiceContainer) *Server {
	if cfg.Environment == "development" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	checks := []handlers.Check{{Name: "database", Run: container.Store.Ping}}
	if container.NATS != nil {
		checks = append(checks, handlers.Check{Name: "nats", Run: connected(container.NATS.IsConnected)})
	}
	if container.MQTT != nil {
		checks = append(checks, handlers.Check{Name: "mqtt", Run: connected(container.MQTT.IsConnected)})
	}

	return &Server{
		config:        cfg,
		container:     container,
		router:        gin.New(),
		healthHandler: handlers.NewHealthHandler(cfg.WorkerID, cfg.Version, checks...),
		workerHandler: handlers.NewWorkerHandler(container.Supervisor, container.DefaultSettings()),
		alertHandler:  handlers.NewAlertHandler(container.Alerts, container.Analytics, cfg.Location()),
		systemHandler: handlers.NewSystemHandler(cfg.WorkerID, container.Supervisor, container.Store),
	}
}

func connected(isConnected func() bool) func(context.Context) error {
	return func(context.Context) error {
		if !isConnected() {
			return errors.New("not connected")
		}
		return nil
	}
}

func (s *Server) Setup() {
	s.setupMiddleware()
	s.setupRoutes()
	s.setupSwagger()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Port),
		Handler: s.router,
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown is called
func (s *Server) Start() error {
	log.Info().Int("port", s.config.Port).Msg("Starting Firewatch Worker API")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Stopping Firewatch Worker API")
	return s.server.Shutdown(ctx)
}
