// FilePath: internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aquasense/tdshub/api"
	"github.com/aquasense/tdshub/internal/cache"
	"github.com/aquasense/tdshub/internal/config"
	"github.com/aquasense/tdshub/internal/database"
	"github.com/aquasense/tdshub/internal/enrichment"
	"github.com/aquasense/tdshub/internal/monitoring"
	"github.com/aquasense/tdshub/internal/repository/postgres"
	"github.com/aquasense/tdshub/internal/session"
	"github.com/aquasense/tdshub/internal/waterservice"
	"github.com/gorilla/handlers"
	nuts "github.com/vaudience/go-nuts"
)

// Server represents our HTTP server
type Server struct {
	config       *config.Config
	srv          *http.Server
	waterservice *waterservice.WaterService
	monitoring   *monitoring.Service
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	return &Server{
		config: cfg,
		srv: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Initialize services
	svc, err := initializeWaterService(s.config)
	if err != nil {
		return err
	}
	s.waterservice = svc
	s.monitoring = monitoring.NewService()

	// Set up session lifecycle event handlers
	s.setupAnalysisHandlers()

	// Router with CORS for the dashboard origin
	router := api.NewRouter(s.waterservice, api.RouterConfig{
		APIKey:     s.config.Ingest.APIKey,
		EnableMock: s.config.Server.EnableMock,
	})
	s.srv.Handler = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}),
		handlers.AllowedHeaders([]string{"Content-Type", "X-API-Key"}),
	)(router)

	// Start server
	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

func (s *Server) setupAnalysisHandlers() {
	s.waterservice.OnAnalysisEvent("analysis.completed", func(deviceID string) {
		nuts.L.Infof("[Analysis] Session completed for device %s", deviceID)
		s.monitoring.RecordEvent("analysis_completed", map[string]string{
			"device_id": deviceID,
		})
	})

	s.waterservice.OnAnalysisEvent("session.reset", func(deviceID string) {
		nuts.L.Infof("[Analysis] Session reset for device %s", deviceID)
		s.monitoring.RecordEvent("session_reset", map[string]string{
			"device_id": deviceID,
		})
	})
}

// initializeWaterService creates and configures the water service
func initializeWaterService(cfg *config.Config) (*waterservice.WaterService, error) {
	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	readings := postgres.NewReadingRepository(db)
	if err := readings.InitializeSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize readings schema: %w", err)
	}
	analyses := postgres.NewAnalysisRepository(db)
	if err := analyses.InitializeSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize analysis schema: %w", err)
	}

	var latest cache.LatestCache
	if cfg.Redis.Host != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		latest = redisCache
	} else {
		nuts.L.Infof("[Server] No redis host configured, using in-memory latest cache")
		latest = cache.NewMemoryCache()
	}

	tracker := session.NewTracker(cfg.Ingest.SessionSize)
	enricher := enrichment.NewClient(cfg.Enrichment)

	return waterservice.New(
		readings, analyses, tracker, enricher, latest,
		cfg.Ingest, cfg.Enrichment,
	), nil
}
