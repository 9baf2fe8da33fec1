package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/ideeockus/capybanse-service/internal/config"
	"github.com/ideeockus/capybanse-service/internal/database"
	"github.com/ideeockus/capybanse-service/internal/handlers"
	"github.com/ideeockus/capybanse-service/internal/messaging"
	"github.com/ideeockus/capybanse-service/internal/metrics"
	"github.com/ideeockus/capybanse-service/internal/services"
)

// App is the shared bootstrap for both binaries: logger, store clients,
// services, bus and the monitoring listener.
type App struct {
	Config   *config.Config
	Logger   *logrus.Logger
	DB       *database.Database
	Metrics  *metrics.Metrics
	Services *services.Services
	Bus      *messaging.Bus

	registry   *prometheus.Registry
	monitoring *http.Server
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := setupLogger(cfg)

	db, err := database.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize stores: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.New(registry)

	svcs, err := services.New(ctx, cfg, logger, db, m)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	bus, err := messaging.Connect(&cfg.RabbitMQ, m, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Metrics:  m,
		Services: svcs,
		Bus:      bus,
		registry: registry,
	}, nil
}

// StartMonitoring serves /health and /metrics on the monitoring port.
func (a *App) StartMonitoring() {
	a.monitoring = &http.Server{
		Addr:    ":" + a.Config.Server.MonitoringPort,
		Handler: a.setupMonitoringRouter(),
	}

	go func() {
		if err := a.monitoring.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.WithError(err).Error("Monitoring server failed")
		}
	}()

	a.Logger.WithField("port", a.Config.Server.MonitoringPort).Info("Monitoring server started")
}

func (a *App) setupMonitoringRouter() *gin.Engine {
	if a.Config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", handlers.NewHealthHandler(a.Services.Health, a.Logger).Check)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	return router
}

func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.Info("Shutting down...")

	if a.monitoring != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := a.monitoring.Shutdown(shutdownCtx); err != nil {
			a.Logger.WithError(err).Error("Error shutting down monitoring server")
		}
	}

	if err := a.Bus.Close(); err != nil {
		a.Logger.WithError(err).Error("Error closing message bus")
	}

	if err := a.DB.Close(); err != nil {
		a.Logger.WithError(err).Error("Error closing store connections")
		return err
	}

	return nil
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
