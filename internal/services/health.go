package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ideeockus/capybanse-service/internal/database"
)

const healthCheckTimeout = 5 * time.Second

// HealthService probes the store connections behind the monitoring
// endpoint. Postgres, ClickHouse and Qdrant are critical; Redis only
// backs the embedding cache, so losing it degrades rather than fails.
type HealthService struct {
	db     *database.Database
	logger *logrus.Logger
}

type HealthStatus struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Services    map[string]string `json:"services"`
	Critical    []string          `json:"critical_failures,omitempty"`
	NonCritical []string          `json:"non_critical_failures,omitempty"`
}

func NewHealthService(db *database.Database, logger *logrus.Logger) *HealthService {
	return &HealthService{
		db:     db,
		logger: logger,
	}
}

func (s *HealthService) CheckHealth(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Timestamp: time.Now(),
		Services:  make(map[string]string),
	}

	critical := map[string]func(context.Context) error{
		"postgresql": s.checkPostgres,
		"clickhouse": s.checkClickHouse,
		"qdrant":     s.checkQdrant,
	}
	nonCritical := map[string]func(context.Context) error{
		"redis": s.checkRedis,
	}

	allCriticalHealthy := true
	for name, check := range critical {
		if err := check(ctx); err != nil {
			status.Services[name] = "unhealthy"
			status.Critical = append(status.Critical, name)
			allCriticalHealthy = false
			s.logger.WithError(err).Errorf("Critical service %s is unhealthy", name)
		} else {
			status.Services[name] = "healthy"
		}
	}

	for name, check := range nonCritical {
		if err := check(ctx); err != nil {
			status.Services[name] = "unhealthy"
			status.NonCritical = append(status.NonCritical, name)
			s.logger.WithError(err).Warnf("Non-critical service %s is unhealthy", name)
		} else {
			status.Services[name] = "healthy"
		}
	}

	switch {
	case !allCriticalHealthy:
		status.Status = "unhealthy"
	case len(status.NonCritical) > 0:
		status.Status = "degraded"
	default:
		status.Status = "healthy"
	}

	return status
}

func (s *HealthService) checkPostgres(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	return s.db.PG.Ping(ctx)
}

func (s *HealthService) checkClickHouse(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	return s.db.CH.Ping(ctx)
}

func (s *HealthService) checkQdrant(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	_, err := s.db.Qdrant.HealthCheck(ctx)
	return err
}

func (s *HealthService) checkRedis(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	return s.db.Redis.Ping(ctx).Err()
}
