package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ideeockus/capybanse-service/internal/services"
)

// HealthChecker is the probe surface behind the monitoring endpoint.
type HealthChecker interface {
	CheckHealth(ctx context.Context) *services.HealthStatus
}

type HealthHandler struct {
	health HealthChecker
	logger *logrus.Logger
}

func NewHealthHandler(health HealthChecker, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		health: health,
		logger: logger,
	}
}

func (h *HealthHandler) Check(c *gin.Context) {
	status := h.health.CheckHealth(c.Request.Context())

	httpStatus := http.StatusOK
	if status.Status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, status)
}
