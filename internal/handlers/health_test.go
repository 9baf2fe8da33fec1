package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ideeockus/capybanse-service/internal/services"
)

type fakeHealthChecker struct {
	status *services.HealthStatus
}

func (f *fakeHealthChecker) CheckHealth(_ context.Context) *services.HealthStatus {
	return f.status
}

func healthRequest(t *testing.T, checker *fakeHealthChecker) *httptest.ResponseRecorder {
	t.Helper()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", NewHealthHandler(checker, logrus.New()).Check)

	recorder := httptest.NewRecorder()
	request, err := http.NewRequest(http.MethodGet, "/health", nil)
	require.NoError(t, err)
	router.ServeHTTP(recorder, request)

	return recorder
}

func TestHealthHandler_Check(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		recorder := healthRequest(t, &fakeHealthChecker{
			status: &services.HealthStatus{
				Status:    "healthy",
				Timestamp: time.Now(),
				Services:  map[string]string{"postgresql": "healthy"},
			},
		})

		assert.Equal(t, http.StatusOK, recorder.Code)

		var status services.HealthStatus
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &status))
		assert.Equal(t, "healthy", status.Status)
		assert.Equal(t, "healthy", status.Services["postgresql"])
	})

	t.Run("degraded is still operational", func(t *testing.T) {
		recorder := healthRequest(t, &fakeHealthChecker{
			status: &services.HealthStatus{
				Status:      "degraded",
				Timestamp:   time.Now(),
				Services:    map[string]string{"redis": "unhealthy"},
				NonCritical: []string{"redis"},
			},
		})

		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("unhealthy", func(t *testing.T) {
		recorder := healthRequest(t, &fakeHealthChecker{
			status: &services.HealthStatus{
				Status:    "unhealthy",
				Timestamp: time.Now(),
				Services:  map[string]string{"postgresql": "unhealthy"},
				Critical:  []string{"postgresql"},
			},
		})

		assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	})
}
