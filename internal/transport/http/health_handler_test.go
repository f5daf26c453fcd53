package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "lobstats/internal/errors"
	"lobstats/internal/services"
	"lobstats/internal/shared/testutil"
	api "lobstats/pkg/contracts/api/v1"
)

type mockHealthService struct {
	mock.Mock
}

func (m *mockHealthService) HealthCheck(ctx context.Context) services.HealthStatus {
	return m.Called(ctx).Get(0).(services.HealthStatus)
}

func (m *mockHealthService) ReadinessCheck(ctx context.Context) services.HealthStatus {
	return m.Called(ctx).Get(0).(services.HealthStatus)
}

func (m *mockHealthService) LivenessCheck(ctx context.Context) services.HealthStatus {
	return m.Called(ctx).Get(0).(services.HealthStatus)
}

func (m *mockHealthService) Version() map[string]interface{} {
	return m.Called().Get(0).(map[string]interface{})
}

func TestHealthHandler(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name       string
		method     string
		status     services.HealthStatus
		handler    func(h *HealthHandler) http.HandlerFunc
		wantStatus int
		wantBody   string
	}{
		{
			name:       "health",
			method:     "HealthCheck",
			status:     services.HealthStatus{Status: services.StatusOK, Timestamp: now},
			handler:    func(h *HealthHandler) http.HandlerFunc { return h.HealthCheck },
			wantStatus: http.StatusOK,
			wantBody:   services.StatusOK,
		},
		{
			name:       "ready",
			method:     "ReadinessCheck",
			status:     services.HealthStatus{Status: services.StatusReady, Timestamp: now},
			handler:    func(h *HealthHandler) http.HandlerFunc { return h.ReadinessCheck },
			wantStatus: http.StatusOK,
			wantBody:   services.StatusReady,
		},
		{
			name:       "not ready",
			method:     "ReadinessCheck",
			status:     services.HealthStatus{Status: services.StatusNotReady, Timestamp: now},
			handler:    func(h *HealthHandler) http.HandlerFunc { return h.ReadinessCheck },
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   services.StatusNotReady,
		},
		{
			name:       "live",
			method:     "LivenessCheck",
			status:     services.HealthStatus{Status: services.StatusAlive, Timestamp: now},
			handler:    func(h *HealthHandler) http.HandlerFunc { return h.LivenessCheck },
			wantStatus: http.StatusOK,
			wantBody:   services.StatusAlive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(mockHealthService)
			service.On(tt.method, mock.Anything).Return(tt.status)
			logger, _ := testutil.NewTestLogger(t)
			h := NewHealthHandler(service, logger)

			w := httptest.NewRecorder()
			tt.handler(h)(w, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body["status"])
			service.AssertExpectations(t)
		})
	}
}

func TestHealthHandler_ResponseBody(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service := new(mockHealthService)
	service.On("HealthCheck", mock.Anything).Return(services.HealthStatus{
		Status:    services.StatusOK,
		Timestamp: now,
		Version:   "0.3.0",
		Services:  map[string]interface{}{"dataset": "loaded"},
	})
	logger, _ := testutil.NewTestLogger(t)

	w := httptest.NewRecorder()
	NewHealthHandler(service, logger).HealthCheck(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body api.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, api.HealthResponse{
		Status:    services.StatusOK,
		Timestamp: now,
		Version:   "0.3.0",
		Services:  map[string]interface{}{"dataset": "loaded"},
	}, body)
	assert.NotContains(t, w.Body.String(), "runtime")
}

func TestHealthHandler_Version(t *testing.T) {
	service := new(mockHealthService)
	service.On("Version").Return(map[string]interface{}{"version": "v1.0.0"})
	logger, _ := testutil.NewTestLogger(t)

	w := httptest.NewRecorder()
	NewHealthHandler(service, logger).Version(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"version":"v1.0.0"}`, w.Body.String())
}

func TestHealthSuite_MetricsHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)

	t.Run("delegates to exporter", func(t *testing.T) {
		exporter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("# HELP up\n"))
		})
		w := httptest.NewRecorder()
		NewMetricsHandler(exporter, errorHandler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "# HELP up\n", w.Body.String())
	})

	t.Run("disabled export answers 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewMetricsHandler(nil, errorHandler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
