package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"flowpulse/internal/services"
)

// MockHealthService is a mock implementation of HealthServiceInterface
type MockHealthService struct {
	mock.Mock
}

func (m *MockHealthService) HealthCheck(ctx context.Context) services.HealthStatus {
	return m.Called().Get(0).(services.HealthStatus)
}

func (m *MockHealthService) ReadinessCheck(ctx context.Context) services.HealthStatus {
	return m.Called().Get(0).(services.HealthStatus)
}

func (m *MockHealthService) LivenessCheck(ctx context.Context) services.HealthStatus {
	return m.Called().Get(0).(services.HealthStatus)
}

func (m *MockHealthService) Version() map[string]interface{} {
	return m.Called().Get(0).(map[string]interface{})
}

func (m *MockHealthService) SystemStats(ctx context.Context) services.SystemStats {
	return m.Called().Get(0).(services.SystemStats)
}

func newHealthRouter(svc *MockHealthService) http.Handler {
	h := NewHealthHandler(svc, nil)
	r := chi.NewRouter()
	r.Mount("/api/health", h.Routes())
	r.Get("/api/version", h.Version)
	return r
}

func TestHealthHandler_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		wantStatus int
	}{
		{name: "ready", status: "ready", wantStatus: http.StatusOK},
		{name: "not ready", status: "not_ready", wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockHealthService{}
			svc.On("ReadinessCheck").Return(services.HealthStatus{
				Status:    tt.status,
				Timestamp: time.Now(),
				Services:  map[string]services.ServiceHealth{"storage": {Status: tt.status}},
			})

			rec := httptest.NewRecorder()
			newHealthRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body services.HealthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body.Status)
			assert.Equal(t, tt.status, body.Services["storage"].Status)
			svc.AssertExpectations(t)
		})
	}
}

func TestHealthHandler_Probes(t *testing.T) {
	svc := &MockHealthService{}
	svc.On("HealthCheck").Return(services.HealthStatus{Status: "ok", Version: "1.0.0"})
	svc.On("LivenessCheck").Return(services.HealthStatus{Status: "alive"})
	svc.On("Version").Return(map[string]interface{}{"version": "1.0.0"})
	svc.On("SystemStats").Return(services.SystemStats{StorageBackend: "memory", WebSocketClients: 2})
	router := newHealthRouter(svc)

	tests := []struct {
		path string
		want string
	}{
		{path: "/api/health", want: `"status":"ok"`},
		{path: "/api/health/live", want: `"status":"alive"`},
		{path: "/api/version", want: `"version":"1.0.0"`},
		{path: "/api/health/stats", want: `"storage_backend":"memory"`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
	svc.AssertExpectations(t)
}
