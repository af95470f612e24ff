package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"
)

// Pinger is a dependency whose reachability decides readiness
type Pinger interface {
	Ping(ctx context.Context) error
}

// ClientCounter reports how many push clients are connected
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	storage   Pinger
	backend   string
	hub       ClientCounter
	startTime time.Time
	timeout   time.Duration
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// SystemStats represents system statistics
type SystemStats struct {
	UptimeSeconds    float64 `json:"uptime_seconds"`
	StorageBackend   string  `json:"storage_backend"`
	WebSocketClients int     `json:"websocket_clients"`
	Goroutines       int     `json:"goroutines"`
	GoVersion        string  `json:"go_version"`
	OS               string  `json:"os"`
	Arch             string  `json:"arch"`
}

// HealthServiceDeps groups the collaborators of HealthService
type HealthServiceDeps struct {
	Version   string
	BuildTime string
	Storage   Pinger
	Backend   string
	Hub       ClientCounter
	Logger    *slog.Logger
}

// NewHealthService creates a health service. Storage and Hub may be nil.
func NewHealthService(deps HealthServiceDeps) *HealthService {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	deps.Logger.Debug("health service initialized",
		slog.String("version", deps.Version),
		slog.String("storage_backend", deps.Backend))

	return &HealthService{
		version:   deps.Version,
		buildTime: deps.BuildTime,
		storage:   deps.Storage,
		backend:   deps.Backend,
		hub:       deps.Hub,
		startTime: time.Now(),
		timeout:   2 * time.Second,
		logger:    deps.Logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck pings storage and reports not_ready when any dependency fails
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"storage":   hs.checkStorage(ctx),
			"websocket": hs.checkWebSocket(),
		},
	}

	for name, sh := range status.Services {
		if sh.Status != "ready" {
			status.Status = "not_ready"
			hs.logger.WarnContext(ctx, "readiness check failed",
				slog.String("service", name),
				slog.String("message", sh.Message))
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	return result
}

// SystemStats returns process statistics
func (hs *HealthService) SystemStats(ctx context.Context) SystemStats {
	stats := SystemStats{
		UptimeSeconds:  time.Since(hs.startTime).Seconds(),
		StorageBackend: hs.backend,
		Goroutines:     runtime.NumGoroutine(),
		GoVersion:      runtime.Version(),
		OS:             runtime.GOOS,
		Arch:           runtime.GOARCH,
	}
	if hs.hub != nil {
		stats.WebSocketClients = hs.hub.ClientCount()
	}
	return stats
}

func (hs *HealthService) checkStorage(ctx context.Context) ServiceHealth {
	if hs.storage == nil {
		return ServiceHealth{Status: "not_ready", Message: "storage not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, hs.timeout)
	defer cancel()
	if err := hs.storage.Ping(ctx); err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("storage unreachable: %v", err),
		}
	}
	return ServiceHealth{Status: "ready", Message: hs.backend}
}

func (hs *HealthService) checkWebSocket() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: "ready", Message: "push disabled"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d clients", hs.hub.ClientCount()),
		Uptime:  time.Since(hs.startTime).String(),
	}
}
