package http

import (
	"context"

	"flowpulse/internal/services"
	"flowpulse/pkg/contracts/domain"
)

// DatasetServiceInterface defines the dataset operations the handler exposes
type DatasetServiceInterface interface {
	MaxUploadBytes() int64
	Ingest(ctx context.Context, ownerID, filename string, raw []byte) (domain.DatasetID, error)
	ListDatasets(ctx context.Context, ownerID string) ([]domain.DatasetInfo, error)
	GetEquipment(ctx context.Context, id domain.DatasetID, ownerID string) ([]domain.Equipment, error)
	GetSummary(ctx context.Context, id domain.DatasetID, ownerID string) (domain.Summary, error)
	GetStatistics(ctx context.Context, id domain.DatasetID, ownerID string) (domain.Statistics, error)
	GetCharts(ctx context.Context, id domain.DatasetID, ownerID string) (domain.ChartSet, error)
	RenderReport(ctx context.Context, id domain.DatasetID, ownerID, format string) (*services.RenderedReport, error)
	DeleteDataset(ctx context.Context, id domain.DatasetID, ownerID string) error
	ExportCSV(ctx context.Context, id domain.DatasetID, ownerID string) ([]byte, error)
}

// HealthServiceInterface defines the probes served under /api/health
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
	SystemStats(ctx context.Context) services.SystemStats
}
