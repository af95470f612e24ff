package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"flowpulse/internal/dataprocessing"
	"flowpulse/internal/exporter"
	"flowpulse/internal/infrastructure"
	"flowpulse/internal/report"
	"flowpulse/internal/retention"
	"flowpulse/internal/validation"
	"flowpulse/pkg/contracts/domain"
)

// DatasetNotifier is told when an owner's datasets change
type DatasetNotifier interface {
	DatasetCreated(ownerID string, id domain.DatasetID)
	DatasetRemoved(ownerID string, id domain.DatasetID, evicted bool)
}

// RenderedReport is a report document rendered to file bytes
type RenderedReport struct {
	Filename    string
	ContentType string
	Body        []byte
	Empty       bool
}

// EquipmentService is the core facade over validation, retention, analytics and rendering
type EquipmentService struct {
	validator *validation.CSVValidator
	store     *retention.Store
	renderers *exporter.Registry
	csv       *exporter.CSVExporter
	metrics   *infrastructure.PipelineMetrics
	notifier  DatasetNotifier
	renders   singleflight.Group
	logger    *slog.Logger
}

// EquipmentServiceDeps groups the collaborators of EquipmentService
type EquipmentServiceDeps struct {
	Validator *validation.CSVValidator
	Store     *retention.Store
	Renderers *exporter.Registry
	Metrics   *infrastructure.PipelineMetrics
	Notifier  DatasetNotifier
	Logger    *slog.Logger
}

// NewEquipmentService wires the facade and installs itself as the store's removal hook
func NewEquipmentService(deps EquipmentServiceDeps) (*EquipmentService, error) {
	if deps.Store == nil {
		return nil, errors.New("equipment service requires a retention store")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Validator == nil {
		deps.Validator = validation.NewCSVValidator(deps.Logger, 0)
	}
	if deps.Renderers == nil {
		deps.Renderers = exporter.NewRegistry(deps.Logger)
	}
	if deps.Metrics == nil {
		m, err := infrastructure.NewPipelineMetrics(nil, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
		}
		deps.Metrics = m
	}

	s := &EquipmentService{
		validator: deps.Validator,
		store:     deps.Store,
		renderers: deps.Renderers,
		csv:       exporter.NewCSVExporter(deps.Logger),
		metrics:   deps.Metrics,
		notifier:  deps.Notifier,
		logger:    deps.Logger.With(slog.String("component", "equipment_service")),
	}
	deps.Store.SetRemoveHook(s.onRemove)
	return s, nil
}

// MaxUploadBytes is the largest accepted upload body
func (s *EquipmentService) MaxUploadBytes() int64 {
	return s.validator.MaxBytes()
}

// Ingest validates an uploaded CSV and stores it as a new dataset named after the file.
// Nothing is stored when validation fails.
func (s *EquipmentService) Ingest(ctx context.Context, ownerID, filename string, raw []byte) (domain.DatasetID, error) {
	ctx, span := s.metrics.StartSpan(ctx, "dataset.ingest",
		attribute.String("owner_id", ownerID),
		attribute.String("filename", filename),
		attribute.Int("bytes", len(raw)))
	defer span.End()

	if err := s.validator.ValidateUpload(ownerID, filename, int64(len(raw))); err != nil {
		return 0, s.reject(ctx, filename, err)
	}

	records, err := s.validator.Parse(filename, raw)
	if err != nil {
		return 0, s.reject(ctx, filename, err)
	}

	id, err := s.store.Put(ctx, ownerID, filename, records)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to store dataset",
			slog.String("filename", filename),
			slog.String("error", err.Error()))
		s.metrics.RecordIngestion(ctx, infrastructure.ResultFailed, 0)
		infrastructure.RecordError(ctx, err)
		return 0, fmt.Errorf("store dataset: %w", err)
	}

	s.metrics.RecordIngestion(ctx, infrastructure.ResultAccepted, len(records))
	s.logger.InfoContext(ctx, "dataset ingested",
		slog.Int64("dataset_id", int64(id)),
		slog.String("filename", filename),
		slog.Int("rows", len(records)))
	if s.notifier != nil {
		s.notifier.DatasetCreated(ownerID, id)
	}
	return id, nil
}

func (s *EquipmentService) reject(ctx context.Context, filename string, err error) error {
	s.logger.WarnContext(ctx, "upload rejected",
		slog.String("filename", filename),
		slog.String("error", err.Error()))
	s.metrics.RecordIngestion(ctx, infrastructure.ResultRejected, 0)
	return err
}

// ListDatasets returns the owner's datasets, most recent first
func (s *EquipmentService) ListDatasets(ctx context.Context, ownerID string) ([]domain.DatasetInfo, error) {
	infos, err := s.store.List(ctx, ownerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list datasets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	return infos, nil
}

// GetEquipment returns the equipment rows of a dataset in upload order
func (s *EquipmentService) GetEquipment(ctx context.Context, id domain.DatasetID, ownerID string) ([]domain.Equipment, error) {
	ds, err := s.dataset(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	return ds.Equipment, nil
}

// GetSummary computes the summary of a dataset. An empty dataset yields ErrEmptyDataset.
func (s *EquipmentService) GetSummary(ctx context.Context, id domain.DatasetID, ownerID string) (domain.Summary, error) {
	ds, err := s.dataset(ctx, id, ownerID)
	if err != nil {
		return domain.Summary{}, err
	}

	summary, err := dataprocessing.Summarize(ds.Equipment)
	if err != nil {
		s.logEmpty(ctx, id, "summary")
		return domain.Summary{}, err
	}
	return summary, nil
}

// GetStatistics computes per-field mean, population std, min and max
func (s *EquipmentService) GetStatistics(ctx context.Context, id domain.DatasetID, ownerID string) (domain.Statistics, error) {
	ds, err := s.dataset(ctx, id, ownerID)
	if err != nil {
		return domain.Statistics{}, err
	}

	stats, err := dataprocessing.ComputeStatistics(ds.Equipment)
	if err != nil {
		s.logEmpty(ctx, id, "statistics")
		return domain.Statistics{}, err
	}
	return stats, nil
}

// GetCharts builds the chart series of a dataset
func (s *EquipmentService) GetCharts(ctx context.Context, id domain.DatasetID, ownerID string) (domain.ChartSet, error) {
	ds, err := s.dataset(ctx, id, ownerID)
	if err != nil {
		return domain.ChartSet{}, err
	}

	charts, err := dataprocessing.BuildCharts(ds.Equipment)
	if err != nil {
		s.logEmpty(ctx, id, "charts")
		return domain.ChartSet{}, err
	}
	return charts, nil
}

// RenderReport assembles and renders the report of a dataset in format ("" selects
// the default). For an empty dataset the notice-only report is returned together
// with ErrEmptyDataset. Identical concurrent requests share one render.
func (s *EquipmentService) RenderReport(ctx context.Context, id domain.DatasetID, ownerID, format string) (*RenderedReport, error) {
	renderer, err := s.renderers.Get(format)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%d/%s", ownerID, id, renderer.Extension())
	v, err, shared := s.renders.Do(key, func() (interface{}, error) {
		return s.render(ctx, id, ownerID, renderer)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.DebugContext(ctx, "report render shared", slog.String("key", key))
	}

	rendered := v.(*RenderedReport)
	if rendered.Empty {
		return rendered, ErrEmptyDataset
	}
	return rendered, nil
}

func (s *EquipmentService) render(ctx context.Context, id domain.DatasetID, ownerID string, renderer exporter.Renderer) (*RenderedReport, error) {
	ctx, span := s.metrics.StartSpan(ctx, "report.render",
		attribute.Int64("dataset_id", int64(id)),
		attribute.String("format", renderer.Extension()))
	defer span.End()

	ds, err := s.dataset(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	doc, err := report.Assemble(ds)
	if err != nil {
		return nil, fmt.Errorf("assemble report: %w", err)
	}
	if doc.Empty {
		s.logEmpty(ctx, id, "report")
	}

	body, err := renderer.Render(doc)
	s.metrics.RecordRender(ctx, renderer.Extension(), time.Since(start), err)
	if err != nil {
		s.logger.ErrorContext(ctx, "report render failed",
			slog.Int64("dataset_id", int64(id)),
			slog.String("format", renderer.Extension()),
			slog.String("error", err.Error()))
		infrastructure.RecordError(ctx, err)
		return nil, fmt.Errorf("render %s report: %w", renderer.Extension(), err)
	}

	return &RenderedReport{
		Filename:    exporter.ReportFilename(ds.Name, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
		Empty:       doc.Empty,
	}, nil
}

// ReportFormats lists the accepted report format names
func (s *EquipmentService) ReportFormats() []string {
	return s.renderers.Formats()
}

// DeleteDataset removes a dataset and its equipment
func (s *EquipmentService) DeleteDataset(ctx context.Context, id domain.DatasetID, ownerID string) error {
	if err := s.store.Delete(ctx, id, ownerID); err != nil {
		if errors.Is(err, retention.ErrNotFound) {
			return err
		}
		s.logger.ErrorContext(ctx, "failed to delete dataset",
			slog.Int64("dataset_id", int64(id)),
			slog.String("error", err.Error()))
		return fmt.Errorf("delete dataset: %w", err)
	}
	return nil
}

// ExportCSV writes a dataset's equipment back out under the canonical header
func (s *EquipmentService) ExportCSV(ctx context.Context, id domain.DatasetID, ownerID string) ([]byte, error) {
	ds, err := s.dataset(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	body, err := s.csv.ExportEquipment(ds.Equipment)
	if err != nil {
		return nil, fmt.Errorf("export dataset %d: %w", id, err)
	}
	return body, nil
}

// Ping reports whether the retention backend is reachable
func (s *EquipmentService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *EquipmentService) dataset(ctx context.Context, id domain.DatasetID, ownerID string) (*domain.Dataset, error) {
	ds, err := s.store.Get(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, retention.ErrNotFound) {
			return nil, err
		}
		s.logger.ErrorContext(ctx, "failed to load dataset",
			slog.Int64("dataset_id", int64(id)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("load dataset %d: %w", id, err)
	}
	return ds, nil
}

func (s *EquipmentService) logEmpty(ctx context.Context, id domain.DatasetID, op string) {
	s.logger.InfoContext(ctx, "dataset has no equipment",
		slog.Int64("dataset_id", int64(id)),
		slog.String("operation", op))
}

func (s *EquipmentService) onRemove(ctx context.Context, ownerID string, id domain.DatasetID, evicted bool) {
	s.metrics.RecordRemoval(ctx, evicted)
	if s.notifier != nil {
		s.notifier.DatasetRemoved(ownerID, id, evicted)
	}
}
