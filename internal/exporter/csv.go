package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"flowpulse/internal/config"
	"flowpulse/pkg/contracts/domain"
)

// CSVExporter writes equipment rows back out as CSV
type CSVExporter struct {
	logger *slog.Logger
}

// NewCSVExporter creates a new CSV exporter
func NewCSVExporter(logger *slog.Logger) *CSVExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVExporter{logger: logger.With(slog.String("component", "csv_exporter"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// Write streams headers and records to w
func (e *CSVExporter) Write(w io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteFile writes a CSV file, creating its directory when needed
func (e *CSVExporter) WriteFile(path string, options WriteOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	e.logger.Info("Writing CSV file",
		slog.String("file_path", path),
		slog.Int("record_count", len(options.Records)))

	if err := e.Write(file, options); err != nil {
		return err
	}
	return file.Close()
}

// ExportEquipment renders rows with the canonical upload header, so the
// output can be uploaded again unchanged
func (e *CSVExporter) ExportEquipment(rows []domain.Equipment) ([]byte, error) {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{
			r.Name,
			r.Type,
			formatFloat(r.Flowrate),
			formatFloat(r.Pressure),
			formatFloat(r.Temperature),
		}
	}

	var buf bytes.Buffer
	if err := e.Write(&buf, WriteOptions{Headers: config.RequiredColumns(), Records: records}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}
