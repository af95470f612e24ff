// Package exporter renders assembled reports and datasets into downloadable files.
//
// Renderers are stateless: each call builds a fresh document, so one renderer
// may serve concurrent requests.
//
// PDFRenderer: A4 portrait document drawn with gofpdf, charts included as vector
// graphics.
//
// XLSXRenderer: workbook with the report tables and native excelize charts backed
// by a hidden data sheet.
//
// CSVExporter: writes a dataset's equipment back out with the canonical header.
//
// Example usage:
//
//	registry := exporter.NewRegistry(logger)
//	renderer, err := registry.Get("pdf")
//	body, err := renderer.Render(doc)
package exporter
