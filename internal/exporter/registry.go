package exporter

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"flowpulse/internal/report"
)

// Renderer turns an assembled report into file bytes
type Renderer interface {
	Render(doc *report.Document) ([]byte, error)
	ContentType() string
	Extension() string
}

// UnsupportedFormatError is returned for format names no renderer handles
type UnsupportedFormatError struct {
	Format    string
	Supported []string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported report format %q (supported: %s)", e.Format, strings.Join(e.Supported, ", "))
}

// Registry maps format names to renderers
type Registry struct {
	renderers     map[string]Renderer
	defaultFormat string
}

// NewRegistry registers the PDF and XLSX renderers with pdf as the default format
func NewRegistry(logger *slog.Logger) *Registry {
	r := &Registry{renderers: make(map[string]Renderer), defaultFormat: "pdf"}
	r.Register("pdf", NewPDFRenderer(logger))
	r.Register("xlsx", NewXLSXRenderer(logger))
	return r
}

// Register adds or replaces a renderer
func (r *Registry) Register(format string, renderer Renderer) {
	r.renderers[strings.ToLower(format)] = renderer
}

// SetDefault changes the format used when none is requested
func (r *Registry) SetDefault(format string) error {
	format = strings.ToLower(format)
	if _, ok := r.renderers[format]; !ok {
		return &UnsupportedFormatError{Format: format, Supported: r.Formats()}
	}
	r.defaultFormat = format
	return nil
}

// Get returns the renderer for a format; an empty name selects the default
func (r *Registry) Get(format string) (Renderer, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = r.defaultFormat
	}
	renderer, ok := r.renderers[format]
	if !ok {
		return nil, &UnsupportedFormatError{Format: format, Supported: r.Formats()}
	}
	return renderer, nil
}

// Formats lists the registered format names in sorted order
func (r *Registry) Formats() []string {
	formats := make([]string, 0, len(r.renderers))
	for f := range r.renderers {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}
