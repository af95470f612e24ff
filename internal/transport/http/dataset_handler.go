package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "flowpulse/internal/errors"
	flowmw "flowpulse/internal/middleware"
	"flowpulse/internal/services"
	"flowpulse/pkg/contracts/domain"
)

type datasetIDKey struct{}

// multipartOverhead is the slack allowed above the file limit for form boundaries and headers
const multipartOverhead = 64 << 10

// emptyDatasetMessage is returned with 200 when a dataset holds no equipment
const emptyDatasetMessage = "No equipment data found"

// DatasetHandler handles dataset HTTP requests with RFC 7807 errors
type DatasetHandler struct {
	service      DatasetServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(service DatasetServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dataset routes; mount under /api/datasets behind the owner middleware
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Upload)
	r.Get("/", h.List)

	r.Route("/{id}", func(r chi.Router) {
		r.Use(h.DatasetCtx)
		r.Delete("/", h.Delete)
		r.Get("/equipment", h.GetEquipment)
		r.Get("/summary", h.GetSummary)
		r.Get("/statistics", h.GetStatistics)
		r.Get("/charts", h.GetCharts)
		r.Get("/report", h.DownloadReport)
		r.Get("/export", h.ExportCSV)
	})

	return r
}

// DatasetCtx parses the {id} parameter into the request context
func (h *DatasetHandler) DatasetCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "id")
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.errorHandler.HandleError(w, r, invalidDatasetID(raw))
			return
		}
		ctx := context.WithValue(r.Context(), datasetIDKey{}, domain.DatasetID(id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func datasetID(r *http.Request) domain.DatasetID {
	id, _ := r.Context().Value(datasetIDKey{}).(domain.DatasetID)
	return id
}

// fail logs server-side failures and writes the problem response
func (h *DatasetHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	mapped := mapError(err)
	var apiErr *apierrors.APIError
	if !errors.As(mapped, &apiErr) {
		h.logger.ErrorContext(r.Context(), op+" failed",
			slog.String("request_id", flowmw.GetRequestID(r.Context())),
			slog.String("error", err.Error()))
	}
	h.errorHandler.HandleError(w, r, mapped)
}

// Upload handles POST /api/datasets with a multipart "file" field
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	limit := h.service.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	if err := r.ParseMultipartForm(limit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleError(w, r, apierrors.UploadTooLargeError(limit))
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "No file provided"))
		return
	}
	defer file.Close()

	if header.Filename == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "File name is required"))
		return
	}

	raw, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	id, err := h.service.Ingest(r.Context(), flowmw.Owner(r), header.Filename, raw)
	if err != nil {
		h.fail(w, r, "ingest", err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"message":    "File uploaded successfully",
		"dataset_id": id,
	})
}

// List handles GET /api/datasets
func (h *DatasetHandler) List(w http.ResponseWriter, r *http.Request) {
	infos, err := h.service.ListDatasets(r.Context(), flowmw.Owner(r))
	if err != nil {
		h.fail(w, r, "list datasets", err)
		return
	}
	if infos == nil {
		infos = []domain.DatasetInfo{}
	}
	render.JSON(w, r, infos)
}

// Delete handles DELETE /api/datasets/{id}
func (h *DatasetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteDataset(r.Context(), datasetID(r), flowmw.Owner(r)); err != nil {
		h.fail(w, r, "delete dataset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetEquipment handles GET /api/datasets/{id}/equipment
func (h *DatasetHandler) GetEquipment(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.GetEquipment(r.Context(), datasetID(r), flowmw.Owner(r))
	if err != nil {
		h.fail(w, r, "get equipment", err)
		return
	}
	if rows == nil {
		rows = []domain.Equipment{}
	}
	render.JSON(w, r, rows)
}

// GetSummary handles GET /api/datasets/{id}/summary
func (h *DatasetHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetSummary(r.Context(), datasetID(r), flowmw.Owner(r))
	if h.renderAnalytics(w, r, "get summary", err) {
		render.JSON(w, r, summary)
	}
}

// GetStatistics handles GET /api/datasets/{id}/statistics
func (h *DatasetHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStatistics(r.Context(), datasetID(r), flowmw.Owner(r))
	if h.renderAnalytics(w, r, "get statistics", err) {
		render.JSON(w, r, stats)
	}
}

// GetCharts handles GET /api/datasets/{id}/charts
func (h *DatasetHandler) GetCharts(w http.ResponseWriter, r *http.Request) {
	charts, err := h.service.GetCharts(r.Context(), datasetID(r), flowmw.Owner(r))
	if h.renderAnalytics(w, r, "get charts", err) {
		render.JSON(w, r, charts)
	}
}

// renderAnalytics reports whether the caller should render its result.
// An empty dataset is answered with 200 and an explanatory body.
func (h *DatasetHandler) renderAnalytics(w http.ResponseWriter, r *http.Request, op string, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, services.ErrEmptyDataset):
		render.JSON(w, r, map[string]interface{}{
			"error": emptyDatasetMessage,
			"empty": true,
		})
	default:
		h.fail(w, r, op, err)
	}
	return false
}

// DownloadReport handles GET /api/datasets/{id}/report?format=pdf|xlsx
func (h *DatasetHandler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	rendered, err := h.service.RenderReport(r.Context(), datasetID(r), flowmw.Owner(r), format)
	if err != nil && !(errors.Is(err, services.ErrEmptyDataset) && rendered != nil) {
		h.fail(w, r, "render report", err)
		return
	}

	if rendered.Empty {
		w.Header().Set("X-Report-Empty", "true")
	}
	h.attachment(w, rendered.Filename, rendered.ContentType, rendered.Body)
}

// ExportCSV handles GET /api/datasets/{id}/export
func (h *DatasetHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	id := datasetID(r)
	body, err := h.service.ExportCSV(r.Context(), id, flowmw.Owner(r))
	if err != nil {
		h.fail(w, r, "export dataset", err)
		return
	}
	h.attachment(w, fmt.Sprintf("dataset_%d.csv", id), "text/csv; charset=utf-8", body)
}

func (h *DatasetHandler) attachment(w http.ResponseWriter, filename, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Debug("failed to write attachment", slog.String("error", err.Error()))
	}
}
