package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"flowpulse/internal/config"
	apierrors "flowpulse/internal/errors"
	"flowpulse/internal/exporter"
	flowmw "flowpulse/internal/middleware"
	"flowpulse/internal/services"
	"flowpulse/internal/shared/testutil"
	"flowpulse/internal/validation"
	"flowpulse/pkg/contracts/domain"
)

// MockDatasetService is a mock implementation of DatasetServiceInterface
type MockDatasetService struct {
	mock.Mock
}

func (m *MockDatasetService) MaxUploadBytes() int64 {
	return int64(m.Called().Int(0))
}

func (m *MockDatasetService) Ingest(ctx context.Context, ownerID, filename string, raw []byte) (domain.DatasetID, error) {
	args := m.Called(ownerID, filename, raw)
	return args.Get(0).(domain.DatasetID), args.Error(1)
}

func (m *MockDatasetService) ListDatasets(ctx context.Context, ownerID string) ([]domain.DatasetInfo, error) {
	args := m.Called(ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DatasetInfo), args.Error(1)
}

func (m *MockDatasetService) GetEquipment(ctx context.Context, id domain.DatasetID, ownerID string) ([]domain.Equipment, error) {
	args := m.Called(id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Equipment), args.Error(1)
}

func (m *MockDatasetService) GetSummary(ctx context.Context, id domain.DatasetID, ownerID string) (domain.Summary, error) {
	args := m.Called(id, ownerID)
	return args.Get(0).(domain.Summary), args.Error(1)
}

func (m *MockDatasetService) GetStatistics(ctx context.Context, id domain.DatasetID, ownerID string) (domain.Statistics, error) {
	args := m.Called(id, ownerID)
	return args.Get(0).(domain.Statistics), args.Error(1)
}

func (m *MockDatasetService) GetCharts(ctx context.Context, id domain.DatasetID, ownerID string) (domain.ChartSet, error) {
	args := m.Called(id, ownerID)
	return args.Get(0).(domain.ChartSet), args.Error(1)
}

func (m *MockDatasetService) RenderReport(ctx context.Context, id domain.DatasetID, ownerID, format string) (*services.RenderedReport, error) {
	args := m.Called(id, ownerID, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RenderedReport), args.Error(1)
}

func (m *MockDatasetService) DeleteDataset(ctx context.Context, id domain.DatasetID, ownerID string) error {
	return m.Called(id, ownerID).Error(0)
}

func (m *MockDatasetService) ExportCSV(ctx context.Context, id domain.DatasetID, ownerID string) ([]byte, error) {
	args := m.Called(id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func newDatasetRouter(t *testing.T, svc *MockDatasetService) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)

	r := chi.NewRouter()
	r.Use(flowmw.OwnerID(config.OwnerHeader, errorHandler))
	r.Mount("/api/datasets", NewDatasetHandler(svc, logger, errorHandler).Routes())
	return r
}

func doRequest(handler http.Handler, method, target, owner string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if owner != "" {
		req.Header.Set(config.OwnerHeader, owner)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

func TestDatasetHandler_RequiresOwner(t *testing.T) {
	svc := &MockDatasetService{}
	rec := doRequest(newDatasetRouter(t, svc), http.MethodGet, "/api/datasets", "", nil, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, apierrors.CodeMissingOwner, decodeProblem(t, rec)["error_code"])
	svc.AssertExpectations(t)
}

func TestDatasetHandler_Upload(t *testing.T) {
	content := testutil.EquipmentCSV(testutil.SampleEquipment()...)

	tests := []struct {
		name       string
		setup      func(svc *MockDatasetService)
		body       func(t *testing.T) (*bytes.Buffer, string)
		wantStatus int
		wantCode   string
	}{
		{
			name: "accepted",
			setup: func(svc *MockDatasetService) {
				svc.On("Ingest", "alice", "plant.csv", content).Return(domain.DatasetID(7), nil)
			},
			body:       func(t *testing.T) (*bytes.Buffer, string) { return multipartBody(t, "file", "plant.csv", content) },
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing file field",
			body:       func(t *testing.T) (*bytes.Buffer, string) { return multipartBody(t, "other", "plant.csv", content) },
			wantStatus: http.StatusBadRequest,
			wantCode:   apierrors.CodeValidationFailed,
		},
		{
			name: "schema error",
			setup: func(svc *MockDatasetService) {
				svc.On("Ingest", "alice", "plant.csv", content).Return(domain.DatasetID(0),
					&validation.SchemaError{Missing: []string{"Temperature"}, Required: config.RequiredColumns()})
			},
			body:       func(t *testing.T) (*bytes.Buffer, string) { return multipartBody(t, "file", "plant.csv", content) },
			wantStatus: http.StatusBadRequest,
			wantCode:   apierrors.CodeSchemaError,
		},
		{
			name: "row parse error",
			setup: func(svc *MockDatasetService) {
				svc.On("Ingest", "alice", "plant.csv", content).Return(domain.DatasetID(0),
					&validation.RowParseError{RowIndex: 2, Field: "Flowrate", Value: "fast"})
			},
			body:       func(t *testing.T) (*bytes.Buffer, string) { return multipartBody(t, "file", "plant.csv", content) },
			wantStatus: http.StatusBadRequest,
			wantCode:   apierrors.CodeRowParseError,
		},
		{
			name: "wrong extension",
			setup: func(svc *MockDatasetService) {
				svc.On("Ingest", "alice", "plant.txt", content).Return(domain.DatasetID(0),
					&validation.FilenameError{Filename: "plant.txt"})
			},
			body:       func(t *testing.T) (*bytes.Buffer, string) { return multipartBody(t, "file", "plant.txt", content) },
			wantStatus: http.StatusBadRequest,
			wantCode:   apierrors.CodeInvalidFilename,
		},
		{
			name: "file over the limit",
			setup: func(svc *MockDatasetService) {
				svc.On("Ingest", "alice", "plant.csv", content).Return(domain.DatasetID(0),
					&validation.SizeError{Size: 2048, Limit: 1024})
			},
			body:       func(t *testing.T) (*bytes.Buffer, string) { return multipartBody(t, "file", "plant.csv", content) },
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   apierrors.CodeUploadTooLarge,
		},
		{
			name: "body over the limit",
			body: func(t *testing.T) (*bytes.Buffer, string) {
				return multipartBody(t, "file", "plant.csv", bytes.Repeat([]byte("x"), 200<<10))
			},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   apierrors.CodeUploadTooLarge,
		},
		{
			name: "storage failure",
			setup: func(svc *MockDatasetService) {
				svc.On("Ingest", "alice", "plant.csv", content).Return(domain.DatasetID(0), errors.New("disk full"))
			},
			body:       func(t *testing.T) (*bytes.Buffer, string) { return multipartBody(t, "file", "plant.csv", content) },
			wantStatus: http.StatusInternalServerError,
			wantCode:   apierrors.CodeInternalServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockDatasetService{}
			svc.On("MaxUploadBytes").Return(1024)
			if tt.setup != nil {
				tt.setup(svc)
			}

			body, contentType := tt.body(t)
			rec := doRequest(newDatasetRouter(t, svc), http.MethodPost, "/api/datasets", "alice", body, contentType)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeProblem(t, rec)["error_code"])
			} else {
				var resp map[string]interface{}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, float64(7), resp["dataset_id"])
				assert.Equal(t, "File uploaded successfully", resp["message"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDatasetHandler_List(t *testing.T) {
	svc := &MockDatasetService{}
	svc.On("ListDatasets", "alice").Return(nil, nil)

	rec := doRequest(newDatasetRouter(t, svc), http.MethodGet, "/api/datasets", "alice", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	svc.AssertExpectations(t)
}

func TestDatasetHandler_InvalidID(t *testing.T) {
	for _, id := range []string{"abc", "0", "-4"} {
		t.Run(id, func(t *testing.T) {
			svc := &MockDatasetService{}
			rec := doRequest(newDatasetRouter(t, svc), http.MethodGet, "/api/datasets/"+id+"/equipment", "alice", nil, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, apierrors.CodeValidationFailed, decodeProblem(t, rec)["error_code"])
		})
	}
}

func TestDatasetHandler_NotFound(t *testing.T) {
	svc := &MockDatasetService{}
	svc.On("GetEquipment", domain.DatasetID(9), "bob").Return(nil, services.ErrDatasetNotFound)

	rec := doRequest(newDatasetRouter(t, svc), http.MethodGet, "/api/datasets/9/equipment", "bob", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	problem := decodeProblem(t, rec)
	assert.Equal(t, apierrors.CodeDatasetNotFound, problem["error_code"])
	assert.Equal(t, apierrors.TypeDatasetNotFound, problem["type"])
	svc.AssertExpectations(t)
}

func TestDatasetHandler_Summary(t *testing.T) {
	t.Run("populated", func(t *testing.T) {
		svc := &MockDatasetService{}
		svc.On("GetSummary", domain.DatasetID(3), "alice").Return(domain.Summary{TotalCount: 4}, nil)

		rec := doRequest(newDatasetRouter(t, svc), http.MethodGet, "/api/datasets/3/summary", "alice", nil, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, float64(4), resp["total_count"])
	})

	t.Run("empty dataset", func(t *testing.T) {
		svc := &MockDatasetService{}
		svc.On("GetSummary", domain.DatasetID(3), "alice").Return(domain.Summary{}, services.ErrEmptyDataset)

		rec := doRequest(newDatasetRouter(t, svc), http.MethodGet, "/api/datasets/3/summary", "alice", nil, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"error":"No equipment data found","empty":true}`, rec.Body.String())
	})
}

func TestDatasetHandler_ChartsAndStatistics(t *testing.T) {
	svc := &MockDatasetService{}
	svc.On("GetCharts", domain.DatasetID(3), "alice").Return(domain.ChartSet{}, services.ErrEmptyDataset)
	svc.On("GetStatistics", domain.DatasetID(3), "alice").Return(domain.Statistics{
		Flowrate: domain.FieldStats{Mean: 10, Max: 12},
	}, nil)
	router := newDatasetRouter(t, svc)

	rec := doRequest(router, http.MethodGet, "/api/datasets/3/charts", "alice", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"empty":true`)

	rec = doRequest(router, http.MethodGet, "/api/datasets/3/statistics", "alice", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var stats domain.Statistics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 12.0, stats.Flowrate.Max)
	svc.AssertExpectations(t)
}

func TestDatasetHandler_DownloadReport(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		format      string
		report      *services.RenderedReport
		err         error
		wantStatus  int
		wantEmpty   string
		wantProblem string
	}{
		{
			name:   "pdf",
			format: "",
			report: &services.RenderedReport{
				Filename: "plant_report.pdf", ContentType: "application/pdf", Body: []byte("%PDF-1.3"),
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "empty dataset still downloads the notice report",
			query:  "?format=xlsx",
			format: "xlsx",
			report: &services.RenderedReport{
				Filename: "plant_report.xlsx", ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
				Body: []byte("PK"), Empty: true,
			},
			err:        services.ErrEmptyDataset,
			wantStatus: http.StatusOK,
			wantEmpty:  "true",
		},
		{
			name:        "unsupported format",
			query:       "?format=docx",
			format:      "docx",
			err:         &exporter.UnsupportedFormatError{Format: "docx", Supported: []string{"pdf", "xlsx"}},
			wantStatus:  http.StatusBadRequest,
			wantProblem: apierrors.CodeUnsupportedFormat,
		},
		{
			name:        "render failure",
			format:      "",
			err:         errors.New("font missing"),
			wantStatus:  http.StatusInternalServerError,
			wantProblem: apierrors.CodeInternalServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockDatasetService{}
			if tt.report != nil {
				svc.On("RenderReport", domain.DatasetID(5), "alice", tt.format).Return(tt.report, tt.err)
			} else {
				svc.On("RenderReport", domain.DatasetID(5), "alice", tt.format).Return(nil, tt.err)
			}

			rec := doRequest(newDatasetRouter(t, svc), http.MethodGet, "/api/datasets/5/report"+tt.query, "alice", nil, "")
			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantProblem != "" {
				assert.Equal(t, tt.wantProblem, decodeProblem(t, rec)["error_code"])
				return
			}
			assert.Equal(t, tt.report.ContentType, rec.Header().Get("Content-Type"))
			assert.Equal(t, `attachment; filename=`+tt.report.Filename, rec.Header().Get("Content-Disposition"))
			assert.Equal(t, tt.wantEmpty, rec.Header().Get("X-Report-Empty"))
			assert.Equal(t, tt.report.Body, rec.Body.Bytes())
		})
	}
}

func TestDatasetHandler_ExportCSV(t *testing.T) {
	body := testutil.EquipmentCSV(testutil.SampleEquipment()...)
	svc := &MockDatasetService{}
	svc.On("ExportCSV", domain.DatasetID(4), "alice").Return(body, nil)

	rec := doRequest(newDatasetRouter(t, svc), http.MethodGet, "/api/datasets/4/export", "alice", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
	assert.Equal(t, "attachment; filename=dataset_4.csv", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, body, rec.Body.Bytes())
}

func TestDatasetHandler_Delete(t *testing.T) {
	svc := &MockDatasetService{}
	svc.On("DeleteDataset", domain.DatasetID(4), "alice").Return(nil).Once()
	svc.On("DeleteDataset", domain.DatasetID(4), "alice").Return(services.ErrDatasetNotFound).Once()
	router := newDatasetRouter(t, svc)

	rec := doRequest(router, http.MethodDelete, "/api/datasets/4", "alice", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(router, http.MethodDelete, "/api/datasets/4", "alice", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	svc.AssertExpectations(t)
}
