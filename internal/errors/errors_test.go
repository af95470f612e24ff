package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Constructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantStatus int
		wantCode   string
	}{
		{"schema", SchemaError("CSV must contain columns", []string{"Type"}, []string{"Type"}), http.StatusBadRequest, CodeSchemaError},
		{"row parse", RowParseError("row 3: invalid Flowrate", 3, "Flowrate", "abc"), http.StatusBadRequest, CodeRowParseError},
		{"filename", InvalidFilenameError("data.txt"), http.StatusBadRequest, CodeInvalidFilename},
		{"too large", UploadTooLargeError(1024), http.StatusRequestEntityTooLarge, CodeUploadTooLarge},
		{"format", UnsupportedFormatError("docx", []string{"pdf", "xlsx"}), http.StatusBadRequest, CodeUnsupportedFormat},
		{"validation", ErrValidation("owner_id", "required"), http.StatusBadRequest, CodeValidationFailed},
		{"not found", NotFoundError("report"), http.StatusNotFound, CodeNotFound},
		{"invalid request", InvalidRequestWithError(errors.New("no file part")), http.StatusBadRequest, CodeInvalidRequest},
		{"internal", NewInternalError("boom"), http.StatusInternalServerError, CodeInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Equal(t, tt.wantCode, tt.err.ErrorCode)
			assert.Equal(t, tt.err.Message, tt.err.Error())
		})
	}
}

func TestAPIError_AsWrapped(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), ErrDatasetNotFound)

	var apiErr *APIError
	require.True(t, errors.As(wrapped, &apiErr))
	assert.Equal(t, CodeDatasetNotFound, apiErr.ErrorCode)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	problem := NewProblemDetails(http.StatusBadRequest, TypeSchema, "Bad Request", "missing columns", "/api/datasets").
		WithExtension("error_code", CodeSchemaError).
		WithExtension("type", "ignored")

	raw, err := json.Marshal(problem)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, TypeSchema, decoded["type"])
	assert.Equal(t, "Bad Request", decoded["title"])
	assert.EqualValues(t, 400, decoded["status"])
	assert.Equal(t, "missing columns", decoded["detail"])
	assert.Equal(t, "/api/datasets", decoded["instance"])
	assert.Equal(t, CodeSchemaError, decoded["error_code"])
}

func TestProblemDetails_OmitsEmptyMembers(t *testing.T) {
	problem := &ProblemDetails{Type: TypeInternal, Title: "Internal Server Error", Status: 500}
	problem.WithExtension("trace_id", "abc")

	raw, err := json.Marshal(problem)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "detail")
	assert.NotContains(t, string(raw), "instance")
	assert.Contains(t, string(raw), `"trace_id":"abc"`)
}
