package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Error codes carried in the error_code extension of problem responses
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeSchemaError        = "SCHEMA_ERROR"
	CodeRowParseError      = "ROW_PARSE_ERROR"
	CodeInvalidFilename    = "INVALID_FILENAME"
	CodeMissingOwner       = "MISSING_OWNER"
	CodeNotFound           = "NOT_FOUND"
	CodeDatasetNotFound    = "DATASET_NOT_FOUND"
	CodeUploadTooLarge     = "UPLOAD_TOO_LARGE"
	CodeUnsupportedFormat  = "UNSUPPORTED_FORMAT"
	CodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	CodeInternalServer     = "INTERNAL_SERVER_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError describes one rejected field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined error types for common scenarios
var (
	ErrInvalidRequest     = New(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format")
	ErrMissingOwner       = New(http.StatusUnauthorized, CodeMissingOwner, "Owner identity header is required")
	ErrNotFound           = New(http.StatusNotFound, CodeNotFound, "Resource not found")
	ErrDatasetNotFound    = New(http.StatusNotFound, CodeDatasetNotFound, "Dataset not found")
	ErrRateLimitExceeded  = New(http.StatusTooManyRequests, CodeRateLimitExceeded, "Rate limit exceeded")
	ErrInternalServer     = New(http.StatusInternalServerError, CodeInternalServer, "Internal server error")
	ErrServiceUnavailable = New(http.StatusServiceUnavailable, CodeServiceUnavailable, "Service temporarily unavailable")
)

// InvalidRequestWithError creates an invalid request error carrying err's message
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err.Error())
}

// ErrValidation creates a validation error with field details
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidationFailed, "Request validation failed", ValidationError{
		Field:   field,
		Message: message,
	})
}

// SchemaError reports a CSV header lacking required columns
func SchemaError(message string, missing, required []string) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeSchemaError, message, map[string][]string{
		"missing":  missing,
		"required": required,
	})
}

// RowParseError reports the first data row that failed to parse
func RowParseError(message string, row int, field, value string) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeRowParseError, message, map[string]interface{}{
		"row":   row,
		"field": field,
		"value": value,
	})
}

// InvalidFilenameError reports an upload whose name is not a .csv file
func InvalidFilenameError(filename string) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidFilename, "File must be CSV", filename)
}

// UploadTooLargeError reports a body over the configured limit
func UploadTooLargeError(limit int64) *APIError {
	return NewWithDetails(http.StatusRequestEntityTooLarge, CodeUploadTooLarge,
		fmt.Sprintf("Upload exceeds the %d byte limit", limit), map[string]int64{"limit": limit})
}

// UnsupportedFormatError reports an unknown report format
func UnsupportedFormatError(format string, supported []string) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeUnsupportedFormat,
		fmt.Sprintf("Unsupported report format %q", format), map[string]interface{}{"supported": supported})
}

// NotFoundError creates a not found error naming the resource
func NotFoundError(resource string) *APIError {
	return NewWithDetails(http.StatusNotFound, CodeNotFound, fmt.Sprintf("%s not found", resource), resource)
}

// NewInternalError creates a simple internal server error
func NewInternalError(message string) *APIError {
	return New(http.StatusInternalServerError, CodeInternalServer, message)
}
