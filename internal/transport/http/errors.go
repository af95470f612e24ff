package http

import (
	"errors"
	"fmt"

	apierrors "flowpulse/internal/errors"
	"flowpulse/internal/exporter"
	"flowpulse/internal/services"
	"flowpulse/internal/validation"
)

// mapError converts domain errors into API errors; anything unknown passes through as a 500
func mapError(err error) error {
	var (
		schemaErr *validation.SchemaError
		rowErr    *validation.RowParseError
		nameErr   *validation.FilenameError
		sizeErr   *validation.SizeError
		formatErr *exporter.UnsupportedFormatError
		apiErr    *apierrors.APIError
	)

	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &schemaErr):
		return apierrors.SchemaError(schemaErr.Error(), schemaErr.Missing, schemaErr.Required)
	case errors.As(err, &rowErr):
		return apierrors.RowParseError(rowErr.Error(), rowErr.RowIndex, rowErr.Field, rowErr.Value)
	case errors.As(err, &nameErr):
		return apierrors.InvalidFilenameError(nameErr.Filename)
	case errors.As(err, &sizeErr):
		return apierrors.UploadTooLargeError(sizeErr.Limit)
	case errors.As(err, &formatErr):
		return apierrors.UnsupportedFormatError(formatErr.Format, formatErr.Supported)
	case errors.Is(err, services.ErrDatasetNotFound):
		return apierrors.ErrDatasetNotFound
	default:
		return err
	}
}

func invalidDatasetID(raw string) error {
	return apierrors.ErrValidation("id", fmt.Sprintf("dataset id %q is not a positive integer", raw))
}
