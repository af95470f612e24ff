package validation

import (
	"fmt"
	"strings"
)

// SchemaError reports required CSV columns absent from the header row
type SchemaError struct {
	Missing  []string
	Required []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("CSV must contain columns: %s (missing: %s)",
		strings.Join(e.Required, ", "), strings.Join(e.Missing, ", "))
}

// RowParseError reports a data row whose numeric field could not be read.
// RowIndex is 1-based and excludes the header row.
type RowParseError struct {
	RowIndex int
	Field    string
	Value    string
}

func (e *RowParseError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("row %d: missing value for %q", e.RowIndex, e.Field)
	}
	return fmt.Sprintf("row %d: invalid %s value %q", e.RowIndex, e.Field, e.Value)
}

// FilenameError reports an upload whose name does not end in .csv
type FilenameError struct {
	Filename string
}

func (e *FilenameError) Error() string {
	return fmt.Sprintf("file must be CSV: %q", e.Filename)
}

// SizeError reports an upload larger than the configured limit
type SizeError struct {
	Size  int64
	Limit int64
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("upload of %d bytes exceeds limit of %d bytes", e.Size, e.Limit)
}
