package validation

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"flowpulse/internal/config"
	"flowpulse/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Upload describes an incoming file before its content is parsed
type Upload struct {
	OwnerID  string `json:"owner_id" validate:"required,max=128"`
	Filename string `json:"filename" validate:"required,max=255"`
	Size     int64  `json:"size" validate:"gte=0,ltefield=MaxSize"`
	MaxSize  int64  `json:"-" validate:"gt=0"`
}

// CSVValidator turns uploaded CSV bytes into equipment records
type CSVValidator struct {
	logger   *slog.Logger
	validate *validator.Validate
	maxBytes int64
}

// NewCSVValidator creates a validator. A non-positive maxBytes selects the default limit.
func NewCSVValidator(logger *slog.Logger, maxBytes int64) *CSVValidator {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = config.DefaultMaxUploadSize
	}
	return &CSVValidator{
		logger:   logger.With(slog.String("component", "csv_validator")),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		maxBytes: maxBytes,
	}
}

// MaxBytes returns the upload size limit
func (v *CSVValidator) MaxBytes() int64 {
	return v.maxBytes
}

// ValidateUpload checks the upload envelope: owner, filename and size
func (v *CSVValidator) ValidateUpload(ownerID, filename string, size int64) error {
	up := Upload{OwnerID: ownerID, Filename: filename, Size: size, MaxSize: v.maxBytes}
	if err := v.validate.Struct(up); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			if fe.Field() == "Size" {
				return &SizeError{Size: size, Limit: v.maxBytes}
			}
			return fmt.Errorf("invalid upload: %s failed %q", strings.ToLower(fe.Field()), fe.Tag())
		}
		return fmt.Errorf("invalid upload: %w", err)
	}
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return &FilenameError{Filename: filename}
	}
	return nil
}

// Parse validates a CSV payload and converts every data row.
// It is all-or-nothing: on any failure no records are returned.
func (v *CSVValidator) Parse(filename string, data []byte) ([]domain.Equipment, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return nil, &FilenameError{Filename: filename}
	}

	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &SchemaError{Missing: config.RequiredColumns(), Required: config.RequiredColumns()}
	}
	if err != nil {
		v.logger.Warn("CSV header could not be read",
			slog.String("filename", filename),
			slog.String("error", err.Error()))
		return nil, &SchemaError{Missing: config.RequiredColumns(), Required: config.RequiredColumns()}
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}

	var missing []string
	for _, col := range config.RequiredColumns() {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		v.logger.Warn("CSV header is missing required columns",
			slog.String("filename", filename),
			slog.Any("missing", missing))
		return nil, &SchemaError{Missing: missing, Required: config.RequiredColumns()}
	}

	records := make([]domain.Equipment, 0)
	for row := 1; ; row++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &RowParseError{RowIndex: row, Field: "record", Value: err.Error()}
		}

		eq, err := parseRow(row, fields, index)
		if err != nil {
			v.logger.Warn("CSV row rejected",
				slog.String("filename", filename),
				slog.String("error", err.Error()))
			return nil, err
		}
		records = append(records, eq)
	}

	v.logger.Debug("CSV parsed",
		slog.String("filename", filename),
		slog.Int("rows", len(records)))
	return records, nil
}

func parseRow(row int, fields []string, index map[string]int) (domain.Equipment, error) {
	cell := func(col string) (string, bool) {
		i := index[col]
		if i >= len(fields) {
			return "", false
		}
		return fields[i], true
	}

	for _, col := range config.RequiredColumns() {
		if _, ok := cell(col); !ok {
			return domain.Equipment{}, &RowParseError{RowIndex: row, Field: col}
		}
	}

	number := func(col string) (float64, error) {
		raw, _ := cell(col)
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, &RowParseError{RowIndex: row, Field: col, Value: raw}
		}
		return f, nil
	}

	name, _ := cell(config.ColumnEquipmentName)
	typ, _ := cell(config.ColumnType)
	eq := domain.Equipment{Name: name, Type: typ}

	var err error
	if eq.Flowrate, err = number(config.ColumnFlowrate); err != nil {
		return domain.Equipment{}, err
	}
	if eq.Pressure, err = number(config.ColumnPressure); err != nil {
		return domain.Equipment{}, err
	}
	if eq.Temperature, err = number(config.ColumnTemperature); err != nil {
		return domain.Equipment{}, err
	}
	return eq, nil
}
