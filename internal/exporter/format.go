package exporter

import (
	"fmt"
	"strconv"
	"strings"
)

// formatFloat writes a float without trailing zeros, the way it was uploaded
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// sanitizeFilename keeps a dataset name safe for a Content-Disposition header
func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '"', '\\', '/', '\r', '\n':
			return '_'
		}
		return r
	}, name)
}

// hexColor converts "#rrggbb" into RGB components
func hexColor(hex string) (int, int, int) {
	hex = strings.TrimPrefix(hex, "#")
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || len(hex) != 6 {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}

// palette is the series colour cycle shared by every chart
var palette = []string{
	"#60a5fa", "#34d399", "#fbbf24", "#f87171", "#a78bfa",
	"#06b6d4", "#8b5cf6", "#f59e0b", "#ef4444", "#10b981",
}

func paletteColor(i int) (int, int, int) {
	return hexColor(palette[i%len(palette)])
}

// ReportFilename returns the attachment name for a dataset report, e.g. report_plant.csv.pdf
func ReportFilename(datasetName, ext string) string {
	return fmt.Sprintf("report_%s.%s", sanitizeFilename(datasetName), ext)
}
