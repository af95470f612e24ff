package exporter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowpulse/pkg/contracts/domain"
)

func TestCSVExporter_ExportEquipment(t *testing.T) {
	e := NewCSVExporter(nil)

	out, err := e.ExportEquipment([]domain.Equipment{
		{Name: "Pump, North", Type: "Pump", Flowrate: 10.5, Pressure: 2, Temperature: 30.25},
		{Name: "V-1", Type: "Valve", Flowrate: 0, Pressure: -1.5, Temperature: 18},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"Equipment Name,Type,Flowrate,Pressure,Temperature\n"+
			"\"Pump, North\",Pump,10.5,2,30.25\n"+
			"V-1,Valve,0,-1.5,18\n",
		string(out))
}

func TestCSVExporter_ExportEmpty(t *testing.T) {
	out, err := NewCSVExporter(nil).ExportEquipment(nil)
	require.NoError(t, err)
	assert.Equal(t, "Equipment Name,Type,Flowrate,Pressure,Temperature\n", string(out))
}

func TestCSVExporter_WriteWithBOM(t *testing.T) {
	var buf bytes.Buffer
	err := NewCSVExporter(nil).Write(&buf, WriteOptions{
		Headers:   []string{"a"},
		Records:   [][]string{{"1"}},
		BOMPrefix: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "\xEF\xBB\xBFa\n1\n", buf.String())
}

func TestCSVExporter_WriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports", "plant.csv")

	err := NewCSVExporter(nil).WriteFile(path, WriteOptions{
		Headers: []string{"x", "y"},
		Records: [][]string{{"1", "2"}},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x,y\n1,2\n", string(data))
}

func TestReportFilename(t *testing.T) {
	assert.Equal(t, "report_plant.csv.pdf", ReportFilename("plant.csv", "pdf"))
	assert.Equal(t, "report_a_b_.csv.xlsx", ReportFilename("a\"b/.csv", "xlsx"))
}
