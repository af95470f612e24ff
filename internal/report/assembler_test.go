package report

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowpulse/pkg/contracts/domain"
)

func pumpDataset() *domain.Dataset {
	return &domain.Dataset{
		ID:   1,
		Name: "plant.csv",
		Equipment: []domain.Equipment{
			{Name: "Pump1", Type: "Pump", Flowrate: 10, Pressure: 2, Temperature: 30},
			{Name: "Pump2", Type: "Pump", Flowrate: 20, Pressure: 4, Temperature: 50},
		},
	}
}

func TestAssemble_SectionOrder(t *testing.T) {
	doc, err := Assemble(pumpDataset())
	require.NoError(t, err)

	assert.False(t, doc.Empty)
	assert.Equal(t, "Equipment Analysis Report: plant.csv", doc.Title)
	require.Len(t, doc.Sections, 9)

	kinds := make([]SectionKind, len(doc.Sections))
	for i, s := range doc.Sections {
		kinds[i] = s.Kind
	}
	assert.Equal(t, []SectionKind{
		KindTitle, KindTable, KindChart, KindChart, KindChart, KindChart, KindTable, KindTable, KindText,
	}, kinds)

	assert.Equal(t, ChartPie, doc.Sections[2].Chart.Kind)
	assert.Equal(t, ChartBar, doc.Sections[3].Chart.Kind)
	assert.Equal(t, ChartScatter, doc.Sections[4].Chart.Kind)
	assert.Equal(t, ChartGrouped, doc.Sections[5].Chart.Kind)
	assert.True(t, doc.Sections[2].PageBreakAfter)
	assert.True(t, doc.Sections[5].PageBreakAfter)
	assert.Equal(t, "Equipment Distribution by Type", doc.Sections[2].Chart.Title())
}

func TestAssemble_SummaryTable(t *testing.T) {
	doc, err := Assemble(pumpDataset())
	require.NoError(t, err)

	assert.Equal(t, &Table{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total Equipment", "2"},
			{"Average Flowrate", "15.00 L/min"},
			{"Average Pressure", "3.00 bar"},
			{"Average Temperature", "40.00 °C"},
			{"Equipment Types", "1"},
		},
	}, doc.Sections[1].Table)
}

func TestAssemble_StatisticsTable(t *testing.T) {
	doc, err := Assemble(pumpDataset())
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"Flowrate (L/min)", "15.00", "5.00", "10.00", "20.00"},
		{"Pressure (bar)", "3.00", "1.00", "2.00", "4.00"},
		{"Temperature (°C)", "40.00", "10.00", "30.00", "50.00"},
	}, doc.Sections[7].Table.Rows)
}

func TestAssemble_DetailTableTruncates(t *testing.T) {
	ds := &domain.Dataset{Name: "big.csv"}
	for i := 0; i < 17; i++ {
		ds.Equipment = append(ds.Equipment, domain.Equipment{
			Name:        fmt.Sprintf("Centrifugal Pump Number %02d", i+1),
			Type:        "Pump",
			Flowrate:    12.345,
			Pressure:    1.05,
			Temperature: 40,
		})
	}

	doc, err := Assemble(ds)
	require.NoError(t, err)

	rows := doc.Sections[6].Table.Rows
	require.Len(t, rows, 17)
	assert.Equal(t, []string{"Centrifugal Pump Num...", "Pump", "12.3", "1.1", "40.0"}, rows[0])
	assert.Equal(t, []string{"...", "...", "...", "...", "..."}, rows[15])
	assert.Equal(t, []string{"Total: 17 items", "", "", "", ""}, rows[16])
}

func TestAssemble_DetailTableExactlyFifteen(t *testing.T) {
	ds := &domain.Dataset{Name: "fifteen.csv"}
	for i := 0; i < 15; i++ {
		ds.Equipment = append(ds.Equipment, domain.Equipment{Name: "Exactly Twenty Chars", Type: "Fan"})
	}

	doc, err := Assemble(ds)
	require.NoError(t, err)

	rows := doc.Sections[6].Table.Rows
	assert.Len(t, rows, 15)
	assert.Equal(t, "Exactly Twenty Chars", rows[0][0])
}

func TestAssemble_Recommendations(t *testing.T) {
	ds := &domain.Dataset{
		Name: "mixed.csv",
		Equipment: []domain.Equipment{
			{Name: "A", Type: "Pump", Pressure: 1, Temperature: 20},
			{Name: "B", Type: "Valve", Pressure: 1, Temperature: 20},
			{Name: "C", Type: "Valve", Pressure: 1, Temperature: 20},
			{Name: "D", Type: "Pump", Pressure: 9, Temperature: 100},
		},
	}

	doc, err := Assemble(ds)
	require.NoError(t, err)

	// temperature mean 40, population std 34.64, threshold 74.6
	// pressure mean 3, population std 3.46, threshold 6.5
	assert.Equal(t, []string{
		"• 1 equipment items are operating at high temperatures (>74.6°C). Consider reviewing cooling systems.",
		"• 1 equipment items are operating at high pressures (>6.5 bar). Monitor for safety compliance.",
		"• Pump equipment represents 50.0% of your fleet. Consider standardization benefits.",
		MaintenanceAdvice,
		MonitoringAdvice,
	}, doc.Sections[8].Lines)
}

func TestAssemble_UniformDataHasNoThresholdLines(t *testing.T) {
	ds := &domain.Dataset{
		Name: "flat.csv",
		Equipment: []domain.Equipment{
			{Name: "A", Type: "Fan", Pressure: 2, Temperature: 25},
			{Name: "B", Type: "Fan", Pressure: 2, Temperature: 25},
		},
	}

	doc, err := Assemble(ds)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"• Fan equipment represents 100.0% of your fleet. Consider standardization benefits.",
		MaintenanceAdvice,
		MonitoringAdvice,
	}, doc.Sections[8].Lines)
}

func TestAssemble_Empty(t *testing.T) {
	doc, err := Assemble(&domain.Dataset{Name: "empty.csv"})
	require.NoError(t, err)

	assert.True(t, doc.Empty)
	assert.Equal(t, []Section{
		{Kind: KindTitle, Text: "Equipment Analysis Report: empty.csv"},
		{Kind: KindNotice, Text: EmptyNotice},
	}, doc.Sections)
}

func TestAssemble_Idempotent(t *testing.T) {
	a, err := Assemble(pumpDataset())
	require.NoError(t, err)
	b, err := Assemble(pumpDataset())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAssemble_NilDataset(t *testing.T) {
	_, err := Assemble(nil)
	assert.Error(t, err)
}
