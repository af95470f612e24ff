package report

import (
	"errors"
	"fmt"
	"strconv"

	"flowpulse/internal/config"
	"flowpulse/internal/dataprocessing"
	"flowpulse/pkg/contracts/domain"
)

// Fixed report texts
const (
	EmptyNotice            = "No equipment data available for this dataset."
	MaintenanceAdvice      = "• Regular maintenance scheduling recommended based on operating parameters."
	MonitoringAdvice       = "• Consider implementing real-time monitoring for critical equipment."
	headingSummary         = "Executive Summary"
	headingDistribution    = "Equipment Type Distribution"
	headingParameters      = "Parameter Analysis"
	headingComparison      = "Parameter Comparison by Equipment Type"
	headingDetail          = "Detailed Equipment Data"
	headingStatistics      = "Statistical Analysis"
	headingRecommendations = "Recommendations & Insights"
)

// Title returns the report title for a dataset name
func Title(name string) string {
	return "Equipment Analysis Report: " + name
}

// Assemble builds the report document for a dataset. An empty dataset yields a
// document with only the title and a notice, flagged Empty; that is not an error.
func Assemble(ds *domain.Dataset) (*Document, error) {
	if ds == nil {
		return nil, errors.New("report: nil dataset")
	}

	doc := &Document{Title: Title(ds.Name)}
	doc.Sections = append(doc.Sections, Section{Kind: KindTitle, Text: doc.Title})

	summary, err := dataprocessing.Summarize(ds.Equipment)
	if errors.Is(err, dataprocessing.ErrEmptyDataset) {
		doc.Empty = true
		doc.Sections = append(doc.Sections, Section{Kind: KindNotice, Text: EmptyNotice})
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to summarize dataset: %w", err)
	}

	stats, err := dataprocessing.ComputeStatistics(ds.Equipment)
	if err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}
	charts, err := dataprocessing.BuildCharts(ds.Equipment)
	if err != nil {
		return nil, fmt.Errorf("failed to build charts: %w", err)
	}

	doc.Sections = append(doc.Sections,
		Section{Kind: KindTable, Heading: headingSummary, Table: summaryTable(summary)},
		Section{
			Kind:           KindChart,
			Heading:        headingDistribution,
			Chart:          &Chart{Kind: ChartPie, Pie: &charts.TypeDistribution},
			PageBreakAfter: true,
		},
		Section{
			Kind:    KindChart,
			Heading: headingParameters,
			Chart:   &Chart{Kind: ChartBar, Bar: &charts.Flowrate},
		},
		Section{
			Kind:  KindChart,
			Chart: &Chart{Kind: ChartScatter, Scatter: &charts.PressureTemperature},
		},
		Section{
			Kind:           KindChart,
			Heading:        headingComparison,
			Chart:          &Chart{Kind: ChartGrouped, Grouped: &charts.TypeAverages},
			PageBreakAfter: true,
		},
		Section{Kind: KindTable, Heading: headingDetail, Table: detailTable(ds.Equipment)},
		Section{Kind: KindTable, Heading: headingStatistics, Table: statisticsTable(stats)},
		Section{Kind: KindText, Heading: headingRecommendations, Lines: recommendations(ds.Equipment, summary, stats)},
	)
	return doc, nil
}

func summaryTable(s domain.Summary) *Table {
	return &Table{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total Equipment", strconv.Itoa(s.TotalCount)},
			{"Average Flowrate", fmt.Sprintf("%.2f L/min", s.AvgFlowrate)},
			{"Average Pressure", fmt.Sprintf("%.2f bar", s.AvgPressure)},
			{"Average Temperature", fmt.Sprintf("%.2f °C", s.AvgTemperature)},
			{"Equipment Types", strconv.Itoa(len(s.TypeDistribution))},
		},
	}
}

func detailTable(records []domain.Equipment) *Table {
	t := &Table{Header: []string{"Equipment Name", "Type", "Flowrate", "Pressure", "Temperature"}}

	shown := records
	if len(shown) > config.DetailTableMaxRows {
		shown = shown[:config.DetailTableMaxRows]
	}
	for _, r := range shown {
		t.Rows = append(t.Rows, []string{
			truncate(r.Name, config.DetailNameMaxLen),
			r.Type,
			fmt.Sprintf("%.1f", r.Flowrate),
			fmt.Sprintf("%.1f", r.Pressure),
			fmt.Sprintf("%.1f", r.Temperature),
		})
	}

	if len(records) > config.DetailTableMaxRows {
		t.Rows = append(t.Rows,
			[]string{"...", "...", "...", "...", "..."},
			[]string{fmt.Sprintf("Total: %d items", len(records)), "", "", "", ""},
		)
	}
	return t
}

func statisticsTable(s domain.Statistics) *Table {
	row := func(label string, fs domain.FieldStats) []string {
		return []string{
			label,
			fmt.Sprintf("%.2f", fs.Mean),
			fmt.Sprintf("%.2f", fs.Std),
			fmt.Sprintf("%.2f", fs.Min),
			fmt.Sprintf("%.2f", fs.Max),
		}
	}
	return &Table{
		Header: []string{"Parameter", "Mean", "Std Dev", "Min", "Max"},
		Rows: [][]string{
			row("Flowrate (L/min)", s.Flowrate),
			row("Pressure (bar)", s.Pressure),
			row("Temperature (°C)", s.Temperature),
		},
	}
}

func recommendations(records []domain.Equipment, summary domain.Summary, stats domain.Statistics) []string {
	var lines []string

	tempThreshold := summary.AvgTemperature + stats.Temperature.Std
	if n := dataprocessing.CountAbove(dataprocessing.Temperatures(records), tempThreshold); n > 0 {
		lines = append(lines, fmt.Sprintf(
			"• %d equipment items are operating at high temperatures (>%.1f°C). Consider reviewing cooling systems.",
			n, tempThreshold))
	}

	pressThreshold := summary.AvgPressure + stats.Pressure.Std
	if n := dataprocessing.CountAbove(dataprocessing.Pressures(records), pressThreshold); n > 0 {
		lines = append(lines, fmt.Sprintf(
			"• %d equipment items are operating at high pressures (>%.1f bar). Monitor for safety compliance.",
			n, pressThreshold))
	}

	if top, ok := dataprocessing.MostFrequentType(summary.TypeDistribution); ok {
		share := float64(top.Count) / float64(summary.TotalCount) * 100
		lines = append(lines, fmt.Sprintf(
			"• %s equipment represents %.1f%% of your fleet. Consider standardization benefits.",
			top.Type, share))
	}

	return append(lines, MaintenanceAdvice, MonitoringAdvice)
}

// truncate shortens s to max characters plus "..." when it is longer
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
