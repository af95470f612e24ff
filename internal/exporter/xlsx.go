package exporter

import (
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"flowpulse/internal/report"
	"flowpulse/pkg/contracts/domain"
)

const (
	reportSheet = "Report"
	dataSheet   = "ChartData"
	chartRows   = 20
)

// XLSXRenderer writes report documents as Excel workbooks with native charts
type XLSXRenderer struct {
	logger *slog.Logger
}

// NewXLSXRenderer creates an XLSX renderer
func NewXLSXRenderer(logger *slog.Logger) *XLSXRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXRenderer{logger: logger.With(slog.String("component", "xlsx_renderer"))}
}

func (r *XLSXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (r *XLSXRenderer) Extension() string { return "xlsx" }

// Render writes the sections top to bottom on the Report sheet. Chart series
// live on a hidden ChartData sheet that the charts reference.
func (r *XLSXRenderer) Render(doc *report.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("xlsx: nil document")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return nil, fmt.Errorf("failed to name report sheet: %w", err)
	}

	w, err := newXLSXWriter(f)
	if err != nil {
		return nil, err
	}

	for _, s := range doc.Sections {
		if err := w.section(s); err != nil {
			return nil, fmt.Errorf("failed to write section %q: %w", s.Kind, err)
		}
	}

	if w.dataRow > 1 {
		if err := f.SetSheetVisible(dataSheet, false); err != nil {
			return nil, fmt.Errorf("failed to hide chart data: %w", err)
		}
	} else if err := f.DeleteSheet(dataSheet); err != nil {
		return nil, fmt.Errorf("failed to drop chart data sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	r.logger.Debug("XLSX rendered",
		slog.String("title", doc.Title),
		slog.Int("rows", w.row),
		slog.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

type xlsxWriter struct {
	f       *excelize.File
	row     int
	dataRow int

	titleStyle   int
	headingStyle int
	headerStyle  int
	cellStyle    int
}

func newXLSXWriter(f *excelize.File) (*xlsxWriter, error) {
	if _, err := f.NewSheet(dataSheet); err != nil {
		return nil, fmt.Errorf("failed to create chart data sheet: %w", err)
	}

	w := &xlsxWriter{f: f, row: 1, dataRow: 1}
	border := []excelize.Border{
		{Type: "left", Color: "E2E8F0", Style: 1},
		{Type: "top", Color: "E2E8F0", Style: 1},
		{Type: "right", Color: "E2E8F0", Style: 1},
		{Type: "bottom", Color: "E2E8F0", Style: 1},
	}

	styles := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&w.titleStyle, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 16, Color: "1E293B"}}},
		{&w.headingStyle, &excelize.Style{
			Font: &excelize.Font{Bold: true, Size: 13, Color: "374151"},
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F8FAFC"}},
		}},
		{&w.headerStyle, &excelize.Style{
			Font:   &excelize.Font{Bold: true, Color: "1E293B"},
			Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F1F5F9"}},
			Border: border,
		}},
		{&w.cellStyle, &excelize.Style{Border: border}},
	}
	for _, s := range styles {
		id, err := f.NewStyle(s.style)
		if err != nil {
			return nil, fmt.Errorf("failed to create style: %w", err)
		}
		*s.dst = id
	}

	if err := f.SetColWidth(reportSheet, "A", "A", 30); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(reportSheet, "B", "E", 16); err != nil {
		return nil, err
	}
	return w, nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func (w *xlsxWriter) section(s report.Section) error {
	switch s.Kind {
	case report.KindTitle:
		return w.styledLine(s.Text, w.titleStyle, 2)
	case report.KindNotice:
		return w.styledLine(s.Text, 0, 1)
	}

	if s.Heading != "" {
		if err := w.styledLine(s.Heading, w.headingStyle, 1); err != nil {
			return err
		}
	}

	switch s.Kind {
	case report.KindTable:
		return w.table(s.Table)
	case report.KindChart:
		return w.chart(s.Chart)
	case report.KindText:
		for _, line := range s.Lines {
			if err := w.styledLine(line, 0, 1); err != nil {
				return err
			}
		}
		w.row++
	}
	return nil
}

func (w *xlsxWriter) styledLine(text string, style, advance int) error {
	c := cell(1, w.row)
	if err := w.f.SetCellValue(reportSheet, c, text); err != nil {
		return err
	}
	if style != 0 {
		if err := w.f.SetCellStyle(reportSheet, c, cell(5, w.row), style); err != nil {
			return err
		}
	}
	w.row += advance
	return nil
}

func (w *xlsxWriter) table(t *report.Table) error {
	if t == nil {
		return nil
	}
	if err := w.f.SetSheetRow(reportSheet, cell(1, w.row), &t.Header); err != nil {
		return err
	}
	if err := w.f.SetCellStyle(reportSheet, cell(1, w.row), cell(len(t.Header), w.row), w.headerStyle); err != nil {
		return err
	}
	w.row++

	for _, r := range t.Rows {
		row := r
		if err := w.f.SetSheetRow(reportSheet, cell(1, w.row), &row); err != nil {
			return err
		}
		if err := w.f.SetCellStyle(reportSheet, cell(1, w.row), cell(len(t.Header), w.row), w.cellStyle); err != nil {
			return err
		}
		w.row++
	}
	w.row++
	return nil
}

// block writes a header plus rows to the data sheet and returns the range of each column
func (w *xlsxWriter) block(header []interface{}, rows [][]interface{}) ([]string, error) {
	start := w.dataRow
	if err := w.f.SetSheetRow(dataSheet, cell(1, start), &header); err != nil {
		return nil, err
	}
	for i, r := range rows {
		row := r
		if err := w.f.SetSheetRow(dataSheet, cell(1, start+1+i), &row); err != nil {
			return nil, err
		}
	}
	end := start + len(rows)
	w.dataRow = end + 2

	ranges := make([]string, len(header))
	for col := range header {
		ranges[col] = fmt.Sprintf("%s!%s:%s", dataSheet, absCell(col+1, start+1), absCell(col+1, end))
	}
	return ranges, nil
}

func absCell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row, true)
	return name
}

func (w *xlsxWriter) chart(c *report.Chart) error {
	if c == nil {
		return nil
	}

	var chart *excelize.Chart
	var err error
	switch c.Kind {
	case report.ChartPie:
		chart, err = w.pieChart(c.Pie)
	case report.ChartBar:
		chart, err = w.barChart(c.Bar)
	case report.ChartScatter:
		chart, err = w.scatterChart(c.Scatter)
	case report.ChartGrouped:
		chart, err = w.groupedChart(c.Grouped)
	default:
		return nil
	}
	if err != nil || chart == nil {
		return err
	}

	chart.Title = []excelize.RichTextRun{{Text: c.Title()}}
	chart.Dimension = excelize.ChartDimension{Width: 640, Height: 360}
	if err := w.f.AddChart(reportSheet, cell(1, w.row), chart); err != nil {
		return err
	}
	w.row += chartRows
	return nil
}

func axisTitle(text string) []excelize.RichTextRun {
	if text == "" {
		return nil
	}
	return []excelize.RichTextRun{{Text: text}}
}

func (w *xlsxWriter) pieChart(p *domain.PieChart) (*excelize.Chart, error) {
	if len(p.Slices) == 0 {
		return nil, nil
	}
	rows := make([][]interface{}, len(p.Slices))
	for i, s := range p.Slices {
		rows[i] = []interface{}{s.Legend, s.Count}
	}
	ranges, err := w.block([]interface{}{"Type", "Count"}, rows)
	if err != nil {
		return nil, err
	}
	return &excelize.Chart{
		Type:     excelize.Pie,
		Series:   []excelize.ChartSeries{{Name: "Equipment Types", Categories: ranges[0], Values: ranges[1]}},
		Legend:   excelize.ChartLegend{Position: "right"},
		PlotArea: excelize.ChartPlotArea{ShowPercent: true},
	}, nil
}

func (w *xlsxWriter) barChart(b *domain.BarChart) (*excelize.Chart, error) {
	if len(b.Bars) == 0 {
		return nil, nil
	}
	rows := make([][]interface{}, len(b.Bars))
	for i, bar := range b.Bars {
		rows[i] = []interface{}{bar.Label, bar.Value}
	}
	ranges, err := w.block([]interface{}{"Equipment", "Flowrate"}, rows)
	if err != nil {
		return nil, err
	}
	return &excelize.Chart{
		Type:     excelize.Col,
		Series:   []excelize.ChartSeries{{Name: "Flowrate", Categories: ranges[0], Values: ranges[1]}},
		Legend:   excelize.ChartLegend{Position: "none"},
		PlotArea: excelize.ChartPlotArea{ShowVal: true},
		XAxis:    excelize.ChartAxis{Title: axisTitle(b.XLabel)},
		YAxis:    excelize.ChartAxis{Title: axisTitle(b.YLabel)},
	}, nil
}

func (w *xlsxWriter) scatterChart(s *domain.ScatterChart) (*excelize.Chart, error) {
	if len(s.Points) == 0 {
		return nil, nil
	}
	rows := make([][]interface{}, len(s.Points))
	xLo, xHi := s.Points[0].X, s.Points[0].X
	for i, pt := range s.Points {
		rows[i] = []interface{}{pt.X, pt.Y}
		if pt.X < xLo {
			xLo = pt.X
		}
		if pt.X > xHi {
			xHi = pt.X
		}
	}
	ranges, err := w.block([]interface{}{"Pressure", "Temperature"}, rows)
	if err != nil {
		return nil, err
	}

	series := []excelize.ChartSeries{{
		Name:       "Equipment",
		Categories: ranges[0],
		Values:     ranges[1],
		Line:       excelize.ChartLine{Type: excelize.ChartLineNone},
		Marker:     excelize.ChartMarker{Symbol: "circle", Size: 6},
	}}

	if s.Trend != nil {
		trend, err := w.block([]interface{}{"Pressure", "Trend"}, [][]interface{}{
			{xLo, s.Trend.At(xLo)},
			{xHi, s.Trend.At(xHi)},
		})
		if err != nil {
			return nil, err
		}
		series = append(series, excelize.ChartSeries{
			Name:       "Trend",
			Categories: trend[0],
			Values:     trend[1],
			Line:       excelize.ChartLine{Width: 1.5},
			Marker:     excelize.ChartMarker{Symbol: "none"},
		})
	}

	return &excelize.Chart{
		Type:   excelize.Scatter,
		Series: series,
		Legend: excelize.ChartLegend{Position: "bottom"},
		XAxis:  excelize.ChartAxis{Title: axisTitle(s.XLabel)},
		YAxis:  excelize.ChartAxis{Title: axisTitle(s.YLabel)},
	}, nil
}

func (w *xlsxWriter) groupedChart(g *domain.GroupedChart) (*excelize.Chart, error) {
	if len(g.Groups) == 0 {
		return nil, nil
	}
	rows := make([][]interface{}, len(g.Groups))
	for i, avg := range g.Groups {
		rows[i] = []interface{}{avg.Type, avg.Flowrate, avg.Pressure, avg.Temperature}
	}
	ranges, err := w.block([]interface{}{"Type", "Flowrate", "Pressure", "Temperature"}, rows)
	if err != nil {
		return nil, err
	}
	return &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{
			{Name: "Avg Flowrate (L/min)", Categories: ranges[0], Values: ranges[1]},
			{Name: "Avg Pressure (bar)", Categories: ranges[0], Values: ranges[2]},
			{Name: "Avg Temperature (°C)", Categories: ranges[0], Values: ranges[3]},
		},
		Legend: excelize.ChartLegend{Position: "bottom"},
		XAxis:  excelize.ChartAxis{Title: axisTitle(g.XLabel)},
	}, nil
}
