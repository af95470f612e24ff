package exporter

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jung-kurt/gofpdf"

	"flowpulse/internal/report"
	"flowpulse/pkg/contracts/domain"
)

const (
	pdfMargin      = 17.6 // 50pt
	pdfChartHeight = 95.0
	pdfRowHeight   = 7.0
	pdfFont        = "Helvetica"
)

// PDFRenderer draws report documents as A4 PDF files
type PDFRenderer struct {
	logger   *slog.Logger
	compress bool
}

// NewPDFRenderer creates a PDF renderer with compressed content streams
func NewPDFRenderer(logger *slog.Logger) *PDFRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFRenderer{
		logger:   logger.With(slog.String("component", "pdf_renderer")),
		compress: true,
	}
}

// WithCompression returns a copy of the renderer with stream compression toggled
func (r *PDFRenderer) WithCompression(on bool) *PDFRenderer {
	c := *r
	c.compress = on
	return &c
}

func (r *PDFRenderer) ContentType() string { return "application/pdf" }
func (r *PDFRenderer) Extension() string   { return "pdf" }

// Render lays out every section of the document. Dates are pinned to the Unix
// epoch and catalogs sorted so identical documents produce identical bytes.
func (r *PDFRenderer) Render(doc *report.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("pdf: nil document")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(time.Unix(0, 0).UTC())
	pdf.SetModificationDate(time.Unix(0, 0).UTC())
	pdf.SetCompression(r.compress)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("Flow Pulse", false)
	pdf.AddPage()

	w := &pdfWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pageW, _ := pdf.GetPageSize()
	w.width = pageW - 2*pdfMargin

	for _, s := range doc.Sections {
		switch s.Kind {
		case report.KindTitle:
			w.title(s.Text)
		case report.KindNotice:
			w.notice(s.Text)
		case report.KindTable:
			w.heading(s.Heading)
			w.table(s.Table)
		case report.KindChart:
			w.heading(s.Heading)
			w.chart(s.Chart)
		case report.KindText:
			w.heading(s.Heading)
			w.lines(s.Lines)
		}
		if s.PageBreakAfter {
			pdf.AddPage()
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}

	r.logger.Debug("PDF rendered",
		slog.String("title", doc.Title),
		slog.Int("pages", pdf.PageCount()),
		slog.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

type pdfWriter struct {
	pdf   *gofpdf.Fpdf
	tr    func(string) string
	width float64
}

// ensure starts a new page when h millimetres no longer fit
func (w *pdfWriter) ensure(h float64) {
	_, pageH := w.pdf.GetPageSize()
	if w.pdf.GetY()+h > pageH-pdfMargin {
		w.pdf.AddPage()
	}
}

func (w *pdfWriter) setFill(hex string) {
	w.pdf.SetFillColor(hexColor(hex))
}

func (w *pdfWriter) setText(hex string) {
	w.pdf.SetTextColor(hexColor(hex))
}

func (w *pdfWriter) setDraw(hex string) {
	w.pdf.SetDrawColor(hexColor(hex))
}

func (w *pdfWriter) title(text string) {
	w.pdf.SetFont(pdfFont, "B", 20)
	w.setText("#1e293b")
	w.pdf.CellFormat(w.width, 12, w.tr(text), "", 1, "C", false, 0, "")
	w.pdf.Ln(4)
}

func (w *pdfWriter) notice(text string) {
	w.pdf.SetFont(pdfFont, "I", 12)
	w.setText("#374151")
	w.pdf.CellFormat(w.width, 10, w.tr(text), "", 1, "L", false, 0, "")
}

func (w *pdfWriter) heading(text string) {
	if text == "" {
		return
	}
	w.ensure(30)
	w.pdf.Ln(4)
	w.pdf.SetFont(pdfFont, "B", 14)
	w.setText("#374151")
	w.setFill("#f8fafc")
	w.setDraw("#e5e7eb")
	w.pdf.CellFormat(w.width, 10, w.tr(text), "1", 1, "L", true, 0, "")
	w.pdf.Ln(3)
}

func (w *pdfWriter) columnWidths(cols int) []float64 {
	switch cols {
	case 2:
		return []float64{50.8, 50.8}
	case 5:
		return []float64{38.1, 25.4, 25.4, 25.4, 25.4}
	}
	widths := make([]float64, cols)
	for i := range widths {
		widths[i] = w.width / float64(cols)
	}
	return widths
}

func (w *pdfWriter) table(t *report.Table) {
	if t == nil {
		return
	}
	widths := w.columnWidths(len(t.Header))
	total := 0.0
	for _, cw := range widths {
		total += cw
	}
	x := pdfMargin + (w.width-total)/2
	align := "C"
	if len(t.Header) == 2 {
		align = "L"
	}

	row := func(cells []string) {
		w.ensure(pdfRowHeight)
		w.pdf.SetX(x)
		for i, cell := range cells {
			if i >= len(widths) {
				break
			}
			w.pdf.CellFormat(widths[i], pdfRowHeight, w.tr(cell), "1", 0, align, true, 0, "")
		}
		w.pdf.Ln(-1)
	}

	w.setDraw("#e2e8f0")
	w.pdf.SetFont(pdfFont, "B", 10)
	w.setText("#1e293b")
	w.setFill("#f1f5f9")
	row(t.Header)

	w.pdf.SetFont(pdfFont, "", 9)
	w.setFill("#ffffff")
	for _, cells := range t.Rows {
		row(cells)
	}
	w.pdf.Ln(4)
}

func (w *pdfWriter) lines(lines []string) {
	w.pdf.SetFont(pdfFont, "", 11)
	w.setText("#1e293b")
	for _, line := range lines {
		w.pdf.MultiCell(w.width, 6, w.tr(line), "", "L", false)
		w.pdf.Ln(1)
	}
}

// plot is the drawing rectangle of a chart with its value ranges
type plot struct {
	x, y, w, h float64
	xLo, xHi   float64
	yLo, yHi   float64
}

func (p plot) px(v float64) float64 { return p.x + (v-p.xLo)/(p.xHi-p.xLo)*p.w }
func (p plot) py(v float64) float64 { return p.y + p.h - (v-p.yLo)/(p.yHi-p.yLo)*p.h }

func (w *pdfWriter) chart(c *report.Chart) {
	if c == nil {
		return
	}
	w.ensure(pdfChartHeight)
	top := w.pdf.GetY()

	w.pdf.SetFont(pdfFont, "B", 12)
	w.setText("#1e293b")
	w.pdf.CellFormat(w.width, 8, w.tr(c.Title()), "", 1, "C", false, 0, "")

	switch c.Kind {
	case report.ChartPie:
		w.pie(c.Pie, top+10)
	case report.ChartBar:
		w.bars(c.Bar.Bars, c.Bar.Axes, top+10)
	case report.ChartScatter:
		w.scatter(c.Scatter, top+10)
	case report.ChartGrouped:
		bars := make([]domain.Bar, len(c.Grouped.Groups))
		for i, g := range c.Grouped.Groups {
			bars[i] = domain.Bar{Label: g.Type, Value: g.Flowrate}
		}
		w.bars(bars, c.Grouped.Axes, top+10)
	}

	w.pdf.SetY(top + pdfChartHeight)
}

func (w *pdfWriter) pie(chart *domain.PieChart, top float64) {
	total := 0
	for _, s := range chart.Slices {
		total += s.Count
	}
	if total == 0 {
		return
	}

	cx, cy, radius := pdfMargin+w.width*0.3, top+38, 34.0
	angle := 90.0
	w.setDraw("#ffffff")
	w.pdf.SetLineWidth(0.4)
	for i, s := range chart.Slices {
		sweep := 360 * float64(s.Count) / float64(total)
		points := []gofpdf.PointType{{X: cx, Y: cy}}
		steps := int(math.Ceil(sweep/3)) + 1
		for k := 0; k <= steps; k++ {
			a := (angle - sweep*float64(k)/float64(steps)) * math.Pi / 180
			points = append(points, gofpdf.PointType{X: cx + radius*math.Cos(a), Y: cy - radius*math.Sin(a)})
		}
		w.pdf.SetFillColor(paletteColor(i))
		w.pdf.Polygon(points, "FD")

		mid := (angle - sweep/2) * math.Pi / 180
		label := fmt.Sprintf("%.1f%%", 100*float64(s.Count)/float64(total))
		w.pdf.SetFont(pdfFont, "B", 9)
		w.setText("#ffffff")
		lw := w.pdf.GetStringWidth(label)
		w.pdf.Text(cx+radius*0.65*math.Cos(mid)-lw/2, cy-radius*0.65*math.Sin(mid)+1.5, label)
		angle -= sweep
	}

	lx, ly := pdfMargin+w.width*0.62, top+10
	w.pdf.SetFont(pdfFont, "B", 10)
	w.setText("#1e293b")
	w.pdf.Text(lx, ly, "Equipment Types")
	w.pdf.SetFont(pdfFont, "", 9)
	for i, s := range chart.Slices {
		y := ly + 6 + float64(i)*6
		w.pdf.SetFillColor(paletteColor(i))
		w.pdf.Rect(lx, y-3, 4, 4, "F")
		w.pdf.Text(lx+6, y, w.tr(s.Legend))
	}
	w.pdf.SetLineWidth(0.2)
}

func (w *pdfWriter) axes(p plot, ax domain.Axes) {
	w.setDraw("#94a3b8")
	w.pdf.SetLineWidth(0.2)
	w.pdf.Line(p.x, p.y, p.x, p.y+p.h)
	w.pdf.Line(p.x, p.y+p.h, p.x+p.w, p.y+p.h)

	w.pdf.SetFont(pdfFont, "", 7)
	w.setText("#374151")
	for _, v := range []float64{p.yLo, (p.yLo + p.yHi) / 2, p.yHi} {
		label := fmt.Sprintf("%.1f", v)
		w.pdf.Text(p.x-w.pdf.GetStringWidth(label)-1.5, p.py(v)+1, label)
		w.setDraw("#e2e8f0")
		w.pdf.Line(p.x, p.py(v), p.x+p.w, p.py(v))
	}

	w.pdf.SetFont(pdfFont, "B", 8)
	if ax.YLabel != "" {
		w.pdf.TransformBegin()
		w.pdf.TransformRotate(90, p.x-13, p.y+p.h/2)
		yl := w.tr(ax.YLabel)
		w.pdf.Text(p.x-13-w.pdf.GetStringWidth(yl)/2, p.y+p.h/2, yl)
		w.pdf.TransformEnd()
	}
}

func valueRange(values []float64) (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi * 1.1
}

func (w *pdfWriter) bars(bars []domain.Bar, ax domain.Axes, top float64) {
	if len(bars) == 0 {
		return
	}
	values := make([]float64, len(bars))
	for i, b := range bars {
		values[i] = b.Value
	}
	lo, hi := valueRange(values)
	p := plot{x: pdfMargin + 18, y: top, w: w.width - 22, h: 52, xLo: 0, xHi: 1, yLo: lo, yHi: hi}
	w.axes(p, ax)

	slot := p.w / float64(len(bars))
	bw := slot * 0.6
	for i, b := range bars {
		x := p.x + slot*float64(i) + (slot-bw)/2
		y0, y1 := p.py(0), p.py(b.Value)
		w.pdf.SetFillColor(paletteColor(i))
		w.pdf.Rect(x, math.Min(y0, y1), bw, math.Abs(y0-y1), "F")

		w.pdf.SetFont(pdfFont, "B", 7)
		w.setText("#1e293b")
		label := fmt.Sprintf("%.1f", b.Value)
		w.pdf.Text(x+bw/2-w.pdf.GetStringWidth(label)/2, math.Min(y0, y1)-1, label)

		w.pdf.SetFont(pdfFont, "", 7)
		w.pdf.TransformBegin()
		lx, ly := x+bw/2, p.y+p.h+3
		w.pdf.TransformRotate(35, lx, ly)
		name := w.tr(b.Label)
		w.pdf.Text(lx-w.pdf.GetStringWidth(name), ly, name)
		w.pdf.TransformEnd()
	}

	if ax.XLabel != "" {
		w.pdf.SetFont(pdfFont, "B", 8)
		xl := w.tr(ax.XLabel)
		w.pdf.Text(p.x+p.w/2-w.pdf.GetStringWidth(xl)/2, p.y+p.h+22, xl)
	}
}

func (w *pdfWriter) scatter(chart *domain.ScatterChart, top float64) {
	if len(chart.Points) == 0 {
		return
	}
	xLo, xHi := chart.Points[0].X, chart.Points[0].X
	yLo, yHi := chart.Points[0].Y, chart.Points[0].Y
	for _, pt := range chart.Points[1:] {
		xLo, xHi = math.Min(xLo, pt.X), math.Max(xHi, pt.X)
		yLo, yHi = math.Min(yLo, pt.Y), math.Max(yHi, pt.Y)
	}
	padX, padY := math.Max((xHi-xLo)*0.05, 0.5), math.Max((yHi-yLo)*0.05, 0.5)
	p := plot{
		x: pdfMargin + 18, y: top, w: w.width - 22, h: 60,
		xLo: xLo - padX, xHi: xHi + padX, yLo: yLo - padY, yHi: yHi + padY,
	}
	w.axes(p, chart.Axes)

	w.pdf.SetFont(pdfFont, "", 7)
	w.setText("#374151")
	for _, v := range []float64{p.xLo, (p.xLo + p.xHi) / 2, p.xHi} {
		label := fmt.Sprintf("%.1f", v)
		w.pdf.Text(p.px(v)-w.pdf.GetStringWidth(label)/2, p.y+p.h+4, label)
	}

	w.setFill("#60a5fa")
	w.setDraw("#ffffff")
	for _, pt := range chart.Points {
		w.pdf.Circle(p.px(pt.X), p.py(pt.Y), 1.3, "FD")
	}

	if chart.Trend != nil {
		w.pdf.ClipRect(p.x, p.y, p.w, p.h, false)
		w.setDraw("#ef4444")
		w.pdf.SetLineWidth(0.5)
		w.pdf.Line(p.px(xLo), p.py(chart.Trend.At(xLo)), p.px(xHi), p.py(chart.Trend.At(xHi)))
		w.pdf.SetLineWidth(0.2)
		w.pdf.ClipEnd()
	}

	if chart.XLabel != "" {
		w.pdf.SetFont(pdfFont, "B", 8)
		xl := w.tr(chart.XLabel)
		w.pdf.Text(p.x+p.w/2-w.pdf.GetStringWidth(xl)/2, p.y+p.h+10, xl)
	}
}
