package report

import "flowpulse/pkg/contracts/domain"

// SectionKind tells a renderer how to lay out a section
type SectionKind string

const (
	KindTitle  SectionKind = "title"
	KindTable  SectionKind = "table"
	KindChart  SectionKind = "chart"
	KindText   SectionKind = "text"
	KindNotice SectionKind = "notice"
)

// ChartKind selects the chart series carried by a chart section
type ChartKind string

const (
	ChartPie     ChartKind = "pie"
	ChartBar     ChartKind = "bar"
	ChartScatter ChartKind = "scatter"
	ChartGrouped ChartKind = "grouped_bar"
)

// Document is the assembled report
type Document struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
	Empty    bool      `json:"empty"`
}

// Section is one block of the report. Exactly one of Table, Chart or Lines is set
// for table, chart and text sections; title and notice sections use Text.
type Section struct {
	Kind           SectionKind `json:"kind"`
	Heading        string      `json:"heading,omitempty"`
	Text           string      `json:"text,omitempty"`
	Table          *Table      `json:"table,omitempty"`
	Chart          *Chart      `json:"chart,omitempty"`
	Lines          []string    `json:"lines,omitempty"`
	PageBreakAfter bool        `json:"page_break_after,omitempty"`
}

// Table is a header row plus data rows, all preformatted as strings
type Table struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Chart wraps one of the chart series from the data builder
type Chart struct {
	Kind    ChartKind            `json:"kind"`
	Pie     *domain.PieChart     `json:"pie,omitempty"`
	Bar     *domain.BarChart     `json:"bar,omitempty"`
	Scatter *domain.ScatterChart `json:"scatter,omitempty"`
	Grouped *domain.GroupedChart `json:"grouped,omitempty"`
}

// Title returns the chart title whichever series is set
func (c *Chart) Title() string {
	switch {
	case c.Pie != nil:
		return c.Pie.Title
	case c.Bar != nil:
		return c.Bar.Title
	case c.Scatter != nil:
		return c.Scatter.Title
	case c.Grouped != nil:
		return c.Grouped.Title
	}
	return ""
}
