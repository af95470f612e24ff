package dataprocessing

import (
	"fmt"
	"math"
	"unicode/utf8"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"flowpulse/internal/config"
	"flowpulse/pkg/contracts/domain"
)

// Chart titles and axis captions
const (
	TitleTypeDistribution = "Equipment Distribution by Type"
	TitleFlowrate         = "Flowrate by Equipment (Top 8)"
	TitleScatter          = "Pressure vs Temperature Correlation"
	TitleTypeAverages     = "Average Flowrate by Equipment Type"
	TitleTemperature      = "Temperature Trend"
)

// BuildCharts derives every chart series from the equipment rows
func BuildCharts(records []domain.Equipment) (domain.ChartSet, error) {
	if len(records) == 0 {
		return domain.ChartSet{}, ErrEmptyDataset
	}

	return domain.ChartSet{
		TypeDistribution:    TypeDistributionChart(records),
		Flowrate:            FlowrateChart(records),
		PressureTemperature: ScatterChart(records),
		TypeAverages:        TypeAveragesChart(records),
		TemperatureSeries:   TemperatureChart(records),
	}, nil
}

// TypeDistributionChart builds the pie slices with "{type} ({count})" legends
func TypeDistributionChart(records []domain.Equipment) domain.PieChart {
	chart := domain.PieChart{
		Axes:   domain.Axes{Title: TitleTypeDistribution},
		Slices: make([]domain.Slice, 0),
	}
	for _, tc := range typeDistribution(records) {
		chart.Slices = append(chart.Slices, domain.Slice{
			Category: tc.Type,
			Count:    tc.Count,
			Legend:   fmt.Sprintf("%s (%d)", tc.Type, tc.Count),
		})
	}
	return chart
}

// FlowrateChart plots the first eight rows. Names longer than twelve characters
// are replaced by "{type}-{k}", k counting rows of that type up to and including this one.
func FlowrateChart(records []domain.Equipment) domain.BarChart {
	window := records
	if len(window) > config.FlowrateChartWindow {
		window = window[:config.FlowrateChartWindow]
	}

	chart := domain.BarChart{
		Axes: domain.Axes{
			Title:  TitleFlowrate,
			XLabel: "Equipment",
			YLabel: "Flowrate (L/min)",
		},
		Bars: make([]domain.Bar, 0, len(window)),
	}

	seen := make(map[string]int)
	for _, r := range window {
		seen[r.Type]++
		label := r.Name
		if utf8.RuneCountInString(label) > config.FlowrateLabelMaxLen {
			label = fmt.Sprintf("%s-%d", r.Type, seen[r.Type])
		}
		chart.Bars = append(chart.Bars, domain.Bar{Label: label, Value: r.Flowrate})
	}
	return chart
}

// ScatterChart pairs pressure with temperature and fits a trend line when possible
func ScatterChart(records []domain.Equipment) domain.ScatterChart {
	c := split(records)
	chart := domain.ScatterChart{
		Axes: domain.Axes{
			Title:  TitleScatter,
			XLabel: "Pressure (bar)",
			YLabel: "Temperature (°C)",
		},
		Points: make([]domain.Point, len(records)),
	}
	for i := range records {
		chart.Points[i] = domain.Point{X: c.pressure[i], Y: c.temperature[i]}
	}
	chart.Trend = fitTrend(c.pressure, c.temperature)
	return chart
}

// fitTrend returns the least squares line, or nil for fewer than two points
// or when every x is identical
func fitTrend(xs, ys []float64) *domain.TrendLine {
	if len(xs) < 2 {
		return nil
	}
	if floats.Min(xs) == floats.Max(xs) {
		return nil
	}
	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(slope) || math.IsInf(slope, 0) || math.IsNaN(intercept) || math.IsInf(intercept, 0) {
		return nil
	}
	return &domain.TrendLine{Slope: slope, Intercept: intercept}
}

// TypeAveragesChart computes per-type means in first-seen type order
func TypeAveragesChart(records []domain.Equipment) domain.GroupedChart {
	type acc struct {
		n                 int
		flow, press, temp float64
	}
	order := make([]string, 0)
	sums := make(map[string]*acc)
	for _, r := range records {
		a, ok := sums[r.Type]
		if !ok {
			a = &acc{}
			sums[r.Type] = a
			order = append(order, r.Type)
		}
		a.n++
		a.flow += r.Flowrate
		a.press += r.Pressure
		a.temp += r.Temperature
	}

	chart := domain.GroupedChart{
		Axes: domain.Axes{
			Title:  TitleTypeAverages,
			XLabel: "Equipment Type",
			YLabel: "Average Flowrate (L/min)",
		},
		Groups: make([]domain.TypeAverage, 0, len(order)),
	}
	for _, typ := range order {
		a := sums[typ]
		n := float64(a.n)
		chart.Groups = append(chart.Groups, domain.TypeAverage{
			Type:        typ,
			Flowrate:    a.flow / n,
			Pressure:    a.press / n,
			Temperature: a.temp / n,
		})
	}
	return chart
}

// TemperatureChart returns temperatures in dataset order with running min, max and mean
func TemperatureChart(records []domain.Equipment) domain.LineChart {
	temps := split(records).temperature
	chart := domain.LineChart{
		Axes: domain.Axes{
			Title:  TitleTemperature,
			XLabel: "Equipment",
			YLabel: "Temperature (°C)",
		},
		Values:      temps,
		RunningMin:  make([]float64, len(temps)),
		RunningMax:  make([]float64, len(temps)),
		RunningMean: make([]float64, len(temps)),
	}

	var sum float64
	for i, t := range temps {
		sum += t
		if i == 0 {
			chart.RunningMin[i], chart.RunningMax[i] = t, t
		} else {
			chart.RunningMin[i] = math.Min(chart.RunningMin[i-1], t)
			chart.RunningMax[i] = math.Max(chart.RunningMax[i-1], t)
		}
		chart.RunningMean[i] = sum / float64(i+1)
	}
	if len(temps) > 0 {
		chart.Stats = fieldStats(temps)
	}
	return chart
}
