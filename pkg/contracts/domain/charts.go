package domain

// ChartSet bundles every chart series derived from a dataset
type ChartSet struct {
	TypeDistribution    PieChart     `json:"type_distribution"`
	Flowrate            BarChart     `json:"flowrate"`
	PressureTemperature ScatterChart `json:"pressure_temperature"`
	TypeAverages        GroupedChart `json:"type_averages"`
	TemperatureSeries   LineChart    `json:"temperature_series"`
}

// Axes carries the title and axis captions of a chart
type Axes struct {
	Title  string `json:"title"`
	XLabel string `json:"x_label,omitempty"`
	YLabel string `json:"y_label,omitempty"`
}

// Slice is one pie sector
type Slice struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
	Legend   string `json:"legend"`
}

// PieChart is the equipment type distribution
type PieChart struct {
	Axes
	Slices []Slice `json:"slices"`
}

// Bar is one labelled bar
type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// BarChart is the flowrate-by-equipment chart
type BarChart struct {
	Axes
	Bars []Bar `json:"bars"`
}

// Point is a (pressure, temperature) pair
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TrendLine is a degree-1 least squares fit y = Slope*x + Intercept
type TrendLine struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// At evaluates the line at x
func (t TrendLine) At(x float64) float64 {
	return t.Slope*x + t.Intercept
}

// ScatterChart plots pressure against temperature.
// Trend is nil when fewer than two points exist or the fit is undefined.
type ScatterChart struct {
	Axes
	Points []Point    `json:"points"`
	Trend  *TrendLine `json:"trend,omitempty"`
}

// TypeAverage holds the per-type means of each numeric field
type TypeAverage struct {
	Type        string  `json:"type"`
	Flowrate    float64 `json:"flowrate"`
	Pressure    float64 `json:"pressure"`
	Temperature float64 `json:"temperature"`
}

// GroupedChart is the average-by-type comparison
type GroupedChart struct {
	Axes
	Groups []TypeAverage `json:"groups"`
}

// LineChart is the temperature trend with running statistics.
// RunningMin[i], RunningMax[i] and RunningMean[i] cover the prefix 0..i.
type LineChart struct {
	Axes
	Values      []float64  `json:"values"`
	RunningMin  []float64  `json:"running_min"`
	RunningMax  []float64  `json:"running_max"`
	RunningMean []float64  `json:"running_mean"`
	Stats       FieldStats `json:"stats"`
}
