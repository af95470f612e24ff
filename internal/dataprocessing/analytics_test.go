package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowpulse/pkg/contracts/domain"
)

func pumps() []domain.Equipment {
	return []domain.Equipment{
		{Name: "Pump1", Type: "Pump", Flowrate: 10, Pressure: 2, Temperature: 30},
		{Name: "Pump2", Type: "Pump", Flowrate: 20, Pressure: 4, Temperature: 50},
	}
}

func TestSummarize(t *testing.T) {
	summary, err := Summarize(pumps())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalCount)
	assert.InDelta(t, 15.0, summary.AvgFlowrate, 1e-9)
	assert.InDelta(t, 3.0, summary.AvgPressure, 1e-9)
	assert.InDelta(t, 40.0, summary.AvgTemperature, 1e-9)
	assert.Equal(t, domain.TypeDistribution{{Type: "Pump", Count: 2}}, summary.TypeDistribution)
}

func TestSummarize_TypeOrderIsFirstSeen(t *testing.T) {
	records := []domain.Equipment{
		{Type: "Valve"}, {Type: "Pump"}, {Type: "Valve"}, {Type: "Boiler"}, {Type: "Pump"}, {Type: "Valve"},
	}
	summary, err := Summarize(records)
	require.NoError(t, err)
	assert.Equal(t, domain.TypeDistribution{
		{Type: "Valve", Count: 3},
		{Type: "Pump", Count: 2},
		{Type: "Boiler", Count: 1},
	}, summary.TypeDistribution)
}

func TestSummarize_Empty(t *testing.T) {
	_, err := Summarize(nil)
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, err = ComputeStatistics([]domain.Equipment{})
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestComputeStatistics_PopulationStd(t *testing.T) {
	stats, err := ComputeStatistics(pumps())
	require.NoError(t, err)

	assert.Equal(t, domain.FieldStats{Mean: 15, Std: 5, Min: 10, Max: 20}, roundStats(stats.Flowrate))
	assert.Equal(t, domain.FieldStats{Mean: 3, Std: 1, Min: 2, Max: 4}, roundStats(stats.Pressure))
	assert.Equal(t, domain.FieldStats{Mean: 40, Std: 10, Min: 30, Max: 50}, roundStats(stats.Temperature))
}

func TestComputeStatistics_SingleRow(t *testing.T) {
	stats, err := ComputeStatistics(pumps()[:1])
	require.NoError(t, err)
	assert.Equal(t, 0.0, stats.Temperature.Std)
	assert.Equal(t, 30.0, stats.Temperature.Min)
	assert.Equal(t, 30.0, stats.Temperature.Max)
}

func TestMostFrequentType(t *testing.T) {
	tests := []struct {
		name string
		dist domain.TypeDistribution
		want string
		ok   bool
	}{
		{"empty", nil, "", false},
		{"clear winner", domain.TypeDistribution{{Type: "Pump", Count: 1}, {Type: "Valve", Count: 3}}, "Valve", true},
		{"tie goes to first seen", domain.TypeDistribution{{Type: "Pump", Count: 2}, {Type: "Valve", Count: 2}, {Type: "Fan", Count: 1}}, "Pump", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MostFrequentType(tt.dist)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got.Type)
		})
	}
}

func TestCountAbove(t *testing.T) {
	assert.Equal(t, 2, CountAbove([]float64{1, 5, 5.1, 9}, 5))
	assert.Equal(t, 0, CountAbove(nil, 0))
}

// roundStats trims float noise so results compare exactly
func roundStats(fs domain.FieldStats) domain.FieldStats {
	r := func(v float64) float64 {
		return float64(int64(v*1e6+0.5)) / 1e6
	}
	return domain.FieldStats{Mean: r(fs.Mean), Std: r(fs.Std), Min: r(fs.Min), Max: r(fs.Max)}
}
