package dataprocessing

import (
	"errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"flowpulse/pkg/contracts/domain"
)

// ErrEmptyDataset signals a dataset without equipment rows. It is a valid state, not a failure.
var ErrEmptyDataset = errors.New("no equipment data found")

// columns holds the three numeric fields as parallel slices
type columns struct {
	flowrate    []float64
	pressure    []float64
	temperature []float64
}

func split(records []domain.Equipment) columns {
	c := columns{
		flowrate:    make([]float64, len(records)),
		pressure:    make([]float64, len(records)),
		temperature: make([]float64, len(records)),
	}
	for i, r := range records {
		c.flowrate[i] = r.Flowrate
		c.pressure[i] = r.Pressure
		c.temperature[i] = r.Temperature
	}
	return c
}

// Summarize computes counts, averages and the type distribution
func Summarize(records []domain.Equipment) (domain.Summary, error) {
	if len(records) == 0 {
		return domain.Summary{}, ErrEmptyDataset
	}

	c := split(records)
	return domain.Summary{
		TotalCount:       len(records),
		AvgFlowrate:      stat.Mean(c.flowrate, nil),
		AvgPressure:      stat.Mean(c.pressure, nil),
		AvgTemperature:   stat.Mean(c.temperature, nil),
		TypeDistribution: typeDistribution(records),
	}, nil
}

// ComputeStatistics returns mean, population std, min and max of each numeric field
func ComputeStatistics(records []domain.Equipment) (domain.Statistics, error) {
	if len(records) == 0 {
		return domain.Statistics{}, ErrEmptyDataset
	}

	c := split(records)
	return domain.Statistics{
		Flowrate:    fieldStats(c.flowrate),
		Pressure:    fieldStats(c.pressure),
		Temperature: fieldStats(c.temperature),
	}, nil
}

func fieldStats(values []float64) domain.FieldStats {
	mean, std := stat.PopMeanStdDev(values, nil)
	return domain.FieldStats{
		Mean: mean,
		Std:  std,
		Min:  floats.Min(values),
		Max:  floats.Max(values),
	}
}

// typeDistribution counts types in one scan, keeping first-seen order
func typeDistribution(records []domain.Equipment) domain.TypeDistribution {
	index := make(map[string]int)
	dist := make(domain.TypeDistribution, 0)
	for _, r := range records {
		i, ok := index[r.Type]
		if !ok {
			i = len(dist)
			index[r.Type] = i
			dist = append(dist, domain.TypeCount{Type: r.Type})
		}
		dist[i].Count++
	}
	return dist
}

// MostFrequentType returns the most common type; ties go to the type seen first
func MostFrequentType(dist domain.TypeDistribution) (domain.TypeCount, bool) {
	if len(dist) == 0 {
		return domain.TypeCount{}, false
	}
	best := dist[0]
	for _, tc := range dist[1:] {
		if tc.Count > best.Count {
			best = tc
		}
	}
	return best, true
}

// CountAbove returns how many values are strictly greater than threshold
func CountAbove(values []float64, threshold float64) int {
	n := 0
	for _, v := range values {
		if v > threshold {
			n++
		}
	}
	return n
}

// Temperatures returns the temperature column in dataset order
func Temperatures(records []domain.Equipment) []float64 {
	return split(records).temperature
}

// Pressures returns the pressure column in dataset order
func Pressures(records []domain.Equipment) []float64 {
	return split(records).pressure
}
