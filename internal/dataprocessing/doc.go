// Package dataprocessing turns stored equipment rows into aggregates and chart series.
//
// Everything here is pure and deterministic: the same equipment sequence always
// yields the same Summary, Statistics and ChartSet, so results are recomputed
// on demand and never cached.
//
// # Aggregation
//
//	summary, err := dataprocessing.Summarize(ds.Equipment)
//	if errors.Is(err, dataprocessing.ErrEmptyDataset) {
//	    // a valid state: the dataset simply has no rows
//	}
//
// Statistics use population standard deviation (divide by N).
//
// # Charts
//
// BuildCharts returns the five chart series shown by the dashboard and the
// report: type distribution, flowrate by equipment (first 8 rows), pressure
// against temperature with an optional least squares trend, per-type averages
// and the temperature sequence with running statistics.
package dataprocessing
