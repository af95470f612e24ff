package services

import (
	"flowpulse/internal/dataprocessing"
	"flowpulse/internal/retention"
)

// Sentinel errors callers match with errors.Is
var (
	// ErrDatasetNotFound covers unknown ids and datasets owned by someone else
	ErrDatasetNotFound = retention.ErrNotFound

	// ErrEmptyDataset marks a dataset with no equipment rows; it is a state, not a failure
	ErrEmptyDataset = dataprocessing.ErrEmptyDataset
)
