// Package files discovers equipment CSV files on disk for batch report generation.
//
// Relative directories are resolved against the base path of the Discovery:
//
//	discovery := files.NewDiscovery("/data/plants")
//	inputs, err := discovery.FindCSVFiles("2024")
package files
