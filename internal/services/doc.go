// Package services implements the Flow Pulse core facade between the
// transport layer and the pipeline packages.
//
// EquipmentService runs ingestion (validation, then bounded retention),
// the read operations (listing, equipment, summary, charts, CSV export) and
// report rendering. Every operation takes the already-authenticated owner id;
// datasets of other owners are reported as ErrDatasetNotFound.
//
// Logging follows one rule: empty datasets are logged at Info, rejected
// uploads at Warn and storage failures at Error.
//
// HealthService backs the health, readiness, liveness and version endpoints.
package services
