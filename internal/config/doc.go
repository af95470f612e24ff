// Package config provides configuration management for the Flow Pulse service.
//
// # Configuration Sources
//
// Configuration is resolved in order of increasing precedence:
//
//  1. Default values (Default)
//  2. A YAML file: $FLOWPULSE_CONFIG_FILE, ./config.yaml or ./configs/config.yaml
//  3. Environment variables with the FLOWPULSE_ prefix
//
// # Environment Variables
//
// Nested sections are joined with underscores:
//
//	FLOWPULSE_SERVER_PORT=8080
//	FLOWPULSE_STORAGE_BACKEND=sqlite
//	FLOWPULSE_STORAGE_SQLITE_PATH=data/flowpulse.db
//	FLOWPULSE_STORAGE_CAPACITY=5
//	FLOWPULSE_UPLOAD_MAX_BYTES=10485760
//	FLOWPULSE_REPORT_DEFAULT_FORMAT=pdf
//	FLOWPULSE_LOGGING_LEVEL=debug
//
// Load validates the result; an invalid value fails startup rather than
// being silently replaced.
package config
