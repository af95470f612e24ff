package config

import "time"

// Application constants for the Flow Pulse service
const (
	// Application Info
	AppName    = "Flow Pulse"
	AppVersion = "1.0.0"

	// CSV columns every upload must carry (exact, case-sensitive)
	ColumnEquipmentName = "Equipment Name"
	ColumnType          = "Type"
	ColumnFlowrate      = "Flowrate"
	ColumnPressure      = "Pressure"
	ColumnTemperature   = "Temperature"

	// Retention
	DefaultRetentionCapacity = 5

	// Chart and report windows
	FlowrateChartWindow  = 8
	FlowrateLabelMaxLen  = 12
	DetailTableMaxRows   = 15
	DetailNameMaxLen     = 20
	DefaultReportFormat  = "pdf"
	DefaultMaxUploadSize = 10 << 20 // 10 MiB

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Network Timeouts
	DefaultHTTPTimeout  = 30 * time.Second
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// WebSocket Buffer Sizes
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Storage backends
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"

	// Endpoints
	APIBasePath       = "/api"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
	OwnerHeader       = "X-Owner-ID"
)

// RequiredColumns returns the CSV header names an upload must contain
func RequiredColumns() []string {
	return []string{
		ColumnEquipmentName,
		ColumnType,
		ColumnFlowrate,
		ColumnPressure,
		ColumnTemperature,
	}
}
