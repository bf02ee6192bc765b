package config

import "time"

// Application constants for the coffee sales dashboard
const (
	// Application Info
	AppName     = "Coffee Sales Dashboard"
	AppVersion  = "1.0.0"
	ServiceName = "coffeedash"

	// Server
	DefaultPort           = 8080
	DefaultRequestTimeout = 60 * time.Second

	// Uploads
	DefaultMaxUploadBytes int64 = 32 << 20 // 32MB
	UploadFormField             = "file"
	// multipart parts beyond this are spilled to temp files by net/http
	MultipartMemoryBytes int64 = 8 << 20

	// Rate Limiting
	DefaultRateLimit = 20 // requests per second
	DefaultBurstSize = 40

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Dashboard presentation
	DefaultCurrencySymbol = "Rp"
	DefaultTopProducts    = 10
	DefaultPieSlices      = 5
	DefaultTableRowLimit  = 1000

	// API Endpoints (internal)
	APIBasePath       = "/api/v1"
	DashboardEndpoint = "/dashboard"
	HealthEndpoint    = "/api/health"
	MetricsEndpoint   = "/metrics"
)

// AcceptedExtensions lists the upload extensions the loader understands
var AcceptedExtensions = []string{".csv", ".xlsx"}
