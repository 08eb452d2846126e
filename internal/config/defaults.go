// Package config loads git-anger-management settings from an optional YAML
// file, ANGER_* environment variables and command-line flags.
package config

// Scan defaults.
const (
	DefaultScanWorkers     = 0
	DefaultScanFirstParent = false
	DefaultScanSince       = ""
	DefaultScanLimit       = 0
	DefaultScanReverse     = false
	DefaultScanWordsFile   = ""
)

// Output defaults.
const (
	DefaultOutputFormat  = "table"
	DefaultOutputSort    = "alpha"
	DefaultOutputPad     = false
	DefaultOutputNoColor = false
)

// Logging defaults.
const (
	DefaultLoggingLevel = "info"
	DefaultLoggingJSON  = false
)

// Telemetry defaults.
const (
	DefaultTelemetryOTLPEndpoint = ""
	DefaultTelemetryOTLPInsecure = false
	DefaultTelemetryOTLPHeaders  = ""
	DefaultTelemetrySampleRatio  = 0.0
	DefaultTelemetryEnvironment  = ""
)

// Server defaults.
const (
	DefaultServerHost  = "localhost"
	DefaultServerPort  = 8080
	DefaultServerPath  = "/"
	DefaultServerName  = "anger"
	DefaultServerAdmin = ""
	DefaultServerRoot  = ""
)
