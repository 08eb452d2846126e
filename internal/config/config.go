package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/sondr3/git-anger-management/internal/history"
	"github.com/sondr3/git-anger-management/internal/observability"
	"github.com/sondr3/git-anger-management/internal/render"
	"github.com/sondr3/git-anger-management/pkg/gitlib"
)

// Config is the top-level configuration. Field tags use mapstructure for
// viper unmarshalling.
type Config struct {
	Scan      ScanConfig      `mapstructure:"scan"`
	Output    OutputConfig    `mapstructure:"output"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Server    ServerConfig    `mapstructure:"server"`
}

// ScanConfig controls history traversal.
type ScanConfig struct {
	Workers     int    `mapstructure:"workers"`
	FirstParent bool   `mapstructure:"first_parent"`
	Since       string `mapstructure:"since"`
	Limit       int    `mapstructure:"limit"`
	Reverse     bool   `mapstructure:"reverse"`
	WordsFile   string `mapstructure:"words_file"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Format  string `mapstructure:"format"`
	Sort    string `mapstructure:"sort"`
	Pad     bool   `mapstructure:"pad"`
	NoColor bool   `mapstructure:"no_color"`
}

// LoggingConfig controls the slog logger.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	Environment  string  `mapstructure:"environment"`
}

// ServerConfig controls the HTTP server started by "serve".
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// Path is the prefix every route is mounted under.
	Path  string `mapstructure:"path"`
	Name  string `mapstructure:"name"`
	Admin string `mapstructure:"admin"`
	// Root, when set, is the only directory tree the server may scan.
	Root string `mapstructure:"root"`
}

const maxPort = 65535

// Sentinel errors for configuration validation.
var (
	// ErrInvalidWorkers indicates the workers value is negative or above
	// history.MaxWorkers.
	ErrInvalidWorkers = errors.New("scan.workers must be between 0 and 256")
	// ErrInvalidLimit indicates the commit limit is negative.
	ErrInvalidLimit = errors.New("scan.limit must be non-negative")
	// ErrInvalidSince indicates scan.since cannot be parsed as a time.
	ErrInvalidSince = errors.New("scan.since must be a duration, RFC 3339 time or date")
	// ErrInvalidFormat indicates an unsupported output format.
	ErrInvalidFormat = errors.New("output.format is not supported")
	// ErrInvalidSort indicates an unsupported sort order.
	ErrInvalidSort = errors.New("output.sort must be alpha or count")
	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("logging.level must be debug, info, warn or error")
	// ErrInvalidSampleRatio indicates the sample ratio is out of range.
	ErrInvalidSampleRatio = errors.New("telemetry.sample_ratio must be between 0 and 1")
	// ErrInvalidPort indicates the server port is out of range.
	ErrInvalidPort = errors.New("server.port must be between 1 and 65535")
	// ErrInvalidPath indicates the server path does not start with a slash.
	ErrInvalidPath = errors.New("server.path must start with /")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	err := c.validateScan()
	if err != nil {
		return err
	}

	err = c.validateOutput()
	if err != nil {
		return err
	}

	err = c.validateTelemetry()
	if err != nil {
		return err
	}

	return c.validateServer()
}

func (c *Config) validateScan() error {
	if c.Scan.Workers < 0 || c.Scan.Workers > history.MaxWorkers {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Scan.Workers)
	}

	if c.Scan.Limit < 0 {
		return ErrInvalidLimit
	}

	if _, err := c.SinceTime(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSince, err)
	}

	return nil
}

func (c *Config) validateOutput() error {
	if _, err := render.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}

	if _, err := render.ParseSort(c.Output.Sort); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSort, err)
	}

	return nil
}

func (c *Config) validateTelemetry() error {
	if _, err := observability.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLogLevel, err)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return ErrInvalidSampleRatio
	}

	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > maxPort {
		return ErrInvalidPort
	}

	if !strings.HasPrefix(c.Server.Path, "/") {
		return ErrInvalidPath
	}

	return nil
}

// SinceTime parses Scan.Since. It returns nil when no cutoff is configured.
func (c *Config) SinceTime() (*time.Time, error) {
	if strings.TrimSpace(c.Scan.Since) == "" {
		return nil, nil //nolint:nilnil // No cutoff is not an error.
	}

	t, err := gitlib.ParseTime(strings.TrimSpace(c.Scan.Since))
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// LogLevel returns the parsed logging level, info when invalid.
func (c *Config) LogLevel() slog.Level {
	level, err := observability.ParseLevel(c.Logging.Level)
	if err != nil {
		return slog.LevelInfo
	}

	return level
}

// Observability builds the telemetry configuration for the given mode.
func (c *Config) Observability(mode observability.AppMode, version string) observability.Config {
	oc := observability.DefaultConfig()
	oc.ServiceVersion = version
	oc.Environment = c.Telemetry.Environment
	oc.Mode = mode
	oc.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	oc.OTLPInsecure = c.Telemetry.OTLPInsecure
	oc.OTLPHeaders = observability.ParseOTLPHeaders(c.Telemetry.OTLPHeaders)
	oc.SampleRatio = c.Telemetry.SampleRatio
	oc.LogLevel = c.LogLevel()
	oc.LogJSON = c.Logging.JSON
	oc.Prometheus = mode == observability.ModeServe

	return oc
}

// Addr returns the host:port the server listens on.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Prefix returns Path with exactly one trailing slash.
func (s ServerConfig) Prefix() string {
	return strings.TrimRight(s.Path, "/") + "/"
}
