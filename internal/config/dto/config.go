// Package dto defines configuration data transfer objects.
package dto

// ApplicationConfig is the root configuration for the process.
type ApplicationConfig struct {
	Application   ApplicationInfo     `mapstructure:"application"`
	Stream        StreamConfig        `mapstructure:"stream"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Shutdown      ShutdownConfig      `mapstructure:"shutdown"`
}

// ApplicationInfo identifies the application instance.
type ApplicationInfo struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// StreamConfig configures the fan-out engine.
type StreamConfig struct {
	// BlockSizeBytes is the pool block size (the -b option).
	BlockSizeBytes int64 `mapstructure:"block_size_bytes"`
	// Mode is "copy" or "scatter" (the -s option selects scatter).
	Mode string `mapstructure:"mode"`
	// LineAligned constrains scatter boundaries to newline edges (-l).
	LineAligned bool `mapstructure:"line_aligned"`
}

// ObservabilityConfig groups logging, metrics and health settings.
type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Health  HealthConfig  `mapstructure:"health"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig configures the Prometheus endpoint. Path is loaded but the
// metrics server always serves /metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// HealthConfig configures the health probe endpoint.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// ShutdownConfig controls graceful shutdown behavior.
type ShutdownConfig struct {
	GracePeriodSeconds int `mapstructure:"grace_period_seconds"`
}
