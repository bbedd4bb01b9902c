// SPDX-License-Identifier: BSD-3-Clause

package telemetry

// Config holds the configuration for telemetry providers.
//
// Eruption never exports telemetry; every service's metrics and traces stay
// in-process and no endpoint serves them (service/statussrv exposes only
// /healthz and /statusz), so this config only controls resource attribution
// and sampling, not exporter selection.
type Config struct {
	serviceName    string
	serviceVersion string
	enableMetrics  bool
	enableTraces   bool
	samplingRatio  float64
	resourceAttrs  map[string]string
}

// DefaultConfig returns a default configuration for telemetry providers.
func DefaultConfig() *Config {
	return &Config{
		serviceName:    "eruptiond",
		serviceVersion: "1.0.0",
		enableMetrics:  true,
		enableTraces:   true,
		samplingRatio:  1.0,
		resourceAttrs:  make(map[string]string),
	}
}

// Option defines a function that modifies the telemetry configuration.
type Option func(*Config)

// WithServiceName sets the service name for telemetry data.
func WithServiceName(name string) Option {
	return func(c *Config) {
		c.serviceName = name
	}
}

// WithServiceVersion sets the service version for telemetry data.
func WithServiceVersion(version string) Option {
	return func(c *Config) {
		c.serviceVersion = version
	}
}

// WithMetrics enables or disables metrics collection.
func WithMetrics(enabled bool) Option {
	return func(c *Config) {
		c.enableMetrics = enabled
	}
}

// WithTraces enables or disables trace collection.
func WithTraces(enabled bool) Option {
	return func(c *Config) {
		c.enableTraces = enabled
	}
}

// WithSamplingRatio sets the sampling ratio for traces (0.0 to 1.0).
func WithSamplingRatio(ratio float64) Option {
	return func(c *Config) {
		if ratio < 0.0 {
			ratio = 0.0
		}
		if ratio > 1.0 {
			ratio = 1.0
		}
		c.samplingRatio = ratio
	}
}

// WithResourceAttributes sets additional resource attributes for telemetry data.
func WithResourceAttributes(attrs map[string]string) Option {
	return func(c *Config) {
		c.resourceAttrs = attrs
	}
}
